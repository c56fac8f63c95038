package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes extraction jobs.
type Producer struct {
	writer Writer
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer creates a Producer over a real kafka writer.
func NewProducer(cfg Config, log logging.Logger) *Producer {
	cfg.applyDefaults()
	if log == nil {
		log = logging.NewNopLogger()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
	}
	return &Producer{writer: writer, logger: log}
}

// NewProducerWithWriter creates a Producer over a supplied writer.
func NewProducerWithWriter(w Writer, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: log}
}

// Publish enqueues one job message, keyed by job id so retries of the same
// job land on the same partition.
func (p *Producer) Publish(ctx context.Context, msg JobMessage) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeInternal, "producer closed")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode job message")
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.JobID.String()),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeJobEnqueueFailed, "failed to publish job").
			WithDetail(msg.JobID.String())
	}

	p.logger.Debug("job published",
		logging.String("job", msg.JobID.String()),
		logging.Int("samples", len(msg.Mapping)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
