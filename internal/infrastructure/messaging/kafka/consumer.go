package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one decoded job message.
type Handler func(ctx context.Context, msg JobMessage) error

// Consumer pulls job messages and hands them to the handler.  Messages are
// committed whether the handler succeeds or fails: job state lives in the
// job row, and redelivering a failed job would re-run the whole batch.
type Consumer struct {
	reader  Reader
	handler Handler
	logger  logging.Logger
}

// NewConsumer creates a Consumer over a real kafka reader.
func NewConsumer(cfg Config, handler Handler, log logging.Logger) *Consumer {
	cfg.applyDefaults()
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return newConsumer(reader, handler, log)
}

// NewConsumerWithReader creates a Consumer over a supplied reader.
func NewConsumerWithReader(r Reader, handler Handler, log logging.Logger) *Consumer {
	return newConsumer(r, handler, log)
}

func newConsumer(r Reader, handler Handler, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{reader: r, handler: handler, logger: log}
}

// Run consumes until the context is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch job message")
		}

		var msg JobMessage
		if err := json.Unmarshal(raw.Value, &msg); err != nil {
			c.logger.Error("dropping undecodable job message",
				logging.String("key", string(raw.Key)),
				logging.Err(errors.Wrap(err, errors.ErrCodeJobDecodeFailed, "malformed job payload")))
		} else if err := c.handler(ctx, msg); err != nil {
			c.logger.Error("job handler failed",
				logging.String("job", msg.JobID.String()),
				logging.Err(err))
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("failed to commit job offset",
				logging.String("key", string(raw.Key)),
				logging.Err(err))
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
