// Package kafka carries extraction jobs from the API server to the worker
// fleet.  One message per job; the worker loads the job row, runs the batch,
// and keeps the row's counters current.
package kafka

import (
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/sample"
)

// TopicJobs is the extraction job topic.
const TopicJobs = "geometax.jobs"

// Config holds broker and topic settings shared by producer and consumer.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	GroupID      string        `mapstructure:"group_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

func (c *Config) applyDefaults() {
	if c.Topic == "" {
		c.Topic = TopicJobs
	}
	if c.GroupID == "" {
		c.GroupID = "geometax-workers"
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

// JobMessage is the wire form of one enqueued extraction job.  The mapping
// travels with the message so workers need no side channel to associate
// samples with their series.
type JobMessage struct {
	JobID   uuid.UUID       `json:"job_id"`
	Mode    annotation.Mode `json:"mode"`
	Mapping sample.Mapping  `json:"mapping"`
}
