// Package testutil provides shared test doubles.
package testutil

import (
	"sync"

	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry so tests can
// assert on logging behavior.
type MockLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(...logging.Field) logging.Logger { return m }
func (m *MockLogger) Named(string) logging.Logger          { return m }

// Messages returns a copy of every captured entry.
func (m *MockLogger) Messages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Clear drops all captured entries.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}

// HasMessage reports whether an entry with the given level and message was
// captured.
func (m *MockLogger) HasMessage(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logged := range m.messages {
		if logged.Level == level && logged.Message == msg {
			return true
		}
	}
	return false
}

var _ logging.Logger = (*MockLogger)(nil)
