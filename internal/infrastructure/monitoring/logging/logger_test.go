package logging_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

func newObservedLogger(level zapcore.Level) (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logging.NewLoggerFromCore(core), logs
}

func TestFieldConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logging.Field{Key: "gsm", Value: "GSM1234567"}, logging.String("gsm", "GSM1234567"))
	assert.Equal(t, logging.Field{Key: "rounds", Value: 3}, logging.Int("rounds", 3))
	assert.Equal(t, logging.Field{Key: "score", Value: 0.85}, logging.Float64("score", 0.85))
	assert.Equal(t, logging.Field{Key: "resolved", Value: true}, logging.Bool("resolved", true))
	assert.Equal(t, logging.Field{Key: "took", Value: time.Second}, logging.Duration("took", time.Second))

	err := errors.New("boom")
	assert.Equal(t, logging.Field{Key: "error", Value: "boom"}, logging.Err(err))
	assert.Equal(t, logging.Field{Key: "error", Value: "<nil>"}, logging.Err(nil))
}

func TestLogger_EmitsAtConfiguredLevel(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger(zapcore.InfoLevel)

	logger.Debug("hidden")
	logger.Info("resolution started", logging.String("gsm", "GSM1"))
	logger.Warn("slot degraded", logging.String("slot", "disease"))
	logger.Error("oracle call failed", logging.Err(errors.New("timeout")))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "resolution started", entries[0].Message)
	assert.Equal(t, "slot degraded", entries[1].Message)
	assert.Equal(t, "oracle call failed", entries[2].Message)
}

func TestLogger_WithAttachesFieldsToChildren(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger(zapcore.DebugLevel)
	child := logger.With(logging.String("component", "factor_resolver"))

	child.Info("round complete", logging.Int("round", 1))

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "factor_resolver", ctx["component"])
	assert.EqualValues(t, 1, ctx["round"])
}

func TestNewLogger_DefaultsAreApplied(t *testing.T) {
	t.Parallel()

	logger, err := logging.NewLogger(logging.LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNopLogger_IsSilentAndChainable(t *testing.T) {
	t.Parallel()

	nop := logging.NewNopLogger()
	assert.NotPanics(t, func() {
		nop.Debug("a")
		nop.Info("b")
		nop.Warn("c")
		nop.Error("d")
		nop.With(logging.String("k", "v")).Named("child").Info("e")
	})
}

func TestSetDefault_NilIsIgnored(t *testing.T) {
	logging.SetDefault(nil)
	assert.NotNil(t, logging.Default())

	logger, logs := newObservedLogger(zapcore.InfoLevel)
	logging.SetDefault(logger)
	logging.Default().Info("via default")
	require.Len(t, logs.All(), 1)
}
