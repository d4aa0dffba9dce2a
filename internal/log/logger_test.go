package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCorrelationID_UsesContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	ctx := context.WithValue(context.Background(), CorrelatedIDKey, "req-1")
	logger.WithCorrelationID(ctx).WithScope("waitlist").Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["correlation_id"])
	assert.Equal(t, "waitlist", record["scope"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestGetLoggerInstanceFromContext_PrefersInjected(t *testing.T) {
	injected := NewLogger(&bytes.Buffer{}, "")
	ctx := context.WithValue(context.Background(), LoggerKeyForContext, injected)

	assert.Same(t, injected, GetLoggerInstanceFromContext(ctx, nil))
	assert.NotNil(t, GetLoggerInstanceFromContext(context.Background(), nil))
}
