package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets/:id", "GET", 200, 30*time.Millisecond)
	m.RecordError("/tickets/:id", "PUT", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets/:id|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMs["/tickets/:id|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id|PUT|FORBIDDEN"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

func TestNewLoggerPicksEncodingFromEnv(t *testing.T) {
	cfg := config.Config{
		App:    config.AppConfig{Name: "helpdesk", Env: "production", Version: "1.2.3"},
		Logger: config.LoggerConfig{Level: "bogus"},
	}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.App.Env = "development"
	cfg.Logger = config.LoggerConfig{Level: "DEBUG", Format: "json"}
	logger, err = NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Logger.Format = "xml"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
