package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/complaint-forecast-service/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsForTesting_Register(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewPedanticRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.RowsRejected.WithLabelValues("invalid_date").Add(3)
	m.ModelAvailable.WithLabelValues("forecast").Set(1)

	assert.InDelta(t, 3, testutil.ToFloat64(m.RowsRejected.WithLabelValues("invalid_date")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ModelAvailable.WithLabelValues("forecast")), 0)
}

func TestMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.MessagesConsumed.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.MessagesConsumed), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.MessagesConsumed), 0)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, logger.Handler(), slog.Default().Handler())

	logger = NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
