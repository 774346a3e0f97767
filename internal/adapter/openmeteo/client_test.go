package openmeteo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/config"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	cfg := &config.Config{
		WeatherBaseURL:   baseURL,
		WeatherLatitude:  32.35,
		WeatherLongitude: 34.9,
		WeatherTimezone:  "Asia/Jerusalem",
		WeatherTimeout:   timeout,
	}
	return NewClient(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr(v float64) *float64 { return &v }

func TestClient_DailyMeanTemperature_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "32.35", q.Get("latitude"))
		assert.Equal(t, "34.9", q.Get("longitude"))
		assert.Equal(t, "temperature_2m_max,temperature_2m_min", q.Get("daily"))
		assert.Equal(t, "Asia/Jerusalem", q.Get("timezone"))
		assert.Equal(t, "2024-05-01", q.Get("start_date"))
		assert.Equal(t, "2024-05-01", q.Get("end_date"))

		resp := response{Daily: daily{
			Time: []string{"2024-05-01"},
			Max:  []*float64{ptr(29)},
			Min:  []*float64{ptr(18)},
		}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	temp, err := c.DailyMeanTemperature(context.Background(), may1)
	require.NoError(t, err)

	assert.InDelta(t, 23.5, temp, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("success")), 0)
}

func TestClient_DailyMeanTemperature_DateMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily":{"time":["2024-05-02"],"temperature_2m_max":[30],"temperature_2m_min":[20]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).DailyMeanTemperature(context.Background(), may1)
	require.ErrorIs(t, err, domain.ErrTemperatureUnavailable)
	assert.Contains(t, err.Error(), "not in forecast")
}

func TestClient_DailyMeanTemperature_NullValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily":{"time":["2024-05-01"],"temperature_2m_max":[null],"temperature_2m_min":[20]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).DailyMeanTemperature(context.Background(), may1)
	require.ErrorIs(t, err, domain.ErrTemperatureUnavailable)
}

func TestClient_DailyMeanTemperature_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.DailyMeanTemperature(context.Background(), may1)
	require.ErrorIs(t, err, domain.ErrTemperatureUnavailable)
	assert.Contains(t, err.Error(), "400")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("error")), 0)
}

func TestClient_DailyMeanTemperature_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).DailyMeanTemperature(context.Background(), may1)
	require.ErrorIs(t, err, domain.ErrTemperatureUnavailable)
}
