// Package openmeteo resolves daily mean temperatures from the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/config"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
)

// Client implements domain.TemperatureSource for one fixed location.
type Client struct {
	httpClient *http.Client
	baseURL    string
	latitude   float64
	longitude  float64
	timezone   string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client for the configured coordinates.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.WeatherTimeout,
		},
		baseURL:   cfg.WeatherBaseURL,
		latitude:  cfg.WeatherLatitude,
		longitude: cfg.WeatherLongitude,
		timezone:  cfg.WeatherTimezone,
		metrics:   metrics,
		logger:    logger,
	}
}

// DailyMeanTemperature returns the mean of the forecast daily maximum and
// minimum temperature for date. Every failure wraps
// domain.ErrTemperatureUnavailable.
func (c *Client) DailyMeanTemperature(ctx context.Context, date time.Time) (float64, error) {
	day := date.Format(time.DateOnly)
	params := url.Values{
		"latitude":   {strconv.FormatFloat(c.latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(c.longitude, 'f', -1, 64)},
		"daily":      {"temperature_2m_max,temperature_2m_min"},
		"timezone":   {c.timezone},
		"start_date": {day},
		"end_date":   {day},
	}

	start := time.Now()
	temp, err := c.doRequest(ctx, c.baseURL+"/v1/forecast?"+params.Encode(), day)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("temperature lookup failed", "date", day, "error", err)
		return 0, fmt.Errorf("%w: %w", domain.ErrTemperatureUnavailable, err)
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return temp, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, day string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var forecast response
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	d := forecast.Daily
	for i, t := range d.Time {
		if t != day || i >= len(d.Max) || i >= len(d.Min) {
			continue
		}
		if d.Max[i] == nil || d.Min[i] == nil {
			return 0, fmt.Errorf("no temperature for %s", day)
		}
		return (*d.Max[i] + *d.Min[i]) / 2, nil
	}
	return 0, fmt.Errorf("date %s not in forecast", day)
}

// Open-Meteo API response types.

type response struct {
	Daily daily `json:"daily"`
}

type daily struct {
	Time []string   `json:"time"`
	Max  []*float64 `json:"temperature_2m_max"`
	Min  []*float64 `json:"temperature_2m_min"`
}
