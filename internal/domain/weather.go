package domain

import (
	"context"
	"time"
)

// TemperatureSource resolves the expected mean temperature for a date.
type TemperatureSource interface {
	DailyMeanTemperature(ctx context.Context, date time.Time) (float64, error)
}
