// Package forecast predicts daily complaint volume per locality.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/features"
	"github.com/couchcryptid/complaint-forecast-service/internal/model"
)

// Model pairs a frozen feature schema with the regressor trained on it.
// A nil *Model is valid and reports domain.ErrModelUnavailable.
type Model struct {
	schema    features.Schema
	regressor *model.GradientBoosting
}

// Train fits a model on daily aggregates with the complaint count as target.
func Train(rows []domain.DailyAggregate) (*Model, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("train forecast: %w", domain.ErrDataUnavailable)
	}

	schema := features.BuildSchema(rows)
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = schema.Encode(r)
		y[i] = float64(r.ComplaintCount)
	}

	reg, err := model.FitGradientBoosting(x, y, model.DefaultBoosting())
	if err != nil {
		return nil, fmt.Errorf("train forecast: %w", err)
	}
	return &Model{schema: schema, regressor: reg}, nil
}

// Schema returns the frozen feature schema, or an empty schema when m is nil.
func (m *Model) Schema() features.Schema {
	if m == nil {
		return features.Schema{}
	}
	return m.schema
}

// Predict returns the expected complaint count for locality on date.
// An unknown locality is encoded with no indicator set and still yields a
// prediction.
func (m *Model) Predict(locality string, temperature float64, date time.Time) (domain.Forecast, error) {
	if m == nil {
		return domain.Forecast{}, domain.ErrModelUnavailable
	}
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return domain.Forecast{}, fmt.Errorf("temperature must be finite: %w", domain.ErrInvalidInput)
	}
	raw := m.regressor.Predict(m.schema.EncodeForInference(locality, temperature, date))
	count := clampCount(raw)
	return domain.Forecast{
		Locality:            domain.NormalizeText(locality),
		PredictedComplaints: count,
		LoadLevel:           domain.LoadLevelFor(count),
	}, nil
}

// PredictAll forecasts every locality in the schema, in schema order.
func (m *Model) PredictAll(temperature float64, date time.Time) (domain.ForecastBatch, error) {
	if m == nil {
		return domain.ForecastBatch{}, domain.ErrModelUnavailable
	}
	localities := m.schema.Localities()
	batch := domain.ForecastBatch{Predictions: make([]domain.Forecast, 0, len(localities))}
	for _, l := range localities {
		f, err := m.Predict(l, temperature, date)
		if err != nil {
			return domain.ForecastBatch{}, err
		}
		batch.Predictions = append(batch.Predictions, f)
		batch.TotalPredictedComplaints += f.PredictedComplaints
	}
	return batch, nil
}

// clampCount rounds a raw regression output half away from zero and floors
// the result at zero. Non-finite outputs map to zero.
func clampCount(raw float64) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return int(math.Max(0, math.Round(raw)))
}
