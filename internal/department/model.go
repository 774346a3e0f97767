// Package department predicts which municipal department will handle a
// complaint.
package department

import (
	"fmt"
	"math"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/features"
	"github.com/couchcryptid/complaint-forecast-service/internal/model"
)

const (
	// testFraction of the labelled records is held out to measure accuracy.
	testFraction = 0.2
	splitSeed    = 42
)

// Model classifies complaints from {locality code, month, dayOfWeek,
// temperature}. It owns its own encoders, independent of the forecast
// schema. A nil *Model is valid and reports domain.ErrModelUnavailable.
type Model struct {
	localities  *features.LabelEncoder
	departments *features.LabelEncoder
	forest      *model.Forest
	accuracy    float64 // NaN when nothing was held out
	trainRows   int
	testRows    int
}

// Train fits a classifier on the records that carry a department. The
// hold-out accuracy is informational and never blocks serving.
func Train(records []domain.CleanedRecord) (*Model, error) {
	labelled := make([]domain.CleanedRecord, 0, len(records))
	for _, r := range records {
		if r.Locality != "" && r.Department != "" {
			labelled = append(labelled, r)
		}
	}
	if len(labelled) == 0 {
		return nil, fmt.Errorf("train department: %w", domain.ErrDataUnavailable)
	}

	locs := make([]string, len(labelled))
	deps := make([]string, len(labelled))
	for i, r := range labelled {
		locs[i] = r.Locality
		deps[i] = r.Department
	}
	m := &Model{
		localities:  features.NewLabelEncoder(locs),
		departments: features.NewLabelEncoder(deps),
	}

	x := make([][]float64, len(labelled))
	y := make([]int, len(labelled))
	for i, r := range labelled {
		code, _ := m.localities.Encode(r.Locality)
		cal := domain.CalendarOf(r.Date)
		x[i] = vector(code, cal.Month, cal.DayOfWeek, r.Temperature)
		y[i], _ = m.departments.Encode(r.Department)
	}

	trainIdx, testIdx := model.TrainTestSplit(len(labelled), testFraction, splitSeed)
	forest, err := model.FitForest(pick(x, trainIdx), pick(y, trainIdx), m.departments.Len(), model.DefaultForest())
	if err != nil {
		return nil, fmt.Errorf("train department: %w", err)
	}
	m.forest = forest
	m.trainRows, m.testRows = len(trainIdx), len(testIdx)

	predicted := make([]int, len(testIdx))
	for i, row := range pick(x, testIdx) {
		predicted[i] = forest.Predict(row)
	}
	m.accuracy = model.Accuracy(predicted, pick(y, testIdx))
	return m, nil
}

// Predict returns the most likely department label.
func (m *Model) Predict(locality string, month, dayOfWeek int, temperature float64) (string, error) {
	if m == nil {
		return "", domain.ErrModelUnavailable
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d outside 1-12: %w", month, domain.ErrInvalidInput)
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return "", fmt.Errorf("day of week %d outside 0-6: %w", dayOfWeek, domain.ErrInvalidInput)
	}
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return "", fmt.Errorf("temperature must be finite: %w", domain.ErrInvalidInput)
	}
	code, ok := m.localities.Encode(domain.NormalizeText(locality))
	if !ok {
		return "", fmt.Errorf("%q: %w", locality, domain.ErrUnknownLocality)
	}

	label, _ := m.departments.Decode(m.forest.Predict(vector(code, month, dayOfWeek, temperature)))
	return label, nil
}

// Accuracy returns the hold-out accuracy, or false when no rows were held out.
func (m *Model) Accuracy() (float64, bool) {
	if m == nil || math.IsNaN(m.accuracy) {
		return 0, false
	}
	return m.accuracy, true
}

// Departments returns the known department labels.
func (m *Model) Departments() []string {
	if m == nil {
		return nil
	}
	return m.departments.Classes()
}

// Localities returns the localities the classifier accepts.
func (m *Model) Localities() []string {
	if m == nil {
		return nil
	}
	return m.localities.Classes()
}

func vector(locality, month, dayOfWeek int, temperature float64) []float64 {
	return []float64{float64(locality), float64(month), float64(dayOfWeek), temperature}
}

func pick[T any](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}
