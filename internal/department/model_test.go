package department

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableRecords routes Hofit complaints to Water on warm days and
// Bat Hefer complaints to Roads on cool days.
func separableRecords(n int) []domain.CleanedRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.CleanedRecord, 0, 2*n)
	for i := range n {
		day := start.AddDate(0, 0, i)
		out = append(out,
			domain.CleanedRecord{Locality: "Hofit", Date: day, Department: "Water", Temperature: 20 + float64(i%5)},
			domain.CleanedRecord{Locality: "Bat Hefer", Date: day, Department: "Roads", Temperature: 5 + float64(i%5)},
		)
	}
	return out
}

func TestTrain(t *testing.T) {
	t.Run("no labelled records", func(t *testing.T) {
		records := []domain.CleanedRecord{{Locality: "Hofit", Date: time.Now()}}
		_, err := Train(records)
		require.ErrorIs(t, err, domain.ErrDataUnavailable)

		_, err = Train(nil)
		require.ErrorIs(t, err, domain.ErrDataUnavailable)
	})

	t.Run("learns separable departments", func(t *testing.T) {
		m, err := Train(separableRecords(20))
		require.NoError(t, err)

		assert.Equal(t, []string{"Roads", "Water"}, m.Departments())
		assert.Equal(t, []string{"Bat Hefer", "Hofit"}, m.Localities())

		got, err := m.Predict("Hofit", 3, 2, 22)
		require.NoError(t, err)
		assert.Equal(t, "Water", got)

		got, err = m.Predict("  Bat   Hefer ", 3, 2, 7)
		require.NoError(t, err)
		assert.Equal(t, "Roads", got)

		acc, ok := m.Accuracy()
		require.True(t, ok)
		assert.GreaterOrEqual(t, acc, 0.75)
		assert.Equal(t, 32, m.trainRows)
		assert.Equal(t, 8, m.testRows)
	})

	t.Run("single record trains without hold-out", func(t *testing.T) {
		m, err := Train(separableRecords(1)[:1])
		require.NoError(t, err)

		_, ok := m.Accuracy()
		assert.False(t, ok)

		got, err := m.Predict("Hofit", 1, 0, 21)
		require.NoError(t, err)
		assert.Equal(t, "Water", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := Train(separableRecords(15))
		require.NoError(t, err)
		b, err := Train(separableRecords(15))
		require.NoError(t, err)

		for temp := 0.0; temp <= 30; temp += 2.5 {
			pa, err := a.Predict("Hofit", 6, 4, temp)
			require.NoError(t, err)
			pb, err := b.Predict("Hofit", 6, 4, temp)
			require.NoError(t, err)
			assert.Equal(t, pa, pb)
		}
	})
}

func TestPredictErrors(t *testing.T) {
	var unavailable *Model
	_, err := unavailable.Predict("Hofit", 1, 0, 20)
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	_, ok := unavailable.Accuracy()
	assert.False(t, ok)
	assert.Nil(t, unavailable.Departments())

	m, err := Train(separableRecords(10))
	require.NoError(t, err)

	tests := []struct {
		name     string
		locality string
		month    int
		dow      int
		temp     float64
		want     error
	}{
		{"month zero", "Hofit", 0, 0, 20, domain.ErrInvalidInput},
		{"month thirteen", "Hofit", 13, 0, 20, domain.ErrInvalidInput},
		{"negative day", "Hofit", 1, -1, 20, domain.ErrInvalidInput},
		{"day seven", "Hofit", 1, 7, 20, domain.ErrInvalidInput},
		{"nan temperature", "Hofit", 1, 0, math.NaN(), domain.ErrInvalidInput},
		{"unknown locality", "Atlantis", 1, 0, 20, domain.ErrUnknownLocality},
		{"validation precedes lookup", "Atlantis", 0, 0, 20, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Predict(tt.locality, tt.month, tt.dow, tt.temp)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
