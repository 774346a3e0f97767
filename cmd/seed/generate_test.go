package main

import (
	"testing"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() generatorConfig {
	return generatorConfig{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Days:  60,
		Seed:  42,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := generate(testConfig())
	b := generate(testConfig())
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)

	other := testConfig()
	other.Seed = 7
	assert.NotEqual(t, a, generate(other))
}

func TestGenerateCleansWithoutRejects(t *testing.T) {
	raws := generate(testConfig())

	cleaned, report := domain.Clean(raws)

	assert.Len(t, cleaned, len(raws))
	assert.Zero(t, report.RejectedTotal())

	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC)
	for _, r := range cleaned {
		assert.False(t, r.Date.Before(first), r.Date)
		assert.False(t, r.Date.After(last), r.Date)
		assert.NotEmpty(t, r.Department)
	}
}

func TestGenerateCoversEveryLocality(t *testing.T) {
	cleaned, _ := domain.Clean(generate(testConfig()))
	seen := map[string]bool{}
	for _, r := range cleaned {
		seen[r.Locality] = true
	}
	for _, l := range localities {
		assert.True(t, seen[l.name], l.name)
	}
}

func TestGenerateOnlyRecentComplaintsInProgress(t *testing.T) {
	cfg := testConfig()
	cutoff := cfg.Start.AddDate(0, 0, cfg.Days-14)

	cleaned, _ := domain.Clean(generate(cfg))
	for _, r := range cleaned {
		if r.Status == statusInProgress {
			assert.False(t, r.Date.Before(cutoff), r.Date)
		}
	}
}

func TestChunks(t *testing.T) {
	var got [][]int
	for c := range chunks([]int{1, 2, 3, 4, 5}, 2) {
		got = append(got, c)
	}
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, got)
}
