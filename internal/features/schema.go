// Package features turns daily aggregates into fixed-width numeric vectors.
package features

import (
	"slices"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
)

// Numeric column names, in vector order.
const (
	ColAvgTemperature = "avgTemperature"
	ColYear           = "year"
	ColMonth          = "month"
	ColDay            = "day"
	ColDayOfWeek      = "dayOfWeek"
	ColDayOfYear      = "dayOfYear"
	ColIsWeekend      = "isWeekend"
)

// LocalityPrefix prefixes every locality indicator column.
const LocalityPrefix = "Loc_"

var numericColumns = []string{
	ColAvgTemperature,
	ColYear,
	ColMonth,
	ColDay,
	ColDayOfWeek,
	ColDayOfYear,
	ColIsWeekend,
}

// Schema is the frozen column layout of the forecast feature vectors: the
// numeric columns followed by one indicator per training locality in
// lexicographic order. A Schema is immutable once built.
type Schema struct {
	columns    []string
	localities []string
	offset     map[string]int // locality -> column index
}

// BuildSchema derives a Schema from the localities present in rows.
func BuildSchema(rows []domain.DailyAggregate) Schema {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Locality] = struct{}{}
	}
	localities := make([]string, 0, len(seen))
	for l := range seen {
		localities = append(localities, l)
	}
	slices.Sort(localities)

	columns := make([]string, 0, len(numericColumns)+len(localities))
	columns = append(columns, numericColumns...)
	offset := make(map[string]int, len(localities))
	for _, l := range localities {
		offset[l] = len(columns)
		columns = append(columns, LocalityPrefix+l)
	}
	return Schema{columns: columns, localities: localities, offset: offset}
}

// Columns returns a copy of the column names in vector order.
func (s Schema) Columns() []string { return slices.Clone(s.columns) }

// Localities returns a copy of the localities with an indicator column.
func (s Schema) Localities() []string { return slices.Clone(s.localities) }

// Width is the length of every vector produced by this schema.
func (s Schema) Width() int { return len(s.columns) }

// HasLocality reports whether locality has an indicator column.
func (s Schema) HasLocality(locality string) bool {
	_, ok := s.offset[locality]
	return ok
}

// Encode converts a training row. The row's own locality indicator is set
// when the schema knows it.
func (s Schema) Encode(row domain.DailyAggregate) []float64 {
	return s.vector(row.Locality, row.AvgTemperature, row.Calendar)
}

// EncodeForInference builds the vector for a prediction request. The
// locality is normalized the same way cleaning does; an unknown locality
// yields an all-zero indicator block and never extends the schema.
func (s Schema) EncodeForInference(locality string, temperature float64, date time.Time) []float64 {
	return s.vector(domain.NormalizeText(locality), temperature, domain.CalendarOf(date))
}

func (s Schema) vector(locality string, temperature float64, c domain.Calendar) []float64 {
	v := make([]float64, len(s.columns))
	v[0] = temperature
	v[1] = float64(c.Year)
	v[2] = float64(c.Month)
	v[3] = float64(c.Day)
	v[4] = float64(c.DayOfWeek)
	v[5] = float64(c.DayOfYear)
	if c.IsWeekend {
		v[6] = 1
	}
	if i, ok := s.offset[locality]; ok {
		v[i] = 1
	}
	return v
}
