package domain

import (
	"cmp"
	"slices"
	"time"
)

type dayKey struct {
	date     time.Time
	locality string
}

type dayAccumulator struct {
	count   int
	tempSum float64
}

// AggregateDaily collapses cleaned records into one row per (date, locality).
// Rows are returned sorted by date, then locality, so that training over the
// result is deterministic regardless of record order.
func AggregateDaily(records []CleanedRecord) []DailyAggregate {
	groups := make(map[dayKey]*dayAccumulator)
	for _, rec := range records {
		k := dayKey{date: DateOf(rec.Date), locality: rec.Locality}
		acc, ok := groups[k]
		if !ok {
			acc = &dayAccumulator{}
			groups[k] = acc
		}
		acc.count++
		acc.tempSum += rec.Temperature
	}

	out := make([]DailyAggregate, 0, len(groups))
	for k, acc := range groups {
		out = append(out, DailyAggregate{
			Date:           k.date,
			Locality:       k.locality,
			ComplaintCount: acc.count,
			AvgTemperature: acc.tempSum / float64(acc.count),
			Calendar:       CalendarOf(k.date),
		})
	}
	slices.SortFunc(out, func(a, b DailyAggregate) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Locality, b.Locality)
	})
	return out
}
