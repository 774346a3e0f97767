package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RejectReason names the first required field that failed to parse.
type RejectReason string

const (
	RejectInvalidDate        RejectReason = "invalid_date"
	RejectMissingLocality    RejectReason = "missing_locality"
	RejectInvalidTemperature RejectReason = "invalid_temperature"
)

// CleanReport counts the outcome of a Clean call.
type CleanReport struct {
	Total    int
	Kept     int
	Rejected map[RejectReason]int
}

// RejectedTotal returns the number of discarded rows.
func (r CleanReport) RejectedTotal() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// openDateLayouts lists the accepted textual date formats, tried in order.
// Day-first layouts follow the municipal export format.
var openDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006 15:04",
	"2/1/2006",
	"02.01.2006",
}

// Clean coerces raw complaints into typed records. A row whose open date,
// locality, or temperature cannot be parsed is discarded and counted in the
// report; it is never defaulted. Duration is optional and left nil when
// unparseable.
func Clean(raws []RawComplaint) ([]CleanedRecord, CleanReport) {
	report := CleanReport{Total: len(raws), Rejected: map[RejectReason]int{}}
	out := make([]CleanedRecord, 0, len(raws))

	for _, raw := range raws {
		rec, reason, ok := cleanOne(raw)
		if !ok {
			report.Rejected[reason]++
			continue
		}
		out = append(out, rec)
	}
	report.Kept = len(out)
	return out, report
}

func cleanOne(raw RawComplaint) (CleanedRecord, RejectReason, bool) {
	date, ok := parseOpenDate(string(raw.OpenDate))
	if !ok {
		return CleanedRecord{}, RejectInvalidDate, false
	}
	locality := NormalizeText(string(raw.Locality))
	if locality == "" {
		return CleanedRecord{}, RejectMissingLocality, false
	}
	temp, ok := parseFinite(string(raw.Temperature))
	if !ok {
		return CleanedRecord{}, RejectInvalidTemperature, false
	}

	rec := CleanedRecord{
		Locality:                   locality,
		Date:                       date,
		Topic:                      NormalizeText(string(raw.Topic)),
		Department:                 NormalizeText(string(raw.Department)),
		Status:                     Status(NormalizeText(string(raw.Status))),
		Temperature:                temp,
		ExceededDeadline:           int(raw.ExceededDeadline),
		ExceededDeadlinePercentage: int(raw.ExceededDeadlinePercentage),
	}
	if d, ok := parseFinite(string(raw.Duration)); ok {
		rec.Duration = &d
	}
	return rec, "", true
}

// NormalizeText trims a categorical value and collapses inner whitespace runs
// to a single space, so "Kfar  Vitkin " and "Kfar Vitkin" encode identically.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseOpenDate accepts the textual layouts above or a Unix timestamp in
// seconds or milliseconds. Timestamps resolve to a UTC date; textual values
// keep the date as written.
func parseOpenDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return time.Time{}, false
		}
		// Anything past 1e11 cannot be seconds before year 5000.
		if n > 1e11 {
			return DateOf(time.UnixMilli(n).UTC()), true
		}
		return DateOf(time.Unix(n, 0).UTC()), true
	}
	for _, layout := range openDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}

// parseFinite parses a decimal number, accepting a comma as the decimal
// separator, and rejects NaN and infinities.
func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
