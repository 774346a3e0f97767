// Command validate runs data quality and training diagnostics over a
// complaint dataset, read either from a JSON fixture or from the SQLite
// record store. It checks cleaning reject rates, aggregation consistency,
// the frozen feature schema, and both trained models, and exits non-zero
// when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -json data/mock/complaints.json
//	go run ./cmd/validate -db "file:complaints.db" -max-reject 0.02 -min-accuracy 0.3
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/complaint-forecast-service/internal/department"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/features"
	"github.com/couchcryptid/complaint-forecast-service/internal/forecast"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// numericWidth is the number of non-indicator columns in a forecast vector.
const numericWidth = 7

type thresholds struct {
	maxRejectRate float64
	minAccuracy   float64
}

func main() {
	jsonPath := flag.String("json", "", "path to a JSON array of raw complaints")
	dsn := flag.String("db", "", "SQLite DSN of the record store")
	maxReject := flag.Float64("max-reject", 0.05, "largest acceptable fraction of rejected rows")
	minAccuracy := flag.Float64("min-accuracy", 0, "smallest acceptable department hold-out accuracy")
	flag.Parse()

	if (*jsonPath == "") == (*dsn == "") {
		flag.Usage()
		os.Exit(1)
	}

	raws, err := load(*jsonPath, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(raws, thresholds{maxRejectRate: *maxReject, minAccuracy: *minAccuracy}); code != 0 {
		os.Exit(code)
	}
}

func load(jsonPath, dsn string) ([]domain.RawComplaint, error) {
	if jsonPath != "" {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		var raws []domain.RawComplaint
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decode fixture: %w", err)
		}
		return raws, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.FetchAll(ctx)
}

func run(raws []domain.RawComplaint, th thresholds) int {
	fmt.Println("=== Complaint Dataset Validation ===")
	fmt.Println()

	cleaned, report := domain.Clean(raws)
	rows := domain.AggregateDaily(cleaned)

	phases := []*phase{
		validateCleaning(report, th.maxRejectRate),
		validateAggregation(cleaned, rows),
		validateSchema(rows),
		validateForecast(rows),
		validateDepartment(cleaned, th.minAccuracy),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Printf("      %s\n", n)
		}
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d cleaned, %d daily aggregates\n", report.Total, report.Kept, len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll phases passed.")
	return 0
}

func validateCleaning(report domain.CleanReport, maxRejectRate float64) *phase {
	p := &phase{name: "Phase 1: Cleaning"}
	if report.Total == 0 {
		p.errorf("dataset is empty")
		return p
	}
	if report.Kept == 0 {
		p.errorf("every row was rejected")
	}
	rate := float64(report.RejectedTotal()) / float64(report.Total)
	p.notef("rejected %d of %d rows (%.2f%%)", report.RejectedTotal(), report.Total, rate*100)
	for _, reason := range []domain.RejectReason{
		domain.RejectInvalidDate,
		domain.RejectMissingLocality,
		domain.RejectInvalidTemperature,
	} {
		if n := report.Rejected[reason]; n > 0 {
			p.notef("  %s: %d", reason, n)
		}
	}
	if rate > maxRejectRate {
		p.errorf("reject rate %.4f exceeds %.4f", rate, maxRejectRate)
	}
	return p
}

func validateAggregation(cleaned []domain.CleanedRecord, rows []domain.DailyAggregate) *phase {
	p := &phase{name: "Phase 2: Daily aggregation"}

	total := 0
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		key := r.Date.Format(time.DateOnly) + "|" + r.Locality
		if seen[key] {
			p.errorf("duplicate aggregate for %s", key)
		}
		seen[key] = true
		if r.ComplaintCount < 1 {
			p.errorf("%s: complaint count %d", key, r.ComplaintCount)
		}
		if math.IsNaN(r.AvgTemperature) || math.IsInf(r.AvgTemperature, 0) {
			p.errorf("%s: non-finite average temperature", key)
		}
		if r.Calendar != domain.CalendarOf(r.Date) {
			p.errorf("%s: calendar fields disagree with date", key)
		}
		total += r.ComplaintCount
	}
	if total != len(cleaned) {
		p.errorf("aggregate counts sum to %d, want %d cleaned records", total, len(cleaned))
	}
	p.notef("%d locality-days", len(rows))
	return p
}

func validateSchema(rows []domain.DailyAggregate) *phase {
	p := &phase{name: "Phase 3: Feature schema"}
	schema := features.BuildSchema(rows)

	localities := schema.Localities()
	if !slices.IsSorted(localities) {
		p.errorf("localities are not in lexicographic order: %v", localities)
	}
	cols := schema.Columns()
	if len(cols) != numericWidth+len(localities) {
		p.errorf("schema width %d, want %d", len(cols), numericWidth+len(localities))
	}
	for _, r := range rows {
		v := schema.Encode(r)
		if len(v) != schema.Width() {
			p.errorf("%s %s: vector width %d", r.Date.Format(time.DateOnly), r.Locality, len(v))
			continue
		}
		hot := 0
		for _, x := range v[numericWidth:] {
			if x == 1 {
				hot++
			}
		}
		if hot != 1 {
			p.errorf("%s %s: %d locality indicators set", r.Date.Format(time.DateOnly), r.Locality, hot)
		}
	}
	p.notef("%d columns, %d localities", len(cols), len(localities))
	return p
}

func validateForecast(rows []domain.DailyAggregate) *phase {
	p := &phase{name: "Phase 4: Forecast model"}
	m, err := forecast.Train(rows)
	if err != nil {
		p.errorf("train: %v", err)
		return p
	}

	var absErr float64
	for _, r := range rows {
		f, err := m.Predict(r.Locality, r.AvgTemperature, r.Date)
		if err != nil {
			p.errorf("predict %s: %v", r.Locality, err)
			continue
		}
		if f.PredictedComplaints < 0 {
			p.errorf("%s: negative prediction %d", r.Locality, f.PredictedComplaints)
		}
		absErr += math.Abs(float64(f.PredictedComplaints - r.ComplaintCount))
	}
	if len(rows) > 0 {
		p.notef("training MAE %.3f", absErr/float64(len(rows)))
	}

	last := rows[len(rows)-1]
	batch, err := m.PredictAll(last.AvgTemperature, last.Date.AddDate(0, 0, 1))
	if err != nil {
		p.errorf("predict all: %v", err)
		return p
	}
	sum := 0
	for _, f := range batch.Predictions {
		sum += f.PredictedComplaints
	}
	if sum != batch.TotalPredictedComplaints {
		p.errorf("batch total %d, predictions sum to %d", batch.TotalPredictedComplaints, sum)
	}
	if len(batch.Predictions) != len(m.Schema().Localities()) {
		p.errorf("batch has %d predictions for %d localities", len(batch.Predictions), len(m.Schema().Localities()))
	}
	return p
}

func validateDepartment(cleaned []domain.CleanedRecord, minAccuracy float64) *phase {
	p := &phase{name: "Phase 5: Department classifier"}
	m, err := department.Train(cleaned)
	if errors.Is(err, domain.ErrDataUnavailable) {
		p.notef("no labelled records, classifier skipped")
		return p
	}
	if err != nil {
		p.errorf("train: %v", err)
		return p
	}

	p.notef("%d departments over %d localities", len(m.Departments()), len(m.Localities()))
	acc, ok := m.Accuracy()
	if !ok {
		p.notef("no hold-out set, accuracy unavailable")
		return p
	}
	p.notef("hold-out accuracy %.3f", acc)
	if acc < minAccuracy {
		p.errorf("accuracy %.3f below %.3f", acc, minAccuracy)
	}
	return p
}
