package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LooseString holds a schema-loose field from the record store. It accepts a
// JSON string, number, boolean, or null; null decodes to the empty string.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*s = LooseString(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("loose string: unsupported value %s", data)
		}
		*s = LooseString(n.String())
	}
	return nil
}

// LooseInt is an integer field that also accepts a numeric string or null.
type LooseInt int

// UnmarshalJSON implements json.Unmarshaler.
func (i *LooseInt) UnmarshalJSON(data []byte) error {
	var s LooseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("loose int: %w", err)
	}
	*i = LooseInt(f)
	return nil
}

// Status is the handling status of a complaint as written by the municipality.
type Status string

// Terminal statuses used by the municipal CRM export.
const (
	StatusHandled    Status = "הטיפול הסתיים"
	StatusNoResponse Status = "נסגר בעקבות אי מענה של הפונה"
)

// ClosedStatuses lists every status that ends handling.
var ClosedStatuses = []Status{StatusHandled, StatusNoResponse}

// Closed reports whether handling of the complaint has ended.
func (s Status) Closed() bool {
	return slices.Contains(ClosedStatuses, Status(strings.TrimSpace(string(s))))
}

// TopicCount is the number of complaints filed under one topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// InProgressCount summarizes complaints still being handled.
// Exceeded counts complaints past their deadline by either measure.
type InProgressCount struct {
	Total      int `json:"in_progress_requests_count"`
	NoExceeded int `json:"in_progress_no_exceed_count"`
	Exceeded   int `json:"in_progress_exceed_count"`
}

// RawComplaint is one complaint exactly as the record store holds it.
// Nothing is validated at this stage; see Clean.
type RawComplaint struct {
	Locality                   LooseString `json:"settlement"`
	OpenDate                   LooseString `json:"openDate"`
	Topic                      LooseString `json:"topic"`
	Department                 LooseString `json:"department"`
	Status                     Status      `json:"status"`
	Temperature                LooseString `json:"temperature"`
	Duration                   LooseString `json:"duration"`
	ExceededDeadline           LooseInt    `json:"exceededDeadline"`
	ExceededDeadlinePercentage LooseInt    `json:"exceededDeadlinePercentage"`
}

// DecodeRawComplaint parses one JSON-encoded complaint.
func DecodeRawComplaint(data []byte) (RawComplaint, error) {
	var rec RawComplaint
	if err := json.Unmarshal(data, &rec); err != nil {
		return RawComplaint{}, fmt.Errorf("decode raw complaint: %w", err)
	}
	return rec, nil
}

// RawMessage is an undecoded complaint read from the ingest topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// CleanedRecord is a complaint whose required fields parsed successfully.
// Date is a calendar date at midnight UTC.
type CleanedRecord struct {
	Locality                   string
	Date                       time.Time
	Topic                      string
	Department                 string
	Status                     Status
	Temperature                float64
	Duration                   *float64
	ExceededDeadline           int
	ExceededDeadlinePercentage int
}

// DailyAggregate is the complaint volume of one locality on one date.
type DailyAggregate struct {
	Date           time.Time
	Locality       string
	ComplaintCount int
	AvgTemperature float64
	Calendar
}

// LoadLevel buckets a forecast volume for display.
type LoadLevel string

const (
	LoadLow      LoadLevel = "low"
	LoadModerate LoadLevel = "moderate"
	LoadHigh     LoadLevel = "high"
	LoadCritical LoadLevel = "critical"
)

// LoadLevelFor maps a predicted complaint count onto a LoadLevel.
func LoadLevelFor(count int) LoadLevel {
	switch {
	case count <= 5:
		return LoadLow
	case count <= 15:
		return LoadModerate
	case count <= 30:
		return LoadHigh
	default:
		return LoadCritical
	}
}

// Forecast is the predicted complaint volume of one locality.
type Forecast struct {
	Locality            string    `json:"settlement"`
	PredictedComplaints int       `json:"predicted_complaints"`
	LoadLevel           LoadLevel `json:"load_level"`
}

// ForecastBatch holds one forecast per known locality and their sum.
type ForecastBatch struct {
	TotalPredictedComplaints int        `json:"total_predicted_complaints"`
	Predictions              []Forecast `json:"predictions"`
}

// TrainingSummary describes the outcome of one training run.
type TrainingSummary struct {
	RunID               string         `json:"run_id"`
	TrainedAt           time.Time      `json:"trained_at"`
	DatasetVersion      string         `json:"dataset_version,omitempty"`
	RecordsFetched      int            `json:"records_fetched"`
	RecordsCleaned      int            `json:"records_cleaned"`
	RowsRejected        map[string]int `json:"rows_rejected"`
	AggregateRows       int            `json:"aggregate_rows"`
	Localities          []string       `json:"localities"`
	FeatureColumns      []string       `json:"feature_columns"`
	ForecastAvailable   bool           `json:"forecast_available"`
	DepartmentAvailable bool           `json:"department_available"`
	DepartmentAccuracy  *float64       `json:"department_accuracy,omitempty"`
	Departments         []string       `json:"departments,omitempty"`
	DurationSeconds     float64        `json:"duration_seconds"`
}
