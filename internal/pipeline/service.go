package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/department"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/forecast"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// RecordSource returns the full current complaint collection.
type RecordSource interface {
	FetchAll(ctx context.Context) ([]domain.RawComplaint, error)
}

// DatasetVersioner reports an opaque token that changes whenever the record
// collection changes.
type DatasetVersioner interface {
	DatasetVersion(ctx context.Context) (string, error)
}

// EventPublisher announces a finished training run.
type EventPublisher interface {
	PublishTrainingSummary(ctx context.Context, summary domain.TrainingSummary) error
}

// Snapshot is the unit swapped on refresh. Either model may be nil when it
// could not be trained.
type Snapshot struct {
	Forecast   *forecast.Model
	Department *department.Model
	Summary    domain.TrainingSummary
}

// Service owns the serving models. Refresh builds a new Snapshot off to the
// side and publishes it with a single pointer store, so readers always see a
// schema together with the regressor trained on it.
type Service struct {
	source    RecordSource
	versioner DatasetVersioner
	publisher EventPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	refreshing sync.Mutex
	current    atomic.Pointer[Snapshot]
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithVersioner records the dataset version each run trained on.
func WithVersioner(v DatasetVersioner) Option { return func(s *Service) { s.versioner = v } }

// WithPublisher publishes a training summary after every run.
func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.publisher = p } }

// WithClock replaces the wall clock used for run timestamps.
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// NewService creates a Service with no trained models.
func NewService(source RecordSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		source:  source,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches every record, cleans, aggregates, and retrains both models,
// then swaps them in as a unit.
//
// A fetch failure keeps the previous snapshot. A fetch that yields no usable
// records replaces it with an empty snapshot so that inference reports
// domain.ErrModelUnavailable. Only one refresh runs at a time; a concurrent
// caller gets domain.ErrRefreshInProgress.
func (s *Service) Refresh(ctx context.Context) (domain.TrainingSummary, error) {
	if !s.refreshing.TryLock() {
		s.metrics.TrainingRuns.WithLabelValues("busy").Inc()
		return domain.TrainingSummary{}, domain.ErrRefreshInProgress
	}
	defer s.refreshing.Unlock()

	start := s.clock.Now()
	summary := domain.TrainingSummary{
		RunID:     uuid.NewString(),
		TrainedAt: start.UTC(),
	}
	logger := s.logger.With("run_id", summary.RunID)

	if s.versioner != nil {
		v, err := s.versioner.DatasetVersion(ctx)
		if err != nil {
			logger.Warn("dataset version unavailable", "error", err)
		}
		summary.DatasetVersion = v
	}

	raws, err := s.source.FetchAll(ctx)
	if err != nil {
		s.metrics.TrainingRuns.WithLabelValues("error").Inc()
		logger.Error("fetch records failed, keeping previous models", "error", err)
		return domain.TrainingSummary{}, fmt.Errorf("fetch records: %w: %w", domain.ErrDataUnavailable, err)
	}
	s.metrics.RecordsFetched.Add(float64(len(raws)))

	cleaned, report := domain.Clean(raws)
	summary.RecordsFetched = report.Total
	summary.RecordsCleaned = report.Kept
	summary.RowsRejected = make(map[string]int, len(report.Rejected))
	for reason, n := range report.Rejected {
		summary.RowsRejected[string(reason)] = n
		s.metrics.RowsRejected.WithLabelValues(string(reason)).Add(float64(n))
	}
	logger.Info("records cleaned",
		"records_fetched", report.Total,
		"records_cleaned", report.Kept,
		"rows_rejected", report.RejectedTotal(),
	)

	snap := &Snapshot{}
	if len(cleaned) == 0 {
		summary.DurationSeconds = s.clock.Since(start).Seconds()
		snap.Summary = summary
		s.swap(snap)
		s.metrics.TrainingRuns.WithLabelValues("unavailable").Inc()
		logger.Warn("no usable records, models unavailable")
		s.publish(ctx, logger, summary)
		return summary, fmt.Errorf("no usable records: %w", domain.ErrDataUnavailable)
	}

	aggregates := domain.AggregateDaily(cleaned)
	summary.AggregateRows = len(aggregates)

	var trainErr error
	if fm, err := forecast.Train(aggregates); err != nil {
		trainErr = fmt.Errorf("forecast: %w", err)
		logger.Error("forecast training failed", "error", err)
	} else {
		snap.Forecast = fm
		summary.ForecastAvailable = true
		summary.Localities = fm.Schema().Localities()
		summary.FeatureColumns = fm.Schema().Columns()
	}

	if dm, err := department.Train(cleaned); err != nil {
		if !errors.Is(err, domain.ErrDataUnavailable) {
			trainErr = errors.Join(trainErr, fmt.Errorf("department: %w", err))
		}
		logger.Warn("department classifier not trained", "error", err)
	} else {
		snap.Department = dm
		summary.DepartmentAvailable = true
		summary.Departments = dm.Departments()
		if acc, ok := dm.Accuracy(); ok {
			summary.DepartmentAccuracy = &acc
		}
	}

	elapsed := s.clock.Since(start)
	summary.DurationSeconds = elapsed.Seconds()
	snap.Summary = summary
	s.swap(snap)
	s.metrics.TrainingDuration.Observe(elapsed.Seconds())

	if trainErr != nil {
		s.metrics.TrainingRuns.WithLabelValues("error").Inc()
		s.publish(ctx, logger, summary)
		return summary, trainErr
	}

	s.metrics.TrainingRuns.WithLabelValues("success").Inc()
	logger.Info("models trained",
		"aggregate_rows", summary.AggregateRows,
		"localities", len(summary.Localities),
		"department_available", summary.DepartmentAvailable,
		"duration", elapsed,
	)
	s.publish(ctx, logger, summary)
	return summary, nil
}

func (s *Service) swap(snap *Snapshot) {
	s.current.Store(snap)
	s.metrics.ModelAvailable.WithLabelValues("forecast").Set(boolGauge(snap.Forecast != nil))
	s.metrics.ModelAvailable.WithLabelValues("department").Set(boolGauge(snap.Department != nil))
	s.metrics.SchemaWidth.Set(float64(snap.Forecast.Schema().Width()))
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, summary domain.TrainingSummary) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTrainingSummary(ctx, summary); err != nil {
		logger.Error("publish training summary failed", "error", err)
	}
}

// Snapshot returns the serving snapshot, or nil before the first refresh.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Summary returns the summary of the serving snapshot.
func (s *Service) Summary() (domain.TrainingSummary, bool) {
	snap := s.current.Load()
	if snap == nil {
		return domain.TrainingSummary{}, false
	}
	return snap.Summary, true
}

// Predict forecasts complaint volume for one locality.
func (s *Service) Predict(locality string, temperature float64, date time.Time) (domain.Forecast, error) {
	f, err := s.forecastModel().Predict(locality, temperature, date)
	s.countPrediction("forecast", err)
	return f, err
}

// PredictAll forecasts complaint volume for every trained locality.
func (s *Service) PredictAll(temperature float64, date time.Time) (domain.ForecastBatch, error) {
	b, err := s.forecastModel().PredictAll(temperature, date)
	s.countPrediction("forecast", err)
	return b, err
}

// PredictDepartment predicts the department that will handle a complaint.
func (s *Service) PredictDepartment(locality string, month, dayOfWeek int, temperature float64) (string, error) {
	var m *department.Model
	if snap := s.current.Load(); snap != nil {
		m = snap.Department
	}
	label, err := m.Predict(locality, month, dayOfWeek, temperature)
	s.countPrediction("department", err)
	return label, err
}

// CheckReadiness returns nil once a forecast model is serving.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.forecastModel() == nil {
		return errors.New("forecast model has not been trained")
	}
	return nil
}

func (s *Service) forecastModel() *forecast.Model {
	if snap := s.current.Load(); snap != nil {
		return snap.Forecast
	}
	return nil
}

func (s *Service) countPrediction(model string, err error) {
	s.metrics.Predictions.WithLabelValues(model, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrUnknownLocality):
		return "unknown_locality"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
