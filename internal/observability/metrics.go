package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "complaint_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for training,
// inference, ingest, and weather lookups.
type Metrics struct {
	// Training metrics.
	RecordsFetched   prometheus.Counter
	RowsRejected     *prometheus.CounterVec // labels: reason={invalid_date,missing_locality,invalid_temperature}
	TrainingRuns     *prometheus.CounterVec // labels: outcome={success,unavailable,error,busy}
	TrainingDuration prometheus.Histogram
	ModelAvailable   *prometheus.GaugeVec // labels: model={forecast,department}
	SchemaWidth      prometheus.Gauge

	// Inference metrics.
	Predictions *prometheus.CounterVec // labels: model={forecast,department}, outcome={success,unavailable,unknown_locality,invalid_input,error}

	// Ingest metrics.
	MessagesConsumed prometheus.Counter
	MessagesStored   prometheus.Counter
	DecodeErrors     prometheus.Counter
	IngestRunning    prometheus.Gauge
	BatchSize        prometheus.Histogram

	// Weather metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many instances as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw complaint records read from the record source.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Records dropped during cleaning by reason.",
		}, []string{"reason"}),
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Duration of a complete fetch-clean-train refresh.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ModelAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_available",
			Help:      "1 when the named model is serving, 0 otherwise.",
		}, []string{"model"}),
		SchemaWidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feature_schema_width",
			Help:      "Number of columns in the serving forecast feature schema.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Inference requests by model and outcome.",
		}, []string{"model", "outcome"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_consumed_total",
			Help:      "Total messages read from the complaint source topic.",
		}),
		MessagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_stored_total",
			Help:      "Total complaints written to the record store.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_decode_errors_total",
			Help:      "Messages skipped because they were not valid complaint JSON.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_running",
			Help:      "1 when the ingest loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather API requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsFetched,
		m.RowsRejected,
		m.TrainingRuns,
		m.TrainingDuration,
		m.ModelAvailable,
		m.SchemaWidth,
		m.Predictions,
		m.MessagesConsumed,
		m.MessagesStored,
		m.DecodeErrors,
		m.IngestRunning,
		m.BatchSize,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
	}
}
