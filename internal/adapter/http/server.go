// Package http exposes the forecast, department, and complaint query
// surface over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ForecastService is the inference and training facade.
type ForecastService interface {
	Predict(locality string, temperature float64, date time.Time) (domain.Forecast, error)
	PredictAll(temperature float64, date time.Time) (domain.ForecastBatch, error)
	PredictDepartment(locality string, month, dayOfWeek int, temperature float64) (string, error)
	Summary() (domain.TrainingSummary, bool)
	Refresh(ctx context.Context) (domain.TrainingSummary, error)
}

// ComplaintQuerier reads stored complaints for the dashboard endpoints.
type ComplaintQuerier interface {
	FetchAll(ctx context.Context) ([]domain.RawComplaint, error)
	FetchByLocality(ctx context.Context, locality string) ([]domain.RawComplaint, error)
	CountInProgress(ctx context.Context) (domain.InProgressCount, error)
	TopTopics(ctx context.Context, limit int) ([]domain.TopicCount, error)
}

// Deps are the collaborators behind the routes. Temperatures may be nil, in
// which case forecast requests must carry temp.
type Deps struct {
	Service      ForecastService
	Complaints   ComplaintQuerier
	Temperatures domain.TemperatureSource
	Ready        sharedobs.ReadinessChecker
	Clock        clockwork.Clock
}

// Server exposes the query API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with every route registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	r := chi.NewRouter()
	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     r,
			ReadTimeout: 10 * time.Second,
			// Refresh retrains synchronously.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/predict", func(r chi.Router) {
		r.Get("/all", s.handlePredictAll)
		r.Post("/all", s.handlePredictAll)
		r.Get("/department", s.handlePredictDepartment)
		r.Post("/department", s.handlePredictDepartment)
		r.Get("/{locality}", s.handlePredict)
		r.Post("/{locality}", s.handlePredict)
	})
	r.Get("/model", s.handleModel)
	r.Post("/refresh", s.handleRefresh)

	r.Route("/requests", func(r chi.Router) {
		r.Get("/", s.handleListComplaints)
		r.Get("/in-progress/count", s.handleInProgressCount)
		r.Get("/top-topics", s.handleTopTopics)
		r.Get("/{locality}", s.handleListComplaints)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
