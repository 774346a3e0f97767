package http

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const defaultTopTopics = 5

type departmentResponse struct {
	Locality            string `json:"settlement"`
	PredictedDepartment string `json:"predicted_department"`
}

type complaintsResponse struct {
	Requests []domain.RawComplaint `json:"requests"`
}

type topTopicsResponse struct {
	TopTopics []domain.TopicCount `json:"top_topics"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	locality := pathParam(r, "locality")
	date, temp, err := s.forecastInputs(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	f, err := s.deps.Service.Predict(locality, temp, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handlePredictAll(w http.ResponseWriter, r *http.Request) {
	date, temp, err := s.forecastInputs(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	batch, err := s.deps.Service.PredictAll(temp, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handlePredictDepartment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locality := q.Get("settlement")
	if strings.TrimSpace(locality) == "" {
		s.writeDomainError(w, r, fmt.Errorf("settlement is required: %w", domain.ErrInvalidInput))
		return
	}
	month, err := intParam(q, "month")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	dow, err := intParam(q, "day_of_week")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	temp, ok, err := floatParam(q, "temp")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		s.writeDomainError(w, r, fmt.Errorf("temp is required: %w", domain.ErrInvalidInput))
		return
	}

	dept, err := s.deps.Service.PredictDepartment(locality, month, dow, temp)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, departmentResponse{
		Locality:            domain.NormalizeText(locality),
		PredictedDepartment: dept,
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.deps.Service.Summary()
	if !ok {
		s.writeDomainError(w, r, fmt.Errorf("no training run has completed: %w", domain.ErrModelUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Training continues if the client disconnects.
	summary, err := s.deps.Service.Refresh(context.WithoutCancel(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	var (
		out []domain.RawComplaint
		err error
	)
	if locality := pathParam(r, "locality"); locality != "" {
		out, err = s.deps.Complaints.FetchByLocality(r.Context(), locality)
	} else if locality := r.URL.Query().Get("settlement"); locality != "" {
		out, err = s.deps.Complaints.FetchByLocality(r.Context(), locality)
	} else {
		out, err = s.deps.Complaints.FetchAll(r.Context())
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.RawComplaint{}
	}
	writeJSON(w, http.StatusOK, complaintsResponse{Requests: out})
}

func (s *Server) handleInProgressCount(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Complaints.CountInProgress(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleTopTopics(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopTopics
	if _, present := r.URL.Query()["limit"]; present {
		n, err := intParam(r.URL.Query(), "limit")
		if err != nil || n < 1 {
			s.writeDomainError(w, r, fmt.Errorf("limit must be a positive integer: %w", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	topics, err := s.deps.Complaints.TopTopics(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if topics == nil {
		topics = []domain.TopicCount{}
	}
	writeJSON(w, http.StatusOK, topTopicsResponse{TopTopics: topics})
}

// forecastInputs reads predict_date (default: today) and temp. A missing temp
// is resolved from the temperature source when one is configured.
func (s *Server) forecastInputs(r *http.Request) (time.Time, float64, error) {
	q := r.URL.Query()

	date := domain.DateOf(s.deps.Clock.Now())
	if v := strings.TrimSpace(q.Get("predict_date")); v != "" {
		d, err := domain.ParseDate(v)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("predict_date %q is not YYYY-MM-DD: %w", v, domain.ErrInvalidInput)
		}
		date = d
	}

	temp, ok, err := floatParam(q, "temp")
	if err != nil {
		return time.Time{}, 0, err
	}
	if ok {
		return date, temp, nil
	}
	if s.deps.Temperatures == nil {
		return time.Time{}, 0, fmt.Errorf("temp is required: %w", domain.ErrInvalidInput)
	}
	temp, err = s.deps.Temperatures.DailyMeanTemperature(r.Context(), date)
	if err != nil {
		return time.Time{}, 0, err
	}
	return date, temp, nil
}

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, fmt.Errorf("%s is required: %w", name, domain.ErrInvalidInput)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer: %w", name, v, domain.ErrInvalidInput)
	}
	return n, nil
}

// floatParam parses an optional finite float. ok is false when absent.
func floatParam(q url.Values, name string) (v float64, ok bool, err error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%s %q is not a finite number: %w", name, raw, domain.ErrInvalidInput)
	}
	return v, true, nil
}
