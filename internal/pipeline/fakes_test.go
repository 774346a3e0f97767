package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
)

// memorySource is an in-memory record store.
type memorySource struct {
	mu       sync.Mutex
	records  []domain.RawComplaint
	version  string
	err      error
	fetches  atomic.Int64
	entered  chan struct{} // closed on the first FetchAll when non-nil
	release  chan struct{} // FetchAll blocks on it when non-nil
	announce sync.Once
}

func (m *memorySource) FetchAll(ctx context.Context) ([]domain.RawComplaint, error) {
	m.fetches.Add(1)
	if m.entered != nil {
		m.announce.Do(func() { close(m.entered) })
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.RawComplaint(nil), m.records...), nil
}

func (m *memorySource) DatasetVersion(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version, nil
}

func (m *memorySource) set(records []domain.RawComplaint, version string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records, m.version, m.err = records, version, err
}

type recordingPublisher struct {
	mu        sync.Mutex
	summaries []domain.TrainingSummary
	err       error
}

func (p *recordingPublisher) PublishTrainingSummary(_ context.Context, s domain.TrainingSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, s)
	return p.err
}

func (p *recordingPublisher) published() []domain.TrainingSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TrainingSummary(nil), p.summaries...)
}

func complaint(locality, date, department string, temperature float64) domain.RawComplaint {
	return domain.RawComplaint{
		Locality:    domain.LooseString(locality),
		OpenDate:    domain.LooseString(date),
		Topic:       "Sanitation",
		Department:  domain.LooseString(department),
		Status:      "Closed",
		Temperature: domain.LooseString(fmt.Sprintf("%g", temperature)),
	}
}

// complaintHistory returns days of complaints: Hofit gets eight a day routed
// to Sanitation, Mikhmoret two a day routed to Roads.
func complaintHistory(days int) []domain.RawComplaint {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.RawComplaint
	for d := range days {
		date := start.AddDate(0, 0, d).Format(time.DateOnly)
		for range 8 {
			out = append(out, complaint("Hofit", date, "Sanitation", 28))
		}
		for range 2 {
			out = append(out, complaint("Mikhmoret", date, "Roads", 24))
		}
	}
	return out
}
