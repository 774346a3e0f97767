package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw messages from the source topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// BatchLoader appends decoded complaints to the record store.
type BatchLoader interface {
	InsertBatch(ctx context.Context, complaints []domain.RawComplaint) error
}

// Ingestor moves raw complaints from a topic into the record store. It never
// trains; the dataset watcher notices the new rows.
type Ingestor struct {
	extractor BatchExtractor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// NewIngestor creates an Ingestor with the given stages and observability.
func NewIngestor(e BatchExtractor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Ingestor {
	return &Ingestor{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once at least one complaint has been stored.
func (p *Ingestor) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingest has not stored any complaints yet")
	}
	return nil
}

// Run executes the batch ingest loop until the context is cancelled.
func (p *Ingestor) Run(ctx context.Context) error {
	p.logger.Info("ingest started", "batch_size", p.batchSize)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-decode-load cycle. Returns false if the loop should stop.
func (p *Ingestor) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	stored, ok := p.decodeAndLoad(ctx, batch, backoff, maxBackoff)
	if !ok {
		return false
	}
	if stored > 0 {
		p.ready.Store(true)
	}
	return true
}

// decodeAndLoad decodes each message, stores the successes in one batch, and
// commits offsets. Undecodable messages are committed immediately so they are
// not redelivered. Returns the number of stored complaints and false if the
// loop should stop.
func (p *Ingestor) decodeAndLoad(ctx context.Context, batch []domain.RawMessage, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	complaints := make([]domain.RawComplaint, 0, len(batch))
	decoded := make([]domain.RawMessage, 0, len(batch))

	for _, msg := range batch {
		c, err := domain.DecodeRawComplaint(msg.Value)
		if err != nil {
			p.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commitOffset(ctx, msg)
			continue
		}
		complaints = append(complaints, c)
		decoded = append(decoded, msg)
	}

	if len(complaints) == 0 {
		return 0, true
	}

	if err := p.loader.InsertBatch(ctx, complaints); err != nil {
		p.logger.Error("store batch failed", "error", err, "batch_size", len(complaints))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.MessagesStored.Add(float64(len(complaints)))

	for _, msg := range decoded {
		p.commitOffset(ctx, msg)
	}

	return len(complaints), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the loop should stop.
func (p *Ingestor) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Ingestor) commitOffset(ctx context.Context, msg domain.RawMessage) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}
