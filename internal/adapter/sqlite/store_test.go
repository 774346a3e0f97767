package sqlite

import (
	"context"
	"testing"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore_InsertAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := []domain.RawComplaint{
		{
			Locality: "Kfar Vitkin", OpenDate: "2024-01-01", Topic: "Water leak", Department: "Water",
			Status: "Open", Temperature: "12.5", Duration: "3", ExceededDeadline: 1, ExceededDeadlinePercentage: 40,
		},
		{Locality: "Hofit", OpenDate: "02/01/2024", Temperature: "warm"},
	}
	require.NoError(t, s.InsertBatch(ctx, in))

	out, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStore_FetchAllEmpty(t *testing.T) {
	out, err := newTestStore(t).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_InsertBatchEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(context.Background(), nil))

	v, err := s.DatasetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0:0", v)
}

func TestStore_DatasetVersionChangesOnInsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before, err := s.DatasetVersion(ctx)
	require.NoError(t, err)

	require.NoError(t, s.InsertBatch(ctx, []domain.RawComplaint{{Locality: "Hofit"}, {Locality: "Hadar Am"}}))
	after, err := s.DatasetVersion(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.Equal(t, "2:2", after)

	again, err := s.DatasetVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.CheckReadiness(context.Background()))
}

func TestStore_FeedsCleaning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(ctx, []domain.RawComplaint{
		{Locality: "Hofit", OpenDate: "2024-01-01", Temperature: "10"},
		{Locality: "Hofit", OpenDate: "2024-01-01", Temperature: "14"},
		{Locality: "Hofit", OpenDate: "bad", Temperature: "14"},
	}))

	raws, err := s.FetchAll(ctx)
	require.NoError(t, err)
	cleaned, report := domain.Clean(raws)
	require.Len(t, cleaned, 2)
	assert.Equal(t, 1, report.Rejected[domain.RejectInvalidDate])

	agg := domain.AggregateDaily(cleaned)
	require.Len(t, agg, 1)
	assert.Equal(t, 2, agg[0].ComplaintCount)
	assert.InDelta(t, 12, agg[0].AvgTemperature, 1e-9)
}

func TestStore_FetchByLocality(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(ctx, []domain.RawComplaint{
		{Locality: "Hofit", Topic: "Noise"},
		{Locality: " Hofit ", Topic: "Lighting"},
		{Locality: "Hadar Am", Topic: "Water"},
	}))

	out, err := s.FetchByLocality(ctx, "  Hofit")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.LooseString("Noise"), out[0].Topic)
	assert.Equal(t, domain.LooseString("Lighting"), out[1].Topic)

	none, err := s.FetchByLocality(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_CountInProgress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(ctx, []domain.RawComplaint{
		{Status: "בטיפול"},
		{Status: "בטיפול", ExceededDeadline: 1},
		{Status: "פתוח", ExceededDeadlinePercentage: 30},
		{Status: domain.StatusHandled, ExceededDeadline: 1},
		{Status: domain.StatusNoResponse},
	}))

	got, err := s.CountInProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.InProgressCount{Total: 3, NoExceeded: 1, Exceeded: 2}, got)
}

func TestStore_TopTopics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(ctx, []domain.RawComplaint{
		{Topic: "Noise"}, {Topic: " Noise"}, {Topic: "Noise"},
		{Topic: "Water"}, {Topic: "Lighting"}, {Topic: "Lighting"},
		{Topic: ""},
	}))

	got, err := s.TopTopics(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.TopicCount{{Topic: "Noise", Count: 3}, {Topic: "Lighting", Count: 2}}, got)
}
