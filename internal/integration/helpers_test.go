//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the lifetime of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("complaint-forecast-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func openStore(ctx context.Context, t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(ctx, "file:"+filepath.Join(t.TempDir(), "complaints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

// complaintHistory returns two weeks of complaints for two localities.
func complaintHistory() []domain.RawComplaint {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.RawComplaint
	for d := range 14 {
		date := start.AddDate(0, 0, d).Format(time.DateOnly)
		for range 5 {
			out = append(out, domain.RawComplaint{
				Locality: "Hofit", OpenDate: domain.LooseString(date), Topic: "Garbage collection",
				Department: "Sanitation", Status: domain.StatusHandled, Temperature: "29",
			})
		}
		out = append(out, domain.RawComplaint{
			Locality: "Mikhmoret", OpenDate: domain.LooseString(date), Topic: "Pothole",
			Department: "Roads", Status: "בטיפול", Temperature: "25",
		})
	}
	return out
}

func publishComplaints(ctx context.Context, t *testing.T, broker, topic string, complaints []domain.RawComplaint, extra ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: topic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(complaints)+len(extra))
	msgs = append(msgs, extra...)
	for i, c := range complaints {
		payload, err := json.Marshal(c)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(fmt.Sprintf("complaint-%d", i)), Value: payload})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}
