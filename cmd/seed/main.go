// Command seed generates a deterministic synthetic complaint history for the
// Hefer Valley localities and loads it into any combination of a JSON fixture,
// the SQLite record store, and the raw complaint Kafka topic.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -days 365 -end 2024-12-31 \
//	  -out data/mock/complaints.json \
//	  -db "file:complaints.db?_pragma=busy_timeout(5000)" \
//	  -brokers localhost:9092 -topic raw-complaints
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/complaint-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	kafkago "github.com/segmentio/kafka-go"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	days := flag.Int("days", 365, "number of days of history to generate")
	end := flag.String("end", "2024-12-31", "last day of history (YYYY-MM-DD)")
	seed := flag.Uint64("seed", 42, "random seed")
	out := flag.String("out", "", "output path for the JSON fixture")
	dsn := flag.String("db", "", "SQLite DSN to insert into")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers to publish to")
	topic := flag.String("topic", "raw-complaints", "Kafka topic for raw complaints")
	flag.Parse()

	if *out == "" && *dsn == "" && *brokers == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -out, -db, -brokers is required")
	}
	last, err := domain.ParseDate(*end)
	if err != nil {
		return fmt.Errorf("parse -end: %w", err)
	}
	if *days < 1 {
		return fmt.Errorf("-days must be positive")
	}

	complaints := generate(generatorConfig{
		Start: last.AddDate(0, 0, -(*days - 1)),
		Days:  *days,
		Seed:  *seed,
	})
	log.Printf("generated %d complaints over %d days", len(complaints), *days)

	ctx := context.Background()

	if *out != "" {
		if err := writeJSON(*out, complaints); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *dsn != "" {
		if err := loadStore(ctx, *dsn, complaints); err != nil {
			return err
		}
		log.Printf("inserted %d complaints into %s", len(complaints), *dsn)
	}

	if *brokers != "" {
		if err := publish(ctx, sharedcfg.ParseBrokers(*brokers), *topic, complaints); err != nil {
			return err
		}
		log.Printf("published %d complaints to %s", len(complaints), *topic)
	}

	printStats(complaints)
	return nil
}

func loadStore(ctx context.Context, dsn string, complaints []domain.RawComplaint) error {
	store, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	for batch := range chunks(complaints, 500) {
		if err := store.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}
	return nil
}

func publish(ctx context.Context, brokers []string, topic string, complaints []domain.RawComplaint) error {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer w.Close()

	for batch := range chunks(complaints, 500) {
		msgs := make([]kafkago.Message, 0, len(batch))
		for _, c := range batch {
			value, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal complaint: %w", err)
			}
			msgs = append(msgs, kafkago.Message{Key: []byte(c.Locality), Value: value})
		}
		if err := w.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("kafka write: %w", err)
		}
	}
	return nil
}

func chunks[T any](s []T, size int) func(yield func([]T) bool) {
	return func(yield func([]T) bool) {
		for start := 0; start < len(s); start += size {
			if !yield(s[start:min(start+size, len(s))]) {
				return
			}
		}
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(complaints []domain.RawComplaint) {
	byLocality := map[string]int{}
	byDepartment := map[string]int{}
	open := 0
	for _, c := range complaints {
		byLocality[string(c.Locality)]++
		byDepartment[string(c.Department)]++
		if !c.Status.Closed() {
			open++
		}
	}

	fmt.Printf("\n=== Seed Summary ===\n")
	fmt.Printf("Complaints: %d (%d in progress)\n", len(complaints), open)
	fmt.Printf("\nBy settlement:\n")
	for _, l := range localities {
		fmt.Printf("  %-16s %d\n", l.name, byLocality[l.name])
	}
	fmt.Printf("\nBy department:\n")
	for _, d := range departmentOrder {
		fmt.Printf("  %-16s %d\n", d, byDepartment[d])
	}
}
