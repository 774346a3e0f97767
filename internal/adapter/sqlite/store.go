// Package sqlite is the complaint record store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS complaints (
	id                           INTEGER PRIMARY KEY AUTOINCREMENT,
	locality                     TEXT NOT NULL DEFAULT '',
	open_date                    TEXT NOT NULL DEFAULT '',
	topic                        TEXT NOT NULL DEFAULT '',
	department                   TEXT NOT NULL DEFAULT '',
	status                       TEXT NOT NULL DEFAULT '',
	temperature                  TEXT NOT NULL DEFAULT '',
	duration                     TEXT NOT NULL DEFAULT '',
	exceeded_deadline            INTEGER NOT NULL DEFAULT 0,
	exceeded_deadline_percentage INTEGER NOT NULL DEFAULT 0
);`

// Store reads and appends complaint records. Values are stored exactly as
// received; cleaning happens at training time.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn. SQLite allows one writer, so
// the pool is limited to a single connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the complaints table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate complaints: %w", err)
	}
	return nil
}

const selectComplaints = `
	SELECT locality, open_date, topic, department, status, temperature, duration,
		exceeded_deadline, exceeded_deadline_percentage
	FROM complaints`

// FetchAll returns every stored complaint in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.RawComplaint, error) {
	return s.query(ctx, selectComplaints+` ORDER BY id`)
}

// FetchByLocality returns the complaints of one locality in insertion order.
// Surrounding whitespace in stored names is ignored.
func (s *Store) FetchByLocality(ctx context.Context, locality string) ([]domain.RawComplaint, error) {
	return s.query(ctx, selectComplaints+` WHERE TRIM(locality) = ? ORDER BY id`, domain.NormalizeText(locality))
}

// CountInProgress counts complaints whose status is not terminal, split by
// whether either deadline measure was exceeded.
func (s *Store) CountInProgress(ctx context.Context) (domain.InProgressCount, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domain.ClosedStatuses)), ", ")
	args := make([]any, len(domain.ClosedStatuses))
	for i, st := range domain.ClosedStatuses {
		args[i] = string(st)
	}

	var c domain.InProgressCount
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN exceeded_deadline = 0 AND exceeded_deadline_percentage = 0 THEN 1 ELSE 0 END), 0)
		FROM complaints
		WHERE TRIM(status) NOT IN (`+placeholders+`)`, args...).Scan(&c.Total, &c.NoExceeded)
	if err != nil {
		return domain.InProgressCount{}, fmt.Errorf("count in-progress complaints: %w", err)
	}
	c.Exceeded = c.Total - c.NoExceeded
	return c, nil
}

// TopTopics returns the most frequent topics, most frequent first and ties
// by name.
func (s *Store) TopTopics(ctx context.Context, limit int) ([]domain.TopicCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT TRIM(topic) AS t, COUNT(*) AS n
		FROM complaints
		WHERE TRIM(topic) <> ''
		GROUP BY t
		ORDER BY n DESC, t
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top topics: %w", err)
	}
	defer rows.Close()

	var out []domain.TopicCount
	for rows.Next() {
		var tc domain.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.RawComplaint, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	var out []domain.RawComplaint
	for rows.Next() {
		var c domain.RawComplaint
		if err := rows.Scan(
			&c.Locality, &c.OpenDate, &c.Topic, &c.Department, &c.Status, &c.Temperature, &c.Duration,
			&c.ExceededDeadline, &c.ExceededDeadlinePercentage,
		); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, nil
}

// InsertBatch appends complaints in a single transaction.
func (s *Store) InsertBatch(ctx context.Context, complaints []domain.RawComplaint) (err error) {
	if len(complaints) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO complaints (
			locality, open_date, topic, department, status, temperature, duration,
			exceeded_deadline, exceeded_deadline_percentage
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range complaints {
		if _, err := stmt.ExecContext(ctx,
			string(c.Locality), string(c.OpenDate), string(c.Topic), string(c.Department), string(c.Status),
			string(c.Temperature), string(c.Duration), int(c.ExceededDeadline), int(c.ExceededDeadlinePercentage),
		); err != nil {
			return fmt.Errorf("insert complaint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// DatasetVersion returns "<row count>:<max id>". Appends and deletes both
// change it.
func (s *Store) DatasetVersion(ctx context.Context) (string, error) {
	var count, maxID int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(id), 0) FROM complaints`).Scan(&count, &maxID)
	if err != nil {
		return "", fmt.Errorf("dataset version: %w", err)
	}
	return fmt.Sprintf("%d:%d", count, maxID), nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
