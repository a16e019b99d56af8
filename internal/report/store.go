package report

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/session"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrReportNotFound = errors.New("report not found")

// Summary is one row of the report listing.
type Summary struct {
	ID             string `json:"id"`
	CandidateName  string `json:"candidateName"`
	IntegrityScore int    `json:"integrityScore"`
	CreatedAt      int64  `json:"createdAt"`
}

// Store keeps report records in SQLite. The full record is stored as JSON
// so it round-trips byte-for-byte through the schema readers expect.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// NewStore pins db to a single connection, sets the SQLite pragmas, runs
// the embedded schema and returns a Store. Saves from the HTTP handlers and
// from a stopping session share that connection instead of racing for the
// write lock.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Save inserts rec, assigning an id and timestamp when they are empty, and
// returns the stored record.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	now := s.now()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = session.FormatISO(now)
	}

	payload, err := Encode(rec)
	if err != nil {
		return Record{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, candidate_name, integrity_score, payload)
         VALUES (?, ?, ?, ?, ?)`,
		rec.ID, now.UnixMilli(), rec.CandidateName, rec.IntegrityScore, string(payload),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert report: %w", err)
	}

	s.logger.Info("report saved",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "integrity_score", Value: rec.IntegrityScore})
	return rec, nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = ? LIMIT 1`, id)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrReportNotFound
		}
		return Record{}, err
	}
	return Decode([]byte(payload))
}

// List returns report summaries, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_name, integrity_score, created_at
         FROM reports
         ORDER BY created_at DESC, rowid DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.CandidateName, &sm.IntegrityScore, &sm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}
