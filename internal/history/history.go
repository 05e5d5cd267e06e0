// Package history keeps an audit trail of phishing checks in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/logging"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("check not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Store persists check records. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
	ownsDB bool
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for a throwaway store.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewStore runs migrations from schema.sql on db and returns a Store around it.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
		now:    time.Now,
	}, nil
}

// Save assigns an id and timestamp to rec and stores it.
func (s *Store) Save(ctx context.Context, rec Record) (*Record, error) {
	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	if rec.Risks == nil {
		rec.Risks = []string{}
	}
	if rec.SafeIndicators == nil {
		rec.SafeIndicators = []string{}
	}

	risks, err := json.Marshal(rec.Risks)
	if err != nil {
		return nil, fmt.Errorf("encode risks: %w", err)
	}
	indicators, err := json.Marshal(rec.SafeIndicators)
	if err != nil {
		return nil, fmt.Errorf("encode safe indicators: %w", err)
	}
	var signals sql.NullString
	if rec.PageSignals != nil {
		b, err := json.Marshal(rec.PageSignals)
		if err != nil {
			return nil, fmt.Errorf("encode page signals: %w", err)
		}
		signals = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checks
             (id, url, risk_score, level, safe, risks, safe_indicators, page_signals, scoring_version, error, source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.RiskScore, string(rec.Level), rec.Safe, string(risks), string(indicators),
		signals, rec.ScoringVersion, rec.Error, string(rec.Source), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert check: %w", err)
	}

	s.logger.Debug("check saved",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "level", Value: string(rec.Level)})
	return &rec, nil
}

const selectColumns = `SELECT id, url, risk_score, level, safe, risks, safe_indicators, page_signals, scoring_version, error, source, created_at FROM checks`

// Get returns a check by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? LIMIT 1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns up to limit checks, newest first. limit <= 0 uses
// DefaultListLimit; anything above MaxListLimit is capped.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close closes the database when the Store opened it.
func (s *Store) Close() error {
	if s == nil || !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec        Record
		level      string
		source     string
		risks      string
		indicators string
		signals    sql.NullString
		created    int64
	)
	if err := sc.Scan(&rec.ID, &rec.URL, &rec.RiskScore, &level, &rec.Safe, &risks, &indicators,
		&signals, &rec.ScoringVersion, &rec.Error, &source, &created); err != nil {
		return nil, err
	}
	rec.Level = assessor.Level(level)
	rec.Source = Source(source)
	rec.CreatedAt = time.Unix(0, created).UTC()

	if err := json.Unmarshal([]byte(risks), &rec.Risks); err != nil {
		return nil, fmt.Errorf("decode risks for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(indicators), &rec.SafeIndicators); err != nil {
		return nil, fmt.Errorf("decode safe indicators for %s: %w", rec.ID, err)
	}
	if signals.Valid {
		rec.PageSignals = &assessor.PageSignals{}
		if err := json.Unmarshal([]byte(signals.String), rec.PageSignals); err != nil {
			return nil, fmt.Errorf("decode page signals for %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
