// Package store persists completed analyses in SQLite so past results can
// be listed and reopened.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Evils19/BioMasa/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	dry_green       REAL NOT NULL,
	dry_clover      REAL NOT NULL,
	dry_dead        REAL NOT NULL,
	dry_total       REAL NOT NULL,
	gdm             REAL NOT NULL,
	recommendations TEXT NOT NULL,
	confidence      REAL NOT NULL,
	image_b64       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

// createdAtFormat pads fractional seconds to fixed width so the TEXT
// ORDER BY on created_at sorts chronologically.
const createdAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the analysis history database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts one analysis result. Saving the same identifier twice
// replaces the earlier row.
func (s *Store) Save(res types.AnalysisResult) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO analyses
		(id, title, description, created_at, dry_green, dry_clover, dry_dead,
		 dry_total, gdm, recommendations, confidence, image_b64)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		res.Title,
		res.Description,
		res.Timestamp.UTC().Format(createdAtFormat),
		res.Components.DryGreen,
		res.Components.DryClover,
		res.Components.DryDead,
		res.Components.DryTotal,
		res.Components.Gdm,
		res.Recommendations,
		res.Confidence,
		res.ImageBase64,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Get reads one analysis by identifier.
func (s *Store) Get(id string) (types.AnalysisResult, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, created_at, dry_green, dry_clover,
		       dry_dead, dry_total, gdm, recommendations, confidence, image_b64
		FROM analyses WHERE id = ?`, id)
	return scanResult(row)
}

// List returns up to limit analyses, newest first. The stored image is not
// loaded; use Get for the full record.
func (s *Store) List(limit int) ([]types.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, title, description, created_at, dry_green, dry_clover,
		       dry_dead, dry_total, gdm, recommendations, confidence, ''
		FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var results []types.AnalysisResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (types.AnalysisResult, error) {
	var res types.AnalysisResult
	var createdAt string
	err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&createdAt,
		&res.Components.DryGreen,
		&res.Components.DryClover,
		&res.Components.DryDead,
		&res.Components.DryTotal,
		&res.Components.Gdm,
		&res.Recommendations,
		&res.Confidence,
		&res.ImageBase64,
	)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("scan analysis: %w", err)
	}

	// RFC3339 parsing accepts the padded fractional seconds
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("parse created_at: %w", err)
	}
	res.Timestamp = ts
	return res, nil
}
