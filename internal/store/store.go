// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists per-round article snapshots in SQLite. Every
// generation round writes one row per article keyed by (batch_id, id,
// version), which gives the pipeline a replayable record of how each
// article evolved across rewrites.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sowads/content-engine/pkg/types"
)

const dbFile = "content.db"

const schema = `
CREATE TABLE IF NOT EXISTS article_snapshots (
	batch_id         TEXT NOT NULL,
	id               TEXT NOT NULL,
	version          INTEGER NOT NULL,
	iteration        INTEGER NOT NULL,
	status           TEXT NOT NULL,
	seo_geo_score    INTEGER NOT NULL,
	similarity_score REAL NOT NULL,
	content_package  TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	PRIMARY KEY (batch_id, id, version)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_batch ON article_snapshots (batch_id, iteration);
`

// Snapshot is one persisted article state.
type Snapshot struct {
	BatchID         string
	ID              string
	Version         int
	Iteration       int
	Status          types.ArticleStatus
	SEOGeoScore     int
	SimilarityScore float64
	ContentPackage  string
	CreatedAt       time.Time
}

// Store wraps the snapshot database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRound upserts one snapshot per batch item for the given iteration.
// Scores default to zero for articles the round did not audit.
func (s *Store) SaveRound(batch *types.Batch, audits map[string]types.AuditResult, sims map[string]types.SimilarityResult) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range batch.IDs() {
		rec := batch.Items[id]
		score := 0
		if a, ok := audits[id]; ok {
			score = a.Score
		}
		simScore := 0.0
		if sm, ok := sims[id]; ok {
			simScore = sm.SimilarityScore
		}

		query, args, err := sq.Insert("article_snapshots").
			Columns("batch_id", "id", "version", "iteration", "status",
				"seo_geo_score", "similarity_score", "content_package", "created_at").
			Values(rec.BatchID, rec.ID, rec.Version, batch.Iteration, string(rec.Status),
				score, simScore, rec.ContentPackage, now).
			Suffix(`ON CONFLICT (batch_id, id, version) DO UPDATE SET
				iteration = excluded.iteration,
				status = excluded.status,
				seo_geo_score = excluded.seo_geo_score,
				similarity_score = excluded.similarity_score,
				content_package = excluded.content_package,
				created_at = excluded.created_at`).
			ToSql()
		if err != nil {
			return fmt.Errorf("building snapshot insert: %w", err)
		}
		if _, err := s.db.Exec(query, args...); err != nil {
			return fmt.Errorf("saving snapshot %s v%d: %w", rec.ID, rec.Version, err)
		}
	}
	return nil
}

// ListBatch returns every snapshot of a batch ordered by article and
// version, oldest version first.
func (s *Store) ListBatch(batchID string) ([]Snapshot, error) {
	query, args, err := sq.Select("batch_id", "id", "version", "iteration", "status",
		"seo_geo_score", "similarity_score", "content_package", "created_at").
		From("article_snapshots").
		Where(sq.Eq{"batch_id": batchID}).
		OrderBy("id", "version").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building snapshot select: %w", err)
	}
	return s.query(query, args)
}

// Latest returns the highest-version snapshot of each article in a batch.
func (s *Store) Latest(batchID string) ([]Snapshot, error) {
	query, args, err := sq.Select("s.batch_id", "s.id", "s.version", "s.iteration", "s.status",
		"s.seo_geo_score", "s.similarity_score", "s.content_package", "s.created_at").
		From("article_snapshots s").
		Join(`(SELECT batch_id, id, MAX(version) AS version
			FROM article_snapshots WHERE batch_id = ? GROUP BY batch_id, id) m
			ON s.batch_id = m.batch_id AND s.id = m.id AND s.version = m.version`, batchID).
		OrderBy("s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building latest select: %w", err)
	}
	return s.query(query, args)
}

func (s *Store) query(query string, args []any) ([]Snapshot, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var status, createdAt string
		if err := rows.Scan(&snap.BatchID, &snap.ID, &snap.Version, &snap.Iteration,
			&status, &snap.SEOGeoScore, &snap.SimilarityScore, &snap.ContentPackage, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.Status = types.ArticleStatus(status)
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			snap.CreatedAt = ts
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}
