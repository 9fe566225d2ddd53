// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HistoryEntry is one approved article in the append-only dedup corpus.
// Entries are written once on final approval and never mutated; the corpus
// grows monotonically across batches.
type HistoryEntry struct {
	ID              string    `json:"id"`
	Version         int       `json:"version"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	PrimaryKeyword  string    `json:"keyword_primaria"`
	SecondaryKeys   string    `json:"keywords_secundarias"`
	ContentAngle    string    `json:"angulo_conteudo"`
	Vertical        string    `json:"vertical"`
	CompanySize     string    `json:"porte"`
	ContentHash     string    `json:"content_hash"`
	Excerpt         string    `json:"excerpt"`
	SEOGeoScore     int       `json:"seo_geo_score"`
	SimilarityScore float64   `json:"similarity_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// HistoryIndex summarizes the last corpus update.
type HistoryIndex struct {
	LastBatchID string    `json:"last_batch_id"`
	UpdatedAt   time.Time `json:"updated_at"`
	Added       int       `json:"added"`
}
