// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sowads/content-engine/internal/audit"
	"github.com/sowads/content-engine/pkg/types"
)

// PublishResult is the outcome of the publication boundary for one
// approved article. Actual CMS delivery happens downstream; the pipeline
// only enforces the policy gate and records the intended status.
type PublishResult struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	WPPostID int    `json:"wp_post_id"`
	Error    string `json:"error,omitempty"`
}

// publicationLogEntry is one line of the blocked-items JSONL log.
type publicationLogEntry struct {
	Timestamp string `json:"timestamp"`
	BatchID   string `json:"batch_id"`
	ID        string `json:"id"`
	Status    string `json:"status"`
}

// publish re-checks every approved article against the policy gate and
// returns one result per article in ID order.
func (o *Orchestrator) publish(approved map[string]*types.ArticleRecord, audits map[string]types.AuditResult, sims map[string]types.SimilarityResult) []PublishResult {
	ids := make([]string, 0, len(approved))
	for id := range approved {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]PublishResult, 0, len(ids))
	for _, id := range ids {
		ar := audits[id]
		sr := sims[id]
		switch {
		case ar.Score < o.cfg.Audit.Threshold,
			sr.SimilarityScore > o.cfg.Similarity.RewriteThreshold,
			hasCriticalReason(ar):
			results = append(results, PublishResult{ID: id, Status: "failed", Error: "blocked_by_policy"})
			o.logBlockedPublication(id)
		case o.cfg.TestMode:
			results = append(results, PublishResult{ID: id, Status: "dry_run"})
		default:
			results = append(results, PublishResult{ID: id, Status: o.cfg.PublishMode})
		}
	}
	return results
}

// hasCriticalReason reports whether any critical reason code survived
// into the final audit.
func hasCriticalReason(r types.AuditResult) bool {
	for _, code := range r.ReasonCodes {
		if audit.CriticalReasonCodes[code] {
			return true
		}
	}
	return false
}

// logBlockedPublication appends a blocked item to the publication log.
// Log failures are reported but never block the run.
func (o *Orchestrator) logBlockedPublication(id string) {
	entry := publicationLogEntry{
		Timestamp: o.now().UTC().Format(time.RFC3339),
		BatchID:   o.batchID,
		ID:        id,
		Status:    "blocked",
	}
	path := filepath.Join(o.cfg.DataDir, "logs", "publication_log.jsonl")
	if err := appendJSONLine(path, entry); err != nil {
		o.logger.Warn("publication log append failed", "id", id, "error", err)
	}
}

func appendJSONLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding log entry: %w", err)
	}
	return nil
}
