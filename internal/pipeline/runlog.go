// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RunRecord is one line of the append-only run log. Every pipeline phase
// writes at least one record; the log is the audit trail for a batch.
type RunRecord struct {
	Timestamp string         `json:"timestamp"`
	Phase     string         `json:"phase"`
	BatchID   string         `json:"batch_id"`
	ID        string         `json:"id,omitempty"`
	Version   int            `json:"version,omitempty"`
	Status    string         `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Model     string         `json:"model,omitempty"`
}

// RunLog appends RunRecords to a JSONL file. A nil RunLog discards
// records so callers never need to guard the log path.
type RunLog struct {
	mu   sync.Mutex
	path string
}

// NewRunLog returns a log that appends to path. The parent directory is
// created on first write.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

// Append writes one record as a single JSON line.
func (l *RunLog) Append(rec RunRecord) error {
	if l == nil || l.path == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating run log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	return nil
}
