// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history maintains the append-only dedup corpus: one JSON line
// per approved article plus a small index file describing the last update.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sowads/content-engine/pkg/types"
)

// Log is the newline-delimited JSON corpus at a fixed path. It is safe to
// share across pipeline runs; entries are only ever appended.
type Log struct {
	logPath   string
	indexPath string
}

func NewLog(cfg types.HistoryConfig) *Log {
	return &Log{logPath: cfg.LogPath, indexPath: cfg.IndexPath}
}

// Load reads every entry of the corpus. A missing file is an empty corpus;
// malformed lines are skipped so one bad write never poisons dedup.
func (l *Log) Load() ([]types.HistoryEntry, error) {
	f, err := os.Open(l.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history log: %w", err)
	}
	defer f.Close()

	var entries []types.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry types.HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history log: %w", err)
	}
	return entries, nil
}

// Tail returns the most recent n entries.
func (l *Log) Tail(n int) ([]types.HistoryEntry, error) {
	entries, err := l.Load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Append writes the entries to the corpus and refreshes the index file.
// Appending nothing still refreshes the index so a batch with zero
// approvals remains visible in the audit trail.
func (l *Log) Append(batchID string, entries []types.HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening history log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encoding history entry %s: %w", entry.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing history log: %w", err)
	}

	return l.writeIndex(types.HistoryIndex{
		LastBatchID: batchID,
		UpdatedAt:   time.Now().UTC(),
		Added:       len(entries),
	})
}

func (l *Log) writeIndex(index types.HistoryIndex) error {
	if l.indexPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.indexPath), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history index: %w", err)
	}
	if err := os.WriteFile(l.indexPath, data, 0o644); err != nil {
		return fmt.Errorf("writing history index: %w", err)
	}
	return nil
}

// Index reads the last-update summary; a missing file returns zero values.
func (l *Log) Index() (types.HistoryIndex, error) {
	var index types.HistoryIndex
	data, err := os.ReadFile(l.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return index, nil
		}
		return index, fmt.Errorf("reading history index: %w", err)
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return index, fmt.Errorf("decoding history index: %w", err)
	}
	return index, nil
}
