// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity measures lexical overlap between articles of the
// current batch and against the rolling history corpus. The composite
// score blends trigram Jaccard, cosine bag-of-words and a keyword-equality
// signal; the per-article result is the worst overlap found.
package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

const (
	jaccardWeight = 0.45
	cosineWeight  = 0.45
	keywordWeight = 0.10
)

// trigramSet builds the set of 3-token shingles of a text.
func trigramSet(text string) map[string]bool {
	toks := textutil.Tokenize(text)
	grams := make(map[string]bool, max(0, len(toks)-2))
	for i := 0; i+3 <= len(toks); i++ {
		grams[strings.Join(toks[i:i+3], " ")] = true
	}
	return grams
}

func jaccard3Gram(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for g := range a {
		if b[g] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func termCounts(text string) map[string]int {
	counts := map[string]int{}
	for _, t := range textutil.Tokenize(text) {
		counts[t]++
	}
	return counts
}

func cosineBOW(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	dot := 0
	for t, ca := range a {
		if cb, ok := b[t]; ok {
			dot += ca * cb
		}
	}
	na, nb := 0, 0
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return float64(dot) / (math.Sqrt(float64(na)) * math.Sqrt(float64(nb)))
}

// document is a pre-tokenized comparison target.
type document struct {
	grams  map[string]bool
	counts map[string]int
}

func newDocument(text string) document {
	return document{grams: trigramSet(text), counts: termCounts(text)}
}

func composite(a, b document, sameKeyword bool) float64 {
	sem := 0.0
	if sameKeyword {
		sem = 1.0
	}
	score := (jaccard3Gram(a.grams, b.grams)*jaccardWeight +
		cosineBOW(a.counts, b.counts)*cosineWeight +
		sem*keywordWeight) * 100.0
	return math.Round(score*100) / 100
}

// Engine compares batch articles pairwise and against history excerpts.
type Engine struct {
	cfg types.SimilarityConfig
}

func New(cfg types.SimilarityConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Compare scores every batch item against its siblings and the trailing
// history window. History entries without an excerpt are skipped.
func (e *Engine) Compare(batch *types.Batch, history []types.HistoryEntry) *types.SimilarityReport {
	if len(history) > e.cfg.HistoryWindow {
		history = history[len(history)-e.cfg.HistoryWindow:]
	}

	ids := batch.IDs()
	docs := make(map[string]document, len(ids))
	for _, id := range ids {
		_, html, _ := sanitize.Split(batch.Items[id].ContentPackage)
		docs[id] = newDocument(textutil.StripHTML(html))
	}
	historyDocs := make([]document, len(history))
	for i, h := range history {
		if h.Excerpt != "" {
			historyDocs[i] = newDocument(h.Excerpt)
		}
	}

	report := &types.SimilarityReport{
		BatchID: batch.BatchID,
		Policy: types.SimilarityPolicy{
			RiskThreshold:    e.cfg.RiskThreshold,
			RewriteThreshold: e.cfg.RewriteThreshold,
		},
	}

	for _, id := range ids {
		rec := batch.Items[id]
		kw := strings.ToLower(rec.PrimaryKeyword)
		best := 0.0
		var conflicts []types.SimilarityConflict

		for _, other := range ids {
			if other == id {
				continue
			}
			otherKw := strings.ToLower(batch.Items[other].PrimaryKeyword)
			score := composite(docs[id], docs[other], kw == otherKw)
			best = math.Max(best, score)
			if score >= e.cfg.BatchConflictFloor {
				conflicts = append(conflicts, types.SimilarityConflict{
					OtherID: other, Score: score, Reason: "batch_overlap",
				})
			}
		}

		for i, h := range history {
			if h.Excerpt == "" {
				continue
			}
			score := composite(docs[id], historyDocs[i], kw == strings.ToLower(h.PrimaryKeyword))
			best = math.Max(best, score)
			if score >= e.cfg.HistoryConflictFloor {
				otherID := h.ID
				if otherID == "" {
					otherID = "history"
				}
				conflicts = append(conflicts, types.SimilarityConflict{
					OtherID: otherID, Score: score, Reason: "history_overlap",
				})
			}
		}

		sort.SliceStable(conflicts, func(i, j int) bool {
			return conflicts[i].Score > conflicts[j].Score
		})
		if len(conflicts) > e.cfg.MaxConflicts {
			conflicts = conflicts[:e.cfg.MaxConflicts]
		}

		status := types.SimilarityOK
		switch {
		case best > e.cfg.RewriteThreshold:
			status = types.SimilarityRewrite
		case best >= e.cfg.RiskThreshold:
			status = types.SimilarityRisk
		}
		flag := best > e.cfg.RewriteThreshold
		guidance := ""
		if flag {
			guidance = "Reduzir sobreposição semântica: mudar abordagem, headings, exemplos e intenção sem perder keyword foco."
		}

		report.Items = append(report.Items, types.SimilarityResult{
			ID:              id,
			Version:         rec.Version,
			SimilarityScore: best,
			Status:          status,
			Conflicts:       conflicts,
			FlagSimilarity:  flag,
			RewriteGuidance: guidance,
		})
	}
	return report
}

// Score exposes the composite for two plain texts; used by reporting
// commands that compare arbitrary documents.
func Score(a, b string, sameKeyword bool) float64 {
	return composite(newDocument(a), newDocument(b), sameKeyword)
}
