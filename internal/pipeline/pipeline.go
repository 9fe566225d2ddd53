// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one batch through theme generation, article
// generation, constraint enforcement, audit, similarity checking, the
// bounded rewrite loop, and the final accept gate. Each article moves
// through an explicit state machine; approved articles are appended to
// the history corpus and handed to the image-prompt and publication
// boundaries.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/sowads/content-engine/internal/audit"
	"github.com/sowads/content-engine/internal/enforce"
	"github.com/sowads/content-engine/internal/generate"
	"github.com/sowads/content-engine/internal/history"
	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/similarity"
	"github.com/sowads/content-engine/internal/store"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

const historyExcerptLimit = 800

// Orchestrator owns the per-batch run. Construct one per batch; the
// batch ID is fixed at construction time.
type Orchestrator struct {
	cfg     types.PipelineConfig
	batchID string
	gen     *generate.Generator
	auditor *audit.Engine
	dedup   *similarity.Engine
	hist    *history.Log
	snaps   *store.Store
	runLog  *RunLog
	logger  *slog.Logger
	out     io.Writer
	now     func() time.Time
}

// New wires every stage from the configuration. The provider may be nil
// when cfg.TestMode is set; the generator then runs fully offline.
func New(cfg types.PipelineConfig, provider generate.Provider, logger *slog.Logger, out io.Writer) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	prompts, err := generate.LoadPromptSet(filepath.Join(cfg.DataDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("loading prompt set: %w", err)
	}
	snaps, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	batchID := generate.NewBatchID(cfg.BatchTopic)
	return &Orchestrator{
		cfg:     cfg,
		batchID: batchID,
		gen:     generate.NewGenerator(provider, cfg, batchID, prompts, logger),
		auditor: audit.New(cfg.Audit),
		dedup:   similarity.New(cfg.Similarity),
		hist:    history.NewLog(cfg.History),
		snaps:   snaps,
		runLog:  NewRunLog(filepath.Join(cfg.DataDir, "logs", "logs.jsonl")),
		logger:  logger,
		out:     out,
		now:     time.Now,
	}, nil
}

// BatchID returns the run's batch identifier.
func (o *Orchestrator) BatchID() string {
	return o.batchID
}

// Close releases the snapshot store.
func (o *Orchestrator) Close() error {
	return o.snaps.Close()
}

// Run executes the full batch and returns its summary. Individual
// article failures never abort the run; only infrastructure failures
// (artifact writes, snapshot store, history corpus) surface as errors.
func (o *Orchestrator) Run(ctx context.Context) (*types.BatchSummary, error) {
	batchDir := filepath.Join(o.cfg.DataDir, "batches", o.batchID)

	fmt.Fprintf(o.out, "batch %s: generating %d themes\n", o.batchID, o.cfg.ThemeCount)
	themes := o.gen.Themes(ctx)
	if err := writeYAML(filepath.Join(batchDir, "themes.yaml"), themes); err != nil {
		return nil, err
	}
	o.logPhase("themes", "", 0, "ok", "", map[string]any{"count": len(themes)})

	fm := newMachine()
	batch := &types.Batch{BatchID: o.batchID, Iteration: 1}
	batch.Items = o.gen.GenerateBatch(ctx, themes, nil, nil)
	for id := range batch.Items {
		fm.enter(id)
	}
	o.logPhase("articles", "", batch.Iteration, "ok", "", map[string]any{"count": len(batch.Items)})
	if err := o.enforceRound(batch, batchDir); err != nil {
		return nil, err
	}

	audits, sims, err := o.evaluate(batch, fm, batchDir)
	if err != nil {
		return nil, err
	}

	for round := 1; round <= o.cfg.MaxRewrites; round++ {
		rewriteMap := buildRewriteMap(batch, audits, sims)
		if len(rewriteMap) == 0 {
			break
		}
		fmt.Fprintf(o.out, "batch %s: round %d rewriting %d articles\n", o.batchID, round, len(rewriteMap))
		for id := range rewriteMap {
			if err := fm.advance(id, StateRewritePending); err != nil {
				return nil, err
			}
		}
		batch.Items = o.gen.GenerateBatch(ctx, themes, batch.Items, rewriteMap)
		batch.Iteration++
		for id := range rewriteMap {
			if err := fm.advance(id, StateGenerated); err != nil {
				return nil, err
			}
		}
		o.logPhase("articles", "", batch.Iteration, "ok", "", map[string]any{"count": len(rewriteMap)})
		if err := o.enforceRound(batch, batchDir); err != nil {
			return nil, err
		}
		if audits, sims, err = o.evaluate(batch, fm, batchDir); err != nil {
			return nil, err
		}
	}

	approved := make(map[string]*types.ArticleRecord)
	summary := &types.BatchSummary{
		BatchID:    o.batchID,
		ItemsTotal: len(batch.Items),
		Iterations: batch.Iteration,
		TestMode:   o.cfg.TestMode,
	}
	for _, id := range batch.IDs() {
		rec := batch.Items[id]
		ar := audits[id]
		sr := sims[id]
		if ar.Score >= o.cfg.Audit.Threshold && !ar.FlagRewrite && sr.SimilarityScore <= o.cfg.Similarity.RewriteThreshold {
			if err := fm.advance(id, StateApproved); err != nil {
				return nil, err
			}
			rec.Status = types.StatusApproved
			approved[id] = rec
			summary.Approved++
			o.logPhase("gate", id, rec.Version, "approved", "", nil)
			continue
		}
		if err := fm.advance(id, StateRejected); err != nil {
			return nil, err
		}
		rec.Status = types.StatusRejected
		summary.Rejected++
		o.logPhase("gate", id, rec.Version, "rejected", rejectionReason(ar, sr, o.cfg), nil)
	}

	rows := generate.ImagePromptRows(approved)
	if err := writeImagePromptsCSV(filepath.Join(batchDir, "image_prompts.csv"), rows); err != nil {
		return nil, err
	}
	o.logPhase("image_prompts", "", 0, "ok", "", map[string]any{"rows": len(rows)})

	pubResults := o.publish(approved, audits, sims)
	if err := writeJSON(filepath.Join(batchDir, "publish_results.json"), pubResults); err != nil {
		return nil, err
	}
	published, failed := 0, 0
	for _, r := range pubResults {
		if r.Status == "failed" {
			failed++
		} else {
			published++
		}
	}
	o.logPhase("publish", "", 0, "ok", "", map[string]any{"published": published, "failed": failed})

	entries := o.historyEntries(approved, audits, sims)
	if err := o.hist.Append(o.batchID, entries); err != nil {
		return nil, fmt.Errorf("appending history: %w", err)
	}

	if err := writeJSON(filepath.Join(batchDir, "summary.json"), summary); err != nil {
		return nil, err
	}
	o.logPhase("pipeline", "", 0, "done", "", map[string]any{
		"items_total": summary.ItemsTotal,
		"approved":    summary.Approved,
		"rejected":    summary.Rejected,
		"iterations":  summary.Iterations,
	})
	fmt.Fprintf(o.out, "batch %s: %d approved, %d rejected after %d rounds\n",
		o.batchID, summary.Approved, summary.Rejected, summary.Iterations)
	return summary, nil
}

// enforceRound runs the constraint enforcer over the whole batch and
// writes the per-round enforcement report.
func (o *Orchestrator) enforceRound(batch *types.Batch, batchDir string) error {
	report := enforce.EnforceBatch(batch, o.cfg.Enforcement)
	path := filepath.Join(batchDir, fmt.Sprintf("enforcement_v%d.json", batch.Iteration))
	if err := writeJSON(path, report); err != nil {
		return err
	}
	tablePath := filepath.Join(batchDir, fmt.Sprintf("articles_v%d.csv", batch.Iteration))
	if err := WriteArticlesCSV(tablePath, batch); err != nil {
		return err
	}
	o.logPhase("enforce", "", 0, "ok", "", map[string]any{
		"total": report.Total, "ok": report.OK, "failed": report.Failed,
	})
	return nil
}

// evaluate audits the batch, compares it against the live batch plus the
// recent history window, snapshots the round, and writes the report
// artifacts. Freshly generated articles advance to Audited; articles
// untouched this round keep their state.
func (o *Orchestrator) evaluate(batch *types.Batch, fm *machine, batchDir string) (map[string]types.AuditResult, map[string]types.SimilarityResult, error) {
	auditReport := o.auditor.AuditBatch(batch)
	audits := make(map[string]types.AuditResult, len(auditReport.Items))
	for _, item := range auditReport.Items {
		audits[item.ID] = item
		o.logPhase("audit", item.ID, item.Version, auditStatus(item), item.RewriteGuidance, map[string]any{
			"score":        item.Score,
			"reason_codes": len(item.ReasonCodes),
		})
	}

	tail, err := o.hist.Tail(o.cfg.Similarity.HistoryWindow)
	if err != nil {
		return nil, nil, fmt.Errorf("loading history window: %w", err)
	}
	simReport := o.dedup.Compare(batch, tail)
	sims := make(map[string]types.SimilarityResult, len(simReport.Items))
	for _, item := range simReport.Items {
		sims[item.ID] = item
		o.logPhase("similarity", item.ID, item.Version, string(item.Status), item.RewriteGuidance, map[string]any{
			"similarity_score": item.SimilarityScore,
			"conflicts":        len(item.Conflicts),
		})
	}

	for _, id := range batch.IDs() {
		if fm.state(id) == StateGenerated {
			if err := fm.advance(id, StateAudited); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := o.snaps.SaveRound(batch, audits, sims); err != nil {
		return nil, nil, fmt.Errorf("saving round snapshot: %w", err)
	}
	auditPath := filepath.Join(batchDir, fmt.Sprintf("audit_v%d.yaml", batch.Iteration))
	if err := writeYAML(auditPath, auditReport); err != nil {
		return nil, nil, err
	}
	simPath := filepath.Join(batchDir, fmt.Sprintf("similarity_v%d.yaml", batch.Iteration))
	if err := writeYAML(simPath, simReport); err != nil {
		return nil, nil, err
	}
	return audits, sims, nil
}

// buildRewriteMap collects the corrective guidance for every flagged
// article. Audit guidance takes precedence over similarity guidance when
// both flags are raised.
func buildRewriteMap(batch *types.Batch, audits map[string]types.AuditResult, sims map[string]types.SimilarityResult) map[string]string {
	rewriteMap := make(map[string]string)
	for _, id := range batch.IDs() {
		ar := audits[id]
		sr := sims[id]
		switch {
		case ar.FlagRewrite:
			rewriteMap[id] = ar.RewriteGuidance
		case sr.FlagSimilarity:
			rewriteMap[id] = sr.RewriteGuidance
		}
	}
	return rewriteMap
}

// historyEntries builds the corpus entries for the approved articles in
// ID order.
func (o *Orchestrator) historyEntries(approved map[string]*types.ArticleRecord, audits map[string]types.AuditResult, sims map[string]types.SimilarityResult) []types.HistoryEntry {
	ids := make([]string, 0, len(approved))
	for id := range approved {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]types.HistoryEntry, 0, len(ids))
	for _, id := range ids {
		rec := approved[id]
		_, html, _ := sanitize.Split(rec.ContentPackage)
		plain := textutil.StripHTML(html)
		sum := sha256.Sum256([]byte(plain))
		entries = append(entries, types.HistoryEntry{
			ID:              rec.ID,
			Version:         rec.Version,
			Title:           rec.Theme,
			Slug:            rec.Slug,
			PrimaryKeyword:  rec.PrimaryKeyword,
			SecondaryKeys:   rec.SecondaryKeys,
			ContentAngle:    rec.ContentAngle,
			Vertical:        rec.Vertical,
			CompanySize:     rec.CompanySize,
			ContentHash:     hex.EncodeToString(sum[:]),
			Excerpt:         clampRunes(plain, historyExcerptLimit),
			SEOGeoScore:     audits[id].Score,
			SimilarityScore: sims[id].SimilarityScore,
			Timestamp:       o.now().UTC(),
		})
	}
	return entries
}

// logPhase appends one run-log record. Log failures degrade to console
// warnings so the audit trail never halts a batch.
func (o *Orchestrator) logPhase(phase, id string, version int, status, reason string, metrics map[string]any) {
	rec := RunRecord{
		Timestamp: o.now().UTC().Format(time.RFC3339),
		Phase:     phase,
		BatchID:   o.batchID,
		ID:        id,
		Version:   version,
		Status:    status,
		Reason:    reason,
		Metrics:   metrics,
		Model:     o.cfg.Provider.Model,
	}
	if err := o.runLog.Append(rec); err != nil {
		o.logger.Warn("run log append failed", "phase", phase, "error", err)
	}
}

func auditStatus(r types.AuditResult) string {
	if r.FlagRewrite {
		return "flag_rewrite"
	}
	return "ok"
}

// rejectionReason names the first failed gate condition for the run log.
func rejectionReason(ar types.AuditResult, sr types.SimilarityResult, cfg types.PipelineConfig) string {
	switch {
	case ar.Score < cfg.Audit.Threshold:
		return fmt.Sprintf("score_below_threshold: %d < %d", ar.Score, cfg.Audit.Threshold)
	case ar.FlagRewrite:
		return "flag_rewrite"
	case sr.SimilarityScore > cfg.Similarity.RewriteThreshold:
		return fmt.Sprintf("similarity_above_threshold: %.1f > %.1f", sr.SimilarityScore, cfg.Similarity.RewriteThreshold)
	default:
		return ""
	}
}

func clampRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
