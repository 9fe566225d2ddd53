// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sowads/content-engine/internal/generate"
	"github.com/sowads/content-engine/internal/history"
	"github.com/sowads/content-engine/internal/logging"
	"github.com/sowads/content-engine/pkg/types"
)

// providerFunc adapts a function to the generate.Provider interface.
type providerFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

func (f providerFunc) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := types.DefaultPipelineConfig()
	cfg.DataDir = dir
	cfg.History.LogPath = filepath.Join(dir, "history", "history.jsonl")
	cfg.History.IndexPath = filepath.Join(dir, "history", "index.json")
	cfg.TestMode = true
	cfg.ThemeCount = 2
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg types.PipelineConfig, provider generate.Provider) *Orchestrator {
	t.Helper()
	o, err := New(cfg, provider, logging.New(os.Stderr, "error"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

// deficientPackage parses cleanly but misses the FAQ section, CTA, and
// schema blocks, so every audit round raises critical reason codes.
const deficientPackage = "=== META INFORMATION ===\n" +
	"Meta Title: Guia curto de teste\n" +
	"Meta Description: Pacote incompleto usado para exercitar o ciclo de reescrita.\n" +
	"\n" +
	"=== HTML PACKAGE — WORDPRESS READY ===\n" +
	`<div class="sowads-article-body"><h2>Secao unica</h2><p>Texto curto sem FAQ, sem CTA e sem schema.</p></div>`

const themeJSON = `[{"tema_principal":"Orquestracao de conteudo","keyword_primaria":"orquestracao de conteudo","keywords_secundarias":"pipeline editorial|seo tecnico","funil":"TOFU","busca":"Alta","titulo_anuncio":"Orquestracao de conteudo","angulo_conteudo":"Educacional"}]`

func TestRunTestModeProducesSummaryAndArtifacts(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, nil)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.BatchID != o.BatchID() {
		t.Errorf("summary batch = %q, want %q", summary.BatchID, o.BatchID())
	}
	if summary.ItemsTotal != cfg.ThemeCount {
		t.Errorf("items_total = %d, want %d", summary.ItemsTotal, cfg.ThemeCount)
	}
	if summary.Approved+summary.Rejected != summary.ItemsTotal {
		t.Errorf("approved %d + rejected %d != total %d", summary.Approved, summary.Rejected, summary.ItemsTotal)
	}
	if summary.Iterations != 1 {
		t.Errorf("iterations = %d, want 1 with rewrites disabled", summary.Iterations)
	}
	if !summary.TestMode {
		t.Error("summary should record test mode")
	}

	batchDir := filepath.Join(cfg.DataDir, "batches", o.BatchID())
	for _, name := range []string{
		"themes.yaml",
		"enforcement_v1.json",
		"audit_v1.yaml",
		"similarity_v1.yaml",
		"image_prompts.csv",
		"publish_results.json",
		"summary.json",
	} {
		if _, err := os.Stat(filepath.Join(batchDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "logs", "logs.jsonl")); err != nil {
		t.Errorf("missing run log: %v", err)
	}
}

func TestRunTerminalArticleStatuses(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, nil)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snaps, err := o.snaps.Latest(o.BatchID())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(snaps) != cfg.ThemeCount {
		t.Fatalf("snapshots = %d, want %d", len(snaps), cfg.ThemeCount)
	}
}

func TestRunAppendsHistoryForApproved(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, nil)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := history.NewLog(cfg.History).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != summary.Approved {
		t.Fatalf("history entries = %d, want %d", len(entries), summary.Approved)
	}
	for _, e := range entries {
		if len(e.ContentHash) != 64 {
			t.Errorf("entry %s content hash length = %d, want 64", e.ID, len(e.ContentHash))
		}
		if e.Excerpt == "" || len([]rune(e.Excerpt)) > historyExcerptLimit {
			t.Errorf("entry %s excerpt length out of bounds", e.ID)
		}
	}
	index, err := history.NewLog(cfg.History).Index()
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if index.LastBatchID != o.BatchID() {
		t.Errorf("index batch = %q, want %q", index.LastBatchID, o.BatchID())
	}
}

// A permanently deficient article must run exactly 1 initial round plus
// MaxRewrites rewrite rounds, then end rejected.
func TestRunTerminationWithPermanentFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.TestMode = false
	cfg.ThemeCount = 1
	cfg.MaxRewrites = 2

	calls := 0
	provider := providerFunc(func(ctx context.Context, prompt string, temperature float64) (string, error) {
		calls++
		if calls == 1 {
			return themeJSON, nil
		}
		return deficientPackage, nil
	})
	o := newTestOrchestrator(t, cfg, provider)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Iterations != 3 {
		t.Errorf("iterations = %d, want 3 (1 initial + 2 rewrites)", summary.Iterations)
	}
	if summary.Rejected != 1 || summary.Approved != 0 {
		t.Errorf("approved/rejected = %d/%d, want 0/1", summary.Approved, summary.Rejected)
	}
	// 1 theme call plus draft and critic calls for each of 3 rounds.
	if calls != 7 {
		t.Errorf("provider calls = %d, want 7", calls)
	}
}

func TestRunProviderFailureFallsBackAndCompletes(t *testing.T) {
	cfg := testConfig(t)
	cfg.TestMode = false
	cfg.ThemeCount = 1

	provider := providerFunc(func(ctx context.Context, prompt string, temperature float64) (string, error) {
		return "", errors.New("boom")
	})
	o := newTestOrchestrator(t, cfg, provider)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ItemsTotal != 1 {
		t.Fatalf("items_total = %d, want 1", summary.ItemsTotal)
	}
	if summary.Approved+summary.Rejected != 1 {
		t.Errorf("summary counts do not cover the batch: %+v", summary)
	}
}

func TestBuildRewriteMapPrecedence(t *testing.T) {
	batch := &types.Batch{Items: map[string]*types.ArticleRecord{
		"A": {ID: "A"},
		"B": {ID: "B"},
		"C": {ID: "C"},
	}}
	audits := map[string]types.AuditResult{
		"A": {ID: "A", FlagRewrite: true, RewriteGuidance: "corrigir FAQ"},
		"B": {ID: "B"},
		"C": {ID: "C"},
	}
	sims := map[string]types.SimilarityResult{
		"A": {ID: "A", FlagSimilarity: true, RewriteGuidance: "diferenciar abertura"},
		"B": {ID: "B", FlagSimilarity: true, RewriteGuidance: "trocar exemplos"},
		"C": {ID: "C"},
	}

	got := buildRewriteMap(batch, audits, sims)
	if len(got) != 2 {
		t.Fatalf("rewrite map size = %d, want 2", len(got))
	}
	if got["A"] != "corrigir FAQ" {
		t.Errorf("A guidance = %q, want audit guidance to win", got["A"])
	}
	if got["B"] != "trocar exemplos" {
		t.Errorf("B guidance = %q, want similarity guidance", got["B"])
	}
	if _, ok := got["C"]; ok {
		t.Error("unflagged article C should not be rewritten")
	}
}

func TestStateMachineTransitions(t *testing.T) {
	m := newMachine()
	m.enter("A")

	steps := []State{StateAudited, StateRewritePending, StateGenerated, StateAudited, StateApproved}
	for _, next := range steps {
		if err := m.advance("A", next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if !m.state("A").Terminal() {
		t.Error("approved state should be terminal")
	}
	if err := m.advance("A", StateRejected); err == nil {
		t.Error("transition out of a terminal state should fail")
	}
	if err := m.advance("B", StateAudited); err == nil {
		t.Error("advancing an unknown article should fail")
	}
	if CanTransition(StateGenerated, StateApproved) {
		t.Error("generated articles must be audited before approval")
	}
	if m.pending() {
		t.Error("no article should remain pending")
	}
}

func TestPublishGate(t *testing.T) {
	cfg := testConfig(t)
	cfg.TestMode = false

	tests := []struct {
		name       string
		auditRes   types.AuditResult
		simRes     types.SimilarityResult
		testMode   bool
		wantStatus string
		wantError  string
	}{
		{
			name:       "clean article publishes as draft",
			auditRes:   types.AuditResult{ID: "A", Score: 92},
			simRes:     types.SimilarityResult{ID: "A", SimilarityScore: 12},
			wantStatus: "draft",
		},
		{
			name:       "clean article in test mode is a dry run",
			auditRes:   types.AuditResult{ID: "A", Score: 92},
			simRes:     types.SimilarityResult{ID: "A", SimilarityScore: 12},
			testMode:   true,
			wantStatus: "dry_run",
		},
		{
			name:       "low score is blocked",
			auditRes:   types.AuditResult{ID: "A", Score: 70},
			simRes:     types.SimilarityResult{ID: "A", SimilarityScore: 12},
			wantStatus: "failed",
			wantError:  "blocked_by_policy",
		},
		{
			name:       "high similarity is blocked",
			auditRes:   types.AuditResult{ID: "A", Score: 92},
			simRes:     types.SimilarityResult{ID: "A", SimilarityScore: 75.5},
			wantStatus: "failed",
			wantError:  "blocked_by_policy",
		},
		{
			name:       "critical reason code is blocked despite passing score",
			auditRes:   types.AuditResult{ID: "A", Score: 85, ReasonCodes: []string{"faq_missing"}},
			simRes:     types.SimilarityResult{ID: "A", SimilarityScore: 12},
			wantStatus: "failed",
			wantError:  "blocked_by_policy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.TestMode = tt.testMode
			o := &Orchestrator{
				cfg:     c,
				batchID: "BATCH-TEST",
				logger:  logging.New(os.Stderr, "error"),
				now:     time.Now,
			}
			approved := map[string]*types.ArticleRecord{"A": {ID: "A"}}
			results := o.publish(approved,
				map[string]types.AuditResult{"A": tt.auditRes},
				map[string]types.SimilarityResult{"A": tt.simRes})
			if len(results) != 1 {
				t.Fatalf("results = %d, want 1", len(results))
			}
			if results[0].Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", results[0].Status, tt.wantStatus)
			}
			if results[0].Error != tt.wantError {
				t.Errorf("error = %q, want %q", results[0].Error, tt.wantError)
			}
		})
	}
}

func TestPublishBlockedWritesPublicationLog(t *testing.T) {
	cfg := testConfig(t)
	o := &Orchestrator{
		cfg:     cfg,
		batchID: "BATCH-TEST",
		logger:  logging.New(os.Stderr, "error"),
		now:     time.Now,
	}
	o.publish(
		map[string]*types.ArticleRecord{"A": {ID: "A"}},
		map[string]types.AuditResult{"A": {ID: "A", Score: 10}},
		map[string]types.SimilarityResult{"A": {ID: "A"}},
	)
	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "logs", "publication_log.jsonl"))
	if err != nil {
		t.Fatalf("reading publication log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, `"status":"blocked"`) || !strings.Contains(line, `"id":"A"`) {
		t.Errorf("unexpected publication log line: %s", line)
	}
}

func TestRejectionReason(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	tests := []struct {
		name string
		ar   types.AuditResult
		sr   types.SimilarityResult
		want string
	}{
		{"low score", types.AuditResult{Score: 60}, types.SimilarityResult{}, "score_below_threshold: 60 < 80"},
		{"flagged", types.AuditResult{Score: 90, FlagRewrite: true}, types.SimilarityResult{}, "flag_rewrite"},
		{"similar", types.AuditResult{Score: 90}, types.SimilarityResult{SimilarityScore: 71.3}, "similarity_above_threshold: 71.3 > 60.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rejectionReason(tt.ar, tt.sr, cfg); got != tt.want {
				t.Errorf("rejectionReason = %q, want %q", got, tt.want)
			}
		})
	}
}
