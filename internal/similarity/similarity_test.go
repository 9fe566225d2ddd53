// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sowads/content-engine/pkg/types"
)

func testEngine() *Engine {
	return New(types.DefaultPipelineConfig().Similarity)
}

func paragraphs(seed string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>Parágrafo %s número %d fala sobre rotina de operação, leitura de indicadores e decisões de investimento por região com disciplina semanal constante.</p>", seed, i)
	}
	return b.String()
}

func record(id, keyword, html string) *types.ArticleRecord {
	return &types.ArticleRecord{
		ID:             id,
		Version:        1,
		PrimaryKeyword: keyword,
		ContentPackage: `<div class="sowads-article-body">` + html + `</div>`,
	}
}

func batchOf(recs ...*types.ArticleRecord) *types.Batch {
	items := map[string]*types.ArticleRecord{}
	for _, r := range recs {
		items[r.ID] = r
	}
	return &types.Batch{BatchID: "batch-sim", Items: items}
}

func TestDistinctArticlesPass(t *testing.T) {
	a := record("a1", "seo local", paragraphs("alfa", 6)+"<p>Planos regionais com metas de margem exigem inventário de páginas por cidade e leitura de retorno específica.</p>")
	b := record("a2", "trafego pago", "<p>Campanhas de mídia exigem estrutura de contas limpa, verba segmentada por funil e criativos renovados toda semana para manter o custo por aquisição saudável em mercados concorridos.</p><p>Testes controlados comparam públicos, formatos e páginas de destino, isolando variáveis antes de escalar o investimento vencedor.</p>")

	report := testEngine().Compare(batchOf(a, b), nil)
	for _, item := range report.Items {
		if item.Status == types.SimilarityRewrite {
			t.Errorf("%s: distinct article marked rewrite (score %.2f)", item.ID, item.SimilarityScore)
		}
		if item.FlagSimilarity {
			t.Errorf("%s: distinct article flagged", item.ID)
		}
	}
}

func TestSharedParagraphsForceRewrite(t *testing.T) {
	shared := paragraphs("compartilhado", 8)
	a := record("a1", "seo local", shared+paragraphs("alfa", 2))
	b := record("a2", "seo tecnico", shared+paragraphs("beta", 2))

	report := testEngine().Compare(batchOf(a, b), nil)
	if len(report.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(report.Items))
	}
	for _, item := range report.Items {
		if item.SimilarityScore <= 60 {
			t.Errorf("%s: score %.2f, want > 60", item.ID, item.SimilarityScore)
		}
		if item.Status != types.SimilarityRewrite {
			t.Errorf("%s: status %q, want rewrite", item.ID, item.Status)
		}
		if !item.FlagSimilarity {
			t.Errorf("%s: not flagged", item.ID)
		}
		if item.RewriteGuidance == "" {
			t.Errorf("%s: empty guidance on rewrite", item.ID)
		}
		if len(item.Conflicts) == 0 || item.Conflicts[0].Reason != "batch_overlap" {
			t.Errorf("%s: conflicts = %+v", item.ID, item.Conflicts)
		}
	}
}

func TestCompositeSymmetric(t *testing.T) {
	ta := paragraphs("alfa", 4)
	tb := paragraphs("alfa", 3) + paragraphs("beta", 2)

	ab := Score(ta, tb, false)
	ba := Score(tb, ta, false)
	if ab != ba {
		t.Errorf("composite not symmetric: %.4f vs %.4f", ab, ba)
	}
}

func TestHistoryOverlapReported(t *testing.T) {
	text := paragraphs("historico", 8)
	a := record("a1", "seo local", text)
	history := []types.HistoryEntry{
		{ID: "old-1", PrimaryKeyword: "seo local", Excerpt: strings.ToLower(stripTags(text))},
	}

	report := testEngine().Compare(batchOf(a), history)
	item := report.Items[0]
	if item.SimilarityScore <= 60 {
		t.Fatalf("score %.2f, want > 60 against identical history excerpt", item.SimilarityScore)
	}
	found := false
	for _, c := range item.Conflicts {
		if c.Reason == "history_overlap" && c.OtherID == "old-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("history conflict missing: %+v", item.Conflicts)
	}
}

func TestHistoryWindowCapped(t *testing.T) {
	cfg := types.DefaultPipelineConfig().Similarity
	cfg.HistoryWindow = 2
	engine := New(cfg)

	a := record("a1", "seo local", paragraphs("atual", 6))
	history := []types.HistoryEntry{
		{ID: "too-old", PrimaryKeyword: "seo local", Excerpt: stripTags(paragraphs("atual", 6))},
		{ID: "recent-1", PrimaryKeyword: "outro tema", Excerpt: "conteudo completamente diferente sobre logistica e armazenagem de produtos importados"},
		{ID: "recent-2", PrimaryKeyword: "mais um tema", Excerpt: "texto distinto sobre contratos de fornecimento e negociação com distribuidores regionais"},
	}

	report := engine.Compare(batchOf(a), history)
	for _, c := range report.Items[0].Conflicts {
		if c.OtherID == "too-old" {
			t.Errorf("entry outside history window compared: %+v", c)
		}
	}
}

func TestConflictsSortedAndCapped(t *testing.T) {
	cfg := types.DefaultPipelineConfig().Similarity
	cfg.MaxConflicts = 3
	engine := New(cfg)

	shared := paragraphs("nucleo", 6)
	recs := []*types.ArticleRecord{record("a0", "kw", shared)}
	for i := 1; i <= 5; i++ {
		recs = append(recs, record(fmt.Sprintf("a%d", i), "kw", shared+paragraphs(fmt.Sprintf("extra%d", i), i)))
	}

	report := engine.Compare(batchOf(recs...), nil)
	for _, item := range report.Items {
		if len(item.Conflicts) > 3 {
			t.Errorf("%s: %d conflicts, want <= 3", item.ID, len(item.Conflicts))
		}
		for i := 1; i < len(item.Conflicts); i++ {
			if item.Conflicts[i].Score > item.Conflicts[i-1].Score {
				t.Errorf("%s: conflicts not sorted descending: %+v", item.ID, item.Conflicts)
			}
		}
	}
}

func stripTags(html string) string {
	html = strings.ReplaceAll(html, "<p>", " ")
	return strings.ReplaceAll(html, "</p>", " ")
}
