// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enforce

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

func testConfig() types.EnforcementConfig {
	return types.DefaultPipelineConfig().Enforcement
}

// bodyWithWords builds an article body of roughly n words with no keyword
// occurrences. Paragraphs are numbered so the sanitizer's duplicate-tail
// pass does not collapse them.
func bodyWithWords(n int) string {
	const sentence = "A operacao comercial precisa de rotina de analise e disciplina para crescer de forma organizada no trimestre."
	perPara := textutil.CountWords(sentence)
	var b strings.Builder
	b.WriteString(`<div class="sowads-article-body">`)
	for i := 0; i*perPara < n; i++ {
		fmt.Fprintf(&b, "<p>Bloco %d. %s</p>", i+1, sentence)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func TestEnforceRaisesShortArticle(t *testing.T) {
	cfg := testConfig()
	pkg, m := Enforce("art-001", "seo local", bodyWithWords(600), cfg)

	if m.WordCount < cfg.MinWords {
		t.Errorf("word count %d still below minimum %d", m.WordCount, cfg.MinWords)
	}
	if m.WordCount > cfg.MaxWords {
		t.Errorf("word count %d above maximum %d", m.WordCount, cfg.MaxWords)
	}
	if m.KeywordDensityPct < cfg.DensityMinPct || m.KeywordDensityPct > cfg.DensityMaxPct {
		t.Errorf("density %.4f outside [%.2f, %.2f]", m.KeywordDensityPct, cfg.DensityMinPct, cfg.DensityMaxPct)
	}
	if !m.OK {
		t.Errorf("metrics not ok: %+v", m)
	}
	if !strings.Contains(pkg, "<strong>seo local</strong>") {
		t.Error("expected keyword sentences in adjusted body")
	}
}

func TestEnforceDensityMonotonic(t *testing.T) {
	cfg := testConfig()
	body := bodyWithWords(950)
	before := textutil.KeywordDensityPct(textutil.StripHTML(body), "trafego pago")

	_, m := Enforce("art-002", "trafego pago", body, cfg)
	if m.KeywordDensityPct <= before {
		t.Errorf("density did not increase: before %.4f, after %.4f", before, m.KeywordDensityPct)
	}
	if m.KeywordDensityPct < cfg.DensityMinPct {
		t.Errorf("density %.4f below minimum %.2f", m.KeywordDensityPct, cfg.DensityMinPct)
	}
}

func TestEnforceTrimsLongArticle(t *testing.T) {
	cfg := testConfig()
	cfg.DensityMinPct = 0 // isolate the word-count trim
	cfg.DensityMaxPct = 100

	_, m := Enforce("art-003", "gestao de trafego", bodyWithWords(2200), cfg)
	if m.WordCount > cfg.MaxWords {
		t.Errorf("word count %d above maximum %d after trim", m.WordCount, cfg.MaxWords)
	}
}

func TestTrimPreservesFAQSection(t *testing.T) {
	faq := `<section class="faq-section" itemscope itemtype="https://schema.org/FAQPage"><h2>Perguntas Frequentes</h2>` +
		`<div itemscope itemprop="mainEntity" itemtype="https://schema.org/Question"><h3 itemprop="name">Como comecar?</h3>` +
		`<div itemscope itemprop="acceptedAnswer" itemtype="https://schema.org/Answer"><p itemprop="text">Com um diagnostico inicial da operacao.</p></div></div></section>`
	body := strings.TrimSuffix(bodyWithWords(2000), "</div>") + faq + "</div>"

	out := trimToMaxWords(body, 900)
	if !strings.Contains(out, "faq-section") {
		t.Error("FAQ section removed by trim")
	}
	if !strings.Contains(out, "Como comecar?") {
		t.Error("FAQ question removed by trim")
	}
	if got := textutil.CountWords(textutil.StripHTML(out)); got > 950 {
		t.Errorf("trim left %d words", got)
	}
}

func TestInjectBeforeClose(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{"article tag", "<article><p>Corpo.</p></article>"},
		{"body root div", `<div class="sowads-article-body"><p>Corpo.</p></div>`},
		{"no wrapper", "<p>Corpo.</p>"},
	}
	for _, tc := range cases {
		out := injectBeforeClose(tc.html, "<p>Filler.</p>")
		if !strings.Contains(out, "<p>Filler.</p>") {
			t.Errorf("%s: filler missing: %q", tc.name, out)
		}
		if strings.Count(out, "Corpo.") != 1 {
			t.Errorf("%s: body damaged: %q", tc.name, out)
		}
		if idx := strings.Index(out, "Filler."); idx < strings.Index(out, "Corpo.") {
			t.Errorf("%s: filler inserted before body: %q", tc.name, out)
		}
	}
}

func TestEnforceBatchRewritesAllItems(t *testing.T) {
	cfg := testConfig()
	batch := &types.Batch{
		BatchID: "batch-01",
		Items: map[string]*types.ArticleRecord{
			"a1": {ID: "a1", PrimaryKeyword: "seo para franquias", ContentPackage: bodyWithWords(500)},
			"a2": {ID: "a2", PrimaryKeyword: "marketing local", ContentPackage: bodyWithWords(1100)},
		},
	}
	report := EnforceBatch(batch, cfg)

	if report.Total != 2 {
		t.Fatalf("total = %d, want 2", report.Total)
	}
	if report.OK+report.Failed != report.Total {
		t.Errorf("ok %d + failed %d != total %d", report.OK, report.Failed, report.Total)
	}
	for id, rec := range batch.Items {
		wc := textutil.CountWords(textutil.StripHTML(rec.ContentPackage))
		if wc < cfg.MinWords {
			t.Errorf("%s: word count %d below minimum after batch enforcement", id, wc)
		}
	}
}
