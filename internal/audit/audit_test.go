// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

func testEngine() *Engine {
	return New(types.DefaultPipelineConfig().Audit)
}

// fortyWords returns a 40-word filler sentence varied by index so repeated
// n-gram detection never fires on the body.
func fortyWords(i int) string {
	base := []string{
		"A rotina de revisão semanal número %d cobre metas de margem, leitura de funil, qualidade de lead, ajustes de oferta e priorização de testes, mantendo o time alinhado com indicadores compartilhados entre marketing, vendas e operação ao longo do ciclo.",
		"O checkpoint operacional %d compara receita incremental, custo por aquisição, velocidade comercial e taxa de retorno por região, permitindo que a liderança corrija rota com dados concretos antes que o desvio comprometa o planejamento trimestral da operação inteira.",
		"No bloco de execução %d, documentação de hipóteses, padronização de naming, governança de dados e análise por canal sustentam decisões táticas consistentes, reduzindo ruído entre os times e acelerando o aprendizado acumulado de cada frente de crescimento.",
	}
	return fmt.Sprintf(base[i%len(base)], i+1)
}

// compliantRecord builds an article that satisfies every audit rule. The
// primary keyword appears ten times: intro, two H2 headings, one FAQ
// question, the CTA paragraph and five body sentences.
func compliantRecord() *types.ArticleRecord {
	kw := "seo local"

	var b strings.Builder
	b.WriteString(`<div class="sowads-article-body">`)
	b.WriteString(`<p>Quantas unidades a sua rede perde por mês sem seo local bem executado? Uma operação com 78% das buscas começando no celular (Fonte: Ahrefs, 2026) precisa tratar presença regional como métrica de negócio, com meta, dono e ritmo de revisão definidos.</p>`)

	b.WriteString(`<h2>Como aplicar seo local na operação da franquia</h2>`)
	b.WriteString(`<p>O primeiro passo é mapear as páginas regionais existentes, os termos que cada unidade já ranqueia e o volume de buscas por cidade, cruzando esse inventário com a capacidade comercial de cada praça para definir onde o investimento gera retorno mais rápido e defensável para a empresa.</p>`)
	b.WriteString(`<ul><li><strong>Auditoria de SEO</strong> por unidade com inventário de páginas.</li><li>Mapa de termos regionais priorizado por margem.</li><li><strong>Painel de indicadores</strong> revisado toda segunda-feira.</li></ul>`)

	b.WriteString(`<h2>Erros comuns em seo local que drenam orçamento</h2>`)
	b.WriteString(`<p>Os erros mais caros aparecem quando a rede replica a mesma página para todas as cidades, ignora avaliações locais e concentra verba em termos genéricos, o que gera tráfego sem intenção comercial e esconde o desempenho real de cada unidade nos relatórios consolidados.</p>`)
	b.WriteString(`<table style="border:1px solid #d1d5db"><tr><th>Erro</th><th>Correção</th></tr><tr><td>Página única replicada</td><td>Conteúdo regional próprio</td></tr><tr><td>Verba em termo genérico</td><td>Termos com intenção local</td></tr></table>`)

	b.WriteString(`<h2>Exemplo prático de rotina semanal</h2>`)
	b.WriteString(`<p>Considere uma rede com 40 unidades e budget mensal de R$ 12 mil por praça: a rotina abre com leitura de posições por cidade, segue com revisão de páginas que perderam tração e fecha com a decisão de realocar verba para as praças com maior taxa de conversão registrada.</p>`)
	for i := 0; i < 18; i++ {
		fmt.Fprintf(&b, "<p>%s</p>", fortyWords(i))
	}
	keywordSentences := []string{
		"Na leitura mensal de resultados, seo local entra no painel executivo junto de margem e velocidade comercial.",
		"Cada praça recebe uma meta própria de seo local, revisada com o gestor regional a cada trimestre.",
		"O comitê de expansão usa seo local como critério de priorização ao abrir novas unidades na região.",
		"Relatórios por cidade mostram como seo local sustenta a geração de demanda fora dos horários de pico.",
		"Treinamentos internos ensinam os franqueados a operar seo local sem depender de fornecedores externos genéricos.",
	}
	for _, s := range keywordSentences {
		fmt.Fprintf(&b, "<p>%s</p>", s)
	}

	b.WriteString(`<section class="faq-section" itemscope itemtype="https://schema.org/FAQPage"><h2>Perguntas Frequentes</h2>`)
	faqs := [][2]string{
		{"Como medir o retorno de seo local?", "Acompanhe posições por cidade, tráfego regional e conversões atribuídas em um painel único por unidade."},
		{"Quanto tempo até os primeiros resultados?", "Redes com páginas regionais novas costumam ver tração entre o terceiro e o sexto mês de operação."},
		{"Quais páginas priorizar primeiro?", "Comece pelas praças com maior margem de contribuição e menor concorrência direta nos termos mapeados."},
		{"Avaliações de clientes influenciam o ranqueamento?", "Sim, volume e recência de avaliações pesam na visibilidade regional e na taxa de cliques."},
		{"Vale manter agência ou internalizar o time?", "Depende da escala: abaixo de dez unidades a operação interna enxuta costuma ser mais eficiente."},
	}
	for _, qa := range faqs {
		fmt.Fprintf(&b, `<div itemscope itemprop="mainEntity" itemtype="https://schema.org/Question"><h3 itemprop="name">%s</h3><div itemscope itemprop="acceptedAnswer" itemtype="https://schema.org/Answer"><p itemprop="text">%s</p></div></div>`, qa[0], qa[1])
	}
	b.WriteString(`</section>`)

	b.WriteString(`<section class="sowads-cta"><p>Quer acelerar o seo local da sua rede com um plano por praça e metas de margem claras? Fale com o nosso time e receba um diagnóstico orientado por dados da sua operação.</p></section>`)
	b.WriteString(`<script type="application/ld+json">{"@context":"https://schema.org","@type":"Article","headline":"SEO local para redes de franquia","description":"Guia operacional de presença regional","datePublished":"2026-01-10","dateModified":"2026-01-12","author":{"@type":"Organization","name":"Sowads"},"publisher":{"@type":"Organization","name":"Sowads"},"mainEntityOfPage":"https://example.invalid/seo-local"}</script>`)
	b.WriteString(`</div>`)

	meta := "TITULO_H1: SEO local para redes de franquia\nSLUG: seo-local-para-redes-de-franquia"
	pkg := sanitize.MetaMarker + "\n" + meta + "\n\n" + sanitize.HTMLMarker + "\n" + b.String()

	return &types.ArticleRecord{
		BatchID:         "batch-test",
		ID:              "art-001",
		Version:         1,
		Theme:           "Como estruturar presença regional para redes de franquia",
		PrimaryKeyword:  kw,
		Slug:            "seo-local-para-redes-de-franquia",
		MetaTitle:       "SEO local para franquias: guia operacional",
		MetaDescription: "Como estruturar presença regional por unidade com metas, rotina de revisão e leitura de retorno por praça.",
		ContentPackage:  pkg,
	}
}

func auditOne(t *testing.T, rec *types.ArticleRecord) types.AuditResult {
	t.Helper()
	batch := &types.Batch{BatchID: rec.BatchID, Items: map[string]*types.ArticleRecord{rec.ID: rec}}
	report := testEngine().AuditBatch(batch)
	if len(report.Items) != 1 {
		t.Fatalf("got %d audit items, want 1", len(report.Items))
	}
	return report.Items[0]
}

func TestCompliantArticlePasses(t *testing.T) {
	rec := compliantRecord()

	// Fixture preconditions: the score assertions below are meaningless if
	// the fixture itself drifted out of the measured ranges.
	_, html, _ := sanitize.Split(rec.ContentPackage)
	plain := textutil.StripHTML(html)
	if wc := textutil.CountWords(plain); wc < 900 || wc > 1500 {
		t.Fatalf("fixture word count %d outside [900, 1500]", wc)
	}
	if d := textutil.KeywordDensityPct(plain, rec.PrimaryKeyword); d < 1.5 || d > 2.0 {
		t.Fatalf("fixture keyword density %.3f outside [1.5, 2.0]", d)
	}

	res := auditOne(t, rec)
	if res.FlagRewrite {
		t.Errorf("compliant article flagged; score=%d reasons=%v issues=%v", res.Score, res.ReasonCodes, res.Issues)
	}
	if res.Score < 80 {
		t.Errorf("score = %d, want >= 80; issues=%v", res.Score, res.Issues)
	}
	if len(res.ReasonCodes) != 0 {
		t.Errorf("unexpected reason codes: %v", res.ReasonCodes)
	}
}

func TestAuditDeterministic(t *testing.T) {
	rec := compliantRecord()
	a := auditOne(t, rec)
	b := auditOne(t, rec)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("audit not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestMissingMarkersPenalized(t *testing.T) {
	rec := compliantRecord()
	rec.ContentPackage = strings.ReplaceAll(rec.ContentPackage, sanitize.MetaMarker, "META")

	res := auditOne(t, rec)
	if !res.HasReason("missing_blocks") {
		t.Errorf("missing_blocks absent: %v", res.ReasonCodes)
	}
	if !res.FlagRewrite {
		t.Error("article with missing markers not flagged")
	}
}

func TestMissingFAQPenalized(t *testing.T) {
	rec := compliantRecord()
	start := strings.Index(rec.ContentPackage, `<section class="faq-section"`)
	end := strings.Index(rec.ContentPackage, `</section>`) + len("</section>")
	rec.ContentPackage = rec.ContentPackage[:start] + rec.ContentPackage[end:]

	base := auditOne(t, compliantRecord())
	res := auditOne(t, rec)
	if !res.HasReason("faq_missing") {
		t.Fatalf("faq_missing absent: %v", res.ReasonCodes)
	}
	if !res.FlagRewrite {
		t.Error("article without FAQ not flagged")
	}
	if base.Score-res.Score < 10 {
		t.Errorf("FAQ removal reduced score by %d, want >= 10", base.Score-res.Score)
	}
}

func TestExternalLinkPenalized(t *testing.T) {
	rec := compliantRecord()
	rec.ContentPackage = strings.Replace(rec.ContentPackage,
		"<p>Quantas unidades",
		`<p><a href="https://example.com/ferramenta">ferramenta externa</a> Quantas unidades`, 1)

	res := auditOne(t, rec)
	if !res.HasReason("external_link") {
		t.Errorf("external_link absent: %v", res.ReasonCodes)
	}
	if !res.FlagRewrite {
		t.Error("article with external link not flagged")
	}
}

func TestBodyH1Penalized(t *testing.T) {
	rec := compliantRecord()
	rec.ContentPackage = strings.Replace(rec.ContentPackage,
		`<h2>Como aplicar`, `<h1>Titulo duplicado</h1><h2>Como aplicar`, 1)

	res := auditOne(t, rec)
	if !res.HasReason("body_h1_present") {
		t.Errorf("body_h1_present absent: %v", res.ReasonCodes)
	}
}

func TestInvalidSlugPenalized(t *testing.T) {
	rec := compliantRecord()
	rec.Slug = "Seo Local Invalido!"

	res := auditOne(t, rec)
	if !res.HasReason("invalid_slug") {
		t.Errorf("invalid_slug absent: %v", res.ReasonCodes)
	}
}

func TestBannedOpeningPenalized(t *testing.T) {
	rec := compliantRecord()
	rec.ContentPackage = strings.Replace(rec.ContentPackage,
		"<p>Quantas unidades", "<p>Atualmente, quantas unidades", 1)

	res := auditOne(t, rec)
	if !res.HasReason("hard_opening_banned") {
		t.Errorf("hard_opening_banned absent: %v", res.ReasonCodes)
	}
}

func TestTemporalIncoherencePenalized(t *testing.T) {
	rec := compliantRecord()
	rec.ContentPackage = strings.Replace(rec.ContentPackage,
		"da sua operação.</p></section><script",
		"da sua operação ainda em 2024.</p></section><script", 1)

	res := auditOne(t, rec)
	if !res.HasReason("temporal_incoherence") {
		t.Errorf("temporal_incoherence absent: %v", res.ReasonCodes)
	}
}

func TestRepeatedStructureAcrossBatch(t *testing.T) {
	a := compliantRecord()
	b := compliantRecord()
	b.ID = "art-002"
	b.Slug = "segunda-variacao-do-tema"
	batch := &types.Batch{
		BatchID: "batch-test",
		Items:   map[string]*types.ArticleRecord{a.ID: a, b.ID: b},
	}

	report := testEngine().AuditBatch(batch)
	for _, item := range report.Items {
		if !item.HasReason("repeated_structure_pattern") {
			t.Errorf("%s: repeated_structure_pattern absent: %v", item.ID, item.ReasonCodes)
		}
		if item.Metrics.SignatureRepeats != 2 {
			t.Errorf("%s: signature repeats = %d, want 2", item.ID, item.Metrics.SignatureRepeats)
		}
	}
}

func TestRepetitiveTailDetection(t *testing.T) {
	// Three distinct templates, 120 tokens: long enough to analyze, no
	// shared n-grams.
	base := strings.Join([]string{fortyWords(0), fortyWords(1), fortyWords(2)}, " ")

	if hasRepetitiveTail(base + " Frase final completamente distinta para encerrar o artigo com tranquilidade.") {
		t.Error("varied tail reported as repetitive")
	}
	echo := "esta mesma sequencia longa de palavras repetidas volta a aparecer integralmente no final"
	if !hasRepetitiveTail(base + " " + echo + " " + echo) {
		t.Error("echoed tail not detected")
	}
	if hasRepetitiveTail("texto curto demais para analise") {
		t.Error("short text should never be repetitive")
	}
}

func TestGuidanceListsIssues(t *testing.T) {
	rec := compliantRecord()
	rec.MetaDescription = ""

	res := auditOne(t, rec)
	if !res.FlagRewrite {
		t.Fatal("expected flag")
	}
	if !strings.HasPrefix(res.RewriteGuidance, "Reescrever apenas os pontos reprovados: ") {
		t.Errorf("guidance prefix wrong: %q", res.RewriteGuidance)
	}
	if !strings.Contains(res.RewriteGuidance, "Meta Description ausente.") {
		t.Errorf("guidance missing issue: %q", res.RewriteGuidance)
	}
}

func TestScoreClampedAtZero(t *testing.T) {
	rec := &types.ArticleRecord{
		ID:             "art-bad",
		Version:        1,
		PrimaryKeyword: "qualquer keyword",
		Slug:           "INVALIDO",
		ContentPackage: "conteudo sem estrutura nenhuma ```",
	}
	res := auditOne(t, rec)
	if res.Score < 0 || res.Score > 100 {
		t.Errorf("score %d outside [0, 100]", res.Score)
	}
	if !res.FlagRewrite {
		t.Error("degenerate article not flagged")
	}
}
