// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"strings"

	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

// fallbackArticle builds a complete offline article record: meta block,
// body, CTA, FAQ microdata, and both JSON-LD scripts. Three body
// variants keyed by id/version/keyword keep a batch from collapsing into
// identical siblings, which matters because the similarity engine runs
// on fallback output too.
func (g *Generator) fallbackArticle(theme types.ThemeItem, itemID string, version int) *types.ArticleRecord {
	title := strings.TrimSpace(theme.Theme)
	keyword := strings.TrimSpace(theme.PrimaryKeyword)

	secA, secB, secC := "conteudo em escala", "orquestracao editorial", "performance organica"
	if len(theme.SecondaryKeywords) > 0 {
		secA = theme.SecondaryKeywords[0]
	}
	if len(theme.SecondaryKeywords) > 1 {
		secB = theme.SecondaryKeywords[1]
	}
	if len(theme.SecondaryKeywords) > 2 {
		secC = theme.SecondaryKeywords[2]
	}

	variant := hashPick(fmt.Sprintf("%s-%d-%s", itemID, version, keyword), 3)
	signal := strings.ToLower(itemID)
	if len(signal) > 6 {
		signal = signal[len(signal)-6:]
	}
	contextLine := fmt.Sprintf(
		"Contexto de teste %s: operação %s em %s para %s.",
		signal, orDefault(theme.Vertical, "Geral"), orDefault(theme.BusinessModel, "B2B"), orDefault(theme.CompanySize, "Média Empresa"),
	)

	headline := fmt.Sprintf("%s: %s", title, keyword)
	metaTitle := strings.TrimSpace(clampRunes(strings.ReplaceAll(textutil.Slugify(title+" "+keyword), "-", " "), 60))
	if metaTitle == "" {
		metaTitle = strings.TrimSpace(clampRunes(headline, 60))
	}
	metaDesc := clampRunes(fmt.Sprintf(
		"%s com foco em %s, %s e revisão humana. Guia prático para 2026.", keyword, secA, secB,
	), 155)

	var body string
	switch variant {
	case 0:
		body = fmt.Sprintf(`
  <p>%[1]s se torna crítico quando a operação precisa escalar sem perder padrão editorial. %[2]s</p>
  <h2>Como %[1]s acelera decisões de mídia e SEO</h2>
  <p>A combinação de dados, IA e revisão humana reduz retrabalho e cria previsibilidade para times de crescimento.</p>
  <h2>Plano de execução de %[1]s em 90 dias</h2>
  <ol>
    <li>Mapear intenção por funil e cluster temático.</li>
    <li>Produzir pautas com foco em %[3]s e %[4]s.</li>
    <li>Publicar com checklist técnico e monitorar CTR, CAC e ROAS.</li>
  </ol>
  <h2>Checklist operacional</h2>
  <ul>
    <li>Padronizar briefing, tom e critérios de QA.</li>
    <li>Priorizar conteúdos com potencial de %[5]s.</li>
    <li>Revisar peças com janela editorial semanal.</li>
  </ul>
`, keyword, contextLine, secA, secB, secC)
	case 1:
		body = fmt.Sprintf(`
  <p>%[1]s funciona quando produção e distribuição seguem o mesmo protocolo de qualidade. %[2]s</p>
  <h2>Framework prático de %[1]s para crescimento sustentável</h2>
  <p>Times que conectam pauta, criação e auditoria tendem a reduzir custo de aquisição e aumentar tráfego qualificado.</p>
  <h2>Prioridades de %[1]s para 2026</h2>
  <ul>
    <li>Intenção de busca e lacunas reais do mercado.</li>
    <li>Cadência editorial com foco em %[3]s.</li>
    <li>Governança para %[4]s e distribuição contínua.</li>
  </ul>
  <h2>Indicadores de validação</h2>
  <p>Monitorar conversão assistida, ganho de posição e impacto em pipeline comercial com leitura quinzenal.</p>
`, keyword, contextLine, secA, secB)
	default:
		body = fmt.Sprintf(`
  <p>Para marcas orientadas a performance, %[1]s organiza a operação e elimina gargalos entre conteúdo e mídia. %[2]s</p>
  <h2>Onde %[1]s gera vantagem competitiva</h2>
  <p>Quando o processo inclui QA editorial, a operação ganha velocidade sem degradar consistência de marca.</p>
  <h2>Roteiro de implementação de %[1]s</h2>
  <ol>
    <li>Definir arquitetura de temas por objetivo de negócio.</li>
    <li>Executar sprint de produção com foco em %[3]s e %[4]s.</li>
    <li>Fechar ciclo com análise de ROI e ajustes de backlog.</li>
  </ol>
  <h2>Risco comum e correção</h2>
  <p>Publicar em volume sem critério técnico aumenta ruído. A correção é usar revisão humana e score mínimo antes de publicar.</p>
`, keyword, contextLine, secA, secC)
	}

	faq := []struct{ q, a string }{
		{
			fmt.Sprintf("Por que %s é relevante para a operação atual?", keyword),
			"Porque conecta produção em escala com governança editorial e melhora previsibilidade de resultados.",
		},
		{
			fmt.Sprintf("Qual o papel da revisão humana em %s?", keyword),
			"Garantir contexto, precisão e aderência de marca antes da publicação.",
		},
		{
			"Quais métricas acompanhar no primeiro ciclo?",
			"CTR, tráfego qualificado, CAC, ROAS e evolução de posicionamento orgânico.",
		},
		{
			"Quando atualizar os conteúdos publicados?",
			"A cada ciclo de desempenho, com prioridade para páginas que perderam tração.",
		},
		{
			"Como evitar conteúdo repetitivo?",
			"Usando clusters distintos, variação de ângulo e auditoria de similaridade por lote.",
		},
	}

	var faqHTML strings.Builder
	var faqLD strings.Builder
	for i, pair := range faq {
		fmt.Fprintf(&faqHTML,
			"    <div itemscope itemprop=\"mainEntity\" itemtype=\"https://schema.org/Question\"><h3 itemprop=\"name\">%s</h3><div itemscope itemprop=\"acceptedAnswer\" itemtype=\"https://schema.org/Answer\"><p itemprop=\"text\">%s</p></div></div>\n",
			pair.q, pair.a)
		if i > 0 {
			faqLD.WriteString(",")
		}
		fmt.Fprintf(&faqLD,
			`{"@type":"Question","name":%q,"acceptedAnswer":{"@type":"Answer","text":%q}}`,
			pair.q, pair.a)
	}

	raw := fmt.Sprintf(`=== META INFORMATION ===
Meta Title: %s
Meta Description: %s

=== HTML PACKAGE — WORDPRESS READY ===
<div class="sowads-article-body">
  <p><strong>%s</strong>. Este conteúdo segue o padrão Sowads: sem H1 no corpo e com foco em leitura escaneável.</p>
%s
  <p>Em resumo, %s só entrega consistência quando escala e qualidade caminham juntas, com IA e revisão humana.</p>
  <section class="sowads-cta">
    <p><strong>Fale com a Sowads</strong> para estruturar uma operação previsível de conteúdo e mídia, com governança e revisão humana.</p>
  </section>
  <section class="faq-section" itemscope itemtype="https://schema.org/FAQPage">
    <h2>Perguntas frequentes</h2>
%s  </section>
  <script type="application/ld+json">{"@context":"https://schema.org","@type":"Article","headline":%q,"description":%q,"author":{"@type":"Organization","name":"Sowads"},"publisher":{"@type":"Organization","name":"Sowads"},"datePublished":"2026-01-01T00:00:00Z","dateModified":"2026-01-01T00:00:00Z","mainEntityOfPage":{"@type":"WebPage","@id":"https://resultsquad.com.br/"}}</script>
  <script type="application/ld+json">{"@context":"https://schema.org","@type":"FAQPage","mainEntity":[%s]}</script>
</div>
`, metaTitle, metaDesc, headline, body, keyword, faqHTML.String(), headline, metaDesc, faqLD.String())

	return g.buildRecord(theme, itemID, version, raw, types.StatusPendingQA)
}

// orDefault returns fallback when value is blank.
func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
