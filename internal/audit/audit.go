// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit scores one article against the structural and SEO rule set
// and emits a 0-100 score, a reason-code set, human-readable issues, and a
// rewrite flag. Identical input always produces identical output; rules
// never consult the network or the clock.
package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

// CriticalReasonCodes force a rewrite regardless of the numeric score.
var CriticalReasonCodes = map[string]bool{
	"missing_blocks":             true,
	"meta_title_too_long":        true,
	"meta_description_too_long":  true,
	"meta_description_missing":   true,
	"external_link":              true,
	"invalid_slug":               true,
	"body_h1_present":            true,
	"faq_missing":                true,
	"faq_answers_missing":        true,
	"faq_html_semantic_missing":  true,
	"article_schema_missing":     true,
	"article_schema_incomplete":  true,
	"temporal_incoherence":       true,
	"malformed_tail":             true,
	"repetitive_tail":            true,
	"low_visual_structure":       true,
	"visual_overload":            true,
	"late_visual_structure":      true,
	"word_count_high":            true,
	"long_paragraphs":            true,
	"geo_block_weak":             true,
	"cta_missing":                true,
	"sources_missing":            true,
	"bold_overuse":               true,
	"fixed_blocks_detected":      true,
	"repeated_structure_pattern": true,
	"examples_missing":           true,
	"hard_opening_banned":        true,
	"table_verbose":              true,
	"table_ellipsis":             true,
}

var genericOpenings = []string{
	"no cenario atual",
	"no mundo digital de hoje",
	"voce sabia que",
	"vivemos em uma era",
	"em um mercado cada vez mais",
	"nos dias de hoje",
	"atualmente as empresas",
	"com a evolucao da tecnologia",
}

var bannedOpeningStarts = []string{
	"em 2026",
	"atualmente",
	"nos dias de hoje",
	"no cenario atual",
	"no mundo digital de hoje",
	"em um mercado cada vez mais",
}

// fixedBlockMarkers are normalized fingerprints of boilerplate section
// templates that earlier prompt versions leaked into articles.
var fixedBlockMarkers = []string{
	"painel tatico",
	"resumo executivo em bullet points",
	"checklist de execucao 30 dias",
	"frente objetivo pratico indicador principal ritmo de revisao",
}

var (
	slugRe          = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	externalLinkRe  = regexp.MustCompile(`(?i)<a[^>]+href=["'](?:https?://|www\.)`)
	h1BlockRe       = regexp.MustCompile(`(?is)<h1[\s>].*?</h1>`)
	h2BlockRe       = regexp.MustCompile(`(?is)<h2[^>]*>[\s\S]*?</h2>`)
	pOpenRe         = regexp.MustCompile(`(?i)<p[\s>]`)
	pBlockRe        = regexp.MustCompile(`(?i)<p[^>]*>([\s\S]*?)</p>`)
	tableBlockRe    = regexp.MustCompile(`(?i)<table[\s\S]*?</table>`)
	tableOpenRe     = regexp.MustCompile(`(?i)<table[\s>]`)
	ulOpenRe        = regexp.MustCompile(`(?i)<ul[\s>]`)
	olOpenRe        = regexp.MustCompile(`(?i)<ol[\s>]`)
	blockquoteRe    = regexp.MustCompile(`(?i)<blockquote[\s>]`)
	checklistHeadRe = regexp.MustCompile(`(?i)<h[2-4][^>]*>\s*[^<]{0,60}checklist[^<]{0,60}</h[2-4]>`)
	checklistItemRe = regexp.MustCompile(`(?i)<li[^>]*>\s*(?:✅|☑️|✔️|□|\[[ xX]\])`)
	gridStyleRe     = regexp.MustCompile(`(?i)#d1d5db|#b7b7b7|border`)
	faqSemanticRe   = regexp.MustCompile(`(?i)<section[^>]*faq-section[^>]*itemscope[^>]*FAQPage`)
	mainEntityRe    = regexp.MustCompile(`(?i)itemprop=["']mainEntity["']`)
	acceptedAnsRe   = regexp.MustCompile(`(?i)itemprop=["']acceptedAnswer["']`)
	faqRawPairRe    = regexp.MustCompile(`(?i)<h3[^>]*>[\s\S]*?</h3>\s*<p[^>]*>[\s\S]*?</p>`)
	stepsRe         = regexp.MustCompile(`(?i)<ol[\s>]|passo a passo|\bpasso\b`)
	ctaSectionRe    = regexp.MustCompile(`(?i)<section[^>]*class=["'][^"']*sowads-cta[^"']*["']`)
	sourceYearRe    = regexp.MustCompile(`(?i)(google search central|google|ahrefs|semrush|bain|gartner|statista|search console|search engine journal)[^\n\r]{0,45}(2024|2025|2026)`)
	yearSourceRe    = regexp.MustCompile(`(?i)(2024|2025|2026)[^\n\r]{0,45}(google search central|google|ahrefs|semrush|bain|gartner|statista|search console|search engine journal)`)
	experienceRe    = regexp.MustCompile(`(?i)\d{2,4}\s*(paginas|página|unidades|providers|jogos)|r\$\s*\d|budget\s*mensal|catalogo\s*com\s*\d`)
	temporalRe      = regexp.MustCompile(`\b(hoje|atualmente|neste ano|em)\s+20(24|25)\b`)
	separatorRunRe  = regexp.MustCompile(`={8,}`)
	percentRe       = regexp.MustCompile(`\b\d{1,3}%\b`)
	hookNumberRe    = regexp.MustCompile(`\b\d{2,4}\b`)
	vocabAnchorRe   = regexp.MustCompile(`\bROAS\b|\bCTR\b|\bCAC\b|\bSEO\b`)
	vocabBusinessRe = regexp.MustCompile(`(?i)R\$|franquia|budget|empresa`)
	exampleMarkerRe = regexp.MustCompile(`(?i)\bexemplo pr[aá]tico\b|\bcen[aá]rio aplicado\b|\bmini-?caso\b|\bcaso real\b|\bna pr[aá]tica\b`)
)

// Engine audits article packages against a fixed threshold configuration.
type Engine struct {
	cfg types.AuditConfig
}

func New(cfg types.AuditConfig) *Engine {
	return &Engine{cfg: cfg}
}

// structureSignature fingerprints the article's first six H2 headings.
// Articles with fewer than three headings produce no signature.
func structureSignature(html string) string {
	var norm []string
	for _, m := range h2BlockRe.FindAllString(html, -1) {
		if t := strings.TrimSpace(textutil.Normalize(textutil.StripHTML(m))); t != "" {
			norm = append(norm, t)
		}
	}
	if len(norm) < 3 {
		return ""
	}
	if len(norm) > 6 {
		norm = norm[:6]
	}
	return strings.Join(norm, "|")
}

// hasRepetitiveTail reports whether the final 180 tokens repeat an 8, 10 or
// 12-gram. Texts under 80 tokens are too short to judge.
func hasRepetitiveTail(plain string) bool {
	tokens := strings.Fields(textutil.Normalize(plain))
	if len(tokens) < 80 {
		return false
	}
	tail := tokens
	if len(tail) > 180 {
		tail = tail[len(tail)-180:]
	}
	for _, n := range []int{12, 10, 8} {
		if len(tail) < n*2 {
			continue
		}
		seen := map[string]int{}
		for i := 0; i+n <= len(tail); i++ {
			gram := strings.Join(tail[i:i+n], " ")
			seen[gram]++
			if seen[gram] >= 2 {
				return true
			}
		}
	}
	return false
}

type keywordHits struct {
	inFirstParagraph bool
	inTwoH2s         bool
	inConclusion     bool
}

func findKeywordHits(html, keyword string) keywordHits {
	kw := strings.ToLower(keyword)
	var hits keywordHits
	if kw == "" {
		return hits
	}

	var paragraphs []string
	for _, m := range pBlockRe.FindAllStringSubmatch(html, -1) {
		paragraphs = append(paragraphs, m[1])
	}
	if len(paragraphs) > 0 {
		hits.inFirstParagraph = strings.Contains(strings.ToLower(textutil.StripHTML(paragraphs[0])), kw)
		tail := paragraphs
		if len(tail) > 2 {
			tail = tail[len(tail)-2:]
		}
		hits.inConclusion = strings.Contains(strings.ToLower(strings.Join(tail, " ")), kw)
	}

	h2Hits := 0
	for _, m := range h2BlockRe.FindAllString(html, -1) {
		if strings.Contains(strings.ToLower(textutil.StripHTML(m)), kw) {
			h2Hits++
		}
	}
	hits.inTwoH2s = h2Hits >= 2
	return hits
}

// domCounts are the tag-level measurements taken from the parsed fragment.
type domCounts struct {
	strongCount     int
	strongWords     int
	boldAnchorCount int
	longParagraphs  int
}

func collectDOMCounts(html string) domCounts {
	var c domCounts
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return c
	}
	doc.Find("strong").Each(func(_ int, s *goquery.Selection) {
		c.strongCount++
		w := textutil.CountWords(s.Text())
		c.strongWords += w
		if w >= 2 && w <= 12 {
			c.boldAnchorCount++
		}
	})
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" || strings.Contains(txt, "@context") || strings.Contains(txt, "@type") {
			return
		}
		if textutil.CountWords(txt) > 70 {
			c.longParagraphs++
		}
	})
	return c
}

// tableQuality inspects the first table of the fragment.
type tableQuality struct {
	hasGridStyle  bool
	verboseCells  int
	ellipsisCells int
}

func inspectFirstTable(html string) tableQuality {
	q := tableQuality{hasGridStyle: true}
	block := tableBlockRe.FindString(html)
	if block == "" {
		return q
	}
	q.hasGridStyle = gridStyleRe.MatchString(block)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(block))
	if err != nil {
		return q
	}
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if textutil.CountWords(text) > 10 {
			q.verboseCells++
		}
		if strings.Contains(text, "...") {
			q.ellipsisCells++
		}
	})
	return q
}

// AuditBatch audits every item of the batch. A shared pre-pass counts H2
// structure signatures so repeated architectures inside one run are flagged
// on every copy.
func (e *Engine) AuditBatch(batch *types.Batch) *types.AuditReport {
	signatureByItem := map[string]string{}
	signatureCounts := map[string]int{}
	for _, id := range batch.IDs() {
		_, html, _ := sanitize.Split(batch.Items[id].ContentPackage)
		if sig := structureSignature(html); sig != "" {
			signatureByItem[id] = sig
			signatureCounts[sig]++
		}
	}

	report := &types.AuditReport{BatchID: batch.BatchID, Threshold: e.cfg.Threshold}
	for _, id := range batch.IDs() {
		rec := batch.Items[id]
		repeats := signatureCounts[signatureByItem[id]]
		report.Items = append(report.Items, e.auditItem(rec, repeats))
	}
	return report
}

// AuditOne audits a single record outside batch context; the structural
// repetition rule cannot fire with only one signature.
func (e *Engine) AuditOne(rec *types.ArticleRecord) types.AuditResult {
	return e.auditItem(rec, 1)
}

func (e *Engine) auditItem(rec *types.ArticleRecord, signatureRepeats int) types.AuditResult {
	var reasons, issues []string
	score := 100
	penalize := func(code string, points int, issue string) {
		if code != "" {
			reasons = append(reasons, code)
		}
		if issue != "" {
			issues = append(issues, issue)
		}
		score -= points
	}

	cp := rec.ContentPackage
	if !strings.Contains(cp, sanitize.MetaMarker) || !strings.Contains(cp, sanitize.HTMLMarker) {
		penalize("missing_blocks", 40, "Pacote sem 2 blocos obrigatórios.")
	}

	_, html, _ := sanitize.Split(cp)
	plain := textutil.StripHTML(html)
	wordCount := textutil.CountWords(plain)
	kwDensity := textutil.KeywordDensityPct(plain, rec.PrimaryKeyword)

	tableCount := len(tableOpenRe.FindAllString(html, -1))
	ulCount := len(ulOpenRe.FindAllString(html, -1))
	olCount := len(olOpenRe.FindAllString(html, -1))
	blockquoteCount := len(blockquoteRe.FindAllString(html, -1))
	htmlLen := max(1, len(html))
	lower := strings.ToLower(html)

	tablePos := strings.Index(lower, "<table")
	firstListPos := -1
	for _, p := range []int{strings.Index(lower, "<ul"), strings.Index(lower, "<ol")} {
		if p >= 0 && (firstListPos < 0 || p < firstListPos) {
			firstListPos = p
		}
	}
	blockquotePos := strings.Index(lower, "<blockquote")
	faqPos := strings.Index(lower, "faq-section")
	checklistPos := -1
	if loc := checklistHeadRe.FindStringIndex(html); loc != nil {
		checklistPos = loc[0]
	}
	checklistItems := len(checklistItemRe.FindAllString(html, -1))

	dom := collectDOMCounts(html)

	visualDevices := map[string]bool{
		"numbered_list":  olCount > 0,
		"bullets":        ulCount > 0,
		"mini_checklist": checklistPos >= 0 || checklistItems >= 2,
		"table":          tableCount > 0,
		"blockquote":     blockquoteCount > 0,
		"bold_anchor":    dom.boldAnchorCount >= 2,
	}
	visualDeviceCount := 0
	var usedDevices []string
	for name, used := range visualDevices {
		if used {
			visualDeviceCount++
			usedDevices = append(usedDevices, name)
		}
	}
	sort.Strings(usedDevices)

	if len(rec.MetaTitle) > 60 {
		penalize("meta_title_too_long", 8, "Meta Title > 60.")
	}
	if strings.TrimSpace(rec.MetaDescription) == "" {
		penalize("meta_description_missing", 10, "Meta Description ausente.")
	}
	if len(rec.MetaDescription) > 155 {
		penalize("meta_description_too_long", 8, "Meta Description > 155.")
	}
	if !slugRe.MatchString(rec.Slug) {
		penalize("invalid_slug", 12, "Slug inválido.")
	}
	if strings.TrimSpace(rec.Theme) != "" && strings.TrimSpace(rec.MetaTitle) != "" {
		if textutil.TokenJaccard(rec.Theme, rec.MetaTitle) >= 0.9 {
			penalize("", 8, "Título do post e Meta Title muito parecidos; variar promessa para evitar duplicação.")
		}
	}
	if externalLinkRe.MatchString(html) {
		penalize("external_link", 18, "Link externo detectado.")
	}

	if wordCount < e.cfg.MinWords {
		penalize("word_count_low", 18, fmt.Sprintf("Word count abaixo do mínimo: %d < %d.", wordCount, e.cfg.MinWords))
	} else if wordCount > e.cfg.MaxWords {
		penalize("word_count_high", 18, fmt.Sprintf("Word count acima do máximo: %d > %d.", wordCount, e.cfg.MaxWords))
	}

	if kwDensity < e.cfg.DensityMinPct {
		penalize("keyword_density_low", 12, fmt.Sprintf("Densidade da keyword primária baixa: %.2f%% < %.2f%%.", kwDensity, e.cfg.DensityMinPct))
	} else if kwDensity > e.cfg.DensityMaxPct {
		penalize("keyword_density_high", 12, fmt.Sprintf("Densidade da keyword primária alta: %.2f%% > %.2f%%.", kwDensity, e.cfg.DensityMaxPct))
	}

	if len(h1BlockRe.FindAllString(html, -1)) > 0 {
		penalize("body_h1_present", 12, "H1 no corpo do artigo detectado; manter H1 apenas no título nativo do WordPress.")
	}

	if visualDeviceCount < 2 {
		penalize("low_visual_structure", 10, "Estrutura visual pobre: usar 2-3 recursos entre lista numerada, bullets, mini-checklist, tabela, blockquote e frases-âncora em negrito.")
	} else if visualDeviceCount > 3 {
		penalize("visual_overload", 8, "Excesso de elementos visuais: limitar para 2-3 recursos por artigo.")
	}

	earliestVisual := -1
	for _, p := range []int{tablePos, firstListPos, blockquotePos, checklistPos} {
		if p >= 0 && (earliestVisual < 0 || p < earliestVisual) {
			earliestVisual = p
		}
	}
	if earliestVisual >= 0 {
		pPositions := pOpenRe.FindAllStringIndex(html, -1)
		p2Pos, p4Pos := -1, -1
		if len(pPositions) >= 2 {
			p2Pos = pPositions[1][0]
		}
		if len(pPositions) >= 4 {
			p4Pos = pPositions[3][0]
		}
		lateByPosition := float64(earliestVisual)/float64(htmlLen) > 0.5
		lateByParagraph := p4Pos >= 0 && earliestVisual > p4Pos
		lateAfterFAQ := faqPos >= 0 && earliestVisual >= faqPos
		switch {
		case lateByPosition || lateByParagraph || lateAfterFAQ:
			penalize("late_visual_structure", 12, "Elemento visual estrutural inserido tarde; posicionar após o 2º, 3º ou 4º parágrafo e antes da metade do artigo.")
		case p2Pos >= 0 && earliestVisual < p2Pos:
			penalize("", 3, "Elemento visual estrutural muito cedo; reposicionar após o 2º parágrafo para fluidez.")
		}
	}

	if tableCount > 0 {
		q := inspectFirstTable(html)
		if !q.hasGridStyle {
			penalize("", 4, "Tabela sem estilo de grade legível (linhas/bordas cinza visíveis).")
		}
		if q.verboseCells > 0 {
			penalize("table_verbose", min(8, q.verboseCells*2), fmt.Sprintf("Tabela com células verbosas (%d); usar texto curto e objetivo nas colunas.", q.verboseCells))
		}
		if q.ellipsisCells > 0 {
			penalize("table_ellipsis", min(8, q.ellipsisCells*2), "Tabela contém reticências ('...'); usar células completas e curtas, sem truncamento.")
		}
	}

	if dom.longParagraphs > 0 {
		penalize("long_paragraphs", min(16, dom.longParagraphs*4), fmt.Sprintf("Parágrafos longos detectados (%d); quebrar em blocos menores.", dom.longParagraphs))
	}

	if !exampleMarkerRe.MatchString(html) {
		penalize("examples_missing", 12, "Falta exemplo prático/mini-caso operacional; adicionar bloco aplicado ao contexto do tema.")
	}

	firstChunk := strings.ToLower(textutil.StripHTML(html[:min(len(html), 900)]))
	if !strings.Contains(firstChunk, "?") && !hookNumberRe.MatchString(firstChunk) {
		penalize("", 5, "Introdução fraca: incluir gancho de decisão (pergunta ou contexto numérico concreto).")
	}

	boldRatio := 0.0
	if wordCount > 0 {
		boldRatio = float64(dom.strongWords) / float64(wordCount)
	}
	if dom.strongCount > max(14, wordCount/75) || boldRatio > 0.09 {
		penalize("bold_overuse", 8, "Excesso de negrito no corpo; destacar apenas termos técnicos, decisões estratégicas e regras operacionais.")
	}

	if !strings.Contains(lower, "faq") || !strings.Contains(html, "FAQPage") {
		penalize("faq_missing", 10, "FAQ HTML/JSON-LD ausente.")
	} else {
		semanticOK := faqSemanticRe.MatchString(html) &&
			mainEntityRe.MatchString(html) &&
			acceptedAnsRe.MatchString(html)
		if !semanticOK {
			penalize("faq_html_semantic_missing", 10, "FAQ HTML sem marcação semântica completa (FAQPage/Question/Answer).")
		}
		pairs := len(faqRawPairRe.FindAllString(html, -1)) + len(acceptedAnsRe.FindAllString(html, -1))
		if pairs < 5 {
			penalize("faq_answers_missing", 12, "FAQ com perguntas sem respostas suficientes (mínimo 5 pares Q/A).")
		}
	}

	compactType := strings.Contains(html, `"@type":"Article"`)
	spacedType := strings.Contains(html, `"@type": "Article"`)
	if !compactType && !spacedType {
		penalize("article_schema_missing", 10, "Article JSON-LD ausente.")
	} else {
		complete := true
		for _, token := range []string{"headline", "description", "datePublished", "dateModified", "author", "publisher", "mainEntityOfPage"} {
			if !strings.Contains(html, token) {
				complete = false
				break
			}
		}
		if !complete {
			penalize("article_schema_incomplete", 10, "Article JSON-LD incompleto (faltam campos mandatórios).")
		}
	}

	if strings.Contains(html, "HowTo") && !stepsRe.MatchString(html) {
		penalize("howto_without_steps", 8, "HowTo schema sem passos reais.")
	}

	if !ctaSectionRe.MatchString(html) {
		penalize("cta_missing", 8, `Seção CTA obrigatória ausente (<section class="sowads-cta">).`)
	}

	if weak := weakH2Blocks(html); weak > 0 {
		penalize("geo_block_weak", min(12, weak*2), fmt.Sprintf("%d blocos H2 sem resumo autossuficiente (35-80 palavras no 1º parágrafo).", weak))
	}

	if !sourceYearRe.MatchString(html) && !yearSourceRe.MatchString(html) {
		penalize("sources_missing", 8, "Faltam referências verificáveis no texto (fonte + ano).")
	}

	if !experienceRe.MatchString(plain) {
		penalize("", 4, "Adicionar contexto operacional real (Experience) com escala numérica do cenário.")
	}

	openingText := strings.ToLower(textutil.StripHTML(html[:min(len(html), 600)]))
	for _, g := range genericOpenings {
		if strings.Contains(openingText, g) {
			penalize("generic_opening", 10, "Abertura genérica proibida.")
			break
		}
	}
	if m := pBlockRe.FindStringSubmatch(html); m != nil {
		firstParNorm := textutil.Normalize(textutil.StripHTML(m[1]))
		for _, banned := range bannedOpeningStarts {
			if strings.HasPrefix(firstParNorm, banned) {
				penalize("hard_opening_banned", 16, "Primeiro parágrafo inicia com padrão proibido ('Em 2026'/'Atualmente'/similares).")
				break
			}
		}
	}

	if temporalRe.MatchString(strings.ToLower(plain)) {
		penalize("temporal_incoherence", 12, "Ano incoerente com referência 2026.")
	}

	if strings.Contains(html, "```") || separatorRunRe.MatchString(html) {
		penalize("malformed_tail", 20, "Artefatos de saída detectados (``` ou separadores ====) no HTML.")
	}

	if hasRepetitiveTail(plain) {
		penalize("repetitive_tail", 18, "Trecho final com repetição excessiva de frases/padrões.")
	}

	normalizedPlain := textutil.Normalize(plain)
	for _, marker := range fixedBlockMarkers {
		if strings.Contains(normalizedPlain, marker) {
			penalize("fixed_blocks_detected", 14, "Bloco fixo/padronizado detectado; remover template rígido e adaptar a estrutura ao tema.")
			break
		}
	}

	if signatureRepeats > 1 {
		penalize("repeated_structure_pattern", 12, "Padrão estrutural de H2 repetido neste lote; variar a arquitetura do artigo para o tema.")
	}

	// First unsourced percentage only; one stat without provenance is the
	// same defect as five.
	for _, loc := range percentRe.FindAllStringIndex(html, -1) {
		window := strings.ToLower(html[max(0, loc[0]-120):min(len(html), loc[1]+120)])
		if !strings.Contains(window, "fonte") && !strings.Contains(window, "202") {
			penalize("stat_without_source", 5, "Percentual sem fonte próxima.")
			break
		}
	}

	hits := findKeywordHits(html, rec.PrimaryKeyword)
	if !hits.inFirstParagraph {
		penalize("", 6, "Keyword primária fora do 1o parágrafo.")
	}
	if !hits.inTwoH2s {
		penalize("", 5, "Keyword primária em menos de 2 H2.")
	}
	if !hits.inConclusion {
		penalize("", 3, "")
	}
	if !vocabAnchorRe.MatchString(html) {
		penalize("", 3, "")
	}
	if !vocabBusinessRe.MatchString(html) {
		penalize("", 3, "")
	}

	score = max(0, min(100, score))
	reasons = dedupeSorted(reasons)
	issues = dedupeSorted(issues)

	flag := score < e.cfg.Threshold
	for _, code := range reasons {
		if CriticalReasonCodes[code] {
			flag = true
			break
		}
	}

	guidance := ""
	if flag {
		top := issues
		if len(top) > 8 {
			top = top[:8]
		}
		guidance = "Reescrever apenas os pontos reprovados: " + strings.Join(top, "; ") +
			". Mantenha 2 blocos obrigatórios e sem links externos."
	}

	return types.AuditResult{
		ID:              rec.ID,
		Version:         rec.Version,
		Score:           score,
		ReasonCodes:     reasons,
		Issues:          issues,
		FlagRewrite:     flag,
		RewriteGuidance: guidance,
		Metrics: types.AuditMetrics{
			WordCount:          wordCount,
			KeywordDensityPct:  kwDensity,
			TableCount:         tableCount,
			UnorderedListCount: ulCount,
			OrderedListCount:   olCount,
			BlockquoteCount:    blockquoteCount,
			ChecklistItemCount: checklistItems,
			BoldAnchorCount:    dom.boldAnchorCount,
			StrongCount:        dom.strongCount,
			StrongRatioPct:     float64(int(boldRatio*10000)) / 100,
			VisualDeviceCount:  visualDeviceCount,
			VisualDevices:      usedDevices,
			SignatureRepeats:   signatureRepeats,
			LongParagraphs:     dom.longParagraphs,
		},
	}
}

// weakH2Blocks counts H2 sections whose opening paragraph is missing or
// outside the 35-80 word self-sufficient summary band. The FAQ heading is
// exempt.
func weakH2Blocks(html string) int {
	blocks := h2BlockRe.FindAllStringIndex(html, -1)
	weak := 0
	for i, loc := range blocks {
		label := strings.ToLower(textutil.StripHTML(html[loc[0]:loc[1]]))
		if strings.Contains(label, "perguntas frequentes") {
			continue
		}
		end := len(html)
		if i+1 < len(blocks) {
			end = blocks[i+1][0]
		}
		section := html[loc[1]:end]
		m := pBlockRe.FindStringSubmatch(section)
		if m == nil {
			weak++
			continue
		}
		words := textutil.CountWords(textutil.StripHTML(m[1]))
		if words < 35 || words > 80 {
			weak++
		}
	}
	return weak
}

func dedupeSorted(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
