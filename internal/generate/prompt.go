// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sowads/content-engine/pkg/types"
)

// defaultSystemMD is the editorial system instruction prepended to every
// article prompt. A system.md file in the prompt directory overrides it.
const defaultSystemMD = `Você é o redator-chefe de conteúdo SEO/GEO da Sowads.
Escreve em português do Brasil, com linguagem executiva clara e densidade sem prolixidade.
Todo artigo é um pacote de conteúdo com dois blocos: META INFORMATION e HTML PACKAGE.
O HTML é pronto para WordPress: sem H1 no corpo, sem links externos, sem CSS inline.
FAQ com microdados schema.org, JSON-LD de Article completo, CTA da Sowads e fontes citadas em texto simples.`

// defaultUserMD is the per-article briefing template. Placeholders are
// substituted from the theme before the prompt is assembled. A user.md
// file in the prompt directory overrides it.
const defaultUserMD = `[BRIEFING DO ARTIGO]
Tema principal: {{TEMA_PRINCIPAL}}
Keyword primária: {{KEYWORD_PRIMARIA}}
Keywords secundárias: {{KEYWORDS_SECUNDARIAS}}
Porte da empresa alvo: {{PORTE_EMPRESA_ALVO}}
Modelo de negócio alvo: {{MODELO_NEGOCIO_ALVO}}
Vertical alvo: {{VERTICAL_ALVO}}
Produto em foco: {{PRODUTO_FOCO}}
Ângulo de conteúdo: {{ANGULO_CONTEUDO}}
URL interna para citar: {{URL_INTERNA}}

Escreva o pacote completo do artigo seguindo o formato obrigatório de saída.`

// PromptSet holds the system and user prompt sources for article
// generation.
type PromptSet struct {
	SystemMD string
	UserMD   string
}

// DefaultPromptSet returns the embedded prompt sources.
func DefaultPromptSet() PromptSet {
	return PromptSet{SystemMD: defaultSystemMD, UserMD: defaultUserMD}
}

// LoadPromptSet reads system.md and user.md from dir, keeping the
// embedded defaults for any file that does not exist.
func LoadPromptSet(dir string) (PromptSet, error) {
	set := DefaultPromptSet()
	if dir == "" {
		return set, nil
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"system.md", &set.SystemMD},
		{"user.md", &set.UserMD},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return set, fmt.Errorf("reading prompt %s: %w", f.name, err)
		}
		*f.dst = string(data)
	}
	return set, nil
}

// applyUserTemplate substitutes theme fields into the user briefing.
func (ps PromptSet) applyUserTemplate(theme types.ThemeItem) string {
	repl := strings.NewReplacer(
		"{{TEMA_PRINCIPAL}}", theme.Theme,
		"{{KEYWORD_PRIMARIA}}", theme.PrimaryKeyword,
		"{{KEYWORDS_SECUNDARIAS}}", strings.Join(theme.SecondaryKeywords, "|"),
		"{{PORTE_EMPRESA_ALVO}}", theme.CompanySize,
		"{{MODELO_NEGOCIO_ALVO}}", theme.BusinessModel,
		"{{VERTICAL_ALVO}}", theme.Vertical,
		"{{PRODUTO_FOCO}}", theme.ProductFocus,
		"{{ANGULO_CONTEUDO}}", theme.ContentAngle,
		"{{URL_INTERNA}}", theme.InternalURL,
	)
	return repl.Replace(ps.UserMD)
}

// BuildThemePrompt assembles the theme-batch prompt for n themes.
func BuildThemePrompt(cfg types.PipelineConfig, n int) string {
	return strings.TrimSpace(fmt.Sprintf(`
Você é o Agent 01 (Theme Generator).
Responda SOMENTE um JSON array de %d objetos.
Cada objeto deve conter:
- tema_principal
- keyword_primaria
- keywords_secundarias (separadas por |)
- funil (TOFU|MOFU|BOFU)
- busca (Alta|Média|Baixa)
- titulo_anuncio
- notes
- angulo_conteudo (Educacional|Comparativo|Guia Passo-a-Passo|Erros Comuns|Tendência de Mercado|Dado e Insight)

Contexto:
- nicho: %s
- vertical: %s
- porte: %s
- modelo: %s
- produto foco: %s

Regras:
- não escreva artigo
- sem números de busca
- evite temas repetidos
`, n, cfg.Niche, cfg.Vertical, cfg.CompanySize, cfg.BusinessModel, cfg.ProductFocus))
}

// articlePromptInput carries everything the article prompt needs.
type articlePromptInput struct {
	Theme           types.ThemeItem
	BatchID         string
	ItemID          string
	Version         int
	RewriteGuidance string
	Profile         structureProfile
	Frame           narrativeFrame
	Visual          visualMix
	Diversity       DiversityConstraints
	MinWords        int
	MaxWords        int
}

// BuildArticlePrompt assembles the full generation prompt: system block,
// batch constraints, output format, and the per-article briefing wrapper.
func (ps PromptSet) buildArticlePrompt(in articlePromptInput) string {
	var wrapper strings.Builder
	fmt.Fprintf(&wrapper, "ID do Artigo: %s\n", in.ItemID)
	fmt.Fprintf(&wrapper, "Batch ID: %s\n", in.BatchID)
	fmt.Fprintf(&wrapper, "Version: %d\n", in.Version)
	fmt.Fprintf(&wrapper, "Perfil estrutural selecionado: %s\n", in.Profile.Name)
	fmt.Fprintf(&wrapper, "Frame narrativo selecionado: %s (%s)\n", in.Frame.Name, in.Frame.Rule)
	fmt.Fprintf(&wrapper, "Pacote visual selecionado: %s (%s)\n", in.Visual.Name, strings.Join(in.Visual.Items, ", "))
	if in.RewriteGuidance != "" {
		fmt.Fprintf(&wrapper, "Rewrite guidance: %s\n", in.RewriteGuidance)
	}
	if len(in.Diversity.AvoidOpenings) > 0 {
		fmt.Fprintf(&wrapper, "Aberturas proibidas neste lote: %s\n", strings.Join(in.Diversity.AvoidOpenings, " || "))
	}
	if len(in.Diversity.AvoidH2Signatures) > 0 {
		fmt.Fprintf(&wrapper, "Assinaturas H2 a evitar neste lote: %s\n", strings.Join(in.Diversity.AvoidH2Signatures, " || "))
	}
	wrapper.WriteString("\n")
	wrapper.WriteString(ps.applyUserTemplate(in.Theme))

	var b strings.Builder
	b.WriteString("[SYSTEM - OBEDECER INTEGRALMENTE]\n")
	b.WriteString(ps.SystemMD)
	b.WriteString("\n\n[CONSTRAINTS OPERACIONAIS DO LOTE]\n")
	fmt.Fprintf(&b, "- Word count obrigatório entre %d e %d.\n", in.MinWords, in.MaxWords)
	b.WriteString("- Não inserir <h1> dentro do HTML package; o H1 é o título nativo do WordPress.\n")
	b.WriteString("- O conteúdo no HTML package deve iniciar com introdução e depois H2/H3 (sem H1 no corpo).\n")
	fmt.Fprintf(&b, "- Perfil estrutural obrigatório deste artigo: %s (%s).\n", in.Profile.Name, in.Profile.Rule)
	b.WriteString("- Estrutura é princípio, não molde fixo: adaptar seções ao tema sem copiar blocos/títulos padronizados.\n")
	b.WriteString("- Não repetir blocos fixos, nomes padronizados ou ordem idêntica de seções entre temas diferentes.\n")
	b.WriteString("- Proibido usar headings literais: 'Painel tático', 'Resumo executivo em bullet points', 'Checklist de execução (30 dias)', 'Prioridade 1', 'Prioridade 2', 'Prioridade 3'.\n")
	b.WriteString("- PROIBIDO começar o primeiro parágrafo com: 'Em 2026', 'Atualmente', 'Nos dias de hoje', 'No cenário atual' ou equivalentes.\n")
	b.WriteString("- Abertura obrigatória em 2 parágrafos curtos: contexto de decisão + impacto prático no negócio.\n")
	b.WriteString("- Introdução deve trazer gancho forte e específico; evitar frases vagas e clichês de mercado.\n")
	b.WriteString("- Usar 2 a 3 recursos visuais por artigo, escolhidos conforme o assunto: lista numerada, bullets, mini-checklist, tabela, blockquote, frases-âncora em negrito.\n")
	b.WriteString("- Não usar todos os recursos no mesmo artigo; escolha apenas os que aumentam clareza do tema.\n")
	b.WriteString("- O primeiro recurso visual estrutural (lista/tabela/blockquote/checklist) deve entrar após o 2º, 3º ou 4º parágrafo.\n")
	b.WriteString("- Evitar bloco visual de apêndice no fim do artigo.\n")
	b.WriteString("- Tabela com células curtas e objetivas (até 10 palavras por célula; sem reticências, sem texto truncado, sem '...').\n")
	b.WriteString("- Parágrafos curtos: 30-65 palavras por parágrafo (máximo absoluto 85 palavras).\n")
	b.WriteString("- Fluidez, clareza, elegância executiva e densidade sem prolixidade são prioritárias.\n")
	b.WriteString("- Linguagem executiva clara: técnica sem soar acadêmica, pesada ou genérica.\n")
	b.WriteString("- Incluir seção CTA obrigatória: <section class=\"sowads-cta\">...</section>.\n")
	b.WriteString("- FAQ obrigatória com 5 a 8 perguntas e respostas completas (2 a 4 frases cada resposta).\n")
	b.WriteString("- FAQ HTML deve usar itemprop (Question/Answer) e também JSON-LD FAQPage coerente.\n")
	b.WriteString("- Article JSON-LD obrigatório e completo (headline, description, author, publisher, datePublished, dateModified, mainEntityOfPage).\n")
	b.WriteString("- Incluir 1 a 3 referências verificáveis citadas em texto simples com fonte + ano (sem hyperlink externo).\n")
	b.WriteString("- Cada H2 deve começar com um parágrafo-resumo autossuficiente (40-60 palavras) para GEO.\n")
	b.WriteString("- Incluir mini diagnóstico executivo no formato: sintoma -> causa -> impacto.\n")
	b.WriteString("- Incluir pelo menos 1 cenário operacional com escala numérica realista (ex.: unidades, páginas, budget, catálogo), sem prometer resultados.\n")
	b.WriteString("- Incluir obrigatoriamente 1 bloco com subtítulo explícito de exemplo aplicado ('Exemplo prático' ou 'Cenário aplicado').\n")
	b.WriteString("- Incluir seção de erros críticos a evitar com 4-6 bullet points específicos.\n")
	b.WriteString("- Aplicar negrito com inteligência: termos técnicos na primeira menção, frases de decisão estratégica e regras operacionais; evitar excesso de negrito.\n")
	b.WriteString("- Não inserir CSS inline, comentários HTML, placeholders ou texto técnico fora do conteúdo final.\n")
	b.WriteString("\n\n[FORMATO OBRIGATORIO DE SAIDA]\n")
	b.WriteString("Retorne EXATAMENTE neste formato:\n")
	b.WriteString("=== META INFORMATION ===\n")
	b.WriteString("Meta Title: ...\nMeta Description: ...\n\n")
	b.WriteString("=== HTML PACKAGE — WORDPRESS READY ===\n")
	b.WriteString("<div class=\"sowads-article-body\">...</div>\n")
	b.WriteString("Sem texto fora desses blocos. Sem links externos.\n\n")
	b.WriteString("[USER]\n")
	b.WriteString(wrapper.String())
	return b.String()
}

// buildCriticPrompt assembles the refine-pass prompt wrapping the draft.
func buildCriticPrompt(draft string, frame narrativeFrame, visual visualMix, div DiversityConstraints) string {
	var b strings.Builder
	b.WriteString("Você é um editor crítico de conteúdo SEO/GEO da Sowads.\n")
	b.WriteString("Reescreva o artigo abaixo mantendo o mesmo tema e respeitando OBRIGATORIAMENTE:\n")
	b.WriteString("- Não começar o primeiro parágrafo com 'Em 2026' nem variações equivalentes.\n")
	b.WriteString("- Evitar estrutura rígida repetida; variar abertura, ordem de seções e ritmo.\n")
	b.WriteString("- Garantir 2 a 3 elementos visuais naturais no miolo (após 2º ao 4º parágrafo).\n")
	b.WriteString("- Tabelas simples: células curtas (até 10 palavras), sem reticências, sem texto truncado.\n")
	b.WriteString("- Parágrafos curtos e fluídos (aprox. 30-65 palavras).\n")
	b.WriteString("- Manter 2 blocos obrigatórios do pacote: META INFORMATION e HTML PACKAGE.\n")
	b.WriteString("- Sem H1 no corpo. Sem links externos. FAQ com respostas completas.\n\n")
	fmt.Fprintf(&b, "Frame narrativo alvo: %s\n", frame.Name)
	fmt.Fprintf(&b, "Pacote visual alvo: %s -> %s\n", visual.Name, strings.Join(visual.Items, ", "))
	if len(div.AvoidOpenings) > 0 {
		fmt.Fprintf(&b, "Aberturas proibidas deste lote: %s\n", strings.Join(div.AvoidOpenings, " || "))
	}
	if len(div.AvoidH2Signatures) > 0 {
		fmt.Fprintf(&b, "Assinaturas de H2 proibidas deste lote: %s\n", strings.Join(div.AvoidH2Signatures, " || "))
	}
	b.WriteString("\n[ARTIGO DRAFT PARA REFINAR]\n")
	b.WriteString(draft)
	return b.String()
}
