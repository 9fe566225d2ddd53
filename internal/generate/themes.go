// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"strings"
	"time"

	"github.com/sowads/content-engine/pkg/types"
)

// themePayload is the theme object shape the model is asked to emit.
// Secondary keywords arrive pipe-joined.
type themePayload struct {
	Theme             string `json:"tema_principal"`
	PrimaryKeyword    string `json:"keyword_primaria"`
	SecondaryKeywords string `json:"keywords_secundarias"`
	Funnel            string `json:"funil"`
	SearchVolume      string `json:"busca"`
	AdTitle           string `json:"titulo_anuncio"`
	Notes             string `json:"notes"`
	ContentAngle      string `json:"angulo_conteudo"`
}

// fallbackThemeCatalog seeds theme batches when the provider is
// unavailable or the pipeline runs offline. Entries are cycled to the
// requested count.
var fallbackThemeCatalog = []themePayload{
	{
		Theme:             "Mapa de intenção para franquias multiunidade",
		PrimaryKeyword:    "seo local para franquias",
		SecondaryKeywords: "cluster geografico|conteudo por unidade|visibilidade local|crescimento organico",
		Funnel:            "TOFU",
		SearchVolume:      "Alta",
		AdTitle:           "SEO local para franquias em escala",
		ContentAngle:      "Guia Passo-a-Passo",
	},
	{
		Theme:             "Operação de pauta com IA e revisão editorial",
		PrimaryKeyword:    "pipeline editorial com ia",
		SecondaryKeywords: "qa editorial|governanca de conteudo|cadencia semanal|padrao de marca",
		Funnel:            "MOFU",
		SearchVolume:      "Média",
		AdTitle:           "Pipeline editorial com IA sem perda de qualidade",
		ContentAngle:      "Educacional",
	},
	{
		Theme:             "Integração entre mídia paga e conteúdo orgânico",
		PrimaryKeyword:    "sinergia entre seo e meta ads",
		SecondaryKeywords: "otimizacao de cac|aprendizado de campanha|criativos orientados a dados|authority loop",
		Funnel:            "MOFU",
		SearchVolume:      "Alta",
		AdTitle:           "SEO + Meta Ads com inteligência de dados",
		ContentAngle:      "Comparativo",
	},
	{
		Theme:             "Escala de produção para times enxutos",
		PrimaryKeyword:    "conteudo em escala com controle de qualidade",
		SecondaryKeywords: "playbook editorial|sprint de conteudo|priorizacao por impacto|eficiencia operacional",
		Funnel:            "BOFU",
		SearchVolume:      "Média",
		AdTitle:           "Escalar conteúdo sem perder consistência",
		ContentAngle:      "Erros Comuns",
	},
	{
		Theme:             "Métricas de conteúdo para decisões de budget",
		PrimaryKeyword:    "indicadores de performance de conteudo",
		SecondaryKeywords: "ctr organico|roas assistido|pipeline comercial|receita incremental",
		Funnel:            "BOFU",
		SearchVolume:      "Baixa",
		AdTitle:           "Quais métricas realmente importam em 2026",
		ContentAngle:      "Dado e Insight",
	},
	{
		Theme:             "BI editorial para operações B2B complexas",
		PrimaryKeyword:    "bi para marketing de conteudo b2b",
		SecondaryKeywords: "painel executivo|mql por cluster|pipeline previsivel|analise de coorte",
		Funnel:            "MOFU",
		SearchVolume:      "Média",
		AdTitle:           "BI editorial para times B2B",
		ContentAngle:      "Tendência de Mercado",
	},
}

// fallbackThemes returns n catalog entries, cycling when n exceeds the
// catalog size.
func fallbackThemes(n int) []themePayload {
	items := make([]themePayload, 0, n)
	for i := 0; i < n; i++ {
		entry := fallbackThemeCatalog[i%len(fallbackThemeCatalog)]
		entry.Notes = "fallback local"
		items = append(items, entry)
	}
	return items
}

// Themes produces the theme batch. In test mode, or when the provider
// fails terminally, the fallback catalog fills the batch instead. The
// result always has exactly cfg.ThemeCount items.
func (g *Generator) Themes(ctx context.Context) []types.ThemeItem {
	n := g.cfg.ThemeCount
	if n <= 0 {
		n = 5
	}

	var data []themePayload
	if g.cfg.TestMode {
		data = fallbackThemes(n)
	} else {
		data = g.themesFromProvider(ctx, n)
	}

	ts := time.Now().UTC()
	rows := make([]types.ThemeItem, 0, n)
	for i := 0; i < n; i++ {
		d := fallbackThemeCatalog[i%len(fallbackThemeCatalog)]
		if i < len(data) {
			d = data[i]
		}
		rows = append(rows, g.themeRow(d, ts))
	}
	return rows
}

// themesFromProvider asks the model for a theme batch and parses the
// JSON array, falling back to the catalog on any failure.
func (g *Generator) themesFromProvider(ctx context.Context, n int) []themePayload {
	ctx = WithMeta(ctx, CallMeta{
		Phase:   "themes",
		Agent:   "agent_01_theme_generator",
		BatchID: g.batchID,
	})
	text, err := g.provider.Generate(ctx, BuildThemePrompt(g.cfg, n), 0.5)
	if err != nil {
		g.logger.Warn("theme generation failed, using fallback catalog", "error", err)
		return fallbackThemes(n)
	}
	var data []themePayload
	if err := ExtractJSON(text, &data); err != nil || len(data) == 0 {
		g.logger.Warn("theme output unparseable, using fallback catalog", "error", err)
		return fallbackThemes(n)
	}
	return data
}

// themeRow fills a ThemeItem from a payload plus the audience fields of
// the batch configuration.
func (g *Generator) themeRow(d themePayload, ts time.Time) types.ThemeItem {
	row := types.ThemeItem{
		ID:             NewContentID(),
		Timestamp:      ts,
		Theme:          d.Theme,
		PrimaryKeyword: d.PrimaryKeyword,
		CompanySize:    g.cfg.CompanySize,
		BusinessModel:  g.cfg.BusinessModel,
		Vertical:       g.cfg.Vertical,
		ProductFocus:   g.cfg.ProductFocus,
		ContentAngle:   d.ContentAngle,
		InternalURL:    g.cfg.InternalURL,
		Funnel:         d.Funnel,
		SearchVolume:   d.SearchVolume,
		AdTitle:        d.AdTitle,
		Notes:          d.Notes,
	}
	if row.Theme == "" {
		row.Theme = "Tema sem nome"
	}
	if row.PrimaryKeyword == "" {
		row.PrimaryKeyword = "keyword principal"
	}
	if row.ContentAngle == "" {
		row.ContentAngle = "Educacional"
	}
	if row.Funnel == "" {
		row.Funnel = "TOFU"
	}
	if row.SearchVolume == "" {
		row.SearchVolume = "Média"
	}
	if row.AdTitle == "" {
		row.AdTitle = row.Theme
	}
	for _, k := range strings.Split(d.SecondaryKeywords, "|") {
		if k = strings.TrimSpace(k); k != "" {
			row.SecondaryKeywords = append(row.SecondaryKeywords, k)
		}
	}
	return row
}
