// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"log/slog"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

// Generator produces theme batches and article records for one batch.
// In test mode every provider call is replaced by the deterministic
// offline generator, and the offline generator also backstops terminal
// provider failures so a batch always completes.
type Generator struct {
	provider Provider
	cfg      types.PipelineConfig
	batchID  string
	prompts  PromptSet
	logger   *slog.Logger
}

// NewGenerator wires a generator for one batch run.
func NewGenerator(provider Provider, cfg types.PipelineConfig, batchID string, prompts PromptSet, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		cfg:      cfg,
		batchID:  batchID,
		prompts:  prompts,
		logger:   logger,
	}
}

// GenerateBatch produces or rewrites article records for the given
// themes. Articles listed in rewriteMap are regenerated at version+1
// with their guidance injected; articles already in current and not in
// rewriteMap pass through untouched.
func (g *Generator) GenerateBatch(ctx context.Context, themes []types.ThemeItem, current map[string]*types.ArticleRecord, rewriteMap map[string]string) map[string]*types.ArticleRecord {
	out := make(map[string]*types.ArticleRecord, len(themes))
	for id, rec := range current {
		out[id] = rec
	}

	for _, theme := range themes {
		itemID := theme.ID
		if guidance, ok := rewriteMap[itemID]; ok {
			prev, exists := out[itemID]
			version := 2
			if exists {
				version = prev.Version + 1
			}
			out[itemID] = g.generateArticle(ctx, theme, itemID, version, guidance, out)
			g.logger.Info("article rewritten", "id", itemID, "version", version)
		} else if _, exists := out[itemID]; !exists {
			out[itemID] = g.generateArticle(ctx, theme, itemID, 1, "", out)
			g.logger.Info("article generated", "id", itemID, "version", 1)
		}
	}
	return out
}

// generateArticle produces one article record. The variety selectors and
// diversity constraints feed the prompt; the critic pass refines the
// draft; any terminal failure falls back to the offline generator.
func (g *Generator) generateArticle(ctx context.Context, theme types.ThemeItem, itemID string, version int, guidance string, current map[string]*types.ArticleRecord) *types.ArticleRecord {
	if g.cfg.TestMode {
		return g.fallbackArticle(theme, itemID, version)
	}

	profile := pickStructureProfile(g.batchID, itemID, version)
	frame := pickNarrativeFrame(g.batchID, itemID, version)
	visual := pickVisualMix(g.batchID, itemID, version)
	diversity := CollectDiversity(current, itemID)

	prompt := g.prompts.buildArticlePrompt(articlePromptInput{
		Theme:           theme,
		BatchID:         g.batchID,
		ItemID:          itemID,
		Version:         version,
		RewriteGuidance: guidance,
		Profile:         profile,
		Frame:           frame,
		Visual:          visual,
		Diversity:       diversity,
		MinWords:        g.cfg.Enforcement.MinWords,
		MaxWords:        g.cfg.Enforcement.MaxWords,
	})

	callCtx := WithMeta(ctx, CallMeta{
		Phase:   "articles",
		Agent:   "agent_02_article_generator",
		BatchID: g.batchID,
		ID:      itemID,
		Version: version,
	})
	raw, err := g.provider.Generate(callCtx, prompt, 0.35)
	if err != nil {
		g.logger.Warn("article generation failed, using offline fallback", "id", itemID, "version", version, "error", err)
		return g.fallbackArticle(theme, itemID, version)
	}

	raw = g.refineWithCritic(ctx, raw, itemID, version, frame, visual, diversity)

	rec := g.buildRecord(theme, itemID, version, raw, types.StatusPendingQA)
	if rec.ContentPackage == "" {
		g.logger.Warn("article output missing required blocks, using offline fallback", "id", itemID, "version", version)
		return g.fallbackArticle(theme, itemID, version)
	}
	return rec
}

// refineWithCritic runs the second-pass editorial rewrite. The refined
// text is accepted only when both canonical markers survive; otherwise
// the draft stands.
func (g *Generator) refineWithCritic(ctx context.Context, draft, itemID string, version int, frame narrativeFrame, visual visualMix, diversity DiversityConstraints) string {
	callCtx := WithMeta(ctx, CallMeta{
		Phase:   "articles_refine",
		Agent:   "agent_02_article_critic_refiner",
		BatchID: g.batchID,
		ID:      itemID,
		Version: version,
	})
	refined, err := g.provider.Generate(callCtx, buildCriticPrompt(draft, frame, visual, diversity), 0.45)
	if err != nil {
		g.logger.Warn("critic refine failed, keeping draft", "id", itemID, "version", version, "error", err)
		return draft
	}
	if strings.Contains(refined, sanitize.MetaMarker) && strings.Contains(refined, sanitize.HTMLMarker) {
		return refined
	}
	return draft
}

var (
	h1TextRe    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	pTextRe     = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	metaTitleRe = regexp.MustCompile(`(?i)^meta title`)
	metaDescRe  = regexp.MustCompile(`(?i)^meta description`)
)

// extractBlocks pulls the meta title and description out of the raw
// model output and rebuilds the canonical two-block package. Missing
// meta fields are recovered from the body: the first H1 (or first meta
// line) for the title, the first paragraph for the description.
func extractBlocks(raw string) (metaTitle, metaDesc, pkg string) {
	meta, html, _ := sanitize.Split(raw)

	for _, line := range strings.Split(meta, "\n") {
		switch {
		case metaTitleRe.MatchString(line):
			metaTitle = valueAfterColon(line)
		case metaDescRe.MatchString(line):
			metaDesc = valueAfterColon(line)
		}
	}

	metaLines := strings.Split(meta, "\n")
	if metaTitle == "" {
		if m := h1TextRe.FindStringSubmatch(html); m != nil {
			metaTitle = strings.TrimSpace(clampRunes(textutil.StripHTML(m[1]), 60))
		}
		if metaTitle == "" && len(metaLines) > 0 {
			metaTitle = strings.TrimSpace(clampRunes(strings.TrimSpace(metaLines[0]), 60))
		}
	}
	if metaDesc == "" {
		if m := pTextRe.FindStringSubmatch(html); m != nil {
			metaDesc = strings.TrimSpace(clampRunes(textutil.StripHTML(m[1]), 155))
		}
		if metaDesc == "" && len(metaLines) > 1 {
			metaDesc = strings.TrimSpace(clampRunes(strings.Join(metaLines[1:], " "), 155))
		}
	}

	cleanMeta := fmt.Sprintf("Meta Title: %s\nMeta Description: %s", metaTitle, metaDesc)
	return metaTitle, metaDesc, sanitize.Build(cleanMeta, html, true)
}

// valueAfterColon returns the trimmed text after the last ":" label.
func valueAfterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return strings.TrimSpace(line)
}

// clampRunes truncates at a rune boundary.
func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// buildRecord wires the extracted package and the theme audience fields
// into an ArticleRecord.
func (g *Generator) buildRecord(theme types.ThemeItem, itemID string, version int, raw string, status types.ArticleStatus) *types.ArticleRecord {
	metaTitle, metaDesc, pkg := extractBlocks(raw)
	slugBase := metaTitle
	if slugBase == "" {
		slugBase = theme.Theme
	}
	slug := textutil.Slugify(slugBase)
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return &types.ArticleRecord{
		BatchID:         g.batchID,
		ID:              itemID,
		Version:         version,
		Theme:           theme.Theme,
		PrimaryKeyword:  theme.PrimaryKeyword,
		SecondaryKeys:   strings.Join(theme.SecondaryKeywords, "|"),
		CompanySize:     theme.CompanySize,
		BusinessModel:   theme.BusinessModel,
		Vertical:        theme.Vertical,
		ProductFocus:    theme.ProductFocus,
		ContentAngle:    theme.ContentAngle,
		InternalURL:     theme.InternalURL,
		Slug:            slug,
		MetaTitle:       metaTitle,
		MetaDescription: metaDesc,
		ContentPackage:  pkg,
		Status:          status,
	}
}
