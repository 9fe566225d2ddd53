// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

const (
	imageDimensions = "1200x630"
	imageStyle      = "Sowads premium marketing ops"

	imageNegativePrompt = "text overlays, letters, words, logo, watermark, brand name, UI screenshot, " +
		"street signs with readable text, license plates, store fronts with readable names, " +
		"vehicle grille emblems, car badges, dashboard numbers, odometers, speedometers, " +
		"financial statements with numbers, card numbers, invoice text, " +
		"billboards, newspaper headlines, subtitle text, caption text, " +
		"pure landscape, nature panorama without people, empty sky, empty road, " +
		"generic stock-photo handshake, legal document close-up, low resolution, blur, " +
		"noise artifacts, duplicated faces, deformed hands, extra fingers, cartoon style, " +
		"pixel art, clipping, oversaturation, purple palette dominance, dystopian mood"
)

var (
	fenceTokenRe    = regexp.MustCompile("(?i)```(?:html)?")
	metaMarkerRe    = regexp.MustCompile(`(?i)===\s*META INFORMATION\s*===`)
	htmlMarkerRe    = regexp.MustCompile(`(?i)===\s*HTML PACKAGE[^=]*===`)
	bodyRootBlockRe = regexp.MustCompile(`(?is)<div\b[^>]*class=["'][^"']*sowads-article-body[^"']*["'][^>]*>(.*?)</div>`)
	articleBlockRe  = regexp.MustCompile(`(?is)<article\b[^>]*>(.*?)</article>`)
	metaLabelRe     = regexp.MustCompile(`(?i)\b(?:Meta Title|Meta Description|Slug):\s*[^\n]+`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// ArticleImageContext extracts a plain-text excerpt of the article body
// for semantic grounding of the featured-image prompt. Wrapper tokens,
// scripts, and meta labels are removed before capping at maxChars.
func ArticleImageContext(contentPackage string, maxChars int) string {
	_, html, _ := sanitize.Split(contentPackage)
	raw := html
	if raw == "" {
		raw = contentPackage
	}

	raw = fenceTokenRe.ReplaceAllString(raw, " ")
	raw = metaMarkerRe.ReplaceAllString(raw, " ")
	raw = htmlMarkerRe.ReplaceAllString(raw, " ")

	if m := bodyRootBlockRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	} else if m := articleBlockRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	text := textutil.StripHTML(raw)
	text = metaLabelRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spaceRunRe.ReplaceAllString(text, " "))

	return clampRunes(text, maxChars)
}

// imageVerticalRules adapts the prompt to vertical-specific brand-safety
// constraints.
func imageVerticalRules(vertical string) string {
	lc := strings.ToLower(vertical)
	switch {
	case strings.Contains(lc, "automotivo"):
		return "Vertical-specific rule (Automotivo): avoid hero shots of branded cars. " +
			"If a vehicle appears, use neutral side/rear silhouettes only, with no visible grille badges, no logos, " +
			"no readable plate characters, no dashboard labels, and no identifiable brand design cues."
	case strings.Contains(lc, "financeiro"):
		return "Vertical-specific rule (Financeiro): avoid literal money symbolism, no banknote close-ups, " +
			"no credit card numbers, no account statements, and no readable compliance/legal text on screens or documents."
	default:
		return "Vertical-specific rule: prioritize executive operations context with human teams and non-readable " +
			"decision artifacts over literal product hero shots."
	}
}

// BuildImagePrompt assembles the featured-image generation prompt for
// one approved article.
func BuildImagePrompt(rec *types.ArticleRecord, excerpt string) string {
	secondary := "content operations, media intelligence, editorial workflow"
	if keys := splitKeys(rec.SecondaryKeys); len(keys) > 0 {
		if len(keys) > 4 {
			keys = keys[:4]
		}
		secondary = strings.Join(keys, ", ")
	}
	vertical := strings.TrimSpace(rec.Vertical)
	if vertical == "" {
		vertical = "Geral"
	}
	excerpt = strings.TrimSpace(spaceRunRe.ReplaceAllString(excerpt, " "))

	prompt := strings.TrimSpace(fmt.Sprintf(`
Create a premium featured image for a Portuguese business article from Sowads, with cinematic realism and strategic clarity.
The article title is "%s" and the primary concept is "%s".
Relevant secondary themes include: %s.
The target context is %s operations, %s, company size %s, with editorial angle "%s" and product focus "%s".

Narrative intent:
Represent high-performance consulting and AI-enabled operations as something concrete, modern, and executive, not abstract gimmicks.
Show a scene that suggests measurable business impact: analysts, planners, media strategists, non-readable performance signals, collaborative decision-making, and structured execution.
The visual must communicate trust, method, sophistication, governance, and scale with human oversight.
The image should feel like an enterprise consulting campaign visual, not a startup cliché.

Brand art direction (Sowads):
Use a restrained, premium palette inspired by Sowads: warm yellow accent (#F5BF00), graphite/dark charcoal neutrals (#4F4F52 / #2F2F33), balanced whites and soft grays.
Yellow should guide visual hierarchy in subtle strategic points (data highlights, edge light, interface markers), never overwhelming the frame.
Avoid purple-first grading and avoid visual drift to random trendy neon.
Typography is not allowed in final output; communicate through composition only.

Composition and camera:
Design for 1200x630 (landscape social share card).
Use a clear foreground-midground-background structure with depth.
Keep a strong focal point that leaves safe breathing areas for future crops.
Prefer 35mm–50mm cinematic framing, medium depth of field, natural lens behavior, no fisheye distortion.
Lighting should be natural plus controlled practical lights, with realistic reflections, mild contrast, and no crushed blacks.

Business realism constraints:
Depict tools and interfaces as believable but non-readable.
No fake logos, no readable brand names, no fake legal seals.
No visible letters or numbers in any part of the image.
No obvious stock-photo handshake posing.
No exaggerated sci-fi holograms.
No generic “robot face” as hero.
Prioritize people and operational context over product close-ups.
If screens appear, they must be out-of-focus or abstract shape-based charts with zero readable digits.
Do not generate landscape-only scenes (nature, skyline, roads, sunsets) without clear business context.
Do not use traffic signs, storefront signs, license plates, dashboard labels, or documents with readable text.
If people appear, they must look focused, credible, and professional, with accurate anatomy.
Hands must be correct and natural.
%s

Semantic alignment with article:
The visual metaphor must reflect this article excerpt:
"%s"
Translate the excerpt into an operational story frame: planning, prioritization, distributed execution, iterative optimization, and performance accountability.
Favor scenes that imply consulting intelligence + media execution + AI augmentation under human review.

Output quality bar:
Photorealistic, polished, editorial-grade, agency-quality image suitable for a premium consulting website hero/card.
High detail, clean geometry, coherent shadows, realistic materials, and confident executive atmosphere.
No text, no watermark, no logo.
`, strings.TrimSpace(rec.Theme), strings.TrimSpace(rec.PrimaryKeyword), secondary,
		vertical, orDefault(rec.BusinessModel, "B2B"), orDefault(rec.CompanySize, "Média Empresa"),
		orDefault(rec.ContentAngle, "Educacional"), orDefault(rec.ProductFocus, "Ambos os pilares"),
		imageVerticalRules(vertical), excerpt))

	if len(strings.Fields(prompt)) < 400 {
		prompt = strings.TrimSpace(prompt +
			" Extend the scene with richer environmental storytelling: add subtle details of operations rooms, " +
			"meeting artifacts, timeline boards, anonymous charts, and non-readable KPI structures. " +
			"Keep consistency with the same visual language, preserve realism, and reinforce the message of " +
			"consulting-led growth systems with AI support and rigorous human quality control.")
	}
	return prompt
}

// ImagePromptRows builds the downstream handoff rows for the approved
// articles, sorted by article ID.
func ImagePromptRows(approved map[string]*types.ArticleRecord) []types.ImagePromptRow {
	ids := make([]string, 0, len(approved))
	for id := range approved {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]types.ImagePromptRow, 0, len(ids))
	for _, id := range ids {
		rec := approved[id]
		excerpt := ArticleImageContext(rec.ContentPackage, 2200)
		rows = append(rows, types.ImagePromptRow{
			ID:             id,
			ArticleTitle:   rec.Theme,
			Slug:           rec.Slug,
			Dimensions:     imageDimensions,
			Style:          imageStyle,
			Prompt:         BuildImagePrompt(rec, excerpt),
			NegativePrompt: imageNegativePrompt,
		})
	}
	return rows
}

// splitKeys splits a pipe-joined keyword list, dropping blanks.
func splitKeys(keys string) []string {
	var out []string
	for _, k := range strings.Split(keys, "|") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
