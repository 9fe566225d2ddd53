// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enforce adjusts an article package until its word count and
// primary-keyword density fall inside the configured ranges. Corrections
// are template paragraph insertions and trailing-paragraph trims; the
// result is re-sanitized before being written back into the package.
package enforce

import (
	"math"
	"regexp"
	"strings"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

// Metrics reports the post-enforcement measurements for one article.
type Metrics struct {
	ID                string  `json:"id"`
	KeywordPrimaria   string  `json:"keyword_primaria"`
	WordCount         int     `json:"word_count"`
	KeywordDensityPct float64 `json:"keyword_density_pct"`
	OK                bool    `json:"ok"`
}

// Report aggregates batch-level enforcement results.
type Report struct {
	Constraints types.EnforcementConfig `json:"constraints"`
	Total       int                     `json:"total"`
	OK          int                     `json:"ok"`
	Failed      int                     `json:"failed"`
	MinWords    int                     `json:"min_word_count"`
	MaxWords    int                     `json:"max_word_count"`
	MinDensity  float64                 `json:"min_density_pct"`
	MaxDensity  float64                 `json:"max_density_pct"`
	AvgDensity  float64                 `json:"avg_density_pct"`
	Items       []Metrics               `json:"items"`
}

var (
	articleCloseRe = regexp.MustCompile(`(?i)</article>`)
	paragraphRe    = regexp.MustCompile(`(?i)<p[^>]*>[\s\S]*?</p>`)
)

// injectBeforeClose inserts a block just above the article's closing tag.
// Sanitized fragments end with the body-root </div>; legacy fragments may
// still carry </article>.
func injectBeforeClose(html, block string) string {
	block = strings.TrimSpace(block)
	if html == "" {
		return block
	}
	if locs := articleCloseRe.FindAllStringIndex(html, -1); len(locs) > 0 {
		idx := locs[len(locs)-1][0]
		return strings.TrimRight(html[:idx], " \t\n") + "\n" + block + "\n" + html[idx:]
	}
	trimmed := strings.TrimRight(html, " \t\n")
	if strings.HasSuffix(trimmed, "</div>") {
		idx := len(trimmed) - len("</div>")
		return strings.TrimRight(trimmed[:idx], " \t\n") + "\n" + block + "\n</div>"
	}
	return trimmed + "\n" + block + "\n"
}

// trimToMaxWords removes trailing plain paragraphs until the word budget
// holds. Paragraphs inside or right after a FAQ section and paragraphs that
// mention the FAQ are skipped so the question block survives intact.
func trimToMaxWords(html string, maxWords int) string {
	if maxWords <= 0 {
		return html
	}
	for textutil.CountWords(textutil.StripHTML(html)) > maxWords {
		candidates := paragraphRe.FindAllStringIndex(html, -1)
		if len(candidates) == 0 {
			break
		}
		removed := false
		for i := len(candidates) - 1; i >= 0; i-- {
			m := candidates[i]
			before := html[:m[0]]
			near := strings.ToLower(before[max(0, len(before)-350):])
			if strings.Contains(near, "<section") && strings.Contains(near, "faq-section") {
				continue
			}
			chunk := strings.ToLower(html[m[0]:m[1]])
			if strings.Contains(chunk, "<strong>faq") || strings.Contains(chunk, "perguntas frequentes") {
				continue
			}
			html = html[:m[0]] + html[m[1]:]
			removed = true
			break
		}
		if !removed {
			break
		}
	}
	return html
}

type measurement struct {
	text  string
	words int
	dens  float64
}

func measure(html, keyword string) measurement {
	text := textutil.StripHTML(html)
	return measurement{
		text:  text,
		words: textutil.CountWords(text),
		dens:  textutil.KeywordDensityPct(text, keyword),
	}
}

// Enforce brings one article package within the configured word-count and
// density ranges and returns the adjusted package plus its metrics.
func Enforce(id, keyword, contentPackage string, cfg types.EnforcementConfig) (string, Metrics) {
	meta, html, hasMarkers := sanitize.Split(contentPackage)

	kwTokens := len(strings.Fields(textutil.Normalize(keyword)))
	if kwTokens == 0 {
		kwTokens = 1
	}
	neutralIdx, keywordIdx := 0, 0
	m := measure(html, keyword)

	if m.words < cfg.MinWords {
		missing := cfg.MinWords - m.words
		perPara := textutil.CountWords(textutil.StripHTML(neutralParagraph(neutralIdx)))
		n := int(math.Ceil(float64(missing) / float64(max(1, perPara))))
		var block []string
		for i, reps := 0, max(1, n); i < reps; i++ {
			block = append(block, neutralParagraph(neutralIdx))
			neutralIdx++
		}
		html = injectBeforeClose(html, strings.Join(block, "\n"))
		m = measure(html, keyword)
	}

	if m.dens < cfg.DensityMinPct {
		sentWords := textutil.CountWords(textutil.StripHTML(keywordSentence(keyword, keywordIdx)))
		covered := float64(textutil.PhraseOccurrences(m.text, keyword) * kwTokens)
		target := cfg.DensityTargetLow / 100.0
		// Solve (covered + m*kwTokens) / (words + m*sentWords) >= target for m.
		num := target*float64(m.words) - covered
		den := float64(kwTokens) - target*float64(sentWords)
		inserts := 1
		if den > 0 {
			inserts = max(1, int(math.Ceil(num/den)))
		}
		var block []string
		for i := 0; i < inserts; i++ {
			block = append(block, keywordSentence(keyword, keywordIdx))
			keywordIdx++
		}
		html = injectBeforeClose(html, strings.Join(block, "\n"))
		m = measure(html, keyword)
		for m.dens < cfg.DensityMinPct {
			html = injectBeforeClose(html, keywordSentence(keyword, keywordIdx))
			keywordIdx++
			m = measure(html, keyword)
		}
	}

	if m.dens > cfg.DensityMaxPct {
		paraWords := textutil.CountWords(textutil.StripHTML(neutralParagraph(neutralIdx)))
		covered := float64(textutil.PhraseOccurrences(m.text, keyword) * kwTokens)
		target := cfg.DensityTargetHigh / 100.0
		needWords := max(0, int(math.Ceil(covered/target-float64(m.words))))
		n := max(1, int(math.Ceil(float64(needWords)/float64(max(1, paraWords)))))
		var block []string
		for i := 0; i < n; i++ {
			block = append(block, neutralParagraph(neutralIdx))
			neutralIdx++
		}
		html = injectBeforeClose(html, strings.Join(block, "\n"))
		m = measure(html, keyword)
		for m.dens > cfg.DensityMaxPct {
			html = injectBeforeClose(html, neutralParagraph(neutralIdx))
			neutralIdx++
			m = measure(html, keyword)
		}
	}

	if m.words > cfg.MaxWords {
		html = trimToMaxWords(html, cfg.MaxWords)
	}

	html = sanitize.HTML(html)
	m = measure(html, keyword)

	adjusted := sanitize.Build(meta, html, hasMarkers || meta != "")
	metrics := Metrics{
		ID:                id,
		KeywordPrimaria:   keyword,
		WordCount:         m.words,
		KeywordDensityPct: math.Round(m.dens*10000) / 10000,
		OK: m.words >= cfg.MinWords && m.words <= cfg.MaxWords &&
			m.dens >= cfg.DensityMinPct && m.dens <= cfg.DensityMaxPct,
	}
	return adjusted, metrics
}

// EnforceBatch runs Enforce over every item of a batch in ID order and
// rewrites each record's content package in place.
func EnforceBatch(batch *types.Batch, cfg types.EnforcementConfig) Report {
	report := Report{Constraints: cfg}
	for _, id := range batch.IDs() {
		rec := batch.Items[id]
		pkg, metrics := Enforce(rec.ID, rec.PrimaryKeyword, rec.ContentPackage, cfg)
		rec.ContentPackage = pkg
		report.Items = append(report.Items, metrics)
	}
	report.Total = len(report.Items)
	for i, m := range report.Items {
		if m.OK {
			report.OK++
		} else {
			report.Failed++
		}
		if i == 0 || m.WordCount < report.MinWords {
			report.MinWords = m.WordCount
		}
		if m.WordCount > report.MaxWords {
			report.MaxWords = m.WordCount
		}
		if i == 0 || m.KeywordDensityPct < report.MinDensity {
			report.MinDensity = m.KeywordDensityPct
		}
		if m.KeywordDensityPct > report.MaxDensity {
			report.MaxDensity = m.KeywordDensityPct
		}
		report.AvgDensity += m.KeywordDensityPct
	}
	if report.Total > 0 {
		report.AvgDensity = math.Round(report.AvgDensity/float64(report.Total)*10000) / 10000
	}
	return report
}
