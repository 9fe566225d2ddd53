// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize normalizes raw generator output into the canonical
// two-block content package: a meta block and a WordPress-ready HTML
// fragment. Every transform is best-effort and deterministic; malformed
// input degrades to empty strings, never to an error.
//
// The HTML pipeline is regex-driven on purpose. Generator output is
// quasi-HTML, and the downstream contract is byte-level idempotence of
// the documented rule set, which a tree parser's re-serialization would
// break.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sowads/content-engine/internal/textutil"
)

const (
	// MetaMarker and HTMLMarker are the literal section markers of the
	// canonical package wire format.
	MetaMarker = "=== META INFORMATION ==="
	HTMLMarker = "=== HTML PACKAGE — WORDPRESS READY ==="

	// BodyRootClass is the class of the normalized article body root.
	BodyRootClass = "sowads-article-body"

	maxParagraphWords    = 70
	targetParagraphWords = 46
	dupTailMinChars      = 40
	dupTailMaxPasses     = 12
	maxFAQPairs          = 8
)

var (
	separatorLineRe = regexp.MustCompile("^[=\\-`\"'“”]{8,}$")

	leadingFenceRe  = regexp.MustCompile("(?i)^\\s*```(?:html)?\\s*")
	trailingFenceRe = regexp.MustCompile("\\s*```\\s*$")
	trailingSepRe   = regexp.MustCompile(`\n\s*={8,}[\s\S]*$`)
	trailingQuoteRe = regexp.MustCompile("\\n\\s*[\"'`“”]+\\s*$")

	readabilityPackRe = regexp.MustCompile(`(?i)<section[^>]*id=["']sowads-readability-pack["'][^>]*>[\s\S]*?</section>`)

	articleOpenRe  = regexp.MustCompile(`(?i)<article\b[^>]*>`)
	articleCloseRe = regexp.MustCompile(`(?i)</article>`)
	articleTailRe  = regexp.MustCompile(`(?i)</article>\s*$`)

	scriptParagraphRe = regexp.MustCompile(`(?i)<p[^>]*>\s*(<script[^>]*>[\s\S]*?</script>)\s*</p>`)

	h1OpenRe          = regexp.MustCompile(`(?i)<h1([^>]*)>`)
	h1CloseRe         = regexp.MustCompile(`(?i)</h1>`)
	headlinePropRe    = regexp.MustCompile(`(?i)\s*itemprop\s*=\s*['"]headline['"]`)
	paragraphBlockRe  = regexp.MustCompile(`(?i)<p\b[^>]*>[\s\S]*?</p>`)
	paragraphSplitRe  = regexp.MustCompile(`(?i)<p([^>]*)>([\s\S]*?)</p>`)
	blockChildRe      = regexp.MustCompile(`(?i)<(script|style|img|iframe|table|ul|ol|blockquote)\b`)
	wordTokenRe       = regexp.MustCompile(`[\wÀ-ÿ-]+`)
	faqSectionRe      = regexp.MustCompile(`(?i)(<section[^>]*class=["'][^"']*faq-section[^"']*["'][^>]*>)([\s\S]*?)(</section>)`)
	faqTitleRe        = regexp.MustCompile(`(?i)<h2[^>]*>([\s\S]*?)</h2>`)
	faqSemanticPairRe = regexp.MustCompile(`(?i)itemprop=['"]name['"][^>]*>([\s\S]*?)</h3>[\s\S]*?itemprop=['"]text['"][^>]*>([\s\S]*?)</p>`)
	faqRawPairRe      = regexp.MustCompile(`(?i)<h3[^>]*>([\s\S]*?)</h3>[\s\S]*?<p[^>]*>([\s\S]*?)</p>`)
)

// NormalizeNewlines folds CRLF/CR to LF and drops a leading BOM.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimPrefix(text, "\ufeff")
}

// Meta sanitizes the meta block: trims lines, drops empties, code fences
// and pure separator lines.
func Meta(meta string) string {
	meta = NormalizeNewlines(meta)
	var cleaned []string
	for _, raw := range strings.Split(meta, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "```") {
			continue
		}
		if separatorLineRe.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, strings.TrimRight(raw, " \t"))
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func removeTrailingNoise(text string) string {
	text = NormalizeNewlines(text)
	text = leadingFenceRe.ReplaceAllString(text, "")
	text = trailingFenceRe.ReplaceAllString(text, "")
	text = trailingSepRe.ReplaceAllString(text, "")
	text = trailingQuoteRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func clipToArticle(html string) string {
	if html == "" {
		return ""
	}
	html = NormalizeNewlines(html)
	if loc := articleOpenRe.FindStringIndex(html); loc != nil {
		html = html[loc[0]:]
		if end := articleCloseRe.FindStringIndex(html); end != nil {
			html = html[:end[1]]
		}
	}
	return html
}

// unwrapArticleRoot replaces a legacy <article> root with the body-root
// div so the fragment never nests an <article> inside the host template.
func unwrapArticleRoot(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	open := articleOpenRe.FindStringIndex(html)
	if open == nil || open[0] != 0 {
		return html
	}
	closeLoc := articleTailRe.FindStringIndex(html)
	if closeLoc == nil || open[1] >= closeLoc[0] {
		return html
	}
	inner := strings.TrimSpace(html[open[1]:closeLoc[0]])
	if inner == "" {
		return fmt.Sprintf(`<div class="%s"></div>`, BodyRootClass)
	}
	return fmt.Sprintf("<div class=%q>\n%s\n</div>", BodyRootClass, inner)
}

func unwrapScriptParagraphs(html string) string {
	return scriptParagraphRe.ReplaceAllString(html, "$1")
}

// demoteBodyH1 rewrites every body-level H1 to an H2. The page H1 belongs
// to the host CMS title; an itemprop=headline attribute travels with the
// structured data, so it is dropped from the demoted tag.
func demoteBodyH1(html string) string {
	html = h1OpenRe.ReplaceAllStringFunc(html, func(m string) string {
		attrs := h1OpenRe.FindStringSubmatch(m)[1]
		attrs = headlinePropRe.ReplaceAllString(attrs, "")
		return "<h2" + attrs + ">"
	})
	return h1CloseRe.ReplaceAllString(html, "</h2>")
}

func dedupeRepeatedTrailingParagraphs(html string) string {
	for pass := 0; pass < dupTailMaxPasses; pass++ {
		blocks := paragraphBlockRe.FindAllStringIndex(html, -1)
		if len(blocks) < 2 {
			break
		}
		last := blocks[len(blocks)-1]
		prev := blocks[len(blocks)-2]
		tLast := textutil.StripHTMLLower(html[last[0]:last[1]])
		tPrev := textutil.StripHTMLLower(html[prev[0]:prev[1]])
		if tLast == "" || tLast != tPrev {
			break
		}
		if len(tLast) < dupTailMinChars {
			break
		}
		html = html[:last[0]] + html[last[1]:]
	}
	return strings.TrimSpace(html)
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace. RE2 has no lookbehind, so the scan is manual.
func splitSentences(text string) []string {
	var parts []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') &&
			(runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t') {
			part := strings.TrimSpace(string(runes[start : i+1]))
			if part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

func countDisplayWords(text string) int {
	return len(wordTokenRe.FindAllString(text, -1))
}

// splitLongParagraphs breaks paragraphs above the word ceiling into
// sentence-grouped chunks around the target size. Paragraphs carrying
// block-level children are left intact.
func splitLongParagraphs(html string) string {
	return paragraphSplitRe.ReplaceAllStringFunc(html, func(m string) string {
		groups := paragraphSplitRe.FindStringSubmatch(m)
		attrs, inner := groups[1], strings.TrimSpace(groups[2])
		if inner == "" {
			return m
		}
		if blockChildRe.MatchString(inner) {
			return m
		}
		plain := textutil.StripHTML(inner)
		if countDisplayWords(plain) <= maxParagraphWords {
			return m
		}

		parts := splitSentences(plain)
		if len(parts) < 2 {
			return m
		}

		var chunks []string
		var buf []string
		bufWords := 0
		for _, sent := range parts {
			sw := countDisplayWords(sent)
			if len(buf) > 0 && bufWords+sw > targetParagraphWords {
				chunks = append(chunks, strings.TrimSpace(strings.Join(buf, " ")))
				buf = []string{sent}
				bufWords = sw
			} else {
				buf = append(buf, sent)
				bufWords += sw
			}
		}
		if len(buf) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(buf, " ")))
		}
		if len(chunks) < 2 {
			return m
		}

		var b strings.Builder
		for _, ch := range chunks {
			fmt.Fprintf(&b, "<p%s>%s</p>", attrs, ch)
		}
		return b.String()
	})
}

type faqPair struct {
	question string
	answer   string
}

func extractFAQPairs(body string) []faqPair {
	collect := func(re *regexp.Regexp) []faqPair {
		var pairs []faqPair
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			q := textutil.StripHTML(m[1])
			a := textutil.StripHTML(m[2])
			if q != "" && a != "" {
				pairs = append(pairs, faqPair{question: q, answer: a})
			}
			if len(pairs) == maxFAQPairs {
				break
			}
		}
		return pairs
	}
	if pairs := collect(faqSemanticPairRe); len(pairs) > 0 {
		return pairs
	}
	return collect(faqRawPairRe)
}

// ensureFAQSemanticMarkup rebuilds every faq-section into the fixed
// Question/Answer microdata schema, at most maxFAQPairs pairs. Sections
// with no recoverable pairs are left untouched.
func ensureFAQSemanticMarkup(html string) string {
	return faqSectionRe.ReplaceAllStringFunc(html, func(m string) string {
		groups := faqSectionRe.FindStringSubmatch(m)
		body := groups[2]

		title := "Perguntas Frequentes"
		if tm := faqTitleRe.FindStringSubmatch(body); tm != nil {
			if t := textutil.StripHTML(tm[1]); t != "" {
				title = t
			}
		}

		pairs := extractFAQPairs(body)
		if len(pairs) == 0 {
			return m
		}

		var b strings.Builder
		b.WriteString(`<section class="faq-section" itemscope itemtype="https://schema.org/FAQPage">`)
		fmt.Fprintf(&b, "<h2>%s</h2>", title)
		for _, p := range pairs {
			b.WriteString(`<div itemscope itemprop="mainEntity" itemtype="https://schema.org/Question">`)
			fmt.Fprintf(&b, `<h3 itemprop="name">%s</h3>`, p.question)
			b.WriteString(`<div itemscope itemprop="acceptedAnswer" itemtype="https://schema.org/Answer">`)
			fmt.Fprintf(&b, `<p itemprop="text">%s</p>`, p.answer)
			b.WriteString(`</div></div>`)
		}
		b.WriteString(`</section>`)
		return b.String()
	})
}

// HTML runs the full sanitization pipeline. The step order is load-bearing:
// trailing-noise removal and script unwrapping are re-run after FAQ
// normalization because both can reappear, and duplicate-tail removal must
// see the final paragraph layout.
func HTML(html string) string {
	html = NormalizeNewlines(html)
	html = removeTrailingNoise(html)
	html = readabilityPackRe.ReplaceAllString(html, "")
	html = strings.ReplaceAll(html, "**", "")
	html = unwrapScriptParagraphs(html)
	html = clipToArticle(html)
	html = unwrapArticleRoot(html)
	html = demoteBodyH1(html)
	html = splitLongParagraphs(html)
	html = ensureFAQSemanticMarkup(html)
	html = removeTrailingNoise(html)
	html = unwrapScriptParagraphs(html)
	html = dedupeRepeatedTrailingParagraphs(html)
	return strings.TrimSpace(html)
}

// Split parses a raw package into its sanitized meta and HTML blocks.
// When either marker is missing the whole input is treated as HTML-only.
func Split(raw string) (meta, html string, hasMarkers bool) {
	raw = NormalizeNewlines(raw)
	if strings.Contains(raw, MetaMarker) && strings.Contains(raw, HTMLMarker) {
		afterMeta := strings.SplitN(raw, MetaMarker, 2)[1]
		segments := strings.SplitN(afterMeta, HTMLMarker, 2)
		return Meta(segments[0]), HTML(segments[1]), true
	}
	return "", HTML(raw), false
}

// Build serializes sanitized meta and HTML back into package form. Build
// after Split is idempotent.
func Build(meta, html string, withMarkers bool) string {
	meta = Meta(meta)
	html = HTML(html)
	if withMarkers {
		return strings.TrimSpace(fmt.Sprintf("%s\n%s\n\n%s\n%s", MetaMarker, meta, HTMLMarker, html))
	}
	return strings.TrimSpace(html)
}
