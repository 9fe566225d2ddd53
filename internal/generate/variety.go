// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sowads/content-engine/internal/sanitize"
	"github.com/sowads/content-engine/internal/textutil"
	"github.com/sowads/content-engine/pkg/types"
)

// structureProfile shapes the article skeleton the prompt asks for.
type structureProfile struct {
	Name string
	Rule string
}

var structureProfiles = []structureProfile{
	{"Diagnostico-Playbook", "diagnóstico direto, causa-raiz, plano de ação e erros críticos"},
	{"Tese-Framework-Decisao", "tese executiva, framework de decisão, próximos passos"},
	{"Comparativo-Criterios", "comparação por critérios, trade-offs, recomendação por cenário"},
	{"Operacao-90-Dias", "execução por fases com checkpoints operacionais e de negócio"},
	{"Sintoma-Causa-Impacto", "sinais, causa, impacto, correção orientada por dados"},
}

// narrativeFrame sets the opening-to-close arc.
type narrativeFrame struct {
	Name string
	Rule string
}

var narrativeFrames = []narrativeFrame{
	{"Hipotese-Validacao", "abrir com hipótese executiva, validar com sinais e fechar com decisão"},
	{"Diagnostico-Executivo", "abrir com sintoma operacional, destrinchar causa-raiz e fechar com plano"},
	{"Playbook-Pratico", "abrir com meta de negócio, sequenciar ações e checkpoints de execução"},
	{"Tradeoff-Decisao", "abrir com dilema real, comparar caminhos e recomendar decisão por cenário"},
	{"Caso-Aplicado", "abrir com micro-cenário realista, extrair aprendizados e operacionalizar"},
	{"Risco-Controle", "abrir com risco invisível, mapear impacto e definir controles preventivos"},
}

// visualMix names the scannability devices the article should carry.
type visualMix struct {
	Name  string
	Items []string
}

var visualMixes = []visualMix{
	{"Lista+Tabela", []string{"lista numerada", "tabela simples"}},
	{"Bullets+Checklist", []string{"bullets objetivos", "mini-checklist"}},
	{"Tabela+Blockquote", []string{"tabela simples", "blockquote de síntese"}},
	{"Lista+Bullets+Anchor", []string{"lista numerada", "bullets", "frases-âncora em negrito"}},
	{"Checklist+Tabela", []string{"mini-checklist", "tabela simples"}},
	{"Bullets+Blockquote", []string{"bullets objetivos", "blockquote de decisão"}},
}

// hashPick maps a selector key onto an index. SHA-1 keeps the choice
// stable across runs for the same batch/id/version.
func hashPick(key string, n int) int {
	sum := sha1.Sum([]byte(key))
	v := 0
	for _, b := range sum[:4] {
		v = v<<8 | int(b)
	}
	if v < 0 {
		v = -v
	}
	return v % n
}

func pickStructureProfile(batchID, itemID string, version int) structureProfile {
	return structureProfiles[hashPick(fmt.Sprintf("%s-%s-%d", batchID, itemID, version), len(structureProfiles))]
}

func pickNarrativeFrame(batchID, itemID string, version int) narrativeFrame {
	return narrativeFrames[hashPick(fmt.Sprintf("%s:%s:%d:frame", batchID, itemID, version), len(narrativeFrames))]
}

func pickVisualMix(batchID, itemID string, version int) visualMix {
	return visualMixes[hashPick(fmt.Sprintf("%s:%s:%d:visual", batchID, itemID, version), len(visualMixes))]
}

// DiversityConstraints lists sibling fingerprints the next draft must
// steer away from: openings and H2 signatures of the newest articles in
// the live batch.
type DiversityConstraints struct {
	AvoidOpenings     []string
	AvoidH2Signatures []string
}

var (
	firstParagraphRe = regexp.MustCompile(`(?i)<p[^>]*>([\s\S]*?)</p>`)
	h2Re             = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)
)

// firstSentence returns the lead sentence of the first paragraph, capped
// at 180 characters.
func firstSentence(html string) string {
	m := firstParagraphRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	text := strings.TrimSpace(textutil.StripHTML(m[1]))
	if text == "" {
		return ""
	}
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			rest := text[i+1:]
			if rest == "" || strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\t") {
				text = text[:i+1]
				break
			}
		}
	}
	if len(text) > 180 {
		text = strings.TrimSpace(text[:180])
	}
	return text
}

// h2Signature joins the first normalized H2 headings with " | ".
func h2Signature(html string, limit int) string {
	var normalized []string
	for _, m := range h2Re.FindAllStringSubmatch(html, -1) {
		if t := textutil.Normalize(textutil.StripHTML(m[1])); t != "" {
			normalized = append(normalized, t)
		}
		if len(normalized) == limit {
			break
		}
	}
	return strings.Join(normalized, " | ")
}

// CollectDiversity gathers avoid-lists from the current batch state,
// newest versions first, skipping the article being generated. At most
// four of each are returned so the prompt stays bounded.
func CollectDiversity(current map[string]*types.ArticleRecord, targetID string) DiversityConstraints {
	var out DiversityConstraints
	if len(current) == 0 {
		return out
	}

	type row struct {
		version int
		first   string
		h2sig   string
	}
	rows := make([]row, 0, len(current))
	for id, rec := range current {
		if id == targetID || rec == nil {
			continue
		}
		_, html, _ := sanitize.Split(rec.ContentPackage)
		rows = append(rows, row{
			version: rec.Version,
			first:   firstSentence(html),
			h2sig:   h2Signature(html, 5),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].version > rows[j].version })

	for i, r := range rows {
		if i == 6 {
			break
		}
		if r.first != "" {
			out.AvoidOpenings = append(out.AvoidOpenings, r.first)
		}
		if r.h2sig != "" {
			out.AvoidH2Signatures = append(out.AvoidH2Signatures, r.h2sig)
		}
	}
	if len(out.AvoidOpenings) > 4 {
		out.AvoidOpenings = out.AvoidOpenings[:4]
	}
	if len(out.AvoidH2Signatures) > 4 {
		out.AvoidH2Signatures = out.AvoidH2Signatures[:4]
	}
	return out
}
