// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the content-engine
// pipeline: themes, article records, audit and similarity results, the
// history corpus, and the pipeline configuration tree.
package types

import (
	"sort"
	"time"
)

// ArticleStatus is the publication lifecycle state of an article record.
type ArticleStatus string

const (
	StatusPendingQA ArticleStatus = "PENDING_QA"
	StatusApproved  ArticleStatus = "APPROVED"
	StatusRejected  ArticleStatus = "REJECTED"
)

// ThemeItem is one generated theme. Themes are produced once per batch and
// are immutable inputs to article generation.
type ThemeItem struct {
	ID                string    `json:"id" yaml:"id"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
	Theme             string    `json:"tema_principal" yaml:"tema_principal"`
	PrimaryKeyword    string    `json:"keyword_primaria" yaml:"keyword_primaria"`
	SecondaryKeywords []string  `json:"keywords_secundarias" yaml:"keywords_secundarias"`
	CompanySize       string    `json:"porte_empresa_alvo" yaml:"porte_empresa_alvo"`
	BusinessModel     string    `json:"modelo_negocio_alvo" yaml:"modelo_negocio_alvo"`
	Vertical          string    `json:"vertical_alvo" yaml:"vertical_alvo"`
	ProductFocus      string    `json:"produto_foco" yaml:"produto_foco"`
	ContentAngle      string    `json:"angulo_conteudo" yaml:"angulo_conteudo"`
	InternalURL       string    `json:"url_interna,omitempty" yaml:"url_interna,omitempty"`
	Funnel            string    `json:"funil" yaml:"funil"`
	SearchVolume      string    `json:"busca" yaml:"busca"`
	AdTitle           string    `json:"titulo_anuncio" yaml:"titulo_anuncio"`
	Notes             string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ArticleRecord is one article in a batch. Version starts at 1 and
// increments on every rewrite round. ContentPackage holds the canonical
// two-block text (meta block + sanitized HTML).
type ArticleRecord struct {
	BatchID         string        `json:"batch_id" yaml:"batch_id"`
	ID              string        `json:"id" yaml:"id"`
	Version         int           `json:"version" yaml:"version"`
	Theme           string        `json:"tema_principal" yaml:"tema_principal"`
	PrimaryKeyword  string        `json:"keyword_primaria" yaml:"keyword_primaria"`
	SecondaryKeys   string        `json:"keywords_secundarias" yaml:"keywords_secundarias"`
	CompanySize     string        `json:"porte_empresa_alvo" yaml:"porte_empresa_alvo"`
	BusinessModel   string        `json:"modelo_negocio_alvo" yaml:"modelo_negocio_alvo"`
	Vertical        string        `json:"vertical_alvo" yaml:"vertical_alvo"`
	ProductFocus    string        `json:"produto_foco" yaml:"produto_foco"`
	ContentAngle    string        `json:"angulo_conteudo" yaml:"angulo_conteudo"`
	InternalURL     string        `json:"url_interna,omitempty" yaml:"url_interna,omitempty"`
	Slug            string        `json:"slug" yaml:"slug"`
	MetaTitle       string        `json:"meta_title" yaml:"meta_title"`
	MetaDescription string        `json:"meta_description" yaml:"meta_description"`
	ContentPackage  string        `json:"content_package" yaml:"content_package"`
	Status          ArticleStatus `json:"status" yaml:"status"`
}

// Batch groups the live article records of one pipeline run.
type Batch struct {
	BatchID   string                    `json:"batch_id" yaml:"batch_id"`
	Items     map[string]*ArticleRecord `json:"items" yaml:"items"`
	Iteration int                       `json:"iteration" yaml:"iteration"`
}

// IDs returns the article IDs of the batch in sorted order so every stage
// visits items deterministically.
func (b *Batch) IDs() []string {
	ids := make([]string, 0, len(b.Items))
	for id := range b.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BatchSummary holds the terminal counts of a pipeline run.
type BatchSummary struct {
	BatchID    string `json:"batch_id" yaml:"batch_id"`
	ItemsTotal int    `json:"items_total" yaml:"items_total"`
	Approved   int    `json:"approved" yaml:"approved"`
	Rejected   int    `json:"rejected" yaml:"rejected"`
	Iterations int    `json:"iterations" yaml:"iterations"`
	TestMode   bool   `json:"test_mode" yaml:"test_mode"`
}

// ImagePromptRow is the handoff record for the downstream image stage.
// One row per approved article; the pipeline writes them, it does not
// render images.
type ImagePromptRow struct {
	ID             string `json:"id" yaml:"id"`
	ArticleTitle   string `json:"article_title" yaml:"article_title"`
	Slug           string `json:"slug" yaml:"slug"`
	Dimensions     string `json:"dimensions" yaml:"dimensions"`
	Style          string `json:"style" yaml:"style"`
	Prompt         string `json:"prompt" yaml:"prompt"`
	NegativePrompt string `json:"negative_prompt" yaml:"negative_prompt"`
}
