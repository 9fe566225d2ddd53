// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AuditMetrics is the measurement block attached to an audit result. All
// values are derived from the sanitized article HTML.
type AuditMetrics struct {
	WordCount          int      `json:"word_count" yaml:"word_count"`
	KeywordDensityPct  float64  `json:"keyword_density_pct" yaml:"keyword_density_pct"`
	TableCount         int      `json:"table_count" yaml:"table_count"`
	UnorderedListCount int      `json:"ul_count" yaml:"ul_count"`
	OrderedListCount   int      `json:"ol_count" yaml:"ol_count"`
	BlockquoteCount    int      `json:"blockquote_count" yaml:"blockquote_count"`
	ChecklistItemCount int      `json:"checklist_li_count" yaml:"checklist_li_count"`
	BoldAnchorCount    int      `json:"bold_anchor_count" yaml:"bold_anchor_count"`
	StrongCount        int      `json:"strong_count" yaml:"strong_count"`
	StrongRatioPct     float64  `json:"strong_ratio_pct" yaml:"strong_ratio_pct"`
	VisualDeviceCount  int      `json:"visual_device_count" yaml:"visual_device_count"`
	VisualDevices      []string `json:"visual_devices" yaml:"visual_devices"`
	SignatureRepeats   int      `json:"structure_signature_repeats" yaml:"structure_signature_repeats"`
	LongParagraphs     int      `json:"long_paragraphs" yaml:"long_paragraphs"`
}

// AuditResult is the scored outcome of one article audit. It is recomputed
// every round and replaced, never mutated.
type AuditResult struct {
	ID              string       `json:"id" yaml:"id"`
	Version         int          `json:"version" yaml:"version"`
	Score           int          `json:"seo_geo_score" yaml:"seo_geo_score"`
	ReasonCodes     []string     `json:"reason_codes" yaml:"reason_codes"`
	Issues          []string     `json:"issues" yaml:"issues"`
	FlagRewrite     bool         `json:"flag_rewrite" yaml:"flag_rewrite"`
	RewriteGuidance string       `json:"rewrite_guidance,omitempty" yaml:"rewrite_guidance,omitempty"`
	Metrics         AuditMetrics `json:"metrics" yaml:"metrics"`
}

// HasReason reports whether code is present in the reason code set.
func (r *AuditResult) HasReason(code string) bool {
	for _, c := range r.ReasonCodes {
		if c == code {
			return true
		}
	}
	return false
}

// AuditReport is the per-batch audit artifact written after every round.
type AuditReport struct {
	BatchID   string        `json:"batch_id" yaml:"batch_id"`
	Threshold int           `json:"threshold" yaml:"threshold"`
	Items     []AuditResult `json:"items" yaml:"items"`
}
