// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SimilarityStatus classifies a composite similarity score: "rewrite"
// forces regeneration, "risk" surfaces for human review without blocking,
// "ok" passes.
type SimilarityStatus string

const (
	SimilarityOK      SimilarityStatus = "ok"
	SimilarityRisk    SimilarityStatus = "risk"
	SimilarityRewrite SimilarityStatus = "rewrite"
)

// SimilarityConflict is one comparison that crossed the reporting floor.
type SimilarityConflict struct {
	OtherID string  `json:"other_id" yaml:"other_id"`
	Score   float64 `json:"score" yaml:"score"`
	Reason  string  `json:"reason" yaml:"reason"`
}

// SimilarityResult is the dedup outcome for one article: the maximum
// composite score across the live batch and the history window, plus the
// conflicts that crossed the floor, sorted descending and capped.
type SimilarityResult struct {
	ID              string               `json:"id" yaml:"id"`
	Version         int                  `json:"version" yaml:"version"`
	SimilarityScore float64              `json:"similarity_score" yaml:"similarity_score"`
	Status          SimilarityStatus     `json:"status" yaml:"status"`
	Conflicts       []SimilarityConflict `json:"conflicts" yaml:"conflicts"`
	FlagSimilarity  bool                 `json:"flag_similarity" yaml:"flag_similarity"`
	RewriteGuidance string               `json:"rewrite_guidance,omitempty" yaml:"rewrite_guidance,omitempty"`
}

// SimilarityReport is the per-batch similarity artifact.
type SimilarityReport struct {
	BatchID string             `json:"batch_id" yaml:"batch_id"`
	Policy  SimilarityPolicy   `json:"policy" yaml:"policy"`
	Items   []SimilarityResult `json:"items" yaml:"items"`
}

// SimilarityPolicy records the thresholds that produced a report.
type SimilarityPolicy struct {
	RiskThreshold    float64 `json:"risk_threshold" yaml:"risk_threshold"`
	RewriteThreshold float64 `json:"rewrite_threshold" yaml:"rewrite_threshold"`
}
