// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProviderConfig holds settings for the text-generation provider.
type ProviderConfig struct {
	// APIBase is the provider REST endpoint base.
	APIBase string `json:"api_base" yaml:"api_base"`

	// Model is the generation model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request HTTP timeout (default 180s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RequestDelay is the pause after each successful call (default 600ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxAttempts caps retries for retryable failures (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryBackoff is the linear backoff base between attempts (default 1.5s).
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`

	// InputCostPer1M and OutputCostPer1M are USD token rates used only for
	// call-log cost estimates.
	InputCostPer1M  float64 `json:"input_cost_per_1m_usd" yaml:"input_cost_per_1m_usd"`
	OutputCostPer1M float64 `json:"output_cost_per_1m_usd" yaml:"output_cost_per_1m_usd"`
}

// AuditConfig holds the rule thresholds for the audit engine. The accept
// threshold is a policy constant carried from the production ruleset, not
// a derived value.
type AuditConfig struct {
	// Threshold is the minimum passing score (default 80).
	Threshold int `json:"threshold" yaml:"threshold"`

	// MinWords and MaxWords bound the article body word count.
	MinWords int `json:"min_words" yaml:"min_words"`
	MaxWords int `json:"max_words" yaml:"max_words"`

	// DensityMinPct and DensityMaxPct bound primary keyword density.
	DensityMinPct float64 `json:"density_min_pct" yaml:"density_min_pct"`
	DensityMaxPct float64 `json:"density_max_pct" yaml:"density_max_pct"`
}

// EnforcementConfig holds the constraint enforcer bounds. Targets sit
// inside the density band so the solver lands clear of both edges.
type EnforcementConfig struct {
	MinWords          int     `json:"min_words" yaml:"min_words"`
	MaxWords          int     `json:"max_words" yaml:"max_words"`
	DensityMinPct     float64 `json:"density_min_pct" yaml:"density_min_pct"`
	DensityMaxPct     float64 `json:"density_max_pct" yaml:"density_max_pct"`
	DensityTargetLow  float64 `json:"density_target_low" yaml:"density_target_low"`
	DensityTargetHigh float64 `json:"density_target_high" yaml:"density_target_high"`
}

// SimilarityConfig holds the dedup engine thresholds.
type SimilarityConfig struct {
	// RiskThreshold and RewriteThreshold split scores into ok/risk/rewrite.
	RiskThreshold    float64 `json:"risk_threshold" yaml:"risk_threshold"`
	RewriteThreshold float64 `json:"rewrite_threshold" yaml:"rewrite_threshold"`

	// BatchConflictFloor and HistoryConflictFloor are the minimum composite
	// scores reported as conflicts.
	BatchConflictFloor   float64 `json:"batch_conflict_floor" yaml:"batch_conflict_floor"`
	HistoryConflictFloor float64 `json:"history_conflict_floor" yaml:"history_conflict_floor"`

	// HistoryWindow caps how many recent history entries are compared
	// (default 400).
	HistoryWindow int `json:"history_window" yaml:"history_window"`

	// MaxConflicts caps the reported conflict list (default 8).
	MaxConflicts int `json:"max_conflicts" yaml:"max_conflicts"`
}

// HistoryConfig locates the append-only corpus files.
type HistoryConfig struct {
	// LogPath is the newline-delimited JSON corpus file.
	LogPath string `json:"log_path" yaml:"log_path"`

	// IndexPath is the last-update summary file.
	IndexPath string `json:"index_path" yaml:"index_path"`
}

// PipelineConfig groups every stage configuration. It is constructed once
// at startup and passed into the components; nothing reads ambient
// environment state after construction.
type PipelineConfig struct {
	// BatchTopic is an optional slug segment for generated batch IDs.
	BatchTopic string `json:"batch_topic,omitempty" yaml:"batch_topic,omitempty"`

	// ThemeCount is the number of themes generated per batch (default 5).
	ThemeCount int `json:"theme_count" yaml:"theme_count"`

	// MaxRewrites bounds the rewrite loop. 0 disables regeneration: audit
	// and similarity then gate the final accept/reject only.
	MaxRewrites int `json:"max_rewrites" yaml:"max_rewrites"`

	// TestMode substitutes the deterministic offline generator for every
	// provider call.
	TestMode bool `json:"test_mode" yaml:"test_mode"`

	// PublishMode is the target status handed to the publication stage for
	// articles that clear the policy gate (default "draft").
	PublishMode string `json:"publish_mode" yaml:"publish_mode"`

	// DataDir is the root for batch artifacts, logs, and the snapshot store.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Niche and the audience fields seed theme generation.
	Niche         string `json:"niche,omitempty" yaml:"niche,omitempty"`
	Vertical      string `json:"vertical" yaml:"vertical"`
	CompanySize   string `json:"company_size" yaml:"company_size"`
	BusinessModel string `json:"business_model" yaml:"business_model"`
	ProductFocus  string `json:"product_focus" yaml:"product_focus"`
	InternalURL   string `json:"internal_url,omitempty" yaml:"internal_url,omitempty"`

	Provider    ProviderConfig    `json:"provider" yaml:"provider"`
	Audit       AuditConfig       `json:"audit" yaml:"audit"`
	Enforcement EnforcementConfig `json:"enforcement" yaml:"enforcement"`
	Similarity  SimilarityConfig  `json:"similarity" yaml:"similarity"`
	History     HistoryConfig     `json:"history" yaml:"history"`
}

// DefaultPipelineConfig returns the production defaults. Callers overlay
// file and flag values on top of this.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ThemeCount:    5,
		MaxRewrites:   0,
		DataDir:       "data",
		PublishMode:   "draft",
		Vertical:      "Geral",
		CompanySize:   "Média Empresa",
		BusinessModel: "B2B",
		ProductFocus:  "Ambos os pilares",
		Provider: ProviderConfig{
			APIBase:      "https://generativelanguage.googleapis.com/v1beta",
			Model:        "gemini-2.5-flash",
			Timeout:      180 * time.Second,
			RequestDelay: 600 * time.Millisecond,
			MaxAttempts:  3,
			RetryBackoff: 1500 * time.Millisecond,
		},
		Audit: AuditConfig{
			Threshold:     80,
			MinWords:      900,
			MaxWords:      1500,
			DensityMinPct: 1.5,
			DensityMaxPct: 2.0,
		},
		Enforcement: EnforcementConfig{
			MinWords:          900,
			MaxWords:          1500,
			DensityMinPct:     1.5,
			DensityMaxPct:     2.0,
			DensityTargetLow:  1.7,
			DensityTargetHigh: 1.85,
		},
		Similarity: SimilarityConfig{
			RiskThreshold:        40,
			RewriteThreshold:     60,
			BatchConflictFloor:   20,
			HistoryConflictFloor: 22,
			HistoryWindow:        400,
			MaxConflicts:         8,
		},
		History: HistoryConfig{
			LogPath:   "data/history/history.jsonl",
			IndexPath: "data/history/index.json",
		},
	}
}
