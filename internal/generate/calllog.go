// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// CallRecord is one provider call in the call log. Every call appends a
// record, failed ones included, so the log reconstructs cost and latency
// for a whole batch.
type CallRecord struct {
	Timestamp      string         `json:"timestamp"`
	CompletedAt    string         `json:"completed_at"`
	LatencyMS      int64          `json:"latency_ms"`
	Provider       string         `json:"provider"`
	Model          string         `json:"model"`
	Phase          string         `json:"phase"`
	Agent          string         `json:"agent"`
	BatchID        string         `json:"batch_id"`
	ID             string         `json:"id"`
	Version        int            `json:"version"`
	HTTPStatusCode int            `json:"http_status_code"`
	Success        bool           `json:"success"`
	Endpoint       string         `json:"endpoint"`
	Request        CallRequest    `json:"request"`
	ResponseRaw    string         `json:"response_raw"`
	ResponseText   string         `json:"response_text"`
	UsageMetadata  map[string]any `json:"usage_metadata"`
	CostEstimate   CostEstimate   `json:"cost_estimate"`
	Error          string         `json:"error"`
}

// CallRequest is the request block of a call record. The full prompt text
// is kept alongside its hash so audits can replay a call exactly.
type CallRequest struct {
	Temperature  float64 `json:"temperature"`
	PromptSHA256 string  `json:"prompt_sha256"`
	PromptText   string  `json:"prompt_text"`
}

// CostEstimate is the per-call cost block. When the API omits usage
// metadata the token counts fall back to the length/4 heuristic and
// EstimatedByHeuristic flips on.
type CostEstimate struct {
	PromptTokens         int     `json:"prompt_tokens"`
	OutputTokens         int     `json:"output_tokens"`
	InputCostPer1MUSD    float64 `json:"input_cost_per_1m_usd"`
	OutputCostPer1MUSD   float64 `json:"output_cost_per_1m_usd"`
	EstimatedCostUSD     float64 `json:"estimated_cost_usd"`
	EstimatedByHeuristic bool    `json:"estimated_by_heuristic"`
	PricingConfigured    bool    `json:"pricing_configured"`
}

// estimateTokens approximates a token count from text length. Used only
// for cost estimates when the API returns no usage metadata.
func estimateTokens(text string) int {
	n := int(math.Round(float64(len(text)) / 4))
	if n < 1 {
		return 1
	}
	return n
}

// buildCostEstimate fills a cost block from API usage counts, falling
// back to the heuristic for any count the API did not report.
func buildCostEstimate(promptTokens, outputTokens int, havePrompt, haveOutput bool, promptText, responseText string, inPer1M, outPer1M float64) CostEstimate {
	heuristic := false
	if !havePrompt {
		promptTokens = estimateTokens(promptText)
		heuristic = true
	}
	if !haveOutput {
		outputTokens = estimateTokens(responseText)
		heuristic = true
	}
	cost := float64(promptTokens)/1e6*inPer1M + float64(outputTokens)/1e6*outPer1M
	return CostEstimate{
		PromptTokens:         promptTokens,
		OutputTokens:         outputTokens,
		InputCostPer1MUSD:    inPer1M,
		OutputCostPer1MUSD:   outPer1M,
		EstimatedCostUSD:     math.Round(cost*1e8) / 1e8,
		EstimatedByHeuristic: heuristic,
		PricingConfigured:    inPer1M > 0 || outPer1M > 0,
	}
}

// CallLog appends provider call records to a newline-delimited JSON file.
// Safe for concurrent use. A nil *CallLog discards records.
type CallLog struct {
	mu   sync.Mutex
	path string
}

// NewCallLog returns a call log writing to path. The parent directory is
// created on first append.
func NewCallLog(path string) *CallLog {
	return &CallLog{path: path}
}

// Append writes one record as a single JSON line.
func (l *CallLog) Append(rec CallRecord) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating call log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening call log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("writing call log record: %w", err)
	}
	return nil
}
