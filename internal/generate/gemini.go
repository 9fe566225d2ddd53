// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sowads/content-engine/pkg/types"
)

// GeminiProvider calls the generateContent REST API. Every call, failed
// or not, appends a CallRecord to the call log. After a successful call
// the provider pauses for Delay so batch runs stay under rate limits.
type GeminiProvider struct {
	APIKey          string
	APIBase         string
	Model           string
	Client          *http.Client
	Delay           time.Duration
	Log             *CallLog
	InputCostPer1M  float64
	OutputCostPer1M float64
}

// NewGeminiProvider builds a provider from the configuration tree. The
// HTTP client carries the configured per-request timeout.
func NewGeminiProvider(cfg types.ProviderConfig, log *CallLog) *GeminiProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &GeminiProvider{
		APIKey:          cfg.APIKey,
		APIBase:         cfg.APIBase,
		Model:           cfg.Model,
		Client:          &http.Client{Timeout: timeout},
		Delay:           cfg.RequestDelay,
		Log:             log,
		InputCostPer1M:  cfg.InputCostPer1M,
		OutputCostPer1M: cfg.OutputCostPer1M,
	}
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

// geminiResponse is the subset of the generateContent response we read.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata map[string]any `json:"usageMetadata"`
}

// nowISO formats a UTC timestamp the way the JSONL logs expect.
func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.999999Z07:00")
}

// Generate sends one prompt and returns the joined candidate text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	meta := MetaFrom(ctx)
	startedAt := nowISO()
	t0 := time.Now()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.APIBase, g.Model)
	callURL := endpoint + "?key=" + url.QueryEscape(g.APIKey)

	rec := CallRecord{
		Timestamp: startedAt,
		Provider:  "gemini",
		Model:     g.Model,
		Phase:     meta.Phase,
		Agent:     meta.Agent,
		BatchID:   meta.BatchID,
		ID:        meta.ID,
		Version:   meta.Version,
		Endpoint:  endpoint,
		Request: CallRequest{
			Temperature:  temperature,
			PromptSHA256: fmt.Sprintf("%x", sha256.Sum256([]byte(prompt))),
			PromptText:   prompt,
		},
		UsageMetadata: map[string]any{},
	}

	finish := func(rawBody, responseText string, status int, usage map[string]any, callErr string) {
		rec.CompletedAt = nowISO()
		rec.LatencyMS = time.Since(t0).Milliseconds()
		rec.HTTPStatusCode = status
		rec.Success = callErr == ""
		rec.ResponseRaw = rawBody
		rec.ResponseText = responseText
		if usage != nil {
			rec.UsageMetadata = usage
		}
		rec.CostEstimate = g.costEstimate(usage, prompt, responseText)
		rec.Error = callErr
		g.Log.Append(rec)
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{Temperature: temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		msg := fmt.Sprintf("Gemini network error: %v", err)
		finish("", "", 0, nil, msg)
		return "", &ProviderError{Network: true, Msg: msg}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		msg := fmt.Sprintf("Gemini network error: %v", err)
		finish("", "", resp.StatusCode, nil, msg)
		return "", &ProviderError{Network: true, Msg: msg}
	}
	rawBody := string(raw)

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Gemini HTTP %d", resp.StatusCode)
		finish(rawBody, "", resp.StatusCode, nil, msg)
		return "", &ProviderError{Status: resp.StatusCode, Msg: fmt.Sprintf("%s: %s", msg, rawBody)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		msg := fmt.Sprintf("Gemini no candidates: %s", rawBody)
		finish(rawBody, "", resp.StatusCode, nil, "Gemini no candidates")
		return "", &ProviderError{Status: resp.StatusCode, Msg: msg}
	}
	if len(parsed.Candidates) == 0 {
		finish(rawBody, "", resp.StatusCode, parsed.UsageMetadata, "Gemini no candidates")
		return "", &ProviderError{Status: resp.StatusCode, Msg: fmt.Sprintf("Gemini no candidates: %s", rawBody)}
	}

	var text string
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		finish(rawBody, "", resp.StatusCode, parsed.UsageMetadata, "Gemini empty text")
		return "", &ProviderError{Status: resp.StatusCode, Msg: fmt.Sprintf("Gemini empty text: %s", rawBody)}
	}

	finish(rawBody, text, resp.StatusCode, parsed.UsageMetadata, "")

	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	return text, nil
}

// costEstimate reads the API usage counts when present and builds the
// cost block, falling back to length heuristics otherwise.
func (g *GeminiProvider) costEstimate(usage map[string]any, prompt, response string) CostEstimate {
	promptTokens, havePrompt := usageCount(usage, "promptTokenCount")
	outputTokens, haveOutput := usageCount(usage, "candidatesTokenCount")
	return buildCostEstimate(promptTokens, outputTokens, havePrompt, haveOutput,
		prompt, response, g.InputCostPer1M, g.OutputCostPer1M)
}

// usageCount extracts an integer token count from the usage metadata map.
func usageCount(usage map[string]any, key string) (int, bool) {
	if usage == nil {
		return 0, false
	}
	v, ok := usage[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
