// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/sowads/content-engine/pkg/types"
)

// writeYAML marshals v to path, creating parent directories.
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, data)
}

// writeJSON marshals v to path with indentation for human review.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeImagePromptsCSV writes the downstream image-stage handoff file.
// One row per approved article, fixed column order.
func writeImagePromptsCSV(path string, rows []types.ImagePromptRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for image prompts: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image prompts file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"id", "article_title", "slug", "dimensions", "style", "prompt", "negative_prompt"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing image prompts header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.ID, row.ArticleTitle, row.Slug, row.Dimensions, row.Style, row.Prompt, row.NegativePrompt}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing image prompt row %s: %w", row.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing image prompts: %w", err)
	}
	return nil
}
