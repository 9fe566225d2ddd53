// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sowads/content-engine/internal/generate"
	"github.com/sowads/content-engine/internal/logging"
	"github.com/sowads/content-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full article batch through the pipeline",
	Long: `Run generates a themed batch, enforces constraints, audits and
deduplicates every article, rewrites flagged articles up to the configured
round limit, and writes the batch artifacts (themes, per-round article
tables, reports, image prompts, publish results, summary).

With --test-mode no provider calls are made; the deterministic offline
generator produces every article.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topic", "", "optional topic slug for the batch ID")
	runCmd.Flags().Int("themes", 0, "number of themes to generate (default 5)")
	runCmd.Flags().Int("max-rewrites", -1, "maximum rewrite rounds (default 0: report and gate only)")
	runCmd.Flags().Bool("test-mode", false, "run fully offline with the deterministic generator")
	runCmd.Flags().String("publish-mode", "", "target status for publishable articles (default draft)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	if v, _ := cmd.Flags().GetString("topic"); v != "" {
		cfg.BatchTopic = v
	}
	if v, _ := cmd.Flags().GetInt("themes"); v > 0 {
		cfg.ThemeCount = v
	}
	if v, _ := cmd.Flags().GetInt("max-rewrites"); v >= 0 {
		cfg.MaxRewrites = v
	}
	if v, _ := cmd.Flags().GetBool("test-mode"); v {
		cfg.TestMode = true
	}
	if v, _ := cmd.Flags().GetString("publish-mode"); v != "" {
		cfg.PublishMode = v
	}

	if !cfg.TestMode && cfg.Provider.APIKey == "" {
		return fmt.Errorf("no gemini-api-key secret found; add it to .secrets/ or use --test-mode")
	}

	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(os.Stderr, level)

	var provider generate.Provider
	if !cfg.TestMode {
		callLog := generate.NewCallLog(filepath.Join(cfg.DataDir, "logs", "gemini_calls.jsonl"))
		provider = &generate.RetryProvider{
			Inner:       generate.NewGeminiProvider(cfg.Provider, callLog),
			MaxAttempts: cfg.Provider.MaxAttempts,
			Backoff:     cfg.Provider.RetryBackoff,
			Logger:      logger,
		}
	}

	o, err := pipeline.New(cfg, provider, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer o.Close()

	summary, err := o.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("batch %s failed: %w", o.BatchID(), err)
	}
	if summary.Rejected > 0 {
		fmt.Fprintf(os.Stderr, "%d article(s) rejected; see the batch reports\n", summary.Rejected)
	}
	return nil
}
