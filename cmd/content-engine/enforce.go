// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sowads/content-engine/internal/enforce"
	"github.com/sowads/content-engine/internal/pipeline"
)

var enforceCmd = &cobra.Command{
	Use:   "enforce <articles.csv>",
	Short: "Enforce word-count and keyword-density constraints on a saved table",
	Long: `Enforce rewrites every article of a saved batch table in place: padding
below the word floor, trimming above the ceiling, and injecting or diluting
keyword mentions until density sits inside the configured band. The
adjusted table is written next to the input unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnforce,
}

func init() {
	enforceCmd.Flags().String("out", "", "path for the adjusted table (default: overwrite the input)")

	rootCmd.AddCommand(enforceCmd)
}

func runEnforce(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	batch, err := pipeline.ReadArticlesCSV(args[0])
	if err != nil {
		return err
	}
	report := enforce.EnforceBatch(batch, cfg.Enforcement)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = args[0]
	}
	if err := pipeline.WriteArticlesCSV(out, batch); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling enforcement report: %w", err)
	}
	fmt.Println(string(data))
	if report.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d article(s) still outside the constraint band\n", report.Failed)
	}
	return nil
}
