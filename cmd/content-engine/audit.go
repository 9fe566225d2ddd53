// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/sowads/content-engine/internal/audit"
	"github.com/sowads/content-engine/internal/pipeline"
)

var auditCmd = &cobra.Command{
	Use:   "audit <articles.csv>",
	Short: "Audit a saved article table against the editorial ruleset",
	Long: `Audit scores every article of a saved batch table and prints the audit
report as YAML. Scores, reason codes, and rewrite guidance match what the
full pipeline computes; nothing is regenerated.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("out", "", "write the report to a file instead of stdout")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	batch, err := pipeline.ReadArticlesCSV(args[0])
	if err != nil {
		return err
	}
	report := audit.New(cfg.Audit).AuditBatch(batch)

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling audit report: %w", err)
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Print(string(data))
	return nil
}
