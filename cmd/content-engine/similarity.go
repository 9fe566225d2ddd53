// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/sowads/content-engine/internal/history"
	"github.com/sowads/content-engine/internal/pipeline"
	"github.com/sowads/content-engine/internal/similarity"
	"github.com/sowads/content-engine/pkg/types"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity <articles.csv>",
	Short: "Check a saved article table for internal and historical overlap",
	Long: `Similarity compares every article of a saved batch table against its
batch siblings and the recent history corpus, printing the similarity
report as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilarity,
}

func init() {
	similarityCmd.Flags().String("out", "", "write the report to a file instead of stdout")
	similarityCmd.Flags().Bool("no-history", false, "compare within the batch only")

	rootCmd.AddCommand(similarityCmd)
}

func runSimilarity(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	batch, err := pipeline.ReadArticlesCSV(args[0])
	if err != nil {
		return err
	}

	var tail []types.HistoryEntry
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		tail, err = history.NewLog(cfg.History).Tail(cfg.Similarity.HistoryWindow)
		if err != nil {
			return err
		}
	}
	report := similarity.New(cfg.Similarity).Compare(batch, tail)

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling similarity report: %w", err)
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Print(string(data))
	return nil
}
