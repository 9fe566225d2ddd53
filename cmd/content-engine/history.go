// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sowads/content-engine/internal/history"
	"github.com/sowads/content-engine/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the approved-article corpus and batch snapshots",
}

var historyIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Show the last corpus update",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig(cmd)
		index, err := history.NewLog(cfg.History).Index()
		if err != nil {
			return err
		}
		fmt.Printf("last batch: %s\nupdated at: %s\nadded:      %d\n",
			index.LastBatchID, index.UpdatedAt.Format("2006-01-02 15:04:05"), index.Added)
		return nil
	},
}

var historyTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "List the most recent corpus entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig(cmd)
		n, _ := cmd.Flags().GetInt("n")
		entries, err := history.NewLog(cfg.History).Tail(n)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tSCORE\tSIMILARITY\tTITLE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%s\n",
				e.ID, e.Version, e.SEOGeoScore, e.SimilarityScore, e.Title)
		}
		return w.Flush()
	},
}

var historyBatchCmd = &cobra.Command{
	Use:   "batch <batch-id>",
	Short: "List the latest snapshot of every article in a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig(cmd)
		s, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		snaps, err := s.Latest(args[0])
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return fmt.Errorf("no snapshots for batch %s", args[0])
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tITER\tSCORE\tSIMILARITY\tSTATUS")
		for _, snap := range snaps {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%s\n",
				snap.ID, snap.Version, snap.Iteration, snap.SEOGeoScore, snap.SimilarityScore, snap.Status)
		}
		return w.Flush()
	},
}

func init() {
	historyTailCmd.Flags().Int("n", 20, "number of entries to show")

	historyCmd.AddCommand(historyIndexCmd)
	historyCmd.AddCommand(historyTailCmd)
	historyCmd.AddCommand(historyBatchCmd)
	rootCmd.AddCommand(historyCmd)
}
