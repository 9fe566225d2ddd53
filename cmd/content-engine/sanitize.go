// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sowads/content-engine/internal/sanitize"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file]",
	Short: "Sanitize one canonical article package",
	Long: `Sanitize reads a canonical two-block package (or bare HTML) from a file
or stdin, normalizes the meta block, cleans the HTML fragment, and prints
the rebuilt package. The operation is idempotent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	meta, html, hasMarkers := sanitize.Split(string(raw))
	fmt.Println(sanitize.Build(meta, html, hasMarkers))
	return nil
}
