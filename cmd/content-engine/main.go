// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the content-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sowads/content-engine/internal/secrets"
	"github.com/sowads/content-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the content-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "content-engine",
	Short: "Quality-gated SEO article pipeline",
	Long: `content-engine generates themed SEO article batches, enforces word-count
and keyword-density constraints, audits each article against the editorial
ruleset, deduplicates against the live batch and the history corpus, and
regenerates flagged articles through a bounded rewrite loop.

The full batch runs through the run subcommand; audit, similarity, enforce,
and sanitize operate on saved artifacts for single-stage reruns.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./content-engine.yaml or ~/.config/content-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for batches, logs, and history (default: data)")
	rootCmd.PersistentFlags().String("log-level", "info", "console log level (debug, info, warn, error)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("content-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "content-engine"))
		}
	}

	viper.SetEnvPrefix("CONTENT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig materializes the immutable pipeline configuration from the
// defaults, the config file, and the loaded secrets. Components receive
// this object and never read the environment themselves.
func buildConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if v := viper.GetString("data_dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetInt("theme_count"); v > 0 {
		cfg.ThemeCount = v
	}
	if v := viper.GetInt("max_rewrites"); v > 0 {
		cfg.MaxRewrites = v
	}
	if v := viper.GetString("publish_mode"); v != "" {
		cfg.PublishMode = v
	}
	if v := viper.GetString("niche"); v != "" {
		cfg.Niche = v
	}
	if v := viper.GetString("vertical"); v != "" {
		cfg.Vertical = v
	}
	if v := viper.GetString("company_size"); v != "" {
		cfg.CompanySize = v
	}
	if v := viper.GetString("business_model"); v != "" {
		cfg.BusinessModel = v
	}
	if v := viper.GetString("product_focus"); v != "" {
		cfg.ProductFocus = v
	}
	if v := viper.GetString("internal_url"); v != "" {
		cfg.InternalURL = v
	}
	if v := viper.GetString("provider.api_base"); v != "" {
		cfg.Provider.APIBase = v
	}
	if v := viper.GetString("provider.model"); v != "" {
		cfg.Provider.Model = v
	}
	if v := viper.GetFloat64("provider.input_cost_per_1m_usd"); v > 0 {
		cfg.Provider.InputCostPer1M = v
	}
	if v := viper.GetFloat64("provider.output_cost_per_1m_usd"); v > 0 {
		cfg.Provider.OutputCostPer1M = v
	}
	cfg.Provider.APIKey = loadedSecrets[secrets.GeminiAPIKey]

	cfg.History.LogPath = filepath.Join(cfg.DataDir, "history", "history.jsonl")
	cfg.History.IndexPath = filepath.Join(cfg.DataDir, "history", "index.json")
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
