// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the portfolio-research CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/httputil"
	"github.com/pdiddy/portfolio-research/internal/logging"
	"github.com/pdiddy/portfolio-research/internal/secrets"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// cfg is the resolved configuration.
	cfg types.Config

	logger = zap.NewNop()
)

// rootCmd is the base command for the portfolio-research CLI.
var rootCmd = &cobra.Command{
	Use:   "portfolio-research",
	Short: "Research the startup portfolios of venture capital firms",
	Long: `portfolio-research finds the startups a venture capital firm has invested
in. For each firm it runs a broad web search, extracts structured records
with a language model, fills missing fields with targeted follow-up
searches, and keeps the most complete records.

Results can be printed, saved to a local history database, or served over
HTTP with the serve command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s

		c, err := loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		httputil.SetLogger(logger)

		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./portfolio-research.yaml or ~/.config/portfolio-research/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the history database")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("history.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("portfolio-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "portfolio-research"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
