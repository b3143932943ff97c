// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the synthetic-data-generator CLI. The
// qa and dpo subcommands turn a directory of documents into training data;
// ledger list shows which documents are already done.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// SetupError reports a problem found before any document is processed: a bad
// path, flag value or missing credential.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return "setup: " + e.Err.Error() }

func (e *SetupError) Unwrap() error { return e.Err }

func setupErrorf(format string, args ...any) error {
	return &SetupError{Err: fmt.Errorf(format, args...)}
}

// rootCmd is the base command for the synthetic-data-generator CLI.
var rootCmd = &cobra.Command{
	Use:   "synthetic-data-generator",
	Short: "Generate QA and DPO training data from documents with an LLM",
	Long: `synthetic-data-generator reads PDF, text and Markdown files, splits them into
chunks and asks a language model to write one training record per chunk:
a question/answer pair (qa) or a preference triple of prompt, chosen and
rejected answers (dpo).

Completed documents are recorded in a ledger under the output path so that
a later run only processes new files. Use --force to regenerate everything.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./synthetic-data-generator.yaml or ~/.config/synthetic-data-generator/synthetic-data-generator.yaml)")
	pf.String("output_path", ".", "directory for the output file, ledger and log")
	pf.String("ledger", "file", "ledger backend: file or sqlite")
	pf.String("log_level", "info", "log level: debug, info, warn or error")
	pf.String("log_file", "", "JSON log file (default: generation.log under output_path)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("synthetic-data-generator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "synthetic-data-generator"))
		}
	}

	viper.SetEnvPrefix("SDG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags makes the running command's flags visible to viper, so that a
// flag overrides SDG_* environment variables, which override the config file.
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return setupErrorf("binding flags: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
