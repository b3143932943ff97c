// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yitzshapiro/synthetic-data-generator/internal/chunk"
	"github.com/yitzshapiro/synthetic-data-generator/internal/convert"
	"github.com/yitzshapiro/synthetic-data-generator/internal/generate"
	"github.com/yitzshapiro/synthetic-data-generator/internal/ledger"
	"github.com/yitzshapiro/synthetic-data-generator/internal/output"
	"github.com/yitzshapiro/synthetic-data-generator/internal/pipeline"
	"github.com/yitzshapiro/synthetic-data-generator/internal/secrets"
	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

var qaCmd = newGenerateCmd(types.ModeQA, "Generate question/answer pairs",
	`qa asks the model for one in-depth question and a detailed, step-by-step
answer per chunk. Records have the columns question, answer and source.`)

var dpoCmd = newGenerateCmd(types.ModeDPO, "Generate DPO preference triples",
	`dpo asks the model for a prompt, a correct (chosen) answer and a plausible
but incorrect (rejected) answer per chunk. Records have the columns prompt,
chosen, rejected and source.`)

func newGenerateCmd(mode types.Mode, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(mode) + " --data_directory DIR --filetype FORMAT",
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, mode)
		},
	}

	f := cmd.Flags()
	f.String("data_directory", "", "directory containing .pdf, .txt and .md files (required)")
	f.String("filetype", "", "output format: csv, json, jsonl or yaml (required)")
	f.Bool("force", false, "reprocess documents already in the ledger and replace the output file")
	f.Bool("recursive", false, "include files in subdirectories of data_directory")
	f.Int("workers", pipeline.DefaultWorkers, "documents processed concurrently")
	f.Int("chunk_size", chunk.DefaultSize, "maximum chunk length in characters")
	f.String("pdf_backend", string(types.PDFNative), "PDF text extraction: native or markitdown")
	f.Bool("strip_markdown", false, "render .md input to plain text before chunking")

	f.String("provider", string(types.ProviderOpenAI), "model API: openai or anthropic")
	f.String("model", "", "model identifier (default depends on provider)")
	f.String("base_url", "", "API base URL, for OpenAI-compatible endpoints")
	f.Int("max_retries", 3, "retries per chunk for rate limits, server errors and timeouts")
	f.Int("max_tokens", 4096, "maximum tokens per model response")
	f.Duration("request_timeout", generate.DefaultTimeout, "timeout for one model request")
	f.Float64("requests_per_second", 0, "pace model requests across workers (0 = unlimited)")
	f.Int("burst", 1, "requests allowed at once when pacing")
	f.Float64("temperature_min", 0.0, "lower bound of the sampling temperature")
	f.Float64("temperature_max", 0.7, "upper bound of the sampling temperature")

	rootCmd.AddCommand(cmd)
	return cmd
}

// loadGenerationConfig merges flags, environment and config file into a
// validated GenerationConfig. It does not touch the filesystem.
func loadGenerationConfig(mode types.Mode) (types.GenerationConfig, error) {
	var cfg types.GenerationConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, setupErrorf("reading configuration: %w", err)
	}
	cfg.Mode = mode
	if cfg.UserAgent == "" {
		cfg.UserAgent = "synthetic-data-generator/" + version
	}

	switch {
	case cfg.DataDir == "":
		return cfg, setupErrorf("--data_directory is required")
	case !cfg.Format.Valid():
		return cfg, setupErrorf("--filetype must be csv, json, jsonl or yaml, got %q", cfg.Format)
	case cfg.Workers < 1:
		return cfg, setupErrorf("--workers must be at least 1")
	case cfg.ChunkSize < 1:
		return cfg, setupErrorf("--chunk_size must be at least 1")
	case cfg.MaxRetries < 0:
		return cfg, setupErrorf("--max_retries must not be negative")
	case cfg.Timeout <= 0:
		return cfg, setupErrorf("--request_timeout must be positive")
	case cfg.RequestsPerSecond < 0:
		return cfg, setupErrorf("--requests_per_second must not be negative")
	case cfg.TemperatureMin < 0 || cfg.TemperatureMax > 2 || cfg.TemperatureMin > cfg.TemperatureMax:
		return cfg, setupErrorf("temperature range [%g, %g] is invalid", cfg.TemperatureMin, cfg.TemperatureMax)
	}
	if cfg.Provider != types.ProviderOpenAI && cfg.Provider != types.ProviderAnthropic {
		return cfg, setupErrorf("--provider must be openai or anthropic, got %q", cfg.Provider)
	}
	return cfg, nil
}

// checkPaths verifies the data directory and that the output path is a
// writable directory, creating it if needed.
func checkPaths(cfg types.GenerationConfig) error {
	info, err := os.Stat(cfg.DataDir)
	if err != nil {
		return setupErrorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return setupErrorf("data directory %s is not a directory", cfg.DataDir)
	}

	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		return setupErrorf("output path: %w", err)
	}
	check, err := os.CreateTemp(cfg.OutputPath, ".write-check-*")
	if err != nil {
		return setupErrorf("output path %s is not writable: %w", cfg.OutputPath, err)
	}
	check.Close()
	os.Remove(check.Name())
	return nil
}

func runGenerate(cmd *cobra.Command, mode types.Mode) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadGenerationConfig(mode)
	if err != nil {
		return err
	}
	if err := checkPaths(cfg); err != nil {
		return err
	}
	outPath := filepath.Join(cfg.OutputPath, output.FileName(mode, cfg.Format))
	sink, err := output.OpenSink(outPath, cfg.Format, mode, cfg.Force)
	if err != nil {
		return setupErrorf("output %s: %w", outPath, err)
	}
	key, err := secrets.APIKey(cfg.Provider, secrets.DefaultDir)
	if err != nil {
		return &SetupError{Err: err}
	}
	cfg.APIKey = key

	log, logFile, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log_level"), logPath(viper.GetString("log_file"), cfg.OutputPath))
	if err != nil {
		return err
	}
	defer closeQuietly(logFile, "log file")

	conv, err := convert.New(cfg.ConversionConfig)
	if err != nil {
		return &SetupError{Err: err}
	}
	backend, err := generate.NewBackend(cfg.AIConfig)
	if err != nil {
		return &SetupError{Err: err}
	}
	store, err := ledger.OpenStore(cfg.Ledger, cfg.OutputPath, log)
	if err != nil {
		return &SetupError{Err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := ledger.Open(ctx, store, cfg.Force, log)
	defer closeQuietly(l, "ledger")

	log.Info().
		Str("mode", string(mode)).
		Str("provider", string(cfg.Provider)).
		Str("data_directory", cfg.DataDir).
		Int("workers", cfg.Workers).
		Bool("force", cfg.Force).
		Msg("starting generation run")
	start := time.Now()

	gen := generate.New(backend, cfg.AIConfig, log)
	res, err := pipeline.New(cfg, conv, gen, l, sink, log, cmd.OutOrStdout()).Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("output", outPath).Msg("run aborted")
		return err
	}

	res.Summary.Print(cmd.OutOrStdout())
	if len(res.Records) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(res.Records), outPath)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "no new records")
	}
	log.Info().
		Int("records", len(res.Records)).
		Int("processed", res.Summary.Processed).
		Int("skipped", res.Summary.Skipped).
		Int("failed", res.Summary.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("generation run finished")

	if n := res.Summary.Interrupted; n > 0 {
		return fmt.Errorf("interrupted: %d documents not started", n)
	}
	return nil
}
