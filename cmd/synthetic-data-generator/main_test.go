// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

func TestLoadGenerationConfig(t *testing.T) {
	base := map[string]any{
		"data_directory":  "docs",
		"filetype":        "jsonl",
		"workers":         4,
		"chunk_size":      100,
		"request_timeout": "30s",
		"provider":        "anthropic",
		"temperature_min": 0.0,
		"temperature_max": 0.7,
	}
	tests := []struct {
		name     string
		override map[string]any
		wantErr  string
	}{
		{name: "valid"},
		{name: "missing data directory", override: map[string]any{"data_directory": ""}, wantErr: "--data_directory is required"},
		{name: "bad format", override: map[string]any{"filetype": "xml"}, wantErr: "--filetype"},
		{name: "no workers", override: map[string]any{"workers": 0}, wantErr: "--workers"},
		{name: "bad provider", override: map[string]any{"provider": "cohere"}, wantErr: "--provider"},
		{name: "inverted temperature", override: map[string]any{"temperature_min": 0.9, "temperature_max": 0.1}, wantErr: "temperature range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			for k, v := range base {
				viper.Set(k, v)
			}
			for k, v := range tt.override {
				viper.Set(k, v)
			}

			cfg, err := loadGenerationConfig(types.ModeDPO)
			if tt.wantErr != "" {
				require.Error(t, err)
				var se *SetupError
				assert.True(t, errors.As(err, &se))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, types.ModeDPO, cfg.Mode)
			assert.Equal(t, types.FormatJSONL, cfg.Format)
			assert.Equal(t, types.ProviderAnthropic, cfg.Provider)
			assert.Equal(t, 30*time.Second, cfg.Timeout)
			assert.Equal(t, 100, cfg.ChunkSize)
			assert.Equal(t, "synthetic-data-generator/dev", cfg.UserAgent)
		})
	}
}

func TestCheckPaths(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "new", "out")

	require.NoError(t, checkPaths(types.GenerationConfig{DataDir: dir, OutputPath: out}))
	assert.DirExists(t, out)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = checkPaths(types.GenerationConfig{DataDir: filepath.Join(dir, "missing"), OutputPath: out})
	var se *SetupError
	assert.ErrorAs(t, err, &se)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestQACommandEndToEnd(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1700000000,"model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"<question>What color is the sky?</question><answer>Blue.</answer>"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer ts.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")

	data := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(data, "facts.txt"), []byte("The sky is blue. Water boils at 100C."), 0o644))

	args := []string{"qa",
		"--data_directory", data,
		"--output_path", out,
		"--filetype", "csv",
		"--base_url", ts.URL,
		"--model", "gpt-test",
	}
	stdout, err := execute(t, args...)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, stdout, "processed facts.txt (1/1 chunks)")
	assert.Contains(t, stdout, "wrote 1 records to")

	f, err := os.Open(filepath.Join(out, "output_qa.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"question", "answer", "source"},
		{"What color is the sky?", "Blue.", "facts.txt#0"},
	}, rows)
	assert.FileExists(t, filepath.Join(out, "processed_files.txt"))
	assert.FileExists(t, filepath.Join(out, "generation.log"))

	// A second run finds the document in the ledger and calls nothing.
	stdout, err = execute(t, args...)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, stdout, "skipped facts.txt")
	assert.Contains(t, stdout, "no new records")

	stdout, err = execute(t, "ledger", "list", "--output_path", out)
	require.NoError(t, err)
	assert.Equal(t, "facts.txt\n", stdout)
}

func TestQACommandRejectsUnreadableOutput(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")

	data := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(data, "facts.txt"), []byte("The sky is blue."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "output_qa.csv"), []byte("question,answer,source\n\"broken,row\n"), 0o644))

	_, err := execute(t, "qa",
		"--data_directory", data,
		"--output_path", out,
		"--filetype", "csv",
		"--base_url", ts.URL,
	)
	var se *SetupError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "output_qa.csv")
	assert.Zero(t, calls.Load())
	assert.NoFileExists(t, filepath.Join(out, "processed_files.txt"))
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "synthetic-data-generator "+version+"\n", stdout)
}
