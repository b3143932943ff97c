package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single model request attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"request_timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "synthetic-data-generator/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Provider names a model API backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds settings for calling the model API.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: openai or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gpt-4-turbo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint, for OpenAI-compatible APIs.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`

	// MaxRetries is the number of retry attempts for transient failures
	// (default 3). Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps the length of each model response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// TemperatureMin and TemperatureMax bound the per-request sampling
	// temperature, drawn uniformly from the range.
	TemperatureMin float64 `json:"temperature_min" yaml:"temperature_min" mapstructure:"temperature_min"`
	TemperatureMax float64 `json:"temperature_max" yaml:"temperature_max" mapstructure:"temperature_max"`

	// RequestsPerSecond paces model calls across all workers. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the token-bucket burst size used with RequestsPerSecond.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// OutputFormat selects the serialization of generated records.
type OutputFormat string

const (
	FormatCSV   OutputFormat = "csv"
	FormatJSON  OutputFormat = "json"
	FormatJSONL OutputFormat = "jsonl"
	FormatYAML  OutputFormat = "yaml"
)

// Valid reports whether f is a supported output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatJSONL, FormatYAML:
		return true
	}
	return false
}

// LedgerBackend selects how the processed-documents ledger is persisted.
type LedgerBackend string

const (
	LedgerFile   LedgerBackend = "file"
	LedgerSQLite LedgerBackend = "sqlite"
)

// PDFBackend selects the PDF text extractor.
type PDFBackend string

const (
	PDFNative     PDFBackend = "native"
	PDFMarkitdown PDFBackend = "markitdown"
)

// ConversionConfig holds settings for turning input files into text.
type ConversionConfig struct {
	// PDFBackend selects native (in-process) or markitdown (container) extraction.
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend" mapstructure:"pdf_backend"`

	// StripMarkdown renders .md input to plain text before chunking.
	StripMarkdown bool `json:"strip_markdown" yaml:"strip_markdown" mapstructure:"strip_markdown"`
}

// GenerationConfig holds settings for one generation run.
type GenerationConfig struct {
	AIConfig         `yaml:",inline" mapstructure:",squash"`
	ConversionConfig `yaml:",inline" mapstructure:",squash"`

	// Mode selects QA or DPO record synthesis.
	Mode Mode `json:"mode" yaml:"mode" mapstructure:"-"`

	// DataDir is the directory containing input documents.
	DataDir string `json:"data_directory" yaml:"data_directory" mapstructure:"data_directory"`

	// OutputPath is the directory for the output file, ledger and log.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// Format selects the output serialization.
	Format OutputFormat `json:"filetype" yaml:"filetype" mapstructure:"filetype"`

	// Force reprocesses documents already recorded in the ledger.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Recursive descends into subdirectories of DataDir.
	Recursive bool `json:"recursive" yaml:"recursive" mapstructure:"recursive"`

	// Workers is the number of documents processed concurrently (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// Ledger selects the ledger persistence backend.
	Ledger LedgerBackend `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
}
