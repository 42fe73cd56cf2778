// Package config holds the application configuration loaded from file,
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
)

// Config represents the complete configuration for the orderlens
// application. It supports loading from configuration files,
// environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// AI fallback configuration
	AI AIConfig `mapstructure:"ai" yaml:"ai" json:"ai"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Debug image persistence
	Debug DebugConfig `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// PipelineConfig contains per-image extraction settings.
type PipelineConfig struct {
	// Recognition settings
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`

	// Candidate generation settings
	Candidates CandidateConfig `mapstructure:"candidates" yaml:"candidates" json:"candidates"`

	// ConfidenceThreshold stops crop scoring early and triggers the
	// hybrid AI path when combined confidence stays below it.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`

	// ReviewThreshold downgrades successful records below it to review.
	ReviewThreshold float64 `mapstructure:"review_threshold" yaml:"review_threshold" json:"review_threshold"`

	// TotalTolerance is the allowed relative gap between the order
	// total and the item price sum.
	TotalTolerance float64 `mapstructure:"total_tolerance" yaml:"total_tolerance" json:"total_tolerance"`

	// RawTextLimit caps the recognized-text snippet kept on records.
	// Zero disables the snippet.
	RawTextLimit int `mapstructure:"raw_text_limit" yaml:"raw_text_limit" json:"raw_text_limit"`
}

// RecognizerConfig contains text recognition settings.
type RecognizerConfig struct {
	Language  string `mapstructure:"language" yaml:"language" json:"language"`
	MinHeight int    `mapstructure:"min_height" yaml:"min_height" json:"min_height"`
}

// CandidateConfig contains crop candidate generation settings.
type CandidateConfig struct {
	Aggressive bool `mapstructure:"aggressive" yaml:"aggressive" json:"aggressive"`
	Deskew     bool `mapstructure:"deskew" yaml:"deskew" json:"deskew"`
	MinRegion  int  `mapstructure:"min_region" yaml:"min_region" json:"min_region"`
}

// AIConfig contains AI fallback settings.
type AIConfig struct {
	// Mode is never, hybrid or always.
	Mode string `mapstructure:"mode" yaml:"mode" json:"mode"`

	// Provider selects the vision backend: openai, anthropic, gemini
	// or ollama.
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"`

	MaxAttempts      int `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	InitialBackoffMS int `mapstructure:"initial_backoff_ms" yaml:"initial_backoff_ms" json:"initial_backoff_ms"`
	CallTimeoutSec   int `mapstructure:"call_timeout_sec" yaml:"call_timeout_sec" json:"call_timeout_sec"`

	OpenAI    OpenAIConfig    `mapstructure:"openai" yaml:"openai" json:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic" json:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini" yaml:"gemini" json:"gemini"`
	Ollama    OllamaConfig    `mapstructure:"ollama" yaml:"ollama" json:"ollama"`
}

// OpenAIConfig contains OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model   string `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// AnthropicConfig contains Anthropic provider settings.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model   string `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// GeminiConfig contains Gemini provider settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model  string `mapstructure:"model" yaml:"model" json:"model"`
}

// OllamaConfig contains Ollama provider settings.
type OllamaConfig struct {
	URL   string `mapstructure:"url" yaml:"url" json:"url"`
	Model string `mapstructure:"model" yaml:"model" json:"model"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers          int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive        bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include          []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude          []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	DetectDuplicates bool     `mapstructure:"detect_duplicates" yaml:"detect_duplicates" json:"detect_duplicates"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Format is csv, json, spreadsheet, report or all.
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// DebugConfig controls candidate image persistence.
type DebugConfig struct {
	SaveImages bool   `mapstructure:"save_images" yaml:"save_images" json:"save_images"`
	Dir        string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Recognizer: RecognizerConfig{
				Language:  "eng",
				MinHeight: 900,
			},
			Candidates: CandidateConfig{
				Deskew:    true,
				MinRegion: 50,
			},
			ConfidenceThreshold: 70.0,
			ReviewThreshold:     40.0,
			TotalTolerance:      0.25,
			RawTextLimit:        200,
		},
		AI: AIConfig{
			Mode:             "hybrid",
			Provider:         "ollama",
			MaxAttempts:      3,
			InitialBackoffMS: 1000,
			CallTimeoutSec:   60,
			OpenAI:           OpenAIConfig{Model: "gpt-4o"},
			Anthropic:        AnthropicConfig{Model: "claude-sonnet-4-5"},
			Gemini:           GeminiConfig{Model: "gemini-2.0-flash"},
			Ollama:           OllamaConfig{URL: "http://localhost:11434", Model: "llava"},
		},
		Batch: BatchConfig{
			Workers:          runtime.NumCPU(),
			DetectDuplicates: true,
		},
		Output: OutputConfig{
			Format: "csv",
			File:   "orders.csv",
		},
		Debug: DebugConfig{
			Dir: "debug_images",
		},
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validModes = map[string]bool{"never": true, "hybrid": true, "always": true}

var validProviders = map[string]bool{"openai": true, "anthropic": true, "gemini": true, "ollama": true}

var validFormats = map[string]bool{"csv": true, "json": true, "spreadsheet": true, "report": true, "all": true}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if !validModes[c.AI.Mode] {
		return fmt.Errorf("invalid ai.mode %q (expected never, hybrid or always)", c.AI.Mode)
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format %q", c.Output.Format)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 100 {
		return errors.New("pipeline.confidence_threshold must be in [0, 100]")
	}
	if c.Pipeline.ReviewThreshold < 0 || c.Pipeline.ReviewThreshold > 100 {
		return errors.New("pipeline.review_threshold must be in [0, 100]")
	}
	if c.Pipeline.TotalTolerance < 0 || c.Pipeline.TotalTolerance > 1 {
		return errors.New("pipeline.total_tolerance must be in [0, 1]")
	}
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must not be negative")
	}
	if c.AI.MaxAttempts < 1 {
		return errors.New("ai.max_attempts must be at least 1")
	}
	return nil
}

// APIKeyFor returns the configured credential for the named provider.
// Ollama needs none.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.AI.OpenAI.APIKey
	case "anthropic":
		return c.AI.Anthropic.APIKey
	case "gemini":
		return c.AI.Gemini.APIKey
	}
	return ""
}
