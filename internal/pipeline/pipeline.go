// Package pipeline wires candidate generation, recognition, field
// extraction, the AI fallback and validation into a per-image run, and
// fans that run out over a worker pool for batches.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/orderlens/orderlens/internal/candidate"
	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/fallback"
	"github.com/orderlens/orderlens/internal/recognize"
	"github.com/orderlens/orderlens/internal/record"
	"github.com/orderlens/orderlens/internal/vision"
	"github.com/orderlens/orderlens/internal/vision/anthropic"
	"github.com/orderlens/orderlens/internal/vision/gemini"
	"github.com/orderlens/orderlens/internal/vision/ollama"
	"github.com/orderlens/orderlens/internal/vision/openai"
)

// RecognizerFactory creates one recognizer instance per worker, since
// backends are not goroutine-safe.
type RecognizerFactory func() (recognize.Recognizer, error)

// Pipeline holds everything needed to process images into order
// records. Build one with NewBuilder.
type Pipeline struct {
	cfg          *config.Config
	logger       *slog.Logger
	newRecognize RecognizerFactory
	generator    *candidate.Generator
	orchestrator *fallback.Orchestrator
	validator    *record.Validator
	constraints  candidate.Constraints
	scorerCfg    recognize.ScorerConfig
}

// Builder assembles a Pipeline step by step.
type Builder struct {
	cfg          *config.Config
	logger       *slog.Logger
	provider     vision.Provider
	providerSet  bool
	newRecognize RecognizerFactory
	constraints  candidate.Constraints
}

// NewBuilder creates a builder with defaults from the configuration
// package.
func NewBuilder() *Builder {
	return &Builder{
		cfg:         config.DefaultConfig(),
		constraints: candidate.DefaultConstraints(),
	}
}

// WithConfig sets the application configuration.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	if cfg != nil {
		b.cfg = cfg
	}
	return b
}

// WithLogger sets the logger used by all stages.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithProvider overrides the AI vision provider. Passing nil forces
// OCR-only operation regardless of the configured mode.
func (b *Builder) WithProvider(p vision.Provider) *Builder {
	b.provider = p
	b.providerSet = true
	return b
}

// WithRecognizerFactory overrides how per-worker recognizers are made.
func (b *Builder) WithRecognizerFactory(f RecognizerFactory) *Builder {
	b.newRecognize = f
	return b
}

// WithConstraints overrides the input image constraints.
func (b *Builder) WithConstraints(c candidate.Constraints) *Builder {
	b.constraints = c
	return b
}

// Build validates the configuration and assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := fallback.ParseMode(b.cfg.AI.Mode)
	if err != nil {
		return nil, err
	}

	provider := b.provider
	if !b.providerSet && mode != fallback.ModeNever {
		provider, err = NewProvider(b.cfg)
		if err != nil {
			// Mode always cannot run without its provider; hybrid
			// degrades to OCR-only.
			if mode == fallback.ModeAlways {
				return nil, fmt.Errorf("initialize AI provider: %w", err)
			}
			logger.Warn("AI provider unavailable, continuing OCR-only", "error", err)
			provider = nil
		}
	}

	newRecognize := b.newRecognize
	if newRecognize == nil {
		recCfg := recognize.TesseractConfig{
			Language:  b.cfg.Pipeline.Recognizer.Language,
			MinHeight: b.cfg.Pipeline.Recognizer.MinHeight,
		}
		newRecognize = func() (recognize.Recognizer, error) {
			return recognize.NewTesseract(recCfg)
		}
	}

	generator := candidate.NewGenerator(candidate.Config{
		Crops:      candidate.DefaultCropSpecs(),
		Aggressive: b.cfg.Pipeline.Candidates.Aggressive,
		Deskew:     b.cfg.Pipeline.Candidates.Deskew,
		MinRegion:  b.cfg.Pipeline.Candidates.MinRegion,
	}, logger)

	orchestrator := fallback.New(fallback.Config{
		Mode:                mode,
		ConfidenceThreshold: b.cfg.Pipeline.ConfidenceThreshold,
		MaxAttempts:         b.cfg.AI.MaxAttempts,
		InitialBackoff:      time.Duration(b.cfg.AI.InitialBackoffMS) * time.Millisecond,
		CallTimeout:         time.Duration(b.cfg.AI.CallTimeoutSec) * time.Second,
	}, provider, logger)

	validator := record.NewValidator(record.ValidatorConfig{
		ReviewThreshold: b.cfg.Pipeline.ReviewThreshold,
		TotalTolerance:  b.cfg.Pipeline.TotalTolerance,
	})

	return &Pipeline{
		cfg:          b.cfg,
		logger:       logger,
		newRecognize: newRecognize,
		generator:    generator,
		orchestrator: orchestrator,
		validator:    validator,
		constraints:  b.constraints,
		scorerCfg:    recognize.ScorerConfig{EarlyExitConfidence: b.cfg.Pipeline.ConfidenceThreshold},
	}, nil
}

// NewProvider constructs the configured vision provider.
func NewProvider(cfg *config.Config) (vision.Provider, error) {
	switch cfg.AI.Provider {
	case "openai":
		return openai.New(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model, openai.WithURL(cfg.AI.OpenAI.BaseURL))
	case "anthropic":
		return anthropic.New(cfg.AI.Anthropic.APIKey, cfg.AI.Anthropic.Model, anthropic.WithURL(cfg.AI.Anthropic.BaseURL))
	case "gemini":
		return gemini.New(cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model)
	case "ollama":
		return ollama.New(cfg.AI.Ollama.URL, cfg.AI.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
}
