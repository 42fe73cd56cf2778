// Package fallback decides when the AI vision path runs and merges its
// output into the OCR extraction.
package fallback

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orderlens/orderlens/internal/record"
	"github.com/orderlens/orderlens/internal/vision"
)

// Mode controls whether the AI path is consulted.
type Mode string

const (
	ModeNever  Mode = "never"
	ModeHybrid Mode = "hybrid"
	ModeAlways Mode = "always"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNever, ModeHybrid, ModeAlways:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid AI mode %q (expected never, hybrid or always)", s)
	}
}

// Config tunes the orchestrator.
type Config struct {
	Mode Mode

	// ConfidenceThreshold triggers the hybrid AI path when the combined
	// OCR confidence falls below it.
	ConfidenceThreshold float64

	// MaxAttempts bounds provider calls per image, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt; later
	// delays grow exponentially.
	InitialBackoff time.Duration

	// CallTimeout caps each individual provider call.
	CallTimeout time.Duration
}

// DefaultConfig returns the standard orchestration settings.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeHybrid,
		ConfidenceThreshold: 70.0,
		MaxAttempts:         3,
		InitialBackoff:      time.Second,
		CallTimeout:         60 * time.Second,
	}
}

// Orchestrator runs the AI fallback for one pipeline. A nil provider
// degrades every invocation to OCR-only.
type Orchestrator struct {
	cfg      Config
	provider vision.Provider
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config, provider vision.Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	return &Orchestrator{cfg: cfg, provider: provider, logger: logger}
}

// ShouldInvoke reports whether the AI path runs given the OCR-derived
// fields and combined confidence.
func (o *Orchestrator) ShouldInvoke(f *record.Fields, combined float64) bool {
	switch o.cfg.Mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	if combined < o.cfg.ConfidenceThreshold {
		return true
	}
	if !f.HasOrderID() {
		return true
	}
	if !f.HasItems() {
		return true
	}
	return false
}

// Apply runs the AI path for r when warranted, merging any extracted
// fields and stamping Source and AIProvider. Provider failures degrade
// to the OCR result and never fail the record. Returns true when AI
// data was merged.
func (o *Orchestrator) Apply(ctx context.Context, r *record.Record, img image.Image) bool {
	if !o.ShouldInvoke(&r.Fields, r.Confidence) {
		return false
	}
	if o.provider == nil {
		o.logger.Warn("AI fallback wanted but no provider configured", "file", r.File)
		return false
	}

	data, err := encodePNG(img)
	if err != nil {
		o.logger.Warn("could not encode image for AI provider", "file", r.File, "error", err)
		return false
	}

	raw, err := o.callWithRetry(ctx, data)
	if err != nil {
		o.logger.Warn("AI provider unreachable, keeping OCR result",
			"file", r.File, "provider", o.provider.Name(), "error", err)
		return false
	}

	aiFields, err := vision.ParseResponse(raw)
	if err != nil {
		o.logger.Warn("unparseable AI response, keeping OCR result",
			"file", r.File, "provider", o.provider.Name(), "error", err)
		return false
	}

	ocrHadData := hasAnyField(&r.Fields)
	merged, usedAI := Merge(r.Fields, aiFields)

	// In always mode the AI call is authoritative once it parses.
	if o.cfg.Mode == ModeAlways {
		r.Fields = merged
		r.AIProvider = o.provider.Name()
		r.Source = record.SourceAI
		return true
	}

	// A reply that parses but carries no field leaves the OCR result
	// standing, provenance included.
	if !usedAI {
		o.logger.Debug("AI response carried no usable fields, keeping OCR result",
			"file", r.File, "provider", o.provider.Name())
		return false
	}

	r.Fields = merged
	r.AIProvider = o.provider.Name()
	if ocrHadData {
		r.Source = record.SourceHybrid
	} else {
		r.Source = record.SourceAI
	}
	return true
}

// callWithRetry makes bounded provider attempts with exponential
// backoff between failures.
func (o *Orchestrator) callWithRetry(ctx context.Context, image []byte) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.cfg.InitialBackoff

	req := vision.Request{
		Image:  image,
		MIME:   "image/png",
		Prompt: vision.ExtractionPrompt,
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		raw, err := o.provider.Extract(callCtx, req)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		o.logger.Debug("AI provider attempt failed",
			"provider", o.provider.Name(), "attempt", attempt, "error", err)

		if attempt == o.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}

// Merge overlays AI fields onto OCR fields, preferring the AI value
// wherever it is present and keeping the OCR value otherwise. The
// boolean reports whether any AI value was taken.
func Merge(ocr, ai record.Fields) (record.Fields, bool) {
	out := ocr
	used := false
	if ai.OrderID != "" {
		out.OrderID = ai.OrderID
		used = true
	}
	if ai.Date != "" {
		out.Date = ai.Date
		used = true
	}
	if ai.Total != nil {
		out.Total = ai.Total
		used = true
	}
	if len(ai.Items) > 0 {
		out.Items = ai.Items
		used = true
	}
	if ai.Seller != "" {
		out.Seller = ai.Seller
		used = true
	}
	if ai.TrackingNumber != "" {
		out.TrackingNumber = ai.TrackingNumber
		used = true
	}
	return out, used
}

func hasAnyField(f *record.Fields) bool {
	return f.HasOrderID() || f.HasItems() || f.Total != nil || f.Date != "" || f.Seller != "" || f.TrackingNumber != ""
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
