package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"unicode/utf8"

	"github.com/orderlens/orderlens/internal/candidate"
	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/recognize"
	"github.com/orderlens/orderlens/internal/record"
)

// RunContext carries per-run state shared by the stages: the logger,
// the progress sink and run counters. One RunContext spans one batch.
type RunContext struct {
	Logger   *slog.Logger
	Progress ProgressCallback

	aiCalls  atomic.Int64
	failures atomic.Int64
}

// NewRunContext creates a run context. Nil arguments fall back to the
// defaults.
func NewRunContext(logger *slog.Logger, progress ProgressCallback) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	return &RunContext{Logger: logger, Progress: progress}
}

// AICalls returns how many records used the AI path so far.
func (rc *RunContext) AICalls() int64 { return rc.aiCalls.Load() }

// Failures returns how many records failed so far.
func (rc *RunContext) Failures() int64 { return rc.failures.Load() }

// ProcessFile runs the full extraction for one input file. It always
// returns a record; fatal per-image conditions yield a Failed record,
// never an error, so batch output count matches input count.
func (p *Pipeline) ProcessFile(ctx context.Context, rc *RunContext, rec recognize.Recognizer, path string) *record.Record {
	name := filepath.Base(path)
	log := rc.Logger.With("file", name)

	img, _, err := candidate.Load(path, p.constraints)
	if err != nil {
		log.Error("cannot load image", "error", err)
		rc.failures.Add(1)
		return record.NewFailed(name, err.Error())
	}

	cands := p.generator.Generate(img)

	scorer := recognize.NewScorer(rec, p.scorerCfg, log)
	sel, err := scorer.Best(ctx, cands)
	if err != nil {
		log.Warn("recognition interrupted", "error", err)
		rc.failures.Add(1)
		return record.NewFailed(name, "processing interrupted: "+err.Error())
	}
	log.Debug("selected crop", "strategy", sel.Strategy, "confidence", sel.Confidence)

	if p.cfg.Debug.SaveImages {
		saved, err := candidate.SaveDebug(p.cfg.Debug.Dir, name, candidate.Candidate{
			Name:  sel.Strategy,
			Image: sel.Image,
		})
		if err != nil {
			log.Warn("debug image not saved", "error", err)
		} else {
			log.Debug("debug image saved", "path", saved)
		}
	}

	fields := extract.Parse(sel.Text)
	r := &record.Record{
		File:          name,
		Fields:        fields,
		OCRConfidence: sel.Confidence,
		CropStrategy:  sel.Strategy,
		Source:        record.SourceOCR,
	}
	r.Confidence = extract.Confidence(&r.Fields, sel.Confidence)

	if p.orchestrator.Apply(ctx, r, sel.Image) {
		rc.aiCalls.Add(1)
		// AI data changes the structural bonuses.
		r.Confidence = extract.Confidence(&r.Fields, sel.Confidence)
	}

	if limit := p.cfg.Pipeline.RawTextLimit; limit > 0 {
		r.RawText = snippet(sel.Text, limit)
	}

	p.validator.Validate(r)
	if r.Status == record.StatusFailed {
		rc.failures.Add(1)
	}

	log.Info("processed",
		"status", r.Status,
		"source", r.Source,
		"confidence", r.Confidence,
		"crop", r.CropStrategy)
	return r
}

func snippet(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
