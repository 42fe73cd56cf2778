package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/pipeline"
	"github.com/orderlens/orderlens/internal/record"
)

// Result is the outcome of one batch run.
type Result struct {
	Batch    *record.Batch
	Files    []string
	Summary  Summary
	Duration time.Duration
}

// Run discovers the input files for args, processes them through the
// pipeline and annotates duplicates. Duplicate detection runs after all
// workers have finished, since it compares records across files.
func Run(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, rc *pipeline.RunContext, args []string) (*Result, error) {
	files, err := Discover(args, cfg.Batch.Recursive, cfg.Batch.Include, cfg.Batch.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	start := time.Now()
	b, err := p.Run(ctx, rc, files)
	if err != nil {
		return nil, fmt.Errorf("batch processing: %w", err)
	}

	groups := 0
	if cfg.Batch.DetectDuplicates {
		groups = record.NewDeduper(record.DefaultDedupConfig()).Annotate(b)
	}

	return &Result{
		Batch:    b,
		Files:    files,
		Summary:  Summarize(b, groups),
		Duration: time.Since(start),
	}, nil
}
