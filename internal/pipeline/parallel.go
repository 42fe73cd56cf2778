package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/orderlens/orderlens/internal/recognize"
	"github.com/orderlens/orderlens/internal/record"
)

type fileJob struct {
	index int
	path  string
}

type fileResult struct {
	index int
	rec   *record.Record
}

// Run processes the given files concurrently and returns one record per
// input, in input order. Worker count comes from the batch
// configuration; each worker owns its own recognizer instance.
func (p *Pipeline) Run(ctx context.Context, rc *RunContext, files []string) (*record.Batch, error) {
	if rc == nil {
		rc = NewRunContext(p.logger, nil)
	}
	batch := &record.Batch{}
	if len(files) == 0 {
		return batch, nil
	}

	workers := p.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	// Recognizers are created up front so a broken backend fails the
	// run instead of every file.
	recognizers := make([]recognize.Recognizer, workers)
	for i := range recognizers {
		r, err := p.newRecognize()
		if err != nil {
			for _, made := range recognizers[:i] {
				made.Close()
			}
			return nil, fmt.Errorf("create recognizer: %w", err)
		}
		recognizers[i] = r
	}
	defer func() {
		for _, r := range recognizers {
			if err := r.Close(); err != nil {
				rc.Logger.Warn("recognizer close failed", "error", err)
			}
		}
	}()

	start := time.Now()
	rc.Progress.OnStart(len(files))

	jobs := make(chan fileJob, len(files))
	results := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	var done int
	var doneMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(rec recognize.Recognizer) {
			defer wg.Done()
			for job := range jobs {
				r := p.ProcessFile(ctx, rc, rec, job.path)

				doneMu.Lock()
				done++
				n := done
				doneMu.Unlock()
				rc.Progress.OnProgress(n, len(files), r.File)
				if r.Status == record.StatusFailed {
					rc.Progress.OnError(r.File, fmt.Errorf("%s", r.Note))
				}

				results <- fileResult{index: job.index, rec: r}
			}
		}(recognizers[w])
	}

	for i, path := range files {
		jobs <- fileJob{index: i, path: path}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*record.Record, len(files))
	for res := range results {
		ordered[res.index] = res.rec
	}

	// A cancelled context can leave gaps; every input still gets a record.
	for i, r := range ordered {
		if r == nil {
			r = record.NewFailed(filepath.Base(files[i]), "not processed")
		}
		batch.Append(r)
	}

	rc.Progress.OnComplete(len(files), time.Since(start))
	return batch, ctx.Err()
}
