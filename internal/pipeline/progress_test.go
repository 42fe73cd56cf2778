package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingCallback struct {
	mu        sync.Mutex
	starts    []int
	progress  []int
	errors    []string
	completes int
}

func (r *recordingCallback) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, total)
}

func (r *recordingCallback) OnProgress(done, _ int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, done)
}

func (r *recordingCallback) OnError(file string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, file)
}

func (r *recordingCallback) OnComplete(int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func TestThrottledProgressCallback(t *testing.T) {
	inner := &recordingCallback{}
	th := NewThrottledProgressCallback(inner, time.Hour)

	th.OnStart(3)
	th.OnProgress(1, 3, "a.png")
	th.OnProgress(2, 3, "b.png")
	th.OnProgress(3, 3, "c.png")
	th.OnError("b.png", errors.New("boom"))
	th.OnComplete(3, time.Second)

	// The first update passes, the second is suppressed, the final one
	// always passes.
	assert.Equal(t, []int{1, 3}, inner.progress)
	assert.Equal(t, []int{3}, inner.starts)
	assert.Equal(t, []string{"b.png"}, inner.errors)
	assert.Equal(t, 1, inner.completes)
}

func TestMultiProgressCallback(t *testing.T) {
	a := &recordingCallback{}
	b := &recordingCallback{}
	multi := NewMultiProgressCallback(a, b)

	multi.OnStart(2)
	multi.OnProgress(1, 2, "x.png")
	multi.OnComplete(2, time.Second)

	for _, cb := range []*recordingCallback{a, b} {
		assert.Equal(t, []int{2}, cb.starts)
		assert.Equal(t, []int{1}, cb.progress)
		assert.Equal(t, 1, cb.completes)
	}
}

func TestNoOpProgressCallbackIsSafe(t *testing.T) {
	var cb NoOpProgressCallback
	cb.OnStart(1)
	cb.OnProgress(1, 1, "a.png")
	cb.OnError("a.png", errors.New("boom"))
	cb.OnComplete(1, time.Second)
}
