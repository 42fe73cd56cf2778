package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives notifications while a batch is processed.
// Implementations must be safe for concurrent use; workers report from
// multiple goroutines.
type ProgressCallback interface {
	// OnStart is called once before the first file is processed.
	OnStart(total int)

	// OnProgress is called after each file finishes, successfully or not.
	OnProgress(done, total int, file string)

	// OnError is called when a file yields a failed record.
	OnError(file string, err error)

	// OnComplete is called once after the last file, with the elapsed
	// wall time.
	OnComplete(total int, elapsed time.Duration)
}

// NoOpProgressCallback discards all notifications.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                   {}
func (NoOpProgressCallback) OnProgress(int, int, string)   {}
func (NoOpProgressCallback) OnError(string, error)         {}
func (NoOpProgressCallback) OnComplete(int, time.Duration) {}

// ConsoleProgressCallback renders a simple progress bar on stdout.
type ConsoleProgressCallback struct {
	mu    sync.Mutex
	width int
}

// NewConsoleProgressCallback creates a console progress bar.
func NewConsoleProgressCallback() *ConsoleProgressCallback {
	return &ConsoleProgressCallback{width: 30}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf("Processing %d file(s)...\n", total)
}

func (c *ConsoleProgressCallback) OnProgress(done, total int, file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total <= 0 {
		return
	}
	filled := done * c.width / total
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", c.width-filled)
	fmt.Printf("\r[%s] %d/%d %s", bar, done, total, file)
	if done == total {
		fmt.Println()
	}
}

func (c *ConsoleProgressCallback) OnError(file string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf("\n%s: %v\n", file, err)
}

func (c *ConsoleProgressCallback) OnComplete(total int, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf("Done: %d file(s) in %s\n", total, elapsed.Round(time.Millisecond))
}

// LogProgressCallback reports progress through a structured logger,
// for non-interactive runs.
type LogProgressCallback struct {
	logger *slog.Logger
}

// NewLogProgressCallback creates a logger-backed progress callback.
func NewLogProgressCallback(logger *slog.Logger) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.logger.Info("batch started", "total", total)
}

func (l *LogProgressCallback) OnProgress(done, total int, file string) {
	l.logger.Debug("file finished", "done", done, "total", total, "file", file)
}

func (l *LogProgressCallback) OnError(file string, err error) {
	l.logger.Warn("file failed", "file", file, "error", err)
}

func (l *LogProgressCallback) OnComplete(total int, elapsed time.Duration) {
	l.logger.Info("batch complete", "total", total, "elapsed", elapsed)
}

// ThrottledProgressCallback forwards OnProgress at most once per
// interval. Start, error and completion events always pass through.
type ThrottledProgressCallback struct {
	inner    ProgressCallback
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottledProgressCallback wraps inner, rate limiting progress updates.
func NewThrottledProgressCallback(inner ProgressCallback, interval time.Duration) *ThrottledProgressCallback {
	return &ThrottledProgressCallback{inner: inner, interval: interval}
}

func (t *ThrottledProgressCallback) OnStart(total int) {
	t.inner.OnStart(total)
}

func (t *ThrottledProgressCallback) OnProgress(done, total int, file string) {
	t.mu.Lock()
	now := time.Now()
	// The final update always goes through so the bar can finish.
	if done < total && now.Sub(t.last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()
	t.inner.OnProgress(done, total, file)
}

func (t *ThrottledProgressCallback) OnError(file string, err error) {
	t.inner.OnError(file, err)
}

func (t *ThrottledProgressCallback) OnComplete(total int, elapsed time.Duration) {
	t.inner.OnComplete(total, elapsed)
}

// MultiProgressCallback fans notifications out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback combines callbacks into one.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnProgress(done, total int, file string) {
	for _, cb := range m.callbacks {
		cb.OnProgress(done, total, file)
	}
}

func (m *MultiProgressCallback) OnError(file string, err error) {
	for _, cb := range m.callbacks {
		cb.OnError(file, err)
	}
}

func (m *MultiProgressCallback) OnComplete(total int, elapsed time.Duration) {
	for _, cb := range m.callbacks {
		cb.OnComplete(total, elapsed)
	}
}
