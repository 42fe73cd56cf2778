// Package recognize runs text recognition over crop candidates and
// selects the best one.
package recognize

import (
	"context"
	"image"
)

// Result is one recognizer invocation's output. Confidence is a
// token-length-weighted aggregate in [0, 100], so long confidently-read
// words count for more than stray single characters.
type Result struct {
	Text       string
	Confidence float64
}

// Recognizer converts an image into text with a confidence estimate.
// Implementations must be safe for use from a single goroutine; the
// worker pool gives each worker its own instance.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (Result, error)
	Close() error
}
