// Package candidate loads order screenshots and produces the crop
// variants that the recognition scorer ranks.
package candidate

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists the file extensions accepted for loading.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp"}

// LoadError describes a failure while loading or validating an input
// file. It makes the file unprocessable but never aborts the batch.
type LoadError struct {
	Operation string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Operation, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Constraints bound acceptable input files.
type Constraints struct {
	MaxFileBytes int64
	MinWidth     int
	MinHeight    int
	MaxWidth     int
	MaxHeight    int
}

// DefaultConstraints returns limits suitable for phone and desktop
// screenshots.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxFileBytes: 50 << 20,
		MinWidth:     100,
		MinHeight:    100,
		MaxWidth:     10000,
		MaxHeight:    10000,
	}
}

// IsSupportedImage reports whether the path has a supported extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Metadata captures lightweight file and pixel information.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// Load opens, decodes and validates an input file against the
// constraints. Any returned error is a *LoadError.
func Load(path string, c Constraints) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}

	f, err := os.Open(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Error closing image file: %v\n", cerr)
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: err}
	}
	if c.MaxFileBytes > 0 && fi.Size() > c.MaxFileBytes {
		return nil, Metadata{}, &LoadError{
			Operation: "validate",
			Err:       fmt.Errorf("file too large: %d bytes > %d", fi.Size(), c.MaxFileBytes),
		}
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "decode", Err: err}
	}

	b := img.Bounds()
	meta := Metadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	if err := validateDimensions(b.Dx(), b.Dy(), c); err != nil {
		return nil, meta, err
	}
	return img, meta, nil
}

func validateDimensions(w, h int, c Constraints) error {
	if c.MinWidth > 0 && (w < c.MinWidth || h < c.MinHeight) {
		return &LoadError{
			Operation: "validate",
			Err:       fmt.Errorf("image too small: %dx%d < %dx%d", w, h, c.MinWidth, c.MinHeight),
		}
	}
	if c.MaxWidth > 0 && (w > c.MaxWidth || h > c.MaxHeight) {
		return &LoadError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d > %dx%d", w, h, c.MaxWidth, c.MaxHeight),
		}
	}
	return nil
}
