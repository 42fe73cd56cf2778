package candidate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// SaveDebug persists a candidate image for inspection, named after the
// source file and the strategy. Callers treat failures as advisory.
func SaveDebug(dir, sourceFile string, c Candidate) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("debug directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	safe := strings.ReplaceAll(c.Name, " ", "_")
	out := filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, safe))

	if err := imaging.Save(c.Image, out); err != nil {
		return "", fmt.Errorf("save debug image: %w", err)
	}
	return out, nil
}
