// Package testutil provides helpers for generating synthetic order
// screenshots in tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ReceiptConfig controls synthetic order screenshot generation.
type ReceiptConfig struct {
	Lines      []string
	Width      int
	LineHeight int
	Margin     int
	Background color.Color
	Foreground color.Color
	Rotation   float64 // degrees, applied last
}

// DefaultReceiptConfig returns a layout resembling a cropped order
// confirmation screenshot.
func DefaultReceiptConfig() ReceiptConfig {
	return ReceiptConfig{
		Lines: []string{
			"Order Placed: January 5, 2024",
			"Order # 113-4567890-1234567",
			"Wireless Bluetooth Headphones $59.99",
			"Sold by: Acme Retail",
			"Order Total: $59.99",
		},
		Width:      480,
		LineHeight: 20,
		Margin:     16,
		Background: color.White,
		Foreground: color.Black,
	}
}

// GenerateReceiptImage renders the configured text lines onto a plain
// background, one line per row.
func GenerateReceiptImage(cfg ReceiptConfig) image.Image {
	height := cfg.Margin*2 + cfg.LineHeight*len(cfg.Lines)
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: basicfont.Face7x13,
	}
	for i, line := range cfg.Lines {
		drawer.Dot = fixed.P(cfg.Margin, cfg.Margin+cfg.LineHeight*(i+1))
		drawer.DrawString(line)
	}

	if cfg.Rotation != 0 {
		return imaging.Rotate(img, cfg.Rotation, cfg.Background)
	}
	return img
}

// SaveReceiptImage renders a receipt and writes it as PNG under dir,
// returning the file path.
func SaveReceiptImage(t *testing.T, dir, name string, cfg ReceiptConfig) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(GenerateReceiptImage(cfg), path))
	return path
}
