package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig tunes the Tesseract backend.
type TesseractConfig struct {
	Language string
	// MinHeight upscales smaller inputs before recognition; screenshots
	// below ~900px tend to lose small print.
	MinHeight int
}

// DefaultTesseractConfig returns settings tuned for order screenshots.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Language:  "eng",
		MinHeight: 900,
	}
}

// Tesseract recognizes text through the system Tesseract library. One
// instance owns one gosseract client and is not goroutine-safe.
type Tesseract struct {
	cfg    TesseractConfig
	client *gosseract.Client
}

var _ Recognizer = (*Tesseract)(nil)

// NewTesseract creates a Tesseract recognizer.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	if cfg.Language == "" {
		cfg.Language = DefaultTesseractConfig().Language
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = DefaultTesseractConfig().MinHeight
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return &Tesseract{cfg: cfg, client: client}, nil
}

// Recognize runs one recognition pass over img. The image is expected
// to be polarity-adjusted already; this method only grayscales,
// sharpens and upscales.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	prepared := t.prepare(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	// Text keeps line structure, which downstream field parsing needs;
	// the word boxes only feed the confidence aggregate.
	text, err := t.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("word confidences: %w", err)
	}

	var weighted, totalLen float64
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		n := float64(len(word))
		weighted += box.Confidence * n
		totalLen += n
	}

	res := Result{Text: strings.TrimSpace(text)}
	if totalLen > 0 {
		res.Confidence = weighted / totalLen
	}
	return res, nil
}

// Close releases the underlying Tesseract client.
func (t *Tesseract) Close() error { return t.client.Close() }

func (t *Tesseract) prepare(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < t.cfg.MinHeight {
		gray = imaging.Resize(gray, 0, t.cfg.MinHeight, imaging.Lanczos)
	}
	return gray
}
