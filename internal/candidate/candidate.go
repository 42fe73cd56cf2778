package candidate

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// Candidate is one crop variant of an input image. Priority is the
// generation index and breaks score ties in the recognition scorer
// (lower wins).
type Candidate struct {
	Name     string
	Priority int
	Image    image.Image
}

// CropSpec trims the given fractions from each edge.
type CropSpec struct {
	Name   string  `mapstructure:"name" yaml:"name" json:"name"`
	Top    float64 `mapstructure:"top" yaml:"top" json:"top"`
	Bottom float64 `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
	Left   float64 `mapstructure:"left" yaml:"left" json:"left"`
	Right  float64 `mapstructure:"right" yaml:"right" json:"right"`
}

// DefaultCropSpecs returns the crop strategies tried after the full
// image, in priority order.
func DefaultCropSpecs() []CropSpec {
	return []CropSpec{
		{Name: "No Bottom 20%", Bottom: 0.2},
		{Name: "No Top 20%", Top: 0.2},
		{Name: "No Top 15%", Top: 0.15},
		{Name: "Center 80%", Top: 0.1, Bottom: 0.1, Left: 0.1, Right: 0.1},
		{Name: "Tight Center", Top: 0.1, Bottom: 0.1, Left: 0.05, Right: 0.05},
	}
}

// StrategyError reports that one strategy could not produce a usable
// candidate. The generator skips the strategy and continues.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %q: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Config controls candidate generation.
type Config struct {
	Crops []CropSpec

	// Aggressive adds a content-trim crop that discards uniform margins
	// around the receipt area.
	Aggressive bool

	// Deskew adds a rotation-corrected candidate when the estimated
	// skew angle is significant.
	Deskew bool

	// MinRegion is the minimum width and height in pixels a cropped
	// candidate must keep.
	MinRegion int
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		Crops:     DefaultCropSpecs(),
		Deskew:    true,
		MinRegion: 50,
	}
}

// Generator produces crop candidates for one image.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil logger falls back to the
// default slog logger.
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinRegion <= 0 {
		cfg.MinRegion = DefaultConfig().MinRegion
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate returns the candidate list for img, always at least the
// untouched full image at priority 0. Strategy failures are logged and
// skipped, never fatal.
func (g *Generator) Generate(img image.Image) []Candidate {
	out := []Candidate{{Name: "Full Image", Priority: 0, Image: img}}

	for _, spec := range g.cfg.Crops {
		cropped, err := g.applyCrop(img, spec)
		if err != nil {
			g.logger.Debug("skipping crop strategy", "strategy", spec.Name, "error", err)
			continue
		}
		out = append(out, Candidate{Name: spec.Name, Priority: len(out), Image: cropped})
	}

	if g.cfg.Aggressive {
		if trimmed, ok := g.contentTrim(img); ok {
			out = append(out, Candidate{Name: "Receipt Trim", Priority: len(out), Image: trimmed})
		}
	}

	if g.cfg.Deskew {
		if angle := estimateSkew(img); math.Abs(angle) >= 0.5 {
			rotated := imaging.Rotate(img, angle, color.White)
			out = append(out, Candidate{Name: "Deskewed", Priority: len(out), Image: rotated})
			g.logger.Debug("added deskewed candidate", "angle", angle)
		}
	}

	return out
}

// applyCrop trims the spec's edge fractions, rejecting degenerate or
// too-small regions.
func (g *Generator) applyCrop(img image.Image, spec CropSpec) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	startX := b.Min.X + int(float64(w)*spec.Left)
	endX := b.Max.X - int(float64(w)*spec.Right)
	startY := b.Min.Y + int(float64(h)*spec.Top)
	endY := b.Max.Y - int(float64(h)*spec.Bottom)

	if endX <= startX || endY <= startY {
		return nil, &StrategyError{Strategy: spec.Name, Err: fmt.Errorf("empty region y(%d:%d) x(%d:%d)", startY, endY, startX, endX)}
	}
	if endX-startX < g.cfg.MinRegion || endY-startY < g.cfg.MinRegion {
		return nil, &StrategyError{Strategy: spec.Name, Err: fmt.Errorf("region below %dpx minimum", g.cfg.MinRegion)}
	}

	return imaging.Crop(img, image.Rect(startX, startY, endX, endY)), nil
}

// contentTrim finds the bounding box of pixels that differ from the
// dominant corner color and crops to it with a small margin. Returns
// false when the trim would not remove anything useful.
func (g *Generator) contentTrim(img image.Image) (image.Image, bool) {
	gray := imaging.Grayscale(imaging.Fit(img, 400, 400, imaging.Box))
	gb := gray.Bounds()
	bgLum := cornerLuminance(gray)

	const tolerance = 40
	minX, minY := gb.Max.X, gb.Max.Y
	maxX, maxY := gb.Min.X, gb.Min.Y
	for y := gb.Min.Y; y < gb.Max.Y; y++ {
		for x := gb.Min.X; x < gb.Max.X; x++ {
			if absDiff(luminance(gray.At(x, y)), bgLum) > tolerance {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX <= minX || maxY <= minY {
		return nil, false
	}

	// Scale the box back to the source image coordinates.
	b := img.Bounds()
	sx := float64(b.Dx()) / float64(gb.Dx())
	sy := float64(b.Dy()) / float64(gb.Dy())
	const margin = 4
	rect := image.Rect(
		b.Min.X+maxInt(0, int(float64(minX)*sx)-margin),
		b.Min.Y+maxInt(0, int(float64(minY)*sy)-margin),
		b.Min.X+minInt(b.Dx(), int(float64(maxX+1)*sx)+margin),
		b.Min.Y+minInt(b.Dy(), int(float64(maxY+1)*sy)+margin),
	)
	if rect.Dx() < g.cfg.MinRegion || rect.Dy() < g.cfg.MinRegion {
		return nil, false
	}
	// Not worth a candidate when nearly the whole frame is content.
	if rect.Dx() > b.Dx()*95/100 && rect.Dy() > b.Dy()*95/100 {
		return nil, false
	}
	return imaging.Crop(img, rect), true
}

// estimateSkew searches small rotation angles for the one that
// maximizes the variance of the horizontal projection profile. Text
// lines aligned with the x-axis produce the sharpest profile.
func estimateSkew(img image.Image) float64 {
	gray := imaging.Grayscale(imaging.Fit(img, 600, 600, imaging.Box))
	b := gray.Bounds()
	if b.Dx() < 10 || b.Dy() < 10 {
		return 0
	}

	// Dark-pixel coordinates drive the projection.
	type pt struct{ x, y int }
	var dark []pt
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x += 2 {
			if luminance(gray.At(x, y)) < 128 {
				dark = append(dark, pt{x, y})
			}
		}
	}
	if len(dark) < 100 {
		return 0
	}

	bestAngle, bestVar := 0.0, -1.0
	for angle := -5.0; angle <= 5.0; angle += 0.5 {
		tan := math.Tan(angle * math.Pi / 180)
		hist := make(map[int]int)
		for _, p := range dark {
			bin := p.y - int(float64(p.x)*tan)
			hist[bin]++
		}
		v := histVariance(hist, len(dark))
		if v > bestVar {
			bestVar = v
			bestAngle = angle
		}
	}
	return bestAngle
}

func histVariance(hist map[int]int, total int) float64 {
	if len(hist) == 0 {
		return 0
	}
	mean := float64(total) / float64(len(hist))
	var sum float64
	for _, c := range hist {
		d := float64(c) - mean
		sum += d * d
	}
	return sum / float64(len(hist))
}

func cornerLuminance(img image.Image) int {
	b := img.Bounds()
	corners := []image.Point{
		{b.Min.X, b.Min.Y},
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}
	sum := 0
	for _, p := range corners {
		sum += luminance(img.At(p.X, p.Y))
	}
	return sum / len(corners)
}

func luminance(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int((299*r + 587*g + 114*b) / 1000 >> 8)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
