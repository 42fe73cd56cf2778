package candidate

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlens/orderlens/internal/testutil"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.White)
}

func TestGenerateAlwaysIncludesFullImage(t *testing.T) {
	g := NewGenerator(DefaultConfig(), nil)
	img := testImage(400, 400)

	cands := g.Generate(img)
	require.NotEmpty(t, cands)
	assert.Equal(t, "Full Image", cands[0].Name)
	assert.Equal(t, 0, cands[0].Priority)
	assert.Same(t, img, cands[0].Image)
}

func TestGenerateCropGeometry(t *testing.T) {
	g := NewGenerator(Config{Crops: []CropSpec{
		{Name: "No Bottom 20%", Bottom: 0.2},
		{Name: "Center 80%", Top: 0.1, Bottom: 0.1, Left: 0.1, Right: 0.1},
	}}, nil)

	cands := g.Generate(testImage(1000, 1000))
	require.Len(t, cands, 3)

	noBottom := cands[1].Image.Bounds()
	assert.Equal(t, 1000, noBottom.Dx())
	assert.Equal(t, 800, noBottom.Dy())

	center := cands[2].Image.Bounds()
	assert.Equal(t, 800, center.Dx())
	assert.Equal(t, 800, center.Dy())
}

func TestGeneratePrioritiesAreSequential(t *testing.T) {
	g := NewGenerator(Config{Crops: DefaultCropSpecs()}, nil)
	cands := g.Generate(testImage(1000, 1000))

	for i, c := range cands {
		assert.Equal(t, i, c.Priority, "candidate %q", c.Name)
	}
}

func TestGenerateSkipsTooSmallCrops(t *testing.T) {
	g := NewGenerator(Config{
		Crops:     []CropSpec{{Name: "Tiny Center", Top: 0.49, Bottom: 0.49, Left: 0.49, Right: 0.49}},
		MinRegion: 50,
	}, nil)

	// A 100px source leaves a 2px center region, below the minimum.
	cands := g.Generate(testImage(100, 100))
	require.Len(t, cands, 1)
	assert.Equal(t, "Full Image", cands[0].Name)
}

func TestGenerateNonEmptyForDegenerateConfig(t *testing.T) {
	g := NewGenerator(Config{
		Crops: []CropSpec{{Name: "Everything Gone", Top: 0.6, Bottom: 0.6}},
	}, nil)

	cands := g.Generate(testImage(200, 200))
	require.Len(t, cands, 1)
}

func TestContentTrimFindsReceiptRegion(t *testing.T) {
	// White frame with a dark block in the upper-left quadrant.
	img := imaging.New(400, 400, color.White)
	dark := imaging.New(100, 100, color.Black)
	src := imaging.Paste(img, dark, image.Pt(50, 50))

	g := NewGenerator(Config{Aggressive: true, MinRegion: 50}, nil)
	cands := g.Generate(src)

	var trim *Candidate
	for i := range cands {
		if cands[i].Name == "Receipt Trim" {
			trim = &cands[i]
		}
	}
	require.NotNil(t, trim, "expected a content-trim candidate")
	b := trim.Image.Bounds()
	assert.Less(t, b.Dx(), 200)
	assert.Less(t, b.Dy(), 200)
}

func TestEstimateSkewLevelImage(t *testing.T) {
	// Horizontal dark stripes simulate aligned text lines.
	img := imaging.New(600, 400, color.White)
	stripe := imaging.New(500, 8, color.Black)
	for y := 50; y < 350; y += 40 {
		img = imaging.Paste(img, stripe, image.Pt(50, y))
	}
	assert.InDelta(t, 0.0, estimateSkew(img), 0.6)
}

func TestGenerateDeskewsRotatedReceipt(t *testing.T) {
	cfg := testutil.DefaultReceiptConfig()
	cfg.Rotation = 3
	img := testutil.GenerateReceiptImage(cfg)

	g := NewGenerator(Config{Deskew: true, MinRegion: 50}, nil)
	cands := g.Generate(img)

	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Deskewed")
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	_, _, err := Load("receipt.gif", DefaultConstraints())
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "load", lerr.Operation)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.png"), DefaultConstraints())
	require.Error(t, err)
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.png")
	require.NoError(t, imaging.Save(testImage(200, 300), path))

	img, meta, err := Load(path, DefaultConstraints())
	require.NoError(t, err)
	assert.Equal(t, 200, meta.Width)
	assert.Equal(t, 300, meta.Height)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestLoadEnforcesMinDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.png")
	require.NoError(t, imaging.Save(testImage(20, 20), path))

	_, _, err := Load(path, DefaultConstraints())
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "validate", lerr.Operation)
}

func TestSaveDebugWritesFile(t *testing.T) {
	dir := t.TempDir()
	c := Candidate{Name: "No Bottom 20%", Image: testImage(100, 100)}

	out, err := SaveDebug(dir, "/input/receipt.png", c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "receipt_No_Bottom_20%.png"), out)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestSaveDebugRequiresDirectory(t *testing.T) {
	_, err := SaveDebug("", "x.png", Candidate{Image: testImage(10, 10)})
	assert.Error(t, err)
}
