package render

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-anchors/anchors"
	"github.com/nvr-ai/go-anchors/boxes"
	"github.com/nvr-ai/go-anchors/matcher"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

// TestDraw_Roles strokes matched and ground-truth boxes and leaves background alone.
func TestDraw_Roles(t *testing.T) {
	src := whiteImage(100, 100)
	anchorBoxes := []boxes.Box{
		boxes.New(0.2, 0.2, 0.6, 0.6),
		boxes.New(0.7, 0.7, 0.9, 0.9),
		boxes.New(0.05, 0.7, 0.15, 0.9),
	}
	matches := matcher.Matches{0, matcher.Background, matcher.Ignored}
	gt := []boxes.Box{boxes.New(0.1, 0.1, 0.5, 0.5)}

	out, err := Draw(src, anchorBoxes, matches, gt, DefaultOverlay())
	require.NoError(t, err)

	assert.False(t, isWhite(out.At(20, 40)), "matched anchor edge")
	assert.False(t, isWhite(out.At(10, 30)), "ground-truth edge")
	assert.False(t, isWhite(out.At(70, 10)), "ignored anchor edge")
	assert.True(t, isWhite(out.At(70, 80)), "background anchor edge")
	assert.True(t, isWhite(out.At(35, 35)), "box interior")

	// Source is untouched.
	assert.True(t, isWhite(src.At(20, 40)))

	noIgnored := DefaultOverlay()
	noIgnored.ShowIgnored = false
	out, err = Draw(src, anchorBoxes, matches, gt, noIgnored)
	require.NoError(t, err)
	assert.True(t, isWhite(out.At(70, 10)))
}

// TestDraw_LengthMismatch rejects misaligned inputs.
func TestDraw_LengthMismatch(t *testing.T) {
	_, err := Draw(whiteImage(10, 10), []boxes.Box{boxes.New(0, 0, 1, 1)}, nil, nil, DefaultOverlay())
	assert.Error(t, err)
}

// TestDrawLevel draws only the requested level and saves the result.
func TestDrawLevel(t *testing.T) {
	gen, err := anchors.NewGenerator(anchors.Config{
		Strides:          []int{32, 64},
		BaseScales:       []float32{32, 64},
		ScaleMultipliers: []float32{1},
		AspectRatios:     []float32{1},
	})
	require.NoError(t, err)
	set, err := gen.Generate(64, 64)
	require.NoError(t, err)
	require.Equal(t, []int{4, 1}, set.LevelCounts)

	// Only the single level-1 anchor (the whole image) is matched.
	matches := matcher.Matches{matcher.Background, matcher.Background, matcher.Background, matcher.Background, 0}
	gt := []boxes.Box{}

	out, err := DrawLevel(whiteImage(64, 64), set, 0, matches, gt, DefaultOverlay())
	require.NoError(t, err)
	assert.True(t, isWhite(out.At(0, 32)))

	o := DefaultOverlay()
	o.LineWidth = 4
	o.PerObjectHues = true
	out, err = DrawLevel(whiteImage(64, 64), set, 1, matches, gt, o)
	require.NoError(t, err)
	assert.False(t, isWhite(out.At(0, 32)))

	_, err = DrawLevel(whiteImage(64, 64), set, 2, matches, gt, o)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "level1.png")
	require.NoError(t, SavePNG(path, out))
	back, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, out.Bounds(), back.Bounds())
}

// TestObjectColor gives distinct colors to distinct boxes.
func TestObjectColor(t *testing.T) {
	assert.NotEqual(t, ObjectColor(0, 3), ObjectColor(1, 3))
	assert.NotNil(t, ObjectColor(0, 0))
}
