// Package render - draws anchor matches over training images for visual inspection.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/anchors"
	"github.com/nvr-ai/go-anchors/boxes"
	"github.com/nvr-ai/go-anchors/matcher"
)

// Overlay controls how boxes are drawn.
type Overlay struct {
	Matched     color.Color
	Ignored     color.Color
	GroundTruth color.Color
	LineWidth   float64
	// PerObjectHues colors each matched anchor by its ground-truth index instead of Matched.
	PerObjectHues bool
	// ShowIgnored draws ignored anchors; there are often many of them.
	ShowIgnored bool
}

// DefaultOverlay draws matched anchors red, ignored anchors blue and ground truth green.
func DefaultOverlay() Overlay {
	return Overlay{
		Matched:     colorful.Hsv(0, 0.9, 1),
		Ignored:     colorful.Hsv(220, 0.8, 1),
		GroundTruth: colorful.Hsv(120, 0.9, 0.9),
		LineWidth:   1,
		ShowIgnored: true,
	}
}

// ObjectColor returns a distinct hue for ground-truth index i out of n.
func ObjectColor(i, n int) color.Color {
	if n <= 0 {
		n = 1
	}
	return colorful.Hsv(360*float64(i)/float64(n), 0.85, 1)
}

// Draw renders anchors by role on a copy of img.
//
// Ignored anchors are drawn first, then matched anchors, then ground truth on top.
// Background anchors are not drawn. Normalized coordinates are scaled by the image
// width and height.
//
// Arguments:
//   - img: The source image; it is not modified.
//   - anchorBoxes: The anchors, aligned with matches.
//   - matches: The assignment from matcher.Match.
//   - gt: The ground-truth boxes.
//   - o: Colors and line width.
//
// Returns:
//   - image.Image: The annotated copy.
//   - error: If anchorBoxes and matches have different lengths.
func Draw(img image.Image, anchorBoxes []boxes.Box, matches matcher.Matches, gt []boxes.Box, o Overlay) (image.Image, error) {
	if len(anchorBoxes) != len(matches) {
		return nil, errors.Errorf("anchors has %d entries but matches has %d", len(anchorBoxes), len(matches))
	}

	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(o.LineWidth)
	w, h := float64(dc.Width()), float64(dc.Height())

	if o.ShowIgnored {
		for i, m := range matches {
			if m == matcher.Ignored {
				stroke(dc, anchorBoxes[i], w, h, o.Ignored)
			}
		}
	}
	for i, m := range matches {
		if m < 0 {
			continue
		}
		c := o.Matched
		if o.PerObjectHues {
			c = ObjectColor(m, len(gt))
		}
		stroke(dc, anchorBoxes[i], w, h, c)
	}

	dc.SetLineWidth(o.LineWidth * 2)
	for _, b := range gt {
		stroke(dc, b, w, h, o.GroundTruth)
	}
	return dc.Image(), nil
}

// DrawLevel is Draw restricted to the anchors of one feature-map level.
func DrawLevel(img image.Image, set *anchors.Set, level int, matches matcher.Matches, gt []boxes.Box, o Overlay) (image.Image, error) {
	if len(matches) != set.Len() {
		return nil, errors.Errorf("anchor set has %d entries but matches has %d", set.Len(), len(matches))
	}
	off, err := set.LevelOffset(level)
	if err != nil {
		return nil, err
	}
	levelBoxes, _ := set.Level(level)
	return Draw(img, levelBoxes, matches[off:off+len(levelBoxes)], gt, o)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	return errors.Wrapf(gg.SavePNG(path, img), "saving %s", path)
}

func stroke(dc *gg.Context, b boxes.Box, w, h float64, c color.Color) {
	dc.SetColor(c)
	dc.DrawRectangle(float64(b.XMin)*w, float64(b.YMin)*h, float64(b.Width())*w, float64(b.Height())*h)
	dc.Stroke()
}
