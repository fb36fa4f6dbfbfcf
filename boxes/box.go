// Package boxes - normalized box geometry shared by anchor generation, matching and encoding.
package boxes

import (
	"fmt"
	"image"
)

// Box is an axis-aligned box in normalized [0,1] image space.
//
// Coordinates are ordered (ymin, xmin, ymax, xmax), matching the layout of the
// training data pipeline. A Box is a value type; copies never alias.
type Box struct {
	YMin float32 `json:"ymin" yaml:"ymin"`
	XMin float32 `json:"xmin" yaml:"xmin"`
	YMax float32 `json:"ymax" yaml:"ymax"`
	XMax float32 `json:"xmax" yaml:"xmax"`
}

// New returns a Box from coordinates in (ymin, xmin, ymax, xmax) order.
func New(ymin, xmin, ymax, xmax float32) Box {
	return Box{YMin: ymin, XMin: xmin, YMax: ymax, XMax: xmax}
}

// FromCenter builds a Box from its center and size.
//
// Arguments:
//   - cy, cx: The center of the box.
//   - h, w: The height and width of the box.
//
// Returns:
//   - The box spanning [cy-h/2, cy+h/2] x [cx-w/2, cx+w/2].
//
// @example
// b := FromCenter(0.5, 0.5, 0.2, 0.4) // Box{YMin: 0.4, XMin: 0.3, YMax: 0.6, XMax: 0.7}
func FromCenter(cy, cx, h, w float32) Box {
	return Box{
		YMin: cy - h/2,
		XMin: cx - w/2,
		YMax: cy + h/2,
		XMax: cx + w/2,
	}
}

// FromPixels converts a pixel rectangle on an image of the given size into a normalized Box.
func FromPixels(r image.Rectangle, width, height int) Box {
	r = r.Canon()
	return Box{
		YMin: float32(r.Min.Y) / float32(height),
		XMin: float32(r.Min.X) / float32(width),
		YMax: float32(r.Max.Y) / float32(height),
		XMax: float32(r.Max.X) / float32(width),
	}
}

// Height of the box, never negative.
func (b Box) Height() float32 {
	return max(0, b.YMax-b.YMin)
}

// Width of the box, never negative.
func (b Box) Width() float32 {
	return max(0, b.XMax-b.XMin)
}

// Center returns the (cy, cx) center of the box.
func (b Box) Center() (float32, float32) {
	return (b.YMin + b.YMax) / 2, (b.XMin + b.XMax) / 2
}

// Valid reports whether ymin <= ymax and xmin <= xmax.
func (b Box) Valid() bool {
	return b.YMin <= b.YMax && b.XMin <= b.XMax
}

// Clamp restricts every coordinate to [0,1].
func (b Box) Clamp() Box {
	return Box{
		YMin: clamp01(b.YMin),
		XMin: clamp01(b.XMin),
		YMax: clamp01(b.YMax),
		XMax: clamp01(b.XMax),
	}
}

// ToRect scales the box to pixel coordinates on an image of the given size.
//
// This loses the fractional part of every coordinate, which is fine for drawing.
func (b Box) ToRect(width, height int) image.Rectangle {
	return image.Rect(
		int(b.XMin*float32(width)),
		int(b.YMin*float32(height)),
		int(b.XMax*float32(width)),
		int(b.YMax*float32(height)),
	).Canon()
}

func (b Box) String() string {
	return fmt.Sprintf("[%.4f, %.4f, %.4f, %.4f]", b.YMin, b.XMin, b.YMax, b.XMax)
}

func clamp01(v float32) float32 {
	return min(1, max(0, v))
}
