package anchors

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/boxes"
)

// Set is the anchor grid for one image size.
//
// Boxes are ordered level-major, then by grid row, grid column, scale multiplier and
// aspect ratio. LevelCounts[i] is the number of anchors produced by level i, so level i
// occupies LevelCounts[i] entries of Boxes starting at LevelOffset(i). A Set is never
// mutated after Generate returns and may be shared between goroutines.
type Set struct {
	Height      int
	Width       int
	Boxes       []boxes.Box
	LevelCounts []int
	// GridSizes holds the (rows, cols) of every level.
	GridSizes [][2]int
}

// Len is the total number of anchors.
func (s *Set) Len() int {
	return len(s.Boxes)
}

// LevelOffset is the index of the first anchor of level i.
// It returns ErrInvalidLevel (wrapped) unless 0 <= i < len(LevelCounts).
func (s *Set) LevelOffset(i int) (int, error) {
	if i < 0 || i >= len(s.LevelCounts) {
		return 0, errors.Wrapf(ErrInvalidLevel, "level %d out of range [0,%d)", i, len(s.LevelCounts))
	}
	off := 0
	for _, n := range s.LevelCounts[:i] {
		off += n
	}
	return off, nil
}

// Level returns the anchors of feature-map level i without copying.
func (s *Set) Level(i int) ([]boxes.Box, error) {
	off, err := s.LevelOffset(i)
	if err != nil {
		return nil, err
	}
	return s.Boxes[off : off+s.LevelCounts[i]], nil
}

// Generator produces anchor sets from a validated Config.
type Generator struct {
	cfg Config
}

// NewGenerator validates cfg and returns a Generator.
//
// Arguments:
//   - cfg: The anchor grid configuration.
//
// Returns:
//   - *Generator: A generator for any image size.
//   - error: ErrInvalidConfig (wrapped) if cfg is unusable.
//
// @example
// gen, err := NewGenerator(DefaultConfig())
// set, err := gen.Generate(640, 640)
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate builds the anchor grid for an image of the given size.
//
// Every level covers the full image with ceil(height/stride) x ceil(width/stride) cells.
// A cell's center is at ((row+0.5)*stride, (col+0.5)*stride) pixels. For a scale
// s = baseScale*multiplier and aspect ratio r (width/height), the anchor is
// s*sqrt(r) pixels wide and s/sqrt(r) pixels tall, so its area is s^2 for every r.
// All coordinates are then normalized by the image width and height. Anchors are not
// clipped to the image.
//
// Arguments:
//   - height: The image height in pixels.
//   - width: The image width in pixels.
//
// Returns:
//   - *Set: The anchors and per-level counts.
//   - error: ErrInvalidConfig (wrapped) if either dimension is not positive.
func (g *Generator) Generate(height, width int) (*Set, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "image size %dx%d must be positive", width, height)
	}

	perLocation := g.cfg.AnchorsPerLocation()
	set := &Set{
		Height:      height,
		Width:       width,
		LevelCounts: make([]int, len(g.cfg.Strides)),
		GridSizes:   make([][2]int, len(g.cfg.Strides)),
	}

	total := 0
	for i, stride := range g.cfg.Strides {
		rows, cols := gridSize(height, width, stride)
		set.GridSizes[i] = [2]int{rows, cols}
		set.LevelCounts[i] = rows * cols * perLocation
		total += set.LevelCounts[i]
	}
	set.Boxes = make([]boxes.Box, 0, total)

	// Half extents of each (multiplier, ratio) pair, normalized, per level.
	halfH := make([]float32, perLocation)
	halfW := make([]float32, perLocation)

	fh, fw := float32(height), float32(width)
	for i, stride := range g.cfg.Strides {
		k := 0
		for _, mult := range g.cfg.ScaleMultipliers {
			scale := g.cfg.BaseScales[i] * mult
			for _, ratio := range g.cfg.AspectRatios {
				sr := math32.Sqrt(ratio)
				halfH[k] = scale / sr / 2 / fh
				halfW[k] = scale * sr / 2 / fw
				k++
			}
		}

		rows, cols := set.GridSizes[i][0], set.GridSizes[i][1]
		fs := float32(stride)
		for r := 0; r < rows; r++ {
			cy := (float32(r) + 0.5) * fs / fh
			for c := 0; c < cols; c++ {
				cx := (float32(c) + 0.5) * fs / fw
				for k := 0; k < perLocation; k++ {
					set.Boxes = append(set.Boxes, boxes.Box{
						YMin: cy - halfH[k],
						XMin: cx - halfW[k],
						YMax: cy + halfH[k],
						XMax: cx + halfW[k],
					})
				}
			}
		}
	}

	return set, nil
}

// Count returns the number of anchors Generate would produce, without allocating them.
func (g *Generator) Count(height, width int) int {
	n := 0
	for _, stride := range g.cfg.Strides {
		rows, cols := gridSize(height, width, stride)
		n += rows * cols * g.cfg.AnchorsPerLocation()
	}
	return n
}

// gridSize uses ceiling division so the last partial cell still gets anchors.
func gridSize(height, width, stride int) (int, int) {
	return (height + stride - 1) / stride, (width + stride - 1) / stride
}
