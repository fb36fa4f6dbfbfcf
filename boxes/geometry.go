package boxes

import (
	flatbush "github.com/bmharper/flatbush-go"
)

// Below this many anchors the spatial index costs more than it saves.
const minIndexedAnchors = 64

// Area returns (ymax-ymin) * (xmax-xmin), or 0 for degenerate or inverted boxes.
func Area(b Box) float32 {
	return b.Height() * b.Width()
}

// Intersection returns the area of the overlap between a and b.
//
// Each axis of the overlap rectangle is clamped to zero before multiplying, so
// boxes that do not overlap yield exactly 0.
func Intersection(a, b Box) float32 {
	h := min(a.YMax, b.YMax) - max(a.YMin, b.YMin)
	w := min(a.XMax, b.XMax) - max(a.XMin, b.XMin)
	return max(0, h) * max(0, w)
}

// IoU calculates the Intersection over Union between two boxes.
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - A value in [0,1]. Two degenerate boxes have no union and yield 0.
//
// @example
// a := New(0, 0, 0.5, 0.5)
// b := New(0.25, 0.25, 0.75, 0.75)
// iou := IoU(a, b) // 0.0625 / 0.4375 = 0.142857
func IoU(a, b Box) float32 {
	inter := Intersection(a, b)
	union := Area(a) + Area(b) - inter
	if union <= 0 {
		return 0
	}
	return min(1, inter/union)
}

// Matrix is a dense row-major [Rows x Cols] matrix of float32 values.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Row returns row i without copying.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// IoUMatrix computes the pairwise IoU between every anchor and every ground-truth box.
//
// Only pairs whose boxes touch can have a non-zero IoU, so for large anchor sets the
// anchors are placed in a flatbush index and each ground-truth box only visits the
// anchors it overlaps. Every entry that is visited is computed with IoU, and every
// other entry is exactly 0, so the result is identical to the nested scalar loop.
//
// Arguments:
//   - anchors: The anchor boxes (rows).
//   - gt: The ground-truth boxes (columns).
//
// Returns:
//   - A [len(anchors) x len(gt)] matrix.
//
// @example
// m := IoUMatrix(set.Boxes, groundTruth)
// best := m.At(anchorIndex, boxIndex)
func IoUMatrix(anchors, gt []Box) *Matrix {
	m := NewMatrix(len(anchors), len(gt))
	if len(anchors) == 0 || len(gt) == 0 {
		return m
	}
	if len(anchors) < minIndexedAnchors {
		fillDense(m, anchors, gt)
		return m
	}

	fb := flatbush.NewFlatbush[float32]()
	fb.Reserve(len(anchors))
	for _, a := range anchors {
		fb.Add(a.XMin, a.YMin, a.XMax, a.YMax)
	}
	fb.Finish()

	var nearby []int
	for j, g := range gt {
		nearby = fb.SearchFast(g.XMin, g.YMin, g.XMax, g.YMax, nearby)
		for _, i := range nearby {
			m.Data[i*m.Cols+j] = IoU(anchors[i], g)
		}
	}
	return m
}

func fillDense(m *Matrix, anchors, gt []Box) {
	for i, a := range anchors {
		row := m.Row(i)
		for j, g := range gt {
			row[j] = IoU(a, g)
		}
	}
}
