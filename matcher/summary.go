package matcher

import "fmt"

// Summary counts the outcome of a match.
type Summary struct {
	Positives  int
	Background int
	Ignored    int
	// PerBox is the number of anchors assigned to each ground-truth box.
	PerBox []int
}

// Summary counts positives, background and ignored anchors for numBoxes ground-truth boxes.
// Indices outside [0, numBoxes) are not counted per box.
func (m Matches) Summary(numBoxes int) Summary {
	s := Summary{PerBox: make([]int, numBoxes)}
	for _, v := range m {
		switch {
		case v == Background:
			s.Background++
		case v == Ignored:
			s.Ignored++
		case v >= 0:
			s.Positives++
			if v < numBoxes {
				s.PerBox[v]++
			}
		}
	}
	return s
}

// Unmatched returns the ground-truth indices that received no anchor.
func (s Summary) Unmatched() []int {
	var out []int
	for j, n := range s.PerBox {
		if n == 0 {
			out = append(out, j)
		}
	}
	return out
}

func (s Summary) String() string {
	return fmt.Sprintf("positives=%d ignored=%d background=%d boxes=%d",
		s.Positives, s.Ignored, s.Background, len(s.PerBox))
}

// Positive reports whether anchor i is assigned to a ground-truth box.
func (m Matches) Positive(i int) bool {
	return m[i] >= 0
}

// Indices returns the anchor indices whose match equals v.
func (m Matches) Indices(v int) []int {
	var out []int
	for i, x := range m {
		if x == v {
			out = append(out, i)
		}
	}
	return out
}
