// Package encoder - turns anchor matches into regression and classification targets.
package encoder

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/boxes"
	"github.com/nvr-ai/go-anchors/matcher"
)

const (
	// ClassBackground is the classification target of background anchors.
	ClassBackground = -1
	// ClassIgnored is the classification target of ignored anchors.
	ClassIgnored = -2
)

// ErrInvalidInput is returned when the arrays passed to Encode do not line up.
var ErrInvalidInput = errors.New("invalid encoder input")

// Code is an encoded box offset: (dy, dx, dh, dw).
type Code [4]float32

// Targets holds the per-anchor training targets of one example.
type Targets struct {
	// Regression is the encoded offset from each anchor to its box; zero when unmatched.
	Regression []Code
	// Classes is the box label, ClassBackground or ClassIgnored.
	Classes []int
	// Weights is 0 for ignored anchors and 1 otherwise.
	Weights []float32
	// Matches is the assignment the targets were built from.
	Matches matcher.Matches
}

// Len is the number of anchors.
func (t *Targets) Len() int {
	return len(t.Classes)
}

// Encode computes the offset of box gt relative to anchor.
//
// dy = (gt_cy - a_cy) / a_h, dx = (gt_cx - a_cx) / a_w,
// dh = ln(gt_h / a_h), dw = ln(gt_w / a_w).
// Both boxes must have a positive height and width, otherwise dh or dw is not finite.
// EncodeTargets rejects such boxes before calling Encode.
func Encode(anchor, gt boxes.Box) Code {
	acy, acx := anchor.Center()
	ah, aw := anchor.Height(), anchor.Width()
	gcy, gcx := gt.Center()
	return Code{
		(gcy - acy) / ah,
		(gcx - acx) / aw,
		math32.Log(gt.Height() / ah),
		math32.Log(gt.Width() / aw),
	}
}

// Decode is the inverse of Encode.
//
// @example
// code := Encode(anchor, gt)
// back := Decode(anchor, code) // back ≈ gt
func Decode(anchor boxes.Box, code Code) boxes.Box {
	acy, acx := anchor.Center()
	ah, aw := anchor.Height(), anchor.Width()
	cy := code[0]*ah + acy
	cx := code[1]*aw + acx
	h := math32.Exp(code[2]) * ah
	w := math32.Exp(code[3]) * aw
	return boxes.FromCenter(cy, cx, h, w)
}

// DecodeAll decodes one code per anchor.
func DecodeAll(anchors []boxes.Box, codes []Code) ([]boxes.Box, error) {
	if len(anchors) != len(codes) {
		return nil, errors.Wrapf(ErrInvalidInput, "anchors has %d entries but codes has %d", len(anchors), len(codes))
	}
	out := make([]boxes.Box, len(anchors))
	for i := range anchors {
		out[i] = Decode(anchors[i], codes[i])
	}
	return out, nil
}

// EncodeTargets builds the regression and classification targets of one example.
//
// Arguments:
//   - anchors: The anchor boxes.
//   - gt: The ground-truth boxes.
//   - labels: One class id >= 0 per ground-truth box.
//   - matches: One entry per anchor from matcher.Match.
//
// Returns:
//   - *Targets: Positive anchors carry the encoded offset and the box label. Background
//     anchors carry ClassBackground, ignored anchors ClassIgnored with weight 0. Both have
//     a zero regression target.
//   - error: ErrInvalidInput (wrapped) on any length mismatch, negative label, match
//     index out of range or a matched box with zero area. Nothing is computed in that case.
//
// @example
// matches, _ := matcher.Match(set.Boxes, gt, matcher.DefaultConfig())
// targets, err := EncodeTargets(set.Boxes, gt, labels, matches)
func EncodeTargets(anchors, gt []boxes.Box, labels []int, matches matcher.Matches) (*Targets, error) {
	if err := validate(anchors, gt, labels, matches); err != nil {
		return nil, err
	}

	t := &Targets{
		Regression: make([]Code, len(anchors)),
		Classes:    make([]int, len(anchors)),
		Weights:    make([]float32, len(anchors)),
		Matches:    matches,
	}
	for i, m := range matches {
		switch m {
		case matcher.Background:
			t.Classes[i] = ClassBackground
			t.Weights[i] = 1
		case matcher.Ignored:
			t.Classes[i] = ClassIgnored
		default:
			t.Regression[i] = Encode(anchors[i], gt[m])
			t.Classes[i] = labels[m]
			t.Weights[i] = 1
		}
	}
	return t, nil
}

func validate(anchors, gt []boxes.Box, labels []int, matches matcher.Matches) error {
	if len(matches) != len(anchors) {
		return errors.Wrapf(ErrInvalidInput, "matches has %d entries, expected %d (one per anchor)", len(matches), len(anchors))
	}
	if len(labels) != len(gt) {
		return errors.Wrapf(ErrInvalidInput, "labels has %d entries, expected %d (one per ground-truth box)", len(labels), len(gt))
	}
	for j, l := range labels {
		if l < 0 {
			return errors.Wrapf(ErrInvalidInput, "labels[%d] = %d, must be >= 0", j, l)
		}
	}
	for i, m := range matches {
		if m == matcher.Background || m == matcher.Ignored {
			continue
		}
		if m < 0 || m >= len(gt) {
			return errors.Wrapf(ErrInvalidInput, "matches[%d] = %d, expected a sentinel or an index below %d", i, m, len(gt))
		}
		if boxes.Area(gt[m]) <= 0 {
			return errors.Wrapf(ErrInvalidInput, "matches[%d] = %d, but box %v has zero area", i, m, gt[m])
		}
	}
	return nil
}
