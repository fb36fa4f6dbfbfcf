// Package matcher - assigns anchors to ground-truth boxes by IoU.
package matcher

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/boxes"
)

const (
	// Background marks an anchor that matches no object.
	Background = -1
	// Ignored marks an anchor whose best IoU falls between the two thresholds.
	// It must be excluded from the classification loss.
	Ignored = -2
)

// ErrInvalidConfig is returned for unusable thresholds.
var ErrInvalidConfig = errors.New("invalid matcher configuration")

// Config holds the matching thresholds.
type Config struct {
	// PositivesThreshold is the minimum IoU for an anchor to be assigned to a box.
	PositivesThreshold float32 `json:"positives_threshold" yaml:"positives_threshold"`
	// NegativesThreshold is the IoU below which an anchor is background.
	NegativesThreshold float32 `json:"negatives_threshold" yaml:"negatives_threshold"`
	// ForceMatchGroundTruth guarantees every ground-truth box at least one anchor.
	ForceMatchGroundTruth bool `json:"force_match_ground_truth" yaml:"force_match_ground_truth"`
}

// DefaultConfig returns the usual 0.5 / 0.4 thresholds with forced matching.
func DefaultConfig() Config {
	return Config{
		PositivesThreshold:    0.5,
		NegativesThreshold:    0.4,
		ForceMatchGroundTruth: true,
	}
}

// Validate rejects thresholds outside [0,1] and a negatives threshold above the
// positives threshold. Inverted thresholds are reported, never swapped.
func (c Config) Validate() error {
	if !(c.PositivesThreshold >= 0 && c.PositivesThreshold <= 1) {
		return errors.Wrapf(ErrInvalidConfig, "positives threshold %v is outside [0,1]", c.PositivesThreshold)
	}
	if !(c.NegativesThreshold >= 0 && c.NegativesThreshold <= 1) {
		return errors.Wrapf(ErrInvalidConfig, "negatives threshold %v is outside [0,1]", c.NegativesThreshold)
	}
	if c.PositivesThreshold < c.NegativesThreshold {
		return errors.Wrapf(ErrInvalidConfig, "positives threshold %v is below negatives threshold %v",
			c.PositivesThreshold, c.NegativesThreshold)
	}
	return nil
}

// Matches holds one entry per anchor: a ground-truth index, Background or Ignored.
type Matches []int

// Match assigns every anchor to a ground-truth box, background or ignored.
//
// For each anchor, the best ground-truth box (first one on ties) decides the outcome:
// IoU >= PositivesThreshold assigns the box, IoU < NegativesThreshold makes the anchor
// background, anything in between is ignored. With ForceMatchGroundTruth, every box
// then claims its best anchor (lowest index on ties) regardless of IoU. Forced claims
// are exclusive: a box whose best anchor was already claimed by an earlier box takes
// its best unclaimed anchor instead of the plain column argmax, so a later box never
// strips an earlier one of its only anchor. Only when every anchor is claimed does a
// box fall back to the unrestricted argmax.
// With no ground-truth boxes every anchor is background and no IoU is computed.
//
// Arguments:
//   - anchors: The anchor boxes.
//   - gt: The ground-truth boxes; the index is the match value.
//   - cfg: The thresholds.
//
// Returns:
//   - Matches: One entry per anchor.
//   - error: ErrInvalidConfig (wrapped) if cfg fails validation.
//
// @example
// m, err := Match(set.Boxes, example.Boxes, DefaultConfig())
func Match(anchors, gt []boxes.Box, cfg Config) (Matches, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matches := make(Matches, len(anchors))
	if len(gt) == 0 {
		for i := range matches {
			matches[i] = Background
		}
		return matches, nil
	}

	iou := boxes.IoUMatrix(anchors, gt)

	for i := range anchors {
		best, bestIoU := argmax(iou.Row(i))
		switch {
		case bestIoU >= cfg.PositivesThreshold:
			matches[i] = best
		case bestIoU < cfg.NegativesThreshold:
			matches[i] = Background
		default:
			matches[i] = Ignored
		}
	}

	if cfg.ForceMatchGroundTruth && len(anchors) > 0 {
		forceMatch(matches, iou)
	}
	return matches, nil
}

func forceMatch(matches Matches, iou *boxes.Matrix) {
	claimed := make([]bool, iou.Rows)
	for j := 0; j < iou.Cols; j++ {
		best := columnArgmax(iou, j, claimed)
		if best < 0 {
			// Every anchor is already claimed.
			best = columnArgmax(iou, j, nil)
		}
		matches[best] = j
		claimed[best] = true
	}
}

// argmax returns the first index holding the largest value.
func argmax(row []float32) (int, float32) {
	best := 0
	for j := 1; j < len(row); j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best, row[best]
}

// columnArgmax returns the lowest unclaimed row index with the largest value in
// column j, or -1 if every row is claimed.
func columnArgmax(iou *boxes.Matrix, j int, claimed []bool) int {
	best := -1
	var bestIoU float32
	for i := 0; i < iou.Rows; i++ {
		if claimed != nil && claimed[i] {
			continue
		}
		v := iou.At(i, j)
		if best < 0 || v > bestIoU {
			best, bestIoU = i, v
		}
	}
	return best
}
