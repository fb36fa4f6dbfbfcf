// Package assign - runs anchor generation, matching and target encoding for training examples.
package assign

import (
	"image"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/anchors"
	"github.com/nvr-ai/go-anchors/boxes"
	"github.com/nvr-ai/go-anchors/encoder"
	"github.com/nvr-ai/go-anchors/matcher"
)

// ErrInvalidExample is returned when an example's boxes and labels are inconsistent.
var ErrInvalidExample = errors.New("invalid example")

// Example is one training image with its ground truth.
type Example struct {
	// ID identifies the example in logs and output file names.
	ID string
	// Image is optional; when set, its bounds define the size.
	Image image.Image
	// Height and Width are used when Image is nil.
	Height int
	Width  int
	// Boxes are normalized ground-truth boxes.
	Boxes []boxes.Box
	// Labels holds one class id per box.
	Labels []int
}

// Size returns the example's (height, width) in pixels.
func (e *Example) Size() (int, int) {
	if e.Image != nil {
		b := e.Image.Bounds()
		return b.Dy(), b.Dx()
	}
	return e.Height, e.Width
}

// Validate checks that boxes and labels line up and every box is well-formed with a
// positive area.
func (e *Example) Validate() error {
	if len(e.Boxes) != len(e.Labels) {
		return errors.Wrapf(ErrInvalidExample, "%s: boxes has %d entries but labels has %d", e.ID, len(e.Boxes), len(e.Labels))
	}
	for i, b := range e.Boxes {
		if !b.Valid() {
			return errors.Wrapf(ErrInvalidExample, "%s: boxes[%d] = %v is inverted", e.ID, i, b)
		}
		if boxes.Area(b) <= 0 {
			return errors.Wrapf(ErrInvalidExample, "%s: boxes[%d] = %v has zero area", e.ID, i, b)
		}
	}
	for i, l := range e.Labels {
		if l < 0 {
			return errors.Wrapf(ErrInvalidExample, "%s: labels[%d] = %d, must be >= 0", e.ID, i, l)
		}
	}
	return nil
}

// Result is the output of assigning one example.
type Result struct {
	Example *Example
	Anchors *anchors.Set
	Matches matcher.Matches
	Targets *encoder.Targets
	Summary matcher.Summary
}

// Assigner turns examples into training targets.
//
// It is safe for concurrent use: the only shared state is the anchor cache.
type Assigner struct {
	log     logs.Log
	anchors *anchors.Cache
	match   matcher.Config
}

// New validates both configurations and returns an Assigner.
//
// Arguments:
//   - log: Logger for per-example and per-batch statistics.
//   - anchorCfg: The anchor grid.
//   - matchCfg: The matching thresholds.
//
// Returns:
//   - *Assigner: Ready to use.
//   - error: anchors.ErrInvalidConfig or matcher.ErrInvalidConfig (wrapped).
//
// @example
// a, err := New(log, anchors.DefaultConfig(), matcher.DefaultConfig())
// res, err := a.Assign(example)
func New(log logs.Log, anchorCfg anchors.Config, matchCfg matcher.Config) (*Assigner, error) {
	gen, err := anchors.NewGenerator(anchorCfg)
	if err != nil {
		return nil, err
	}
	if err := matchCfg.Validate(); err != nil {
		return nil, err
	}
	return &Assigner{
		log:     log,
		anchors: anchors.NewCache(gen),
		match:   matchCfg,
	}, nil
}

// Anchors returns the (cached) anchor set for an image size.
func (a *Assigner) Anchors(height, width int) (*anchors.Set, error) {
	return a.anchors.Get(height, width)
}

// Assign computes anchors, matches and targets for one example.
func (a *Assigner) Assign(ex *Example) (*Result, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	height, width := ex.Size()
	set, err := a.anchors.Get(height, width)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", ex.ID)
	}

	matches, err := matcher.Match(set.Boxes, ex.Boxes, a.match)
	if err != nil {
		return nil, err
	}
	targets, err := encoder.EncodeTargets(set.Boxes, ex.Boxes, ex.Labels, matches)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", ex.ID)
	}

	summary := matches.Summary(len(ex.Boxes))
	a.log.Debugf("%s: %dx%d, %d anchors, %v", ex.ID, width, height, set.Len(), summary)
	if missing := summary.Unmatched(); len(missing) > 0 {
		a.log.Warnf("%s: ground-truth boxes %v have no positive anchor", ex.ID, missing)
	}

	return &Result{
		Example: ex,
		Anchors: set,
		Matches: matches,
		Targets: targets,
		Summary: summary,
	}, nil
}
