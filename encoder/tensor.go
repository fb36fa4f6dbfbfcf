package encoder

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// RegressionTensor returns the regression targets as a [numAnchors, 4] float32 tensor.
func (t *Targets) RegressionTensor() *tensor.Dense {
	data := make([]float32, 0, 4*len(t.Regression))
	for _, c := range t.Regression {
		data = append(data, c[:]...)
	}
	return tensor.New(tensor.WithShape(len(t.Regression), 4), tensor.WithBacking(data))
}

// WeightsTensor returns the per-anchor loss weights as a [numAnchors] float32 tensor.
func (t *Targets) WeightsTensor() *tensor.Dense {
	data := make([]float32, len(t.Weights))
	copy(data, t.Weights)
	return tensor.New(tensor.WithShape(len(data)), tensor.WithBacking(data))
}

// OneHot lays the classification targets out as a [numAnchors, numClasses+1] tensor.
//
// Column 0 is background and column label+1 is the object class. Ignored anchors get
// an all-zero row; their weight is 0 anyway.
//
// Arguments:
//   - numClasses: The number of object classes, excluding background.
//
// Returns:
//   - *tensor.Dense: The one-hot targets.
//   - error: ErrInvalidInput (wrapped) if a label is not below numClasses.
func (t *Targets) OneHot(numClasses int) (*tensor.Dense, error) {
	width := numClasses + 1
	data := make([]float32, len(t.Classes)*width)
	for i, c := range t.Classes {
		switch {
		case c == ClassBackground:
			data[i*width] = 1
		case c == ClassIgnored:
		case c >= numClasses:
			return nil, errors.Wrapf(ErrInvalidInput, "class %d of anchor %d is not below %d", c, i, numClasses)
		default:
			data[i*width+c+1] = 1
		}
	}
	return tensor.New(tensor.WithShape(len(t.Classes), width), tensor.WithBacking(data)), nil
}
