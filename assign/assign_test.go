package assign

import (
	"context"
	"fmt"
	"image"
	"math"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-anchors/anchors"
	"github.com/nvr-ai/go-anchors/boxes"
	"github.com/nvr-ai/go-anchors/encoder"
	"github.com/nvr-ai/go-anchors/matcher"
)

func newTestAssigner(t *testing.T) *Assigner {
	a, err := New(logs.NewTestingLog(t), anchors.DefaultConfig(), matcher.DefaultConfig())
	require.NoError(t, err)
	return a
}

// TestAssign_SingleExample runs the whole pipeline on one image.
func TestAssign_SingleExample(t *testing.T) {
	a := newTestAssigner(t)
	ex := &Example{
		ID:     "frame-1",
		Image:  image.NewRGBA(image.Rect(0, 0, 320, 256)),
		Boxes:  []boxes.Box{boxes.New(0.1, 0.1, 0.5, 0.4), boxes.New(0.6, 0.5, 0.9, 0.95)},
		Labels: []int{0, 2},
	}

	res, err := a.Assign(ex)
	require.NoError(t, err)
	assert.Equal(t, 256, res.Anchors.Height)
	assert.Equal(t, 320, res.Anchors.Width)
	assert.Len(t, res.Matches, res.Anchors.Len())
	assert.Equal(t, res.Anchors.Len(), res.Targets.Len())
	assert.Empty(t, res.Summary.Unmatched())

	for i, m := range res.Matches {
		switch m {
		case matcher.Background:
			assert.Equal(t, encoder.ClassBackground, res.Targets.Classes[i])
		case matcher.Ignored:
			assert.Equal(t, encoder.ClassIgnored, res.Targets.Classes[i])
		default:
			assert.Equal(t, ex.Labels[m], res.Targets.Classes[i])
		}
	}

	// The anchor set is shared between examples of the same size.
	set, err := a.Anchors(256, 320)
	require.NoError(t, err)
	assert.Same(t, res.Anchors, set)
}

// TestAssign_NoBoxes makes everything background.
func TestAssign_NoBoxes(t *testing.T) {
	a := newTestAssigner(t)
	res, err := a.Assign(&Example{ID: "empty", Height: 128, Width: 128})
	require.NoError(t, err)
	assert.Equal(t, res.Anchors.Len(), res.Summary.Background)
	assert.Zero(t, res.Summary.Positives)
}

// TestAssign_InvalidExample rejects inconsistent ground truth before matching.
func TestAssign_InvalidExample(t *testing.T) {
	a := newTestAssigner(t)
	tests := []struct {
		name string
		ex   *Example
		err  error
	}{
		{
			name: "label count",
			ex:   &Example{ID: "a", Height: 64, Width: 64, Boxes: []boxes.Box{boxes.New(0, 0, 1, 1)}},
			err:  ErrInvalidExample,
		},
		{
			name: "inverted box",
			ex:   &Example{ID: "b", Height: 64, Width: 64, Boxes: []boxes.Box{boxes.New(0.5, 0, 0.1, 1)}, Labels: []int{1}},
			err:  ErrInvalidExample,
		},
		{
			name: "zero width box",
			ex:   &Example{ID: "e", Height: 128, Width: 128, Boxes: []boxes.Box{boxes.New(0.2, 1, 0.4, 1)}, Labels: []int{0}},
			err:  ErrInvalidExample,
		},
		{
			name: "point box",
			ex:   &Example{ID: "f", Height: 128, Width: 128, Boxes: []boxes.Box{boxes.New(0.5, 0.5, 0.5, 0.5)}, Labels: []int{0}},
			err:  ErrInvalidExample,
		},
		{
			name: "negative label",
			ex:   &Example{ID: "c", Height: 64, Width: 64, Boxes: []boxes.Box{boxes.New(0, 0, 1, 1)}, Labels: []int{-4}},
			err:  ErrInvalidExample,
		},
		{
			name: "no size",
			ex:   &Example{ID: "d"},
			err:  anchors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Assign(tt.ex)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

// TestAssign_FiniteTargets keeps every regression target finite for tiny boxes and
// boxes touching the image border, which are force-matched at low IoU.
func TestAssign_FiniteTargets(t *testing.T) {
	a := newTestAssigner(t)
	ex := &Example{
		ID:     "edges",
		Height: 128,
		Width:  128,
		Boxes: []boxes.Box{
			boxes.New(0.2, 0.999, 0.4, 1),
			boxes.New(0, 0, 0.001, 0.001),
			boxes.New(0.3, 0.3, 0.3001, 0.9),
		},
		Labels: []int{0, 1, 2},
	}

	res, err := a.Assign(ex)
	require.NoError(t, err)
	assert.Empty(t, res.Summary.Unmatched())
	for i, c := range res.Targets.Regression {
		for k, v := range c {
			require.False(t, math.IsInf(float64(v), 0) || math.IsNaN(float64(v)), "anchor %d code[%d] = %v", i, k, v)
		}
	}
}

// TestNew_InvalidConfig surfaces configuration errors eagerly.
func TestNew_InvalidConfig(t *testing.T) {
	bad := anchors.DefaultConfig()
	bad.BaseScales = bad.BaseScales[:1]
	_, err := New(logs.NewTestingLog(t), bad, matcher.DefaultConfig())
	assert.True(t, errors.Is(err, anchors.ErrInvalidConfig))

	_, err = New(logs.NewTestingLog(t), anchors.DefaultConfig(), matcher.Config{PositivesThreshold: 0.3, NegativesThreshold: 0.6})
	assert.True(t, errors.Is(err, matcher.ErrInvalidConfig))
}

// TestAssignBatch_PreservesOrder checks results line up with their examples.
func TestAssignBatch_PreservesOrder(t *testing.T) {
	a := newTestAssigner(t)

	examples := make([]*Example, 12)
	for i := range examples {
		size := 64 * (1 + i%3)
		examples[i] = &Example{
			ID:     fmt.Sprintf("ex-%d", i),
			Height: size,
			Width:  size,
			Boxes:  []boxes.Box{boxes.New(0.2, 0.2, 0.6, 0.7)},
			Labels: []int{i},
		}
	}

	results, err := a.AssignBatch(context.Background(), examples, 4)
	require.NoError(t, err)
	require.Len(t, results, len(examples))
	for i, r := range results {
		assert.Same(t, examples[i], r.Example)
		assert.Equal(t, examples[i].Height, r.Anchors.Height)
		assert.GreaterOrEqual(t, r.Summary.PerBox[0], 1, "example %d", i)
		assert.Equal(t, examples[i].Labels[0], r.Targets.Classes[r.Matches.Indices(0)[0]])
	}

	total := BatchSummary(results)
	assert.GreaterOrEqual(t, total.Positives, len(examples))
}

// TestAssignBatch_Error returns the failing example's error.
func TestAssignBatch_Error(t *testing.T) {
	a := newTestAssigner(t)
	examples := []*Example{
		{ID: "ok", Height: 64, Width: 64},
		{ID: "bad", Height: 64, Width: 64, Labels: []int{1}},
	}
	_, err := a.AssignBatch(context.Background(), examples, 2)
	assert.True(t, errors.Is(err, ErrInvalidExample))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.AssignBatch(ctx, examples[:1], 1)
	assert.ErrorIs(t, err, context.Canceled)
}
