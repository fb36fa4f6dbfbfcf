// Package dataset - loads annotated training images for anchor assignment.
package dataset

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-anchors/boxes"
)

// ErrAnnotation is returned for unreadable or inconsistent annotation files.
var ErrAnnotation = errors.New("invalid annotation")

// Object is one annotated object in pixel coordinates of the original image.
type Object struct {
	Class string `json:"class" yaml:"class"`
	XMin  int    `json:"xmin" yaml:"xmin"`
	YMin  int    `json:"ymin" yaml:"ymin"`
	XMax  int    `json:"xmax" yaml:"xmax"`
	YMax  int    `json:"ymax" yaml:"ymax"`
	// Ignore marks difficult or crowd objects, which are left out of the ground truth.
	Ignore bool `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// Annotation is the sidecar file of one image.
type Annotation struct {
	// Width and Height of the annotated image; 0 means use the decoded image size.
	Width   int      `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int      `json:"height,omitempty" yaml:"height,omitempty"`
	Objects []Object `json:"objects" yaml:"objects"`
}

// ReadAnnotation parses a YAML annotation file.
func ReadAnnotation(path string) (*Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading annotation %s", path)
	}
	var a Annotation
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrapf(ErrAnnotation, "%s: %v", path, err)
	}
	return &a, nil
}

// GroundTruth converts the annotation into normalized boxes and class ids.
//
// Arguments:
//   - classes: Maps class names to ids.
//   - width, height: The size of the image the pixel coordinates refer to.
//
// Returns:
//   - []boxes.Box: Boxes clamped to [0,1], ignored objects left out.
//   - []int: One class id per box.
//   - error: ErrAnnotation (wrapped) for unknown classes or inverted boxes.
func (a *Annotation) GroundTruth(classes map[string]int, width, height int) ([]boxes.Box, []int, error) {
	if a.Width > 0 && a.Height > 0 {
		width, height = a.Width, a.Height
	}
	if width <= 0 || height <= 0 {
		return nil, nil, errors.Wrapf(ErrAnnotation, "image size %dx%d", width, height)
	}

	var gt []boxes.Box
	var labels []int
	for i, o := range a.Objects {
		if o.Ignore {
			continue
		}
		label, ok := classes[o.Class]
		if !ok {
			return nil, nil, errors.Wrapf(ErrAnnotation, "objects[%d]: unknown class %q", i, o.Class)
		}
		if o.XMax < o.XMin || o.YMax < o.YMin {
			return nil, nil, errors.Wrapf(ErrAnnotation, "objects[%d]: inverted box (%d,%d)-(%d,%d)", i, o.XMin, o.YMin, o.XMax, o.YMax)
		}
		b := boxes.New(
			float32(o.YMin)/float32(height),
			float32(o.XMin)/float32(width),
			float32(o.YMax)/float32(height),
			float32(o.XMax)/float32(width),
		)
		b = b.Clamp()
		if boxes.Area(b) <= 0 {
			// Empty or entirely outside the image.
			continue
		}
		gt = append(gt, b)
		labels = append(labels, label)
	}
	return gt, labels, nil
}
