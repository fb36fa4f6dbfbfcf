package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-anchors/assign"
)

// Source yields training examples by index.
type Source interface {
	Len() int
	Load(i int) (*assign.Example, error)
}

// DirSource reads images from a directory, each with a sibling <name>.yaml annotation.
//
// Images without an annotation file are treated as having no objects.
type DirSource struct {
	dir     string
	files   []string
	classes map[string]int
	width   int
	height  int
}

// NewDirSource scans dir for .jpg, .jpeg and .png files.
//
// Arguments:
//   - dir: Directory holding the images and annotations.
//   - classes: Class names; the index is the label.
//   - width, height: Size every image is resized to; 0 keeps the decoded size.
//
// Returns:
//   - *DirSource: Images sorted by file name.
//   - error: If the directory cannot be read.
//
// @example
// src, err := NewDirSource("data/val", []string{"person", "car"}, 640, 640)
// ex, err := src.Load(0)
func NewDirSource(dir string, classes []string, width, height int) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset directory %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	ids := make(map[string]int, len(classes))
	for i, c := range classes {
		ids[c] = i
	}

	return &DirSource{
		dir:     dir,
		files:   files,
		classes: ids,
		width:   width,
		height:  height,
	}, nil
}

// Len is the number of images.
func (s *DirSource) Len() int {
	return len(s.files)
}

// Load decodes image i, resizes it and converts its annotation.
func (s *DirSource) Load(i int) (*assign.Example, error) {
	if i < 0 || i >= len(s.files) {
		return nil, errors.Errorf("example %d out of range [0,%d)", i, len(s.files))
	}
	name := s.files[i]
	path := filepath.Join(s.dir, name)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	origW, origH := img.Bounds().Dx(), img.Bounds().Dy()

	ann := &Annotation{}
	annPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml"
	if _, err := os.Stat(annPath); err == nil {
		if ann, err = ReadAnnotation(annPath); err != nil {
			return nil, err
		}
	}

	gt, labels, err := ann.GroundTruth(s.classes, origW, origH)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	// Normalized boxes are unaffected by the resize.
	if s.width > 0 && s.height > 0 && (s.width != origW || s.height != origH) {
		img = resize.Resize(uint(s.width), uint(s.height), img, resize.Bilinear)
	}

	return &assign.Example{
		ID:     strings.TrimSuffix(name, filepath.Ext(name)),
		Image:  img,
		Boxes:  gt,
		Labels: labels,
	}, nil
}

// Batch loads n consecutive examples starting at start, stopping at the end of src.
func Batch(src Source, start, n int) ([]*assign.Example, error) {
	end := min(src.Len(), start+n)
	out := make([]*assign.Example, 0, max(0, end-start))
	for i := start; i < end; i++ {
		ex, err := src.Load(i)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}
