package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

var ErrEmptyDataset = errors.New("empty dataset")

// Sample is one validation image and its ground-truth class index.
type Sample struct {
	Path  string
	Class int
}

// Dataset is the ordered validation set: classes in index order, then
// files grouped by directory inside each class.
type Dataset struct {
	Root    string
	Classes *ClassIndex
	Samples []Sample
}

// Open walks every class directory of root (recursively) and keeps files
// whose lower-cased extension is in exts. A symlinked class directory is
// followed; links below it are not. Inside a class, each directory's files
// come before those of its subdirectories, ordered by directory path and
// then file name.
func Open(root string, classes *ClassIndex, exts []string) (*Dataset, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}
	ds := &Dataset{Root: root, Classes: classes}
	for ci, label := range classes.labels {
		samples, err := scanClass(filepath.Join(root, label), ci, allowed)
		if err != nil {
			return nil, fmt.Errorf("scan class %q: %w", label, err)
		}
		ds.Samples = append(ds.Samples, samples...)
	}
	if len(ds.Samples) == 0 {
		return nil, fmt.Errorf("%w: no images under %s", ErrEmptyDataset, root)
	}
	return ds, nil
}

func scanClass(dir string, class int, allowed map[string]bool) ([]Sample, error) {
	// WalkDir does not descend into a symlinked root.
	target, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	var samples []Sample
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != target && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		samples = append(samples, Sample{Path: filepath.Join(dir, rel), Class: class})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(samples, func(a, b Sample) int {
		if c := strings.Compare(filepath.Dir(a.Path), filepath.Dir(b.Path)); c != 0 {
			return c
		}
		return strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path))
	})
	return samples, nil
}

// Labels returns the ground truth vector in traversal order.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Class
	}
	return out
}

// Counts returns the number of images per class.
func (d *Dataset) Counts() []int {
	out := make([]int, d.Classes.Len())
	for _, s := range d.Samples {
		out[s.Class]++
	}
	return out
}
