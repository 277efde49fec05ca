package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ClassIndex is the ordered label to index mapping shared by the ground
// truth and the prediction columns.
type ClassIndex struct {
	labels []string
	index  map[string]int
}

func NewClassIndex(labels []string) (*ClassIndex, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrEmptyDataset)
	}
	ci := &ClassIndex{
		labels: append([]string(nil), labels...),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("class %d has an empty label", i)
		}
		if _, dup := ci.index[l]; dup {
			return nil, fmt.Errorf("duplicate class label %q", l)
		}
		ci.index[l] = i
	}
	return ci, nil
}

func (c *ClassIndex) Len() int { return len(c.labels) }

func (c *ClassIndex) Labels() []string { return append([]string(nil), c.labels...) }

func (c *ClassIndex) Label(i int) string { return c.labels[i] }

func (c *ClassIndex) Index(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// ScanClasses lists the class subdirectories of root in byte order.
// Hidden directories are skipped.
func ScanClasses(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("validation set: %w", err)
	}
	var labels []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() || isDirLink(root, e) {
			labels = append(labels, e.Name())
		}
	}
	sort.Strings(labels)
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no class directories under %s", ErrEmptyDataset, root)
	}
	return labels, nil
}

// ResolveClasses fixes the class order for the run. The first non-empty
// of configured and fromModel wins, otherwise the sorted directory names
// are used. An explicit list must name exactly the directories present.
func ResolveClasses(root string, configured, fromModel []string) (*ClassIndex, error) {
	dirs, err := ScanClasses(root)
	if err != nil {
		return nil, err
	}
	explicit := configured
	if len(explicit) == 0 {
		explicit = fromModel
	}
	if len(explicit) == 0 {
		return NewClassIndex(dirs)
	}
	ci, err := NewClassIndex(explicit)
	if err != nil {
		return nil, err
	}
	var missing, extra []string
	present := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		present[d] = true
		if _, ok := ci.Index(d); !ok {
			extra = append(extra, d)
		}
	}
	for _, l := range explicit {
		if !present[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, fmt.Errorf("class list does not match %s: missing directories %v, unlisted directories %v",
			root, missing, extra)
	}
	return ci, nil
}

func isDirLink(root string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && info.IsDir()
}
