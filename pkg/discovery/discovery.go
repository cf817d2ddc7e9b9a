// Package discovery locates model-definition files below a search root and
// fixes the order in which the harness verifies them.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Model identifies one simulation case found during discovery.
type Model struct {
	Path string // absolute path to the model file
	Dir  string // containing directory
	Name string // bare file name
}

// Find walks root recursively and returns every file whose name ends with
// ext, sorted lexicographically by path so run order is reproducible across
// filesystems. An optional filter narrows the selection; filtered-out models
// are not discovered at all. Zero matches is not an error.
func Find(root, ext string, filter *Filter) ([]Model, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	var models []Model
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		m := Model{Path: path, Dir: filepath.Dir(path), Name: d.Name()}
		if filter != nil {
			keep, err := filter.Match(m)
			if err != nil {
				return fmt.Errorf("filter %s: %w", path, err)
			}
			if !keep {
				return nil
			}
		}
		models = append(models, m)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %q: %w", absRoot, walkErr)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Path < models[j].Path })
	return models, nil
}
