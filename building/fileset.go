package building

import (
	"sort"

	"github.com/bgraf/optimizehtml/document"
)

// FileSet collects records keyed by path.
type FileSet struct {
	byPath map[string]*document.File
}

func NewFileSet() *FileSet {
	return &FileSet{
		byPath: make(map[string]*document.File),
	}
}

func (s *FileSet) Add(f *document.File) {
	s.byPath[f.Path] = f
}

func (s *FileSet) Paths() []string {
	paths := make([]string, 0, len(s.byPath))
	for path := range s.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (s *FileSet) Len() int {
	return len(s.byPath)
}
