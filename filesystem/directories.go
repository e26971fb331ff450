package filesystem

import (
	"os"
	"path/filepath"
)

func Abs(p string) string {
	p, err := filepath.Abs(p)
	if err != nil {
		panic(err)
	}

	return p
}

// Resolve interprets ref relative to baseDirectory and returns a cleaned
// absolute path.
func Resolve(baseDirectory, ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}

	return Abs(filepath.Join(baseDirectory, ref))
}

// Rel returns path relative to cwd, or path itself when no relative form exists.
func Rel(cwd, path string) string {
	if cwd == "" {
		if dir, err := os.Getwd(); err == nil {
			cwd = dir
		}
	}

	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return rel
}
