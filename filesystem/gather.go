package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// GatherFiles expands roots into a sorted, de-duplicated list of absolute file
// paths whose extension is one of extensions. A root is a regular file, a
// directory (searched recursively) or a doublestar pattern.
func GatherFiles(roots []string, extensions []string) ([]string, error) {
	hasExtension := func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range extensions {
			if strings.ToLower(e) == ext {
				return true
			}
		}
		return false
	}

	seen := make(map[string]struct{})
	var paths []string

	appendAbsPath := func(path string) error {
		path, err := filepath.Abs(path)
		if err != nil {
			return errors.Errorf("absolute path: %w", err)
		}
		if _, ok := seen[path]; ok {
			return nil
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
		return nil
	}

	appendMatches := func(pattern string) error {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return errors.Errorf("glob '%s': %w", pattern, err)
		}

		for _, match := range matches {
			if !hasExtension(match) {
				continue
			}
			if err := appendAbsPath(match); err != nil {
				return err
			}
		}

		return nil
	}

	// The directory itself is the file system root, so meta characters in
	// its name are never read as a pattern.
	appendDirectory := func(dir string) error {
		err := doublestar.GlobWalk(os.DirFS(dir), "**/*", func(path string, _ fs.DirEntry) error {
			if !hasExtension(path) {
				return nil
			}
			return appendAbsPath(filepath.Join(dir, filepath.FromSlash(path)))
		}, doublestar.WithFilesOnly())
		if err != nil {
			return errors.Errorf("walk '%s': %w", dir, err)
		}

		return nil
	}

	for _, root := range roots {
		fi, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) && hasMeta(root) {
				if err := appendMatches(root); err != nil {
					return nil, err
				}
				continue
			}
			return nil, errors.Errorf("stat '%s': %w", root, err)
		}

		if fi.Mode().IsRegular() {
			if !hasExtension(fi.Name()) {
				continue
			}

			if err := appendAbsPath(root); err != nil {
				return nil, err
			}
		} else if fi.Mode().IsDir() {
			if err := appendDirectory(root); err != nil {
				return nil, err
			}
		} else {
			return nil, errors.Errorf("path '%s' neither directory nor file", root)
		}
	}

	sort.Strings(paths)

	return paths, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
