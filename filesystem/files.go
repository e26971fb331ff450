package filesystem

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

// ReadFile reads path and decodes it from the given encoding.
func ReadFile(path string, label string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Errorf("could not read '%s': %w", path, err)
	}

	return Decode(raw, label)
}

// WriteFile encodes text and replaces path with it. The content is written to
// a temporary sibling first and renamed into place, so readers never observe
// a partially written file.
func WriteFile(path string, text string, label string) error {
	content, err := Encode(text, label)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o666)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return errors.Errorf("could not write temporary file '%s': %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Errorf("could not replace '%s': %w", path, err)
	}

	return nil
}
