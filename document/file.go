package document

import (
	"io"
	"path/filepath"

	"github.com/bgraf/optimizehtml/filesystem"
)

// File is one record flowing through the transform step.
type File struct {
	Path     string    // Absolute file system path
	Base     string    // Directory relative references are resolved against
	Cwd      string    // Working directory used for narration
	Contents []byte    // Buffered contents, nil for a null record
	Stream   io.Reader // Streamed contents, unsupported by the pipeline
}

// NewFile makes a buffered record for path whose base is the directory of path.
func NewFile(path, cwd string, contents []byte) *File {
	if contents == nil {
		contents = []byte{}
	}

	return &File{
		Path:     path,
		Base:     filepath.Dir(path),
		Cwd:      cwd,
		Contents: contents,
	}
}

func (f *File) IsNull() bool {
	return f.Contents == nil && f.Stream == nil
}

func (f *File) IsStream() bool {
	return f.Stream != nil
}

func (f *File) IsBuffer() bool {
	return f.Contents != nil && f.Stream == nil
}

// Relative returns the path of f relative to its working directory.
func (f *File) Relative() string {
	return filesystem.Rel(f.Cwd, f.Path)
}
