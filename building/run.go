package building

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/config"
	"github.com/bgraf/optimizehtml/document"
	"github.com/bgraf/optimizehtml/filesystem"
)

type Options struct {
	Pipeline config.Options
	Roots    []string // Files, directories or doublestar patterns
	Cwd      string   // Working directory for narration, defaults to os.Getwd
}

// Build gathers the files below opts.Roots and feeds them through the
// pipeline strictly one at a time. It stops at the first failure and returns
// the files processed so far.
func Build(ctx context.Context, opts Options) (*FileSet, error) {
	log := zerolog.Ctx(ctx)

	cwd := opts.Cwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, errors.Errorf("working directory: %w", err)
		}
	}

	paths, err := filesystem.GatherFiles(opts.Roots, Extensions)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		log.Info().Msg("nothing to do")
		return NewFileSet(), nil
	}

	pipeline := New(opts.Pipeline)
	processed := NewFileSet()

	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return processed, errors.Errorf("could not read source file: %w", err)
		}

		file := document.NewFile(path, cwd, contents)
		if _, err := pipeline.Transform(ctx, file); err != nil {
			return processed, err
		}

		processed.Add(file)
		log.Info().Str("path", file.Relative()).Msg("optimized")
	}

	log.Info().Int("files", processed.Len()).Msg("done")

	return processed, nil
}
