package building

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/config"
	"github.com/bgraf/optimizehtml/document"
	"github.com/bgraf/optimizehtml/filesystem"
	"github.com/bgraf/optimizehtml/minifier"
)

var (
	ErrStreamingNotSupported = errors.Base("streaming not supported")
	ErrMaxDepth              = errors.Base("maximum reference depth exceeded")
)

// Extensions lists the file extensions the pipeline acts on.
var Extensions = []string{".html", ".css", ".js"}

// Pipeline optimizes HTML documents together with the stylesheets, scripts
// and HTML imports they reference. Its options are fixed at construction.
type Pipeline struct {
	opts config.Options
}

func New(opts config.Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Transform is the host boundary: it accepts one record at a time. Null
// records pass through untouched and streamed records are rejected before
// anything is read or written.
func (p *Pipeline) Transform(ctx context.Context, file *document.File) (*document.File, error) {
	if file.IsNull() {
		return file, nil
	}

	if file.IsStream() {
		return nil, errors.Errorf("%s: %w", file.Path, ErrStreamingNotSupported)
	}

	if err := p.Dispatch(ctx, file); err != nil {
		return nil, err
	}

	return file, nil
}

// Dispatch processes a buffered record according to its extension.
func (p *Pipeline) Dispatch(ctx context.Context, file *document.File) error {
	return dispatch(ctx, file, p.opts, 0)
}

// dispatch is reentered for every followed import and external with depth
// increased by one. Reference cycles are only cut by opts.MaxDepth.
func dispatch(ctx context.Context, file *document.File, opts config.Options, depth int) error {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return errors.Errorf("%w: '%s' at depth %d", ErrMaxDepth, file.Relative(), depth)
	}

	switch strings.ToLower(filepath.Ext(file.Path)) {
	case ".html":
		return processHTMLFile(ctx, file, opts, depth)

	case ".css":
		if opts.MinifyCSS {
			return processCSSFile(ctx, file, opts)
		}
		return nil

	case ".js":
		if opts.MinifyJS {
			return processJSFile(ctx, file, opts)
		}
		return nil

	default:
		return nil
	}
}

func processHTMLFile(ctx context.Context, file *document.File, opts config.Options, depth int) error {
	doc, err := document.Load(file, opts.Encoding)
	if err != nil {
		return err
	}

	return runStages(ctx, htmlStages(), &job{doc: doc, opts: opts, depth: depth})
}

func processCSSFile(ctx context.Context, file *document.File, opts config.Options) error {
	source, err := filesystem.ReadFile(file.Path, opts.Encoding)
	if err != nil {
		return err
	}

	narrate(ctx, opts, "Minifying CSS", file.Relative())

	result, err := minifier.CSS(ctx, source)
	if err != nil {
		return errors.Errorf("'%s': %w", file.Relative(), err)
	}

	return filesystem.WriteFile(file.Path, result, opts.Encoding)
}

func processJSFile(ctx context.Context, file *document.File, opts config.Options) error {
	narrate(ctx, opts, "Minifying JS", file.Relative())

	result, err := minifier.JS(ctx, file.Path, true)
	if err != nil {
		return err
	}

	return filesystem.WriteFile(file.Path, result, opts.Encoding)
}

func narrate(ctx context.Context, opts config.Options, msg string, path string) {
	if !opts.Verbose {
		return
	}

	zerolog.Ctx(ctx).Info().Str("path", path).Msg(msg)
}
