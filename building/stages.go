package building

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/config"
	"github.com/bgraf/optimizehtml/document"
	"github.com/bgraf/optimizehtml/filesystem"
	"github.com/bgraf/optimizehtml/minifier"
	"github.com/bgraf/optimizehtml/resolve"
	"github.com/bgraf/optimizehtml/walk"
)

// job is the state one HTML document carries through its stages.
type job struct {
	doc   *document.Document
	opts  config.Options
	depth int
}

type stage struct {
	name    string
	enabled func(opts config.Options) bool
	run     func(ctx context.Context, j *job) error
}

func always(config.Options) bool {
	return true
}

// htmlStages returns the stages of an HTML document in execution order.
func htmlStages() []stage {
	return []stage{
		{
			name:    "follow imports",
			enabled: func(o config.Options) bool { return o.FollowImports },
			run:     followImports,
		},
		{
			name:    "follow externals",
			enabled: func(o config.Options) bool { return o.FollowExternals },
			run:     followExternals,
		},
		{
			name:    "inline css",
			enabled: func(o config.Options) bool { return o.MinifyInlineCSS },
			run:     inlineCSS,
		},
		{
			name:    "inline js",
			enabled: func(o config.Options) bool { return o.MinifyInlineJS },
			run:     inlineJS,
		},
		{
			name:    "minify html",
			enabled: func(o config.Options) bool { return o.MinifyHTML },
			run:     minifyHTML,
		},
		{
			name:    "finish",
			enabled: always,
			run:     finish,
		},
	}
}

// runStages runs every enabled stage in order. A stage starts only after the
// previous one, including all of its fan-outs, has returned.
func runStages(ctx context.Context, stages []stage, j *job) error {
	log := zerolog.Ctx(ctx)

	for _, s := range stages {
		if !s.enabled(j.opts) {
			log.Debug().Str("path", j.doc.Relative()).Str("stage", s.name).Msg("skipping stage")
			continue
		}

		if err := s.run(ctx, j); err != nil {
			return errors.Errorf("%s '%s': %w", s.name, j.doc.Relative(), err)
		}
	}

	return nil
}

func followImports(ctx context.Context, j *job) error {
	return resolve.Resolve(ctx, j.doc, resolve.Imports, resolve.Imports.Policy(j.opts),
		func(ctx context.Context, file *document.File) error {
			return dispatch(ctx, file, j.opts, j.depth+1)
		})
}

func followExternals(ctx context.Context, j *job) error {
	child := j.opts.ForExternals()

	return resolve.Resolve(ctx, j.doc, resolve.Externals, resolve.Externals.Policy(j.opts),
		func(ctx context.Context, file *document.File) error {
			return dispatch(ctx, file, child, j.depth+1)
		})
}

// minifyBlocks replaces the content of every non-empty node matched by
// selector with its minified form.
func minifyBlocks(
	ctx context.Context,
	j *job,
	selector string,
	accept func(s *goquery.Selection) bool,
	msg string,
	minify func(ctx context.Context, source string) (string, error),
) error {
	return walk.Walk(ctx, walk.Selection(j.doc.HTML.Find(selector)), func(ctx context.Context, s *goquery.Selection) error {
		if !accept(s) {
			return nil
		}

		source := j.doc.Content(s)
		if len(source) == 0 {
			return nil
		}

		narrate(ctx, j.opts, msg, j.doc.Relative())

		result, err := minify(ctx, source)
		if err != nil {
			return err
		}

		j.doc.SetContent(s, result)
		return nil
	})
}

func inlineCSS(ctx context.Context, j *job) error {
	return minifyBlocks(ctx, j, "style", func(*goquery.Selection) bool { return true },
		"Minifying inline CSS block", minifier.CSS)
}

func inlineJS(ctx context.Context, j *job) error {
	return minifyBlocks(ctx, j, "script", isJavaScript,
		"Minifying inline JS block", func(ctx context.Context, source string) (string, error) {
			return minifier.JS(ctx, source, false)
		})
}

// isJavaScript reports whether a <script> holds JavaScript rather than data
// such as JSON or templates.
func isJavaScript(s *goquery.Selection) bool {
	typ, ok := s.Attr("type")
	if !ok {
		return true
	}

	typ = strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = strings.TrimSpace(typ[:i])
	}

	switch typ {
	case "", "module", "text/javascript", "application/javascript", "application/ecmascript", "text/ecmascript":
		return true
	}

	return false
}

func minifyHTML(ctx context.Context, j *job) error {
	markup, err := j.doc.Render()
	if err != nil {
		return err
	}

	narrate(ctx, j.opts, "Minifying HTML", j.doc.Relative())

	result, err := minifier.HTML(markup)
	if err != nil {
		return err
	}

	j.doc.SetOutput(result)
	return nil
}

func finish(ctx context.Context, j *job) error {
	final, err := j.doc.Final()
	if err != nil {
		return err
	}

	if err := filesystem.WriteFile(j.doc.Path, final, j.doc.Encoding); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("path", j.doc.Relative()).Int("bytes", len(final)).Msg("written document")

	return nil
}
