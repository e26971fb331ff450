// Package minifier wraps the CSS, JS and HTML minifiers behind one calling
// convention.
package minifier

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/filesystem"
)

const (
	mimeCSS  = "text/css"
	mimeJS   = "application/javascript"
	mimeHTML = "text/html"
)

// The HTML minifier only knows text/html, so it leaves the contents of
// <style> and <script> untouched; those are handled by the inline stages.
var (
	cssMinifier  = newMinifier(mimeCSS, &css.Minifier{})
	jsMinifier   = newMinifier(mimeJS, &js.Minifier{})
	// There is no option to keep self-closing slashes; void elements always
	// lose them.
	htmlMinifier = newMinifier(mimeHTML, &html.Minifier{
		KeepComments:        false,
		KeepDefaultAttrVals: false,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepWhitespace:      false,
	})
)

func newMinifier(mimetype string, m minify.Minifier) *minify.M {
	result := minify.New()
	result.Add(mimetype, m)
	return result
}

// CSS minifies a stylesheet. Errors of the underlying minifier are returned
// unchanged in meaning; the source text is never passed through on failure.
func CSS(ctx context.Context, source string) (string, error) {
	out, err := cssMinifier.String(mimeCSS, source)
	if err != nil {
		return "", errors.Errorf("minify css: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("from", len(source)).Int("to", len(out)).Msg("reduced CSS size")

	return out, nil
}

// JS minifies a script. With fromPath set, input names a UTF-8 file that is
// read and minified; otherwise input is the script text itself.
func JS(ctx context.Context, input string, fromPath bool) (string, error) {
	source := input
	if fromPath {
		var err error
		source, err = filesystem.ReadFile(input, "utf-8")
		if err != nil {
			return "", err
		}
	}

	out, err := jsMinifier.String(mimeJS, source)
	if err != nil {
		if fromPath {
			return "", errors.Errorf("minify js '%s': %w", input, err)
		}
		return "", errors.Errorf("minify js: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("from", len(source)).Int("to", len(out)).Msg("reduced JS size")

	return out, nil
}

// HTML minifies serialized markup with a fixed option set: whitespace is
// collapsed, comments and default attribute values (including default script
// and style types) are dropped, boolean attributes are collapsed, while
// document tags, end tags and attribute quotes are kept.
func HTML(markup string) (string, error) {
	out, err := htmlMinifier.String(mimeHTML, markup)
	if err != nil {
		return "", errors.Errorf("minify html: %w", err)
	}

	return out, nil
}
