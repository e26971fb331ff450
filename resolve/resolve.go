// Package resolve follows the HTML imports and external stylesheet and script
// references of a document.
package resolve

import (
	"context"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/bgraf/optimizehtml/config"
	"github.com/bgraf/optimizehtml/document"
	"github.com/bgraf/optimizehtml/filesystem"
	"github.com/bgraf/optimizehtml/walk"
)

// FollowFunc processes a referenced file. It is called once per followed
// reference and must return only after the file has been fully processed.
type FollowFunc func(ctx context.Context, file *document.File) error

// Class is a kind of resource reference.
type Class struct {
	Label     string
	Selector  string
	Attribute func(s *goquery.Selection) string

	policy func(opts config.Options) Policy
}

var Imports = Class{
	Label:    "HTML import",
	Selector: `link[rel="import"][href$=".html"]`,
	Attribute: func(*goquery.Selection) string {
		return "href"
	},
	policy: func(opts config.Options) Policy {
		return Policy{
			Ignore:  opts.IgnoreImports,
			Strip:   opts.StripIgnoredImports,
			Verbose: opts.Verbose,
		}
	},
}

var Externals = Class{
	Label:    "external",
	Selector: `link[rel="stylesheet"][href$=".css"], style[src$=".css"], script[src$=".js"]`,
	Attribute: func(s *goquery.Selection) string {
		if strings.EqualFold(goquery.NodeName(s), "link") {
			return "href"
		}
		return "src"
	},
	policy: func(opts config.Options) Policy {
		return Policy{
			Ignore:  opts.IgnoreExternals,
			Strip:   opts.StripIgnoredExternals,
			Verbose: opts.Verbose,
		}
	},
}

// Policy decides what happens to the references of one class.
type Policy struct {
	Ignore  config.PathList
	Strip   bool
	Verbose bool
}

// Policy extracts the policy of c from opts.
func (c Class) Policy(opts config.Options) Policy {
	return c.policy(opts)
}

// Reference is one matched node together with its resolved target.
type Reference struct {
	Path    string
	Node    *goquery.Selection
	Ignored bool
}

// Reference resolves the reference attribute of s against the document's base
// directory.
func (c Class) Reference(doc *document.Document, s *goquery.Selection, policy Policy) Reference {
	ref := s.AttrOr(c.Attribute(s), "")
	path := filesystem.Resolve(doc.BaseDirectory, ref)

	return Reference{
		Path:    path,
		Node:    s,
		Ignored: policy.Ignore.Contains(path),
	}
}

// Resolve walks every node of class c in doc. Ignored references are never
// read and, if the policy says so, stripped from the tree. Every other target
// is read and handed to follow; Resolve returns once all of them are done.
// A read failure aborts the walk.
func Resolve(ctx context.Context, doc *document.Document, c Class, policy Policy, follow FollowFunc) error {
	nodes := doc.HTML.Find(c.Selector)

	return walk.Walk(ctx, walk.Selection(nodes), func(ctx context.Context, s *goquery.Selection) error {
		return c.resolve(ctx, doc, c.Reference(doc, s, policy), policy, follow)
	})
}

func (c Class) resolve(ctx context.Context, doc *document.Document, ref Reference, policy Policy, follow FollowFunc) error {
	rel := filesystem.Rel(doc.Cwd, ref.Path)

	if ref.Ignored {
		narrate(ctx, policy.Verbose, "Ignoring "+c.Label, rel)

		if policy.Strip {
			doc.Remove(ref.Node)
			narrate(ctx, policy.Verbose, "Stripping ignored "+c.Label, rel)
		}

		return nil
	}

	narrate(ctx, policy.Verbose, "Following "+c.Label, rel)

	if err := ctx.Err(); err != nil {
		return err
	}

	contents, err := os.ReadFile(ref.Path)
	if err != nil {
		return errors.Errorf("could not read %s '%s' referenced by '%s': %w", c.Label, rel, doc.Relative(), err)
	}

	return follow(ctx, document.NewFile(ref.Path, doc.Cwd, contents))
}

func narrate(ctx context.Context, verbose bool, msg string, path string) {
	if !verbose {
		return
	}

	zerolog.Ctx(ctx).Info().Str("path", path).Msg(msg)
}
