package document

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bgraf/optimizehtml/filesystem"
	"github.com/bgraf/optimizehtml/option"
)

var (
	commentPattern       = regexp.MustCompile(`<!--[\s\S]*?-->`)
	documentStartPattern = regexp.MustCompile(`(?i)^\s*(<!doctype\s|<html[\s/>])`)
	htmlTagPattern       = regexp.MustCompile(`(?i)<html[\s/>]`)
	headTagPattern       = regexp.MustCompile(`(?i)<head[\s/>]`)
	bodyTagPattern       = regexp.MustCompile(`(?i)<body[\s/>]`)
)

// Document is the processing context of a single HTML file. It is owned by
// exactly one pipeline run.
type Document struct {
	Path          string            // File system path
	BaseDirectory string            // Directory references are resolved against
	Cwd           string            // Working directory used for narration
	Encoding      string            // Encoding label for reads and writes
	HTML          *goquery.Document // Mutable tree
	IsFragment    bool              // Markup had no document structure

	// Document elements the parser inserted although the source lacks
	// their tags. They are rendered as their children only.
	implied map[atom.Atom]bool

	output option.Option[string]
	mu     sync.Mutex
}

// Load parses the buffered contents of file.
//
// Markup that starts with a doctype or <html>, or that carries a <head> or
// <body> tag, is parsed as a document. Everything else is parsed in the
// context of a <template> element, which keeps table parts such as <tr> that
// a body context would drop. Comments are ignored while detecting either.
func Load(file *File, encoding string) (*Document, error) {
	markup, err := filesystem.Decode(file.Contents, encoding)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Path:          file.Path,
		BaseDirectory: file.Base,
		Cwd:           file.Cwd,
		Encoding:      encoding,
		output:        option.None[string](),
	}

	stripped := commentPattern.ReplaceAllString(markup, "")
	hasHead := headTagPattern.MatchString(stripped)
	hasBody := bodyTagPattern.MatchString(stripped)

	if documentStartPattern.MatchString(stripped) || hasHead || hasBody {
		doc.HTML, err = goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			return nil, errors.Errorf("could not parse HTML '%s': %w", file.Path, err)
		}
		doc.implied = map[atom.Atom]bool{
			atom.Html: !htmlTagPattern.MatchString(stripped),
			atom.Head: !hasHead,
			atom.Body: !hasBody,
		}
		return doc, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "template",
		DataAtom: atom.Template,
	})
	if err != nil {
		return nil, errors.Errorf("could not parse HTML fragment '%s': %w", file.Path, err)
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	doc.HTML = goquery.NewDocumentFromNode(root)
	doc.IsFragment = true

	return doc, nil
}

// Relative returns the document path relative to its working directory.
func (d *Document) Relative() string {
	return filesystem.Rel(d.Cwd, d.Path)
}

// mutate runs fn with exclusive access to the tree. Concurrent node
// operations within one stage must route every tree change through it.
func (d *Document) mutate(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Content returns the text content of a raw text element such as <style>.
func (d *Document) Content(s *goquery.Selection) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return s.Text()
}

// SetContent replaces the children of s by a single text node.
func (d *Document) SetContent(s *goquery.Selection, text string) {
	d.mutate(func() {
		s.Empty()
		s.AppendNodes(&html.Node{Type: html.TextNode, Data: text})
	})
}

// Remove strips s from the tree.
func (d *Document) Remove(s *goquery.Selection) {
	d.mutate(func() {
		s.Remove()
	})
}

// Render serializes the current tree.
func (d *Document) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	for n := d.HTML.Get(0).FirstChild; n != nil; n = n.NextSibling {
		if err := d.render(&buf, n); err != nil {
			return "", errors.Errorf("could not render '%s': %w", d.Path, err)
		}
	}

	return buf.String(), nil
}

func (d *Document) render(buf *bytes.Buffer, n *html.Node) error {
	if n.Type != html.ElementNode || !d.implied[n.DataAtom] || len(n.Attr) > 0 {
		return html.Render(buf, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := d.render(buf, c); err != nil {
			return err
		}
	}

	return nil
}

// SetOutput records the final markup, replacing the tree serialization.
func (d *Document) SetOutput(markup string) {
	d.output = option.Some(markup)
}

// Final returns the recorded output, or the tree serialization when no
// output has been recorded.
func (d *Document) Final() (string, error) {
	return d.output.OrElseGet(d.Render)
}
