package resolve

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgraf/optimizehtml/config"
	"github.com/bgraf/optimizehtml/document"
)

type recorder struct {
	mu    sync.Mutex
	files map[string]string
}

func (r *recorder) follow(_ context.Context, file *document.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.files == nil {
		r.files = make(map[string]string)
	}
	r.files[file.Path] = string(file.Contents)
	return nil
}

func (r *recorder) paths() []string {
	var paths []string
	for p := range r.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func setup(t *testing.T, files map[string]string, markup string) (string, *document.Document) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	page := filepath.Join(root, "page.html")
	doc, err := document.Load(document.NewFile(page, root, []byte(markup)), "utf-8")
	require.NoError(t, err)

	return root, doc
}

func TestResolveImports(t *testing.T) {
	root, doc := setup(t, map[string]string{
		"frag.html":          "<p>fragment</p>",
		"parts/nested.html":  "<p>nested</p>",
		"parts/ignored.html": "<p>ignored</p>",
	}, `<link rel="import" href="frag.html"><link rel="import" href="parts/nested.html"><link rel="import" href="style.css"><link rel="stylesheet" href="a.css">`)

	rec := &recorder{}
	err := Resolve(context.Background(), doc, Imports, Imports.Policy(config.Default()), rec.follow)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "frag.html"),
		filepath.Join(root, "parts", "nested.html"),
	}, rec.paths())
	assert.Equal(t, "<p>fragment</p>", rec.files[filepath.Join(root, "frag.html")])
}

func TestResolveExternals(t *testing.T) {
	root, doc := setup(t, map[string]string{
		"a.css":      "a { color: red }",
		"b.css":      "b { color: blue }",
		"js/app.js":  "var a = 1;",
		"frag.html":  "",
		"other.json": "{}",
	}, `<link rel="stylesheet" href="a.css"><style src="b.css"></style><script src="js/app.js"></script><script src="other.json"></script><link rel="import" href="frag.html"><script>inline()</script>`)

	rec := &recorder{}
	err := Resolve(context.Background(), doc, Externals, Externals.Policy(config.Default()), rec.follow)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.css"),
		filepath.Join(root, "b.css"),
		filepath.Join(root, "js", "app.js"),
	}, rec.paths())
}

func TestResolveIgnored(t *testing.T) {
	markup := `<link rel="import" href="missing.html"><p>keep</p>`

	tests := []struct {
		name  string
		strip bool
		want  string
	}{
		{name: "strip", strip: true, want: `<p>keep</p>`},
		{name: "keep", strip: false, want: `<link rel="import" href="missing.html"/><p>keep</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, doc := setup(t, nil, markup)

			opts := config.Default()
			opts.IgnoreImports = config.PathList{filepath.Join(root, "missing.html")}
			opts.StripIgnoredImports = tt.strip

			// missing.html does not exist: a read attempt would fail the run.
			rec := &recorder{}
			err := Resolve(context.Background(), doc, Imports, Imports.Policy(opts), rec.follow)
			require.NoError(t, err)
			assert.Empty(t, rec.paths())

			markup, err := doc.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.want, markup)
		})
	}
}

func TestResolveIgnorePattern(t *testing.T) {
	root, doc := setup(t, map[string]string{
		"app.js": "app()",
	}, `<script src="vendor/lib/jquery.js"></script><script src="app.js"></script>`)

	opts := config.Default()
	opts.IgnoreExternals = config.PathList{filepath.Join(root, "vendor", "**")}

	rec := &recorder{}
	err := Resolve(context.Background(), doc, Externals, Externals.Policy(opts), rec.follow)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "app.js")}, rec.paths())

	markup, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, `<script src="app.js"></script>`, markup)
}

func TestResolveMissingFile(t *testing.T) {
	_, doc := setup(t, nil, `<link rel="stylesheet" href="missing.css">`)

	rec := &recorder{}
	err := Resolve(context.Background(), doc, Externals, Externals.Policy(config.Default()), rec.follow)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveFollowError(t *testing.T) {
	_, doc := setup(t, map[string]string{"a.css": ""}, `<link rel="stylesheet" href="a.css">`)

	boom := assert.AnError
	err := Resolve(context.Background(), doc, Externals, Externals.Policy(config.Default()),
		func(context.Context, *document.File) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestResolveNarration(t *testing.T) {
	root, doc := setup(t, map[string]string{"frag.html": ""},
		`<link rel="import" href="frag.html"><link rel="import" href="skip.html">`)

	opts := config.Default()
	opts.Verbose = true
	opts.IgnoreImports = config.PathList{filepath.Join(root, "skip.html")}

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	rec := &recorder{}
	require.NoError(t, Resolve(ctx, doc, Imports, Imports.Policy(opts), rec.follow))

	out := buf.String()
	assert.Contains(t, out, `"message":"Following HTML import"`)
	assert.Contains(t, out, `"path":"frag.html"`)
	assert.Contains(t, out, `"message":"Ignoring HTML import"`)
	assert.Contains(t, out, `"message":"Stripping ignored HTML import"`)
	assert.Contains(t, out, `"path":"skip.html"`)
}

func TestResolveQuiet(t *testing.T) {
	_, doc := setup(t, map[string]string{"frag.html": ""}, `<link rel="import" href="frag.html">`)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	rec := &recorder{}
	require.NoError(t, Resolve(ctx, doc, Imports, Imports.Policy(config.Default()), rec.follow))
	assert.Empty(t, buf.String())
}

func TestReference(t *testing.T) {
	_, doc := setup(t, nil, `<link rel="stylesheet" href="../shared/site.css"><script src="/abs/app.js"></script>`)

	policy := Externals.Policy(config.Default())

	link := Externals.Reference(doc, doc.HTML.Find("link"), policy)
	assert.Equal(t, filepath.Join(filepath.Dir(doc.BaseDirectory), "shared", "site.css"), link.Path)
	assert.False(t, link.Ignored)

	script := Externals.Reference(doc, doc.HTML.Find("script"), policy)
	assert.Equal(t, "/abs/app.js", script.Path)
}
