package minifier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSS(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "inline block", source: "  a  {color:red;}  ", want: "a{color:red}"},
		{name: "standalone file", source: "body { margin : 0 ; }", want: "body{margin:0}"},
		{name: "empty", source: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CSS(context.Background(), tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSFromString(t *testing.T) {
	source := "var answer = 42 ;\n\n// comment\nconsole.log( answer );\n"

	got, err := JS(context.Background(), source, false)
	require.NoError(t, err)
	assert.Less(t, len(got), len(source))
	assert.NotContains(t, got, "comment")
	assert.Contains(t, got, "console.log")
}

func TestJSFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	source := "function add( first , second ) {\n    return first + second ;\n}\nconsole.log( add( 1, 2 ) );\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	got, err := JS(context.Background(), path, true)
	require.NoError(t, err)
	assert.Less(t, len(got), len(source))
	assert.NotContains(t, got, "\n    ")

	fromString, err := JS(context.Background(), source, false)
	require.NoError(t, err)
	assert.Equal(t, fromString, got)
}

func TestJSFromMissingPath(t *testing.T) {
	_, err := JS(context.Background(), filepath.Join(t.TempDir(), "missing.js"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJSSyntaxError(t *testing.T) {
	_, err := JS(context.Background(), "function (", false)
	assert.Error(t, err)
}

func TestHTML(t *testing.T) {
	markup := "<html>\n  <head>\n    <!-- comment -->\n    <script type=\"text/javascript\">var a = 1;</script>\n  </head>\n  <body>\n    <p>  hello   world  </p>\n  </body>\n</html>"

	got, err := HTML(markup)
	require.NoError(t, err)
	assert.NotContains(t, got, "comment")
	assert.NotContains(t, got, "\n")
	assert.Contains(t, got, "<html>")
	assert.Contains(t, got, "</p>")
	assert.Contains(t, got, "var a = 1;", "script contents are left to the inline stage")
}

func TestHTMLIsStable(t *testing.T) {
	markup := "<div class=\"a\">\n  <span>x</span>   <span>y</span>\n</div>"

	once, err := HTML(markup)
	require.NoError(t, err)

	twice, err := HTML(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.True(t, strings.HasPrefix(once, "<div"))
}

func TestHTMLDropsSelfClosingSlash(t *testing.T) {
	got, err := HTML(`<p>a<br/>b</p>`)
	require.NoError(t, err)
	assert.NotContains(t, got, "/>")
	assert.Contains(t, got, "<br>")
}
