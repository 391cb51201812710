package builder

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func resolverFor(names map[string]string) LinkResolver {
	return func(name string) (string, bool) {
		r, ok := names[name]
		return r, ok
	}
}

func TestRenderRewritesMarkdownLinks(t *testing.T) {
	r := newMarkdownRenderer(false)
	resolve := resolverFor(map[string]string{"second": PostRoute("second-post")})

	html, err := r.Render("See [the next one](second.md#intro) and [docs](https://example.com/a.md).", false, resolve)
	require.NoError(t, err)
	require.Contains(t, string(html), `href="../second-post/#intro"`)
	require.Contains(t, string(html), `href="https://example.com/a.md"`)
}

func TestRenderLeavesUnknownMarkdownLinks(t *testing.T) {
	r := newMarkdownRenderer(false)
	html, err := r.Render("[gone](missing.md)", false, resolverFor(nil))
	require.NoError(t, err)
	require.Contains(t, string(html), `href="missing.md"`)
}

func TestRenderSanitizesUnlessUnsafe(t *testing.T) {
	body := "Hello\n\n<script>alert(1)</script>\n"

	safe, err := newMarkdownRenderer(false).Render(body, false, nil)
	require.NoError(t, err)
	require.NotContains(t, string(safe), "<script>")

	unsafe, err := newMarkdownRenderer(true).Render(body, false, nil)
	require.NoError(t, err)
	require.Contains(t, string(unsafe), "<script>")
}

func TestRenderKeepsHeadingIDsAndLazyImages(t *testing.T) {
	html, err := newMarkdownRenderer(false).Render("## Getting Started\n\n![cat](/img/cat.png)\n", false, nil)
	require.NoError(t, err)
	require.Contains(t, string(html), `id="getting-started"`)
	require.Contains(t, string(html), `loading="lazy"`)
}

func TestRenderGFMTables(t *testing.T) {
	html, err := newMarkdownRenderer(false).Render("| a | b |\n|---|---|\n| 1 | 2 |\n", false, nil)
	require.NoError(t, err)
	require.Contains(t, string(html), "<table>")
}

func TestRenderEditMLPlainText(t *testing.T) {
	html, err := newMarkdownRenderer(false).Render("Hello world", true, nil)
	require.NoError(t, err)
	require.Contains(t, string(html), "Hello world")
}

func TestExcerpt(t *testing.T) {
	t.Run("skips code blocks", func(t *testing.T) {
		got := excerpt("<p>Intro text.</p><pre><code>x := 1</code></pre><p>More.</p>", 40)
		require.Equal(t, "Intro text. More.", got)
	})

	t.Run("truncates long text", func(t *testing.T) {
		words := strings.Repeat("word ", 50)
		got := excerpt(template.HTML("<p>"+words+"</p>"), 40)
		require.True(t, strings.HasSuffix(got, "…"))
		require.Len(t, strings.Fields(strings.TrimSuffix(got, "…")), 40)
	})
}
