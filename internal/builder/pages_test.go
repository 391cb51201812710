package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoutes(t *testing.T) {
	require.Equal(t, "/posts/hello/", PostRoute("hello"))
	require.Equal(t, "/posts/", ListRoute(1))
	require.Equal(t, "/posts/page/3/", ListRoute(3))
	require.Equal(t, "/tags/go/", TagRoute("go", 1))
	require.Equal(t, "/tags/go/page/2/", TagRoute("go", 2))
	require.Equal(t, "/thumbs/hello.jpg", ThumbnailRoute("hello"))
}

func TestRelHref(t *testing.T) {
	tests := []struct {
		name     string
		baseHref string
		route    string
		want     string
	}{
		{"root from root", "", "/", "./"},
		{"post from root", "", "/posts/a/", "posts/a/"},
		{"root from post", "../../", "/", "../../"},
		{"tag from list", "../", "/tags/go/", "../tags/go/"},
		{"external", "../", "https://example.com/", "https://example.com/"},
		{"fragment", "../", "#top", "#top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, relHref(tt.baseHref, tt.route))
		})
	}
}

func TestBaseHrefFor(t *testing.T) {
	require.Equal(t, "", baseHrefFor("/"))
	require.Equal(t, "", baseHrefFor("/404.html"))
	require.Equal(t, "../", baseHrefFor("/posts/"))
	require.Equal(t, "../../", baseHrefFor("/posts/hello/"))
	require.Equal(t, "../../../../", baseHrefFor("/tags/go/page/2/"))
}

func TestLoadTemplatesThemeOverridesDefaults(t *testing.T) {
	theme := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(theme, "notfound.html"),
		[]byte(`{{ define "content" }}<p>custom missing page</p>{{ end }}`), 0644))

	tmpl, err := LoadTemplates(theme)
	require.NoError(t, err)

	out, err := tmpl.Execute(KindNotFound, &PageData{Kind: KindNotFound, Site: &SiteView{Title: "T"}})
	require.NoError(t, err)
	require.Contains(t, string(out), "custom missing page")
	require.Contains(t, string(out), "<title>")
}

func TestLoadTemplatesMissingTheme(t *testing.T) {
	_, err := LoadTemplates(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
