package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeBaseHref(t *testing.T) {
	require.Equal(t, "", ComputeBaseHref("index.html"))
	require.Equal(t, "", ComputeBaseHref("404.html"))
	require.Equal(t, "../", ComputeBaseHref("posts/index.html"))
	require.Equal(t, "../../", ComputeBaseHref("posts/hello/index.html"))
	require.Equal(t, "../../../", ComputeBaseHref("/tags/go/2/index.html"))
}

func TestRouteFile(t *testing.T) {
	require.Equal(t, "index.html", RouteFile("/"))
	require.Equal(t, "posts/index.html", RouteFile("/posts/"))
	require.Equal(t, "posts/hello/index.html", RouteFile("/posts/hello/"))
	require.Equal(t, "posts/hello/index.html", RouteFile("posts/hello"))
	require.Equal(t, "404.html", RouteFile("/404.html"))
	require.Equal(t, "thumbs/a.jpg", RouteFile("/thumbs/a.jpg"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "hello-world", Slugify("Hello, World!"))
	require.Equal(t, "cafe-creme", Slugify("Café Crème"))
	require.Equal(t, "go-1-22", Slugify("  Go 1.22  "))
	require.Equal(t, "", Slugify("!!!"))
}
