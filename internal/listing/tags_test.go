package listing

import (
	"testing"

	"folio/internal/content"

	"github.com/stretchr/testify/require"
)

func TestGroupByTag(t *testing.T) {
	a := &content.Post{Slug: "a", Tags: []string{"Go", "Web Dev"}}
	b := &content.Post{Slug: "b", Tags: []string{"go"}}
	c := &content.Post{Slug: "c", Tags: []string{"web-dev", "Café"}}

	groups := GroupByTag([]*content.Post{a, b, c})
	require.Len(t, groups, 3)

	require.Equal(t, "cafe", groups[0].Slug)
	require.Equal(t, "Café", groups[0].Name)
	require.Equal(t, []*content.Post{c}, groups[0].Posts)

	require.Equal(t, "go", groups[1].Slug)
	require.Equal(t, "Go", groups[1].Name)
	require.Equal(t, []*content.Post{a, b}, groups[1].Posts)

	require.Equal(t, "web-dev", groups[2].Slug)
	require.Equal(t, []*content.Post{a, c}, groups[2].Posts)
}

func TestGroupByTag_NoTags(t *testing.T) {
	require.Empty(t, GroupByTag([]*content.Post{{Slug: "a"}}))
}

func TestTagSlug(t *testing.T) {
	require.Equal(t, "web-dev", TagSlug("Web Dev"))
	require.Equal(t, "日本語", TagSlug("日本語"))

	seen := make(map[string]string)
	for _, tag := range []string{"..", "../..", ".", "?", "#", "/"} {
		slug := TagSlug(tag)
		require.Regexp(t, `^tag-[0-9a-f]{8}$`, slug, tag)
		require.Equal(t, slug, TagSlug(tag))
		require.NotContains(t, seen, slug)
		seen[slug] = tag
	}
}
