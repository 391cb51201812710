package listing

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	"folio/internal/content"
	"folio/internal/util"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TagGroup is every post carrying one tag, in global order.
type TagGroup struct {
	Slug  string
	Name  string
	Posts []*content.Post
}

var tagCaser = cases.Lower(language.Und)

// GroupByTag groups posts by tag. Tags that slugify to the same value are
// merged; the display name is the first spelling met in global order.
// Groups are sorted by slug.
func GroupByTag(posts []*content.Post) []TagGroup {
	index := make(map[string]int)
	var groups []TagGroup
	for _, p := range posts {
		for _, tag := range p.Tags {
			slug := TagSlug(tag)
			i, ok := index[slug]
			if !ok {
				i = len(groups)
				index[slug] = i
				groups = append(groups, TagGroup{Slug: slug, Name: tag})
			}
			groups[i].Posts = append(groups[i].Posts, p)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Slug < groups[j].Slug })
	return groups
}

// TagSlug is the route segment of a tag. Tags with no ASCII letters or
// digits keep their lowercased letters and digits; tags with none at all
// ("..", "?") get a stable hashed segment so they never form a path.
func TagSlug(tag string) string {
	if slug := util.Slugify(tag); slug != "" {
		return slug
	}
	words := strings.FieldsFunc(tagCaser.String(tag), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) > 0 {
		return strings.Join(words, "-")
	}
	h := fnv.New32a()
	h.Write([]byte(tag))
	return fmt.Sprintf("tag-%08x", h.Sum32())
}
