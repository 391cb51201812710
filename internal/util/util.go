package util

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ComputeBaseHref calculates the relative path to the site root
// so that CSS/JS links work correctly for pages at any depth.
// For example, a page at posts/a/index.html gets a BaseHref of "../../".
func ComputeBaseHref(relPath string) string {
	dir := path.Dir(strings.TrimPrefix(relPath, "/"))
	if dir == "." {
		return ""
	}
	depth := strings.Count(dir, "/") + 1
	return strings.Repeat("../", depth)
}

// RouteFile maps a site route to the file written for it. Directory routes
// ("/posts/hello/") get an index.html; file routes ("/404.html") are kept.
func RouteFile(route string) string {
	route = strings.TrimPrefix(route, "/")
	if route == "" || strings.HasSuffix(route, "/") {
		return route + "index.html"
	}
	if path.Ext(route) == "" {
		return route + "/index.html"
	}
	return route
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks   = runes.Remove(runes.In(unicode.Mn))
)

// Slugify lowercases s, folds accents ("Café" -> "cafe") and joins the
// remaining alphanumeric runs with hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s)
	if err != nil {
		folded = s
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}
