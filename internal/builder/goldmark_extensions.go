// internal/builder/goldmark_extensions.go
package builder

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// linkResolverKey carries a per-document LinkResolver through the parser context.
var linkResolverKey = parser.NewContextKey()

// LinkResolver maps the base name of a markdown source ("hello-world" for
// "hello-world.md") to the route of the post built from it.
type LinkResolver func(name string) (route string, ok bool)

// mdLinkTransformer rewrites links between markdown sources to the routes of
// the posts they become, and marks images for lazy loading.
type mdLinkTransformer struct{}

func newMDLinkTransformer() parser.ASTTransformer {
	return &mdLinkTransformer{}
}

func (t *mdLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	resolve, _ := pc.Get(linkResolverKey).(LinkResolver)

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			if resolve != nil {
				if dest, ok := rewriteMarkdownLink(v.Destination, resolve); ok {
					v.Destination = dest
				}
			}
		case *ast.Image:
			v.SetAttributeString("loading", []byte("lazy"))
		}
		return ast.WalkContinue, nil
	})
}

// rewriteMarkdownLink turns "other.md#part" into "../other-slug/#part".
// Absolute URLs and links to unknown sources are left alone.
func rewriteMarkdownLink(dest []byte, resolve LinkResolver) ([]byte, bool) {
	u, err := url.Parse(string(dest))
	if err != nil || u.Scheme != "" || u.Host != "" {
		return nil, false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".md" && ext != ".markdown" {
		return nil, false
	}
	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	route, ok := resolve(name)
	if !ok {
		return nil, false
	}

	var out bytes.Buffer
	// Post pages live one level below /posts/, so siblings are "../<slug>/".
	out.WriteString("../")
	out.WriteString(path.Base(strings.TrimSuffix(route, "/")))
	out.WriteString("/")
	if u.Fragment != "" {
		out.WriteString("#")
		out.WriteString(u.Fragment)
	}
	return out.Bytes(), true
}
