package builder

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/verkaro/editml-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	xhtml "golang.org/x/net/html"
)

const excerptWords = 40

// markdownRenderer converts post bodies to HTML fragments.
type markdownRenderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func newMarkdownRenderer(unsafe bool) *markdownRenderer {
	r := &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.Typographer),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(
					util.Prioritized(newMDLinkTransformer(), 100),
				),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
	if !unsafe {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6", "li", "sup")
		policy.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
		policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
		r.sanitizer = policy
	}
	return r
}

// Render converts body to HTML. Bodies flagged as EditML are first reduced
// to their clean view.
func (r *markdownRenderer) Render(body string, editML bool, resolve LinkResolver) (template.HTML, error) {
	if editML {
		clean, err := cleanEditML(body)
		if err != nil {
			return "", err
		}
		body = clean
	}

	ctx := parser.NewContext()
	if resolve != nil {
		ctx.Set(linkResolverKey, resolve)
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf, parser.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}
	if r.sanitizer != nil {
		return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
	}
	return template.HTML(buf.String()), nil
}

// cleanEditML strips editorial markup (insertions, deletions, comments)
// down to the accepted text.
func cleanEditML(raw string) (string, error) {
	nodes, parseIssues := editml.Parse(raw)
	if len(parseIssues) > 0 && parseIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml parsing error: %s", parseIssues[0].Message)
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	if len(transformIssues) > 0 && transformIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml transformation error: %s", transformIssues[0].Message)
	}
	return clean, nil
}

// excerpt returns the first words of the visible text of an HTML fragment.
func excerpt(fragment template.HTML, words int) string {
	doc, err := xhtml.Parse(strings.NewReader(string(fragment)))
	if err != nil {
		return ""
	}

	var fields []string
	var walk func(n *xhtml.Node) bool
	walk = func(n *xhtml.Node) bool {
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "pre", "script", "style", "sup", "figure":
				return true
			}
		}
		if n.Type == xhtml.TextNode {
			fields = append(fields, strings.Fields(n.Data)...)
			if len(fields) > words {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	if len(fields) > words {
		return strings.Join(fields[:words], " ") + "…"
	}
	return strings.Join(fields, " ")
}
