package builder

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"time"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// baseTemplates are parsed into every page kind.
var baseTemplates = []string{"layout.html", "topbar.html", "footer.html", "summaries.html"}

// Templates holds one template set per page kind. Each set is the shared
// layout plus the kind's "content" definition.
type Templates struct {
	byKind map[string]*template.Template
}

// LoadTemplates parses the page templates. Files in themeDir take
// precedence; anything missing there comes from the embedded defaults.
// An empty themeDir uses the embedded defaults only.
func LoadTemplates(themeDir string) (*Templates, error) {
	defaults, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}
	var fsys fs.FS = defaults
	if themeDir != "" {
		info, err := os.Stat(themeDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("theme directory %s not found", themeDir)
		}
		fsys = overlayFS{top: os.DirFS(themeDir), bottom: defaults}
	}

	base, err := template.New("base").Funcs(templateFuncs).ParseFS(fsys, baseTemplates...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout templates: %w", err)
	}

	t := &Templates{byKind: make(map[string]*template.Template, len(pageKinds))}
	for _, kind := range pageKinds {
		set, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(fsys, kind+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", kind, err)
		}
		t.byKind[kind] = set
	}
	return t, nil
}

// Execute renders a full page of the given kind.
func (t *Templates) Execute(kind string, data *PageData) ([]byte, error) {
	set, ok := t.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
	var buf bytes.Buffer
	// "main" is the name of the template defined within our layout file.
	if err := set.ExecuteTemplate(&buf, "main", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("January 2, 2006") },
	"iso":  func(t time.Time) string { return t.Format(time.RFC3339) },
}

// overlayFS serves files from top, falling back to bottom.
type overlayFS struct {
	top, bottom fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.bottom.Open(name)
}
