// Package content loads blog posts from markdown sources with YAML front-matter.
package content

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"folio/internal/readtime"
	"folio/internal/siteerrors"

	"github.com/inful/mdfp"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Post is one markdown source file. Posts are immutable once loaded.
type Post struct {
	Slug           string
	Title          string
	Author         *string
	Description    string
	Tags           []string
	PublishedAt    time.Time
	LastModifiedAt *time.Time
	Image          *string
	Draft          bool
	// EditML marks bodies written with editorial markup; the renderer
	// reduces them to their clean view.
	EditML bool

	Body        string
	SourcePath  string
	Fingerprint string
}

// ReadingTime estimates minutes to read the raw body at speed words per minute.
func (p *Post) ReadingTime(speed int) int {
	return readtime.Estimate(p.Body, speed)
}

// UpdatedAt is the last modification time, falling back to the publish time.
func (p *Post) UpdatedAt() time.Time {
	if p.LastModifiedAt != nil {
		return *p.LastModifiedAt
	}
	return p.PublishedAt
}

// Modified reports whether the post has a modification time after publishing.
func (p *Post) Modified() bool {
	return p.LastModifiedAt != nil && p.LastModifiedAt.After(p.PublishedAt)
}

// ParsePost builds a Post from the raw bytes of a source file.
func ParsePost(path string, data []byte, loc *time.Location) (*Post, error) {
	if loc == nil {
		loc = time.UTC
	}
	fail := func(msg string, cause error) error {
		b := siteerrors.ContentError(msg).WithContext("path", path)
		if cause != nil {
			b = b.WithCause(cause)
		}
		return b.Build()
	}

	if !utf8.Valid(data) {
		return nil, fail("source is not valid UTF-8", nil)
	}
	fm, body, had, err := splitFrontMatter(data)
	if err != nil {
		return nil, fail("malformed front-matter", err)
	}
	if !had {
		return nil, fail("missing front-matter", nil)
	}
	fields, err := parseFields(fm)
	if err != nil {
		return nil, fail("invalid front-matter YAML", err)
	}

	p := &Post{
		Body:        string(body),
		SourcePath:  path,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(fm), string(body)),
	}

	var ok bool
	if p.Title, ok, err = stringField(fields, "title"); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if !ok {
		return nil, fail("required field is missing: title", nil)
	}
	if p.Slug, ok, err = stringField(fields, "slug"); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if !ok {
		return nil, fail("required field is missing: slug", nil)
	}
	if !slugPattern.MatchString(p.Slug) {
		return nil, fail(fmt.Sprintf("slug %q is not URL-safe", p.Slug), nil)
	}
	if p.PublishedAt, ok, err = timeField(fields, "published_at", loc); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if !ok {
		return nil, fail("required field is missing: published_at", nil)
	}

	if p.Description, _, err = stringField(fields, "description"); err != nil {
		return nil, fail("invalid front-matter field", err)
	}
	if s, ok, err := stringField(fields, "author"); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if ok {
		p.Author = &s
	}
	if s, ok, err := stringField(fields, "image"); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if ok {
		p.Image = &s
	}
	if t, ok, err := timeField(fields, "last_modified_at", loc); err != nil {
		return nil, fail("invalid front-matter field", err)
	} else if ok {
		p.LastModifiedAt = &t
	}
	if p.Tags, err = tagsField(fields, "tags"); err != nil {
		return nil, fail("invalid front-matter field", err)
	}
	if p.Draft, err = boolField(fields, "draft"); err != nil {
		return nil, fail("invalid front-matter field", err)
	}
	if p.EditML, err = boolField(fields, "editml"); err != nil {
		return nil, fail("invalid front-matter field", err)
	}
	return p, nil
}
