package content

import (
	"strings"
	"testing"
	"time"

	"folio/internal/siteerrors"

	"github.com/stretchr/testify/require"
)

const samplePost = `---
title: Hello World
slug: hello-world
author: Ada
description: First post
tags: [go, web]
published_at: "2024-05-01T09:00:00Z"
last_modified_at: "2024-05-03T09:00:00Z"
image: /images/hello.png
---
Body text here.
`

func TestParsePost_AllFields(t *testing.T) {
	p, err := ParsePost("hello.md", []byte(samplePost), time.UTC)
	require.NoError(t, err)

	require.Equal(t, "hello-world", p.Slug)
	require.Equal(t, "Hello World", p.Title)
	require.NotNil(t, p.Author)
	require.Equal(t, "Ada", *p.Author)
	require.Equal(t, "First post", p.Description)
	require.Equal(t, []string{"go", "web"}, p.Tags)
	require.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), p.PublishedAt.UTC())
	require.NotNil(t, p.LastModifiedAt)
	require.True(t, p.Modified())
	require.Equal(t, *p.LastModifiedAt, p.UpdatedAt())
	require.NotNil(t, p.Image)
	require.Equal(t, "/images/hello.png", *p.Image)
	require.Equal(t, "Body text here.\n", p.Body)
	require.NotEmpty(t, p.Fingerprint)
	require.False(t, p.Draft)
}

func TestParsePost_OptionalFieldsAbsent(t *testing.T) {
	src := "---\ntitle: T\nslug: t\npublished_at: 2024-01-01\n---\nx\n"
	p, err := ParsePost("t.md", []byte(src), time.UTC)
	require.NoError(t, err)

	require.Nil(t, p.Author)
	require.Nil(t, p.Image)
	require.Nil(t, p.LastModifiedAt)
	require.Empty(t, p.Tags)
	require.Equal(t, p.PublishedAt, p.UpdatedAt())
	require.False(t, p.Modified())
}

func TestParsePost_FingerprintTracksContent(t *testing.T) {
	a, err := ParsePost("a.md", []byte(samplePost), time.UTC)
	require.NoError(t, err)
	b, err := ParsePost("a.md", []byte(samplePost), time.UTC)
	require.NoError(t, err)
	c, err := ParsePost("a.md", []byte(strings.Replace(samplePost, "Body text", "Other text", 1)), time.UTC)
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint, b.Fingerprint)
	require.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestParsePost_ReadingTime(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("word ", 400))
	src := "---\ntitle: T\nslug: t\npublished_at: 2024-01-01\n---\n" + body
	p, err := ParsePost("t.md", []byte(src), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 2, p.ReadingTime(200))
}

func TestParsePost_Malformed(t *testing.T) {
	cases := map[string]string{
		"no front-matter":   "just a body\n",
		"unterminated":      "---\ntitle: T\n",
		"bad yaml":          "---\ntitle: [\n---\n",
		"missing title":     "---\nslug: t\npublished_at: 2024-01-01\n---\n",
		"missing slug":      "---\ntitle: T\npublished_at: 2024-01-01\n---\n",
		"missing published": "---\ntitle: T\nslug: t\n---\n",
		"bad timestamp":     "---\ntitle: T\nslug: t\npublished_at: someday\n---\n",
		"unsafe slug":       "---\ntitle: T\nslug: a/b\npublished_at: 2024-01-01\n---\n",
		"list title":        "---\ntitle: [a, b]\nslug: t\npublished_at: 2024-01-01\n---\n",
		"string draft":      "---\ntitle: T\nslug: t\npublished_at: 2024-01-01\ndraft: maybe\n---\n",
		"invalid utf8":      "---\ntitle: \xff\nslug: t\npublished_at: 2024-01-01\n---\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePost("bad.md", []byte(src), time.UTC)
			require.Error(t, err)
			require.ErrorIs(t, err, siteerrors.ErrContent)
		})
	}
}
