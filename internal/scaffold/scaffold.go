// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"folio/internal/config"
	"folio/internal/siteerrors"
	"folio/internal/util"
)

// ArchetypePath is where a site keeps the template for new posts,
// relative to the site root.
const ArchetypePath = "archetypes/post.md"

// ConfigFile is the config file name written into new sites.
const ConfigFile = "folio.yaml"

// CreateNewSite lays out a ready-to-build site in the directory name.
// An existing non-empty directory is refused.
func CreateNewSite(name string) error {
	if entries, err := os.ReadDir(name); err == nil && len(entries) > 0 {
		return siteerrors.NewError(siteerrors.CategoryFileSystem, "target directory is not empty").
			WithContext("path", name).
			Fatal().
			Build()
	}

	fmt.Println("Scaffolding new site in:", name)
	dirs := []string{"content/posts", "static/css", "static/images", "templates", "archetypes"}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(name, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	sample, err := renderArchetype(archetypeContent, archetypeData{
		Title:       "Hello, world",
		Slug:        "hello-world",
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
		Author:      "Your Name",
		Tags:        []string{"meta"},
	})
	if err != nil {
		return err
	}

	files := map[string]string{
		ConfigFile:                     siteYamlContent,
		ArchetypePath:                  archetypeContent,
		"content/posts/hello-world.md": string(sample) + samplePostBody,
		"static/css/style.css":         staticCssContent,
	}
	for path, content := range files {
		if err := os.WriteFile(filepath.Join(name, path), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
	}
	fmt.Println("Site scaffolded. You can now:")
	fmt.Println("  cd", name)
	fmt.Println("  folio new post \"My first post\"")
	fmt.Println("  folio serve")
	return nil
}

type archetypeData struct {
	Title       string
	Slug        string
	PublishedAt string
	Author      string
	Tags        []string
}

// CreateNewPost writes content/posts/<slug>.md from the site's archetype,
// dated now in the site's timezone. It returns the path of the new file and
// never overwrites an existing one.
func CreateNewPost(title string, cfg *config.SiteConfig, now time.Time) (string, error) {
	slug := util.Slugify(title)
	if slug == "" {
		return "", siteerrors.ContentError("title does not produce a usable slug").
			WithContext("title", title).
			Build()
	}

	siteRoot := filepath.Dir(filepath.Clean(cfg.Build.ContentDir))
	archetype := archetypeContent
	archetypeFile := filepath.Join(siteRoot, filepath.FromSlash(ArchetypePath))
	if data, err := os.ReadFile(archetypeFile); err == nil {
		archetype = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypeFile, err)
	}

	out, err := renderArchetype(archetype, archetypeData{
		Title:       title,
		Slug:        slug,
		PublishedAt: now.In(cfg.Location()).Format(time.RFC3339),
		Author:      cfg.Site.Author,
	})
	if err != nil {
		return "", fmt.Errorf("archetype %s: %w", archetypeFile, err)
	}

	path := filepath.Join(cfg.Build.ContentDir, "posts", slug+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", siteerrors.ContentError("post already exists").WithContext("path", path).Build()
		}
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(out); err != nil {
		return "", err
	}

	fmt.Println("Created:", path)
	return path, nil
}

func renderArchetype(text string, data archetypeData) ([]byte, error) {
	tmpl, err := template.New("archetype").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archetype: %w", err)
	}
	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return nil, fmt.Errorf("failed to execute archetype template: %w", err)
	}
	return output.Bytes(), nil
}

// Constants for default file contents
const siteYamlContent = `site:
  url: https://example.com
  baseUrl: /
  title: My Blog
  description: A new blog powered by folio.
  author: Your Name
layout:
  pageSize: 10
  postListStyle: cards
  landingPage:
    showRecentPosts: true
    recentPostsCount: 4
  topbar:
    links:
      - {label: Posts, path: /posts/}
      - {label: Tags, path: /tags/}
    showThemeSwitch: true
  footer:
    showPoweredBy: true
post:
  showReadingProgress: true
  readingTime:
    enabled: true
    speed: 200
build:
  contentDir: content
  staticDir: static
  templateDir: templates
  outputDir: public
`

const archetypeContent = `---
title: {{ printf "%q" .Title }}
slug: {{ .Slug }}
published_at: {{ .PublishedAt }}
{{- with .Author }}
author: {{ printf "%q" . }}
{{- end }}
description: ""
tags: [{{ range $i, $t := .Tags }}{{ if $i }}, {{ end }}{{ $t }}{{ end }}]
draft: false
---
`

const samplePostBody = `
Welcome to your new blog. Edit this post in content/posts/hello-world.md,
or create another one with ` + "`folio new post \"Title\"`" + `.
`

const staticCssContent = `body {
  font-family: sans-serif;
  max-width: 720px;
  margin: 2em auto;
  padding: 0 1em;
  line-height: 1.6;
  color: #222;
  background: #fdfdfd;
}
.topbar { display: flex; justify-content: space-between; align-items: baseline; gap: 1em; margin-bottom: 2em; flex-wrap: wrap; }
.topbar nav a { margin-left: 0.75em; color: #444; text-decoration: none; }
.site-name { font-weight: 600; color: inherit; text-decoration: none; }
.meta { font-size: 0.9em; color: #777; }
.cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 1.25em; }
.card img { width: 100%; height: auto; border-radius: 4px; }
.compact { list-style: none; padding: 0; }
.pager, .post-nav { display: flex; justify-content: space-between; margin: 2em 0; }
#reading-progress { position: fixed; top: 0; left: 0; height: 3px; background: #36c; }
main { margin-bottom: 3em; }
footer { text-align: center; font-size: 0.9em; color: #555; }
`
