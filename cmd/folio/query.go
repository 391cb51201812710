package main

import (
	"fmt"
	"strings"
	"time"

	"folio/internal/builder"
	"folio/internal/config"
	"folio/internal/content"
	"folio/internal/listing"
	"folio/internal/siteerrors"
)

func loadRepository(cfg *config.SiteConfig, drafts bool) (*content.Repository, error) {
	return content.Load(cfg.Build.ContentDir, content.LoadOptions{
		IncludeDrafts:   cfg.Build.Drafts || drafts,
		ScheduledMargin: cfg.ScheduledMargin(),
		Location:        cfg.Location(),
		GitDates:        cfg.Build.GitDates,
	})
}

// ListCmd implements the 'list' command.
type ListCmd struct {
	Page   int    `help:"Page number, starting at 1" default:"1"`
	Tag    string `help:"Only list posts with this tag"`
	Drafts bool   `help:"Include draft posts"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	repo, err := loadRepository(cfg, l.Drafts)
	if err != nil {
		return err
	}

	posts := repo.Posts()
	heading := "All posts"
	if l.Tag != "" {
		posts, err = postsTagged(posts, l.Tag)
		if err != nil {
			return err
		}
		heading = "Posts tagged " + l.Tag
	}

	page, err := listing.Paginate(posts, cfg.PageSize(), l.Page)
	if err != nil {
		return err
	}

	fmt.Fprintf(g.Out, "%s (page %d of %d, %d posts)\n", heading, page.PageNumber, page.TotalPages, page.TotalItems)
	for _, p := range page.Items {
		fmt.Fprintf(g.Out, "  %s  %-24s %s", p.PublishedAt.In(cfg.Location()).Format("2006-01-02"), p.Slug, p.Title)
		if cfg.Post.ReadingTime.Enabled {
			fmt.Fprintf(g.Out, " (%d min)", p.ReadingTime(cfg.ReadingSpeed()))
		}
		fmt.Fprintln(g.Out)
	}
	if page.HasNext() {
		fmt.Fprintf(g.Out, "Next: folio list --page %d\n", page.NextNumber())
	}
	return nil
}

func postsTagged(posts []*content.Post, tag string) ([]*content.Post, error) {
	want := listing.TagSlug(tag)
	for _, group := range listing.GroupByTag(posts) {
		if group.Slug == want {
			return group.Posts, nil
		}
	}
	return nil, siteerrors.NotFoundError("no posts with this tag").WithContext("tag", tag).Build()
}

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	Slug   string `arg:"" help:"Slug of the post"`
	Drafts bool   `help:"Include draft posts"`
}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	repo, err := loadRepository(cfg, s.Drafts)
	if err != nil {
		return err
	}
	p, err := repo.GetBySlug(s.Slug)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	author := cfg.Site.Author
	if p.Author != nil {
		author = *p.Author
	}
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(g.Out, "%-13s %s\n", label+":", value)
		}
	}
	row("Title", p.Title)
	row("Slug", p.Slug)
	row("Author", author)
	row("Published", p.PublishedAt.In(loc).Format(time.RFC3339))
	if p.Modified() {
		row("Updated", p.UpdatedAt().In(loc).Format(time.RFC3339))
	}
	row("Description", p.Description)
	row("Tags", strings.Join(p.Tags, ", "))
	if p.Image != nil {
		row("Image", *p.Image)
	}
	row("Reading time", fmt.Sprintf("%d min", p.ReadingTime(cfg.ReadingSpeed())))
	row("Permalink", cfg.Permalink(builder.PostRoute(p.Slug)))
	row("Source", p.SourcePath)
	row("Fingerprint", p.Fingerprint)
	if p.Draft {
		row("Draft", "yes")
	}
	return nil
}
