package builder

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strconv"
	"strings"

	"folio/internal/config"
	"folio/internal/content"
	"folio/internal/listing"
	"folio/internal/util"
)

// artifact is one output file held in memory until the write phase.
type artifact struct {
	Path string // relative to the output directory, slash separated
	Kind string
	Data []byte
}

// renderedPost is a post body converted to HTML plus what listings need.
type renderedPost struct {
	Post      *content.Post
	HTML      template.HTML
	Summary   string
	Thumbnail string // site route of the card thumbnail, "" when none
}

// pageJob produces the data for one route. Jobs run concurrently and must
// only read shared state.
type pageJob struct {
	Route string
	Kind  string
	Slug  string
	Data  func(baseHref string) *PageData
}

// FeedFile is the feed the topbar links to. Feeds are not generated; one
// placed in the static directory is copied like any other asset.
const FeedFile = "rss.xml"

// PostRoute is the route of a single post.
func PostRoute(slug string) string { return "/posts/" + slug + "/" }

// ListRoute is the route of page n of the full listing.
func ListRoute(n int) string {
	if n <= 1 {
		return "/posts/"
	}
	return "/posts/page/" + strconv.Itoa(n) + "/"
}

// TagRoute is the route of page n of a tag listing.
func TagRoute(tagSlug string, n int) string {
	if n <= 1 {
		return "/tags/" + tagSlug + "/"
	}
	return "/tags/" + tagSlug + "/page/" + strconv.Itoa(n) + "/"
}

// ThumbnailRoute is where the card thumbnail of a post is written.
func ThumbnailRoute(slug string) string { return "/thumbs/" + slug + ".jpg" }

const notFoundRoute = "/404.html"

// baseHrefFor is the relative prefix from the file of route to the site root.
func baseHrefFor(route string) string {
	return util.ComputeBaseHref(util.RouteFile(route))
}

// relHref makes a site route relative to a page with the given base href.
// Absolute URLs pass through.
func relHref(baseHref, route string) string {
	if isExternal(route) {
		return route
	}
	h := baseHref + strings.TrimPrefix(route, "/")
	if h == "" {
		return "./"
	}
	return h
}

func isExternal(ref string) bool {
	return strings.Contains(ref, "://") || strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "#")
}

// composer turns the post collection into page jobs.
type composer struct {
	cfg      *config.SiteConfig
	site     SiteView
	posts    []*content.Post
	rendered map[string]*renderedPost
}

func newComposer(cfg *config.SiteConfig, posts []*content.Post, rendered map[string]*renderedPost) *composer {
	c := &composer{cfg: cfg, posts: posts, rendered: rendered}
	c.site = SiteView{
		Title:               cfg.Site.Title,
		Description:         cfg.Site.Description,
		Author:              cfg.Site.Author,
		URL:                 cfg.Permalink("/"),
		ShowThemeSwitch:     cfg.Layout.Topbar.ShowThemeSwitch,
		ShowRssFeed:         cfg.Layout.Topbar.ShowRssFeed && fileExists(filepath.Join(cfg.Build.StaticDir, FeedFile)),
		ShowPoweredBy:       cfg.Layout.Footer.ShowPoweredBy,
		PostListStyle:       string(cfg.Layout.PostListStyle),
		ShowReadingProgress: cfg.Post.ShowReadingProgress,
		ReadingTimeEnabled:  cfg.Post.ReadingTime.Enabled,
		CodeThemeLight:      cfg.Post.Code.Theme.Light,
		CodeThemeDark:       cfg.Post.Code.Theme.Dark,
	}
	return c
}

// siteFor returns the site view with topbar links relative to baseHref.
func (c *composer) siteFor(baseHref string) *SiteView {
	site := c.site
	site.Links = make([]LinkView, 0, len(c.cfg.Layout.Topbar.Links))
	for _, l := range c.cfg.Layout.Topbar.Links {
		site.Links = append(site.Links, LinkView{Label: l.Label, Href: relHref(baseHref, l.Path)})
	}
	return &site
}

func (c *composer) page(kind, route, title, description, baseHref string) *PageData {
	if description == "" {
		description = c.cfg.Site.Description
	}
	return &PageData{
		Kind:        kind,
		Title:       title,
		Description: description,
		BaseHref:    baseHref,
		Route:       route,
		Permalink:   c.cfg.Permalink(route),
		Site:        c.siteFor(baseHref),
	}
}

// jobs lists every page of the site.
func (c *composer) jobs() ([]pageJob, error) {
	pageSize := c.cfg.PageSize()
	var jobs []pageJob

	jobs = append(jobs, pageJob{Route: "/", Kind: KindLanding, Data: c.landing})

	for _, p := range c.posts {
		jobs = append(jobs, pageJob{Route: PostRoute(p.Slug), Kind: KindPost, Slug: p.Slug, Data: c.postPage(p)})
	}

	pages, err := listing.PaginateAll(c.posts, pageSize)
	if err != nil {
		return nil, err
	}
	for _, pg := range pages {
		jobs = append(jobs, pageJob{
			Route: ListRoute(pg.PageNumber),
			Kind:  KindList,
			Data:  c.listPage(KindList, pg, "All posts", ListRoute),
		})
	}

	groups := listing.GroupByTag(c.posts)
	jobs = append(jobs, pageJob{Route: "/tags/", Kind: KindTags, Data: c.tagIndex(groups)})
	for _, g := range groups {
		tagPages, err := listing.PaginateAll(g.Posts, pageSize)
		if err != nil {
			return nil, err
		}
		routeOf := func(n int) string { return TagRoute(g.Slug, n) }
		for _, pg := range tagPages {
			jobs = append(jobs, pageJob{
				Route: routeOf(pg.PageNumber),
				Kind:  KindTag,
				Data:  c.listPage(KindTag, pg, "Posts tagged "+g.Name, routeOf),
			})
		}
	}

	jobs = append(jobs, pageJob{Route: notFoundRoute, Kind: KindNotFound, Data: c.notFound})
	return jobs, nil
}

func (c *composer) landing(baseHref string) *PageData {
	data := c.page(KindLanding, "/", "", "", baseHref)
	var recent []*content.Post
	if c.cfg.Layout.LandingPage.ShowRecentPosts {
		recent = listing.RecentPosts(c.posts, c.cfg.RecentPostsCount())
	}
	data.Listing = &ListingView{
		Heading:    "Recent posts",
		Items:      c.summaries(recent, baseHref),
		PageNumber: 1,
		TotalPages: 1,
		AllHref:    relHref(baseHref, ListRoute(1)),
	}
	return data
}

func (c *composer) postPage(p *content.Post) func(string) *PageData {
	return func(baseHref string) *PageData {
		r := c.rendered[p.Slug]
		route := PostRoute(p.Slug)

		description := p.Description
		if description == "" {
			description = r.Summary
		}
		data := c.page(KindPost, route, p.Title, description, baseHref)

		author := c.cfg.Site.Author
		if p.Author != nil {
			author = *p.Author
		}
		view := &PostView{
			Slug:        p.Slug,
			Title:       p.Title,
			Author:      author,
			Description: description,
			Content:     r.HTML,
			Tags:        c.tagViews(p.Tags, baseHref),
			PublishedAt: p.PublishedAt,
			ModifiedAt:  p.UpdatedAt(),
			Modified:    p.Modified(),
			ReadingTime: p.ReadingTime(c.cfg.ReadingSpeed()),
			Permalink:   data.Permalink,
		}
		if p.Image != nil {
			view.Image = relHref(baseHref, *p.Image)
		}
		data.Post = view

		newer, older := listing.Neighbors(c.posts, p.Slug)
		if newer != nil {
			s := c.summary(newer, baseHref)
			data.Newer = &s
		}
		if older != nil {
			s := c.summary(older, baseHref)
			data.Older = &s
		}
		return data
	}
}

func (c *composer) listPage(kind string, pg listing.Page, heading string, routeOf func(int) string) func(string) *PageData {
	return func(baseHref string) *PageData {
		route := routeOf(pg.PageNumber)
		title := heading
		if pg.PageNumber > 1 {
			title = fmt.Sprintf("%s (page %d)", heading, pg.PageNumber)
		}
		data := c.page(kind, route, title, "", baseHref)
		view := &ListingView{
			Heading:    heading,
			Items:      c.summaries(pg.Items, baseHref),
			PageNumber: pg.PageNumber,
			TotalPages: pg.TotalPages,
			AllHref:    relHref(baseHref, ListRoute(1)),
		}
		if pg.HasPrev() {
			view.PrevHref = relHref(baseHref, routeOf(pg.PrevNumber()))
		}
		if pg.HasNext() {
			view.NextHref = relHref(baseHref, routeOf(pg.NextNumber()))
		}
		data.Listing = view
		return data
	}
}

func (c *composer) tagIndex(groups []listing.TagGroup) func(string) *PageData {
	return func(baseHref string) *PageData {
		data := c.page(KindTags, "/tags/", "Tags", "", baseHref)
		data.Tags = make([]TagView, 0, len(groups))
		for _, g := range groups {
			data.Tags = append(data.Tags, TagView{
				Name:  g.Name,
				Slug:  g.Slug,
				Href:  relHref(baseHref, TagRoute(g.Slug, 1)),
				Count: len(g.Posts),
			})
		}
		return data
	}
}

// notFound pages are served at arbitrary paths, so their links are rooted
// at the base URL instead of being relative.
func (c *composer) notFound(string) *PageData {
	return c.page(KindNotFound, notFoundRoute, "Not found", "", c.cfg.Site.BaseURL)
}

func (c *composer) summaries(posts []*content.Post, baseHref string) []SummaryView {
	out := make([]SummaryView, 0, len(posts))
	for _, p := range posts {
		out = append(out, c.summary(p, baseHref))
	}
	return out
}

func (c *composer) summary(p *content.Post, baseHref string) SummaryView {
	s := SummaryView{
		Slug:        p.Slug,
		Title:       p.Title,
		Href:        relHref(baseHref, PostRoute(p.Slug)),
		Author:      c.cfg.Site.Author,
		PublishedAt: p.PublishedAt,
		ReadingTime: p.ReadingTime(c.cfg.ReadingSpeed()),
		Tags:        c.tagViews(p.Tags, baseHref),
	}
	if p.Author != nil {
		s.Author = *p.Author
	}
	if p.Image != nil {
		s.Image = relHref(baseHref, *p.Image)
	}
	if r, ok := c.rendered[p.Slug]; ok {
		s.Summary = r.Summary
		if r.Thumbnail != "" {
			s.Thumbnail = relHref(baseHref, r.Thumbnail)
		}
	}
	return s
}

func (c *composer) tagViews(tags []string, baseHref string) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		slug := listing.TagSlug(t)
		out = append(out, TagView{Name: t, Slug: slug, Href: relHref(baseHref, TagRoute(slug, 1))})
	}
	return out
}

// linkResolver maps source file names and slugs to post routes.
func linkResolver(posts []*content.Post) LinkResolver {
	routes := make(map[string]string, 2*len(posts))
	for _, p := range posts {
		routes[p.Slug] = PostRoute(p.Slug)
	}
	for _, p := range posts {
		name := filepath.Base(p.SourcePath)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if _, taken := routes[name]; !taken {
			routes[name] = PostRoute(p.Slug)
		}
	}
	return func(name string) (string, bool) {
		r, ok := routes[name]
		return r, ok
	}
}
