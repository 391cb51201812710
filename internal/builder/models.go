// internal/builder/models.go
package builder

import (
	"html/template"
	"time"
)

// Page kinds, one content template each.
const (
	KindLanding  = "landing"
	KindPost     = "post"
	KindList     = "list"
	KindTags     = "tags"
	KindTag      = "tag"
	KindNotFound = "notfound"
)

var pageKinds = []string{KindLanding, KindPost, KindList, KindTags, KindTag, KindNotFound}

// SiteView is the site-wide part of every page.
type SiteView struct {
	Title               string
	Description         string
	Author              string
	URL                 string
	Links               []LinkView
	ShowThemeSwitch     bool
	ShowRssFeed         bool
	ShowPoweredBy       bool
	PostListStyle       string
	ShowReadingProgress bool
	ReadingTimeEnabled  bool
	CodeThemeLight      string
	CodeThemeDark       string
}

// LinkView is a topbar entry with its href already made relative.
type LinkView struct {
	Label string
	Href  string
}

// TagView is a tag as shown next to a post or in the tag index.
type TagView struct {
	Name  string
	Slug  string
	Href  string
	Count int
}

// PostView is everything the post template shows about one post.
type PostView struct {
	Slug        string
	Title       string
	Author      string
	Description string
	Content     template.HTML
	Tags        []TagView
	PublishedAt time.Time
	ModifiedAt  time.Time
	Modified    bool
	ReadingTime int
	Image       string
	Permalink   string
}

// SummaryView is one entry of a listing.
type SummaryView struct {
	Slug        string
	Title       string
	Href        string
	Summary     string
	Author      string
	PublishedAt time.Time
	ReadingTime int
	Tags        []TagView
	Image       string
	Thumbnail   string
}

// ListingView is one page of summaries with its pager links.
type ListingView struct {
	Heading    string
	Items      []SummaryView
	PageNumber int
	TotalPages int
	PrevHref   string
	NextHref   string
	// AllHref links the landing page to the full listing.
	AllHref string
}

// PageData is the struct passed to templates.
type PageData struct {
	Kind        string
	Title       string
	Description string
	BaseHref    string
	Route       string
	Permalink   string
	Site        *SiteView

	Post    *PostView
	Newer   *SummaryView
	Older   *SummaryView
	Listing *ListingView
	Tags    []TagView
}
