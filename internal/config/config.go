// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"folio/internal/siteerrors"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when an option is absent from the config file.
const (
	DefaultPageSize         = 10
	DefaultReadingSpeed     = 200
	DefaultRecentPostsCount = 4
	DefaultThumbnailWidth   = 640
	DefaultScheduledMargin  = 15 * time.Minute
)

// Environment variables that override config values after .env loading.
const (
	EnvSiteURL     = "FOLIO_SITE_URL"
	EnvSiteBaseURL = "FOLIO_SITE_BASE_URL"
	EnvOutputDir   = "FOLIO_OUTPUT_DIR"
)

// PostListStyle selects the markup grouping of listing pages.
type PostListStyle string

const (
	ListStyleCards   PostListStyle = "cards"
	ListStyleList    PostListStyle = "list"
	ListStyleCompact PostListStyle = "compact"
)

// SiteConfig holds the configuration from the folio.yaml file. It is built
// once per run and shared read-only by every component.
type SiteConfig struct {
	Site   SiteSection   `yaml:"site"`
	Layout LayoutSection `yaml:"layout"`
	Post   PostSection   `yaml:"post"`
	Build  BuildSection  `yaml:"build"`

	location        *time.Location
	scheduledMargin time.Duration
}

type SiteSection struct {
	URL         string `yaml:"url"`
	BaseURL     string `yaml:"baseUrl"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Timezone    string `yaml:"timezone"`
}

type LayoutSection struct {
	PageSize      *int          `yaml:"pageSize"`
	PostListStyle PostListStyle `yaml:"postListStyle"`
	LandingPage   struct {
		ShowRecentPosts  bool `yaml:"showRecentPosts"`
		RecentPostsCount *int `yaml:"recentPostsCount"`
	} `yaml:"landingPage"`
	Topbar struct {
		Links           []TopbarLink `yaml:"links"`
		ShowThemeSwitch bool         `yaml:"showThemeSwitch"`
		ShowRssFeed     bool         `yaml:"showRssFeed"`
	} `yaml:"topbar"`
	Footer struct {
		ShowPoweredBy bool `yaml:"showPoweredBy"`
	} `yaml:"footer"`
}

// TopbarLink is one navigation entry in the topbar.
type TopbarLink struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

type PostSection struct {
	ShowReadingProgress bool `yaml:"showReadingProgress"`
	ReadingTime         struct {
		Enabled bool `yaml:"enabled"`
		Speed   *int `yaml:"speed"`
	} `yaml:"readingTime"`
	Code struct {
		Theme struct {
			Light string `yaml:"light"`
			Dark  string `yaml:"dark"`
		} `yaml:"theme"`
	} `yaml:"code"`
}

type BuildSection struct {
	ContentDir          string `yaml:"contentDir"`
	StaticDir           string `yaml:"staticDir"`
	TemplateDir         string `yaml:"templateDir"`
	Theme               string `yaml:"theme"`
	OutputDir           string `yaml:"outputDir"`
	CacheDir            string `yaml:"cacheDir"`
	Workers             *int   `yaml:"workers"`
	Drafts              bool   `yaml:"drafts"`
	Unsafe              bool   `yaml:"unsafe"`
	GitDates            bool   `yaml:"gitDates"`
	ScheduledPostMargin string `yaml:"scheduledPostMargin"`
	Thumbnails          struct {
		Enabled *bool `yaml:"enabled"`
		Width   *int  `yaml:"width"`
	} `yaml:"thumbnails"`
}

// Load reads the config file at path. A .env file next to it is loaded
// first; variables already present in the environment win.
func Load(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryConfig, "could not read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, siteerrors.WrapError(err, siteerrors.CategoryConfig, "could not load .env file").
				WithContext("path", envPath).
				Fatal().
				Build()
		}
	}

	cfg, err := parse(data, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates config data without consulting the environment.
func Parse(data []byte) (*SiteConfig, error) {
	return parse(data, func(string) string { return "" })
}

func parse(data []byte, getenv func(string) string) (*SiteConfig, error) {
	cfg := &SiteConfig{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, siteerrors.ConfigError("config file is empty").Build()
		}
		return nil, siteerrors.WrapError(err, siteerrors.CategoryConfig, "could not parse config").Fatal().Build()
	}

	if v := getenv(EnvSiteURL); v != "" {
		cfg.Site.URL = v
	}
	if v := getenv(EnvSiteBaseURL); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := getenv(EnvOutputDir); v != "" {
		cfg.Build.OutputDir = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SiteConfig) applyDefaults() {
	c.Site.BaseURL = normalizeBaseURL(c.Site.BaseURL)
	if c.Layout.PageSize == nil {
		c.Layout.PageSize = intPtr(DefaultPageSize)
	}
	if c.Layout.PostListStyle == "" {
		c.Layout.PostListStyle = ListStyleCards
	}
	if c.Layout.LandingPage.RecentPostsCount == nil {
		c.Layout.LandingPage.RecentPostsCount = intPtr(DefaultRecentPostsCount)
	}
	if c.Post.ReadingTime.Speed == nil {
		c.Post.ReadingTime.Speed = intPtr(DefaultReadingSpeed)
	}

	b := &c.Build
	b.ContentDir = orDefault(b.ContentDir, "content")
	b.StaticDir = orDefault(b.StaticDir, "static")
	b.TemplateDir = orDefault(b.TemplateDir, "templates")
	b.OutputDir = orDefault(b.OutputDir, "public")
	b.CacheDir = orDefault(b.CacheDir, ".folio")
	if b.Workers == nil {
		b.Workers = intPtr(0)
	}
	if b.Thumbnails.Enabled == nil {
		enabled := true
		b.Thumbnails.Enabled = &enabled
	}
	if b.Thumbnails.Width == nil {
		b.Thumbnails.Width = intPtr(DefaultThumbnailWidth)
	}
}

func (c *SiteConfig) validate() error {
	if strings.TrimSpace(c.Site.Title) == "" {
		return missing("site.title")
	}
	if strings.TrimSpace(c.Site.URL) == "" {
		return missing("site.url")
	}
	u, err := url.Parse(c.Site.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("site.url", c.Site.URL, "must be an absolute http(s) URL")
	}

	if *c.Layout.PageSize < 1 {
		return invalid("layout.pageSize", *c.Layout.PageSize, "must be >= 1")
	}
	switch c.Layout.PostListStyle {
	case ListStyleCards, ListStyleList, ListStyleCompact:
	default:
		return invalid("layout.postListStyle", c.Layout.PostListStyle, "must be one of cards, list, compact")
	}
	if *c.Layout.LandingPage.RecentPostsCount < 0 {
		return invalid("layout.landingPage.recentPostsCount", *c.Layout.LandingPage.RecentPostsCount, "must be >= 0")
	}
	for i, link := range c.Layout.Topbar.Links {
		if strings.TrimSpace(link.Label) == "" || strings.TrimSpace(link.Path) == "" {
			return invalid(fmt.Sprintf("layout.topbar.links[%d]", i), link, "label and path are required")
		}
	}
	if *c.Post.ReadingTime.Speed < 1 {
		return invalid("post.readingTime.speed", *c.Post.ReadingTime.Speed, "must be >= 1")
	}
	if *c.Build.Workers < 0 {
		return invalid("build.workers", *c.Build.Workers, "must be >= 0")
	}
	if *c.Build.Thumbnails.Width < 1 {
		return invalid("build.thumbnails.width", *c.Build.Thumbnails.Width, "must be >= 1")
	}

	c.location = time.UTC
	if c.Site.Timezone != "" {
		loc, err := time.LoadLocation(c.Site.Timezone)
		if err != nil {
			return siteerrors.WrapError(err, siteerrors.CategoryConfig, "invalid value").
				WithContext("field", "site.timezone").
				Fatal().
				Build()
		}
		c.location = loc
	}

	c.scheduledMargin = DefaultScheduledMargin
	if c.Build.ScheduledPostMargin != "" {
		d, err := time.ParseDuration(c.Build.ScheduledPostMargin)
		if err != nil || d < 0 {
			return invalid("build.scheduledPostMargin", c.Build.ScheduledPostMargin, "must be a non-negative duration")
		}
		c.scheduledMargin = d
	}
	return nil
}

// PageSize is the number of post summaries per listing page.
func (c *SiteConfig) PageSize() int { return *c.Layout.PageSize }

// ReadingSpeed is the configured words per minute.
func (c *SiteConfig) ReadingSpeed() int { return *c.Post.ReadingTime.Speed }

// RecentPostsCount is the number of posts shown on the landing page.
func (c *SiteConfig) RecentPostsCount() int { return *c.Layout.LandingPage.RecentPostsCount }

// Location is the zone applied to front-matter timestamps without an offset.
func (c *SiteConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ScheduledMargin is how far in the future a post may be dated and still publish.
func (c *SiteConfig) ScheduledMargin() time.Duration { return c.scheduledMargin }

// Workers is the render parallelism; 0 in the file means one per CPU.
func (c *SiteConfig) Workers() int {
	if n := *c.Build.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ThumbnailsEnabled reports whether card thumbnails are generated.
func (c *SiteConfig) ThumbnailsEnabled() bool {
	return *c.Build.Thumbnails.Enabled && c.Layout.PostListStyle == ListStyleCards
}

// ThumbnailWidth is the target width of card thumbnails in pixels.
func (c *SiteConfig) ThumbnailWidth() int { return *c.Build.Thumbnails.Width }

// ThemeDir is the on-disk template directory, or "" for the embedded templates.
func (c *SiteConfig) ThemeDir() string {
	if c.Build.Theme == "" {
		return ""
	}
	return filepath.Join(c.Build.TemplateDir, c.Build.Theme)
}

// Permalink returns the absolute URL of a site route such as "/posts/hello/".
func (c *SiteConfig) Permalink(route string) string {
	return strings.TrimRight(c.Site.URL, "/") + c.Site.BaseURL + strings.TrimPrefix(route, "/")
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func missing(field string) error {
	return siteerrors.ConfigError("required field is missing").WithContext("field", field).Build()
}

func invalid(field string, value any, reason string) error {
	return siteerrors.ConfigError("invalid value: "+reason).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func intPtr(v int) *int { return &v }
