// internal/builder/builder.go
package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/config"
	"folio/internal/content"
	"folio/internal/logfields"
	"folio/internal/manifest"
	"folio/internal/metrics"
	"folio/internal/siteerrors"
	"folio/internal/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ManifestFile is the name of the manifest database inside the cache directory.
const ManifestFile = "manifest.db"

type BuildOptions struct {
	// CleanDestination empties the output directory and forgets the manifest first.
	CleanDestination bool
	// Unsafe skips HTML sanitization even when the config does not ask for it.
	Unsafe bool
	// Drafts publishes draft posts even when the config does not ask for it.
	Drafts bool
	// Now is the reference time for scheduled posts. Zero means time.Now().
	Now      time.Time
	Recorder metrics.Recorder
}

// Result summarizes a successful build.
type Result struct {
	BuildID   string
	Posts     int
	Drafts    int
	Scheduled int
	Pages     int
	Written   int
	Unchanged int
	Pruned    int
	Duration  time.Duration
}

// Builder renders a site from its configuration. A Builder can run any
// number of builds; each one reloads content from disk.
type Builder struct {
	cfg      *config.SiteConfig
	opts     BuildOptions
	recorder metrics.Recorder
}

func New(cfg *config.SiteConfig, opts BuildOptions) *Builder {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, opts: opts, recorder: rec}
}

// BuildSite runs a single build.
func BuildSite(ctx context.Context, cfg *config.SiteConfig, opts BuildOptions) (Result, error) {
	return New(cfg, opts).Build(ctx)
}

// Build loads the content, renders every page in memory and, only when
// all of them rendered, writes the changed ones to the output directory.
// A failed build leaves the previous output untouched.
func (b *Builder) Build(ctx context.Context) (res Result, err error) {
	start := time.Now()
	res.BuildID = uuid.NewString()
	log := slog.With(logfields.BuildID(res.BuildID))

	defer func() {
		res.Duration = time.Since(start)
		b.recorder.ObserveBuildDuration(res.Duration)
		if err != nil {
			b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
			log.Error("Build failed", logfields.Error(err))
			return
		}
		b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
		log.Info("Build finished",
			logfields.Count(res.Pages),
			slog.Int("written", res.Written),
			slog.Int("unchanged", res.Unchanged),
			slog.Int("pruned", res.Pruned),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	}()

	var repo *content.Repository
	err = b.stage(log, "load", func() error {
		var loadErr error
		repo, loadErr = content.Load(b.cfg.Build.ContentDir, content.LoadOptions{
			IncludeDrafts:   b.cfg.Build.Drafts || b.opts.Drafts,
			Now:             b.opts.Now,
			ScheduledMargin: b.cfg.ScheduledMargin(),
			Location:        b.cfg.Location(),
			GitDates:        b.cfg.Build.GitDates,
		})
		return loadErr
	})
	if err != nil {
		return res, err
	}
	posts := repo.Posts()
	stats := repo.Stats()
	res.Posts, res.Drafts, res.Scheduled = len(posts), stats.Drafts, stats.Scheduled

	var tmpl *Templates
	err = b.stage(log, "templates", func() error {
		var loadErr error
		tmpl, loadErr = LoadTemplates(b.cfg.ThemeDir())
		if loadErr != nil {
			return siteerrors.WrapError(loadErr, siteerrors.CategoryConfig, "could not load templates").
				WithContext("path", b.cfg.ThemeDir()).
				Fatal().
				Build()
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	var rendered map[string]*renderedPost
	var thumbs []artifact
	err = b.stage(log, "render", func() error {
		var renderErr error
		rendered, thumbs, renderErr = b.renderPosts(ctx, posts, log)
		return renderErr
	})
	if err != nil {
		return res, err
	}

	var pages []artifact
	err = b.stage(log, "compose", func() error {
		var composeErr error
		pages, composeErr = b.composePages(ctx, tmpl, newComposer(b.cfg, posts, rendered))
		return composeErr
	})
	if err != nil {
		return res, err
	}
	res.Pages = len(pages)

	var static []artifact
	err = b.stage(log, "static", func() error {
		var staticErr error
		static, staticErr = collectStaticAssets(b.cfg.Build.StaticDir)
		if staticErr != nil {
			return siteerrors.FileSystemError(staticErr, b.cfg.Build.StaticDir).Build()
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	all := make([]artifact, 0, len(pages)+len(thumbs)+len(static))
	all = append(all, pages...)
	all = append(all, thumbs...)
	all = append(all, static...)
	if err = checkOutputConflicts(all); err != nil {
		return res, err
	}

	err = b.stage(log, "write", func() error {
		return b.writeArtifacts(ctx, res.BuildID, all, &res, log)
	})
	if err != nil {
		return res, err
	}
	b.recorder.AddArtifacts(res.Written, res.Unchanged, res.Pruned)
	return res, nil
}

func (b *Builder) stage(log *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	b.recorder.ObserveStageDuration(name, d)
	log.Debug("Stage finished", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000))
	return err
}

func (b *Builder) unsafe() bool { return b.cfg.Build.Unsafe || b.opts.Unsafe }

// renderPosts converts every post body in parallel. The first failure
// cancels the remaining work.
func (b *Builder) renderPosts(ctx context.Context, posts []*content.Post, log *slog.Logger) (map[string]*renderedPost, []artifact, error) {
	md := newMarkdownRenderer(b.unsafe())
	resolve := linkResolver(posts)

	results := make([]*renderedPost, len(posts))
	thumbs := make([]*artifact, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers())
	for i, p := range posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			html, err := md.Render(p.Body, p.EditML, resolve)
			if err != nil {
				return siteerrors.RenderError(p.Slug, err).WithContext("path", p.SourcePath).Build()
			}
			r := &renderedPost{Post: p, HTML: html, Summary: p.Description}
			if r.Summary == "" {
				r.Summary = excerpt(html, excerptWords)
			}
			if thumb := b.thumbnail(p, log); thumb != nil {
				r.Thumbnail = ThumbnailRoute(p.Slug)
				thumbs[i] = thumb
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byslug := make(map[string]*renderedPost, len(results))
	for _, r := range results {
		byslug[r.Post.Slug] = r
	}
	var out []artifact
	for _, t := range thumbs {
		if t != nil {
			out = append(out, *t)
		}
	}
	return byslug, out, nil
}

// thumbnail scales a post's local image for card listings. Problems with
// the image are logged and the card goes without one.
func (b *Builder) thumbnail(p *content.Post, log *slog.Logger) *artifact {
	if !b.cfg.ThumbnailsEnabled() || p.Image == nil || isExternal(*p.Image) {
		return nil
	}
	src := filepath.Join(b.cfg.Build.StaticDir, filepath.FromSlash(strings.TrimPrefix(*p.Image, "/")))
	data, err := makeThumbnail(src, b.cfg.ThumbnailWidth())
	if err != nil {
		log.Warn("Skipping thumbnail", logfields.Slug(p.Slug), logfields.Path(src), logfields.Error(err))
		return nil
	}
	return &artifact{Path: strings.TrimPrefix(ThumbnailRoute(p.Slug), "/"), Kind: "thumbnail", Data: data}
}

// composePages executes the page templates in parallel.
func (b *Builder) composePages(ctx context.Context, tmpl *Templates, c *composer) ([]artifact, error) {
	jobs, err := c.jobs()
	if err != nil {
		return nil, err
	}

	out := make([]artifact, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers())
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := tmpl.Execute(job.Kind, job.Data(baseHrefFor(job.Route)))
			if err != nil {
				return siteerrors.RenderError(job.Slug, err).
					WithContext("route", job.Route).
					WithContext("kind", job.Kind).
					Build()
			}
			out[i] = artifact{Path: util.RouteFile(job.Route), Kind: job.Kind, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, a := range out {
		counts[a.Kind]++
	}
	for kind, n := range counts {
		b.recorder.IncPagesRendered(kind, n)
	}
	return out, nil
}

// checkOutputConflicts normalizes artifact paths in place and rejects any
// path that leaves the output directory or is claimed twice.
func checkOutputConflicts(all []artifact) error {
	seen := make(map[string]string, len(all))
	for i := range all {
		clean := path.Clean(all[i].Path)
		if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
			return siteerrors.ContentError("output path leaves the output directory").
				WithContext("path", all[i].Path).
				WithContext("kind", all[i].Kind).
				Build()
		}
		all[i].Path = clean
		a := all[i]
		if prev, ok := seen[a.Path]; ok {
			return siteerrors.ContentError("two outputs share one path").
				WithContext("path", a.Path).
				WithContext("first", prev).
				WithContext("second", a.Kind).
				Build()
		}
		seen[a.Path] = a.Kind
	}
	return nil
}

// writeArtifacts writes every artifact whose content differs from what the
// manifest recorded, then removes outputs of earlier builds that this build
// no longer produces.
func (b *Builder) writeArtifacts(ctx context.Context, buildID string, all []artifact, res *Result, log *slog.Logger) error {
	outputDir := b.cfg.Build.OutputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return siteerrors.FileSystemError(err, outputDir).Build()
	}

	dbPath := filepath.Join(b.cfg.Build.CacheDir, ManifestFile)
	store, err := manifest.Open(dbPath)
	if err != nil {
		return siteerrors.FileSystemError(err, dbPath).Build()
	}
	defer store.Close()

	if b.opts.CleanDestination {
		log.Info("Cleaning destination directory", logfields.Path(outputDir))
		if err := cleanDir(outputDir); err != nil {
			return siteerrors.FileSystemError(err, outputDir).Build()
		}
		if err := store.Reset(ctx); err != nil {
			return siteerrors.FileSystemError(err, dbPath).Build()
		}
	}

	previous, err := store.Snapshot(ctx)
	if err != nil {
		return siteerrors.FileSystemError(err, dbPath).Build()
	}

	entries := make([]manifest.Entry, 0, len(all))
	keep := make(map[string]bool, len(all))
	for _, a := range all {
		sum := sha256.Sum256(a.Data)
		hash := hex.EncodeToString(sum[:])
		entries = append(entries, manifest.Entry{Path: a.Path, Hash: hash})
		keep[a.Path] = true

		dest := filepath.Join(outputDir, filepath.FromSlash(a.Path))
		if previous[a.Path] == hash && fileExists(dest) {
			res.Unchanged++
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return siteerrors.FileSystemError(err, dest).Build()
		}
		if err := os.WriteFile(dest, a.Data, 0644); err != nil {
			return siteerrors.FileSystemError(err, dest).Build()
		}
		res.Written++
	}

	if err := store.Record(ctx, buildID, entries); err != nil {
		return siteerrors.FileSystemError(err, dbPath).Build()
	}

	stale, err := store.Prune(ctx, keep)
	if err != nil {
		return siteerrors.FileSystemError(err, dbPath).Build()
	}
	for _, rel := range stale {
		if err := removeOutput(outputDir, rel); err != nil {
			log.Warn("Could not remove stale output", logfields.Path(rel), logfields.Error(err))
			continue
		}
		log.Debug("Pruned stale output", logfields.Path(rel))
	}
	res.Pruned = len(stale)
	return nil
}

// cleanDir removes everything inside dir but keeps dir itself.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// removeOutput deletes one output file and any directories it leaves empty.
func removeOutput(outputDir, rel string) error {
	path := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	root := filepath.Clean(outputDir)
	for dir := filepath.Dir(path); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
