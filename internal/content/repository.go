package content

import (
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"folio/internal/logfields"
	"folio/internal/siteerrors"
)

// LoadOptions controls which sources become visible posts.
type LoadOptions struct {
	IncludeDrafts bool
	// Now is the reference time for scheduled posts. Zero means time.Now().
	Now time.Time
	// ScheduledMargin publishes posts dated at most this far in the future.
	ScheduledMargin time.Duration
	// Location applies to timestamps written without an offset.
	Location *time.Location
	// GitDates fills missing last_modified_at from the last commit touching the file.
	GitDates bool
}

// Stats counts sources that were loaded but are not visible.
type Stats struct {
	Sources   int
	Drafts    int
	Scheduled int
}

// Repository is the ordered, read-only set of visible posts.
type Repository struct {
	posts  []*Post
	bySlug map[string]*Post
	stats  Stats
}

// Load reads every markdown file under dir. Malformed sources and duplicate
// slugs fail the whole load; there is no partial repository.
func Load(dir string, opts LoadOptions) (*Repository, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryContent, "content directory not readable").
			WithContext("path", dir).
			Fatal().
			Build()
	}
	if !info.IsDir() {
		return nil, siteerrors.ContentError("content path is not a directory").WithContext("path", dir).Build()
	}

	var all []*Post
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return siteerrors.WrapError(err, siteerrors.CategoryContent, "failed to read source").
				WithContext("path", path).
				Fatal().
				Build()
		}
		p, err := ParsePost(path, data, opts.Location)
		if err != nil {
			return err
		}
		all = append(all, p)
		return nil
	})
	if err != nil {
		if _, ok := siteerrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, siteerrors.WrapError(err, siteerrors.CategoryContent, "failed to walk content directory").
			WithContext("path", dir).
			Fatal().
			Build()
	}

	// Slugs must be unique across every source, hidden ones included.
	if err := checkUniqueSlugs(all); err != nil {
		return nil, err
	}

	if opts.GitDates {
		applyGitDates(dir, all)
	}

	stats := Stats{Sources: len(all)}
	cutoff := opts.Now.Add(opts.ScheduledMargin)
	visible := make([]*Post, 0, len(all))
	for _, p := range all {
		switch {
		case p.Draft && !opts.IncludeDrafts:
			stats.Drafts++
			slog.Debug("Skipping draft", logfields.Slug(p.Slug))
		case p.PublishedAt.After(cutoff):
			stats.Scheduled++
			slog.Debug("Skipping scheduled post", logfields.Slug(p.Slug), slog.Time("published_at", p.PublishedAt))
		default:
			visible = append(visible, p)
		}
	}

	repo, err := NewRepository(visible)
	if err != nil {
		return nil, err
	}
	repo.stats = stats
	return repo, nil
}

// NewRepository orders posts by publish time, newest first. Ties are broken
// by slug so the order is deterministic.
func NewRepository(posts []*Post) (*Repository, error) {
	if err := checkUniqueSlugs(posts); err != nil {
		return nil, err
	}
	ordered := make([]*Post, len(posts))
	copy(ordered, posts)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Slug < b.Slug
	})

	bySlug := make(map[string]*Post, len(ordered))
	for _, p := range ordered {
		bySlug[p.Slug] = p
	}
	return &Repository{
		posts:  ordered,
		bySlug: bySlug,
		stats:  Stats{Sources: len(ordered)},
	}, nil
}

// All yields the posts newest first. The sequence can be ranged over any
// number of times.
func (r *Repository) All() iter.Seq[*Post] {
	return func(yield func(*Post) bool) {
		for _, p := range r.posts {
			if !yield(p) {
				return
			}
		}
	}
}

// Posts returns a copy of the ordered post slice.
func (r *Repository) Posts() []*Post {
	out := make([]*Post, len(r.posts))
	copy(out, r.posts)
	return out
}

// Len is the number of visible posts.
func (r *Repository) Len() int { return len(r.posts) }

// Stats reports how many sources were hidden.
func (r *Repository) Stats() Stats { return r.stats }

// GetBySlug looks a post up by slug.
func (r *Repository) GetBySlug(slug string) (*Post, error) {
	if p, ok := r.bySlug[slug]; ok {
		return p, nil
	}
	return nil, siteerrors.NotFoundError("no post with this slug").WithContext("slug", slug).Build()
}

func checkUniqueSlugs(posts []*Post) error {
	seen := make(map[string]string, len(posts))
	for _, p := range posts {
		if first, dup := seen[p.Slug]; dup {
			return siteerrors.ContentError("duplicate slug").
				WithContext("slug", p.Slug).
				WithContext("path", p.SourcePath).
				WithContext("first_path", first).
				Build()
		}
		seen[p.Slug] = p.SourcePath
	}
	return nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
