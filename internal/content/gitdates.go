package content

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"folio/internal/logfields"

	"github.com/go-git/go-git/v5"
)

// gitDater answers "when was this file last committed" from the repository
// that contains the content directory.
type gitDater struct {
	repo *git.Repository
	root string
}

func openGitDater(dir string) (*gitDater, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &gitDater{repo: repo, root: wt.Filesystem.Root()}, nil
}

// lastModified returns the committer time of the newest commit touching path.
func (g *gitDater) lastModified(path string) (time.Time, bool, error) {
	abs, err := resolvePath(path)
	if err != nil {
		return time.Time{}, false, err
	}
	root, err := resolvePath(g.root)
	if err != nil {
		return time.Time{}, false, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return time.Time{}, false, err
	}
	rel = filepath.ToSlash(rel)

	commits, err := g.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, false, err
	}
	defer commits.Close()

	c, err := commits.Next()
	if errors.Is(err, io.EOF) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return c.Committer.When, true, nil
}

// applyGitDates fills LastModifiedAt for posts that do not set it. Git
// problems are logged and never fail the load.
func applyGitDates(dir string, posts []*Post) {
	dater, err := openGitDater(dir)
	if err != nil {
		slog.Debug("Git dates unavailable", logfields.Path(dir), logfields.Error(err))
		return
	}
	for _, p := range posts {
		if p.LastModifiedAt != nil {
			continue
		}
		when, ok, err := dater.lastModified(p.SourcePath)
		if err != nil {
			slog.Warn("Could not read git history", logfields.Slug(p.Slug), logfields.Error(err))
			continue
		}
		if ok && when.After(p.PublishedAt) {
			p.LastModifiedAt = &when
		}
	}
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
