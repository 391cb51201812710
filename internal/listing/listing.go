// Package listing partitions the ordered post collection into pages and
// derived views (recent posts, tag groups, post neighbours).
package listing

import (
	"fmt"

	"folio/internal/content"
	"folio/internal/siteerrors"
)

// Page is a contiguous slice of the globally ordered posts.
type Page struct {
	Items      []*content.Post
	PageNumber int
	TotalPages int
	PageSize   int
	TotalItems int
}

// HasPrev reports whether a newer page exists.
func (p Page) HasPrev() bool { return p.PageNumber > 1 }

// HasNext reports whether an older page exists.
func (p Page) HasNext() bool { return p.PageNumber < p.TotalPages }

func (p Page) PrevNumber() int { return p.PageNumber - 1 }
func (p Page) NextNumber() int { return p.PageNumber + 1 }

// TotalPages is max(1, ceil(n/pageSize)). An empty collection has one empty page.
func TotalPages(n, pageSize int) int {
	if pageSize < 1 {
		return 1
	}
	return max(1, (n+pageSize-1)/pageSize)
}

// Paginate returns page pageNumber (1-indexed) holding posts
// [(pageNumber-1)*pageSize, pageNumber*pageSize).
func Paginate(posts []*content.Post, pageSize, pageNumber int) (Page, error) {
	if pageSize < 1 {
		return Page{}, siteerrors.OutOfRangeError("page size must be at least 1").
			WithContext("page_size", pageSize).
			Build()
	}
	total := TotalPages(len(posts), pageSize)
	if pageNumber < 1 || pageNumber > total {
		return Page{}, siteerrors.OutOfRangeError(fmt.Sprintf("page must be between 1 and %d", total)).
			WithContext("page", pageNumber).
			Build()
	}

	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, len(posts))
	items := make([]*content.Post, end-start)
	copy(items, posts[start:end])

	return Page{
		Items:      items,
		PageNumber: pageNumber,
		TotalPages: total,
		PageSize:   pageSize,
		TotalItems: len(posts),
	}, nil
}

// PaginateAll returns every page of posts in order.
func PaginateAll(posts []*content.Post, pageSize int) ([]Page, error) {
	if pageSize < 1 {
		return nil, siteerrors.OutOfRangeError("page size must be at least 1").
			WithContext("page_size", pageSize).
			Build()
	}
	total := TotalPages(len(posts), pageSize)
	pages := make([]Page, 0, total)
	for n := 1; n <= total; n++ {
		page, err := Paginate(posts, pageSize, n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// RecentPosts returns the first limit posts. Asking for more posts than exist
// returns all of them; a non-positive limit returns none.
func RecentPosts(posts []*content.Post, limit int) []*content.Post {
	if limit <= 0 {
		return []*content.Post{}
	}
	n := min(limit, len(posts))
	out := make([]*content.Post, n)
	copy(out, posts[:n])
	return out
}

// Neighbors returns the posts immediately newer and older than slug.
func Neighbors(posts []*content.Post, slug string) (newer, older *content.Post) {
	for i, p := range posts {
		if p.Slug != slug {
			continue
		}
		if i > 0 {
			newer = posts[i-1]
		}
		if i+1 < len(posts) {
			older = posts[i+1]
		}
		return newer, older
	}
	return nil, nil
}
