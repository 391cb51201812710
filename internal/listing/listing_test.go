package listing

import (
	"fmt"
	"testing"
	"time"

	"folio/internal/content"
	"folio/internal/siteerrors"

	"github.com/stretchr/testify/require"
)

func makePosts(n int) []*content.Post {
	posts := make([]*content.Post, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range posts {
		posts[i] = &content.Post{
			Slug:        fmt.Sprintf("post-%02d", i),
			PublishedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return posts
}

func TestPaginate_TwelvePostsPageSizeFive(t *testing.T) {
	posts := makePosts(12)

	want := []int{5, 5, 2}
	for i, size := range want {
		page, err := Paginate(posts, 5, i+1)
		require.NoError(t, err)
		require.Len(t, page.Items, size)
		require.Equal(t, 3, page.TotalPages)
		require.Equal(t, 12, page.TotalItems)
		require.Equal(t, posts[i*5], page.Items[0])
	}

	_, err := Paginate(posts, 5, 4)
	require.ErrorIs(t, err, siteerrors.ErrOutOfRange)
}

func TestPaginate_EmptyCollectionHasOneEmptyPage(t *testing.T) {
	page, err := Paginate(nil, 5, 1)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 1, page.TotalPages)
	require.False(t, page.HasPrev())
	require.False(t, page.HasNext())

	_, err = Paginate(nil, 5, 2)
	require.ErrorIs(t, err, siteerrors.ErrOutOfRange)
}

func TestPaginate_InvalidRequests(t *testing.T) {
	posts := makePosts(3)

	_, err := Paginate(posts, 2, 0)
	require.ErrorIs(t, err, siteerrors.ErrOutOfRange)
	_, err = Paginate(posts, 2, -1)
	require.ErrorIs(t, err, siteerrors.ErrOutOfRange)
	_, err = Paginate(posts, 0, 1)
	require.ErrorIs(t, err, siteerrors.ErrOutOfRange)
	require.False(t, siteerrors.IsFatal(err))
}

func TestPaginate_UnionOfPagesIsCollection(t *testing.T) {
	for n := 0; n <= 23; n++ {
		posts := makePosts(n)
		for size := 1; size <= 7; size++ {
			pages, err := PaginateAll(posts, size)
			require.NoError(t, err)
			require.Len(t, pages, TotalPages(n, size))

			var union []*content.Post
			for i, page := range pages {
				require.Equal(t, i+1, page.PageNumber)
				require.LessOrEqual(t, len(page.Items), size)
				union = append(union, page.Items...)
			}
			if n == 0 {
				require.Empty(t, union)
				continue
			}
			require.Equal(t, posts, union, "n=%d size=%d", n, size)
		}
	}
}

func TestPage_Navigation(t *testing.T) {
	page, err := Paginate(makePosts(12), 5, 2)
	require.NoError(t, err)
	require.True(t, page.HasPrev())
	require.True(t, page.HasNext())
	require.Equal(t, 1, page.PrevNumber())
	require.Equal(t, 3, page.NextNumber())
}

func TestPaginate_ItemsAreIndependentOfInput(t *testing.T) {
	posts := makePosts(4)
	page, err := Paginate(posts, 2, 1)
	require.NoError(t, err)
	page.Items[0] = nil
	require.NotNil(t, posts[0])
}

func TestRecentPosts(t *testing.T) {
	posts := makePosts(5)

	require.Equal(t, posts[:3], RecentPosts(posts, 3))
	require.Equal(t, posts, RecentPosts(posts, 5))
	require.Equal(t, posts, RecentPosts(posts, 50))
	require.Empty(t, RecentPosts(posts, 0))
	require.Empty(t, RecentPosts(nil, 3))
}

func TestNeighbors(t *testing.T) {
	posts := makePosts(3)

	newer, older := Neighbors(posts, "post-01")
	require.Equal(t, posts[0], newer)
	require.Equal(t, posts[2], older)

	newer, older = Neighbors(posts, "post-00")
	require.Nil(t, newer)
	require.Equal(t, posts[1], older)

	newer, older = Neighbors(posts, "missing")
	require.Nil(t, newer)
	require.Nil(t, older)
}
