package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func writeOutput(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
}

func newTestServer(t *testing.T, opts Options, build BuildFunc) (*Server, *httptest.Server) {
	t.Helper()
	if build == nil {
		build = func(context.Context, bool) error { return nil }
	}
	s := New(opts, build)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServesPagesWithReloadScript(t *testing.T) {
	out := t.TempDir()
	writeOutput(t, out, "index.html", "<html><body><h1>Home</h1></body></html>")
	writeOutput(t, out, "posts/hello/index.html", "<html><body><h1>Hello</h1></body></html>")
	writeOutput(t, out, "css/style.css", "body{}")
	_, ts := newTestServer(t, Options{OutputDir: out}, nil)

	status, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "<h1>Home</h1>")
	require.Contains(t, body, "/ws")

	status, body = get(t, ts.URL+"/posts/hello/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "<h1>Hello</h1>")

	status, body = get(t, ts.URL+"/css/style.css")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "body{}", body)
}

func TestMissingPagesGetSite404(t *testing.T) {
	out := t.TempDir()
	writeOutput(t, out, "404.html", "<html><body>custom not found</body></html>")
	writeOutput(t, out, "posts/empty/.keep", "")
	_, ts := newTestServer(t, Options{OutputDir: out}, nil)

	for _, p := range []string{"/nope/", "/posts/empty/", "/missing.css"} {
		status, body := get(t, ts.URL+p)
		require.Equal(t, http.StatusNotFound, status, p)
		require.Contains(t, body, "custom not found", p)
	}
}

func TestMissingPagesWithout404Page(t *testing.T) {
	_, ts := newTestServer(t, Options{OutputDir: t.TempDir()}, nil)
	status, _ := get(t, ts.URL+"/nope/")
	require.Equal(t, http.StatusNotFound, status)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "folio_build_outcomes_total 1\n")
	})
	_, ts := newTestServer(t, Options{OutputDir: t.TempDir(), Metrics: metrics}, nil)

	status, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "folio_build_outcomes_total")
}

func TestRebuildBroadcastsReload(t *testing.T) {
	var builds atomic.Int32
	s, ts := newTestServer(t, Options{OutputDir: t.TempDir()}, func(_ context.Context, clean bool) error {
		require.False(t, clean)
		builds.Add(1)
		return nil
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Rebuild(context.Background(), "test"))
	require.Equal(t, int32(1), builds.Load())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "reload", string(msg))
}

func TestFailedRebuildDoesNotReload(t *testing.T) {
	s, ts := newTestServer(t, Options{OutputDir: t.TempDir()}, func(context.Context, bool) error {
		return os.ErrInvalid
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Error(t, s.Rebuild(context.Background(), "test"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

func TestWatchRebuildsAfterChanges(t *testing.T) {
	dir := t.TempDir()
	var builds atomic.Int32
	s := New(Options{OutputDir: t.TempDir(), WatchPaths: []string{dir}, Debounce: 50 * time.Millisecond},
		func(context.Context, bool) error {
			builds.Add(1)
			return nil
		})

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, s.watchPaths(watcher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.watch(ctx, watcher)

	for i := range 3 {
		writeOutput(t, dir, "post.md", strings.Repeat("x", i+1))
	}
	require.Eventually(t, func() bool { return builds.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestRelevantEvents(t *testing.T) {
	require.True(t, relevant(fsnotify.Event{Name: "content/a.md", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "content/a.md", Op: fsnotify.Chmod}))
	require.False(t, relevant(fsnotify.Event{Name: "content/.a.md.swp", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "content/a.md~", Op: fsnotify.Create}))
}
