// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"folio/internal/logfields"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
)

// DefaultDebounce is how long the watcher waits for edits to settle.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc builds the site. clean asks for an emptied output directory.
type BuildFunc func(ctx context.Context, clean bool) error

type Options struct {
	Port      int
	OutputDir string
	// WatchPaths are directories (watched recursively) and files (watched
	// through their parent directory) that trigger rebuilds.
	WatchPaths []string
	Debounce   time.Duration
	// RebuildEvery rebuilds on a timer so scheduled posts appear; 0 disables it.
	RebuildEvery time.Duration
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// Server is the local development server: it serves the output directory,
// rebuilds on changes and tells open pages to reload.
type Server struct {
	opts  Options
	build BuildFunc
	hub   *Hub
	echo  *echo.Echo

	buildMu sync.Mutex
}

func New(opts Options, build BuildFunc) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	s := &Server{opts: opts, build: build, hub: newHub()}
	s.echo = s.newRouter()
	return s
}

// Run does a clean build, then serves until ctx is cancelled.
func Run(ctx context.Context, opts Options, build BuildFunc) error {
	return New(opts, build).Run(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.build(ctx, true); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := s.watchPaths(watcher); err != nil {
		return err
	}
	go s.watch(ctx, watcher)

	if s.opts.RebuildEvery > 0 {
		scheduler, err := s.schedule(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	addr := fmt.Sprintf(":%d", s.opts.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	fmt.Printf("Serving site on http://localhost%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Handler is the HTTP handler of the server, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Rebuild runs an incremental build and, when it succeeds, reloads every
// connected page. Builds never overlap.
func (s *Server) Rebuild(ctx context.Context, reason string) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	slog.Info("Rebuilding site", slog.String("reason", reason))
	if err := s.build(ctx, false); err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
		return err
	}
	s.hub.broadcast(reloadMessage)
	return nil
}

func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/ws", echo.WrapHandler(http.HandlerFunc(s.hub.serveWs)))
	if s.opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.opts.Metrics))
	}
	site := echo.WrapHandler(liveReloadWrapper(siteHandler(s.opts.OutputDir)))
	e.GET("/*", site)
	e.HEAD("/*", site)
	return e
}

func (s *Server) schedule(ctx context.Context) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.opts.RebuildEvery),
		gocron.NewTask(func() { _ = s.Rebuild(ctx, "scheduled") }),
		gocron.WithName("scheduled-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create scheduled rebuild job: %w", err)
	}
	scheduler.Start()
	slog.Info("Scheduled periodic rebuilds", slog.Duration("every", s.opts.RebuildEvery))
	return scheduler, nil
}

// watchPaths registers every watched directory and the parent directory of
// every watched file. Missing paths are skipped.
func (s *Server) watchPaths(watcher *fsnotify.Watcher) error {
	for _, p := range s.opts.WatchPaths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat path %s: %w", p, err)
		}
		if !info.IsDir() {
			// Watch the parent so editors that save by rename are still seen.
			addWatch(watcher, filepath.Dir(p))
			continue
		}
		if err := addWatchTree(watcher, p); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
	}
	return nil
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			addWatch(watcher, p)
		}
		return nil
	})
}

func addWatch(watcher *fsnotify.Watcher, dir string) {
	dir = filepath.Clean(dir)
	for _, w := range watcher.WatchList() {
		if w == dir {
			return
		}
	}
	if err := watcher.Add(dir); err != nil {
		slog.Warn("Could not watch directory", logfields.Path(dir), logfields.Error(err))
		return
	}
	slog.Debug("Watching directory", logfields.Path(dir))
}

// watch rebuilds once events have been quiet for the debounce interval.
func (s *Server) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						slog.Warn("Could not watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			settle = time.After(s.opts.Debounce)
		case <-settle:
			settle = nil
			_ = s.Rebuild(ctx, "change")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// relevant filters out editor swap files and attribute-only changes.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".swp") && !strings.HasSuffix(base, ".tmp")
}

// siteHandler serves the output directory. Requests for anything that does
// not exist get the site's 404.html with status 404.
func siteHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !servable(root, r.URL.Path) {
			serveNotFound(w, r, root)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// servable reports whether urlPath names a file, or a directory with an
// index.html, under root.
func servable(root, urlPath string) bool {
	name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(name, "index.html"))
		return err == nil
	}
	return true
}

func serveNotFound(w http.ResponseWriter, r *http.Request, root string) {
	page, err := os.ReadFile(filepath.Join(root, "404.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(page)
}

// liveReloadWrapper disables caching and injects the reload script into
// HTML responses.
func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		iw := newInterceptingWriter()
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		body := iw.body.Bytes()
		isHTML := strings.HasPrefix(iw.Header().Get("Content-Type"), "text/html")
		if isHTML && (iw.statusCode == http.StatusOK || iw.statusCode == http.StatusNotFound) {
			body = bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
			w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		}
		w.WriteHeader(iw.statusCode)
		if r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
	})
}

type interceptingWriter struct {
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter() *interceptingWriter {
	return &interceptingWriter{
		body:       new(bytes.Buffer),
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header { return iw.header }

func (iw *interceptingWriter) Write(b []byte) (int, error) { return iw.body.Write(b) }

func (iw *interceptingWriter) WriteHeader(statusCode int) { iw.statusCode = statusCode }

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'folio serve'.");
    };
  })();
</script>
`
