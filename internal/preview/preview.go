// Package preview serves the built site over HTTP and rebuilds it when
// project files change. A failed rebuild keeps the last good output on the
// air; /-/status reports what happened.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/builder"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/pipeline"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

const (
	defaultAddr     = ":8080"
	defaultDebounce = 300 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Server is a local preview: an HTTP file server over the output directory
// plus a watcher that schedules debounced rebuilds.
type Server struct {
	Builder *builder.Builder
	Options config.BuildOptions

	// Addr is the listen address, ":8080" when empty.
	Addr string
	// Debounce is the quiet period after a change before rebuilding.
	Debounce time.Duration
	// MetricsRegistry, when set, mounts /-/metrics on the preview mux.
	MetricsRegistry *prom.Registry

	status buildStatus
}

// buildStatus tracks the most recent build for the status endpoint.
type buildStatus struct {
	mu   sync.RWMutex
	last *pipeline.State
	err  error
	good bool
}

func (bs *buildStatus) record(st *pipeline.State, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.last = st
	bs.err = err
	if err == nil {
		bs.good = true
	}
}

func (bs *buildStatus) snapshot() (*pipeline.State, error, bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.last, bs.err, bs.good
}

// Run builds once, then serves and watches until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	pctx := project.NewContext(s.Builder.Root, s.Builder.Config)

	s.rebuild(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	skip := skipDirs(pctx)
	if err := watchProject(watcher, pctx, skip); err != nil {
		return err
	}

	rebuildReq, trigger := debouncer(s.debounce())
	go s.rebuildWorker(ctx, rebuildReq)

	srv := &http.Server{
		Addr:         s.addr(),
		Handler:      s.handler(pctx),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		slog.Info("Preview server listening",
			logfields.Addr(srv.Addr), logfields.Dir(pctx.OutputDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server error", logfields.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(srv)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(watcher, ev, skip, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) addr() string {
	if s.Addr != "" {
		return s.Addr
	}
	return defaultAddr
}

func (s *Server) debounce() time.Duration {
	if s.Debounce > 0 {
		return s.Debounce
	}
	return defaultDebounce
}

func (s *Server) rebuild(ctx context.Context) {
	st, err := s.Builder.Run(ctx, s.Options)
	if err != nil {
		slog.Warn("Build failed; still serving the last good output", logfields.Error(err))
	}
	s.status.record(st, err)
}

// rebuildWorker drains the request channel. The channel buffer coalesces
// triggers that arrive while a rebuild is in flight.
func (s *Server) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-rebuildReq:
			if !ok {
				return
			}
			slog.Info("Change detected; rebuilding")
			s.rebuild(ctx)
		}
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	slog.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handler serves the output directory at / and the operational endpoints
// under /-/ where they cannot collide with site routes.
func (s *Server) handler(pctx *project.Context) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(pctx.OutputDir)))
	mux.HandleFunc("/-/status", s.handleStatus)
	if s.MetricsRegistry != nil {
		mux.Handle("/-/metrics", metrics.HTTPHandler(s.MetricsRegistry))
	}
	return mux
}

type statusPayload struct {
	Phase        string `json:"phase"`
	BuildID      string `json:"build_id,omitempty"`
	Pages        int    `json:"pages"`
	DurationMS   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	HasGoodBuild bool   `json:"has_good_build"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st, err, good := s.status.snapshot()
	payload := statusPayload{Phase: "unknown", HasGoodBuild: good}
	if st != nil {
		payload.Phase = string(st.Phase)
		payload.BuildID = st.BuildID.String()
		payload.Pages = len(st.Outputs.PagesWritten)
		payload.DurationMS = st.Duration().Milliseconds()
	}
	if err != nil {
		payload.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}

// debouncer returns a request channel and a trigger. Each trigger restarts
// the quiet timer; when it fires, one request lands in the channel.
func debouncer(quiet time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(quiet, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	return req, trigger
}

// watchProject registers the project root plus every source directory,
// recursively, skipping the build's own output trees.
func watchProject(w *fsnotify.Watcher, pctx *project.Context, skip func(string) bool) error {
	if err := w.Add(pctx.Root); err != nil {
		return fmt.Errorf("watch %s: %w", pctx.Root, err)
	}
	for _, dir := range []string{
		pctx.PagesDir, pctx.SourceDir, pctx.StylesDir, pctx.TemplatesDir, pctx.PublicDir,
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := addDirsRecursive(w, dir, skip); err != nil {
			return err
		}
	}
	return nil
}

// skipDirs excludes the trees the build itself writes, so rebuild output
// never re-triggers the watcher.
func skipDirs(pctx *project.Context) func(string) bool {
	owned := []string{
		pctx.OutputDir,
		pctx.StateDir,
		filepath.Join(pctx.Root, "node_modules"),
	}
	return func(p string) bool {
		for _, dir := range owned {
			if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
}

func handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, skip func(string) bool, trigger func()) {
	if skip(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name, skip)
		}
	}
	slog.Debug("File change detected",
		logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string, skip func(string) bool) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skip(p) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Dir(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent filters events from hidden, swap and editor temp files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}
