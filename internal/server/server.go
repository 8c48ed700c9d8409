package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/air-gapped/dailypage/internal/cache"
	"github.com/air-gapped/dailypage/internal/config"
	"github.com/air-gapped/dailypage/internal/logging"
	"github.com/air-gapped/dailypage/internal/render"
	"github.com/air-gapped/dailypage/internal/site"
	"github.com/air-gapped/dailypage/internal/template"
)

// Server previews a site root, enhancing pages on the fly.
type Server struct {
	cfg     *config.Config
	version string
	root    *os.Root
	proc    *site.Processor
	tmpl    *template.Renderer
	cache   *cache.Cache
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a preview server for cfg.Root. Close releases the root.
func New(cfg *config.Config, version string) (*Server, error) {
	root, err := os.OpenRoot(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("open site root: %w", err)
	}

	proc, err := site.NewProcessor(site.ProcessorOptions{
		Version:  version,
		Lang:     cfg.Lang,
		Enhance:  cfg.EnhanceOptions(),
		Template: cfg.TemplateOptions(),
	})
	if err != nil {
		root.Close()
		return nil, err
	}
	tmpl, err := template.NewRenderer(cfg.TemplateOptions())
	if err != nil {
		root.Close()
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		version: version,
		root:    root,
		proc:    proc,
		tmpl:    tmpl,
		cache:   cache.New(cfg.CacheTTL, cfg.CacheMaxSize),
		logger:  slog.Default(),
		mux:     http.NewServeMux(),
	}

	s.routes()
	return s, nil
}

// Close releases the site root.
func (s *Server) Close() error {
	return s.root.Close()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /{path...}", s.handlePage)
}

// Handler returns the server's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.loggingMiddleware(h)
	return h
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	w.Write([]byte("OK"))
}

// resolved is a file found for a request path.
type resolved struct {
	name string // slash-separated, relative to the root
	info fs.FileInfo
}

var errNotFound = errors.New("not found")

// resolve maps a cleaned URL path to a file: the file itself, a directory's
// index page, or a page source named by the path plus a known extension.
// redirect is set when the page should be addressed with a trailing slash,
// which keeps its ../<token> links pointing at sibling days.
func (s *Server) resolve(urlPath string) (res resolved, redirect bool, err error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	trailing := strings.HasSuffix(urlPath, "/")

	info, err := s.root.Stat(name)
	switch {
	case err == nil && info.IsDir():
		if !trailing && name != "." {
			return res, true, nil
		}
		for _, ext := range render.SourceExts {
			idx := path.Join(name, "index"+ext)
			if info, err := s.root.Stat(idx); err == nil && info.Mode().IsRegular() {
				return resolved{name: idx, info: info}, false, nil
			}
		}
		return res, false, errNotFound

	case err == nil && info.Mode().IsRegular():
		return resolved{name: name, info: info}, false, nil

	case err == nil:
		return res, false, errNotFound
	}

	if name == "." {
		return res, false, errNotFound
	}
	for _, ext := range render.SourceExts {
		if info, err := s.root.Stat(name + ext); err == nil && info.Mode().IsRegular() {
			if !trailing {
				return res, true, nil
			}
			return resolved{name: name + ext, info: info}, false, nil
		}
	}
	return res, false, errNotFound
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path

	res, redirect, err := s.resolve(urlPath)
	if redirect {
		target := path.Clean("/"+urlPath) + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}
	if err != nil {
		s.renderError(w, urlPath, 404, "not-found", "No page or file at this path")
		return
	}

	if !render.IsPage(res.name) {
		s.serveRaw(w, r, res)
		return
	}

	if s.cfg.MaxFileSize > 0 && res.info.Size() > s.cfg.MaxFileSize {
		s.renderError(w, urlPath, 413, "too-large",
			fmt.Sprintf("Page too large (limit is %d bytes)", s.cfg.MaxFileSize))
		return
	}

	file := cache.File{ModTime: res.info.ModTime(), Size: res.info.Size()}
	var renderMs int64
	entry, status := s.cache.Get(urlPath, file)
	if status != cache.StatusHit {
		entry, renderMs, err = s.build(r, res, file)
		if err != nil {
			logging.FromContext(r.Context()).Error("enhance page failed", "file", res.name, "error", err)
			s.renderError(w, urlPath, 500, "render-error", "Failed to enhance page")
			return
		}
	}

	s.setResponseHeaders(w, string(status), entry.Source, entry.Token, renderMs)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(200)
	w.Write(entry.HTML)
}

// build reads, renders and enhances a page and caches the result.
func (s *Server) build(r *http.Request, res resolved, file cache.File) (*cache.Entry, int64, error) {
	f, err := s.root.Open(res.name)
	if err != nil {
		return nil, 0, err
	}
	src, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, 0, err
	}

	// The date token comes from the file, as in a build, not from the URL.
	page, err := s.proc.Process(r.Context(), res.name, src, site.PagePath(res.name))
	if err != nil {
		return nil, 0, err
	}

	entry := cache.Entry{
		HTML:   page.HTML,
		Source: string(page.Source),
		Token:  page.Report.Token,
		File:   file,
		Size:   int64(len(page.HTML)),
	}
	s.cache.Put(r.URL.Path, entry)
	return &entry, page.RenderMs, nil
}

func (s *Server) serveRaw(w http.ResponseWriter, r *http.Request, res resolved) {
	f, err := s.root.Open(res.name)
	if err != nil {
		s.renderError(w, r.URL.Path, 404, "not-found", "No page or file at this path")
		return
	}
	defer f.Close()

	s.setResponseHeaders(w, "", "raw", "", 0)
	http.ServeContent(w, r, res.name, res.info.ModTime(), f)
}

func (s *Server) renderError(w http.ResponseWriter, urlPath string, statusCode int, errType, message string) {
	page := s.tmpl.RenderError(template.ErrorData{
		Version:    s.version,
		Path:       urlPath,
		StatusCode: statusCode,
		ErrorType:  errType,
		Message:    message,
	})

	s.setResponseHeaders(w, "", "error", "", 0)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write(page)
}

func (s *Server) setResponseHeaders(w http.ResponseWriter, cacheStatus, source, token string, renderMs int64) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Frame-Options", "DENY")

	w.Header().Set("X-Dailypage-Version", s.version)
	w.Header().Set("X-Dailypage-Cache", cacheStatus)
	w.Header().Set("X-Dailypage-Source", source)
	if token != "" {
		w.Header().Set("X-Dailypage-Token", token)
	}
	w.Header().Set("X-Dailypage-Render-Ms", strconv.FormatInt(renderMs, 10))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &logging.ByteCountingWriter{ResponseWriter: w}
		ctx := logging.WithLogger(r.Context(), s.logger.With("path", r.URL.Path))
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if wrapped.StatusCode == 0 {
			wrapped.StatusCode = 200
		}

		logging.LogRequest(s.logger, logging.RequestFields{
			Method:   r.Method,
			Path:     r.URL.Path,
			Status:   wrapped.StatusCode,
			Cache:    wrapped.Header().Get("X-Dailypage-Cache"),
			Source:   wrapped.Header().Get("X-Dailypage-Source"),
			Token:    wrapped.Header().Get("X-Dailypage-Token"),
			RenderMs: parseHeaderInt64(wrapped.Header().Get("X-Dailypage-Render-Ms")),
			TotalMs:  time.Since(start).Milliseconds(),
			Bytes:    wrapped.Bytes,
		})
	})
}

func parseHeaderInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
