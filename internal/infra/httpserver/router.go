package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/rfp-analyzer/internal/application/analysis"
	appfiles "github.com/bryanwahyu/rfp-analyzer/internal/application/files"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/middleware"
)

const (
	msgAnalyzeFailed = "Failed to analyze document"
	msgServeFailed   = "Failed to serve file"
)

// Options wires the router. Store is only used for the storage probe.
type Options struct {
	Analysis *appanalysis.Service
	Files    *appfiles.Service
	Store    documents.BlobStore
	Logger   *slog.Logger

	BasePath       string
	MaxUploadBytes int64
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter

	// reported by /health
	Provider    string
	Backend     string
	Credentials map[string]bool
}

type Router struct {
	analysisSvc *appanalysis.Service
	filesSvc    *appfiles.Service
	store       documents.BlobStore
	log         *slog.Logger
	opts        Options
}

func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Router{
		analysisSvc: opts.Analysis,
		filesSvc:    opts.Files,
		store:       opts.Store,
		log:         opts.Logger,
		opts:        opts,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	routes := func(rt chi.Router) {
		rt.Get("/health", r.handleHealth)
		rt.Get("/storage/health", r.handleStorageHealth)
		rt.Get("/ping", middleware.PingHandler)
		rt.Get("/metrics", middleware.MetricsHandler)
		rt.Get("/readyz", middleware.ReadinessHandler(map[string]middleware.HealthChecker{
			"storage": &middleware.StorageHealthChecker{Store: opts.Store},
		}))

		analyze := rt.With()
		if opts.Limiter != nil {
			analyze = rt.With(middleware.RateLimit(opts.Limiter))
		}
		analyze.Post("/analyze", r.wrap(r.handleAnalyze, msgAnalyzeFailed, true))

		rt.Get("/files", r.wrap(r.handleListFiles, msgServeFailed, false))
		rt.With(middleware.RequireFileID).Get("/files/{id}", r.wrap(r.handleGetFile, msgServeFailed, false))
		rt.With(middleware.RequireFileID).Delete("/files/{id}", r.wrap(r.handleDeleteFile, msgServeFailed, false))
	}
	if opts.BasePath == "" {
		routes(mux)
	} else {
		mux.Route(opts.BasePath, routes)
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors onto status codes. failure is the 500 message; verbose
// adds the error chain and storage/model context to 500 bodies.
func (r *Router) wrap(h handlerFunc, failure string, verbose bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var (
			ve  *analysis.ValidationError
			mbe *http.MaxBytesError
		)
		switch {
		case errors.As(err, &ve):
			r.log.Info("request rejected", "path", req.URL.Path, "reason", ve.Message)
			writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message})

		case errors.As(err, &mbe):
			r.log.Info("upload too large", "limit", mbe.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("File exceeds the %d byte upload limit", mbe.Limit),
			})

		case errors.Is(err, appfiles.ErrMetadataNotFound):
			r.log.Info("metadata not found", "path", req.URL.Path)
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Metadata not found"})

		case errors.Is(err, documents.ErrNotFound):
			r.log.Info("file not found", "path", req.URL.Path)
			writeJSON(w, http.StatusNotFound, errorBody{Error: "File not found"})

		default:
			r.log.Error("request failed", "path", req.URL.Path, "err", err)
			body := errorBody{Error: failure}
			if verbose {
				body.Details = err.Error()
				body.FullError = diagnose(err)
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}
	}
}

// POST /analyze (multipart, field "file")
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if limit := r.opts.MaxUploadBytes; limit > 0 {
		if req.ContentLength > limit {
			return &http.MaxBytesError{Limit: limit}
		}
		req.Body = http.MaxBytesReader(w, req.Body, limit)
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		r.log.Info("unreadable multipart body", "err", err)
		return analysis.ErrNoFile
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return analysis.ErrNoFile
		}
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	mediaType := documents.BaseMediaType(header.Header.Get("Content-Type"))
	if mediaType == "" || mediaType == documents.MediaTypeOctet {
		// browser tidak kirim tipe: tebak dari isi
		mediaType = documents.BaseMediaType(mimetype.Detect(data).String())
	}

	middleware.IncrementAnalyses()
	res, err := r.analysisSvc.Analyze(req.Context(), documents.Upload{
		Name:      middleware.SanitizeFileName(header.Filename),
		MediaType: mediaType,
		Size:      header.Size,
		Data:      data,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /files/{id}
func (r *Router) handleGetFile(w http.ResponseWriter, req *http.Request) error {
	f, err := r.filesSvc.Retrieve(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}

	h := w.Header()
	h.Set("Content-Type", f.Metadata.MimeType)
	h.Set("Content-Disposition", contentDisposition(f.Metadata.OriginalName))
	h.Set("Content-Length", strconv.Itoa(len(f.Data)))
	h.Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Data); err != nil {
		r.log.Warn("file write interrupted", "id", f.Metadata.ID, "err", err)
		return nil
	}
	middleware.IncrementFilesServed()
	return nil
}

// GET /files
func (r *Router) handleListFiles(w http.ResponseWriter, req *http.Request) error {
	list, err := r.filesSvc.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"files": list, "count": len(list)})
}

// DELETE /files/{id}
func (r *Router) handleDeleteFile(w http.ResponseWriter, req *http.Request) error {
	if err := r.filesSvc.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /health: which credentials are configured, never their values.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"provider":    r.opts.Provider,
		"storage":     map[string]string{"backend": r.opts.Backend, "bucket": r.store.Bucket()},
		"credentials": r.opts.Credentials,
	})
}

// GET /storage/health
func (r *Router) handleStorageHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()

	if err := r.store.Ping(ctx); err != nil {
		code := "unknown"
		var se *documents.StorageError
		if errors.As(err, &se) {
			code = string(se.Kind)
		}
		r.log.Warn("storage probe failed", "bucket", r.store.Bucket(), "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "code": code})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "bucket": r.store.Bucket()})
}

// contentDisposition puts an ASCII-only name in filename (non-ASCII runes become '?')
// and the exact name in filename* when they differ.
func contentDisposition(name string) string {
	var ascii strings.Builder
	folded := false
	for _, c := range name {
		switch {
		case c == '"' || c == '\\' || c < 0x20 || c == 0x7f:
			folded = true
		case c > 0x7e:
			ascii.WriteByte('?')
			folded = true
		default:
			ascii.WriteRune(c)
		}
	}
	v := `attachment; filename="` + ascii.String() + `"`
	if folded {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}
