package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/export"
	"github.com/joseph-ayodele/contacts-extractor/internal/ingest"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
	"github.com/joseph-ayodele/contacts-extractor/internal/utils"
)

const (
	maxTextBody   = 10 << 20
	maxUploadBody = 100 << 20
	xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HealthChecker is satisfied by the run store.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type HTTPConfig struct {
	UploadDir      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// HTTPHandler serves the REST surface of the extractor.
type HTTPHandler struct {
	proc     Processor
	exporter *export.Service
	runs     repository.RunRepository // optional
	health   HealthChecker            // optional
	cfg      HTTPConfig
	logger   *slog.Logger
}

func NewHTTPHandler(proc Processor, exporter *export.Service, runs repository.RunRepository, health HealthChecker, cfg HTTPConfig, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(os.TempDir(), "contacts-uploads")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	return &HTTPHandler{proc: proc, exporter: exporter, runs: runs, health: health, cfg: cfg, logger: logger}
}

// Routes builds the chi router.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.cfg.RequestTimeout))
	if len(h.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", h.healthz)
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/extract", h.extractJSON)
		api.Post("/extract.xlsx", h.extractXLSX)
		api.Post("/files", h.uploadFile)
		api.Get("/runs", h.listRuns)
		api.Get("/runs/{id}", h.getRun)
		api.Get("/runs/{id}/contacts", h.runContactsJSON)
		api.Get("/runs/{id}/contacts.xlsx", h.runContactsXLSX)
	})
	return r
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := common.WithRequestID(r.Context(), reqID)
		ctx = common.WithLogger(ctx, h.logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		h.logger.Info("http.request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *HTTPHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context(), 2*time.Second); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readText accepts either a raw text body or {"text": "...", "source": "..."}.
func (h *HTTPHandler) readText(w http.ResponseWriter, r *http.Request) (text, source string, err error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTextBody))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}
	source = r.URL.Query().Get("source")
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Text   string `json:"text"`
			Source string `json:"source"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return "", "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		text = req.Text
		if req.Source != "" {
			source = req.Source
		}
	} else {
		text = string(body)
	}
	if strings.TrimSpace(text) == "" {
		return "", "", fmt.Errorf("%w: text is required", common.ErrInvalidInput)
	}
	if source == "" {
		source = "http"
	}
	return text, source, nil
}

func (h *HTTPHandler) extract(w http.ResponseWriter, r *http.Request) (*core.Result, bool) {
	text, source, err := h.readText(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	res, err := h.proc.ProcessText(r.Context(), source, text)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return res, true
}

func (h *HTTPHandler) extractJSON(w http.ResponseWriter, r *http.Request) {
	res, ok := h.extract(w, r)
	if !ok {
		return
	}
	h.writeDocument(w, r, resultDocument(res))
}

func (h *HTTPHandler) extractXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := h.extract(w, r)
	if !ok {
		return
	}
	h.writeWorkbook(w, r, "contacts.xlsx", res.Contacts)
}

// uploadFile processes a multipart "file" upload (zip, pdf, image or text dump).
func (h *HTTPHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid file: %v", common.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !ingest.AllowedExt(filepath.Ext(name)) {
		h.writeError(w, r, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, filepath.Ext(name)))
		return
	}
	dir := filepath.Join(h.cfg.UploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			h.logger.Warn("failed to remove upload dir", "dir", dir, "error", err)
		}
	}()

	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		h.writeError(w, r, fmt.Errorf("%w: upload: %v", common.ErrInvalidInput, err))
		return
	}
	if err := out.Close(); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.proc.ProcessFile(r.Context(), dst)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc := resultDocument(res)
	doc.Source = name
	h.writeDocument(w, r, doc)
}

func (h *HTTPHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, r, errNoStore)
		return
	}
	limit, offset := queryInt(r, "limit", 50), queryInt(r, "offset", 0)
	runs, err := h.runs.ListRuns(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]map[string]any, len(runs))
	for i, run := range runs {
		out[i] = utils.RunMap(run)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (h *HTTPHandler) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRunID(w, r)
	if !ok {
		return
	}
	if h.runs == nil {
		h.writeError(w, r, errNoStore)
		return
	}
	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.RunMap(run))
}

func (h *HTTPHandler) runContactsJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRunID(w, r)
	if !ok {
		return
	}
	doc, err := h.exporter.RunDocument(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeDocument(w, r, doc)
}

func (h *HTTPHandler) runContactsXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRunID(w, r)
	if !ok {
		return
	}
	doc, err := h.exporter.RunDocument(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, id.String()+"_contacts.xlsx", doc.Contacts)
}

func (h *HTTPHandler) pathRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: run id must be a UUID", common.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandler) writeDocument(w http.ResponseWriter, r *http.Request, doc export.ContactsDocument) {
	b, err := h.exporter.ContactsJSON(doc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *HTTPHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, contacts []entity.Contact) {
	b, err := h.exporter.ContactsXLSX(contacts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

var errNoStore = errors.New("run store is not configured")

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrNoImages):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrUnsupportedFormat):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, errNoStore):
		code = http.StatusServiceUnavailable
	}
	logger := common.LoggerFromContext(r.Context(), h.logger)
	if code >= 500 {
		logger.Error("http.error", "path", r.URL.Path, "status", code, "error", err)
	} else {
		logger.Warn("http.error", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func resultDocument(res *core.Result) export.ContactsDocument {
	doc := export.ContactsDocument{Source: res.SourcePath, Contacts: res.Contacts}
	if res.RunID != uuid.Nil {
		doc.RunID = res.RunID.String()
	}
	return doc
}

func queryInt(r *http.Request, key string, def int) int {
	var n int
	if _, err := fmt.Sscanf(r.URL.Query().Get(key), "%d", &n); err != nil || n < 0 {
		return def
	}
	return n
}
