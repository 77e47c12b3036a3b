package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/export"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
	"github.com/joseph-ayodele/bol-extractor/internal/pipeline"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

//go:embed templates/index.html
var indexHTML []byte

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxTextBytes caps the body of POST /extract.
const maxTextBytes = 4 << 20

// Deps are the collaborators of the façades. Jobs, Recognizer and Health are optional.
type Deps struct {
	Processor  *pipeline.Processor
	Exporter   *export.Service
	Jobs       repository.ExtractJobRepository
	Recognizer ner.Recognizer
	Health     func(ctx context.Context) error
}

type Handler struct {
	deps   Deps
	cfg    common.ServerConfig
	logger *slog.Logger
}

func NewHandler(deps Deps, cfg common.ServerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = constants.MaxUploadMBDefault
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewService(deps.Jobs, logger)
	}
	return &Handler{deps: deps, cfg: cfg, logger: logger}
}

// Router returns the complete HTTP handler with middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Job-Id"},
		MaxAge:         300,
	}))
	h.Attach(r)
	return r
}

func (h *Handler) Attach(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/healthz", h.handleHealth)
	r.Get("/schema", h.handleSchema)

	r.Post("/upload", h.handleUpload)
	r.Post("/extract", h.handleExtract)
	r.Post("/export", h.handleExport)

	r.Get("/jobs", h.handleListJobs)
	r.Get("/jobs/export", h.handleExportJobs)
	r.Get("/jobs/{id}", h.handleGetJob)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		reqID := middleware.GetReqID(r.Context())
		next.ServeHTTP(ww, r.WithContext(common.WithRequestID(r.Context(), reqID)))
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", reqID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			writeJsonStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJson(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, bol.ResultSchema())
}

// handleUpload processes one multipart "file" part. Query flags:
// include_text adds raw_text, include_entities adds the recognizer's entities
// per captured party block.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, hdr, err := h.formFile(w, r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	defer file.Close()

	if !constants.IsPDFContentType(hdr.Header.Get("Content-Type")) {
		h.writeAppError(w, invalidFileType())
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		h.writeAppError(w, common.NewAppError("READ_ERROR", err.Error(), common.ErrInvalidInput))
		return
	}

	out, err := h.deps.Processor.ProcessPDF(ctx, hdr.Filename, content)
	if out.JobID != uuid.Nil {
		w.Header().Set("X-Job-Id", out.JobID.String())
	}
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	body, err := h.shaped(out.Result)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if queryBool(r, "include_text") {
		body["raw_text"] = out.Text.Text
	}
	if queryBool(r, "include_entities") {
		body["entities"] = h.entities(ctx, out.Text.Text)
	}
	writeJson(w, body)
}

// extractRequest carries already extracted text; empty text yields an empty record.
type extractRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeAppError(w, common.NewAppError("TOO_LARGE", "text exceeds "+strconv.Itoa(maxTextBytes)+" bytes", common.ErrTooLarge))
			return
		}
		h.writeAppError(w, common.NewAppError("INVALID_JSON", "body must be {\"text\": \"...\"}", common.ErrInvalidInput))
		return
	}
	body, err := h.shaped(h.deps.Processor.ProcessText(r.Context(), req.Text))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if queryBool(r, "include_entities") {
		body["entities"] = h.entities(r.Context(), req.Text)
	}
	writeJson(w, body)
}

// handleExport processes every multipart "file" part and returns one workbook.
// Parts that fail are exported as rows carrying the error.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeAppError(w, multipartError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		h.writeAppError(w, common.NewAppError("MISSING_FILE", "at least one file is required", common.ErrInvalidInput))
		return
	}

	docs := make([]export.Document, 0, len(parts))
	for _, fh := range parts {
		docs = append(docs, h.exportDocument(ctx, fh))
	}
	data, err := h.deps.Exporter.ExportShipmentsXLSX(ctx, docs)
	if err != nil {
		h.writeAppError(w, common.NewAppError("EXPORT_ERROR", err.Error(), common.ErrInternal))
		return
	}
	writeXLSX(w, "shipments.xlsx", data)
}

func (h *Handler) exportDocument(ctx context.Context, fh *multipart.FileHeader) export.Document {
	doc := export.Document{Source: fh.Filename, Result: bol.Shape(bol.Record{})}
	if !constants.IsPDFContentType(fh.Header.Get("Content-Type")) {
		doc.Err = common.MsgInvalidFileType
		return doc
	}
	f, err := fh.Open()
	if err != nil {
		doc.Err = err.Error()
		return doc
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		doc.Err = err.Error()
		return doc
	}
	out, err := h.deps.Processor.ProcessPDF(ctx, fh.Filename, content)
	if err != nil {
		doc.Err = common.PublicMessage(err)
		return doc
	}
	doc.Result = out.Result
	return doc
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if h.deps.Jobs == nil {
		h.writeAppError(w, jobLogDisabled())
		return
	}
	filter, err := listFilter(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	jobs, err := h.deps.Jobs.List(r.Context(), filter)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJson(w, map[string]any{"jobs": jobs})
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if h.deps.Jobs == nil {
		h.writeAppError(w, jobLogDisabled())
		return
	}
	id := chi.URLParam(r, "id")
	if err := common.NewValidator().Field("id", id, common.Required, common.UUID).Error(); err != nil {
		h.writeAppError(w, err)
		return
	}
	job, err := h.deps.Jobs.Get(r.Context(), uuid.MustParse(id))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJson(w, job)
}

func (h *Handler) handleExportJobs(w http.ResponseWriter, r *http.Request) {
	if h.deps.Jobs == nil {
		h.writeAppError(w, jobLogDisabled())
		return
	}
	filter, err := listFilter(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	data, err := h.deps.Exporter.ExportJobsXLSX(r.Context(), filter)
	if err != nil {
		h.writeAppError(w, common.NewAppError("EXPORT_ERROR", err.Error(), common.ErrInternal))
		return
	}
	writeXLSX(w, "jobs.xlsx", data)
}

func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, multipartError(err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, nil, common.NewAppError("MISSING_FILE", "file is required", common.ErrInvalidInput)
	}
	return file, hdr, nil
}

// shaped turns a result into the response body, validating it first in strict mode.
func (h *Handler) shaped(res bol.Result) (map[string]any, error) {
	if h.cfg.StrictOutput {
		raw, err := res.JSON()
		if err != nil {
			return nil, err
		}
		if err := bol.ValidateResult(raw); err != nil {
			h.logger.Error("result failed schema validation", "error", err)
			return nil, common.NewAppError("INVALID_OUTPUT", err.Error(), common.ErrInternal)
		}
	}
	return res.Map()
}

// entities runs the recognizer over each captured party block, keyed by party.
func (h *Handler) entities(ctx context.Context, text string) map[string][]ner.Entity {
	out := map[string][]ner.Entity{}
	if h.deps.Recognizer == nil {
		return out
	}
	for party, lines := range bol.PartyBlocks(text) {
		ents, err := h.deps.Recognizer.Recognize(ctx, strings.Join(lines, "\n"))
		if err != nil {
			h.logger.Warn("entity recognition failed", "party", party, "error", err)
			ents = nil
		}
		if ents == nil {
			ents = []ner.Entity{}
		}
		out[party] = ents
	}
	return out
}

func (h *Handler) maxUploadBytes() int64 {
	return int64(h.cfg.MaxUploadMB) << 20
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	code := common.HTTPStatus(err)
	switch {
	case code >= http.StatusInternalServerError:
		h.logger.Error("request failed", "status", code, "error", err)
	case common.IsValidationError(err):
		h.logger.Info("request rejected", "status", code, "error", err)
	}
	writeError(w, code, err)
}

func listFilter(r *http.Request) (repository.ListFilter, error) {
	f := repository.ListFilter{Status: r.URL.Query().Get("status")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, common.NewAppError("INVALID_LIMIT", "limit must be a non-negative integer", common.ErrInvalidInput)
		}
		f.Limit = n
	}
	return f, nil
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.NewAppError("TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), common.ErrTooLarge)
	}
	return common.NewAppError("INVALID_MULTIPART", "expected multipart/form-data with a file part", common.ErrInvalidInput)
}

func invalidFileType() error {
	return common.NewAppError("INVALID_FILE_TYPE", common.MsgInvalidFileType, common.ErrUnsupportedMedia)
}

func jobLogDisabled() error {
	return common.NewAppError("JOB_LOG_DISABLED", "job log is not configured", common.ErrNotFound)
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJson(w http.ResponseWriter, v any) {
	writeJsonStatus(w, http.StatusOK, v)
}

func writeJsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	text := http.StatusText(code)
	if err != nil {
		text = common.PublicMessage(err)
	}
	writeJsonStatus(w, code, map[string]string{"error": text})
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
