package aiops

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/extract"
	"career-backend/internal/llm"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/storage/object"
	"career-backend/internal/shared/telemetry"
)

const (
	maxRequestBytes = 1 << 20
	maxUploadBytes  = 5 << 20

	// MaterialHeader carries the archive id of a stored markdown result.
	MaterialHeader = "X-Material-Id"
)

var uploadContentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/zip": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// archivable operations return markdown that can be kept in the material archive.
var archivable = map[string]struct{}{
	OpGenerateCv:          {},
	OpGenerateCoverLetter: {},
	OpImproveMaterial:     {},
}

// Archiver stores generated markdown and returns its id.
type Archiver interface {
	Archive(ctx context.Context, operation, markdown string) (string, error)
}

// Handler exposes operations over HTTP.
type Handler struct {
	Svc     *Service
	Archive Archiver
	Uploads object.ObjectStore
}

// NewHandler constructs a Handler. archive and uploads may be nil; without an
// upload store, CV files are extracted in memory and not kept.
func NewHandler(svc *Service, archive Archiver, uploads object.ObjectStore) *Handler {
	return &Handler{Svc: svc, Archive: archive, Uploads: uploads}
}

// RegisterRoutes attaches operation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ai/operations", h.listOperations)
	rg.POST("/ai/parse-cv/upload", h.uploadCV)
	rg.POST("/ai/:operation", h.runOperation)
}

func (h *Handler) listOperations(c *gin.Context) {
	respond.OK(c, gin.H{"operations": Operations()})
}

func (h *Handler) runOperation(c *gin.Context) {
	op := c.Param("operation")
	c.Set("operation", op)
	if !Known(op) {
		respond.Error(c, http.StatusNotFound, "not_found", "unknown operation", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read request body", nil)
		return
	}
	if len(body) > maxRequestBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "request body exceeds limit", nil)
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 && !json.Valid(body) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	out, err := h.Svc.Run(c.Request.Context(), op, body)
	if err != nil {
		WriteError(c, err)
		return
	}

	if c.Query("archive") == "true" {
		h.archive(c, op, out)
	}
	respond.OK(c, out)
}

func (h *Handler) archive(c *gin.Context, op string, out any) {
	if h.Archive == nil {
		return
	}
	if _, ok := archivable[op]; !ok {
		return
	}
	var markdown string
	switch v := out.(type) {
	case string:
		markdown = v
	case ImprovedMaterial:
		markdown = v.Markdown
	}
	if strings.TrimSpace(markdown) == "" {
		return
	}
	id, err := h.Archive.Archive(c.Request.Context(), op, markdown)
	if err != nil {
		telemetry.Warn("materials.archive_failed", map[string]any{
			"operation": op,
			"error":     err.Error(),
		})
		return
	}
	c.Header(MaterialHeader, id)
}

func (h *Handler) uploadCV(c *gin.Context) {
	c.Set("operation", OpParseCvText)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+(1<<10))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size <= 0 || fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file size exceeds limit", nil)
		return
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	if _, ok := uploadContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}

	text, err := h.extractUpload(c.Request.Context(), data, contentType, fileHeader.Filename)
	if err != nil {
		telemetry.Warn("ai.upload.extract_failed", map[string]any{
			"fileName": fileHeader.Filename,
			"mimeType": contentType,
			"error":    err.Error(),
		})
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "failed to extract text from file", nil)
		return
	}

	out, err := h.Svc.ParseCVText(c.Request.Context(), ParseCVInput{CVText: text})
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) extractUpload(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	if h.Uploads == nil {
		return extract.ExtractTextFromBytes(ctx, data, contentType, fileName)
	}
	key, err := object.NewKey("uploads", fileName)
	if err != nil {
		return "", err
	}
	if _, err := h.Uploads.Put(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return extract.ExtractText(ctx, h.Uploads, data, contentType, fileName)
}

// WriteError maps an operation error to its HTTP status and error code.
func WriteError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	var details any
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		details = []map[string]string{{"field": invalid.Field, "issue": issueFor(invalid)}}
	}
	respond.Error(c, status, code, messageFor(code, err), details)
}

// StatusFor returns the HTTP status and error code for an operation error.
func StatusFor(err error) (int, string) {
	var (
		invalid    *InvalidInputError
		gateway    *llm.GatewayError
		unstable   *recovery.UnstableModelOutputError
		structural *recovery.StructuralFormatError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrUnknownOperation):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &gateway):
		if gateway.Timeout() {
			return http.StatusGatewayTimeout, "model_timeout"
		}
		return http.StatusBadGateway, "model_unavailable"
	case errors.As(err, &unstable):
		return http.StatusBadGateway, "unstable_model_output"
	case errors.As(err, &structural):
		return http.StatusBadGateway, "structural_format_error"
	case errors.Is(err, recovery.ErrNoGateway):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "model_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func issueFor(e *InvalidInputError) string {
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return "invalid"
	}
	return "required"
}

func messageFor(code string, err error) string {
	switch code {
	case "validation_error", "unstable_model_output", "structural_format_error":
		return err.Error()
	case "model_timeout":
		return "model request timed out"
	case "model_unavailable":
		return "model is unavailable"
	case "not_found":
		return "unknown operation"
	default:
		return "operation failed"
	}
}
