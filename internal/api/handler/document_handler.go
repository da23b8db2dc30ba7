package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/docvault/document-service/internal/api/metrics"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	service        ports.DocumentService
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func NewDocumentHandler(service ports.DocumentService, m *metrics.Metrics, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{service: service, metrics: m, maxUploadBytes: maxUploadBytes}
}

// List handles GET /documents. Every query parameter is accepted in camelCase
// and snake_case; values that do not parse are ignored.
//
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  query     int     false  "Category filter (also categoryId)"
// @Param        user_id      query     int     false  "Owner filter, admins only (also userId)"
// @Param        file_type    query     string  false  "Extension filter (also fileType)"
// @Param        search       query     string  false  "Substring of title or description"
// @Param        page         query     int     false  "Page, 1-based"
// @Param        per_page     query     int     false  "Page size, max 100 (also perPage)"
// @Success      200          {object}  documentListResponse
// @Failure      401          {object}  errorResponse
// @Router       /documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}

	in := ports.ListDocumentsInput{
		CategoryID: queryID(c, "category_id", "categoryId"),
		OwnerID:    queryID(c, "user_id", "userId"),
		FileType:   queryString(c, "file_type", "fileType"),
		Search:     c.QueryParam("search"),
	}
	if p := queryID(c, "page"); p != nil {
		in.Page = int(*p)
	}
	if pp := queryID(c, "per_page", "perPage"); pp != nil {
		in.PerPage = int(*pp)
	}

	res, err := h.service.List(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentListResponse{
		Documents:  toDocumentResponses(res.Items),
		Pagination: toPagination(res),
	})
}

// Upload handles POST /documents/upload (multipart/form-data).
//
// @Summary      Upload a document
// @Tags         documents
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "Document content"
// @Param        title        formData  string  false  "Title, defaults to the filename without extension"
// @Param        description  formData  string  false  "Description"
// @Param        category_id  formData  int     false  "Category ID"
// @Param        tags         formData  string  false  "Comma-separated tags"
// @Success      201          {object}  documentEnvelope
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Failure      413          {object}  errorResponse
// @Router       /documents/upload [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}

	doc, err := h.upload(c, caller)
	if err != nil {
		h.metrics.UploadsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	h.metrics.DocumentsUploadedTotal.WithLabelValues(doc.FileType).Inc()
	h.metrics.UploadSizeBytes.Observe(float64(doc.FileSize))
	return c.JSON(http.StatusCreated, documentEnvelope{
		Message:  "Document uploaded successfully",
		Document: toDocumentResponse(doc),
	})
}

func (h *DocumentHandler) upload(c echo.Context, caller *domain.User) (*domain.Document, error) {
	req := c.Request()
	if h.maxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		switch {
		case isBodyTooLarge(err):
			return nil, domain.ErrFileTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, domain.Errorf(domain.ErrValidation, "no file provided")
		}
		return nil, invalidPayload(err)
	}

	var categoryID *int64
	if raw := strings.TrimSpace(c.FormValue("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
		categoryID = &id
	}

	f, err := fh.Open()
	if err != nil {
		return nil, invalidPayload(err)
	}
	defer f.Close()

	return h.service.Upload(req.Context(), caller, ports.UploadDocumentInput{
		Content:     f,
		Filename:    fh.Filename,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		CategoryID:  categoryID,
		Tags:        c.FormValue("tags"),
	})
}

// Stats handles GET /documents/stats.
//
// @Summary      Storage statistics
// @Description  Global figures for admins, the caller's own figures otherwise.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.StatsResult
// @Failure      401  {object}  errorResponse
// @Router       /documents/stats [get]
func (h *DocumentHandler) Stats(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Get handles GET /documents/:id.
//
// @Summary      Get a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  documentEnvelope
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "document")
	if err != nil {
		return err
	}

	doc, err := h.service.Get(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentEnvelope{Document: toDocumentResponse(doc)})
}

// Download handles GET /documents/:id/download.
//
// @Summary      Download a document
// @Tags         documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {file}    binary
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /documents/{id}/download [get]
func (h *DocumentHandler) Download(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "document")
	if err != nil {
		return err
	}

	res, err := h.service.Download(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	defer res.Content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": res.Document.Filename}))
	h.metrics.DocumentDownloadsTotal.Inc()
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, res.Content)
}

// Update handles PUT /documents/:id. Only the fields present in the body
// change; tags replace the existing set.
//
// @Summary      Update a document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Document ID"
// @Param        body  body      updateDocumentRequest  true  "Fields to change; tags may also be a comma-separated string"
// @Success      200   {object}  documentEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "document")
	if err != nil {
		return err
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return invalidPayload(err)
	}
	in, err := toUpdateDocumentInput(body)
	if err != nil {
		return err
	}

	doc, err := h.service.Update(c.Request().Context(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentEnvelope{
		Message:  "Document updated successfully",
		Document: toDocumentResponse(doc),
	})
}

// Delete handles DELETE /documents/:id.
//
// @Summary      Delete a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "document")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, id); err != nil {
		return err
	}
	h.metrics.DocumentsDeletedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}

// Activity handles GET /documents/:id/activity.
//
// @Summary      Document activity trail
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  activityResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /documents/{id}/activity [get]
func (h *DocumentHandler) Activity(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "document")
	if err != nil {
		return err
	}

	events, err := h.service.Activity(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Events: events})
}

// --- Request → Service input ---

func toUpdateDocumentInput(body map[string]json.RawMessage) (ports.UpdateDocumentInput, error) {
	var in ports.UpdateDocumentInput
	if len(body) == 0 {
		return in, domain.Errorf(domain.ErrValidation, "no data provided")
	}

	if raw, ok := body["title"]; ok {
		s, err := optionalString(raw, "title")
		if err != nil {
			return in, err
		}
		in.Title = s
	}
	if raw, ok := body["description"]; ok {
		s, err := optionalString(raw, "description")
		if err != nil {
			return in, err
		}
		if s == nil {
			s = new(string)
		}
		in.Description = s
	}
	if raw, ok := body["category_id"]; ok {
		in.SetCategory = true
		if !isNull(raw) {
			var id int64
			if err := json.Unmarshal(raw, &id); err != nil {
				return in, domain.ErrInvalidCategory
			}
			in.CategoryID = &id
		}
	}
	if raw, ok := body["tags"]; ok {
		in.SetTags = true
		tags, err := parseTagsField(raw)
		if err != nil {
			return in, err
		}
		in.Tags = tags
	}
	return in, nil
}

func parseTagsField(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return tagList(items)
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		return strings.Split(csv, ","), nil
	}
	return nil, errTagsShape
}

var errTagsShape = domain.Errorf(domain.ErrValidation, "tags must be a list or a comma-separated string")

// tagList accepts scalar items; numbers and booleans keep their JSON text and
// null items are dropped.
func tagList(items []json.RawMessage) ([]string, error) {
	tags := make([]string, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(string(item))
		switch {
		case text == "null":
			continue
		case strings.HasPrefix(text, `"`):
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, errTagsShape
			}
			tags = append(tags, s)
		case strings.HasPrefix(text, "{"), strings.HasPrefix(text, "["):
			return nil, errTagsShape
		default:
			tags = append(tags, text)
		}
	}
	return tags, nil
}

func optionalString(raw json.RawMessage, field string) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "%s must be a string", field)
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func queryString(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			return v
		}
	}
	return ""
}

func queryID(c echo.Context, names ...string) *int64 {
	v := queryString(c, names...)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return "validation"
	}
	return "error"
}
