package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadBytes    = 10 << 20
	multipartOverhead = 1 << 20
)

type IncidentHandler interface {
	UploadWithLink(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type incidentHandlerImpl struct {
	incidentService incident.IncidentService
}

func NewIncidentHandler(incidentService incident.IncidentService) IncidentHandler {
	return &incidentHandlerImpl{incidentService: incidentService}
}

// parseUpload reads the multipart form. The returned file must be closed by the caller when non-nil.
func parseUpload(w http.ResponseWriter, r *http.Request) (incident.UploadIncidentRequest, multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum size of 10MB", nil)
			return incident.UploadIncidentRequest{}, nil, false
		}
		slog.Warn("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return incident.UploadIncidentRequest{}, nil, false
	}

	req := incident.UploadIncidentRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Severity:    r.FormValue("severity"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// the service reports a missing file before anything else
		return req, nil, true
	case err != nil:
		response.BadRequest(w, "Invalid file upload", nil)
		return incident.UploadIncidentRequest{}, nil, false
	}

	req.File = file
	req.FileName = header.Filename
	req.FileSize = header.Size
	return req, file, true
}

// UploadWithLink handles the emailed link; the token in the path is the only credential.
func (h *incidentHandlerImpl) UploadWithLink(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	token := chi.URLParam(r, "token")

	req, file, ok := parseUpload(w, r)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	result, err := h.incidentService.UploadWithLink(r.Context(), userID, token, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Incident report submitted", result)
}

func (h *incidentHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	req, file, ok := parseUpload(w, r)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	result, err := h.incidentService.Submit(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Incident report submitted", result)
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func (h *incidentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	filter := incident.IncidentFilter{
		ReportedBy: optionalQuery(r, "reported_by"),
		Status:     optionalQuery(r, "status"),
		Severity:   optionalQuery(r, "severity"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}

	result, err := h.incidentService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Reports, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func incidentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "id must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

func (h *incidentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	result, err := h.incidentService.Get(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Download streams the attachment. Files are never served from a public path.
func (h *incidentHandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	file, err := h.incidentService.OpenAttachment(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer file.Body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		slog.Warn("Failed to stream incident attachment", "report_id", id, "error", err)
	}
}

func (h *incidentHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	var req incident.UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.incidentService.Update(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Incident report updated", result)
}

func (h *incidentHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	if err := h.incidentService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Incident report deleted", nil)
}
