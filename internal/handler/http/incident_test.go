package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/gate"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reportID   = "3f1b7c2e-8a4d-4e5f-9b6a-1c2d3e4f5a6b"
	employeeID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type stubIncidentService struct {
	incident.IncidentService
	err        error
	gotUserID  string
	gotToken   string
	gotReq     incident.UploadIncidentRequest
	gotContent string
	gotFilter  incident.IncidentFilter
	gotActor   user.Actor
}

func (s *stubIncidentService) capture(req incident.UploadIncidentRequest) {
	s.gotReq = req
	if req.File != nil {
		b, _ := io.ReadAll(req.File)
		s.gotContent = string(b)
	}
}

func (s *stubIncidentService) UploadWithLink(_ context.Context, userID, token string, req incident.UploadIncidentRequest) (incident.IncidentResponse, error) {
	s.gotUserID, s.gotToken = userID, token
	s.capture(req)
	if s.err != nil {
		return incident.IncidentResponse{}, s.err
	}
	return incident.IncidentResponse{ID: reportID, ReportedBy: userID, Title: req.Title}, nil
}

func (s *stubIncidentService) Submit(_ context.Context, userID string, req incident.UploadIncidentRequest) (incident.IncidentResponse, error) {
	s.gotUserID = userID
	s.capture(req)
	return incident.IncidentResponse{ID: reportID, ReportedBy: userID}, s.err
}

func (s *stubIncidentService) List(_ context.Context, actor user.Actor, f incident.IncidentFilter) (incident.ListIncidentResponse, error) {
	s.gotActor, s.gotFilter = actor, f
	return incident.ListIncidentResponse{
		Reports:    []incident.IncidentResponse{{ID: reportID}},
		TotalCount: 41,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: 3,
	}, s.err
}

func (s *stubIncidentService) Get(_ context.Context, actor user.Actor, id string) (incident.IncidentResponse, error) {
	s.gotActor = actor
	return incident.IncidentResponse{ID: id}, s.err
}

func (s *stubIncidentService) OpenAttachment(_ context.Context, actor user.Actor, id string) (incident.Attachment, error) {
	s.gotActor = actor
	if s.err != nil {
		return incident.Attachment{}, s.err
	}
	return incident.Attachment{
		Name:        "doctor note.pdf",
		ContentType: "application/pdf",
		Size:        8,
		Body:        io.NopCloser(strings.NewReader("%PDF-1.4")),
	}, nil
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func incidentRouter(h IncidentHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/incidentreport/upload/{userId}/{token}", h.UploadWithLink)
	r.Post("/incidents", h.Submit)
	r.Get("/incidentreport/incidentall", h.List)
	r.Get("/incident/{id}", h.Get)
	r.Get("/incident/{id}/file", h.Download)
	r.Delete("/incident/{id}", h.Delete)
	return r
}

func withActor(req *http.Request, actor user.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestIncidentHandler_UploadWithLink(t *testing.T) {
	svc := &stubIncidentService{}
	router := incidentRouter(NewIncidentHandler(svc))

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Hospitalised",
		"description": "Admitted on the 3rd, discharged on the 6th",
		"severity":    "high",
	}, "note.pdf", "%PDF-1.4 fake")
	req := httptest.NewRequest(http.MethodPost, "/incidentreport/upload/"+employeeID+"/tok-abc", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, employeeID, svc.gotUserID)
	assert.Equal(t, "tok-abc", svc.gotToken)
	assert.Equal(t, "Hospitalised", svc.gotReq.Title)
	assert.Equal(t, "high", svc.gotReq.Severity)
	assert.Equal(t, "note.pdf", svc.gotReq.FileName)
	assert.Equal(t, "%PDF-1.4 fake", svc.gotContent)
}

func TestIncidentHandler_UploadWithLink_MissingFilePassesThrough(t *testing.T) {
	svc := &stubIncidentService{err: incident.ErrFileRequired}
	router := incidentRouter(NewIncidentHandler(svc))

	body, contentType := multipartBody(t, map[string]string{"title": "t", "description": "d"}, "", "")
	req := httptest.NewRequest(http.MethodPost, "/incidentreport/upload/"+employeeID+"/tok", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotReq.File)
}

func TestIncidentHandler_UploadWithLink_InvalidToken(t *testing.T) {
	svc := &stubIncidentService{err: incident.ErrInvalidUploadLink}
	router := incidentRouter(NewIncidentHandler(svc))

	body, contentType := multipartBody(t, map[string]string{"title": "t", "description": "d"}, "a.png", "png")
	req := httptest.NewRequest(http.MethodPost, "/incidentreport/upload/"+employeeID+"/forged", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIncidentHandler_UploadTooLarge(t *testing.T) {
	router := incidentRouter(NewIncidentHandler(&stubIncidentService{}))

	big := strings.Repeat("x", maxUploadBytes+multipartOverhead+1)
	body, contentType := multipartBody(t, map[string]string{"title": "t"}, "big.pdf", big)
	req := httptest.NewRequest(http.MethodPost, "/incidentreport/upload/"+employeeID+"/tok", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "FILE_TOO_LARGE", env["error"].(map[string]any)["code"])
}

func TestIncidentHandler_Submit_RequiresActor(t *testing.T) {
	svc := &stubIncidentService{}
	router := incidentRouter(NewIncidentHandler(svc))

	body, contentType := multipartBody(t, map[string]string{"title": "t", "description": "d"}, "a.jpg", "jpg")
	req := httptest.NewRequest(http.MethodPost, "/incidents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, contentType = multipartBody(t, map[string]string{"title": "t", "description": "d"}, "a.jpg", "jpg")
	req = httptest.NewRequest(http.MethodPost, "/incidents", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, user.Actor{UserID: employeeID, Role: user.RoleEmployee}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, employeeID, svc.gotUserID)
}

func TestIncidentHandler_List(t *testing.T) {
	svc := &stubIncidentService{}
	router := incidentRouter(NewIncidentHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/incidentreport/incidentall?status=open&page=2&limit=20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, user.Actor{UserID: employeeID, Role: user.RoleHR}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotFilter.Status)
	assert.Equal(t, "open", *svc.gotFilter.Status)
	assert.Nil(t, svc.gotFilter.Severity)
	assert.Equal(t, 2, svc.gotFilter.Page)
	assert.Equal(t, user.RoleHR, svc.gotActor.Role)

	env := decodeEnvelope(t, rec)
	meta := env["meta"].(map[string]any)
	assert.EqualValues(t, 41, meta["total_items"])
	assert.EqualValues(t, 3, meta["total_pages"])
}

func TestIncidentHandler_Get(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
	}{
		{"found", reportID, nil, http.StatusOK},
		{"bad id", "not-a-uuid", nil, http.StatusBadRequest},
		{"missing", reportID, incident.ErrIncidentNotFound, http.StatusNotFound},
		{"not owner", reportID, incident.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := incidentRouter(NewIncidentHandler(&stubIncidentService{err: tt.err}))
			req := httptest.NewRequest(http.MethodGet, "/incident/"+tt.id, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, withActor(req, user.Actor{UserID: employeeID, Role: user.RoleEmployee}))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestIncidentHandler_Download(t *testing.T) {
	svc := &stubIncidentService{}
	router := incidentRouter(NewIncidentHandler(svc))
	req := httptest.NewRequest(http.MethodGet, "/incident/"+reportID+"/file", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, withActor(req, user.Actor{UserID: employeeID, Role: user.RoleEmployee}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="doctor note.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, employeeID, svc.gotActor.UserID)
}

func TestIncidentHandler_Download_Errors(t *testing.T) {
	tests := []struct {
		name   string
		actor  bool
		err    error
		status int
	}{
		{"anonymous", false, nil, http.StatusUnauthorized},
		{"not owner", true, incident.ErrForbidden, http.StatusForbidden},
		{"no attachment", true, incident.ErrNoAttachment, http.StatusNotFound},
		{"missing report", true, incident.ErrIncidentNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := incidentRouter(NewIncidentHandler(&stubIncidentService{err: tt.err}))
			req := httptest.NewRequest(http.MethodGet, "/incident/"+reportID+"/file", nil)
			if tt.actor {
				req = withActor(req, user.Actor{UserID: employeeID, Role: user.RoleEmployee})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "%PDF")
		})
	}
}

type stubGate struct {
	decision gate.Decision
	called   string
}

func (g *stubGate) Evaluate(_ context.Context, userID string) gate.Decision {
	g.called = userID
	return g.decision
}

func TestGateHandler_Check(t *testing.T) {
	g := &stubGate{decision: gate.Decision{Allowed: false, Outcome: gate.OutcomeNewLink, AbsenceCount: 4, EmailSent: true}}
	r := chi.NewRouter()
	r.Get("/gate/check/{userId}", NewGateHandler(g).Check)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gate/check/"+employeeID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, employeeID, g.called)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, string(gate.OutcomeNewLink), data["outcome"])
	assert.Equal(t, false, data["allowed"])
	assert.EqualValues(t, 4, data["absence_count"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gate/check/nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, employeeID, g.called)
}
