package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	GetEmployeeAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Record implements AttendanceHandler.
func (h *attendanceHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance recorded", result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	h.summary(w, r, actor.UserID)
}

// GetEmployeeAttendance implements AttendanceHandler. Employees may only read their own month.
func (h *attendanceHandlerImpl) GetEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	if !validator.IsValidUUID(employeeID) {
		response.BadRequest(w, "employeeId must be a valid UUID", nil)
		return
	}
	if employeeID != actor.UserID && !user.HasPermission(actor.Role, user.PermissionGateInspect) {
		response.Forbidden(w, user.ErrInsufficientPermissions.Error())
		return
	}
	h.summary(w, r, employeeID)
}

func (h *attendanceHandlerImpl) summary(w http.ResponseWriter, r *http.Request, employeeID string) {
	result, err := h.attendanceService.MonthSummary(r.Context(), employeeID, r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
