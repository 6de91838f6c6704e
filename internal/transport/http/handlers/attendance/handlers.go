package attendancehandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/core"
	"peopleops/internal/platform/storage"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

const maxCheckinMultipartBytes = 8 * 1024 * 1024

type Handler struct {
	Service *attendance.Service
	Core    *core.Store
	Files   *storage.FileStore
}

func NewHandler(service *attendance.Service, coreStore *core.Store, files *storage.FileStore) *Handler {
	return &Handler{Service: service, Core: coreStore, Files: files}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/checkin", h.handleCheckIn)
		r.Post("/checkout", h.handleCheckOut)
		r.Get("/today", h.handleToday)
		r.Get("/history", h.handleHistory)
	})
}

// employeeID resolves the caller's employee record; attendance rows hang
// off employees, not logins.
func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Core.EmployeeByUserID(r.Context(), user.UserID)
	if errors.Is(err, core.ErrNoEmployee) {
		api.Fail(w, http.StatusNotFound, "no_employee_profile", "no employee profile for this account", middleware.GetRequestID(r.Context()))
		return "", false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return emp.ID, true
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	// The check-in photo is optional; JSON bodies pass through untouched.
	imagePath := ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxCheckinMultipartBytes); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
			return
		}
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			stored, err := h.Files.SaveImage("att", files[0])
			if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
				api.Fail(w, http.StatusBadRequest, "invalid_image", err.Error(), middleware.GetRequestID(r.Context()))
				return
			}
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to store image", middleware.GetRequestID(r.Context()))
				return
			}
			imagePath = stored
		}
	}

	checkedInAt, err := h.Service.CheckIn(r.Context(), employeeID, time.Now(), imagePath)
	if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
		api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "checkin_failed", "failed to check in", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]any{"checkInTime": checkedInAt}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	checkedOutAt, err := h.Service.CheckOut(r.Context(), employeeID, time.Now())
	switch {
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusConflict, "not_checked_in", "no check-in recorded today", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		api.Fail(w, http.StatusConflict, "already_checked_out", "already checked out today", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "checkout_failed", "failed to check out", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"checkOutTime": checkedOutAt}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	record, err := h.Service.Today(r.Context(), employeeID, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to load attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	var start, end *time.Time
	v := shared.NewValidator()
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		if parsed, ok := v.Date("startDate", raw); ok {
			start = &parsed
		}
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		if parsed, ok := v.Date("endDate", raw); ok {
			end = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records, err := h.Service.History(r.Context(), employeeID, start, end)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to load attendance history", middleware.GetRequestID(r.Context()))
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
