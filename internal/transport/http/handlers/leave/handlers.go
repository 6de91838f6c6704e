package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/approval"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/core"
	"peopleops/internal/domain/leave"
	"peopleops/internal/domain/notifications"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Core    *core.Store
	Notify  *notifications.Service
}

func NewHandler(service *leave.Service, coreStore *core.Store, notify *notifications.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/request", h.handleSubmit)
		r.Get("/history", h.handleHistory)
		r.Get("/pending", h.handlePending)
		r.Get("/my-summary", h.handleSummary)
		r.Patch("/{leaveID}/status", h.handleSetStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Get("/admin/leave-summary", h.handleCompanyReport)
		r.Get("/admin/leave-details", h.handleDetails)
	})
}

func (h *Handler) employee(w http.ResponseWriter, r *http.Request) (core.Employee, bool) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Core.EmployeeByUserID(r.Context(), user.UserID)
	if errors.Is(err, core.ErrNoEmployee) {
		api.Fail(w, http.StatusNotFound, "no_employee_profile", "no employee profile for this account", middleware.GetRequestID(r.Context()))
		return core.Employee{}, false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", middleware.GetRequestID(r.Context()))
		return core.Employee{}, false
	}
	return emp, true
}

type submitPayload struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "leave type is required")
	if payload.LeaveType != "" && !leave.ValidType(payload.LeaveType) {
		v.Add("leaveType", "unknown leave type")
	}
	v.Required("reason", payload.Reason, "reason is required")
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Submit(r.Context(), emp.ID, payload.LeaveType, start, end, payload.Reason)
	if errors.Is(err, leave.ErrInvalidRange) {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "end date before start date", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_submit_failed", "failed to submit leave request", middleware.GetRequestID(r.Context()))
		return
	}

	// Notify approvers after the request is committed; a notification
	// failure never unwinds the submission.
	days, _ := leave.CalculateDays(start, end)
	if err := h.Notify.Broadcast(r.Context(), result.ApproverUserIDs, notifications.CreateInput{
		Title:   "New Leave Request",
		Message: fmt.Sprintf("%s requested %d day(s) of %s leave", result.EmployeeName, days, payload.LeaveType),
		Type:    notifications.TypeInfo,
		LeaveID: result.ID,
	}); err != nil {
		slog.Warn("leave request notification failed", "leaveId", result.ID, "err", err)
	}

	api.Created(w, map[string]any{"id": result.ID, "totalDays": days}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.History(r.Context(), emp.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_history_failed", "failed to load leave history", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requests, err := h.Service.Pending(r.Context(), user.Role, user.UserID)
	if errors.Is(err, approval.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager or admin role required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_pending_failed", "failed to load requests", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

type statusPayload struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.SetStatus(r.Context(), chi.URLParam(r, "leaveID"), payload.Status, user.UserID, user.Role, payload.RejectionReason)
	switch {
	case errors.Is(err, leave.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", "status must be approved or rejected", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", "leave request already decided", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, approval.ErrNoDepartment):
		api.Fail(w, http.StatusForbidden, "no_department", "approver has no department", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, approval.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to decide this request", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrApproverProfile):
		api.Fail(w, http.StatusForbidden, "no_employee_profile", "approver has no employee record", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "leave_decision_failed", "failed to update leave request", middleware.GetRequestID(r.Context()))
		return
	}

	notifType := notifications.TypeSuccess
	message := "Your leave request was approved"
	if result.Status == leave.StatusRejected {
		notifType = notifications.TypeWarning
		message = "Your leave request was rejected"
		if result.RejectionReason != "" {
			message += ": " + result.RejectionReason
		}
	}
	if err := h.Notify.Create(r.Context(), notifications.CreateInput{
		UserID:  result.EmployeeUserID,
		Title:   "Leave Request " + capitalized(result.Status),
		Message: message,
		Type:    notifType,
		LeaveID: chi.URLParam(r, "leaveID"),
	}); err != nil {
		slog.Warn("leave decision notification failed", "leaveId", chi.URLParam(r, "leaveID"), "err", err)
	}

	api.Success(w, map[string]string{"status": result.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}

	summary, err := h.Service.Summarize(r.Context(), emp.ID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_summary_failed", "failed to load leave summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompanyReport(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}

	report, err := h.Service.CompanyReport(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_report_failed", "failed to load leave report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	var onDate *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
			return
		}
		onDate = &parsed
	}

	requests, err := h.Service.Details(r.Context(), onDate)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_details_failed", "failed to load leave details", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func capitalized(status string) string {
	if status == "" {
		return status
	}
	return strings.ToUpper(status[:1]) + status[1:]
}
