package overtimehandler

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
	"peopleops/internal/domain/notifications"
	"peopleops/internal/domain/overtime"
	"peopleops/internal/platform/storage"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

const maxEvidenceMultipartBytes = 8 * 1024 * 1024

type Handler struct {
	Service *overtime.Service
	Core    *core.Store
	Notify  *notifications.Service
	Files   *storage.FileStore
}

func NewHandler(service *overtime.Service, coreStore *core.Store, notify *notifications.Service, files *storage.FileStore) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Files: files}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overtime", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/request", h.handleSubmit)
		r.Get("/my-requests", h.handleMyRequests)
		r.Get("/all", h.handleAll)
		r.Get("/pending", h.handlePending)
		r.Get("/summary", h.handleSummary)
		r.Get("/rates", h.handleRates)
		r.Put("/approve/{requestID}", h.handleDecide)
		r.Get("/{requestID}/evidence", h.handleEvidence)
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
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
}

// handleSubmit accepts either a JSON body or a multipart form carrying an
// evidence image. The image is stored before validation runs, so every
// rejection path removes it again.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	var payload submitPayload
	evidencePath := ""

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxEvidenceMultipartBytes); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
			return
		}
		payload.Date = r.FormValue("date")
		payload.StartTime = r.FormValue("startTime")
		payload.EndTime = r.FormValue("endTime")
		payload.Reason = r.FormValue("reason")
		if files := r.MultipartForm.File["evidenceImage"]; len(files) > 0 {
			stored, err := h.Files.SaveImage("ot", files[0])
			if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
				api.Fail(w, http.StatusBadRequest, "invalid_image", err.Error(), middleware.GetRequestID(r.Context()))
				return
			}
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to store evidence image", middleware.GetRequestID(r.Context()))
				return
			}
			evidencePath = stored
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	v := shared.NewValidator()
	v.Required("startTime", payload.StartTime, "start time is required")
	v.Required("endTime", payload.EndTime, "end time is required")
	v.Required("reason", payload.Reason, "reason is required")
	date, _ := v.Date("date", payload.Date)
	if v.HasIssues() {
		// Validation failed after the image was stored.
		if evidencePath != "" {
			if err := h.Files.Remove(evidencePath); err != nil {
				slog.Warn("evidence cleanup failed", "path", evidencePath, "err", err)
			}
		}
		v.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Submit(r.Context(), overtime.SubmitInput{
		EmployeeID:   emp.ID,
		Date:         date,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		Reason:       payload.Reason,
		EvidencePath: evidencePath,
	})
	switch {
	case errors.Is(err, overtime.ErrInvalidTimeRange):
		api.Fail(w, http.StatusBadRequest, "invalid_time_range", "end time must be after start time", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, overtime.ErrDuplicateRequest):
		api.Fail(w, http.StatusConflict, "duplicate_request", "an overtime request already exists for this date", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "overtime_submit_failed", "failed to submit overtime request", middleware.GetRequestID(r.Context()))
		return
	}

	h.notifyManagers(r, emp, result)

	api.Created(w, map[string]any{
		"id":         result.ID,
		"totalHours": result.TotalHours,
	}, middleware.GetRequestID(r.Context()))
}

// notifyManagers tells the requester's department managers about a new
// request, best-effort.
func (h *Handler) notifyManagers(r *http.Request, emp core.Employee, result overtime.SubmitResult) {
	if emp.Department == "" {
		return
	}
	rows, err := h.Service.DB.Query(r.Context(), `
    SELECT u.id
    FROM users u
    JOIN employees e ON e.user_id = u.id
    WHERE u.role = 'manager' AND TRIM(UPPER(COALESCE(e.department, ''))) = TRIM(UPPER($1))
  `, emp.Department)
	if err != nil {
		slog.Warn("overtime manager lookup failed", "err", err)
		return
	}
	defer rows.Close()

	var managerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			managerIDs = append(managerIDs, id)
		}
	}

	if err := h.Notify.Broadcast(r.Context(), managerIDs, notifications.CreateInput{
		Title:   "New Overtime Request",
		Message: fmt.Sprintf("%s requested %.2f hour(s) of overtime", emp.FullName(), result.TotalHours),
		Type:    notifications.TypeInfo,
	}); err != nil {
		slog.Warn("overtime request notification failed", "requestId", result.ID, "err", err)
	}
}

func (h *Handler) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.ListMine(r.Context(), emp.ID, listFilter(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_list_failed", "failed to load overtime requests", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []overtime.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter := listFilter(r)
	filter.Department = r.URL.Query().Get("department")

	requests, err := h.Service.ListAll(r.Context(), user.Role, filter)
	if errors.Is(err, approval.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_list_failed", "failed to load overtime requests", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []overtime.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requests, err := h.Service.ListPending(r.Context(), user.Role, user.UserID)
	if errors.Is(err, approval.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_pending_failed", "failed to load pending requests", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []overtime.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	now := time.Now()
	month, year := monthYear(r, int(now.Month()), now.Year())

	summary, err := h.Service.Summary(r.Context(), emp.ID, month, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_summary_failed", "failed to load overtime summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.Rates(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_rates_failed", "failed to load overtime rates", middleware.GetRequestID(r.Context()))
		return
	}
	if rates == nil {
		rates = []overtime.Rate{}
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

// handleEvidence streams the stored evidence image. The owner can always
// fetch it; managers and admins can fetch anyone's.
func (h *Handler) handleEvidence(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	employeeID, relPath, err := h.Service.Evidence(r.Context(), chi.URLParam(r, "requestID"))
	if errors.Is(err, overtime.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "no evidence for this request", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "evidence_failed", "failed to load evidence", middleware.GetRequestID(r.Context()))
		return
	}

	if user.Role == auth.RoleEmployee {
		emp, ok := h.employee(w, r)
		if !ok {
			return
		}
		if emp.ID != employeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this evidence", middleware.GetRequestID(r.Context()))
			return
		}
	}

	absPath, err := h.Files.Resolve(relPath)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "evidence_failed", "failed to load evidence", middleware.GetRequestID(r.Context()))
		return
	}
	http.ServeFile(w, r, absPath)
}

type decidePayload struct {
	Action          string `json:"action"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload decidePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Decide(r.Context(), chi.URLParam(r, "requestID"), payload.Action, user.UserID, user.Role, payload.RejectionReason)
	switch {
	case errors.Is(err, overtime.ErrInvalidAction):
		api.Fail(w, http.StatusBadRequest, "invalid_action", "action must be approve or reject", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, overtime.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "overtime request not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, overtime.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", "overtime request already decided", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, approval.ErrNoDepartment):
		api.Fail(w, http.StatusForbidden, "no_department", "approver or requester has no department", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, approval.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to decide this request", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, core.ErrNoEmployee):
		api.Fail(w, http.StatusForbidden, "no_employee_profile", "approver has no employee record", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "overtime_decision_failed", "failed to update overtime request", middleware.GetRequestID(r.Context()))
		return
	}

	notifType := notifications.TypeSuccess
	message := fmt.Sprintf("Your overtime request for %s (%.2f hours) was approved", result.Date.Format("2006-01-02"), result.TotalHours)
	if result.Status == overtime.StatusRejected {
		notifType = notifications.TypeWarning
		message = fmt.Sprintf("Your overtime request for %s was rejected", result.Date.Format("2006-01-02"))
		if payload.RejectionReason != "" {
			message += ": " + payload.RejectionReason
		}
	}
	if err := h.Notify.Create(r.Context(), notifications.CreateInput{
		UserID:  result.EmployeeUserID,
		Title:   "Overtime Request Update",
		Message: message,
		Type:    notifType,
	}); err != nil {
		slog.Warn("overtime decision notification failed", "requestId", chi.URLParam(r, "requestID"), "err", err)
	}

	api.Success(w, map[string]string{"status": result.Status}, middleware.GetRequestID(r.Context()))
}

func listFilter(r *http.Request) overtime.ListFilter {
	filter := overtime.ListFilter{Status: r.URL.Query().Get("status")}
	filter.Month, filter.Year = monthYear(r, 0, 0)
	return filter
}

func monthYear(r *http.Request, defaultMonth, defaultYear int) (int, int) {
	month, year := defaultMonth, defaultYear
	if raw := r.URL.Query().Get("month"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 && parsed <= 12 {
			month = parsed
		}
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}
	return month, year
}
