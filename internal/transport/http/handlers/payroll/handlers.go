package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/core"
	"peopleops/internal/domain/payroll"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Core    *core.Store
}

func NewHandler(service *payroll.Service, coreStore *core.Store) *Handler {
	return &Handler{Service: service, Core: coreStore}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/salary", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/summary", h.handleMySummary)
		r.Get("/payslip/pdf", h.handlePayslipPDF)
	})

	r.Route("/hr", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Get("/salary/summary", h.handleCompanySummary)
		r.Get("/salary/employees", h.handleEmployees)
		r.Get("/salary/recent-adjustments", h.handleRecentAdjustments)
		r.Get("/salary/employee-history/{employeeID}", h.handleEmployeeHistory)
		r.Post("/salary/create", h.handleCreateStarting)
		r.Post("/salary/adjust", h.handleAdjust)
		r.Get("/payroll/overview", h.handlePayrollOverview)
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

func (h *Handler) handleMySummary(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	now := time.Now()
	month, year := monthYear(r, int(now.Month()), now.Year())

	summary, err := h.Service.Summarize(r.Context(), emp.ID, month, year, now)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "salary_summary_failed", "failed to load salary summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

// handlePayslipPDF renders the caller's monthly payslip as an inline PDF.
func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.employee(w, r)
	if !ok {
		return
	}

	now := time.Now()
	month, year := monthYear(r, int(now.Month()), now.Year())

	summary, err := h.Service.Summarize(r.Context(), emp.ID, month, year, now)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to compute payslip", middleware.GetRequestID(r.Context()))
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", summary.EmployeeName))
	pdf.Ln(7)
	if summary.Position != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Position: %s", summary.Position))
		pdf.Ln(7)
	}
	if summary.Department != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Department: %s", summary.Department))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %04d-%02d", year, month))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Payment date: %s", summary.PaymentDate.Format("2006-01-02")))
	pdf.Ln(10)

	b := summary.Breakdown
	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %.2f", b.BaseSalary))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Overtime: %.2f hours / %.2f", b.OvertimeHours, b.OvertimePay))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", b.GrossSalary))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Social security: %.2f", b.SocialSecurity))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tax: %.2f", b.Tax))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", b.NetSalary))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="payslip-%04d-%02d.pdf"`, year, month))
	if err := pdf.Output(w); err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleCompanySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.CompanySummary(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "salary_summary_failed", "failed to load company summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployees(w http.ResponseWriter, r *http.Request) {
	filter := payroll.OverviewFilter{
		Search:     r.URL.Query().Get("search"),
		Department: r.URL.Query().Get("department"),
	}
	employees, err := h.Service.EmployeesOverview(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "salary_employees_failed", "failed to load employees", middleware.GetRequestID(r.Context()))
		return
	}
	if employees == nil {
		employees = []payroll.EmployeeOverview{}
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecentAdjustments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	changes, err := h.Service.RecentAdjustments(r.Context(), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "salary_history_failed", "failed to load recent adjustments", middleware.GetRequestID(r.Context()))
		return
	}
	if changes == nil {
		changes = []payroll.SalaryChange{}
	}
	api.Success(w, changes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := h.Service.History(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "salary_history_failed", "failed to load salary history", middleware.GetRequestID(r.Context()))
		return
	}
	if changes == nil {
		changes = []payroll.SalaryChange{}
	}
	api.Success(w, changes, middleware.GetRequestID(r.Context()))
}

type salaryPayload struct {
	EmployeeID    string  `json:"employeeId"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	EffectiveDate string  `json:"effectiveDate"`
}

func (h *Handler) handleCreateStarting(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	payload, effectiveDate, ok := h.decodeSalaryPayload(w, r, false)
	if !ok {
		return
	}

	change, err := h.Service.CreateStarting(r.Context(), payload.EmployeeID, payload.Amount, effectiveDate, user.UserID)
	switch {
	case errors.Is(err, payroll.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_amount", "salary amount must be positive", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, payroll.ErrStartingExists):
		api.Fail(w, http.StatusConflict, "starting_exists", "starting salary already recorded", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "salary_create_failed", "failed to record starting salary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, change, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	payload, effectiveDate, ok := h.decodeSalaryPayload(w, r, true)
	if !ok {
		return
	}

	change, err := h.Service.Adjust(r.Context(), payload.EmployeeID, payload.Amount, payload.Reason, effectiveDate, user.UserID)
	switch {
	case errors.Is(err, payroll.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_amount", "salary amount must be positive", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, payroll.ErrReasonRequired):
		api.Fail(w, http.StatusBadRequest, "reason_required", "adjustment reason is required", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, payroll.ErrStartingMissing):
		api.Fail(w, http.StatusConflict, "starting_missing", "no starting salary recorded for employee", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, core.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "salary_adjust_failed", "failed to record adjustment", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, change, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeSalaryPayload(w http.ResponseWriter, r *http.Request, reasonRequired bool) (salaryPayload, time.Time, bool) {
	var payload salaryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return salaryPayload{}, time.Time{}, false
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee id is required")
	if payload.Amount <= 0 {
		v.Add("amount", "must be a positive number")
	}
	if reasonRequired {
		v.Required("reason", payload.Reason, "reason is required")
	}

	effectiveDate := time.Now()
	if payload.EffectiveDate != "" {
		if parsed, ok := v.Date("effectiveDate", payload.EffectiveDate); ok {
			effectiveDate = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return salaryPayload{}, time.Time{}, false
	}
	return payload, effectiveDate, true
}

func (h *Handler) handlePayrollOverview(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month, year := monthYear(r, int(now.Month()), now.Year())

	rows, err := h.Service.Overview(r.Context(), month, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_overview_failed", "failed to load payroll overview", middleware.GetRequestID(r.Context()))
		return
	}
	if rows == nil {
		rows = []payroll.OverviewRow{}
	}
	api.Success(w, map[string]any{
		"month":     month,
		"year":      year,
		"employees": rows,
	}, middleware.GetRequestID(r.Context()))
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
