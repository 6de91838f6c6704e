package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"peopleops/internal/app/server"
	"peopleops/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func testConfig(t *testing.T, dbURL string) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		Environment:       "test",
		UploadDir:         t.TempDir(),
		MaxEvidenceBytes:  5 * 1024 * 1024,
		SeedAdminUsername: "admin",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		RunMigrations:     true,
		RunSeed:           true,
		CORSOrigins:       []string{"*"},
	}
}

func TestLeaveApprovalJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.DB.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	managerName := fmt.Sprintf("mgr-%d", suffix)
	employeeName := fmt.Sprintf("emp-%d", suffix)
	password := "Password123!"

	createUser(t, client, ts.URL, adminToken, managerName, "manager", "Engineering")
	createUser(t, client, ts.URL, adminToken, employeeName, "employee", "Engineering")

	employeeToken := login(t, client, ts.URL, employeeName, password)
	managerToken := login(t, client, ts.URL, managerName, password)

	resp := postJSON(t, client, ts.URL+"/api/leave/request", employeeToken, map[string]any{
		"leaveType": "vacation",
		"startDate": "2026-09-07",
		"endDate":   "2026-09-09",
		"reason":    "family visit",
	})
	var created map[string]any
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to decode leave response: %v", err)
	}
	leaveID, _ := created["id"].(string)
	if leaveID == "" {
		t.Fatal("expected leave request id")
	}
	if days, _ := created["totalDays"].(float64); days != 3 {
		t.Fatalf("expected 3 inclusive days, got %v", days)
	}

	// The manager sees the pending request, the employee sees nothing.
	pending := getJSON(t, client, ts.URL+"/api/leave/pending", managerToken)
	var pendingList []map[string]any
	if err := json.Unmarshal(pending.Data, &pendingList); err != nil {
		t.Fatalf("failed to decode pending list: %v", err)
	}
	if len(pendingList) == 0 {
		t.Fatal("expected pending leave request in manager queue")
	}
	requestJSONStatus(t, client, http.MethodGet, ts.URL+"/api/leave/pending", employeeToken, nil, http.StatusForbidden)

	patchStatus := func(token, status string, want int) {
		requestJSONStatus(t, client, http.MethodPatch, ts.URL+"/api/leave/"+leaveID+"/status", token,
			map[string]any{"status": status}, want)
	}
	patchStatus(employeeToken, "approved", http.StatusForbidden)
	patchStatus(managerToken, "approved", http.StatusOK)
	// A decided request stays decided.
	patchStatus(managerToken, "rejected", http.StatusConflict)

	summary := getJSON(t, client, ts.URL+"/api/leave/my-summary?year=2026", employeeToken)
	var sum map[string]any
	if err := json.Unmarshal(summary.Data, &sum); err != nil {
		t.Fatalf("failed to decode leave summary: %v", err)
	}
	if remaining, _ := sum["remainingLeaveDays"].(float64); remaining != 27 {
		t.Fatalf("expected 27 remaining days after a 3-day approval, got %v", remaining)
	}

	// The summary carries the year's attendance figures alongside the
	// leave counts; no check-ins means zero work days.
	attSummary, ok := sum["attendanceSummary"].(map[string]any)
	if !ok {
		t.Fatalf("expected attendanceSummary in leave summary, got %v", sum)
	}
	if workDays, _ := attSummary["totalWorkDays"].(float64); workDays != 0 {
		t.Fatalf("expected 0 work days, got %v", workDays)
	}
	if leaveDays, _ := attSummary["leaveDays"].(float64); leaveDays != 3 {
		t.Fatalf("expected 3 leave days in attendance summary, got %v", leaveDays)
	}

	// The admin report aggregates the approved days; employees cannot see it.
	report := getJSON(t, client, ts.URL+"/api/admin/leave-summary?year=2026", managerToken)
	var companyReport struct {
		Totals struct {
			TotalApprovedDays int `json:"totalApprovedDays"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(report.Data, &companyReport); err != nil {
		t.Fatalf("failed to decode leave report: %v", err)
	}
	if companyReport.Totals.TotalApprovedDays < 3 {
		t.Fatalf("expected at least 3 approved days in company totals, got %d", companyReport.Totals.TotalApprovedDays)
	}
	requestJSONStatus(t, client, http.MethodGet, ts.URL+"/api/admin/leave-summary", employeeToken, nil, http.StatusForbidden)

	details := getJSON(t, client, ts.URL+"/api/admin/leave-details?date=2026-09-08", adminToken)
	var detailRows []map[string]any
	if err := json.Unmarshal(details.Data, &detailRows); err != nil {
		t.Fatalf("failed to decode leave details: %v", err)
	}
	found := false
	for _, row := range detailRows {
		if id, _ := row["id"].(string); id == leaveID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the approved request among leave details for a covered date")
	}

	// The approval produced a notification for the employee.
	unread := getJSON(t, client, ts.URL+"/api/notifications/unread-count", employeeToken)
	var counts map[string]int
	if err := json.Unmarshal(unread.Data, &counts); err != nil {
		t.Fatalf("failed to decode unread count: %v", err)
	}
	if counts["unread"] == 0 {
		t.Fatal("expected unread notification after leave decision")
	}
}

func TestOvertimeAndSalaryJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.DB.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	managerName := fmt.Sprintf("otmgr-%d", suffix)
	employeeName := fmt.Sprintf("otemp-%d", suffix)
	password := "Password123!"

	createUser(t, client, ts.URL, adminToken, managerName, "manager", "Operations")
	employeeUserID := createUser(t, client, ts.URL, adminToken, employeeName, "employee", "Operations")

	employeeToken := login(t, client, ts.URL, employeeName, password)
	managerToken := login(t, client, ts.URL, managerName, password)

	employeeID := employeeIDFor(t, app, employeeUserID)

	// Salary ledger must be opened before adjustments.
	requestJSONStatus(t, client, http.MethodPost, ts.URL+"/api/hr/salary/adjust", adminToken,
		map[string]any{"employeeId": employeeID, "amount": 12000, "reason": "raise"}, http.StatusConflict)
	requestJSONStatus(t, client, http.MethodPost, ts.URL+"/api/hr/salary/create", adminToken,
		map[string]any{"employeeId": employeeID, "amount": 10000}, http.StatusCreated)
	requestJSONStatus(t, client, http.MethodPost, ts.URL+"/api/hr/salary/create", adminToken,
		map[string]any{"employeeId": employeeID, "amount": 11000}, http.StatusConflict)

	date := time.Now().UTC().Format("2006-01-02")
	resp := postJSON(t, client, ts.URL+"/api/overtime/request", employeeToken, map[string]any{
		"date":      date,
		"startTime": "18:00",
		"endTime":   "21:00",
		"reason":    "release support",
	})
	var created map[string]any
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to decode overtime response: %v", err)
	}
	requestID, _ := created["id"].(string)
	if requestID == "" {
		t.Fatal("expected overtime request id")
	}
	if hours, _ := created["totalHours"].(float64); hours != 3 {
		t.Fatalf("expected 3 hours, got %v", hours)
	}

	// One live request per date.
	requestJSONStatus(t, client, http.MethodPost, ts.URL+"/api/overtime/request", employeeToken,
		map[string]any{"date": date, "startTime": "19:00", "endTime": "20:00", "reason": "dup"}, http.StatusConflict)

	requestJSONStatus(t, client, http.MethodPut, ts.URL+"/api/overtime/approve/"+requestID, managerToken,
		map[string]any{"action": "approve"}, http.StatusOK)
	requestJSONStatus(t, client, http.MethodPut, ts.URL+"/api/overtime/approve/"+requestID, managerToken,
		map[string]any{"action": "reject"}, http.StatusConflict)

	// Base 10000 with 3 approved hours: hourly 56.82, OT pay 255.68,
	// social security 500, tax 475.
	now := time.Now()
	summaryURL := fmt.Sprintf("%s/api/salary/summary?month=%d&year=%d", ts.URL, int(now.Month()), now.Year())
	summary := getJSON(t, client, summaryURL, employeeToken)
	var sum struct {
		Breakdown struct {
			OvertimeHours  float64 `json:"overtimeHours"`
			SocialSecurity float64 `json:"socialSecurity"`
			Tax            float64 `json:"tax"`
			NetSalary      float64 `json:"netSalary"`
		} `json:"breakdown"`
	}
	if err := json.Unmarshal(summary.Data, &sum); err != nil {
		t.Fatalf("failed to decode salary summary: %v", err)
	}
	if sum.Breakdown.OvertimeHours != 3 {
		t.Fatalf("expected 3 overtime hours in summary, got %v", sum.Breakdown.OvertimeHours)
	}
	if sum.Breakdown.SocialSecurity != 500 || sum.Breakdown.Tax != 475 {
		t.Fatalf("unexpected deductions: %+v", sum.Breakdown)
	}

	// Payslip renders as a PDF.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/salary/payslip/pdf", nil)
	req.Header.Set("Authorization", "Bearer "+employeeToken)
	pdfResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("payslip request failed: %v", err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for payslip, got %d", pdfResp.StatusCode)
	}
	if ct := pdfResp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}

	// A JSON submission carries no evidence image.
	requestJSONStatus(t, client, http.MethodGet, ts.URL+"/api/overtime/"+requestID+"/evidence", employeeToken,
		nil, http.StatusNotFound)

	// The rate table is seeded by the migrations.
	rates := getJSON(t, client, ts.URL+"/api/overtime/rates", employeeToken)
	var rateRows []map[string]any
	if err := json.Unmarshal(rates.Data, &rateRows); err != nil {
		t.Fatalf("failed to decode overtime rates: %v", err)
	}
	if len(rateRows) == 0 {
		t.Fatal("expected seeded overtime rates")
	}

	// Managers reach the HR salary surface; employees do not.
	getJSON(t, client, ts.URL+"/api/hr/salary/summary", managerToken)
	requestJSONStatus(t, client, http.MethodGet, ts.URL+"/api/hr/salary/summary", employeeToken, nil, http.StatusForbidden)

	// An adjustment shows up in the dashboard figures.
	requestJSONStatus(t, client, http.MethodPost, ts.URL+"/api/hr/salary/adjust", managerToken,
		map[string]any{"employeeId": employeeID, "amount": 12000, "reason": "raise"}, http.StatusCreated)

	overview := getJSON(t, client, ts.URL+"/api/hr/salary/employees?search="+employeeName, adminToken)
	var overviewRows []struct {
		CurrentSalary   float64 `json:"currentSalary"`
		StartingSalary  float64 `json:"startingSalary"`
		AdjustmentCount int     `json:"adjustmentCount"`
	}
	if err := json.Unmarshal(overview.Data, &overviewRows); err != nil {
		t.Fatalf("failed to decode employees overview: %v", err)
	}
	if len(overviewRows) != 1 {
		t.Fatalf("expected exactly one overview row for %s, got %d", employeeName, len(overviewRows))
	}
	if overviewRows[0].StartingSalary != 10000 || overviewRows[0].CurrentSalary != 12000 || overviewRows[0].AdjustmentCount != 1 {
		t.Fatalf("unexpected overview row: %+v", overviewRows[0])
	}

	companySummary := getJSON(t, client, ts.URL+"/api/hr/salary/summary", adminToken)
	var company struct {
		AdjustmentsThisMonth int `json:"adjustmentsThisMonth"`
	}
	if err := json.Unmarshal(companySummary.Data, &company); err != nil {
		t.Fatalf("failed to decode company summary: %v", err)
	}
	if company.AdjustmentsThisMonth < 1 {
		t.Fatalf("expected at least one adjustment this month, got %d", company.AdjustmentsThisMonth)
	}
}

func TestAnonymousRequestsRejected(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.DB.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	for _, path := range []string{"/api/profile", "/api/leave/history", "/api/notifications", "/api/salary/summary"} {
		requestJSONStatus(t, ts.Client(), http.MethodGet, ts.URL+path, "", nil, http.StatusUnauthorized)
	}
	requestJSONStatus(t, ts.Client(), http.MethodGet, ts.URL+"/api/profile", "not-a-token", nil, http.StatusUnauthorized)
}

func employeeIDFor(t *testing.T, app *server.App, userID string) string {
	t.Helper()
	var employeeID string
	if err := app.DB.QueryRow(context.Background(), `
    SELECT id FROM employees WHERE user_id = $1
  `, userID).Scan(&employeeID); err != nil {
		t.Fatalf("failed to resolve employee id: %v", err)
	}
	return employeeID
}

func createUser(t *testing.T, client *http.Client, baseURL, token, username, role, department string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/admin/users", token, map[string]any{
		"username":   username,
		"email":      username + "@test.local",
		"password":   "Password123!",
		"role":       role,
		"firstName":  "Test",
		"lastName":   username,
		"position":   "Staff",
		"department": department,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode user response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected user id")
	}
	return id
}

func login(t *testing.T, client *http.Client, baseURL, loginID, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/auth/login", "", map[string]any{
		"login":    loginID,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func requestJSONStatus(t *testing.T, client *http.Client, method, url, token string, body any, want int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
}
