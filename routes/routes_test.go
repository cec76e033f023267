package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/overdue"
	"Gin_postgres_redis_tool_issuance/session"
	"Gin_postgres_redis_tool_issuance/store/memstore"
)

const (
	adminName = "Site Admin"
	adminPass = "s3cret"
)

type server struct {
	t     *testing.T
	app   *app.App
	store *memstore.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.SetLevel("disabled")

	cfg := app.Config{
		WebOrigin:         "http://localhost:3001",
		SessionTTL:        time.Hour,
		SweepInterval:     time.Hour,
		Location:          time.UTC,
		BootstrapUsername: adminName,
		BootstrapPassword: adminPass,
	}
	st := memstore.New()
	a := app.New(cfg, st, session.NewMemoryStore(cfg.SessionTTL))
	if err := app.BootstrapAdmin(context.Background(), cfg, st); err != nil {
		t.Fatalf("Failed to bootstrap admin: %v", err)
	}
	RegisterRoutes(a.Router, a)
	return &server{t: t, app: a, store: st}
}

func (s *server) do(method, path string, body any, ck *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("Failed to encode body: %v", err)
		}
	}
	return s.doRaw(method, path, buf.String(), ck)
}

func (s *server) doRaw(method, path, body string, ck *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *server) login(username, password string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/login", gin.H{"username": username, "password": password}, nil)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("Expected login to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == app.AppSessionCookie {
			return ck
		}
	}
	s.t.Fatal("Expected a session cookie")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// seed creates T1 with 5 units and attendant ama on the evening shift, and
// returns both sessions.
func (s *server) seed() (admin, ama *http.Cookie) {
	s.t.Helper()
	admin = s.login(adminName, adminPass)
	expectStatus(s.t, s.do(http.MethodPost, "/api/admin/tools", gin.H{"tool_code": "T1", "description": "Torque wrench", "quantity": 5}, admin), http.StatusCreated)
	expectStatus(s.t, s.do(http.MethodPost, "/api/admin/users", gin.H{"username": "ama", "password": "pw", "shift": "b", "shift_time": "Evening"}, admin), http.StatusCreated)
	return admin, s.login("ama", "pw")
}

func (s *server) available(code string) int {
	s.t.Helper()
	tool, err := s.store.GetTool(context.Background(), code)
	if err != nil {
		s.t.Fatalf("Failed to load %s: %v", code, err)
	}
	return tool.AvailableQuantity
}

func issueBody(qty int) gin.H {
	return gin.H{
		"date": "2024-01-10", "tool_code": "T1", "quantity": qty,
		"issued_to_name": "Kwame Mensah", "department": "Maintenance", "time_out": "19:05",
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	expectStatus(t, s.do(http.MethodGet, "/healthz", nil, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/metrics", nil, nil), http.StatusOK)
}

func TestAuth(t *testing.T) {
	s := newServer(t)

	expectStatus(t, s.do(http.MethodGet, "/api/user", nil, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/login", gin.H{"username": adminName, "password": "wrong"}, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/login", gin.H{"username": "nobody", "password": "x"}, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodPost, "/login", gin.H{"username": adminName}, nil), http.StatusBadRequest)

	ck := s.login(adminName, adminPass)
	rec := s.do(http.MethodGet, "/api/user", nil, ck)
	expectStatus(t, rec, http.StatusOK)
	me := decode[struct {
		User map[string]any `json:"user"`
	}](t, rec)
	if me.User["username"] != adminName || me.User["role"] != models.RoleAdmin {
		t.Errorf("Expected the admin, got %v", me.User)
	}
	if _, leaked := me.User["password"]; leaked {
		t.Error("Expected the password hash to stay out of responses")
	}

	expectStatus(t, s.do(http.MethodPost, "/logout", nil, ck), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/user", nil, ck), http.StatusUnauthorized)
}

func TestAdminRoutesRejectAttendants(t *testing.T) {
	s := newServer(t)
	_, ama := s.seed()

	for _, path := range []string{"/api/admin/users", "/api/admin/tools", "/api/admin/statistics", "/api/reports/10-day", "/api/reports/monthly"} {
		if rec := s.do(http.MethodGet, path, nil, ama); rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", path, rec.Code)
		}
	}
	expectStatus(t, s.do(http.MethodPut, "/api/tool-issuances/1/clear-overdue", nil, ama), http.StatusForbidden)
}

func TestIssueAndReturn(t *testing.T) {
	s := newServer(t)
	admin, ama := s.seed()

	rec := s.do(http.MethodGet, "/api/tools", nil, ama)
	expectStatus(t, rec, http.StatusOK)
	if tools := decode[[]models.Tool](t, rec); len(tools) != 1 || tools[0].Code != "T1" {
		t.Fatalf("Expected T1 to be available, got %+v", tools)
	}

	rec = s.do(http.MethodPost, "/api/tool-issuances", issueBody(2), ama)
	expectStatus(t, rec, http.StatusCreated)
	issued := decode[struct {
		ID       int64           `json:"id"`
		Issuance models.Issuance `json:"issuance"`
	}](t, rec)
	if issued.Issuance.AttendantName != "ama" || issued.Issuance.AttendantShift != "B" {
		t.Errorf("Expected ama on shift B, got %s/%s", issued.Issuance.AttendantName, issued.Issuance.AttendantShift)
	}
	wantEnd := time.Date(2024, 1, 11, 6, 30, 0, 0, time.UTC)
	if !issued.Issuance.ShiftEndTime.Equal(wantEnd) {
		t.Errorf("Expected evening shift to end %v, got %v", wantEnd, issued.Issuance.ShiftEndTime)
	}
	if got := s.available("T1"); got != 3 {
		t.Errorf("Expected available 3, got %d", got)
	}

	id := strconv.FormatInt(issued.ID, 10)
	returnPath := "/api/tool-issuances/" + id + "/return"

	expectStatus(t, s.do(http.MethodPut, returnPath, gin.H{"time_in": "25:99", "condition_returned": "Good"}, ama), http.StatusBadRequest)
	expectStatus(t, s.doRaw(http.MethodPut, returnPath, `{"condition_returned":`, ama), http.StatusBadRequest)

	rec = s.do(http.MethodPut, returnPath, gin.H{"condition_returned": "Good"}, ama)
	expectStatus(t, rec, http.StatusOK)
	returned := decode[struct {
		Issuance models.Issuance `json:"issuance"`
	}](t, rec)
	if returned.Issuance.Status != models.StatusReturned || returned.Issuance.TimeIn != nil {
		t.Errorf("Expected returned without time_in, got %s %v", returned.Issuance.Status, returned.Issuance.TimeIn)
	}
	if got := s.available("T1"); got != 5 {
		t.Errorf("Expected available 5, got %d", got)
	}

	expectStatus(t, s.do(http.MethodPut, returnPath, gin.H{"time_in": "05:10", "condition_returned": "Good"}, ama), http.StatusConflict)
	expectStatus(t, s.do(http.MethodPut, "/api/tool-issuances/999/return", gin.H{"time_in": "05:10", "condition_returned": "Good"}, ama), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodPut, "/api/tool-issuances/abc/return", gin.H{}, ama), http.StatusBadRequest)

	rec = s.do(http.MethodPut, "/api/tool-issuances/"+id+"/clear-overdue", nil, admin)
	expectStatus(t, rec, http.StatusOK)
	cleared := decode[struct {
		Issuance models.Issuance `json:"issuance"`
	}](t, rec)
	if cleared.Issuance.Status != models.StatusClearedOverdue {
		t.Errorf("Expected cleared_overdue, got %s", cleared.Issuance.Status)
	}
}

func TestIssueValidation(t *testing.T) {
	s := newServer(t)
	_, ama := s.seed()

	rec := s.do(http.MethodPost, "/api/tool-issuances", gin.H{"tool_code": "T1", "quantity": 0}, ama)
	expectStatus(t, rec, http.StatusBadRequest)
	body := decode[struct {
		Missing []string `json:"missing"`
	}](t, rec)
	if len(body.Missing) != 5 {
		t.Errorf("Expected 5 missing fields, got %v", body.Missing)
	}

	req := issueBody(1)
	req["tool_code"] = "NOPE"
	expectStatus(t, s.do(http.MethodPost, "/api/tool-issuances", req, ama), http.StatusNotFound)

	if got := s.available("T1"); got != 5 {
		t.Errorf("Expected stock untouched, got %d", got)
	}
}

func TestLostAndOverdue(t *testing.T) {
	s := newServer(t)
	admin, ama := s.seed()

	first := decode[struct {
		ID int64 `json:"id"`
	}](t, s.do(http.MethodPost, "/api/tool-issuances", issueBody(1), ama))
	second := decode[struct {
		ID int64 `json:"id"`
	}](t, s.do(http.MethodPost, "/api/tool-issuances", issueBody(1), ama))

	// 2024-01-10 shifts are long over.
	n, err := overdue.NewScanner(s.store).Sweep(context.Background(), time.Now())
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 flagged, got %d %v", n, err)
	}

	rec := s.do(http.MethodGet, "/api/overdue-tools/count", nil, ama)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int](t, rec)["count"]; got != 2 {
		t.Errorf("Expected 2 overdue, got %d", got)
	}

	rec = s.do(http.MethodPut, "/api/tool-issuances/"+strconv.FormatInt(first.ID, 10)+"/lost", gin.H{"comments": "left on site"}, ama)
	expectStatus(t, rec, http.StatusOK)
	lost := decode[struct {
		Issuance models.Issuance `json:"issuance"`
	}](t, rec)
	if lost.Issuance.Status != models.StatusLost || !lost.Issuance.IsOverdue {
		t.Errorf("Expected lost with the overdue flag kept, got %s overdue=%v", lost.Issuance.Status, lost.Issuance.IsOverdue)
	}

	expectStatus(t, s.do(http.MethodPut, "/api/tool-issuances/"+strconv.FormatInt(second.ID, 10)+"/clear-overdue", nil, admin), http.StatusOK)

	rec = s.do(http.MethodGet, "/api/overdue-tools", nil, admin)
	expectStatus(t, rec, http.StatusOK)
	rows := decode[[]map[string]any](t, rec)
	if len(rows) != 1 || rows[0]["status"] != string(models.StatusLost) {
		t.Fatalf("Expected only the lost record, got %v", rows)
	}
	if _, ok := rows[0]["hours_overdue"]; !ok {
		t.Error("Expected hours_overdue in the listing")
	}

	rec = s.do(http.MethodGet, "/api/admin/statistics", nil, admin)
	expectStatus(t, rec, http.StatusOK)
	stats := decode[map[string]int](t, rec)
	if stats["totalTools"] != 1 || stats["totalAttendants"] != 1 || stats["issuedTools"] != 0 || stats["overdueTools"] != 2 {
		t.Errorf("Unexpected statistics %v", stats)
	}
}

func TestMarkLostBody(t *testing.T) {
	s := newServer(t)
	_, ama := s.seed()

	issued := decode[struct {
		ID int64 `json:"id"`
	}](t, s.do(http.MethodPost, "/api/tool-issuances", issueBody(1), ama))
	lostPath := "/api/tool-issuances/" + strconv.FormatInt(issued.ID, 10) + "/lost"

	expectStatus(t, s.doRaw(http.MethodPut, lostPath, `{"comments": 7`, ama), http.StatusBadRequest)
	if got := s.available("T1"); got != 4 {
		t.Errorf("Expected stock untouched by a rejected body, got %d", got)
	}

	rec := s.doRaw(http.MethodPut, lostPath, "", ama)
	expectStatus(t, rec, http.StatusOK)
	lost := decode[struct {
		Issuance models.Issuance `json:"issuance"`
	}](t, rec)
	if lost.Issuance.Status != models.StatusLost {
		t.Errorf("Expected lost, got %s", lost.Issuance.Status)
	}
}

func TestExportIsScopedToAttendant(t *testing.T) {
	s := newServer(t)
	admin, ama := s.seed()
	expectStatus(t, s.do(http.MethodPost, "/api/admin/users", gin.H{"username": "kofi", "password": "pw", "shift": "A", "shift_time": "morning"}, admin), http.StatusCreated)
	kofi := s.login("kofi", "pw")

	expectStatus(t, s.do(http.MethodPost, "/api/tool-issuances", issueBody(1), ama), http.StatusCreated)
	later := issueBody(1)
	later["date"] = "2024-01-12"
	expectStatus(t, s.do(http.MethodPost, "/api/tool-issuances", later, kofi), http.StatusCreated)

	tests := []struct {
		name string
		ck   *http.Cookie
		path string
		want int
	}{
		{"admin_all", admin, "/api/export/issuances", 2},
		{"admin_range", admin, "/api/export/issuances?startDate=2024-01-11&endDate=2024-01-31", 1},
		{"admin_shift", admin, "/api/export/issuances?shift=B", 1},
		{"attendant_own", kofi, "/api/export/issuances", 1},
		{"attendant_other_shift", kofi, "/api/export/issuances?shift=B", 0},
		{"list_own", ama, "/api/tool-issuances", 1},
		{"list_admin", admin, "/api/tool-issuances", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, nil, tt.ck)
			expectStatus(t, rec, http.StatusOK)
			if rows := decode[[]models.Issuance](t, rec); len(rows) != tt.want {
				t.Errorf("Expected %d rows, got %d", tt.want, len(rows))
			}
		})
	}
}

func TestAttendantSummary(t *testing.T) {
	s := newServer(t)
	admin, ama := s.seed()

	today := issueBody(1)
	today["date"] = time.Now().UTC().Format(models.DateLayout)
	expectStatus(t, s.do(http.MethodPost, "/api/tool-issuances", today, ama), http.StatusCreated)
	expectStatus(t, s.do(http.MethodPost, "/api/tool-issuances", issueBody(1), ama), http.StatusCreated)

	rec := s.do(http.MethodGet, "/api/attendant/summary", nil, ama)
	expectStatus(t, rec, http.StatusOK)
	sum := decode[map[string]any](t, rec)
	if sum["issuedToday"] != float64(1) || sum["pendingReturns"] != float64(2) {
		t.Errorf("Unexpected summary %v", sum)
	}

	rec = s.do(http.MethodGet, "/api/attendant/summary?attendant=ama", nil, admin)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["attendant"]; got != "ama" {
		t.Errorf("Expected admin to read ama's summary, got %v", got)
	}
}

func TestToolAdministration(t *testing.T) {
	s := newServer(t)
	admin, _ := s.seed()

	expectStatus(t, s.do(http.MethodPost, "/api/admin/tools", gin.H{"tool_code": "T1", "description": "dup", "quantity": 1}, admin), http.StatusConflict)
	expectStatus(t, s.do(http.MethodPost, "/api/admin/tools", gin.H{"tool_code": "T9", "description": "no qty"}, admin), http.StatusBadRequest)

	tool, _ := s.store.GetTool(context.Background(), "T1")
	path := "/api/admin/tools/" + strconv.FormatUint(uint64(tool.ID), 10)
	expectStatus(t, s.do(http.MethodPut, path, gin.H{"description": "Torque wrench 3/8", "quantity": 7}, admin), http.StatusOK)
	updated, _ := s.store.GetTool(context.Background(), "T1")
	if updated.Quantity != 7 || updated.AvailableQuantity != 5 || updated.Description != "Torque wrench 3/8" {
		t.Errorf("Expected quantity 7 with available untouched at 5, got %+v", updated)
	}
	expectStatus(t, s.do(http.MethodPut, "/api/admin/tools/999", gin.H{"quantity": 1}, admin), http.StatusNotFound)

	rec := s.do(http.MethodPost, "/api/admin/import-tools", gin.H{"tools": []gin.H{
		{"tool_code": "T1", "description": "Torque wrench", "quantity": 4},
		{"tool_code": "T2", "description": "Drill", "quantity": 2},
		{"tool_code": "", "description": "Broken row", "quantity": 1},
	}}, admin)
	expectStatus(t, rec, http.StatusOK)
	res := decode[struct {
		Imported int      `json:"imported"`
		Errors   []string `json:"errors"`
	}](t, rec)
	if res.Imported != 2 || len(res.Errors) != 1 {
		t.Errorf("Expected 2 imported and 1 error, got %+v", res)
	}
	if got := s.available("T1"); got != 4 {
		t.Errorf("Expected import to reset available to 4, got %d", got)
	}
}

func TestUserAdministration(t *testing.T) {
	s := newServer(t)
	admin, ama := s.seed()

	expectStatus(t, s.do(http.MethodPost, "/api/admin/users", gin.H{"username": "ama", "password": "x"}, admin), http.StatusConflict)
	expectStatus(t, s.do(http.MethodPost, "/api/admin/users", gin.H{"username": "esi", "password": "x", "shift_time": "night"}, admin), http.StatusBadRequest)

	rec := s.do(http.MethodGet, "/api/admin/users", nil, admin)
	expectStatus(t, rec, http.StatusOK)
	users := decode[[]models.User](t, rec)
	if len(users) != 1 || users[0].Username != "ama" || users[0].ShiftTime != "evening" {
		t.Fatalf("Expected only attendant ama, got %+v", users)
	}

	adminUser, _ := s.store.GetUser(context.Background(), adminName)
	expectStatus(t, s.do(http.MethodDelete, "/api/admin/users/"+strconv.FormatUint(uint64(adminUser.ID), 10), nil, admin), http.StatusBadRequest)

	path := "/api/admin/users/" + strconv.FormatUint(uint64(users[0].ID), 10)
	expectStatus(t, s.do(http.MethodDelete, path, nil, admin), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/user", nil, ama), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodDelete, path, nil, admin), http.StatusNotFound)
}
