package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"phone-console/config"
	"phone-console/middleware"
	"phone-console/models"
	"phone-console/services"
)

// testConsole is a fully wired console backed by in-memory stores and fake
// upstream servers.
type testConsole struct {
	app         *fiber.App
	sessions    services.SessionStore
	credentials services.CredentialStore
	handler     *Handler
}

func newTestConsole(t *testing.T, adminSrv, employeeSrv http.Handler) *testConsole {
	t.Helper()

	adminServer := httptest.NewServer(adminSrv)
	t.Cleanup(adminServer.Close)
	employeeServer := httptest.NewServer(employeeSrv)
	t.Cleanup(employeeServer.Close)

	cfg := &config.Config{
		AdminServerURL:    adminServer.URL,
		EmployeeServerURL: employeeServer.URL,
		UpstreamTimeout:   2 * time.Second,
		SessionTTL:        time.Hour,
		ActivityBuffer:    16,
	}

	sessions := services.NewMemorySessionStore(cfg.SessionTTL)
	credentials := services.NewMemoryCredentialStore()

	adminAPI := services.NewAdminAPI(services.NewUpstream(cfg.AdminServerURL, cfg.UpstreamTimeout))
	employeeAPI := services.NewEmployeeAPI(services.NewUpstream(cfg.EmployeeServerURL, cfg.UpstreamTimeout))

	activity := services.NewActivityLogger(adminAPI, cfg.ActivityBuffer, nil)
	t.Cleanup(activity.Close)

	h := New(cfg, sessions, credentials, adminAPI, employeeAPI, activity, services.NewFeedHub())
	gate := middleware.NewAuthGate(sessions, credentials)

	app := fiber.New()
	app.Post("/auth/login", h.Login)
	app.Post("/auth/logout", h.Logout)
	app.Get("/auth/check", h.Check)

	admins := app.Group("/api/admins", gate.RequireAuth)
	admins.Get("/", h.GetAdmins)
	admins.Post("/", middleware.RequireRole(models.RoleSuperadmin, models.RoleSystemadmin), h.CreateAdmin)

	employees := app.Group("/api/employees", gate.RequireAuth)
	employees.Get("/", h.GetEmployees)
	employees.Post("/", h.CreateEmployee)

	numbers := app.Group("/api/numbers", gate.RequireAuth)
	numbers.Get("/", h.GetNumbers)

	return &testConsole{app: app, sessions: sessions, credentials: credentials, handler: h}
}

// loginAs plants an authenticated session and returns its cookie value.
func (tc *testConsole) loginAs(t *testing.T, admin models.Admin) string {
	t.Helper()

	state := models.DefaultSession()
	state.Authenticated = true
	state.Admin = &admin
	record, err := tc.sessions.Create(context.Background(), state, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	adminJSON, _ := json.Marshal(admin)
	err = tc.credentials.Save(context.Background(), models.CredentialRecord{
		SessionID:      record.SessionID,
		Token:          "test-token",
		AdminJSON:      string(adminJSON),
		TokenExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("save credential: %v", err)
	}
	return record.SessionID
}

func (tc *testConsole) get(t *testing.T, path, sessionID string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: sessionID})
	}
	resp, err := tc.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (tc *testConsole) postJSON(t *testing.T, path, sessionID string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: sessionID})
	}
	resp, err := tc.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decode body %q: %v", data, err)
		}
	}
	return out
}
