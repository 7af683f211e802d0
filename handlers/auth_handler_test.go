package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"phone-console/models"
	"phone-console/services"
)

func fakeLoginServer(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "j.doe" || req.Password != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok123",
			"admin": models.Admin{ID: 1, Username: "j.doe", Role: models.RoleAdmin, CompanyID: "c1"},
		})
	})
	mux.HandleFunc("/api/admin/activity", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func TestLoginCreatesSessionAndCredential(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())

	resp, body := tc.postJSON(t, "/auth/login", "", map[string]string{
		"username": "j.doe",
		"password": "secret123",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}

	var sessionID string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == services.SessionCookieName {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		t.Fatalf("no session cookie set")
	}

	record, err := tc.sessions.Get(context.Background(), sessionID)
	if err != nil || record == nil {
		t.Fatalf("session not stored: %v", err)
	}
	if !record.State.Authenticated || record.State.Admin == nil || record.State.Admin.Username != "j.doe" {
		t.Fatalf("session state = %+v", record.State)
	}

	cred, err := tc.credentials.Get(context.Background(), sessionID)
	if err != nil || cred == nil {
		t.Fatalf("credential not stored: %v", err)
	}
	if cred.Token != "tok123" {
		t.Fatalf("credential token = %q", cred.Token)
	}
}

func TestLogoutPreservesPreferences(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())
	sessionID := tc.loginAs(t, models.Admin{ID: 1, Username: "j.doe", Role: models.RoleAdmin, CompanyID: "c1"})

	hidden := false
	dark := models.ThemeDark
	err := tc.sessions.Apply(context.Background(), sessionID, models.SessionChange{
		SidebarShow: &hidden,
		Theme:       &dark,
	})
	if err != nil {
		t.Fatalf("apply prefs: %v", err)
	}

	resp, _ := tc.postJSON(t, "/auth/logout", sessionID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	record, err := tc.sessions.Get(context.Background(), sessionID)
	if err != nil || record == nil {
		t.Fatalf("session record must survive logout: %v", err)
	}
	if record.State.Authenticated || record.State.Admin != nil {
		t.Fatalf("auth state not cleared: %+v", record.State)
	}
	if record.State.SidebarShow != false || record.State.Theme != models.ThemeDark {
		t.Fatalf("preferences lost on logout: %+v", record.State)
	}

	cred, err := tc.credentials.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if cred != nil {
		t.Fatalf("credential record must be purged on logout")
	}
}

func TestLoginReusesSessionAndPreferences(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())
	sessionID := tc.loginAs(t, models.Admin{ID: 1, Username: "j.doe", Role: models.RoleAdmin, CompanyID: "c1"})

	hidden := false
	dark := models.ThemeDark
	tc.sessions.Apply(context.Background(), sessionID, models.SessionChange{
		SidebarShow: &hidden,
		Theme:       &dark,
	})

	resp, _ := tc.postJSON(t, "/auth/logout", sessionID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, _ = tc.postJSON(t, "/auth/login", sessionID, map[string]string{
		"username": "j.doe",
		"password": "secret123",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	record, err := tc.sessions.Get(context.Background(), sessionID)
	if err != nil || record == nil {
		t.Fatalf("session record gone after re-login: %v", err)
	}
	if !record.State.Authenticated || record.State.Admin == nil {
		t.Fatalf("re-login did not authenticate: %+v", record.State)
	}
	if record.State.SidebarShow != false || record.State.Theme != models.ThemeDark {
		t.Fatalf("preferences lost across logout/login: %+v", record.State)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())

	resp, body := tc.postJSON(t, "/auth/login", "", map[string]string{
		"username": "j.doe",
		"password": "wrong",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] != "Invalid credentials" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestLoginMissingFields(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())

	resp, _ := tc.postJSON(t, "/auth/login", "", map[string]string{"username": "j.doe"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCheckWithoutSession(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())

	resp, body := tc.get(t, "/auth/check", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["authenticated"] != false {
		t.Fatalf("authenticated = %v, want false", body["authenticated"])
	}
}

func TestCheckWithSession(t *testing.T) {
	tc := newTestConsole(t, fakeLoginServer(t), http.NewServeMux())
	sessionID := tc.loginAs(t, models.Admin{ID: 1, Username: "j.doe", Role: models.RoleAdmin, CompanyID: "c1"})

	resp, body := tc.get(t, "/auth/check", sessionID)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["authenticated"] != true {
		t.Fatalf("authenticated = %v, want true", body["authenticated"])
	}
}
