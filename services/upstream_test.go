package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthHeadersBearer(t *testing.T) {
	u := NewUpstream("http://localhost:5001", time.Second)
	headers := u.AuthHeaders("tok123")
	if headers["Authorization"] != "Bearer tok123" {
		t.Fatalf("got %q", headers["Authorization"])
	}
}

func TestAuthHeadersNoTokenNoFallback(t *testing.T) {
	u := NewUpstream("http://localhost:5001", time.Second)
	if headers := u.AuthHeaders(""); headers != nil {
		t.Fatalf("expected no headers without token or fallback, got %v", headers)
	}
}

func TestAuthHeadersDevFallback(t *testing.T) {
	u := NewUpstream("http://localhost:5001", time.Second)
	u.EnableDevFallback("dev", "secret")

	headers := u.AuthHeaders("")
	// base64("dev:secret")
	if headers["Authorization"] != "Basic ZGV2OnNlY3JldA==" {
		t.Fatalf("got %q", headers["Authorization"])
	}

	// A real token still wins over the fallback.
	headers = u.AuthHeaders("tok123")
	if headers["Authorization"] != "Bearer tok123" {
		t.Fatalf("token must take precedence, got %q", headers["Authorization"])
	}
}

func TestGetDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	u := NewUpstream(server.URL, time.Second)
	var out struct {
		Value string `json:"value"`
	}
	err := u.Get(context.Background(), &Auth{SessionID: "s1", Token: "tok123"}, "/thing", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Value != "ok" {
		t.Fatalf("decoded %q", out.Value)
	}
}

func TestUnreachableWrapsSentinel(t *testing.T) {
	u := NewUpstream("http://127.0.0.1:1", 200*time.Millisecond)
	err := u.Get(context.Background(), nil, "/thing", nil)
	if !errors.Is(err, ErrUpstreamUnreachable) {
		t.Fatalf("expected ErrUpstreamUnreachable, got %v", err)
	}
}

func TestErrorMessageSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"username taken"}`))
	}))
	defer server.Close()

	u := NewUpstream(server.URL, time.Second)
	err := u.Post(context.Background(), &Auth{Token: "t"}, "/thing", map[string]string{}, nil)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusBadRequest || ue.Message != "username taken" {
		t.Fatalf("got %+v", ue)
	}
	if got := UpstreamMessage(err, "fallback"); got != "username taken" {
		t.Fatalf("UpstreamMessage = %q", got)
	}
}

func TestAuthFailureFiresHookOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	var purged []string
	u := NewUpstream(server.URL, time.Second)
	u.OnAuthFailure(func(ctx context.Context, sessionID string) {
		purged = append(purged, sessionID)
	})

	err := u.Get(context.Background(), &Auth{SessionID: "s1", Token: "stale"}, "/thing", nil)
	if !IsAuthFailure(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if len(purged) != 1 || purged[0] != "s1" {
		t.Fatalf("hook calls = %v, want [s1]", purged)
	}
}

func TestForbiddenDoesNotFireHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"access denied"}`))
	}))
	defer server.Close()

	hookCalled := false
	u := NewUpstream(server.URL, time.Second)
	u.OnAuthFailure(func(ctx context.Context, sessionID string) {
		hookCalled = true
	})

	err := u.Get(context.Background(), &Auth{SessionID: "s1", Token: "t"}, "/thing", nil)
	if !IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if hookCalled {
		t.Fatalf("403 must not purge credentials")
	}
}

func TestLoginRequestCarriesNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unauthenticated call sent Authorization %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	u := NewUpstream(server.URL, time.Second)
	u.EnableDevFallback("dev", "secret")
	if err := u.Post(context.Background(), nil, "/login", map[string]string{}, nil); err != nil {
		t.Fatalf("post: %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	// Unverified claims read only; a structurally valid JWT with exp is enough.
	// {"alg":"none","typ":"JWT"}.{"exp":4102444800}
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJleHAiOjQxMDI0NDQ4MDB9."
	got := TokenExpiry(token)
	if got.IsZero() {
		t.Fatalf("expected expiry from token")
	}
	if got.Unix() != 4102444800 {
		t.Fatalf("expiry = %d, want 4102444800", got.Unix())
	}

	if !TokenExpiry("not-a-jwt").IsZero() {
		t.Fatalf("malformed token must yield zero time")
	}
}
