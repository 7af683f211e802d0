package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUpstreamUnreachable wraps connectivity failures: the request never got a
// response. Callers show a generic "check connection" message for these.
var ErrUpstreamUnreachable = errors.New("upstream unreachable")

// UpstreamError is a non-2xx response from an upstream server, carrying the
// server's own error message when it sent one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsAuthFailure reports whether the error is an upstream 401.
func IsAuthFailure(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether the error is an upstream 403.
func IsForbidden(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusForbidden
}

// UpstreamMessage extracts the server's error message, falling back to the
// given default for connectivity failures and unparseable bodies.
func UpstreamMessage(err error, fallback string) string {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

// Auth identifies the console session a request is made on behalf of, plus
// the upstream bearer token mirrored from its credential record.
type Auth struct {
	SessionID string
	Token     string
}

// Upstream is the authenticated request layer shared by every data-fetching
// and mutation flow. It attaches the bearer credential to each outbound call
// and funnels all authentication failures through a single hook.
type Upstream struct {
	base     string
	http     *http.Client
	fallback string
	onAuth   func(ctx context.Context, sessionID string)
}

func NewUpstream(base string, timeout time.Duration) *Upstream {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Upstream{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

// EnableDevFallback makes calls without a bearer token send a Basic
// credential instead. Development only; without it such calls carry no
// Authorization header and fail closed upstream.
func (u *Upstream) EnableDevFallback(user, pass string) {
	u.fallback = "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

// OnAuthFailure registers the hook run once per upstream 401. The console
// wires this to credential purge plus session invalidation, so the policy
// lives in one place instead of per view.
func (u *Upstream) OnAuthFailure(fn func(ctx context.Context, sessionID string)) {
	u.onAuth = fn
}

// AuthHeaders returns the Authorization header for the given token: a bearer
// credential when a token exists, the dev fallback when enabled, nothing
// otherwise.
func (u *Upstream) AuthHeaders(token string) map[string]string {
	if token != "" {
		return map[string]string{"Authorization": "Bearer " + token}
	}
	if u.fallback != "" {
		return map[string]string{"Authorization": u.fallback}
	}
	return nil
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (u *Upstream) Get(ctx context.Context, auth *Auth, path string, out any) error {
	return u.do(ctx, auth, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (u *Upstream) Post(ctx context.Context, auth *Auth, path string, body, out any) error {
	return u.do(ctx, auth, http.MethodPost, path, body, out)
}

// Put issues an authenticated PUT with a JSON body.
func (u *Upstream) Put(ctx context.Context, auth *Auth, path string, body, out any) error {
	return u.do(ctx, auth, http.MethodPut, path, body, out)
}

// Delete issues an authenticated DELETE. A body is allowed: the Employee
// Server expects deleted_by in delete payloads.
func (u *Upstream) Delete(ctx context.Context, auth *Auth, path string, body, out any) error {
	return u.do(ctx, auth, http.MethodDelete, path, body, out)
}

func (u *Upstream) do(ctx context.Context, auth *Auth, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.base+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		for k, v := range u.AuthHeaders(auth.Token) {
			req.Header.Set(k, v)
		}
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := decodeErrorMessage(respBody)
		if resp.StatusCode == http.StatusUnauthorized && auth != nil && u.onAuth != nil {
			u.onAuth(ctx, auth.SessionID)
		}
		slog.Error("Upstream request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", message,
		)
		return &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}
	return nil
}

// decodeErrorMessage pulls the error/message field out of an upstream error
// body, matching how every view reads err.response.data.
func decodeErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// TokenExpiry reads the exp claim of a bearer token without verifying the
// signature. The Admin Server owns token validity; the console only mirrors
// the expiry into the credential record. Returns zero time when the token
// carries no usable expiry.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
