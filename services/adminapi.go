package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"phone-console/models"
)

// AdminAPI wraps the Admin Server's REST surface: login, admin account CRUD,
// companies, audit log, activity sink.
type AdminAPI struct {
	upstream *Upstream
}

func NewAdminAPI(upstream *Upstream) *AdminAPI {
	return &AdminAPI{upstream: upstream}
}

// LoginResult is the Admin Server's login response.
type LoginResult struct {
	Token     string        `json:"token"`
	Admin     *models.Admin `json:"admin"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Login exchanges credentials for a token and admin profile. Sent without an
// Authorization header; this is the one unauthenticated call.
func (a *AdminAPI) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var result LoginResult
	if err := a.upstream.Post(ctx, nil, "/api/admin/login", body, &result); err != nil {
		return nil, err
	}
	if result.ExpiresAt.IsZero() {
		result.ExpiresAt = TokenExpiry(result.Token)
	}
	return &result, nil
}

// ListAdmins fetches the full admin account list.
func (a *AdminAPI) ListAdmins(ctx context.Context, auth *Auth) ([]models.Admin, error) {
	var result struct {
		Admins []models.Admin `json:"admins"`
	}
	if err := a.upstream.Get(ctx, auth, "/api/admin/users", &result); err != nil {
		return nil, err
	}
	return result.Admins, nil
}

// CreateAdminInput is the payload for creating an admin account.
type CreateAdminInput struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	Email     string      `json:"email,omitempty"`
	FullName  string      `json:"full_name,omitempty"`
	Role      models.Role `json:"role"`
	CompanyID string      `json:"company_id,omitempty"`
}

// CreateAdmin creates a new admin account.
func (a *AdminAPI) CreateAdmin(ctx context.Context, auth *Auth, input CreateAdminInput) (*models.Admin, error) {
	var result struct {
		Admin *models.Admin `json:"admin"`
	}
	if err := a.upstream.Post(ctx, auth, "/api/admin/users", input, &result); err != nil {
		return nil, err
	}
	return result.Admin, nil
}

// UpdateAdminStatus transitions an admin account between
// active/inactive/suspended.
func (a *AdminAPI) UpdateAdminStatus(ctx context.Context, auth *Auth, adminID int64, status models.AdminStatus) error {
	body := map[string]string{"status": string(status)}
	return a.upstream.Put(ctx, auth, fmt.Sprintf("/api/admin/users/%d/status", adminID), body, nil)
}

// DeleteAdmin deactivates an admin account.
func (a *AdminAPI) DeleteAdmin(ctx context.Context, auth *Auth, adminID int64) error {
	return a.upstream.Delete(ctx, auth, fmt.Sprintf("/api/admin/users/%d", adminID), nil, nil)
}

// CreateCompany creates a company via the generic attribute-bag endpoint.
func (a *AdminAPI) CreateCompany(ctx context.Context, auth *Auth, input models.CompanyInput) (*models.Company, error) {
	var result struct {
		Company *models.Company `json:"company"`
	}
	if err := a.upstream.Post(ctx, auth, "/api/admin/users/company", input, &result); err != nil {
		return nil, err
	}
	return result.Company, nil
}

// ListCompanies fetches all companies. System admins only; the server
// enforces this too.
func (a *AdminAPI) ListCompanies(ctx context.Context, auth *Auth) ([]models.Company, error) {
	var result struct {
		Companies []models.Company `json:"companies"`
	}
	if err := a.upstream.Get(ctx, auth, "/admin/companies", &result); err != nil {
		return nil, err
	}
	return result.Companies, nil
}

// AuditQuery narrows an audit log page fetch. Zero fields are omitted.
type AuditQuery struct {
	Page    int
	Limit   int
	AdminID string
	Action  string
	Type    string
}

// AuditLogs fetches one server-side page of the audit log. Scope is a company
// id or "system". The only server-paginated list in the console; totals come
// from the server and are trusted as-is.
func (a *AdminAPI) AuditLogs(ctx context.Context, auth *Auth, scope string, query AuditQuery) (*models.AuditPage, error) {
	params := url.Values{}
	if query.Page > 0 {
		params.Set("page", fmt.Sprint(query.Page))
	}
	if query.Limit > 0 {
		params.Set("limit", fmt.Sprint(query.Limit))
	}
	if query.AdminID != "" {
		params.Set("admin_id", query.AdminID)
	}
	if query.Action != "" {
		params.Set("action", query.Action)
	}
	if query.Type != "" {
		params.Set("type", query.Type)
	}

	path := "/api/audit/" + url.PathEscape(scope)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page models.AuditPage
	if err := a.upstream.Get(ctx, auth, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PostActivity delivers one audit envelope to the activity sink. Called only
// by the activity logger's drain goroutine.
func (a *AdminAPI) PostActivity(ctx context.Context, auth *Auth, event models.ActivityEvent) error {
	return a.upstream.Post(ctx, auth, "/api/admin/activity", event, nil)
}
