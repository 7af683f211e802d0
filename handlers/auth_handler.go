package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"phone-console/models"
	"phone-console/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string        `json:"message"`
	Admin   *models.Admin `json:"admin"`
}

// Login exchanges credentials with the Admin Server, creates a console
// session and mirrors the bearer token into the durable credential record.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	result, err := h.Admin.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if services.IsAuthFailure(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": services.UpstreamMessage(err, "Invalid credentials"),
			})
		}
		slog.Error("Login failed", "username", req.Username, "error", err)
		return failUpstream(c, err, "Login failed. Please check your connection and try again.")
	}
	if result.Admin == nil || result.Token == "" {
		slog.Error("Login response missing token or admin", "username", req.Username)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Login failed. Please try again.",
		})
	}

	// Reuse a live session record when the browser already carries one, so
	// sidebar/theme preferences survive a logout/login cycle.
	var record *models.SessionRecord
	if sessionID := c.Cookies(services.SessionCookieName); sessionID != "" {
		if existing, err := h.Sessions.Get(c.Context(), sessionID); err == nil && existing != nil {
			record = existing
		}
	}

	if record != nil {
		authenticated := true
		change := models.SessionChange{Authenticated: &authenticated, Admin: result.Admin}
		if err := h.Sessions.Apply(c.Context(), record.SessionID, change); err != nil {
			slog.Error("Failed to update session", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create session",
			})
		}
		if err := h.Sessions.Extend(c.Context(), record.SessionID); err != nil {
			slog.Warn("Failed to extend session", "error", err)
		}
		record.State.Apply(change)
	} else {
		state := models.DefaultSession()
		state.Authenticated = true
		state.Admin = result.Admin

		var err error
		record, err = h.Sessions.Create(c.Context(), state, c.IP(), c.Get("User-Agent"))
		if err != nil {
			slog.Error("Failed to create session", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create session",
			})
		}
	}

	adminJSON, err := json.Marshal(result.Admin)
	if err != nil {
		slog.Error("Failed to serialize admin profile", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	cred := models.CredentialRecord{
		SessionID:      record.SessionID,
		Token:          result.Token,
		AdminJSON:      string(adminJSON),
		TokenExpiresAt: result.ExpiresAt,
		CreatedAt:      time.Now(),
	}
	if err := h.Credentials.Save(c.Context(), cred); err != nil {
		slog.Error("Failed to save credential record", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	ttl := h.Cfg.SessionTTL
	if ttl <= 0 {
		ttl = services.DefaultSessionTTL
	}
	c.Cookie(&fiber.Cookie{
		Name:     services.SessionCookieName,
		Value:    record.SessionID,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	h.Activity.Log(services.Auth{SessionID: record.SessionID, Token: result.Token},
		result.Admin, "login", map[string]any{
			"username": result.Admin.Username,
			"role":     result.Admin.Role,
		})

	slog.Info("Admin logged in", "username", result.Admin.Username, "role", result.Admin.Role)

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		Message: "Login successful",
		Admin:   result.Admin,
	})
}

// Logout purges the credential record and clears the session's auth state.
// The session record and cookie stay alive as the carrier of the sidebar and
// theme preferences. Idempotent; succeeds even without a valid session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID != "" {
		record, err := h.Sessions.Get(c.Context(), sessionID)
		if err == nil && record != nil && record.State.Admin != nil {
			token := ""
			if cred, err := h.Credentials.Get(c.Context(), sessionID); err == nil && cred != nil {
				token = cred.Token
			}
			h.Activity.Log(services.Auth{SessionID: sessionID, Token: token},
				record.State.Admin, "logout", map[string]any{
					"username": record.State.Admin.Username,
				})
		}
		if err := h.Credentials.Purge(c.Context(), sessionID); err != nil {
			slog.Error("Failed to purge credential record", "error", err)
		}
		if err := h.Sessions.ClearAuth(c.Context(), sessionID); err != nil {
			slog.Error("Failed to clear session auth", "error", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated admin's profile and session preferences.
func (h *Handler) Me(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("session_id").(string)
	record, err := h.Sessions.Get(c.Context(), sessionID)
	if err != nil || record == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	return c.JSON(fiber.Map{
		"admin":        record.State.Admin,
		"sidebar_show": record.State.SidebarShow,
		"theme":        record.State.Theme,
	})
}

// Check reports whether the request carries a live authenticated session.
// Unlike the gated routes it never returns 401, so the login page can probe
// without tripping redirects.
func (h *Handler) Check(c *fiber.Ctx) error {
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID == "" {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	record, err := h.Sessions.Get(c.Context(), sessionID)
	if err != nil || record == nil || !record.State.Authenticated {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"admin":         record.State.Admin,
	})
}

type PreferencesRequest struct {
	SidebarShow *bool         `json:"sidebar_show"`
	Theme       *models.Theme `json:"theme"`
}

// UpdatePreferences applies sidebar/theme changes to the session. These
// survive logout.
func (h *Handler) UpdatePreferences(c *fiber.Ctx) error {
	var req PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Theme != nil {
		switch *req.Theme {
		case models.ThemeLight, models.ThemeDark, models.ThemeAuto:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid theme",
			})
		}
	}

	sessionID, _ := c.Locals("session_id").(string)
	change := models.SessionChange{SidebarShow: req.SidebarShow, Theme: req.Theme}
	if err := h.Sessions.Apply(c.Context(), sessionID, change); err != nil {
		slog.Error("Failed to update preferences", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update preferences",
		})
	}
	return c.JSON(fiber.Map{"message": "Preferences updated"})
}
