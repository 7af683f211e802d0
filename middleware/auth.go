package middleware

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"phone-console/models"
	"phone-console/services"
)

// AuthGate guards console routes. It resolves the session cookie against the
// session store and, when the in-memory state lost its authentication (console
// restart, expired snapshot), restores it once from the durable credential
// record before deciding.
type AuthGate struct {
	Sessions    services.SessionStore
	Credentials services.CredentialStore
}

func NewAuthGate(sessions services.SessionStore, credentials services.CredentialStore) *AuthGate {
	return &AuthGate{Sessions: sessions, Credentials: credentials}
}

// resolved is the outcome of one gate check: the live session record plus the
// bearer token for upstream calls.
type resolved struct {
	record *models.SessionRecord
	token  string
}

// resolve loads the session for the request cookie and reconciles it with the
// durable credential record. Returns nil when the request is unauthenticated.
func (g *AuthGate) resolve(c *fiber.Ctx) *resolved {
	sessionID := c.Cookies(services.SessionCookieName)
	if sessionID == "" {
		return nil
	}

	record, err := g.Sessions.Get(c.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load session", "error", err)
		return nil
	}
	if record == nil {
		return nil
	}

	cred, err := g.Credentials.Get(c.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load credential record", "error", err)
		cred = nil
	}

	if !record.State.Authenticated {
		// One-shot restore from the durable record.
		if cred == nil {
			return nil
		}
		if !cred.TokenExpiresAt.IsZero() && time.Now().After(cred.TokenExpiresAt) {
			return nil
		}

		var admin models.Admin
		if err := json.Unmarshal([]byte(cred.AdminJSON), &admin); err != nil || admin.Username == "" {
			// Corrupt record: purge it rather than restore a broken identity.
			slog.Warn("Purging corrupt credential record", "sessionID", sessionID, "error", err)
			if purgeErr := g.Credentials.Purge(c.Context(), sessionID); purgeErr != nil {
				slog.Error("Failed to purge credential record", "error", purgeErr)
			}
			return nil
		}

		authenticated := true
		change := models.SessionChange{Authenticated: &authenticated, Admin: &admin}
		if err := g.Sessions.Apply(c.Context(), sessionID, change); err != nil {
			slog.Error("Failed to restore session auth", "error", err)
			return nil
		}
		record.State.Apply(change)
		slog.Info("Session restored from credential record", "username", admin.Username)
	}

	if record.State.Admin == nil {
		// Authenticated without an identity should never happen; treat as
		// unauthenticated and clean up.
		if err := g.Sessions.ClearAuth(c.Context(), sessionID); err != nil {
			slog.Error("Failed to clear inconsistent session", "error", err)
		}
		return nil
	}

	if err := g.Sessions.Extend(c.Context(), sessionID); err != nil {
		slog.Warn("Failed to extend session", "error", err)
	}

	res := &resolved{record: record}
	if cred != nil {
		res.token = cred.Token
	}
	return res
}

// stash places the resolved identity in request locals for handlers.
func stash(c *fiber.Ctx, res *resolved) {
	admin := res.record.State.Admin
	c.Locals("session_id", res.record.SessionID)
	c.Locals("admin", admin)
	c.Locals("username", admin.Username)
	c.Locals("role", admin.Role)
	c.Locals("company_id", admin.CompanyID)
	c.Locals("token", res.token)
}

// RequireAuth guards API routes. Unauthenticated requests get 401 JSON.
func (g *AuthGate) RequireAuth(c *fiber.Ctx) error {
	res := g.resolve(c)
	if res == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	stash(c, res)
	return c.Next()
}

// RequirePage guards browser page routes. Unauthenticated requests are
// redirected to the login page, carrying the original path so login can
// return them there.
func (g *AuthGate) RequirePage(c *fiber.Ctx) error {
	res := g.resolve(c)
	if res == nil {
		target := "/login"
		if from := c.OriginalURL(); from != "" && from != "/login" {
			target += "?from=" + url.QueryEscape(from)
		}
		return c.Redirect(target, fiber.StatusFound)
	}
	stash(c, res)
	return c.Next()
}

// RequireRole guards a route already behind RequireAuth to the given roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(models.Role)
		if !ok || !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// CurrentAdmin returns the resolved admin, or nil outside the gate.
func CurrentAdmin(c *fiber.Ctx) *models.Admin {
	admin, _ := c.Locals("admin").(*models.Admin)
	return admin
}

// CurrentAuth returns the session/token pair for upstream calls.
func CurrentAuth(c *fiber.Ctx) services.Auth {
	sessionID, _ := c.Locals("session_id").(string)
	token, _ := c.Locals("token").(string)
	return services.Auth{SessionID: sessionID, Token: token}
}
