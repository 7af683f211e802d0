package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"phone-console/config"
	"phone-console/middleware"
	"phone-console/models"
	"phone-console/services"
)

// Handler carries the console's wired dependencies. One instance serves every
// route.
type Handler struct {
	Cfg         *config.Config
	Sessions    services.SessionStore
	Credentials services.CredentialStore
	Admin       *services.AdminAPI
	Employee    *services.EmployeeAPI
	Activity    *services.ActivityLogger
	Feed        *services.FeedHub
}

func New(cfg *config.Config, sessions services.SessionStore, credentials services.CredentialStore,
	admin *services.AdminAPI, employee *services.EmployeeAPI,
	activity *services.ActivityLogger, feed *services.FeedHub) *Handler {
	return &Handler{
		Cfg:         cfg,
		Sessions:    sessions,
		Credentials: credentials,
		Admin:       admin,
		Employee:    employee,
		Activity:    activity,
		Feed:        feed,
	}
}

// currentAdmin returns the gate-resolved admin for the request.
func currentAdmin(c *fiber.Ctx) *models.Admin {
	return middleware.CurrentAdmin(c)
}

// currentAuth returns the session/token pair for upstream calls.
func currentAuth(c *fiber.Ctx) services.Auth {
	return middleware.CurrentAuth(c)
}

// upstreamStatus maps an upstream call error to the status the console
// reports: connectivity failures become 502, upstream statuses pass through.
func upstreamStatus(err error) int {
	var ue *services.UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return fiber.StatusBadGateway
}

// failUpstream renders an upstream error as the console's JSON error shape.
func failUpstream(c *fiber.Ctx, err error, fallback string) error {
	return c.Status(upstreamStatus(err)).JSON(fiber.Map{
		"error": services.UpstreamMessage(err, fallback),
	})
}
