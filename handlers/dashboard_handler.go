package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"phone-console/models"
	"phone-console/services"
)

// GetAuditLogs serves the dashboard's audit table: a server-side paging
// passthrough plus an optional free-text search applied over the fetched page.
func (h *Handler) GetAuditLogs(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	query := services.AuditQuery{
		Page:    c.QueryInt("page", 1),
		Limit:   c.QueryInt("limit", 20),
		AdminID: c.Query("admin_id"),
		Action:  c.Query("action"),
		Type:    c.Query("type"),
	}

	var (
		page   *models.AuditPage
		admins []models.Admin
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		var err error
		page, err = h.Admin.AuditLogs(ctx, &auth, admin.AuditScope(), query)
		return err
	})
	g.Go(func() error {
		// Name lookup data for the table; the dashboard renders without it.
		list, err := h.Admin.ListAdmins(ctx, &auth)
		if err == nil {
			admins = list
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return failUpstream(c, err, "Unable to load audit logs. Please check your connection.")
	}

	logs := page.Logs
	if search := c.Query("search"); search != "" {
		logs = searchAuditLogs(logs, search)
	}

	return c.JSON(fiber.Map{
		"logs":       logs,
		"pagination": page.Pagination,
		"admins":     admins,
	})
}

// searchAuditLogs filters a fetched page by case-insensitive substring over
// action, type, ip address and the serialized details payload.
func searchAuditLogs(logs []models.AuditLog, search string) []models.AuditLog {
	needle := strings.ToLower(search)
	matched := make([]models.AuditLog, 0, len(logs))
	for _, log := range logs {
		if containsFold(log.Action, needle) ||
			containsFold(log.Type, needle) ||
			containsFold(log.IPAddress, needle) ||
			detailsContain(log.Details, needle) {
			matched = append(matched, log)
		}
	}
	return matched
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func detailsContain(details map[string]any, needle string) bool {
	if len(details) == 0 {
		return false
	}
	data, err := json.Marshal(details)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), needle)
}

// GetDashboardStats aggregates the dashboard counters. Every source is
// non-critical: an unreachable backend contributes zero, never a failure.
func (h *Handler) GetDashboardStats(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var (
		page      *models.AuditPage
		todayPage *models.AuditPage
		admins    []models.Admin
		employees []models.Employee
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		p, err := h.Admin.AuditLogs(ctx, &auth, admin.AuditScope(), services.AuditQuery{Page: 1, Limit: 1})
		if err == nil {
			page = p
		}
		return nil
	})
	g.Go(func() error {
		p, err := h.Admin.AuditLogs(ctx, &auth, admin.AuditScope(), services.AuditQuery{Page: 1, Limit: 100})
		if err == nil {
			todayPage = p
		}
		return nil
	})
	g.Go(func() error {
		list, err := h.Admin.ListAdmins(ctx, &auth)
		if err == nil {
			admins = list
		}
		return nil
	})
	g.Go(func() error {
		list, err := h.Employee.ListAllEmployees(ctx, &auth)
		if err == nil {
			employees = list
		}
		return nil
	})
	_ = g.Wait()

	totalLogs := 0
	if page != nil {
		totalLogs = page.Pagination.Total
	}

	todayLogs := 0
	if todayPage != nil {
		todayLogs = countLogsToday(todayPage.Logs, time.Now())
	}

	activeAdmins := 0
	for _, a := range admins {
		if a.Status == models.AdminActive || a.Status == "" {
			activeAdmins++
		}
	}

	return c.JSON(fiber.Map{
		"total_logs":      totalLogs,
		"today_logs":      todayLogs,
		"active_admins":   activeAdmins,
		"total_employees": len(employees),
	})
}

// countLogsToday counts entries stamped on the current calendar day, with the
// day boundary at local midnight.
func countLogsToday(logs []models.AuditLog, now time.Time) int {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	count := 0
	for _, log := range logs {
		if !log.Timestamp.Before(midnight) && log.Timestamp.Before(midnight.Add(24*time.Hour)) {
			count++
		}
	}
	return count
}
