package handlers

import (
	"testing"
	"time"

	"phone-console/models"
)

func testAuditLogs() []models.AuditLog {
	return []models.AuditLog{
		{ID: 1, Action: "create_employee", Type: "employee", IPAddress: "10.0.0.1", Details: map[string]any{"email": "j.doe@acme.com"}, Timestamp: time.Now()},
		{ID: 2, Action: "login", Type: "auth", IPAddress: "10.0.0.2", Timestamp: time.Now()},
		{ID: 3, Action: "delete_phone_number", Type: "number", IPAddress: "192.168.1.5", Details: map[string]any{"number_uuid": "n1"}, Timestamp: time.Now()},
	}
}

func TestSearchAuditLogsByAction(t *testing.T) {
	got := searchAuditLogs(testAuditLogs(), "login")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("action search got %+v", got)
	}
}

func TestSearchAuditLogsByIP(t *testing.T) {
	got := searchAuditLogs(testAuditLogs(), "192.168")
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("ip search got %+v", got)
	}
}

func TestSearchAuditLogsByDetails(t *testing.T) {
	got := searchAuditLogs(testAuditLogs(), "j.doe@acme.com")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("details search got %+v", got)
	}
}

func TestSearchAuditLogsNoMatch(t *testing.T) {
	if got := searchAuditLogs(testAuditLogs(), "nothing-here"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestCountLogsTodayLocalMidnightBoundary(t *testing.T) {
	now := time.Date(2026, 8, 30, 1, 0, 0, 0, time.Local)
	logs := []models.AuditLog{
		{ID: 1, Timestamp: time.Date(2026, 8, 29, 23, 30, 0, 0, time.Local)},
		{ID: 2, Timestamp: time.Date(2026, 8, 30, 0, 0, 0, 0, time.Local)},
		{ID: 3, Timestamp: time.Date(2026, 8, 30, 0, 30, 0, 0, time.Local)},
		{ID: 4, Timestamp: time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)},
	}

	if got := countLogsToday(logs, now); got != 2 {
		t.Fatalf("countLogsToday = %d, want 2 (local midnight boundary)", got)
	}
}
