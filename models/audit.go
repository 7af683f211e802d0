package models

import "time"

// ActivityEvent is the audit envelope posted to the Admin Server's activity
// sink. The envelope fields are stamped and checked centrally by the activity
// logger; Details stays an open field, each call site shapes its own payload.
type ActivityEvent struct {
	ID        string         `json:"id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
	User      string         `json:"user"`
	CompanyID string         `json:"company_id,omitempty"`
}

// AuditLog is one audit trail entry as reported by the Admin Server.
type AuditLog struct {
	ID        int64          `json:"id"`
	AdminID   int64          `json:"admin_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Type      string         `json:"type,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	CompanyID string         `json:"company_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// AuditPagination is the server-reported paging envelope of the audit log.
// The console trusts these totals; list screens elsewhere paginate in memory.
type AuditPagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// AuditPage is one fetched page of the audit log.
type AuditPage struct {
	Logs       []AuditLog      `json:"logs"`
	Pagination AuditPagination `json:"pagination"`
}
