package models

import "time"

// Phone number statuses used by the Employee Server
const (
	NumberActive     = "active"
	NumberUnassigned = "unassigned"
	NumberSuspended  = "suspended"
)

// Payment statuses used by the Employee Server
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
	PaymentOverdue = "overdue"
)

// PhoneNumber is a phone number record as reported by the Employee Server.
type PhoneNumber struct {
	UUID                 string    `json:"uuid"`
	PhoneNumber          string    `json:"phone_number"`
	ProductCode          string    `json:"product_code,omitempty"`
	Status               string    `json:"status,omitempty"`
	PaymentStatus        string    `json:"payment_status,omitempty"`
	PaymentAmount        float64   `json:"payment_amount,omitempty"`
	AssignedEmployeeID   string    `json:"assigned_employee_id,omitempty"`
	AssignedEmployeeName string    `json:"assigned_employee_name,omitempty"`
	CompanyID            string    `json:"company_id,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	CreatedBy            string    `json:"created_by,omitempty"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

// NumberInput is the payload for creating a phone number.
type NumberInput struct {
	PhoneNumber        string `json:"phone_number"`
	CreatedBy          string `json:"created_by"`
	ProductCode        string `json:"product_code"`
	AssignedEmployeeID string `json:"assigned_employee_id,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// Product is an entry of the Employee Server's product catalog.
type Product struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	MonthlyFee  float64 `json:"monthly_fee"`
	Description string  `json:"description,omitempty"`
}
