package models

import "time"

// EmployeeStatus values used by the Employee Server
const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

// Departments is the fixed department list offered by the employee form.
var Departments = []string{
	"Operations",
	"Sales",
	"Marketing",
	"IT",
	"HR",
	"Finance",
	"Customer Service",
	"Warehouse",
	"Management",
}

// IsValidDepartment checks a department against the fixed list.
func IsValidDepartment(department string) bool {
	for _, d := range Departments {
		if d == department {
			return true
		}
	}
	return false
}

// Employee is an employee record as reported by the Employee Server.
type Employee struct {
	UUID        string    `json:"uuid"`
	Username    string    `json:"username,omitempty"`
	Firstname   string    `json:"firstname,omitempty"`
	Lastname    string    `json:"lastname,omitempty"`
	FullName    string    `json:"fullName,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	JobTitle    string    `json:"job_title,omitempty"`
	Department  string    `json:"department,omitempty"`
	Status      string    `json:"status,omitempty"`
	CompanyID   string    `json:"company_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// DisplayName returns the employee's full name, falling back to the
// first/last pair.
func (e *Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Firstname + " " + e.Lastname
}

// EmployeeInput is one employee to create, either from the single form or one
// row of a bulk spreadsheet.
type EmployeeInput struct {
	JobTitle       string `json:"job_title"`
	Department     string `json:"department"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	RegisterNumber string `json:"registerNumber"`
}

// EmployeeUpdate is the editable subset of an employee record.
type EmployeeUpdate struct {
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	Status     string `json:"status"`
	UpdatedBy  string `json:"updated_by"`
}

// BulkRowError records one failed row of a bulk import.
type BulkRowError struct {
	Row   int           `json:"row"`
	Error string        `json:"error"`
	Data  EmployeeInput `json:"data"`
}

// BulkResult is the final tally of a bulk import.
type BulkResult struct {
	Total   int            `json:"total"`
	Success int            `json:"success"`
	Failed  int            `json:"failed"`
	Errors  []BulkRowError `json:"errors"`
}
