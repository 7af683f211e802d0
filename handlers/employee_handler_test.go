package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"phone-console/models"
)

func testEmployees() []models.Employee {
	return []models.Employee{
		{UUID: "e1", Username: "j.doe", Firstname: "Jane", Lastname: "Doe", JobTitle: "Engineer", Department: "IT", Email: "j.doe@acme.com"},
		{UUID: "e2", Username: "alice", Firstname: "Alice", Lastname: "Smith", JobTitle: "Manager", Department: "Sales", Email: "alice@acme.com"},
		{UUID: "e3", Username: "bob", Firstname: "Bob", Lastname: "Jones", JobTitle: "Analyst", Department: "Finance", Email: "bob@acme.com"},
	}
}

func TestFilterEmployeesSearchDoe(t *testing.T) {
	filtered := filterEmployees(testEmployees(), "doe")
	if len(filtered) != 1 || filtered[0].Username != "j.doe" {
		t.Fatalf("search doe matched %+v, want exactly j.doe", filtered)
	}
}

func TestFilterEmployeesEmptySearch(t *testing.T) {
	employees := testEmployees()
	if got := filterEmployees(employees, ""); len(got) != len(employees) {
		t.Fatalf("empty search filtered rows: %d", len(got))
	}
}

func TestFilterEmployeesMatchesJobTitleAndDepartment(t *testing.T) {
	if got := filterEmployees(testEmployees(), "manager"); len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("job title search got %+v", got)
	}
	if got := filterEmployees(testEmployees(), "finance"); len(got) != 1 || got[0].Username != "bob" {
		t.Fatalf("department search got %+v", got)
	}
}

func TestValidateEmployeeInput(t *testing.T) {
	valid := models.EmployeeInput{
		JobTitle:       "Engineer",
		Department:     "IT",
		Firstname:      "Jane",
		Lastname:       "Doe",
		Email:          "j.doe@acme.com",
		PhoneNumber:    "+976 8811-2233",
		RegisterNumber: "REG-1001",
	}
	if errs := validateEmployeeInput(valid); len(errs) != 0 {
		t.Fatalf("valid input rejected: %v", errs)
	}

	bad := valid
	bad.JobTitle = "x"
	bad.Department = "Astronomy"
	bad.Firstname = "J3ne"
	bad.Email = "not-an-email"
	bad.PhoneNumber = "12345"
	bad.RegisterNumber = "ab"

	errs := validateEmployeeInput(bad)
	for _, field := range []string{"job_title", "department", "firstname", "email", "phoneNumber", "registerNumber"} {
		if errs[field] == "" {
			t.Errorf("field %s not flagged: %v", field, errs)
		}
	}
}

func TestValidateEmployeeInputCyrillicNames(t *testing.T) {
	input := models.EmployeeInput{
		JobTitle:       "Инженер",
		Department:     "IT",
		Firstname:      "Бат",
		Lastname:       "Дорж",
		Email:          "bat@acme.com",
		PhoneNumber:    "+97688112233",
		RegisterNumber: "REG-1001",
	}
	if errs := validateEmployeeInput(input); len(errs) != 0 {
		t.Fatalf("cyrillic names rejected: %v", errs)
	}
}

func fakeEmployeeServer(employees []models.Employee) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/company/employee/list", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"emps": employees})
	})
	return mux
}

func TestGetEmployeesSearch(t *testing.T) {
	tc := newTestConsole(t, fakeAdminServer(nil, nil), fakeEmployeeServer(testEmployees()))
	sessionID := tc.loginAs(t, models.Admin{ID: 1, Username: "j.doe", Role: models.RoleAdmin, CompanyID: "c1"})

	resp, body := tc.get(t, "/api/employees/?search=doe", sessionID)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	employees, _ := body["employees"].([]any)
	if len(employees) != 1 {
		t.Fatalf("got %d employees, want 1", len(employees))
	}
	first := employees[0].(map[string]any)
	if first["username"] != "j.doe" {
		t.Fatalf("matched %v, want j.doe", first["username"])
	}
}
