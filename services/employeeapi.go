package services

import (
	"context"
	"net/url"

	"phone-console/models"
)

// EmployeeAPI wraps the Employee Server's REST surface: employees, phone
// numbers and the product catalog, keyed by company id / record UUID.
type EmployeeAPI struct {
	upstream *Upstream
}

func NewEmployeeAPI(upstream *Upstream) *EmployeeAPI {
	return &EmployeeAPI{upstream: upstream}
}

// ListEmployees fetches all employees of a company.
func (e *EmployeeAPI) ListEmployees(ctx context.Context, auth *Auth, companyID string) ([]models.Employee, error) {
	var result struct {
		Emps []models.Employee `json:"emps"`
	}
	path := "/internal/company/employee/list?id=" + url.QueryEscape(companyID)
	if err := e.upstream.Get(ctx, auth, path, &result); err != nil {
		return nil, err
	}
	return result.Emps, nil
}

// ListAllEmployees fetches every employee visible to the caller. Used by the
// dashboard's statistics load.
func (e *EmployeeAPI) ListAllEmployees(ctx context.Context, auth *Auth) ([]models.Employee, error) {
	var result struct {
		Emps []models.Employee `json:"emps"`
	}
	if err := e.upstream.Get(ctx, auth, "/user/employees", &result); err != nil {
		return nil, err
	}
	return result.Emps, nil
}

// CreateEmployee creates one employee. Name, contact and register number
// fields travel in the attribute bag.
func (e *EmployeeAPI) CreateEmployee(ctx context.Context, auth *Auth, companyID, createdBy string, input models.EmployeeInput) error {
	body := map[string]any{
		"company_id": companyID,
		"job_title":  input.JobTitle,
		"department": input.Department,
		"created_by": createdBy,
		"objects": []map[string]string{
			{"object_type": "phoneNumber1", "object_value": input.PhoneNumber},
			{"object_type": "firstname", "object_value": input.Firstname},
			{"object_type": "lastname", "object_value": input.Lastname},
			{"object_type": "registerNumber", "object_value": input.RegisterNumber},
			{"object_type": "email", "object_value": input.Email},
		},
	}
	return e.upstream.Post(ctx, auth, "/internal/company/employee", body, nil)
}

// UpdateEmployee updates the editable fields of an employee record.
func (e *EmployeeAPI) UpdateEmployee(ctx context.Context, auth *Auth, employeeUUID string, update models.EmployeeUpdate) error {
	return e.upstream.Put(ctx, auth, "/internal/company/employee/"+url.PathEscape(employeeUUID), update, nil)
}

// ListNumbers fetches all phone numbers of a company.
func (e *EmployeeAPI) ListNumbers(ctx context.Context, auth *Auth, companyID string) ([]models.PhoneNumber, error) {
	var result struct {
		Numbers []models.PhoneNumber `json:"numbers"`
	}
	path := "/internal/company/number/list?company_id=" + url.QueryEscape(companyID)
	if err := e.upstream.Get(ctx, auth, path, &result); err != nil {
		return nil, err
	}
	return result.Numbers, nil
}

// CreateNumber creates a phone number record.
func (e *EmployeeAPI) CreateNumber(ctx context.Context, auth *Auth, input models.NumberInput) error {
	return e.upstream.Post(ctx, auth, "/internal/company/employee/number", input, nil)
}

// UpdateNumber applies a partial update (assignment, payment or status) to a
// phone number. The Employee Server accepts any subset of fields.
func (e *EmployeeAPI) UpdateNumber(ctx context.Context, auth *Auth, numberUUID string, update map[string]any) error {
	return e.upstream.Put(ctx, auth, "/internal/company/employee/number/"+url.PathEscape(numberUUID), update, nil)
}

// DeleteNumber deletes a phone number record.
func (e *EmployeeAPI) DeleteNumber(ctx context.Context, auth *Auth, numberUUID, deletedBy string) error {
	body := map[string]string{"deleted_by": deletedBy}
	return e.upstream.Delete(ctx, auth, "/internal/company/employee/number/"+url.PathEscape(numberUUID), body, nil)
}

// ListProducts fetches the product catalog.
func (e *EmployeeAPI) ListProducts(ctx context.Context, auth *Auth) ([]models.Product, error) {
	var result struct {
		Products []models.Product `json:"products"`
	}
	if err := e.upstream.Get(ctx, auth, "/api/products", &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}
