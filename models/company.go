package models

import "time"

// CompanyObject is one attribute of a company in the Admin Server's generic
// attribute-bag shape.
type CompanyObject struct {
	ObjectType  string `json:"object_type"`
	ObjectValue string `json:"object_value"`
}

// Company is a company record as reported by the Admin Server.
type Company struct {
	ID             int64           `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name,omitempty"`
	RegisterNumber string          `json:"register_number,omitempty"`
	Email          string          `json:"email,omitempty"`
	Status         int             `json:"status"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
	Objects        []CompanyObject `json:"objects,omitempty"`
}

// CompanyInput is the payload for creating a company. Name, register number
// and email travel in the attribute bag.
type CompanyInput struct {
	TenantID  string          `json:"tenant_id"`
	CreatedBy string          `json:"created_by"`
	Status    int             `json:"status"`
	Objects   []CompanyObject `json:"objects"`
}

// NewCompanyInput builds the attribute-bag payload the Admin Server expects.
func NewCompanyInput(tenantID, name, registerNumber, email, createdBy string) CompanyInput {
	return CompanyInput{
		TenantID:  tenantID,
		CreatedBy: createdBy,
		Status:    1,
		Objects: []CompanyObject{
			{ObjectType: "name", ObjectValue: name},
			{ObjectType: "registerNumber", ObjectValue: registerNumber},
			{ObjectType: "email", ObjectValue: email},
		},
	}
}
