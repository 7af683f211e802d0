package handlers

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"phone-console/models"
	"phone-console/services"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-ZА-Яа-яЁёӨөҮү\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9\s\-\(\)]{8,}$`)
)

// validateEmployeeInput checks one employee payload, either from the single
// form or one decoded spreadsheet row. Returns a field -> message map.
func validateEmployeeInput(input models.EmployeeInput) map[string]string {
	errs := map[string]string{}

	if len(strings.TrimSpace(input.JobTitle)) < 2 {
		errs["job_title"] = "Job title must be at least 2 characters"
	}
	if !models.IsValidDepartment(input.Department) {
		errs["department"] = "Please select a valid department"
	}
	if len(strings.TrimSpace(input.Firstname)) < 2 || !nameRe.MatchString(input.Firstname) {
		errs["firstname"] = "First name must be at least 2 letters"
	}
	if len(strings.TrimSpace(input.Lastname)) < 2 || !nameRe.MatchString(input.Lastname) {
		errs["lastname"] = "Last name must be at least 2 letters"
	}
	if input.Email == "" || !emailRe.MatchString(input.Email) {
		errs["email"] = "Invalid email format"
	}
	if !phoneRe.MatchString(input.PhoneNumber) {
		errs["phoneNumber"] = "Invalid phone number format"
	}
	if len(strings.TrimSpace(input.RegisterNumber)) < 4 {
		errs["registerNumber"] = "Register number must be at least 4 characters"
	}

	return errs
}

// CreateEmployee validates and creates one employee for the caller's company.
func (h *Handler) CreateEmployee(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var input models.EmployeeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if errs := validateEmployeeInput(input); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	if err := h.Employee.CreateEmployee(c.Context(), &auth, admin.CompanyID, admin.Username, input); err != nil {
		h.Activity.Log(auth, admin, "create_employee_failed", map[string]any{
			"email": input.Email,
			"error": services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to create employee")
	}

	h.Activity.Log(auth, admin, "create_employee", map[string]any{
		"firstname":  input.Firstname,
		"lastname":   input.Lastname,
		"email":      input.Email,
		"department": input.Department,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Employee created successfully",
	})
}

// BulkCreateEmployees imports employees from an uploaded spreadsheet. Rows are
// submitted one at a time; each failed row is tallied, never rolled back.
func (h *Handler) BulkCreateEmployees(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error("Failed to open uploaded file", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	rows, err := services.DecodeEmployeeSheet(fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.Activity.Log(auth, admin, "bulk_employee_upload", map[string]any{
		"filename": fileHeader.Filename,
		"rows":     len(rows),
	})

	importer := services.BulkImporter{API: h.Employee}
	result := importer.Run(c.Context(), &auth, admin.CompanyID, admin.Username, rows)

	h.Activity.Log(auth, admin, "bulk_employee_complete", map[string]any{
		"total":   result.Total,
		"success": result.Success,
		"failed":  result.Failed,
	})

	return c.JSON(result)
}

// DownloadBulkTemplate serves the spreadsheet template for bulk imports.
func (h *Handler) DownloadBulkTemplate(c *fiber.Ctx) error {
	f, err := services.BuildEmployeeTemplate()
	if err != nil {
		slog.Error("Failed to build template", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build template",
		})
	}
	defer f.Close()

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="employee_template.xlsx"`)
	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("Failed to serialize template", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build template",
		})
	}
	return c.Send(buf.Bytes())
}

// GetEmployees serves the caller's company employee list with in-memory
// search.
func (h *Handler) GetEmployees(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	employees, err := h.Employee.ListEmployees(c.Context(), &auth, admin.CompanyID)
	if err != nil {
		return failUpstream(c, err, "Unable to load employees. Please check your connection.")
	}

	filtered := filterEmployees(employees, c.Query("search"))
	return c.JSON(fiber.Map{
		"employees": filtered,
		"total":     len(filtered),
	})
}

// filterEmployees applies the list screen's case-insensitive substring search.
func filterEmployees(employees []models.Employee, search string) []models.Employee {
	if search == "" {
		return employees
	}
	needle := strings.ToLower(search)
	filtered := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if containsFold(e.Username, needle) ||
			containsFold(e.Firstname, needle) ||
			containsFold(e.Lastname, needle) ||
			containsFold(e.JobTitle, needle) ||
			containsFold(e.Department, needle) ||
			containsFold(e.Email, needle) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

type EmployeeUpdateRequest struct {
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

// UpdateEmployee applies the editable fields and records a per-field change
// set in the activity log.
func (h *Handler) UpdateEmployee(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	employeeUUID := c.Params("uuid")

	var req EmployeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	errs := map[string]string{}
	if len(strings.TrimSpace(req.JobTitle)) < 2 {
		errs["job_title"] = "Job title must be at least 2 characters"
	}
	if !models.IsValidDepartment(req.Department) {
		errs["department"] = "Please select a valid department"
	}
	if req.Status != models.EmployeeActive && req.Status != models.EmployeeInactive {
		errs["status"] = "Status must be active or inactive"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	// Current values for the change set; the update proceeds without them.
	changes := map[string]any{}
	if employees, err := h.Employee.ListEmployees(c.Context(), &auth, admin.CompanyID); err == nil {
		for _, e := range employees {
			if e.UUID != employeeUUID {
				continue
			}
			if e.JobTitle != req.JobTitle {
				changes["job_title"] = map[string]string{"from": e.JobTitle, "to": req.JobTitle}
			}
			if e.Department != req.Department {
				changes["department"] = map[string]string{"from": e.Department, "to": req.Department}
			}
			if e.Status != req.Status {
				changes["status"] = map[string]string{"from": e.Status, "to": req.Status}
			}
			break
		}
	}

	update := models.EmployeeUpdate{
		JobTitle:   req.JobTitle,
		Department: req.Department,
		Status:     req.Status,
		UpdatedBy:  admin.Username,
	}
	if err := h.Employee.UpdateEmployee(c.Context(), &auth, employeeUUID, update); err != nil {
		h.Activity.Log(auth, admin, "update_employee_failed", map[string]any{
			"employee_uuid": employeeUUID,
			"error":         services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to update employee")
	}

	h.Activity.Log(auth, admin, "update_employee", map[string]any{
		"employee_uuid": employeeUUID,
		"changes":       changes,
	})
	return c.JSON(fiber.Map{"message": "Employee updated successfully"})
}

// DeactivateEmployee is the list screen's one-click deactivation.
func (h *Handler) DeactivateEmployee(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	employeeUUID := c.Params("uuid")

	update := models.EmployeeUpdate{
		Status:    models.EmployeeInactive,
		UpdatedBy: admin.Username,
	}
	if err := h.Employee.UpdateEmployee(c.Context(), &auth, employeeUUID, update); err != nil {
		h.Activity.Log(auth, admin, "deactivate_employee_failed", map[string]any{
			"employee_uuid": employeeUUID,
			"error":         services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to deactivate employee")
	}

	h.Activity.Log(auth, admin, "deactivate_employee", map[string]any{
		"employee_uuid": employeeUUID,
	})
	return c.JSON(fiber.Map{"message": "Employee deactivated"})
}
