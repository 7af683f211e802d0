package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"phone-console/models"
	"phone-console/services"
)

// employeeFilterUnassigned is the assigned-employee filter sentinel selecting
// numbers with no assignment.
const employeeFilterUnassigned = "unassigned"

// GetNumberFormData serves the create form's selects: the company's employees
// and the product catalog, fetched in parallel.
func (h *Handler) GetNumberFormData(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var (
		employees []models.Employee
		products  []models.Product
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		var err error
		employees, err = h.Employee.ListEmployees(ctx, &auth, admin.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = h.Employee.ListProducts(ctx, &auth)
		return err
	})

	if err := g.Wait(); err != nil {
		return failUpstream(c, err, "Unable to load form data. Please check your connection.")
	}

	return c.JSON(fiber.Map{
		"employees": employees,
		"products":  products,
	})
}

type CreateNumberRequest struct {
	PhoneNumber        string `json:"phone_number"`
	ProductCode        string `json:"product_code"`
	AssignedEmployeeID string `json:"assigned_employee_id"`
	Notes              string `json:"notes"`
}

// CreateNumber validates and creates one phone number record. The activity
// entry resolves the product and employee names so the audit trail is readable
// without lookups.
func (h *Handler) CreateNumber(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var req CreateNumberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	errs := map[string]string{}
	if !phoneRe.MatchString(req.PhoneNumber) {
		errs["phone_number"] = "Invalid phone number format"
	}
	if req.ProductCode == "" {
		errs["product_code"] = "Product is required"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	input := models.NumberInput{
		PhoneNumber:        req.PhoneNumber,
		CreatedBy:          admin.Username,
		ProductCode:        req.ProductCode,
		AssignedEmployeeID: req.AssignedEmployeeID,
		Notes:              req.Notes,
	}
	if err := h.Employee.CreateNumber(c.Context(), &auth, input); err != nil {
		h.Activity.Log(auth, admin, "create_phone_number_failed", map[string]any{
			"phone_number": req.PhoneNumber,
			"error":        services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to create phone number")
	}

	details := map[string]any{
		"phone_number": req.PhoneNumber,
		"product_code": req.ProductCode,
	}
	if products, err := h.Employee.ListProducts(c.Context(), &auth); err == nil {
		for _, p := range products {
			if p.Code == req.ProductCode {
				details["product_name"] = p.Name
				break
			}
		}
	}
	if req.AssignedEmployeeID != "" {
		details["assigned_employee_id"] = req.AssignedEmployeeID
		if employees, err := h.Employee.ListEmployees(c.Context(), &auth, admin.CompanyID); err == nil {
			for _, e := range employees {
				if e.UUID == req.AssignedEmployeeID {
					details["assigned_employee_name"] = e.DisplayName()
					break
				}
			}
		}
	}
	h.Activity.Log(auth, admin, "create_phone_number", details)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Phone number created successfully",
	})
}

// NumberFilters is the list screen's filter set.
type NumberFilters struct {
	Search             string
	Status             string
	PaymentStatus      string
	ProductCode        string
	AssignedEmployeeID string
}

// GetNumbers serves the phone number list with in-memory filters, summary
// stats and page windows over the full fetched set.
func (h *Handler) GetNumbers(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	numbers, err := h.Employee.ListNumbers(c.Context(), &auth, admin.CompanyID)
	if err != nil {
		return failUpstream(c, err, "Unable to load phone numbers. Please check your connection.")
	}

	filters := NumberFilters{
		Search:             c.Query("search"),
		Status:             c.Query("status"),
		PaymentStatus:      c.Query("payment_status"),
		ProductCode:        c.Query("product_code"),
		AssignedEmployeeID: c.Query("assigned_employee_id"),
	}
	filtered := filterNumbers(numbers, filters)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	windowed, pagination := paginateNumbers(filtered, page, limit)

	return c.JSON(fiber.Map{
		"numbers":    windowed,
		"stats":      numberStats(numbers),
		"pagination": pagination,
	})
}

// filterNumbers applies search and the equality filters. The "unassigned"
// employee filter value selects numbers with no assignment.
func filterNumbers(numbers []models.PhoneNumber, f NumberFilters) []models.PhoneNumber {
	filtered := make([]models.PhoneNumber, 0, len(numbers))
	for _, n := range numbers {
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !containsFold(n.PhoneNumber, needle) &&
				!containsFold(n.AssignedEmployeeName, needle) &&
				!containsFold(n.ProductCode, needle) {
				continue
			}
		}
		if f.Status != "" && n.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && n.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.ProductCode != "" && n.ProductCode != f.ProductCode {
			continue
		}
		if f.AssignedEmployeeID != "" {
			if f.AssignedEmployeeID == employeeFilterUnassigned {
				if n.AssignedEmployeeID != "" {
					continue
				}
			} else if n.AssignedEmployeeID != f.AssignedEmployeeID {
				continue
			}
		}
		filtered = append(filtered, n)
	}
	return filtered
}

// numberStats computes the list screen's counters over the unfiltered set.
func numberStats(numbers []models.PhoneNumber) fiber.Map {
	stats := map[string]int{}
	for _, n := range numbers {
		switch n.Status {
		case models.NumberActive:
			stats["active"]++
		case models.NumberUnassigned:
			stats["unassigned"]++
		case models.NumberSuspended:
			stats["suspended"]++
		}
		switch n.PaymentStatus {
		case models.PaymentPaid:
			stats["paid"]++
		case models.PaymentPending:
			stats["pending"]++
		case models.PaymentOverdue:
			stats["overdue"]++
		}
		if n.AssignedEmployeeID != "" {
			stats["assigned"]++
		}
	}
	return fiber.Map{
		"total":      len(numbers),
		"active":     stats["active"],
		"unassigned": stats["unassigned"],
		"suspended":  stats["suspended"],
		"assigned":   stats["assigned"],
		"paid":       stats["paid"],
		"pending":    stats["pending"],
		"overdue":    stats["overdue"],
	}
}

// paginateNumbers windows the filtered set in memory.
func paginateNumbers(numbers []models.PhoneNumber, page, limit int) ([]models.PhoneNumber, fiber.Map) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total := len(numbers)
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return numbers[start:end], fiber.Map{
		"total": total,
		"pages": pages,
		"page":  page,
		"limit": limit,
	}
}

type NumberAssignmentRequest struct {
	EmployeeID string `json:"employee_id"`
	Notes      string `json:"notes"`
}

// UpdateNumberAssignment assigns or unassigns a number. Empty employee_id
// unassigns.
func (h *Handler) UpdateNumberAssignment(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	numberUUID := c.Params("uuid")

	var req NumberAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	update := map[string]any{
		"assigned_employee_id": req.EmployeeID,
		"notes":                req.Notes,
		"updated_by":           admin.Username,
	}
	if err := h.Employee.UpdateNumber(c.Context(), &auth, numberUUID, update); err != nil {
		h.Activity.Log(auth, admin, "update_number_assignment_failed", map[string]any{
			"number_uuid": numberUUID,
			"error":       services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to update assignment")
	}

	h.Activity.Log(auth, admin, "update_number_assignment", map[string]any{
		"number_uuid": numberUUID,
		"employee_id": req.EmployeeID,
	})
	return c.JSON(fiber.Map{"message": "Assignment updated"})
}

type NumberPaymentRequest struct {
	PaymentStatus string   `json:"payment_status"`
	PaymentAmount *float64 `json:"payment_amount"`
	Notes         string   `json:"notes"`
}

// UpdateNumberPayment transitions a number's payment status.
func (h *Handler) UpdateNumberPayment(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	numberUUID := c.Params("uuid")

	var req NumberPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	switch req.PaymentStatus {
	case models.PaymentPaid, models.PaymentPending, models.PaymentOverdue:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"payment_status": "Payment status must be paid, pending or overdue"},
		})
	}

	update := map[string]any{
		"payment_status": req.PaymentStatus,
		"notes":          req.Notes,
		"updated_by":     admin.Username,
	}
	if req.PaymentAmount != nil {
		update["payment_amount"] = *req.PaymentAmount
	}
	if err := h.Employee.UpdateNumber(c.Context(), &auth, numberUUID, update); err != nil {
		h.Activity.Log(auth, admin, "update_number_payment_failed", map[string]any{
			"number_uuid": numberUUID,
			"error":       services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to update payment status")
	}

	h.Activity.Log(auth, admin, "update_number_payment", map[string]any{
		"number_uuid":    numberUUID,
		"payment_status": req.PaymentStatus,
	})
	return c.JSON(fiber.Map{"message": "Payment status updated"})
}

type NumberStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateNumberStatus transitions a number between active/unassigned/suspended.
func (h *Handler) UpdateNumberStatus(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	numberUUID := c.Params("uuid")

	var req NumberStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	switch req.Status {
	case models.NumberActive, models.NumberUnassigned, models.NumberSuspended:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"status": "Status must be active, unassigned or suspended"},
		})
	}

	update := map[string]any{
		"status":     req.Status,
		"notes":      req.Notes,
		"updated_by": admin.Username,
	}
	if err := h.Employee.UpdateNumber(c.Context(), &auth, numberUUID, update); err != nil {
		h.Activity.Log(auth, admin, "update_number_status_failed", map[string]any{
			"number_uuid": numberUUID,
			"error":       services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to update status")
	}

	h.Activity.Log(auth, admin, "update_number_status", map[string]any{
		"number_uuid": numberUUID,
		"status":      req.Status,
	})
	return c.JSON(fiber.Map{"message": "Status updated"})
}

// DeleteNumber deletes a phone number record.
func (h *Handler) DeleteNumber(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)
	numberUUID := c.Params("uuid")

	if err := h.Employee.DeleteNumber(c.Context(), &auth, numberUUID, admin.Username); err != nil {
		h.Activity.Log(auth, admin, "delete_phone_number_failed", map[string]any{
			"number_uuid": numberUUID,
			"error":       services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to delete phone number")
	}

	h.Activity.Log(auth, admin, "delete_phone_number", map[string]any{
		"number_uuid": numberUUID,
	})
	return c.JSON(fiber.Map{"message": "Phone number deleted"})
}
