package handlers

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"phone-console/models"
	"phone-console/services"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// GetAdmins serves the admin account list with in-memory search/filter and
// summary stats. Companies are fetched only for system admins; a failure there
// leaves the company counter at zero.
func (h *Handler) GetAdmins(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var (
		admins    []models.Admin
		companies []models.Company
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		var err error
		admins, err = h.Admin.ListAdmins(ctx, &auth)
		return err
	})
	if admin.Role.CanManageCompanies() {
		g.Go(func() error {
			list, err := h.Admin.ListCompanies(ctx, &auth)
			if err == nil {
				companies = list
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failUpstream(c, err, "Unable to load admin users. Please check your connection.")
	}

	filtered := filterAdmins(admins, c.Query("search"), c.Query("role"), c.Query("status"))

	return c.JSON(fiber.Map{
		"admins":    filtered,
		"stats":     adminStats(admins, len(companies)),
		"companies": companies,
	})
}

// filterAdmins applies the list screen's search and equality filters.
func filterAdmins(admins []models.Admin, search, role, status string) []models.Admin {
	needle := strings.ToLower(search)
	filtered := make([]models.Admin, 0, len(admins))
	for _, a := range admins {
		if needle != "" &&
			!containsFold(a.Username, needle) &&
			!containsFold(a.Email, needle) &&
			!containsFold(a.FullName, needle) {
			continue
		}
		if role != "" && string(a.Role) != role {
			continue
		}
		if status != "" && string(a.Status) != status {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// adminStats computes the list screen's counters over the unfiltered set.
func adminStats(admins []models.Admin, totalCompanies int) fiber.Map {
	stats := fiber.Map{
		"total":           len(admins),
		"total_companies": totalCompanies,
	}
	superadmins, regular, system := 0, 0, 0
	for _, a := range admins {
		switch a.Role {
		case models.RoleSuperadmin:
			superadmins++
		case models.RoleSystemadmin:
			system++
		default:
			regular++
		}
	}
	stats["superadmins"] = superadmins
	stats["regular_admins"] = regular
	stats["system_admins"] = system
	return stats
}

type CreateAdminRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

// validateAdminFields checks the shared username/password/email rules and
// returns a field -> message map. The uniqueness checks are advisory: they run
// against the already fetched list, the server's constraint is authoritative.
func validateAdminFields(username, password, email string, existing []models.Admin) map[string]string {
	errs := map[string]string{}

	switch {
	case username == "":
		errs["username"] = "Username is required"
	case len(username) < 3:
		errs["username"] = "Username must be at least 3 characters"
	case !usernameRe.MatchString(username):
		errs["username"] = "Username can only contain letters, numbers, dots, underscores and hyphens"
	default:
		for _, a := range existing {
			if strings.EqualFold(a.Username, username) {
				errs["username"] = "Username already exists"
				break
			}
		}
	}

	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len(password) < 6:
		errs["password"] = "Password must be at least 6 characters"
	}

	if email != "" {
		if !emailRe.MatchString(email) {
			errs["email"] = "Invalid email format"
		} else {
			for _, a := range existing {
				if a.Email != "" && strings.EqualFold(a.Email, email) {
					errs["email"] = "Email already exists"
					break
				}
			}
		}
	}

	return errs
}

// CreateAdmin validates and creates one admin account. Role creation is gated
// by the caller's own role.
func (h *Handler) CreateAdmin(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var req CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	existing, err := h.Admin.ListAdmins(c.Context(), &auth)
	if err != nil {
		slog.Warn("Uniqueness pre-check skipped", "error", err)
		existing = nil
	}

	errs := validateAdminFields(req.Username, req.Password, req.Email, existing)
	switch {
	case req.Role == "":
		errs["role"] = "Role is required"
	case !models.IsValidRole(req.Role):
		errs["role"] = "Invalid role"
	case !admin.Role.CanCreate(models.Role(req.Role)):
		errs["role"] = "You are not allowed to create this role"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	companyID := req.CompanyID
	if companyID == "" {
		companyID = admin.CompanyID
	}

	input := services.CreateAdminInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      models.Role(req.Role),
		CompanyID: companyID,
	}
	created, err := h.Admin.CreateAdmin(c.Context(), &auth, input)
	if err != nil {
		h.Activity.Log(auth, admin, "create_admin_failed", map[string]any{
			"username": req.Username,
			"role":     req.Role,
			"error":    services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to create admin user")
	}

	h.Activity.Log(auth, admin, "create_admin", map[string]any{
		"username": req.Username,
		"role":     req.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin user created successfully",
		"admin":   created,
	})
}

type AdminStatusRequest struct {
	Status string `json:"status"`
}

// UpdateAdminStatus transitions an admin account's lifecycle status.
func (h *Handler) UpdateAdminStatus(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	adminID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid admin id",
		})
	}

	var req AdminStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !models.IsValidAdminStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"status": "Status must be active, inactive or suspended"},
		})
	}

	if err := h.Admin.UpdateAdminStatus(c.Context(), &auth, int64(adminID), models.AdminStatus(req.Status)); err != nil {
		h.Activity.Log(auth, admin, "update_admin_status_failed", map[string]any{
			"admin_id": adminID,
			"status":   req.Status,
			"error":    services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to update admin status")
	}

	h.Activity.Log(auth, admin, "update_admin_status", map[string]any{
		"admin_id": adminID,
		"status":   req.Status,
	})
	return c.JSON(fiber.Map{"message": "Admin status updated"})
}

// DeleteAdmin deactivates an admin account via the upstream delete.
func (h *Handler) DeleteAdmin(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	adminID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid admin id",
		})
	}

	if err := h.Admin.DeleteAdmin(c.Context(), &auth, int64(adminID)); err != nil {
		h.Activity.Log(auth, admin, "delete_admin_failed", map[string]any{
			"admin_id": adminID,
			"error":    services.UpstreamMessage(err, err.Error()),
		})
		return failUpstream(c, err, "Failed to delete admin user")
	}

	h.Activity.Log(auth, admin, "delete_admin", map[string]any{
		"admin_id": adminID,
	})
	return c.JSON(fiber.Map{"message": "Admin user deleted"})
}

type CreateCompanyRequest struct {
	Name           string `json:"name"`
	TenantID       string `json:"tenant_id"`
	RegisterNumber string `json:"register_number"`
	Email          string `json:"email"`
	AdminUsername  string `json:"admin_username"`
	AdminPassword  string `json:"admin_password"`
	AdminEmail     string `json:"admin_email"`
	AdminFullName  string `json:"admin_full_name"`
}

// CreateCompany creates a company and its first admin in two upstream steps.
// When the admin step fails the company is kept and the response names the
// step that succeeded; there is no rollback.
func (h *Handler) CreateCompany(c *fiber.Ctx) error {
	admin := currentAdmin(c)
	auth := currentAuth(c)

	var req CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	errs := validateAdminFields(req.AdminUsername, req.AdminPassword, req.AdminEmail, nil)
	// Company admin fields carry their own keys in the error map.
	companyErrs := map[string]string{}
	for field, msg := range errs {
		companyErrs["admin_"+field] = msg
	}
	if strings.TrimSpace(req.Name) == "" {
		companyErrs["name"] = "Company name is required"
	}
	if strings.TrimSpace(req.TenantID) == "" {
		companyErrs["tenant_id"] = "Tenant ID is required"
	}
	if req.Email != "" && !emailRe.MatchString(req.Email) {
		companyErrs["email"] = "Invalid email format"
	}
	if len(companyErrs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": companyErrs})
	}

	input := models.NewCompanyInput(req.TenantID, req.Name, req.RegisterNumber, req.Email, admin.Username)
	company, err := h.Admin.CreateCompany(c.Context(), &auth, input)
	if err != nil {
		h.Activity.Log(auth, admin, "create_company_failed", map[string]any{
			"company_name":   req.Name,
			"error":          services.UpstreamMessage(err, err.Error()),
			"error_location": "company_creation",
		})
		return failUpstream(c, err, "Failed to create company")
	}

	companyID := req.TenantID
	if company != nil && company.TenantID != "" {
		companyID = company.TenantID
	}

	adminInput := services.CreateAdminInput{
		Username:  req.AdminUsername,
		Password:  req.AdminPassword,
		Email:     req.AdminEmail,
		FullName:  req.AdminFullName,
		Role:      models.RoleSuperadmin,
		CompanyID: companyID,
	}
	created, err := h.Admin.CreateAdmin(c.Context(), &auth, adminInput)
	if err != nil {
		h.Activity.Log(auth, admin, "create_company_partial", map[string]any{
			"company_name":   req.Name,
			"company_id":     companyID,
			"admin_username": req.AdminUsername,
			"error":          services.UpstreamMessage(err, err.Error()),
			"error_location": "admin_creation",
		})
		return c.Status(upstreamStatus(err)).JSON(fiber.Map{
			"error":   "Company was created but the admin account failed: " + services.UpstreamMessage(err, "admin creation failed"),
			"company": company,
		})
	}

	h.Activity.Log(auth, admin, "create_company", map[string]any{
		"company_name":   req.Name,
		"company_id":     companyID,
		"admin_username": req.AdminUsername,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Company and admin created successfully",
		"company": company,
		"admin":   created,
	})
}

// GetCompanies serves the company list. System admins only.
func (h *Handler) GetCompanies(c *fiber.Ctx) error {
	auth := currentAuth(c)
	companies, err := h.Admin.ListCompanies(c.Context(), &auth)
	if err != nil {
		return failUpstream(c, err, "Unable to load companies. Please check your connection.")
	}
	return c.JSON(fiber.Map{"companies": companies})
}
