package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"phone-console/config"
	"phone-console/handlers"
	"phone-console/middleware"
	"phone-console/models"
	"phone-console/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Initialize structured logger
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	// Load configuration
	cfg := config.LoadConfig()

	// Session storage: MongoDB, or in-memory when no URI is configured
	var (
		sessions    services.SessionStore
		credentials services.CredentialStore
	)
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := services.InitMongoDB(ctx, cfg.MongoURI)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer client.Disconnect(context.Background())

		db := client.Database(cfg.DatabaseName)
		if err := services.CreateSessionIndexes(ctx, db); err != nil {
			slog.Error("Failed to create session indexes", "error", err)
			// Continue anyway - lookups still work without indexes
		}

		sessions = services.NewMongoSessionStore(db, cfg.SessionTTL)
		credentials = services.NewMongoCredentialStore(db)
	} else {
		slog.Warn("MONGO_URI not set, using in-memory session storage")
		sessions = services.NewMemorySessionStore(cfg.SessionTTL)
		credentials = services.NewMemoryCredentialStore()
	}

	// Upstream REST backends
	adminUpstream := services.NewUpstream(cfg.AdminServerURL, cfg.UpstreamTimeout)
	employeeUpstream := services.NewUpstream(cfg.EmployeeServerURL, cfg.UpstreamTimeout)
	if cfg.DevFallback {
		slog.Warn("Upstream dev fallback credential enabled")
		adminUpstream.EnableDevFallback(cfg.FallbackUser, cfg.FallbackPass)
		employeeUpstream.EnableDevFallback(cfg.FallbackUser, cfg.FallbackPass)
	}

	// An upstream 401 invalidates the session's credentials in one place; the
	// gate observes the purge on the next request.
	onAuthFailure := func(ctx context.Context, sessionID string) {
		if sessionID == "" {
			return
		}
		if err := credentials.Purge(ctx, sessionID); err != nil {
			slog.Error("Failed to purge credentials after 401", "error", err)
		}
		if err := sessions.ClearAuth(ctx, sessionID); err != nil {
			slog.Error("Failed to clear session after 401", "error", err)
		}
	}
	adminUpstream.OnAuthFailure(onAuthFailure)
	employeeUpstream.OnAuthFailure(onAuthFailure)

	adminAPI := services.NewAdminAPI(adminUpstream)
	employeeAPI := services.NewEmployeeAPI(employeeUpstream)

	feed := services.NewFeedHub()
	activity := services.NewActivityLogger(adminAPI, cfg.ActivityBuffer, feed)
	defer activity.Close()

	gate := middleware.NewAuthGate(sessions, credentials)
	h := handlers.New(cfg, sessions, credentials, adminAPI, employeeAPI, activity, feed)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: services.BulkMaxFileSize + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("Request error", "error", err, "status", code)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173, http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", gate.RequireAuth, h.Me)
	auth.Get("/check", h.Check)
	auth.Put("/preferences", gate.RequireAuth, h.UpdatePreferences)

	// Admin account management
	admins := app.Group("/api/admins", gate.RequireAuth)
	admins.Get("/", h.GetAdmins)
	admins.Post("/", middleware.RequireRole(models.RoleSuperadmin, models.RoleSystemadmin), h.CreateAdmin)
	admins.Put("/:id/status", middleware.RequireRole(models.RoleSuperadmin, models.RoleSystemadmin), h.UpdateAdminStatus)
	admins.Delete("/:id", middleware.RequireRole(models.RoleSuperadmin, models.RoleSystemadmin), h.DeleteAdmin)

	// Company management (system admins only)
	companies := app.Group("/api/companies", gate.RequireAuth, middleware.RequireRole(models.RoleSystemadmin))
	companies.Get("/", h.GetCompanies)
	companies.Post("/", h.CreateCompany)

	// Employees
	employees := app.Group("/api/employees", gate.RequireAuth)
	employees.Get("/", h.GetEmployees)
	employees.Post("/", h.CreateEmployee)
	employees.Post("/bulk", h.BulkCreateEmployees)
	employees.Get("/bulk/template", h.DownloadBulkTemplate)
	employees.Put("/:uuid", h.UpdateEmployee)
	employees.Post("/:uuid/deactivate", h.DeactivateEmployee)

	// Phone numbers
	numbers := app.Group("/api/numbers", gate.RequireAuth)
	numbers.Get("/form-data", h.GetNumberFormData)
	numbers.Get("/", h.GetNumbers)
	numbers.Post("/", h.CreateNumber)
	numbers.Put("/:uuid/assignment", h.UpdateNumberAssignment)
	numbers.Put("/:uuid/payment", h.UpdateNumberPayment)
	numbers.Put("/:uuid/status", h.UpdateNumberStatus)
	numbers.Delete("/:uuid", h.DeleteNumber)

	// Dashboard
	dashboard := app.Group("/api/dashboard", gate.RequireAuth)
	dashboard.Get("/audit", h.GetAuditLogs)
	dashboard.Get("/stats", h.GetDashboardStats)
	dashboard.Get("/ws", h.WebSocketUpgrade, websocket.New(h.HandleFeed))

	// Page routes: guarded pages redirect to /login, the login page probes
	// /auth/check itself
	app.Get("/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": "login"})
	})
	app.Get("/", gate.RequirePage, func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard", fiber.StatusFound)
	})
	app.Get("/dashboard", gate.RequirePage, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": "dashboard"})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "phone-console",
		})
	})

	// Background session cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	services.StartSessionCleanup(cleanupCtx, sessions)

	slog.Info("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
