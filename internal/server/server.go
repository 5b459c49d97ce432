// Package server assembles the Fiber application: middleware, error mapping and routes.
package server

import (
	"errors"
	"strings"

	"footwear-backend/internal/audit"
	"footwear-backend/internal/auth"
	"footwear-backend/internal/billing"
	"footwear-backend/internal/catalog"
	"footwear-backend/internal/config"
	"footwear-backend/internal/expense"
	"footwear-backend/internal/invoice"
	"footwear-backend/internal/ledger"
	"footwear-backend/internal/metrics"
	"footwear-backend/internal/models"
	"footwear-backend/internal/purchase"
	"footwear-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// ErrorHandler turns handler errors into JSON bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var be *billing.Error
	if errors.As(err, &be) {
		if be.Kind == billing.KindUnexpected {
			log.Errorw("checkout failed", "path", c.Path(), "err", be.Err)
		}
		return c.Status(be.Kind.Status()).JSON(be.Body())
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}

	log.Errorw("unexpected error", "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}

func corsOrigins(raw string) string {
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}

// New builds the app. metrics.Init must have been called for /metrics to report
// the application collectors.
func New(cfg *config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.ShopName,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	checkout := billing.NewService(db)
	purchases := purchase.NewService(db)
	shop := invoice.Shop{Name: cfg.ShopName, Address: cfg.ShopAddress, Phone: cfg.ShopPhone}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Route guards are attached per route: groups without a prefix share /api and
	// their middleware would apply to every route under it.
	staff := auth.RequireRole(models.RoleAdmin, models.RoleStaff)
	admin := auth.RequireRole(models.RoleAdmin)

	// Counter
	protected.Post("/billing/checkout", staff, billing.CheckoutHandler(checkout))
	protected.Get("/invoices/:id", staff, invoice.InvoiceHandler(db, shop))

	protected.Get("/catalog/brands", staff, catalog.ListBrandsHandler(db))
	protected.Get("/catalog/categories", staff, catalog.ListCategoriesHandler(db))
	protected.Get("/catalog/sections", staff, catalog.ListSectionsHandler(db))
	protected.Get("/catalog/sizes", staff, catalog.ListSizesHandler(db))
	protected.Get("/catalog/product-info", staff, catalog.ProductInfoHandler(db))

	// Back office
	protected.Post("/auth/users", admin, auth.RegisterUserHandler(db))
	protected.Get("/audit-logs", admin, audit.ListAuditLogsHandler(db))

	protected.Post("/master/brands", admin, catalog.CreateBrandHandler(db))
	protected.Post("/master/categories", admin, catalog.CreateCategoryHandler(db))
	protected.Post("/master/sections", admin, catalog.CreateSectionHandler(db))
	protected.Post("/master/sizes", admin, catalog.CreateSizesHandler(db))

	protected.Post("/suppliers", admin, purchase.CreateSupplierHandler(db))
	protected.Get("/suppliers", admin, purchase.ListSuppliersHandler(db))
	protected.Post("/purchases", admin, purchase.CreatePurchaseHandler(purchases))
	protected.Get("/purchases", admin, purchase.ListPartyWiseHandler(db))
	protected.Get("/purchases/check-bill", admin, purchase.CheckBillHandler(purchases))

	protected.Get("/ledger", admin, ledger.ListHandler(db))

	protected.Get("/reports/sales-dashboard", admin, report.DashboardHandler(db))
	protected.Get("/reports/sales-export", admin, report.ExportHandler(db))
	protected.Get("/reports/sales-chart", admin, report.ChartHandler(db))
	protected.Get("/reports/daily-summaries", admin, report.ListDailySummariesHandler(db))
	protected.Post("/reports/daily-summaries/run", admin, report.RunDailySummaryHandler(db))

	protected.Post("/expense-categories", admin, expense.CreateCategoryHandler(db))
	protected.Get("/expense-categories", admin, expense.ListCategoriesHandler(db))
	protected.Put("/expense-categories/:id", admin, expense.UpdateCategoryHandler(db))
	protected.Post("/expenses", admin, expense.CreateExpenseHandler(db))
	protected.Get("/expenses", admin, expense.ListExpensesHandler(db))
	protected.Get("/expenses/summary/monthly", admin, expense.MonthlySummaryHandler(db))

	return app
}
