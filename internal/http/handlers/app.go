package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"

	"handmade/internal/config"
	"handmade/internal/domain"
	"handmade/internal/http/views"
	applog "handmade/internal/log"
)

const accessFormat = `{"level":"info","type":"access","time":"${time}","request_id":"${locals:requestid}",` +
	`"status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}"}` + "\n"

// NewApp builds the Fiber app with the middleware stack and every route.
func NewApp(d *Deps, cfg config.Config) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}
	app := fiber.New(fiber.Config{
		Views:        views.Engine(),
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: applog.Writer(), Format: accessFormat, TimeFormat: time.RFC3339}))
	app.Use(helmet.New())
	app.Use(Authenticate(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        positive(cfg.RateMax, 120),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + csrf.HeaderName,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed, refresh and try again"})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// Admin pages
	app.Get("/admin", RequireAdminPage(), d.AdminHandler.Dashboard)

	api := app.Group("/api/v1")

	// Public catalog
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/products", d.CatalogHandler.Browse)
	api.Get("/products/live", d.LiveHandler.Stream)
	api.Get("/products/:id", d.CatalogHandler.Product)
	api.Get("/products/:id/feedback", d.CatalogHandler.ProductFeedback)
	api.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute, LimitReached: tooMany("rate.search.hit")}), d.CatalogHandler.Search)
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: tooMany("rate.availability.hit"),
	}), d.CatalogHandler.Availability)

	// Auth (login throttled)
	api.Post("/auth/register", d.AuthHandler.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        positive(cfg.LoginRateMax, 5),
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: tooMany("rate.login.hit"),
	}), d.AuthHandler.Login)
	api.Post("/auth/logout", d.AuthHandler.Logout)
	api.Get("/me", RequireUser(), d.AuthHandler.Me)

	// Customer
	login := RequireUser()
	api.Get("/cart", login, d.CartHandler.View)
	api.Post("/cart", login, d.CartHandler.Add)
	api.Delete("/cart/:productId", login, d.CartHandler.Remove)
	api.Post("/checkout", login, d.CartHandler.Checkout)
	api.Get("/orders", login, d.CartHandler.Orders)
	api.Get("/favorites", login, d.FavoriteHandler.List)
	api.Post("/favorites/:productId/toggle", login, d.FavoriteHandler.Toggle)
	api.Post("/products/:id/feedback", login, d.FeedbackHandler.Submit)

	// Vendor
	vendor := api.Group("/vendor", RequireRole(domain.RoleVendor))
	vendor.Get("/products", d.VendorHandler.List)
	vendor.Post("/products", d.VendorHandler.Create)
	vendor.Put("/products/:id", d.VendorHandler.Update)
	vendor.Delete("/products/:id", d.VendorHandler.Delete)

	// Admin
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/overview", d.AdminHandler.Overview)
	admin.Get("/users", d.AdminHandler.Users)
	admin.Get("/users/:id", d.AdminHandler.User)
	admin.Delete("/users/:id", d.AdminHandler.DeleteUser)
	admin.Get("/orders", d.AdminHandler.Orders)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/products", d.AdminHandler.Products)
	admin.Post("/products/:id/review", d.AdminHandler.ReviewProduct)
	admin.Get("/feedback", d.AdminHandler.FeedbackList)
	admin.Delete("/feedback/:id", d.AdminHandler.DeleteFeedback)
	admin.Post("/categories", d.AdminHandler.CreateCategory)
	admin.Delete("/categories/:id", d.AdminHandler.DeleteCategory)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// errorHandler keeps client errors as they are and hides everything else
// behind a friendly message.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
}

func tooMany(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
	}
}

func positive(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
