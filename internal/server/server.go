// Package server assembles the fiber application: middleware, static files,
// the JSON API under /api/v1 and the server-rendered pages.
package server

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/config"
	"shopfront/internal/http/api"
	"shopfront/internal/http/handlers"
	applog "shopfront/internal/log"
	"shopfront/internal/ratelimit"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

// MaxBodySize caps request bodies, uploads included.
const MaxBodySize = 6 << 20

type Deps struct {
	Config   config.Config
	DB       *sqlx.DB
	Services *services.Registry
	Limits   ratelimit.Store
	// LoginLimit caps POST /login per client per LoginWindow. Zero disables it.
	LoginLimit  int
	LoginWindow time.Duration
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api") }

func isAsset(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(cfg.Env == "development")

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: MaxBodySize,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if isAPI(c) {
				return api.WriteError(c, err)
			}
			status := fiber.StatusInternalServerError
			msg := "Something went wrong. Please try again."
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
				if status < 500 {
					msg = fe.Message
				}
			}
			if status >= 500 {
				applog.Error(c, "server.error", err, nil)
			}
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(status).Render("error", fiber.Map{"Message": msg, "Status": status}, "layouts/main"); rerr != nil {
				return c.Status(status).SendString(msg)
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use("/api", cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	// Attach the session user to the page context (templates, logs).
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) || isAsset(c) {
			return c.Next()
		}
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := d.Services.Auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("cartCount", d.Services.Cart.Count(u.ID))
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isAPI(c) || isAsset(c)
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Env == "production",
		ContextKey:     "csrf",
		Next:           isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{
				"Message": "Security check failed. Please refresh and try again.",
				"Status":  fiber.StatusForbidden,
			}, "layouts/main")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", cfg.StaticDir)
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- JSON API ----------
	api.Register(app.Group("/api/v1"), api.Options{
		Services:   d.Services,
		Ping:       func(ctx context.Context) error { return repos.Ping(ctx, d.DB) },
		MediaDir:   mediaDir,
		Limits:     d.Limits,
		APILimit:   cfg.APIRateLimit,
		APIWindow:  cfg.APIRateWindow,
		AuthLimit:  cfg.AuthRateLimit,
		AuthWindow: cfg.AuthRateWindow,
	})

	// ---------- Pages ----------
	mountPages(app, handlers.NewDeps(d.Services), d)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Message": "Page not found",
			"Status":  fiber.StatusNotFound,
		}, "layouts/main")
	})
	return app
}

func mountPages(app *fiber.App, deps *handlers.Deps, d Deps) {
	auth := d.Services.Auth
	user := handlers.RequireUser(auth)

	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/products/:id", deps.ProductHandler.Detail)
	app.Post("/products/:id/reviews", user, deps.ProductHandler.PostReview)
	app.Post("/products/:id/reviews/:review_id/delete", user, deps.ProductHandler.DeleteReview)
	app.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.InventoryHandler.Check)

	// Cart & Orders
	app.Get("/cart", user, deps.CartHandler.View)
	app.Post("/cart", user, deps.CartHandler.Add)
	app.Post("/cart/:id", user, deps.CartHandler.Update)
	app.Post("/cart/:id/delete", user, deps.CartHandler.Remove)
	app.Post("/orders", user, deps.OrderHandler.Place)
	app.Get("/orders", user, deps.OrderHandler.History)
	app.Get("/orders/:id", user, deps.OrderHandler.View)

	// Wishlist
	app.Get("/wishlist", user, deps.WishlistHandler.List)
	app.Post("/wishlist", user, deps.WishlistHandler.Save)
	app.Post("/wishlist/delete", user, deps.WishlistHandler.Unsave)

	// Profile
	app.Get("/profile", user, deps.ProfileHandler.Show)
	app.Post("/profile", user, deps.ProfileHandler.Save)

	// Auth routes (login throttled)
	authH := deps.AuthHandler
	app.Get("/login", authH.LoginForm)
	login := []fiber.Handler{authH.Login}
	if d.LoginLimit > 0 {
		login = append([]fiber.Handler{limiter.New(limiter.Config{
			Max:        d.LoginLimit,
			Expiration: d.LoginWindow,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{
					"Err": "Too many attempts. Please try again later.",
				}, "layouts/main")
			},
		})}, login...)
	}
	app.Post("/login", login...)
	app.Post("/logout", authH.Logout)
	app.Get("/register", authH.RegisterForm)
	app.Post("/register", authH.Register)
	app.Get("/forgot-password", authH.ForgotForm)
	app.Post("/forgot-password", authH.Forgot)
	app.Get("/reset-password", authH.ResetForm)
	app.Post("/reset-password", authH.Reset)

	// Admin
	adminH := deps.AdminHandler
	admin := app.Group("/admin", handlers.RequireAdmin(auth))
	admin.Get("/", adminH.Dashboard)
	admin.Get("/orders", adminH.OrdersPage)
	admin.Post("/orders/:id/status", adminH.UpdateOrderStatus)
	admin.Get("/inventory", adminH.Inventory)
	admin.Post("/inventory", adminH.UpdateInventory)
	admin.Get("/users", adminH.UsersPage)
	admin.Post("/users/:id/active", adminH.SetUserActive)
	admin.Post("/users/:id/delete", adminH.DeleteUser)
}
