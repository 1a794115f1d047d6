package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/ratelimit"
	"shopfront/internal/services"
)

const (
	Name    = "shopfront"
	Version = "1.0.0"
)

type Options struct {
	Services *services.Registry
	// Ping checks the database for /health.
	Ping     func(ctx context.Context) error
	MediaDir string

	Limits     ratelimit.Store
	APILimit   int
	APIWindow  time.Duration
	AuthLimit  int
	AuthWindow time.Duration
}

// Register mounts the API on r, normally the /api/v1 group.
func Register(r fiber.Router, o Options) {
	s := o.Services
	authH := &AuthHandler{Auth: s.Auth}
	userH := &UserHandler{Users: s.Users}
	catH := &CategoryHandler{Catalog: s.Catalog}
	prodH := &ProductHandler{Catalog: s.Catalog, Inventory: s.Inventory, MediaDir: o.MediaDir}
	revH := &ReviewHandler{Reviews: s.Reviews}
	cartH := &CartHandler{Cart: s.Cart}
	ordH := &OrderHandler{Orders: s.Orders}
	wishH := &WishlistHandler{Wish: s.Wishlist}
	adminH := &AdminHandler{Admin: s.Admin, Inventory: s.Inventory}

	authed := RequireAuth()
	admin := RequireAdmin()

	r.Use(Identify(s.Auth))
	if o.APILimit > 0 {
		r.Use(ratelimit.New(ratelimit.Config{Store: o.Limits, Max: o.APILimit, Window: o.APIWindow, Scope: "api"}))
	}

	r.Get("/", func(c *fiber.Ctx) error {
		return ok(c, fiber.Map{"name": Name, "version": Version})
	})
	r.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		dbOK := o.Ping == nil || o.Ping(ctx) == nil
		status, state := fiber.StatusOK, "healthy"
		if !dbOK {
			status, state = fiber.StatusServiceUnavailable, "unhealthy"
		}
		return c.Status(status).JSON(envelope{Success: dbOK, Status: status, Data: fiber.Map{"status": state, "db_ok": dbOK}})
	})

	// Auth
	auth := r.Group("/auth")
	if o.AuthLimit > 0 {
		auth.Use(ratelimit.New(ratelimit.Config{Store: o.Limits, Max: o.AuthLimit, Window: o.AuthWindow, Scope: "auth"}))
	}
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Post("/refresh", authH.Refresh)
	auth.Post("/logout", authed, authH.Logout)
	auth.Post("/password-reset", authH.RequestReset)
	auth.Post("/password-reset/confirm", authH.ConfirmReset)
	auth.Get("/me", authed, authH.Me)

	// Users
	r.Get("/users/me", authed, authH.Me)
	r.Put("/users/me", authed, userH.UpdateMe)
	r.Get("/users", authed, admin, userH.List)
	r.Patch("/users/:id/activate", authed, admin, userH.Activate)
	r.Patch("/users/:id/deactivate", authed, admin, userH.Deactivate)
	r.Patch("/users/:id/role", authed, admin, userH.SetRole)
	r.Delete("/users/:id", authed, admin, userH.Delete)

	// Categories
	r.Get("/categories", catH.List)
	r.Get("/categories/:id", catH.Get)
	r.Post("/categories", authed, admin, catH.Create)
	r.Put("/categories/:id", authed, admin, catH.Update)
	r.Delete("/categories/:id", authed, admin, catH.Delete)

	// Products & reviews
	r.Get("/products", prodH.List)
	r.Get("/products/:id", prodH.Get)
	r.Get("/products/:id/availability", prodH.Availability)
	r.Post("/products", authed, admin, prodH.Create)
	r.Put("/products/:id", authed, admin, prodH.Update)
	r.Delete("/products/:id", authed, admin, prodH.Delete)
	r.Post("/products/:id/images", authed, admin, prodH.AddImage)
	r.Get("/products/:id/reviews", revH.List)
	r.Post("/products/:id/reviews", authed, revH.Create)
	r.Delete("/products/:id/reviews/:review_id", authed, revH.Delete)

	// Cart
	r.Get("/cart", authed, cartH.View)
	r.Post("/cart/items", authed, cartH.Add)
	r.Put("/cart/items/:id", authed, cartH.Update)
	r.Delete("/cart/items/:id", authed, cartH.Remove)
	r.Delete("/cart", authed, cartH.Clear)

	// Orders
	r.Post("/orders", authed, ordH.Create)
	r.Get("/orders", authed, ordH.List)
	r.Get("/orders/:id", authed, ordH.Get)
	r.Put("/orders/:id/status", authed, admin, ordH.UpdateStatus)

	// Wishlist
	r.Get("/wishlist", authed, wishH.List)
	r.Post("/wishlist", authed, wishH.Save)
	r.Delete("/wishlist/:product_id", authed, wishH.Unsave)

	// Admin
	r.Get("/admin/stats", authed, admin, adminH.Stats)
	r.Get("/admin/inventory", authed, admin, adminH.InventoryReport)
	r.Put("/admin/inventory/:id", authed, admin, adminH.SetStock)
	r.Get("/admin/orders", authed, admin, ordH.ListAll)
	r.Post("/admin/orders/:id/cancel", authed, admin, ordH.Cancel)

	r.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Resource not found")
	})
}
