package services

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/config"
	"shopfront/internal/notify"
	"shopfront/internal/repos"
	"shopfront/internal/token"
)

// Registry holds one instance of every service, wired to the same database.
type Registry struct {
	Auth      *AuthService
	Users     *UserService
	Catalog   *CatalogService
	Inventory *InventoryService
	Cart      *CartService
	Orders    *OrderService
	Reviews   *ReviewService
	Wishlist  *WishlistService
	Admin     *AdminService
}

func NewRegistry(db *sqlx.DB, cfg config.Config, revoked token.Blocklist, n notify.Notifier) *Registry {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	resetRepo := repos.NewResetRepo(db)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	catalog := NewCatalogService(catRepo, prodRepo)

	return &Registry{
		Auth:      NewAuthService(userRepo, resetRepo, issuer, revoked, n, cfg.BcryptCost, cfg.ResetTokenTTL, cfg.PublicURL),
		Users:     NewUserService(userRepo),
		Catalog:   catalog,
		Inventory: NewInventoryService(invRepo),
		Cart:      NewCartService(cartRepo, prodRepo),
		Orders:    NewOrderService(orderRepo, userRepo, n),
		Reviews:   NewReviewService(reviewRepo, orderRepo, catalog),
		Wishlist:  NewWishlistService(wishRepo, prodRepo),
		Admin:     NewAdminService(orderRepo),
	}
}
