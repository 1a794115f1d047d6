package handlers

import (
	"shopfront/internal/services"
)

type Deps struct {
	AuthHandler      *AuthHandler
	ProfileHandler   *ProfileHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	WishlistHandler  *WishlistHandler
	AdminHandler     *AdminHandler
}

func NewDeps(reg *services.Registry) *Deps {
	return &Deps{
		AuthHandler:      &AuthHandler{Auth: reg.Auth},
		ProfileHandler:   &ProfileHandler{Users: reg.Users},
		CategoryHandler:  &CategoryHandler{Catalog: reg.Catalog},
		ProductHandler:   &ProductHandler{Catalog: reg.Catalog, Reviews: reg.Reviews},
		InventoryHandler: &InventoryHandler{Inv: reg.Inventory},
		CartHandler:      &CartHandler{Cart: reg.Cart},
		OrderHandler:     &OrderHandler{Order: reg.Orders},
		WishlistHandler:  &WishlistHandler{Wish: reg.Wishlist},
		AdminHandler:     &AdminHandler{Admin: reg.Admin, Orders: reg.Orders, Inv: reg.Inventory, Users: reg.Users},
	}
}
