package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

func cartItemNotFound(id string) *apperr.Error {
	e := apperr.NotFound("Cart item with ID %s not found", id)
	e.Field = "item_id"
	return e
}

func stockError(available, requested int) *apperr.Error {
	return apperr.Validation("quantity", "Insufficient stock: available %d, requested %d", available, requested).
		WithCode(apperr.ErrInsufficientStock.Code)
}

func toCartItem(l repos.CartLine) domain.CartItem {
	return domain.CartItem{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		CreatedAt: l.CreatedAt,
		Product:   domain.CartProduct{ID: l.ProductID, Name: l.Name, Price: l.Price, SKU: l.SKU, Stock: l.Stock},
	}
}

// View returns the cart priced at current product prices.
func (s *CartService) View(userID string) (domain.Cart, error) {
	lines, err := s.Carts.Lines(userID)
	if err != nil {
		return domain.Cart{}, apperr.Database("load cart", err)
	}
	cart := domain.Cart{Items: make([]domain.CartItem, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		it := toCartItem(l)
		cart.Items = append(cart.Items, it)
		cart.Total = cart.Total.Add(it.Subtotal())
	}
	cart.Total = cart.Total.Round(2)
	return cart, nil
}

// Add puts qty units of a product in the cart, merging with an existing line.
// The merged quantity may not exceed current stock.
func (s *CartService) Add(userID, productID string, qty int) (domain.CartItem, error) {
	if qty < 1 {
		return domain.CartItem{}, apperr.Validation("quantity", "Quantity must be at least 1")
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return domain.CartItem{}, notFoundOr(err, apperr.ProductNotFound(productID), "load product")
	}
	if !p.IsActive {
		return domain.CartItem{}, apperr.ProductNotFound(productID)
	}
	_, held, err := s.Carts.QuantityOf(userID, productID)
	if err != nil && !repos.IsNotFound(err) {
		return domain.CartItem{}, apperr.Database("load cart line", err)
	}
	if held+qty > p.Stock {
		return domain.CartItem{}, stockError(p.Stock, held+qty)
	}
	if err := s.Carts.Upsert(uuid.NewString(), userID, productID, qty); err != nil {
		return domain.CartItem{}, apperr.Database("add to cart", err)
	}
	lineID, _, err := s.Carts.QuantityOf(userID, productID)
	if err != nil {
		return domain.CartItem{}, apperr.Database("load cart line", err)
	}
	l, err := s.Carts.Line(userID, lineID)
	if err != nil {
		return domain.CartItem{}, apperr.Database("load cart line", err)
	}
	return toCartItem(l), nil
}

// Update sets a line's quantity. Zero removes the line and returns nil.
func (s *CartService) Update(userID, itemID string, qty int) (*domain.CartItem, error) {
	if qty < 0 {
		return nil, apperr.Validation("quantity", "Quantity must be greater than or equal to 0")
	}
	l, err := s.Carts.Line(userID, itemID)
	if err != nil {
		return nil, notFoundOr(err, cartItemNotFound(itemID), "load cart line")
	}
	if qty == 0 {
		return nil, s.Remove(userID, itemID)
	}
	if qty > l.Stock {
		return nil, stockError(l.Stock, qty)
	}
	if err := s.Carts.SetQuantity(userID, itemID, qty); err != nil {
		return nil, notFoundOr(err, cartItemNotFound(itemID), "update cart line")
	}
	l.Quantity = qty
	it := toCartItem(l)
	return &it, nil
}

func (s *CartService) Remove(userID, itemID string) error {
	return notFoundOr(s.Carts.Remove(userID, itemID), cartItemNotFound(itemID), "remove cart line")
}

func (s *CartService) Clear(userID string) error {
	return dbErr("clear cart", s.Carts.Clear(userID))
}

// Count is the number of units in the cart, for the header badge.
func (s *CartService) Count(userID string) int {
	n, _ := s.Carts.Count(userID)
	return n
}
