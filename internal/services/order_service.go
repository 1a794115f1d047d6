package services

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/notify"
	"shopfront/internal/repos"
)

type OrderService struct {
	Orders   *repos.OrderRepo
	Users    *repos.UserRepo
	Notifier notify.Notifier
}

func NewOrderService(orders *repos.OrderRepo, users *repos.UserRepo, n notify.Notifier) *OrderService {
	if n == nil {
		n = notify.Discard{}
	}
	return &OrderService{Orders: orders, Users: users, Notifier: n}
}

func orderNotFound(id string) *apperr.Error {
	e := apperr.NotFound("Order with ID %s not found", id)
	e.Field = "order_id"
	return e
}

// paymentIntentID simulates a payment provider reference.
func paymentIntentID() string {
	u := uuid.New()
	return "pi_sim_" + hex.EncodeToString(u[:])[:24]
}

// Create turns the user's cart into a pending order. Stock checks, line
// snapshots, stock decrements and the cart clear commit together or not at
// all.
func (s *OrderService) Create(userID string) (domain.Order, error) {
	var order domain.Order
	err := repos.InTx(s.Orders.DB(), func(tx *repos.Tx) error {
		lines, err := tx.CartLines(userID)
		if err != nil {
			return apperr.Database("load cart", err)
		}
		if len(lines) == 0 {
			return apperr.EmptyCart()
		}

		products := make([]domain.Product, len(lines))
		total := decimal.Zero
		for i, l := range lines {
			p, err := tx.Product(l.ProductID)
			if err != nil {
				if repos.IsNotFound(err) {
					return apperr.ProductUnavailable(l.ProductID)
				}
				return apperr.Database("load product", err)
			}
			if !p.IsActive {
				return apperr.ProductUnavailable(l.ProductID)
			}
			if p.Stock < l.Quantity {
				return apperr.InsufficientStock(p.Name, p.Stock, l.Quantity)
			}
			products[i] = p
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		order = domain.Order{
			ID:              uuid.NewString(),
			UserID:          userID,
			Status:          domain.StatusPending,
			Total:           total.Round(2),
			PaymentIntentID: paymentIntentID(),
		}
		if err := tx.InsertOrder(&order); err != nil {
			return apperr.Database("insert order", err)
		}

		order.Items = make([]domain.OrderItem, 0, len(lines))
		for i, l := range lines {
			p := products[i]
			it := domain.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				Price:       p.Price,
			}
			if err := tx.InsertItem(&it); err != nil {
				return apperr.Database("insert order item", err)
			}
			if err := tx.DecrementStock(p.ID, l.Quantity); err != nil {
				if errors.Is(err, repos.ErrInsufficientStock) {
					// another checkout took the stock after our read
					return apperr.InsufficientStock(p.Name, 0, l.Quantity)
				}
				return apperr.Database("decrement stock", err)
			}
			order.Items = append(order.Items, it)
		}

		if err := tx.ClearCart(userID); err != nil {
			return apperr.Database("clear cart", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.confirm(order)
	return order, nil
}

// confirm queues the confirmation mail. It never fails the order.
func (s *OrderService) confirm(o domain.Order) {
	u, err := s.Users.ByID(o.UserID)
	if err != nil {
		applog.BgError("order.confirm.fail", err, map[string]any{"order_id": o.ID, "user_id": o.UserID})
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", u.FirstName, o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", it.Quantity, it.ProductName, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.Total.StringFixed(2))
	s.Notifier.Notify(notify.Message{
		Kind:          notify.KindOrderConfirmation,
		To:            u.Email,
		Subject:       "Order confirmation " + o.ID,
		Body:          b.String(),
		CorrelationID: o.ID,
		Payload:       o,
	})
}

// Get returns an order visible to actor: its owner or any admin.
func (s *OrderService) Get(actor *domain.User, id string) (domain.Order, error) {
	o, err := s.Orders.Get(id)
	if err != nil {
		return domain.Order{}, notFoundOr(err, orderNotFound(id), "load order")
	}
	if !actor.IsAdmin() && o.UserID != actor.ID {
		return domain.Order{}, apperr.Forbidden("You do not have access to this order")
	}
	return o, nil
}

func (s *OrderService) ListMine(userID string, pg Page) ([]domain.Order, Pagination, error) {
	items, total, err := s.Orders.ListByUser(userID, pg.Limit(), pg.Offset())
	if err != nil {
		return nil, Pagination{}, apperr.Database("list orders", err)
	}
	return items, pg.Of(total), nil
}

// ListAll is the admin view, optionally filtered by status.
func (s *OrderService) ListAll(status string, pg Page) ([]domain.Order, Pagination, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !domain.ValidStatus(status) {
		return nil, Pagination{}, invalidStatus(status)
	}
	items, total, err := s.Orders.ListAll(status, pg.Limit(), pg.Offset())
	if err != nil {
		return nil, Pagination{}, apperr.Database("list orders", err)
	}
	return items, pg.Of(total), nil
}

func invalidStatus(s string) *apperr.Error {
	return apperr.Validation("status", "Invalid status %q: must be one of pending, processing, shipped, delivered, cancelled", s)
}

func transitionError(from, to string) *apperr.Error {
	e := apperr.Conflict("Cannot change order status from %s to %s", from, to)
	e.Field = "status"
	return e.WithCode(apperr.ErrInvalidTransition.Code)
}

// UpdateStatus moves an order forward. Cancelling goes through Cancel so the
// stock is returned.
func (s *OrderService) UpdateStatus(id, status string) (domain.Order, error) {
	to := strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidStatus(to) {
		return domain.Order{}, invalidStatus(status)
	}
	if to == domain.StatusCancelled {
		return s.Cancel(id)
	}
	err := repos.InTx(s.Orders.DB(), func(tx *repos.Tx) error {
		o, err := tx.Order(id)
		if err != nil {
			return notFoundOr(err, orderNotFound(id), "load order")
		}
		if !domain.CanTransition(o.Status, to) {
			return transitionError(o.Status, to)
		}
		ok, err := tx.SetStatus(id, o.Status, to)
		if err != nil {
			return apperr.Database("update status", err)
		}
		if !ok {
			return apperr.Conflict("Order %s was modified concurrently", id)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return s.reload(id)
}

// Cancel returns every line to stock and marks the order cancelled. Delivered
// and already-cancelled orders are left untouched.
func (s *OrderService) Cancel(id string) (domain.Order, error) {
	err := repos.InTx(s.Orders.DB(), func(tx *repos.Tx) error {
		o, err := tx.Order(id)
		if err != nil {
			return notFoundOr(err, orderNotFound(id), "load order")
		}
		if !domain.CanCancel(o.Status) {
			return transitionError(o.Status, domain.StatusCancelled)
		}
		items, err := tx.OrderItems(id)
		if err != nil {
			return apperr.Database("load order items", err)
		}
		for _, it := range items {
			if err := tx.IncrementStock(it.ProductID, it.Quantity); err != nil {
				return apperr.Database("restock", err)
			}
		}
		ok, err := tx.SetStatus(id, o.Status, domain.StatusCancelled)
		if err != nil {
			return apperr.Database("update status", err)
		}
		if !ok {
			return apperr.Conflict("Order %s was modified concurrently", id)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return s.reload(id)
}

func (s *OrderService) reload(id string) (domain.Order, error) {
	o, err := s.Orders.Get(id)
	return o, notFoundOr(err, orderNotFound(id), "load order")
}
