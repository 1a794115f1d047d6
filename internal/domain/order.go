package domain

import "github.com/shopspring/decimal"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// statusRank orders the forward path; cancelled sits outside it.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Forward moves may skip steps; cancelled is reachable until delivery.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return CanCancel(from)
	}
	f, okF := statusRank[from]
	t, okT := statusRank[to]
	return okF && okT && t > f
}

func CanCancel(from string) bool {
	return from == StatusPending || from == StatusProcessing || from == StatusShipped
}

type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	Status          string          `db:"status" json:"status"`
	Total           decimal.Decimal `db:"total" json:"total"`
	PaymentIntentID string          `db:"payment_intent_id" json:"payment_intent_id"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	UpdatedAt       string          `db:"updated_at" json:"updated_at,omitempty"`
	Items           []OrderItem     `db:"-" json:"order_items"`
}

type OrderItem struct {
	ID          string          `db:"id" json:"id"`
	OrderID     string          `db:"order_id" json:"order_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartProduct struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	SKU   string          `json:"sku"`
	Stock int             `json:"stock"`
}

type CartItem struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	CreatedAt string      `json:"created_at"`
	Product   CartProduct `json:"product"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type WishlistItem struct {
	ID        string          `db:"id" json:"id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt string          `db:"created_at" json:"created_at"`
}
