package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	ParentID  *string `db:"parent_id" json:"parent_id"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}

type CategoryPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	ParentID *string `json:"parent_id"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	SKU         string          `db:"sku" json:"sku"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at,omitempty"`
}

// ProductDetail is a product with its images and review summary.
type ProductDetail struct {
	Product
	Images      []ProductImage `json:"images"`
	AvgRating   float64        `json:"avg_rating"`
	ReviewCount int            `json:"review_count"`
}

// ProductPatch holds the optional fields of a product update.
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=300"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=50"`
	CategoryID  *string          `json:"category_id"`
	IsActive    *bool            `json:"is_active"`
}

type ProductImage struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	URL       string `db:"url" json:"url"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	Q           string
	CategoryID  string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinRating   *float64
	InStockOnly bool
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type Review struct {
	ID         string `db:"id" json:"id"`
	UserID     string `db:"user_id" json:"user_id"`
	ProductID  string `db:"product_id" json:"product_id"`
	Rating     int    `db:"rating" json:"rating"`
	Comment    string `db:"comment" json:"comment"`
	AuthorName string `db:"author_name" json:"author_name"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}
