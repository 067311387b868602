package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in a merchant's catalog
type Product struct {
	ID          int64           `json:"id" db:"id"`
	MerchantID  int64           `json:"merchant_id" db:"merchant_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Active      bool            `json:"active" db:"active"`
	// Stock is nil when inventory is not tracked for the product.
	Stock      *int      `json:"stock,omitempty" db:"stock"`
	CategoryID *int64    `json:"category_id,omitempty" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TracksStock reports whether orders must check and decrement stock.
func (p *Product) TracksStock() bool {
	return p.Stock != nil
}

// Category represents a product category
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Icon        string    `json:"icon" db:"icon"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductStats summarizes a merchant's catalog.
type ProductStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	LowStock int64 `json:"low_stock"`
}
