package domain

import "time"

// Merchant is a selling business account.
type Merchant struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	TradeName   string    `json:"trade_name" db:"trade_name"`
	TaxID       string    `json:"tax_id" db:"tax_id"`
	Phone       string    `json:"phone" db:"phone"`
	Address     string    `json:"address" db:"address"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	CategoryID  *int64    `json:"category_id,omitempty" db:"category_id"`
	LogoURL     string    `json:"logo_url" db:"logo_url"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
