package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is the single post-delivery rating of an order.
type Feedback struct {
	ID           int64     `json:"id" db:"id"`
	OrderID      int64     `json:"order_id" db:"order_id"`
	CustomerID   int64     `json:"customer_id" db:"customer_id"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	MerchantID   int64     `json:"merchant_id" db:"merchant_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FeedbackStats aggregates the ratings of a merchant.
type FeedbackStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}
