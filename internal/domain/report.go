package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesReport aggregates a merchant's orders over a period.
type SalesReport struct {
	MerchantID       int64           `json:"merchant_id"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Revenue          decimal.Decimal `json:"revenue"`
	OrderCount       int64           `json:"order_count"`
	AverageTicket    decimal.Decimal `json:"average_ticket"`
	AnnualRevenue    decimal.Decimal `json:"annual_revenue"`
	AnnualOrderCount int64           `json:"annual_order_count"`
	AverageRating    float64         `json:"average_rating"`
	TotalRatings     int64           `json:"total_ratings"`
	ByStatus         []StatusTotals  `json:"by_status"`
}

// StatusTotals is the order count and revenue of one status within a
// period. Canceled orders carry zero revenue.
type StatusTotals struct {
	Status  OrderStatus     `json:"status"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Dashboard is the merchant landing overview.
type Dashboard struct {
	MonthRevenue         decimal.Decimal `json:"month_revenue"`
	MonthOrders          int64           `json:"month_orders"`
	PreviousMonthRevenue decimal.Decimal `json:"previous_month_revenue"`
	PreviousMonthOrders  int64           `json:"previous_month_orders"`
	RevenueVariation     decimal.Decimal `json:"revenue_variation"`
	OrdersVariation      decimal.Decimal `json:"orders_variation"`
	AverageTicket        decimal.Decimal `json:"average_ticket"`
	YearRevenue          decimal.Decimal `json:"year_revenue"`
	YearOrders           int64           `json:"year_orders"`
	Products             ProductStats    `json:"products"`
	AverageRating        float64         `json:"average_rating"`
	TotalRatings         int64           `json:"total_ratings"`
}

// PlatformStats are the admin-wide counters.
type PlatformStats struct {
	Customers  int64 `json:"customers"`
	Merchants  int64 `json:"merchants"`
	Products   int64 `json:"products"`
	Orders     int64 `json:"orders"`
	Categories int64 `json:"categories"`
}
