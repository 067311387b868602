package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCanceled       OrderStatus = "CANCELED"
)

// OrderStatuses lists every known status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range OrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle step is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// Cancelable reports whether a customer may still cancel the order.
func (s OrderStatus) Cancelable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return status, nil
}

// PaymentStatus tracks whether an order has been paid.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"
)

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix:
		return true
	}
	return false
}

// Order is a purchase from a single merchant.
type Order struct {
	ID                int64           `json:"id" db:"id"`
	CustomerID        int64           `json:"customer_id" db:"customer_id"`
	MerchantID        int64           `json:"merchant_id" db:"merchant_id"`
	MerchantName      string          `json:"merchant_name" db:"merchant_name"`
	Total             decimal.Decimal `json:"total" db:"total"`
	Status            OrderStatus     `json:"status" db:"status"`
	PaymentStatus     PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod     PaymentMethod   `json:"payment_method" db:"payment_method"`
	Observations      string          `json:"observations" db:"observations"`
	DeliveryAddress   string          `json:"delivery_address" db:"delivery_address"`
	DeliveryLatitude  *float64        `json:"delivery_latitude,omitempty" db:"delivery_latitude"`
	DeliveryLongitude *float64        `json:"delivery_longitude,omitempty" db:"delivery_longitude"`
	Lines             []OrderLine     `json:"lines"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// LinesTotal sums the subtotals of every line.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

// OrderLine is one product-quantity-price entry of an order. UnitPrice is
// the product price at the time the order was placed.
type OrderLine struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// NewOrderLine snapshots the product price into a line.
func NewOrderLine(product *Product, quantity int) OrderLine {
	return OrderLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// OrderTracking is the customer-facing tracking projection.
type OrderTracking struct {
	Order       *Order      `json:"order"`
	Status      OrderStatus `json:"status"`
	LastUpdated time.Time   `json:"last_updated"`
}

// CustomerOrderStats summarizes a customer's order history.
type CustomerOrderStats struct {
	TotalOrders int64           `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}
