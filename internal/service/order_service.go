package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery/internal/apperror"
	"food-delivery/internal/database"
	"food-delivery/internal/domain"
	"food-delivery/internal/metrics"
	"food-delivery/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLineInput is one requested product and quantity.
type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	MerchantID        int64
	Lines             []OrderLineInput
	PaymentMethod     domain.PaymentMethod
	Observations      string
	DeliveryAddress   string
	DeliveryLatitude  *float64
	DeliveryLongitude *float64
}

// maxOrderTotal is the largest value orders.total (NUMERIC(12,2)) can hold.
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

// OrderService manages the order lifecycle for customers and merchants.
type OrderService interface {
	CreateOrder(ctx context.Context, identity domain.Identity, input CreateOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, identity domain.Identity, orderID int64, status domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	PayOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	GetCustomerOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	ListCustomerOrders(ctx context.Context, identity domain.Identity, status *domain.OrderStatus, page PageRequest) (domain.Page[*domain.Order], error)
	ListMerchantOrders(ctx context.Context, identity domain.Identity, page PageRequest) (domain.Page[*domain.Order], error)
	CustomerStats(ctx context.Context, identity domain.Identity) (domain.CustomerOrderStats, error)
	TrackOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.OrderTracking, error)
}

type orderService struct {
	tx        database.TxRunner
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	merchants repository.MerchantRepository
	policy    TransitionPolicy
	metrics   *metrics.OrderMetrics
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	tx database.TxRunner,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	merchants repository.MerchantRepository,
	policy TransitionPolicy,
	orderMetrics *metrics.OrderMetrics,
	logger *zap.Logger,
) OrderService {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &orderService{
		tx:        tx,
		orders:    orders,
		products:  products,
		customers: customers,
		merchants: merchants,
		policy:    policy,
		metrics:   orderMetrics,
		logger:    logger,
	}
}

// CreateOrder validates the lines, reserves stock and persists a PENDING order
func (s *orderService) CreateOrder(ctx context.Context, identity domain.Identity, input CreateOrderInput) (*domain.Order, error) {
	order, err := s.createOrder(ctx, identity, input)
	if err != nil {
		s.metrics.Failed("create_order", errorKind(err))
		return nil, err
	}

	total, _ := order.Total.Float64()
	s.metrics.OrderCreated(total)
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.Int64("merchant_id", order.MerchantID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

func (s *orderService) createOrder(ctx context.Context, identity domain.Identity, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		return nil, apperror.BusinessRule("order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, apperror.Validation("quantity must be positive for product %d", line.ProductID)
		}
	}
	if !input.PaymentMethod.IsValid() {
		return nil, apperror.Validation("invalid payment method %q", input.PaymentMethod)
	}

	var order *domain.Order
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		customers := s.customers.WithTx(tx)
		merchants := s.merchants.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		customer, err := customerFor(ctx, customers, identity)
		if err != nil {
			return err
		}

		merchant, err := merchants.FindByID(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, repository.ErrMerchantNotFound) {
				return apperror.NotFound("merchant %d not found", input.MerchantID)
			}
			return fmt.Errorf("failed to load merchant: %w", err)
		}

		lines := make([]domain.OrderLine, 0, len(input.Lines))
		total := decimal.Zero
		for _, requested := range input.Lines {
			line, err := s.reserveLine(ctx, products, merchant, requested)
			if err != nil {
				return err
			}
			lines = append(lines, line)
			total = total.Add(line.Subtotal)
		}
		if total.GreaterThan(maxOrderTotal) {
			return apperror.BusinessRule("order total exceeds the maximum of %s", maxOrderTotal.StringFixed(2))
		}

		order = &domain.Order{
			CustomerID:        customer.ID,
			MerchantID:        merchant.ID,
			MerchantName:      merchant.TradeName,
			Total:             total,
			Status:            domain.OrderStatusPending,
			PaymentStatus:     domain.PaymentStatusPending,
			PaymentMethod:     input.PaymentMethod,
			Observations:      input.Observations,
			DeliveryAddress:   input.DeliveryAddress,
			DeliveryLatitude:  input.DeliveryLatitude,
			DeliveryLongitude: input.DeliveryLongitude,
			Lines:             lines,
		}
		if err := orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to persist order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// reserveLine prices one line and decrements stock for tracked products.
func (s *orderService) reserveLine(ctx context.Context, products repository.ProductRepository, merchant *domain.Merchant, requested OrderLineInput) (domain.OrderLine, error) {
	product, err := products.FindByID(ctx, requested.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.OrderLine{}, apperror.NotFound("product %d not found", requested.ProductID)
		}
		return domain.OrderLine{}, fmt.Errorf("failed to load product: %w", err)
	}

	if product.MerchantID != merchant.ID {
		return domain.OrderLine{}, apperror.BusinessRule("product %s does not belong to merchant %s", product.Name, merchant.TradeName)
	}
	if !product.Active {
		return domain.OrderLine{}, apperror.BusinessRule("product %s is unavailable", product.Name)
	}

	if product.TracksStock() {
		if *product.Stock < requested.Quantity {
			return domain.OrderLine{}, apperror.InsufficientStock(product.ID, product.Name, *product.Stock, requested.Quantity)
		}
		if err := products.DecrementStock(ctx, product.ID, requested.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return domain.OrderLine{}, apperror.InsufficientStock(product.ID, product.Name, *product.Stock, requested.Quantity)
			}
			return domain.OrderLine{}, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	return domain.NewOrderLine(product, requested.Quantity), nil
}

// UpdateStatus lets the owning merchant move an order along its lifecycle
func (s *orderService) UpdateStatus(ctx context.Context, identity domain.Identity, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, apperror.Validation("invalid order status %q", status)
	}

	var (
		order *domain.Order
		from  domain.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)

		merchant, err := merchantFor(ctx, s.merchants.WithTx(tx), identity)
		if err != nil {
			return err
		}

		current, err := findOrder(ctx, orders, orderID)
		if err != nil {
			return err
		}
		if current.MerchantID != merchant.ID {
			return apperror.BusinessRule("order does not belong to merchant")
		}

		from = current.Status
		if err := s.policy.Allow(from, status); err != nil {
			return apperror.Wrap(apperror.KindBusinessRule, err, err.Error())
		}

		order, err = s.transition(ctx, orders, current, status)
		return err
	})
	if err != nil {
		s.metrics.Failed("update_status", errorKind(err))
		return nil, err
	}

	s.metrics.StatusChanged(string(from), string(status))
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return order, nil
}

// CancelOrder cancels a customer's order while it is still PENDING or CONFIRMED.
// Reserved stock is not returned.
func (s *orderService) CancelOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	var (
		order *domain.Order
		from  domain.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)

		current, err := s.ownedOrder(ctx, tx, identity, orderID)
		if err != nil {
			return err
		}
		if !current.Status.Cancelable() {
			return apperror.BusinessRule("cannot cancel this order")
		}

		from = current.Status
		order, err = s.transition(ctx, orders, current, domain.OrderStatusCanceled)
		return err
	})
	if err != nil {
		s.metrics.Failed("cancel_order", errorKind(err))
		return nil, err
	}

	s.metrics.StatusChanged(string(from), string(domain.OrderStatusCanceled))
	s.logger.Info("Order canceled", zap.Int64("order_id", orderID))
	return order, nil
}

// PayOrder simulates a successful payment: payment becomes PAID and the order
// CONFIRMED in one statement
func (s *orderService) PayOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)

		current, err := s.ownedOrder(ctx, tx, identity, orderID)
		if err != nil {
			return err
		}
		if current.Status != domain.OrderStatusPending {
			return apperror.BusinessRule("only pending orders can be paid")
		}
		if current.PaymentStatus == domain.PaymentStatusPaid {
			return apperror.BusinessRule("order already paid")
		}

		if err := orders.MarkPaid(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrOrderStateChanged) {
				return apperror.Conflict("order %d changed concurrently", current.ID)
			}
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		order, err = findOrder(ctx, orders, current.ID)
		return err
	})
	if err != nil {
		s.metrics.Failed("pay_order", errorKind(err))
		return nil, err
	}

	s.metrics.StatusChanged(string(domain.OrderStatusPending), string(domain.OrderStatusConfirmed))
	s.logger.Info("Order paid", zap.Int64("order_id", orderID))
	return order, nil
}

func (s *orderService) GetCustomerOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	return s.ownedOrder(ctx, nil, identity, orderID)
}

func (s *orderService) ListCustomerOrders(ctx context.Context, identity domain.Identity, status *domain.OrderStatus, page PageRequest) (domain.Page[*domain.Order], error) {
	page = page.Normalize()
	if status != nil && !status.IsValid() {
		return domain.Page[*domain.Order]{}, apperror.Validation("invalid order status %q", *status)
	}

	customer, err := customerFor(ctx, s.customers, identity)
	if err != nil {
		return domain.Page[*domain.Order]{}, err
	}

	orders, total, err := s.orders.ListByCustomer(ctx, customer.ID, status, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Order]{}, fmt.Errorf("failed to list customer orders: %w", err)
	}
	return domain.NewPage(orders, page.Page, page.Size, total), nil
}

func (s *orderService) ListMerchantOrders(ctx context.Context, identity domain.Identity, page PageRequest) (domain.Page[*domain.Order], error) {
	page = page.Normalize()

	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return domain.Page[*domain.Order]{}, err
	}

	orders, total, err := s.orders.ListByMerchant(ctx, merchant.ID, page.Page, page.Size)
	if err != nil {
		return domain.Page[*domain.Order]{}, fmt.Errorf("failed to list merchant orders: %w", err)
	}
	return domain.NewPage(orders, page.Page, page.Size, total), nil
}

func (s *orderService) CustomerStats(ctx context.Context, identity domain.Identity) (domain.CustomerOrderStats, error) {
	customer, err := customerFor(ctx, s.customers, identity)
	if err != nil {
		return domain.CustomerOrderStats{}, err
	}

	stats, err := s.orders.CustomerStats(ctx, customer.ID)
	if err != nil {
		return domain.CustomerOrderStats{}, fmt.Errorf("failed to load customer stats: %w", err)
	}
	return stats, nil
}

func (s *orderService) TrackOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.OrderTracking, error) {
	order, err := s.ownedOrder(ctx, nil, identity, orderID)
	if err != nil {
		return nil, err
	}
	return &domain.OrderTracking{
		Order:       order,
		Status:      order.Status,
		LastUpdated: order.UpdatedAt,
	}, nil
}

// ownedOrder loads an order and checks it belongs to the calling customer.
// A nil tx reads outside any transaction.
func (s *orderService) ownedOrder(ctx context.Context, tx *sql.Tx, identity domain.Identity, orderID int64) (*domain.Order, error) {
	customers, orders := s.customers, s.orders
	if tx != nil {
		customers, orders = customers.WithTx(tx), orders.WithTx(tx)
	}

	customer, err := customerFor(ctx, customers, identity)
	if err != nil {
		return nil, err
	}

	order, err := findOrder(ctx, orders, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, apperror.BusinessRule("order does not belong to customer")
	}
	return order, nil
}

func (s *orderService) transition(ctx context.Context, orders repository.OrderRepository, current *domain.Order, to domain.OrderStatus) (*domain.Order, error) {
	if err := orders.TransitionStatus(ctx, current.ID, current.Status, to); err != nil {
		if errors.Is(err, repository.ErrOrderStateChanged) {
			return nil, apperror.Conflict("order %d changed concurrently", current.ID)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return findOrder(ctx, orders, current.ID)
}
