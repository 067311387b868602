package transport

import (
	"context"
	"net/http"

	"food-delivery/internal/domain"
	"food-delivery/internal/middleware"
	"food-delivery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateProfileRequest represents the editable customer profile
type UpdateProfileRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Phone     string   `json:"phone" validate:"max=20"`
	Address   string   `json:"address" validate:"max=255"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// OrderItemRequest is one line of a new order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest represents the order placement payload. An empty item
// list is left to the order service, which reports it as a business rule.
type CreateOrderRequest struct {
	MerchantID        int64              `json:"merchant_id" validate:"required,gt=0"`
	Items             []OrderItemRequest `json:"items" validate:"dive"`
	PaymentMethod     string             `json:"payment_method" validate:"required,payment_method"`
	Observations      string             `json:"observations" validate:"max=500"`
	DeliveryAddress   string             `json:"delivery_address" validate:"required,max=255"`
	DeliveryLatitude  *float64           `json:"delivery_latitude" validate:"omitempty,latitude"`
	DeliveryLongitude *float64           `json:"delivery_longitude" validate:"omitempty,longitude"`
}

// FeedbackRequest represents a rating of a delivered order
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// CustomerHandler serves the /cliente routes
type CustomerHandler struct {
	customers service.CustomerService
	orders    service.OrderService
	feedbacks service.FeedbackService
	logger    *zap.Logger
}

func NewCustomerHandler(customers service.CustomerService, orders service.OrderService, feedbacks service.FeedbackService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		orders:    orders,
		feedbacks: feedbacks,
		logger:    logger,
	}
}

// RegisterRoutes mounts the customer area behind authentication and the
// customer role.
func (h *CustomerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/cliente", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireCustomer(h.logger))

		r.Get("/perfil", h.GetProfile)
		r.Put("/perfil", h.UpdateProfile)

		r.Route("/pedidos", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/estatisticas", h.Stats)
			r.Get("/{id}", h.GetOrder)
			r.Get("/{id}/rastrear", h.TrackOrder)
			r.Patch("/{id}/cancelar", h.CancelOrder)
			r.Post("/{id}/pagar", h.PayOrder)
			r.Post("/{id}/feedback", h.CreateFeedback)
		})
	})
}

func (h *CustomerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	customer, err := h.customers.GetProfile(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	customer, err := h.customers.UpdateProfile(r.Context(), id, service.ProfileInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

// CreateOrder places a new order for the caller
func (h *CustomerHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	lines := make([]service.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), id, service.CreateOrderInput{
		MerchantID:        req.MerchantID,
		Lines:             lines,
		PaymentMethod:     domain.PaymentMethod(req.PaymentMethod),
		Observations:      req.Observations,
		DeliveryAddress:   req.DeliveryAddress,
		DeliveryLatitude:  req.DeliveryLatitude,
		DeliveryLongitude: req.DeliveryLongitude,
	})
	if err != nil {
		h.logger.Debug("Order creation failed", zap.Int64("user_id", id.UserID), zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders lists the caller's orders, optionally filtered by ?status=
func (h *CustomerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		if !s.IsValid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status = &s
	}

	page, err := h.orders.ListCustomerOrders(r.Context(), id, status, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CustomerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.orders.CustomerStats(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *CustomerHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.GetCustomerOrder)
}

func (h *CustomerHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.CancelOrder)
}

func (h *CustomerHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.PayOrder)
}

func (h *CustomerHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tracking, err := h.orders.TrackOrder(r.Context(), id, orderID)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, tracking)
}

// CreateFeedback rates a delivered order
func (h *CustomerHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req FeedbackRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	feedback, err := h.feedbacks.CreateFeedback(r.Context(), id, orderID, req.Rating, req.Comment)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, feedback)
}

type orderAction func(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)

func (h *CustomerHandler) withOrder(w http.ResponseWriter, r *http.Request, action orderAction) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := action(r.Context(), id, orderID)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
