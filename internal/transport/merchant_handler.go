package transport

import (
	"net/http"
	"strings"
	"time"

	"food-delivery/internal/domain"
	"food-delivery/internal/middleware"
	"food-delivery/internal/repository"
	"food-delivery/internal/service"
	"food-delivery/internal/timeutil"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateStatusRequest moves an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// ProductRequest represents the create and update product payload
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Stock       *int            `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *int64          `json:"category_id" validate:"omitempty,gt=0"`
}

// StockRequest sets the stock level. A null stock stops tracking.
type StockRequest struct {
	Stock *int `json:"stock" validate:"omitempty,gte=0"`
}

// MerchantHandler serves the /empresa routes
type MerchantHandler struct {
	merchants service.MerchantService
	products  service.ProductService
	orders    service.OrderService
	feedbacks service.FeedbackService
	reports   service.ReportService
	now       func() time.Time
	logger    *zap.Logger
}

func NewMerchantHandler(
	merchants service.MerchantService,
	products service.ProductService,
	orders service.OrderService,
	feedbacks service.FeedbackService,
	reports service.ReportService,
	logger *zap.Logger,
) *MerchantHandler {
	return &MerchantHandler{
		merchants: merchants,
		products:  products,
		orders:    orders,
		feedbacks: feedbacks,
		reports:   reports,
		now:       time.Now,
		logger:    logger,
	}
}

// RegisterRoutes mounts the merchant area behind authentication and the
// merchant role.
func (h *MerchantHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/empresa", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireMerchant(h.logger))

		r.Get("/perfil", h.GetProfile)
		r.Get("/pedidos", h.ListOrders)
		r.Patch("/pedidos/{id}/status", h.UpdateOrderStatus)

		r.Route("/produtos", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/estatisticas", h.ProductStats)
			r.Get("/baixo-estoque", h.LowStock)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Patch("/{id}/ativo", h.ToggleProduct)
			r.Patch("/{id}/estoque", h.SetStock)
		})

		r.Get("/feedbacks", h.ListFeedback)
		r.Get("/feedbacks/estatisticas", h.FeedbackStats)

		r.Route("/relatorios", func(r chi.Router) {
			r.Get("/mensal", h.MonthlyReport)
			r.Get("/anual", h.AnnualReport)
			r.Get("/periodo", h.PeriodReport)
			r.Get("/dashboard", h.Dashboard)
		})
	})
}

func (h *MerchantHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	merchant, err := h.merchants.GetProfile(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, merchant)
}

func (h *MerchantHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.orders.ListMerchantOrders(r.Context(), id, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// UpdateOrderStatus moves one of the merchant's orders to a new status
func (h *MerchantHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListProducts lists the merchant's products. Sorting follows ?sort_by=
// and ?sort_order=asc|desc.
func (h *MerchantHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	opts := service.ProductListOptions{
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: repository.SortOrder(strings.ToUpper(r.URL.Query().Get("sort_order"))),
	}

	page, err := h.products.ListMerchantProducts(r.Context(), id, opts, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *MerchantHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetMerchantProduct(r.Context(), id, productID)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *MerchantHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *MerchantHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, productID, req.input())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct deactivates the product. The row is kept for order history.
func (h *MerchantHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.DeactivateProduct(r.Context(), id, productID); err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MerchantHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.ToggleActive(r.Context(), id, productID)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *MerchantHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req StockRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.SetStock(r.Context(), id, productID, req.Stock)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *MerchantHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.products.LowStock(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *MerchantHandler) ProductStats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.products.Stats(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *MerchantHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.feedbacks.ListMerchantFeedback(r.Context(), id, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *MerchantHandler) FeedbackStats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.feedbacks.MerchantFeedbackStats(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// MonthlyReport serves ?mes=&ano=, both defaulting to the current month.
func (h *MerchantHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	now := h.now().UTC()
	month, okMonth := queryInt(r, "mes", int(now.Month()))
	year, okYear := queryInt(r, "ano", now.Year())
	if !okMonth || !okYear {
		middleware.RespondWithError(w, http.StatusBadRequest, "mes and ano must be integers")
		return
	}

	report, err := h.reports.MonthlyReport(r.Context(), id, month, year)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, report)
}

func (h *MerchantHandler) AnnualReport(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	year, ok := queryInt(r, "ano", h.now().UTC().Year())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "ano must be an integer")
		return
	}

	report, err := h.reports.AnnualReport(r.Context(), id, year)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// PeriodReport serves ?inicio=YYYY-MM-DD&fim=YYYY-MM-DD, both days inclusive.
func (h *MerchantHandler) PeriodReport(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	period, err := timeutil.ParseDayRange(r.URL.Query().Get("inicio"), r.URL.Query().Get("fim"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reports.PeriodReport(r.Context(), id, period)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, report)
}

func (h *MerchantHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	dashboard, err := h.reports.Dashboard(r.Context(), id, h.now())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
}
