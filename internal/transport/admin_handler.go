package transport

import (
	"net/http"

	"food-delivery/internal/middleware"
	"food-delivery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents a new merchant category
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Slug        string `json:"slug" validate:"max=80"`
	Icon        string `json:"icon" validate:"max=255"`
	Description string `json:"description" validate:"max=500"`
}

// AdminHandler serves the /admin routes
type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin(h.logger))

		r.Get("/categorias", h.ListCategories)
		r.Post("/categorias", h.CreateCategory)
		r.Get("/empresas", h.ListMerchants)
		r.Get("/estatisticas", h.Stats)
	})
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.admin.CreateCategory(r.Context(), service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("slug", category.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// ListCategories lists every category, inactive ones included
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// ListMerchants pages through every merchant, inactive ones included
func (h *AdminHandler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin.ListMerchants(r.Context(), pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.PlatformStats(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
