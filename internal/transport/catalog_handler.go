package transport

import (
	"net/http"

	"food-delivery/internal/middleware"
	"food-delivery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the unauthenticated /api/public routes
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{slug}", h.GetCategory)
		r.Get("/merchants", h.ListMerchants)
		r.Get("/merchants/{id}", h.GetMerchant)
		r.Get("/merchants/{id}/products", h.ListMerchantProducts)
		r.Get("/products", h.SearchProducts)
	})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// ListMerchants lists active merchants, optionally narrowed by ?category_id=
func (h *CatalogHandler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := queryInt64(r, "category_id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_id")
		return
	}

	page, err := h.catalog.ListMerchants(r.Context(), categoryID, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) GetMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	merchant, err := h.catalog.GetMerchant(r.Context(), merchantID)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, merchant)
}

func (h *CatalogHandler) ListMerchantProducts(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	page, err := h.catalog.ListMerchantProducts(r.Context(), merchantID, pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// SearchProducts matches ?q= against product names and descriptions
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"), pageRequest(r))
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}
