package transport

import (
	"net/http"
	"strconv"

	"food-delivery/internal/domain"
	"food-delivery/internal/middleware"
	"food-delivery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates a JSON body into dst. It writes the
// error response itself and reports whether the handler may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, dst); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// identity returns the authenticated caller. Routes using it sit behind
// AuthMiddleware, so a miss means the router was wired wrong.
func identity(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (domain.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		logger.Error("Identity not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pageRequest reads the page and size query parameters. Missing or
// malformed values fall back to the defaults.
func pageRequest(r *http.Request) service.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return service.PageRequest{Page: page, Size: size}.Normalize()
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryInt64(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}
