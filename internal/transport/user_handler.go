package transport

import (
	"net/http"

	"food-delivery/internal/middleware"
	"food-delivery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterCustomerRequest represents the customer sign-up payload
type RegisterCustomerRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	Name      string   `json:"name" validate:"required,max=120"`
	TaxID     string   `json:"tax_id" validate:"required,max=20"`
	Phone     string   `json:"phone" validate:"max=20"`
	Address   string   `json:"address" validate:"max=255"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// RegisterMerchantRequest represents the merchant sign-up payload
type RegisterMerchantRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	TradeName   string   `json:"trade_name" validate:"required,max=120"`
	TaxID       string   `json:"tax_id" validate:"required,max=20"`
	Phone       string   `json:"phone" validate:"max=20"`
	Address     string   `json:"address" validate:"max=255"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	CategoryID  *int64   `json:"category_id" validate:"omitempty,gt=0"`
	LogoURL     string   `json:"logo_url" validate:"omitempty,url"`
	Description string   `json:"description" validate:"max=1000"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh and logout payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserHandler handles HTTP requests for identity operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the /api/auth routes. Public routes are wrapped
// in limiter.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, limiter func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/register/customer", h.RegisterCustomer)
			r.Post("/register/merchant", h.RegisterMerchant)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.RefreshToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Put("/user/deactivate", h.Deactivate)
		})
	})
}

// RegisterCustomer handles customer registration
func (h *UserHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	result, err := h.userService.RegisterCustomer(r.Context(), service.RegisterCustomerInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		TaxID:     req.TaxID,
		Phone:     req.Phone,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.logger.Debug("Customer registration failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Customer registered successfully", zap.Int64("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// RegisterMerchant handles merchant registration
func (h *UserHandler) RegisterMerchant(w http.ResponseWriter, r *http.Request) {
	var req RegisterMerchantRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	result, err := h.userService.RegisterMerchant(r.Context(), service.RegisterMerchantInput{
		Email:       req.Email,
		Password:    req.Password,
		TradeName:   req.TradeName,
		TaxID:       req.TaxID,
		Phone:       req.Phone,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CategoryID:  req.CategoryID,
		LogoURL:     req.LogoURL,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Debug("Merchant registration failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Merchant registered successfully", zap.Int64("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	h.logger.Info("User logged in successfully", zap.Int64("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Logout revokes the given refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	result, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Debug("Token refresh failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user with its profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	account, err := h.userService.Me(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, account)
}

// Deactivate disables the caller's account
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Deactivate(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "account deactivated"})
}
