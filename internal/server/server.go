package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"food-delivery/internal/config"
	"food-delivery/internal/database"
	"food-delivery/internal/metrics"
	custommiddleware "food-delivery/internal/middleware"
	"food-delivery/internal/repository"
	"food-delivery/internal/service"
	"food-delivery/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) (*Server, error) {
	policy, err := service.NewTransitionPolicy(cfg.Orders.StatusPolicy)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)

	// Create router
	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger, httpMetrics))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.ValidationMiddleware(logger))

	server := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	router.Get("/health", server.health)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Initialize repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	customerRepo := repository.NewCustomerRepository(sqlDB)
	merchantRepo := repository.NewMerchantRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB)
	feedbackRepo := repository.NewFeedbackRepository(sqlDB)
	statsRepo := repository.NewStatsRepository(sqlDB)

	// Initialize services
	threshold := cfg.Orders.LowStockThreshold
	userService := service.NewUserService(db, userRepo, refreshTokenRepo, customerRepo, merchantRepo, categoryRepo, cfg.JWT, logger)
	customerService := service.NewCustomerService(customerRepo, logger)
	merchantService := service.NewMerchantService(merchantRepo)
	orderService := service.NewOrderService(db, orderRepo, productRepo, customerRepo, merchantRepo, policy, orderMetrics, logger)
	feedbackService := service.NewFeedbackService(db, feedbackRepo, orderRepo, customerRepo, merchantRepo, logger)
	productService := service.NewProductService(productRepo, merchantRepo, categoryRepo, threshold, logger)
	reportService := service.NewReportService(merchantRepo, orderRepo, productRepo, feedbackRepo, threshold)
	catalogService := service.NewCatalogService(categoryRepo, merchantRepo, productRepo)
	adminService := service.NewAdminService(categoryRepo, merchantRepo, statsRepo, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	limiter := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit:auth",
		}, logger)
	}

	// Register routes
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware, limiter)
	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router)
	transport.NewCustomerHandler(customerService, orderService, feedbackService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewMerchantHandler(merchantService, productService, orderService, feedbackService, reportService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewAdminHandler(adminService, logger).RegisterRoutes(router, authMiddleware)

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("Routes registered",
		zap.String("order_status_policy", cfg.Orders.StatusPolicy),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled && redisClient != nil),
	)

	return server, nil
}

// health reports database and Redis connectivity. It answers 503 when the
// database is down; Redis only degrades rate limiting.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbHealth := s.db.Health(r.Context())
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	redisStatus := "disabled"
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		redisStatus = "up"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
		"database": dbHealth,
		"redis":    redisStatus,
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
