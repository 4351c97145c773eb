package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sokofresh-be/internal/cart"
	"sokofresh-be/internal/config"
	"sokofresh-be/internal/db"
	"sokofresh-be/internal/loan"
	"sokofresh-be/internal/logger"
	"sokofresh-be/internal/metrics"
	"sokofresh-be/internal/middleware"
	"sokofresh-be/internal/mpesa"
	"sokofresh-be/internal/notification"
	"sokofresh-be/internal/order"
	"sokofresh-be/internal/payment"
	"sokofresh-be/internal/payment/webhook"
	"sokofresh-be/internal/points"
	"sokofresh-be/internal/product"
	"sokofresh-be/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("failed to load config", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Repositories.
	userRepo := user.NewRepository(database)
	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	pointsRepo := points.NewRepository(database)
	loanRepo := loan.NewRepository(database)
	notificationRepo := notification.NewRepository(database)

	// Services.
	gateway := mpesa.NewClient(&cfg.Mpesa)
	reconMetrics := &metrics.Reconciliation{}
	orderSvc := order.NewService(orderRepo)
	paymentSvc := payment.NewService(database, paymentRepo, gateway,
		orderRepo, userRepo, pointsRepo, loanRepo, notificationRepo, reconMetrics)

	// Handlers.
	userHandler := user.NewHandler(userRepo, cfg.JWTSecret)
	productHandler := product.NewHandler(productRepo)
	cartHandler := cart.NewHandler(cartRepo)
	orderHandler := order.NewHandler(orderSvc)
	paymentHandler := payment.NewHandler(paymentSvc)
	callbackHandler := webhook.NewHandler(paymentSvc, reconMetrics)
	pointsHandler := points.NewHandler(pointsRepo)
	notificationHandler := notification.NewHandler(notificationRepo)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(), middleware.Auth(cfg.JWTSecret))

	api := router.Group("/api")
	{
		auth := api.Group("/auth", middleware.RateLimitStrict())
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)

		api.GET("/products", middleware.RateLimitGeneral(), productHandler.List)
		api.GET("/products/:id", middleware.RateLimitGeneral(), productHandler.Get)

		authed := api.Group("", middleware.RequireAuth(), middleware.RateLimitGeneral())
		authed.GET("/cart", cartHandler.List)
		authed.POST("/cart", cartHandler.Add)
		authed.DELETE("/cart/:productId", cartHandler.Remove)

		authed.POST("/orders", orderHandler.Create)
		authed.GET("/orders", orderHandler.List)
		authed.GET("/orders/:id", orderHandler.Get)
		authed.PATCH("/orders/:id/status", middleware.RequireAdmin(), orderHandler.UpdateStatus)

		authed.GET("/points", pointsHandler.Get)
		authed.GET("/notifications", notificationHandler.List)
		authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

		payments := api.Group("/payments")
		payments.POST("/initiate", middleware.RequireAuth(), middleware.RateLimitStrict(), paymentHandler.Initiate)
		payments.GET("/status/:checkoutRequestId", middleware.RateLimitGeneral(), paymentHandler.Status)
		// The callback is unauthenticated and unlimited: Daraja will not
		// retry forever, and a dropped callback strands a pending payment.
		payments.POST("/callback", callbackHandler.Callback)

		api.GET("/metrics", middleware.RequireAdmin(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": reconMetrics.Snapshot()})
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
