package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relatosdepapel/storefront/internal"
	"github.com/relatosdepapel/storefront/internal/cart"
	"github.com/relatosdepapel/storefront/internal/catalog"
	"github.com/relatosdepapel/storefront/internal/checkout"
	"github.com/relatosdepapel/storefront/internal/domain"
	"github.com/relatosdepapel/storefront/internal/gateway"
	"github.com/relatosdepapel/storefront/internal/handler/storefront"
	"github.com/relatosdepapel/storefront/internal/middleware"
	"github.com/relatosdepapel/storefront/internal/payments"
	"github.com/relatosdepapel/storefront/internal/router"
	"github.com/relatosdepapel/storefront/internal/routes"
	"github.com/relatosdepapel/storefront/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Gateway client, the single door to the catalogue and payments services
	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("gateway initialization failed: %w", err)
	}
	logger.Info("Gateway client initialized", "base_url", cfg.Gateway.BaseURL)

	// Metrics
	httpMetrics := middleware.NewMetrics(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
	businessMetrics := telemetry.NewBusinessMetrics(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)

	// Catalogue client and query engine
	catalogClient := catalog.NewClient(gw, logger)
	engine := catalog.NewEngine(catalogClient, logger, businessMetrics,
		catalog.WithFacetsTTL(time.Duration(cfg.Catalog.FacetsCacheTTLSeconds)*time.Second),
		catalog.WithSuggestSize(cfg.Catalog.SuggestSize),
	)

	// Cart storage
	var cartStorage cart.Storage
	switch cfg.Cart.Storage {
	case "redis":
		redisStorage, err := cart.NewRedisStorage(ctx, cfg.Cart.RedisURL)
		if err != nil {
			return fmt.Errorf("redis storage initialization failed: %w", err)
		}
		defer redisStorage.Close()
		cartStorage = redisStorage
		logger.Info("Cart storage initialized", "backend", "redis")
	default:
		cartStorage = cart.NewMemoryStorage()
		logger.Info("Cart storage initialized", "backend", "memory")
	}

	// Cart store, restoring any persisted cart
	cartStore := cart.NewStore(ctx, cartStorage, logger)
	cartStore.Subscribe(func(items []domain.LineItem) {
		total := 0
		for _, item := range items {
			total += item.Quantity
		}
		businessMetrics.CartSize.Set(float64(total))
	})
	logger.Info("Cart restored", "line_items", len(cartStore.Items()))

	// Payments and checkout
	paymentsClient := payments.NewClient(gw)
	checkoutService := checkout.NewService(paymentsClient, cartStore, logger, businessMetrics)

	// Handlers
	storefrontDeps := routes.StorefrontDeps{
		Catalog:  storefront.NewCatalogHandler(engine, logger),
		Cart:     storefront.NewCartHandler(cartStore, engine, logger, businessMetrics),
		Checkout: storefront.NewCheckoutHandler(checkoutService, paymentsClient, logger),
	}

	// Router and middleware chain
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.MaxBodySize(middleware.MaxBodyBytes),
		middleware.Timeout(middleware.DefaultRequestTimeout),
		router.Logger(logger),
		middleware.WithRequestLogger(logger),
	)

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)

	// CORS wraps the whole router so preflight requests are answered even
	// though routes are registered per-method
	handler := router.CORS(cfg.CORS.AllowedOrigins)(r)

	// Start server with graceful shutdown so an in-flight checkout can finish
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
