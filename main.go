package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"styledecor/bookings"
	"styledecor/checkout"
	"styledecor/completed"
	"styledecor/config"
	"styledecor/db"
	"styledecor/globals"
	"styledecor/logger"
	"styledecor/notify"
	"styledecor/ratelim"
	"styledecor/rdx"
	"styledecor/routes"
	"styledecor/settlement"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.L.Infow("request",
			"method", r.Method,
			"path", r.RequestURI,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(cfg *config.Config, rateLimiter *ratelim.RateLimiter, hub *notify.Hub) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	processor := checkout.NewClient(cfg.CheckoutAPIURL, cfg.CheckoutSecretKey, cfg.CheckoutTimeout)

	bookingHandlers := bookings.NewHandlers(hub)
	settlementHandlers := settlement.NewHandlers(processor, hub, cfg.SiteOrigin)
	completedHandlers := completed.NewHandlers(hub)

	routes.AddUserRoutes(router, rateLimiter)
	routes.AddCatalogRoutes(router, rateLimiter)
	routes.AddBookingRoutes(router, rateLimiter, bookingHandlers)
	routes.AddSettlementRoutes(router, rateLimiter, settlementHandlers)
	routes.AddCompletedRoutes(router, rateLimiter, completedHandlers)
	routes.AddDashboardRoutes(router, rateLimiter)
	routes.AddNotifyRoutes(router, hub)

	return router
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found; using system environment")
	}

	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.L.Fatal("JWT_SECRET is required")
	}
	globals.JwtSecret = []byte(cfg.JWTSecret)

	// store connection is fatal when unavailable at startup
	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer initCancel()
	if err := db.Init(initCtx, cfg.MongoURI, cfg.MongoDB); err != nil {
		logger.L.Fatalw("mongo init failed", "err", err)
	}

	if err := rdx.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.L.Fatalw("redis init failed", "err", err)
	}

	rateLimiter := ratelim.NewRateLimiter()

	hub := notify.NewHub()
	go hub.Run()

	router := setupRouter(cfg, rateLimiter, hub)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.SiteOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	port := cfg.Port
	if port[0] != ':' {
		port = ":" + port
	}

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		hub.Stop()
	})

	go func() {
		logger.L.Infow("server listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Fatalw("listen failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.L.Info("shutdown signal received; shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.L.Errorw("graceful shutdown failed", "err", err)
	}

	if err := rdx.Close(); err != nil {
		logger.L.Warnw("redis close failed", "err", err)
	}
	if err := db.Close(ctx); err != nil {
		logger.L.Warnw("mongo disconnect failed", "err", err)
	}

	logger.L.Info("server stopped cleanly")
}
