// Package server is the composition root: it opens the database, wires the
// dependency graph (repositories → services → handlers), mounts the router,
// and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/config"
	"github.com/farhan/stepmates/internal/handler"
	"github.com/farhan/stepmates/internal/mail"
	"github.com/farhan/stepmates/internal/metrics"
	"github.com/farhan/stepmates/internal/middleware"
	"github.com/farhan/stepmates/internal/otp"
	sqliteRepo "github.com/farhan/stepmates/internal/repository/sqlite"
	"github.com/farhan/stepmates/internal/service"
)

// Server owns the router, the database connection, and the rate limiter's
// background goroutine; Start releases all three on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New creates a Server, assembling the whole dependency chain.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, handlers, and routes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.config.CORSAllowedOrigin))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var mailer mail.Mailer = mail.NopMailer{}
	if s.config.ResendAPIKey != "" {
		mailer = mail.NewResendClient(s.config.ResendAPIKey, s.config.MailFrom, s.logger)
	} else {
		s.logger.Warn("RESEND_API_KEY not set, verification codes will only appear in server logs")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authService := service.NewAuthService(
		s.db,
		tokens,
		auth.NewPasswordService(),
		otp.NewGenerator(),
		mailer,
		collector,
		s.logger,
	)
	activityService := service.NewActivityService(s.db, s.db, collector, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	activityHandler := handler.NewActivityHandler(activityService, s.logger)

	s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(s.config.AuthRatePerMin / 60.0),
		Burst:           s.config.AuthRateBurst,
		CleanupInterval: s.config.RateLimitWindow,
	})

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/api/status", handler.HandleStatus)
	s.router.Handle("/metrics", metrics.Handler(registry))

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Use(s.limiter.Middleware())
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/verify-otp", authHandler.HandleVerifyOTP)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
		})
	})

	s.router.Route("/api/activity", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Post("/sync", activityHandler.HandleSync)
		r.Get("/dashboard", activityHandler.HandleDashboard)
		r.Get("/leaderboard", activityHandler.HandleLeaderboard)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
