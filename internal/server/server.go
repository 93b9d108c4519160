// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/handlers"
	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"codeberg.org/cyberguard-ng/cyberguard/internal/middleware"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/adminauth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/auth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/email"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/otp"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/premium"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/quota"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/scanner"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"database", cfg.Database.Driver,
		"timezone", loc.String(),
	)

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Storage
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	version, _, _ := strings.Cut(cmd.Root().Version, " ")
	e, err := New(cfg, st, clock.System{Location: loc}, version)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New builds the services on top of st and returns the configured Echo
// instance.
func New(cfg *config.Config, st store.Store, clk clock.Clock, version string) (*echo.Echo, error) {
	sessions, err := session.NewManager(&cfg.Session, st, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	adminSvc, err := adminauth.NewService(&cfg.Admin, clk)
	if err != nil {
		return nil, err
	}
	if !adminSvc.Enabled() {
		slog.Info("admin API disabled, no admin password configured")
	}

	mailer := email.New(&cfg.SMTP)
	authSvc := auth.NewService(
		st,
		otp.NewService(st, clk, cfg.Auth.OTPTTL),
		sessions,
		mailer,
		clk,
		&cfg.Auth,
		cfg.Server.BaseURL,
	)
	gate := quota.New(st, cfg.Quota.FreeDailyChecks)
	premiumSvc := premium.NewService(st, st, clk, cfg.Business)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = validation.NewEchoValidator()
	if cfg.Server.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// Middleware
	setupMiddleware(e, cfg, sessions, authSvc)

	// Routes
	setupRoutes(e, cfg, routes{
		base:     handlers.New(st, version, clk),
		checks:   handlers.NewChecks(scanner.NewService(premiumSvc, gate, clk)),
		auth:     handlers.NewAuth(authSvc, sessions),
		premium:  handlers.NewPremium(premiumSvc, gate, clk),
		admin:    handlers.NewAdmin(adminSvc, premiumSvc),
		adminSvc: adminSvc,
	})

	return e, nil
}

type routes struct {
	base     *handlers.Handlers
	checks   *handlers.CheckHandlers
	auth     *handlers.AuthHandlers
	premium  *handlers.PremiumHandlers
	admin    *handlers.AdminHandlers
	adminSvc *adminauth.Service
}

func setupRoutes(e *echo.Echo, cfg *config.Config, r routes) {
	e.GET("/health", r.base.Health)
	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	api := e.Group("/api")
	api.GET("/health", r.base.Health)

	// Checks
	api.POST("/check-ussd", r.checks.CheckUSSD)
	api.POST("/check-sms", r.checks.CheckSMS)
	api.POST("/check-url", r.checks.CheckURL)

	// Accounts
	api.POST("/register-user", r.auth.RegisterUser)
	api.POST("/verify-otp", r.auth.VerifyOTP)
	api.POST("/send-verification-otp", r.auth.SendVerificationOTP)
	api.POST("/resend-otp", r.auth.ResendOTP)
	api.POST("/login-user", r.auth.LoginUser)
	api.POST("/validate-session", r.auth.ValidateSession)
	api.POST("/logout", r.auth.Logout)
	api.POST("/forgot-password", r.auth.ForgotPassword)
	api.POST("/reset-password", r.auth.ResetPassword)

	// Premium
	api.GET("/user-stats", r.premium.UserStats)
	api.GET("/plans", r.premium.Plans)
	api.POST("/initiate-payment", r.premium.InitiatePayment)
	api.GET("/check-payment-status", r.premium.CheckPaymentStatus)

	// Admin
	requireAdmin := middleware.RequireAdmin(r.adminSvc)
	api.POST("/admin/login", r.admin.Login)
	api.GET("/admin/users", r.admin.Users, requireAdmin)
	api.GET("/admin/payments", r.admin.Payments, requireAdmin)
	api.POST("/admin/verify-payment", r.admin.VerifyPayment, requireAdmin)
	api.POST("/admin/activate-premium", r.admin.ActivatePremium, requireAdmin)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Channel for server errors
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
