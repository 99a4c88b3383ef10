// Package main запускает HTTP-сервер POS-сервиса спортзалов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/gym-pos/internal/config"
	"github.com/mmeshcher/gym-pos/internal/handler"
	"github.com/mmeshcher/gym-pos/internal/middleware"
	"github.com/mmeshcher/gym-pos/internal/repository"
	"github.com/mmeshcher/gym-pos/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	if cfg.JWTSecret == "" {
		sugar.Fatal("JWT_SECRET is required")
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, logger, service.Options{
		PlatformFee:          cfg.PlatformFee,
		InvoiceExtraMonth:    cfg.InvoiceExtraMonth,
		WithdrawalFeePercent: cfg.WithdrawalFeePercent,
		Location:             cfg.Location,
	})
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	metrics := middleware.NewMetrics()
	h := handler.NewHandler(svc, logger, authMiddleware, metrics, cfg.Location)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Обнуление дневной выручки кошельков в полночь
	svc.StartDailyReset(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting gym pos server",
			"addr", cfg.RunAddress,
			"timezone", cfg.Location.String(),
			"platformFee", cfg.PlatformFee.String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
