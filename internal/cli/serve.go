package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/densitymap-backend-go/internal/api"
	"github.com/jengzang/densitymap-backend-go/internal/config"
	"github.com/jengzang/densitymap-backend-go/internal/database"
	"github.com/jengzang/densitymap-backend-go/internal/density"
	"github.com/jengzang/densitymap-backend-go/internal/metrics"
	"github.com/jengzang/densitymap-backend-go/internal/middleware"
	"github.com/jengzang/densitymap-backend-go/internal/repository"
	"github.com/jengzang/densitymap-backend-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load("")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

// NewEngine builds the density engine from configuration
func NewEngine(cfg *config.Config, logger *zap.Logger) *density.Engine {
	return density.NewEngine(density.Config{
		Workers:    cfg.Density.Workers,
		Timeout:    cfg.Density.Timeout,
		MaxSamples: cfg.Density.MaxSamples,
	}, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	var runs service.RunStore
	if cfg.DBPath != "" {
		db, err := database.Open(database.Config{Path: cfg.DBPath})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		runs = repository.NewRunRepository(db)
		logger.Info("run history enabled", zap.String("db_path", cfg.DBPath))
	}

	m := metrics.New(nil)
	svc := service.NewDensityService(NewEngine(cfg, logger), runs, m, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	// 初始化路由
	router := api.SetupRouter(api.Dependencies{
		Service:     svc,
		Metrics:     m,
		Logger:      logger,
		RateLimiter: limiter,
		JWTSecret:   cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		// 启动服务器
		logger.Info("server starting", zap.String("addr", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
