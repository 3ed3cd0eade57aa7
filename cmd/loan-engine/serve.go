package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bankim/loan-engine/internal/cache"
	"github.com/bankim/loan-engine/internal/i18n"
	"github.com/bankim/loan-engine/internal/quote"
	"github.com/bankim/loan-engine/internal/server"
	"github.com/bankim/loan-engine/internal/submission"
	"github.com/bankim/loan-engine/internal/validation"
	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var serverConfigPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator and wizard API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), serverConfigPath)
		},
	}
	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "optional YAML file overriding the server section")
	return cmd
}

func runServe(ctx context.Context, serverConfigPath string) error {
	conf, err := loadConfiguration()
	if err != nil {
		return err
	}

	base, err := server.NewConfig(conf.Server, conf.Logging)
	if err != nil {
		return err
	}
	srvCfg, err := server.LoadConfig(serverConfigPath, base)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(srvCfg.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.serve"),
		)
	}

	catalog, err := i18n.Load(conf.Messages.Catalog, conf.Messages.DefaultLanguage)
	if err != nil {
		return err
	}

	quoteCache, err := cache.New(conf.CacheOptions())
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if redisCache, ok := quoteCache.(*cache.RedisCache); ok {
		defer func() {
			_ = redisCache.Close()
		}()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis cache unreachable, quotes will be recomputed",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
		}
	}

	engine := validation.NewEngine(catalog.For(conf.Messages.DefaultLanguage), time.Now, logger)
	registry := wizard.NewRegistry(engine, submission.NewLogSubmitter(logger), srvCfg.SessionTTLDuration(), logger)
	defer registry.Close()
	registry.StartReaper(reapInterval(srvCfg.SessionTTLDuration()))

	handler, err := server.NewHandler(logger, server.Services{
		Registry: registry,
		Engine:   engine,
		Quotes:   quote.NewService(conf.Rates, quoteCache, logger),
		Catalog:  catalog,
		Schedule: amortization.NewScheduleGenerator(logger),
	}, srvCfg.UploadSizeBytes(), version)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              srvCfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.serve"),
			zap.String("address", srvCfg.Address),
			zap.Strings("languages", catalog.Languages()),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// reapInterval checks for idle sessions a few times per TTL, at most once a
// minute.
func reapInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return max(ttl/4, time.Minute)
}
