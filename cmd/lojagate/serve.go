package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mygitvirtual012322/carrefourloja/internal/agent"
	"github.com/mygitvirtual012322/carrefourloja/internal/bridge"
	"github.com/mygitvirtual012322/carrefourloja/internal/cartstore"
	"github.com/mygitvirtual012322/carrefourloja/internal/config"
	"github.com/mygitvirtual012322/carrefourloja/internal/emulator"
	"github.com/mygitvirtual012322/carrefourloja/internal/extract"
	"github.com/mygitvirtual012322/carrefourloja/internal/guard"
	"github.com/mygitvirtual012322/carrefourloja/internal/mapping"
	"github.com/mygitvirtual012322/carrefourloja/internal/middleware"
	"github.com/mygitvirtual012322/carrefourloja/internal/staticsite"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the mirrored storefront with cart emulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger := initLogger()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("shop_domain", cfg.Store.ShopDomain),
		slog.String("site_dir", cfg.Store.SiteDir),
		slog.String("currency", cfg.Store.Currency),
	)

	osFS := afero.NewOsFs()
	siteFS := afero.NewBasePathFs(osFS, cfg.Store.SiteDir)

	store := cartstore.New(osFS, cfg.Store.CartDataDir, logger)
	extractor := extract.New(logger)
	pages := staticsite.New(siteFS, logger)

	productMap, err := mapping.Read(siteFS)
	if err != nil {
		return fmt.Errorf("loading product map: %w", err)
	}
	logger.Info("product map loaded", slog.Int("products", len(productMap)))

	client := bridge.NewClient(cfg.Store.CheckoutEndpoint, nil, logger)
	checkout := bridge.NewHandler(store, client,
		cfg.Store.ShopDomain, cfg.Store.InternalDomain, cfg.Store.Currency,
		emulator.TokenCookie, productMap, logger)

	em := emulator.New(store, extractor, pages, checkout, cfg.Store.Currency, logger)
	g := guard.New(cfg.Store.ShopDomain, checkout, logger)

	cartAgent := agent.New(store, extractor, pages, client,
		cfg.Store.ShopDomain, cfg.Store.InternalDomain, cfg.Store.Currency,
		productMap, logger)

	mux := http.NewServeMux()
	mux.Handle("/mcp", cartAgent.NewHandler())
	mux.Handle("/", g.Wrap(em.Wrap(pages)))

	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
