package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mygitvirtual012322/carrefourloja/internal/config"
	"github.com/mygitvirtual012322/carrefourloja/internal/mirror"
	"github.com/mygitvirtual012322/carrefourloja/internal/transport"
)

func newMirrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Crawl the live storefront into the local site directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger()

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			siteFS := afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.SiteDir)
			m := mirror.New(cfg.Store.ShopDomain, cfg.Store.Password,
				transport.NewChromeTransport(30*time.Second), siteFS, logger)

			saved, err := m.Run(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("mirror complete",
				slog.Int("pages", saved),
				slog.String("site_dir", cfg.Store.SiteDir),
			)
			return nil
		},
	}
}
