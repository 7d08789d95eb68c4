package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mygitvirtual012322/carrefourloja/internal/config"
	"github.com/mygitvirtual012322/carrefourloja/internal/inject"
)

func newInjectCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject the cart bootstrap script into every mirrored page",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger()

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			siteFS := afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.SiteDir)
			injector := inject.New(siteFS)

			changed, err := injector.Run()
			if err != nil {
				return err
			}
			logger.Info("injection complete",
				slog.Int("changed", changed),
				slog.String("version", inject.ScriptVersion),
			)

			if !watch {
				return nil
			}
			logger.Info("watching for page changes", slog.String("site_dir", cfg.Store.SiteDir))
			return injector.Watch(cmd.Context(), cfg.Store.SiteDir, logger)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-inject pages as they change")
	return cmd
}
