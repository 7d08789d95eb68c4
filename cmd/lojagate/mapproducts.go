package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mygitvirtual012322/carrefourloja/internal/config"
	"github.com/mygitvirtual012322/carrefourloja/internal/mapping"
)

func newMapProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map-products <links-file>",
		Short: "Pair mirrored products with provider checkout links",
		Long: "Reads the provider's exported checkout links, one per line, pairs each\n" +
			"with a mirrored product handle in order, and stores the mapping in the\n" +
			"store config file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger()

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening links file: %w", err)
			}
			defer f.Close()

			ids, err := mapping.ExtractIDs(f)
			if err != nil {
				return err
			}

			siteFS := afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.SiteDir)
			handles, err := mapping.Handles(siteFS)
			if err != nil {
				return err
			}

			productMap, err := mapping.Pair(handles, ids)
			if err != nil {
				return err
			}

			if err := mapping.Write(siteFS, productMap); err != nil {
				return err
			}
			logger.Info("product mapping written",
				slog.Int("products", len(productMap)),
				slog.String("file", mapping.MappingFile),
			)
			return nil
		},
	}
}
