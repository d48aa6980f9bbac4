package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/catalog"
)

var (
	importFile    string
	importMigrate bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products, price observations and sessions from a YAML or XLSX seed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()

		seed, err := catalog.LoadFile(importFile)
		if err != nil {
			return eris.Wrap(err, "import: load seed")
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "import: init store")
		}
		defer st.Close() //nolint:errcheck

		if importMigrate {
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "import: migrate")
			}
		}

		res, err := catalog.Import(ctx, st, seed)
		if err != nil {
			return eris.Wrap(err, "import seed")
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int64("products", res.Products),
			zap.Int64("observations", res.Observations),
			zap.Int("sessions", res.Sessions),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to seed file, .yaml or .xlsx (required)")
	importCmd.Flags().BoolVar(&importMigrate, "migrate", false, "apply the schema before importing")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
