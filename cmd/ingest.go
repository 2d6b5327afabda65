package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwikdrytn/kwikdry-sub000/app"
	"github.com/kwikdrytn/kwikdry-sub000/core/ingest"
	"github.com/kwikdrytn/kwikdry-sub000/infra/logger"
	"github.com/kwikdrytn/kwikdry-sub000/infra/store"
)

var importPath string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Geocode jobs and technicians and rebuild postal code zone boundaries",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&importPath, "import", "", "YAML fixture imported into the postgres store first")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	if importPath != "" {
		pg, ok := st.(*store.Postgres)
		if !ok {
			return fmt.Errorf("--import requires the postgres store driver")
		}
		f, err := store.LoadFixture(importPath)
		if err != nil {
			return err
		}
		if err := pg.Import(ctx, f); err != nil {
			return err
		}
	}

	gc := cfg.Geocode.Client()
	ing, err := ingest.New(st, gc, gc, logger.New("ingest"))
	if err != nil {
		return err
	}
	rep, err := ing.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rep)
}
