package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwikdrytn/kwikdry-sub000/app"
	"github.com/kwikdrytn/kwikdry-sub000/core/duration"
)

var estimateServices []string

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a job duration from completed jobs",
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringSliceVarP(&estimateServices, "service", "s", nil, "requested service, repeatable")
	_ = estimateCmd.MarkFlagRequired("service")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := cfg.AssemblerPolicy()
	if err != nil {
		return err
	}
	st, closeStore, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	history, err := st.CompletedJobs(ctx, p.HistoryLimit)
	if err != nil {
		return err
	}
	est, err := duration.NewEstimator(p.Duration).Estimate(estimateServices, history)
	if errors.Is(err, duration.ErrInsufficientData) {
		return fmt.Errorf("only %d matching completed jobs, at least %d are needed", est.Samples, p.Duration.MinSamples)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), est)
}
