package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwikdrytn/kwikdry-sub000/app"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/zone"
)

var zoneOpts struct{ lat, lon float64 }

var matchZoneCmd = &cobra.Command{
	Use:   "match-zone",
	Short: "Print the service zone containing a coordinate",
	RunE:  runMatchZone,
}

func init() {
	matchZoneCmd.Flags().Float64Var(&zoneOpts.lat, "lat", 0, "latitude")
	matchZoneCmd.Flags().Float64Var(&zoneOpts.lon, "lon", 0, "longitude")
	_ = matchZoneCmd.MarkFlagRequired("lat")
	_ = matchZoneCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(matchZoneCmd)
}

func runMatchZone(cmd *cobra.Command, args []string) error {
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

	zones, err := st.Zones(ctx)
	if err != nil {
		return err
	}
	z := zone.Match(model.Coordinate{Latitude: zoneOpts.lat, Longitude: zoneOpts.lon}, zones)
	if z == nil {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no zone")
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", z.ID, z.Name)
	return err
}
