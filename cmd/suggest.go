package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwikdrytn/kwikdry-sub000/app"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

var suggestOpts struct {
	requestPath  string
	lat, lon     float64
	services     []string
	duration     int
	days         []string
	window       string
	restrictions string
	withContext  bool
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Rank technicians and time slots for a new job",
	Example: `  kwikdry suggest --lat 39.70 --lon -105.00 --service "Carpet Cleaning" --days wed,thu
  kwikdry suggest --request job.json`,
	RunE: runSuggest,
}

func init() {
	f := suggestCmd.Flags()
	f.StringVar(&suggestOpts.requestPath, "request", "", "JSON file holding the job request")
	f.Float64Var(&suggestOpts.lat, "lat", 0, "job site latitude")
	f.Float64Var(&suggestOpts.lon, "lon", 0, "job site longitude")
	f.StringSliceVarP(&suggestOpts.services, "service", "s", nil, "requested service, repeatable")
	f.IntVar(&suggestOpts.duration, "duration", 0, "job duration in minutes, estimated when omitted")
	f.StringSliceVar(&suggestOpts.days, "days", nil, "preferred weekdays")
	f.StringVar(&suggestOpts.window, "window", "", "preferred time window, e.g. 08:00-12:00")
	f.StringVar(&suggestOpts.restrictions, "restrictions", "", "free text customer restrictions")
	f.BoolVar(&suggestOpts.withContext, "with-context", false, "include the ranking context in the output")
	rootCmd.AddCommand(suggestCmd)
}

func suggestRequest() (model.NewJobRequest, error) {
	var req model.NewJobRequest
	if suggestOpts.requestPath != "" {
		data, err := os.ReadFile(suggestOpts.requestPath)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
		return req, nil
	}
	req.Target = model.Coordinate{Latitude: suggestOpts.lat, Longitude: suggestOpts.lon}
	req.ServiceNames = suggestOpts.services
	if suggestOpts.duration > 0 {
		d := suggestOpts.duration
		req.DurationMinutes = &d
	}
	for _, s := range suggestOpts.days {
		d, err := model.ParseWeekday(s)
		if err != nil {
			return req, err
		}
		req.PreferredDays = append(req.PreferredDays, d)
	}
	if suggestOpts.window != "" {
		w, err := parseWindow(suggestOpts.window)
		if err != nil {
			return req, err
		}
		req.PreferredWindow = &w
	}
	if suggestOpts.restrictions != "" {
		r := suggestOpts.restrictions
		req.Restrictions = &r
	}
	return req, nil
}

func parseWindow(s string) (model.TimeWindow, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return model.TimeWindow{}, fmt.Errorf("invalid window %q, expected HH:MM-HH:MM", s)
	}
	st, err := model.ParseTimeOfDay(start)
	if err != nil {
		return model.TimeWindow{}, err
	}
	en, err := model.ParseTimeOfDay(end)
	if err != nil {
		return model.TimeWindow{}, err
	}
	if en <= st {
		return model.TimeWindow{}, fmt.Errorf("invalid window %q, end before start", s)
	}
	return model.TimeWindow{Start: st, End: en}, nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := suggestRequest()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	res, err := svc.Assembler.Suggest(ctx, req)
	if err != nil {
		return err
	}
	if !suggestOpts.withContext {
		res.Context = nil
	}
	return printJSON(cmd.OutOrStdout(), res)
}
