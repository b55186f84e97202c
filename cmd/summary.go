package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/odp-liege/liege"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Show parking capacity totals for both datasets",
	PreRunE: initializeApp,
	RunE:    runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of records to fetch per dataset (default from config)")
	summaryCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the summary as JSON")
}

// Summary aggregates the two datasets
type Summary struct {
	Garages              int `json:"garages"`
	GarageCapacity       int `json:"garage_capacity"`
	GaragesUnknownSize   int `json:"garages_unknown_capacity"`
	ChargingStations     int `json:"charging_stations"`
	DisabledParkings     int `json:"disabled_parkings"`
	UniqueDisabledSpots  int `json:"unique_disabled_spots"`
	DisabledSpaces       int `json:"disabled_spaces"`
	ActiveDisabledSpaces int `json:"active_disabled_spaces"`
}

func runSummary(cmd *cobra.Command, args []string) error {
	var (
		garages []liege.Garage
		spots   []liege.DisabledParking
		n       = effectiveLimit()
	)

	// Two independent requests, one per dataset
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		garages, err = client.Garages(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to get garages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		spots, err = client.DisabledParkings(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to get disabled parkings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	summary := summarize(garages, spots)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func summarize(garages []liege.Garage, spots []liege.DisabledParking) Summary {
	s := Summary{
		Garages:             len(garages),
		DisabledParkings:    len(spots),
		UniqueDisabledSpots: countUniqueSpots(spots),
	}

	for _, g := range garages {
		if g.Capacity.Valid {
			s.GarageCapacity += int(g.Capacity.Int64)
		} else {
			s.GaragesUnknownSize++
		}
		s.ChargingStations += g.ChargingStations
	}

	for _, p := range spots {
		s.DisabledSpaces += p.Number
		if p.IsActive() {
			s.ActiveDisabledSpaces += p.Number
		}
	}

	return s
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "Parking summary for Liège")
	fmt.Fprintln(w, strings.Repeat("━", 40))
	fmt.Fprintf(w, "Garages:                %d\n", s.Garages)
	fmt.Fprintf(w, "  Known capacity:       %d spaces", s.GarageCapacity)
	if s.GaragesUnknownSize > 0 {
		fmt.Fprintf(w, " (%d without data)", s.GaragesUnknownSize)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Charging stations:    %d\n", s.ChargingStations)
	fmt.Fprintf(w, "Disabled parkings:      %d (%d unique)\n", s.DisabledParkings, s.UniqueDisabledSpots)
	fmt.Fprintf(w, "  Spaces:               %d (%d active)\n", s.DisabledSpaces, s.ActiveDisabledSpaces)
}
