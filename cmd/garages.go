package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/odp-liege/filter"
	"github.com/s0up4200/odp-liege/liege"
)

// garagesCmd represents the garages command
var garagesCmd = &cobra.Command{
	Use:   "garages",
	Short: "List off-street parking garages",
	Long: `List the parking garages of Liège.

Examples:
  odp-liege garages --limit 12
  odp-liege garages --filter 'Capacity > 400 and ChargingStations > 0'
  odp-liege garages --filter 'distanceTo(50.6413, 5.5686) < 1.0' --json`,
	PreRunE: initializeApp,
	RunE:    runGarages,
}

func init() {
	rootCmd.AddCommand(garagesCmd)
	addQueryFlags(garagesCmd)
}

func runGarages(cmd *cobra.Command, args []string) error {
	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	garages, err := client.Garages(cmd.Context(), effectiveLimit())
	if err != nil {
		return fmt.Errorf("failed to get garages: %w", err)
	}
	fetched := len(garages)

	garages, err = filter.Garages(f, garages)
	if err != nil {
		return err
	}

	logger.Debug().Int("fetched", fetched).Int("matched", len(garages)).Msg("Garages retrieved")

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), garages)
	}
	printGarages(cmd.OutOrStdout(), garages)
	return nil
}

func printGarages(w io.Writer, garages []liege.Garage) {
	if len(garages) == 0 {
		fmt.Fprintln(w, "No garages found.")
		return
	}

	for _, g := range garages {
		fmt.Fprintf(w, "• %s\n", g.Name)
		fmt.Fprintf(w, "  Address: %s\n", g.Address)
		if g.Capacity.Valid {
			fmt.Fprintf(w, "  Capacity: %d", g.Capacity.Int64)
		} else {
			fmt.Fprint(w, "  Capacity: unknown")
		}
		if g.HasChargingStations() {
			fmt.Fprintf(w, " (%d charging stations)", g.ChargingStations)
		}
		fmt.Fprintln(w)
		if g.Provider != "" {
			fmt.Fprintf(w, "  Provider: %s\n", g.Provider)
		}
		if g.Schedule != "" {
			fmt.Fprintf(w, "  Schedule: %s\n", g.Schedule)
		}
		fmt.Fprintf(w, "  Location: %.5f, %.5f\n", g.Latitude, g.Longitude)
		fmt.Fprintf(w, "  Updated: %s\n", g.UpdatedAt.Format("2006-01-02"))
	}

	fmt.Fprintln(w, strings.Repeat("_", 26))
	fmt.Fprintf(w, "Total locations found: %d\n", len(garages))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
