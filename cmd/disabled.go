package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/odp-liege/filter"
	"github.com/s0up4200/odp-liege/liege"
)

// disabledCmd represents the disabled-parkings command
var disabledCmd = &cobra.Command{
	Use:     "disabled-parkings",
	Aliases: []string{"pmr"},
	Short:   "List parking spots reserved for disabled people",
	PreRunE: initializeApp,
	RunE:    runDisabledParkings,
}

func init() {
	rootCmd.AddCommand(disabledCmd)
	addQueryFlags(disabledCmd)
}

func runDisabledParkings(cmd *cobra.Command, args []string) error {
	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	spots, err := client.DisabledParkings(cmd.Context(), effectiveLimit())
	if err != nil {
		return fmt.Errorf("failed to get disabled parkings: %w", err)
	}

	spots, err = filter.DisabledParkings(f, spots)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), spots)
	}
	printDisabledParkings(cmd.OutOrStdout(), spots)
	return nil
}

func printDisabledParkings(w io.Writer, spots []liege.DisabledParking) {
	for _, p := range spots {
		fmt.Fprintf(w, "• %s [%s]\n", p.Address, p.SpotID)
		fmt.Fprintf(w, "  Spaces: %d  Status: %s\n", p.Number, p.Status)
		fmt.Fprintf(w, "  Location: %.5f, %.5f\n", p.Latitude, p.Longitude)
	}

	fmt.Fprintln(w, strings.Repeat("_", 26))
	fmt.Fprintf(w, "Total locations found: %d\n", len(spots))
	fmt.Fprintf(w, "Unique ID values: %d\n", countUniqueSpots(spots))
}

// countUniqueSpots returns the number of distinct spot IDs
func countUniqueSpots(spots []liege.DisabledParking) int {
	seen := make(map[string]struct{}, len(spots))
	for _, p := range spots {
		seen[p.SpotID] = struct{}{}
	}
	return len(seen)
}
