package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/store"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <experiment-id>",
	Short: "Export raw event data",
	Long: `Export raw event data in CSV or JSON format.

Examples:
  splitkit export checkout-cta --format csv > checkout-cta.csv
  splitkit export checkout-cta --format json > checkout-cta.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	id := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		events, err := s.Events(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(events)
		}
		return exportJSON(events)
	})
}

func exportCSV(events []experiment.Result) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	// Write header
	if err := w.Write([]string{"timestamp", "variant_id", "user_id", "metric", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// One row per metric entry, metric names sorted for stable output
	for _, e := range events {
		names := make([]string, 0, len(e.Metrics))
		for name := range e.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			row := []string{
				strconv.FormatInt(e.Timestamp, 10),
				e.VariantID,
				e.UserID,
				name,
				strconv.FormatFloat(e.Metrics[name], 'f', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	return nil
}

type jsonExport struct {
	Events []experiment.Result `json:"events"`
}

func exportJSON(events []experiment.Result) error {
	// Emit an empty array instead of null
	if events == nil {
		events = []experiment.Result{}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonExport{Events: events})
}
