package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	Long:  `List every registered experiment with its status and collected event count.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	experiments := reg.All()
	if len(experiments) == 0 {
		fmt.Println("No experiments defined.")
		fmt.Printf("Add definitions to %s and redeploy.\n", registryPath)
		return nil
	}

	return withStore(func(s *store.SQLiteStore) error {
		counts, err := s.ExperimentCounts(context.Background())
		if err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tVARIANTS\tPRIMARY METRIC\tEVENTS")

		for _, exp := range experiments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
				exp.ID,
				exp.Name,
				strings.ToUpper(string(exp.Status)),
				len(exp.Variants),
				exp.PrimaryMetric,
				counts[exp.ID],
			)
		}

		return w.Flush()
	})
}
