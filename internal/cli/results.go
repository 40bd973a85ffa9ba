package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/stats"
	"github.com/splitkit/splitkit/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <experiment-id>",
	Short: "Show detailed results for an experiment",
	Long:  `Show per-variant samples, metric averages, lift over control, and statistical confidence.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	id := args[0]

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	exp := reg.Get(id)
	if exp == nil {
		return fmt.Errorf("experiment '%s' not found in registry", id)
	}

	return withStore(func(s *store.SQLiteStore) error {
		events, err := s.Events(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		an := stats.Analyze(exp, events)
		if an == nil {
			fmt.Printf("No events recorded yet for '%s'.\n", id)
			return nil
		}

		// Header
		fmt.Printf("EXPERIMENT: %s (%s)\n", exp.Name, exp.ID)
		fmt.Printf("STATUS: %s\n", exp.Status)
		fmt.Printf("PRIMARY METRIC: %s\n", exp.PrimaryMetric)
		fmt.Printf("TOTAL SAMPLES: %d\n", an.TotalSamples)
		fmt.Println()

		printMetricTables(an)
		printLift(an)
		printConfidence(an, exp.PrimaryMetric)

		return nil
	})
}

// printMetricTables prints one count/sum/average table per metric name.
func printMetricTables(an *stats.Analysis) {
	for _, metric := range metricNames(an) {
		fmt.Printf("METRIC: %s\n", metric)
		fmt.Println("VARIANT           SAMPLES  COUNT    SUM        AVERAGE")
		fmt.Println(strings.Repeat("─", 58))

		for _, v := range an.Variants {
			m := v.Metrics[metric]
			fmt.Printf("%-16s  %-7d  %-7d  %-9.2f  %.4f\n",
				truncate(v.Name, 16), v.Samples, m.Count, m.Sum, m.Average)
		}
		fmt.Println()
	}
}

// printLift prints each variant's lift over the control for every metric.
func printLift(an *stats.Analysis) {
	control := an.Control()
	if control == nil {
		return
	}

	for _, metric := range metricNames(an) {
		if metric == stats.AssignmentMetric {
			continue
		}
		controlAvg := control.Metrics[metric].Average
		for _, v := range an.Variants {
			if v.VariantID == control.VariantID {
				continue
			}
			lift, ok := stats.Lift(controlAvg, v.Metrics[metric].Average)
			if !ok {
				fmt.Printf("Lift (%s, %s vs %s): n/a (control average is zero)\n",
					metric, v.Name, control.Name)
				continue
			}
			fmt.Printf("Lift (%s, %s vs %s): %+.1f%%\n", metric, v.Name, control.Name, lift)
		}
	}
	fmt.Println()
}

// printConfidence prints Wilson intervals on the primary-metric conversion
// rate and a significance verdict for the leading variant.
func printConfidence(an *stats.Analysis, primary string) {
	if primary == "" {
		return
	}

	summary := stats.ConversionSummary(an, primary)
	if len(summary) < 2 {
		return
	}

	fmt.Printf("CONVERSION (%s)\n", primary)
	fmt.Println("VARIANT           EXPOSED  CONVERTED  RATE     95% CI")
	fmt.Println(strings.Repeat("─", 60))

	leading := 0
	for i, v := range summary {
		if v.Rate > summary[leading].Rate {
			leading = i
		}
	}

	for i, v := range summary {
		indicator := ""
		if i == leading {
			indicator = " ← LEADING"
		}

		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Exposures == 0 {
			ciStr = "N/A"
		}

		fmt.Printf("%-16s  %-7d  %-9d  %-7s  %s%s\n",
			truncate(v.Name, 16), v.Exposures, v.Conversions, formatPercent(v.Rate), ciStr, indicator)
	}
	fmt.Println()

	control := 0
	for i, v := range summary {
		if v.IsControl {
			control = i
		}
	}

	var confidence float64
	if leading == control {
		// Control is leading; compare it against the best challenger.
		challenger := (control + 1) % len(summary)
		for i, v := range summary {
			if i != control && v.Rate > summary[challenger].Rate {
				challenger = i
			}
		}
		confidence = stats.Significance(
			summary[control].Conversions, summary[control].Exposures,
			summary[challenger].Conversions, summary[challenger].Exposures,
		)
	} else {
		confidence = stats.Significance(
			summary[leading].Conversions, summary[leading].Exposures,
			summary[control].Conversions, summary[control].Exposures,
		)
	}

	confPct := confidence * 100
	leadingName := summary[leading].Name
	switch {
	case confidence >= 0.95:
		fmt.Printf("Statistical significance: %.1f%% confident \"%s\" is the winner\n", confPct, leadingName)
	case confPct >= 90:
		fmt.Printf("Statistical significance: %.1f%% confident \"%s\" leads (not yet significant)\n", confPct, leadingName)
	default:
		fmt.Println("Statistical significance: Not enough data to determine a winner")
	}
}

func metricNames(an *stats.Analysis) []string {
	seen := make(map[string]bool)
	for _, v := range an.Variants {
		for name := range v.Metrics {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
