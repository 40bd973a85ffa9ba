package cli

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/allocator"
	"github.com/splitkit/splitkit/internal/audience"
	"github.com/splitkit/splitkit/internal/config"
	"github.com/splitkit/splitkit/internal/identity"
	"github.com/splitkit/splitkit/internal/recorder"
	"github.com/splitkit/splitkit/internal/storage"
)

var (
	simulateUsers     int
	simulateRate      float64
	simulateUserAgent string
	simulatePost      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <experiment-id>",
	Short: "Run synthetic users through the assignment pipeline",
	Long: `Drive synthetic users through identity, audience targeting, allocation,
and conversion recording, then print the realized variant split.

Useful for sanity-checking weights and targeting before a deploy.

Examples:
  splitkit simulate checkout-cta --users 10000
  splitkit simulate checkout-cta --users 5000 --convert-rate 0.1`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVarP(&simulateUsers, "users", "n", 10000, "number of synthetic users")
	simulateCmd.Flags().Float64Var(&simulateRate, "convert-rate", 0, "probability a user converts on the primary metric")
	simulateCmd.Flags().StringVar(&simulateUserAgent, "user-agent", "Mozilla/5.0 (Macintosh)", "user agent for the synthetic clients")
	simulateCmd.Flags().BoolVar(&simulatePost, "post", false, "forward events to the collector at SK_COLLECTOR_URL")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	id := args[0]

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	exp := reg.Get(id)
	if exp == nil {
		return fmt.Errorf("experiment '%s' not found in registry", id)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	// With --post, events also flow to the collector through the same
	// delivery worker real clients use.
	var sink recorder.Sink = recorder.NopSink{}
	if simulatePost {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		tokenStore := storage.NewMemoryStore()
		if cfg.Token != "" {
			if err := tokenStore.Set(storage.KeyAuthToken, cfg.Token); err != nil {
				return err
			}
		}
		httpSink := recorder.NewHTTPSink(cfg.CollectorURL, tokenStore, log, recorder.SinkOptions{
			QueueSize:   cfg.DeliveryQueueSize,
			MaxAttempts: cfg.DeliveryMaxAttempts,
			Timeout:     cfg.DeliveryTimeout,
		})
		defer httpSink.Close()
		sink = httpSink
	}

	counts := make(map[string]int)
	conversions := make(map[string]int)
	excluded := 0

	// Each synthetic user gets its own in-memory client state.
	for i := 0; i < simulateUsers; i++ {
		st := storage.NewMemoryStore()

		client, err := audience.ContextFromStore(st, "", simulateUserAgent, "")
		if err != nil {
			return err
		}

		// Per-user logging off; 10k synthetic users would drown the output.
		ids := identity.NewProvider(st)
		rec := recorder.New(st, ids, sink, zap.NewNop())
		alloc := allocator.New(reg, st, ids, client, rec, zap.NewNop())

		v, err := alloc.Assign(id)
		if err != nil {
			return err
		}
		if v == nil {
			excluded++
			continue
		}
		counts[v.ID]++

		if simulateRate > 0 && rand.Float64() < simulateRate {
			rec.RecordConversion(id, exp.PrimaryMetric, 1)
			conversions[v.ID]++
		}
	}

	assigned := simulateUsers - excluded

	fmt.Printf("SIMULATION: %s, %d users\n", exp.ID, simulateUsers)
	if excluded > 0 {
		fmt.Printf("Excluded by audience/status: %d\n", excluded)
	}
	fmt.Println()
	fmt.Println("VARIANT           WEIGHT   ASSIGNED  SHARE              CONVERSIONS")
	fmt.Println(strings.Repeat("─", 66))

	var totalWeight float64
	for _, v := range exp.Variants {
		totalWeight += v.Weight
	}

	for _, v := range exp.Variants {
		share := 0.0
		if assigned > 0 {
			share = float64(counts[v.ID]) / float64(assigned) * 100
		}
		expected := 0.0
		if totalWeight > 0 {
			expected = v.Weight / totalWeight * 100
		}
		fmt.Printf("%-16s  %-7.1f  %-8d  %5.1f%% (exp %5.1f%%)  %d\n",
			truncate(v.Name, 16), v.Weight, counts[v.ID], share, expected, conversions[v.ID])
	}

	return nil
}
