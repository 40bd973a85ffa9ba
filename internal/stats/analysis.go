// Package stats turns the raw event log into per-variant aggregates, lift,
// and confidence estimates.
package stats

import (
	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/storage"
)

// MetricStats aggregates one metric within one variant.
type MetricStats struct {
	Count   int
	Sum     float64
	Average float64
}

// VariantAnalysis holds the aggregates for one variant. Variants with no
// recorded events appear with zero samples.
type VariantAnalysis struct {
	VariantID string
	Name      string
	IsControl bool
	Samples   int
	Metrics   map[string]MetricStats
}

// Analysis is the derived per-experiment aggregate. Never persisted.
type Analysis struct {
	ExperimentID string
	TotalSamples int
	Variants     []VariantAnalysis
}

// Variant returns the analysis row for a variant id, or nil.
func (a *Analysis) Variant(id string) *VariantAnalysis {
	for i := range a.Variants {
		if a.Variants[i].VariantID == id {
			return &a.Variants[i]
		}
	}
	return nil
}

// Control returns the control variant's row, or nil.
func (a *Analysis) Control() *VariantAnalysis {
	for i := range a.Variants {
		if a.Variants[i].IsControl {
			return &a.Variants[i]
		}
	}
	return nil
}

// Analyze partitions the events recorded for exp by variant and computes
// sample counts and per-metric count/sum/average. Returns nil when exp is
// nil or no event matches it.
func Analyze(exp *experiment.Experiment, events []experiment.Result) *Analysis {
	if exp == nil {
		return nil
	}

	byVariant := make(map[string][]experiment.Result)
	total := 0
	for _, ev := range events {
		if ev.ExperimentID != exp.ID {
			continue
		}
		byVariant[ev.VariantID] = append(byVariant[ev.VariantID], ev)
		total++
	}
	if total == 0 {
		return nil
	}

	an := &Analysis{ExperimentID: exp.ID, TotalSamples: total}
	for i := range exp.Variants {
		v := &exp.Variants[i]
		rows := byVariant[v.ID]

		metrics := make(map[string]MetricStats)
		for _, ev := range rows {
			for name, value := range ev.Metrics {
				m := metrics[name]
				m.Count++
				m.Sum += value
				metrics[name] = m
			}
		}
		for name, m := range metrics {
			if m.Count > 0 {
				m.Average = m.Sum / float64(m.Count)
			}
			metrics[name] = m
		}

		an.Variants = append(an.Variants, VariantAnalysis{
			VariantID: v.ID,
			Name:      v.Name,
			IsControl: v.IsControl,
			Samples:   len(rows),
			Metrics:   metrics,
		})
	}
	return an
}

// Lift is the percentage change of a variant average over the control
// average. ok is false when the control average is exactly zero.
func Lift(controlAvg, variantAvg float64) (lift float64, ok bool) {
	if controlAvg == 0 {
		return 0, false
	}
	return (variantAvg - controlAvg) / controlAvg * 100, true
}

// Aggregator answers analysis requests from the local client event log.
type Aggregator struct {
	registry *experiment.Registry
	store    storage.Store
}

func NewAggregator(registry *experiment.Registry, store storage.Store) *Aggregator {
	return &Aggregator{registry: registry, store: store}
}

// Analyze reads the local event log and aggregates it for the experiment.
// Returns (nil, nil) for an unknown experiment or an empty log.
func (g *Aggregator) Analyze(experimentID string) (*Analysis, error) {
	exp := g.registry.Get(experimentID)
	if exp == nil {
		return nil, nil
	}
	events, err := storage.LoadEvents(g.store)
	if err != nil {
		return nil, err
	}
	return Analyze(exp, events), nil
}
