package stats

import "math"

// AssignmentMetric is the metric name the allocator emits when a variant
// is first allocated; its per-variant count is the exposure denominator
// for conversion-rate confidence.
const AssignmentMetric = "assignment"

// VariantConversion is the binomial view of one variant for a single
// metric: how many users were exposed and how many converted at least once.
type VariantConversion struct {
	VariantID   string
	Name        string
	IsControl   bool
	Exposures   int
	Conversions int
	Rate        float64
	CILower     float64
	CIUpper     float64
}

// ConversionSummary reduces an analysis to per-variant conversion rates on
// one metric, with Wilson 95% intervals. Exposures come from the recorded
// assignment events; a variant with none reports a zero rate.
func ConversionSummary(an *Analysis, metric string) []VariantConversion {
	if an == nil {
		return nil
	}

	out := make([]VariantConversion, 0, len(an.Variants))
	for _, v := range an.Variants {
		exposures := v.Metrics[AssignmentMetric].Count
		conversions := v.Metrics[metric].Count

		rate := 0.0
		if exposures > 0 {
			rate = float64(conversions) / float64(exposures)
		}
		lower, upper := WilsonInterval(conversions, exposures, 0.95)

		out = append(out, VariantConversion{
			VariantID:   v.VariantID,
			Name:        v.Name,
			IsControl:   v.IsControl,
			Exposures:   exposures,
			Conversions: conversions,
			Rate:        rate,
			CILower:     lower,
			CIUpper:     upper,
		})
	}
	return out
}

// Significance runs a two-proportion z-test and returns the confidence
// (0-1) that variant A converts better than variant B.
func Significance(aConv, aExposures, bConv, bExposures int) float64 {
	if aExposures == 0 || bExposures == 0 {
		return 0.5
	}

	pA := float64(aConv) / float64(aExposures)
	pB := float64(bConv) / float64(bExposures)

	// Pooled proportion under the null hypothesis pA == pB.
	pooled := float64(aConv+bConv) / float64(aExposures+bExposures)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aExposures) + 1/float64(bExposures)))
	if se == 0 {
		switch {
		case pA > pB:
			return 1.0
		case pA < pB:
			return 0.0
		default:
			return 0.5
		}
	}

	z := (pA - pB) / se
	return normalCDF(z)
}

// WilsonInterval is the Wilson score confidence interval for a binomial
// proportion. Behaves better than the normal approximation on small
// samples.
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials == 0 {
		return 0, 0
	}

	z := zScore(confidence)
	p := float64(successes) / float64(trials)
	n := float64(trials)

	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	spread := (z / denom) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	lower = math.Max(center-spread, 0)
	upper = math.Min(center+spread, 1)
	return lower, upper
}

// zScore maps a confidence level to the two-tailed standard normal
// quantile. Common levels use the textbook values.
func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	case confidence >= 0.80:
		return 1.28
	default:
		return 0.674 // 50%
	}
}

// normalCDF approximates the standard normal CDF using Abramowitz &
// Stegun formula 7.1.26.
func normalCDF(x float64) float64 {
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
