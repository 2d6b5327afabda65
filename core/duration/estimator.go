// Package duration infers how long a job will take from completed jobs with
// similar service names.
package duration

import (
	"errors"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// ErrInsufficientData is returned when too few historical jobs match the
// requested services. Callers must fall back to their own default.
var ErrInsufficientData = errors.New("duration: insufficient historical data")

// Policy holds the estimator thresholds.
type Policy struct {
	// OutlierMinutes discards historical durations at or above this value.
	OutlierMinutes int
	// MinSamples is the minimum number of matching jobs.
	MinSamples int
	// ExtraServiceFactor is the share of a single-service duration added per
	// additional distinct service.
	ExtraServiceFactor float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{OutlierMinutes: 720, MinSamples: 3, ExtraServiceFactor: 0.5}
}

// Estimate is the outcome of a successful estimation.
type Estimate struct {
	Minutes int     `json:"minutes"`
	Samples int     `json:"samples"`
	Median  float64 `json:"median"`
	Mean    float64 `json:"mean"`
}

// Estimator computes duration estimates.
type Estimator struct {
	policy Policy
}

// NewEstimator creates an estimator. Zero policy fields take the defaults.
func NewEstimator(p Policy) *Estimator {
	def := DefaultPolicy()
	if p.OutlierMinutes <= 0 {
		p.OutlierMinutes = def.OutlierMinutes
	}
	if p.MinSamples <= 0 {
		p.MinSamples = def.MinSamples
	}
	if p.ExtraServiceFactor < 0 {
		p.ExtraServiceFactor = def.ExtraServiceFactor
	}
	return &Estimator{policy: p}
}

// Estimate returns the expected duration in minutes for the requested
// services. The single-service estimate is the average of the median and the
// mean of matching durations; each additional distinct service adds
// ExtraServiceFactor of it.
func (e *Estimator) Estimate(requested []string, history []model.ExistingJob) (Estimate, error) {
	names := normalize(requested)
	samples := e.Samples(names, history)
	if len(samples) < e.policy.MinSamples {
		return Estimate{Samples: len(samples)}, ErrInsufficientData
	}

	median := Median(samples)
	mean := stat.Mean(samples, nil)
	est := (median + mean) / 2
	if n := len(names); n > 1 {
		est *= 1 + e.policy.ExtraServiceFactor*float64(n-1)
	}
	return Estimate{
		Minutes: int(math.Round(est)),
		Samples: len(samples),
		Median:  median,
		Mean:    mean,
	}, nil
}

// Samples returns the valid durations of jobs matching any requested name.
// requested must already be normalized.
func (e *Estimator) Samples(requested []string, history []model.ExistingJob) []float64 {
	var out []float64
	for _, j := range history {
		slot, ok := j.Slot()
		if !ok {
			continue
		}
		d := slot.Minutes()
		if d <= 0 || d >= e.policy.OutlierMinutes {
			continue
		}
		if Matches(normalize(j.ServiceNames), requested) {
			out = append(out, float64(d))
		}
	}
	return out
}

// Matches reports whether any historical name and any requested name are
// substrings of one another. Both lists must be normalized.
func Matches(historical, requested []string) bool {
	for _, h := range historical {
		for _, r := range requested {
			if strings.Contains(h, r) || strings.Contains(r, h) {
				return true
			}
		}
	}
	return false
}

// Median returns the middle value of xs, or the average of the two middle
// values when len(xs) is even. xs is not modified.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// normalize lower-cases and trims names, dropping empties and duplicates.
func normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
