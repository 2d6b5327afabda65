// Package distance ranks technicians by how far they live from a job site.
//
// Ranking starts from a cheap straight-line ordering and refines the closest
// few technicians with driving distances from a routed Provider. The provider
// is best-effort: any failure leaves the affected technician on its
// straight-line distance and Rank never returns an error.
package distance

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

const (
	// DefaultLimit is the number of routed lookups issued per ranking.
	DefaultLimit = 5
	// DefaultTimeout bounds each routed lookup.
	DefaultTimeout = 5 * time.Second
)

// Route is a driving distance and duration between two points.
type Route struct {
	Miles   float64
	Minutes float64
}

// Provider returns driving routes. Implementations must honour ctx.
type Provider interface {
	Route(ctx context.Context, from, to model.Coordinate) (Route, error)
}

// Ranked is one technician in a distance ranking.
type Ranked struct {
	TechnicianID      string   `json:"technician_id"`
	Name              string   `json:"name"`
	StraightLineMiles float64  `json:"straight_line_miles"`
	DrivingMiles      *float64 `json:"driving_miles,omitempty"`
	DrivingMinutes    *float64 `json:"driving_minutes,omitempty"`
}

// EffectiveMiles returns the driving distance when known, else the
// straight-line distance.
func (r Ranked) EffectiveMiles() float64 {
	if r.DrivingMiles != nil {
		return *r.DrivingMiles
	}
	return r.StraightLineMiles
}

// Ranker orders technicians by distance to a target.
type Ranker struct {
	provider Provider
	limit    int
	timeout  time.Duration
	logger   logger.Logger
}

// NewRanker creates a ranker. A nil provider yields straight-line rankings
// only. Non-positive limit and timeout fall back to the defaults.
func NewRanker(p Provider, limit int, timeout time.Duration, log logger.Logger) *Ranker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ranker{provider: p, limit: limit, timeout: timeout, logger: logger.OrNop(log)}
}

// Rank returns technicians with a home coordinate ordered by distance to
// target. The first Limit entries are re-sorted by driving distance where a
// route was found; the remainder keep their straight-line order.
func (r *Ranker) Rank(ctx context.Context, target model.Coordinate, techs []model.Technician) []Ranked {
	ranked := StraightLine(target, techs)
	if r.provider == nil || len(ranked) == 0 {
		return ranked
	}

	k := r.limit
	if k > len(ranked) {
		k = len(ranked)
	}
	homes := make(map[string]model.Coordinate, k)
	for _, t := range techs {
		if t.Home != nil {
			homes[t.ID] = *t.Home
		}
	}

	head := ranked[:k]
	var g errgroup.Group
	g.SetLimit(k)
	for i := range head {
		i := i
		g.Go(func() error {
			route, ok := r.lookup(ctx, homes[head[i].TechnicianID], target, head[i].TechnicianID)
			if ok {
				miles, minutes := route.Miles, route.Minutes
				head[i].DrivingMiles = &miles
				head[i].DrivingMinutes = &minutes
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(head, func(a, b int) bool {
		return head[a].EffectiveMiles() < head[b].EffectiveMiles()
	})
	return ranked
}

// lookup performs one routed lookup under its own timeout. Each goroutine
// writes only its own slice element, so no locking is needed.
func (r *Ranker) lookup(ctx context.Context, from, to model.Coordinate, techID string) (Route, bool) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	route, err := r.provider.Route(cctx, from, to)
	routedLookupDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil && route.Miles >= 0:
		routedLookups.WithLabelValues("ok").Inc()
		return route, true
	case err == nil:
		routedLookups.WithLabelValues("invalid").Inc()
		r.logger.Warnf("routed lookup for %s returned negative distance", techID)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		routedLookups.WithLabelValues("timeout").Inc()
		r.logger.Warnf("routed lookup for %s abandoned: %v", techID, err)
	default:
		routedLookups.WithLabelValues("error").Inc()
		r.logger.Warnf("routed lookup for %s failed: %v", techID, err)
	}
	return Route{}, false
}

// StraightLine ranks technicians by haversine distance only. Technicians
// without a home coordinate are skipped; ties keep input order.
func StraightLine(target model.Coordinate, techs []model.Technician) []Ranked {
	out := make([]Ranked, 0, len(techs))
	for _, t := range techs {
		if t.Home == nil {
			continue
		}
		out = append(out, Ranked{
			TechnicianID:      t.ID,
			Name:              t.Name,
			StraightLineMiles: geo.Distance(*t.Home, target),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StraightLineMiles < out[j].StraightLineMiles
	})
	return out
}
