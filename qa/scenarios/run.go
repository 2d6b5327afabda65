package scenarios

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/distance"
	"github.com/kwikdrytn/kwikdry-sub000/infra/logger"
	"github.com/kwikdrytn/kwikdry-sub000/infra/metrics"
	"github.com/kwikdrytn/kwikdry-sub000/infra/reasoning"
	"github.com/kwikdrytn/kwikdry-sub000/infra/store"
	"github.com/kwikdrytn/kwikdry-sub000/internal/eventbus"
)

// scripted answers every ranking with the same text.
type scripted string

func (s scripted) Reason(context.Context, assembler.RankingContext) (string, error) {
	return string(s), nil
}

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	assembler.ResetMetrics(reg)
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	var r assembler.Reasoner = scripted(sc.Response)
	if sc.Reasoner == "heuristic" {
		r = reasoning.NewHeuristicReasoner()
	}
	policy := assembler.DefaultPolicy()
	asm, err := assembler.New(store.NewMemory(&sc.Data), distance.NewRanker(nil, 5, time.Second, nil), r, policy, logger.NopLogger{})
	require.NoError(t, err)
	asm.SetMetricsSink(sink)
	asm.SetClock(func() time.Time { return sc.Today.Time().Add(9 * time.Hour) })

	ctx, cancel := context.WithCancel(context.Background())
	bus := eventbus.New()
	asm.SetEventBus(bus)
	done := metrics.StartEventCollector(ctx, bus, sink)

	res, err := asm.Suggest(context.Background(), sc.Request)
	require.NoError(t, err)
	bus.Close()
	<-done
	cancel()

	exp := sc.Expected
	assert.Equal(t, exp.State, string(res.State), "state")
	assert.Equal(t, exp.FailureReason, string(res.FailureReason), "failure reason")
	assert.Equal(t, 1.0, metricValue(t, reg, "rankings_total", nil), "one ranking recorded")

	rc := res.Context
	require.NotNil(t, rc)
	if exp.Zone != "" {
		require.NotNil(t, rc.Zone, "zone")
		assert.Equal(t, exp.Zone, rc.Zone.ID)
	}
	if exp.Anchor != "" {
		require.NotNil(t, rc.Anchor, "anchor")
		assert.Equal(t, exp.Anchor, rc.Anchor.JobID)
	}
	if exp.Shortlist != nil {
		var ids []string
		for _, c := range rc.Shortlist {
			ids = append(ids, c.TechnicianID)
		}
		assert.Equal(t, exp.Shortlist, ids, "shortlist")
	}
	if exp.DurationMinutes != 0 {
		assert.Equal(t, exp.DurationMinutes, rc.DurationMinutes, "duration")
	}
	if exp.DurationSource != "" {
		assert.Equal(t, exp.DurationSource, rc.DurationSource, "duration source")
	}

	var techs, slots []string
	for _, s := range res.Suggestions {
		techs = append(techs, s.TechnicianID)
		slots = append(slots, fmt.Sprintf("%s %s-%s", s.Date, s.Slot.Start, s.Slot.End))

		assert.True(t, policy.IsCanonical(s.Slot.Start), "start %s is not a standard start time", s.Slot.Start)
		assert.Equal(t, rc.DurationMinutes, s.Slot.Minutes(), "slot length")
		assert.Equal(t, s.Date.Weekday().String(), s.DayName)
	}
	assert.LessOrEqual(t, len(res.Suggestions), policy.MaxSuggestions)
	if exp.Technicians != nil {
		assert.Equal(t, exp.Technicians, techs, "suggested technicians")
	}
	if exp.Slots != nil {
		assert.Equal(t, exp.Slots, slots, "suggested slots")
	}
	if exp.NoSuggestions {
		assert.Empty(t, res.Suggestions)
	}
	assert.GreaterOrEqual(t, len(res.Suggestions), exp.MinSuggestions)

	var rules []string
	for _, d := range res.Dropped {
		rules = append(rules, d.Rule)
	}
	if exp.Dropped != nil || sc.Reasoner != "heuristic" {
		assert.Equal(t, exp.Dropped, rules, "dropped rules")
	}
	for _, rule := range exp.Dropped {
		assert.Positive(t, metricValue(t, reg, "ranking_suggestion_drops_total", map[string]string{"rule": rule}),
			"drop %s reached the sink", rule)
	}
	for _, w := range exp.Warnings {
		assert.True(t, containsWarning(res.Warnings, w), "missing warning %q in %v", w, res.Warnings)
	}
}

func containsWarning(warnings []string, sub string) bool {
	for _, w := range warnings {
		if strings.Contains(w, sub) {
			return true
		}
	}
	return false
}

// metricValue sums the counter series of name whose labels include labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m.GetLabel(), labels) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	found := 0
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; ok && v == p.GetValue() {
			found++
		}
	}
	return found == len(want)
}
