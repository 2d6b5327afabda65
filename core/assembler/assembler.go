// Package assembler orchestrates one ranking operation: it builds a bounded
// context from the zone, distance, duration, schedule and skill components,
// asks an external Reasoner for suggestions and validates what comes back
// against the hard scheduling rules.
//
// A ranking moves through building, awaiting_external_ranking and ends in
// validated or failed. Every transition is published on the event bus.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kwikdrytn/kwikdry-sub000/core/audit"
	"github.com/kwikdrytn/kwikdry-sub000/core/distance"
	"github.com/kwikdrytn/kwikdry-sub000/core/duration"
	"github.com/kwikdrytn/kwikdry-sub000/core/events"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/metrics"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
	"github.com/kwikdrytn/kwikdry-sub000/core/skills"
	"github.com/kwikdrytn/kwikdry-sub000/core/store"
	"github.com/kwikdrytn/kwikdry-sub000/core/zone"
	"github.com/kwikdrytn/kwikdry-sub000/internal/eventbus"
)

// Reasoner turns a ranking context into suggestions. The returned text is
// expected to hold a JSON object matching the response schema. Failures
// should wrap ErrRateLimited, ErrQuotaExhausted or ErrUpstream.
type Reasoner interface {
	Reason(ctx context.Context, rc RankingContext) (string, error)
}

// Snapshot is the data read for one ranking operation.
type Snapshot struct {
	Today       model.Date
	Zones       []model.ServiceZone
	Technicians []model.Technician
	Skills      []model.SkillRecord
	Scheduled   []model.ExistingJob
	History     []model.ExistingJob
}

// Result is the outcome of a ranking operation. Suggestions is never nil
// once the operation reached a terminal state.
type Result struct {
	RequestID     string                      `json:"request_id"`
	State         State                       `json:"state"`
	Suggestions   []model.CandidateSuggestion `json:"suggestions"`
	Analysis      string                      `json:"analysis,omitempty"`
	Warnings      []string                    `json:"warnings,omitempty"`
	FailureReason FailureReason               `json:"failure_reason,omitempty"`
	Dropped       []Drop                      `json:"dropped,omitempty"`
	Context       *RankingContext             `json:"context,omitempty"`
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Assembler runs ranking operations. It holds no per-request state and is
// safe for concurrent use.
type Assembler struct {
	reader    store.Reader
	ranker    *distance.Ranker
	reasoner  Reasoner
	estimator *duration.Estimator
	policy    Policy
	logger    logger.Logger

	mu      sync.RWMutex
	bus     eventbus.Publisher
	metrics metrics.MetricsSink
	audit   audit.Store
	now     func() time.Time
}

// New creates an Assembler. reader may be nil when callers only use
// Assemble with their own snapshots.
func New(reader store.Reader, ranker *distance.Ranker, reasoner Reasoner, p Policy, log logger.Logger) (*Assembler, error) {
	if ranker == nil || reasoner == nil {
		return nil, fmt.Errorf("assembler: nil parameter provided to New")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{
		reader:    reader,
		ranker:    ranker,
		reasoner:  reasoner,
		estimator: duration.NewEstimator(p.Duration),
		policy:    p,
		logger:    logger.OrNop(log),
		metrics:   metrics.NopSink{},
		audit:     audit.NopStore{},
		now:       time.Now,
	}, nil
}

// SetEventBus configures where state transitions are published.
func (a *Assembler) SetEventBus(bus eventbus.Publisher) {
	a.mu.Lock()
	a.bus = bus
	a.mu.Unlock()
}

// SetMetricsSink configures the sink receiving one event per ranking.
func (a *Assembler) SetMetricsSink(sink metrics.MetricsSink) {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	a.mu.Lock()
	a.metrics = sink
	a.mu.Unlock()
}

// SetAuditStore configures the store used to persist ranking records.
func (a *Assembler) SetAuditStore(st audit.Store) {
	if st == nil {
		st = audit.NopStore{}
	}
	a.mu.Lock()
	a.audit = st
	a.mu.Unlock()
}

// SetClock overrides the clock used to pick the scheduling window.
func (a *Assembler) SetClock(now func() time.Time) {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
}

// Policy returns the policy in use.
func (a *Assembler) Policy() Policy { return a.policy }

// Suggest loads a fresh snapshot from the store and ranks req against it.
func (a *Assembler) Suggest(ctx context.Context, req model.NewJobRequest) (*Result, error) {
	snap, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	return a.Assemble(ctx, req, snap)
}

// Load reads everything a ranking needs. The queries run concurrently.
func (a *Assembler) Load(ctx context.Context) (Snapshot, error) {
	if a.reader == nil {
		return Snapshot{}, fmt.Errorf("assembler: no store configured")
	}
	a.mu.RLock()
	today := model.DateOf(a.now())
	a.mu.RUnlock()
	from, to := schedule.Window(today, a.policy.WindowDays)

	snap := Snapshot{Today: today}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Zones, err = a.reader.Zones(gctx)
		return wrapLoad("zones", err)
	})
	g.Go(func() (err error) {
		snap.Technicians, err = a.reader.Technicians(gctx)
		return wrapLoad("technicians", err)
	})
	g.Go(func() (err error) {
		snap.Skills, err = a.reader.SkillRecords(gctx)
		return wrapLoad("skill records", err)
	})
	g.Go(func() (err error) {
		snap.Scheduled, err = a.reader.ScheduledJobs(gctx, from, to)
		return wrapLoad("scheduled jobs", err)
	})
	g.Go(func() (err error) {
		snap.History, err = a.reader.CompletedJobs(gctx, a.policy.HistoryLimit)
		return wrapLoad("completed jobs", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func wrapLoad(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("assembler: load %s: %w", what, err)
}

// Assemble runs one ranking operation against snap.
//
// It returns a *Failure when the reasoning service failed, the context
// error when ctx ended first, and ErrInvalidRequest for requests without a
// service name. An unreadable response or a response whose suggestions all
// fail validation is not an error: the result carries an empty list and a
// warning.
func (a *Assembler) Assemble(ctx context.Context, req model.NewJobRequest, snap Snapshot) (*Result, error) {
	services := cleanServices(req.ServiceNames)
	if len(services) == 0 {
		return nil, fmt.Errorf("%w: at least one service name is required", ErrInvalidRequest)
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidRequest)
	}

	started := time.Now()
	res := &Result{RequestID: uuid.NewString()}
	a.transition(res, StateBuilding, "")

	rc, sk := a.build(ctx, req, services, snap, res)
	res.Context = &rc
	a.transition(res, StateAwaitingExternalRanking, "")

	rctx, cancel := context.WithTimeout(ctx, a.policy.ReasoningTimeout)
	raw, err := a.reasoner.Reason(rctx, rc)
	cancel()
	if err != nil {
		res.Suggestions = []model.CandidateSuggestion{}
		if ctx.Err() != nil {
			a.logger.Infof("ranking %s abandoned by caller", res.RequestID)
			a.finish(ctx, res, req, StateFailed, "", started)
			return res, ctx.Err()
		}
		reason := classify(err)
		a.logger.Errorf("ranking %s: reasoning failed (%s): %v", res.RequestID, reason, err)
		a.finish(ctx, res, req, StateFailed, reason, started)
		return res, &Failure{Reason: reason, Err: err}
	}

	switch p := ParseResponse(raw).(type) {
	case Unparseable:
		a.logger.Warnf("ranking %s: unreadable reasoning response: %s", res.RequestID, p.Reason)
		res.Suggestions = []model.CandidateSuggestion{}
		res.warn("The suggestion service returned a response that could not be read; no suggestions are available.")
		a.finish(ctx, res, req, StateFailed, ReasonUnparseableResponse, started)
	case Parsed:
		v := newValidator(a.policy, rc, sk, snap.Scheduled)
		accepted, drops := v.Validate(p.Suggestions)
		a.recordDrops(res.RequestID, drops)
		if accepted == nil {
			accepted = []model.CandidateSuggestion{}
		}
		res.Suggestions = accepted
		res.Dropped = drops
		res.Analysis = strings.TrimSpace(p.Analysis)
		res.Warnings = append(res.Warnings, p.Warnings...)
		if len(accepted) == 0 {
			res.warn("No suggestion satisfied the scheduling rules.")
		}
		a.finish(ctx, res, req, StateValidated, "", started)
	}
	return res, nil
}

// build runs the building state and returns the context handed to the
// reasoner together with the skill model used for validation.
func (a *Assembler) build(ctx context.Context, req model.NewJobRequest, services []string, snap Snapshot, res *Result) (RankingContext, *skills.Model) {
	minutes, source := a.resolveDuration(services, req.DurationMinutes, snap.History, res)
	sk := skills.New(snap.Skills)

	eligible := make([]model.Technician, 0, len(snap.Technicians))
	for _, t := range snap.Technicians {
		if sk.ExcludedForAny(t.ID, services) {
			a.logger.Debugw("technician hard excluded", map[string]any{
				"request_id":    res.RequestID,
				"technician_id": t.ID,
			})
			continue
		}
		eligible = append(eligible, t)
	}

	ranked := a.ranker.Rank(ctx, req.Target, eligible)
	ranked = orderBySkill(ranked, func(id string) model.SkillLevel {
		return sk.LevelForRequest(id, services)
	}, a.policy.SkillTieBreakMiles)
	if len(ranked) > a.policy.ShortlistSize {
		ranked = ranked[:a.policy.ShortlistSize]
	}
	shortlist := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		shortlist = append(shortlist, Candidate{
			TechnicianID:      r.TechnicianID,
			Name:              r.Name,
			StraightLineMiles: r.StraightLineMiles,
			DrivingMiles:      r.DrivingMiles,
			DrivingMinutes:    r.DrivingMinutes,
			SkillMatch:        sk.LevelForRequest(r.TechnicianID, services),
			Skills:            sk.Summarize(r.TechnicianID),
		})
	}
	if len(shortlist) == 0 {
		res.warn("No eligible technician with a known home location was found.")
	}

	from, to := schedule.Window(snap.Today, a.policy.WindowDays)
	sc := schedule.Build(req.Target, inWindow(snap.Scheduled, from, to), a.policy.Schedule)

	rc := RankingContext{
		RequestID:          res.RequestID,
		Target:             req.Target,
		ServiceNames:       services,
		DurationMinutes:    minutes,
		DurationSource:     source,
		Anchor:             newAnchor(sc.Closest),
		Shortlist:          shortlist,
		Narrative:          sc.Narrative(),
		DateLoads:          dateLoads(sc),
		WindowStart:        from,
		WindowEnd:          to,
		StandardStartTimes: a.policy.StandardStartTimes,
		PreferredDays:      req.PreferredDays,
		PreferredWindow:    req.PreferredWindow,
		MaxSuggestions:     a.policy.MaxSuggestions,
		Schedule:           sc,
	}
	if z := zone.Match(req.Target, snap.Zones); z != nil {
		rc.Zone = &ZoneRef{ID: z.ID, Name: z.Name}
	}
	if req.Restrictions != nil {
		rc.Restrictions = strings.TrimSpace(*req.Restrictions)
	}
	return rc, sk
}

func (a *Assembler) resolveDuration(services []string, requested *int, history []model.ExistingJob, res *Result) (int, string) {
	if requested != nil {
		return *requested, DurationFromRequest
	}
	est, err := a.estimator.Estimate(services, history)
	if err == nil {
		return est.Minutes, DurationFromHistory
	}
	if !errors.Is(err, duration.ErrInsufficientData) {
		a.logger.Warnf("duration estimate failed: %v", err)
	}
	res.warn("Not enough completed jobs to estimate the duration (%d found); using the default of %d minutes.",
		est.Samples, a.policy.DefaultDurationMinutes)
	return a.policy.DefaultDurationMinutes, DurationFromDefault
}

// orderBySkill applies the skill tie-break. A run starts at a technician
// and takes every following technician within bucketMiles of it; each run is
// ordered preferred, standard, avoid and the distance order between runs is
// untouched.
func orderBySkill(ranked []distance.Ranked, level func(string) model.SkillLevel, bucketMiles float64) []distance.Ranked {
	bucketMiles = math.Max(bucketMiles, 0)
	out := append([]distance.Ranked(nil), ranked...)
	for start := 0; start < len(out); {
		first := out[start].EffectiveMiles()
		end := start + 1
		for end < len(out) && math.Abs(out[end].EffectiveMiles()-first) <= bucketMiles {
			end++
		}
		run := out[start:end]
		sort.SliceStable(run, func(i, j int) bool {
			return skills.Compare(level(run[i].TechnicianID), level(run[j].TechnicianID)) < 0
		})
		start = end
	}
	return out
}

func inWindow(jobs []model.ExistingJob, from, to model.Date) []model.ExistingJob {
	out := make([]model.ExistingJob, 0, len(jobs))
	for _, j := range jobs {
		if j.ScheduledDate == nil {
			continue
		}
		if d := *j.ScheduledDate; d.Before(from) || !d.Before(to) {
			continue
		}
		out = append(out, j)
	}
	return out
}

func cleanServices(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (a *Assembler) transition(res *Result, to State, reason FailureReason) {
	from := res.State
	res.State = to
	res.FailureReason = reason
	a.mu.RLock()
	bus := a.bus
	a.mu.RUnlock()
	if bus != nil {
		bus.Publish(events.StateEvent{
			RequestID: res.RequestID,
			From:      string(from),
			To:        string(to),
			Reason:    string(reason),
			Time:      time.Now(),
		})
	}
}

func (a *Assembler) recordDrops(requestID string, drops []Drop) {
	a.mu.RLock()
	bus := a.bus
	a.mu.RUnlock()
	for _, d := range drops {
		suggestionsDropped.WithLabelValues(d.Rule).Inc()
		a.logger.Debugw("suggestion dropped", map[string]any{
			"request_id":    requestID,
			"index":         d.Index,
			"technician_id": d.TechnicianID,
			"rule":          d.Rule,
			"detail":        d.Detail,
		})
		if bus != nil {
			bus.Publish(events.SuggestionDroppedEvent{
				RequestID:    requestID,
				TechnicianID: d.TechnicianID,
				Rule:         d.Rule,
				Detail:       d.Detail,
			})
		}
	}
}

// finish moves res to a terminal state and reports it.
func (a *Assembler) finish(ctx context.Context, res *Result, req model.NewJobRequest, to State, reason FailureReason, started time.Time) {
	a.transition(res, to, reason)
	elapsed := time.Since(started)
	rankingOperations.WithLabelValues(string(to)).Inc()
	rankingLatency.Observe(elapsed.Seconds())
	if reason != "" {
		rankingFailures.WithLabelValues(string(reason)).Inc()
	}

	a.mu.RLock()
	sink, st := a.metrics, a.audit
	a.mu.RUnlock()

	rc := res.Context
	ev := metrics.RankingEvent{
		RequestID:     res.RequestID,
		State:         string(to),
		FailureReason: string(reason),
		Suggestions:   len(res.Suggestions),
		Dropped:       len(res.Dropped),
		Latency:       elapsed,
		Time:          time.Now(),
	}
	rec := audit.Record{
		Timestamp:     ev.Time,
		RequestID:     res.RequestID,
		Request:       req,
		State:         string(to),
		FailureReason: string(reason),
		Suggestions:   res.Suggestions,
		Warnings:      res.Warnings,
	}
	if rc != nil {
		ev.Candidates = len(rc.Shortlist)
		ev.DurationMinutes = rc.DurationMinutes
		ev.DurationSource = rc.DurationSource
		rec.DurationMinutes = rc.DurationMinutes
		for _, c := range rc.Shortlist {
			rec.Shortlist = append(rec.Shortlist, c.TechnicianID)
		}
		if rc.Zone != nil {
			ev.Zone = rc.Zone.ID
			rec.Zone = rc.Zone.ID
		}
	}
	if err := sink.RecordRanking(ev); err != nil {
		a.logger.Errorf("metrics error: %v", err)
	}
	// audit records are written even when ctx is already done
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := st.Append(actx, rec); err != nil {
		a.logger.Errorf("audit error: %v", err)
	}
	a.logger.Infof("ranking %s %s: %d suggestions, %d dropped, %d candidates in %s",
		res.RequestID, to, len(res.Suggestions), len(res.Dropped), ev.Candidates, elapsed.Round(time.Millisecond))
}
