package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/config"
	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	coreaudit "github.com/kwikdrytn/kwikdry-sub000/core/audit"
	"github.com/kwikdrytn/kwikdry-sub000/core/distance"
	coremetrics "github.com/kwikdrytn/kwikdry-sub000/core/metrics"
	corestore "github.com/kwikdrytn/kwikdry-sub000/core/store"
	"github.com/kwikdrytn/kwikdry-sub000/infra/logger"
	"github.com/kwikdrytn/kwikdry-sub000/infra/metrics"
	"github.com/kwikdrytn/kwikdry-sub000/infra/reasoning"
	"github.com/kwikdrytn/kwikdry-sub000/infra/routing"
	"github.com/kwikdrytn/kwikdry-sub000/infra/store"
	"github.com/kwikdrytn/kwikdry-sub000/internal/eventbus"
)

// Service wires the ranking engine to its adapters and serves the HTTP API.
type Service struct {
	Assembler *assembler.Assembler
	Store     corestore.ReadWriter
	Audit     coreaudit.Store

	cfg     *config.Config
	bus     *eventbus.Bus
	sink    coremetrics.MetricsSink
	log     logger.Logger
	closers []func() error
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil parameter provided to New")
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	svc := &Service{cfg: cfg, log: logger.New("service"), bus: eventbus.New()}
	ok := false
	defer func() {
		if !ok {
			_ = svc.Close()
		}
	}()

	st, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	svc.Store = st
	svc.closers = append(svc.closers, closeStore)

	provider, closeProvider, err := NewProvider(cfg.Routing, logger.New("routing"))
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, closeProvider)

	reasoner, closeReasoner, err := NewReasoner(ctx, cfg.Reasoning, logger.New("reasoning"))
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, closeReasoner)

	policy, err := cfg.AssemblerPolicy()
	if err != nil {
		return nil, err
	}
	ranker := distance.NewRanker(provider, cfg.Policy.RoutedLookupLimit, cfg.Policy.RoutedTimeout(), logger.New("distance"))
	asm, err := assembler.New(st, ranker, reasoner, policy, logger.New("assembler"))
	if err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}
	svc.Assembler = asm

	sink, err := NewSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	svc.sink = sink
	asm.SetMetricsSink(sink)
	asm.SetEventBus(svc.bus)

	svc.Audit = coreaudit.NopStore{}
	if cfg.Logging.AuditPath != "" {
		a, err := coreaudit.NewJSONLStore(cfg.Logging.AuditPath)
		if err != nil {
			return nil, err
		}
		svc.Audit = a
		svc.closers = append(svc.closers, a.Close)
	}
	asm.SetAuditStore(svc.Audit)

	ok = true
	return svc, nil
}

// OpenStore opens the configured data source.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (corestore.ReadWriter, func() error, error) {
	switch cfg.Driver {
	case "fixture":
		f, err := store.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMemory(f), func() error { return nil }, nil
	case "postgres":
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, func() error { db.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %s", cfg.Driver)
	}
}

// NewProvider builds the driving distance provider. A nil provider means
// straight-line ranking only.
func NewProvider(cfg config.RoutingConfig, log logger.Logger) (distance.Provider, func() error, error) {
	nop := func() error { return nil }
	if cfg.Provider == "none" {
		return nil, nop, nil
	}
	var p distance.Provider = routing.NewOSRMClient(cfg.BaseURL)
	if !cfg.Cache.Enabled {
		return p, nop, nil
	}
	rdb := routing.NewRedisClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	cached, err := routing.NewCachedProvider(p, rdb, cfg.Cache.TTL(), log)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return cached, rdb.Close, nil
}

// NewReasoner builds the configured reasoning service client.
func NewReasoner(ctx context.Context, cfg config.ReasoningConfig, log logger.Logger) (assembler.Reasoner, func() error, error) {
	if cfg.Provider == "heuristic" {
		return reasoning.NewHeuristicReasoner(), func() error { return nil }, nil
	}
	g, err := reasoning.NewGeminiReasoner(ctx, cfg.Gemini(), log)
	if err != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}

// NewSink builds the metrics sinks enabled in the configuration.
func NewSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() (http.Handler, error) {
	return NewRouter(s.Assembler, s.Audit, s.cfg.Server.AuditToken, logger.New("api"))
}

// Run serves the HTTP API and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := metrics.StartEventCollector(ctx, s.bus, s.sink)
	defer func() { <-done }()
	defer cancel()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	h, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("serving API on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if s.sink != nil {
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
	if s.bus != nil {
		s.bus.Close()
	}
	return errors.Join(errs...)
}
