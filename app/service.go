// Package app wires the directory, store, engines and ambient stack into a
// Service used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apigrid "github.com/kilianp07/timetable/api/grid"
	apijournal "github.com/kilianp07/timetable/api/journal"
	"github.com/kilianp07/timetable/config"
	"github.com/kilianp07/timetable/core/autofill"
	"github.com/kilianp07/timetable/core/blockpool"
	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/engine"
	"github.com/kilianp07/timetable/core/grid"
	corejournal "github.com/kilianp07/timetable/core/journal"
	"github.com/kilianp07/timetable/core/logger"
	coremetrics "github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/core/model"
	coremon "github.com/kilianp07/timetable/core/monitoring"
	"github.com/kilianp07/timetable/core/publish"
	"github.com/kilianp07/timetable/core/substitution"
	"github.com/kilianp07/timetable/core/swap"
	"github.com/kilianp07/timetable/core/workload"
	infrajournal "github.com/kilianp07/timetable/infra/journal"
	infralogger "github.com/kilianp07/timetable/infra/logger"
	"github.com/kilianp07/timetable/infra/metrics"
	"github.com/kilianp07/timetable/infra/monitoring"
	"github.com/kilianp07/timetable/infra/store"
	"github.com/kilianp07/timetable/internal/eventbus"
)

// Service owns the grid, the engines and the session mode.
type Service struct {
	Dir       *directory.Static
	Store     grid.Store
	Grid      *grid.Grid
	Env       *engine.Env
	AutoFill  *autofill.Engine
	Subs      *substitution.Assigner
	Swap      *swap.Engine
	Blocks    *blockpool.Manager
	Publisher *publish.Coordinator
	Journal   corejournal.Store
	Sink      coremetrics.MetricsSink

	cfg     *config.Config
	bus     *eventbus.Bus
	log     logger.Logger
	now     func() time.Time
	cancel  context.CancelFunc
	waiters []<-chan struct{}
}

// Deps lets callers supply pre-built backends. Nil fields are built from
// the configuration.
type Deps struct {
	Dir     *directory.Static
	Store   grid.Store
	Journal corejournal.Store
	Sink    coremetrics.MetricsSink
	Log     logger.Logger
	Now     func() time.Time
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	infralogger.SetLevel(cfg.Logging.Level)
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	return NewWithDeps(ctx, cfg, Deps{})
}

// NewWithDeps creates a Service, building only the dependencies d leaves nil.
func NewWithDeps(ctx context.Context, cfg *config.Config, d Deps) (*Service, error) {
	log := infralogger.OrNew(d.Log, "service")
	dir := d.Dir
	if dir == nil {
		sf, err := directory.LoadFile(cfg.School.Path)
		if err != nil {
			return nil, fmt.Errorf("school file: %w", err)
		}
		if sf.MaxWeeklyPeriods == 0 {
			sf.MaxWeeklyPeriods = cfg.Engine.MaxWeeklyPeriods
		}
		if dir, err = directory.NewStatic(sf); err != nil {
			return nil, fmt.Errorf("school file: %w", err)
		}
	}
	st := d.Store
	if st == nil {
		var err error
		if st, err = store.Open(cfg.Store); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	if err := seed(ctx, st, dir.File()); err != nil {
		_ = st.Close()
		return nil, err
	}
	g, err := grid.Load(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load grid: %w", err)
	}
	jr := d.Journal
	if jr == nil {
		if jr, err = infrajournal.Open(cfg.Journal); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	sink := d.Sink
	if sink == nil {
		if sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	bus := eventbus.New()
	env := engine.New(g, st, dir).With(log, bus)
	env.Now = now
	s := &Service{
		Dir:       dir,
		Store:     st,
		Grid:      g,
		Env:       env,
		AutoFill:  autofill.New(env),
		Subs:      substitution.New(env),
		Swap:      swap.New(env),
		Blocks:    blockpool.New(env),
		Publisher: publish.New(env, publish.NewSession(cfg.Engine.Mode())),
		Journal:   jr,
		Sink:      sink,
		cfg:       cfg,
		bus:       bus,
		log:       log,
		now:       now,
	}
	s.start()
	return s, nil
}

// seed writes the school file's assignments and blocks into an empty store.
// Group periods are derived from the blocks as SaveBlock would.
func seed(ctx context.Context, st grid.Store, sf directory.SchoolFile) error {
	as, err := st.LoadAssignments(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	bs, err := st.LoadBlocks(ctx)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	if len(as) > 0 || len(bs) > 0 {
		return nil
	}
	if as := blockpool.GroupTotals(sf.Assignments, sf.Blocks); len(as) > 0 {
		if err := st.UpsertAssignments(ctx, as...); err != nil {
			return fmt.Errorf("seed assignments: %w", err)
		}
	}
	for _, b := range sf.Blocks {
		if err := st.SaveBlock(ctx, b, nil); err != nil {
			return fmt.Errorf("seed block %s: %w", b.ID, err)
		}
	}
	return nil
}

func (s *Service) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.Journal != nil {
		s.waiters = append(s.waiters, corejournal.StartRecorder(ctx, s.bus, s.Journal, infralogger.New("journal")))
	}
	s.waiters = append(s.waiters, metrics.StartEventCollector(ctx, s.bus, s.Sink, func(now time.Time) []coremetrics.WorkloadSample {
		return s.Workload(model.ModeLive, now).Samples(now)
	}))
}

// Mode returns the session mode.
func (s *Service) Mode() model.Mode { return s.Publisher.Session().Mode() }

// Workload summarises teacher loads of mode for the week containing date.
func (s *Service) Workload(mode model.Mode, date time.Time) workload.Summary {
	return workload.Summarize(s.Dir, s.Grid, mode, date)
}

// Handler returns the HTTP API: grid queries and the journal.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apigrid.NewHandler(s.Grid, s.Dir, s.now))
	if s.Journal != nil {
		mux.Handle("/api/journal", apijournal.NewHandler(s.Journal, s.cfg.API.Token))
	}
	return mux
}

// Run serves the HTTP API and /metrics until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if hasSink(s.cfg.Metrics, "prometheus") {
		srv, err := metrics.NewServer(s.cfg.Metrics.PrometheusPort, prometheus.DefaultGatherer, s.log)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		srv.Start(ctx)
		s.log.Infof("metrics listening on %s", srv.Addr())
	}
	httpSrv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("api listening on %s", s.cfg.API.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func hasSink(c coremetrics.Config, name string) bool {
	for _, s := range c.Sinks {
		if s.Type == name {
			return true
		}
	}
	return false
}

// Close drains the journal and metrics subscribers, then releases the
// journal and the store.
func (s *Service) Close() error {
	s.bus.Close()
	for _, w := range s.waiters {
		<-w
	}
	s.cancel()
	var errs []error
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	errs = append(errs, s.Store.Close())
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
