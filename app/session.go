// Package app wires the validation engine to its ambient services.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/nightplan/config"
	"github.com/kilianp07/nightplan/core/azimuth"
	"github.com/kilianp07/nightplan/core/circumstance"
	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/journal"
	"github.com/kilianp07/nightplan/core/listeners"
	coremetrics "github.com/kilianp07/nightplan/core/metrics"
	coremon "github.com/kilianp07/nightplan/core/monitoring"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/core/windows"
	"github.com/kilianp07/nightplan/infra/logger"
	"github.com/kilianp07/nightplan/infra/metrics"
	"github.com/kilianp07/nightplan/infra/monitoring"
	"github.com/kilianp07/nightplan/infra/mqtt"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// Options supplies the host collaborators a session cannot build from config.
type Options struct {
	Collaborators listeners.Collaborators
	// Sampler overrides the ephemeris-backed sampler.
	Sampler schedule.Sampler
	// Ephemeris backs the default quantized sampler.
	Ephemeris circumstance.Ephemeris
	// Monitor is added next to the configured Sentry monitor.
	Monitor coremon.Monitor
}

// Session owns the rule registry and every service observing it. Schedules created
// through NewSchedule are validated by the registry and their marker changes are
// journaled, measured and bridged.
type Session struct {
	cfg      *config.Config
	log      logger.Logger
	registry *listeners.Registry
	markers  *eventbus.TypedBus[events.MarkerEvent]
	rules    *eventbus.TypedBus[events.RuleEvent]
	sink     coremetrics.MetricsSink
	sampler  schedule.Sampler
	monitor  coremon.Monitor
	faults   *coremon.MemoryMonitor
	store    journal.Store
	bridge   *mqtt.Bridge
	cancel   context.CancelFunc
	waits    []<-chan struct{}
	closed   bool
}

// NewSession builds the services enabled in cfg.
func NewSession(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := logger.Configure(cfg.Log); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log := logger.New("session")

	sentryMon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	faults := &coremon.MemoryMonitor{}
	mon := coremon.Multi{sentryMon, faults}
	if opts.Monitor != nil {
		mon = append(mon, opts.Monitor)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cfg:     cfg,
		log:     log,
		markers: eventbus.NewTyped[events.MarkerEvent](eventbus.WithBuffer(1024)),
		rules:   eventbus.NewTyped[events.RuleEvent](eventbus.WithBuffer(1024)),
		sink:    sink,
		monitor: mon,
		faults:  faults,
		cancel:  cancel,
	}

	s.sampler = opts.Sampler
	if s.sampler == nil {
		s.sampler = circumstance.NewQuantized(opts.Ephemeris, cfg.Circumstance.Quantum)
	}
	collab := opts.Collaborators
	if collab.Azimuth == nil {
		collab.Azimuth = azimuth.NewSampledFactory(nil, cfg.Azimuth.Step)
	}
	if collab.Windows == nil {
		collab.Windows = windows.ObsTiming{}
	}
	s.registry = listeners.NewDefaultRegistry(collab,
		listeners.WithLogger(logger.New("listeners")),
		listeners.WithMonitor(mon),
		listeners.WithMetrics(sink),
		listeners.WithRuleEvents(s.rules),
	)

	s.waits = append(s.waits, metrics.StartMarkerCollector(ctx, s.markers, sink, logger.New("marker-collector")))

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("journal: %w", err)
		}
		s.store = store
		s.waits = append(s.waits, journal.Follow(ctx, s.markers, store, logger.New("journal")))
	}

	if cfg.MQTT.Enabled {
		bridge, err := mqtt.NewBridge(cfg.MQTT, mqtt.WithMonitor(mon))
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		s.bridge = bridge
		s.waits = append(s.waits, bridge.Run(ctx, s.markers))
	}

	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	return s, nil
}

// Registry returns the rule registry attached to every schedule of the session.
func (s *Session) Registry() *listeners.Registry { return s.registry }

// RuleEvents returns the bus receiving one event per rule run.
func (s *Session) RuleEvents() *eventbus.TypedBus[events.RuleEvent] { return s.rules }

// MarkerEvents returns the bus mirroring every marker change.
func (s *Session) MarkerEvents() *eventbus.TypedBus[events.MarkerEvent] { return s.markers }

// Journal returns the configured store, nil when journaling is disabled.
func (s *Session) Journal() journal.Store { return s.store }

// Faults returns the rule failures captured so far.
func (s *Session) Faults() []coremon.Capture { return s.faults.Captures }

// NewSchedule creates a schedule validated by the session. Later options win.
func (s *Session) NewSchedule(name string, opts ...schedule.Option) *schedule.Schedule {
	base := []schedule.Option{
		schedule.WithSampler(s.sampler),
		schedule.WithLogger(logger.New("schedule")),
		schedule.WithMarkerManager(schedule.NewMarkerManager(schedule.WithEventBus(s.markers))),
		schedule.WithAttacher(s.registry),
	}
	return schedule.New(name, append(base, opts...)...)
}

// Snapshot summarises the live markers of sch and records it on the metrics sinks.
func (s *Session) Snapshot(sch *schedule.Schedule) coremetrics.Snapshot {
	counts := sch.MarkerManager().Counts()
	snap := coremetrics.Snapshot{
		Schedule: sch.Name(),
		Variants: len(sch.Variants()),
		Errors:   counts[schedule.SeverityError],
		Warnings: counts[schedule.SeverityWarning],
		Infos:    counts[schedule.SeverityInfo],
		Notices:  counts[schedule.SeverityNotice],
		Time:     time.Now(),
	}
	for _, v := range sch.Variants() {
		snap.Allocs += v.Len()
	}
	if rec, ok := s.sink.(coremetrics.SnapshotRecorder); ok {
		if err := rec.RecordSnapshot(snap); err != nil {
			s.log.Warnf("record snapshot: %v", err)
		}
	}
	return snap
}

// Close drains the buses into the journal, bridge and sinks, then releases them.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.markers.Close()
	s.rules.Close()
	for _, w := range s.waits {
		<-w
	}
	s.cancel()
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.bridge != nil {
		s.bridge.Disconnect()
	}
	if d := s.markers.Dropped(); d > 0 {
		s.log.Warnf("%d marker events dropped by slow subscribers", d)
	}
	s.monitor.Flush(2 * time.Second)
	return errors.Join(errs...)
}

func (s *Session) abort() {
	s.closed = true
	s.markers.Close()
	s.rules.Close()
	s.cancel()
	if s.store != nil {
		_ = s.store.Close()
	}
}
