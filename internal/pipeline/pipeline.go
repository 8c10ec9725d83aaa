package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/observability"
)

// ErrStopped is returned by Apply and Snapshot once Run has returned.
var ErrStopped = errors.New("pipeline stopped")

// Deriver computes one derived view from the current filter state.
type Deriver interface {
	Derive(name domain.ViewName, state domain.FilterState) domain.View
}

// ViewSink receives every refresh produced by the pipeline.
type ViewSink interface {
	Name() string
	Publish(ctx context.Context, r Refresh) error
}

// Refresh is the state of the dashboard after one processed event. Views
// holds every current view; Changed lists the ones recomputed by this event.
// A Refresh is never modified after it is handed out.
type Refresh struct {
	Seq     uint64                          `json:"seq"`
	At      time.Time                       `json:"at"`
	State   domain.FilterState              `json:"state"`
	Changed []domain.ViewName               `json:"changed"`
	Views   map[domain.ViewName]domain.View `json:"views"`
}

type request struct {
	change *domain.FilterChange
	reply  chan Refresh
}

// Pipeline owns the filter state and recomputes derived views when it
// changes. Events are processed one at a time by Run; a recomputation always
// completes before the next event is read.
type Pipeline struct {
	deriver  Deriver
	graph    *Graph
	sinks    []ViewSink
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	initial  domain.FilterState
	requests chan request
	done     chan struct{}
	ready    atomic.Bool
}

// New creates a Pipeline starting from the initial filter state. A nil clock
// uses the real clock.
func New(d Deriver, g *Graph, initial domain.FilterState, sinks []ViewSink, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		deriver:  d,
		graph:    g,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		initial:  initial,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// CheckReadiness returns nil once the initial render has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("initial render has not completed yet")
	}
	return nil
}

// Run renders every view from the initial state, then processes filter
// changes until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.done)

	p.logger.Info("pipeline started", "state", p.initial)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	state := p.initial
	latest := p.refresh(ctx, Refresh{Views: map[domain.ViewName]domain.View{}}, state, domain.ViewNames())
	p.ready.Store(true)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case req := <-p.requests:
			if req.change != nil {
				next, changed := state.Apply(*req.change)
				if len(changed) > 0 {
					for _, in := range changed {
						p.metrics.FilterChanges.WithLabelValues(string(in)).Inc()
					}
					state = next
					latest = p.refresh(ctx, latest, state, p.graph.Affected(changed))
				}
			}
			req.reply <- latest
		}
	}
}

// Apply submits a filter change and waits for the resulting refresh. Changes
// that leave the state as-is return the current refresh unchanged.
func (p *Pipeline) Apply(ctx context.Context, change domain.FilterChange) (Refresh, error) {
	return p.submit(ctx, &change)
}

// Snapshot returns the latest refresh.
func (p *Pipeline) Snapshot(ctx context.Context) (Refresh, error) {
	return p.submit(ctx, nil)
}

func (p *Pipeline) submit(ctx context.Context, change *domain.FilterChange) (Refresh, error) {
	req := request{change: change, reply: make(chan Refresh, 1)}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return Refresh{}, ctx.Err()
	case <-p.done:
		return Refresh{}, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r, nil
	case <-ctx.Done():
		return Refresh{}, ctx.Err()
	}
}

// refresh recomputes the named views on top of prev and publishes the result.
func (p *Pipeline) refresh(ctx context.Context, prev Refresh, state domain.FilterState, names []domain.ViewName) Refresh {
	views := maps.Clone(prev.Views)
	for _, name := range names {
		start := p.clock.Now()
		views[name] = p.deriver.Derive(name, state)
		p.metrics.ViewRecomputations.WithLabelValues(string(name)).Inc()
		p.metrics.ViewDuration.WithLabelValues(string(name)).Observe(p.clock.Since(start).Seconds())
	}

	next := Refresh{
		Seq:     prev.Seq + 1,
		At:      p.clock.Now().UTC(),
		State:   state,
		Changed: names,
		Views:   views,
	}
	p.logger.Debug("views refreshed", "seq", next.Seq, "views", names, "state", state)

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, next); err != nil {
			p.logger.Error("publish refresh failed", "error", err, "sink", sink.Name(), "seq", next.Seq)
			p.metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
		}
	}
	return next
}
