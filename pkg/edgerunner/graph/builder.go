// Package graph builds and supervises a DAG of stage workers connected
// by wires, fed by a shared config store and logger. Ported method for
// method from the original EdgineStarter
// (original_source/edgine/src/starter/__init__.py), with the
// teacher's app.App as the model for ordered Start/Stop over a fixed
// set of goroutines (pkg/snmpcollector/app/app.go).
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logsink"
	"github.com/vpbank/edgerunner/pkg/edgerunner/stage"
	"github.com/vpbank/edgerunner/pkg/edgerunner/wire"
)

// Factory builds the Hooks implementation for one stage. It receives
// the stage's own sealed config snapshot, mirroring the way
// EdgineBase subclasses reach back into self._cfg from blogic.
type Factory func(cfg *config.Snapshot) stage.Hooks

// joinDeadline is the per-worker shutdown grace period (spec §4.4:
// "The supervisor imposes a 2s join deadline per worker and
// force-terminates stragglers").
const joinDeadline = 2 * time.Second

// logEventChanCapacity sizes the shared log-event channel every
// stage, the config store, and the logger itself write into.
const logEventChanCapacity = 4096

type stageDescriptor struct {
	id          int
	name        string
	minPeriod   time.Duration
	factory     Factory
	primaryIn   *wire.Wire[any]
	secondaryIn []*wire.Wire[any]
	outputs     []*wire.Wire[any]
	worker      *stage.Worker
}

// Builder registers stages and connections, validates the resulting
// graph, and supervises the started workers' lifecycle.
type Builder struct {
	boot *slog.Logger

	store  *config.Store
	logger *logsink.Logger
	sinks  []logsink.Sink

	stageOrder []*stageDescriptor
	byID       map[int]*stageDescriptor
	adjacency  map[int][]int

	logEvents chan logevt.Event
	stopCh    chan struct{}

	initialized bool
	started     bool
}

// New creates a Builder around the given log sinks. sinks[0] is
// conventionally the process console.
func New(sinks []logsink.Sink, boot *slog.Logger) *Builder {
	if boot == nil {
		boot = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Builder{
		boot:      boot,
		store:     config.New(boot),
		sinks:     sinks,
		byID:      make(map[int]*stageDescriptor),
		adjacency: make(map[int][]int),
		logEvents: make(chan logevt.Event, logEventChanCapacity),
		stopCh:    make(chan struct{}),
	}
}

// Store returns the builder's config store, for seeding defaults or
// loading a persisted snapshot before Init.
func (b *Builder) Store() *config.Store { return b.store }

// RegisterStage registers a new stage and returns its sequentially
// assigned id. minPeriod <= 0 falls back to stage.DefaultMinPeriod.
func (b *Builder) RegisterStage(name string, minPeriod time.Duration, factory Factory) int {
	id := len(b.stageOrder)
	d := &stageDescriptor{id: id, name: name, minPeriod: minPeriod, factory: factory}
	b.stageOrder = append(b.stageOrder, d)
	b.byID[id] = d
	return id
}

// RegisterConnection wires a primary connection from stage fromID's
// output to stage toID's (sole) primary input. Returns ErrDuplicatePrimary
// if toID already has one, per spec §3's "at most one per consuming
// stage" invariant.
func (b *Builder) RegisterConnection(fromID, toID int, capacity int) error {
	from, to, err := b.resolve(fromID, toID)
	if err != nil {
		return err
	}
	if to.primaryIn != nil {
		return fmt.Errorf("%w: stage %q", ErrDuplicatePrimary, to.name)
	}
	if capacity <= 0 {
		capacity = wire.DefaultCapacity
	}
	w := wire.New[any](capacity)
	from.outputs = append(from.outputs, w)
	to.primaryIn = w
	b.adjacency[fromID] = append(b.adjacency[fromID], toID)
	return nil
}

// RegisterSecondaryConnection wires a non-blocking secondary
// connection from fromID's output to toID's secondary input list. Any
// number may be registered per consumer.
func (b *Builder) RegisterSecondaryConnection(fromID, toID int, capacity int) error {
	from, to, err := b.resolve(fromID, toID)
	if err != nil {
		return err
	}
	if capacity <= 0 {
		capacity = wire.DefaultCapacity
	}
	w := wire.New[any](capacity)
	from.outputs = append(from.outputs, w)
	to.secondaryIn = append(to.secondaryIn, w)
	b.adjacency[fromID] = append(b.adjacency[fromID], toID)
	return nil
}

// RegisterSink attaches an externally-read output wire to stageID and
// returns it; the caller is responsible for draining it (spec §3:
// "Sink: externally-read, outside the graph's backpressure").
func (b *Builder) RegisterSink(stageID int, capacity int) (*wire.Wire[any], error) {
	d, ok := b.byID[stageID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, stageID)
	}
	if capacity <= 0 {
		capacity = wire.DefaultCapacity
	}
	w := wire.New[any](capacity)
	d.outputs = append(d.outputs, w)
	return w, nil
}

func (b *Builder) resolve(fromID, toID int) (*stageDescriptor, *stageDescriptor, error) {
	from, ok := b.byID[fromID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownStage, fromID)
	}
	to, ok := b.byID[toID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownStage, toID)
	}
	return from, to, nil
}

// Init validates that the registered connections form a DAG (Kahn's
// algorithm; spec §4.5's stricter init than the original, which never
// checked for cycles), then constructs each stage's config snapshot,
// hooks, and Worker. The teacher's scheduler.Scheduler "sort entries,
// pop, repeat" shape is the model for the sort/pop loop below.
func (b *Builder) Init() error {
	if b.initialized {
		return ErrAlreadyInit
	}

	if _, err := b.topoSort(); err != nil {
		return err
	}

	sinksLogger := append([]logsink.Sink(nil), b.sinks...)
	logger, err := logsink.New(b.store, b.logEvents, sinksLogger, b.boot)
	if err != nil {
		return fmt.Errorf("graph: init logger: %w", err)
	}
	b.logger = logger

	for _, d := range b.stageOrder {
		snap, err := b.store.GetSnapshot(d.name)
		if err != nil {
			return fmt.Errorf("graph: init stage %q: %w", d.name, err)
		}
		snap.Seal()

		hooks := d.factory(snap)
		d.worker = stage.New(
			d.name,
			b.stopCh,
			snap,
			b.logEvents,
			d.primaryIn,
			d.secondaryIn,
			d.outputs,
			d.minPeriod,
			hooks,
		)
	}

	b.initialized = true
	return nil
}

// topoSort runs Kahn's algorithm over the registered stage ids and
// adjacency edges, returning ErrCycle if any stage never reaches
// indegree zero.
func (b *Builder) topoSort() ([]int, error) {
	indegree := make(map[int]int, len(b.stageOrder))
	for _, d := range b.stageOrder {
		indegree[d.id] = 0
	}
	for _, tos := range b.adjacency {
		for _, to := range tos {
			indegree[to]++
		}
	}

	var queue []int
	for _, d := range b.stageOrder {
		if indegree[d.id] == 0 {
			queue = append(queue, d.id)
		}
	}
	sort.Ints(queue)

	var order []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		next := append([]int(nil), b.adjacency[id]...)
		sort.Ints(next)
		for _, to := range next {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(b.stageOrder) {
		return nil, ErrCycle
	}
	return order, nil
}

// Start launches the logger, the config store's fan-out worker, and
// every stage worker in registration order (spec §4.5: "Start
// (registration-order start)").
func (b *Builder) Start(ctx context.Context) error {
	if !b.initialized {
		return ErrNotInit
	}
	if b.started {
		return nil
	}
	b.started = true

	b.logger.Start(ctx, b.stopCh)
	b.store.Start(ctx, b.stopCh, b.logEvents)

	for _, d := range b.stageOrder {
		d.worker.Start(ctx)
	}
	return nil
}

// Stop signals the shared stop channel and joins every worker in
// reverse registration order, then the store, then the logger, each
// under a joinDeadline. A worker that misses its deadline is abandoned
// with a warning logged through the builder's bootstrap slog logger
// (not the log sinks) — Go cannot kill
// a goroutine, so "force-terminate" here means the supervisor stops
// waiting on it, not that the goroutine is destroyed.
func (b *Builder) Stop() {
	if !b.started {
		return
	}
	close(b.stopCh)

	for i := len(b.stageOrder) - 1; i >= 0; i-- {
		d := b.stageOrder[i]
		b.joinOrWarn(d.name, d.worker.Done())
	}

	b.joinOrWarn("config-store", b.store.Done())
	b.joinOrWarn("logger", b.logger.Done())
}

func (b *Builder) joinOrWarn(name string, done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(joinDeadline):
		b.boot.Warn("graph: worker did not stop within deadline, abandoning", "stage", name, "deadline", joinDeadline)
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
