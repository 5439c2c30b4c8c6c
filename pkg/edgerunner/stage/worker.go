// Package stage implements the generic stage-worker tick loop that
// wraps user logic with pacing, wiring, and config refresh (spec
// §4.4). Grounded line for line on the original EdgineBase
// (original_source/edgine/src/base/__init__.py), with the
// WorkerPool/slog idiom of the teacher's
// pkg/snmpcollector/poller/worker.go for goroutine lifecycle shape.
package stage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
	"github.com/vpbank/edgerunner/pkg/edgerunner/wire"
)

// DefaultMinPeriod is used when a stage is constructed with a
// non-positive min_period (spec §4.4: "default 1 ms").
const DefaultMinPeriod = time.Millisecond

// ewmaAlpha is the smoothing factor for the get/run/post time
// telemetry (spec design note, §9).
const ewmaAlpha = 0.2

// StageState is the lifecycle enum spec §4.4 calls for as a Go-native
// observability addition; the original has no equivalent explicit
// state machine.
type StageState int32

const (
	StateCreated StageState = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s StageState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is the generic per-stage execution loop. Its fields mirror
// EdgineBase.__init__'s parameter list 1:1: name, stop signal, config
// snapshot, log-event sink, optional primary input wire, secondary
// input wires, output wires, and min_period.
type Worker struct {
	name      string
	stop      <-chan struct{}
	cfg       *config.Snapshot
	out       chan<- logevt.Event
	primary   *wire.Wire[any]
	secondary []*wire.Wire[any]
	outputs   []*wire.Wire[any]
	minPeriod time.Duration
	hooks     Hooks

	state atomic.Int32
	done  chan struct{}

	secondaryCache []any

	telemetryMu sync.Mutex
	getTime     time.Duration
	runTime     time.Duration
	postTime    time.Duration
}

// New constructs a Worker. minPeriod <= 0 is replaced with
// DefaultMinPeriod.
func New(
	name string,
	stop <-chan struct{},
	cfg *config.Snapshot,
	out chan<- logevt.Event,
	primary *wire.Wire[any],
	secondary []*wire.Wire[any],
	outputs []*wire.Wire[any],
	minPeriod time.Duration,
	hooks Hooks,
) *Worker {
	if minPeriod <= 0 {
		minPeriod = DefaultMinPeriod
	}
	return &Worker{
		name:           name,
		stop:           stop,
		cfg:            cfg,
		out:            out,
		primary:        primary,
		secondary:      secondary,
		outputs:        outputs,
		minPeriod:      minPeriod,
		hooks:          hooks,
		done:           make(chan struct{}),
		secondaryCache: make([]any, len(secondary)),
	}
}

// Name returns the stage's registered name (used as the logevt.Event
// sender for everything this worker emits).
func (w *Worker) Name() string { return w.name }

// State returns the worker's current lifecycle state.
func (w *Worker) State() StageState { return StageState(w.state.Load()) }

// Done returns a channel closed once the worker's goroutine has
// exited, for the graph supervisor's join discipline.
func (w *Worker) Done() <-chan struct{} { return w.done }

// GetTime, RunTime, and PostTime expose the EWMA-smoothed per-phase
// timings spec's design notes require as an observability contract.
func (w *Worker) GetTime() time.Duration  { return w.snapTiming(&w.getTime) }
func (w *Worker) RunTime() time.Duration  { return w.snapTiming(&w.runTime) }
func (w *Worker) PostTime() time.Duration { return w.snapTiming(&w.postTime) }

func (w *Worker) snapTiming(field *time.Duration) time.Duration {
	w.telemetryMu.Lock()
	defer w.telemetryMu.Unlock()
	return *field
}

// updateEwma applies the α=0.2 exponential moving average to field,
// seeding it with the first sample rather than a zero baseline.
func (w *Worker) updateEwma(field *time.Duration, sample time.Duration) {
	w.telemetryMu.Lock()
	defer w.telemetryMu.Unlock()
	if *field == 0 {
		*field = sample
		return
	}
	*field = time.Duration(ewmaAlpha*float64(sample) + (1-ewmaAlpha)*float64(*field))
}

// Start launches the worker's tick loop goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.state.Store(int32(StateRunning))
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.shutdown()

	w.emit(logevt.INFO, "Hello")

	if err := w.hooks.PreRun(); err != nil {
		w.emit(logevt.ERROR, fmt.Sprintf("pre_run error: %v", err))
	}

	for {
		select {
		case <-w.stop:
			w.state.Store(int32(StateDraining))
			return
		case <-ctx.Done():
			w.state.Store(int32(StateDraining))
			return
		default:
		}

		w.tick(ctx)
	}
}

// tick runs one iteration of spec §4.4's a–f loop body.
func (w *Worker) tick(ctx context.Context) {
	w.cfg.Refresh()

	t0 := time.Now()
	var primaryData any
	var havePrimary bool
	if w.primary != nil {
		primaryData, havePrimary = w.primary.RecvTimeout(ctx, w.stop, w.minPeriod/2)
	} else {
		havePrimary = false
	}
	getElapsed := time.Since(t0)
	w.updateEwma(&w.getTime, getElapsed)

	t1 := time.Now()
	for i, sw := range w.secondary {
		if v, ok := sw.TryRecv(); ok {
			w.secondaryCache[i] = v
			w.emit(logevt.DEBUG, fmt.Sprintf("secondary %d: data found of type %T", i, v))
		}
	}
	secondaryElapsed := time.Since(t1)

	t2 := time.Now()
	var out any
	var skip bool
	if w.primary != nil && !havePrimary {
		skip = true
	}
	if !skip {
		result, err := w.safeRun(primaryData)
		if err != nil {
			w.emit(logevt.ERROR, err.Error())
			out = nil
		} else {
			out = result
		}
	}
	runElapsed := time.Since(t2)
	w.updateEwma(&w.runTime, runElapsed)

	t3 := time.Now()
	if out != nil {
		w.emit(logevt.DEBUG, fmt.Sprintf("posting to %d queues", len(w.outputs)))
		for i, ow := range w.outputs {
			if !ow.TrySend(out) {
				w.emit(logevt.LOG, fmt.Sprintf("WireSendFull: output %d", i))
			}
		}
	}
	postElapsed := time.Since(t3)
	w.updateEwma(&w.postTime, postElapsed)

	elapsed := getElapsed + secondaryElapsed + runElapsed + postElapsed
	if remaining := w.minPeriod - elapsed; remaining > 0 {
		select {
		case <-w.stop:
		case <-ctx.Done():
		case <-time.After(remaining):
		}
	}
}

// safeRun invokes the user hook, converting a panic into an error so a
// single buggy stage never takes down the rest of the pipeline (spec
// §4.4/§7: "user bugs do not kill the pipeline").
func (w *Worker) safeRun(in any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panic: %v", r)
		}
	}()
	return w.hooks.Run(in, w.secondaryCache)
}

// shutdown runs the stage's shutdown sequence (spec §4.4 step 3): drain
// and close every output, drain and close the primary input, run
// PostRun, emit "Quitting". Closing the primary here (rather than
// leaving it to the upstream stage alone) matters because a stage with
// no upstream siblings left running must still release anything
// blocked trying to send into it; Wire.Close is idempotent so both
// sides of a wire closing it independently is safe.
func (w *Worker) shutdown() {
	for _, ow := range w.outputs {
		ow.Drain()
		ow.Close()
	}
	if w.primary != nil {
		w.primary.Drain()
		w.primary.Close()
	}
	if err := w.hooks.PostRun(); err != nil {
		w.emit(logevt.ERROR, fmt.Sprintf("post_run error: %v", err))
	}
	w.emit(logevt.INFO, "Quitting")
	w.state.Store(int32(StateStopped))
}

func (w *Worker) emit(level logevt.Level, msg string) {
	if w.out == nil {
		return
	}
	select {
	case w.out <- logevt.Event{Level: level, Sender: w.name, Message: msg, At: time.Now()}:
	default:
	}
}
