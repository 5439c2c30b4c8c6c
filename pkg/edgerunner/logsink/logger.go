package logsink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
)

// Default rate-limiting parameters, mirroring the original
// EdgineLogger's defaults (1000 tokens/sec per sink, INFO threshold,
// empty rejection list, console sink enabled).
const (
	defaultRate         = 1000.0
	configKeyRates      = "log_rate_limiting_list"
	configKeyThresholds = "log_logging_lvl"
	configKeyRejections = "log_rejection_list"
	configKeyConsoleOn  = "log_print_to_screen"
)

// Logger is the single asynchronous worker that drains an input
// channel of logevt.Event and multiplexes each into every configured
// sink under its own token-bucket rate limit (spec §4.3).
type Logger struct {
	name   string
	in     <-chan logevt.Event
	sinks  []Sink
	cfg    *config.Snapshot
	boot   *slog.Logger
	states []sinkState

	done chan struct{}
}

type sinkState struct {
	bucket tokenBucket
}

// New creates a Logger. sinks[0] is conventionally the process
// console; sinks[1:] are outbound sinks. store is used once, at
// construction, to register the per-sink rate-limiting config defaults
// (CreateIfUnknown, mirroring the original's has_key/append dance in
// EdgineLogger.__init__) before taking a snapshot of it.
func New(store *config.Store, in <-chan logevt.Event, sinks []Sink, boot *slog.Logger) (*Logger, error) {
	if boot == nil {
		boot = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("logsink: at least one sink (console) is required")
	}

	rates := make([]config.Value, len(sinks))
	thresholds := make([]config.Value, len(sinks))
	rejections := make([]config.Value, len(sinks))
	for i := range sinks {
		rates[i] = config.Float(defaultRate)
		thresholds[i] = config.Int(int64(logevt.INFO))
		rejections[i] = config.List()
	}
	store.CreateIfUnknown(configKeyRates, config.List(rates...))
	store.CreateIfUnknown(configKeyThresholds, config.List(thresholds...))
	store.CreateIfUnknown(configKeyRejections, config.List(rejections...))
	store.CreateIfUnknown(configKeyConsoleOn, config.Bool(true))

	snap, err := store.GetSnapshot("logger")
	if err != nil {
		return nil, fmt.Errorf("logsink: %w", err)
	}
	snap.Seal()

	now := time.Now()
	states := make([]sinkState, len(sinks))
	for i := range sinks {
		states[i] = sinkState{bucket: newTokenBucket(defaultRate, now)}
	}

	return &Logger{
		name:   "LOG",
		in:     in,
		sinks:  sinks,
		cfg:    snap,
		boot:   boot,
		states: states,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the logger's worker goroutine. stop is the shared
// stop signal; the worker runs until stop is closed AND the input
// channel has drained, per spec §4.3.
func (l *Logger) Start(ctx context.Context, stop <-chan struct{}) {
	go l.run(ctx, stop)
}

// Done returns a channel closed once the worker has exited, for Stop's
// join discipline.
func (l *Logger) Done() <-chan struct{} { return l.done }

func (l *Logger) run(ctx context.Context, stop <-chan struct{}) {
	defer close(l.done)

	l.output(logevt.INFO, l.name, "Hello")

	stopObserved := false
	for !stopObserved || len(l.in) > 0 {
		l.cfg.Refresh()

		select {
		case ev, ok := <-l.in:
			if !ok {
				stopObserved = true
				continue
			}
			l.output(ev.Level, ev.Sender, ev.Message)
		case <-time.After(5 * time.Millisecond):
			if !stopObserved {
				select {
				case <-stop:
					stopObserved = true
				case <-ctx.Done():
					stopObserved = true
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
	}

	l.output(logevt.INFO, l.name, "Quitting")
}

// output formats one line and offers it to every sink whose admission
// gate (level threshold + rejection set) passes, applying each sink's
// token bucket.
func (l *Logger) output(level logevt.Level, sender, msg string) {
	line := formatLine(level, sender, msg)
	now := time.Now()

	thresholds := l.readThresholds()
	rejections := l.readRejections()
	rates := l.readRates()

	for i := range l.sinks {
		if i < len(rates) {
			l.states[i].bucket.setRate(rates[i])
		}

		if i < len(rejections) && rejections[i][sender] {
			continue
		}
		threshold := logevt.INFO
		if i < len(thresholds) {
			threshold = thresholds[i]
		}
		if level > threshold {
			continue
		}

		if n, ok := l.states[i].bucket.maybeReport(now); ok {
			l.sendReport(i, n)
		}

		if l.states[i].bucket.admit(now) {
			if err := l.sinks[i].Send(line); err != nil {
				l.consoleError(fmt.Sprintf("sink %d send error: %v", i, err))
			}
		}
	}
}

// sendReport emits the synthesized "dropped N messages" INFO event for
// sink i directly to that sink, bypassing its own bucket (the report
// itself never competes for admission — it is the bucket telling on
// itself), matching EdgineLogger.print_rate_limiter.
func (l *Logger) sendReport(i, n int) {
	line := formatLine(logevt.INFO, l.name, fmt.Sprintf("Rate limiter dropped %d messages in the last second", n))
	if err := l.sinks[i].Send(line); err != nil {
		l.consoleError(fmt.Sprintf("sink %d report send error: %v", i, err))
	}
}

// consoleError writes directly to sink 0 (the console), bypassing rate
// limiting, so sink failures are never themselves silently dropped.
func (l *Logger) consoleError(msg string) {
	line := formatLine(logevt.ERROR, l.name, msg)
	_ = l.sinks[0].Send(line)
}

func formatLine(level logevt.Level, sender, msg string) string {
	return fmt.Sprintf("%s:(%s) [%s] %s", level, time.Now().Format("01/02/2006 15:04:05"), sender, msg)
}

func (l *Logger) readRates() []float64 {
	v, err := l.cfg.Get(configKeyRates)
	if err != nil {
		return nil
	}
	items, ok := v.AsItems()
	if !ok {
		return nil
	}
	out := make([]float64, len(items))
	for i, it := range items {
		switch it.Kind() {
		case config.KindFloat:
			f, _ := it.AsFloat()
			out[i] = f
		case config.KindInt:
			n, _ := it.AsInt()
			out[i] = float64(n)
		default:
			out[i] = defaultRate
		}
	}
	return out
}

func (l *Logger) readThresholds() []logevt.Level {
	v, err := l.cfg.Get(configKeyThresholds)
	if err != nil {
		return nil
	}
	items, ok := v.AsItems()
	if !ok {
		return nil
	}
	out := make([]logevt.Level, len(items))
	for i, it := range items {
		n, _ := it.AsInt()
		out[i] = logevt.Level(n)
	}
	return out
}

func (l *Logger) readRejections() []map[string]bool {
	v, err := l.cfg.Get(configKeyRejections)
	if err != nil {
		return nil
	}
	items, ok := v.AsItems()
	if !ok {
		return nil
	}
	out := make([]map[string]bool, len(items))
	for i, it := range items {
		names, ok := it.AsItems()
		set := make(map[string]bool, len(names))
		if ok {
			for _, n := range names {
				if s, ok := n.AsString(); ok {
					set[s] = true
				}
			}
		}
		out[i] = set
	}
	return out
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
