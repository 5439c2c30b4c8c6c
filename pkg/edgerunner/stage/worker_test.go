package stage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
	"github.com/vpbank/edgerunner/pkg/edgerunner/stage"
	"github.com/vpbank/edgerunner/pkg/edgerunner/wire"
)

type identityHooks struct {
	stage.BaseHooks
	calls int
}

func (h *identityHooks) Run(in any, _ []any) (any, error) {
	h.calls++
	return in, nil
}

func newSnapshot(t *testing.T) *config.Snapshot {
	t.Helper()
	s := config.New(nil)
	snap, err := s.GetSnapshot("t")
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestWorkerSkipsRunWithoutPrimaryData(t *testing.T) {
	stop := make(chan struct{})
	out := make(chan logevt.Event, 64)
	primary := wire.New[any](2)
	output := wire.New[any](2)
	hooks := &identityHooks{}

	w := stage.New("noop", stop, newSnapshot(t), out, primary, nil, []*wire.Wire[any]{output}, time.Millisecond, hooks)
	w.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	close(stop)
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	if hooks.calls != 0 {
		t.Fatalf("Run should never be called when a primary wire exists and nothing arrives, got %d calls", hooks.calls)
	}
}

func TestWorkerForwardsPrimaryToOutput(t *testing.T) {
	stop := make(chan struct{})
	out := make(chan logevt.Event, 64)
	primary := wire.New[any](2)
	output := wire.New[any](2)
	hooks := &identityHooks{}

	w := stage.New("echo", stop, newSnapshot(t), out, primary, nil, []*wire.Wire[any]{output}, time.Millisecond, hooks)
	w.Start(context.Background())
	defer func() {
		close(stop)
		<-w.Done()
	}()

	primary.TrySend(42)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := output.TryRecv(); ok {
			if v != 42 {
				t.Fatalf("expected 42, got %v", v)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("value never reached the output wire")
}

func TestWorkerWithoutPrimaryRunsEveryTick(t *testing.T) {
	stop := make(chan struct{})
	out := make(chan logevt.Event, 64)
	hooks := &identityHooks{}

	w := stage.New("ticker", stop, newSnapshot(t), out, nil, nil, nil, time.Millisecond, hooks)
	w.Start(context.Background())

	time.Sleep(30 * time.Millisecond)
	close(stop)
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	if hooks.calls == 0 {
		t.Fatal("a stage with no primary wire should still run every tick")
	}
}

func TestWorkerLogsWireSendFullOnDrop(t *testing.T) {
	stop := make(chan struct{})
	out := make(chan logevt.Event, 64)
	output := wire.New[any](1)
	output.TrySend("occupying the only slot")
	primary := wire.New[any](1)
	primary.TrySend("payload")

	hooks := &identityHooks{}
	w := stage.New("full", stop, newSnapshot(t), out, primary, nil, []*wire.Wire[any]{output}, time.Millisecond, hooks)
	w.Start(context.Background())
	defer func() {
		close(stop)
		<-w.Done()
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-out:
			if strings.Contains(ev.Message, "WireSendFull") {
				return
			}
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("expected a WireSendFull event once the output wire stayed full")
}

func TestWorkerStateTransitions(t *testing.T) {
	stop := make(chan struct{})
	out := make(chan logevt.Event, 64)
	hooks := &identityHooks{}

	w := stage.New("states", stop, newSnapshot(t), out, nil, nil, nil, time.Millisecond, hooks)
	if w.State() != stage.StateCreated {
		t.Fatalf("expected StateCreated before Start, got %v", w.State())
	}

	w.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	if w.State() != stage.StateRunning {
		t.Fatalf("expected StateRunning after Start, got %v", w.State())
	}

	close(stop)
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	if w.State() != stage.StateStopped {
		t.Fatalf("expected StateStopped after shutdown, got %v", w.State())
	}
}
