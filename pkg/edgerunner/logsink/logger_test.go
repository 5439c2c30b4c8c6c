package logsink_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
	"github.com/vpbank/edgerunner/pkg/edgerunner/logsink"
)

// syncBuffer is a concurrency-safe io.Writer for asserting on what the
// logger wrote, since Logger delivers every sink.Send from its own
// single worker goroutine but tests read from the main goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggerDeliversEvent(t *testing.T) {
	store := config.New(nil)
	in := make(chan logevt.Event, 16)
	out := &syncBuffer{}

	logger, err := logsink.New(store, in, []logsink.Sink{logsink.NewWriterSink(out)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	logger.Start(context.Background(), stop)

	in <- logevt.Event{Level: logevt.INFO, Sender: "test-stage", Message: "hello world", At: time.Now()}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "hello world") {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !strings.Contains(out.String(), "hello world") {
		t.Fatalf("expected delivered line to contain the message, got: %q", out.String())
	}
	if !strings.Contains(out.String(), "[test-stage]") {
		t.Fatalf("expected delivered line to carry the sender, got: %q", out.String())
	}

	close(stop)
	select {
	case <-logger.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("logger did not stop within 2s of the stop signal")
	}
}

func TestLoggerRespectsLevelThreshold(t *testing.T) {
	store := config.New(nil)
	in := make(chan logevt.Event, 16)
	out := &syncBuffer{}

	store.CreateIfUnknown("log_logging_lvl", config.List(config.Int(int64(logevt.LOG))))

	logger, err := logsink.New(store, in, []logsink.Sink{logsink.NewWriterSink(out)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	logger.Start(context.Background(), stop)
	defer func() {
		close(stop)
		<-logger.Done()
	}()

	in <- logevt.Event{Level: logevt.DEBUG, Sender: "noisy", Message: "should be filtered", At: time.Now()}
	in <- logevt.Event{Level: logevt.ERROR, Sender: "noisy", Message: "should pass", At: time.Now()}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "should pass") {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if strings.Contains(out.String(), "should be filtered") {
		t.Error("a DEBUG event should have been filtered by a LOG-level threshold")
	}
	if !strings.Contains(out.String(), "should pass") {
		t.Error("an ERROR event should always pass a LOG-level threshold")
	}
}
