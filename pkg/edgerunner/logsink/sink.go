// Package logsink implements the asynchronous, rate-limited logger
// described in spec §4.3: one input channel multiplexed into N sinks,
// each gated by its own token-bucket rate limiter.
//
// Ported from the original edgine logger (original_source/edgine/src/
// logger/__init__.py's EdgineLogger), generalizing its "index 0 is
// console, the rest are queues" split into a Sink interface — the same
// generalization the teacher applies to transports
// (transport/file.Transport, the "development transport" analogue of
// what production code would send to Kafka).
package logsink

import (
	"fmt"
	"io"
)

// Sink is one log destination. Send delivers one already-formatted
// line. A send failure is logged to the console sink and otherwise
// does not disturb the rest of the logger (spec §4.3 failure
// semantics).
type Sink interface {
	Send(line string) error
}

// WriterSink adapts an io.Writer (typically os.Stdout) into a Sink —
// the console sink, sink index 0, grounded on the teacher's
// transport/file.WriterTransport.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w as a Sink, appending a trailing newline to
// every line.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Send(line string) error {
	_, err := fmt.Fprintln(s.w, line)
	return err
}

// ChannelSink adapts an outbound string channel into a Sink — the
// "sinks 1..N-1 are outbound channels" half of spec §4.3. Send is
// non-blocking: a full channel is reported as an error so the caller's
// failure-handling path (log to console, keep going) fires.
type ChannelSink struct {
	out chan<- string
}

// NewChannelSink wraps out as a Sink.
func NewChannelSink(out chan<- string) *ChannelSink {
	return &ChannelSink{out: out}
}

func (s *ChannelSink) Send(line string) error {
	select {
	case s.out <- line:
		return nil
	default:
		return fmt.Errorf("logsink: channel sink full")
	}
}
