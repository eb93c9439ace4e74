package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero")
	}
}

func TestDispatcherDeliversOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "e"})
	}
	d.Close()

	if sink.count.Load() != 10 || d.Delivered() != 10 {
		t.Fatalf("expected 10 delivered, sink=%d delivered=%d", sink.count.Load(), d.Delivered())
	}
}

func TestDispatcherDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	start := time.Now()
	d.Emit(context.Background(), Event{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "e3"})

	if d.Dropped() != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", d.Dropped())
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var calls atomic.Int32
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, SinkFunc(func(_ context.Context, e Event) {
		calls.Add(1)
		if e.EventType == "bad" {
			panic("sink failure")
		}
	}))

	d.Emit(context.Background(), Event{EventType: "bad"})
	d.Emit(context.Background(), Event{EventType: "good"})
	d.Close()

	if calls.Load() != 2 || d.SinkPanics() != 1 || d.Delivered() != 1 {
		t.Fatalf("calls=%d panics=%d delivered=%d", calls.Load(), d.SinkPanics(), d.Delivered())
	}
}

func TestDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{EventType: "e2"})
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)

	ev := NewEvent("navigation_allowed", time.Now().UTC())
	ev.ClientID = "c1"
	ev.Target = "Chat"
	ev.Success = true
	sink.Emit(context.Background(), ev)
	sink.Emit(context.Background(), NewEvent("session_expired", time.Now().UTC()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var got Event
	if err := json.Unmarshal(lines[0], &got); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if got.ID == "" || got.ID != ev.ID || got.ClientID != "c1" || got.Target != "Chat" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestNewEventIDsUnique(t *testing.T) {
	a := NewEvent("x", time.Now())
	b := NewEvent("x", time.Now())
	if a.ID == b.ID {
		t.Fatal("event ids must differ")
	}
}
