package eventlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/faultline-ai/faultline/internal/board"
)

type captureSink struct {
	mu     sync.Mutex
	events []board.ChangeEvent
	closed bool
}

func (s *captureSink) Write(ev board.ChangeEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *captureSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestPump_ForwardsBoardEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := board.NewMemoryBoard()
	sink := &captureSink{}
	events := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		Pump(ctx, events, sink)
	}()

	id, _ := b.AddAxiom(ctx, "C", "it is stable", "")
	_ = b.NegateAxiom(ctx, id, "it is unstable")
	_, _ = b.RecordRisk(ctx, id, "d", 0.5, 0.5, "m")

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 3 {
		t.Fatalf("expected 3 forwarded events, got %d", sink.count())
	}

	sink.mu.Lock()
	types := []board.EventType{sink.events[0].Type, sink.events[1].Type, sink.events[2].Type}
	sink.mu.Unlock()
	want := []board.EventType{board.EventAxiomAdded, board.EventAxiomNegated, board.EventRiskRecorded}
	for i, wt := range want {
		if types[i] != wt {
			t.Errorf("event %d: expected %s, got %s", i, wt, types[i])
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pump did not exit on context cancellation")
	}
}

func TestPump_ExitsOnClosedChannel(t *testing.T) {
	events := make(chan board.ChangeEvent)
	close(events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		Pump(context.Background(), events, &captureSink{})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pump did not exit on closed event channel")
	}
}
