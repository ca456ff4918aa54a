package agents

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWorker_ProcessesAndCounts(t *testing.T) {
	var calls atomic.Int64
	w := NewWorker(WorkerConfig{
		Name:     "counter",
		Interval: 5 * time.Millisecond,
		Process: func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 2, nil
		},
		Logger: zap.NewNop(),
	})

	w.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	if !w.Stop(time.Second) {
		t.Fatal("worker failed to stop")
	}

	if calls.Load() < 2 {
		t.Errorf("expected multiple poll cycles, got %d", calls.Load())
	}
	if w.Processed() != 2*calls.Load() {
		t.Errorf("processed count out of step: %d calls, %d processed", calls.Load(), w.Processed())
	}
}

func TestWorker_ErrorsDoNotStopLoop(t *testing.T) {
	var calls atomic.Int64
	var hookErrs atomic.Int64
	w := NewWorker(WorkerConfig{
		Name:     "flaky",
		Interval: 5 * time.Millisecond,
		Process: func(ctx context.Context) (int, error) {
			if calls.Add(1)%2 == 1 {
				return 0, errors.New("transient")
			}
			return 1, nil
		},
		OnError: func(error) { hookErrs.Add(1) },
		Logger:  zap.NewNop(),
	})

	w.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	w.Stop(time.Second)

	if w.Errors() == 0 {
		t.Error("expected recorded errors")
	}
	if w.Processed() == 0 {
		t.Error("worker should keep processing after errors")
	}
	if hookErrs.Load() != w.Errors() {
		t.Errorf("OnError hook fired %d times for %d errors", hookErrs.Load(), w.Errors())
	}
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	var onStarts atomic.Int64
	w := NewWorker(WorkerConfig{
		Name:     "once",
		Interval: 5 * time.Millisecond,
		Process:  func(ctx context.Context) (int, error) { return 0, nil },
		OnStart:  func() { onStarts.Add(1) },
		Logger:   zap.NewNop(),
	})

	ctx := context.Background()
	w.Start(ctx)
	w.Start(ctx)
	w.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	w.Stop(time.Second)

	if onStarts.Load() != 1 {
		t.Errorf("expected OnStart once, got %d", onStarts.Load())
	}
}

func TestWorker_StopBeforeStart(t *testing.T) {
	w := NewWorker(WorkerConfig{
		Name:     "idle",
		Interval: time.Millisecond,
		Process:  func(ctx context.Context) (int, error) { return 0, nil },
		Logger:   zap.NewNop(),
	})
	if !w.Stop(10 * time.Millisecond) {
		t.Error("stopping a never-started worker should succeed")
	}
}

func TestWorker_ContextCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(WorkerConfig{
		Name:     "ctx",
		Interval: 5 * time.Millisecond,
		Process:  func(ctx context.Context) (int, error) { return 0, nil },
		Logger:   zap.NewNop(),
	})
	w.Start(ctx)
	cancel()

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit on context cancellation")
	}
}
