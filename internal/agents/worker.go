// Package agents runs the analysis pipeline: one long-lived poll-loop
// worker per engine stage, coordinating exclusively through the shared
// board. Workers never call each other.
package agents

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ProcessFunc is one poll cycle's unit of work. It returns how many items
// it transformed. Errors are counted and logged at the worker boundary and
// never terminate the loop.
type ProcessFunc func(ctx context.Context) (int, error)

// WorkerConfig assembles a worker. Lifecycle hooks are plain callback
// values; nil hooks are skipped.
type WorkerConfig struct {
	Name     string
	Interval time.Duration
	Process  ProcessFunc
	OnStart  func()
	OnError  func(error)
	Logger   *zap.Logger
}

// Worker repeatedly pulls eligible work from the board via its Process
// function. Lifecycle: stopped → running (Start) → stopped (Stop). Stopping
// is cooperative — a running cycle finishes before the worker exits.
type Worker struct {
	cfg       WorkerConfig
	processed atomic.Int64
	errors    atomic.Int64
	running   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewWorker creates a stopped worker.
func NewWorker(cfg WorkerConfig) *Worker {
	return &Worker{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Name returns the worker's name.
func (w *Worker) Name() string { return w.cfg.Name }

// Processed returns the total items transformed so far.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Errors returns the total caught processing errors so far.
func (w *Worker) Errors() int64 { return w.errors.Load() }

// Start launches the poll loop in its own goroutine. Calling Start on a
// running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	if w.cfg.OnStart != nil {
		w.cfg.OnStart()
	}
	w.cfg.Logger.Info("worker started",
		zap.String("worker", w.cfg.Name),
		zap.Duration("interval", w.cfg.Interval),
	)

	for {
		n, err := w.cfg.Process(ctx)
		if err != nil {
			w.errors.Add(1)
			w.cfg.Logger.Warn("worker processing error",
				zap.String("worker", w.cfg.Name),
				zap.Error(err),
			)
			if w.cfg.OnError != nil {
				w.cfg.OnError(err)
			}
		} else if n > 0 {
			w.processed.Add(int64(n))
		}

		// Stop is checked once per poll cycle; in-flight work above is
		// never preempted.
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.Interval):
		}
	}
}

// Stop signals the worker to exit and waits up to timeout for the loop to
// finish. Returns false if the worker was abandoned still running.
func (w *Worker) Stop(timeout time.Duration) bool {
	if !w.running.Load() {
		return true
	}
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}

	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		w.cfg.Logger.Warn("worker did not stop within timeout, abandoning",
			zap.String("worker", w.cfg.Name),
			zap.Duration("timeout", timeout),
		)
		return false
	}
}
