// Package eventlog persists board change events to ClickHouse on a
// best-effort basis. The sink mirrors the board's lossy-broadcast
// semantics end to end: writes never block a producer, and a full buffer
// drops events. Nothing downstream depends on event delivery for
// correctness — reports re-derive authoritative state from the board.
package eventlog

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/faultline-ai/faultline/internal/board"
	"go.uber.org/zap"
)

const (
	bufferSize    = 10_000
	flushInterval = 100 * time.Millisecond
	flushBatch    = 1000
	drainTimeout  = 2 * time.Second
)

// Sink receives change events. Write must never block the caller.
type Sink interface {
	Write(ev board.ChangeEvent)
	Close()
}

// ClickHouseSink batch-inserts change events in a background goroutine.
type ClickHouseSink struct {
	conn    driver.Conn
	buffer  chan board.ChangeEvent
	done    chan struct{}
	flushed chan struct{} // closed by flushLoop when it returns
	logger  *zap.Logger
}

// NewClickHouseSink connects to ClickHouse and starts the flush loop.
func NewClickHouseSink(dsn string, logger *zap.Logger) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	// ParseDSN enables TLS for ?secure=true DSNs; enforce it here as well
	// so cloud endpoints on 9440 work without the query parameter.
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	s := &ClickHouseSink{
		conn:    conn,
		buffer:  make(chan board.ChangeEvent, bufferSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		logger:  logger,
	}
	go s.flushLoop()
	return s, nil
}

// Write queues an event for async insertion. Drops the event if the
// buffer is full.
func (s *ClickHouseSink) Write(ev board.ChangeEvent) {
	select {
	case s.buffer <- ev:
	default:
		s.logger.Warn("eventlog buffer full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("entity_id", ev.EntityID),
		)
	}
}

// Close drains remaining events (up to drainTimeout) and stops the loop.
// Safe to call once.
func (s *ClickHouseSink) Close() {
	close(s.done)
	<-s.flushed
}

func (s *ClickHouseSink) flushLoop() {
	defer close(s.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]board.ChangeEvent, 0, flushBatch)

	for {
		select {
		case ev := <-s.buffer:
			batch = append(batch, ev)
			if len(batch) >= flushBatch {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.done:
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case ev := <-s.buffer:
					batch = append(batch, ev)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *ClickHouseSink) flush(events []board.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO change_events (event_type, entity_id, occurred_at)
	`)
	if err != nil {
		s.logger.Error("eventlog prepare batch failed", zap.Error(err))
		return
	}

	for _, ev := range events {
		if err := batch.Append(string(ev.Type), ev.EntityID, ev.At); err != nil {
			s.logger.Error("eventlog append failed",
				zap.String("entity_id", ev.EntityID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		s.logger.Error("eventlog batch send failed",
			zap.Int("batch_size", len(events)),
			zap.Error(err),
		)
	}
}

// LogSink is the fallback Sink for local development: events go to stdout
// as structured JSON via zap.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ev board.ChangeEvent) {
	s.logger.Info("change_event",
		zap.String("type", string(ev.Type)),
		zap.String("entity_id", ev.EntityID),
		zap.Time("at", ev.At),
	)
}

func (s *LogSink) Close() {}

// Pump forwards a board subscription into a sink until ctx is done.
// Run it in its own goroutine.
func Pump(ctx context.Context, events <-chan board.ChangeEvent, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			sink.Write(ev)
		}
	}
}
