package journal

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Async decorates another Journal with a buffered write-behind queue so the
// hot path never blocks on disk. When the buffer is full, records are dropped
// and counted rather than back-pressuring order processing.
type Async struct {
	inner   Journal
	mu      sync.Mutex // guards closed and the send/close pair on ch
	closed  bool
	ch      chan func() error
	wg      sync.WaitGroup
	log     *zap.Logger
	dropped atomic.Int64
}

// NewAsync wraps inner with a queue of the given depth (min 1).
func NewAsync(inner Journal, depth int, log *zap.Logger) *Async {
	if depth < 1 {
		depth = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	a := &Async{
		inner: inner,
		ch:    make(chan func() error, depth),
		log:   log,
	}
	a.wg.Add(1)
	go a.drain()
	return a
}

func (a *Async) drain() {
	defer a.wg.Done()
	for fn := range a.ch {
		if err := fn(); err != nil {
			a.log.Warn("journal write failed", zap.Error(err))
		}
	}
}

func (a *Async) enqueue(fn func() error) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return fn() // after Close the queue is gone; write through
	}
	select {
	case a.ch <- fn:
		a.mu.Unlock()
	default:
		a.mu.Unlock()
		n := a.dropped.Add(1)
		if n == 1 || n%1000 == 0 {
			a.log.Warn("journal queue full, dropping records", zap.Int64("dropped", n))
		}
	}
	return nil
}

func (a *Async) RecordAccount(r AccountRecord) error {
	return a.enqueue(func() error { return a.inner.RecordAccount(r) })
}

func (a *Async) RecordPosition(r PositionRecord) error {
	return a.enqueue(func() error { return a.inner.RecordPosition(r) })
}

func (a *Async) RecordOrder(r OrderRecord) error {
	return a.enqueue(func() error { return a.inner.RecordOrder(r) })
}

func (a *Async) RecordTrade(r TradeRecord) error {
	return a.enqueue(func() error { return a.inner.RecordTrade(r) })
}

func (a *Async) RecordEquity(r EquityRecord) error {
	return a.enqueue(func() error { return a.inner.RecordEquity(r) })
}

// Dropped reports how many records were discarded due to a full queue.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close flushes the queue and closes the inner journal.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
	return a.inner.Close()
}
