package eventbus

/*
 * eventbus - a lock-free fan-out broadcaster for Go
 * Copyright (c) 2016-2025 Thushan Fernando, Jason Wright and contributors
 *
 * Ported from Scout (2023) and updated to xsync v4 for better performance and safety (2025)
 */
import (
	"context"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Broadcaster fans a single stream of values out to many listeners with
// automatic cleanup and backpressure handling. The tracer uses one of these
// to hand finished spans to every exporter subscribed to it (internal/adapter/tracer).
type Broadcaster[T any] struct {
	listeners     *xsync.Map[string, *listener[T]]
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	dispatch      *dispatchPool[T]
	listenerSeq   atomic.Uint64
	bufferSize    int
	cleanupPeriod time.Duration
	isShutdown    atomic.Bool
}

type listener[T any] struct {
	ch         chan T
	id         string
	lastActive atomic.Int64
	dropped    atomic.Uint64
	isActive   atomic.Bool
}

// BroadcasterConfig allows customisation of buffer sizes and cleanup behaviour.
type BroadcasterConfig struct {
	BufferSize      int
	CleanupPeriod   time.Duration
	InactiveTimeout time.Duration
}

var DefaultBroadcasterConfig = BroadcasterConfig{
	BufferSize:      100,
	CleanupPeriod:   5 * time.Minute,
	InactiveTimeout: 10 * time.Minute,
}

// New creates a new Broadcaster with default configuration.
func New[T any]() *Broadcaster[T] {
	return NewWithConfig[T](DefaultBroadcasterConfig)
}

// NewWithConfig creates a new Broadcaster with custom configuration.
func NewWithConfig[T any](config BroadcasterConfig) *Broadcaster[T] {
	b := &Broadcaster[T]{
		listeners:     xsync.NewMap[string, *listener[T]](),
		bufferSize:    config.BufferSize,
		cleanupPeriod: config.CleanupPeriod,
		stopCleanup:   make(chan struct{}),
	}

	// Dispatch pool absorbs PublishAsync calls off the caller's goroutine
	// (4 workers, 1000-deep queue) so a slow exporter never stalls the
	// request path that produced the span.
	b.dispatch = newDispatchPool(b, 4, 1000)

	if config.CleanupPeriod > 0 {
		b.cleanupTicker = time.NewTicker(config.CleanupPeriod)
		go b.cleanupLoop(config.InactiveTimeout)
	}

	return b
}

// Subscribe returns a channel that receives published values and a cleanup function.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	if b.isShutdown.Load() {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	id := b.generateListenerID()
	ch := make(chan T, b.bufferSize)

	l := &listener[T]{
		id: id,
		ch: ch,
	}
	l.lastActive.Store(time.Now().UnixNano())
	l.isActive.Store(true)

	b.listeners.Store(id, l)

	// Context cancellation handler ensures proper cleanup
	go func() {
		<-ctx.Done()
		b.unsubscribe(id)
	}()

	cleanup := func() {
		b.unsubscribe(id)
	}

	return ch, cleanup
}

// Publish sends a value to every active listener, returning how many received it.
func (b *Broadcaster[T]) Publish(value T) int {
	if b.isShutdown.Load() {
		return 0
	}

	delivered := 0
	now := time.Now().UnixNano()

	b.listeners.Range(func(id string, l *listener[T]) bool {
		if !l.isActive.Load() {
			return true
		}

		// Double-check active status before sending to avoid race
		if l.isActive.Load() {
			select {
			case l.ch <- value:
				l.lastActive.Store(now)
				delivered++
			default:
				l.dropped.Add(1)
			}
		}
		return true
	})

	return delivered
}

// PublishAsync hands a value to the dispatch pool without blocking the caller.
func (b *Broadcaster[T]) PublishAsync(value T) {
	if b.isShutdown.Load() {
		return
	}
	if b.dispatch != nil {
		b.dispatch.enqueue(value)
	}
}

// Shutdown gracefully stops the broadcaster.
func (b *Broadcaster[T]) Shutdown() {
	if !b.isShutdown.CompareAndSwap(false, true) {
		return
	}

	if b.dispatch != nil {
		b.dispatch.Shutdown()
	}

	if b.cleanupTicker != nil {
		b.cleanupTicker.Stop()
		close(b.stopCleanup)
	}

	// Mark all listeners as inactive first
	b.listeners.Range(func(id string, l *listener[T]) bool {
		l.isActive.Store(false)
		return true
	})

	// Clear listeners map - channels will be GC'd when no longer referenced.
	// We don't close channels to avoid send-on-closed-channel panics.
	b.listeners.Clear()
}

// Stats returns overall broadcaster statistics.
func (b *Broadcaster[T]) Stats() BroadcasterStats {
	stats := BroadcasterStats{
		IsShutdown: b.isShutdown.Load(),
	}
	if stats.IsShutdown {
		return stats
	}

	b.listeners.Range(func(id string, l *listener[T]) bool {
		stats.TotalListeners++
		if l.isActive.Load() {
			stats.ActiveListeners++
		}
		stats.TotalDropped += l.dropped.Load()
		return true
	})

	return stats
}

// BroadcasterStats provides aggregate metrics.
type BroadcasterStats struct {
	TotalListeners  int
	ActiveListeners int
	TotalDropped    uint64
	IsShutdown      bool
}

// generateListenerID creates a unique listener ID.
func (b *Broadcaster[T]) generateListenerID() string {
	seq := b.listenerSeq.Add(1)
	return "listener_" + strconv.FormatUint(seq, 10)
}

// unsubscribe removes a listener safely.
func (b *Broadcaster[T]) unsubscribe(id string) {
	if l, exists := b.listeners.Load(id); exists {
		// Mark as inactive first to prevent new sends
		l.isActive.Store(false)
		// Remove from map so no new operations can find it
		b.listeners.Delete(id)
		// Don't close the channel - let GC handle it when no references remain.
		// This prevents panic from concurrent sends.
	}
}

// cleanupLoop removes inactive listeners every so often.
func (b *Broadcaster[T]) cleanupLoop(inactiveTimeout time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("eventbus cleanupLoop panic recovered: %v", r)
		}
	}()

	for {
		select {
		case <-b.stopCleanup:
			return
		case <-b.cleanupTicker.C:
			b.cleanupInactiveListeners(inactiveTimeout)
		}
	}
}

// cleanupInactiveListeners purges stale entries.
func (b *Broadcaster[T]) cleanupInactiveListeners(timeout time.Duration) {
	cutoff := time.Now().Add(-timeout).UnixNano()
	var toRemove []string

	b.listeners.Range(func(id string, l *listener[T]) bool {
		if !l.isActive.Load() || l.lastActive.Load() < cutoff {
			toRemove = append(toRemove, id)
		}
		return true
	})

	for _, id := range toRemove {
		b.unsubscribe(id)
	}
}
