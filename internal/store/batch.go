package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultBatchDelay is how long BatchWriter waits for more writes before it
// flushes.
const DefaultBatchDelay = 500 * time.Millisecond

// ErrClosed is returned by a BatchWriter after Close.
var ErrClosed = errors.New("batch writer closed")

type settingsStore interface {
	GetSetting(ctx context.Context, key string) (Setting, error)
	SetSettings(ctx context.Context, values map[string]string) error
}

// flushBatch is one set of values taken from pending for a single write.
type flushBatch struct {
	values map[string]string
}

// BatchWriter coalesces setting writes and flushes them in one transaction
// once no new write arrived for the debounce delay. Reads see pending writes.
type BatchWriter struct {
	store  settingsStore
	clock  clockwork.Clock
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]string
	timer   clockwork.Timer
	closed  bool
	flushes int

	// inflight holds the batches being written, oldest first, so reads
	// stay consistent while a flush is running.
	inflight []*flushBatch
}

// NewBatchWriter wraps store. A nil clock uses the real clock; a zero delay
// uses DefaultBatchDelay.
func NewBatchWriter(store *Store, delay time.Duration, clock clockwork.Clock, logger *slog.Logger) *BatchWriter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		store:   store,
		clock:   clock,
		delay:   delay,
		logger:  logger,
		pending: make(map[string]string),
	}
}

// Set queues a write. The last value queued for a key wins.
func (b *BatchWriter) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.pending[key] = value

	if b.timer != nil {
		b.timer.Reset(b.delay)
		return nil
	}
	b.timer = b.clock.AfterFunc(b.delay, b.flushDue)
	return nil
}

// Get returns the pending value for key if there is one, otherwise the
// stored value.
func (b *BatchWriter) Get(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	value, ok := b.pending[key]
	for i := len(b.inflight) - 1; !ok && i >= 0; i-- {
		value, ok = b.inflight[i].values[key]
	}
	b.mu.Unlock()
	if ok {
		return value, nil
	}

	setting, err := b.store.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Pending returns the number of queued keys.
func (b *BatchWriter) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flushes returns how many non-empty batches were written.
func (b *BatchWriter) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Flush writes all pending values now.
func (b *BatchWriter) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.take()
	b.mu.Unlock()

	return b.write(ctx, batch)
}

// Close flushes pending values and rejects further writes.
func (b *BatchWriter) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.Flush(ctx)
}

func (b *BatchWriter) flushDue() {
	b.mu.Lock()
	b.timer = nil
	batch := b.take()
	b.mu.Unlock()

	if err := b.write(context.Background(), batch); err != nil {
		b.logger.Error("failed to flush settings", "keys", len(batch.values), "error", err)
	}
}

// take moves the pending values into a new inflight batch. Callers hold b.mu.
func (b *BatchWriter) take() *flushBatch {
	batch := &flushBatch{values: b.pending}
	b.pending = make(map[string]string)
	if len(batch.values) > 0 {
		b.inflight = append(b.inflight, batch)
	}
	return batch
}

func (b *BatchWriter) write(ctx context.Context, batch *flushBatch) error {
	if len(batch.values) == 0 {
		return nil
	}
	err := b.store.SetSettings(ctx, batch.values)

	b.mu.Lock()
	defer b.mu.Unlock()
	newer := b.release(batch)
	if err != nil {
		// Put the batch back unless a later write already carries the key.
		for k, v := range batch.values {
			if _, ok := b.pending[k]; ok || newer[k] {
				continue
			}
			b.pending[k] = v
		}
		if !b.closed && b.timer == nil && len(b.pending) > 0 {
			b.timer = b.clock.AfterFunc(b.delay, b.flushDue)
		}
		return fmt.Errorf("failed to flush %d settings: %w", len(batch.values), err)
	}

	b.flushes++
	b.logger.Debug("flushed settings", "keys", len(batch.values))
	return nil
}

// release drops batch from inflight and returns the keys held by batches
// taken after it. Callers hold b.mu.
func (b *BatchWriter) release(batch *flushBatch) map[string]bool {
	idx := slices.Index(b.inflight, batch)
	if idx < 0 {
		return nil
	}
	newer := make(map[string]bool)
	for _, other := range b.inflight[idx+1:] {
		for k := range other.values {
			newer[k] = true
		}
	}
	b.inflight = slices.Delete(b.inflight, idx, idx+1)
	return newer
}
