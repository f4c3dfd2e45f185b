package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/appstate/internal/logging"
)

// Writer is the write-through queue between in-memory state and a Store.
//
// Persist never blocks: values are queued per key, and a value queued for a
// key that has not been written yet replaces the earlier one (last write
// wins). A single worker drains the queue, so writes of the same key reach
// the store in call order. Keys queued together by PersistMany are written
// in one SetMany call. Failures are logged and dropped; memory stays
// authoritative, and the key is reported by Unsynced until a later write of
// it succeeds.
type Writer struct {
	store   Store
	log     logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	order    []string
	latest   map[string][]byte
	batch    map[string]uint64
	batchSeq uint64
	inflight []string
	failed   map[string]struct{}
	idle     chan struct{}
	closed   bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriter starts the worker. timeout bounds each store call.
func NewWriter(store Store, log logging.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	idle := make(chan struct{})
	close(idle)

	w := &Writer{
		store:   store,
		log:     logging.OrNop(log).With("component", "writer"),
		timeout: timeout,
		latest:  map[string][]byte{},
		batch:   map[string]uint64{},
		failed:  map[string]struct{}{},
		idle:    idle,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Persist schedules value to be written under key.
func (w *Writer) Persist(key string, value []byte) {
	w.mu.Lock()
	if !w.openLocked(key) {
		w.mu.Unlock()
		return
	}
	w.queueLocked(key, value)
	w.mu.Unlock()
	w.signal()
}

// PersistMany schedules values to be written together, atomically when the
// store is a Batcher.
func (w *Writer) PersistMany(values map[string][]byte) {
	if len(values) == 0 {
		return
	}
	w.mu.Lock()
	if !w.openLocked("*") {
		w.mu.Unlock()
		return
	}
	w.batchSeq++
	for k, v := range values {
		w.queueLocked(k, v)
		w.batch[k] = w.batchSeq
	}
	w.mu.Unlock()
	w.signal()
}

func (w *Writer) openLocked(key string) bool {
	if w.closed {
		w.log.Warn(context.Background(), "write dropped after close", "key", key)
		return false
	}
	if w.pendingLocked() == 0 {
		w.idle = make(chan struct{})
	}
	return true
}

func (w *Writer) queueLocked(key string, value []byte) {
	if _, queued := w.latest[key]; !queued {
		w.order = append(w.order, key)
	}
	w.latest[key] = append([]byte(nil), value...)
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Unsynced returns the keys whose latest value is not known to be in the
// store: queued, in flight, or last write failed.
func (w *Writer) Unsynced() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.order)+len(w.inflight)+len(w.failed))
	out = append(out, w.order...)
	out = append(out, w.inflight...)
	for k := range w.failed {
		out = append(out, k)
	}
	return out
}

// Pending is the number of writes queued or in progress.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingLocked()
}

func (w *Writer) pendingLocked() int {
	return len(w.order) + len(w.inflight)
}

// Flush waits until every write scheduled so far has completed.
func (w *Writer) Flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if w.pendingLocked() == 0 {
			w.mu.Unlock()
			return nil
		}
		idle := w.idle
		w.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes and stops the worker. Later Persist calls are dropped.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return err
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		values := w.takeLocked()
		for k := range values {
			w.inflight = append(w.inflight, k)
		}
		w.mu.Unlock()

		err := w.write(values)

		w.mu.Lock()
		w.inflight = w.inflight[:0]
		for k := range values {
			if err != nil {
				w.failed[k] = struct{}{}
			} else {
				delete(w.failed, k)
			}
		}
		if w.pendingLocked() == 0 {
			close(w.idle)
		}
		w.mu.Unlock()
	}
}

// takeLocked removes the head of the queue, together with the rest of its
// batch when it was queued by PersistMany.
func (w *Writer) takeLocked() map[string][]byte {
	head := w.order[0]
	seq, grouped := w.batch[head]
	if !grouped {
		w.order = w.order[1:]
		values := map[string][]byte{head: w.latest[head]}
		delete(w.latest, head)
		return values
	}

	values := map[string][]byte{}
	rest := w.order[:0]
	for _, k := range w.order {
		if s, ok := w.batch[k]; ok && s == seq {
			values[k] = w.latest[k]
			delete(w.latest, k)
			delete(w.batch, k)
			continue
		}
		rest = append(rest, k)
	}
	w.order = rest
	return values
}

func (w *Writer) write(values map[string][]byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if len(values) == 1 {
		for key, value := range values {
			if err := w.store.Set(ctx, key, value); err != nil {
				w.log.Error(ctx, "persistence write failed", "key", key, "error", err)
				return err
			}
			w.log.Debug(ctx, "persisted", "key", key, "bytes", len(value))
		}
		return nil
	}

	if err := SetMany(ctx, w.store, values); err != nil {
		w.log.Error(ctx, "persistence batch write failed", "keys", len(values), "error", err)
		return err
	}
	w.log.Debug(ctx, "persisted batch", "keys", len(values))
	return nil
}
