package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/qinolabs/qino/internal/models"
)

// DefaultDebounce is the coalescing window for raw OS events.
const DefaultDebounce = 200 * time.Millisecond

// Subscriber receives categorized change events.
type Subscriber func(ev models.FileChangeEvent)

// FileWatcher fans change events out to subscribers. Raw OS events enter
// through Enqueue and are debounced per event key; internal mutations
// enter through Push and are delivered immediately, cancelling any
// pending timer for the same key so the subscriber does not see a stale
// duplicate.
type FileWatcher struct {
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	nextID  int
	subs    map[int]Subscriber
	pending map[string]*time.Timer
	closed  bool
}

// NewFileWatcher creates a watcher with the given debounce window
// (DefaultDebounce when non-positive).
func NewFileWatcher(debounce time.Duration, logger *slog.Logger) *FileWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		debounce: debounce,
		logger:   logger,
		subs:     make(map[int]Subscriber),
		pending:  make(map[string]*time.Timer),
	}
}

// Subscribe registers fn and returns an unsubscribe function.
func (w *FileWatcher) Subscribe(fn Subscriber) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return func() {}
	}
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Enqueue schedules ev for delivery after the debounce window. Repeated
// events with the same key within the window collapse to one delivery.
func (w *FileWatcher) Enqueue(ev models.FileChangeEvent) {
	key := ev.Key()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.pending[key]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.pending, key)
		subs := w.snapshotLocked()
		w.mu.Unlock()
		w.deliver(subs, ev)
	})
}

// Push delivers ev to all current subscribers immediately and cancels
// any pending debounce timer for the same key.
func (w *FileWatcher) Push(ev models.FileChangeEvent) {
	key := ev.Key()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if timer, ok := w.pending[key]; ok {
		timer.Stop()
		delete(w.pending, key)
	}
	subs := w.snapshotLocked()
	w.mu.Unlock()

	w.deliver(subs, ev)
}

// Close cancels all pending timers and drops all subscribers. Further
// calls on the watcher are no-ops.
func (w *FileWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for key, timer := range w.pending {
		timer.Stop()
		delete(w.pending, key)
	}
	w.subs = make(map[int]Subscriber)
}

// snapshotLocked copies the subscriber list so delivery runs unlocked.
func (w *FileWatcher) snapshotLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	return subs
}

// deliver invokes each subscriber, isolating panics so one failing
// callback cannot block delivery to the rest.
func (w *FileWatcher) deliver(subs []Subscriber, ev models.FileChangeEvent) {
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("notify: subscriber panic",
						slog.String("key", ev.Key()),
						slog.Any("panic", r))
				}
			}()
			fn(ev)
		}()
	}
}
