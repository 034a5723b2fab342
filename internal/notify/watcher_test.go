package notify

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/qinolabs/qino/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type collector struct {
	mu     sync.Mutex
	events []models.FileChangeEvent
}

func (c *collector) add(ev models.FileChangeEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPushDeliversSynchronously(t *testing.T) {
	fw := NewFileWatcher(50*time.Millisecond, quietLogger())
	defer fw.Close()

	c := &collector{}
	fw.Subscribe(c.add)

	fw.Push(models.FileChangeEvent{Kind: models.EventNode, NodeID: "alpha"})
	if c.count() != 1 {
		t.Fatalf("count = %d, want synchronous delivery", c.count())
	}
}

func TestEnqueueDebouncesSameKey(t *testing.T) {
	fw := NewFileWatcher(50*time.Millisecond, quietLogger())
	defer fw.Close()

	c := &collector{}
	fw.Subscribe(c.add)

	for i := 0; i < 5; i++ {
		fw.Enqueue(models.FileChangeEvent{Kind: models.EventNode, NodeID: "alpha"})
	}
	fw.Enqueue(models.FileChangeEvent{Kind: models.EventNode, NodeID: "beta"})

	eventually(t, time.Second, 10*time.Millisecond, func() bool {
		return c.count() == 2
	}, "expected exactly one delivery per key")
	time.Sleep(100 * time.Millisecond)
	if c.count() != 2 {
		t.Errorf("count = %d after settle, want 2", c.count())
	}
}

func TestPushCancelsPendingTimer(t *testing.T) {
	fw := NewFileWatcher(100*time.Millisecond, quietLogger())
	defer fw.Close()

	c := &collector{}
	fw.Subscribe(c.add)

	ev := models.FileChangeEvent{Kind: models.EventGraph, GraphPath: ""}
	fw.Enqueue(ev)
	fw.Push(ev)

	if c.count() != 1 {
		t.Fatalf("count = %d, want immediate delivery", c.count())
	}
	// The enqueued duplicate must have been cancelled.
	time.Sleep(200 * time.Millisecond)
	if c.count() != 1 {
		t.Errorf("count = %d, want no stale duplicate", c.count())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	fw := NewFileWatcher(50*time.Millisecond, quietLogger())
	defer fw.Close()

	c := &collector{}
	unsub := fw.Subscribe(c.add)
	unsub()

	fw.Push(models.FileChangeEvent{Kind: models.EventConfig})
	if c.count() != 0 {
		t.Errorf("count = %d, want 0 after unsubscribe", c.count())
	}
}

func TestPanickingSubscriberIsolated(t *testing.T) {
	fw := NewFileWatcher(50*time.Millisecond, quietLogger())
	defer fw.Close()

	fw.Subscribe(func(models.FileChangeEvent) { panic("boom") })
	c := &collector{}
	fw.Subscribe(c.add)

	fw.Push(models.FileChangeEvent{Kind: models.EventNode, NodeID: "alpha"})
	if c.count() != 1 {
		t.Errorf("count = %d, want delivery despite panicking peer", c.count())
	}
}

func TestCloseIsIdempotentAndSilencesPush(t *testing.T) {
	fw := NewFileWatcher(50*time.Millisecond, quietLogger())

	c := &collector{}
	fw.Subscribe(c.add)
	fw.Enqueue(models.FileChangeEvent{Kind: models.EventNode, NodeID: "alpha"})

	fw.Close()
	fw.Close()

	fw.Push(models.FileChangeEvent{Kind: models.EventNode, NodeID: "alpha"})
	fw.Enqueue(models.FileChangeEvent{Kind: models.EventNode, NodeID: "beta"})
	time.Sleep(100 * time.Millisecond)
	if c.count() != 0 {
		t.Errorf("count = %d, want 0 after close", c.count())
	}
}

func TestWatchFeedsEnqueue(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "nodes", "alpha"), 0o755); err != nil {
		t.Fatal(err)
	}

	fw := NewFileWatcher(50*time.Millisecond, quietLogger())
	defer fw.Close()
	c := &collector{}
	fw.Subscribe(c.add)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, root, fw, quietLogger())

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "nodes", "alpha", "node.json"), []byte(`{"title":"Alpha"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, ev := range c.events {
			if ev.Kind == models.EventNode && ev.NodeID == "alpha" {
				return true
			}
		}
		return false
	}, "expected node:alpha event from OS watcher")
}
