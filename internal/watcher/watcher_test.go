package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"foxo/pkg/logger"
)

type countingIngester struct {
	calls atomic.Int32
}

func (c *countingIngester) Reingest(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestWatcher_MissingFolder(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), &countingIngester{}, logger.New("test", ""))
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestWatcher_DebouncesBurstIntoOneReingest(t *testing.T) {
	dir := t.TempDir()
	ingester := &countingIngester{}

	w := New(dir, ingester, logger.New("test", ""))
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before producing events.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "doc.txt")
		if err := os.WriteFile(name, []byte("content"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for ingester.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("re-ingest was never triggered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// No further events: the count must settle at one.
	time.Sleep(200 * time.Millisecond)
	if got := ingester.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 re-ingest for the burst, got %d", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled on shutdown, got %v", err)
	}
}
