package workspace

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLifecycle_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newLifecycle(KindHost).ID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestLifecycle_TeardownOnce(t *testing.T) {
	l := newLifecycle(KindDocker)
	if l.State() != StateActive {
		t.Fatalf("State() = %s, want %s", l.State(), StateActive)
	}

	var calls atomic.Int32
	release := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := l.teardown(context.Background(), release); err != nil {
			t.Fatalf("teardown %d: %v", i, err)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("release called %d times, want 1", calls.Load())
	}
	if l.State() != StateTornDown {
		t.Errorf("State() = %s, want %s", l.State(), StateTornDown)
	}
	if err := l.checkActive(); err != ErrTornDown {
		t.Errorf("checkActive() = %v, want ErrTornDown", err)
	}
}

func TestLifecycle_TeardownErrorReportedOnce(t *testing.T) {
	l := newLifecycle(KindRemote)
	boom := fmt.Errorf("boom")
	release := func(context.Context) error { return boom }

	if err := l.teardown(context.Background(), release); err != boom {
		t.Errorf("first teardown = %v, want %v", err, boom)
	}
	if err := l.teardown(context.Background(), release); err != nil {
		t.Errorf("second teardown = %v, want nil", err)
	}
	if l.State() != StateTornDown {
		t.Error("state should be torn down even when release fails")
	}
}

func TestLifecycle_ConcurrentTeardown(t *testing.T) {
	l := newLifecycle(KindHost)

	var calls atomic.Int32
	release := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.teardown(context.Background(), release)
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("release called %d times, want 1", calls.Load())
	}
}

func TestLifecycle_StateVisibleDuringRelease(t *testing.T) {
	l := newLifecycle(KindHost)
	var during State
	_ = l.teardown(context.Background(), func(context.Context) error {
		during = l.State()
		return nil
	})
	if during != StateTornDown {
		t.Errorf("state during release = %s, want %s", during, StateTornDown)
	}
}
