package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lifecycle is embedded by every variant: identity, kind, creation time
// and a teardown that releases the resource at most once.
type lifecycle struct {
	id        string
	kind      Kind
	createdAt time.Time

	mu    sync.RWMutex
	state State

	once       sync.Once
	releaseErr error
}

func newLifecycle(kind Kind) *lifecycle {
	return &lifecycle{
		id:        uuid.NewString(),
		kind:      kind,
		createdAt: time.Now(),
		state:     StateActive,
	}
}

func (l *lifecycle) ID() string {
	return l.id
}

func (l *lifecycle) Kind() Kind {
	return l.kind
}

func (l *lifecycle) CreatedAt() time.Time {
	return l.createdAt
}

func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// checkActive fails with ErrTornDown once teardown has started.
func (l *lifecycle) checkActive() error {
	if l.State() == StateTornDown {
		return ErrTornDown
	}
	return nil
}

// teardown flips the state before calling release so concurrent Exec calls
// observe TornDown. The state stays TornDown even if release fails; the
// error is reported to the first caller only.
func (l *lifecycle) teardown(ctx context.Context, release func(context.Context) error) error {
	first := false
	l.once.Do(func() {
		first = true
		l.mu.Lock()
		l.state = StateTornDown
		l.mu.Unlock()

		l.releaseErr = release(ctx)
	})
	if !first {
		return nil
	}
	return l.releaseErr
}
