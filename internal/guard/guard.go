package guard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
)

// DefaultTimeout bounds a sweep when none is configured.
const DefaultTimeout = 30 * time.Second

// Sweeper stops accepting new work and releases everything it holds.
// *factory.Factory implements it.
type Sweeper interface {
	Shutdown(ctx context.Context) []error
}

// Guard runs one sweep at shutdown.
type Guard struct {
	installOnce sync.Once

	mu      sync.Mutex
	sweeper Sweeper
	timeout time.Duration
	logger  *slog.Logger
	fired   bool
}

// Option configures a Guard.
type Option func(*Guard)

func WithTimeout(d time.Duration) Option {
	return func(g *Guard) { g.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// New creates a guard with nothing installed.
func New(opts ...Option) *Guard {
	g := &Guard{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return logging.Logger
}

// Install registers s. Only the first call has any effect; it reports
// whether s was installed.
func (g *Guard) Install(s Sweeper) bool {
	installed := false
	g.installOnce.Do(func() {
		g.mu.Lock()
		g.sweeper = s
		g.mu.Unlock()
		installed = true
	})
	return installed
}

// SetTimeout changes the sweep deadline. Non-positive values are ignored.
func (g *Guard) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	g.timeout = d
	g.mu.Unlock()
}

// Fired reports whether a sweep has run.
func (g *Guard) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Fire sweeps the installed Sweeper at most once. It never panics and
// never returns an error: failures are logged, and a sweep that outlives
// the timeout is abandoned.
func (g *Guard) Fire() {
	g.mu.Lock()
	if g.fired || g.sweeper == nil {
		g.mu.Unlock()
		return
	}
	g.fired = true
	s, timeout := g.sweeper, g.timeout
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan []error, 1)
	go func() {
		var errs []error
		defer func() {
			if r := recover(); r != nil {
				errs = append(errs, fmt.Errorf("panic during shutdown sweep: %v", r))
			}
			done <- errs
		}()
		errs = s.Shutdown(ctx)
	}()

	select {
	case errs := <-done:
		for _, err := range errs {
			g.log().Error("shutdown teardown failed", "error", err)
		}
	case <-ctx.Done():
		g.log().Error("shutdown sweep timed out", "timeout", timeout)
	}
}

var global = New()

// Install registers the process-wide sweeper. Later calls are ignored.
func Install(s Sweeper) bool {
	return global.Install(s)
}

// SetTimeout sets the process-wide sweep deadline.
func SetTimeout(d time.Duration) {
	global.SetTimeout(d)
}

// Fire runs the process-wide sweep. main calls it after the command tree
// returns and before os.Exit.
func Fire() {
	global.Fire()
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
