package prince

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one session is available.
	MinPoolSize = 1

	// MaxPoolSize caps engine processes to limit memory.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the engine's own threads.
	cpuDivisor = 2
)

// ControlPool manages up to Size control sessions for parallel processing.
// Sessions are started lazily on first acquire to avoid startup delay, and
// a session that stopped running is replaced on a later acquire.
type ControlPool struct {
	size  int
	opts  []Option
	slots chan struct{}

	mu     sync.Mutex
	idle   []*Control
	live   map[*Control]struct{}
	closed bool
}

// NewControlPool creates a pool with capacity for n sessions, each created
// with opts. Sessions are started when acquired, not at pool creation.
func NewControlPool(n int, opts ...Option) *ControlPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}

	return &ControlPool{
		size:  n,
		opts:  opts,
		slots: make(chan struct{}, n),
		live:  make(map[*Control]struct{}, n),
	}
}

// Acquire returns a running session, starting one if none is idle.
// Blocks while all sessions are in use, until ctx is done.
func (p *ControlPool) Acquire(ctx context.Context) (*Control, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	// Start the new session outside the lock
	c, err := NewControl(p.opts...)
	if err == nil {
		err = c.Start(ctx)
	}
	if err != nil {
		<-p.slots
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.Close()
		<-p.slots
		return nil, ErrPoolClosed
	}
	p.live[c] = struct{}{}
	p.mu.Unlock()

	return c, nil
}

// Release returns a session to the pool. A session that is no longer
// running is dropped and its slot freed for a replacement.
func (p *ControlPool) Release(c *Control) {
	if c == nil {
		return
	}

	p.mu.Lock()
	if _, ok := p.live[c]; ok {
		if !p.closed && c.State() == StateRunning {
			p.idle = append(p.idle, c)
		} else {
			delete(p.live, c)
		}
	}
	p.mu.Unlock()

	<-p.slots
}

// Convert runs job on a pooled session.
func (p *ControlPool) Convert(ctx context.Context, job *Job, out io.Writer) (bool, error) {
	c, err := p.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer p.Release(c)

	return c.Convert(ctx, job, out)
}

// Close stops every session, waiting for in-flight jobs to finish.
// Returns an aggregated error if several sessions fail to stop.
func (p *ControlPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	sessions := make([]*Control, 0, len(p.live))
	for c := range p.live {
		sessions = append(sessions, c)
	}
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, c := range sessions {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ControlPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
