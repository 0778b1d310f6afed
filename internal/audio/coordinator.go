package audio

import "sync"

// Handle is something that is playing and can be stopped.
// Handles are compared by identity, so implementations should be pointers.
type Handle interface {
	Stop()
}

// Coordinator allows at most one active Handle
type Coordinator struct {
	mu     sync.Mutex
	active Handle
}

// NewCoordinator creates an idle coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Acquire makes h the active handle, stopping the previous one if different
func (c *Coordinator) Acquire(h Handle) {
	c.mu.Lock()
	prev := c.active
	c.active = h
	c.mu.Unlock()

	if prev != nil && prev != h {
		prev.Stop()
	}
}

// Release clears h if it is still the active handle. Releasing a handle
// that was already replaced is a no-op.
func (c *Coordinator) Release(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == h {
		c.active = nil
	}
}

// Active returns the current handle, or nil
func (c *Coordinator) Active() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
