// Package admission bounds the number of simultaneously running operations.
//
// A Controller admits at most Limit operations at once. Operations that arrive
// while every slot is taken wait in a stack: when a slot frees, it is handed to
// the most recently queued operation (LIFO). Under load this changes which
// files get processed first, never whether they are processed. Nothing is
// dropped, cancelled or timed out.
package admission

import (
	"sync"

	"github.com/huangsam/corpusmetrics/internal/telemetry"
)

// Controller is a counting semaphore with a LIFO wait list.
type Controller struct {
	mu      sync.Mutex
	limit   int
	running int
	waiters []chan struct{}
}

// New creates a controller admitting up to limit operations. Limits below 1 are treated as 1.
func New(limit int) *Controller {
	if limit < 1 {
		limit = 1
	}
	return &Controller{limit: limit}
}

// Run executes op once a slot is available and returns its error.
// The slot is released when op returns or panics.
func (c *Controller) Run(op func() error) error {
	c.acquire()
	defer c.release()
	return op()
}

// Do is the value-returning form of Run.
func Do[T any](c *Controller, op func() (T, error)) (T, error) {
	c.acquire()
	defer c.release()
	return op()
}

// Limit returns the configured slot count.
func (c *Controller) Limit() int {
	return c.limit
}

// Running returns the number of operations holding a slot.
func (c *Controller) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Waiting returns the number of queued operations.
func (c *Controller) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *Controller) acquire() {
	c.mu.Lock()
	if c.running < c.limit {
		c.running++
		telemetry.AdmissionRunning.Inc()
		c.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	c.waiters = append(c.waiters, ready)
	telemetry.AdmissionWaiting.Inc()
	c.mu.Unlock()

	// The releasing operation hands its slot over, so running is already counted.
	<-ready
}

func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.waiters); n > 0 {
		next := c.waiters[n-1]
		c.waiters[n-1] = nil
		c.waiters = c.waiters[:n-1]
		telemetry.AdmissionWaiting.Dec()
		close(next)
		return
	}
	c.running--
	telemetry.AdmissionRunning.Dec()
}
