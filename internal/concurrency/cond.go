package concurrency

import (
	"sync"
	"sync/atomic"
)

// Cond is a condition variable bound to a Mutex.
// Wait must only be called while the bound Mutex is held.
type Cond struct {

	// cond is the underlying condition variable, sharing the Mutex's lock.
	cond *sync.Cond

	// waiters counts the goroutines currently suspended in Wait.
	waiters atomic.Int32

	// destroyed is set once Destroy succeeds.
	destroyed atomic.Bool
}

// NewCond creates a condition variable bound to m.
func NewCond(m *Mutex) *Cond {
	return &Cond{cond: sync.NewCond(&m.mu)}
}

// Wait atomically releases the bound mutex and suspends the caller until it
// is signalled, then re-acquires the mutex before returning. The caller must
// hold the bound mutex.
func (c *Cond) Wait() {
	c.waiters.Add(1)
	c.cond.Wait()
	c.waiters.Add(-1)
}

// Signal wakes one waiter, if any. Which waiter wakes is decided by the
// runtime; no fairness order is guaranteed.
func (c *Cond) Signal() {
	c.cond.Signal()
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	c.cond.Broadcast()
}

// Destroy permanently retires the condition variable. It fails with
// ErrCondBusy while any goroutine is suspended in Wait, and with
// ErrCondDestroyed if it has already been destroyed.
func (c *Cond) Destroy() error {
	if c.waiters.Load() != 0 {
		return ErrCondBusy
	}
	if c.destroyed.Swap(true) {
		return ErrCondDestroyed
	}
	return nil
}
