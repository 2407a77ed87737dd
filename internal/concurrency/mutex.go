// Package concurrency provides the destroyable lock primitives the pool is
// built on. Unlike the standard library types, these report failure instead
// of panicking, and they can be retired permanently once their owner is torn
// down.
package concurrency

import (
	"sync"
	"sync/atomic"
)

// Mutex is a mutual-exclusion lock that can be destroyed.
// Once destroyed, every Lock and Unlock call fails, which lets a torn-down
// pool surface misuse as an error instead of silently corrupting state.
type Mutex struct {

	// mu is the underlying lock.
	mu sync.Mutex

	// destroyed is set once Destroy succeeds. It is checked on both sides of
	// the lock acquisition so a Lock racing with Destroy cannot win the lock
	// of a retired mutex.
	destroyed atomic.Bool
}

// Lock acquires the mutex, blocking until it is available.
// It fails with ErrMutexDestroyed if the mutex has been destroyed.
func (m *Mutex) Lock() error {
	if m.destroyed.Load() {
		return ErrMutexDestroyed
	}

	m.mu.Lock()

	// Re-check after acquisition: Destroy may have completed while this
	// caller was blocked.
	if m.destroyed.Load() {
		m.mu.Unlock()
		return ErrMutexDestroyed
	}

	return nil
}

// Unlock releases the mutex.
// It fails with ErrMutexDestroyed if the mutex has been destroyed.
func (m *Mutex) Unlock() error {
	if m.destroyed.Load() {
		return ErrMutexDestroyed
	}

	m.mu.Unlock()
	return nil
}

// Destroy permanently retires the mutex.
// It fails with ErrMutexBusy while the mutex is held by any caller, and with
// ErrMutexDestroyed if it has already been destroyed.
func (m *Mutex) Destroy() error {

	// A held mutex cannot be destroyed safely.
	if !m.mu.TryLock() {
		return ErrMutexBusy
	}

	if m.destroyed.Swap(true) {
		m.mu.Unlock()
		return ErrMutexDestroyed
	}

	m.mu.Unlock()
	return nil
}
