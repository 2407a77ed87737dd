// Package pool exposes a fixed-size worker pool for fire-and-forget task
// execution.
//
// A Pool owns a fixed number of long-lived workers that drain a single FIFO
// task queue. Callers submit a routine plus an opaque argument and, when they
// need a synchronization point, use the Wait/Release pair to block until
// everything submitted so far has finished executing.
//
// Typical usage:
//
//	p, err := pool.New(8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for i := range inputs {
//	    _ = p.Submit(process, &inputs[i])
//	}
//
//	// Block until every submitted task has finished, then resume.
//	_ = p.Wait()
//	_ = p.Release()
//
//	_ = p.Destroy(context.Background())
package pool

import (
	"context"

	"github.com/taskpool/taskpool/task"
)

// Pool is a fixed-size worker pool. All methods are safe for concurrent use
// by any number of producer goroutines, with one documented exception: Wait
// returns holding the pool's internal locks, so between Wait and Release the
// only permitted calls are Release itself.
type Pool interface {

	// Submit hands a routine and its opaque argument to the pool for
	// execution by some worker. Tasks are consumed in submission order, but
	// no guarantee exists about which worker runs which task.
	// Fails with ErrLockFailed if the pool's append lock is unavailable
	// (for instance after Destroy); the task is not queued.
	Submit(routine task.Routine, arg any) error

	// SubmitTask hands an already-boxed task to the pool. See Submit.
	SubmitTask(t task.Task) error

	// Wait blocks until every task submitted since the last drain has
	// finished executing. It returns holding both of the pool's internal
	// locks; Release must be the next call made on the pool. Submitting
	// between Wait and Release deadlocks by design.
	Wait() error

	// Release unlocks the locks held after a successful Wait, re-enabling
	// submission.
	Release() error

	// Pending returns the number of submitted tasks that have not yet
	// finished executing.
	Pending() (uint64, error)

	// Destroy cancels all workers, joins them and releases the pool's
	// resources, including any tasks that were queued but never started.
	// A task that is mid-execution is allowed to finish first; ctx bounds
	// how long Destroy waits for the workers to terminate. On ErrJoinFailed
	// nothing has been released and Destroy may be called again.
	Destroy(ctx context.Context) error
}
