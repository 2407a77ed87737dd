// Package pool holds the worker pool engine: the task chain, the worker
// loop and the pool lifecycle.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/taskpool/taskpool/task"
)

// Pool executes submitted tasks concurrently on a fixed number of long-lived
// worker goroutines. Tasks are consumed in submission order (global FIFO
// across all producers); no guarantee exists about which worker executes
// which task.
type Pool struct {

	// q is the task chain shared by producers and workers.
	q *queue

	// workers is the configured worker count. Immutable after creation.
	workers uint16

	// errHandler receives worker-loop failures that have no caller left to
	// return to. May be nil, in which case such failures are dropped.
	errHandler func(error)

	// joinWG tracks running workers. Destroy waits on it to join them.
	joinWG *sync.WaitGroup

	// destroyed is set once Destroy has fully released the pool's resources.
	destroyed *atomic.Bool
}

// New creates a pool and spawns the configured number of workers. It does
// not return until every worker has checked in and is about to block for
// work, so the pool is fully operational before the first submission.
// Fails with ErrInvalidWorkerCount when workers is zero.
func New(workers uint16, errHandler func(error)) (*Pool, error) {
	if workers == 0 {
		return nil, ErrInvalidWorkerCount
	}

	p := &Pool{
		q:          newQueue(),
		workers:    workers,
		errHandler: errHandler,
		joinWG:     &sync.WaitGroup{},
		destroyed:  &atomic.Bool{},
	}

	ready := &sync.WaitGroup{}
	ready.Add(int(workers))
	p.joinWG.Add(int(workers))

	for i := uint16(0); i < workers; i++ {
		go p.work(ready)
	}

	ready.Wait()

	return p, nil
}

// Submit boxes routine with arg and appends the resulting task to the queue.
// It is safe to call from any number of producer goroutines. Lock failures
// are propagated unchanged as ErrLockFailed; the task is not queued and no
// retry is attempted.
func (p *Pool) Submit(routine task.Routine, arg any) error {
	return p.q.append(task.New(routine, arg))
}

// SubmitTask appends an already-boxed task to the queue.
func (p *Pool) SubmitTask(t task.Task) error {
	return p.q.append(t)
}

// Wait blocks until every task submitted in the current cycle has finished
// executing. New submissions are locked out for the duration. On success the
// pool's counters are reset and Wait returns holding both internal locks;
// the caller must call Release before submitting again. Calling Submit
// between Wait and Release deadlocks by design.
func (p *Pool) Wait() error {
	return p.q.wait()
}

// Release unlocks the pair of locks held after a successful Wait.
func (p *Pool) Release() error {
	return p.q.release()
}

// Pending returns the number of submitted tasks that have not yet finished
// executing. The snapshot is taken with both locks held transiently, so it
// is never torn by a concurrent submit or consume.
func (p *Pool) Pending() (uint64, error) {
	return p.q.pending()
}

// Workers returns the configured worker count.
func (p *Pool) Workers() uint16 {
	return p.workers
}

// Destroy tears the pool down: it requests cancellation of every worker,
// joins them, and releases every owned resource including tasks that were
// queued but never consumed.
//
// A worker that is mid-task finishes that task before observing the
// cancellation request; ctx bounds how long Destroy waits for the join. If
// ctx expires first, Destroy fails with ErrJoinFailed and releases NOTHING.
// That partial-failure state is deliberate: the caller owns recovery and may
// call Destroy again once the stuck worker has come back.
func (p *Pool) Destroy(ctx context.Context) error {
	if p.destroyed.Load() {
		return ErrPoolDestroyed
	}

	if err := p.q.stop(); err != nil {
		return err
	}

	joined := make(chan struct{})
	go func() {
		p.joinWG.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrJoinFailed, ctx.Err())
	}

	if err := p.q.destroy(); err != nil {
		return err
	}

	p.destroyed.Store(true)

	return nil
}

// work is the body of one worker goroutine: block until a task is available,
// execute it to completion, record the completion, repeat.
//
// Cancellation is only observable inside consume, so a task that has started
// always runs to completion. A consume failure other than the stop signal
// is handed to the error handler and terminates the worker on its own.
func (p *Pool) work(ready *sync.WaitGroup) {
	defer p.joinWG.Done()

	ready.Done()

	for {
		t, err := p.q.consume()
		if err != nil {
			if !errors.Is(err, ErrPoolStopped) && p.errHandler != nil {
				p.errHandler(err)
			}
			return
		}

		t.Run()

		if err := p.q.completed(); err != nil {
			if p.errHandler != nil {
				p.errHandler(err)
			}
			return
		}
	}
}
