package pool

import (
	"sync/atomic"

	"github.com/taskpool/taskpool/internal/concurrency"
	"github.com/taskpool/taskpool/task"
)

// node is one link of the task chain. A node exclusively owns its successor,
// so the chain is a singly-linked, non-cyclic list.
//
// next is the one field that crosses the two lock domains: it is written
// under enqLock (linking a new node after tail) and read under deqLock
// (checking whether head has a successor). At the empty-to-one-element
// transition both sides touch the same node, so the link is atomic; the
// atomic store/load pair also publishes the node's task to the consumer.
type node struct {
	task task.Task
	next atomic.Pointer[node]
}

// queue is the pool's task chain together with its synchronization state.
//
// The chain always contains at least one node: a permanent sentinel. head
// points at the sentinel or at the most recently consumed node, and the first
// node after head (if any) holds the next task to run. The sentinel gives
// head a stable predecessor, so consuming never has to special-case the
// empty-to-one-element transition that races with producers.
//
// Two independent locks decouple producer contention from consumer
// contention: enqLock guards tail and submitted, deqLock guards head,
// consumed and stopping. The only place both locks are held together is the
// drain barrier (and the pending snapshot), always in enqLock-then-deqLock
// order; the reverse order is never taken.
type queue struct {

	// enqLock guards tail and submitted.
	enqLock *concurrency.Mutex

	// deqLock guards head, consumed and stopping.
	deqLock *concurrency.Mutex

	// takeCond is signalled once per appended task, waking one blocked
	// consumer. Bound to deqLock.
	takeCond *concurrency.Cond

	// drainCond is signalled once per completed task, waking the drain
	// barrier. Bound to deqLock.
	drainCond *concurrency.Cond

	// head points at the sentinel or the most recently consumed node.
	head *node

	// tail points at the last linked node.
	tail *node

	// submitted counts tasks appended in the current drain cycle.
	submitted uint64

	// consumed counts tasks fully executed in the current drain cycle.
	// It is bumped after the routine returns, so submitted-consumed is the
	// exact number of unfinished tasks.
	consumed uint64

	// stopping is set when the pool starts tearing down. Consumers observe
	// it only inside consume, which is their sole cancellation point.
	stopping bool
}

// newQueue builds an empty queue: a lone sentinel node and fresh locks.
func newQueue() *queue {
	enq := &concurrency.Mutex{}
	deq := &concurrency.Mutex{}

	sentinel := &node{}

	return &queue{
		enqLock:   enq,
		deqLock:   deq,
		takeCond:  concurrency.NewCond(deq),
		drainCond: concurrency.NewCond(deq),
		head:      sentinel,
		tail:      sentinel,
	}
}

// append links a new node holding t after the tail and wakes one blocked
// consumer. On an append-lock failure the task is not queued and the chain
// is unchanged; the already-built node is simply dropped.
func (q *queue) append(t task.Task) error {
	n := &node{task: t}

	if err := q.enqLock.Lock(); err != nil {
		return ErrLockFailed
	}

	q.tail.next.Store(n)
	q.tail = n
	q.submitted++

	if err := q.enqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	// Deliver the wakeup under deqLock. A consumer's empty check and its
	// park are two separate steps under that lock; a signal sent between
	// them without the lock held would be lost, stranding the task. The
	// locks are still only ever taken one at a time here.
	if err := q.deqLock.Lock(); err != nil {
		return ErrLockFailed
	}

	q.takeCond.Signal()

	if err := q.deqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	return nil
}

// consume blocks until a task is available, unlinks it from the chain and
// returns it. This is the only suspension point of a worker and its only
// cancellation point: once stop has been requested, consume returns
// ErrPoolStopped instead of a task, even if tasks remain queued.
func (q *queue) consume() (task.Task, error) {
	if err := q.deqLock.Lock(); err != nil {
		return task.Task{}, ErrLockFailed
	}

	var next *node
	for {
		if q.stopping {
			_ = q.deqLock.Unlock()
			return task.Task{}, ErrPoolStopped
		}
		if next = q.head.next.Load(); next != nil {
			break
		}
		q.takeCond.Wait()
	}

	// Advance head past the retired node. The new head keeps its place in
	// the chain as the consumed-node placeholder; its task slot is cleared
	// so a retired node never appears to hold live work.
	retired := q.head
	q.head = next

	t := next.task
	next.task = task.Task{}
	retired.next.Store(nil)

	if err := q.deqLock.Unlock(); err != nil {
		return task.Task{}, ErrLockFailed
	}

	return t, nil
}

// completed records that a consumed task has finished executing and wakes
// the drain barrier so it can re-check its condition.
func (q *queue) completed() error {
	if err := q.deqLock.Lock(); err != nil {
		return ErrLockFailed
	}

	q.consumed++
	q.drainCond.Signal()

	if err := q.deqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	return nil
}

// stop flags the queue as stopping and wakes every blocked consumer so each
// can observe the flag and terminate.
func (q *queue) stop() error {
	if err := q.deqLock.Lock(); err != nil {
		return ErrLockFailed
	}

	q.stopping = true

	if err := q.deqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	q.takeCond.Broadcast()

	return nil
}

// wait blocks until every task submitted in the current cycle has finished
// executing, then resets both counters for the next cycle.
//
// It first takes enqLock, freezing submissions (and therefore the submitted
// counter) for the whole drain, then waits on drainCond until the consumed
// counter catches up. On success it returns HOLDING BOTH LOCKS; release must
// follow. Submitting between wait and release deadlocks by design.
func (q *queue) wait() error {
	if err := q.enqLock.Lock(); err != nil {
		return ErrLockFailed
	}

	if err := q.deqLock.Lock(); err != nil {
		_ = q.enqLock.Unlock()
		return ErrLockFailed
	}

	for q.submitted != q.consumed {
		q.drainCond.Wait()
	}

	q.submitted = 0
	q.consumed = 0

	return nil
}

// release unlocks the pair of locks held after a successful wait, append
// side first.
func (q *queue) release() error {
	if err := q.enqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	if err := q.deqLock.Unlock(); err != nil {
		return ErrLockFailed
	}

	return nil
}

// pending returns a race-free snapshot of submitted minus consumed. Both
// locks are taken transiently and released before returning.
func (q *queue) pending() (uint64, error) {
	if err := q.enqLock.Lock(); err != nil {
		return 0, ErrLockFailed
	}

	if err := q.deqLock.Lock(); err != nil {
		_ = q.enqLock.Unlock()
		return 0, ErrLockFailed
	}

	n := q.submitted - q.consumed

	if err := q.deqLock.Unlock(); err != nil {
		return 0, ErrLockFailed
	}

	if err := q.enqLock.Unlock(); err != nil {
		return 0, ErrLockFailed
	}

	return n, nil
}

// destroy retires the queue's synchronization primitives and clears the
// remaining chain, covering tasks that were queued but never consumed.
// It must only be called once every consumer has terminated; a lock that is
// still held makes the corresponding destroy fail.
func (q *queue) destroy() error {
	if err := q.takeCond.Destroy(); err != nil {
		return err
	}

	if err := q.drainCond.Destroy(); err != nil {
		return err
	}

	if err := q.enqLock.Destroy(); err != nil {
		return err
	}

	if err := q.deqLock.Destroy(); err != nil {
		return err
	}

	for n := q.head; n != nil; {
		next := n.next.Load()
		n.task = task.Task{}
		n.next.Store(nil)
		n = next
	}
	q.head = nil
	q.tail = nil

	return nil
}
