package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/taskpool/taskpool/task"
)

// TestQueue_TestSuite executes the test suite for the queue type.
func TestQueue_TestSuite(t *testing.T) {
	suite.Run(t, new(Queue_TestSuite))
}

// Queue_TestSuite tests the append, consume and drain-barrier functions of
// the queue type. The queue is exercised directly, without workers, so every
// consume call is made by the test itself.
type Queue_TestSuite struct {
	suite.Suite

	q *queue
}

// SetupTest initializes an empty queue.
func (s *Queue_TestSuite) SetupTest() {
	s.q = newQueue()
}

// chainLen walks the chain and counts the nodes holding live tasks.
func (s *Queue_TestSuite) chainLen() int {
	n := 0
	for c := s.q.head.next.Load(); c != nil; c = c.next.Load() {
		n++
	}
	return n
}

// TestQueue_AppendWhileConsumeLocked ensures that the chain mutation of an
// append lands under the append lock alone while the consume side is locked
// out; only the wakeup delivery waits for the consume lock.
func (s *Queue_TestSuite) TestQueue_AppendWhileConsumeLocked() {

	// Block consumption for the duration of the append.
	s.Require().NoError(s.q.deqLock.Lock())

	appended := make(chan error, 1)
	go func() {
		appended <- s.q.append(task.New(func(any) {}, nil))
	}()

	// The new node must become visible while deqLock is still held.
	for i := 0; s.q.head.next.Load() == nil && i < 100; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	s.Require().NotNil(s.q.head.next.Load())

	s.Require().NoError(s.q.deqLock.Unlock())
	s.Require().NoError(<-appended)
	s.Require().Equal(uint64(1), s.q.submitted)
	s.Require().Equal(1, s.chainLen())
}

// TestQueue_AppendWakesConsumerParkedAfterEmptyCheck ensures the wakeup of
// an append cannot slip past a consumer that has already observed an empty
// chain under deqLock but has not parked on takeCond yet. The append must
// hold deqLock while signalling so the signal is deferred until the
// consumer's Wait has released the lock.
func (s *Queue_TestSuite) TestQueue_AppendWakesConsumerParkedAfterEmptyCheck() {

	// Take the consumer's role up to its empty check.
	s.Require().NoError(s.q.deqLock.Lock())
	s.Require().Nil(s.q.head.next.Load())

	appended := make(chan error, 1)
	go func() {
		appended <- s.q.append(task.New(func(any) {}, nil))
	}()

	// Give the append time to link the node and queue its wakeup behind
	// deqLock.
	time.Sleep(100 * time.Millisecond)

	// Park exactly as consume does after its empty check. Wait releases
	// deqLock, which lets the pending signal through; a signal fired
	// before this point, without the lock held, would have been lost and
	// this waiter would never wake.
	woken := make(chan struct{})
	go func() {
		s.q.takeCond.Wait()
		s.Require().NotNil(s.q.head.next.Load())
		s.Require().NoError(s.q.deqLock.Unlock())
		close(woken)
	}()

	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		s.FailNow("waiter never woke with a live task linked")
	}

	s.Require().NoError(<-appended)
	s.Require().Equal(1, s.chainLen())
}

// TestQueue_AppendLockFailureLeavesChainUnchanged ensures that a failed
// append surfaces ErrLockFailed and does not link a half-constructed node.
func (s *Queue_TestSuite) TestQueue_AppendLockFailureLeavesChainUnchanged() {
	s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))

	// Retire the append lock so the next append cannot acquire it.
	s.Require().NoError(s.q.enqLock.Destroy())

	err := s.q.append(task.New(func(any) {}, nil))
	s.Require().ErrorIs(err, ErrLockFailed)

	s.Require().Equal(1, s.chainLen())
	s.Require().Equal(uint64(1), s.q.submitted)
}

// TestQueue_ConsumeReturnsTasksInAppendOrder ensures global FIFO: tasks come
// out of consume in exactly the order they were appended.
func (s *Queue_TestSuite) TestQueue_ConsumeReturnsTasksInAppendOrder() {
	executed := make([]int, 0, 3)

	record := func(arg any) {
		executed = append(executed, arg.(int))
	}

	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.q.append(task.New(record, i)))
	}

	for i := 0; i < 3; i++ {
		t, err := s.q.consume()
		s.Require().NoError(err)
		t.Run()
	}

	s.Require().Equal([]int{1, 2, 3}, executed)
}

// TestQueue_ConsumeClearsRetiredSlot ensures that once a task has been
// consumed, the node left at head never appears to hold live work.
func (s *Queue_TestSuite) TestQueue_ConsumeClearsRetiredSlot() {
	s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))

	_, err := s.q.consume()
	s.Require().NoError(err)

	s.Require().True(s.q.head.task.IsZero())
	s.Require().Nil(s.q.head.next.Load())
}

// TestQueue_ConsumeBlocksUntilAppend ensures that a consumer parked on an
// empty queue only wakes once a producer has appended a task.
func (s *Queue_TestSuite) TestQueue_ConsumeBlocksUntilAppend() {

	var appendTime time.Time
	var wakeTime time.Time

	go func() {
		time.Sleep(100 * time.Millisecond)
		appendTime = time.Now()
		s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))
	}()

	_, err := s.q.consume()
	wakeTime = time.Now()

	s.Require().NoError(err)
	s.Require().True(appendTime.Before(wakeTime))
}

// TestQueue_StopWakesBlockedConsumer ensures that a consumer parked on an
// empty queue is woken by stop and reports ErrPoolStopped.
func (s *Queue_TestSuite) TestQueue_StopWakesBlockedConsumer() {
	consumeErr := make(chan error, 1)

	go func() {
		_, err := s.q.consume()
		consumeErr <- err
	}()

	// Give the consumer time to park before stopping.
	time.Sleep(100 * time.Millisecond)
	s.Require().NoError(s.q.stop())

	select {
	case err := <-consumeErr:
		s.Require().ErrorIs(err, ErrPoolStopped)
	case <-time.After(time.Second):
		s.FailNow("consumer was not woken by stop")
	}
}

// TestQueue_StopPreemptsQueuedTasks ensures that once stop has been
// requested, consume refuses queued tasks: not-yet-started work is lost on
// teardown rather than drained.
func (s *Queue_TestSuite) TestQueue_StopPreemptsQueuedTasks() {
	s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))
	s.Require().NoError(s.q.stop())

	_, err := s.q.consume()
	s.Require().ErrorIs(err, ErrPoolStopped)
	s.Require().Equal(1, s.chainLen())
}

// TestQueue_WaitReturnsHoldingBothLocksAndResetsCounters drains a cycle by
// hand and checks the barrier's postconditions: counters reset, both locks
// held until release.
func (s *Queue_TestSuite) TestQueue_WaitReturnsHoldingBothLocksAndResetsCounters() {
	for i := 0; i < 2; i++ {
		s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))
	}
	for i := 0; i < 2; i++ {
		t, err := s.q.consume()
		s.Require().NoError(err)
		t.Run()
		s.Require().NoError(s.q.completed())
	}

	s.Require().NoError(s.q.wait())

	// Both counters reset together at the end of the drain.
	s.Require().Equal(uint64(0), s.q.submitted)
	s.Require().Equal(uint64(0), s.q.consumed)

	// The locks are held: destroying either must report it busy.
	s.Require().Error(s.q.enqLock.Destroy())
	s.Require().Error(s.q.deqLock.Destroy())

	s.Require().NoError(s.q.release())

	n, err := s.q.pending()
	s.Require().NoError(err)
	s.Require().Equal(uint64(0), n)
}

// TestQueue_WaitBlocksUntilCompletion ensures the barrier does not return
// while a consumed task has not yet been marked complete.
func (s *Queue_TestSuite) TestQueue_WaitBlocksUntilCompletion() {
	s.Require().NoError(s.q.append(task.New(func(any) {}, nil)))

	t, err := s.q.consume()
	s.Require().NoError(err)
	t.Run()

	var completeTime time.Time
	var wakeTime time.Time

	go func() {
		time.Sleep(100 * time.Millisecond)
		completeTime = time.Now()
		s.Require().NoError(s.q.completed())
	}()

	s.Require().NoError(s.q.wait())
	wakeTime = time.Now()
	s.Require().NoError(s.q.release())

	s.Require().True(completeTime.Before(wakeTime))
}
