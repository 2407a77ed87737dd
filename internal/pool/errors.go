package pool

import "errors"

var ErrInvalidWorkerCount = errors.New("pool requires at least one worker")
var ErrLockFailed = errors.New("pool lock is unavailable")
var ErrJoinFailed = errors.New("worker did not terminate in time")
var ErrPoolStopped = errors.New("pool is shutting down")
var ErrPoolDestroyed = errors.New("pool has been destroyed")
