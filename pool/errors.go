package pool

import (
	"github.com/taskpool/taskpool/internal/pool"
)

// The pool's error values, re-exported so callers can match them with
// errors.Is without importing internal packages.
var (
	ErrInvalidWorkerCount = pool.ErrInvalidWorkerCount
	ErrLockFailed         = pool.ErrLockFailed
	ErrJoinFailed         = pool.ErrJoinFailed
	ErrPoolDestroyed      = pool.ErrPoolDestroyed
)
