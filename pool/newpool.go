package pool

import (
	"github.com/taskpool/taskpool/internal/pool"
)

// New creates a worker pool with the given number of workers. It does not
// return until every worker has been spawned and is ready to consume, so a
// returned pool is immediately usable.
// Fails with ErrInvalidWorkerCount when workers is zero.
func New(workers uint16) (Pool, error) {
	return pool.New(workers, nil)
}
