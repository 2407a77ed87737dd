// Package factory builds pools from functional options, defaulting anything
// the caller leaves unspecified.
package factory

import (
	"runtime"

	poolInternal "github.com/taskpool/taskpool/internal/pool"
	"github.com/taskpool/taskpool/pool"
)

// poolOptions represents the configurable settings of a pool: its worker
// count and the handler that receives worker-loop failures.
type poolOptions struct {
	workers    uint16
	errHandler func(error)
}

// poolOption defines a functional option for customizing a pool by modifying
// poolOptions.
type poolOption func(*poolOptions)

// WithWorkers configures the number of workers the pool is created with.
func WithWorkers(workers uint16) poolOption {
	return func(options *poolOptions) {
		options.workers = workers
	}
}

// WithErrorHandler configures the handler invoked when a worker's consume
// loop fails with no caller left to return the error to. Without a handler
// such failures are dropped.
func WithErrorHandler(errHandler func(error)) poolOption {
	return func(options *poolOptions) {
		options.errHandler = errHandler
	}
}

// CreatePool initializes a worker pool with customizable options and returns
// it, or an error if creation fails. The worker count defaults to the CPU
// core count, which suits the CPU-bound workloads the pool targets.
func CreatePool(opts ...poolOption) (pool.Pool, error) {

	options := &poolOptions{}

	// Default workers to CPU core count.
	options.workers = uint16(runtime.NumCPU())

	for idx := range opts {
		opts[idx](options)
	}

	return poolInternal.New(options.workers, options.errHandler)
}
