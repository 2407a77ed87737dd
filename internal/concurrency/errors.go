package concurrency

import "errors"

var ErrMutexDestroyed = errors.New("mutex has been destroyed")
var ErrMutexBusy = errors.New("mutex is locked and cannot be destroyed")
var ErrCondDestroyed = errors.New("condition variable has been destroyed")
var ErrCondBusy = errors.New("condition variable has waiters and cannot be destroyed")
