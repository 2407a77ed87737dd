// Package task defines the unit of work executed by a pool worker.
package task

// Routine is the function signature executed by a worker for a single task.
// The argument is the opaque value supplied at submission time.
type Routine func(arg any)

// Task boxes a routine together with the argument it will be invoked with.
// The pairing happens at construction time, so a Task never aliases the
// caller's routine/argument pair after it has been built. The zero Task is
// inert: running it does nothing.
type Task struct {

	// run is the boxed call. It captures both the routine and its argument,
	// which keeps execution free of any type assertion or pointer cast.
	run func()
}

// New builds a Task from a routine and its opaque argument.
// A nil routine yields the zero (inert) Task.
func New(routine Routine, arg any) Task {
	if routine == nil {
		return Task{}
	}
	return Task{run: func() { routine(arg) }}
}

// Bind builds a Task from a typed routine and a matching argument.
// It offers the same boxing as New without forcing the routine body to
// type-assert its argument.
func Bind[ARG any](routine func(ARG), arg ARG) Task {
	if routine == nil {
		return Task{}
	}
	return Task{run: func() { routine(arg) }}
}

// Run executes the boxed routine. Running the zero Task is a no-op.
func (t Task) Run() {
	if t.run != nil {
		t.run()
	}
}

// IsZero reports whether the Task boxes nothing.
func (t Task) IsZero() bool {
	return t.run == nil
}
