package feed

import (
	"context"
)

// Runner executes Tasks on goroutines and applies their Results on the
// goroutine that calls Step or Settle, which must be the controller's owner.
type Runner struct {
	ctx     context.Context
	apply   func(Result) []Task
	results chan Result
	pending int
}

// NewRunner creates a runner applying results with apply, typically
// Controller.Apply. Tasks receive ctx.
func NewRunner(ctx context.Context, apply func(Result) []Task) *Runner {
	return &Runner{
		ctx:     ctx,
		apply:   apply,
		results: make(chan Result),
	}
}

// Exec starts tasks in the background.
func (r *Runner) Exec(tasks ...Task) {
	for _, task := range tasks {
		if task == nil {
			continue
		}
		r.pending++
		go func() {
			res := task(r.ctx)
			select {
			case r.results <- res:
			case <-r.ctx.Done():
			}
		}()
	}
}

// Pending returns the number of tasks whose results have not been applied.
func (r *Runner) Pending() int {
	return r.pending
}

// Step waits for one result, applies it and starts the follow-up tasks. It
// returns false when nothing is pending or the context is done.
func (r *Runner) Step() bool {
	if r.pending == 0 {
		return false
	}

	select {
	case res := <-r.results:
		r.pending--
		r.Exec(r.apply(res)...)
		return true
	case <-r.ctx.Done():
		return false
	}
}

// Settle steps until no tasks remain. It returns the context error if the
// context ends first.
func (r *Runner) Settle() error {
	for r.Step() {
	}
	return r.ctx.Err()
}
