package retarget

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout reports that a retarget run did not finish before the
// caller's deadline. Distinct from validation errors: a timed-out run may
// be retried, a rejected request must be fixed.
var ErrTimeout = errors.New("retarget: computation timed out")

// ErrRunFailed reports that a retarget run crashed part way through.
// Like ErrTimeout it marks a failed run, not a rejected request.
var ErrRunFailed = errors.New("retarget: computation failed")

type response struct {
	result *Result
	err    error
}

type job struct {
	req  *Request
	done chan response
}

// Worker runs retarget computations on a dedicated goroutine, one at a
// time, so the interactive path never blocks on them. The caller and the
// computation share nothing mutable: the computation builds its own
// poses and treats the request as read-only.
type Worker struct {
	jobs chan job
}

func NewWorker() *Worker {
	w := &Worker{jobs: make(chan job)}
	go w.run()
	return w
}

func (w *Worker) run() {
	for j := range w.jobs {
		res, err := runGuarded(j.req)
		j.done <- response{res, err}
	}
}

// runGuarded turns a panic inside the computation into a run failure
// instead of tearing down the process.
func runGuarded(req *Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrRunFailed, r)
		}
	}()
	return Retarget(req)
}

// Submit dispatches one request and waits for its single terminal
// response or the context deadline. On timeout the in-flight computation
// is abandoned: its eventual result is discarded and the worker picks up
// the next job afterwards.
func (w *Worker) Submit(ctx context.Context, req *Request) (*Result, error) {
	done := make(chan response, 1) // worker must not block on an abandoned job
	select {
	case w.jobs <- job{req, done}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
	select {
	case r := <-done:
		return r.result, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// Close stops accepting new work. Safe only once; in-flight work
// completes on the worker goroutine.
func (w *Worker) Close() {
	close(w.jobs)
}
