package sluice

import (
	"sync"
)

type (
	// Portal bridges blocking callers to a dedicated worker goroutine that
	// executes submitted units of work one at a time.
	//
	// A Portal must be created with [NewPortal]. It is safe for concurrent
	// use; submitted work is serialized on the worker, and work submitted
	// from a single goroutine executes in issuance order. The relative
	// order of work submitted concurrently from different goroutines is
	// unspecified.
	Portal struct {
		tasks chan *portalTask
		ready chan struct{}
		stop  chan struct{}
		done  chan struct{}

		mu      sync.Mutex
		started bool
		stopped bool
	}

	portalTask struct {
		fn  func() error
		err chan error
	}
)

// NewPortal returns a new, unstarted Portal.
func NewPortal() *Portal {
	return &Portal{
		tasks: make(chan *portalTask),
		ready: make(chan struct{}),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine, blocking until it is accepting
// work. It returns [ErrAlreadyStarted] on a second call, or [ErrClosed]
// if the portal was already stopped.
func (x *Portal) Start() error {
	x.mu.Lock()
	if x.stopped {
		x.mu.Unlock()
		return ErrClosed
	}
	if x.started {
		x.mu.Unlock()
		return ErrAlreadyStarted
	}
	x.started = true
	x.mu.Unlock()

	go x.run()
	<-x.ready

	return nil
}

// Call submits fn to the worker and blocks until it has run, returning
// its error unmodified. A panic inside fn is recovered and returned as a
// [PanicError]; the worker survives. Calling Call on a stopped portal
// fails with [ErrClosed], and on a never-started portal with
// [ErrNotStarted]; in both cases fn is not run.
func (x *Portal) Call(fn func() error) error {
	x.mu.Lock()
	started, stopped := x.started, x.stopped
	x.mu.Unlock()
	if stopped {
		return ErrClosed
	}
	if !started {
		return ErrNotStarted
	}

	t := portalTask{fn: fn, err: make(chan error, 1)}
	select {
	case x.tasks <- &t: // ping
		return <-t.err // pong
	case <-x.done:
		return ErrClosed
	}
}

// Stop signals the worker to shut down and blocks until it has fully
// terminated. Stop is idempotent: second and later calls, and calls on a
// portal that was never started, return nil without further effect.
func (x *Portal) Stop() error {
	x.mu.Lock()
	first := !x.stopped
	x.stopped = true
	started := x.started
	x.mu.Unlock()

	if first {
		close(x.stop)
	}
	if started {
		<-x.done
	}

	return nil
}

func (x *Portal) run() {
	defer close(x.done)
	close(x.ready)
	for {
		select {
		case <-x.stop:
			return
		case t := <-x.tasks:
			t.err <- x.execute(t.fn)
		}
	}
}

func (x *Portal) execute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

// Call submits fn to the portal's worker and blocks until it has run,
// returning its result. It behaves as [Portal.Call], for result-bearing
// units of work.
func Call[T any](portal *Portal, fn func() (T, error)) (T, error) {
	var result T
	err := portal.Call(func() (err error) {
		result, err = fn()
		return
	})
	return result, err
}
