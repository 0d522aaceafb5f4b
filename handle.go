package sluice

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// handle composes exactly one Portal with exactly one stream primitive,
// owning the open/closed state machine and the all-or-nothing
// construction and teardown semantics shared by Reader and Writer.
type handle struct {
	id     uint64
	mode   string
	portal *Portal
	stream Stream
	logger *logiface.Logger[logiface.Event]

	open      atomic.Bool
	closeOnce sync.Once
}

// newHandle builds a handle: register, start the portal, build the
// primitive through it, start the primitive through it, and only then
// mark open. On failure everything already created is torn down, with
// teardown errors logged rather than returned, the registry entry is
// removed, and the original error is returned unmodified.
func newHandle(mode string, factory func() (Stream, error), cfg *options) (h *handle, err error) {
	h = &handle{
		mode:   mode,
		portal: NewPortal(),
	}

	// membership precedes the first fallible step
	h.id = instances.register(h)
	h.logger = cfg.logger.Clone().
		Uint64(`stream`, h.id).
		Str(`mode`, h.mode).
		Logger()

	defer func() {
		if err != nil {
			h.unwind()
			h = nil
		}
	}()

	if err = h.portal.Start(); err != nil {
		return
	}
	if h.stream, err = Call(h.portal, factory); err != nil {
		return
	}
	if err = h.portal.Call(h.stream.Start); err != nil {
		return
	}

	h.open.Store(true)
	h.logger.Debug().Log(`stream opened`)

	return
}

// unwind tears down every sub-resource created by a failed construction,
// logging teardown errors so the caller observes only the original
// trigger.
func (x *handle) unwind() {
	if x.stream != nil {
		if err := x.portal.Call(x.stream.Stop); err != nil {
			x.logger.Err().Err(err).Log(`stream stop failed during construction unwind`)
		}
	}
	if err := x.portal.Stop(); err != nil {
		x.logger.Err().Err(err).Log(`portal stop failed during construction unwind`)
	}
	instances.unregister(x.id)
}

// close is idempotent; repeat calls return nil without a second
// teardown. The stream stop and the portal stop are both attempted
// regardless of whether the other fails, and the first error collected
// is returned once both have run.
func (x *handle) close() error {
	var err error
	x.closeOnce.Do(func() {
		err = x.teardown()
	})
	return err
}

func (x *handle) teardown() error {
	x.open.Store(false)

	stopErr := x.portal.Call(x.stream.Stop)
	portalErr := x.portal.Stop()

	instances.unregister(x.id)

	if stopErr != nil {
		x.logger.Err().Err(stopErr).Log(`stream stop failed during close`)
	} else {
		x.logger.Debug().Log(`stream closed`)
	}

	if stopErr != nil {
		return stopErr
	}
	return portalErr
}

// closeAbandoned force-closes a handle that was never explicitly closed,
// on behalf of the reclamation backstop or the shutdown sweep. There is
// no caller to receive a failure, so errors are only logged.
func (x *handle) closeAbandoned(reason string) {
	if !x.open.Load() {
		return
	}
	x.logger.Warning().Str(`reason`, reason).Log(`stream abandoned while open; forcing close`)
	if err := x.close(); err != nil {
		x.logger.Err().Err(err).Str(`reason`, reason).Log(`forced close failed`)
	}
}

// reclaim is the runtime cleanup attached to each facade object. It runs
// when the facade becomes unreachable, off the runtime's cleanup
// goroutine so a blocking stream stop cannot stall other cleanups.
func reclaim(h *handle) {
	if !h.open.Load() {
		return
	}
	go h.closeAbandoned(`unreachable`)
}
