package sluice

import (
	"runtime"
)

// Writer provides blocking, file-like writes to a stream primitive that
// executes on the handle's portal worker. It implements [io.WriteCloser].
//
// A Writer is safe for concurrent use, though writes are serialized on
// the worker and their relative order is then unspecified; see [Portal].
type Writer struct {
	h    *handle
	sink Sink
}

// NewWriter constructs a Writer over the Sink produced by factory. The
// factory is invoked on the handle's portal worker. If any construction
// step fails, everything already created is torn down and the original
// error is returned unmodified; teardown errors are logged, never
// returned. Panics if factory is nil.
func NewWriter(factory SinkFactory, opts ...Option) (*Writer, error) {
	if factory == nil {
		panic(`sluice: nil sink factory`)
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	var sink Sink
	h, err := newHandle(`write`, func() (Stream, error) {
		s, err := factory()
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, errNilStream
		}
		sink = s
		return s, nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	x := &Writer{h: h, sink: sink}
	runtime.AddCleanup(x, reclaim, h)
	return x, nil
}

// Write implements [io.Writer], forwarding p to the sink through the
// portal. Sink errors propagate verbatim. Fails with [ErrClosed] once the
// Writer is closed, without contacting the network.
func (x *Writer) Write(p []byte) (int, error) {
	if !x.h.open.Load() {
		return 0, ErrClosed
	}
	if err := x.h.portal.Call(func() error {
		return x.sink.Write(p)
	}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush forces any buffered bytes to be sent, through the portal. Fails
// with [ErrClosed] once the Writer is closed.
func (x *Writer) Flush() error {
	if !x.h.open.Load() {
		return ErrClosed
	}
	return x.h.portal.Call(x.sink.Flush)
}

// Close releases the Writer: the stream is stopped through the portal,
// then the portal itself is stopped, both attempted regardless of the
// other's failure, and the first error collected is returned after both
// have run. Close is idempotent; repeat calls return nil.
func (x *Writer) Close() error {
	return x.h.close()
}

// Closed reports whether the Writer has been closed.
func (x *Writer) Closed() bool {
	return !x.h.open.Load()
}

// Readable reports false.
func (x *Writer) Readable() bool { return false }

// Writable reports true.
func (x *Writer) Writable() bool { return true }

// Seekable reports false; the transport is an append-only stream.
func (x *Writer) Seekable() bool { return false }
