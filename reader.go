package sluice

import (
	"io"
	"runtime"
)

// Reader provides blocking, file-like reads from a stream primitive that
// executes on the handle's portal worker. It implements [io.ReadCloser].
//
// A Reader is safe for concurrent use, though reads are serialized on the
// worker and their relative order is then unspecified; see [Portal].
type Reader struct {
	h   *handle
	src Source
}

// NewReader constructs a Reader over the Source produced by factory. The
// factory is invoked on the handle's portal worker. If any construction
// step fails, everything already created is torn down and the original
// error is returned unmodified; teardown errors are logged, never
// returned. Panics if factory is nil.
func NewReader(factory SourceFactory, opts ...Option) (*Reader, error) {
	if factory == nil {
		panic(`sluice: nil source factory`)
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	var src Source
	h, err := newHandle(`read`, func() (Stream, error) {
		s, err := factory()
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, errNilStream
		}
		src = s
		return s, nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	x := &Reader{h: h, src: src}
	runtime.AddCleanup(x, reclaim, h)
	return x, nil
}

// Read implements [io.Reader]: a bounded read of up to len(p) bytes
// through the portal. It may return fewer bytes than requested before end
// of stream, and returns io.EOF only once the stream is exhausted. An
// empty p returns immediately without portal submission or network
// contact. Fails with [ErrClosed] once the Reader is closed.
func (x *Reader) Read(p []byte) (int, error) {
	if !x.h.open.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	b, err := Call(x.h.portal, func() ([]byte, error) {
		return x.src.ReadBlock(len(p))
	})
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

// ReadAll blocks until the remote stream is exhausted and returns
// everything remaining. Fails with [ErrClosed] once the Reader is closed.
func (x *Reader) ReadAll() ([]byte, error) {
	if !x.h.open.Load() {
		return nil, ErrClosed
	}
	return Call(x.h.portal, x.src.ReadAll)
}

// Close releases the Reader: the stream is stopped through the portal,
// then the portal itself is stopped, both attempted regardless of the
// other's failure, and the first error collected is returned after both
// have run. Close is idempotent; repeat calls return nil.
func (x *Reader) Close() error {
	return x.h.close()
}

// Flush is accepted and ignored; no write buffering exists on the read
// side.
func (x *Reader) Flush() error {
	return nil
}

// Closed reports whether the Reader has been closed.
func (x *Reader) Closed() bool {
	return !x.h.open.Load()
}

// Readable reports true.
func (x *Reader) Readable() bool { return true }

// Writable reports false.
func (x *Reader) Writable() bool { return false }

// Seekable reports false; the transport is an append-only stream.
func (x *Reader) Seekable() bool { return false }
