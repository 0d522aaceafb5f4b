package sluice

import (
	"fmt"
	"io"

	"github.com/joeycumines/go-sluice/relay"
)

// Modes accepted by [Open].
const (
	ModeRead  = `rb`
	ModeWrite = `wb`
)

// Handle is the surface common to [Reader] and [Writer]: one open stream
// together with everything it owns. Values returned by [Open] may be
// asserted to *Reader or *Writer for the direction-specific operations.
type Handle interface {
	io.Closer

	// Flush forces any buffered bytes to be sent; a no-op on readers.
	Flush() error

	// Closed reports whether the handle has been closed.
	Closed() bool

	Readable() bool
	Writable() bool
	Seekable() bool
}

var (
	_ Handle         = (*Reader)(nil)
	_ Handle         = (*Writer)(nil)
	_ io.ReadCloser  = (*Reader)(nil)
	_ io.WriteCloser = (*Writer)(nil)
	_ Source         = (*relay.Reader)(nil)
	_ Sink           = (*relay.Writer)(nil)
)

// Open opens the relay stream described by cfg in the given mode,
// [ModeRead] or [ModeWrite]. Any other mode is an error.
func Open(mode string, cfg relay.Config, opts ...Option) (Handle, error) {
	switch mode {
	case ModeRead:
		return OpenReader(cfg, opts...)
	case ModeWrite:
		return OpenWriter(cfg, opts...)
	default:
		return nil, fmt.Errorf(`sluice: unsupported mode %q: must be %q or %q`, mode, ModeRead, ModeWrite)
	}
}

// OpenReader constructs a [Reader] over a [relay.Reader] for cfg.
func OpenReader(cfg relay.Config, opts ...Option) (*Reader, error) {
	return NewReader(func() (Source, error) {
		return relay.NewReader(cfg)
	}, opts...)
}

// OpenWriter constructs a [Writer] over a [relay.Writer] for cfg.
func OpenWriter(cfg relay.Config, opts ...Option) (*Writer, error) {
	return NewWriter(func() (Sink, error) {
		return relay.NewWriter(cfg)
	}, opts...)
}

// WithReader opens a [Reader] for cfg, passes it to fn, and always closes
// it when fn returns. If fn fails (or panics), a close error is logged
// and suppressed so fn's outcome is the one observed; if fn succeeds, a
// close error propagates normally.
func WithReader(cfg relay.Config, fn func(*Reader) error, opts ...Option) error {
	x, err := OpenReader(cfg, opts...)
	if err != nil {
		return err
	}
	return scoped(x.h, func() error { return fn(x) })
}

// WithWriter opens a [Writer] for cfg, passes it to fn, and always closes
// it when fn returns. If fn fails (or panics), a close error is logged
// and suppressed so fn's outcome is the one observed; if fn succeeds, a
// close error propagates normally.
func WithWriter(cfg relay.Config, fn func(*Writer) error, opts ...Option) error {
	x, err := OpenWriter(cfg, opts...)
	if err != nil {
		return err
	}
	return scoped(x.h, func() error { return fn(x) })
}

// scoped implements the scoped-acquisition contract: close on every exit
// path, with the block's own failure taking precedence over any close
// error.
func scoped(h *handle, fn func() error) (err error) {
	var completed bool
	defer func() {
		closeErr := h.close()
		if closeErr == nil {
			return
		}
		if completed && err == nil {
			err = closeErr
			return
		}
		h.logger.Err().Err(closeErr).Log(`close failed after scoped block failure; suppressed`)
	}()
	err = fn()
	completed = true
	return
}
