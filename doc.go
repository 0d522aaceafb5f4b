// Package sluice provides blocking, file-like access to remote byte streams,
// by bridging ordinary calling goroutines to a stream primitive that is
// confined to a single worker goroutine.
//
// # Architecture
//
// Each open [Reader] or [Writer] owns exactly two things: a [Portal], which
// runs a dedicated worker goroutine executing submitted units of work one at
// a time, and a stream primitive ([Source] or [Sink]), every operation of
// which is invoked on that worker. Facade calls block the calling goroutine,
// never the worker, and no two operations on the same handle ever execute
// concurrently. Distinct handles are fully independent and run in parallel.
//
// The stream primitive is pluggable via [SourceFactory] and [SinkFactory];
// the [github.com/joeycumines/go-sluice/relay] package provides the HTTP
// implementation used by [Open], [OpenReader], and [OpenWriter].
//
// # Lifecycle
//
// Construction is all-or-nothing: the portal is started, the primitive built
// and started through it, and the handle marked open only once every step
// succeeded. On failure everything already created is torn down (teardown
// errors are logged, never returned) and the original error is returned
// unmodified. [Reader.Close] and [Writer.Close] are idempotent, attempt both
// the primitive stop and the portal stop regardless of individual failures,
// and return the first error encountered after both have run.
//
// Release is deterministic by convention: defer Close, or use [WithReader]
// and [WithWriter] for scoped acquisition. As a backstop, handles abandoned
// while open are closed best-effort when they become unreachable, and
// [CloseAll] force-closes any stragglers; applications that want a shutdown
// sweep register it explicitly, typically `defer sluice.CloseAll()` in main.
//
// # Errors
//
// Operations on a closed handle, and submissions to a stopped portal, fail
// with [ErrClosed] without contacting the network. Primitive errors pass
// through verbatim. A panic inside a submitted unit of work is recovered and
// returned to the submitting goroutine as a [PanicError].
package sluice
