package sluice

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// checkNumGoroutines guards against leaked goroutines, waiting up to the
// given duration for the count to settle back to its starting point.
func checkNumGoroutines(wait time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(wait)
		for {
			runtime.GC()
			if runtime.NumGoroutine() <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`goroutine leak: started with %d, have %d`, before, runtime.NumGoroutine())
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

func TestPortal_startCallStop(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}

	var ran bool
	if err := portal.Call(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Error(err)
	}
	if !ran {
		t.Error(`expected work to run`)
	}

	if err := portal.Stop(); err != nil {
		t.Error(err)
	}
}

func TestPortal_Start_twice(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	if err := portal.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf(`expected ErrAlreadyStarted, got %v`, err)
	}
}

func TestPortal_Start_afterStop(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := portal.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf(`expected ErrClosed, got %v`, err)
	}
}

func TestPortal_Call_beforeStart(t *testing.T) {
	portal := NewPortal()
	if err := portal.Call(func() error {
		t.Error(`should not run`)
		return nil
	}); !errors.Is(err, ErrNotStarted) {
		t.Errorf(`expected ErrNotStarted, got %v`, err)
	}
}

func TestPortal_Call_afterStop(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	if err := portal.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := portal.Call(func() error {
		t.Error(`should not run`)
		return nil
	}); !errors.Is(err, ErrClosed) {
		t.Errorf(`expected ErrClosed, got %v`, err)
	}
}

func TestPortal_Call_errorPreserved(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	sentinel := errors.New(`some transport error`)
	wrapped := errors.Join(sentinel)
	// identity, not merely errors.Is: the error must come back unmodified
	if err := portal.Call(func() error { return wrapped }); err != wrapped {
		t.Errorf(`expected the identical error value, got %v`, err)
	} else if !errors.Is(err, sentinel) {
		t.Error(`expected the error chain to survive`)
	}
}

func TestPortal_Call_sameGoroutineOrdering(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	var observed []int
	for i := 0; i < 100; i++ {
		if err := portal.Call(func() error {
			observed = append(observed, i)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	for i, v := range observed {
		if i != v {
			t.Fatalf(`issuance order not preserved at %d: %v`, i, v)
		}
	}
}

func TestPortal_Call_serialized(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	var (
		inFlight atomic.Int32
		overlap  atomic.Bool
		wg       sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = portal.Call(func() error {
					if inFlight.Add(1) != 1 {
						overlap.Store(true)
					}
					time.Sleep(time.Microsecond * 50)
					inFlight.Add(-1)
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if overlap.Load() {
		t.Error(`submitted work overlapped on the worker`)
	}
}

func TestPortal_Call_panic(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	err := portal.Call(func() error { panic(`boom`) })
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf(`expected a PanicError, got %v`, err)
	}
	if panicErr.Value != `boom` {
		t.Errorf(`unexpected panic value: %v`, panicErr.Value)
	}

	// the worker survives
	if err := portal.Call(func() error { return nil }); err != nil {
		t.Errorf(`worker did not survive the panic: %v`, err)
	}
}

func TestPortal_Call_panicErrorUnwrap(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	err := portal.Call(func() error { panic(io.ErrUnexpectedEOF) })
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf(`expected the panic value to unwrap, got %v`, err)
	}
}

func TestPortal_Stop_idempotent(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := portal.Stop(); err != nil {
			t.Errorf(`stop %d: %v`, i, err)
		}
	}
}

func TestPortal_Stop_concurrent(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := portal.Stop(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestCall_result(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	defer portal.Stop()

	v, err := Call(portal, func() (string, error) { return `hello`, nil })
	if err != nil || v != `hello` {
		t.Errorf(`unexpected result: %q, %v`, v, err)
	}

	sentinel := errors.New(`nope`)
	if _, err := Call(portal, func() (int, error) { return 0, sentinel }); !errors.Is(err, sentinel) {
		t.Errorf(`expected the sentinel, got %v`, err)
	}
}

func TestCall_afterStop(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	portal := NewPortal()
	if err := portal.Start(); err != nil {
		t.Fatal(err)
	}
	if err := portal.Stop(); err != nil {
		t.Fatal(err)
	}
	if _, err := Call(portal, func() ([]byte, error) {
		t.Error(`should not run`)
		return nil, nil
	}); !errors.Is(err, ErrClosed) {
		t.Errorf(`expected ErrClosed, got %v`, err)
	}
}
