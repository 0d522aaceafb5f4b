package sluice

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWriter_Write_ordered(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	sink := new(fakeSink)
	w, err := NewWriter(func() (Sink, error) { return sink, nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var want [][]byte
	for i := 0; i < 50; i++ {
		p := []byte(fmt.Sprintf(`chunk %d`, i))
		want = append(want, p)
		n, err := w.Write(p)
		if err != nil {
			t.Fatal(err)
		}
		if n != len(p) {
			t.Fatalf(`short write: %d of %d`, n, len(p))
		}
	}

	got, _ := sink.recorded()
	if len(got) != len(want) {
		t.Fatalf(`expected %d writes, got %d`, len(want), len(got))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf(`write %d out of order or corrupted: %q`, i, got[i])
		}
	}
}

func TestWriter_scenario_writeFlushClose(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	before := instances.len()

	sink := new(fakeSink)
	w, err := NewWriter(func() (Sink, error) { return sink, nil })
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write([]byte(`hello`)); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, flushes := sink.recorded()
	if len(got) != 1 || string(got[0]) != `hello` {
		t.Errorf(`expected exactly one write of "hello", got %q`, got)
	}
	if flushes != 1 {
		t.Errorf(`expected exactly one flush, got %d`, flushes)
	}
	if n := sink.stops.Load(); n != 1 {
		t.Errorf(`expected exactly one stop, got %d`, n)
	}
	if n := instances.len(); n != before {
		t.Errorf(`expected the registry to return to %d entries, got %d`, before, n)
	}
}

func TestWriter_afterClose(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	sink := new(fakeSink)
	w, err := NewWriter(func() (Sink, error) { return sink, nil })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if n, err := w.Write([]byte(`hello`)); n != 0 || !errors.Is(err, ErrClosed) {
		t.Errorf(`expected 0, ErrClosed, got %d, %v`, n, err)
	}
	if err := w.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf(`expected ErrClosed, got %v`, err)
	}
	if got, flushes := sink.recorded(); len(got) != 0 || flushes != 0 {
		t.Errorf(`a closed writer must not touch the stream: %q, %d`, got, flushes)
	}
}

func TestWriter_writeError(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	sentinel := errors.New(`broken pipe`)
	sink := &fakeSink{writeErr: sentinel}
	w, err := NewWriter(func() (Sink, error) { return sink, nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if n, err := w.Write([]byte(`hello`)); n != 0 || err != sentinel {
		t.Errorf(`expected 0 and the stream error verbatim, got %d, %v`, n, err)
	}
}

func TestWriter_flushError(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	sentinel := errors.New(`flush refused`)
	sink := &fakeSink{flushErr: sentinel}
	w, err := NewWriter(func() (Sink, error) { return sink, nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Flush(); err != sentinel {
		t.Errorf(`expected the stream error verbatim, got %v`, err)
	}
}

func TestWriter_capabilities(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t) // should always clean up

	w, err := NewWriter(func() (Sink, error) { return new(fakeSink), nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.Readable() || !w.Writable() || w.Seekable() {
		t.Error(`expected writable, not readable, not seekable`)
	}
}
