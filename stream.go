package sluice

type (
	// Stream is the lifecycle surface shared by every stream primitive.
	//
	// Implementations are confined to a single goroutine: no method is
	// called concurrently with any other, and within this package every
	// call is made on the owning handle's portal worker. Implementations
	// own their configuration, including validation and any timeouts
	// (e.g. connect timeout); this package layers no timeouts of its own.
	Stream interface {
		// Start establishes the underlying session. It may fail with a
		// connection or authentication error, in which case no further
		// methods are called.
		Start() error

		// Stop tears down the session. It is called exactly once after a
		// successful Start.
		Stop() error
	}

	// Source is a readable stream primitive.
	//
	// End of stream is expressed as an empty result with a nil error, not
	// as a sentinel error. The facade translates that to [io.EOF] where
	// its own surface demands it.
	Source interface {
		Stream

		// ReadBlock returns up to maxSize bytes. It may return fewer than
		// requested before end of stream, and returns an empty result
		// only once the stream is exhausted.
		ReadBlock(maxSize int) ([]byte, error)

		// ReadExactly returns exactly n bytes, or fewer only at end of
		// stream.
		ReadExactly(n int) ([]byte, error)

		// ReadAll blocks until the remote stream is exhausted and returns
		// everything remaining.
		ReadAll() ([]byte, error)
	}

	// Sink is a writable stream primitive.
	Sink interface {
		Stream

		// Write sends p. It may fail with a transport error.
		Write(p []byte) error

		// Flush forces any buffered bytes to be sent.
		Flush() error
	}

	// SourceFactory builds the Source owned by a [Reader]. It is invoked
	// on the handle's portal worker, exactly once per construction.
	SourceFactory func() (Source, error)

	// SinkFactory builds the Sink owned by a [Writer]. It is invoked on
	// the handle's portal worker, exactly once per construction.
	SinkFactory func() (Sink, error)
)
