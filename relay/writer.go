package relay

import (
	"io"
	"net/http"
	"sync"
)

// Writer streams to a relay path via a chunked HTTP PUT. It is a
// writable stream primitive in the sense of package sluice:
// loop-confined, with no client-side buffering; each Write streams a
// chunk directly to the transport.
type Writer struct {
	cfg         Config
	url         string
	contentType string
	client      *http.Client

	pw       *io.PipeWriter
	consumed chan struct{}
	result   chan doResult
	launched bool
	done     bool
	doneErr  error
}

type doResult struct {
	resp *http.Response
	err  error
}

// NewWriter validates cfg and returns an unstarted Writer.
func NewWriter(cfg Config) (*Writer, error) {
	urlStr, err := cfg.resolveURL()
	if err != nil {
		return nil, err
	}
	contentType := cfg.ContentType
	if contentType == `` {
		contentType = DefaultContentType
	}
	return &Writer{
		cfg:         cfg,
		url:         urlStr,
		contentType: contentType,
		client:      cfg.httpClient(),
		consumed:    make(chan struct{}),
		result:      make(chan doResult, 1),
	}, nil
}

// Start issues the request with `Expect: 100-continue` and blocks until
// either the transport begins consuming the stream body (the service
// accepted, or the transport committed to sending after its
// expect-continue window) or the request fails outright, e.g. a
// connection error or an immediate authentication rejection.
func (x *Writer) Start() error {
	pr, pw := io.Pipe()
	body := &bodyReader{r: pr, consumed: x.consumed}
	req, err := x.cfg.newRequest(http.MethodPut, x.url, body)
	if err != nil {
		pw.Close()
		return err
	}
	req.Header.Set(`Content-Type`, x.contentType)
	req.Header.Set(`Expect`, `100-continue`)

	x.pw = pw
	x.launched = true
	go func() {
		resp, err := x.client.Do(req)
		x.result <- doResult{resp: resp, err: err}
	}()

	select {
	case <-x.consumed:
		return nil
	case res := <-x.result:
		x.observe(res)
		if x.doneErr != nil {
			return x.doneErr
		}
		select {
		case <-x.consumed:
			// raced a success response; the transfer did begin
			return nil
		default:
		}
		return errEarlyResponse
	}
}

// Write sends p as a chunk, blocking until the transport has consumed
// it. If the request has already failed, the transport error is returned
// in preference to the pipe's own closed-pipe error.
func (x *Writer) Write(p []byte) error {
	if x.poll() && x.doneErr != nil {
		return x.doneErr
	}
	if _, err := x.pw.Write(p); err != nil {
		if x.poll() && x.doneErr != nil {
			return x.doneErr
		}
		return err
	}
	return nil
}

// Flush surfaces any asynchronous transport failure. Bytes are never
// buffered client-side, so there is nothing else to force out.
func (x *Writer) Flush() error {
	if x.poll() {
		return x.doneErr
	}
	return nil
}

// Stop completes the stream: the body is closed, the service's final
// response awaited, and a non-2xx status reported as *StatusError.
func (x *Writer) Stop() error {
	if !x.launched {
		return nil
	}
	x.pw.Close()
	if !x.done {
		x.observe(<-x.result)
	}
	return x.doneErr
}

// observe records the request's terminal outcome, closing the response
// body if one was received.
func (x *Writer) observe(res doResult) {
	x.done = true
	if res.err != nil {
		x.doneErr = res.err
		return
	}
	defer res.resp.Body.Close()
	if res.resp.StatusCode < 200 || res.resp.StatusCode > 299 {
		x.doneErr = newStatusError(res.resp.StatusCode, res.resp.Status, res.resp.Body)
	}
}

// poll records the terminal outcome if the request has completed,
// without blocking.
func (x *Writer) poll() bool {
	if !x.done {
		select {
		case res := <-x.result:
			x.observe(res)
		default:
		}
	}
	return x.done
}

// bodyReader signals the first read of the request body. The transport
// reads from its own goroutine, hence the once.
type bodyReader struct {
	r        io.Reader
	once     sync.Once
	consumed chan struct{}
}

func (x *bodyReader) Read(p []byte) (int, error) {
	x.once.Do(func() { close(x.consumed) })
	return x.r.Read(p)
}
