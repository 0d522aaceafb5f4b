package relay

import (
	"io"
	"net/http"
)

// Reader streams a relay path via HTTP GET. It is a readable stream
// primitive in the sense of package sluice: loop-confined, with end of
// stream expressed as an empty result rather than a sentinel error.
type Reader struct {
	cfg    Config
	url    string
	client *http.Client
	body   io.ReadCloser
}

// NewReader validates cfg and returns an unstarted Reader.
func NewReader(cfg Config) (*Reader, error) {
	urlStr, err := cfg.resolveURL()
	if err != nil {
		return nil, err
	}
	return &Reader{
		cfg:    cfg,
		url:    urlStr,
		client: cfg.httpClient(),
	}, nil
}

// Start issues the request and blocks until the service responds. A
// connection failure or a non-2xx status (*StatusError) fails the start.
func (x *Reader) Start() error {
	req, err := x.cfg.newRequest(http.MethodGet, x.url, nil)
	if err != nil {
		return err
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return newStatusError(resp.StatusCode, resp.Status, resp.Body)
	}
	x.body = resp.Body
	return nil
}

// ReadBlock returns up to maxSize bytes, blocking until at least one byte
// is available. It returns an empty result only at end of stream.
func (x *Reader) ReadBlock(maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		return nil, nil
	}
	buf := make([]byte, maxSize)
	for {
		n, err := x.body.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadExactly returns exactly n bytes, or fewer only at end of stream.
func (x *Reader) ReadExactly(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(x.body, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return buf[:read], nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadAll returns everything remaining through end of stream.
func (x *Reader) ReadAll() ([]byte, error) {
	return io.ReadAll(x.body)
}

// Stop closes the response body, terminating the transfer if it has not
// already completed.
func (x *Reader) Stop() error {
	if x.body == nil {
		return nil
	}
	err := x.body.Close()
	x.body = nil
	return err
}
