package relay

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultContentType is the content type declared by writers when
	// Config.ContentType is empty.
	DefaultContentType = `application/octet-stream`

	// DefaultConnectTimeout bounds session establishment when
	// Config.ConnectTimeout is zero.
	DefaultConnectTimeout = time.Second * 30
)

// Config describes one relay stream endpoint. Validation happens when a
// Reader or Writer is constructed from it.
type Config struct {
	// Endpoint is the base URL of the relay service, e.g.
	// "https://relay.example.com/v1". Required, unless ConnectURL is
	// set.
	Endpoint string

	// Path identifies the stream on the service, and must begin with a
	// forward slash. Required, unless ConnectURL is set.
	Path string

	// ConnectURL is the fully resolved stream URL. If set, it takes
	// precedence over Endpoint and Path.
	ConnectURL string

	// AccessToken is sent as a bearer token, if non-empty.
	AccessToken string

	// ContentType is the MIME type a writer declares for the stream.
	// Defaults to DefaultContentType, if empty. Ignored by readers.
	ContentType string

	// ConnectTimeout bounds establishing the TCP connection. Defaults
	// to DefaultConnectTimeout, if 0; a negative value disables the
	// timeout. Not applied when Client is set.
	ConnectTimeout time.Duration

	// Client optionally overrides the HTTP client, e.g. for tests or
	// custom transports. Timeouts are then the client's concern.
	Client *http.Client
}

// resolveURL validates the config and returns the stream URL.
func (x Config) resolveURL() (string, error) {
	raw := x.ConnectURL
	if raw == `` {
		if x.Endpoint == `` {
			return ``, errors.New(`relay: endpoint required`)
		}
		if x.Path == `` || x.Path[0] != '/' {
			return ``, fmt.Errorf(`relay: invalid path %q: must begin with a forward slash`, x.Path)
		}
		raw = x.Endpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ``, fmt.Errorf(`relay: invalid url: %w`, err)
	}
	if u.Scheme != `http` && u.Scheme != `https` {
		return ``, fmt.Errorf(`relay: invalid url scheme %q`, u.Scheme)
	}
	if x.ConnectURL == `` {
		u = u.JoinPath(x.Path)
	}
	return u.String(), nil
}

// httpClient returns the configured client, or one enforcing the connect
// timeout.
func (x Config) httpClient() *http.Client {
	if x.Client != nil {
		return x.Client
	}
	var dialer net.Dialer
	switch {
	case x.ConnectTimeout > 0:
		dialer.Timeout = x.ConnectTimeout
	case x.ConnectTimeout == 0:
		dialer.Timeout = DefaultConnectTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   time.Second * 10,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// newRequest builds a request for the stream with auth applied.
func (x Config) newRequest(method, urlStr string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf(`relay: invalid request: %w`, err)
	}
	if x.AccessToken != `` {
		req.Header.Set(`Authorization`, `Bearer `+x.AccessToken)
	}
	return req, nil
}
