// Package relay implements the HTTP stream primitives consumed by
// package sluice: an append-only, one-directional byte stream identified
// by a path on a relay service, written via a streaming PUT and read via
// a streaming GET.
//
// The types here are not safe for concurrent use, and must be confined
// to a single goroutine. Package sluice drives them through a portal;
// direct users must arrange the same confinement themselves.
package relay

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// errEarlyResponse indicates the service sent its final response before
// the stream body transfer began.
var errEarlyResponse = errors.New(`relay: request completed before stream transfer began`)

// StatusError is returned when the service responds with an unexpected
// HTTP status.
type StatusError struct {
	// StatusCode is the numeric status, e.g. 404.
	StatusCode int
	// Status is the full status line, e.g. "404 Not Found".
	Status string
	// Detail is the leading portion of the response body, if any.
	Detail string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Detail != `` {
		return fmt.Sprintf(`relay: unexpected status %s: %s`, e.Status, e.Detail)
	}
	return fmt.Sprintf(`relay: unexpected status %s`, e.Status)
}

// newStatusError reads a bounded detail snippet from the response body.
// The caller remains responsible for closing the body.
func newStatusError(statusCode int, status string, body io.Reader) *StatusError {
	detail, _ := io.ReadAll(io.LimitReader(body, 512))
	return &StatusError{
		StatusCode: statusCode,
		Status:     status,
		Detail:     strings.TrimSpace(string(detail)),
	}
}
