package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCatalogLine marks an export line that is not name=version=build.
	ErrMalformedCatalogLine = errors.New("malformed catalog line")

	// ErrUnexpectedResponseShape marks JSON that does not match the shape a
	// query is expected to return.
	ErrUnexpectedResponseShape = errors.New("unexpected response shape")
)

const maxFragment = 200

// MalformedLineError identifies the offending line of `list --export` output.
type MalformedLineError struct {
	Line int
	Text string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed catalog line %d: %q (want name=version=build)", e.Line, e.Text)
}

func (e *MalformedLineError) Unwrap() error { return ErrMalformedCatalogLine }

// ShapeError describes JSON output that failed validation.
type ShapeError struct {
	Query    string
	Reason   string
	Fragment string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected %s response: %s (near %q)", e.Query, e.Reason, e.Fragment)
}

func (e *ShapeError) Unwrap() error { return ErrUnexpectedResponseShape }

func shapeErr(query, reason string, fragment []byte) *ShapeError {
	return &ShapeError{Query: query, Reason: reason, Fragment: truncate(string(fragment), maxFragment)}
}

// ManagerError is conda's own JSON error document, e.g. for a search that
// matched nothing.
type ManagerError struct {
	Exception string `json:"exception_name"`
	Message   string `json:"message"`
	Detail    string `json:"error"`
}

func (e *ManagerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	return fmt.Sprintf("conda %s: %s", e.Exception, msg)
}

// PackagesNotFound reports whether conda could not find the requested spec.
func (e *ManagerError) PackagesNotFound() bool {
	return e.Exception == "PackagesNotFoundError"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
