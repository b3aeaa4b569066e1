// Package fault defines the failure taxonomy reported by the starpack core.
//
// Every fatal condition reaches the CLI as a *Error carrying a Kind. Callers
// test for a kind with errors.Is against the exported sentinels:
//
//	if errors.Is(err, fault.ErrRuntimeUnavailable) { ... }
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// RuntimeUnavailable means the container runtime could not be reached.
	RuntimeUnavailable Kind = iota + 1
	// EngineInitialization means the health gate exhausted its attempt budget.
	EngineInitialization
	// PathNotFound means a required descriptor file or directory is missing.
	PathNotFound
	// LocalOnly means a teardown-all was requested for a non-local engine.
	LocalOnly
	// UpstreamRejection means the engine answered with a non-2xx status.
	UpstreamRejection
)

func (k Kind) String() string {
	switch k {
	case RuntimeUnavailable:
		return "runtime unavailable"
	case EngineInitialization:
		return "engine initialization failure"
	case PathNotFound:
		return "path not found"
	case LocalOnly:
		return "local-only violation"
	case UpstreamRejection:
		return "upstream rejection"
	default:
		return "unknown"
	}
}

// Error is a typed failure value.
type Error struct {
	Kind Kind
	// Path is set for PathNotFound.
	Path string
	// Endpoint is set for EngineInitialization and UpstreamRejection.
	Endpoint string
	// Status and Body are set for UpstreamRejection.
	Status int
	Body   string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case RuntimeUnavailable:
		msg := "unable to find Docker running on your system"
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	case EngineInitialization:
		return fmt.Sprintf("the Starpack Engine at %s did not become healthy; the container was left running for inspection", e.Endpoint)
	case PathNotFound:
		return fmt.Sprintf("path %s does not exist", e.Path)
	case LocalOnly:
		return "removing all engine resources is only supported for a local engine"
	case UpstreamRejection:
		return fmt.Sprintf("engine rejected the request with status %d: %s", e.Status, e.Body)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinels match any error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Status == 0 && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrRuntimeUnavailable   = &Error{Kind: RuntimeUnavailable}
	ErrEngineInitialization = &Error{Kind: EngineInitialization}
	ErrPathNotFound         = &Error{Kind: PathNotFound}
	ErrLocalOnly            = &Error{Kind: LocalOnly}
	ErrUpstreamRejection    = &Error{Kind: UpstreamRejection}
)

// NewRuntimeUnavailable wraps the runtime connection failure.
func NewRuntimeUnavailable(err error) *Error {
	return &Error{Kind: RuntimeUnavailable, Err: err}
}

// NewEngineInitialization reports a failed health gate for endpoint.
func NewEngineInitialization(endpoint string, err error) *Error {
	return &Error{Kind: EngineInitialization, Endpoint: endpoint, Err: err}
}

// NewPathNotFound reports a missing path.
func NewPathNotFound(path string) *Error {
	return &Error{Kind: PathNotFound, Path: path}
}

// NewLocalOnly reports a refused teardown.
func NewLocalOnly() *Error {
	return &Error{Kind: LocalOnly}
}

// NewUpstreamRejection reports a non-2xx engine response.
func NewUpstreamRejection(endpoint string, status int, body string) *Error {
	return &Error{Kind: UpstreamRejection, Endpoint: endpoint, Status: status, Body: body}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
