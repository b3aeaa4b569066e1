// Package runtime defines the Runtime interface for engine container lifecycle management.
package runtime

import (
	"context"
	"io"
)

// Runtime abstracts the container backend that hosts the engine.
type Runtime interface {
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// List returns every engine container, running or stopped.
	// Only containers carrying the engine label are returned.
	List(ctx context.Context) ([]Instance, error)

	// Inspect returns the current state of one container.
	Inspect(ctx context.Context, id string) (Instance, error)

	// Start starts a stopped container in place.
	Start(ctx context.Context, id string) error

	// Remove force-removes a container regardless of its state.
	// Removing a container that no longer exists is not an error.
	Remove(ctx context.Context, id string) error

	// EnsureVolume creates the named volume if it does not exist.
	EnsureVolume(ctx context.Context, name string) error

	// RemoveVolume deletes the named volume. A missing volume is not an error.
	RemoveVolume(ctx context.Context, name string) error

	// PullImage pulls or refreshes an image reference.
	PullImage(ctx context.Context, ref string) error

	// Run creates and starts a new container from spec and returns it with
	// its realized host port.
	Run(ctx context.Context, spec EngineSpec) (Instance, error)

	// CopyArchive extracts a tar stream into dstPath inside the container.
	CopyArchive(ctx context.Context, id, dstPath string, content io.Reader) error
}
