// Package transfer copies local model directories into the engine's
// artifacts volume.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/docker/docker/pkg/archive"

	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/lifecycle"
	"github.com/bdobrica/starpack/internal/starpack/runtime"
)

// ErrUnmanagedEngine is returned when uploading to an engine that does not
// run in a container this client controls.
var ErrUnmanagedEngine = errors.New("transfer: uploads require an engine started by starpack")

// Result describes a completed upload.
type Result struct {
	// Source is the absolute local directory.
	Source string
	// Destination is the directory path inside the engine container.
	Destination string
	// Bytes is the archive size.
	Bytes int64
}

// Uploader streams directories into one engine container.
type Uploader struct {
	runtime     runtime.Runtime
	containerID string
	log         *slog.Logger
}

// New returns an Uploader for eng. eng must be a managed engine.
func New(rt runtime.Runtime, eng *lifecycle.Engine) (*Uploader, error) {
	if eng == nil || !eng.Managed() {
		return nil, ErrUnmanagedEngine
	}
	return &Uploader{
		runtime:     rt,
		containerID: eng.ContainerID(),
		log:         slog.With("component", "transfer"),
	}, nil
}

// Upload archives dir, keeping its base name as the archive root, and
// extracts it under the artifacts mount. The archive is staged in a
// temporary file first; there is no resume on failure.
func (u *Uploader) Upload(ctx context.Context, dir string) (*Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return nil, fault.NewPathNotFound(abs)
	}

	staged, size, err := stage(abs)
	if err != nil {
		return nil, err
	}
	defer func() {
		staged.Close()
		os.Remove(staged.Name())
	}()

	u.log.Debug("uploading directory", "src", abs, "bytes", size, "container", u.containerID)
	if err := u.runtime.CopyArchive(ctx, u.containerID, runtime.ArtifactsPath, staged); err != nil {
		return nil, fmt.Errorf("upload %s: %w", abs, err)
	}

	return &Result{
		Source:      abs,
		Destination: path.Join(runtime.ArtifactsPath, filepath.Base(abs)),
		Bytes:       size,
	}, nil
}

// stage writes a tar of dir into a temporary file rewound to its start.
func stage(dir string) (*os.File, int64, error) {
	tarStream, err := archive.TarWithOptions(filepath.Dir(dir), &archive.TarOptions{
		IncludeFiles: []string{filepath.Base(dir)},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("archive %s: %w", dir, err)
	}
	defer tarStream.Close()

	f, err := os.CreateTemp("", "starpack-upload-*.tar")
	if err != nil {
		return nil, 0, fmt.Errorf("create staging file: %w", err)
	}
	size, err := io.Copy(f, tarStream)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, 0, fmt.Errorf("stage archive of %s: %w", dir, err)
	}
	return f, size, nil
}
