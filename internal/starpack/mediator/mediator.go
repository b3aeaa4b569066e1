// Package mediator turns descriptors and resource selectors into engine API
// calls.
//
// Directory operations are strictly ordered: a package call is only made
// after the directory was uploaded, and a deploy call only after packaging
// succeeded. Nothing here retries a rejected call.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bdobrica/starpack/common/spec/starpack"
	"github.com/bdobrica/starpack/internal/starpack/engine"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/resources"
	"github.com/bdobrica/starpack/internal/starpack/transfer"
)

// ErrNoUploader is returned by directory operations when no uploader is
// configured, e.g. for an attached engine.
var ErrNoUploader = errors.New("mediator: directory operations need an engine started by starpack")

// API is the engine surface the mediator calls.
type API interface {
	Package(ctx context.Context, payload any) error
	Deploy(ctx context.Context, payload any) (*engine.DeployResponse, error)
	List(ctx context.Context, sel resources.Selector) ([]resources.Record, error)
	Delete(ctx context.Context, sel resources.Selector) error
	Logs(ctx context.Context, sel resources.Selector) (string, error)
}

// Uploader copies a local directory into the engine.
type Uploader interface {
	Upload(ctx context.Context, dir string) (*transfer.Result, error)
}

// Mediator issues descriptor and resource requests against one engine.
type Mediator struct {
	api      API
	uploader Uploader
	log      *slog.Logger
}

// New creates a Mediator. uploader may be nil, in which case directory
// operations fail with ErrNoUploader.
func New(api API, uploader Uploader) *Mediator {
	return &Mediator{api: api, uploader: uploader, log: slog.With("component", "mediator")}
}

// PackageResult describes a successful package call.
type PackageResult struct {
	Name       string
	Descriptor string
	// Upload is set when the package came from a directory.
	Upload *transfer.Result
}

// DeployResult describes a successful deploy call.
type DeployResult struct {
	Name       string
	Descriptor string
	// Package is set when the deployment came from a directory.
	Package   *PackageResult
	Endpoints map[string]any
}

// Package submits the package descriptor at yamlPath.
func (m *Mediator) Package(ctx context.Context, yamlPath string) (*PackageResult, error) {
	if _, err := os.Stat(yamlPath); err != nil {
		return nil, fault.NewPathNotFound(yamlPath)
	}
	desc, err := starpack.LoadPackage(yamlPath)
	if err != nil {
		return nil, err
	}
	m.log.Debug("submitting package", "name", desc.Name(), "descriptor", yamlPath)
	if err := m.api.Package(ctx, desc.Payload); err != nil {
		return nil, fmt.Errorf("package %s: %w", desc.Name(), err)
	}
	return &PackageResult{Name: desc.Name(), Descriptor: yamlPath}, nil
}

// PackageDirectory uploads dir and packages its starpack.yaml. A path that
// is not a directory is treated as a descriptor and passed to Package.
func (m *Mediator) PackageDirectory(ctx context.Context, dir string) (*PackageResult, error) {
	descriptor, isDir, err := resolveDescriptor(dir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return m.Package(ctx, descriptor)
	}
	if m.uploader == nil {
		return nil, ErrNoUploader
	}

	up, err := m.uploader.Upload(ctx, dir)
	if err != nil {
		return nil, err
	}
	res, err := m.Package(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	res.Upload = up
	return res, nil
}

// Deploy submits the deployment descriptor at yamlPath.
func (m *Mediator) Deploy(ctx context.Context, yamlPath string) (*DeployResult, error) {
	if _, err := os.Stat(yamlPath); err != nil {
		return nil, fault.NewPathNotFound(yamlPath)
	}
	desc, err := starpack.LoadDeployment(yamlPath)
	if err != nil {
		return nil, err
	}
	m.log.Debug("submitting deployment", "name", desc.Name(), "descriptor", yamlPath)
	resp, err := m.api.Deploy(ctx, desc.Payload)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", desc.Name(), err)
	}
	return &DeployResult{Name: desc.Name(), Descriptor: yamlPath, Endpoints: resp.Endpoints}, nil
}

// DeployDirectory packages dir and then deploys the same descriptor.
func (m *Mediator) DeployDirectory(ctx context.Context, dir string) (*DeployResult, error) {
	pkg, err := m.PackageDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	res, err := m.Deploy(ctx, pkg.Descriptor)
	if err != nil {
		return nil, err
	}
	res.Package = pkg
	return res, nil
}

// List returns the resources selected by sel. The engine's answer is
// filtered again so only exact matches on the given fields are returned.
func (m *Mediator) List(ctx context.Context, sel resources.Selector) ([]resources.Record, error) {
	if err := sel.Validate(resources.OpList); err != nil {
		return nil, err
	}
	records, err := m.api.List(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sel.Kind().Plural(), err)
	}
	return resources.Select(records, sel.Filter()), nil
}

// Delete removes the resources selected by sel.
func (m *Mediator) Delete(ctx context.Context, sel resources.Selector) error {
	if err := sel.Validate(resources.OpDelete); err != nil {
		return err
	}
	if err := m.api.Delete(ctx, sel); err != nil {
		return fmt.Errorf("delete %s: %w", sel.Kind().Plural(), err)
	}
	return nil
}

// LogsResult holds fetched logs. When WrittenTo is set the text was saved
// there instead of being returned for display.
type LogsResult struct {
	Text      string
	WrittenTo string
}

// Logs fetches logs for sel. With outputPath the text overwrites that file.
func (m *Mediator) Logs(ctx context.Context, sel resources.Selector, outputPath string) (*LogsResult, error) {
	if err := sel.Validate(resources.OpLogs); err != nil {
		return nil, err
	}
	text, err := m.api.Logs(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("logs for %s: %w", sel.Filter().Name, err)
	}
	if outputPath == "" {
		return &LogsResult{Text: text}, nil
	}
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write logs to %s: %w", outputPath, err)
	}
	return &LogsResult{WrittenTo: outputPath}, nil
}

// resolveDescriptor maps a path to the descriptor it names. For a directory
// the fixed descriptor file must exist inside it.
func resolveDescriptor(p string) (descriptor string, isDir bool, err error) {
	fi, statErr := os.Stat(p)
	if statErr != nil || !fi.IsDir() {
		return p, false, nil
	}
	descriptor = filepath.Join(p, starpack.DescriptorFile)
	if _, err := os.Stat(descriptor); err != nil {
		return "", true, fault.NewPathNotFound(descriptor)
	}
	return descriptor, true, nil
}
