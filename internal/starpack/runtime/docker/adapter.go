// Package docker provides a Docker Engine runtime adapter for the engine container.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/bdobrica/starpack/internal/starpack/runtime"
)

// dockerAPI is the subset of the Docker client the adapter uses.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error
	VolumeCreate(ctx context.Context, options volume.CreateOptions) (volume.Volume, error)
	VolumeRemove(ctx context.Context, volumeID string, force bool) error
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	Close() error
}

// Adapter implements runtime.Runtime using the Docker Engine API.
type Adapter struct {
	client dockerAPI
	log    *slog.Logger
}

// New creates a new Docker runtime adapter.
// Uses the DOCKER_HOST env var or the default socket path.
func New() (*Adapter, error) {
	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return newAdapter(cli), nil
}

func newAdapter(cli dockerAPI) *Adapter {
	return &Adapter{client: cli, log: slog.With("component", "docker")}
}

// Close releases the underlying client.
func (a *Adapter) Close() error { return a.client.Close() }

// Ping checks that the Docker daemon answers.
func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.client.Ping(ctx); err != nil {
		if dockerclient.IsErrConnectionFailed(err) {
			return fmt.Errorf("connect to docker daemon: %w", err)
		}
		return fmt.Errorf("ping docker: %w", err)
	}
	return nil
}

// List returns every container carrying the engine label.
func (a *Adapter) List(ctx context.Context) ([]runtime.Instance, error) {
	containers, err := a.client.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", runtime.LabelKey+"="+runtime.LabelValue),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	instances := make([]runtime.Instance, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		instances = append(instances, runtime.Instance{
			ID:       c.ID,
			Name:     name,
			State:    parseContainerState(c.State),
			HostPort: hostPortFromSummary(c.Ports, runtime.ContainerPort),
			Labels:   c.Labels,
		})
	}
	return instances, nil
}

// Inspect returns the current state and realized port of a container.
func (a *Adapter) Inspect(ctx context.Context, id string) (runtime.Instance, error) {
	info, err := a.client.ContainerInspect(ctx, id)
	if err != nil {
		return runtime.Instance{}, fmt.Errorf("inspect container %s: %w", id, err)
	}
	return instanceFromInspect(info), nil
}

// Start starts a stopped container in place.
func (a *Adapter) Start(ctx context.Context, id string) error {
	if err := a.client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", id, err)
	}
	return nil
}

// Remove force-removes a container. Missing containers are ignored.
func (a *Adapter) Remove(ctx context.Context, id string) error {
	if err := a.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove container %s: %w", id, err)
		}
	}
	return nil
}

// EnsureVolume creates the named volume. Docker treats creating an existing
// volume with the same driver as a no-op.
func (a *Adapter) EnsureVolume(ctx context.Context, name string) error {
	_, err := a.client.VolumeCreate(ctx, volume.CreateOptions{
		Name:   name,
		Labels: map[string]string{runtime.LabelKey: runtime.LabelValue},
	})
	if err != nil {
		return fmt.Errorf("create volume %s: %w", name, err)
	}
	return nil
}

// RemoveVolume deletes the named volume. Missing volumes are ignored.
func (a *Adapter) RemoveVolume(ctx context.Context, name string) error {
	if err := a.client.VolumeRemove(ctx, name, true); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove volume %s: %w", name, err)
		}
	}
	return nil
}

// PullImage pulls an image and drains the response to completion.
func (a *Adapter) PullImage(ctx context.Context, ref string) error {
	a.log.Info("pulling image", "image", ref)
	resp, err := a.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer resp.Close()
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull image %s: read response: %w", ref, err)
	}
	return nil
}

// Run creates and starts an engine container from spec.
func (a *Adapter) Run(ctx context.Context, spec runtime.EngineSpec) (runtime.Instance, error) {
	if spec.Image == "" {
		return runtime.Instance{}, fmt.Errorf("spec.Image is required")
	}

	containerCfg, hostCfg := buildConfigs(spec)

	resp, err := a.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return runtime.Instance{}, fmt.Errorf("create container: %w", err)
	}

	if err := a.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Best-effort cleanup
		_ = a.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return runtime.Instance{}, fmt.Errorf("start container: %w", err)
	}

	// The daemon may assign the host port; read it back.
	return a.Inspect(ctx, resp.ID)
}

// CopyArchive extracts a tar stream into dstPath inside the container.
func (a *Adapter) CopyArchive(ctx context.Context, id, dstPath string, content io.Reader) error {
	if err := a.client.CopyToContainer(ctx, id, dstPath, content, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copy to container %s:%s: %w", id, dstPath, err)
	}
	return nil
}

// --- helpers ---

func enginePort() nat.Port {
	return nat.Port(fmt.Sprintf("%d/tcp", runtime.ContainerPort))
}

func buildConfigs(spec runtime.EngineSpec) (*container.Config, *container.HostConfig) {
	labels := map[string]string{runtime.LabelKey: runtime.LabelValue}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	hostPort := ""
	if spec.HostPort > 0 {
		hostPort = strconv.Itoa(spec.HostPort)
	}

	containerCfg := &container.Config{
		Image:        spec.Image,
		Labels:       labels,
		Tty:          true,
		OpenStdin:    true,
		ExposedPorts: nat.PortSet{enginePort(): struct{}{}},
	}

	mounts := make([]mount.Mount, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		t := mount.TypeVolume
		if m.Type == runtime.MountBind {
			t = mount.TypeBind
		}
		mounts = append(mounts, mount.Mount{Type: t, Source: m.Source, Target: m.Target})
	}

	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			enginePort(): []nat.PortBinding{{HostPort: hostPort}},
		},
		Mounts: mounts,
	}
	return containerCfg, hostCfg
}

func instanceFromInspect(info types.ContainerJSON) runtime.Instance {
	inst := runtime.Instance{
		ID:       info.ID,
		Name:     strings.TrimPrefix(info.Name, "/"),
		State:    runtime.StateUnknown,
		HostPort: hostPortFromInspect(info, enginePort()),
	}
	if info.ContainerJSONBase != nil && info.State != nil {
		inst.State = parseContainerState(info.State.Status)
	}
	if info.Config != nil {
		inst.Labels = info.Config.Labels
	}
	return inst
}

// hostPortFromInspect prefers the live port mapping and falls back to the
// requested binding, which is all a stopped container reports.
func hostPortFromInspect(info types.ContainerJSON, port nat.Port) int {
	if info.NetworkSettings != nil {
		if p := firstHostPort(info.NetworkSettings.Ports[port]); p > 0 {
			return p
		}
	}
	if info.ContainerJSONBase != nil && info.HostConfig != nil {
		return firstHostPort(info.HostConfig.PortBindings[port])
	}
	return 0
}

func hostPortFromSummary(ports []types.Port, privatePort int) int {
	for _, p := range ports {
		if int(p.PrivatePort) == privatePort && p.PublicPort != 0 {
			return int(p.PublicPort)
		}
	}
	return 0
}

func firstHostPort(bindings []nat.PortBinding) int {
	for _, b := range bindings {
		if n, err := strconv.Atoi(b.HostPort); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func parseContainerState(s string) runtime.ContainerState {
	switch strings.ToLower(s) {
	case "running":
		return runtime.StateRunning
	case "exited":
		return runtime.StateExited
	case "created":
		return runtime.StateCreated
	case "paused":
		return runtime.StatePaused
	case "restarting":
		return runtime.StateRestarting
	case "removing":
		return runtime.StateRemoving
	case "dead":
		return runtime.StateDead
	default:
		return runtime.StateUnknown
	}
}

var _ runtime.Runtime = (*Adapter)(nil)
