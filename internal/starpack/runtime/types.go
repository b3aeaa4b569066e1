// Package runtime defines shared types for the engine runtime abstraction.
package runtime

import (
	"fmt"
	"time"
)

// Label identifying engine containers. It is the only identity mechanism.
const (
	LabelKey   = "app"
	LabelValue = "starpack-engine"
)

const (
	// ContainerPort is the port the engine listens on inside its container.
	ContainerPort = 1976
	// ArtifactsVolume persists uploaded model directories across restarts.
	ArtifactsVolume = "starpack-model-artifacts"
	// ArtifactsPath is where the artifacts volume is mounted in the engine.
	ArtifactsPath = "/app/external/artifacts"
	// PluginsPath is where the host plugins directory is mounted.
	PluginsPath = "/app/external/plugins"
	// DockerSocket is bind-mounted so the engine can build images.
	DockerSocket = "/var/run/docker.sock"
)

// ContainerState mirrors docker container states.
type ContainerState string

const (
	StateRunning    ContainerState = "running"
	StateExited     ContainerState = "exited"
	StateCreated    ContainerState = "created"
	StatePaused     ContainerState = "paused"
	StateRestarting ContainerState = "restarting"
	StateRemoving   ContainerState = "removing"
	StateDead       ContainerState = "dead"
	StateUnknown    ContainerState = "unknown"
)

// Instance is a non-owning reference to an engine container.
type Instance struct {
	// ID is the container ID.
	ID string
	// Name is the container name without the leading slash.
	Name string
	// State is the container state at the time it was observed.
	State ContainerState
	// HostPort is the published host port for ContainerPort, 0 if unknown.
	HostPort int
	// Labels are the container labels.
	Labels map[string]string
}

// Running reports whether the container was running when observed.
func (i Instance) Running() bool { return i.State == StateRunning }

// MountType selects how a Mount is bound.
type MountType string

const (
	MountVolume MountType = "volume"
	MountBind   MountType = "bind"
)

// Mount binds a volume or host path into the container.
type Mount struct {
	Type   MountType
	Source string
	Target string
}

// EngineSpec describes how an engine container should be created.
type EngineSpec struct {
	// Name is the container name.
	Name string
	// Image is the engine image reference.
	Image string
	// HostPort publishes ContainerPort on the host. Zero lets the runtime choose.
	HostPort int
	// Labels are attached in addition to the engine label.
	Labels map[string]string
	// Mounts are the volume and bind mounts.
	Mounts []Mount
}

// EngineNameFor returns the container name for an engine created at t.
func EngineNameFor(t time.Time) string {
	return fmt.Sprintf("starpack-engine-%d", t.Unix())
}

// DefaultMounts returns the engine mounts for the given host plugins directory.
func DefaultMounts(pluginsDir string) []Mount {
	return []Mount{
		{Type: MountBind, Source: DockerSocket, Target: DockerSocket},
		{Type: MountVolume, Source: ArtifactsVolume, Target: ArtifactsPath},
		{Type: MountBind, Source: pluginsDir, Target: PluginsPath},
	}
}
