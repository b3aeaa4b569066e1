// Package lifecycle starts and terminates the single engine container.
//
// Start composes discovery, reconciliation, creation and the health gate
// into one idempotent operation and yields an *Engine only once the engine
// has answered its readiness probe. Terminate removes every engine
// container and, optionally, the artifacts volume.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bdobrica/starpack/internal/starpack/config"
	"github.com/bdobrica/starpack/internal/starpack/engine"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/runtime"
)

// Phase is the controller's view of the engine instance.
type Phase int

const (
	PhaseAbsent Phase = iota
	PhaseCreating
	PhaseProbing
	PhaseRunning
	PhaseRemoving
)

func (p Phase) String() string {
	switch p {
	case PhaseAbsent:
		return "absent"
	case PhaseCreating:
		return "creating"
	case PhaseProbing:
		return "probing"
	case PhaseRunning:
		return "running"
	case PhaseRemoving:
		return "removing"
	default:
		return "unknown"
	}
}

// Engine is a handle to a live, health-checked engine. It can only be
// obtained from Controller.Start or Attach.
type Engine struct {
	endpoint    string
	containerID string
	client      *engine.Client
}

// Endpoint returns the engine base URL.
func (e *Engine) Endpoint() string { return e.endpoint }

// ContainerID returns the engine container ID, or "" for an attached engine.
func (e *Engine) ContainerID() string { return e.containerID }

// Managed reports whether the engine runs in a container this client controls.
func (e *Engine) Managed() bool { return e.containerID != "" }

// Client returns the API client bound to the engine endpoint.
func (e *Engine) Client() *engine.Client { return e.client }

// Controller drives the engine container through its lifecycle.
type Controller struct {
	runtime    runtime.Runtime
	reconciler *runtime.Reconciler
	cfg        config.Config
	now        func() time.Time
	phase      Phase
	log        *slog.Logger
}

// NewController creates a Controller over rt using cfg.
func NewController(rt runtime.Runtime, cfg config.Config) *Controller {
	return &Controller{
		runtime:    rt,
		reconciler: runtime.NewReconciler(rt),
		cfg:        cfg,
		now:        time.Now,
		log:        slog.With("component", "lifecycle"),
	}
}

// Phase returns the last phase the controller reached.
func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) transition(p Phase) {
	c.log.Debug("engine phase", "from", c.phase, "to", p)
	c.phase = p
}

// Start ensures exactly one engine container is running and healthy.
//
// With force every existing engine container is removed first. A health
// failure leaves the container running and returns an EngineInitialization
// fault.
func (c *Controller) Start(ctx context.Context, force bool) (*Engine, error) {
	if err := c.runtime.Ping(ctx); err != nil {
		return nil, fault.NewRuntimeUnavailable(err)
	}

	c.transition(PhaseAbsent)
	candidates := c.reconciler.Discover(ctx)
	inst, err := c.reconciler.Reconcile(ctx, candidates, force)
	if err != nil {
		return nil, fmt.Errorf("reconcile engine containers: %w", err)
	}

	if inst == nil {
		created, err := c.create(ctx)
		if err != nil {
			return nil, err
		}
		inst = &created
	}

	c.transition(PhaseProbing)
	port := inst.HostPort
	if port == 0 {
		port = c.cfg.EnginePort
	}
	endpoint := engine.Endpoint(c.cfg.EngineHost, port)
	client := engine.New(endpoint, engine.Options{Timeout: c.cfg.RequestTimeout})

	if !engine.WaitUntilHealthy(ctx, client, c.cfg.HealthAttempts, c.cfg.HealthInterval) {
		return nil, fault.NewEngineInitialization(endpoint, nil)
	}

	c.transition(PhaseRunning)
	c.log.Info("engine running", "endpoint", endpoint, "container", inst.Name)
	return &Engine{endpoint: endpoint, containerID: inst.ID, client: client}, nil
}

func (c *Controller) create(ctx context.Context) (runtime.Instance, error) {
	c.transition(PhaseCreating)

	if err := c.runtime.EnsureVolume(ctx, runtime.ArtifactsVolume); err != nil {
		return runtime.Instance{}, fmt.Errorf("ensure artifacts volume: %w", err)
	}
	if err := c.runtime.PullImage(ctx, c.cfg.EngineImage); err != nil {
		return runtime.Instance{}, err
	}

	spec := runtime.EngineSpec{
		Name:     runtime.EngineNameFor(c.now()),
		Image:    c.cfg.EngineImage,
		HostPort: c.cfg.EnginePort,
		Mounts:   runtime.DefaultMounts(c.cfg.PluginsDir()),
	}
	inst, err := c.runtime.Run(ctx, spec)
	if err != nil {
		return runtime.Instance{}, fmt.Errorf("run engine container: %w", err)
	}
	c.log.Info("engine container created", "name", inst.Name, "host_port", inst.HostPort)
	return inst, nil
}

// TerminateResult summarizes a Terminate call.
type TerminateResult struct {
	// Removed is the number of engine containers removed.
	Removed int
	// VolumesRemoved is set when the artifacts volume was removed.
	VolumesRemoved bool
}

// Terminate removes every engine container. With removeVolumes the artifacts
// volume is removed as well, which is refused unless the engine is local.
// Terminating when nothing exists is a no-op.
func (c *Controller) Terminate(ctx context.Context, removeVolumes bool) (TerminateResult, error) {
	if err := c.runtime.Ping(ctx); err != nil {
		return TerminateResult{}, fault.NewRuntimeUnavailable(err)
	}
	if removeVolumes && !c.isLocal() {
		return TerminateResult{}, fault.NewLocalOnly()
	}

	var res TerminateResult
	candidates := c.reconciler.Discover(ctx)
	if len(candidates) > 0 {
		c.transition(PhaseRemoving)
	}
	for _, inst := range candidates {
		if err := c.runtime.Remove(ctx, inst.ID); err != nil {
			return res, fmt.Errorf("remove engine %s: %w", inst.Name, err)
		}
		res.Removed++
	}

	if removeVolumes {
		if err := c.runtime.RemoveVolume(ctx, runtime.ArtifactsVolume); err != nil {
			return res, fmt.Errorf("remove artifacts volume: %w", err)
		}
		res.VolumesRemoved = true
	}

	c.transition(PhaseAbsent)
	return res, nil
}

// isLocal reports whether both the engine host and the Docker daemon are on
// this machine.
func (c *Controller) isLocal() bool {
	return c.cfg.IsLocal() && localDockerHost(os.Getenv("DOCKER_HOST"))
}

func localDockerHost(dockerHost string) bool {
	if dockerHost == "" {
		return true
	}
	u, err := url.Parse(dockerHost)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "unix", "npipe":
		return true
	case "tcp", "http", "https":
		h := strings.ToLower(u.Hostname())
		return h == "localhost" || h == "127.0.0.1" || h == "::1"
	default:
		return false
	}
}

// Attach returns a handle to an externally managed engine at endpoint after
// it passes the health gate. Attached engines cannot receive uploads.
func Attach(ctx context.Context, endpoint string, cfg config.Config) (*Engine, error) {
	client := engine.New(endpoint, engine.Options{Timeout: cfg.RequestTimeout})
	if !engine.WaitUntilHealthy(ctx, client, cfg.HealthAttempts, cfg.HealthInterval) {
		return nil, fault.NewEngineInitialization(endpoint, nil)
	}
	return &Engine{endpoint: endpoint, client: client}, nil
}
