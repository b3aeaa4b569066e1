// Package runtimetest provides an in-memory runtime.Runtime for tests.
package runtimetest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bdobrica/starpack/internal/starpack/runtime"
)

// Copy records one CopyArchive call.
type Copy struct {
	ID   string
	Path string
	Data []byte
}

// Fake is an in-memory Runtime. The zero value is not usable; call New.
type Fake struct {
	mu         sync.Mutex
	containers map[string]runtime.Instance
	seq        int

	// Volumes holds the names of existing volumes.
	Volumes map[string]bool
	// Pulled lists pulled image references in order.
	Pulled []string
	// Removed lists removed container IDs in order.
	Removed []string
	// Specs lists every EngineSpec passed to Run.
	Specs []runtime.EngineSpec
	// Copies lists every CopyArchive call.
	Copies []Copy
	// Calls is the ordered list of method names invoked.
	Calls []string

	// AssignPort is used as the realized port when a spec asks for port 0.
	AssignPort int

	PingErr error
	ListErr error
	RunErr  error
	CopyErr error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		containers: make(map[string]runtime.Instance),
		Volumes:    make(map[string]bool),
		AssignPort: 49153,
	}
}

// Add registers an existing labeled container and returns its ID.
func (f *Fake) Add(state runtime.ContainerState, hostPort int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(fmt.Sprintf("existing-%d", f.seq+1), state, hostPort)
}

func (f *Fake) addLocked(name string, state runtime.ContainerState, hostPort int) string {
	f.seq++
	id := fmt.Sprintf("c%d", f.seq)
	f.containers[id] = runtime.Instance{
		ID:       id,
		Name:     name,
		State:    state,
		HostPort: hostPort,
		Labels:   map[string]string{runtime.LabelKey: runtime.LabelValue},
	}
	return id
}

// Instances returns the current containers sorted by ID.
func (f *Fake) Instances() []runtime.Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

func (f *Fake) sortedLocked() []runtime.Instance {
	out := make([]runtime.Instance, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *Fake) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Ping")
	return f.PingErr
}

func (f *Fake) List(context.Context) ([]runtime.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("List")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.sortedLocked(), nil
}

func (f *Fake) Inspect(_ context.Context, id string) (runtime.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Inspect")
	c, ok := f.containers[id]
	if !ok {
		return runtime.Instance{}, fmt.Errorf("no such container: %s", id)
	}
	return c, nil
}

func (f *Fake) Start(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Start")
	c, ok := f.containers[id]
	if !ok {
		return fmt.Errorf("no such container: %s", id)
	}
	c.State = runtime.StateRunning
	f.containers[id] = c
	return nil
}

func (f *Fake) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Remove")
	delete(f.containers, id)
	f.Removed = append(f.Removed, id)
	return nil
}

func (f *Fake) EnsureVolume(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EnsureVolume")
	f.Volumes[name] = true
	return nil
}

func (f *Fake) RemoveVolume(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveVolume")
	delete(f.Volumes, name)
	return nil
}

func (f *Fake) PullImage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PullImage")
	f.Pulled = append(f.Pulled, ref)
	return nil
}

func (f *Fake) Run(_ context.Context, spec runtime.EngineSpec) (runtime.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Run")
	if f.RunErr != nil {
		return runtime.Instance{}, f.RunErr
	}
	f.Specs = append(f.Specs, spec)
	port := spec.HostPort
	if port == 0 {
		port = f.AssignPort
	}
	id := f.addLocked(spec.Name, runtime.StateRunning, port)
	return f.containers[id], nil
}

func (f *Fake) CopyArchive(_ context.Context, id, dstPath string, content io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CopyArchive")
	if f.CopyErr != nil {
		return f.CopyErr
	}
	if _, ok := f.containers[id]; !ok {
		return fmt.Errorf("no such container: %s", id)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.Copies = append(f.Copies, Copy{ID: id, Path: dstPath, Data: data})
	return nil
}

var _ runtime.Runtime = (*Fake)(nil)
