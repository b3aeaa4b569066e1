package docker

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/bdobrica/starpack/internal/starpack/runtime"
)

type fakeDocker struct {
	containers  []types.Container
	inspect     types.ContainerJSON
	created     *container.HostConfig
	createdName string
	started     []string
	removed     []string
	pulled      []string
	removeErr   error
	startErr    error
	volRemErr   error
	listOpts    container.ListOptions
}

func (f *fakeDocker) Ping(context.Context) (types.Ping, error) { return types.Ping{}, nil }

func (f *fakeDocker) ContainerList(_ context.Context, opts container.ListOptions) ([]types.Container, error) {
	f.listOpts = opts
	return f.containers, nil
}

func (f *fakeDocker) ContainerInspect(context.Context, string) (types.ContainerJSON, error) {
	return f.inspect, nil
}

func (f *fakeDocker) ContainerCreate(_ context.Context, _ *container.Config, host *container.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, name string) (container.CreateResponse, error) {
	f.created = host
	f.createdName = name
	return container.CreateResponse{ID: "new-id"}, nil
}

func (f *fakeDocker) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	f.started = append(f.started, id)
	return f.startErr
}

func (f *fakeDocker) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	f.removed = append(f.removed, id)
	return f.removeErr
}

func (f *fakeDocker) CopyToContainer(context.Context, string, string, io.Reader, container.CopyToContainerOptions) error {
	return nil
}

func (f *fakeDocker) VolumeCreate(_ context.Context, opts volume.CreateOptions) (volume.Volume, error) {
	return volume.Volume{Name: opts.Name}, nil
}

func (f *fakeDocker) VolumeRemove(context.Context, string, bool) error { return f.volRemErr }

func (f *fakeDocker) ImagePull(_ context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, ref)
	return io.NopCloser(strings.NewReader(`{"status":"done"}`)), nil
}

func (f *fakeDocker) Close() error { return nil }

func TestAdapter_ListFiltersByLabel(t *testing.T) {
	fd := &fakeDocker{containers: []types.Container{{
		ID:     "abc",
		Names:  []string{"/starpack-engine-1"},
		State:  "exited",
		Labels: map[string]string{"app": "starpack-engine"},
		Ports:  []types.Port{{PrivatePort: 1976, PublicPort: 1976}},
	}}}
	a := newAdapter(fd)

	got, err := a.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !fd.listOpts.All {
		t.Error("List must include stopped containers")
	}
	if !fd.listOpts.Filters.ExactMatch("label", "app=starpack-engine") {
		t.Errorf("label filter missing: %v", fd.listOpts.Filters)
	}
	if len(got) != 1 || got[0].Name != "starpack-engine-1" || got[0].State != runtime.StateExited || got[0].HostPort != 1976 {
		t.Errorf("List = %+v", got)
	}
}

func TestAdapter_RunReadsBackRealizedPort(t *testing.T) {
	fd := &fakeDocker{inspect: types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    "new-id",
			Name:  "/starpack-engine-1",
			State: &types.ContainerState{Status: "running"},
		},
		NetworkSettings: &types.NetworkSettings{
			NetworkSettingsBase: types.NetworkSettingsBase{
				Ports: nat.PortMap{enginePort(): {{HostPort: "49170"}}},
			},
		},
	}}
	a := newAdapter(fd)

	inst, err := a.Run(context.Background(), runtime.EngineSpec{Name: "starpack-engine-1", Image: "img"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fd.createdName != "starpack-engine-1" {
		t.Errorf("created name = %q", fd.createdName)
	}
	if inst.HostPort != 49170 || !inst.Running() {
		t.Errorf("instance = %+v", inst)
	}
}

func TestAdapter_RunCleansUpWhenStartFails(t *testing.T) {
	fd := &fakeDocker{startErr: errors.New("port already allocated")}
	a := newAdapter(fd)

	if _, err := a.Run(context.Background(), runtime.EngineSpec{Image: "img"}); err == nil {
		t.Fatal("expected error")
	}
	if len(fd.removed) != 1 || fd.removed[0] != "new-id" {
		t.Errorf("removed = %v, want [new-id]", fd.removed)
	}
}

func TestAdapter_RemoveIgnoresNotFound(t *testing.T) {
	a := newAdapter(&fakeDocker{removeErr: errdefs.ErrNotFound, volRemErr: errdefs.ErrNotFound})
	if err := a.Remove(context.Background(), "gone"); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if err := a.RemoveVolume(context.Background(), runtime.ArtifactsVolume); err != nil {
		t.Errorf("RemoveVolume: %v", err)
	}
}

func TestAdapter_RemovePropagatesOtherErrors(t *testing.T) {
	a := newAdapter(&fakeDocker{removeErr: errors.New("boom")})
	if err := a.Remove(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAdapter_PullDrainsResponse(t *testing.T) {
	fd := &fakeDocker{}
	if err := newAdapter(fd).PullImage(context.Background(), "starpack/starpack-engine:latest"); err != nil {
		t.Fatalf("PullImage: %v", err)
	}
	if len(fd.pulled) != 1 {
		t.Errorf("pulled = %v", fd.pulled)
	}
}
