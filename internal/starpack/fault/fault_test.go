package fault_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bdobrica/starpack/internal/starpack/fault"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("start engine: %w", fault.NewEngineInitialization("http://localhost:1976", nil))
	if !errors.Is(err, fault.ErrEngineInitialization) {
		t.Fatalf("expected EngineInitialization match, got %v", err)
	}
	if errors.Is(err, fault.ErrRuntimeUnavailable) {
		t.Fatal("EngineInitialization must not match RuntimeUnavailable")
	}
}

func TestPathNotFound_MessageCarriesPath(t *testing.T) {
	err := fault.NewPathNotFound("/tmp/proj/starpack.yaml")
	if !strings.Contains(err.Error(), "/tmp/proj/starpack.yaml") {
		t.Errorf("message %q does not mention the path", err.Error())
	}
	if !errors.Is(err, fault.ErrPathNotFound) {
		t.Error("expected PathNotFound sentinel match")
	}
}

func TestUpstreamRejection_MessageCarriesStatusAndBody(t *testing.T) {
	err := fault.NewUpstreamRejection("http://localhost:1976", 404, `"bad descriptor"`)
	msg := err.Error()
	if !strings.Contains(msg, "404") || !strings.Contains(msg, `"bad descriptor"`) {
		t.Errorf("message %q missing status or body", msg)
	}
}

func TestRuntimeUnavailable_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial unix /var/run/docker.sock: connect: no such file")
	err := fault.NewRuntimeUnavailable(cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if fault.KindOf(err) != fault.RuntimeUnavailable {
		t.Errorf("KindOf = %v", fault.KindOf(err))
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if k := fault.KindOf(errors.New("plain")); k != 0 {
		t.Errorf("KindOf(plain) = %v, want 0", k)
	}
}
