package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bdobrica/starpack/common/trace"
	"github.com/bdobrica/starpack/internal/starpack/engine"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/resources"
)

// --- Health ----------------------------------------------------------------

func TestClient_HealthOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != engine.PathHealth {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	if err := engine.New(ts.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestClient_HealthNon200IsUnhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	if err := engine.New(ts.URL).Health(context.Background()); err == nil {
		t.Fatal("expected 204 to count as unhealthy")
	}
}

// --- Headers ---------------------------------------------------------------

func TestClient_SendsRequestIDAndUserAgent(t *testing.T) {
	var gotReqID, gotUA, gotTrace string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get("X-Request-ID")
		gotUA = r.Header.Get("User-Agent")
		gotTrace = r.Header.Get("X-Trace-ID")
	}))
	defer ts.Close()

	ctx := trace.WithTraceID(context.Background(), "t_abc")
	_ = engine.New(ts.URL).Health(ctx)
	if !strings.HasPrefix(gotReqID, "t_abc/") {
		t.Errorf("X-Request-ID = %q, want t_abc/ prefix", gotReqID)
	}
	if !strings.HasPrefix(gotUA, "starpack-cli/") {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotTrace != "t_abc" {
		t.Errorf("X-Trace-ID = %q", gotTrace)
	}
}

// --- Package / Deploy ------------------------------------------------------

func TestClient_PackagePostsJSON(t *testing.T) {
	var got map[string]any
	var gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != engine.PathPackage {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer ts.Close()

	payload := map[string]any{"package": map[string]any{"metadata": map[string]any{"name": "heart_model"}}}
	if err := engine.New(ts.URL).Package(context.Background(), payload); err != nil {
		t.Fatalf("Package: %v", err)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q", gotCT)
	}
	pkg, _ := got["package"].(map[string]any)
	if pkg == nil {
		t.Fatalf("payload not forwarded: %v", got)
	}
}

func TestClient_RejectionCarriesStatusAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `"bad descriptor"`)
	}))
	defer ts.Close()

	err := engine.New(ts.URL).Package(context.Background(), map[string]any{})
	if !errors.Is(err, fault.ErrUpstreamRejection) {
		t.Fatalf("expected upstream rejection, got %v", err)
	}
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fault.Error, got %T", err)
	}
	if fe.Status != 404 || fe.Body != `"bad descriptor"` {
		t.Errorf("status=%d body=%q", fe.Status, fe.Body)
	}
}

func TestClient_DeployReturnsEndpoints(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"endpoints":{"serve":"http://localhost:8080"}}`)
	}))
	defer ts.Close()

	resp, err := engine.New(ts.URL).Deploy(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if resp.Endpoints["serve"] != "http://localhost:8080" {
		t.Errorf("endpoints = %v", resp.Endpoints)
	}
}

func TestClient_DeployEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	resp, err := engine.New(ts.URL).Deploy(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if len(resp.Endpoints) != 0 {
		t.Errorf("endpoints = %v", resp.Endpoints)
	}
}

// --- Resources -------------------------------------------------------------

func TestClient_ListForwardsFilter(t *testing.T) {
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `[{"name":"heart_model","version":"1.0","wrapper":"mlflow"}]`)
	}))
	defer ts.Close()

	sel := resources.PackageSelector{F: resources.Filter{Name: "heart_model", Version: "1.0"}}
	got, err := engine.New(ts.URL).List(context.Background(), sel)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotPath != "/packages" || gotQuery != "name=heart_model&version=1.0" {
		t.Errorf("got %s?%s", gotPath, gotQuery)
	}
	if len(got) != 1 || got[0].Wrapper() != "mlflow" {
		t.Errorf("records = %v", got)
	}
}

func TestClient_ListKeepsNumericVersionText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"m","version":1.0}]`)
	}))
	defer ts.Close()

	got, err := engine.New(ts.URL).List(context.Background(), resources.ModelSelector{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got[0].Version() != "1.0" {
		t.Errorf("Version() = %q, want 1.0", got[0].Version())
	}
}

func TestClient_DeleteAndLogs(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/deployments/logs" {
			fmt.Fprint(w, "line 1\nline 2\n")
		}
	}))
	defer ts.Close()

	c := engine.New(ts.URL)
	sel := resources.DeploymentSelector{F: resources.Filter{Name: "heart"}}
	if err := c.Delete(context.Background(), sel); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	logs, err := c.Logs(context.Background(), sel)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if logs != "line 1\nline 2\n" {
		t.Errorf("logs = %q", logs)
	}
	want := []string{"DELETE /deployments", "GET /deployments/logs"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestClient_OversizedErrorBodyIsTruncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, strings.Repeat("x", 1<<20))
	}))
	defer ts.Close()

	err := engine.New(ts.URL).Delete(context.Background(), resources.PackageSelector{F: resources.Filter{Name: "p"}})
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fault.Error, got %v", err)
	}
	if len(fe.Body) > 4<<10 {
		t.Errorf("body not truncated: %d bytes", len(fe.Body))
	}
}
