package starpack_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bdobrica/starpack/common/spec/starpack"
)

const fullDescriptor = `
package:
  metadata:
    name: heart_model
    version: 0.1
  artifacts:
    root: proj
    inference: predict.py
    dependencies: requirements.txt
  steps:
    - name: fastapi
      port: 8080
    - name: docker
      tag: latest

deployment:
  metadata:
    name: heart_model_local
  steps:
    - name: docker_local
      package:
        name: heart_model
        tag: latest
`

func TestParsePackage_Valid(t *testing.T) {
	d, err := starpack.ParsePackage([]byte(fullDescriptor))
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	if d.Name() != "heart_model" {
		t.Errorf("Name = %q, want heart_model", d.Name())
	}
	if d.Package.Metadata.Version != "0.1" {
		t.Errorf("Version = %q, want 0.1", d.Package.Metadata.Version)
	}
	if len(d.Package.Steps) != 2 || d.Package.Steps[0].Name != "fastapi" {
		t.Errorf("steps not preserved in order: %+v", d.Package.Steps)
	}
	if d.Package.Steps[0].Params["port"] != 8080 {
		t.Errorf("step params not kept: %+v", d.Package.Steps[0].Params)
	}
}

func TestParsePackage_PayloadIsWholeDocument(t *testing.T) {
	d, err := starpack.ParsePackage([]byte(fullDescriptor))
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	raw, err := json.Marshal(d.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"name":"heart_model"`, `"deployment"`, `"port":8080`, `"version":0.1`} {
		if !strings.Contains(body, want) {
			t.Errorf("payload %s missing %s", body, want)
		}
	}
}

func TestParsePackage_PayloadKeepsNumberText(t *testing.T) {
	doc := `package:
  metadata:
    name: m
    version: 1.0
  artifacts:
    root: proj
  steps:
    - name: fastapi
      port: 0x1F
      ratio: .5
`
	d, err := starpack.ParsePackage([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	if d.Package.Metadata.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", d.Package.Metadata.Version)
	}
	raw, err := json.Marshal(d.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"version":1.0`, `"port":31`, `"ratio":0.5`} {
		if !strings.Contains(body, want) {
			t.Errorf("payload %s missing %s", body, want)
		}
	}
}

func TestParsePackage_MergeKeys(t *testing.T) {
	doc := `common: &common
  port: 8080
  tag: base
package:
  metadata:
    name: m
  artifacts:
    root: proj
  steps:
    - <<: *common
      name: fastapi
      tag: latest
`
	d, err := starpack.ParsePackage([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	raw, err := json.Marshal(d.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"port":8080`, `"tag":"latest"`, `"name":"fastapi"`} {
		if !strings.Contains(body, want) {
			t.Errorf("payload %s missing %s", body, want)
		}
	}
	if strings.Contains(body, `"<<"`) {
		t.Errorf("merge key leaked into payload %s", body)
	}
}

func TestParsePackage_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing package": "deployment:\n  metadata:\n    name: x\n  steps: []\n",
		"missing name":    "package:\n  metadata: {}\n  artifacts:\n    root: x\n  steps: []\n",
		"missing root":    "package:\n  metadata:\n    name: x\n  artifacts: {}\n  steps: []\n",
		"steps not list":  "package:\n  metadata:\n    name: x\n  artifacts:\n    root: x\n  steps: nope\n",
		"not a mapping":   "- a\n- b\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := starpack.ParsePackage([]byte(doc)); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
}

func TestParsePackage_Empty(t *testing.T) {
	_, err := starpack.ParsePackage([]byte("  \n"))
	if !errors.Is(err, starpack.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestParseDeployment_Valid(t *testing.T) {
	d, err := starpack.ParseDeployment([]byte(fullDescriptor))
	if err != nil {
		t.Fatalf("ParseDeployment: %v", err)
	}
	if d.Name() != "heart_model_local" {
		t.Errorf("Name = %q", d.Name())
	}
	ref := d.Deployment.Steps[0].Package
	if ref == nil || ref.Name != "heart_model" || ref.Tag != "latest" {
		t.Errorf("package ref = %+v", ref)
	}
}

func TestParseDeployment_MissingSection(t *testing.T) {
	doc := "package:\n  metadata:\n    name: x\n  artifacts:\n    root: x\n  steps: []\n"
	if _, err := starpack.ParseDeployment([]byte(doc)); err == nil {
		t.Fatal("expected error when deployment section is absent")
	}
}

func TestLoadPackage_SetsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), starpack.DescriptorFile)
	if err := os.WriteFile(path, []byte(fullDescriptor), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := starpack.LoadPackage(path)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	if d.Path != path {
		t.Errorf("Path = %q, want %q", d.Path, path)
	}
}
