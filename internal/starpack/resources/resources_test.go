package resources_test

import (
	"testing"

	"github.com/bdobrica/starpack/internal/starpack/resources"
)

func records() []resources.Record {
	return []resources.Record{
		{"name": "heart_model", "version": "1.0", "wrapper": "fastapi"},
		{"name": "heart_model", "version": "2.0", "wrapper": "fastapi"},
		{"name": "heart_model", "version": "2.0", "wrapper": "gradio"},
		{"name": "churn", "version": "1.0", "wrapper": "fastapi"},
	}
}

func TestSelect_FilterSemantics(t *testing.T) {
	cases := []struct {
		name   string
		filter resources.Filter
		want   int
	}{
		{"empty filter matches all", resources.Filter{}, 4},
		{"name only", resources.Filter{Name: "heart_model"}, 3},
		{"name and version", resources.Filter{Name: "heart_model", Version: "2.0"}, 2},
		{"all three", resources.Filter{Name: "heart_model", Version: "2.0", Wrapper: "gradio"}, 1},
		{"wrapper only", resources.Filter{Wrapper: "fastapi"}, 3},
		{"no match", resources.Filter{Name: "missing"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resources.Select(records(), tc.filter)
			if len(got) != tc.want {
				t.Errorf("Select(%+v) returned %d records, want %d", tc.filter, len(got), tc.want)
			}
			for _, r := range got {
				if !tc.filter.Matches(r) {
					t.Errorf("record %v does not match %+v", r, tc.filter)
				}
			}
		})
	}
}

func TestFilter_Query(t *testing.T) {
	q := resources.Filter{Name: "heart_model", Wrapper: "fastapi"}.Query()
	if q.Get("name") != "heart_model" || q.Get("wrapper") != "fastapi" {
		t.Errorf("unexpected query %v", q)
	}
	if q.Has("version") {
		t.Error("absent version should not be encoded")
	}
}

func TestSelector_Validate(t *testing.T) {
	cases := []struct {
		name    string
		sel     resources.Selector
		op      resources.Operation
		wantErr bool
	}{
		{"package list without name", resources.PackageSelector{}, resources.OpList, false},
		{"package delete without name", resources.PackageSelector{}, resources.OpDelete, true},
		{"package delete with name", resources.PackageSelector{F: resources.Filter{Name: "a"}}, resources.OpDelete, false},
		{"package logs unsupported", resources.PackageSelector{F: resources.Filter{Name: "a"}}, resources.OpLogs, true},
		{"deployment logs without name", resources.DeploymentSelector{}, resources.OpLogs, true},
		{"deployment logs with name", resources.DeploymentSelector{F: resources.Filter{Name: "a"}}, resources.OpLogs, false},
		{"model list", resources.ModelSelector{Name: "m"}, resources.OpList, false},
		{"model delete unsupported", resources.ModelSelector{Name: "m"}, resources.OpDelete, true},
		{"name with slash rejected", resources.PackageSelector{F: resources.Filter{Name: "a/b"}}, resources.OpList, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sel.Validate(tc.op)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tc.op, err, tc.wantErr)
			}
		})
	}
}

func TestNewSelector(t *testing.T) {
	sel, err := resources.NewSelector(resources.KindDeployment, resources.Filter{Name: "d"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if _, ok := sel.(resources.DeploymentSelector); !ok {
		t.Errorf("got %T, want DeploymentSelector", sel)
	}
	if _, err := resources.NewSelector(resources.KindModel, resources.Filter{Wrapper: "x"}); err == nil {
		t.Error("expected error for model wrapper filter")
	}
}
