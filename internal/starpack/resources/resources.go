// Package resources models the CRUD resource kinds exposed by the engine.
//
// A Selector is a closed set: PackageSelector, DeploymentSelector and
// ModelSelector are its only implementations. Each carries the filter shape
// its kind supports and is validated before it reaches the engine client.
package resources

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// Kind names a resource kind.
type Kind string

const (
	KindModel      Kind = "model"
	KindPackage    Kind = "package"
	KindDeployment Kind = "deployment"
)

func (k Kind) String() string { return string(k) }

// Plural is the collection path segment used by the engine.
func (k Kind) Plural() string { return string(k) + "s" }

var validate = validator.New()

// Filter selects resources by name, version and wrapper. Empty fields are
// wildcards.
type Filter struct {
	Name    string `json:"name,omitempty" validate:"omitempty,max=128,excludesall=/?#"`
	Version string `json:"version,omitempty" validate:"omitempty,max=64,excludesall=/?#"`
	Wrapper string `json:"wrapper,omitempty" validate:"omitempty,max=64,excludesall=/?#"`
}

// Validate checks field syntax.
func (f Filter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}

// requireName is applied to mutating and log operations.
func (f Filter) requireName() error {
	if err := validate.Var(f.Name, "required"); err != nil {
		return fmt.Errorf("invalid filter: a name is required")
	}
	return f.Validate()
}

// Query encodes the present fields as URL query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Version != "" {
		q.Set("version", f.Version)
	}
	if f.Wrapper != "" {
		q.Set("wrapper", f.Wrapper)
	}
	return q
}

// Matches reports whether r equals f on every present field.
func (f Filter) Matches(r Record) bool {
	if f.Name != "" && r.Name() != f.Name {
		return false
	}
	if f.Version != "" && r.Version() != f.Version {
		return false
	}
	if f.Wrapper != "" && r.Wrapper() != f.Wrapper {
		return false
	}
	return true
}

// Selector is a validated request for one resource kind.
type Selector interface {
	Kind() Kind
	Filter() Filter
	// Validate checks the selector for the given operation.
	Validate(op Operation) error
	sealed()
}

// Operation is what a selector is used for.
type Operation int

const (
	OpList Operation = iota
	OpDelete
	OpLogs
)

func (o Operation) String() string {
	switch o {
	case OpList:
		return "list"
	case OpDelete:
		return "delete"
	case OpLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// PackageSelector selects packages.
type PackageSelector struct{ F Filter }

func (s PackageSelector) Kind() Kind     { return KindPackage }
func (s PackageSelector) Filter() Filter { return s.F }
func (PackageSelector) sealed()          {}

func (s PackageSelector) Validate(op Operation) error {
	switch op {
	case OpList:
		return s.F.Validate()
	case OpDelete:
		return s.F.requireName()
	default:
		return unsupported(s.Kind(), op)
	}
}

// DeploymentSelector selects deployments.
type DeploymentSelector struct{ F Filter }

func (s DeploymentSelector) Kind() Kind     { return KindDeployment }
func (s DeploymentSelector) Filter() Filter { return s.F }
func (DeploymentSelector) sealed()          {}

func (s DeploymentSelector) Validate(op Operation) error {
	switch op {
	case OpList:
		return s.F.Validate()
	case OpDelete, OpLogs:
		return s.F.requireName()
	default:
		return unsupported(s.Kind(), op)
	}
}

// ModelSelector selects models. Models have no wrapper.
type ModelSelector struct {
	Name    string
	Version string
}

func (s ModelSelector) Kind() Kind     { return KindModel }
func (s ModelSelector) Filter() Filter { return Filter{Name: s.Name, Version: s.Version} }
func (ModelSelector) sealed()          {}

func (s ModelSelector) Validate(op Operation) error {
	if op != OpList {
		return unsupported(s.Kind(), op)
	}
	return s.Filter().Validate()
}

// NewSelector builds the selector for kind from the raw filter triple. A
// wrapper given for a model is rejected.
func NewSelector(kind Kind, f Filter) (Selector, error) {
	switch kind {
	case KindPackage:
		return PackageSelector{F: f}, nil
	case KindDeployment:
		return DeploymentSelector{F: f}, nil
	case KindModel:
		if f.Wrapper != "" {
			return nil, fmt.Errorf("models cannot be filtered by wrapper")
		}
		return ModelSelector{Name: f.Name, Version: f.Version}, nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

func unsupported(k Kind, op Operation) error {
	return fmt.Errorf("%s does not support %s", k.Plural(), op)
}

// Record is one resource entry as returned by the engine.
type Record map[string]any

func (r Record) str(key string) string {
	if v, ok := r[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func (r Record) Name() string    { return r.str("name") }
func (r Record) Version() string { return r.str("version") }
func (r Record) Wrapper() string { return r.str("wrapper") }

// Select returns the records matching f, preserving order.
func Select(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
