package starpack

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned for a descriptor with no YAML content.
var ErrEmptyDocument = errors.New("starpack: descriptor is empty")

// ParsePackage decodes and validates the package section of a descriptor.
func ParsePackage(data []byte) (*PackageDescriptor, error) {
	payload, err := toPayload(data)
	if err != nil {
		return nil, err
	}
	if err := packageSchema.Validate(map[string]any(payload)); err != nil {
		return nil, fmt.Errorf("starpack: invalid package descriptor: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("starpack: parse: %w", err)
	}
	return &PackageDescriptor{Package: *doc.Package, Payload: payload}, nil
}

// ParseDeployment decodes and validates the deployment section of a
// descriptor.
func ParseDeployment(data []byte) (*DeploymentDescriptor, error) {
	payload, err := toPayload(data)
	if err != nil {
		return nil, err
	}
	if err := deploymentSchema.Validate(map[string]any(payload)); err != nil {
		return nil, fmt.Errorf("starpack: invalid deployment descriptor: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("starpack: parse: %w", err)
	}
	return &DeploymentDescriptor{Deployment: *doc.Deployment, Payload: payload}, nil
}

// LoadPackage reads and parses the package descriptor at path.
func LoadPackage(path string) (*PackageDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("starpack: read %s: %w", path, err)
	}
	d, err := ParsePackage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// LoadDeployment reads and parses the deployment descriptor at path.
func LoadDeployment(path string) (*DeploymentDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("starpack: read %s: %w", path, err)
	}
	d, err := ParseDeployment(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// toPayload turns YAML into the JSON value model: objects are
// map[string]any and numbers are json.Number carrying the YAML text, so
// `version: 1.0` reaches the engine as 1.0 rather than 1.
func toPayload(data []byte) (Payload, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("starpack: parse: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, ErrEmptyDocument
	}
	v, err := nodeValue(root)
	if err != nil {
		return nil, err
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("starpack: descriptor must be a mapping")
	}
	return Payload(payload), nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		var merged []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.Tag == "!!merge" {
				merged = append(merged, val)
				continue
			}
			v, err := nodeValue(val)
			if err != nil {
				return nil, err
			}
			out[k.Value] = v
		}
		// Explicit keys win over merged ones.
		for _, m := range merged {
			if err := mergeInto(out, m); err != nil {
				return nil, err
			}
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return nil, fmt.Errorf("starpack: line %d: unsupported YAML node", n.Line)
}

func mergeInto(out map[string]any, n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		for _, c := range n.Content {
			if err := mergeInto(out, c); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := nodeValue(n)
	if err != nil {
		return err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("starpack: line %d: merge value is not a mapping", n.Line)
	}
	for k, val := range m {
		if _, set := out[k]; !set {
			out[k] = val
		}
	}
	return nil
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!str":
		return n.Value, nil
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value), nil
		}
		// Forms like 0x1F or +1 have no JSON spelling; use the decoded value.
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("starpack: line %d: %w", n.Line, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("starpack: line %d: %s is not representable as JSON", n.Line, n.Value)
		}
		return json.Number(raw), nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("starpack: line %d: %w", n.Line, err)
	}
	return v, nil
}
