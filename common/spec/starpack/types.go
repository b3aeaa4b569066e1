// Package starpack defines the descriptor documents read from starpack.yaml.
//
// A single starpack.yaml holds a `package` section (how to build the model
// bundle) and, optionally, a `deployment` section (where to run it). The engine
// owns the semantics of individual steps; this package only checks the shape
// the client relies on and converts the YAML into the JSON payload the engine
// accepts.
package starpack

// DescriptorFile is the fixed descriptor name looked up inside a project
// directory.
const DescriptorFile = "starpack.yaml"

// Metadata identifies a package or deployment.
type Metadata struct {
	// Name is required.
	Name string `yaml:"name" json:"name"`
	// Version is free-form; YAML numbers such as 0.1 are kept as written.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Description is informational only.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Artifacts locates the model bundle inside the uploaded directory.
type Artifacts struct {
	// Root is the directory name on the artifacts volume.
	Root string `yaml:"root" json:"root"`
	// Inference is the entrypoint script, e.g. predict.py.
	Inference string `yaml:"inference,omitempty" json:"inference,omitempty"`
	// Dependencies is the dependency file, e.g. requirements.txt.
	Dependencies string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// Step is one ordered build or deployment action. Only Name is interpreted
// client-side; everything else is passed through to the engine.
type Step struct {
	Name    string         `yaml:"name" json:"name"`
	Package *PackageRef    `yaml:"package,omitempty" json:"package,omitempty"`
	Params  map[string]any `yaml:",inline" json:"-"`
}

// PackageRef points a deployment step at a package by name and tag.
type PackageRef struct {
	Name string `yaml:"name" json:"name"`
	Tag  string `yaml:"tag,omitempty" json:"tag,omitempty"`
}

// Package is the `package` section.
type Package struct {
	Metadata  Metadata  `yaml:"metadata" json:"metadata"`
	Artifacts Artifacts `yaml:"artifacts" json:"artifacts"`
	Steps     []Step    `yaml:"steps" json:"steps"`
}

// Deployment is the `deployment` section.
type Deployment struct {
	Metadata Metadata `yaml:"metadata" json:"metadata"`
	Steps    []Step   `yaml:"steps" json:"steps"`
}

// Document is a whole starpack.yaml.
type Document struct {
	Package    *Package    `yaml:"package,omitempty" json:"package,omitempty"`
	Deployment *Deployment `yaml:"deployment,omitempty" json:"deployment,omitempty"`
}

// Payload is the JSON-compatible form of a descriptor document, posted to the
// engine as-is.
type Payload map[string]any

// PackageDescriptor is a loaded, validated package document.
type PackageDescriptor struct {
	Path    string
	Package Package
	Payload Payload
}

// Name returns package.metadata.name.
func (d *PackageDescriptor) Name() string { return d.Package.Metadata.Name }

// DeploymentDescriptor is a loaded, validated deployment document.
type DeploymentDescriptor struct {
	Path       string
	Deployment Deployment
	Payload    Payload
}

// Name returns deployment.metadata.name.
func (d *DeploymentDescriptor) Name() string { return d.Deployment.Metadata.Name }
