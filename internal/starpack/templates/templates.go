// Package templates scaffolds a new model project directory.
//
// The starter files are embedded in the binary. Files ending in .tmpl are
// rendered with text/template and written without the suffix; every other
// file is copied verbatim.
//
// Typical layout (relative to the templates root):
//
//	predict.py
//	requirements.txt
//	starpack.yaml.tmpl
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

//go:embed files
var embedded embed.FS

const tmplSuffix = ".tmpl"

// Vars holds values interpolated into .tmpl files.
type Vars struct {
	// Directory is the base name of the project directory.
	Directory string
}

// Outcome is what happened to one scaffolded file.
type Outcome int

const (
	Written Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "written"
}

// FileResult reports the outcome for one file. Reason is set when skipped.
type FileResult struct {
	Path    string
	Outcome Outcome
	Reason  string
}

// Confirmer asks whether an existing file may be overwritten.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Registry resolves and renders starter files from a filesystem root.
type Registry struct {
	root fs.FS
}

// NewRegistry creates a Registry backed by the provided filesystem root.
func NewRegistry(root fs.FS) *Registry {
	return &Registry{root: root}
}

// Default returns the Registry of embedded starter files.
func Default() *Registry {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic("templates: missing embedded files: " + err.Error())
	}
	return NewRegistry(sub)
}

// List returns the template names at the root, sorted.
func (r *Registry) List() ([]string, error) {
	entries, err := fs.ReadDir(r.root, ".")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// OutputName is the file name a template is written as.
func OutputName(name string) string {
	return strings.TrimSuffix(name, tmplSuffix)
}

// Render returns the content of the named template, interpolating vars for
// .tmpl files.
func (r *Registry) Render(name string, vars Vars) ([]byte, error) {
	raw, err := fs.ReadFile(r.root, name)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	if !strings.HasSuffix(name, tmplSuffix) {
		return raw, nil
	}

	// missingkey=error fails loudly instead of inserting "<no value>".
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("template %q: parse: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("template %q: render: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Materialize writes every template into dir, creating it if needed.
//
// An existing file is overwritten when overwrite is set. Otherwise confirm is
// asked; a declined or unanswerable prompt skips that file and processing
// continues with the next one.
func (r *Registry) Materialize(dir string, overwrite bool, confirm Confirmer) ([]FileResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", abs, err)
	}

	names, err := r.List()
	if err != nil {
		return nil, err
	}
	vars := Vars{Directory: filepath.Base(abs)}

	results := make([]FileResult, 0, len(names))
	for _, name := range names {
		dest := filepath.Join(abs, OutputName(name))

		if _, err := os.Stat(dest); err == nil && !overwrite {
			reason, ok, err := ask(confirm, dest)
			if err != nil {
				return results, err
			}
			if !ok {
				slog.Debug("skipping existing file", "path", dest, "reason", reason)
				results = append(results, FileResult{Path: dest, Outcome: Skipped, Reason: reason})
				continue
			}
		}

		content, err := r.Render(name, vars)
		if err != nil {
			return results, err
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return results, fmt.Errorf("write %s: %w", dest, err)
		}
		results = append(results, FileResult{Path: dest, Outcome: Written})
	}
	return results, nil
}

func ask(confirm Confirmer, dest string) (reason string, ok bool, err error) {
	if confirm == nil {
		return "file exists", false, nil
	}
	ok, err = confirm.Confirm(fmt.Sprintf("%s already exists. Overwrite?", dest))
	if err != nil {
		return "", false, fmt.Errorf("confirm overwrite of %s: %w", dest, err)
	}
	if !ok {
		return "declined by user", false, nil
	}
	return "", true, nil
}
