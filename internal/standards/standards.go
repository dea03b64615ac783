package standards

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kinds of project summary
const (
	SummaryScope = "scope"
	SummaryISCC  = "iscc"
)

// Field types understood by the validator and the form schema
const (
	TypeText        = "text"
	TypeTextarea    = "textarea"
	TypeInteger     = "integer"
	TypeFloat       = "float"
	TypeSelect      = "select"
	TypeMultiselect = "multiselect"
)

var fieldTypes = map[string]bool{
	TypeText:        true,
	TypeTextarea:    true,
	TypeInteger:     true,
	TypeFloat:       true,
	TypeSelect:      true,
	TypeMultiselect: true,
}

// Field is one input of a form step
type Field struct {
	Name        string      `yaml:"name" json:"name"`
	Label       string      `yaml:"label" json:"label"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Type        string      `yaml:"type" json:"type"`
	Required    bool        `yaml:"required" json:"required"`
	Min         *float64    `yaml:"min" json:"min,omitempty"`
	Max         *float64    `yaml:"max" json:"max,omitempty"`
	Default     interface{} `yaml:"default" json:"default,omitempty"`
	Choices     []string    `yaml:"choices" json:"choices,omitempty"`
}

// Step is one page of the data entry form of a standard. Scope is the
// GHG scope its calculations default to, 0 when the step is not scoped.
// Component names the ISCC formula term the step feeds.
type Step struct {
	Name      string  `yaml:"name" json:"name"`
	Title     string  `yaml:"title" json:"title"`
	Scope     int     `yaml:"scope" json:"scope"`
	Category  string  `yaml:"category" json:"category"`
	Component string  `yaml:"component" json:"component,omitempty"`
	Fields    []Field `yaml:"fields" json:"fields"`
}

// Standard is an emissions accounting standard with its ordered steps
type Standard struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Summary     string           `yaml:"summary" json:"summary"`
	Shared      map[string]Field `yaml:"fields" json:"-"`
	Steps       []Step           `yaml:"steps" json:"steps"`
}

// Step returns the named step
func (s *Standard) Step(name string) (*Step, bool) {
	for i := range s.Steps {
		if s.Steps[i].Name == name {
			return &s.Steps[i], true
		}
	}
	return nil, false
}

// Components maps step names to the ISCC formula term they feed
func (s *Standard) Components() map[string]string {
	components := map[string]string{}
	for _, step := range s.Steps {
		if step.Component != "" {
			components[step.Name] = step.Component
		}
	}
	return components
}

// Registry holds the standards by id
type Registry struct {
	standards map[string]*Standard
}

//go:embed tables/*.yaml
var tablesFS embed.FS

var defaultRegistry = mustLoadEmbedded()

// Default returns the registry built from the embedded field tables
func Default() *Registry {
	return defaultRegistry
}

// Get returns a standard of the default registry
func Get(id string) (*Standard, bool) {
	return defaultRegistry.Get(id)
}

// All returns the standards of the default registry ordered by id
func All() []*Standard {
	return defaultRegistry.All()
}

func (r *Registry) Get(id string) (*Standard, bool) {
	s, ok := r.standards[id]
	return s, ok
}

func (r *Registry) All() []*Standard {
	result := make([]*Standard, 0, len(r.standards))
	for _, s := range r.standards {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func mustLoadEmbedded() *Registry {
	r, err := LoadFromFS(tablesFS)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFromFS reads every tables/*.yaml file of fsys
func LoadFromFS(fsys fs.FS) (*Registry, error) {
	paths, err := fs.Glob(fsys, "tables/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob field tables: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no field tables found")
	}
	r := &Registry{standards: map[string]*Standard{}}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var s Standard
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := s.check(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, ok := r.standards[s.ID]; ok {
			return nil, fmt.Errorf("%s: duplicate standard %s", path, s.ID)
		}
		r.standards[s.ID] = &s
	}
	return r, nil
}

func (s *Standard) check() error {
	if s.ID == "" {
		return fmt.Errorf("standard without id")
	}
	if s.Summary != SummaryScope && s.Summary != SummaryISCC {
		return fmt.Errorf("standard %s has unknown summary kind %q", s.ID, s.Summary)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("standard %s has no steps", s.ID)
	}
	steps := map[string]bool{}
	for _, step := range s.Steps {
		if step.Name == "" || steps[step.Name] {
			return fmt.Errorf("standard %s has a missing or duplicate step name %q", s.ID, step.Name)
		}
		steps[step.Name] = true
		if step.Scope < 0 || step.Scope > 3 {
			return fmt.Errorf("step %s has scope %d", step.Name, step.Scope)
		}
		if s.Summary == SummaryISCC && step.Component == "" {
			return fmt.Errorf("step %s has no formula component", step.Name)
		}
		fields := map[string]bool{}
		for _, f := range step.Fields {
			if f.Name == "" || fields[f.Name] {
				return fmt.Errorf("step %s has a missing or duplicate field name %q", step.Name, f.Name)
			}
			fields[f.Name] = true
			if !fieldTypes[f.Type] {
				return fmt.Errorf("field %s.%s has unknown type %q", step.Name, f.Name, f.Type)
			}
			if (f.Type == TypeSelect || f.Type == TypeMultiselect) && len(f.Choices) == 0 {
				return fmt.Errorf("field %s.%s has no choices", step.Name, f.Name)
			}
		}
	}
	return nil
}
