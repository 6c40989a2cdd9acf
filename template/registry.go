package template

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Registry construction errors.
var (
	ErrEmptyName     = errors.New("template: empty template name")
	ErrReservedChar  = errors.New("template: name contains a reserved character")
	ErrNilTemplate   = errors.New("template: nil template")
	ErrDuplicateName = errors.New("template: duplicate template name")
)

// reserved are the DSL operators; no template name may contain them.
const reserved = "+*"

// Registry is an immutable name → Template mapping.
type Registry struct {
	templates map[string]Template
	labels    map[string]bool
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.templates[name]
	return t, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.templates))
}

// LabelNames returns the sorted names of templates that read only label
// fields (frame, role, stage), the ones usually conjoined with everything
// else.
func (r *Registry) LabelNames() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.labels))
}

// IsLabel reports whether name was registered with AddLabel.
func (r *Registry) IsLabel(name string) bool {
	return r != nil && r.labels[name]
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.templates)
}

// Builder assembles a Registry. The first invalid Add is remembered and
// reported by Build; later calls are ignored.
type Builder struct {
	templates map[string]Template
	labels    map[string]bool
	err       error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		templates: make(map[string]Template),
		labels:    make(map[string]bool),
	}
}

// Add registers t under name.
func (b *Builder) Add(name string, t Template) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case strings.TrimSpace(name) == "":
		b.err = fmt.Errorf("%w: %q", ErrEmptyName, name)
	case strings.ContainsAny(name, reserved):
		b.err = fmt.Errorf("%w: %q", ErrReservedChar, name)
	case t == nil:
		b.err = fmt.Errorf("%w: %q", ErrNilTemplate, name)
	default:
		if _, dup := b.templates[name]; dup {
			b.err = fmt.Errorf("%w: %q", ErrDuplicateName, name)
			return b
		}
		b.templates[name] = t
	}
	return b
}

// AddLabel registers t under name and marks it as a label template.
func (b *Builder) AddLabel(name string, t Template) *Builder {
	b.Add(name, t)
	if b.err == nil {
		b.labels[name] = true
	}
	return b
}

// AddSingle registers Single(name, fn).
func (b *Builder) AddSingle(name string, fn func(c *Context) (string, bool)) *Builder {
	return b.Add(name, Single(name, fn))
}

// Merge copies every template of r into the builder, keeping label marks.
func (b *Builder) Merge(r *Registry) *Builder {
	for _, name := range r.Names() {
		t, _ := r.Lookup(name)
		if r.IsLabel(name) {
			b.AddLabel(name, t)
		} else {
			b.Add(name, t)
		}
	}
	return b
}

// Err returns the first construction error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the registry, or the first construction error.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Registry{
		templates: maps.Clone(b.templates),
		labels:    maps.Clone(b.labels),
	}, nil
}
