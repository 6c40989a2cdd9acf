// Package featx extracts sparse feature vectors for frame-semantic
// structured prediction from composable feature templates.
//
// A Featurizer parses a template specification against a registry, renders
// every emitted name as "<value>::<prefix>", maps it through a feature
// Indexer, and accumulates the result in a feature.Vector.
//
//	f, _ := featx.New(featx.Options{Templates: "Head1-Word * Frame + 1", Prefix: "fid"})
//	c := template.NewContext()
//	c.SetSentence(sent)
//	c.SetFrame("Self_motion")
//	_ = c.SetSlot1(target, head)
//	v := feature.NewVector(0)
//	f.Featurize(v, c)
package featx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/template"
)

// PrefixSeparator joins a feature value and the global prefix.
const PrefixSeparator = "::"

// ErrNoTemplates is returned by New for an empty template specification.
var ErrNoTemplates = errors.New("featx: no templates")

// Observer receives per-context extraction counts.
type Observer interface {
	ObserveContext(stage string, emitted, notFound, silent int)
}

// Options configures a Featurizer.
type Options struct {
	// Templates is the specification, e.g. "Head1-Word * Frame + 1".
	Templates string
	// Prefix disambiguates models sharing one index space.
	Prefix string
	// Registry resolves template names; nil uses the basic catalog.
	Registry *template.Registry
	// Overrides are resolved before Registry.
	Overrides map[string]template.Template
	// Indexer maps names to indices; nil uses a new Growing alphabet.
	Indexer feature.Indexer
	// Refinements expand every name during ScanAlphabet and FeaturizeAll.
	Refinements feature.Refinements
	// Observer, if set, is told about every featurized context.
	Observer Observer
}

// Featurizer turns Contexts into feature vectors. It is safe for
// concurrent use when its Indexer is; a Growing alphabet is not.
type Featurizer struct {
	clauses     []template.Clause
	prefix      string
	indexer     feature.Indexer
	refinements feature.Refinements
	observer    Observer
}

// New parses the template specification and binds the indexer. Unknown
// template names fail here, before any Context is evaluated.
func New(opts Options) (*Featurizer, error) {
	if opts.Templates == "" {
		return nil, ErrNoTemplates
	}
	reg := opts.Registry
	if reg == nil {
		var err error
		reg, err = template.Basic(template.DefaultBasicOptions()).Build()
		if err != nil {
			return nil, fmt.Errorf("featx: %w", err)
		}
	}
	clauses, err := template.ParseClauses(opts.Templates, reg, opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("featx: %w", err)
	}
	indexer := opts.Indexer
	if indexer == nil {
		indexer = feature.NewAlphabet()
	}
	slog.Debug("Featurizer ready", "clauses", len(clauses), "prefix", opts.Prefix)
	return &Featurizer{
		clauses:     clauses,
		prefix:      opts.Prefix,
		indexer:     indexer,
		refinements: opts.Refinements,
		observer:    opts.Observer,
	}, nil
}

// Featurize adds every feature of c to v with weight 1 and returns the
// number of names emitted. Names unknown to a frozen indexer are dropped.
func (f *Featurizer) Featurize(v *feature.Vector, c *template.Context) int {
	return f.FeaturizeRefined(v, c, nil)
}

// FeaturizeRefined is like Featurize but expands every name through refs.
func (f *Featurizer) FeaturizeRefined(v *feature.Vector, c *template.Context, refs feature.Refinements) int {
	var emitted, notFound, silent int
	for _, cl := range f.clauses {
		seq := cl.Template.Extract(c)
		if seq == nil {
			silent++
			continue
		}
		for name := range seq {
			for refined, w := range refs.Expand(name) {
				emitted++
				idx := f.indexer.IndexOf(f.render(refined))
				if idx == feature.NotFound {
					notFound++
					continue
				}
				v.Add(idx, w)
			}
		}
	}
	f.observe(c, emitted, notFound, silent)
	return emitted
}

// Names returns the rendered feature names of c without indexing them.
// The Observer sees the context with no lookups.
func (f *Featurizer) Names(c *template.Context) []string {
	var names []string
	silent := 0
	for _, cl := range f.clauses {
		seq := cl.Template.Extract(c)
		if seq == nil {
			silent++
			continue
		}
		for name := range seq {
			names = append(names, f.render(name))
		}
	}
	f.observe(c, len(names), 0, silent)
	return names
}

func (f *Featurizer) observe(c *template.Context, emitted, notFound, silent int) {
	if f.observer == nil {
		return
	}
	stage, _ := c.Stage()
	f.observer.ObserveContext(stage, emitted, notFound, silent)
}

func (f *Featurizer) render(name string) string {
	return name + PrefixSeparator + f.prefix
}

// Dimension returns the indexer dimension.
func (f *Featurizer) Dimension() int {
	return f.indexer.Dimension()
}

// Indexer returns the bound indexer.
func (f *Featurizer) Indexer() feature.Indexer {
	return f.indexer
}

// Clauses returns the parsed template clauses.
func (f *Featurizer) Clauses() []template.Clause {
	return f.clauses
}

// Refinements returns the refinements used by ScanAlphabet and FeaturizeAll.
func (f *Featurizer) Refinements() feature.Refinements {
	return f.refinements
}

// Prefix returns the global prefix.
func (f *Featurizer) Prefix() string {
	return f.prefix
}
