// Package template defines feature templates, their conjunction algebra,
// and the small text language that builds template trees from names.
//
// A Template maps a Context to a lazy sequence of feature names. A nil
// sequence means the template does not fire for that context; any
// conjunction containing it does not fire either.
//
//	reg, _ := template.Basic(template.DefaultBasicOptions()).Build()
//	ts, _ := template.Parse("Head1-Word * Span1-Width + Frame", reg, nil)
//	for _, t := range ts {
//	    for name := range t.Extract(ctx) {
//	        fmt.Println(name) // "Head1-Word=fox_Span1-Width=3"
//	    }
//	}
package template

import (
	"errors"
	"iter"
	"slices"
)

// JoinSeparator joins the two halves of a conjoined feature name.
const JoinSeparator = "_"

// ValueSeparator separates a template name from the value it extracted.
const ValueSeparator = "="

// ErrNoFactors is returned by JoinAll when given nothing to join.
var ErrNoFactors = errors.New("template: no factors to join")

// Template extracts feature names from a Context. Returning nil means the
// template does not fire. Implementations must not retain the Context, and
// must be safe to call from several goroutines with distinct Contexts.
type Template interface {
	Extract(c *Context) iter.Seq[string]
}

// Func adapts a function to Template.
type Func func(c *Context) iter.Seq[string]

func (f Func) Extract(c *Context) iter.Seq[string] { return f(c) }

// Single builds a template that emits at most one feature, name=value.
// ok=false means the template does not fire.
func Single(name string, fn func(c *Context) (value string, ok bool)) Template {
	return Func(func(c *Context) iter.Seq[string] {
		v, ok := fn(c)
		if !ok {
			return nil
		}
		return One(name + ValueSeparator + v)
	})
}

// Multi builds a template that emits name=value for every value fn
// returns. An empty result means the template does not fire.
func Multi(name string, fn func(c *Context) []string) Template {
	return Func(func(c *Context) iter.Seq[string] {
		vs := fn(c)
		if len(vs) == 0 {
			return nil
		}
		return func(yield func(string) bool) {
			for _, v := range vs {
				if !yield(name + ValueSeparator + v) {
					return
				}
			}
		}
	})
}

// One returns a sequence of exactly one name.
func One(name string) iter.Seq[string] {
	return func(yield func(string) bool) {
		yield(name)
	}
}

// Values returns a sequence over names, or nil if names is empty.
func Values(names []string) iter.Seq[string] {
	if len(names) == 0 {
		return nil
	}
	return slices.Values(names)
}

// IsEmpty reports whether seq is nil or yields nothing. It pulls at most
// one element.
func IsEmpty(seq iter.Seq[string]) bool {
	if seq == nil {
		return true
	}
	for range seq {
		return false
	}
	return true
}

// Collect extracts t against c and materialises the names. It returns nil
// when t does not fire.
func Collect(t Template, c *Context) []string {
	seq := t.Extract(c)
	if seq == nil {
		return nil
	}
	return slices.Collect(seq)
}

// join is the conjunction of two templates.
type join struct {
	left, right Template
}

// Join conjoins two templates. The result fires only when both fire with
// at least one name each; it yields the row-major product left_right,
// replaying right once per left name. right is not evaluated when left
// does not fire.
func Join(left, right Template) Template {
	if left == nil || right == nil {
		panic("template: Join of nil template")
	}
	return join{left: left, right: right}
}

func (j join) Extract(c *Context) iter.Seq[string] {
	l := j.left.Extract(c)
	if IsEmpty(l) {
		return nil
	}
	r := j.right.Extract(c)
	if IsEmpty(r) {
		return nil
	}
	return func(yield func(string) bool) {
		for a := range l {
			for b := range r {
				if !yield(a + JoinSeparator + b) {
					return
				}
			}
		}
	}
}

// JoinAll conjoins templates right-associatively:
// JoinAll(a, b, c) == Join(a, Join(b, c)). A single template is returned
// unchanged.
func JoinAll(ts ...Template) (Template, error) {
	if len(ts) == 0 {
		return nil, ErrNoFactors
	}
	joined := ts[len(ts)-1]
	for i := len(ts) - 2; i >= 0; i-- {
		joined = Join(ts[i], joined)
	}
	return joined, nil
}
