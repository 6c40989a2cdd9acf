package feature

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// ErrBadRefinement is returned by ParseRefinements for malformed input.
var ErrBadRefinement = errors.New("feature: malformed refinement")

// Refinement replicates a base feature as Name_base with Weight.
type Refinement struct {
	Name   string
	Weight float64
}

// Refinements is an ordered refinement set.
type Refinements []Refinement

// Expand yields (base, 1) followed by (name_i + "_" + base, weight_i) for
// each refinement in declaration order.
func (r Refinements) Expand(base string) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		if !yield(base, 1) {
			return
		}
		for _, ref := range r {
			if !yield(ref.Name+"_"+base, ref.Weight) {
				return
			}
		}
	}
}

// ParseRefinements parses "name:weight,name:weight". A missing weight
// defaults to 1. The empty string is an empty set.
func ParseRefinements(s string) (Refinements, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out Refinements
	for part := range strings.SplitSeq(s, ",") {
		name, weight, hasWeight := strings.Cut(strings.TrimSpace(part), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name in %q", ErrBadRefinement, part)
		}
		w := 1.0
		if hasWeight {
			var err error
			w, err = strconv.ParseFloat(strings.TrimSpace(weight), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: weight of %q: %v", ErrBadRefinement, name, err)
			}
		}
		out = append(out, Refinement{Name: name, Weight: w})
	}
	return out, nil
}

func (r Refinements) String() string {
	parts := make([]string, len(r))
	for i, ref := range r {
		parts[i] = ref.Name + ":" + strconv.FormatFloat(ref.Weight, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
