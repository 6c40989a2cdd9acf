package template

import (
	"fmt"
	"strings"
)

// DSL operators.
const (
	Plus  = "+"
	Times = "*"
)

// ParseError reports a template specification that cannot be resolved.
type ParseError struct {
	Spec   string // whole specification
	Clause string // offending clause, if any
	Factor string // offending factor, if any
	Reason string
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("template: ")
	sb.WriteString(e.Reason)
	if e.Factor != "" {
		fmt.Fprintf(&sb, " %q", e.Factor)
	}
	if e.Clause != "" {
		fmt.Fprintf(&sb, " in clause %q", e.Clause)
	}
	return sb.String()
}

// TokenizeTemplates splits a specification into its trimmed +-clauses.
//
//	TokenizeTemplates("a + b * c") // ["a", "b * c"]
func TokenizeTemplates(s string) []string {
	return splitTrim(s, Plus)
}

// TokenizeProducts splits a clause into its trimmed *-factors.
//
//	TokenizeProducts("b*c") // ["b", "c"]
func TokenizeProducts(s string) []string {
	return splitTrim(s, Times)
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Clause is one parsed +-clause.
type Clause struct {
	Text     string
	Factors  []string
	Template Template
}

// ParseClauses parses a specification, keeping the text of every clause.
// Each factor is looked up in overrides first, then in reg. Every failure
// is a *ParseError; nothing is evaluated.
func ParseClauses(s string, reg *Registry, overrides map[string]Template) ([]Clause, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &ParseError{Spec: s, Reason: "empty template specification"}
	}
	var clauses []Clause
	for _, text := range TokenizeTemplates(s) {
		if text == "" {
			return nil, &ParseError{Spec: s, Reason: "empty clause"}
		}
		factors := TokenizeProducts(text)
		ts := make([]Template, 0, len(factors))
		for _, name := range factors {
			if name == "" {
				return nil, &ParseError{Spec: s, Clause: text, Reason: "empty factor"}
			}
			t, ok := resolve(name, reg, overrides)
			if !ok {
				return nil, &ParseError{Spec: s, Clause: text, Factor: name, Reason: "unknown template"}
			}
			ts = append(ts, t)
		}
		t, err := JoinAll(ts...)
		if err != nil {
			return nil, &ParseError{Spec: s, Clause: text, Reason: err.Error()}
		}
		clauses = append(clauses, Clause{Text: text, Factors: factors, Template: t})
	}
	return clauses, nil
}

// Parse parses a specification into one Template per clause.
func Parse(s string, reg *Registry, overrides map[string]Template) ([]Template, error) {
	clauses, err := ParseClauses(s, reg, overrides)
	if err != nil {
		return nil, err
	}
	ts := make([]Template, len(clauses))
	for i, c := range clauses {
		ts[i] = c.Template
	}
	return ts, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string, reg *Registry, overrides map[string]Template) []Template {
	ts, err := Parse(s, reg, overrides)
	if err != nil {
		panic(err)
	}
	return ts
}

func resolve(name string, reg *Registry, overrides map[string]Template) (Template, bool) {
	if t, ok := overrides[name]; ok && t != nil {
		return t, true
	}
	return reg.Lookup(name)
}
