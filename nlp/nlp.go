// Package nlp defines the sentence and dependency-parse contracts that
// feature templates read from, plus a simple in-memory implementation.
package nlp

import (
	"errors"
	"fmt"
)

// Root is the parent of a token attached to the artificial root.
const Root = -1

// ErrBadSpan is returned for spans with start > end or negative bounds.
var ErrBadSpan = errors.New("nlp: invalid span")

// Span is a half-open token interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan validates and returns a span.
func NewSpan(start, end int) (Span, error) {
	if start < 0 || end < start {
		return Span{}, fmt.Errorf("%w: [%d,%d)", ErrBadSpan, start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Width returns the number of tokens covered.
func (s Span) Width() int {
	return s.End - s.Start
}

// Contains reports whether token i lies inside the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// DepParse is a labeled parent-pointer tree over sentence positions.
// Head returns Root (or any out-of-range value) for root attachments.
type DepParse interface {
	Head(i int) int
	Label(i int) string
}

// Sentence gives templates read-only access to token annotations.
// Deps may return nil when no dependency parse is available.
type Sentence interface {
	Len() int
	Word(i int) string
	Lemma(i int) string
	Pos(i int) string
	Shape(i int) string
	Deps() DepParse
}
