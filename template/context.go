package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/happyhackingspace/featx/nlp"
)

// Context invariant violations.
var (
	ErrHeadOutsideSpan = errors.New("template: head outside span")
	ErrNegativeIndex   = errors.New("template: negative token index")
)

// Tri is a tri-state flag: unset, true or false.
type Tri int8

const (
	Unset Tri = iota
	True
	False
)

// TriOf converts a bool into a set Tri.
func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

// IsSet reports whether the flag holds a value.
func (t Tri) IsSet() bool { return t != Unset }

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "UNSET"
}

// slot is an optional field.
type slot[T any] struct {
	v   T
	set bool
}

func (s slot[T]) get() (T, bool) { return s.v, s.set }

func (s *slot[T]) put(v T) { s.v, s.set = v, true }

func (s *slot[T]) clear() { *s = slot[T]{} }

// Context holds everything a template may read for one extraction. A
// Context is reused across extractions: call Clear before populating it
// again. Sequences returned by Extract must be consumed before the Context
// is mutated.
//
// span1/head1 and span2/head2 are generic slots so templates can be written
// once rather than per semantic role; populate span1 before span2.
type Context struct {
	sentence nlp.Sentence
	frame    slot[string]
	role     slot[string]
	stage    slot[string]

	target     slot[nlp.Span]
	targetHead slot[int]
	arg        slot[nlp.Span]
	argHead    slot[int]

	span1, span2             slot[nlp.Span]
	head1, head2             slot[int]
	head1Parent, head2Parent slot[int]

	span1IsConstituent Tri
	span2IsConstituent Tri
	prune              Tri
}

// NewContext returns a cleared Context.
func NewContext() *Context {
	return &Context{}
}

// Clear resets every field to unset.
func (c *Context) Clear() {
	*c = Context{}
}

// Sentence returns the sentence, or nil.
func (c *Context) Sentence() nlp.Sentence { return c.sentence }

// SetSentence sets the sentence; nil unsets it.
func (c *Context) SetSentence(s nlp.Sentence) { c.sentence = s }

// Frame returns the frame label. SetFrame and UnsetFrame change it.
func (c *Context) Frame() (string, bool) { return c.frame.get() }
func (c *Context) SetFrame(f string)     { c.frame.put(f) }
func (c *Context) UnsetFrame()           { c.frame.clear() }

// Role returns the role label. SetRole and UnsetRole change it.
func (c *Context) Role() (string, bool) { return c.role.get() }
func (c *Context) SetRole(r string)     { c.role.put(r) }
func (c *Context) UnsetRole()           { c.role.clear() }

// Stage names the prediction stage the extraction serves, so templates
// can be restricted to particular stages.
func (c *Context) Stage() (string, bool) { return c.stage.get() }
func (c *Context) SetStage(s string)     { c.stage.put(s) }

// Target returns the frame target span and TargetHead its head token.
// SetTarget and SetTargetHead fail when the head would fall outside the
// span; UnsetTarget clears both.
func (c *Context) Target() (nlp.Span, bool)   { return c.target.get() }
func (c *Context) TargetHead() (int, bool)    { return c.targetHead.get() }
func (c *Context) SetTarget(s nlp.Span) error { return setSpan(&c.target, c.targetHead, s) }
func (c *Context) SetTargetHead(h int) error  { return setHead(&c.targetHead, c.target, h) }
func (c *Context) UnsetTarget()               { c.target.clear(); c.targetHead.clear() }

// Arg returns the argument span and ArgHead its head token, with the same
// span and head rules as Target.
func (c *Context) Arg() (nlp.Span, bool)   { return c.arg.get() }
func (c *Context) ArgHead() (int, bool)    { return c.argHead.get() }
func (c *Context) SetArg(s nlp.Span) error { return setSpan(&c.arg, c.argHead, s) }
func (c *Context) SetArgHead(h int) error  { return setHead(&c.argHead, c.arg, h) }
func (c *Context) UnsetArg()               { c.arg.clear(); c.argHead.clear() }

// Span1 and Head1 read the first generic slot. The setters enforce that
// head1 lies in span1; UnsetSlot1 clears both.
func (c *Context) Span1() (nlp.Span, bool)   { return c.span1.get() }
func (c *Context) Head1() (int, bool)        { return c.head1.get() }
func (c *Context) SetSpan1(s nlp.Span) error { return setSpan(&c.span1, c.head1, s) }
func (c *Context) SetHead1(h int) error      { return setHead(&c.head1, c.span1, h) }
func (c *Context) UnsetSlot1()               { c.span1.clear(); c.head1.clear() }

// Span2 and Head2 read the second generic slot, with the same rules as
// slot 1.
func (c *Context) Span2() (nlp.Span, bool)   { return c.span2.get() }
func (c *Context) Head2() (int, bool)        { return c.head2.get() }
func (c *Context) SetSpan2(s nlp.Span) error { return setSpan(&c.span2, c.head2, s) }
func (c *Context) SetHead2(h int) error      { return setHead(&c.head2, c.span2, h) }
func (c *Context) UnsetSlot2()               { c.span2.clear(); c.head2.clear() }

// Head1Parent and Head2Parent hold the dependency parents of the slot
// heads, as set by the caller. A parent of nlp.Root marks a root head.
func (c *Context) Head1Parent() (int, bool) { return c.head1Parent.get() }
func (c *Context) Head2Parent() (int, bool) { return c.head2Parent.get() }
func (c *Context) SetHead1Parent(p int)     { c.head1Parent.put(p) }
func (c *Context) SetHead2Parent(p int)     { c.head2Parent.put(p) }

// Span1IsConstituent reports whether span1 is a syntactic constituent.
func (c *Context) Span1IsConstituent() Tri      { return c.span1IsConstituent }
func (c *Context) SetSpan1IsConstituent(b bool) { c.span1IsConstituent = TriOf(b) }
func (c *Context) UnsetSpan1IsConstituent()     { c.span1IsConstituent = Unset }

// Span2IsConstituent reports whether span2 is a syntactic constituent.
func (c *Context) Span2IsConstituent() Tri      { return c.span2IsConstituent }
func (c *Context) SetSpan2IsConstituent(b bool) { c.span2IsConstituent = TriOf(b) }
func (c *Context) UnsetSpan2IsConstituent()     { c.span2IsConstituent = Unset }

// Prune reports whether the argument candidate would be pruned.
func (c *Context) Prune() Tri      { return c.prune }
func (c *Context) SetPrune(b bool) { c.prune = TriOf(b) }
func (c *Context) UnsetPrune()     { c.prune = Unset }

// SetSlot1 sets span1 and head1 together, replacing any previous values.
func (c *Context) SetSlot1(s nlp.Span, head int) error {
	return setSlot(&c.span1, &c.head1, s, head)
}

// SetSlot2 sets span2 and head2 together, replacing any previous values.
func (c *Context) SetSlot2(s nlp.Span, head int) error {
	return setSlot(&c.span2, &c.head2, s, head)
}

func setSlot(span *slot[nlp.Span], head *slot[int], s nlp.Span, h int) error {
	if err := checkHead(s, true, h); err != nil {
		return err
	}
	span.put(s)
	head.put(h)
	return nil
}

func setSpan(span *slot[nlp.Span], head slot[int], s nlp.Span) error {
	if h, ok := head.get(); ok {
		if err := checkHead(s, true, h); err != nil {
			return err
		}
	}
	span.put(s)
	return nil
}

func setHead(head *slot[int], span slot[nlp.Span], h int) error {
	s, ok := span.get()
	if err := checkHead(s, ok, h); err != nil {
		return err
	}
	head.put(h)
	return nil
}

func checkHead(s nlp.Span, spanSet bool, h int) error {
	if h < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, h)
	}
	if spanSet && !s.Contains(h) {
		return fmt.Errorf("%w: head=%d span=%v", ErrHeadOutsideSpan, h, s)
	}
	return nil
}

// Describe renders the populated fields for debug logging.
func (c *Context) Describe() string {
	var sb strings.Builder
	field := func(name, value string) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
	}
	str := func(name string, s slot[string]) {
		if v, ok := s.get(); ok {
			field(name, v)
		}
	}
	span := func(name string, s slot[nlp.Span]) {
		if v, ok := s.get(); ok {
			field(name, c.describeSpan(v))
		}
	}
	head := func(name string, s slot[int]) {
		if v, ok := s.get(); ok {
			field(name, c.describeToken(v))
		}
	}
	tri := func(name string, t Tri) {
		if t.IsSet() {
			field(name, t.String())
		}
	}

	str("stage", c.stage)
	str("frame", c.frame)
	str("role", c.role)
	span("target", c.target)
	head("targetHead", c.targetHead)
	span("arg", c.arg)
	head("argHead", c.argHead)
	span("span1", c.span1)
	head("head1", c.head1)
	span("span2", c.span2)
	head("head2", c.head2)
	tri("span1IsConstituent", c.span1IsConstituent)
	tri("span2IsConstituent", c.span2IsConstituent)
	tri("prune", c.prune)
	if sb.Len() == 0 {
		return "<empty>"
	}
	return sb.String()
}

func (c *Context) describeToken(i int) string {
	if c.sentence == nil || i < 0 || i >= c.sentence.Len() {
		return fmt.Sprintf("@%d", i)
	}
	return fmt.Sprintf("%s@%d", c.sentence.Word(i), i)
}

func (c *Context) describeSpan(s nlp.Span) string {
	if c.sentence == nil || s.Start < 0 || s.End > c.sentence.Len() {
		return s.String()
	}
	words := make([]string, 0, s.Width())
	for i := s.Start; i < s.End; i++ {
		words = append(words, c.sentence.Word(i))
	}
	return fmt.Sprintf("%q%s", strings.Join(words, " "), s)
}
