package template

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/happyhackingspace/featx/deppath"
	"github.com/happyhackingspace/featx/internal/textutil"
	"github.com/happyhackingspace/featx/nlp"
)

// BasicOptions tunes the generated catalog.
type BasicOptions struct {
	// NgramLengths are the window sizes of the path n-gram templates.
	NgramLengths []int
	// WidthDivisors generate Span1-Width-Div<d> templates.
	WidthDivisors []int
	// WidthCardinality bounds the number of distinct discretized widths.
	WidthCardinality int
}

// DefaultBasicOptions returns the catalog defaults.
func DefaultBasicOptions() BasicOptions {
	return BasicOptions{
		NgramLengths:     []int{1, 2, 3},
		WidthDivisors:    []int{1, 2, 3},
		WidthCardinality: 6,
	}
}

func (o BasicOptions) withDefaults() BasicOptions {
	d := DefaultBasicOptions()
	if len(o.NgramLengths) == 0 {
		o.NgramLengths = d.NgramLengths
	}
	if len(o.WidthDivisors) == 0 {
		o.WidthDivisors = d.WidthDivisors
	}
	if o.WidthCardinality <= 0 {
		o.WidthCardinality = d.WidthCardinality
	}
	return o
}

// tokenFunc renders one annotation of an in-sentence position.
type tokenFunc func(s nlp.Sentence, i int) (string, bool)

type tokenExtractor struct {
	name string
	fn   tokenFunc
}

// tokenExtractors in registration order.
var tokenExtractors = []tokenExtractor{
	{"Word", func(s nlp.Sentence, i int) (string, bool) { return s.Word(i), true }},
	{"WordLC", func(s nlp.Sentence, i int) (string, bool) { return strings.ToLower(s.Word(i)), true }},
	{"Word3", func(s nlp.Sentence, i int) (string, bool) { return textutil.Prefix(s.Word(i), 4), true }},
	{"Word4", func(s nlp.Sentence, i int) (string, bool) { return textutil.Prefix(s.Word(i), 5), true }},
	{"Lemma", func(s nlp.Sentence, i int) (string, bool) { return s.Lemma(i), true }},
	{"Pos", func(s nlp.Sentence, i int) (string, bool) { return s.Pos(i), s.Pos(i) != "" }},
	{"Pos2", func(s nlp.Sentence, i int) (string, bool) { return textutil.Prefix(s.Pos(i), 1), s.Pos(i) != "" }},
	{"Shape", func(s nlp.Sentence, i int) (string, bool) { return s.Shape(i), s.Shape(i) != "" }},
	{"NumPattern", numPattern},
	{"BasicLabel", basicLabel},
	{"BasicParentDir", basicParentDir},
}

func numPattern(s nlp.Sentence, i int) (string, bool) {
	p := textutil.NumberPattern(s.Word(i), 0.3)
	return p, p != ""
}

func basicLabel(s nlp.Sentence, i int) (string, bool) {
	deps := s.Deps()
	if deps == nil {
		return "", false
	}
	return deps.Label(i), true
}

func basicParentDir(s nlp.Sentence, i int) (string, bool) {
	deps := s.Deps()
	if deps == nil {
		return "", false
	}
	h := deps.Head(i)
	switch {
	case h < 0 || h >= s.Len():
		return "root", true
	case h < i:
		return "left", true
	default:
		return "right", true
	}
}

// token renders position i, substituting the boundary tokens for
// positions outside the sentence.
func token(fn tokenFunc, s nlp.Sentence, i int) (string, bool) {
	switch {
	case i < 0:
		return textutil.SentenceStart, true
	case i >= s.Len():
		return textutil.SentenceEnd, true
	}
	return fn(s, i)
}

// position locates a sentence index in a Context.
type position struct {
	name string
	at   func(c *Context) (int, bool)
}

var positions = []position{
	{"Head1", (*Context).Head1},
	{"Head2", (*Context).Head2},
	{"Head1-Parent-Basic", func(c *Context) (int, bool) { return parentOf(c, c.head1) }},
	{"Head2-Parent-Basic", func(c *Context) (int, bool) { return parentOf(c, c.head2) }},
}

func parentOf(c *Context, head slot[int]) (int, bool) {
	h, ok := head.get()
	if !ok || c.sentence == nil {
		return 0, false
	}
	deps := c.sentence.Deps()
	if deps == nil {
		return 0, false
	}
	return deps.Head(h), true
}

// spanLocation picks a position relative to a span.
type spanLocation struct {
	name string
	at   func(s nlp.Span) int
}

var spanLocations = []spanLocation{
	{"Left", func(s nlp.Span) int { return s.Start - 1 }},
	{"First", func(s nlp.Span) int { return s.Start }},
	{"Last", func(s nlp.Span) int { return s.End - 1 }},
	{"Right", func(s nlp.Span) int { return s.End }},
}

type spanSlot struct {
	name string
	at   func(c *Context) (nlp.Span, bool)
}

var spanSlots = []spanSlot{
	{"Span1", (*Context).Span1},
	{"Span2", (*Context).Span2},
}

// Basic returns a Builder preloaded with the basic template catalog.
// Callers may add their own templates before calling Build.
func Basic(opts BasicOptions) *Builder {
	opts = opts.withDefaults()
	b := NewBuilder()
	addTokenTemplates(b)
	addSpanTemplates(b, opts)
	addLabelTemplates(b)
	addPathTemplates(b, opts)
	return b
}

func addTokenTemplates(b *Builder) {
	for _, x := range tokenExtractors {
		for _, p := range positions {
			name := p.name + "-" + x.name
			b.AddSingle(name, func(c *Context) (string, bool) {
				i, ok := p.at(c)
				if !ok || c.sentence == nil {
					return "", false
				}
				return token(x.fn, c.sentence, i)
			})
		}

		// Tokens of span1 on either side of head1.
		b.Add("Head1-ToLeft-"+x.name, Multi("Head1-ToLeft-"+x.name, func(c *Context) []string {
			h, s, ok := headAndSpan(c)
			if !ok || s.Start >= h {
				return nil
			}
			return distinct(c.sentence, x.fn, h-1, s.Start-1, -1)
		}))
		b.Add("Head1-ToRight-"+x.name, Multi("Head1-ToRight-"+x.name, func(c *Context) []string {
			h, s, ok := headAndSpan(c)
			if !ok || h+1 >= s.End {
				return nil
			}
			return distinct(c.sentence, x.fn, h+1, s.End, 1)
		}))

		for _, sl := range spanSlots {
			for _, loc := range spanLocations {
				b.AddSingle(sl.name+"-"+loc.name+"-"+x.name, func(c *Context) (string, bool) {
					s, ok := sl.at(c)
					if !ok || c.sentence == nil {
						return "", false
					}
					return token(x.fn, c.sentence, loc.at(s))
				})
			}
			b.Add(sl.name+"-Bag-"+x.name, Multi(sl.name+"-Bag-"+x.name, func(c *Context) []string {
				s, ok := sl.at(c)
				if !ok || c.sentence == nil {
					return nil
				}
				return distinct(c.sentence, x.fn, max(s.Start, 0), min(s.End, c.sentence.Len()), 1)
			}))
		}
	}
}

func headAndSpan(c *Context) (int, nlp.Span, bool) {
	h, ok := c.Head1()
	if !ok || c.sentence == nil {
		return 0, nlp.Span{}, false
	}
	s, ok := c.Span1()
	return h, s, ok
}

// distinct renders positions from, from+step, ... up to (not including)
// to, keeping the first occurrence of each value.
func distinct(s nlp.Sentence, fn tokenFunc, from, to, step int) []string {
	var out []string
	seen := make(map[string]struct{})
	for i := from; (step > 0 && i < to) || (step < 0 && i > to); i += step {
		v, ok := token(fn, s, i)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func addSpanTemplates(b *Builder, opts BasicOptions) {
	for _, sl := range spanSlots {
		b.AddSingle(sl.name+"-Width", func(c *Context) (string, bool) {
			s, ok := sl.at(c)
			return strconv.Itoa(s.Width()), ok
		})
		b.AddSingle(sl.name+"-MultiWord", func(c *Context) (string, bool) {
			s, ok := sl.at(c)
			return "Y", ok && s.Width() > 1
		})
	}
	for _, div := range opts.WidthDivisors {
		if div <= 0 {
			continue
		}
		b.AddSingle("Span1-Width-Div"+strconv.Itoa(div), func(c *Context) (string, bool) {
			s, ok := c.Span1()
			return strconv.Itoa(DiscretizeWidth(s.Width(), div, opts.WidthCardinality)), ok
		})
	}
	b.AddSingle("Span1Span2-PosRel", func(c *Context) (string, bool) {
		s1, ok1 := c.Span1()
		s2, ok2 := c.Span2()
		if !ok1 || !ok2 {
			return "", false
		}
		return SpanPosRel(s1, s2), true
	})
}

// DiscretizeWidth buckets width/divisor into [-cardinality/2, cardinality/2].
func DiscretizeWidth(width, divisor, cardinality int) int {
	bound := cardinality / 2
	return max(-bound, min(bound, width/divisor))
}

// SpanPosRel describes how two spans are placed relative to each other by
// comparing start/start, end/end, start/end and end/start.
func SpanPosRel(a, b nlp.Span) string {
	return posRel(a.Start, b.Start) + posRel(a.End, b.End) +
		posRel(a.Start, b.End) + posRel(a.End, b.Start)
}

func posRel(i, j int) string {
	switch {
	case i+1 == j:
		return "B"
	case j+1 == i:
		return "A"
	case i < j:
		return "L"
	case i > j:
		return "R"
	}
	return "E"
}

func addLabelTemplates(b *Builder) {
	b.AddLabel("1", Func(func(*Context) iter.Seq[string] { return One("1") }))
	b.AddLabel("Frame", Single("Frame", (*Context).Frame))
	b.AddLabel("Role", Single("Role", (*Context).Role))
	b.AddLabel("Stage", Single("Stage", (*Context).Stage))
	b.AddLabel("FrameRole", Single("FrameRole", func(c *Context) (string, bool) {
		f, ok1 := c.Frame()
		r, ok2 := c.Role()
		return f + "/" + r, ok1 && ok2
	}))
	b.AddLabel("Span1-IsConstituent", Func(func(c *Context) iter.Seq[string] {
		// Width-one spans carry no decision.
		s, ok := c.Span1()
		if c.Span1IsConstituent() != True || !ok || s.Width() == 1 {
			return nil
		}
		return One("Span1-IsConstituent")
	}))
	b.AddLabel("Span2-IsConstituent", Func(func(c *Context) iter.Seq[string] {
		s, ok := c.Span2()
		if c.Span2IsConstituent() != True || !ok || s.Width() == 1 {
			return nil
		}
		return One("Span2-IsConstituent")
	}))
	b.AddLabel("Prune", Func(func(c *Context) iter.Seq[string] {
		// Fires for kept (not pruned) items only.
		if c.Prune() != False {
			return nil
		}
		return One("Prune")
	}))
	b.AddLabel("Head1-IsRoot", Func(func(c *Context) iter.Seq[string] {
		p, ok := c.Head1Parent()
		if !ok || p >= 0 {
			return nil
		}
		return One("Head1-IsRoot")
	}))
	b.AddLabel("Head1GovHead2", Func(func(c *Context) iter.Seq[string] {
		p, ok1 := c.Head2Parent()
		h, ok2 := c.Head1()
		if !ok1 || !ok2 || p != h {
			return nil
		}
		return One("Head1GovHead2")
	}))
	b.AddLabel("Head2GovHead1", Func(func(c *Context) iter.Seq[string] {
		p, ok1 := c.Head1Parent()
		h, ok2 := c.Head2()
		if !ok1 || !ok2 || p != h {
			return nil
		}
		return One("Head2GovHead1")
	}))
}

func addPathTemplates(b *Builder, opts BasicOptions) {
	for _, nt := range deppath.NodeTypes {
		for _, et := range deppath.EdgeTypes {
			suffix := "-" + nt.String() + "-" + et.String()

			rootPath := func(c *Context) (*deppath.Path, bool) {
				h, ok := c.Head1()
				if !ok || c.sentence == nil || c.sentence.Deps() == nil {
					return nil, false
				}
				return deppath.ToRoot(c.sentence, c.sentence.Deps(), h, nt, et), true
			}
			headPath := func(c *Context) (*deppath.Path, bool) {
				h1, ok1 := c.Head1()
				h2, ok2 := c.Head2()
				if !ok1 || !ok2 || c.sentence == nil || c.sentence.Deps() == nil {
					return nil, false
				}
				return deppath.New(c.sentence, c.sentence.Deps(), h1, h2, nt, et), true
			}

			b.AddSingle("Head1-RootPath"+suffix, rendered(rootPath))
			b.AddSingle("Head1Head2-Path"+suffix, rendered(headPath))
			for _, k := range opts.NgramLengths {
				name := "Head1-RootPathNgram" + suffix + "-len" + strconv.Itoa(k)
				b.Add(name, ngrams(name, k, rootPath))
				name = "Head1Head2-PathNgram" + suffix + "-len" + strconv.Itoa(k)
				b.Add(name, ngrams(name, k, headPath))
			}
		}
	}
	b.AddSingle("Head1Head2-PathLength", func(c *Context) (string, bool) {
		h1, ok1 := c.Head1()
		h2, ok2 := c.Head2()
		if !ok1 || !ok2 || c.sentence == nil || c.sentence.Deps() == nil {
			return "", false
		}
		p := deppath.New(c.sentence, c.sentence.Deps(), h1, h2, deppath.NodeNone, deppath.EdgeDirection)
		if !p.Connected() {
			return deppath.NoPath, true
		}
		return PathLengthBucket(p.Len()), true
	})
}

func rendered(path func(c *Context) (*deppath.Path, bool)) func(c *Context) (string, bool) {
	return func(c *Context) (string, bool) {
		p, ok := path(c)
		if !ok {
			return "", false
		}
		return p.String(), true
	}
}

func ngrams(name string, k int, path func(c *Context) (*deppath.Path, bool)) Template {
	return Func(func(c *Context) iter.Seq[string] {
		p, ok := path(c)
		if !ok {
			return nil
		}
		return Values(p.NGrams(k, name+ValueSeparator))
	})
}

// PathLengthBucket buckets a path length coarsely above 4.
func PathLengthBucket(n int) string {
	switch {
	case n <= -20:
		return "(-inf,-20]"
	case n <= -10:
		return "(-20,-10]"
	case n <= -5:
		return "(-10,-5]"
	case n <= 4:
		return fmt.Sprintf("[%d]", n)
	case n < 10:
		return "[5,10)"
	case n < 20:
		return "[10,20)"
	}
	return "[20,inf)"
}
