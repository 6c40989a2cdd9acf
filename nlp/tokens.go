package nlp

import (
	"github.com/happyhackingspace/featx/internal/textutil"
)

// Token holds the per-position annotations of a Tokens sentence.
type Token struct {
	Word   string
	Lemma  string
	Pos    string
	Head   int // Root for root attachment
	DepRel string
}

// Tokens is an in-memory Sentence backed by a token slice.
type Tokens struct {
	toks   []Token
	shapes []string
	deps   bool
}

// NewTokens builds a sentence. Shapes are computed eagerly from words.
// If withDeps is false, Deps returns nil.
func NewTokens(toks []Token, withDeps bool) *Tokens {
	shapes := make([]string, len(toks))
	for i, t := range toks {
		shapes[i] = textutil.Shape(t.Word)
	}
	return &Tokens{toks: toks, shapes: shapes, deps: withDeps}
}

// FromText tokenizes raw text into words and punctuation and builds a
// sentence with FromWords.
func FromText(text string) *Tokens {
	return FromWords(textutil.Tokenize(text)...)
}

// FromWords builds a sentence with only surface words; lemmas are the
// lowercased words and no dependency parse is attached.
func FromWords(words ...string) *Tokens {
	toks := make([]Token, len(words))
	for i, w := range words {
		toks[i] = Token{Word: w, Lemma: textutil.Normalize(w), Head: Root}
	}
	return NewTokens(toks, false)
}

func (t *Tokens) Len() int           { return len(t.toks) }
func (t *Tokens) Word(i int) string  { return t.toks[i].Word }
func (t *Tokens) Lemma(i int) string { return t.toks[i].Lemma }
func (t *Tokens) Pos(i int) string   { return t.toks[i].Pos }
func (t *Tokens) Shape(i int) string { return t.shapes[i] }

// Words returns the surface forms.
func (t *Tokens) Words() []string {
	words := make([]string, len(t.toks))
	for i, tok := range t.toks {
		words[i] = tok.Word
	}
	return words
}

// Deps returns the basic dependency parse, or nil.
func (t *Tokens) Deps() DepParse {
	if !t.deps {
		return nil
	}
	return tokenDeps(t.toks)
}

type tokenDeps []Token

func (d tokenDeps) Head(i int) int {
	if i < 0 || i >= len(d) {
		return Root
	}
	return d[i].Head
}

func (d tokenDeps) Label(i int) string {
	if i < 0 || i >= len(d) {
		return ""
	}
	return d[i].DepRel
}

// HeadOf returns the syntactic head of span: the first token in the span
// whose parent lies outside it. Without a parse the last token is used.
func HeadOf(s Sentence, span Span) int {
	if span.Width() <= 0 {
		return span.Start
	}
	deps := s.Deps()
	if deps == nil {
		return span.End - 1
	}
	for i := span.Start; i < span.End; i++ {
		if !span.Contains(deps.Head(i)) {
			return i
		}
	}
	return span.End - 1
}
