// Package storage provides access to an annotated frame-semantic corpus:
// CoNLL-X files listed in an index.json with frame and role annotations.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/happyhackingspace/featx/nlp"
)

// AnnotationSchema holds the label conventions for frames or roles.
type AnnotationSchema struct {
	NAValue     string
	SkipValue   string
	SimplifyMap map[string]string // fine label -> coarse label
}

// Simplify maps a label through SimplifyMap.
func (s *AnnotationSchema) Simplify(label string) string {
	if s == nil {
		return label
	}
	if coarse, ok := s.SimplifyMap[label]; ok {
		return coarse
	}
	return label
}

// SentenceAnnotation is one annotated sentence of the corpus.
type SentenceAnnotation struct {
	Path     string // CoNLL file, relative to the corpus folder
	URL      string // source document
	Index    int    // sentence index within the file
	Sentence *nlp.Tokens
	Frames   []FrameAnnotation
}

// FrameAnnotation is one frame evoked in a sentence.
type FrameAnnotation struct {
	Target nlp.Span
	Frame  string
	Args   []ArgAnnotation
}

// ArgAnnotation is one role filler of a frame.
type ArgAnnotation struct {
	Role string
	Span nlp.Span
}

// span is a [start, end) pair serialized as a two-element array.
type span [2]int

func (s span) toSpan() (nlp.Span, error) {
	return nlp.NewSpan(s[0], s[1])
}

func (s *span) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("span must have 2 elements, got %d", len(pair))
	}
	s[0], s[1] = pair[0], pair[1]
	return nil
}
