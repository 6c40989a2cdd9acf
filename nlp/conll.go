package nlp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CoNLL-X column layout.
const (
	conllFieldSeparator = "\t"
	conllNumFields      = 10
)

// ErrCoNLL marks malformed CoNLL input.
var ErrCoNLL = errors.New("nlp: malformed conll")

// ReadCoNLL reads CoNLL-X sentences separated by blank lines. HEAD 0 is the
// artificial root. Lines starting with '#' are comments.
func ReadCoNLL(r io.Reader) ([]*Tokens, error) {
	var (
		sents   []*Tokens
		current []Token
		lineNo  int
	)
	flush := func() {
		if len(current) > 0 {
			sents = append(sents, NewTokens(current, true))
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		tok, err := parseRow(strings.Split(line, conllFieldSeparator), len(current))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		current = append(current, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return sents, nil
}

// ReadCoNLLFile reads all sentences from a CoNLL-X file.
func ReadCoNLLFile(path string) ([]*Tokens, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCoNLL(f)
}

func parseRow(record []string, position int) (Token, error) {
	var tok Token
	if len(record) < conllNumFields-2 {
		return tok, fmt.Errorf("%w: expected %d fields, got %d", ErrCoNLL, conllNumFields, len(record))
	}
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return tok, fmt.Errorf("%w: ID field (%s): %v", ErrCoNLL, record[0], err)
	}
	if id != position+1 {
		return tok, fmt.Errorf("%w: ID %d out of order, want %d", ErrCoNLL, id, position+1)
	}

	tok.Word = parseField(record[1])
	if tok.Word == "" {
		return tok, fmt.Errorf("%w: empty FORM field", ErrCoNLL)
	}
	tok.Lemma = parseField(record[2])
	if tok.Lemma == "" {
		tok.Lemma = strings.ToLower(tok.Word)
	}
	tok.Pos = parseField(record[4])
	if tok.Pos == "" {
		tok.Pos = parseField(record[3])
	}

	head, err := strconv.Atoi(record[6])
	if err != nil {
		return tok, fmt.Errorf("%w: HEAD field (%s): %v", ErrCoNLL, record[6], err)
	}
	// CoNLL heads are 1-based with 0 for root; positions here are 0-based.
	tok.Head = head - 1
	if head == 0 {
		tok.Head = Root
	}
	tok.DepRel = parseField(record[7])
	return tok, nil
}

func parseField(value string) string {
	if value == "_" {
		return ""
	}
	return value
}
