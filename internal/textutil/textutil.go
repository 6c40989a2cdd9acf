// Package textutil provides text normalisation helpers for feature values.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Boundary tokens rendered for positions before the first and after the
// last token of a sentence.
const (
	SentenceStart = "<S>"
	SentenceEnd   = "</S>"
)

var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\s\p{L}\p{N}_]`)

// Tokenize splits raw text into word and punctuation tokens.
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize lowercases text and normalizes whitespace.
func Normalize(text string) string {
	return NormalizeWhitespaces(strings.ToLower(text))
}

// Shape maps a word to its orthographic shape: upper-case letters become
// X, lower-case x, digits d, and runs of the same class collapse to two.
// Other runes are kept. "McDonald's" -> "XxXxx'x".
func Shape(word string) string {
	var buf strings.Builder
	var prev rune
	run := 0
	for _, r := range word {
		c := shapeClass(r)
		if c == prev {
			run++
		} else {
			prev = c
			run = 1
		}
		if run <= 2 {
			buf.WriteRune(c)
		}
	}
	return buf.String()
}

func shapeClass(r rune) rune {
	switch {
	case unicode.IsUpper(r):
		return 'X'
	case unicode.IsLetter(r):
		return 'x'
	case unicode.IsDigit(r):
		return 'd'
	default:
		return r
	}
}

// Prefix returns at most n leading runes of s.
func Prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// NumberPattern replaces digits with X and letters with C if the digit ratio >= threshold.
// Returns empty string otherwise.
func NumberPattern(text string, ratio float64) string {
	if text == "" {
		return ""
	}

	total := utf8.RuneCountInString(text)
	digitCount := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digitCount++
		}
	}

	if float64(digitCount)/float64(total) < ratio {
		return ""
	}
	var buf strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			buf.WriteRune('X')
		case unicode.IsLetter(r):
			buf.WriteRune('C')
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
