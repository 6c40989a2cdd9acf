package textutil

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"user_name", []string{"user_name"}},
		{"", nil},
		{"  spaces  ", []string{"spaces"}},
		{"café résumé", []string{"café", "résumé"}},
		{"The fox jumps.", []string{"The", "fox", "jumps", "."}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"fox", "xx"},
		{"Fox", "Xxx"},
		{"McDonald's", "XxXxx'x"},
		{"1999", "dd"},
		{"A-12", "X-dd"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Shape(tt.word); got != tt.want {
			t.Errorf("Shape(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix("jumping", 4); got != "jump" {
		t.Errorf("Prefix = %q, want jump", got)
	}
	if got := Prefix("fox", 4); got != "fox" {
		t.Errorf("Prefix = %q, want fox", got)
	}
	if got := Prefix("éééé", 2); got != "éé" {
		t.Errorf("Prefix = %q, want éé", got)
	}
}

func TestNumberPattern(t *testing.T) {
	tests := []struct {
		text  string
		ratio float64
		want  string
	}{
		{"12ab", 0.3, "XXCC"},
		{"abcdef1", 0.3, ""},
		{"", 0.3, ""},
		{"10-20", 0.5, "XX-XX"},
	}
	for _, tt := range tests {
		if got := NumberPattern(tt.text, tt.ratio); got != tt.want {
			t.Errorf("NumberPattern(%q, %v) = %q, want %q", tt.text, tt.ratio, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("Hello\n  World"); got != "hello world" {
		t.Errorf("Normalize = %q", got)
	}
}
