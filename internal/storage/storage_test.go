package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/happyhackingspace/featx/nlp"
)

func TestGetDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.org/page", "example"},
		{"https://foo.example.co.uk/path", "example"},
		{"http://www.google.com", "google"},
		{"example.org", "example"},
		{"http://localhost:8080/path", "localhost"},
	}
	for _, tt := range tests {
		got := GetDomain(tt.url)
		if got != tt.want {
			t.Errorf("GetDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

const foxConll = "1\tThe\tthe\tDT\tDT\t_\t2\tdet\t_\t_\n" +
	"2\tfox\tfox\tNN\tNN\t_\t3\tnsubj\t_\t_\n" +
	"3\tjumps\tjump\tVBZ\tVBZ\t_\t0\troot\t_\t_\n" +
	"\n" +
	"1\tDogs\tdog\tNNS\tNNS\t_\t2\tnsubj\t_\t_\n" +
	"2\tbark\tbark\tVBP\tVBP\t_\t0\troot\t_\t_\n"

const index = `{
  "b.conll": {"url": "http://zeta.example.org/b", "sentences": [
    {"sentence": 0, "frames": [{"target": [2,3], "frame": "Self_motion", "args": []}]}
  ]},
  "a.conll": {"url": "https://www.alpha.com/a", "sentences": [
    {"sentence": 1, "frames": [{"target": [1,2], "frame": "Make_noise",
      "args": [{"role": "Sound_source", "span": [0,1]}, {"role": "NA", "span": [0,1]}]}]},
    {"sentence": 0, "frames": [
      {"target": [2,3], "frame": "Motion_fine", "args": [
        {"role": "Self_mover", "span": [0,2]},
        {"role": "Bad", "span": [1,9]}]},
      {"target": [0,1], "frame": "?", "args": []},
      {"target": [5,6], "frame": "Outside", "args": []}
    ]},
    {"sentence": 7, "frames": []}
  ]},
  "missing.conll": {"url": "http://alpha.com/m", "sentences": []}
}`

const config = `{
  "frames": {"NA_value": "NA", "skip_value": "?", "simplify_map": {"Motion_fine": "Self_motion"}},
  "roles": {"NA_value": "NA", "skip_value": "?", "simplify_map": {}}
}`

func writeCorpus(t *testing.T, withConfig bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{"a.conll": foxConll, "b.conll": foxConll, "index.json": index}
	if withConfig {
		files["config.json"] = config
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIterAnnotations(t *testing.T) {
	s := NewStorage(writeCorpus(t, true))
	anns, err := s.IterAnnotations(DefaultIterOptions())
	if err != nil {
		t.Fatal(err)
	}

	// alpha sorts before example; b.conll sentence 0 duplicates a.conll sentence 0.
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}

	first := anns[0]
	if first.Path != "a.conll" || first.Index != 0 {
		t.Errorf("first = %s#%d, want a.conll#0", first.Path, first.Index)
	}
	if got, want := first.Sentence.Words(), []string{"The", "fox", "jumps"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
	if len(first.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(first.Frames))
	}
	fr := first.Frames[0]
	if fr.Frame != "Self_motion" {
		t.Errorf("Frame = %q, want Self_motion", fr.Frame)
	}
	if want := (nlp.Span{Start: 2, End: 3}); fr.Target != want {
		t.Errorf("Target = %v, want %v", fr.Target, want)
	}
	if want := []ArgAnnotation{{Role: "Self_mover", Span: nlp.Span{Start: 0, End: 2}}}; !reflect.DeepEqual(fr.Args, want) {
		t.Errorf("Args = %v, want %v", fr.Args, want)
	}

	second := anns[1]
	if second.Index != 1 {
		t.Errorf("second.Index = %d, want 1", second.Index)
	}
	if len(second.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(second.Frames))
	}
	if second.Frames[0].Frame != "Make_noise" {
		t.Errorf("Frame = %q, want Make_noise", second.Frames[0].Frame)
	}
	if n := len(second.Frames[0].Args); n != 1 {
		t.Errorf("got %d args, want 1", n)
	}
}

func TestIterAnnotationsKeepEverything(t *testing.T) {
	s := NewStorage(writeCorpus(t, false))
	anns, err := s.IterAnnotations(IterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 3 {
		t.Fatalf("got %d annotations, want 3", len(anns))
	}

	// Without a schema nothing is simplified or skipped.
	frames := anns[0].Frames
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Frame != "Motion_fine" || frames[1].Frame != "?" {
		t.Errorf("frames = %q, %q, want Motion_fine, ?", frames[0].Frame, frames[1].Frame)
	}
	if anns[2].Path != "b.conll" {
		t.Errorf("anns[2].Path = %q, want b.conll", anns[2].Path)
	}
}

func TestIterAnnotationsMissingIndex(t *testing.T) {
	if _, err := NewStorage(t.TempDir()).IterAnnotations(DefaultIterOptions()); err == nil {
		t.Error("expected error for a folder without index.json")
	}
}

func TestSchemaSimplify(t *testing.T) {
	var nilSchema *AnnotationSchema
	s := &AnnotationSchema{SimplifyMap: map[string]string{"a": "b"}}
	tests := []struct {
		schema *AnnotationSchema
		label  string
		want   string
	}{
		{nilSchema, "x", "x"},
		{s, "a", "b"},
		{s, "c", "c"},
	}
	for _, tt := range tests {
		if got := tt.schema.Simplify(tt.label); got != tt.want {
			t.Errorf("Simplify(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
