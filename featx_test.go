package featx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/nlp"
	"github.com/happyhackingspace/featx/template"
)

const foxTemplates = "Head1-Word * Frame + 1"

// The fox jumps: The <- fox <- jumps (root).
func foxSentence() *nlp.Tokens {
	return nlp.NewTokens([]nlp.Token{
		{Word: "The", Lemma: "the", Pos: "DT", Head: 1, DepRel: "det"},
		{Word: "fox", Lemma: "fox", Pos: "NN", Head: 2, DepRel: "nsubj"},
		{Word: "jumps", Lemma: "jump", Pos: "VBZ", Head: nlp.Root, DepRel: "root"},
	}, true)
}

func foxInstance(id string) Instance {
	return Instance{
		ID:       id,
		URL:      "http://example.org/" + id,
		Sentence: foxSentence(),
		Frames: []Frame{{
			Target: nlp.Span{Start: 2, End: 3},
			Name:   "Self_motion",
			Args:   []Arg{{Role: "Self_mover", Span: nlp.Span{Start: 0, End: 2}}},
		}},
	}
}

type observation struct {
	stage                     string
	emitted, notFound, silent int
}

type recorder struct{ seen []observation }

func (r *recorder) ObserveContext(stage string, emitted, notFound, silent int) {
	r.seen = append(r.seen, observation{stage, emitted, notFound, silent})
}

func TestNewErrors(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoTemplates)

	_, err = New(Options{Templates: "Head1-Word * Nope"})
	var pe *template.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "Nope", pe.Factor)
}

func TestFeaturize(t *testing.T) {
	rec := &recorder{}
	f, err := New(Options{Templates: foxTemplates, Prefix: "fid", Observer: rec})
	require.NoError(t, err)
	assert.Len(t, f.Clauses(), 2)
	plain, err := New(Options{Templates: foxTemplates, Prefix: "fid"})
	require.NoError(t, err)

	in := foxInstance("s")
	c := template.NewContext()
	var names [][]string
	for range in.Contexts(c) {
		v := feature.NewVector(0)
		f.Featurize(v, c)
		names = append(names, plain.Names(c))
	}
	assert.Equal(t, [][]string{
		{"Head1-Word=jumps_Frame=Self_motion::fid", "1::fid"},
		{"Head1-Word=fox_Frame=Self_motion::fid", "1::fid"},
	}, names)
	assert.Equal(t, 3, f.Dimension())
	assert.Equal(t, []observation{
		{StageFrameID, 2, 0, 0},
		{StageRoleID, 2, 0, 0},
	}, rec.seen)
}

func TestFeaturizeSilentClause(t *testing.T) {
	rec := &recorder{}
	f, err := New(Options{Templates: foxTemplates, Prefix: "p", Observer: rec})
	require.NoError(t, err)

	c := template.NewContext()
	v := feature.NewVector(0)
	if got := f.Featurize(v, c); got != 1 {
		t.Errorf("Featurize() = %d, want 1", got)
	}
	assert.Equal(t, []string{"1::p"}, f.Names(c))
	assert.Equal(t, []observation{{"", 1, 0, 1}, {"", 1, 0, 1}}, rec.seen)
}

func TestFeaturizeFrozenDropsUnknown(t *testing.T) {
	a := feature.NewAlphabet()
	a.IndexOf("1::p")
	a.Freeze()
	rec := &recorder{}
	f, err := New(Options{Templates: foxTemplates, Prefix: "p", Indexer: a, Observer: rec})
	require.NoError(t, err)

	in := foxInstance("s")
	c := template.NewContext()
	for range in.Contexts(c) {
		v := feature.NewVector(0)
		f.Featurize(v, c)
		assert.Equal(t, []feature.Entry{{Index: 0, Weight: 1}}, v.Entries())
	}
	assert.Equal(t, 1, a.Size())
	assert.Equal(t, 1, rec.seen[0].notFound)
}

func TestFeaturizeHashed(t *testing.T) {
	h, err := feature.NewHashed(16)
	require.NoError(t, err)
	f, err := New(Options{Templates: foxTemplates, Prefix: "p", Indexer: h})
	require.NoError(t, err)
	assert.Equal(t, 16, f.Dimension())

	in := foxInstance("s")
	c := template.NewContext()
	for range in.Contexts(c) {
		v := feature.NewVector(f.Dimension())
		f.Featurize(v, c)
		for _, idx := range v.Indices() {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 16)
		}
	}
}

func TestFeaturizeRefined(t *testing.T) {
	f, err := New(Options{Templates: "1", Prefix: "p"})
	require.NoError(t, err)

	v := feature.NewVector(0)
	refs := feature.Refinements{{Name: "big", Weight: 2}, {Name: "small", Weight: 0.5}}
	assert.Equal(t, 3, f.FeaturizeRefined(v, template.NewContext(), refs))

	a := f.Indexer().(*feature.Alphabet)
	assert.Equal(t, []string{"1::p", "big_1::p", "small_1::p"}, a.Names())
	assert.Equal(t, []feature.Entry{{Index: 0, Weight: 1}, {Index: 1, Weight: 2}, {Index: 2, Weight: 0.5}}, v.Entries())
}

func TestInstanceContexts(t *testing.T) {
	in := foxInstance("s")
	c := template.NewContext()

	var units []Unit
	for u := range in.Contexts(c) {
		units = append(units, u)
		stage, _ := c.Stage()
		assert.Equal(t, u.Stage, stage)
		switch u.Stage {
		case StageFrameID:
			head, _ := c.Head1()
			parent, _ := c.Head1Parent()
			assert.Equal(t, 2, head)
			assert.Equal(t, nlp.Root, parent)
			_, ok := c.Role()
			assert.False(t, ok)
		case StageRoleID:
			span1, _ := c.Span1()
			head1, _ := c.Head1()
			head2, _ := c.Head2()
			parent1, _ := c.Head1Parent()
			role, _ := c.Role()
			assert.Equal(t, nlp.Span{Start: 0, End: 2}, span1)
			assert.Equal(t, 1, head1)
			assert.Equal(t, 2, head2)
			assert.Equal(t, 2, parent1)
			assert.Equal(t, "Self_mover", role)
		}
	}
	require.Len(t, units, 2)
	assert.Equal(t, StageFrameID, units[0].Stage)
	assert.Equal(t, StageRoleID, units[1].Stage)
	assert.Equal(t, "Self_mover", units[1].Role)

	// Early exit.
	n := 0
	for range in.Contexts(c) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestInstanceContextsSkipsBadSpans(t *testing.T) {
	in := foxInstance("s")
	in.Frames[0].Args = append(in.Frames[0].Args, Arg{Role: "Empty", Span: nlp.Span{Start: 1, End: 1}})
	in.Frames = append(in.Frames, Frame{Target: nlp.Span{Start: 1, End: 1}, Name: "Empty"})

	var stages []string
	for u := range in.Contexts(template.NewContext()) {
		stages = append(stages, u.Stage+"/"+u.Frame)
	}
	assert.Equal(t, []string{StageFrameID + "/Self_motion", StageRoleID + "/Self_motion"}, stages)
}

func TestScanAlphabet(t *testing.T) {
	f, err := New(Options{Templates: foxTemplates, Prefix: "fid"})
	require.NoError(t, err)

	size, err := ScanAlphabet([]Instance{foxInstance("a"), foxInstance("b")}, f)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	a := f.Indexer().(*feature.Alphabet)
	assert.Equal(t, feature.Frozen, a.State())
	assert.Equal(t, []string{
		"Head1-Word=jumps_Frame=Self_motion::fid",
		"1::fid",
		"Head1-Word=fox_Frame=Self_motion::fid",
	}, a.Names())

	_, err = ScanAlphabet(nil, f)
	assert.ErrorIs(t, err, ErrAlphabetFrozen)

	h, _ := feature.NewHashed(4)
	hf, err := New(Options{Templates: foxTemplates, Indexer: h})
	require.NoError(t, err)
	_, err = ScanAlphabet(nil, hf)
	assert.ErrorIs(t, err, ErrNotAlphabet)
}

func TestScanThenFeaturizeObservesOnce(t *testing.T) {
	rec := &recorder{}
	f, err := New(Options{Templates: foxTemplates, Prefix: "fid", Observer: rec})
	require.NoError(t, err)

	instances := []Instance{foxInstance("s")}
	_, err = ScanAlphabet(instances, f)
	require.NoError(t, err)
	if len(rec.seen) != 0 {
		t.Fatalf("ScanAlphabet observed %d contexts, want 0", len(rec.seen))
	}

	got, err := FeaturizeAll(context.Background(), instances, f, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []observation{
		{StageFrameID, 2, 0, 0},
		{StageRoleID, 2, 0, 0},
	}, rec.seen)
}

func TestRoleContextGovernor(t *testing.T) {
	f, err := New(Options{Templates: "Head2GovHead1 + Head1GovHead2", Prefix: "p"})
	require.NoError(t, err)

	in := foxInstance("s")
	c := template.NewContext()
	var names [][]string
	for range in.Contexts(c) {
		names = append(names, f.Names(c))
	}
	// The target "jumps" governs the argument head "fox".
	assert.Equal(t, [][]string{nil, {"Head2GovHead1::p"}}, names)
}

func TestFeaturizeAll(t *testing.T) {
	f, err := New(Options{Templates: foxTemplates, Prefix: "fid"})
	require.NoError(t, err)

	var instances []Instance
	for i := range 5 {
		instances = append(instances, foxInstance(fmt.Sprintf("s%d", i)))
	}

	_, err = FeaturizeAll(context.Background(), instances, f, 2)
	assert.ErrorIs(t, err, ErrAlphabetGrowing)

	_, err = ScanAlphabet(instances, f)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 16} {
		got, err := FeaturizeAll(context.Background(), instances, f, workers)
		require.NoError(t, err)
		require.Len(t, got, 10)
		for i, e := range got {
			assert.Equal(t, fmt.Sprintf("s%d", i/2), e.Instance)
			if i%2 == 0 {
				assert.Equal(t, StageFrameID, e.Stage)
				assert.Equal(t, []feature.Entry{{Index: 0, Weight: 1}, {Index: 1, Weight: 1}}, e.Features)
			} else {
				assert.Equal(t, StageRoleID, e.Stage)
				assert.Equal(t, []feature.Entry{{Index: 1, Weight: 1}, {Index: 2, Weight: 1}}, e.Features)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FeaturizeAll(ctx, instances, f, 2)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := FeaturizeAll(context.Background(), nil, f, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

const corpusConll = "1\tThe\tthe\tDT\tDT\t_\t2\tdet\t_\t_\n" +
	"2\tfox\tfox\tNN\tNN\t_\t3\tnsubj\t_\t_\n" +
	"3\tjumps\tjump\tVBZ\tVBZ\t_\t0\troot\t_\t_\n"

const corpusIndex = `{
  "a.conll": {"url": "http://example.org/a", "sentences": [
    {"sentence": 0, "frames": [{"target": [2,3], "frame": "Self_motion",
      "args": [{"role": "Self_mover", "span": [0,2]}]}]}
  ]}
}`

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.conll"), []byte(corpusConll), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(corpusIndex), 0644))

	instances, err := LoadCorpus(dir, CorpusOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)

	in := instances[0]
	assert.Equal(t, "a.conll#0", in.ID)
	assert.Equal(t, "http://example.org/a", in.URL)
	assert.Equal(t, []string{"The", "fox", "jumps"}, in.Sentence.Words())
	want := foxInstance("x").Frames
	assert.Equal(t, want, in.Frames)

	_, err = LoadCorpus(t.TempDir(), CorpusOptions{})
	assert.Error(t, err)
}

func TestDomainFolds(t *testing.T) {
	urls := []string{"http://a.com/1", "http://b.com/1", "https://www.a.com/2", "http://c.org/1"}
	instances := make([]Instance, len(urls))
	for i, u := range urls {
		instances[i] = Instance{ID: fmt.Sprint(i), URL: u}
	}

	folds := DomainFolds(instances, 2)
	assert.Equal(t, [][]int{{0, 2, 3}, {1}}, folds)

	train, test := SelectFold(instances, folds, 1)
	assert.Len(t, train, 3)
	require.Len(t, test, 1)
	assert.Equal(t, "1", test[0].ID)

	train, test = SelectFold(instances, folds, 5)
	assert.Len(t, train, 4)
	assert.Empty(t, test)

	if got := len(DomainFolds(instances, 10)); got != 3 {
		t.Errorf("len(DomainFolds(_, 10)) = %d, want 3", got)
	}
	assert.Nil(t, DomainFolds(nil, 3))
}

func ExampleFeaturizer_Names() {
	f, err := New(Options{Templates: foxTemplates, Prefix: "fid"})
	if err != nil {
		panic(err)
	}
	c := template.NewContext()
	c.SetSentence(nlp.FromWords("The", "fox", "jumps"))
	c.SetFrame("Self_motion")
	if err := c.SetSlot1(nlp.Span{Start: 2, End: 3}, 2); err != nil {
		panic(err)
	}
	fmt.Println(strings.Join(f.Names(c), "\n"))
	// Output:
	// Head1-Word=jumps_Frame=Self_motion::fid
	// 1::fid
}
