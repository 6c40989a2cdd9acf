package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConll = "1\tThe\tthe\tDT\tDT\t_\t2\tdet\t_\t_\n" +
	"2\tfox\tfox\tNN\tNN\t_\t3\tnsubj\t_\t_\n" +
	"3\tjumps\tjump\tVBZ\tVBZ\t_\t0\troot\t_\t_\n"

const testIndex = `{
  "a.conll": {"url": "http://example.org/a", "sentences": [
    {"sentence": 0, "frames": [{"target": [2,3], "frame": "Self_motion",
      "args": [{"role": "Self_mover", "span": [0,2]}]}]}
  ]}
}`

func writeTestCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.conll"), []byte(testConll), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(testIndex), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New("test")
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(append([]string{"-s"}, args...))
	err := c.Run()
	return out.String(), err
}

func TestTemplatesCommand(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "Head1-Word\n")
	assert.Contains(t, out, "Frame\t(label)\n")

	out, err = run(t, "templates", "--labels")
	require.NoError(t, err)
	assert.NotContains(t, out, "Head1-Word\n")
	assert.Contains(t, out, "Role\t(label)\n")
}

func TestTemplatesCheck(t *testing.T) {
	out, err := run(t, "templates", "--check", "-t", "Head1-Word * Frame + 1")
	require.NoError(t, err)
	assert.Equal(t, "Head1-Word * Frame\t2\n1\t1\n", out)

	// The default configuration must parse.
	_, err = run(t, "templates", "--check")
	require.NoError(t, err)

	_, err = run(t, "templates", "--check", "-t", "Head1-Word * Nope")
	assert.Error(t, err)
}

func TestTemplatesText(t *testing.T) {
	out, err := run(t, "templates", "--text", "The fox  jumps.", "-t", "Head1-Lemma + Frame", "--prefix", "p")
	require.NoError(t, err)
	assert.Equal(t,
		"The\tHead1-Lemma=the::p\nfox\tHead1-Lemma=fox::p\njumps\tHead1-Lemma=jumps::p\n.\tHead1-Lemma=.::p\n",
		out)
}

func TestAlphabetAndExtract(t *testing.T) {
	corpus := writeTestCorpus(t)
	work := t.TempDir()
	alphabet := filepath.Join(work, "alphabet.txt")
	promFile := filepath.Join(work, "featx.prom")

	_, err := run(t, "alphabet", corpus, alphabet,
		"-t", "Head1-Word * Frame + 1", "--prefix", "fid", "--metrics-file", promFile)
	require.NoError(t, err)

	data, err := os.ReadFile(alphabet)
	require.NoError(t, err)
	assert.Equal(t,
		"Head1-Word=jumps_Frame=Self_motion::fid\n1::fid\nHead1-Word=fox_Frame=Self_motion::fid\n",
		string(data))

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "featx_alphabet_size 3")

	out, err := run(t, "extract", corpus, "--alphabet", alphabet,
		"-t", "Head1-Word * Frame + 1", "--prefix", "fid", "-w", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Instance string       `json:"instance"`
		Stage    string       `json:"stage"`
		Frame    string       `json:"frame"`
		Features [][2]float64 `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a.conll#0", first.Instance)
	assert.Equal(t, "FrameId", first.Stage)
	assert.Equal(t, "Self_motion", first.Frame)
	assert.Equal(t, [][2]float64{{0, 1}, {1, 1}}, first.Features)
}

func TestExtractNames(t *testing.T) {
	corpus := writeTestCorpus(t)
	out, err := run(t, "extract", corpus, "--names", "-t", "Head1-Word * Role", "--prefix", "p")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var second struct {
		Role  string   `json:"role"`
		Names []string `json:"names"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "Self_mover", second.Role)
	assert.Equal(t, []string{"Head1-Word=fox_Role=Self_mover::p"}, second.Names)
}

func TestExtractMetricsCountedOnce(t *testing.T) {
	corpus := writeTestCorpus(t)
	promFile := filepath.Join(t.TempDir(), "featx.prom")

	// Without --alphabet the corpus is scanned before extraction.
	_, err := run(t, "extract", corpus, "-t", "Head1-Word * Frame + 1", "--metrics-file", promFile)
	require.NoError(t, err)

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	text := string(prom)
	for _, want := range []string{
		`featx_contexts_total{stage="FrameId"} 1`,
		`featx_contexts_total{stage="RoleId"} 1`,
		"featx_features_total 4",
		"featx_alphabet_size 3",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q:\n%s", want, text)
		}
	}
}

func TestExtractNamesMetrics(t *testing.T) {
	corpus := writeTestCorpus(t)
	promFile := filepath.Join(t.TempDir(), "featx.prom")

	_, err := run(t, "extract", corpus, "--names", "-t", "Head1-Word * Role", "--metrics-file", promFile)
	require.NoError(t, err)

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	text := string(prom)
	for _, want := range []string{
		`featx_contexts_total{stage="RoleId"} 1`,
		"featx_features_total 1",
		"featx_silent_clauses_total 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q:\n%s", want, text)
		}
	}
}

func TestExtractHashed(t *testing.T) {
	corpus := writeTestCorpus(t)
	t.Setenv("FEATX_INDEXER", "hashed")
	t.Setenv("FEATX_BUCKETS", "8")
	out, err := run(t, "extract", corpus, "-t", "Head1-Word * Frame + 1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestExtractErrors(t *testing.T) {
	_, err := run(t, "extract", t.TempDir())
	assert.Error(t, err)

	_, err = run(t, "extract", writeTestCorpus(t), "--alphabet", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
