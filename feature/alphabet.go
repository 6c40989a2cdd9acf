package feature

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Alphabet errors.
var (
	ErrIndexOutOfRange = errors.New("feature: index out of range")
	ErrDuplicateName   = errors.New("feature: duplicate name in alphabet")
	ErrInvalidName     = errors.New("feature: name contains a newline")
)

// State is the lifecycle state of an Alphabet.
type State int

const (
	Growing State = iota
	Frozen
)

func (s State) String() string {
	if s == Frozen {
		return "frozen"
	}
	return "growing"
}

// DefaultLogEvery is the growth logging interval of a new Alphabet.
const DefaultLogEvery = 100000

// Alphabet is a bijection between feature names and 0..Size()-1.
//
// While Growing, IndexOf assigns Size() to an unseen name. Once Frozen,
// unseen names return NotFound and the alphabet never changes again. A
// Growing alphabet must have a single writer; a Frozen one is safe for
// concurrent readers.
type Alphabet struct {
	toID  map[string]int
	toStr []string
	state State

	// LogEvery logs growth each time Size reaches a multiple of it; zero
	// disables logging.
	LogEvery int
}

// NewAlphabet creates an empty Growing alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{
		toID:     make(map[string]int),
		LogEvery: DefaultLogEvery,
	}
}

// IndexOf returns the index of name, adding it if the alphabet is Growing.
func (a *Alphabet) IndexOf(name string) int {
	if id, ok := a.toID[name]; ok {
		return id
	}
	if a.state == Frozen {
		return NotFound
	}
	id := len(a.toStr)
	a.toID[name] = id
	a.toStr = append(a.toStr, name)
	if a.LogEvery > 0 && len(a.toStr)%a.LogEvery == 0 {
		slog.Info("Alphabet growing", "size", len(a.toStr))
	}
	return id
}

// Lookup returns the index of name without ever growing.
func (a *Alphabet) Lookup(name string) (int, bool) {
	id, ok := a.toID[name]
	return id, ok
}

// Name returns the name at index i.
func (a *Alphabet) Name(i int) (string, error) {
	if i < 0 || i >= len(a.toStr) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(a.toStr))
	}
	return a.toStr[i], nil
}

// Names returns the names in index order. The slice must not be modified.
func (a *Alphabet) Names() []string {
	return a.toStr
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.toStr)
}

// Dimension implements Indexer.
func (a *Alphabet) Dimension() int {
	return len(a.toStr)
}

// Freeze stops growth. Calling it again has no effect.
func (a *Alphabet) Freeze() {
	if a.state == Frozen {
		return
	}
	a.state = Frozen
	slog.Debug("Alphabet frozen", "size", len(a.toStr))
}

// State returns the current lifecycle state.
func (a *Alphabet) State() State {
	return a.state
}

// WriteTo writes one name per line in index order.
func (a *Alphabet) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for i, name := range a.toStr {
		if strings.ContainsAny(name, "\r\n") {
			return n, fmt.Errorf("%w: index %d", ErrInvalidName, i)
		}
		m, err := bw.WriteString(name)
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// ReadAlphabet reads a one-name-per-line alphabet. The result is Frozen.
func ReadAlphabet(r io.Reader) (*Alphabet, error) {
	a := NewAlphabet()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		name := sc.Text()
		if _, dup := a.toID[name]; dup {
			return nil, fmt.Errorf("%w: %q at line %d", ErrDuplicateName, name, line+1)
		}
		a.toID[name] = line
		a.toStr = append(a.toStr, name)
		line++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read alphabet: %w", err)
	}
	a.state = Frozen
	return a, nil
}

// Save writes the alphabet to path atomically: a temporary file in the
// same directory is renamed over path only after a complete write.
func (a *Alphabet) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := a.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write alphabet: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close alphabet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename alphabet: %w", err)
	}
	slog.Debug("Alphabet saved", "path", path, "size", len(a.toStr))
	return nil
}

// LoadAlphabet reads a saved alphabet. The result is Frozen.
func LoadAlphabet(path string) (*Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alphabet: %w", err)
	}
	defer func() { _ = f.Close() }()
	a, err := ReadAlphabet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Alphabet loaded", "path", path, "size", a.Size())
	return a, nil
}
