package featx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/template"
)

// Scan errors.
var (
	ErrNotAlphabet     = errors.New("featx: indexer is not an alphabet")
	ErrAlphabetFrozen  = errors.New("featx: alphabet is already frozen")
	ErrAlphabetGrowing = errors.New("featx: alphabet is still growing")
)

// Extraction is the feature vector of one unit of an Instance.
type Extraction struct {
	Instance string `json:"instance"`
	Unit
	Features []feature.Entry `json:"features"`
}

// ScanAlphabet runs every unit of instances through f to grow its
// alphabet, then freezes it and returns the final size. It is a single
// writer pass and must not run concurrently with other users of f. The
// Observer of f is not called.
func ScanAlphabet(instances []Instance, f *Featurizer) (int, error) {
	a, ok := f.Indexer().(*feature.Alphabet)
	if !ok {
		return 0, ErrNotAlphabet
	}
	if a.State() == feature.Frozen {
		return 0, ErrAlphabetFrozen
	}
	scan := *f
	scan.observer = nil
	c := template.NewContext()
	v := feature.NewVector(0)
	units := 0
	for i := range instances {
		for range instances[i].Contexts(c) {
			v.Reset()
			scan.FeaturizeRefined(v, c, f.refinements)
			units++
		}
	}
	a.Freeze()
	slog.Info("Alphabet built", "instances", len(instances), "units", units, "size", a.Size())
	return a.Size(), nil
}

// FeaturizeAll extracts every unit of instances with workers goroutines,
// each owning its own Context. Results keep input order. A Growing
// alphabet is rejected: run ScanAlphabet first.
func FeaturizeAll(ctx context.Context, instances []Instance, f *Featurizer, workers int) ([]Extraction, error) {
	if a, ok := f.Indexer().(*feature.Alphabet); ok && a.State() == feature.Growing {
		return nil, ErrAlphabetGrowing
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("featx: %w", err)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, max(len(instances), 1))

	results := make([][]Extraction, len(instances))
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range instances {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			c := template.NewContext()
			for i := range jobs {
				results[i] = f.extract(&instances[i], c)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("featx: %w", err)
	}

	var out []Extraction
	for _, r := range results {
		out = append(out, r...)
	}
	slog.Debug("Featurized", "instances", len(instances), "units", len(out), "workers", workers)
	return out, nil
}

func (f *Featurizer) extract(in *Instance, c *template.Context) []Extraction {
	var out []Extraction
	for u := range in.Contexts(c) {
		v := feature.NewVector(f.Dimension())
		f.FeaturizeRefined(v, c, f.refinements)
		out = append(out, Extraction{Instance: in.ID, Unit: u, Features: v.Entries()})
	}
	return out
}
