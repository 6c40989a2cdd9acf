package featx

import (
	"fmt"
	"slices"

	"github.com/happyhackingspace/featx/internal/storage"
)

// CorpusOptions control how an annotated corpus folder is read.
type CorpusOptions struct {
	KeepDuplicates bool // keep sentences whose words were already seen
	KeepSkipped    bool // keep frames and roles with the skip value
	NoSimplify     bool // keep fine-grained frame and role names
	Verbose        bool
}

// LoadCorpus reads the annotated corpus in dir. Instances are ordered by
// source domain, file, then sentence index.
func LoadCorpus(dir string, opts CorpusOptions) ([]Instance, error) {
	store := storage.NewStorage(dir)
	anns, err := store.IterAnnotations(storage.IterOptions{
		DropDuplicates: !opts.KeepDuplicates,
		DropSkipped:    !opts.KeepSkipped,
		SimplifyFrames: !opts.NoSimplify,
		SimplifyRoles:  !opts.NoSimplify,
		Verbose:        opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("featx: %w", err)
	}
	if len(anns) == 0 {
		return nil, fmt.Errorf("featx: no annotations found in %s", dir)
	}

	instances := make([]Instance, len(anns))
	for i, ann := range anns {
		in := Instance{
			ID:       fmt.Sprintf("%s#%d", ann.Path, ann.Index),
			URL:      ann.URL,
			Sentence: ann.Sentence,
			Frames:   make([]Frame, len(ann.Frames)),
		}
		for j, fa := range ann.Frames {
			fr := Frame{Target: fa.Target, Name: fa.Frame}
			for _, aa := range fa.Args {
				fr.Args = append(fr.Args, Arg{Role: aa.Role, Span: aa.Span})
			}
			in.Frames[j] = fr
		}
		instances[i] = in
	}
	return instances, nil
}

// DomainFolds splits instances into at most n folds so that every source
// domain falls in exactly one fold. Each fold lists instance positions.
func DomainFolds(instances []Instance, n int) [][]int {
	return groupKFold(domainGroups(instances), n)
}

// SelectFold partitions instances into those outside and inside fold k.
func SelectFold(instances []Instance, folds [][]int, k int) (train, test []Instance) {
	if k < 0 || k >= len(folds) {
		return instances, nil
	}
	inFold := makeTestSet(len(instances), folds[k])
	for i, in := range instances {
		if inFold[i] {
			test = append(test, in)
		} else {
			train = append(train, in)
		}
	}
	return train, test
}

func groupKFold(groups []int, nFolds int) [][]int {
	var unique []int
	for _, g := range groups {
		if !slices.Contains(unique, g) {
			unique = append(unique, g)
		}
	}
	slices.Sort(unique)

	if nFolds > len(unique) {
		nFolds = len(unique)
	}
	if nFolds <= 0 {
		return nil
	}

	groupToFold := make(map[int]int, len(unique))
	for i, g := range unique {
		groupToFold[g] = i % nFolds
	}

	folds := make([][]int, nFolds)
	for i, g := range groups {
		fold := groupToFold[g]
		folds[fold] = append(folds[fold], i)
	}
	return folds
}

func domainGroups(instances []Instance) []int {
	groups := make([]int, len(instances))
	domainMap := make(map[string]int)
	for i, in := range instances {
		domain := storage.GetDomain(in.URL)
		if _, ok := domainMap[domain]; !ok {
			domainMap[domain] = len(domainMap)
		}
		groups[i] = domainMap[domain]
	}
	return groups
}

func makeTestSet(n int, testIdx []int) []bool {
	set := make([]bool, n)
	for _, i := range testIdx {
		set[i] = true
	}
	return set
}
