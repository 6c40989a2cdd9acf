// Package feature maps rendered feature names to integer indices and
// accumulates weighted indices into sparse vectors.
//
// Two indexers are provided. An Alphabet assigns dense indices while
// Growing and is then frozen for decoding. Hashed maps names into a fixed
// number of buckets and needs no training pass.
package feature

// NotFound is returned by IndexOf for names a frozen indexer does not know.
const NotFound = -1

// Indexer maps feature names to indices in [0, Dimension()). The same
// name always maps to the same index within one indexer lifetime.
type Indexer interface {
	IndexOf(name string) int
	Dimension() int
}
