package feature

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrBucketCount is returned by NewHashed for a non-positive bucket count.
var ErrBucketCount = errors.New("feature: bucket count must be positive")

// Hashed maps names into a fixed number of buckets. It holds no state
// besides the bucket count, so it behaves the same at train and decode
// time and is safe for concurrent use. Colliding names share a bucket.
type Hashed struct {
	buckets int
}

// NewHashed returns a hashed indexer with n buckets.
func NewHashed(n int) (*Hashed, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBucketCount, n)
	}
	return &Hashed{buckets: n}, nil
}

// IndexOf returns the bucket of name, always in [0, Dimension()).
func (h *Hashed) IndexOf(name string) int {
	return Bucket(int64(xxhash.Sum64String(name)), h.buckets)
}

// Dimension returns the bucket count.
func (h *Hashed) Dimension() int {
	return h.buckets
}

// Bucket reduces a signed hash into [0, n). Negative hashes are replaced
// by their bitwise complement, which is never negative.
func Bucket(hash int64, n int) int {
	if hash < 0 {
		hash = ^hash
	}
	return int(hash % int64(n))
}
