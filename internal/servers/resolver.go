package servers

import (
	"math"
	"strings"

	"github.com/xrash/smetrics"
)

const (
	// SimilarityThreshold is the lowest accepted fuzzy score.
	SimilarityThreshold = 0.8
	// MinQueryLengthRatio gates fuzzy scoring: a query must be at least this
	// fraction of the name length, rounded up.
	MinQueryLengthRatio = 0.5
)

// SimilarityFunc scores two lowercased strings in [0, 1].
type SimilarityFunc func(a, b string) float64

// JaroWinkler uses the standard boost threshold 0.7 and prefix length 4.
func JaroWinkler(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

type Resolver struct {
	similarity SimilarityFunc
}

type ResolverOption func(*Resolver)

func WithSimilarity(fn SimilarityFunc) ResolverOption {
	return func(r *Resolver) { r.similarity = fn }
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{similarity: JaroWinkler}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the best record for query, or nil.
//
// A case-insensitive (ASCII) exact name match wins outright. Otherwise every
// record whose name is short enough for the query is scored on lowercased
// strings; scores below SimilarityThreshold are dropped and the highest
// remaining score wins. On equal top scores the earliest record in servers
// is returned.
func (r *Resolver) Resolve(query string, servers []Record) *Match {
	for i := range servers {
		if equalFoldASCII(servers[i].Name, query) {
			return &Match{Record: servers[i], Score: 1, Exact: true}
		}
	}

	lowerQuery := strings.ToLower(query)
	var best *Match
	for i := range servers {
		name := servers[i].Name
		if len(query) < minQueryLength(name) {
			continue
		}
		score := r.similarity(strings.ToLower(name), lowerQuery)
		if score < SimilarityThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Record: servers[i], Score: score}
		}
	}
	return best
}

// Resolve uses the default Jaro-Winkler resolver.
func Resolve(query string, servers []Record) *Match {
	return NewResolver().Resolve(query, servers)
}

func minQueryLength(name string) int {
	return int(math.Ceil(float64(len(name)) * MinQueryLengthRatio))
}

// equalFoldASCII folds only A-Z; other bytes must match exactly.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
