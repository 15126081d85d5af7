package bipartite

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/stat"
)

// Credibility weighs how trustworthy a product's aggregate rating is. Scores
// are non-negative.
type Credibility interface {
	Score(p *Product) float64
}

// Uniform assigns credibility 1 to every product.
type Uniform struct{}

// Score implements Credibility.
func (Uniform) Score(*Product) float64 { return 1 }

// credibilityCacheSize bounds the Weighted memo. Evicted entries are simply
// recomputed.
const credibilityCacheSize = 1 << 16

// Weighted derives credibility from the spread of a product's ratings:
//
//	cred(p) = 0.5                 if N = 1
//	cred(p) = ln(N) / (var + 1)   otherwise
//
// where N is the number of reviewers of p and var is the unbiased sample
// variance of their ratings. A product without ratings has credibility 0.
//
// Results are memoized per product. The memo is dropped whenever the graph
// gains a node or review, and can be cleared explicitly with Reset.
type Weighted struct {
	graph *Graph
	cache *lru.Cache[*Product, float64]

	mu      sync.Mutex
	version uint64
}

// NewWeighted creates a Weighted credibility bound to g.
func NewWeighted(g *Graph) *Weighted {
	// lru.New only fails for non-positive sizes.
	cache, err := lru.New[*Product, float64](credibilityCacheSize)
	if err != nil {
		panic(err)
	}
	return &Weighted{graph: g, cache: cache, version: g.version}
}

// Score implements Credibility.
func (w *Weighted) Score(p *Product) float64 {
	w.sync()
	if c, ok := w.cache.Get(p); ok {
		return c
	}
	c := w.compute(p)
	w.cache.Add(p, c)
	return c
}

// Reset drops every memoized credibility.
func (w *Weighted) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache.Purge()
	w.version = w.graph.version
}

// sync purges the memo if the graph changed since it was filled.
func (w *Weighted) sync() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.version != w.graph.version {
		w.cache.Purge()
		w.version = w.graph.version
	}
}

func (w *Weighted) compute(p *Product) float64 {
	ratings := p.ratings()
	n := len(ratings)
	switch n {
	case 0:
		return 0
	case 1:
		return 0.5
	}
	variance := stat.Variance(ratings, nil)
	return math.Log(float64(n)) / (variance + 1)
}

var (
	_ Credibility = Uniform{}
	_ Credibility = (*Weighted)(nil)
)
