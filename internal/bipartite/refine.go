package bipartite

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// equalTol is the relative width below which reviewer scores count as equal
// during normalization.
const equalTol = 1e-12

// Refine runs one refinement pass and returns the largest absolute change
// of any product summary or reviewer score.
//
// A pass has two phases separated by a barrier. First every product summary
// is recomputed from the reviewer scores as they were before the pass, then
// every reviewer score is recomputed from the new summaries.
//
// One graphs refine only once; later calls change nothing and return 0.
// OneSum graphs min-max normalize all reviewer scores into [0, 1] after the
// second phase. The returned change is measured before that normalization
// and may overstate the normalized change.
func (g *Graph) Refine() float64 {
	if g.cfg.Variant == VariantOne && g.locked {
		return 0
	}

	w := g.WeightFunc()
	productDeltas := make([]float64, len(g.products))
	g.forEach(len(g.products), func(i int) {
		productDeltas[i] = g.products[i].RefineSummary(w)
	})

	reviewerDeltas := make([]float64, len(g.reviewers))
	g.forEach(len(g.reviewers), func(i int) {
		reviewerDeltas[i] = g.reviewers[i].RefineScore()
	})

	delta := max(maxOf(productDeltas), maxOf(reviewerDeltas))

	switch g.cfg.Variant {
	case VariantOne:
		g.locked = true
	case VariantOneSum:
		g.normalizeScores()
	}
	return delta
}

// normalizeScores rescales every reviewer score with min-max normalization.
// Scores are left untouched when they are all equal up to rounding.
func (g *Graph) normalizeScores() {
	if len(g.reviewers) == 0 {
		return
	}
	lo, hi := g.reviewers[0].AnomalousScore(), g.reviewers[0].AnomalousScore()
	for _, r := range g.reviewers[1:] {
		s := r.AnomalousScore()
		lo = min(lo, s)
		hi = max(hi, s)
	}
	width := hi - lo
	if width <= equalTol*max(1, math.Abs(lo), math.Abs(hi)) {
		return
	}
	for _, r := range g.reviewers {
		r.SetAnomalousScore((r.AnomalousScore() - lo) / width)
	}
}

// forEach calls fn for every index in [0, n). With more than one worker the
// calls run concurrently and forEach returns once all of them finished.
func (g *Graph) forEach(n int, fn func(i int)) {
	if g.cfg.Workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = eg.Wait() // node updates never fail
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
