package bipartite

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/papapumpkin/ria/internal/value"
)

// Reviewer is a node that issues ratings. Its anomalous score estimates how
// atypical its ratings are.
type Reviewer struct {
	graph *Graph
	name  string

	score    float64
	hasScore bool
}

// ReviewerOption customizes a reviewer created with NewReviewer.
type ReviewerOption func(*Reviewer)

// WithAnomalousScore sets an explicit initial anomalous score.
func WithAnomalousScore(v float64) ReviewerOption {
	return func(r *Reviewer) {
		r.score = v
		r.hasScore = true
	}
}

// Name returns the reviewer's name.
func (r *Reviewer) Name() string { return r.name }

// String implements fmt.Stringer.
func (r *Reviewer) String() string { return r.name }

// AnomalousScore returns the reviewer's score. Until a score is written it
// is 1/|reviewers|, evaluated against the graph's current reviewer count.
func (r *Reviewer) AnomalousScore() float64 {
	if r.hasScore {
		return r.score
	}
	return 1 / float64(len(r.graph.reviewers))
}

// HasAnomalousScore reports whether a score has been written explicitly.
func (r *Reviewer) HasAnomalousScore() bool { return r.hasScore }

// SetAnomalousScore writes the reviewer's score.
func (r *Reviewer) SetAnomalousScore(v float64) {
	r.score = v
	r.hasScore = true
}

// RefineScore recomputes the anomalous score from the current product
// summaries and returns the absolute change.
//
// RIA, MRA and One use the credibility-weighted mean of the distances
// between each rating and the rated product's summary. OneSum uses the
// unnormalized sum over rated products of distance times credibility minus
// 0.5, so a reviewer with no reviews scores 0.
func (r *Reviewer) RefineScore() float64 {
	if r.graph.cfg.Variant == VariantOneSum {
		return r.refineSum()
	}
	return r.refineMean()
}

func (r *Reviewer) refineMean() float64 {
	diffs, weights := r.differences()
	if len(diffs) == 0 {
		return 0
	}

	old := r.AnomalousScore()
	var next float64
	if floats.Sum(weights) == 0 {
		next = stat.Mean(diffs, nil)
	} else {
		next = stat.Mean(diffs, weights)
	}
	r.SetAnomalousScore(next)
	return math.Abs(next - old)
}

func (r *Reviewer) refineSum() float64 {
	diffs, weights := r.differences()

	old := r.AnomalousScore()
	next := floats.Dot(diffs, weights) - 0.5*float64(len(diffs))
	r.SetAnomalousScore(next)
	return math.Abs(next - old)
}

// differences returns, per rated product, the distance between the rating
// and the product summary together with the product's credibility.
func (r *Reviewer) differences() (diffs, weights []float64) {
	g := r.graph
	products := g.productsOf[r]
	diffs = make([]float64, len(products))
	weights = make([]float64, len(products))
	for i, p := range products {
		diffs[i] = p.Summary().Difference(g.reviews[edgeKey{r, p}].Rating)
		weights[i] = g.credibility.Score(p)
	}
	return diffs, weights
}

// Product is a node that receives ratings. Its summary estimates the
// product's true rating.
type Product struct {
	graph *Graph
	name  string

	summary value.Summary // nil until written
}

// Name returns the product's name.
func (p *Product) Name() string { return p.name }

// String implements fmt.Stringer.
func (p *Product) String() string { return p.name }

// Summary returns the product's summary. Until a summary is written it is
// the mean of all ratings the product currently has.
func (p *Product) Summary() value.Summary {
	if p.summary != nil {
		return p.summary
	}
	return p.graph.cfg.Kind.Summarize(p.ratings()...)
}

// HasSummary reports whether a summary has been written explicitly.
func (p *Product) HasSummary() bool { return p.summary != nil }

// SetSummary writes the summary from a single scalar.
func (p *Product) SetSummary(v float64) {
	p.summary = p.graph.cfg.Kind.Summarize(v)
}

// SetSummaryScores writes the summary built from a set of scores.
func (p *Product) SetSummaryScores(scores ...float64) {
	p.summary = p.graph.cfg.Kind.Summarize(scores...)
}

// RefineSummary recomputes the summary as the mean of the product's ratings
// weighted by w applied to each reviewer's anomalous score. When every
// weight is zero the plain mean is used. It returns the absolute change of
// the summary's scalar view.
func (p *Product) RefineSummary(w WeightFunc) float64 {
	reviewers := p.graph.reviewersOf[p]
	if len(reviewers) == 0 {
		return 0
	}

	old := p.Summary().Score()
	ratings := p.ratings()
	weights := make([]float64, len(reviewers))
	for i, r := range reviewers {
		weights[i] = w(r.AnomalousScore())
	}

	var next float64
	if floats.Sum(weights) == 0 {
		next = stat.Mean(ratings, nil)
	} else {
		next = stat.Mean(ratings, weights)
	}
	p.SetSummary(next)
	return math.Abs(p.summary.Score() - old)
}

// ratings returns the raw rating scores in reviewer order.
func (p *Product) ratings() []float64 {
	g := p.graph
	reviewers := g.reviewersOf[p]
	out := make([]float64, len(reviewers))
	for i, r := range reviewers {
		out[i] = g.reviews[edgeKey{r, p}].Rating.Score()
	}
	return out
}
