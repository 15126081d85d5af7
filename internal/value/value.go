// Package value defines the numeric values carried by a review graph: single
// ratings on edges and aggregated summaries on products. The graph engine
// only depends on the Review, Summary and Kind contracts, so an analysis can
// plug in its own value domain.
package value

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Review is a single rating a reviewer gave to a product.
type Review interface {
	Score() float64
}

// Summary is an aggregated rating of a product.
type Summary interface {
	// Score returns the scalar view of the summary.
	Score() float64
	// Difference measures how far a single rating lies from this summary.
	Difference(r Review) float64
}

// Kind constructs the reviews and summaries of one value domain.
type Kind interface {
	Review(score float64) Review
	Summarize(scores ...float64) Summary
}

// Average is the default Kind. Its summaries are arithmetic means and the
// difference between a summary and a rating is their absolute distance.
type Average struct{}

// AverageReview is a plain scalar rating.
type AverageReview float64

// Score implements Review.
func (r AverageReview) Score() float64 { return float64(r) }

// AverageSummary is the mean of a set of ratings.
type AverageSummary float64

// Score implements Summary.
func (s AverageSummary) Score() float64 { return float64(s) }

// Difference returns |summary - rating|.
func (s AverageSummary) Difference(r Review) float64 {
	return math.Abs(float64(s) - r.Score())
}

// Review implements Kind.
func (Average) Review(score float64) Review { return AverageReview(score) }

// Summarize implements Kind. Summarizing no scores yields 0.
func (Average) Summarize(scores ...float64) Summary {
	if len(scores) == 0 {
		return AverageSummary(0)
	}
	return AverageSummary(stat.Mean(scores, nil))
}

var (
	_ Kind    = Average{}
	_ Review  = AverageReview(0)
	_ Summary = AverageSummary(0)
)
