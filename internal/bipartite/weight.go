package bipartite

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// WeightFunc maps a reviewer's anomalous score to the weight of its ratings
// when products refine their summaries.
type WeightFunc func(score float64) float64

// WeightFunc derives the weight function from the current anomalous scores
// of all reviewers. With mean mu and population standard deviation sigma,
//
//	w(v) = 1 / (1 + exp(alpha * (v - mu) / sigma))
//
// so reviewers more anomalous than the population get less weight. An
// exponent that overflows yields weight 0. When sigma is zero every
// reviewer gets weight 1.
func (g *Graph) WeightFunc() WeightFunc {
	scores := make([]float64, len(g.reviewers))
	for i, r := range g.reviewers {
		scores[i] = r.AnomalousScore()
	}
	if len(scores) == 0 {
		return uniformWeight
	}

	mu, sigma := stat.PopMeanStdDev(scores, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return uniformWeight
	}

	alpha := g.cfg.Alpha
	return func(v float64) float64 {
		e := math.Exp(alpha * (v - mu) / sigma)
		if math.IsInf(e, 1) {
			return 0
		}
		return 1 / (1 + e)
	}
}

func uniformWeight(float64) float64 { return 1 }
