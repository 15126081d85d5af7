// Package bipartite provides the review graph engine: reviewers and products
// connected by rating edges, and the iterative refinement that scores how
// anomalous each reviewer is and what each product's rating really is.
//
// Four analyses share the engine and differ only in their update rules:
// RIA, MRA, One and OneSum. Convergence looping is left to the caller; the
// engine exposes a single refinement pass via Graph.Refine.
package bipartite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papapumpkin/ria/internal/value"
)

// ErrForeignNode is returned when a node is nil or was created by a
// different graph.
var ErrForeignNode = errors.New("node does not belong to this graph")

// ErrReviewNotFound is returned when no review connects a reviewer and a
// product.
var ErrReviewNotFound = errors.New("review not found")

// ErrDuplicateNode is returned when adding a node whose name is already
// taken by a node of the same kind.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrEmptyName is returned when a node is created without a name.
var ErrEmptyName = errors.New("node name is empty")

// ErrUnknownVariant is returned by ParseVariant for unrecognized names.
var ErrUnknownVariant = errors.New("unknown variant")

// Variant selects the update rules a graph uses.
type Variant int

const (
	VariantRIA    Variant = iota // weighted credibility, alpha-parameterized weights
	VariantMRA                   // uniform credibility, alpha 1
	VariantOne                   // MRA limited to a single refinement pass
	VariantOneSum                // summed reviewer update with per-pass normalization
)

var variantNames = map[Variant]string{
	VariantRIA:    "ria",
	VariantMRA:    "mra",
	VariantOne:    "one",
	VariantOneSum: "onesum",
}

// String returns the lower-case name of the variant.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant maps a name such as "ria" or "one-sum" to its Variant.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "", "_", "").Replace(name)
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Config describes how a graph refines its scores.
type Config struct {
	Variant Variant

	// Alpha controls the steepness of the reviewer weight curve.
	// Zero means 1.
	Alpha float64

	// Kind constructs ratings and summaries. Nil means value.Average.
	Kind value.Kind

	// Credibility builds the credibility functor bound to the graph.
	// Nil selects Weighted for RIA and Uniform for every other variant.
	Credibility func(*Graph) Credibility

	// Workers bounds the number of goroutines updating nodes within one
	// refinement phase. Values below 2 run every update on the caller's
	// goroutine.
	Workers int
}

// Review is the rating edge from a reviewer to a product.
type Review struct {
	Reviewer *Reviewer
	Product  *Product
	Rating   value.Review
	Date     time.Time // zero when the date is unknown
}

// ReviewOption customizes a review added with AddReview.
type ReviewOption func(*Review)

// WithDate records when the review was issued.
func WithDate(t time.Time) ReviewOption {
	return func(r *Review) { r.Date = t }
}

type edgeKey struct {
	reviewer *Reviewer
	product  *Product
}

// Graph is a bipartite review graph. Nodes are never removed; a review may
// be overwritten but not deleted.
//
// A Graph is not safe for concurrent mutation. Adding nodes or reviews while
// Refine runs is not supported.
type Graph struct {
	cfg Config

	reviewers []*Reviewer
	products  []*Product

	reviewerByName map[string]*Reviewer
	productByName  map[string]*Product

	// productsOf maps a reviewer to the products it rated (forward edges).
	productsOf map[*Reviewer][]*Product
	// reviewersOf maps a product to the reviewers that rated it (backward edges).
	reviewersOf map[*Product][]*Reviewer
	reviews     map[edgeKey]*Review

	credibility Credibility

	// version counts structural mutations; caches compare against it.
	version uint64
	locked  bool
}

// New creates an empty graph configured by cfg.
func New(cfg Config) *Graph {
	if cfg.Alpha == 0 {
		cfg.Alpha = 1
	}
	if cfg.Kind == nil {
		cfg.Kind = value.Average{}
	}
	g := &Graph{
		cfg:            cfg,
		reviewerByName: make(map[string]*Reviewer),
		productByName:  make(map[string]*Product),
		productsOf:     make(map[*Reviewer][]*Product),
		reviewersOf:    make(map[*Product][]*Reviewer),
		reviews:        make(map[edgeKey]*Review),
	}
	switch {
	case cfg.Credibility != nil:
		g.credibility = cfg.Credibility(g)
	case cfg.Variant == VariantRIA:
		g.credibility = NewWeighted(g)
	default:
		g.credibility = Uniform{}
	}
	return g
}

// NewRIA creates a graph running Repeated Improvement Analysis with the
// given alpha.
func NewRIA(alpha float64) *Graph {
	return New(Config{Variant: VariantRIA, Alpha: alpha})
}

// NewMRA creates a graph running Mutually Reinforcing Analysis.
func NewMRA() *Graph {
	return New(Config{Variant: VariantMRA, Alpha: 1})
}

// NewOne creates a graph running the One analysis, which refines once.
func NewOne() *Graph {
	return New(Config{Variant: VariantOne, Alpha: 1})
}

// NewOneSum creates a graph running the OneSum analysis.
func NewOneSum() *Graph {
	return New(Config{Variant: VariantOneSum, Alpha: 1})
}

// NewVariant creates a graph for v. Alpha only applies to RIA; the other
// variants always use 1.
func NewVariant(v Variant, alpha float64) *Graph {
	if v != VariantRIA {
		alpha = 1
	}
	return New(Config{Variant: v, Alpha: alpha})
}

// NewReviewer adds a reviewer named name.
func (g *Graph) NewReviewer(name string, opts ...ReviewerOption) (*Reviewer, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, exists := g.reviewerByName[name]; exists {
		return nil, fmt.Errorf("%w: reviewer %s", ErrDuplicateNode, name)
	}
	r := &Reviewer{graph: g, name: name}
	for _, opt := range opts {
		opt(r)
	}
	g.reviewers = append(g.reviewers, r)
	g.reviewerByName[name] = r
	g.version++
	return r, nil
}

// NewProduct adds a product named name.
func (g *Graph) NewProduct(name string) (*Product, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, exists := g.productByName[name]; exists {
		return nil, fmt.Errorf("%w: product %s", ErrDuplicateNode, name)
	}
	p := &Product{graph: g, name: name}
	g.products = append(g.products, p)
	g.productByName[name] = p
	g.version++
	return p, nil
}

// AddReview records that r rated p. A second review for the same pair
// replaces the first.
func (g *Graph) AddReview(r *Reviewer, p *Product, rating float64, opts ...ReviewOption) (*Review, error) {
	if err := g.checkReviewer(r); err != nil {
		return nil, err
	}
	if err := g.checkProduct(p); err != nil {
		return nil, err
	}
	rev := &Review{
		Reviewer: r,
		Product:  p,
		Rating:   g.cfg.Kind.Review(rating),
	}
	for _, opt := range opts {
		opt(rev)
	}
	key := edgeKey{r, p}
	if _, exists := g.reviews[key]; !exists {
		g.productsOf[r] = append(g.productsOf[r], p)
		g.reviewersOf[p] = append(g.reviewersOf[p], r)
	}
	g.reviews[key] = rev
	g.version++
	return rev, nil
}

// ProductsOf returns the products r has rated, in the order first rated.
func (g *Graph) ProductsOf(r *Reviewer) ([]*Product, error) {
	if err := g.checkReviewer(r); err != nil {
		return nil, err
	}
	return append([]*Product(nil), g.productsOf[r]...), nil
}

// ReviewersOf returns the reviewers who rated p, in the order they rated it.
func (g *Graph) ReviewersOf(p *Product) ([]*Reviewer, error) {
	if err := g.checkProduct(p); err != nil {
		return nil, err
	}
	return append([]*Reviewer(nil), g.reviewersOf[p]...), nil
}

// Review returns the review r gave p. It returns ErrReviewNotFound when r
// never rated p.
func (g *Graph) Review(r *Reviewer, p *Product) (*Review, error) {
	if err := g.checkReviewer(r); err != nil {
		return nil, err
	}
	if err := g.checkProduct(p); err != nil {
		return nil, err
	}
	rev, ok := g.reviews[edgeKey{r, p}]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not review %s", ErrReviewNotFound, r.name, p.name)
	}
	return rev, nil
}

// Reviewer returns the reviewer with the given name, or nil if not found.
func (g *Graph) Reviewer(name string) *Reviewer {
	return g.reviewerByName[name]
}

// Product returns the product with the given name, or nil if not found.
func (g *Graph) Product(name string) *Product {
	return g.productByName[name]
}

// Reviewers returns all reviewers in creation order.
func (g *Graph) Reviewers() []*Reviewer {
	return append([]*Reviewer(nil), g.reviewers...)
}

// Products returns all products in creation order.
func (g *Graph) Products() []*Product {
	return append([]*Product(nil), g.products...)
}

// Reviews returns every review, grouped by reviewer in creation order.
func (g *Graph) Reviews() []*Review {
	out := make([]*Review, 0, len(g.reviews))
	for _, r := range g.reviewers {
		for _, p := range g.productsOf[r] {
			out = append(out, g.reviews[edgeKey{r, p}])
		}
	}
	return out
}

// State returns every product summary followed by every reviewer score, both
// in creation order. Two states of an unmutated graph line up index by index.
func (g *Graph) State() []float64 {
	out := make([]float64, 0, len(g.products)+len(g.reviewers))
	for _, p := range g.products {
		out = append(out, p.Summary().Score())
	}
	for _, r := range g.reviewers {
		out = append(out, r.AnomalousScore())
	}
	return out
}

// Alpha returns the steepness of the reviewer weight curve.
func (g *Graph) Alpha() float64 { return g.cfg.Alpha }

// Variant returns the analysis this graph runs.
func (g *Graph) Variant() Variant { return g.cfg.Variant }

// Credibility returns the credibility functor bound to this graph.
func (g *Graph) Credibility() Credibility { return g.credibility }

// Locked reports whether a One graph has already refined and will ignore
// further Refine calls.
func (g *Graph) Locked() bool { return g.locked }

func (g *Graph) checkReviewer(r *Reviewer) error {
	if r == nil {
		return fmt.Errorf("%w: nil reviewer", ErrForeignNode)
	}
	if r.graph != g {
		return fmt.Errorf("%w: reviewer %s", ErrForeignNode, r.name)
	}
	return nil
}

func (g *Graph) checkProduct(p *Product) error {
	if p == nil {
		return fmt.Errorf("%w: nil product", ErrForeignNode)
	}
	if p.graph != g {
		return fmt.Errorf("%w: product %s", ErrForeignNode, p.name)
	}
	return nil
}
