package bipartite

import (
	"errors"
	"math"
	"testing"
	"time"
)

// --- Test fixtures ---

const floatTol = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTol
}

// sampleGraph holds the nodes of the shared fixture:
//
//	reviewer-0 → product-0 (0.1)
//	reviewer-0 → product-1 (0.1)
//	reviewer-0 → product-2 (0.1)
//	reviewer-1 → product-1 (0.8)
//	reviewer-1 → product-2 (0.8)
type sampleGraph struct {
	g         *Graph
	reviewers []*Reviewer
	products  []*Product
}

func buildSample(t *testing.T, g *Graph) sampleGraph {
	t.Helper()
	s := sampleGraph{g: g}
	for _, name := range []string{"reviewer-0", "reviewer-1"} {
		r, err := g.NewReviewer(name)
		if err != nil {
			t.Fatal(err)
		}
		s.reviewers = append(s.reviewers, r)
	}
	for _, name := range []string{"product-0", "product-1", "product-2"} {
		p, err := g.NewProduct(name)
		if err != nil {
			t.Fatal(err)
		}
		s.products = append(s.products, p)
	}
	for i, r := range s.reviewers {
		rating := 0.1
		if i == 1 {
			rating = 0.8
		}
		for _, p := range s.products[i:] {
			if _, err := g.AddReview(r, p, rating); err != nil {
				t.Fatal(err)
			}
		}
	}
	return s
}

// --- Construction ---

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		g           *Graph
		variant     Variant
		alpha       float64
		weightedCrd bool
	}{
		{"ria", NewRIA(2), VariantRIA, 2, true},
		{"mra", NewMRA(), VariantMRA, 1, false},
		{"one", NewOne(), VariantOne, 1, false},
		{"onesum", NewOneSum(), VariantOneSum, 1, false},
		{"zero alpha", New(Config{Variant: VariantRIA}), VariantRIA, 1, true},
		{"variant ignores alpha", NewVariant(VariantMRA, 5), VariantMRA, 1, false},
		{"variant keeps ria alpha", NewVariant(VariantRIA, 5), VariantRIA, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.g.Variant() != tt.variant {
				t.Errorf("Variant() = %v, want %v", tt.g.Variant(), tt.variant)
			}
			if tt.g.Alpha() != tt.alpha {
				t.Errorf("Alpha() = %v, want %v", tt.g.Alpha(), tt.alpha)
			}
			_, weighted := tt.g.Credibility().(*Weighted)
			if weighted != tt.weightedCrd {
				t.Errorf("weighted credibility = %v, want %v", weighted, tt.weightedCrd)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"ria", VariantRIA, false},
		{"RIA", VariantRIA, false},
		{" mra ", VariantMRA, false},
		{"one", VariantOne, false},
		{"onesum", VariantOneSum, false},
		{"one-sum", VariantOneSum, false},
		{"one_sum", VariantOneSum, false},
		{"hits", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVariant(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownVariant) {
					t.Errorf("ParseVariant(%q) error = %v, want ErrUnknownVariant", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVariant(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVariant_String(t *testing.T) {
	t.Parallel()
	if got := VariantOneSum.String(); got != "onesum" {
		t.Errorf("String() = %q, want %q", got, "onesum")
	}
	if got := Variant(42).String(); got != "variant(42)" {
		t.Errorf("String() = %q, want %q", got, "variant(42)")
	}
}

// --- Nodes ---

func TestNewReviewer(t *testing.T) {
	t.Parallel()
	g := NewRIA(1)

	r1, err := g.NewReviewer("test-reviewer1", WithAnomalousScore(0.1))
	if err != nil {
		t.Fatal(err)
	}
	if r1.Name() != "test-reviewer1" {
		t.Errorf("Name() = %q", r1.Name())
	}
	if !approxEqual(r1.AnomalousScore(), 0.1) {
		t.Errorf("AnomalousScore() = %f, want 0.1", r1.AnomalousScore())
	}

	r2, err := g.NewReviewer("test-reviewer2")
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(r2.AnomalousScore(), 0.5) {
		t.Errorf("AnomalousScore() = %f, want 0.5", r2.AnomalousScore())
	}
	if got := len(g.Reviewers()); got != 2 {
		t.Errorf("len(Reviewers()) = %d, want 2", got)
	}
	if g.Reviewer("test-reviewer2") != r2 {
		t.Error("Reviewer lookup by name did not return r2")
	}
	if g.Reviewer("missing") != nil {
		t.Error("Reviewer lookup of missing name should be nil")
	}
}

func TestNewReviewer_Errors(t *testing.T) {
	t.Parallel()
	g := NewMRA()
	if _, err := g.NewReviewer("dup"); err != nil {
		t.Fatal(err)
	}

	if _, err := g.NewReviewer("dup"); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate reviewer error = %v, want ErrDuplicateNode", err)
	}
	if _, err := g.NewReviewer(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
	// Products live in their own namespace.
	if _, err := g.NewProduct("dup"); err != nil {
		t.Errorf("product sharing a reviewer name: %v", err)
	}
	if _, err := g.NewProduct("dup"); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate product error = %v, want ErrDuplicateNode", err)
	}
}

func TestAnomalousScore_DefaultTracksReviewerCount(t *testing.T) {
	t.Parallel()
	g := NewMRA()

	var reviewers []*Reviewer
	for i, name := range []string{"a", "b", "c", "d"} {
		r, err := g.NewReviewer(name)
		if err != nil {
			t.Fatal(err)
		}
		reviewers = append(reviewers, r)

		want := 1 / float64(i+1)
		for _, r := range reviewers {
			if !approxEqual(r.AnomalousScore(), want) {
				t.Errorf("after %d reviewers: %s score = %f, want %f",
					i+1, r.Name(), r.AnomalousScore(), want)
			}
		}
	}

	reviewers[0].SetAnomalousScore(0)
	if _, err := g.NewReviewer("e"); err != nil {
		t.Fatal(err)
	}
	if !reviewers[0].HasAnomalousScore() {
		t.Error("explicit zero score should count as set")
	}
	if reviewers[0].AnomalousScore() != 0 {
		t.Errorf("explicit score = %f, want 0", reviewers[0].AnomalousScore())
	}
	if !approxEqual(reviewers[1].AnomalousScore(), 0.2) {
		t.Errorf("unset score = %f, want 0.2", reviewers[1].AnomalousScore())
	}
}

func TestProductSummary_DefaultTracksReviews(t *testing.T) {
	t.Parallel()
	s := buildSample(t, NewRIA(1))

	wants := []float64{0.1, 0.45, 0.45}
	for i, p := range s.products {
		if got := p.Summary().Score(); !approxEqual(got, wants[i]) {
			t.Errorf("%s summary = %f, want %f", p.Name(), got, wants[i])
		}
	}

	// A new review before any refinement moves the default summary.
	r, err := s.g.NewReviewer("reviewer-2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.g.AddReview(r, s.products[0], 0.9); err != nil {
		t.Fatal(err)
	}
	if got := s.products[0].Summary().Score(); !approxEqual(got, 0.5) {
		t.Errorf("product-0 summary = %f, want 0.5", got)
	}

	s.products[1].SetSummary(0.7)
	if !s.products[1].HasSummary() {
		t.Error("HasSummary() = false after SetSummary")
	}
	if got := s.products[1].Summary().Score(); !approxEqual(got, 0.7) {
		t.Errorf("explicit summary = %f, want 0.7", got)
	}
	s.products[2].SetSummaryScores(0.2, 0.4)
	if got := s.products[2].Summary().Score(); !approxEqual(got, 0.3) {
		t.Errorf("summary from scores = %f, want 0.3", got)
	}
}

func TestProductSummary_NoReviews(t *testing.T) {
	t.Parallel()
	g := NewMRA()
	p, err := g.NewProduct("lonely")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Summary().Score(); got != 0 {
		t.Errorf("summary of unrated product = %f, want 0", got)
	}
}

// --- Edges ---

func TestAddReview(t *testing.T) {
	t.Parallel()
	g := NewRIA(1)
	r, _ := g.NewReviewer("r")
	p, _ := g.NewProduct("p")
	date := time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC)

	rev, err := g.AddReview(r, p, 0.3, WithDate(date))
	if err != nil {
		t.Fatal(err)
	}
	if rev.Rating.Score() != 0.3 {
		t.Errorf("Rating = %f, want 0.3", rev.Rating.Score())
	}
	if !rev.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", rev.Date, date)
	}
	if rev.Reviewer != r || rev.Product != p {
		t.Error("review endpoints not recorded")
	}
}

func TestAddReview_Overwrite(t *testing.T) {
	t.Parallel()
	g := NewMRA()
	r, _ := g.NewReviewer("r")
	p, _ := g.NewProduct("p")

	if _, err := g.AddReview(r, p, 0.2); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddReview(r, p, 0.9); err != nil {
		t.Fatal(err)
	}

	rev, err := g.Review(r, p)
	if err != nil {
		t.Fatal(err)
	}
	if rev.Rating.Score() != 0.9 {
		t.Errorf("Rating = %f, want latest 0.9", rev.Rating.Score())
	}
	products, _ := g.ProductsOf(r)
	reviewers, _ := g.ReviewersOf(p)
	if len(products) != 1 || len(reviewers) != 1 {
		t.Errorf("overwrite duplicated adjacency: %d products, %d reviewers",
			len(products), len(reviewers))
	}
	if got := len(g.Reviews()); got != 1 {
		t.Errorf("len(Reviews()) = %d, want 1", got)
	}
	if got := p.Summary().Score(); !approxEqual(got, 0.9) {
		t.Errorf("summary = %f, want 0.9", got)
	}
}

func TestAddReview_ForeignNodes(t *testing.T) {
	t.Parallel()
	g := NewRIA(1)
	other := NewRIA(1)
	r, _ := g.NewReviewer("r")
	p, _ := g.NewProduct("p")
	or, _ := other.NewReviewer("r")
	op, _ := other.NewProduct("p")

	tests := []struct {
		name string
		r    *Reviewer
		p    *Product
	}{
		{"foreign reviewer", or, p},
		{"foreign product", r, op},
		{"nil reviewer", nil, p},
		{"nil product", r, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddReview(tt.r, tt.p, 0.5); !errors.Is(err, ErrForeignNode) {
				t.Errorf("AddReview error = %v, want ErrForeignNode", err)
			}
			if _, err := g.Review(tt.r, tt.p); !errors.Is(err, ErrForeignNode) {
				t.Errorf("Review error = %v, want ErrForeignNode", err)
			}
		})
	}

	if _, err := g.ProductsOf(or); !errors.Is(err, ErrForeignNode) {
		t.Errorf("ProductsOf(foreign) error = %v, want ErrForeignNode", err)
	}
	if _, err := g.ReviewersOf(op); !errors.Is(err, ErrForeignNode) {
		t.Errorf("ReviewersOf(foreign) error = %v, want ErrForeignNode", err)
	}
}

func TestRetrieve(t *testing.T) {
	t.Parallel()
	s := buildSample(t, NewRIA(1))
	r0, r1 := s.reviewers[0], s.reviewers[1]

	t.Run("reviewers of", func(t *testing.T) {
		wants := [][]*Reviewer{{r0}, {r0, r1}, {r0, r1}}
		for i, p := range s.products {
			got, err := s.g.ReviewersOf(p)
			if err != nil {
				t.Fatal(err)
			}
			if !sameReviewers(got, wants[i]) {
				t.Errorf("ReviewersOf(%s) = %v, want %v", p, got, wants[i])
			}
		}
	})

	t.Run("products of", func(t *testing.T) {
		got, _ := s.g.ProductsOf(r0)
		if len(got) != 3 {
			t.Errorf("ProductsOf(r0) has %d products, want 3", len(got))
		}
		got, _ = s.g.ProductsOf(r1)
		if len(got) != 2 || got[0] != s.products[1] || got[1] != s.products[2] {
			t.Errorf("ProductsOf(r1) = %v, want [product-1 product-2]", got)
		}
	})

	t.Run("review", func(t *testing.T) {
		rev, err := s.g.Review(r1, s.products[2])
		if err != nil {
			t.Fatal(err)
		}
		if rev.Rating.Score() != 0.8 {
			t.Errorf("Rating = %f, want 0.8", rev.Rating.Score())
		}
	})

	t.Run("missing review", func(t *testing.T) {
		_, err := s.g.Review(r1, s.products[0])
		if !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("error = %v, want ErrReviewNotFound", err)
		}
		if errors.Is(err, ErrForeignNode) {
			t.Error("missing review must not be reported as a foreign node")
		}
	})

	t.Run("lookups return copies", func(t *testing.T) {
		got, _ := s.g.ReviewersOf(s.products[1])
		got[0] = nil
		again, _ := s.g.ReviewersOf(s.products[1])
		if again[0] != r0 {
			t.Error("mutating a lookup result changed the graph")
		}
	})
}

func sameReviewers(a, b []*Reviewer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
