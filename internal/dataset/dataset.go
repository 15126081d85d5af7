// Package dataset populates review graphs from files on disk.
//
// Two formats are understood. TOML files declare reviewers, products and
// reviews as arrays of tables:
//
//	[[reviewers]]
//	name = "alice"
//	anomalous = 0.2   # optional initial score
//
//	[[products]]
//	name = "widget"
//
//	[[reviews]]
//	reviewer = "alice"
//	product = "widget"
//	rating = 0.8
//	date = 2024-03-01   # optional
//
// JSON Lines files hold one review per line:
//
//	{"member_id": "alice", "product_id": "widget", "rating": 0.8, "date": "2024-03-01"}
//
// Reviewers and products referenced by a review but not declared are
// created on first reference. Loaders only map records onto graph calls;
// ratings are not range checked.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("dataset: unsupported format")

// Stats counts what a load added to the graph.
type Stats struct {
	Reviewers int
	Products  int
	Reviews   int
}

// Load reads the dataset at path into g, choosing the decoder by extension:
// .toml for TOML, .jsonl, .ndjson or .json for JSON Lines.
func Load(path string, g *bipartite.Graph) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	var st Stats
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		st, err = DecodeTOML(f, g)
	case ".jsonl", ".ndjson", ".json":
		st, err = DecodeJSONL(f, g)
	default:
		return Stats{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return st, fmt.Errorf("dataset: load %s: %w", path, err)
	}
	return st, nil
}

// builder resolves names to nodes, creating them on first reference.
type builder struct {
	g     *bipartite.Graph
	stats Stats
}

func (b *builder) reviewer(name string, opts ...bipartite.ReviewerOption) (*bipartite.Reviewer, error) {
	if r := b.g.Reviewer(name); r != nil {
		for _, opt := range opts {
			opt(r)
		}
		return r, nil
	}
	r, err := b.g.NewReviewer(name, opts...)
	if err != nil {
		return nil, err
	}
	b.stats.Reviewers++
	return r, nil
}

func (b *builder) product(name string) (*bipartite.Product, error) {
	if p := b.g.Product(name); p != nil {
		return p, nil
	}
	p, err := b.g.NewProduct(name)
	if err != nil {
		return nil, err
	}
	b.stats.Products++
	return p, nil
}

func (b *builder) review(reviewer, product string, rating float64, date time.Time) error {
	r, err := b.reviewer(reviewer)
	if err != nil {
		return err
	}
	p, err := b.product(product)
	if err != nil {
		return err
	}
	var opts []bipartite.ReviewOption
	if !date.IsZero() {
		opts = append(opts, bipartite.WithDate(date))
	}
	if _, err := b.g.AddReview(r, p, rating, opts...); err != nil {
		return err
	}
	b.stats.Reviews++
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"20060102",
}

// parseDate accepts RFC 3339 timestamps, plain dates and compact YYYYMMDD
// dates. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
