package dataset

import (
	"fmt"
	"io"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// File is the TOML dataset layout.
type File struct {
	Reviewers []ReviewerEntry `toml:"reviewers"`
	Products  []ProductEntry  `toml:"products"`
	Reviews   []ReviewEntry   `toml:"reviews"`
}

// ReviewerEntry declares a reviewer, optionally with an initial score.
type ReviewerEntry struct {
	Name      string   `toml:"name"`
	Anomalous *float64 `toml:"anomalous,omitempty"`
}

// ProductEntry declares a product.
type ProductEntry struct {
	Name string `toml:"name"`
}

// ReviewEntry is one rating. Date may be a TOML date, datetime or string.
type ReviewEntry struct {
	Reviewer string  `toml:"reviewer"`
	Product  string  `toml:"product"`
	Rating   float64 `toml:"rating"`
	Date     any     `toml:"date,omitempty"`
}

// DecodeTOML reads a TOML dataset from r into g. Declared nodes are created
// before any review is added.
func DecodeTOML(r io.Reader, g *bipartite.Graph) (Stats, error) {
	var f File
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return Stats{}, fmt.Errorf("parsing toml: %w", err)
	}
	return f.Apply(g)
}

// Apply adds the file's nodes and reviews to g.
func (f *File) Apply(g *bipartite.Graph) (Stats, error) {
	b := &builder{g: g}
	for i, re := range f.Reviewers {
		var opts []bipartite.ReviewerOption
		if re.Anomalous != nil {
			opts = append(opts, bipartite.WithAnomalousScore(*re.Anomalous))
		}
		if _, err := b.reviewer(re.Name, opts...); err != nil {
			return b.stats, fmt.Errorf("reviewers[%d]: %w", i, err)
		}
	}
	for i, pe := range f.Products {
		if _, err := b.product(pe.Name); err != nil {
			return b.stats, fmt.Errorf("products[%d]: %w", i, err)
		}
	}
	for i, re := range f.Reviews {
		date, err := tomlDate(re.Date)
		if err != nil {
			return b.stats, fmt.Errorf("reviews[%d]: %w", i, err)
		}
		if err := b.review(re.Reviewer, re.Product, re.Rating, date); err != nil {
			return b.stats, fmt.Errorf("reviews[%d]: %w", i, err)
		}
	}
	return b.stats, nil
}

func tomlDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return d, nil
	case toml.LocalDate:
		return d.AsTime(time.UTC), nil
	case toml.LocalDateTime:
		return d.AsTime(time.UTC), nil
	case string:
		return parseDate(d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
	}
}
