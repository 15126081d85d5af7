// Package report renders analyzed review graphs for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// ErrUnknownFormat is returned by Encode and ParseFormat for unsupported
// formats.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects how results are printed.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatDOT   Format = "dot"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML, FormatDOT:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Strategy renders a graph as text.
type Strategy interface {
	Render(g *bipartite.Graph) string
}

// ReviewerScore is a reviewer's anomalous score.
type ReviewerScore struct {
	Name      string  `json:"name" yaml:"name"`
	Anomalous float64 `json:"anomalous" yaml:"anomalous"`
	Reviews   int     `json:"reviews" yaml:"reviews"`
}

// ProductScore is a product's summary and credibility.
type ProductScore struct {
	Name        string  `json:"name" yaml:"name"`
	Summary     float64 `json:"summary" yaml:"summary"`
	Credibility float64 `json:"credibility" yaml:"credibility"`
	Reviews     int     `json:"reviews" yaml:"reviews"`
}

// Snapshot is a serializable view of a graph's scores. Reviewers are sorted
// most anomalous first, products by descending summary.
type Snapshot struct {
	Variant   string          `json:"variant" yaml:"variant"`
	Alpha     float64         `json:"alpha" yaml:"alpha"`
	Reviewers []ReviewerScore `json:"reviewers" yaml:"reviewers"`
	Products  []ProductScore  `json:"products" yaml:"products"`
}

// Collect captures the current scores of g.
func Collect(g *bipartite.Graph) Snapshot {
	s := Snapshot{
		Variant:   g.Variant().String(),
		Alpha:     g.Alpha(),
		Reviewers: make([]ReviewerScore, 0, len(g.Reviewers())),
		Products:  make([]ProductScore, 0, len(g.Products())),
	}
	for _, r := range g.Reviewers() {
		products, _ := g.ProductsOf(r)
		s.Reviewers = append(s.Reviewers, ReviewerScore{
			Name:      r.Name(),
			Anomalous: r.AnomalousScore(),
			Reviews:   len(products),
		})
	}
	cred := g.Credibility()
	for _, p := range g.Products() {
		reviewers, _ := g.ReviewersOf(p)
		s.Products = append(s.Products, ProductScore{
			Name:        p.Name(),
			Summary:     p.Summary().Score(),
			Credibility: cred.Score(p),
			Reviews:     len(reviewers),
		})
	}

	sort.SliceStable(s.Reviewers, func(i, j int) bool {
		a, b := s.Reviewers[i], s.Reviewers[j]
		if a.Anomalous != b.Anomalous {
			return a.Anomalous > b.Anomalous
		}
		return a.Name < b.Name
	})
	sort.SliceStable(s.Products, func(i, j int) bool {
		a, b := s.Products[i], s.Products[j]
		if a.Summary != b.Summary {
			return a.Summary > b.Summary
		}
		return a.Name < b.Name
	})
	return s
}

// Encode writes v to w as indented JSON or as YAML.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	case FormatYAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(v); err != nil {
			return err
		}
		return e.Close()
	default:
		return fmt.Errorf("%w: cannot encode %q", ErrUnknownFormat, format)
	}
}
