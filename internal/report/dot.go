package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// DOT renders the graph in Graphviz format. Reviewers are boxes labelled
// with their anomalous score, products are ellipses labelled with their
// summary, and each review is an edge labelled with its rating.
type DOT struct {
	Name string // graph name; "reviews" when empty
}

// Render implements Strategy.
func (d DOT) Render(g *bipartite.Graph) string {
	name := d.Name
	if name == "" {
		name = "reviews"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(name))
	b.WriteString("  rankdir=LR;\n")

	b.WriteString("  subgraph reviewers {\n    node [shape=box];\n")
	for _, r := range g.Reviewers() {
		fmt.Fprintf(&b, "    %s [label=%s];\n",
			nodeID("r", r.Name()), strconv.Quote(fmt.Sprintf("%s\n%.4f", r.Name(), r.AnomalousScore())))
	}
	b.WriteString("  }\n")

	b.WriteString("  subgraph products {\n    node [shape=ellipse];\n")
	for _, p := range g.Products() {
		fmt.Fprintf(&b, "    %s [label=%s];\n",
			nodeID("p", p.Name()), strconv.Quote(fmt.Sprintf("%s\n%.4f", p.Name(), p.Summary().Score())))
	}
	b.WriteString("  }\n")

	for _, rev := range g.Reviews() {
		fmt.Fprintf(&b, "  %s -> %s [label=%s];\n",
			nodeID("r", rev.Reviewer.Name()), nodeID("p", rev.Product.Name()),
			strconv.Quote(strconv.FormatFloat(rev.Rating.Score(), 'g', -1, 64)))
	}
	b.WriteString("}\n")
	return b.String()
}

// nodeID namespaces names so a reviewer and a product may share one.
func nodeID(prefix, name string) string {
	return strconv.Quote(prefix + ":" + name)
}

var (
	_ Strategy = ScoreTable{}
	_ Strategy = DOT{}
)
