package bipartite

import (
	"encoding/json"
	"fmt"
	"io"
)

// credibilityRecord is one line of ExportCredibilities output.
type credibilityRecord struct {
	ProductID   string  `json:"product_id"`
	Credibility float64 `json:"credibility"`
}

// ExportCredibilities writes the credibility of every product to out, one
// JSON object per line, in product creation order.
func (g *Graph) ExportCredibilities(out io.Writer) error {
	enc := json.NewEncoder(out)
	for _, p := range g.products {
		rec := credibilityRecord{
			ProductID:   p.name,
			Credibility: g.credibility.Score(p),
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("bipartite: export credibility of %s: %w", p.name, err)
		}
	}
	return nil
}
