package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// Record is one line of a JSON Lines review feed.
type Record struct {
	MemberID  string  `json:"member_id"`
	ProductID string  `json:"product_id"`
	Rating    float64 `json:"rating"`
	Date      string  `json:"date,omitempty"`
}

// maxLineSize bounds a single JSON Lines record.
const maxLineSize = 1 << 20

// DecodeJSONL reads one Record per line from r into g. Blank lines are
// skipped.
func DecodeJSONL(r io.Reader, g *bipartite.Graph) (Stats, error) {
	b := &builder{g: g}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return b.stats, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := parseDate(rec.Date)
		if err != nil {
			return b.stats, fmt.Errorf("line %d: %w", line, err)
		}
		if err := b.review(rec.MemberID, rec.ProductID, rec.Rating, date); err != nil {
			return b.stats, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return b.stats, fmt.Errorf("reading jsonl: %w", err)
	}
	return b.stats, nil
}
