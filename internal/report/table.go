package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/stat"

	"github.com/papapumpkin/ria/internal/bipartite"
)

// ScoreTable renders ranked reviewer and product tables. Reviewers scoring
// more than one standard deviation above the mean are flagged.
type ScoreTable struct {
	Top int // rows per table; 0 shows all
}

// Render implements Strategy.
func (s ScoreTable) Render(g *bipartite.Graph) string {
	snap := Collect(g)
	if len(snap.Reviewers) == 0 && len(snap.Products) == 0 {
		return "No reviews in graph.\n"
	}

	var b strings.Builder
	title := fmt.Sprintf("Reviewers (%s, alpha %s)", snap.Variant, formatFloat(snap.Alpha))
	b.WriteString(styleTitle.Render(title))
	b.WriteByte('\n')
	b.WriteString(s.reviewerTable(snap.Reviewers))
	b.WriteString("\n\n")
	b.WriteString(styleTitle.Render("Products"))
	b.WriteByte('\n')
	b.WriteString(s.productTable(snap.Products))
	b.WriteByte('\n')
	return b.String()
}

func (s ScoreTable) limit(n int) int {
	if s.Top > 0 && s.Top < n {
		return s.Top
	}
	return n
}

func (s ScoreTable) reviewerTable(reviewers []ReviewerScore) string {
	scores := make([]float64, len(reviewers))
	for i, r := range reviewers {
		scores[i] = r.Anomalous
	}
	threshold := anomalyThreshold(scores)

	rows := make([][]string, 0, s.limit(len(reviewers)))
	flagged := make([]bool, 0, cap(rows))
	for i, r := range reviewers[:s.limit(len(reviewers))] {
		mark := ""
		hot := r.Anomalous > threshold
		if hot {
			mark = "⚠"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Name, formatFloat(r.Anomalous), strconv.Itoa(r.Reviews), mark})
		flagged = append(flagged, hot)
	}

	return newTable().
		Headers("#", "REVIEWER", "ANOMALOUS", "REVIEWS", "").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case flagged[row]:
				return styleAnomalous
			default:
				return styleTypical
			}
		}).
		Render()
}

func (s ScoreTable) productTable(products []ProductScore) string {
	rows := make([][]string, 0, s.limit(len(products)))
	for i, p := range products[:s.limit(len(products))] {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, formatFloat(p.Summary), formatFloat(p.Credibility), strconv.Itoa(p.Reviews)})
	}
	return Table([]string{"#", "PRODUCT", "SUMMARY", "CREDIBILITY", "REVIEWS"}, rows)
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder)
}

// anomalyThreshold is one standard deviation above the mean. With fewer than
// two scores nothing is flagged.
func anomalyThreshold(scores []float64) float64 {
	if len(scores) < 2 {
		return math.Inf(1)
	}
	mean, std := stat.MeanStdDev(scores, nil)
	return mean + std
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Table renders arbitrary rows with the report styling.
func Table(headers []string, rows [][]string) string {
	return newTable().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Render()
}
