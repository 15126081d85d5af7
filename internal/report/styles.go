package report

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan, headers
	colorAccent     = lipgloss.Color("#FFD700") // Gold, titles
	colorDanger     = lipgloss.Color("#FF5252") // Red, anomalous reviewers
	colorSuccess    = lipgloss.Color("#00E676") // Green, typical reviewers
	colorMuted      = lipgloss.Color("#636363") // Gray, borders
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray, normal text
)

var (
	styleTitle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Padding(0, 1)

	styleCell = lipgloss.NewStyle().
			Foreground(colorMutedLight).
			Padding(0, 1)

	styleAnomalous = styleCell.
			Foreground(colorDanger).
			Bold(true)

	styleTypical = styleCell.
			Foreground(colorSuccess)

	styleBorder = lipgloss.NewStyle().
			Foreground(colorMuted)
)
