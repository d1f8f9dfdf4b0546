package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/higucxi/JobSearchApp/internal/models"
)

var (
	colorAccent = lipgloss.Color("63")
	colorSubtle = lipgloss.Color("241")
	colorError  = lipgloss.Color("196")
	colorOK     = lipgloss.Color("42")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(colorAccent).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(colorAccent).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Foreground(colorOK).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true).
			Padding(1, 2)

	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)
)

// statusColors is the single palette for application statuses. Every
// render of a status goes through statusColor so an unknown value
// degrades to the neutral color instead of disappearing.
var statusColors = map[models.Status]lipgloss.Color{
	models.StatusNotApplied: lipgloss.Color("245"),
	models.StatusApplied:    lipgloss.Color("39"),
	models.StatusInterview:  lipgloss.Color("220"),
	models.StatusOffer:      lipgloss.Color("42"),
	models.StatusRejected:   lipgloss.Color("196"),
}

func statusColor(s models.Status) lipgloss.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return lipgloss.Color("245")
}

func renderStatus(s models.Status) string {
	return lipgloss.NewStyle().Foreground(statusColor(s)).Render(string(s))
}
