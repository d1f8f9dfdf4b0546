package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
)

type appsState int

const (
	appsLoading appsState = iota
	appsLoaded
	appsError
)

type appsMode int

const (
	appsBrowsing appsMode = iota
	appsConfirmDelete
	appsDeleting
)

type applicationsMsg struct {
	token int
	apps  []models.Application
	err   error
}

type applicationDeletedMsg struct {
	jobID uuid.UUID
	err   error
}

type applicationsModel struct {
	client aggregator.Client
	logger *zap.Logger

	state appsState
	mode  appsMode

	apps      []models.Application
	filterIdx int

	table   table.Model
	spinner spinner.Model

	errMsg string
	flash  string

	deleteTarget *models.Application

	// token identifies the newest list fetch; stale responses from a
	// previous visit are discarded.
	token int

	width, height int
}

func newApplicationsModel(client aggregator.Client, logger *zap.Logger) applicationsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	t := table.New(
		table.WithColumns(applicationColumns(100)),
		table.WithHeight(14),
		table.WithFocused(true),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		Bold(true).
		Foreground(colorAccent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorSubtle)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("230")).
		Background(colorAccent)
	t.SetStyles(st)

	return applicationsModel{
		client:  client,
		logger:  logger,
		spinner: sp,
		table:   t,
		state:   appsLoading,
		width:   100,
		height:  30,
	}
}

func applicationColumns(width int) []table.Column {
	rest := width - (12 + 10) - 10
	if rest < 40 {
		rest = 40
	}
	title := rest * 4 / 10
	company := rest * 3 / 10
	notes := rest - title - company
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Company", Width: company},
		{Title: "Status", Width: 12},
		{Title: "Updated", Width: 10},
		{Title: "Notes", Width: notes},
	}
}

func applicationRows(apps []models.Application) []table.Row {
	rows := make([]table.Row, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, table.Row{
			app.Job.Title,
			app.Job.Company,
			string(app.Status),
			formatDate(app.UpdatedAt),
			truncate(strings.ReplaceAll(app.NotesText(), "\n", " "), 80),
		})
	}
	return rows
}

// filterApplications projects apps by status. A nil filter means All
// and returns the list unchanged.
func filterApplications(apps []models.Application, filter *models.Status) []models.Application {
	if filter == nil {
		return apps
	}
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if app.Status == *filter {
			out = append(out, app)
		}
	}
	return out
}

// summaryLine renders per-status counts with rounded percentages of
// the full tracked list, independent of the active filter.
func summaryLine(apps []models.Application) string {
	if len(apps) == 0 {
		return ""
	}
	counts := models.StatusCounts(apps)
	parts := make([]string, 0, len(counts))
	for _, s := range models.Statuses() {
		n := counts[s]
		if n == 0 {
			continue
		}
		pct := (n*100 + len(apps)/2) / len(apps)
		parts = append(parts, fmt.Sprintf("%s %d (%d%%)", s, n, pct))
	}
	return fmt.Sprintf("%d tracked · %s", len(apps), strings.Join(parts, " · "))
}

func listApplicationsCmd(client aggregator.Client, token int) tea.Cmd {
	return func() tea.Msg {
		apps, err := client.ListApplications(context.Background())
		return applicationsMsg{token: token, apps: apps, err: err}
	}
}

func deleteApplicationCmd(client aggregator.Client, jobID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		err := client.DeleteApplication(context.Background(), jobID)
		return applicationDeletedMsg{jobID: jobID, err: err}
	}
}

// mount resets per-visit state before the refetch; entering the view
// always starts on the All filter with a clean list, like a fresh
// page load.
func (m applicationsModel) mount() (applicationsModel, tea.Cmd) {
	m.filterIdx = 0
	m.flash = ""
	m.apps = nil
	m.table.SetRows(nil)
	m.table.SetCursor(0)
	return m.reload()
}

// reload fetches the application list afresh, keeping any rows on
// screen until the response lands. Deletes come through here so the
// view is only transiently stale.
func (m applicationsModel) reload() (applicationsModel, tea.Cmd) {
	m.token++
	m.state = appsLoading
	m.mode = appsBrowsing
	m.deleteTarget = nil
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, listApplicationsCmd(m.client, m.token))
}

func (m applicationsModel) typing() bool { return false }

func (m applicationsModel) currentFilter() *models.Status {
	if m.filterIdx == 0 {
		return nil
	}
	s := models.Statuses()[m.filterIdx-1]
	return &s
}

func (m applicationsModel) filterName() string {
	if m.filterIdx == 0 {
		return "All"
	}
	return string(models.Statuses()[m.filterIdx-1])
}

func (m applicationsModel) filtered() []models.Application {
	return filterApplications(m.apps, m.currentFilter())
}

func (m *applicationsModel) rebuildRows() {
	filtered := m.filtered()
	m.table.SetRows(applicationRows(filtered))
	if cursor := m.table.Cursor(); cursor >= len(filtered) && len(filtered) > 0 {
		m.table.SetCursor(len(filtered) - 1)
	}
}

func (m applicationsModel) update(msg tea.Msg) (applicationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state == appsLoading || m.mode == appsDeleting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case applicationsMsg:
		if msg.token != m.token {
			return m, nil
		}
		if msg.err != nil {
			m.state = appsError
			m.errMsg = errors.Display(msg.err)
			return m, nil
		}
		m.state = appsLoaded
		m.apps = msg.apps
		m.errMsg = ""
		m.rebuildRows()
		return m, nil

	case applicationDeletedMsg:
		if m.mode != appsDeleting {
			return m, nil
		}
		if msg.err != nil && !errors.IsNotFound(msg.err) {
			m.mode = appsBrowsing
			m.deleteTarget = nil
			m.errMsg = errors.Display(msg.err)
			return m, nil
		}
		// A not-found just means the row was already gone server-side;
		// either way the refreshed list is the truth.
		m.flash = "Application removed"
		m.logger.Debug("application deleted", zap.String("job_id", msg.jobID.String()))
		return m.reload()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m applicationsModel) handleKey(msg tea.KeyMsg) (applicationsModel, tea.Cmd) {
	switch m.mode {
	case appsDeleting:
		return m, nil

	case appsConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.mode = appsDeleting
			m.flash = ""
			return m, tea.Batch(m.spinner.Tick, deleteApplicationCmd(m.client, m.deleteTarget.JobID))
		case "n", "N", "esc":
			m.mode = appsBrowsing
			m.deleteTarget = nil
			return m, nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % (len(models.Statuses()) + 1)
		m.table.SetCursor(0)
		m.rebuildRows()
		return m, nil

	case key.Matches(msg, keys.Refresh):
		return m.reload()

	case key.Matches(msg, keys.Delete):
		filtered := m.filtered()
		cursor := m.table.Cursor()
		if m.state == appsLoaded && cursor >= 0 && cursor < len(filtered) {
			target := filtered[cursor]
			m.deleteTarget = &target
			m.mode = appsConfirmDelete
			m.flash = ""
		}
		return m, nil

	case key.Matches(msg, keys.Submit):
		filtered := m.filtered()
		cursor := m.table.Cursor()
		if m.state == appsLoaded && cursor >= 0 && cursor < len(filtered) {
			jobID := filtered[cursor].JobID
			return m, func() tea.Msg {
				return openJobMsg{jobID: jobID}
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *applicationsModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(applicationColumns(width))
	m.table.SetWidth(width - 2)

	tableHeight := height - 10
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
}

func (m applicationsModel) view() string {
	var b strings.Builder

	if m.state == appsLoading && len(m.apps) == 0 {
		b.WriteString(m.spinner.View() + " Loading applications…\n\n")
		b.WriteString(helpStyle.Render("1 search · q quit"))
		return b.String()
	}

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n")
	}
	if m.flash != "" && m.mode == appsBrowsing {
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}

	if summary := summaryLine(m.apps); summary != "" {
		b.WriteString(dimStyle.Render(summary))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("Filter: ") + m.filterName())
	b.WriteString("\n\n")

	filtered := m.filtered()
	switch {
	case m.state == appsLoaded && len(m.apps) == 0:
		b.WriteString(emptyStyle.Render("No applications tracked yet."))
		b.WriteString("\n")
	case m.state == appsLoaded && len(filtered) == 0:
		b.WriteString(emptyStyle.Render("No applications with status " + m.filterName() + "."))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	switch m.mode {
	case appsConfirmDelete:
		prompt := fmt.Sprintf("Remove application for %q at %s? (y/n)",
			m.deleteTarget.Job.Title, m.deleteTarget.Job.Company)
		b.WriteString(errorStyle.Render(prompt))
		b.WriteString("\n")
	case appsDeleting:
		b.WriteString(m.spinner.View() + " Removing…")
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter open · f filter · x remove · r refresh · 1 search · q quit"))

	return b.String()
}
