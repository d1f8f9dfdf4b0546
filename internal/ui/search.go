package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
)

type searchState int

const (
	searchIdle searchState = iota
	searchLoading
	searchLoaded
	searchError
)

const (
	focusQuery = iota
	focusCompany
	focusLocation
	focusDays
	focusSource
	focusSort
	focusResults
	focusCount
)

var sourceOptions = []string{"", models.SourceLinkedIn, models.SourceIndeed, models.SourceGreenhouse, models.SourceLever, models.SourceManual}

var sortOptions = []string{aggregator.SortRelevance, aggregator.SortDate}

type searchResultMsg struct {
	token int
	page  *models.SearchPage
	err   error
}

type searchModel struct {
	client aggregator.Client
	cfg    *config.Config
	logger *zap.Logger

	query     textinput.Model
	company   textinput.Model
	location  textinput.Model
	days      textinput.Model
	sourceIdx int
	sortIdx   int

	focus   int
	table   table.Model
	spinner spinner.Model

	state  searchState
	page   *models.SearchPage
	errMsg string

	// fetchToken identifies the newest in-flight search; results
	// stamped with an older token are discarded.
	fetchToken int
	cancel     context.CancelFunc

	width, height int
}

func newSearchModel(client aggregator.Client, cfg *config.Config, logger *zap.Logger) searchModel {
	query := textinput.New()
	query.Placeholder = "title or description, prefix a term with - to exclude"
	query.Prompt = ""
	query.CharLimit = 200
	query.Width = 48
	query.Focus()

	company := textinput.New()
	company.Prompt = ""
	company.CharLimit = 100
	company.Width = 16

	location := textinput.New()
	location.Prompt = ""
	location.CharLimit = 100
	location.Width = 16

	days := textinput.New()
	days.Prompt = ""
	days.CharLimit = 4
	days.Width = 5
	days.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	t := table.New(
		table.WithColumns(searchColumns(100)),
		table.WithHeight(12),
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

	return searchModel{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		query:    query,
		company:  company,
		location: location,
		days:     days,
		spinner:  sp,
		table:    t,
		state:    searchIdle,
		width:    100,
		height:   30,
	}
}

func searchColumns(width int) []table.Column {
	rest := width - (10 + 6 + 12 + 14) - 12
	if rest < 30 {
		rest = 30
	}
	title := rest * 4 / 10
	company := rest * 3 / 10
	location := rest - title - company
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Company", Width: company},
		{Title: "Location", Width: location},
		{Title: "Posted", Width: 10},
		{Title: "Score", Width: 6},
		{Title: "Status", Width: 12},
		{Title: "Sources", Width: 14},
	}
}

func searchRows(results []models.JobSummary) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, job := range results {
		rows = append(rows, table.Row{
			job.Title,
			job.Company,
			job.Location,
			formatDate(job.DatePosted),
			formatScore(job.RelevanceScore),
			formatStatus(job.ApplicationStatus),
			joinSources(job.Sources),
		})
	}
	return rows
}

func searchCmd(ctx context.Context, client aggregator.Client, params aggregator.SearchParams, token int) tea.Cmd {
	return func() tea.Msg {
		page, err := client.SearchJobs(ctx, params)
		return searchResultMsg{token: token, page: page, err: err}
	}
}

// typing reports whether keystrokes currently belong to a text field,
// so the shell leaves shortcut keys alone.
func (m searchModel) typing() bool {
	return m.focus <= focusDays
}

func (m searchModel) canPrevPage() bool {
	return m.state != searchLoading && m.page != nil && m.page.Page > 1
}

func (m searchModel) canNextPage() bool {
	return m.state != searchLoading && m.page != nil && m.page.Page < m.page.LastPage()
}

func (m searchModel) buildParams(page int) aggregator.SearchParams {
	days := 0
	if v := strings.TrimSpace(m.days.Value()); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	// The query goes to the server exactly as typed; operators like
	// leading - are part of the search syntax.
	return aggregator.SearchParams{
		Query:    m.query.Value(),
		Company:  strings.TrimSpace(m.company.Value()),
		Location: strings.TrimSpace(m.location.Value()),
		Days:     days,
		Source:   sourceOptions[m.sourceIdx],
		Sort:     sortOptions[m.sortIdx],
		Page:     page,
		PageSize: m.cfg.SearchPageSize,
	}
}

func (m searchModel) submit(page int) (searchModel, tea.Cmd) {
	m.fetchToken++
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.state = searchLoading
	m.errMsg = ""

	params := m.buildParams(page)
	m.logger.Debug("submitting search",
		zap.String("query", params.Query),
		zap.Int("page", params.Page))

	return m, tea.Batch(m.spinner.Tick, searchCmd(ctx, m.client, params, m.fetchToken))
}

func (m *searchModel) moveFocus(delta int) {
	focus := ((m.focus+delta)%focusCount + focusCount) % focusCount
	if focus == focusResults && (m.page == nil || len(m.page.Results) == 0) {
		// No results to land on, skip past the table.
		focus = ((focus+delta)%focusCount + focusCount) % focusCount
	}
	m.setFocus(focus)
}

func (m *searchModel) setFocus(focus int) {
	m.focus = focus

	inputs := []*textinput.Model{&m.query, &m.company, &m.location, &m.days}
	for i, input := range inputs {
		if i == focus {
			input.Focus()
		} else {
			input.Blur()
		}
	}
	if focus == focusResults {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m searchModel) update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state == searchLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case searchResultMsg:
		if msg.token != m.fetchToken {
			// A newer search superseded this one.
			return m, nil
		}
		if msg.err != nil {
			m.state = searchError
			m.errMsg = errors.Display(msg.err)
			m.logger.Debug("search failed", zap.String("error", m.errMsg))
			return m, nil
		}
		m.state = searchLoaded
		m.page = msg.page
		m.table.SetRows(searchRows(msg.page.Results))
		m.table.SetCursor(0)
		if len(msg.page.Results) > 0 {
			m.setFocus(focusResults)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m searchModel) handleKey(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextField):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, keys.PrevField):
		m.moveFocus(-1)
		return m, nil

	case key.Matches(msg, keys.Back):
		// Esc leaves the form for the result table, where the tab and
		// quit shortcuts apply.
		if m.focus != focusResults && m.page != nil && len(m.page.Results) > 0 {
			m.setFocus(focusResults)
		}
		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.focus == focusResults {
			return m, m.openSelected()
		}
		return m.submit(1)
	}

	switch m.focus {
	case focusSource:
		switch msg.String() {
		case "left", "h":
			m.sourceIdx = (m.sourceIdx + len(sourceOptions) - 1) % len(sourceOptions)
		case "right", "l", " ":
			m.sourceIdx = (m.sourceIdx + 1) % len(sourceOptions)
		}
		return m, nil

	case focusSort:
		switch msg.String() {
		case "left", "h", "right", "l", " ":
			m.sortIdx = (m.sortIdx + 1) % len(sortOptions)
		}
		return m, nil

	case focusResults:
		switch {
		case key.Matches(msg, keys.PrevPage):
			if m.canPrevPage() {
				return m.submit(m.page.Page - 1)
			}
			return m, nil
		case key.Matches(msg, keys.NextPage):
			if m.canNextPage() {
				return m.submit(m.page.Page + 1)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusQuery:
		m.query, cmd = m.query.Update(msg)
	case focusCompany:
		m.company, cmd = m.company.Update(msg)
	case focusLocation:
		m.location, cmd = m.location.Update(msg)
	case focusDays:
		m.days, cmd = m.days.Update(msg)
	}
	return m, cmd
}

func (m searchModel) openSelected() tea.Cmd {
	if m.page == nil || len(m.page.Results) == 0 {
		return nil
	}
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.page.Results) {
		return nil
	}
	jobID := m.page.Results[cursor].JobID
	return func() tea.Msg {
		return openJobMsg{jobID: jobID}
	}
}

func (m *searchModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(searchColumns(width))
	m.table.SetWidth(width - 2)

	tableHeight := height - 12
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
}

func (m searchModel) optionLabel(focus int, value string) string {
	if value == "" {
		value = "any"
	}
	if m.focus == focus {
		return focusedLabelStyle.Render("◂ " + value + " ▸")
	}
	return value
}

func (m searchModel) label(focus int, text string) string {
	if m.focus == focus {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (m searchModel) view() string {
	var b strings.Builder

	b.WriteString(m.label(focusQuery, "Query: "))
	b.WriteString(m.query.View())
	b.WriteString("\n")

	filters := []string{
		m.label(focusCompany, "Company: ") + m.company.View(),
		m.label(focusLocation, "Location: ") + m.location.View(),
		m.label(focusDays, "Days: ") + m.days.View(),
		m.label(focusSource, "Source: ") + m.optionLabel(focusSource, sourceOptions[m.sourceIdx]),
		m.label(focusSort, "Sort: ") + m.optionLabel(focusSort, sortOptions[m.sortIdx]),
	}
	b.WriteString(strings.Join(filters, dimStyle.Render("  │  ")))
	b.WriteString("\n\n")

	switch m.state {
	case searchLoading:
		b.WriteString(m.spinner.View() + " Searching…")
		b.WriteString("\n\n")
	case searchError:
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
		if m.page != nil {
			b.WriteString(dimStyle.Render("  (showing previous results)"))
		}
		b.WriteString("\n\n")
	case searchLoaded:
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d jobs", m.page.Total)))
		b.WriteString("\n\n")
	case searchIdle:
		b.WriteString(dimStyle.Render("Enter a query and press enter to search."))
		b.WriteString("\n\n")
	}

	if m.state == searchLoaded && m.page.Total == 0 {
		b.WriteString(emptyStyle.Render("No jobs found."))
		b.WriteString("\n")
	} else if m.page != nil && len(m.page.Results) > 0 {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(m.paginationView())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab fields · esc results · enter search/open · ←/→ page · 2 applications · q quit"))

	return b.String()
}

func (m searchModel) paginationView() string {
	if m.page == nil || m.page.LastPage() <= 1 {
		return ""
	}
	prev := "← prev"
	if !m.canPrevPage() {
		prev = dimStyle.Render(prev)
	}
	next := "next →"
	if !m.canNextPage() {
		next = dimStyle.Render(next)
	}
	return fmt.Sprintf("%s  page %d/%d  %s", prev, m.page.Page, m.page.LastPage(), next)
}
