package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/config"
)

type route int

const (
	routeSearch route = iota
	routeDetail
	routeApplications
)

// openJobMsg routes to the detail view for a job picked in a list.
type openJobMsg struct {
	jobID uuid.UUID
}

// searchMountMsg fires the initial unfiltered search when the program
// starts.
type searchMountMsg struct{}

// App is the root model. It owns the three views and routes messages:
// keys go to the active view, async results go to the view that
// requested them. The detail view mounts fresh for every opened job.
type App struct {
	client aggregator.Client
	cfg    *config.Config
	logger *zap.Logger

	route     route
	backRoute route

	search searchModel
	detail detailModel
	apps   applicationsModel

	width, height int
}

func NewApp(client aggregator.Client, cfg *config.Config, logger *zap.Logger) App {
	return App{
		client: client,
		cfg:    cfg,
		logger: logger,
		route:  routeSearch,
		search: newSearchModel(client, cfg, logger),
		apps:   newApplicationsModel(client, logger),
		width:  100,
		height: 30,
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(client aggregator.Client, cfg *config.Config, logger *zap.Logger) error {
	program := tea.NewProgram(NewApp(client, cfg, logger), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return searchMountMsg{} })
}

func (a App) typingNow() bool {
	switch a.route {
	case routeSearch:
		return a.search.typing()
	case routeDetail:
		return a.detail.typing()
	case routeApplications:
		return a.apps.typing()
	}
	return false
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 2
		a.search.setSize(msg.Width, contentHeight)
		a.apps.setSize(msg.Width, contentHeight)
		if a.route == routeDetail {
			a.detail.setSize(msg.Width, contentHeight)
		}
		return a, nil

	case searchMountMsg:
		var cmd tea.Cmd
		a.search, cmd = a.search.submit(1)
		return a, cmd

	case openJobMsg:
		a.backRoute = a.route
		var cmd tea.Cmd
		a.detail, cmd = newDetailModel(a.client, a.logger, msg.jobID, a.width, a.height-2)
		a.route = routeDetail
		return a, cmd

	case searchResultMsg:
		var cmd tea.Cmd
		a.search, cmd = a.search.update(msg)
		return a, cmd

	case applicationsMsg, applicationDeletedMsg:
		var cmd tea.Cmd
		a.apps, cmd = a.apps.update(msg)
		return a, cmd

	case jobFetchedMsg, applicationSavedMsg:
		if a.route != routeDetail {
			return a, nil
		}
		var cmd tea.Cmd
		a.detail, cmd = a.detail.update(msg)
		return a, cmd

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.search, cmd = a.search.update(msg)
		cmds = append(cmds, cmd)
		a.apps, cmd = a.apps.update(msg)
		cmds = append(cmds, cmd)
		if a.route == routeDetail {
			a.detail, cmd = a.detail.update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a.updateCurrent(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	modal := a.route == routeDetail && a.detail.modalOpen()

	if !a.typingNow() && !modal {
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.SearchTab):
			a.route = routeSearch
			return a, nil

		case key.Matches(msg, keys.ApplicationsTab):
			a.route = routeApplications
			var cmd tea.Cmd
			a.apps, cmd = a.apps.mount()
			return a, cmd
		}
	}

	if key.Matches(msg, keys.Back) {
		switch a.route {
		case routeDetail:
			if a.detail.modalOpen() {
				return a.updateCurrent(msg)
			}
			a.route = a.backRoute
			if a.route == routeApplications {
				var cmd tea.Cmd
				a.apps, cmd = a.apps.mount()
				return a, cmd
			}
			return a, nil

		case routeApplications:
			if a.apps.mode != appsBrowsing {
				return a.updateCurrent(msg)
			}
			a.route = routeSearch
			return a, nil
		}
	}

	return a.updateCurrent(msg)
}

func (a App) updateCurrent(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.route {
	case routeSearch:
		a.search, cmd = a.search.update(msg)
	case routeDetail:
		a.detail, cmd = a.detail.update(msg)
	case routeApplications:
		a.apps, cmd = a.apps.update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	title := titleStyle.Render("JobSearch")

	searchTab := tabStyle.Render("1 Search")
	appsTab := tabStyle.Render("2 Applications")
	crumb := ""
	switch a.route {
	case routeSearch:
		searchTab = activeTabStyle.Render("1 Search")
	case routeApplications:
		appsTab = activeTabStyle.Render("2 Applications")
	case routeDetail:
		crumb = dimStyle.Render(" › job detail")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, title, " ", searchTab, appsTab, crumb)

	var body string
	switch a.route {
	case routeSearch:
		body = a.search.view()
	case routeDetail:
		body = a.detail.view()
	case routeApplications:
		body = a.apps.view()
	}

	return header + "\n\n" + body
}
