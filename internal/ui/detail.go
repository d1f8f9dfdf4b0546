package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
)

type detailState int

const (
	detailLoading detailState = iota
	detailLoaded
	detailError
)

type modalMode int

const (
	modalClosed modalMode = iota
	modalEditing
	modalSaving
)

const (
	modalFocusStatus = iota
	modalFocusNotes
	modalFocusSave
	modalFocusCancel
	modalFocusCount
)

type jobFetchedMsg struct {
	jobID uuid.UUID
	job   *models.Job
	err   error
}

type applicationSavedMsg struct {
	jobID uuid.UUID
	app   *models.Application
	err   error
}

type detailModel struct {
	client aggregator.Client
	logger *zap.Logger
	jobID  uuid.UUID

	state  detailState
	job    *models.Job
	errMsg string

	viewport viewport.Model
	spinner  spinner.Model

	modal      modalMode
	modalFocus int
	statusIdx  int
	notes      textarea.Model
	modalErr   string
	flash      string

	width, height int
}

func newDetailModel(client aggregator.Client, logger *zap.Logger, jobID uuid.UUID, width, height int) (detailModel, tea.Cmd) {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	notes := textarea.New()
	notes.Placeholder = "notes"
	notes.CharLimit = 2000
	notes.SetWidth(50)
	notes.SetHeight(4)

	m := detailModel{
		client:  client,
		logger:  logger,
		jobID:   jobID,
		state:   detailLoading,
		spinner: sp,
		notes:   notes,
		width:   width,
		height:  height,
	}
	m.viewport = viewport.New(width-2, m.viewportHeight())

	return m, tea.Batch(m.spinner.Tick, fetchJobCmd(client, jobID))
}

func fetchJobCmd(client aggregator.Client, jobID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		job, err := client.GetJob(context.Background(), jobID)
		return jobFetchedMsg{jobID: jobID, job: job, err: err}
	}
}

func saveApplicationCmd(client aggregator.Client, jobID uuid.UUID, draft models.ApplicationDraft) tea.Cmd {
	return func() tea.Msg {
		app, err := client.SaveApplication(context.Background(), jobID, draft)
		return applicationSavedMsg{jobID: jobID, app: app, err: err}
	}
}

func (m detailModel) modalOpen() bool {
	return m.modal != modalClosed
}

func (m detailModel) typing() bool {
	return m.modal == modalEditing && m.modalFocus == modalFocusNotes
}

func (m detailModel) viewportHeight() int {
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	return h
}

func (m detailModel) update(msg tea.Msg) (detailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state == detailLoading || m.modal == modalSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case jobFetchedMsg:
		if msg.jobID != m.jobID {
			// Stale fetch from a previously opened job.
			return m, nil
		}
		if msg.err != nil {
			if m.job != nil {
				// A background refresh failed; the loaded job stays up.
				return m, nil
			}
			m.state = detailError
			m.errMsg = errors.Display(msg.err)
			return m, nil
		}
		m.state = detailLoaded
		m.job = msg.job
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case applicationSavedMsg:
		if msg.jobID != m.jobID || m.modal != modalSaving {
			return m, nil
		}
		if msg.err != nil {
			m.modal = modalEditing
			m.modalErr = errors.Display(msg.err)
			return m, nil
		}
		m.modal = modalClosed
		m.flash = "Application saved"
		status := msg.app.Status
		m.job.ApplicationStatus = &status
		m.job.ApplicationNotes = msg.app.Notes
		m.viewport.SetContent(m.renderContent())
		m.logger.Debug("application saved", zap.String("job_id", m.jobID.String()))
		// Refresh the job in the background to pick up anything else the
		// save changed server-side.
		return m, fetchJobCmd(m.client, m.jobID)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m detailModel) handleKey(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	if m.modal == modalSaving {
		return m, nil
	}
	if m.modal == modalEditing {
		return m.handleModalKey(msg)
	}

	if key.Matches(msg, keys.Apply) && m.state == detailLoaded {
		m.openModal()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *detailModel) openModal() {
	m.modal = modalEditing
	m.modalFocus = modalFocusStatus
	m.modalErr = ""
	m.flash = ""

	// Editing starts from the saved application; tracking a new one
	// defaults to Applied.
	if m.job.ApplicationStatus != nil {
		m.statusIdx = statusIndex(*m.job.ApplicationStatus)
	} else {
		m.statusIdx = statusIndex(models.StatusApplied)
	}
	if m.job.ApplicationNotes != nil {
		m.notes.SetValue(*m.job.ApplicationNotes)
	} else {
		m.notes.SetValue("")
	}
	m.notes.Blur()
}

func statusIndex(s models.Status) int {
	for i, known := range models.Statuses() {
		if known == s {
			return i
		}
	}
	return 0
}

func (m detailModel) handleModalKey(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.modal = modalClosed
		m.modalErr = ""
		return m, nil

	case key.Matches(msg, keys.NextField):
		m.setModalFocus((m.modalFocus + 1) % modalFocusCount)
		return m, nil

	case key.Matches(msg, keys.PrevField):
		m.setModalFocus((m.modalFocus + modalFocusCount - 1) % modalFocusCount)
		return m, nil
	}

	switch m.modalFocus {
	case modalFocusStatus:
		statuses := models.Statuses()
		switch msg.String() {
		case "left", "h", "up", "k":
			m.statusIdx = (m.statusIdx + len(statuses) - 1) % len(statuses)
		case "right", "l", "down", "j", " ":
			m.statusIdx = (m.statusIdx + 1) % len(statuses)
		case "enter":
			m.setModalFocus(modalFocusNotes)
		}
		return m, nil

	case modalFocusNotes:
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		return m, cmd

	case modalFocusSave:
		if msg.String() == "enter" {
			return m.save()
		}
		return m, nil

	case modalFocusCancel:
		if msg.String() == "enter" {
			m.modal = modalClosed
			m.modalErr = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *detailModel) setModalFocus(focus int) {
	m.modalFocus = focus
	if focus == modalFocusNotes {
		m.notes.Focus()
	} else {
		m.notes.Blur()
	}
}

func (m detailModel) save() (detailModel, tea.Cmd) {
	m.modal = modalSaving
	m.modalErr = ""

	notes := m.notes.Value()
	draft := models.ApplicationDraft{
		Status: models.Statuses()[m.statusIdx],
		Notes:  &notes,
	}
	return m, tea.Batch(m.spinner.Tick, saveApplicationCmd(m.client, m.jobID, draft))
}

func (m *detailModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 2
	m.viewport.Height = m.viewportHeight()
	if m.job != nil {
		m.viewport.SetContent(m.renderContent())
	}
	notesWidth := width - 20
	if notesWidth > 60 {
		notesWidth = 60
	}
	if notesWidth < 20 {
		notesWidth = 20
	}
	m.notes.SetWidth(notesWidth)
}

func (m detailModel) renderContent() string {
	job := m.job
	var b strings.Builder

	b.WriteString(sectionTitleStyle.Render(job.Title))
	b.WriteString("\n")
	b.WriteString(job.Company + dimStyle.Render(" · "+job.Location))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Posted: ") + formatDate(job.DatePosted))
	b.WriteString(labelStyle.Render("   First seen: ") + formatDate(job.CreatedAt))
	b.WriteString("\n")

	if job.Tracked() {
		b.WriteString(labelStyle.Render("Application: ") + renderStatus(*job.ApplicationStatus))
		if job.ApplicationNotes != nil && *job.ApplicationNotes != "" {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("Notes: ") + *job.ApplicationNotes)
		}
		b.WriteString("\n")
	}

	if len(job.Sources) > 0 {
		b.WriteString(labelStyle.Render("Listings:"))
		b.WriteString("\n")
		for _, src := range job.Sources {
			b.WriteString("  " + src.Source + dimStyle.Render("  "+src.URL))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(m.viewport.Width).Render(job.Description))

	return b.String()
}

func (m detailModel) view() string {
	switch m.state {
	case detailLoading:
		return m.spinner.View() + " Loading job…\n\n" + helpStyle.Render("esc back · q quit")

	case detailError:
		return errorStyle.Render("Error: "+m.errMsg) + "\n\n" + helpStyle.Render("esc back · q quit")
	}

	if m.modal != modalClosed {
		return m.modalView()
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.flash != "" {
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}

	action := "a track application"
	if m.job != nil && m.job.Tracked() {
		action = "a edit application"
	}
	b.WriteString(helpStyle.Render("↑/↓ scroll · " + action + " · esc back · q quit"))
	return b.String()
}

func (m detailModel) modalView() string {
	statuses := models.Statuses()
	status := statuses[m.statusIdx]

	statusLine := "◂ " + renderStatus(status) + " ▸"
	statusLabel := labelStyle.Render("Status: ")
	if m.modalFocus == modalFocusStatus {
		statusLabel = focusedLabelStyle.Render("Status: ")
	}

	notesLabel := labelStyle.Render("Notes:")
	if m.modalFocus == modalFocusNotes {
		notesLabel = focusedLabelStyle.Render("Notes:")
	}

	save := " Save "
	cancel := " Cancel "
	if m.modalFocus == modalFocusSave {
		save = activeTabStyle.Render(save)
	} else {
		save = tabStyle.Render(save)
	}
	if m.modalFocus == modalFocusCancel {
		cancel = activeTabStyle.Render(cancel)
	} else {
		cancel = tabStyle.Render(cancel)
	}

	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Track Application"))
	b.WriteString("\n\n")
	b.WriteString(statusLabel + statusLine)
	b.WriteString("\n\n")
	b.WriteString(notesLabel)
	b.WriteString("\n")
	b.WriteString(m.notes.View())
	b.WriteString("\n\n")

	if m.modal == modalSaving {
		b.WriteString(m.spinner.View() + " Saving…")
	} else {
		b.WriteString(save + "  " + cancel)
	}

	if m.modalErr != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Error: " + m.modalErr))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab fields · enter select · esc cancel"))

	return modalStyle.Render(b.String())
}
