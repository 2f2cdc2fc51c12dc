package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/service"
)

// SessionsModel lists evaluated sessions, newest first
type SessionsModel struct {
	queryService *service.QueryService
	units        Units
	sessions     []service.SessionRow
	cursor       int
	offset       int
	pageSize     int
	loading      bool
	err          error
}

// NewSessionsModel creates a new sessions model
func NewSessionsModel(qs *service.QueryService, units Units) SessionsModel {
	return SessionsModel{
		queryService: qs,
		units:        units,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the sessions screen
func (m SessionsModel) Init() tea.Cmd {
	return m.load
}

type sessionsLoadedMsg struct {
	sessions []service.SessionRow
	err      error
}

func (m SessionsModel) load() tea.Msg {
	sessions, err := m.queryService.Sessions(service.RecentSessionLimit)
	return sessionsLoadedMsg{sessions: sessions, err: err}
}

// OpenSessionDetailMsg asks the app to show one session
type OpenSessionDetailMsg struct {
	ActivityID string
}

// Update handles messages
func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.sessions = msg.sessions
		if m.cursor >= len(m.sessions) {
			m.cursor, m.offset = 0, 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
			}
		case "pgup":
			m.cursor = max(m.cursor-m.pageSize, 0)
		case "pgdown":
			m.cursor = max(min(m.cursor+m.pageSize, len(m.sessions)-1), 0)
		case "r":
			m.loading = true
			return m, m.load
		case "enter":
			if m.cursor < len(m.sessions) {
				id := m.sessions[m.cursor].Activity.ID
				return m, func() tea.Msg {
					return OpenSessionDetailMsg{ActivityID: id}
				}
			}
		}
		// keep the cursor on the visible page
		if m.cursor < m.offset {
			m.offset = m.cursor
		} else if m.cursor >= m.offset+m.pageSize {
			m.offset = m.cursor - m.pageSize + 1
		}
	}
	return m, nil
}

// View renders the sessions list
func (m SessionsModel) View() string {
	if m.loading {
		return "\n  Loading sessions..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.sessions) == 0 {
		return "\n  No evaluated sessions yet. Press 's' to sync with intervals.icu."
	}

	var sections []string

	end := min(m.offset+m.pageSize, len(m.sessions))
	title := cardTitleStyle.Render(fmt.Sprintf("Sessions (%d-%d of %d)", m.offset+1, end, len(m.sessions)))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-8s  %-24s  %8s  %-9s  %4s  %4s  %4s  %4s  %-10s",
		"Date", "Name", "Distance", "Intent", "Reps", "Exec", "Dose", "Ovr", "Grade"))
	sections = append(sections, header)

	for i := m.offset; i < end; i++ {
		s := m.sessions[i]
		a := s.Activity
		e := s.Evaluation

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-8s  %-24s  %8s  %-9s  %4d  %4d  %4d  %4d  %-10s",
			cursor,
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 24),
			m.units.FormatDistance(a.Distance),
			e.PlannedIntent,
			e.RepCount,
			e.Execution,
			e.Dose,
			e.Overall,
			s.Label,
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: view details  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
