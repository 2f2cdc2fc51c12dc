package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/service"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	spinner     spinner.Model
	syncing     bool
	progress    service.SyncProgress
	updates     <-chan service.SyncProgress
	results     <-chan SyncDoneMsg
	result      *service.SyncResult
	err         error
	finished    bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	return SyncModel{
		syncService: ss,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(navActiveStyle)),
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		return m, waitForSync(m.updates, m.results)

	case SyncDoneMsg:
		m.syncing = false
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.syncing {
			switch msg.String() {
			case "enter", "s":
				return m.start()
			}
		}
	}
	return m, nil
}

// start runs the sync in the background and streams its progress back
func (m SyncModel) start() (SyncModel, tea.Cmd) {
	updates := make(chan service.SyncProgress, 16)
	results := make(chan SyncDoneMsg, 1)

	go func() {
		result, err := m.syncService.SyncAll(context.Background(), updates)
		results <- SyncDoneMsg{Result: result, Err: err}
	}()

	m.syncing = true
	m.finished = false
	m.err = nil
	m.result = nil
	m.progress = service.SyncProgress{}
	m.updates = updates
	m.results = results

	return m, tea.Batch(m.spinner.Tick, waitForSync(updates, results))
}

// waitForSync delivers the next progress update, or the result once the
// progress channel is closed
func waitForSync(updates <-chan service.SyncProgress, results <-chan SyncDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-updates; ok {
			return syncProgressMsg(p)
		}
		return <-results
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("intervals.icu Sync")
	sections = append(sections, title)

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.finished && !m.syncing {
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to the dashboard or '2' for sessions"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.syncing {
		sections = append(sections, m.renderProgress())
	} else {
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will sync your intervals.icu data:",
		"",
		"  1. Fetch new runs",
		"  2. Fetch wellness (HRV, resting HR, sleep, stress)",
		"  3. Download intervals and streams, then score each session",
		"",
	}

	if short, daily, ok := m.syncService.RateLimitStatus(); ok {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  API budget left: %d this minute, %d today", short, daily)))
		lines = append(lines, "")
	}
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

var syncPhases = []struct {
	phase string
	label string
}{
	{"activities", "Fetching runs"},
	{"wellness", "Fetching wellness"},
	{"sessions", "Scoring sessions"},
}

func (m SyncModel) renderProgress() string {
	lines := []string{""}

	current := -1
	for i, p := range syncPhases {
		if p.phase == m.progress.Phase {
			current = i
		}
	}

	for i, p := range syncPhases {
		switch {
		case i < current:
			lines = append(lines, successStyle.Render("  ✓ "+p.label))
		case i == current:
			lines = append(lines, "  "+m.spinner.View()+" "+p.label)
		default:
			lines = append(lines, mutedStyle.Render("    "+p.label))
		}
	}

	if pr := m.progress; pr.Total > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("  %s %d/%d",
			RenderProgressBar(float64(pr.Completed)/float64(pr.Total), 30), pr.Completed, pr.Total))
		if pr.CurrentActivity != "" {
			lines = append(lines, mutedStyle.Render("  "+truncateName(pr.CurrentActivity, 40)))
		}
	}

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	lines := []string{""}

	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d runs synced (%d total)", r.ActivitiesStored, r.TotalActivities)))
	} else {
		lines = append(lines, statusStyle.Render("  No new runs"))
	}

	if r.WellnessDays > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d wellness days", r.WellnessDays)))
	}

	if r.SessionsEvaluated > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d sessions scored, %d with intervals", r.SessionsEvaluated, r.IntervalSessions)))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
		for _, err := range r.Errors {
			lines = append(lines, mutedStyle.Render("  "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}
