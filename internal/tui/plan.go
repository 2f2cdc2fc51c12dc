package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runcoach/internal/analysis"
	"runcoach/internal/plan"
	"runcoach/internal/service"
)

// PlanModel shows the weekly plan and the learning narrative behind it
type PlanModel struct {
	coach    *service.CoachService
	units    Units
	date     time.Time
	deload   bool
	weekly   *service.WeeklyPlan
	viewport viewport.Model
	loading  bool
	err      error
	ready    bool
}

// NewPlanModel creates a plan model for the current week
func NewPlanModel(coach *service.CoachService, units Units, width, height int) PlanModel {
	m := PlanModel{
		coach:   coach,
		units:   units,
		date:    time.Now(),
		loading: true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

// Init initializes the plan screen
func (m PlanModel) Init() tea.Cmd {
	return m.loadPlan
}

type planLoadedMsg struct {
	weekly *service.WeeklyPlan
	err    error
}

func (m PlanModel) loadPlan() tea.Msg {
	weekly, err := m.coach.PlanWeek(m.date, service.PlanOptions{Deload: m.deload})
	return planLoadedMsg{weekly: weekly, err: err}
}

// Update handles messages
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.weekly = msg.weekly
		if m.ready && m.weekly != nil {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.weekly != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "[":
			m.date = m.date.AddDate(0, 0, -7)
			m.loading = true
			return m, m.loadPlan
		case "]":
			m.date = m.date.AddDate(0, 0, 7)
			m.loading = true
			return m, m.loadPlan
		case "t":
			m.date = time.Now()
			m.loading = true
			return m, m.loadPlan
		case "d":
			m.deload = !m.deload
			m.loading = true
			return m, m.loadPlan
		case "r":
			m.loading = true
			return m, m.loadPlan
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the plan screen
func (m PlanModel) View() string {
	if m.loading {
		return "\n  Planning week..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  [/]: previous/next week  t: this week  d: toggle deload  j/k: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m PlanModel) renderContent() string {
	w := m.weekly
	res := w.Result

	var sections []string

	title := cardTitleStyle.Render("Week of " + w.WeekStart.Format("Monday, January 2"))
	sub := fmt.Sprintf("VDOT %.1f (%s)  •  CTL %.0f  ATL %.0f  TSB %.0f  •  %s",
		w.VDOT, analysis.GetVDOTLabel(w.VDOT), w.Fitness.CTL, w.Fitness.ATL, w.Fitness.TSB, w.Form)
	sections = append(sections, "", title, mutedStyle.Render(sub), "")

	sections = append(sections, m.renderKey(res.Key))
	sections = append(sections, m.renderWorkouts(res.Workouts))
	sections = append(sections, m.renderAdjustments(res))

	sections = append(sections, sectionStyle.Render("What the log says"))
	sections = append(sections, indent(w.Learning.Narrative), "")

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlanModel) renderKey(k plan.KeySuggestion) string {
	lines := []string{sectionStyle.Render("Key workout")}

	if k.Suppressed() {
		lines = append(lines, warningStyle.Render("  "+k.KeyLabel), "")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "  "+metricValueStyle.Render(k.KeyLabel))
	detail := fmt.Sprintf("  %s, step %d", k.KeyType, k.ProgressionStep)
	if k.TargetPaceSecPerKm > 0 {
		detail += ", target " + m.units.FormatPaceSecPerKm(k.TargetPaceSecPerKm)
	}
	if k.ScalingLevel < 0 {
		detail += fmt.Sprintf(", volume %.0f%%", plan.VolumeFactor(k.ScalingLevel)*100)
	}
	lines = append(lines, mutedStyle.Render(detail))
	if k.Substituted {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  replaces %s", k.RequestedType)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m PlanModel) renderWorkouts(workouts []plan.PlannedWorkout) string {
	lines := []string{sectionStyle.Render("Runs")}

	for _, wo := range workouts {
		row := fmt.Sprintf("  %-3s  %-36s  %s", wo.Date.Format("Mon"), wo.Label, mutedStyle.Render(wo.Provenance))
		if wo.Key {
			row = metricValueStyle.Render(row)
		}
		lines = append(lines, row)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m PlanModel) renderAdjustments(res plan.WeeklyPlanResult) string {
	lines := []string{sectionStyle.Render("Adjustments")}

	flags := []struct {
		on    bool
		label string
	}{
		{res.RunfloorBlocked, "run floor gap"},
		{res.DeloadApplied, "deload"},
		{res.TaperApplied, "taper"},
		{res.ProgressionHeld, "progression held"},
		{res.FrequencyIncreased, "extra easy run"},
	}
	var active []string
	for _, f := range flags {
		if f.on {
			active = append(active, f.label)
		}
	}
	if len(active) > 0 {
		lines = append(lines, "  "+warningStyle.Render(strings.Join(active, ", ")))
	}
	if res.LearnedArm != "" {
		lines = append(lines, "  learned: "+armStyle(res.LearnedArm).Render(string(res.LearnedArm)))
	}
	for _, r := range strings.Split(res.Rationale, "; ") {
		lines = append(lines, mutedStyle.Render("  - "+r))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
