package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"runcoach/internal/service"
)

// DashboardModel is the "today" screen: signals, strategy and fitness
type DashboardModel struct {
	coach        *service.CoachService
	queryService *service.QueryService
	units        Units
	data         *dashboardData
	loading      bool
	err          error
}

type dashboardData struct {
	learning *service.LearningReport
	fitness  *service.FitnessReport
	trend    *service.Trend
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(coach *service.CoachService, qs *service.QueryService, units Units) DashboardModel {
	return DashboardModel{
		coach:        coach,
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

type dashboardDataMsg struct {
	data *dashboardData
	err  error
}

func (m DashboardModel) loadData() tea.Msg {
	today := time.Now()

	lr, err := m.coach.Learning(today)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	fitness, err := m.coach.Fitness(today)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	trend, err := m.queryService.ExecutionTrend("", service.TrendSessions)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: &dashboardData{learning: lr, fitness: fitness, trend: trend}}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available. Press 's' to sync with intervals.icu."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSignalsCard(), "  ", m.renderStrategyCard())
	sections = append(sections, topRow)

	bottom := []string{m.renderFitnessCard()}
	if len(m.data.trend.Execution) > 2 {
		bottom = append(bottom, "  ", m.renderTrendChart())
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, bottom...))

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '3' for this week's plan")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderSignalsCard() string {
	r := m.data.learning.Signals
	s := r.Signals
	title := cardTitleStyle.Render("Signals - " + r.Day.Format("Mon Jan 2"))

	hrv := "-"
	if s.HRVDeltaPct != nil {
		hrv = fmt.Sprintf("%+.1f%%", *s.HRVDeltaPct)
	}
	mono := "-"
	if s.Monotony != nil {
		mono = fmt.Sprintf("%.1f", *s.Monotony)
	}
	stress := s.LifeStress
	if stress == "" {
		stress = fmt.Sprintf("%d warnings", s.WarningCount)
	}
	sleep := "ok"
	if s.RecoverySignals.SleepLow {
		sleep = "short"
	}
	drift := s.DriftSignal
	if drift == "" {
		drift = "-"
	}

	lines := []string{
		RenderMetric("Red flag", yesNo(s.HardRedFlag), ""),
		RenderMetric("Run floor gap", yesNo(s.RunFloorGap), m.units.FormatKm(r.WeekRunKm)+" this week"),
		RenderMetric("Stress", stress, ""),
		RenderMetric("HRV vs baseline", hrv, ""),
		RenderMetric("Sleep", sleep, ""),
		RenderMetric("Drift", drift, ""),
		RenderMetric("Monotony", mono, ""),
	}
	for _, w := range r.Warnings {
		lines = append(lines, warningStyle.Render("! "+w))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(52).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderStrategyCard() string {
	lr := m.data.learning
	d := lr.Signals.Decision
	rec := lr.Evidence.Recommendation
	title := cardTitleStyle.Render("Strategy")

	eligible := "learning"
	if !d.LearningEligible {
		eligible = "not learned from"
	}

	scope := "this context"
	if rec.GlobalFallback {
		scope = "all contexts"
	}

	lines := []string{
		RenderMetric("Today", armStyle(d.Arm).Render(string(d.Arm)), ""),
		mutedStyle.Render(d.PolicyReason + ", " + eligible),
		"",
		RenderMetric("Evidence favours", armStyle(rec.Arm).Render(string(rec.Arm)), ""),
		RenderMetric("Confidence", string(rec.Confidence), fmt.Sprintf("n_eff %.1f", rec.NEff)),
		mutedStyle.Render("from " + scope),
		"",
		mutedStyle.Render(strings.ReplaceAll(lr.Signals.ContextKey.String(), "|", " ")),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderFitnessCard() string {
	f := m.data.fitness
	title := cardTitleStyle.Render("Training Load")

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", f.Current.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", f.Current.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%.0f", f.Current.TSB), ""),
		"",
		mutedStyle.Render(f.Form),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(38).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderTrendChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Execution - last %d sessions", len(m.data.trend.Execution)))

	graph := asciigraph.PlotMany([][]float64{m.data.trend.Execution, m.data.trend.Overall},
		asciigraph.Height(6),
		asciigraph.Width(50),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Default),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph, mutedStyle.Render("green: execution  white: overall")))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
