package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"runcoach/internal/analysis"
	"runcoach/internal/service"
)

// SessionDetailModel shows the scores of one session in a scrolling viewport
type SessionDetailModel struct {
	queryService *service.QueryService
	units        Units
	activityID   string
	detail       *service.SessionDetail
	viewport     viewport.Model
	loading      bool
	err          error
	ready        bool
}

// NewSessionDetailModel creates a new session detail model
func NewSessionDetailModel(qs *service.QueryService, units Units, activityID string, width, height int) SessionDetailModel {
	m := SessionDetailModel{
		queryService: qs,
		units:        units,
		activityID:   activityID,
		loading:      true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // header and footer
		m.ready = true
	}

	return m
}

// Init initializes the session detail screen
func (m SessionDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type sessionDetailLoadedMsg struct {
	detail *service.SessionDetail
	err    error
}

func (m SessionDetailModel) loadDetail() tea.Msg {
	detail, err := m.queryService.GetSessionDetail(m.activityID)
	return sessionDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m SessionDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the session detail screen
func (m SessionDetailModel) View() string {
	if m.loading {
		return "\n  Loading session..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m SessionDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	sections := []string{
		m.renderHeader(),
		m.renderScores(),
		m.renderExecution(),
		m.renderRecovery(),
	}

	if m.detail.Delta != nil {
		sections = append(sections, m.renderDelta())
	}
	if len(m.detail.Notes) > 0 {
		sections = append(sections, m.renderNotes())
	}
	if len(m.detail.PaceData) > 5 {
		sections = append(sections, m.renderChart(
			fmt.Sprintf("Pace Over Time (%s)", m.units.PaceLabel()),
			m.units.ConvertPaceData(m.detail.PaceData)))
	}
	if len(m.detail.HRData) > 5 {
		sections = append(sections, m.renderChart("Heart Rate Over Time (bpm)", m.detail.HRData))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SessionDetailModel) renderHeader() string {
	a := m.detail.Activity
	title := cardTitleStyle.Render(a.Name)

	date := a.StartDateLocal.Format("Monday, January 2, 2006 at 3:04 PM")
	subtitle := mutedStyle.Render(date)

	stats := fmt.Sprintf("%s  •  %s  •  %s",
		m.units.FormatDistance(a.Distance),
		formatDuration(a.MovingTime),
		m.units.FormatPaceWithUnit(a.MovingTime, a.Distance))
	if hr := m.detail.Stats.AvgHR(); hr > 0 {
		stats += fmt.Sprintf("  •  %.0f bpm", hr)
	}
	if cad := m.detail.Stats.AvgCadence(); cad > 0 {
		stats += fmt.Sprintf("  •  %.0f spm", cad)
	}
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, statsLine, "")
}

func (m SessionDetailModel) renderScores() string {
	e := m.detail.Evaluation

	lines := []string{sectionStyle.Render("Scores")}
	for _, s := range []struct {
		label string
		score int
	}{
		{"Execution", e.Execution},
		{"Dose", e.Dose},
		{"Strain", e.Strain},
		{"Intent match", e.IntentMatch},
		{"Overall", e.Overall},
	} {
		bar := RenderProgressBar(float64(s.score)/100, 30)
		lines = append(lines, fmt.Sprintf("  %-14s %s %s", s.label, bar, scoreStyle(s.score).Render(fmt.Sprintf("%3d", s.score))))
	}
	lines = append(lines, fmt.Sprintf("  Planned %s, looked %s, %d reps",
		e.PlannedIntent, e.ClassifiedIntent, e.RepCount))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SessionDetailModel) renderExecution() string {
	e := m.detail.Evaluation

	lines := []string{sectionStyle.Render("Execution")}
	lines = append(lines, fmt.Sprintf("  Pace variation:       %s", pctOrDash(e.PaceCV, 100)))
	lines = append(lines, fmt.Sprintf("  Fade (last vs first): %s", pctOrDash(e.FadePct, 1)))
	lines = append(lines, fmt.Sprintf("  Avg HR of max:        %s", pctOrDash(e.AvgHRFrac, 100)))
	if e.CadenceDrop != nil {
		lines = append(lines, fmt.Sprintf("  Cadence drop:         %.0f spm", *e.CadenceDrop))
	}
	if e.Decoupling != nil {
		lines = append(lines, fmt.Sprintf("  Decoupling:           %.1f%% (%s)", *e.Decoupling, analysis.DriftSignal(e.Decoupling)))
		lines = append(lines, mutedStyle.Render("                        "+analysis.DecouplingAssessment(*e.Decoupling)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SessionDetailModel) renderRecovery() string {
	e := m.detail.Evaluation

	lines := []string{sectionStyle.Render("Recovery (HR drop 60 s after each rep)")}
	switch {
	case e.HRR60Count == nil:
		lines = append(lines, mutedStyle.Render("  no stream data"))
	case *e.HRR60Count == 0:
		lines = append(lines, mutedStyle.Render("  no qualifying recoveries"))
	default:
		lines = append(lines, fmt.Sprintf("  %d recoveries, median %.0f bpm (%.0f-%.0f)",
			*e.HRR60Count, deref(e.HRR60Median), deref(e.HRR60Min), deref(e.HRR60Max)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SessionDetailModel) renderDelta() string {
	d := m.detail.Delta

	lines := []string{sectionStyle.Render(fmt.Sprintf("vs %s session on %s", d.Previous.PlannedIntent, d.Previous.Date))}
	lines = append(lines, "  "+RenderMetric("Avg rep", fmt.Sprintf("%+.0f s", d.AvgRepSec), ""))
	lines = append(lines, "  "+RenderMetric("Quality volume", fmt.Sprintf("%+.0f m", d.QualityVolumeM), signed(d.QualityVolumeM)))
	if d.EfficiencyRatio != nil {
		lines = append(lines, "  "+RenderMetric("Efficiency", fmt.Sprintf("%+.3f", *d.EfficiencyRatio), signed(*d.EfficiencyRatio)))
	}
	lines = append(lines, "  "+RenderMetric("Execution", fmt.Sprintf("%+d", d.Execution), signed(float64(d.Execution))))
	lines = append(lines, "  "+RenderMetric("Overall", fmt.Sprintf("%+d", d.Overall), signed(float64(d.Overall))))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SessionDetailModel) renderNotes() string {
	lines := []string{sectionStyle.Render("Notes")}
	for _, n := range m.detail.Notes {
		lines = append(lines, "  • "+n)
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SessionDetailModel) renderChart(title string, data []float64) string {
	lines := []string{sectionStyle.Render(title)}

	if len(data) > 60 {
		data = downsample(data, 60)
	}
	data = trimTrailingZeros(data)

	if len(data) > 2 {
		lines = append(lines, asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(50),
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// downsample averages data into targetLen buckets, ignoring zero samples
func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := min(int(float64(i+1)*ratio), len(data))

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			if data[j] > 0 {
				sum += data[j]
				count++
			}
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}

func trimTrailingZeros(data []float64) []float64 {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func pctOrDash(v *float64, scale float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v*scale)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// signed turns a change into a trend arrow for RenderMetric
func signed(v float64) string {
	switch {
	case v > 0:
		return "↑"
	case v < 0:
		return "↓"
	}
	return ""
}
