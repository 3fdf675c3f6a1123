package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/logtail"
)

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Log") + " " + styles.FaintText.Render(m.logPath)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(m.width - 2).
		Height(m.height - 3)
	return title + "\n" + box.Render(m.logViewport.View())
}

func (m *Model) refreshLogViewport() {
	if m.logViewport.Width == 0 {
		return
	}
	styles := m.theme.Styles()
	if m.logErr != nil {
		m.logViewport.SetContent(styles.DangerText.Render(m.logErr.Error()))
		return
	}
	if len(m.logEntries) == 0 {
		m.logViewport.SetContent(styles.FaintText.Render("No log entries yet"))
		return
	}
	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		lines = append(lines, m.colorizeEntry(e))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	m.logViewport.GotoBottom()
}

func (m Model) colorizeEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	level := styles.MutedText
	switch strings.ToLower(e.Level) {
	case "warn":
		level = styles.WarningText
	case "error", "fatal", "panic":
		level = styles.DangerText
	case "debug", "trace":
		level = styles.InfoText
	}
	text := formatEntry(e)
	if e.Level == "" {
		return styles.Text.Render(text)
	}
	return level.Render(text)
}

// formatEntry renders a log entry as one plain line.
func formatEntry(e logtail.Entry) string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Raw
	}
	parts := make([]string, 0, 4)
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.In(time.Local).Format("15:04:05"))
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if e.Component != "" {
		parts = append(parts, "["+e.Component+"]")
	}
	line := strings.Join(parts, " ")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		line += " " + msg
	}
	if fields := e.FieldList(); len(fields) > 0 {
		line += "  " + strings.Join(fields, " ")
	}
	return line
}
