package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/detail"
	"github.com/five82/marquee/internal/omdb"
	"github.com/five82/marquee/internal/search"
	"github.com/five82/marquee/internal/state"
)

// renderMain renders the header, the active view and the footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.view {
	case viewDetail:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderSearch())
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Styles().Footer.Width(m.width).Render(m.renderShortHelp()))
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	phase := m.searchSnap.Phase
	if m.view == viewDetail {
		phase = m.detailSnap.Phase
	}
	parts := []string{
		bg.Render("MARQUEE", styles.Logo),
		styles.PhaseBadge(phase).Render(phase.String()),
	}
	if m.search != nil {
		parts = append(parts, bg.Render(m.search.Mode().String()+" filter", styles.MutedText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	snap := m.searchSnap

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.searchStatus(snap))
	b.WriteString("\n\n")

	listHeight := m.height - chromeHeight
	if listHeight < 1 {
		listHeight = 1
	}
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := start + listHeight
	if end > len(snap.Visible) {
		end = len(snap.Visible)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := padRight(resultLine(snap.Visible[i], m.width), m.width)
		if i == m.cursor {
			lines = append(lines, styles.Selected.Render(line))
			continue
		}
		lines = append(lines, styles.Text.Render(line))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (m Model) searchStatus(snap search.Snapshot) string {
	styles := m.theme.Styles()
	switch {
	case snap.IsLoading:
		return m.spinner.View() + " " + styles.InfoText.Render("Searching…")
	case snap.Phase == state.Failure:
		return styles.DangerText.Render(snap.Message())
	case snap.Message() != "":
		return styles.WarningText.Render(snap.Message())
	case snap.Phase == state.Success:
		return styles.MutedText.Render(resultCount(snap))
	default:
		return styles.FaintText.Render("Type to search the catalog")
	}
}

func resultCount(snap search.Snapshot) string {
	shown := len(snap.Visible)
	total := snap.TotalCount
	if total < len(snap.Results) {
		total = len(snap.Results)
	}
	if shown == total {
		return fmt.Sprintf("%d results", shown)
	}
	return fmt.Sprintf("%d of %d results", shown, total)
}

// resultLine formats one result row to fit width.
func resultLine(item omdb.ResultItem, width int) string {
	title := item.Title.Or(placeholder)
	if width > 0 && width < compactWidth {
		return truncate(title, width)
	}
	meta := fmt.Sprintf("%s  %s", item.Year.Or(placeholder), item.Type.Or(placeholder))
	titleWidth := width - len([]rune(meta)) - 4
	if titleWidth < 10 {
		titleWidth = 10
	}
	return " " + padRight(truncate(title, titleWidth), titleWidth) + "  " + meta
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	snap := m.detailSnap

	var status string
	switch {
	case snap.IsLoading:
		status = m.spinner.View() + " " + styles.InfoText.Render("Loading…")
	case snap.Phase == state.Failure:
		status = styles.DangerText.Render(snap.Message())
	case snap.Phase == state.NotFound:
		status = styles.WarningText.Render(snap.Message())
	default:
		status = styles.MutedText.Render(snap.ID)
	}
	if label := retainedLabel(snap); label != "" {
		status += "  " + styles.MutedText.Render(label)
	}
	return status + "\n\n" + m.detailViewport.View()
}

// retainedLabel names the record still on screen while another lookup is
// loading or after it failed.
func retainedLabel(snap detail.Snapshot) string {
	if !snap.HasRecord || snap.Phase == state.Success {
		return ""
	}
	label := "showing previous: " + snap.Record.Title.Or(placeholder)
	if snap.Record.ID != "" {
		label += " (" + snap.Record.ID + ")"
	}
	return label
}

func (m *Model) refreshDetailViewport() {
	if m.detailViewport.Width == 0 {
		return
	}
	m.detailViewport.SetContent(detailContent(m.detailSnap.Record, m.detailSnap.HasRecord, m.theme, m.width))
}

// detailField is one labelled row of the detail view.
type detailField struct {
	label string
	value omdb.Text
}

// detailContent renders a record for the detail viewport. Absent fields are
// shown as the placeholder.
func detailContent(rec omdb.DetailRecord, ok bool, theme Theme, width int) string {
	if !ok {
		return ""
	}
	styles := theme.Styles()
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent)).Width(12)

	var b strings.Builder
	title := rec.Title.Or(placeholder)
	if year, ok := rec.Year.Get(); ok {
		title += " (" + year + ")"
	}
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")

	fields := []detailField{
		{"Released", rec.Released},
		{"Rated", rec.Rated},
		{"Runtime", rec.Runtime},
		{"Genre", rec.Genre},
		{"Director", rec.Director},
		{"Writer", rec.Writer},
		{"Actors", rec.Actors},
		{"Language", rec.Language},
		{"Country", rec.Country},
		{"Awards", rec.Awards},
		{"Box office", rec.BoxOffice},
		{"IMDb", imdbScore(rec)},
		{"Metascore", rec.Metascore},
	}
	for _, f := range fields {
		b.WriteString(label.Render(f.label))
		b.WriteString(styles.Text.Render(f.value.Or(placeholder)))
		b.WriteString("\n")
	}
	for _, r := range rec.Ratings {
		b.WriteString(label.Render(truncate(r.Source.Or(placeholder), 11)))
		b.WriteString(styles.Text.Render(r.Value.Or(placeholder)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	plotWidth := width - 2
	if plotWidth > 100 {
		plotWidth = 100
	}
	plot := wrap(rec.Plot.Or(placeholder), plotWidth)
	b.WriteString(styles.MutedText.Render(strings.Join(plot, "\n")))
	return b.String()
}

func imdbScore(rec omdb.DetailRecord) omdb.Text {
	rating, ok := rec.IMDbRating.Get()
	if !ok {
		return omdb.Text{}
	}
	if votes, ok := rec.IMDbVotes.Get(); ok {
		return omdb.Some(rating + " (" + votes + " votes)")
	}
	return omdb.Some(rating)
}
