package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/variants"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{
		bg.Render("varlens", styles.Logo),
		bg.Render("app:", styles.MutedText) + bg.Space() + bg.Render(m.session.AppID(), styles.Text),
		bg.Render(string(m.session.Mode()), styles.InfoText),
	}

	if m.healthSnap.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if loaded := m.session.Loaded(); loaded.IsReady() {
		parts = append(parts,
			bg.Render("Loaded:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", len(loaded.Value.Variants), loaded.Value.Total), styles.Text))
	}

	if m.stats.IsReady() && !compact {
		st := m.stats.Value
		parts = append(parts,
			bg.Render("Active:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", st.Active), styles.SuccessText)+
				bg.Spaces(2)+bg.Render("Archived:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", st.Archived), styles.FaintText)+
				bg.Spaces(2)+bg.Render("Deployed:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", st.Deployed), styles.InfoText))
	}

	if n := len(m.session.Selected()); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d selected", n), styles.AccentText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	maxErr := 80
	if compact {
		maxErr = 40
	}
	if m.rows.State == querycache.StateFailed && m.rows.Err != nil {
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(m.rows.Err.Error(), maxErr), styles.DangerText))
	} else if err := m.healthSnap.LastError; err != nil {
		parts = append(parts,
			bg.Render(classifyConnectionError(err), styles.DangerText)+bg.Space()+
				bg.Render(truncate(err.Error(), maxErr), styles.WarningText))
	}

	if m.notice != "" {
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.notice, maxErr), styles.WarningText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last refresher pass with a relative indicator.
func (m Model) formatTimestamp() string {
	last := m.healthSnap.LastRefreshed
	if last.IsZero() {
		return ""
	}
	since := m.now().Sub(last)
	ts := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	default:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short label for a fetch error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "status 404"):
		return "NOT FOUND"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"f", m.filterMode.label()},
		{"/", "Search"},
		{"Space", "Select"},
		{"r", "Refresh"},
	}
	if m.win.HasMore && m.session.Mode() == variants.ModeWindowed {
		commands = append(commands, cmd{"n", "More"})
	}
	commands = append(commands,
		cmd{"+/-", fmt.Sprintf("Page %d", m.win.Limit)},
		cmd{"L", "Link"},
		cmd{"Tab", "Focus"},
		cmd{"?", "Help"},
	)

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+3)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if q := m.session.Filter().Search; q != "" {
		segments = append(segments, bg.Render("/"+truncate(q, 18), styles.AccentText))
	}
	if link := m.session.Link(); !link.Empty() {
		segments = append(segments, bg.Render(fmt.Sprintf("link:%d", len(link.PriorityIDs)), styles.WarningText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}
