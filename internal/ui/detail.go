package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/querycache"
)

// maxDetailRevisions bounds the revision history shown in the detail pane.
const maxDetailRevisions = 20

func (m *Model) resizeDetail() {
	_, detailWidth := m.paneWidths()
	m.detailViewport.Width = max(detailWidth-2, 0)
	m.detailViewport.Height = max(m.contentHeight()-2, 0)
}

// syncDetail re-renders the detail pane for the row under the cursor. The
// variant and revision lookups start fetches when the data is missing.
func (m *Model) syncDetail() {
	if m.detailViewport.Width == 0 {
		return
	}
	content := m.renderDetailContent(m.detailViewport.Width - 2)
	m.detailViewport.SetContent(content)
}

func (m Model) renderDetailContent(width int) string {
	styles := m.theme.Styles()
	muted := styles.MutedText
	if m.cursor >= len(m.rows.Value) {
		return muted.Render("Select a variant")
	}
	row := m.rows.Value[m.cursor]
	if row.IsSkeleton() {
		return muted.Render("Loading…")
	}
	id := row.ID()

	res := m.session.Variant(id)
	switch res.State {
	case querycache.StateFailed:
		return styles.DangerText.Render(truncate("Failed to load variant: "+errString(res.Err), width))
	case querycache.StateLoading:
		return muted.Render("Loading variant " + id + "…")
	}
	v := res.Value

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(truncate(variantTitle(v), width)))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(12)
	field := func(name, value string, style lipgloss.Style) {
		if value == "" {
			return
		}
		b.WriteString(label.Render(name))
		b.WriteString(style.Render(truncate(value, max(width-12, 4))))
		b.WriteString("\n")
	}
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(v.Status)))
	field("ID", v.ID, styles.Text)
	field("Revision", fmt.Sprintf("v%d", v.Revision), styles.Text)
	field("Status", titleCase(v.Status), statusStyle)
	field("Deployed", strings.Join(v.DeployedIn, ", "), styles.InfoText)
	if !v.UpdatedAt.IsZero() {
		field("Updated", v.UpdatedAt.Format("2006-01-02 15:04")+" ("+humanizeAge(v.UpdatedAt, m.now())+")", styles.Text)
	}
	field("Modified by", v.ModifiedByID, styles.Text)
	field("URI", v.URI, styles.FaintText)
	if v.Description != "" {
		b.WriteString("\n")
		b.WriteString(styles.Text.Width(width).Render(v.Description))
		b.WriteString("\n")
	}

	if params := formatParameters(v.Parameters); len(params) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Parameters"))
		b.WriteString("\n")
		for _, line := range params {
			b.WriteString(styles.Text.Render(truncate(line, width)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Revisions"))
	b.WriteString("\n")
	revs := m.session.Revisions(id)
	switch revs.State {
	case querycache.StateLoading:
		b.WriteString(muted.Render("Loading revisions…"))
	case querycache.StateFailed:
		b.WriteString(styles.DangerText.Render(truncate(errString(revs.Err), width)))
	default:
		b.WriteString(m.formatRevisions(v, revs.Value, width))
	}
	return b.String()
}

func (m Model) formatRevisions(v api.Variant, revs []api.Revision, width int) string {
	styles := m.theme.Styles()
	if len(revs) == 0 {
		return styles.MutedText.Render("No revisions")
	}
	sorted := append([]api.Revision(nil), revs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Revision > sorted[j].Revision })

	latest := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor("latest")))
	lines := make([]string, 0, min(len(sorted), maxDetailRevisions)+1)
	for i, r := range sorted {
		if i == maxDetailRevisions {
			lines = append(lines, styles.FaintText.Render(fmt.Sprintf("+%d older", len(sorted)-i)))
			break
		}
		head := fmt.Sprintf("v%-4d", r.Revision)
		meta := humanizeAge(r.CreatedAt, m.now())
		if r.Author != "" {
			meta += " · " + r.Author
		}
		msg := r.CommitMessage
		line := head + " " + meta
		if msg != "" {
			line += " · " + msg
		}
		line = truncate(line, width)
		if r.IsLatest(v) {
			lines = append(lines, latest.Render(line+" (latest)"))
		} else {
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func variantTitle(v api.Variant) string {
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}

// formatParameters flattens the top level of a parameter map in key order.
func formatParameters(params map[string]any) []string {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, params[k]))
	}
	return lines
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
