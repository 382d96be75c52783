package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/skeleton"
	"github.com/five82/varlens/internal/variants"
)

// filterMode is the preset cycled by the f key. It only touches the
// non-search fields of the session filter.
type filterMode int

const (
	filterAll filterMode = iota
	filterActive
	filterArchived
	filterDeployed
	filterRevised
)

func (f filterMode) next() filterMode {
	if f >= filterRevised {
		return filterAll
	}
	return f + 1
}

func (f filterMode) label() string {
	switch f {
	case filterActive:
		return "Active"
	case filterArchived:
		return "Archived"
	case filterDeployed:
		return "Deployed"
	case filterRevised:
		return "Revised"
	default:
		return "All"
	}
}

func (f filterMode) apply(base variants.Filter) variants.Filter {
	out := variants.Filter{Search: base.Search}
	yes := true
	switch f {
	case filterActive:
		out.Status = api.StatusActive
	case filterArchived:
		out.Status = api.StatusArchived
	case filterDeployed:
		out.HasDeployment = &yes
	case filterRevised:
		out.MultipleRevisions = &yes
	}
	return out
}

// paneWidths splits the terminal between table and detail. A zero detail
// width means the detail pane is hidden.
func (m Model) paneWidths() (table, detail int) {
	switch {
	case m.width < LayoutCompactWidth:
		return m.width, 0
	case m.width >= LayoutExtraWideWidth:
		table = m.width * 55 / 100
	default:
		table = m.width * 60 / 100
	}
	return table, m.width - table
}

func (m Model) contentHeight() int {
	return max(m.height-2, 3) // header + command bar
}

// listHeight is the number of row lines the table box can show.
func (m Model) listHeight() int {
	// borders, column header, footer
	return max(m.contentHeight()-4, 1)
}

// renderBrowser renders the table and, when wide enough, the detail pane.
func (m Model) renderBrowser() string {
	tableWidth, detailWidth := m.paneWidths()
	height := m.contentHeight()

	tableFocused := m.focusedPane == 0 || detailWidth == 0
	tableBg := m.theme.SurfaceAlt
	if tableFocused {
		tableBg = m.theme.FocusBg
	}
	tablePane := m.renderTitledBox(m.tableTitle(), m.renderTable(tableWidth-2, tableBg), tableWidth, height, tableFocused)
	if detailWidth == 0 {
		return tablePane
	}
	detailPane := m.renderTitledBox("Details", m.detailViewport.View(), detailWidth, height, !tableFocused)
	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

func (m Model) tableTitle() string {
	title := "Variants"
	if m.meta.PageCount > 0 && m.session.Mode() == variants.ModeWindowed {
		title = fmt.Sprintf("Variants · page %d/%d", m.meta.CurrentPage, m.meta.PageCount)
	}
	if m.filterMode != filterAll {
		title += " · " + m.filterMode.label()
	}
	return title
}

// tableColumns sizes the fixed columns; the name column takes the rest.
type tableColumns struct {
	marker, name, revision, status, deployed, updated int
}

func columnsFor(width int) tableColumns {
	c := tableColumns{marker: 2, revision: 5, status: 9, updated: 9}
	if width >= LayoutDeployedWidth*6/10 {
		c.deployed = 18
	}
	fixed := c.marker + c.revision + c.status + c.deployed + c.updated + 5 // gaps
	c.name = max(width-fixed, 8)
	return c
}

// renderTable renders the column header, the visible rows and a footer.
func (m Model) renderTable(width int, bgColor string) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(bgColor)
	cols := columnsFor(width)

	header := strings.Join([]string{
		padRight("", cols.marker),
		padRight("NAME", cols.name),
		padRight("REV", cols.revision),
		padRight("STATUS", cols.status),
		padRight("DEPLOYED", cols.deployed),
		padRight("UPDATED", cols.updated),
	}, " ")
	lines := []string{bg.FillLine(bg.Render(header, styles.FaintText.Bold(true)), width)}

	switch {
	case m.rows.State == querycache.StateFailed:
		msg := "Failed to load variants"
		if m.rows.Err != nil {
			msg += ": " + m.rows.Err.Error()
		}
		lines = append(lines,
			bg.FillLine(bg.Render(truncate(msg, width), styles.DangerText), width),
			bg.FillLine(bg.Render("press r to retry", styles.MutedText), width))
	case len(m.rows.Value) == 0:
		msg := "No variants"
		if !m.session.Filter().IsZero() {
			msg = "No variants match the filter"
		}
		lines = append(lines, bg.FillLine(bg.Render(msg, styles.MutedText), width))
	default:
		start, end := m.visibleRange()
		for i := start; i < end; i++ {
			lines = append(lines, m.renderRow(m.rows.Value[i], i == m.cursor, cols, width, bgColor))
		}
	}

	for len(lines) < m.listHeight()+1 {
		lines = append(lines, "")
	}
	lines = append(lines, bg.FillLine(bg.Render(m.footerText(), styles.MutedText), width))
	return strings.Join(lines, "\n")
}

// visibleRange returns the slice of rows that keeps the cursor on screen.
func (m Model) visibleRange() (start, end int) {
	n := len(m.rows.Value)
	h := m.listHeight()
	if m.cursor >= h {
		start = m.cursor - h + 1
	}
	return start, min(start+h, n)
}

func (m Model) footerText() string {
	loaded := 0
	for _, r := range m.rows.Value {
		if !r.IsSkeleton() {
			loaded++
		}
	}
	parts := []string{fmt.Sprintf("%d shown", loaded)}
	if m.win.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d total", m.win.Total))
	}
	if m.session.Mode() == variants.ModeWindowed && m.meta.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", m.meta.Progress*100))
	}
	switch {
	case m.rows.State == querycache.StateLoading, m.win.IsLoading:
		parts = append(parts, "loading…")
	case m.rows.Refreshing:
		parts = append(parts, "refreshing…")
	case m.win.HasMore && m.session.Mode() == variants.ModeWindowed:
		parts = append(parts, "n for more")
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderRow(row variants.Row, cursor bool, cols tableColumns, width int, bgColor string) string {
	if cursor {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	color := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	if cursor {
		sel := color(m.theme.SelectionText)
		styles.Text, styles.MutedText, styles.FaintText = sel, sel, sel
	}

	if p, ok := row.Placeholder(); ok {
		return bg.FillLine(bg.Render(formatPlaceholder(p, cols), styles.FaintText), width)
	}
	v, _ := row.Variant()

	marker := " "
	markerStyle := styles.FaintText
	switch {
	case v.Selected:
		marker, markerStyle = "✓", color(m.theme.StatusColor("selected"))
	case v.Priority:
		marker, markerStyle = "★", color(m.theme.StatusColor("priority"))
	}
	statusStyle := color(m.theme.StatusColor(v.Status))
	deployedStyle := color(m.theme.StatusColor("deployed"))
	if cursor {
		statusStyle, deployedStyle = styles.Text, styles.Text
	}

	cells := []string{
		bg.Render(padRight(marker, cols.marker), markerStyle),
		bg.Render(padRight(variantName(v), cols.name), styles.Text),
		bg.Render(padRight(fmt.Sprintf("v%d", v.Revision), cols.revision), styles.MutedText),
		bg.Render(padRight(titleCase(v.Status), cols.status), statusStyle),
	}
	if cols.deployed > 0 {
		cells = append(cells, bg.Render(padRight(strings.Join(v.DeployedIn, ","), cols.deployed), deployedStyle))
	}
	cells = append(cells, bg.Render(padRight(humanizeAge(v.UpdatedAt, m.now()), cols.updated), styles.FaintText))
	return bg.FillLine(strings.Join(cells, bg.Space()), width)
}

func variantName(v variants.VariantRow) string {
	if strings.TrimSpace(v.Name) != "" {
		return v.Name
	}
	return v.ID
}

// formatPlaceholder lays a skeleton row out in the same columns as a real one.
func formatPlaceholder(p skeleton.Placeholder, cols tableColumns) string {
	marker := " "
	if p.Priority {
		marker = "★"
	}
	var deployed []string
	for _, slot := range p.Deployments {
		if slot.IsSkeleton {
			deployed = append(deployed, "…")
		} else {
			deployed = append(deployed, slot.Name)
		}
	}
	cells := []string{
		padRight(marker, cols.marker),
		padRight(p.Field("name"), cols.name),
		padRight(p.Field("revision"), cols.revision),
		padRight("…", cols.status),
	}
	if cols.deployed > 0 {
		cells = append(cells, padRight(strings.Join(deployed, ","), cols.deployed))
	}
	cells = append(cells, padRight(p.Field("updated_at"), cols.updated))
	return strings.Join(cells, " ")
}

// renderTitledBox renders content in a box with the title embedded in the
// top border. Focused boxes use the focus border and background colors.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌"+strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad)+"┐", borderStyle)
	bottom := bg.Render("└"+strings.Repeat("─", innerWidth)+"┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)
	lines := make([]string, 0, boxHeight+2)
	lines = append(lines, top)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}
