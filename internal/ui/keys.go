package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings of the variant browser.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// List
	LoadMore     key.Binding
	Refresh      key.Binding
	Reset        key.Binding
	CycleFilter  key.Binding
	Search       key.Binding
	DeepLink     key.Binding
	PageSizeUp   key.Binding
	PageSizeDown key.Binding
	Invalidate   key.Binding

	// Selection
	Toggle      key.Binding
	SelectAll   key.Binding
	ClearSelect key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "Quit")),
		Help:       key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h/?", "Toggle help")),
		CycleTheme: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "Cycle theme")),
		Tab:        key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "Focus table/detail")),
		Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Back to table")),

		Up:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "Move up")),
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "Move down")),
		Top:          key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "Go to top")),
		Bottom:       key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "Go to bottom")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "Half page up")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "Half page down")),

		LoadMore:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "Load next page")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh")),
		Reset:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "Back to first page")),
		CycleFilter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Cycle filter")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "Search")),
		DeepLink:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "Open deep link")),
		PageSizeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "Larger pages")),
		PageSizeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "Smaller pages")),
		Invalidate:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Invalidate variant")),

		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "Toggle selection")),
		SelectAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Select visible")),
		ClearSelect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Clear selection")),

		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Confirm")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp, k.Tab},
		{k.LoadMore, k.Refresh, k.Reset, k.CycleFilter, k.Search, k.DeepLink, k.PageSizeUp, k.PageSizeDown, k.Invalidate},
		{k.Toggle, k.SelectAll, k.ClearSelect},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
