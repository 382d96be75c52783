package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

type inputPurpose int

const (
	inputSearch inputPurpose = iota
	inputDeepLink
)

// inputSubmittedMsg carries the value of a confirmed input modal.
type inputSubmittedMsg struct {
	purpose inputPurpose
	value   string
}

// inputModal is a single-line prompt.
type inputModal struct {
	purpose inputPurpose
	title   string
	input   textinput.Model
}

func newInputModal(purpose inputPurpose, title, placeholder, value string) *inputModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Width = 56
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return &inputModal{purpose: purpose, title: title, input: ti}
}

func (im *inputModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Confirm):
			submitted := inputSubmittedMsg{purpose: im.purpose, value: im.input.Value()}
			return im, func() tea.Msg { return submitted }, true
		case key.Matches(km, keys.Escape):
			return im, nil, true
		}
	}
	var cmd tea.Cmd
	im.input, cmd = im.input.Update(msg)
	return im, cmd, false
}

func (im *inputModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.AccentText.Bold(true).Render(im.title) + "\n\n" +
		im.input.View() + "\n\n" +
		styles.FaintText.Render("enter confirm · esc cancel")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
