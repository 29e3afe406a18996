// ABOUTME: Pipeline graph view rendered as text
// ABOUTME: Esc returns to the view that opened it

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	if m.graphDOT == "" {
		s.WriteString("No graph generated\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Esc: Back • q: Quit"))

	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.graphDOT = ""
		if m.selectedID != "" {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
	}
	return m, nil
}
