// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Removes a prospect only after an explicit yes
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	p, err := m.selectedProspect()
	if err != nil {
		return fmt.Sprintf("Error loading prospect: %v", err)
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠"),
		"",
		"Are you sure you want to delete this prospect?",
		fmt.Sprintf("\nPROSPECT: %s (%s)\n", p.Nombre, p.Estado),
		"\nThis action cannot be undone!",
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := m.deps.Prospects.Delete(m.ctx, m.selectedID); err != nil {
			m.message = "Error: " + err.Error()
		} else {
			m.message = "Successfully deleted"
			m.selectedID = ""
		}
		m.viewMode = ViewList
		m.reload()
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}
