// ABOUTME: Tabbed list views for prospects and team members
// ABOUTME: Renders bubbles tables and switches tabs

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PROSPECTA"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Prospects", "Needs follow-up", "Team"}
	var rendered []string

	for i, tab := range tabs {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabProspects:
		return m.renderProspectsTable()
	case TabFollowups:
		return m.renderFollowupsTable()
	case TabTeam:
		return m.renderTeamTable()
	}
	return ""
}

func (m Model) renderProspectsTable() string {
	columns := []table.Column{
		{Title: "Nombre", Width: 25},
		{Title: "Estado", Width: 15},
		{Title: "Plataforma", Width: 10},
		{Title: "Responsable", Width: 15},
		{Title: "Servicio", Width: 20},
	}

	var rows []table.Row
	for _, p := range m.prospects {
		rows = append(rows, table.Row{p.Nombre, p.Estado, p.Plataforma, p.Responsable, p.Servicio})
	}

	return m.table(columns, rows)
}

func (m Model) renderTeamTable() string {
	columns := []table.Column{
		{Title: "Nombre", Width: 25},
		{Title: "Email", Width: 30},
		{Title: "Rol", Width: 10},
		{Title: "Estado", Width: 10},
	}

	var rows []table.Row
	for _, u := range m.team {
		rows = append(rows, table.Row{u.FullName(), u.Email, u.Rol, u.Estado})
	}

	return m.table(columns, rows)
}

func (m Model) table(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"n: New prospect",
		"g: Pipeline graph",
		"s: Calendar sync",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		m.selectedRow = 0
		m.reload()
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.viewMode = ViewDetail
			m.selectedID = id
		}
	case "n":
		m.selectedID = ""
		m.initForm(formNewProspect)
		m.viewMode = ViewEdit
	case "g":
		dot, err := m.graphs.GeneratePipelineGraph(m.ctx)
		if err != nil {
			m.message = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		m.graphDOT = dot
		m.viewMode = ViewGraph
	case "s":
		m.viewMode = ViewSync
		m.loadSyncState()
	case "r":
		m.reload()
	}

	return m, nil
}

// getSelectedID returns the prospect under the cursor; the team tab has no detail view.
func (m Model) getSelectedID() string {
	if m.tab == TabTeam {
		return ""
	}
	if m.selectedRow < len(m.prospects) {
		return m.prospects[m.selectedRow].ID
	}
	return ""
}
