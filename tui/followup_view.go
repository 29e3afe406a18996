// ABOUTME: TUI view for follow-up tracking
// ABOUTME: Lists open prospects with no follow-up for a week, oldest first
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"

	"github.com/harperreed/prospecta/services"
)

func (m Model) renderFollowupsTable() string {
	columns := []table.Column{
		{Title: "", Width: 4},
		{Title: "Nombre", Width: 25},
		{Title: "Días", Width: 6},
		{Title: "Estado", Width: 15},
		{Title: "Responsable", Width: 15},
		{Title: "Teléfono", Width: 16},
	}

	now := m.now()
	var rows []table.Row
	for _, p := range m.prospects {
		days := int(now.Sub(services.LastTouch(p)).Hours() / 24)
		rows = append(rows, table.Row{
			urgency(days),
			p.Nombre,
			fmt.Sprintf("%d", days),
			p.Estado,
			p.Responsable,
			p.Telefono,
		})
	}

	return m.table(columns, rows)
}

// urgency marks prospects twice past the stale threshold red.
func urgency(days int) string {
	if days > 2*int(services.StaleAfter.Hours()/24) {
		return "🔴"
	}
	return "🟡"
}
