// ABOUTME: Detail view for a single prospect
// ABOUTME: Status keys move the prospect through the pipeline

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PROSPECT"))
	s.WriteString("\n\n")

	p, err := m.selectedProspect()
	if err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	} else {
		s.WriteString(m.renderProspectDetail(p))
	}

	s.WriteString("\n")
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderProspectDetail(p *models.Prospect) string {
	var s strings.Builder

	s.WriteString(m.renderField("Nombre", p.Nombre))
	s.WriteString(m.renderField("Estado", p.Estado))
	s.WriteString(m.renderField("Plataforma", p.Plataforma))
	s.WriteString(m.renderField("Responsable", p.Responsable))
	s.WriteString(m.renderField("Teléfono", p.Telefono))
	s.WriteString(m.renderField("Correo", p.Correo))
	s.WriteString(m.renderField("Servicio", p.Servicio))
	s.WriteString(m.renderField("Contactado", p.FechaContacto.Local().Format("2006-01-02")))
	if p.UltimoSeguimiento != nil {
		s.WriteString(m.renderField("Último seguimiento", p.UltimoSeguimiento.Local().Format("2006-01-02")))
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("SEGUIMIENTOS"))
	s.WriteString("\n")
	for _, f := range p.Seguimientos {
		fmt.Fprintf(&s, "  • [%s] %s", f.Fecha.Local().Format("2006-01-02"), f.Nota)
		if f.Autor != "" {
			fmt.Fprintf(&s, " (%s)", f.Autor)
		}
		s.WriteString("\n")
	}

	if len(p.Cotizaciones) > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Render("COTIZACIONES"))
		s.WriteString("\n")
		for _, q := range p.Cotizaciones {
			fmt.Fprintf(&s, "  • [%s] %s  %.2f\n", q.Fecha.Local().Format("2006-01-02"), q.Descripcion, q.Monto)
		}
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"f: Log follow-up",
		"a: Advance estado",
		"l: Mark lost",
		"d: Delete",
		"g: Owner graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.reload()
	case "f":
		m.initForm(formFollowUp)
		m.viewMode = ViewEdit
	case "a":
		m.setEstado(func(p *models.Prospect) string { return nextEstado(p.Estado) })
	case "l":
		m.setEstado(func(*models.Prospect) string { return models.EstadoPerdido })
	case "d":
		m.viewMode = ViewConfirmDelete
	case "g":
		dot, err := m.graphs.GenerateOwnerGraph(m.ctx)
		if err != nil {
			m.message = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		m.graphDOT = dot
		m.viewMode = ViewGraph
	}

	return m, nil
}

func (m *Model) setEstado(pick func(*models.Prospect) string) {
	p, err := m.selectedProspect()
	if err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	estado := pick(p)
	if estado == p.Estado {
		m.message = fmt.Sprintf("%s is already %s", p.Nombre, p.Estado)
		return
	}
	updated, err := m.deps.Prospects.Update(m.ctx, p.ID, services.ProspectPatch{Estado: &estado})
	if err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.message = fmt.Sprintf("✓ %s is now %s", updated.Nombre, updated.Estado)
}

// nextEstado walks the open funnel; closed and lost prospects stay put.
func nextEstado(estado string) string {
	switch estado {
	case models.EstadoNuevo:
		return models.EstadoContactado
	case models.EstadoContactado:
		return models.EstadoEnSeguimiento
	case models.EstadoEnSeguimiento:
		return models.EstadoCotizado
	case models.EstadoCotizado:
		return models.EstadoVentaCerrada
	}
	return estado
}
