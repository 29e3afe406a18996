// ABOUTME: Form view for creating and editing records
// ABOUTME: Text input forms that return to the calling view

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/prospecta/models"
)

type formKind int

const (
	formNewProspect formKind = iota
	formFollowUp
)

func (m Model) renderEditView() string {
	var s strings.Builder

	switch m.form {
	case formNewProspect:
		s.WriteString(titleStyle.Render("NEW PROSPECT"))
	case formFollowUp:
		s.WriteString(titleStyle.Render("LOG FOLLOW-UP"))
	}
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.viewMode = m.formReturnView()
		return m, nil
	case "tab":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		msg, err := m.saveForm()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.message = msg
		m.viewMode = m.formReturnView()
		if m.viewMode == ViewList {
			m.reload()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) formReturnView() ViewMode {
	if m.form == formFollowUp {
		return ViewDetail
	}
	return ViewList
}

func (m *Model) initForm(kind formKind) {
	m.form = kind
	m.err = nil

	switch kind {
	case formNewProspect:
		m.formInputs = []textinput.Model{
			newInput("Nombre", 100),
			newInput("Teléfono", 20),
			newInput("Correo", 100),
			newInput("Servicio", 100),
			newInput("Plataforma (WhatsApp/Instagram/Facebook)", 10),
		}
	case formFollowUp:
		m.formInputs = []textinput.Model{
			newInput("Nota", 500),
			newInput("Autor", 100),
		}
	}

	m.focusIndex = 0
	m.updateFormFocus()
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// saveForm persists the form and returns the status line to show.
func (m Model) saveForm() (string, error) {
	value := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }

	switch m.form {
	case formNewProspect:
		p, err := m.deps.Prospects.Create(m.ctx, models.Prospect{
			Nombre:     value(0),
			Telefono:   value(1),
			Correo:     value(2),
			Servicio:   value(3),
			Plataforma: value(4),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✓ Added %s", p.Nombre), nil
	case formFollowUp:
		p, err := m.deps.Prospects.AddFollowUp(m.ctx, m.selectedID, value(0), value(1))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✓ Follow-up logged (%s)", p.Estado), nil
	}
	return "", nil
}
