// ABOUTME: TUI view for Google Calendar sync status and controls
// ABOUTME: Shows the last sync window and event count and triggers a sync in the background
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospecta/models"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a calendar sync finishes.
type SyncCompleteMsg struct {
	Events int
	Error  error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Google Calendar Sync"))
	s.WriteString("\n\n")

	if m.deps.Calendar == nil {
		s.WriteString(syncMessageStyle.Render("Google is not configured. Set the GOOGLE_* variables and run \"prospecta auth login\"."))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Esc: Back"))
		return s.String()
	}

	s.WriteString(syncHeaderStyle.Render("Status"))
	s.WriteString("\n\n")
	s.WriteString("  Calendar  ")
	s.WriteString(m.renderSyncStatus())
	s.WriteString("\n")
	if st := m.syncState; st != nil && st.WindowStart != nil && st.WindowEnd != nil {
		s.WriteString(syncMessageStyle.Render(fmt.Sprintf("  Window %s → %s, %d event(s)",
			st.WindowStart.Format("2006-01-02"), st.WindowEnd.Format("2006-01-02"), st.EventCount)))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := max(len(m.syncMessages)-5, 0)
		for _, line := range m.syncMessages[start:] {
			s.WriteString(syncMessageStyle.Render("  " + line))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	help := []string{
		"Enter: Sync now",
		"r: Refresh status",
		"Esc: Back",
		"q: Quit",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) renderSyncStatus() string {
	if m.syncInProgress {
		return syncSyncingStyle.Render("⟳ Syncing...")
	}
	st := m.syncState
	if st == nil || st.LastSyncTime == nil {
		return syncMessageStyle.Render("Not synced yet")
	}
	if st.Status == models.SyncStatusError {
		return errorStyle.Render("✗ Error: " + st.ErrorMessage)
	}
	return syncIdleStyle.Render("✓ Idle") + syncMessageStyle.Render(" • Last synced "+formatTimeSince(*st.LastSyncTime, m.now()))
}

func (m *Model) loadSyncState() {
	if m.deps.Calendar == nil {
		return
	}
	state, err := m.deps.Calendar.Status(m.ctx)
	if err != nil {
		m.addSyncMessage(fmt.Sprintf("Failed to load status: %v", err))
		return
	}
	m.syncState = state
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.deps.Calendar == nil || m.syncInProgress {
			return m, nil
		}
		m.syncInProgress = true
		m.addSyncMessage("Starting calendar sync...")
		return m, m.syncCalendar()
	case "r":
		m.loadSyncState()
	case "esc":
		m.viewMode = ViewList
	}

	return m, nil
}

func (m Model) syncCalendar() tea.Cmd {
	ctx, cal := m.ctx, m.deps.Calendar
	before, after := m.deps.MonthsBefore, m.deps.MonthsAfter
	return func() tea.Msg {
		events, err := cal.Sync(ctx, before, after)
		return SyncCompleteMsg{Events: len(events), Error: err}
	}
}

func (m *Model) addSyncMessage(msg string) {
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", m.now().Format("15:04:05"), msg))
}

func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.syncInProgress = false

	if msg.Error != nil {
		m.addSyncMessage(fmt.Sprintf("✗ calendar sync failed: %v", msg.Error))
	} else {
		m.addSyncMessage(fmt.Sprintf("✓ calendar sync completed, %d event(s)", msg.Events))
	}

	m.loadSyncState()
}

// formatTimeSince formats the gap between t and now in a human-readable way.
func formatTimeSince(t, now time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
