// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen pipeline browser: prospects, follow-ups, team, graphs, and calendar sync
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/sync"
	"github.com/harperreed/prospecta/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
	ViewSync
)

// Tab selects what the list view shows.
type Tab int

const (
	TabProspects Tab = iota
	TabFollowups
	TabTeam
)

const tabCount = 3

// Deps are the services the TUI reads and writes. Calendar may be nil.
type Deps struct {
	Prospects    *services.ProspectService
	Users        *services.UserService
	Calendar     *sync.CalendarService
	MonthsBefore int
	MonthsAfter  int
}

// Model is the main bubbletea model
type Model struct {
	ctx  context.Context
	deps Deps

	graphs *viz.GraphGenerator

	viewMode ViewMode
	tab      Tab

	// List view state
	prospects   []models.Prospect
	team        []models.User
	selectedRow int

	// Detail view state
	selectedID string

	// Edit view state
	form       formKind
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	// Sync view state
	syncState      *models.SyncState
	syncInProgress bool
	syncMessages   []string

	message string
	width   int
	height  int
	err     error
	now     func() time.Time
}

// NewModel creates a new TUI model and loads the first tab.
func NewModel(ctx context.Context, deps Deps) Model {
	m := Model{
		ctx:      ctx,
		deps:     deps,
		graphs:   viz.NewGraphGenerator(deps.Prospects),
		viewMode: ViewList,
		tab:      TabProspects,
		width:    80,
		height:   24,
		now:      time.Now,
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewSync:
		return m.renderSyncView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Forms take every other key as text.
	if m.viewMode == ViewEdit {
		return m.handleEditKeys(msg)
	}
	if msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewSync:
		return m.handleSyncKeys(msg)
	}

	return m, nil
}

// reload refreshes the rows behind the current tab.
func (m *Model) reload() {
	m.err = nil
	switch m.tab {
	case TabProspects:
		m.prospects, m.err = m.deps.Prospects.List(m.ctx)
	case TabFollowups:
		m.prospects, m.err = m.deps.Prospects.Stale(m.ctx, services.StaleAfter)
	case TabTeam:
		m.team, m.err = m.deps.Users.List(m.ctx)
	}
	if m.selectedRow >= m.rowCount() {
		m.selectedRow = max(m.rowCount()-1, 0)
	}
}

func (m Model) rowCount() int {
	if m.tab == TabTeam {
		return len(m.team)
	}
	return len(m.prospects)
}

// selectedProspect loads the prospect behind selectedID.
func (m Model) selectedProspect() (*models.Prospect, error) {
	return m.deps.Prospects.Get(m.ctx, m.selectedID)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
