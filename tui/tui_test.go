// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key messages through Update against an in-memory store
package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/store"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	deps  Deps
	clock *time.Time
}

func setupTestModel(t *testing.T) (Model, fixture) {
	t.Helper()
	docs := store.NewMemory()
	now := testNow
	clock := services.WithClock(func() time.Time { return now })

	f := fixture{
		deps: Deps{
			Prospects: services.NewProspectService(docs, clock),
			Users:     services.NewUserService(docs, clock),
		},
		clock: &now,
	}

	m := NewModel(context.Background(), f.deps)
	m.now = func() time.Time { return *f.clock }
	return m, f
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestListViewRendering(t *testing.T) {
	m, f := setupTestModel(t)
	if _, err := f.deps.Prospects.Create(context.Background(), models.Prospect{Nombre: "Ana Lopez", Servicio: "Boda"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m = update(t, m, keys("r"))
	output := m.View()

	if !strings.Contains(output, "PROSPECTA") {
		t.Error("List view should contain title")
	}
	if !strings.Contains(output, "Ana Lopez") {
		t.Error("List view should show the prospect")
	}
}

func TestNewProspectForm(t *testing.T) {
	m, f := setupTestModel(t)

	m = update(t, m, keys("n"))
	if m.viewMode != ViewEdit {
		t.Fatalf("Expected ViewEdit, got %d", m.viewMode)
	}

	// q is text inside a form, not quit.
	m = update(t, m, keys("Quique"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, keys("5551234"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.err != nil {
		t.Fatalf("Save failed: %v", m.err)
	}
	if m.viewMode != ViewList {
		t.Errorf("Expected ViewList after save, got %d", m.viewMode)
	}

	all, err := f.deps.Prospects.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 || all[0].Nombre != "Quique" || all[0].Telefono != "5551234" {
		t.Errorf("Unexpected prospects: %+v", all)
	}
	if len(m.prospects) != 1 {
		t.Errorf("List should be reloaded after save, got %d rows", len(m.prospects))
	}
}

func TestNewProspectFormValidation(t *testing.T) {
	m, _ := setupTestModel(t)

	m = update(t, m, keys("n"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.err == nil {
		t.Fatal("Expected a validation error for an empty nombre")
	}
	if m.viewMode != ViewEdit {
		t.Error("Form should stay open on error")
	}
}

func TestDetailFollowUpAndEstado(t *testing.T) {
	m, f := setupTestModel(t)
	ctx := context.Background()
	p, err := f.deps.Prospects.Create(ctx, models.Prospect{Nombre: "Beto"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m = update(t, m, keys("r"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewMode != ViewDetail || m.selectedID != p.ID {
		t.Fatalf("Expected detail view for %s, got mode %d id %q", p.ID, m.viewMode, m.selectedID)
	}

	m = update(t, m, keys("f"))
	m = update(t, m, keys("Llamada inicial"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewMode != ViewDetail {
		t.Fatalf("Follow-up form should return to detail, got %d", m.viewMode)
	}

	got, _ := f.deps.Prospects.Get(ctx, p.ID)
	if got.Estado != models.EstadoContactado || len(got.Seguimientos) != 1 {
		t.Errorf("Follow-up not applied: estado=%s seguimientos=%d", got.Estado, len(got.Seguimientos))
	}

	m = update(t, m, keys("a"))
	got, _ = f.deps.Prospects.Get(ctx, p.ID)
	if got.Estado != models.EstadoEnSeguimiento {
		t.Errorf("Expected %s, got %s", models.EstadoEnSeguimiento, got.Estado)
	}

	m = update(t, m, keys("l"))
	got, _ = f.deps.Prospects.Get(ctx, p.ID)
	if got.Estado != models.EstadoPerdido {
		t.Errorf("Expected %s, got %s", models.EstadoPerdido, got.Estado)
	}

	if !strings.Contains(m.View(), "Llamada inicial") {
		t.Error("Detail view should show the follow-up note")
	}
}

func TestDeleteConfirmation(t *testing.T) {
	m, f := setupTestModel(t)
	ctx := context.Background()
	p, _ := f.deps.Prospects.Create(ctx, models.Prospect{Nombre: "Carla"})

	m = update(t, m, keys("r"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, keys("d"))
	if m.viewMode != ViewConfirmDelete {
		t.Fatalf("Expected confirm view, got %d", m.viewMode)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ViewDetail {
		t.Error("Esc should return to detail")
	}

	m = update(t, m, keys("d"))
	m = update(t, m, keys("y"))
	if m.viewMode != ViewList {
		t.Errorf("Expected list after delete, got %d", m.viewMode)
	}
	if _, err := f.deps.Prospects.Get(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Prospect should be gone, got %v", err)
	}
}

func TestFollowupsTab(t *testing.T) {
	m, f := setupTestModel(t)
	ctx := context.Background()

	*f.clock = testNow.Add(-20 * 24 * time.Hour)
	if _, err := f.deps.Prospects.Create(ctx, models.Prospect{Nombre: "Olvidado"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	*f.clock = testNow
	if _, err := f.deps.Prospects.Create(ctx, models.Prospect{Nombre: "Reciente"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != TabFollowups {
		t.Fatalf("Expected follow-ups tab, got %d", m.tab)
	}
	if len(m.prospects) != 1 || m.prospects[0].Nombre != "Olvidado" {
		t.Fatalf("Expected only the stale prospect, got %+v", m.prospects)
	}

	output := m.View()
	if !strings.Contains(output, "🔴") {
		t.Error("A 20 day old prospect should be marked red")
	}
}

func TestTeamTab(t *testing.T) {
	m, f := setupTestModel(t)
	if _, err := f.deps.Users.Create(context.Background(), models.User{Nombre: "Dana", Email: "dana@example.com"}); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != TabTeam {
		t.Fatalf("Expected team tab, got %d", m.tab)
	}
	if !strings.Contains(m.View(), "dana@example.com") {
		t.Error("Team tab should list users")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewMode != ViewList {
		t.Error("Team rows have no detail view")
	}
}

func TestGraphView(t *testing.T) {
	m, f := setupTestModel(t)
	_, _ = f.deps.Prospects.Create(context.Background(), models.Prospect{Nombre: "Eva"})

	m = update(t, m, keys("g"))
	if m.viewMode != ViewGraph {
		t.Fatalf("Expected graph view, got %d (%s)", m.viewMode, m.message)
	}
	if !strings.Contains(m.graphDOT, "digraph") {
		t.Error("Graph view should hold DOT source")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ViewList || m.graphDOT != "" {
		t.Error("Esc should clear the graph and return to the list")
	}
}

func TestSyncViewWithoutCalendar(t *testing.T) {
	m, _ := setupTestModel(t)

	m = update(t, m, keys("s"))
	if m.viewMode != ViewSync {
		t.Fatalf("Expected sync view, got %d", m.viewMode)
	}
	if !strings.Contains(m.View(), "not configured") {
		t.Error("Sync view should explain that Google is not configured")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.syncInProgress {
		t.Error("Sync must not start without a calendar")
	}
}

func TestSyncCompleteMessage(t *testing.T) {
	m, _ := setupTestModel(t)
	m.syncInProgress = true

	m = update(t, m, SyncCompleteMsg{Events: 3})
	if m.syncInProgress {
		t.Error("Sync should not be in progress after completion")
	}
	if len(m.syncMessages) != 1 || !strings.Contains(m.syncMessages[0], "3 event(s)") {
		t.Errorf("Unexpected messages: %v", m.syncMessages)
	}

	m.syncInProgress = true
	m = update(t, m, SyncCompleteMsg{Error: errors.New("token expired")})
	if !strings.Contains(m.syncMessages[1], "token expired") {
		t.Errorf("Error should be logged, got %v", m.syncMessages)
	}
}

func TestNextEstado(t *testing.T) {
	tests := []struct {
		from, want string
	}{
		{models.EstadoNuevo, models.EstadoContactado},
		{models.EstadoContactado, models.EstadoEnSeguimiento},
		{models.EstadoEnSeguimiento, models.EstadoCotizado},
		{models.EstadoCotizado, models.EstadoVentaCerrada},
		{models.EstadoVentaCerrada, models.EstadoVentaCerrada},
		{models.EstadoPerdido, models.EstadoPerdido},
	}
	for _, tt := range tests {
		if got := nextEstado(tt.from); got != tt.want {
			t.Errorf("nextEstado(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		name     string
		ago      time.Duration
		expected string
	}{
		{"just now", 30 * time.Second, "just now"},
		{"minutes ago", 5 * time.Minute, "5 minutes ago"},
		{"hours ago", 2 * time.Hour, "2 hours ago"},
		{"days ago", 3 * 24 * time.Hour, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTimeSince(testNow.Add(-tt.ago), testNow)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}
