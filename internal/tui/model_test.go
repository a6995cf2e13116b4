package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/engine"
)

func TestNarrowFiltersFetchedModels(t *testing.T) {
	m := browserModel{
		models: []domain.Model{
			{ID: "1", Name: "Juggernaut XL"},
			{ID: "2", Name: "Realistic Vision"},
			{ID: "3", Name: "DreamShaper"},
		},
	}
	m.search.SetValue("jugger")
	m.narrow()

	if len(m.visible) != 1 || m.visible[0].ID != "1" {
		t.Fatalf("expected one fuzzy match, got %+v", m.visible)
	}

	m.search.SetValue("")
	m.narrow()
	if len(m.visible) != 3 {
		t.Fatalf("empty query should show everything, got %d", len(m.visible))
	}
}

func TestNarrowClampsCursor(t *testing.T) {
	m := browserModel{
		models: []domain.Model{{ID: "1", Name: "alpha"}, {ID: "2", Name: "beta"}},
		cursor: 1,
	}
	m.search.SetValue("alpha")
	m.narrow()
	if m.cursor != 0 {
		t.Fatalf("cursor should clamp to the narrowed list, got %d", m.cursor)
	}
}

func TestDetailPaneNavigation(t *testing.T) {
	m := browserModel{
		models: []domain.Model{{
			ID:   "1",
			Name: "alpha",
			Versions: []domain.ModelVersion{
				{ID: "10", Name: "v2"},
				{ID: "11", Name: "v1"},
			},
		}},
	}
	m.narrow()

	nm, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = nm.(browserModel)
	if !m.detailOpen || m.detailCursor != 0 {
		t.Fatalf("enter should open the version pane, got open=%v cursor=%d", m.detailOpen, m.detailCursor)
	}

	nm, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = nm.(browserModel)
	if m.detailCursor != 1 {
		t.Fatalf("down should select the older version, got %d", m.detailCursor)
	}

	// Cursor clamps at the last version.
	nm, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = nm.(browserModel)
	if m.detailCursor != 1 {
		t.Fatalf("cursor should clamp, got %d", m.detailCursor)
	}
	if v, ok := m.selectedVersion(); !ok || v.ID != "11" {
		t.Fatalf("expected version 11 selected, got %+v ok=%v", v, ok)
	}

	nm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = nm.(browserModel)
	if m.detailOpen {
		t.Fatal("esc should close the version pane")
	}
}

func TestNextSortCycles(t *testing.T) {
	if got := nextSort(""); got != "Highest Rated" {
		t.Fatalf("unset sort should start the cycle, got %q", got)
	}
	if got := nextSort("Newest"); got != "Highest Rated" {
		t.Fatalf("cycle should wrap, got %q", got)
	}
	if got := nextSort("Highest Rated"); got != "Most Downloaded" {
		t.Fatalf("cycle should advance, got %q", got)
	}
}

func TestStatusDetail(t *testing.T) {
	got := statusDetail(domain.RuntimeStatus{Phase: domain.PhaseDownloading, Progress: 42, Speed: "3 MB/s", ETA: "10s"})
	if !strings.Contains(got, "42%") || !strings.Contains(got, "3 MB/s") {
		t.Fatalf("downloading detail wrong: %q", got)
	}
	if got := statusDetail(domain.RuntimeStatus{Phase: domain.PhaseHashing, Progress: 80}); !strings.Contains(got, "verifying 80%") {
		t.Fatalf("hashing detail wrong: %q", got)
	}
	if got := statusDetail(domain.RuntimeStatus{}); got != "" {
		t.Fatalf("idle should render nothing, got %q", got)
	}
}

func TestRenderButtonDisabledStates(t *testing.T) {
	got := renderButton(engine.ButtonState{Label: "Early Access", Kind: engine.ButtonWarning})
	if !strings.Contains(got, "Early Access") {
		t.Fatalf("label lost: %q", got)
	}
	got = renderButton(engine.ButtonState{Label: "Download", Enabled: true, Kind: engine.ButtonPrimary})
	if !strings.Contains(got, "[Download]") {
		t.Fatalf("label lost: %q", got)
	}
}

func TestBarFill(t *testing.T) {
	if barFill(engine.BarRed) != barRedFill || barFill(engine.BarBlue) != barBlueFill {
		t.Fatal("bar color mapping wrong")
	}
}
