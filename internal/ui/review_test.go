package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ldi/willdo/pkg/models"
)

func sampleRows() []models.ActionRow {
	return []models.ActionRow{
		{
			ActionType:  string(models.ActionAdd),
			TaskID:      "250101a1",
			ConfirmText: `Add subtask "#001 draft" to "250101a1 proposal"`,
			Disposition: models.DispositionApply,
		},
		{
			ActionType:  string(models.ActionUpdateSubtaskField),
			TaskID:      "250101a1",
			FieldName:   "estimated_time",
			ValueBefore: "60",
			ValueAfter:  "90",
			ConfirmText: `Update estimated_time of "#000 outline" in "250101a1 proposal"?`,
			Disposition: models.DispositionConfirm,
		},
		{
			ActionType:  string(models.ActionCreateTask),
			TaskID:      "250102b2",
			ConfirmText: `Create a new task file for "250102b2 new work" (order number required)`,
			Disposition: models.DispositionConfirm,
		},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewToggle(t *testing.T) {
	m := NewReviewModel(sampleRows())

	// apply -> skip on the first row.
	model, _ := m.Update(key(" "))
	m = model.(ReviewModel)
	if m.rows[0].Disposition != models.DispositionSkip {
		t.Errorf("expected skip after toggle, got %s", m.rows[0].Disposition)
	}

	// skip -> apply again.
	model, _ = m.Update(key(" "))
	m = model.(ReviewModel)
	if m.rows[0].Disposition != models.DispositionApply {
		t.Errorf("expected apply after second toggle, got %s", m.rows[0].Disposition)
	}

	// confirm -> apply on the second row.
	model, _ = m.Update(key("j"))
	m = model.(ReviewModel)
	model, _ = m.Update(key(" "))
	m = model.(ReviewModel)
	if m.rows[1].Disposition != models.DispositionApply {
		t.Errorf("expected apply after confirming, got %s", m.rows[1].Disposition)
	}
}

func TestReviewCreateTaskNeedsOrderNumber(t *testing.T) {
	m := NewReviewModel(sampleRows())

	// Move to the create_task row and try to arm it without an order number.
	model, _ := m.Update(key("j"))
	m = model.(ReviewModel)
	model, _ = m.Update(key("j"))
	m = model.(ReviewModel)
	model, _ = m.Update(key(" "))
	m = model.(ReviewModel)
	if m.rows[2].Disposition == models.DispositionApply {
		t.Error("expected create_task to stay unarmed without order number")
	}

	// Enter the order number; committing it arms the row.
	model, _ = m.Update(key("o"))
	m = model.(ReviewModel)
	if !m.editing {
		t.Fatal("expected editing mode after 'o'")
	}
	for _, r := range "A123-456" {
		model, _ = m.Update(key(string(r)))
		m = model.(ReviewModel)
	}
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(ReviewModel)

	if m.editing {
		t.Error("expected editing mode to end on enter")
	}
	if m.rows[2].OrderNumber != "A123-456" {
		t.Errorf("expected order number set, got %q", m.rows[2].OrderNumber)
	}
	if m.rows[2].Disposition != models.DispositionApply {
		t.Errorf("expected row armed after order number, got %s", m.rows[2].Disposition)
	}
}

func TestReviewAcceptAndAbort(t *testing.T) {
	m := NewReviewModel(sampleRows())

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	accepted := model.(ReviewModel)
	if !accepted.Accepted() {
		t.Error("expected accepted after enter")
	}
	if cmd == nil {
		t.Error("expected quit command after enter")
	}

	m = NewReviewModel(sampleRows())
	model, _ = m.Update(key("q"))
	aborted := model.(ReviewModel)
	if aborted.Accepted() {
		t.Error("expected not accepted after 'q'")
	}
}

func TestReviewView(t *testing.T) {
	m := NewReviewModel(sampleRows())
	view := m.View()

	if !strings.Contains(view, "Pending actions (3)") {
		t.Errorf("expected header in view, got %q", view)
	}
	if !strings.Contains(view, "estimated_time: 60 -> 90") {
		t.Errorf("expected field detail line, got %q", view)
	}
	if !strings.Contains(view, "order number: (unset)") {
		t.Errorf("expected unset order number hint, got %q", view)
	}
}

func TestReviewViewEmpty(t *testing.T) {
	m := NewReviewModel(nil)
	if !strings.Contains(m.View(), "No pending actions") {
		t.Error("expected empty-state message")
	}
}
