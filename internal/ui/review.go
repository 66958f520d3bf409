package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/willdo/pkg/models"
)

var (
	applyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailStyle  = lipgloss.NewStyle().PaddingLeft(6).Foreground(lipgloss.Color("8"))
)

// ReviewModel lets the user walk the pending-action table, flip dispositions,
// and fill in the order number a create_task action needs before it can run.
type ReviewModel struct {
	rows     []models.ActionRow
	cursor   int
	accepted bool
	quitting bool

	editing    bool
	orderInput textinput.Model
}

func NewReviewModel(rows []models.ActionRow) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "order number"
	ti.CharLimit = 32
	return ReviewModel{rows: rows, orderInput: ti}
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case " ":
			if len(m.rows) > 0 {
				m.toggle(m.cursor)
			}

		case "o":
			if len(m.rows) > 0 && m.rows[m.cursor].ActionType == string(models.ActionCreateTask) {
				m.editing = true
				m.orderInput.SetValue(m.rows[m.cursor].OrderNumber)
				m.orderInput.Focus()
				return m, textinput.Blink
			}

		case "enter":
			m.accepted = true
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ReviewModel) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.rows[m.cursor].OrderNumber = m.orderInput.Value()
			if m.rows[m.cursor].OrderNumber != "" {
				m.rows[m.cursor].Disposition = models.DispositionApply
			}
			m.editing = false
			m.orderInput.Blur()
			return m, nil

		case "esc":
			m.editing = false
			m.orderInput.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.orderInput, cmd = m.orderInput.Update(msg)
	return m, cmd
}

func (m *ReviewModel) toggle(i int) {
	switch m.rows[i].Disposition {
	case models.DispositionApply:
		m.rows[i].Disposition = models.DispositionSkip
	default:
		// A create_task row cannot be armed without its order number.
		if m.rows[i].ActionType == string(models.ActionCreateTask) && m.rows[i].OrderNumber == "" {
			return
		}
		m.rows[i].Disposition = models.DispositionApply
	}
}

func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}
	if len(m.rows) == 0 {
		return "No pending actions.\n\n(press q to quit)\n"
	}

	var s strings.Builder
	s.WriteString(fmt.Sprintf("Pending actions (%d)\n\n", len(m.rows)))

	for i, row := range m.rows {
		marker := "  "
		if m.cursor == i {
			marker = "> "
		}

		var line string
		switch row.Disposition {
		case models.DispositionApply:
			line = applyStyle.Render("[apply]   " + row.ConfirmText)
		case models.DispositionSkip:
			line = skipStyle.Render("[skip]    " + row.ConfirmText)
		default:
			line = confirmStyle.Render("[confirm] " + row.ConfirmText)
		}
		s.WriteString(marker + line + "\n")

		if row.FieldName != "" && row.ActionType == string(models.ActionUpdateSubtaskField) {
			s.WriteString(detailStyle.Render(fmt.Sprintf("%s: %s -> %s", row.FieldName, row.ValueBefore, row.ValueAfter)))
			s.WriteString("\n")
		}
		if row.ActionType == string(models.ActionCreateTask) {
			order := row.OrderNumber
			if order == "" {
				order = "(unset)"
			}
			s.WriteString(detailStyle.Render("order number: " + order))
			s.WriteString("\n")
		}
	}

	if m.editing {
		s.WriteString("\norder number: " + m.orderInput.View() + "\n")
		s.WriteString("(enter to set, esc to cancel)\n")
	} else {
		s.WriteString("\n(j/k move, space toggle, o order number, enter apply, q abort)\n")
	}

	return s.String()
}

// Accepted reports whether the user confirmed the batch rather than aborting.
func (m ReviewModel) Accepted() bool {
	return m.accepted
}

// Rows returns the table as edited.
func (m ReviewModel) Rows() []models.ActionRow {
	return m.rows
}

// RunReview shows the review screen and returns the edited rows. The second
// return is false when the user aborted; nothing should be applied then.
func RunReview(rows []models.ActionRow) ([]models.ActionRow, bool, error) {
	m := NewReviewModel(rows)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return nil, false, err
	}
	final := finalModel.(ReviewModel)
	return final.Rows(), final.Accepted(), nil
}
