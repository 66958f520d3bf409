package reconcile

import (
	"fmt"

	"github.com/ldi/willdo/pkg/models"
)

// DefaultDisposition assigns each action type its review default: additive
// and lifecycle actions apply automatically, anything that rewrites existing
// values waits for explicit confirmation.
func DefaultDisposition(t models.ActionType) models.Disposition {
	switch t {
	case models.ActionAdd, models.ActionComplete, models.ActionRemoveWaitingFlag, models.ActionMoveToComplete:
		return models.DispositionApply
	default:
		// create_task additionally needs the user to supply an order number.
		return models.DispositionConfirm
	}
}

// ConfirmText renders the human-readable confirmation line for an action.
func ConfirmText(a *models.UpdateAction) string {
	task := fmt.Sprintf("%s %s", a.TaskID, a.TaskName)
	sub := fmt.Sprintf("%s %s", a.SubtaskID, a.SubtaskName)

	switch a.Type {
	case models.ActionAdd:
		return fmt.Sprintf("Add subtask \"%s\" to \"%s\"", sub, task)
	case models.ActionComplete:
		return fmt.Sprintf("Mark \"%s\" of \"%s\" as complete", sub, task)
	case models.ActionUpdateSubtaskField:
		return fmt.Sprintf("Update %s of \"%s\" in \"%s\"?", a.Field, sub, task)
	case models.ActionUpdateWaitingDate:
		return fmt.Sprintf("Update the waiting date of \"%s\"?", task)
	case models.ActionRemoveWaitingFlag:
		return fmt.Sprintf("Waiting date %s of \"%s\" has passed; remove the waiting flag", a.ValueBefore, task)
	case models.ActionCreateTask:
		return fmt.Sprintf("Create a new task file for \"%s\" (order number required)", task)
	case models.ActionUpdateTaskName:
		return fmt.Sprintf("Update the name of task %s?", a.TaskID)
	case models.ActionMoveToComplete:
		return fmt.Sprintf("All subtasks of \"%s\" are complete; move it to the Complete folder", task)
	}
	return ""
}

// RowsFromActions converts typed actions into the tabular review form, with
// confirmation text and default dispositions attached.
func RowsFromActions(actions []*models.UpdateAction) []models.ActionRow {
	rows := make([]models.ActionRow, len(actions))
	for i, a := range actions {
		rows[i] = models.ActionRow{
			ActionType:  string(a.Type),
			TaskID:      a.TaskID,
			TaskName:    a.TaskName,
			SubtaskID:   a.SubtaskID,
			SubtaskName: a.SubtaskName,
			FieldName:   a.Field,
			ValueBefore: a.ValueBefore,
			ValueAfter:  a.ValueAfter,
			ConfirmText: ConfirmText(a),
			Disposition: DefaultDisposition(a.Type),
			OrderNumber: a.OrderNumber,
			Subtask:     a.Subtask,
		}
	}
	return rows
}

// ActionsFromRows rebuilds the typed actions for the rows the user approved.
// Rows whose disposition is anything other than "apply" are dropped.
func ActionsFromRows(rows []models.ActionRow) ([]*models.UpdateAction, error) {
	var actions []*models.UpdateAction
	for _, row := range rows {
		if row.Disposition != models.DispositionApply {
			continue
		}
		a := &models.UpdateAction{
			Type:        models.ActionType(row.ActionType),
			TaskID:      row.TaskID,
			TaskName:    row.TaskName,
			SubtaskID:   row.SubtaskID,
			SubtaskName: row.SubtaskName,
			Field:       row.FieldName,
			ValueBefore: row.ValueBefore,
			ValueAfter:  row.ValueAfter,
			Subtask:     row.Subtask,
			OrderNumber: row.OrderNumber,
		}
		if a.Type == models.ActionAdd && a.Subtask == nil {
			return nil, fmt.Errorf("add row for %s %s is missing its subtask payload", a.TaskID, a.SubtaskID)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
