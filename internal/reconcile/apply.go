package reconcile

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/pkg/models"
)

// NotFoundError reports an apply action whose referenced task or subtask no
// longer exists on disk.
type NotFoundError struct {
	TaskID    string
	SubtaskID string
}

func (e *NotFoundError) Error() string {
	if e.SubtaskID != "" {
		return fmt.Sprintf("subtask %s not found in task %s", e.SubtaskID, e.TaskID)
	}
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// Engine applies approved actions to the record store, one at a time. Every
// action reloads the task file fresh so that multiple actions targeting the
// same task within one batch compose. There is no rollback: a failing action
// leaves the actions before it applied.
type Engine struct {
	Store *store.Store
}

// Apply runs the actions in order and returns how many were applied before
// the first failure, if any.
func (e *Engine) Apply(actions []*models.UpdateAction) (int, error) {
	for i, a := range actions {
		if err := e.applyOne(a); err != nil {
			return i, fmt.Errorf("%s for %s: %w", a.Type, a.TaskID, err)
		}
	}
	return len(actions), nil
}

func (e *Engine) applyOne(a *models.UpdateAction) error {
	switch a.Type {
	case models.ActionCreateTask:
		return e.Store.SaveTask(models.NewTask(a.TaskID, a.TaskName, a.OrderNumber))
	case models.ActionMoveToComplete:
		kind := models.ClassifyTaskID(a.TaskID)
		err := e.Store.MoveTask(a.TaskID, e.Store.ActiveDir(kind), e.Store.CompleteDir(kind))
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{TaskID: a.TaskID}
		}
		return err
	}

	task, err := e.Store.ReadTask(e.Store.TaskPath(a.TaskID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{TaskID: a.TaskID}
		}
		return err
	}

	switch a.Type {
	case models.ActionAdd:
		if a.Subtask == nil {
			return fmt.Errorf("add action for %s has no subtask payload", a.TaskID)
		}
		task.AddSubTask(a.Subtask)

	case models.ActionUpdateSubtaskField:
		st, ok := task.SubTasks[a.SubtaskID]
		if !ok {
			return &NotFoundError{TaskID: a.TaskID, SubtaskID: a.SubtaskID}
		}
		if err := models.SetSubTaskField(st, a.Field, a.ValueAfter); err != nil {
			return err
		}

	case models.ActionComplete:
		st, ok := task.SubTasks[a.SubtaskID]
		if !ok {
			return &NotFoundError{TaskID: a.TaskID, SubtaskID: a.SubtaskID}
		}
		st.IsIncomplete = false

	case models.ActionUpdateWaitingDate:
		task.WaitingDate = a.ValueAfter

	case models.ActionRemoveWaitingFlag:
		task.WaitingDate = ""

	case models.ActionUpdateTaskName:
		task.Name = a.ValueAfter

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}

	return e.Store.SaveTask(task)
}

// ApplyRows is the presentation-boundary entry point: it filters the edited
// rows down to the approved subset, rebuilds typed actions, and applies them.
func (e *Engine) ApplyRows(rows []models.ActionRow) (int, error) {
	actions, err := ActionsFromRows(rows)
	if err != nil {
		return 0, err
	}
	return e.Apply(actions)
}
