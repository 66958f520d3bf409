package reconcile

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/pkg/models"
)

// Differ compares the outline-parsed task map against the project record
// store and produces the actions needed to reconcile store state to outline
// intent, plus the lifecycle actions implied by store state alone.
type Differ struct {
	Store *store.Store
	Today time.Time
}

// Compare emits actions in discovery order: per outline task, subtask adds,
// then field updates, then completions, then task-level name/waiting actions;
// finally the active-store sweep for dropped tasks and finished task files.
// A task found only in the complete store is moved back to active before
// being diffed as a normal matched task.
func (d *Differ) Compare(outlineTasks map[string]*models.Task) ([]*models.UpdateAction, error) {
	activeDir := d.Store.ActiveDir(models.TaskKindProject)
	completeDir := d.Store.CompleteDir(models.TaskKindProject)

	storeTasks, err := d.Store.ReadAllTasks(activeDir)
	if err != nil {
		return nil, err
	}

	// Sweep over the active files as they were before any reactivation moves.
	activeIDs := make([]string, 0, len(storeTasks))
	for id := range storeTasks {
		activeIDs = append(activeIDs, id)
	}
	sort.Strings(activeIDs)

	outlineIDs := make([]string, 0, len(outlineTasks))
	for id := range outlineTasks {
		outlineIDs = append(outlineIDs, id)
	}
	sort.Strings(outlineIDs)

	var actions []*models.UpdateAction

	for _, id := range outlineIDs {
		outlineTask := outlineTasks[id]
		storeTask, ok := storeTasks[id]
		if !ok {
			completePath := filepath.Join(completeDir, id+".csv")
			if _, statErr := os.Stat(completePath); statErr == nil {
				// Reopened after prior completion: relocate, then diff as a
				// normal matched task.
				if err := d.Store.MoveTask(id, completeDir, activeDir); err != nil {
					return nil, err
				}
				storeTask, err = d.Store.ReadTask(filepath.Join(activeDir, id+".csv"))
				if err != nil {
					return nil, err
				}
			} else {
				// Wholly new task.
				actions = append(actions, &models.UpdateAction{
					Type:     models.ActionCreateTask,
					TaskID:   id,
					TaskName: outlineTask.Name,
				})
				for _, subID := range outlineTask.SubTaskIDs() {
					st := outlineTask.SubTasks[subID]
					actions = append(actions, &models.UpdateAction{
						Type:        models.ActionAdd,
						TaskID:      id,
						TaskName:    outlineTask.Name,
						SubtaskID:   st.ID,
						SubtaskName: st.Name,
						Subtask:     st,
					})
				}
				continue
			}
		}

		taskActions, err := diffMatchedTask(outlineTask, storeTask, d.Today)
		if err != nil {
			return nil, err
		}
		actions = append(actions, taskActions...)
	}

	for _, id := range activeIDs {
		storeTask := storeTasks[id]
		if _, inOutline := outlineTasks[id]; !inOutline {
			// The task was dropped from the outline entirely: treat all
			// remaining work as done by omission.
			for _, subID := range storeTask.SubTaskIDs() {
				st := storeTask.SubTasks[subID]
				if st.IsIncomplete {
					actions = append(actions, &models.UpdateAction{
						Type:        models.ActionComplete,
						TaskID:      id,
						TaskName:    storeTask.Name,
						SubtaskID:   st.ID,
						SubtaskName: st.Name,
					})
				}
			}
		}
		if storeTask.AllComplete() {
			actions = append(actions, &models.UpdateAction{
				Type:     models.ActionMoveToComplete,
				TaskID:   id,
				TaskName: storeTask.Name,
			})
		}
	}

	return actions, nil
}

func diffMatchedTask(outlineTask, storeTask *models.Task, today time.Time) ([]*models.UpdateAction, error) {
	var actions []*models.UpdateAction

	for _, subID := range outlineTask.SubTaskIDs() {
		outlineSub := outlineTask.SubTasks[subID]
		storeSub, ok := storeTask.SubTasks[subID]
		if !ok {
			actions = append(actions, &models.UpdateAction{
				Type:        models.ActionAdd,
				TaskID:      outlineTask.ID,
				TaskName:    storeTask.Name,
				SubtaskID:   outlineSub.ID,
				SubtaskName: outlineSub.Name,
				Subtask:     outlineSub,
			})
			continue
		}

		// One action per differing field, never one per subtask.
		for _, field := range models.DiffableSubTaskFields {
			storeVal, err := models.SubTaskFieldValue(storeSub, field)
			if err != nil {
				return nil, err
			}
			outlineVal, err := models.SubTaskFieldValue(outlineSub, field)
			if err != nil {
				return nil, err
			}
			if storeVal != outlineVal {
				actions = append(actions, &models.UpdateAction{
					Type:        models.ActionUpdateSubtaskField,
					TaskID:      outlineTask.ID,
					TaskName:    storeTask.Name,
					SubtaskID:   storeSub.ID,
					SubtaskName: storeSub.Name,
					Field:       field,
					ValueBefore: storeVal,
					ValueAfter:  outlineVal,
				})
			}
		}
	}

	for _, subID := range storeTask.SubTaskIDs() {
		storeSub := storeTask.SubTasks[subID]
		if _, ok := outlineTask.SubTasks[subID]; !ok && storeSub.IsIncomplete {
			actions = append(actions, &models.UpdateAction{
				Type:        models.ActionComplete,
				TaskID:      outlineTask.ID,
				TaskName:    storeTask.Name,
				SubtaskID:   storeSub.ID,
				SubtaskName: storeSub.Name,
			})
		}
	}

	if outlineTask.Name != storeTask.Name {
		actions = append(actions, &models.UpdateAction{
			Type:        models.ActionUpdateTaskName,
			TaskID:      outlineTask.ID,
			TaskName:    storeTask.Name,
			Field:       "name",
			ValueBefore: storeTask.Name,
			ValueAfter:  outlineTask.Name,
		})
	}

	todayStr := today.Format("2006-01-02")
	if outlineTask.WaitingDate == storeTask.WaitingDate {
		if storeTask.WaitingDate != "" && storeTask.WaitingDate <= todayStr {
			// The waiting date has elapsed; the flag auto-expires.
			actions = append(actions, &models.UpdateAction{
				Type:        models.ActionRemoveWaitingFlag,
				TaskID:      outlineTask.ID,
				TaskName:    storeTask.Name,
				Field:       "waiting_date",
				ValueBefore: storeTask.WaitingDate,
			})
		}
	} else {
		actions = append(actions, &models.UpdateAction{
			Type:        models.ActionUpdateWaitingDate,
			TaskID:      outlineTask.ID,
			TaskName:    storeTask.Name,
			Field:       "waiting_date",
			ValueBefore: storeTask.WaitingDate,
			ValueAfter:  outlineTask.WaitingDate,
		})
	}

	return actions, nil
}

// PendingRows runs the full diff and returns the result in the tabular form
// the presentation layer reviews.
func (d *Differ) PendingRows(outlineTasks map[string]*models.Task) ([]models.ActionRow, error) {
	actions, err := d.Compare(outlineTasks)
	if err != nil {
		return nil, err
	}
	return RowsFromActions(actions), nil
}
