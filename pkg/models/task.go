package models

import (
	"sort"
	"time"
)

type TaskKind string

const (
	TaskKindProject TaskKind = "project"
	TaskKindDaily   TaskKind = "daily"
)

// ClassifyTaskID routes a task id to its record category. Ids whose first six
// characters are all ASCII digits belong to the project store; everything else
// is a daily task.
func ClassifyTaskID(id string) TaskKind {
	if len(id) < 6 {
		return TaskKindDaily
	}
	for _, c := range id[:6] {
		if c < '0' || c > '9' {
			return TaskKindDaily
		}
	}
	return TaskKindProject
}

// SubTask is one unit of trackable work. Times are minutes. DeadlineDate is an
// ISO date; optional string fields use the empty string for "absent".
type SubTask struct {
	ID             string
	Name           string
	EstimatedTime  int
	ActualTime     int
	DeadlineDate   string
	DeadlineReason string
	IsInitial      bool
	IsNominal      bool
	SortIndex      float64
	IsIncomplete   bool
}

// Task is a unit of work containing subtasks keyed by subtask id. Insertion
// order carries no meaning; display ordering comes from SortIndex.
type Task struct {
	ID          string
	Name        string
	OrderNumber string
	WaitingDate string
	SubTasks    map[string]*SubTask
}

func NewTask(id, name, orderNumber string) *Task {
	return &Task{
		ID:          id,
		Name:        name,
		OrderNumber: orderNumber,
		SubTasks:    make(map[string]*SubTask),
	}
}

func (t *Task) AddSubTask(st *SubTask) {
	if t.SubTasks == nil {
		t.SubTasks = make(map[string]*SubTask)
	}
	t.SubTasks[st.ID] = st
}

// SubTaskIDs returns the subtask ids in ascending order. The #NNN format makes
// lexicographic and numeric order agree.
func (t *Task) SubTaskIDs() []string {
	ids := make([]string, 0, len(t.SubTasks))
	for id := range t.SubTasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SubTasksBySortIndex returns the subtasks in ascending sort_index order,
// breaking ties by subtask id.
func (t *Task) SubTasksBySortIndex() []*SubTask {
	subs := make([]*SubTask, 0, len(t.SubTasks))
	for _, st := range t.SubTasks {
		subs = append(subs, st)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SortIndex != subs[j].SortIndex {
			return subs[i].SortIndex < subs[j].SortIndex
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

// AllComplete reports whether every subtask has been completed. A task with no
// subtasks counts as complete.
func (t *Task) AllComplete() bool {
	for _, st := range t.SubTasks {
		if st.IsIncomplete {
			return false
		}
	}
	return true
}

// WorkDate shifts a wall-clock time onto the timesheet day it belongs to. The
// external timesheet system rolls its day over at 05:00, so work before five in
// the morning still counts toward the previous day.
func WorkDate(t time.Time) time.Time {
	return t.Add(-5 * time.Hour)
}
