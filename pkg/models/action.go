package models

type ActionType string

const (
	ActionCreateTask         ActionType = "create_task"
	ActionAdd                ActionType = "add"
	ActionUpdateSubtaskField ActionType = "update_subtask_field"
	ActionComplete           ActionType = "complete"
	ActionUpdateTaskName     ActionType = "update_task_name"
	ActionUpdateWaitingDate  ActionType = "update_waiting_date"
	ActionRemoveWaitingFlag  ActionType = "remove_waiting_flag"
	ActionMoveToComplete     ActionType = "move_to_complete"
)

type Disposition string

const (
	// DispositionApply marks a row for application, either automatically or
	// after the user approved it.
	DispositionApply Disposition = "apply"
	// DispositionConfirm marks a row that needs explicit user approval before
	// it may be applied.
	DispositionConfirm Disposition = "confirm"
	// DispositionSkip marks a row the user declined.
	DispositionSkip Disposition = "skip"
)

// UpdateAction is a single detected discrepancy between outline and store, or
// a single lifecycle transition to perform. Only the fields relevant to the
// action type are set; field values are carried in their serialized string
// form and coerced at apply time.
type UpdateAction struct {
	Type     ActionType
	TaskID   string
	TaskName string

	SubtaskID   string
	SubtaskName string

	// Field names the changed attribute for update_subtask_field, and is
	// "name" or "waiting_date" for the task-level updates.
	Field       string
	ValueBefore string
	ValueAfter  string

	// Subtask is the payload of an add action.
	Subtask *SubTask

	// OrderNumber is supplied by the user for create_task.
	OrderNumber string
}

// ActionRow is the tabular form of an UpdateAction handed to the presentation
// layer for review and editing. The core converts to and from this shape at
// the boundary only.
type ActionRow struct {
	ActionType  string      `json:"action_type"`
	TaskID      string      `json:"task_id"`
	TaskName    string      `json:"task_name"`
	SubtaskID   string      `json:"subtask_id"`
	SubtaskName string      `json:"subtask_name"`
	FieldName   string      `json:"field_name"`
	ValueBefore string      `json:"value_before"`
	ValueAfter  string      `json:"value_after"`
	ConfirmText string      `json:"confirm_text"`
	Disposition Disposition `json:"disposition"`

	// OrderNumber is edited in for create_task rows.
	OrderNumber string `json:"order_number,omitempty"`
	// Subtask carries an add action's payload through the review round trip;
	// it is not meant for display.
	Subtask *SubTask `json:"subtask,omitempty"`
}

// WillDoEntry is one line of the daily will-do worklist derived from the
// record store.
type WillDoEntry struct {
	Status        string
	ProjectAbbr   string
	OrderAbbr     string
	TaskID        string
	SubtaskID     string
	TaskName      string
	SubtaskName   string
	EstimatedTime int
	// DailyWorkTime is the pacing hint: minutes per business day to stay on
	// schedule for the nearest deadline. Empty when no deadline applies.
	DailyWorkTime string
	// DeadlineDateNearest is the ISO date of that nearest deadline, if any.
	DeadlineDateNearest string
}
