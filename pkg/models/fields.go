package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Subtask field names as they appear in the task CSV column order and in
// update actions.
const (
	FieldSubtaskID      = "subtask_id"
	FieldName           = "name"
	FieldEstimatedTime  = "estimated_time"
	FieldActualTime     = "actual_time"
	FieldDeadlineDate   = "deadline_date"
	FieldDeadlineReason = "deadline_reason"
	FieldIsInitial      = "is_initial"
	FieldIsNominal      = "is_nominal"
	FieldSortIndex      = "sort_index"
	FieldIsIncomplete   = "is_incomplete"
)

// SubTaskFieldNames is the fixed CSV column order of a subtask row.
var SubTaskFieldNames = []string{
	FieldSubtaskID,
	FieldName,
	FieldEstimatedTime,
	FieldActualTime,
	FieldDeadlineDate,
	FieldDeadlineReason,
	FieldIsInitial,
	FieldIsNominal,
	FieldSortIndex,
	FieldIsIncomplete,
}

// DiffableSubTaskFields are the fields the diff engine compares between the
// outline and the store. subtask_id is the matching key and actual_time is
// store-owned, so neither is ever diffed.
var DiffableSubTaskFields = []string{
	FieldName,
	FieldEstimatedTime,
	FieldDeadlineDate,
	FieldDeadlineReason,
	FieldIsInitial,
	FieldIsNominal,
	FieldSortIndex,
	FieldIsIncomplete,
}

// InvalidFieldError reports field names supplied to a subtask operation that
// are not part of the recognized subtask field set.
type InvalidFieldError struct {
	Fields []string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid subtask fields: %s (expected: %s)",
		strings.Join(e.Fields, ", "), strings.Join(SubTaskFieldNames, ", "))
}

// FormatBool writes booleans in the task CSV's literal form.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts the task CSV's True/False literals and their lowercase
// forms.
func ParseBool(s string) (bool, error) {
	switch s {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// FormatSortIndex renders a sort index with the shortest representation that
// round-trips, so serialized task files are reproducible from the value alone.
func FormatSortIndex(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// SubTaskFieldValue returns a subtask field as its serialized string form.
func SubTaskFieldValue(st *SubTask, field string) (string, error) {
	switch field {
	case FieldSubtaskID:
		return st.ID, nil
	case FieldName:
		return st.Name, nil
	case FieldEstimatedTime:
		return strconv.Itoa(st.EstimatedTime), nil
	case FieldActualTime:
		return strconv.Itoa(st.ActualTime), nil
	case FieldDeadlineDate:
		return st.DeadlineDate, nil
	case FieldDeadlineReason:
		return st.DeadlineReason, nil
	case FieldIsInitial:
		return FormatBool(st.IsInitial), nil
	case FieldIsNominal:
		return FormatBool(st.IsNominal), nil
	case FieldSortIndex:
		return FormatSortIndex(st.SortIndex), nil
	case FieldIsIncomplete:
		return FormatBool(st.IsIncomplete), nil
	}
	return "", &InvalidFieldError{Fields: []string{field}}
}

// SetSubTaskField assigns a serialized value to the named field, coercing it
// to the field's type. Empty text in the optional fields normalizes to absent.
func SetSubTaskField(st *SubTask, field, value string) error {
	switch field {
	case FieldSubtaskID:
		st.ID = value
	case FieldName:
		st.Name = value
	case FieldEstimatedTime:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("estimated_time: %w", err)
		}
		st.EstimatedTime = n
	case FieldActualTime:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("actual_time: %w", err)
		}
		st.ActualTime = n
	case FieldDeadlineDate:
		st.DeadlineDate = value
	case FieldDeadlineReason:
		st.DeadlineReason = value
	case FieldIsInitial:
		b, err := ParseBool(value)
		if err != nil {
			return fmt.Errorf("is_initial: %w", err)
		}
		st.IsInitial = b
	case FieldIsNominal:
		b, err := ParseBool(value)
		if err != nil {
			return fmt.Errorf("is_nominal: %w", err)
		}
		st.IsNominal = b
	case FieldSortIndex:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("sort_index: %w", err)
		}
		st.SortIndex = f
	case FieldIsIncomplete:
		b, err := ParseBool(value)
		if err != nil {
			return fmt.Errorf("is_incomplete: %w", err)
		}
		st.IsIncomplete = b
	default:
		return &InvalidFieldError{Fields: []string{field}}
	}
	return nil
}

// SubTaskFromFields builds a subtask from a field-name map, rejecting unknown
// keys before anything touches disk.
func SubTaskFromFields(fields map[string]string) (*SubTask, error) {
	known := make(map[string]bool, len(SubTaskFieldNames))
	for _, f := range SubTaskFieldNames {
		known[f] = true
	}
	var invalid []string
	for f := range fields {
		if !known[f] {
			invalid = append(invalid, f)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &InvalidFieldError{Fields: invalid}
	}

	st := &SubTask{}
	for f, v := range fields {
		if err := SetSubTaskField(st, f, v); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// MarshalJSON serializes a subtask as a map keyed by its CSV field names, with
// every value in its serialized string form.
func (st *SubTask) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(SubTaskFieldNames))
	for _, f := range SubTaskFieldNames {
		v, err := SubTaskFieldValue(st, f)
		if err != nil {
			return nil, err
		}
		m[f] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the field-map form. Keys outside the recognized field
// set are rejected, not dropped, so a misspelled key in an add payload fails
// before anything touches disk. Unquoted scalar values are coerced from their
// raw text.
func (st *SubTask) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = string(v)
		}
		fields[k] = s
	}
	parsed, err := SubTaskFromFields(fields)
	if err != nil {
		return err
	}
	*st = *parsed
	return nil
}
