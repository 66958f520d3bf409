package worklog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ldi/willdo/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// columns is the header of a worklog CSV.
var columns = []string{
	"entry_id",
	"order_number",
	"order_abbr",
	"project_abbr",
	"task_id",
	"subtask_id",
	"task_name",
	"subtask_name",
	"start_time",
	"end_time",
}

// Entry is one recorded block of work.
type Entry struct {
	ID          string
	OrderNumber string
	OrderAbbr   string
	ProjectAbbr string
	TaskID      string
	SubtaskID   string
	TaskName    string
	SubtaskName string
	Start       time.Time
	End         time.Time
}

// Minutes returns the entry's duration in whole minutes.
func (e Entry) Minutes() int {
	return int(e.End.Sub(e.Start).Minutes())
}

// Recorder appends timer results to the day's worklog CSV and keeps the
// subtask actual times in sync.
type Recorder struct {
	Store  *store.Store
	Orders *store.OrderTable
	Now    time.Time
}

// Path returns the worklog file for a list date (YYMMDD).
func (r *Recorder) Path(willdoDate string) string {
	return filepath.Join(r.Store.WorkLogDir(), "worklog"+willdoDate+".csv")
}

// Record logs minutes of work against a subtask: one start/end row in the
// worklog CSV for the given list date, and the same minutes added to the
// subtask's actual_time in its task file. A missing subtask is an error, not
// a silent no-op.
func (r *Recorder) Record(willdoDate string, minutes int, taskID, subtaskID string) error {
	task, err := r.Store.ReadTask(r.Store.TaskPath(taskID))
	if err != nil {
		return err
	}
	subtask, ok := task.SubTasks[subtaskID]
	if !ok {
		return fmt.Errorf("subtask %s not found in task %s", subtaskID, taskID)
	}

	start := r.Now
	end := start.Add(time.Duration(minutes) * time.Minute)

	entry := Entry{
		ID:          uuid.New().String(),
		OrderNumber: task.OrderNumber,
		OrderAbbr:   r.Orders.OrderAbbr(task.OrderNumber),
		ProjectAbbr: r.Orders.ProjectAbbr(task.OrderNumber),
		TaskID:      task.ID,
		SubtaskID:   subtask.ID,
		TaskName:    task.Name,
		SubtaskName: subtask.Name,
		Start:       start,
		End:         end,
	}
	if err := r.append(willdoDate, entry); err != nil {
		return err
	}

	subtask.ActualTime += minutes
	return r.Store.SaveTask(task)
}

func (r *Recorder) append(willdoDate string, entry Entry) error {
	if err := os.MkdirAll(r.Store.WorkLogDir(), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.Store.WorkLogDir(), err)
	}

	path := r.Path(willdoDate)
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open worklog: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("failed to write worklog: %w", err)
		}
	}
	row := []string{
		entry.ID,
		entry.OrderNumber,
		entry.OrderAbbr,
		entry.ProjectAbbr,
		entry.TaskID,
		entry.SubtaskID,
		entry.TaskName,
		entry.SubtaskName,
		entry.Start.Format(timeLayout),
		entry.End.Format(timeLayout),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write worklog: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write worklog: %w", err)
	}
	return nil
}

// Load reads all entries of one worklog file in recorded order.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open worklog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read worklog: %w", err)
	}

	var entries []Entry
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("worklog row %d: expected %d columns, got %d", i+1, len(columns), len(rec))
		}
		start, err := time.Parse(timeLayout, rec[8])
		if err != nil {
			return nil, fmt.Errorf("worklog row %d: start_time: %w", i+1, err)
		}
		end, err := time.Parse(timeLayout, rec[9])
		if err != nil {
			return nil, fmt.Errorf("worklog row %d: end_time: %w", i+1, err)
		}
		entries = append(entries, Entry{
			ID:          rec[0],
			OrderNumber: rec[1],
			OrderAbbr:   rec[2],
			ProjectAbbr: rec[3],
			TaskID:      rec[4],
			SubtaskID:   rec[5],
			TaskName:    rec[6],
			SubtaskName: rec[7],
			Start:       start,
			End:         end,
		})
	}
	return entries, nil
}
