package willdo

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/pkg/models"
)

// listColumns is the header of a will-do list CSV.
var listColumns = []string{
	"status",
	"project_abbr",
	"order_abbr",
	"task_id",
	"subtask_id",
	"task_name",
	"subtask_name",
	"estimated_time",
	"daily_work_time",
	"deadline_date_nearest",
}

var listFileRe = regexp.MustCompile(`^WillDo(\d{6})\.csv$`)

// Builder creates and extends the daily will-do list. Now is the wall-clock
// reference; the list's date is its models.WorkDate so a list started before
// 05:00 still belongs to the previous working day.
type Builder struct {
	Store  *store.Store
	Orders *store.OrderTable
	Now    time.Time
}

// ListDate returns the working-day stamp of today's list in YYMMDD form.
func (b *Builder) ListDate() string {
	return models.WorkDate(b.Now).Format("060102")
}

// ListPath returns the path of today's will-do list.
func (b *Builder) ListPath() string {
	return filepath.Join(b.Store.WillDoDir(), "WillDo"+b.ListDate()+".csv")
}

// CreateDaily starts a fresh will-do list for the current working day. All
// daily-task subtasks are first marked complete, then every daily task whose
// recurrence tag matches a day since the previous list gets a new rollover
// subtask, and the list is seeded with one entry per matched task.
func (b *Builder) CreateDaily() error {
	if err := b.completeAllDailySubTasks(); err != nil {
		return err
	}

	since, err := b.datesSinceLatestList()
	if err != nil {
		return err
	}

	matched, err := b.matchedDailyTasks(since)
	if err != nil {
		return err
	}
	if err := b.addRolloverSubTasks(matched); err != nil {
		return err
	}

	entries, err := b.entriesForTasks(matched)
	if err != nil {
		return err
	}
	return b.saveList(entries)
}

// AddProjectTasks appends an entry for every active, non-waiting project task
// to today's list, using each task's first incomplete subtask.
func (b *Builder) AddProjectTasks() error {
	entries, err := b.LoadList()
	if err != nil {
		return err
	}

	tasks, err := b.Store.ReadAllTasks(b.Store.ActiveDir(models.TaskKindProject))
	if err != nil {
		return err
	}
	added, err := b.entriesForTasks(tasks)
	if err != nil {
		return err
	}
	return b.saveList(append(entries, added...))
}

// AddSubtask appends one entry for a specific task/subtask pair.
func (b *Builder) AddSubtask(taskID, subtaskID string) error {
	entries, err := b.LoadList()
	if err != nil {
		return err
	}

	task, err := b.Store.ReadTask(b.Store.TaskPath(taskID))
	if err != nil {
		return err
	}
	entry, err := b.EntryForSubtask(task, subtaskID)
	if err != nil {
		return err
	}
	return b.saveList(append(entries, entry))
}

// AddMeeting appends a fixed-shape meeting entry resolved through the order
// table. Meetings have no subtask and are due today.
func (b *Builder) AddMeeting(meetingName, orderNumber string) error {
	entries, err := b.LoadList()
	if err != nil {
		return err
	}

	entries = append(entries, models.WillDoEntry{
		ProjectAbbr:         b.Orders.ProjectAbbr(orderNumber),
		OrderAbbr:           b.Orders.OrderAbbr(orderNumber),
		TaskID:              "打合せ",
		TaskName:            meetingName,
		DeadlineDateNearest: models.WorkDate(b.Now).Format("2006-01-02"),
	})
	return b.saveList(entries)
}

// EntryForSubtask builds the list entry for one subtask, including the pacing
// hint: the remaining minutes of every incomplete subtask from the requested
// one up to the nearest deadline, spread over the business days left.
func (b *Builder) EntryForSubtask(task *models.Task, subtaskID string) (models.WillDoEntry, error) {
	subtask, ok := task.SubTasks[subtaskID]
	if !ok {
		return models.WillDoEntry{}, fmt.Errorf("subtask %s not found in task %s", subtaskID, task.ID)
	}

	var incomplete []*models.SubTask
	for _, st := range task.SubTasksBySortIndex() {
		if st.IsIncomplete {
			incomplete = append(incomplete, st)
		}
	}

	// Subtasks ordered before the requested one are out of scope.
	start := 0
	for i, st := range incomplete {
		if st.ID == subtaskID {
			start = i
			break
		}
	}
	window := incomplete[start:]

	nearestDeadline := ""
	nearestIdx := -1
	for i, st := range window {
		if st.DeadlineDate == "" {
			continue
		}
		if nearestDeadline == "" || st.DeadlineDate < nearestDeadline {
			nearestDeadline = st.DeadlineDate
			nearestIdx = i
		}
	}

	var perDay int
	if nearestIdx >= 0 {
		// Pace the work between here and the deadline-bearing subtask.
		sum := 0
		for _, st := range window[:nearestIdx+1] {
			sum += st.EstimatedTime - st.ActualTime
		}
		daysLeft, err := businessDaysUntil(models.WorkDate(b.Now), nearestDeadline)
		if err != nil {
			return models.WillDoEntry{}, err
		}
		if daysLeft <= 1 {
			perDay = sum
		} else {
			// Half a day of slack keeps the last day from being fully booked.
			perDay = int(math.Round(float64(sum) / (float64(daysLeft) - 0.5)))
		}
	} else {
		for _, st := range window {
			perDay += st.EstimatedTime - st.ActualTime
		}
	}

	return models.WillDoEntry{
		ProjectAbbr:         b.Orders.ProjectAbbr(task.OrderNumber),
		OrderAbbr:           b.Orders.OrderAbbr(task.OrderNumber),
		TaskID:              task.ID,
		SubtaskID:           subtask.ID,
		TaskName:            task.Name,
		SubtaskName:         subtask.Name,
		EstimatedTime:       subtask.EstimatedTime,
		DailyWorkTime:       strconv.Itoa(perDay),
		DeadlineDateNearest: nearestDeadline,
	}, nil
}

// LoadList reads today's will-do list.
func (b *Builder) LoadList() ([]models.WillDoEntry, error) {
	f, err := os.Open(b.ListPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open will-do list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read will-do list: %w", err)
	}

	var entries []models.WillDoEntry
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != len(listColumns) {
			return nil, fmt.Errorf("will-do list row %d: expected %d columns, got %d", i+1, len(listColumns), len(rec))
		}
		estimated := 0
		if rec[7] != "" {
			estimated, err = strconv.Atoi(rec[7])
			if err != nil {
				return nil, fmt.Errorf("will-do list row %d: estimated_time: %w", i+1, err)
			}
		}
		entries = append(entries, models.WillDoEntry{
			Status:              rec[0],
			ProjectAbbr:         rec[1],
			OrderAbbr:           rec[2],
			TaskID:              rec[3],
			SubtaskID:           rec[4],
			TaskName:            rec[5],
			SubtaskName:         rec[6],
			EstimatedTime:       estimated,
			DailyWorkTime:       rec[8],
			DeadlineDateNearest: rec[9],
		})
	}
	return entries, nil
}

func (b *Builder) saveList(entries []models.WillDoEntry) error {
	if err := os.MkdirAll(b.Store.WillDoDir(), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", b.Store.WillDoDir(), err)
	}
	f, err := os.Create(b.ListPath())
	if err != nil {
		return fmt.Errorf("failed to create will-do list: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(listColumns); err != nil {
		return fmt.Errorf("failed to write will-do list: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.Status,
			e.ProjectAbbr,
			e.OrderAbbr,
			e.TaskID,
			e.SubtaskID,
			e.TaskName,
			e.SubtaskName,
			strconv.Itoa(e.EstimatedTime),
			e.DailyWorkTime,
			e.DeadlineDateNearest,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write will-do list: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write will-do list: %w", err)
	}
	return nil
}

func (b *Builder) completeAllDailySubTasks() error {
	dir := b.Store.ActiveDir(models.TaskKindDaily)
	tasks, err := b.Store.ReadAllTasks(dir)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		task := tasks[id]
		for _, st := range task.SubTasks {
			st.IsIncomplete = false
		}
		if err := b.Store.SaveTask(task); err != nil {
			return err
		}
	}
	return nil
}

// datesSinceLatestList returns every date after the most recent list's date up
// to and including today's working day. On a data root with no list yet, the
// slice holds only today.
func (b *Builder) datesSinceLatestList() ([]time.Time, error) {
	entries, err := os.ReadDir(b.Store.WillDoDir())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.Store.WillDoDir(), err)
	}

	var latest time.Time
	found := false
	for _, entry := range entries {
		m := listFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		d, err := time.Parse("060102", m[1])
		if err != nil {
			continue
		}
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}

	today := truncateToDay(models.WorkDate(b.Now))
	if !found {
		return []time.Time{today}, nil
	}

	var dates []time.Time
	for d := latest.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// matchedDailyTasks reads the daily tasks whose filename recurrence tag
// (characters 2-4 of the yyXXXnnn name) is "Day", a weekday abbreviation of
// one of the given dates, or "Mdd" for one of their days of month.
func (b *Builder) matchedDailyTasks(dates []time.Time) (map[string]*models.Task, error) {
	tags := []string{"Day"}
	for _, d := range dates {
		tags = append(tags, d.Format("Mon"))
	}
	for _, d := range dates {
		tags = append(tags, fmt.Sprintf("M%02d", d.Day()))
	}

	dir := b.Store.ActiveDir(models.TaskKindDaily)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	matched := make(map[string]*models.Task)
	for _, tag := range tags {
		for _, entry := range entries {
			name := entry.Name()
			if len(name) < 9 || filepath.Ext(name) != ".csv" || name[2:5] != tag {
				continue
			}
			task, err := b.Store.ReadTask(filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			matched[task.ID] = task
		}
	}
	return matched, nil
}

// addRolloverSubTasks gives each matched daily task its subtask for today: a
// clone of the #000 template with the next free id and sort index, the date
// appended to the name, and today as the deadline.
func (b *Builder) addRolloverSubTasks(tasks map[string]*models.Task) error {
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		task := tasks[id]
		base, ok := task.SubTasks["#000"]
		if !ok {
			continue
		}

		maxID := 0
		maxSort := 0.0
		for _, st := range task.SubTasks {
			if n, err := strconv.Atoi(st.ID[1:]); err == nil && n > maxID {
				maxID = n
			}
			if st.SortIndex > maxSort {
				maxSort = st.SortIndex
			}
		}

		task.AddSubTask(&models.SubTask{
			ID:             fmt.Sprintf("#%03d", maxID+1),
			Name:           base.Name + b.Now.Format("060102"),
			EstimatedTime:  base.EstimatedTime,
			ActualTime:     base.ActualTime,
			DeadlineDate:   b.Now.Format("2006-01-02"),
			DeadlineReason: base.DeadlineReason,
			IsInitial:      base.IsInitial,
			IsNominal:      base.IsNominal,
			SortIndex:      maxSort + 1,
			IsIncomplete:   true,
		})
		if err := b.Store.SaveTask(task); err != nil {
			return err
		}
	}
	return nil
}

// entriesForTasks produces one entry per non-waiting task with incomplete
// work, keyed on the task's first incomplete subtask in sort_index order.
func (b *Builder) entriesForTasks(tasks map[string]*models.Task) ([]models.WillDoEntry, error) {
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var entries []models.WillDoEntry
	for _, id := range ids {
		task := tasks[id]
		if task.WaitingDate != "" {
			continue
		}
		for _, st := range task.SubTasksBySortIndex() {
			if !st.IsIncomplete {
				continue
			}
			entry, err := b.EntryForSubtask(task, st.ID)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			break
		}
	}
	return entries, nil
}

// businessDaysUntil counts the weekdays from today through the deadline,
// inclusive on both ends.
func businessDaysUntil(now time.Time, deadline string) (int, error) {
	end, err := time.Parse("2006-01-02", deadline)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline date %q: %w", deadline, err)
	}
	days := 0
	for d := truncateToDay(now); !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
