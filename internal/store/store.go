package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ldi/willdo/pkg/models"
)

// headerLines is the fixed number of header lines in a task CSV: name,
// waiting date, order number, then six reserved blank lines.
const headerLines = 9

// FormatError reports a structurally invalid task CSV.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}

// Store owns the task record tree under a single data root. Project tasks
// live under Project/Active and Project/Complete, daily tasks under
// Daily/Active.
type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) ActiveDir(kind models.TaskKind) string {
	if kind == models.TaskKindProject {
		return filepath.Join(s.Root, "Project", "Active")
	}
	return filepath.Join(s.Root, "Daily", "Active")
}

func (s *Store) CompleteDir(kind models.TaskKind) string {
	if kind == models.TaskKindProject {
		return filepath.Join(s.Root, "Project", "Complete")
	}
	return filepath.Join(s.Root, "Daily", "Complete")
}

// TaskPath returns the active-store path a task id maps to.
func (s *Store) TaskPath(taskID string) string {
	return filepath.Join(s.ActiveDir(models.ClassifyTaskID(taskID)), taskID+".csv")
}

func (s *Store) WillDoDir() string {
	return filepath.Join(s.Root, "WillDo")
}

func (s *Store) WorkLogDir() string {
	return filepath.Join(s.Root, "WorkLogs")
}

func (s *Store) OrderTablePath() string {
	return filepath.Join(s.Root, "orders.csv")
}

// Init creates the fixed folder tree and an empty order table if absent.
func (s *Store) Init() error {
	dirs := []string{
		s.ActiveDir(models.TaskKindProject),
		s.CompleteDir(models.TaskKindProject),
		s.ActiveDir(models.TaskKindDaily),
		s.WillDoDir(),
		s.WorkLogDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(s.OrderTablePath()); os.IsNotExist(err) {
		if err := os.WriteFile(s.OrderTablePath(), nil, 0644); err != nil {
			return fmt.Errorf("failed to create order table: %w", err)
		}
	}
	return nil
}

// ReadTask reads one task CSV. The first nine lines are the header (trailing
// whitespace and commas trimmed); every remaining non-empty line is a subtask
// row with exactly ten comma-separated fields. A file with a header and no
// data rows is a valid empty task.
func (s *Store) ReadTask(path string) (*models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	header := make([]string, headerLines)
	for i := 0; i < headerLines && i < len(lines); i++ {
		header[i] = strings.Trim(strings.TrimSpace(lines[i]), ",")
	}

	taskID := strings.TrimSuffix(filepath.Base(path), ".csv")
	task := models.NewTask(taskID, header[0], header[2])
	task.WaitingDate = header[1]

	for i := headerLines; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		st, err := parseSubTaskRow(line)
		if err != nil {
			return nil, &FormatError{Path: path, Line: i + 1, Reason: err.Error()}
		}
		task.AddSubTask(st)
	}
	return task, nil
}

func parseSubTaskRow(line string) (*models.SubTask, error) {
	fields := strings.Split(line, ",")
	if len(fields) != len(models.SubTaskFieldNames) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(models.SubTaskFieldNames), len(fields))
	}
	st := &models.SubTask{}
	for i, name := range models.SubTaskFieldNames {
		if err := models.SetSubTaskField(st, name, fields[i]); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// ReadAllTasks reads every *.csv file in a folder, non-recursively, keyed by
// the filename stem.
func (s *Store) ReadAllTasks(dir string) (map[string]*models.Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	tasks := make(map[string]*models.Task)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		task, err := s.ReadTask(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		tasks[task.ID] = task
	}
	return tasks, nil
}

// SaveTask serializes a task to its active-store path, overwriting the whole
// file. The write goes to a temp file first and is renamed into place so a
// failed write cannot leave a truncated task behind.
func (s *Store) SaveTask(t *models.Task) error {
	dir := s.ActiveDir(models.ClassifyTaskID(t.ID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var b strings.Builder
	b.WriteString(t.Name + "\n")
	b.WriteString(t.WaitingDate + "\n")
	b.WriteString(t.OrderNumber + "\n")
	for i := 3; i < headerLines; i++ {
		b.WriteString("\n")
	}
	for _, id := range t.SubTaskIDs() {
		st := t.SubTasks[id]
		row := make([]string, len(models.SubTaskFieldNames))
		for i, name := range models.SubTaskFieldNames {
			v, err := models.SubTaskFieldValue(st, name)
			if err != nil {
				return err
			}
			row[i] = v
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}

	path := filepath.Join(dir, t.ID+".csv")
	tmp, err := os.CreateTemp(dir, t.ID+".csv.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace task file: %w", err)
	}
	return nil
}

// MoveTask renames a task file between lifecycle folders, creating the
// destination folder if absent.
func (s *Store) MoveTask(taskID, fromDir, toDir string) error {
	if err := os.MkdirAll(toDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", toDir, err)
	}
	src := filepath.Join(fromDir, taskID+".csv")
	dst := filepath.Join(toDir, taskID+".csv")
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move task %s: %w", taskID, err)
	}
	return nil
}
