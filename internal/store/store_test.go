package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/willdo/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func sampleTask() *models.Task {
	task := models.NewTask("250101a1", "customer proposal", "A123-456")
	task.WaitingDate = "2026-09-10"
	task.AddSubTask(&models.SubTask{
		ID: "#000", Name: "outline", EstimatedTime: 30, ActualTime: 10,
		DeadlineDate: "2026-09-05", DeadlineReason: "kickoff",
		IsInitial: true, IsNominal: true, SortIndex: 1, IsIncomplete: true,
	})
	task.AddSubTask(&models.SubTask{
		ID: "#001", Name: "draft", EstimatedTime: 120,
		IsInitial: true, SortIndex: 2.5, IsIncomplete: true,
	})
	return task
}

func TestInitCreatesTree(t *testing.T) {
	s := newTestStore(t)

	for _, dir := range []string{
		s.ActiveDir(models.TaskKindProject),
		s.CompleteDir(models.TaskKindProject),
		s.ActiveDir(models.TaskKindDaily),
		s.WillDoDir(),
		s.WorkLogDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("Expected %s to be a directory", dir)
		}
	}

	if _, err := os.Stat(s.OrderTablePath()); err != nil {
		t.Errorf("Expected order table to exist: %v", err)
	}
}

func TestSaveAndReadTask(t *testing.T) {
	s := newTestStore(t)
	task := sampleTask()

	if err := s.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	got, err := s.ReadTask(s.TaskPath(task.ID))
	if err != nil {
		t.Fatalf("ReadTask failed: %v", err)
	}

	if got.ID != task.ID || got.Name != task.Name {
		t.Errorf("Expected %s %q, got %s %q", task.ID, task.Name, got.ID, got.Name)
	}
	if got.OrderNumber != "A123-456" {
		t.Errorf("Expected order number A123-456, got %q", got.OrderNumber)
	}
	if got.WaitingDate != "2026-09-10" {
		t.Errorf("Expected waiting date 2026-09-10, got %q", got.WaitingDate)
	}
	if len(got.SubTasks) != 2 {
		t.Fatalf("Expected 2 subtasks, got %d", len(got.SubTasks))
	}
	sub := got.SubTasks["#000"]
	if sub == nil {
		t.Fatal("Expected subtask #000")
	}
	if sub.Name != "outline" || sub.EstimatedTime != 30 || sub.ActualTime != 10 {
		t.Errorf("Unexpected subtask: %+v", sub)
	}
	if !sub.IsInitial || !sub.IsNominal || !sub.IsIncomplete {
		t.Errorf("Expected flags set, got %+v", sub)
	}
	if got.SubTasks["#001"].SortIndex != 2.5 {
		t.Errorf("Expected sort index 2.5, got %v", got.SubTasks["#001"].SortIndex)
	}
}

func TestSaveTaskIsByteIdempotent(t *testing.T) {
	s := newTestStore(t)
	task := sampleTask()

	if err := s.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}
	first, err := os.ReadFile(s.TaskPath(task.ID))
	if err != nil {
		t.Fatalf("Failed to read task file: %v", err)
	}

	got, err := s.ReadTask(s.TaskPath(task.ID))
	if err != nil {
		t.Fatalf("ReadTask failed: %v", err)
	}
	if err := s.SaveTask(got); err != nil {
		t.Fatalf("Second SaveTask failed: %v", err)
	}
	second, err := os.ReadFile(s.TaskPath(task.ID))
	if err != nil {
		t.Fatalf("Failed to read task file: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("Expected identical bytes after read/save cycle:\n%q\nvs\n%q", first, second)
	}
}

func TestReadTaskEmptyDataSection(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.ActiveDir(models.TaskKindProject), "250102b3.csv")
	content := "bare task\n\n\n\n\n\n\n\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	task, err := s.ReadTask(path)
	if err != nil {
		t.Fatalf("ReadTask failed: %v", err)
	}
	if task.Name != "bare task" {
		t.Errorf("Expected name 'bare task', got %q", task.Name)
	}
	if len(task.SubTasks) != 0 {
		t.Errorf("Expected no subtasks, got %d", len(task.SubTasks))
	}
}

func TestReadTaskTrimsHeaderCommas(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.ActiveDir(models.TaskKindProject), "250103c1.csv")
	content := "padded task,,,\n2026-10-01,,\nB777-001,\n\n\n\n\n\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	task, err := s.ReadTask(path)
	if err != nil {
		t.Fatalf("ReadTask failed: %v", err)
	}
	if task.Name != "padded task" {
		t.Errorf("Expected trimmed name, got %q", task.Name)
	}
	if task.WaitingDate != "2026-10-01" {
		t.Errorf("Expected trimmed waiting date, got %q", task.WaitingDate)
	}
	if task.OrderNumber != "B777-001" {
		t.Errorf("Expected trimmed order number, got %q", task.OrderNumber)
	}
}

func TestReadTaskMalformedRow(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.ActiveDir(models.TaskKindProject), "250104d1.csv")
	content := strings.Repeat("\n", 9) + "#000,too,few,fields\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	_, err := s.ReadTask(path)
	if err == nil {
		t.Fatal("Expected error for malformed row")
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected FormatError, got %T: %v", err, err)
	}
	if formatErr.Line != 10 {
		t.Errorf("Expected line 10, got %d", formatErr.Line)
	}
}

func TestTaskPathRouting(t *testing.T) {
	s := New("/data")

	project := s.TaskPath("250101a1")
	if !strings.Contains(project, filepath.Join("Project", "Active")) {
		t.Errorf("Expected project path, got %s", project)
	}

	daily := s.TaskPath("25DayMail")
	if !strings.Contains(daily, filepath.Join("Daily", "Active")) {
		t.Errorf("Expected daily path, got %s", daily)
	}
}

func TestMoveTask(t *testing.T) {
	s := newTestStore(t)
	task := sampleTask()
	if err := s.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	active := s.ActiveDir(models.TaskKindProject)
	complete := s.CompleteDir(models.TaskKindProject)

	if err := s.MoveTask(task.ID, active, complete); err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(active, task.ID+".csv")); !os.IsNotExist(err) {
		t.Error("Expected task gone from active folder")
	}
	if _, err := os.Stat(filepath.Join(complete, task.ID+".csv")); err != nil {
		t.Errorf("Expected task in complete folder: %v", err)
	}

	// And back again.
	if err := s.MoveTask(task.ID, complete, active); err != nil {
		t.Fatalf("MoveTask back failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(active, task.ID+".csv")); err != nil {
		t.Errorf("Expected task back in active folder: %v", err)
	}
}

func TestReadAllTasks(t *testing.T) {
	s := newTestStore(t)

	a := models.NewTask("250101a1", "first", "")
	b := models.NewTask("250102b2", "second", "")
	for _, task := range []*models.Task{a, b} {
		if err := s.SaveTask(task); err != nil {
			t.Fatalf("SaveTask failed: %v", err)
		}
	}
	// Non-CSV noise is skipped.
	noise := filepath.Join(s.ActiveDir(models.TaskKindProject), "notes.txt")
	if err := os.WriteFile(noise, []byte("ignore"), 0644); err != nil {
		t.Fatalf("Failed to write noise file: %v", err)
	}

	tasks, err := s.ReadAllTasks(s.ActiveDir(models.TaskKindProject))
	if err != nil {
		t.Fatalf("ReadAllTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks["250101a1"].Name != "first" || tasks["250102b2"].Name != "second" {
		t.Errorf("Unexpected tasks: %+v", tasks)
	}
}
