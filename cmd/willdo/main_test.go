package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/pkg/models"
)

func useTempDataRoot(t *testing.T) *store.Store {
	t.Helper()
	original := dataRoot
	t.Cleanup(func() { dataRoot = original })
	dataRoot = filepath.Join(t.TempDir(), "data")
	return store.New(dataRoot)
}

func TestRunInit(t *testing.T) {
	st := useTempDataRoot(t)

	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	for _, dir := range []string{
		st.ActiveDir(models.TaskKindProject),
		st.CompleteDir(models.TaskKindProject),
		st.ActiveDir(models.TaskKindDaily),
		st.WillDoDir(),
		st.WorkLogDir(),
	} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
	if _, err := os.Stat(st.OrderTablePath()); err != nil {
		t.Errorf("expected order table: %v", err)
	}
}

func TestRunInitIsIdempotent(t *testing.T) {
	st := useTempDataRoot(t)

	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	orderCSV := "A123-456,ACME,acme-dev,ACME development\n"
	if err := os.WriteFile(st.OrderTablePath(), []byte(orderCSV), 0644); err != nil {
		t.Fatalf("failed to seed order table: %v", err)
	}

	if err := runInit(nil); err != nil {
		t.Fatalf("second runInit failed: %v", err)
	}
	content, err := os.ReadFile(st.OrderTablePath())
	if err != nil {
		t.Fatalf("failed to read order table: %v", err)
	}
	if string(content) != orderCSV {
		t.Errorf("expected order table preserved, got %q", string(content))
	}
}

func TestRunLogRecordsMinutes(t *testing.T) {
	st := useTempDataRoot(t)
	if err := runInit(nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	task := models.NewTask("250101a1", "customer proposal", "A123-456")
	task.AddSubTask(&models.SubTask{ID: "#000", Name: "outline", EstimatedTime: 60, ActualTime: 20, SortIndex: 1, IsIncomplete: true})
	if err := st.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	if err := runLog([]string{"-date", "260901", "25", "250101a1", "#000"}); err != nil {
		t.Fatalf("runLog failed: %v", err)
	}

	got, err := st.ReadTask(st.TaskPath("250101a1"))
	if err != nil {
		t.Fatalf("ReadTask failed: %v", err)
	}
	if got.SubTasks["#000"].ActualTime != 45 {
		t.Errorf("expected actual time 45, got %d", got.SubTasks["#000"].ActualTime)
	}
	if _, err := os.Stat(filepath.Join(st.WorkLogDir(), "worklog260901.csv")); err != nil {
		t.Errorf("expected worklog file: %v", err)
	}
}

func TestRunLogRejectsBadMinutes(t *testing.T) {
	st := useTempDataRoot(t)
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if err := runLog([]string{"0", "250101a1", "#000"}); err == nil {
		t.Error("expected error for zero minutes")
	}
	if err := runLog([]string{"abc", "250101a1", "#000"}); err == nil {
		t.Error("expected error for non-numeric minutes")
	}
}

func TestRunStatusAndListTasks(t *testing.T) {
	st := useTempDataRoot(t)
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	task := models.NewTask("250101a1", "customer proposal", "A123-456")
	task.AddSubTask(&models.SubTask{ID: "#000", Name: "outline", SortIndex: 1, IsIncomplete: true})
	if err := st.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	if err := runStatus(nil); err != nil {
		t.Errorf("runStatus failed: %v", err)
	}
	if err := runListTasks(nil); err != nil {
		t.Errorf("runListTasks failed: %v", err)
	}
	if err := runListTasks([]string{"-kind", "daily", "-status", "active"}); err != nil {
		t.Errorf("runListTasks daily failed: %v", err)
	}
}
