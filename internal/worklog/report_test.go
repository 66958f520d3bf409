package worklog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldi/willdo/internal/store"
)

func writeWorklogFixture(t *testing.T) (string, *store.OrderTable) {
	t.Helper()
	dir := t.TempDir()

	orderPath := filepath.Join(dir, "orders.csv")
	orderCSV := "A123-456,ACME,acme-dev,ACME development\n" +
		"B777-001,BETA,beta-ops,BETA operations\n"
	if err := os.WriteFile(orderPath, []byte(orderCSV), 0644); err != nil {
		t.Fatalf("Failed to write order table: %v", err)
	}
	orders, err := store.LoadOrderTable(orderPath)
	if err != nil {
		t.Fatalf("LoadOrderTable failed: %v", err)
	}

	logPath := filepath.Join(dir, "worklog260901.csv")
	logCSV := "entry_id,order_number,order_abbr,project_abbr,task_id,subtask_id,task_name,subtask_name,start_time,end_time\n" +
		// Two blocks on the same subtask of order B, one block on order A,
		// and one meeting. 10 minutes of rest sits between the second and
		// third rows.
		"id1,B777-001,beta-ops,BETA,250101a1,#000,proposal,outline,2026-09-01 09:00:00,2026-09-01 09:40:00\n" +
		"id2,B777-001,beta-ops,BETA,250101a1,#000,proposal,outline,2026-09-01 09:40:00,2026-09-01 10:00:00\n" +
		"id3,A123-456,acme-dev,ACME,250102b2,#001,maintenance,patching,2026-09-01 10:10:00,2026-09-01 10:40:00\n" +
		"id4,B777-001,beta-ops,BETA,MTG0901,,打合せ,weekly review,2026-09-01 10:40:00,2026-09-01 11:10:00\n"
	if err := os.WriteFile(logPath, []byte(logCSV), 0644); err != nil {
		t.Fatalf("Failed to write worklog: %v", err)
	}
	return logPath, orders
}

func TestSubtaskTotals(t *testing.T) {
	path, orders := writeWorklogFixture(t)
	report, err := NewReport(path, orders)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	defer report.Close()

	totals, err := report.SubtaskTotals(false)
	if err != nil {
		t.Fatalf("SubtaskTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("Expected 2 totals without meetings, got %d: %+v", len(totals), totals)
	}

	first := totals[0]
	if first.ID != "250101a1#000" {
		t.Errorf("Expected concatenated id, got %q", first.ID)
	}
	if first.Name != "proposal / outline" {
		t.Errorf("Expected joined name, got %q", first.Name)
	}
	if first.Minutes != 60 {
		t.Errorf("Expected 40+20 minutes summed, got %d", first.Minutes)
	}

	withMeetings, err := report.SubtaskTotals(true)
	if err != nil {
		t.Fatalf("SubtaskTotals failed: %v", err)
	}
	if len(withMeetings) != 3 {
		t.Errorf("Expected 3 totals with meetings, got %d", len(withMeetings))
	}
}

func TestOrderTotals(t *testing.T) {
	path, orders := writeWorklogFixture(t)
	report, err := NewReport(path, orders)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	defer report.Close()

	totals, err := report.OrderTotals(false)
	if err != nil {
		t.Fatalf("OrderTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("Expected 2 orders, got %d: %+v", len(totals), totals)
	}

	// Order-table order: A123-456 first even though B has more minutes.
	if totals[0].OrderNumber != "A123-456" || totals[1].OrderNumber != "B777-001" {
		t.Errorf("Expected order-table ordering, got %+v", totals)
	}

	a := totals[0]
	if a.RealMinutes != 30 || a.BilledMinutes != 30 {
		t.Errorf("Expected A at 30/30, got %d/%d", a.RealMinutes, a.BilledMinutes)
	}

	b := totals[1]
	if b.RealMinutes != 60 {
		t.Errorf("Expected B at 60 real minutes, got %d", b.RealMinutes)
	}
	if b.BilledMinutes != 60 {
		t.Errorf("Expected B billed at 60, got %d", b.BilledMinutes)
	}
}

func TestOrderTotalsTruncateTo15Minutes(t *testing.T) {
	dir := t.TempDir()
	orderPath := filepath.Join(dir, "orders.csv")
	if err := os.WriteFile(orderPath, []byte("A123-456,ACME,acme-dev,ACME development\n"), 0644); err != nil {
		t.Fatalf("Failed to write order table: %v", err)
	}
	orders, err := store.LoadOrderTable(orderPath)
	if err != nil {
		t.Fatalf("LoadOrderTable failed: %v", err)
	}

	logPath := filepath.Join(dir, "worklog260901.csv")
	logCSV := "entry_id,order_number,order_abbr,project_abbr,task_id,subtask_id,task_name,subtask_name,start_time,end_time\n" +
		"id1,A123-456,acme-dev,ACME,250101a1,#000,t,s,2026-09-01 09:00:00,2026-09-01 09:37:00\n"
	if err := os.WriteFile(logPath, []byte(logCSV), 0644); err != nil {
		t.Fatalf("Failed to write worklog: %v", err)
	}

	report, err := NewReport(logPath, orders)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	defer report.Close()

	totals, err := report.OrderTotals(false)
	if err != nil {
		t.Fatalf("OrderTotals failed: %v", err)
	}
	if totals[0].RealMinutes != 37 || totals[0].BilledMinutes != 30 {
		t.Errorf("Expected 37 real / 30 billed, got %d/%d", totals[0].RealMinutes, totals[0].BilledMinutes)
	}
}

func TestDaySummary(t *testing.T) {
	path, orders := writeWorklogFixture(t)
	report, err := NewReport(path, orders)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	defer report.Close()

	summary, err := report.DaySummary(false)
	if err != nil {
		t.Fatalf("DaySummary failed: %v", err)
	}

	if summary.FirstStart != "09:00" {
		t.Errorf("Expected first start 09:00, got %q", summary.FirstStart)
	}
	if summary.LastEnd != "11:10" {
		t.Errorf("Expected last end 11:10, got %q", summary.LastEnd)
	}
	// 09:00 to 11:10 is 130 minutes of stay; 120 minutes recorded.
	if summary.StayMinutes != 130 {
		t.Errorf("Expected 130 stay minutes, got %d", summary.StayMinutes)
	}
	if summary.RealMinutes != 120 {
		t.Errorf("Expected 120 real minutes, got %d", summary.RealMinutes)
	}
	if summary.RestMinutes != 10 {
		t.Errorf("Expected 10 rest minutes, got %d", summary.RestMinutes)
	}

	withBreak, err := report.DaySummary(true)
	if err != nil {
		t.Fatalf("DaySummary failed: %v", err)
	}
	if withBreak.RestMinutes != -50 {
		t.Errorf("Expected rest 10-60 = -50 with daytime break, got %d", withBreak.RestMinutes)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:    "0h00m",
		7:    "0h07m",
		60:   "1h00m",
		127:  "2h07m",
		-45:  "-0h45m",
		-127: "-2h07m",
	}
	for minutes, want := range cases {
		if got := FormatMinutes(minutes); got != want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", minutes, got, want)
		}
	}
}
