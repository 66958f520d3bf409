package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ldi/willdo/internal/mcp"
	"github.com/ldi/willdo/internal/outline"
	"github.com/ldi/willdo/internal/reconcile"
	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/internal/ui"
	"github.com/ldi/willdo/internal/willdo"
	"github.com/ldi/willdo/internal/worklog"
	"github.com/ldi/willdo/pkg/models"
)

var dataRoot string

func main() {
	flag.StringVar(&dataRoot, "data", "data", "Path to the data root")
	flag.Parse()

	var command string
	var args []string

	if flag.NArg() == 0 {
		selected, err := ui.RunMenu()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
		args = []string{}
	} else {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "sync":
		err = runSync(args)
	case "mcp":
		err = runMCP(args)
	case "willdo":
		err = runWillDo(args)
	case "log":
		err = runLog(args)
	case "report":
		err = runReport(args)
	case "list-tasks":
		err = runListTasks(args)
	case "status":
		err = runStatus(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	st := store.New(dataRoot)
	if err := st.Init(); err != nil {
		return err
	}
	fmt.Printf("✓ Created task folders under %s\n", dataRoot)
	fmt.Printf("✓ Order table at %s\n", st.OrderTablePath())
	fmt.Println("✓ willdo initialized successfully")
	return nil
}

func runSync(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: willdo sync <outline-file>")
	}
	outlinePath := args[0]

	st := store.New(dataRoot)
	now := time.Now()

	tasks, err := outline.ParseFile(outlinePath, now)
	if err != nil {
		return err
	}

	differ := &reconcile.Differ{Store: st, Today: now}
	rows, err := differ.PendingRows(tasks)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Nothing to reconcile.")
		return nil
	}

	reviewed, accepted, err := ui.RunReview(rows)
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Println("Aborted; nothing applied.")
		return nil
	}

	engine := &reconcile.Engine{Store: st}
	applied, err := engine.ApplyRows(reviewed)
	if err != nil {
		return fmt.Errorf("applied %d actions, then: %w", applied, err)
	}
	fmt.Printf("Applied %d actions\n", applied)
	return nil
}

func runMCP(args []string) error {
	st := store.New(dataRoot)
	s := mcp.NewServer(st)
	return mcp.Serve(s)
}

func runWillDo(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: willdo willdo <command> [arguments]")
		fmt.Println("\nCommands:")
		fmt.Println("  create                     Start a fresh list from the daily tasks")
		fmt.Println("  add-projects               Append all active project tasks")
		fmt.Println("  add <task-id> <subtask-id> Append one subtask")
		fmt.Println("  meeting <name> <order>     Append a meeting entry")
		fmt.Println("  show                       Print today's list")
		return nil
	}

	st := store.New(dataRoot)
	orders, err := store.LoadOrderTable(st.OrderTablePath())
	if err != nil {
		return err
	}
	builder := &willdo.Builder{Store: st, Orders: orders, Now: time.Now()}

	switch args[0] {
	case "create":
		if err := builder.CreateDaily(); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", builder.ListPath())
		return nil
	case "add-projects":
		if err := builder.AddProjectTasks(); err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", builder.ListPath())
		return nil
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: willdo willdo add <task-id> <subtask-id>")
		}
		if err := builder.AddSubtask(args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", builder.ListPath())
		return nil
	case "meeting":
		if len(args) != 3 {
			return fmt.Errorf("usage: willdo willdo meeting <name> <order-number>")
		}
		if err := builder.AddMeeting(args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", builder.ListPath())
		return nil
	case "show":
		entries, err := builder.LoadList()
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %-8s %-28s %-28s %8s %8s %s\n",
			"TASK", "SUBTASK", "TASK NAME", "SUBTASK NAME", "EST", "PACE", "DEADLINE")
		for _, e := range entries {
			fmt.Printf("%-10s %-8s %-28s %-28s %8d %8s %s\n",
				e.TaskID, e.SubtaskID, e.TaskName, e.SubtaskName,
				e.EstimatedTime, e.DailyWorkTime, e.DeadlineDateNearest)
		}
		return nil
	default:
		return fmt.Errorf("unknown willdo command: %s", args[0])
	}
}

func runLog(args []string) error {
	logFlags := flag.NewFlagSet("log", flag.ContinueOnError)
	date := logFlags.String("date", "", "Will-do list date (YYMMDD, defaults to today's working day)")
	if err := logFlags.Parse(args); err != nil {
		return err
	}
	rest := logFlags.Args()
	if len(rest) != 3 {
		return fmt.Errorf("usage: willdo log [-date YYMMDD] <minutes> <task-id> <subtask-id>")
	}

	minutes, err := strconv.Atoi(rest[0])
	if err != nil || minutes <= 0 {
		return fmt.Errorf("minutes must be a positive integer")
	}

	now := time.Now()
	willdoDate := *date
	if willdoDate == "" {
		willdoDate = models.WorkDate(now).Format("060102")
	}

	st := store.New(dataRoot)
	orders, err := store.LoadOrderTable(st.OrderTablePath())
	if err != nil {
		return err
	}

	recorder := &worklog.Recorder{Store: st, Orders: orders, Now: now}
	if err := recorder.Record(willdoDate, minutes, rest[1], rest[2]); err != nil {
		return err
	}
	fmt.Printf("Recorded %d minutes on %s %s\n", minutes, rest[1], rest[2])
	return nil
}

func runReport(args []string) error {
	reportFlags := flag.NewFlagSet("report", flag.ContinueOnError)
	date := reportFlags.String("date", "", "Will-do list date (YYMMDD, defaults to today's working day)")
	meetings := reportFlags.Bool("meetings", false, "Include meeting entries in the totals")
	daytimeBreak := reportFlags.Bool("daytime-break", true, "Exclude a 60 minute daytime break from rest time")
	if err := reportFlags.Parse(args); err != nil {
		return err
	}

	willdoDate := *date
	if willdoDate == "" {
		willdoDate = models.WorkDate(time.Now()).Format("060102")
	}

	st := store.New(dataRoot)
	orders, err := store.LoadOrderTable(st.OrderTablePath())
	if err != nil {
		return err
	}

	recorder := &worklog.Recorder{Store: st, Orders: orders}
	report, err := worklog.NewReport(recorder.Path(willdoDate), orders)
	if err != nil {
		return err
	}
	defer report.Close()

	subtasks, err := report.SubtaskTotals(*meetings)
	if err != nil {
		return err
	}
	fmt.Printf("%-14s %-8s %s\n", "ID", "TIME", "NAME")
	for _, t := range subtasks {
		fmt.Printf("%-14s %-8s %s\n", t.ID, worklog.FormatMinutes(t.Minutes), t.Name)
	}

	orderTotals, err := report.OrderTotals(*meetings)
	if err != nil {
		return err
	}
	fmt.Printf("\n%-14s %-8s %-8s\n", "ORDER", "BILLED", "REAL")
	for _, t := range orderTotals {
		fmt.Printf("%-14s %-8s %-8s\n", t.OrderNumber,
			worklog.FormatMinutes(t.BilledMinutes), worklog.FormatMinutes(t.RealMinutes))
	}

	summary, err := report.DaySummary(*daytimeBreak)
	if err != nil {
		return err
	}
	fmt.Printf("\nFirst start: %s\n", summary.FirstStart)
	fmt.Printf("Last end:    %s\n", summary.LastEnd)
	fmt.Printf("Stay:        %s\n", worklog.FormatMinutes(summary.StayMinutes))
	fmt.Printf("Rest:        %s\n", worklog.FormatMinutes(summary.RestMinutes))
	fmt.Printf("Worked:      %s\n", worklog.FormatMinutes(summary.RealMinutes))
	fmt.Printf("Billed:      %s\n", worklog.FormatMinutes(summary.BilledTotal))
	return nil
}

func runListTasks(args []string) error {
	taskFlags := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	kindFlag := taskFlags.String("kind", "project", "Task kind (project or daily)")
	statusFlag := taskFlags.String("status", "active", "Folder (active or complete)")
	if err := taskFlags.Parse(args); err != nil {
		return err
	}

	kind := models.TaskKindProject
	if *kindFlag == "daily" {
		kind = models.TaskKindDaily
	}

	st := store.New(dataRoot)
	dir := st.ActiveDir(kind)
	if *statusFlag == "complete" {
		dir = st.CompleteDir(kind)
	}

	tasks, err := st.ReadAllTasks(dir)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%-10s %-30s %-12s %-12s %s\n", "ID", "NAME", "ORDER", "WAITING", "SUBTASKS")
	for _, id := range ids {
		t := tasks[id]
		incomplete := 0
		for _, sub := range t.SubTasks {
			if sub.IsIncomplete {
				incomplete++
			}
		}
		fmt.Printf("%-10s %-30s %-12s %-12s %d/%d open\n",
			t.ID, t.Name, t.OrderNumber, t.WaitingDate, incomplete, len(t.SubTasks))
	}
	return nil
}

func runStatus(args []string) error {
	st := store.New(dataRoot)

	projectActive, err := st.ReadAllTasks(st.ActiveDir(models.TaskKindProject))
	if err != nil {
		return err
	}
	dailyActive, err := st.ReadAllTasks(st.ActiveDir(models.TaskKindDaily))
	if err != nil {
		return err
	}

	waiting := 0
	openSubtasks := 0
	for _, t := range projectActive {
		if t.WaitingDate != "" {
			waiting++
		}
		for _, sub := range t.SubTasks {
			if sub.IsIncomplete {
				openSubtasks++
			}
		}
	}

	fmt.Println("willdo Status")
	fmt.Println("=============")
	fmt.Printf("Active project tasks: %d\n", len(projectActive))
	fmt.Printf("  Waiting:            %d\n", waiting)
	fmt.Printf("  Open subtasks:      %d\n", openSubtasks)
	fmt.Printf("Active daily tasks:   %d\n", len(dailyActive))
	return nil
}
