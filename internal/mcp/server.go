package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ldi/willdo/internal/outline"
	"github.com/ldi/willdo/internal/reconcile"
	"github.com/ldi/willdo/internal/store"
	"github.com/ldi/willdo/internal/worklog"
	"github.com/ldi/willdo/pkg/models"
)

// NewServer creates the MCP server exposing the reconciliation core. The
// tools mirror the two boundary functions of the core plus task listing and
// worklog recording, so an external client can drive the whole flow.
func NewServer(st *store.Store) *server.MCPServer {
	s := server.NewMCPServer("willdo", "0.1.0")

	s.AddTool(mcp.NewTool("pending_actions",
		mcp.WithDescription("Diff an outline export against the task store and return the pending actions as rows. Nothing is modified except reactivation of completed tasks named by the outline."),
		mcp.WithString("outline_path", mcp.Description("Path to the outline export file"), mcp.Required()),
	), pendingActionsHandler(st))

	s.AddTool(mcp.NewTool("apply_actions",
		mcp.WithDescription("Apply reviewed action rows. Only rows whose disposition is 'apply' are executed; create_task rows must carry an order_number."),
		mcp.WithString("actions", mcp.Description("JSON array of action rows as returned by pending_actions"), mcp.Required()),
	), applyActionsHandler(st))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks in one store folder."),
		mcp.WithString("kind", mcp.Description("Task kind: project or daily (defaults to project)")),
		mcp.WithString("status", mcp.Description("Folder: active or complete (defaults to active)")),
	), listTasksHandler(st))

	s.AddTool(mcp.NewTool("record_worklog",
		mcp.WithDescription("Record minutes of work against a subtask: appends to the day's worklog CSV and adds to the subtask's actual_time."),
		mcp.WithString("willdo_date", mcp.Description("Will-do list date in YYMMDD form"), mcp.Required()),
		mcp.WithNumber("minutes", mcp.Description("Minutes worked"), mcp.Required()),
		mcp.WithString("task_id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("subtask_id", mcp.Description("Subtask ID"), mcp.Required()),
	), recordWorklogHandler(st))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func pendingActionsHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		outlinePath := mcp.ParseString(request, "outline_path", "")

		tasks, err := outline.ParseFile(outlinePath, time.Now())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		differ := &reconcile.Differ{Store: st, Today: time.Now()}
		rows, err := differ.PendingRows(tasks)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(map[string]interface{}{"actions": rows})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func applyActionsHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := mcp.ParseString(request, "actions", "")

		var rows []models.ActionRow
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid actions payload: %v", err)), nil
		}

		engine := &reconcile.Engine{Store: st}
		applied, err := engine.ApplyRows(rows)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("applied %d actions, then: %v", applied, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Applied %d actions", applied)), nil
	}
}

func listTasksHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind := models.TaskKindProject
		if mcp.ParseString(request, "kind", "project") == "daily" {
			kind = models.TaskKindDaily
		}
		dir := st.ActiveDir(kind)
		if mcp.ParseString(request, "status", "active") == "complete" {
			dir = st.CompleteDir(kind)
		}

		tasks, err := st.ReadAllTasks(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		type subtaskJSON struct {
			ID           string  `json:"subtask_id"`
			Name         string  `json:"name"`
			Estimated    int     `json:"estimated_time"`
			Actual       int     `json:"actual_time"`
			DeadlineDate string  `json:"deadline_date,omitempty"`
			SortIndex    float64 `json:"sort_index"`
			Incomplete   bool    `json:"is_incomplete"`
		}
		type taskJSON struct {
			ID          string        `json:"task_id"`
			Name        string        `json:"name"`
			OrderNumber string        `json:"order_number,omitempty"`
			WaitingDate string        `json:"waiting_date,omitempty"`
			Subtasks    []subtaskJSON `json:"subtasks"`
		}

		var out []taskJSON
		for _, task := range tasks {
			tj := taskJSON{
				ID:          task.ID,
				Name:        task.Name,
				OrderNumber: task.OrderNumber,
				WaitingDate: task.WaitingDate,
			}
			for _, subtask := range task.SubTasksBySortIndex() {
				tj.Subtasks = append(tj.Subtasks, subtaskJSON{
					ID:           subtask.ID,
					Name:         subtask.Name,
					Estimated:    subtask.EstimatedTime,
					Actual:       subtask.ActualTime,
					DeadlineDate: subtask.DeadlineDate,
					SortIndex:    subtask.SortIndex,
					Incomplete:   subtask.IsIncomplete,
				})
			}
			out = append(out, tj)
		}

		data, err := json.Marshal(map[string]interface{}{"tasks": out})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func recordWorklogHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		willdoDate := mcp.ParseString(request, "willdo_date", "")
		minutes := mcp.ParseInt(request, "minutes", 0)
		taskID := mcp.ParseString(request, "task_id", "")
		subtaskID := mcp.ParseString(request, "subtask_id", "")

		if minutes <= 0 {
			return mcp.NewToolResultError("minutes must be positive"), nil
		}

		orders, err := store.LoadOrderTable(st.OrderTablePath())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		recorder := &worklog.Recorder{Store: st, Orders: orders, Now: time.Now()}
		if err := recorder.Record(willdoDate, minutes, taskID, subtaskID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Recorded %d minutes on %s %s", minutes, taskID, subtaskID)), nil
	}
}
