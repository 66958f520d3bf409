package worklog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ldi/willdo/internal/store"
)

// SubtaskTotal is the summed work of one subtask across a day.
type SubtaskTotal struct {
	ID          string
	Name        string
	Minutes     int
	OrderNumber string
	OrderAbbr   string
	ProjectAbbr string
}

// OrderTotal is the summed work of one billing order across a day. Billable
// minutes are the real minutes truncated to 15-minute blocks.
type OrderTotal struct {
	OrderNumber   string
	RealMinutes   int
	BilledMinutes int
	Names         []string
}

// Summary is the day's envelope: first start, last end, and the derived stay,
// rest, and worked figures.
type Summary struct {
	FirstStart   string
	LastEnd      string
	StayMinutes  int
	RestMinutes  int
	RealMinutes  int
	BilledTotal  int
	OtherMinutes int
}

// Report aggregates one worklog CSV. The CSV stays the durable record; the
// entries are loaded into an in-memory sqlite database only for querying.
type Report struct {
	Orders *store.OrderTable

	db *sql.DB
}

// NewReport loads a worklog file for aggregation.
func NewReport(path string, orders *store.OrderTable) (*Report, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}

	const schema = `CREATE TABLE worklog (
		seq INTEGER PRIMARY KEY,
		order_number TEXT,
		order_abbr TEXT,
		project_abbr TEXT,
		task_id TEXT,
		subtask_id TEXT,
		task_name TEXT,
		subtask_name TEXT,
		start_time TEXT,
		end_time TEXT,
		minutes INTEGER
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create report schema: %w", err)
	}

	const insert = `INSERT INTO worklog (
		seq, order_number, order_abbr, project_abbr,
		task_id, subtask_id, task_name, subtask_name,
		start_time, end_time, minutes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, e := range entries {
		_, err := db.Exec(insert,
			i, e.OrderNumber, e.OrderAbbr, e.ProjectAbbr,
			e.TaskID, e.SubtaskID, e.TaskName, e.SubtaskName,
			e.Start.Format(timeLayout), e.End.Format(timeLayout), e.Minutes())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load worklog entry: %w", err)
		}
	}

	return &Report{Orders: orders, db: db}, nil
}

func (r *Report) Close() error {
	return r.db.Close()
}

// SubtaskTotals sums the day's minutes per subtask. The identity of a row is
// the concatenated task and subtask id; the display name joins the task and
// subtask names.
func (r *Report) SubtaskTotals(includeMeetings bool) ([]SubtaskTotal, error) {
	query := `SELECT task_id || subtask_id,
		task_name || ' / ' || subtask_name,
		SUM(minutes), order_number, order_abbr, project_abbr
		FROM worklog`
	if !includeMeetings {
		query += ` WHERE task_id NOT LIKE '%MTG%'`
	}
	query += ` GROUP BY task_id || subtask_id ORDER BY MIN(seq)`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to sum subtasks: %w", err)
	}
	defer rows.Close()

	var totals []SubtaskTotal
	for rows.Next() {
		var t SubtaskTotal
		if err := rows.Scan(&t.ID, &t.Name, &t.Minutes, &t.OrderNumber, &t.OrderAbbr, &t.ProjectAbbr); err != nil {
			return nil, fmt.Errorf("failed to scan subtask total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// OrderTotals sums the day's minutes per order, with the billable figure
// truncated to 15-minute blocks. Orders come back in order-table order, with
// orders unknown to the table appended in first-seen order.
func (r *Report) OrderTotals(includeMeetings bool) ([]OrderTotal, error) {
	subtasks, err := r.SubtaskTotals(includeMeetings)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]*OrderTotal)
	var seen []string
	for _, st := range subtasks {
		t, ok := byOrder[st.OrderNumber]
		if !ok {
			t = &OrderTotal{OrderNumber: st.OrderNumber}
			byOrder[st.OrderNumber] = t
			seen = append(seen, st.OrderNumber)
		}
		t.RealMinutes += st.Minutes
		t.Names = append(t.Names, st.Name)
	}

	var totals []OrderTotal
	appended := make(map[string]bool)
	for _, num := range r.Orders.Numbers() {
		if t, ok := byOrder[num]; ok && !appended[num] {
			t.BilledMinutes = t.RealMinutes / 15 * 15
			totals = append(totals, *t)
			appended[num] = true
		}
	}
	for _, num := range seen {
		if !appended[num] {
			t := byOrder[num]
			t.BilledMinutes = t.RealMinutes / 15 * 15
			totals = append(totals, *t)
			appended[num] = true
		}
	}
	return totals, nil
}

// DaySummary computes the day's envelope from the raw entries plus the order
// totals. Rest is everything between first start and last end not covered by
// recorded work; a daytime break of 60 minutes may be excluded from it.
func (r *Report) DaySummary(excludeDaytimeBreak bool) (Summary, error) {
	var s Summary

	row := r.db.QueryRow(`SELECT MIN(start_time), MAX(end_time),
		CAST(ROUND((julianday(MAX(end_time)) - julianday(MIN(start_time))) * 24 * 60) AS INTEGER),
		SUM(minutes)
		FROM worklog`)
	var first, last sql.NullString
	var stay, real sql.NullInt64
	if err := row.Scan(&first, &last, &stay, &real); err != nil {
		return s, fmt.Errorf("failed to summarize worklog: %w", err)
	}
	if !first.Valid {
		return s, fmt.Errorf("worklog has no entries")
	}

	s.FirstStart = clockOf(first.String)
	s.LastEnd = clockOf(last.String)
	s.StayMinutes = int(stay.Int64)
	s.RealMinutes = int(real.Int64)

	orders, err := r.OrderTotals(true)
	if err != nil {
		return s, err
	}
	billed := 0
	for _, o := range orders {
		billed += o.BilledMinutes
	}
	s.BilledTotal = billed
	s.OtherMinutes = s.RealMinutes/15*15 - billed

	rest := s.StayMinutes - s.RealMinutes
	if excludeDaytimeBreak {
		rest -= 60
	}
	s.RestMinutes = rest
	return s, nil
}

// FormatMinutes renders minutes as "1h07m"; negative totals carry a single
// leading sign.
func FormatMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh%02dm", sign, minutes/60, minutes%60)
}

func clockOf(timestamp string) string {
	if i := strings.IndexByte(timestamp, ' '); i >= 0 && len(timestamp) >= i+6 {
		return timestamp[i+1 : i+6]
	}
	return timestamp
}
