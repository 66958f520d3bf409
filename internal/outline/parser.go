package outline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ldi/willdo/pkg/models"
)

// MalformedRowError is a fatal parse error: a line that matches the
// subtask-id prefix but not the full subtask grammar.
type MalformedRowError struct {
	TaskID   string
	TaskName string
	Line     string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed subtask row under %s %s: %q", e.TaskID, e.TaskName, strings.TrimSpace(e.Line))
}

var (
	// Task line: six digits, one lowercase letter, one digit, comma, name.
	taskLineRe = regexp.MustCompile(`^(\d{6}[a-z]\d)\s*,\s*([^,]+?)\s*$`)
	// Waiting line, tab-indented under a task: 待機,<M/D>,<reason>.
	waitLineRe = regexp.MustCompile(`^\t待機\s*,\s*(\d{1,2}/\d{1,2})\s*,\s*([^,]+?)\s*$`)
	// Subtask line, tab-indented: #NNN,M/D?,reason?,name,flag,minutes,sort.
	// The flag's first char is d (planned from the start) or a (added later);
	// the second is n (nominal estimate) or w (worst case).
	subLineRe = regexp.MustCompile(
		`^\t(#\d{3})\s*,\s*([^,]*?)\s*,\s*([^,]*?)\s*,\s*([^,]+?)\s*,\s*([da][nw])\s*,\s*(\d+)\s*,\s*([\d.]+)\s*$`)
	subPrefixRe = regexp.MustCompile(`^\t#`)
)

// parseState is the parser's line-by-line context.
type parseState int

const (
	stateNoTask parseState = iota
	stateInTask
)

// ParseFile parses an outline export into tasks keyed by task id.
func ParseFile(path string, today time.Time) (map[string]*models.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outline: %w", err)
	}
	defer f.Close()
	return Parse(f, today)
}

// Parse reads the line-oriented outline grammar. A task line opens a task
// context; tab-indented waiting and subtask lines attach to it until the next
// task line. Freshly parsed subtasks always start with zero actual time and
// incomplete status, since the outline carries neither.
func Parse(r io.Reader, today time.Time) (map[string]*models.Task, error) {
	tasks := make(map[string]*models.Task)

	state := stateNoTask
	var current *models.Task

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if m := taskLineRe.FindStringSubmatch(line); m != nil {
			current = models.NewTask(m[1], strings.TrimSpace(m[2]), "")
			tasks[current.ID] = current
			state = stateInTask
			continue
		}

		if m := waitLineRe.FindStringSubmatch(line); m != nil && state == stateInTask {
			waitDate, err := ResolveMonthDay(m[1], today)
			if err != nil {
				return nil, fmt.Errorf("waiting date of %s: %w", current.ID, err)
			}
			current.WaitingDate = waitDate
			continue
		}

		if m := subLineRe.FindStringSubmatch(line); m != nil {
			// Well-formed subtask lines outside a task context are ignored,
			// like any other unattached line.
			if state != stateInTask {
				continue
			}
			st, err := parseSubTask(m, today)
			if err != nil {
				return nil, fmt.Errorf("subtask %s of %s: %w", m[1], current.ID, err)
			}
			current.AddSubTask(st)
			continue
		}

		if subPrefixRe.MatchString(line) {
			e := &MalformedRowError{Line: line}
			if current != nil {
				e.TaskID = current.ID
				e.TaskName = current.Name
			}
			return nil, e
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	return tasks, nil
}

func parseSubTask(m []string, today time.Time) (*models.SubTask, error) {
	deadline := ""
	if m[2] != "" {
		d, err := ResolveMonthDay(m[2], today)
		if err != nil {
			return nil, err
		}
		deadline = d
	}

	estimated, err := strconv.Atoi(m[6])
	if err != nil {
		return nil, fmt.Errorf("estimated minutes: %w", err)
	}
	sortIndex, err := strconv.ParseFloat(m[7], 64)
	if err != nil {
		return nil, fmt.Errorf("sort index: %w", err)
	}

	flag := m[5]
	return &models.SubTask{
		ID:             m[1],
		Name:           m[4],
		EstimatedTime:  estimated,
		ActualTime:     0,
		DeadlineDate:   deadline,
		DeadlineReason: m[3],
		IsInitial:      flag[0] == 'd',
		IsNominal:      flag[1] == 'n',
		SortIndex:      sortIndex,
		IsIncomplete:   true,
	}, nil
}
