package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// OrderInfo is one row of the order reference table.
type OrderInfo struct {
	Number      string
	ProjectAbbr string
	OrderAbbr   string
	FullName    string
}

// OrderTable is the read-only mapping from order numbers to billing labels,
// maintained outside this tool. Row order is preserved because reports sort by
// it.
type OrderTable struct {
	rows     []OrderInfo
	byNumber map[string]OrderInfo
}

// LoadOrderTable reads the order reference CSV: four headerless columns of
// order_number, project_abbr, order_abbr, order_fullname.
func LoadOrderTable(path string) (*OrderTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open order table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	t := &OrderTable{byNumber: make(map[string]OrderInfo)}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read order table: %w", err)
		}
		info := OrderInfo{
			Number:      record[0],
			ProjectAbbr: record[1],
			OrderAbbr:   record[2],
			FullName:    record[3],
		}
		t.rows = append(t.rows, info)
		if _, ok := t.byNumber[info.Number]; !ok {
			t.byNumber[info.Number] = info
		}
	}
	return t, nil
}

// ProjectAbbr returns the project abbreviation for an order number, or the
// empty string when unknown.
func (t *OrderTable) ProjectAbbr(orderNumber string) string {
	return t.byNumber[orderNumber].ProjectAbbr
}

// OrderAbbr returns the order abbreviation for an order number, or the empty
// string when unknown.
func (t *OrderTable) OrderAbbr(orderNumber string) string {
	return t.byNumber[orderNumber].OrderAbbr
}

// FullName returns the full order name for an order number, or the empty
// string when unknown.
func (t *OrderTable) FullName(orderNumber string) string {
	return t.byNumber[orderNumber].FullName
}

// Numbers returns the order numbers in table order.
func (t *OrderTable) Numbers() []string {
	nums := make([]string, len(t.rows))
	for i, row := range t.rows {
		nums[i] = row.Number
	}
	return nums
}
