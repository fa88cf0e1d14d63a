package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TableRow is one row of cells. By convention cell 0 holds the physical source
// row number; a row with no cells is a delimiter row.
type TableRow []string

func (r TableRow) IsDelimiter() bool {
	return len(r) == 0
}

// Cell returns the cell at i or "" when the row is too short.
func (r TableRow) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

type Table struct {
	Name    string     `json:"name" yaml:"name" mapstructure:"name"`
	Headers []string   `json:"headers" yaml:"headers" mapstructure:"headers"`
	Rows    []TableRow `json:"rows" yaml:"rows" mapstructure:"rows"`
}

// ColumnIndex returns the index of header name (case-insensitive) or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Filter keeps only the named columns, in the given order. Delimiter rows are
// passed through unchanged.
func (t *Table) Filter(headers []string) (*Table, error) {
	idx := make([]int, 0, len(headers))
	for _, h := range headers {
		i := t.ColumnIndex(h)
		if i < 0 {
			return nil, fmt.Errorf("table %s has no column %q", t.Name, h)
		}
		idx = append(idx, i)
	}
	out := &Table{Name: t.Name, Headers: append([]string(nil), headers...), Rows: make([]TableRow, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if row.IsDelimiter() {
			out.Rows = append(out.Rows, TableRow{})
			continue
		}
		nr := make(TableRow, 0, len(idx))
		for _, i := range idx {
			nr = append(nr, row.Cell(i))
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

// ParseTables decodes the JSON table set format: an array of tables. A single
// table object is accepted too.
func ParseTables(data string) ([]*Table, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, NewParseError("table content is empty")
	}
	var tables []*Table
	if strings.HasPrefix(trimmed, "{") {
		var t Table
		if err := json.Unmarshal([]byte(trimmed), &t); err != nil {
			return nil, NewParseError("invalid table json: %v", err)
		}
		tables = append(tables, &t)
		return tables, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &tables); err != nil {
		return nil, NewParseError("invalid table json: %v", err)
	}
	return tables, nil
}
