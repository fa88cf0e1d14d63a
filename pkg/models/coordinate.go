package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is an inclusive 1-based span of rows or character columns.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Coordinate addresses a block of rows and optionally the changed character
// ranges inside it. Rendered forms:
//
//	N            single row
//	N1-N2        inclusive row range
//	N-emptyM     M empty rows inserted before row N
//	N:C1-C2,...  row with inline changed columns
type Coordinate struct {
	Row     int
	RowEnd  int
	Empty   int
	Columns []Range
}

// RowCoord builds a coordinate covering rows from..to.
func RowCoord(from, to int) Coordinate {
	return Coordinate{Row: from, RowEnd: to}
}

// EmptyCoord builds the "N-emptyM" form.
func EmptyCoord(row, count int) Coordinate {
	return Coordinate{Row: row, RowEnd: row, Empty: count}
}

func (c Coordinate) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(c.Row))
	switch {
	case c.Empty > 0:
		sb.WriteString("-empty")
		sb.WriteString(strconv.Itoa(c.Empty))
	case c.RowEnd > c.Row:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(c.RowEnd))
	}
	if len(c.Columns) > 0 {
		sb.WriteByte(':')
		for i, col := range c.Columns {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(col.String())
		}
	}
	return sb.String()
}

// Contains reports whether row falls inside the coordinate's row block.
func (c Coordinate) Contains(row int) bool {
	end := c.RowEnd
	if end < c.Row {
		end = c.Row
	}
	return row >= c.Row && row <= end
}

// ParseCoordinate parses the row/column coordinate grammar. Node paths and
// malformed strings return an error so callers can treat them as unusable.
func ParseCoordinate(s string) (Coordinate, error) {
	var c Coordinate
	if s == "" {
		return c, fmt.Errorf("empty coordinate")
	}
	rows, cols, hasCols := strings.Cut(s, ":")
	first, rest, isRange := strings.Cut(rows, "-")
	row, err := strconv.Atoi(first)
	if err != nil || row < 1 {
		return c, fmt.Errorf("invalid row in coordinate %q", s)
	}
	c.Row, c.RowEnd = row, row
	if isRange {
		if n, ok := strings.CutPrefix(rest, "empty"); ok {
			m, err := strconv.Atoi(n)
			if err != nil || m < 1 {
				return Coordinate{}, fmt.Errorf("invalid empty count in coordinate %q", s)
			}
			c.Empty = m
		} else {
			end, err := strconv.Atoi(rest)
			if err != nil || end < row {
				return Coordinate{}, fmt.Errorf("invalid row range in coordinate %q", s)
			}
			c.RowEnd = end
		}
	}
	if !hasCols {
		return c, nil
	}
	for _, part := range strings.Split(cols, ",") {
		a, b, ok := strings.Cut(part, "-")
		if !ok {
			return Coordinate{}, fmt.Errorf("invalid column range %q in coordinate %q", part, s)
		}
		start, err1 := strconv.Atoi(a)
		end, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || start < 1 || end < start {
			return Coordinate{}, fmt.Errorf("invalid column range %q in coordinate %q", part, s)
		}
		c.Columns = append(c.Columns, Range{Start: start, End: end})
	}
	return c, nil
}

// CoordTouchesRow reports whether a coordinate string addresses row. Unusable
// coordinates never match.
func CoordTouchesRow(coord string, row int) bool {
	c, err := ParseCoordinate(coord)
	if err != nil {
		return false
	}
	return c.Empty == 0 && c.Contains(row)
}
