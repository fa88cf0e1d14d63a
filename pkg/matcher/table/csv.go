package table

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.keploy.io/comparator/pkg/models"
)

// ParseCSV reads delimited content whose first record is the header line.
// Cell 0 of every row is set to the record's line number.
func ParseCSV(content, name, delimiter string) (*models.Table, error) {
	comma, size := utf8.DecodeRuneInString(delimiter)
	if delimiter == "\\t" {
		comma, size = '\t', 2
	}
	if size != len(delimiter) || comma == utf8.RuneError {
		return nil, models.NewRuleConfigError("delimiter must be a single character, got %q", delimiter)
	}
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1

	t := &models.Table{Name: name}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewParseError("invalid csv: %v", err)
		}
		if t.Headers == nil {
			t.Headers = append([]string{"#"}, rec...)
			continue
		}
		line, _ := r.FieldPos(0)
		t.Rows = append(t.Rows, append(models.TableRow{strconv.Itoa(line)}, rec...))
	}
	if t.Headers == nil {
		return nil, models.NewParseError("csv content has no header line")
	}
	return t, nil
}
