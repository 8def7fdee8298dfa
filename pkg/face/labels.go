package face

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrUnknownColumn is returned when a requested name is not a column of
	// the label table.
	ErrUnknownColumn = errors.New("face: unknown label column")

	// ErrLabelsShort is returned when the label table has fewer rows than
	// there are images.
	ErrLabelsShort = errors.New("face: label table shorter than image set")
)

// Labels is a parsed label table: one integer label per image and column.
type Labels struct {
	Columns []string
	rows    [][]int
}

// Len returns the number of rows.
func (l *Labels) Len() int { return len(l.rows) }

// Column returns the labels of the named column, one per row.
func (l *Labels) Column(name string) ([]int, error) {
	idx := -1
	for i, c := range l.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownColumn, name, strings.Join(l.Columns, ", "))
	}
	out := make([]int, len(l.rows))
	for i, r := range l.rows {
		out[i] = r[idx]
	}
	return out, nil
}

// ReadLabels reads a CSV label table from path.
func ReadLabels(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("face: open labels: %w", err)
	}
	defer f.Close()
	l, err := DecodeLabels(f)
	if err != nil {
		return nil, fmt.Errorf("face: %s: %w", path, err)
	}
	return l, nil
}

// DecodeLabels parses a CSV label table. The first row names the columns.
// An unnamed or "index" first column holds row numbers and is dropped.
// Cells are booleans (True/False, true/false) or integers.
func DecodeLabels(r io.Reader) (*Labels, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("empty label table")
	}

	header := records[0]
	skip := 0
	if len(header) > 0 && (header[0] == "" || strings.EqualFold(header[0], "index")) {
		skip = 1
	}
	l := &Labels{Columns: header[skip:]}
	for n, rec := range records[1:] {
		row := make([]int, len(l.Columns))
		for i, cell := range rec[skip:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", n+1, l.Columns[i], err)
			}
			row[i] = v
		}
		l.rows = append(l.rows, row)
	}
	return l, nil
}

func parseCell(s string) (int, error) {
	switch strings.TrimSpace(s) {
	case "True", "true", "TRUE":
		return 1, nil
	case "False", "false", "FALSE":
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid label %q", s)
	}
	return v, nil
}
