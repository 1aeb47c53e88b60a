// Package dataset turns an upload into rows the analysis view works on.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/sheetlens/internal/models"
)

var ErrEmpty = errors.New("dataset has no rows")

type Row map[string]any

// Dataset keeps column order separately since Row is a map.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type Loader interface {
	Load(ctx context.Context, u *models.Upload) (*Dataset, error)
}

func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// NumericColumns lists the columns holding a number in the first row.
func (d *Dataset) NumericColumns() []string {
	out := make([]string, 0, len(d.Columns))
	if len(d.Rows) == 0 {
		return out
	}
	first := d.Rows[0]
	for _, c := range d.Columns {
		if isNumber(first[c]) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Dataset) IsNumeric(column string) bool {
	if len(d.Rows) == 0 {
		return false
	}
	return isNumber(d.Rows[0][column])
}

// Preview renders the first n rows as "col: value, col: value" lines.
func (d *Dataset) Preview(n int) string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	lines := make([]string, 0, n)
	for _, row := range d.Rows[:n] {
		parts := make([]string, 0, len(d.Columns))
		for _, c := range d.Columns {
			parts = append(parts, fmt.Sprintf("%s: %v", c, row[c]))
		}
		lines = append(lines, strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}
