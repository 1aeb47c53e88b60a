package dataset

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/storage"
)

const maxRows = 5000

// XLSXLoader reads the stored object of an upload and parses its first sheet.
// The first row is the header; numeric-looking cells become float64.
type XLSXLoader struct {
	Objects storage.Opener
}

func (l *XLSXLoader) Load(ctx context.Context, u *models.Upload) (*Dataset, error) {
	rc, err := l.Objects.Open(ctx, u.Filename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ParseXLSX(rc)
}

func ParseXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	ds := &Dataset{}
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		if ds.Columns == nil {
			ds.Columns = header(cells)
			continue
		}
		if blank(cells) {
			continue
		}
		if len(ds.Rows) == maxRows {
			break
		}

		row := make(Row, len(ds.Columns))
		for i, c := range ds.Columns {
			var raw string
			if i < len(cells) {
				raw = cells[i]
			}
			row[c] = cellValue(raw)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}

	if len(ds.Columns) == 0 || len(ds.Rows) == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

// header names unnamed or repeated columns so every key is unique.
func header(cells []string) []string {
	out := make([]string, 0, len(cells))
	seen := map[string]int{}
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = "Column" + strconv.Itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		} else {
			seen[name] = 1
		}
		out = append(out, name)
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellValue(raw string) any {
	s := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
