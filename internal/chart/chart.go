// Package chart builds the declarative configuration a client charting
// library renders (labels + datasets + type).
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/sheetlens/internal/dataset"
)

type Type string

const (
	TypeBar     Type = "bar"
	TypeLine    Type = "line"
	TypePie     Type = "pie"
	TypeScatter Type = "scatter"
)

const (
	primaryColor = "#357AFF"
	borderColor  = "#2E69DE"
)

var piePalette = []string{
	"#357AFF", "#22C55E", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#F97316", "#84CC16", "#EC4899", "#6366F1",
}

var (
	ErrMissingAxis  = errors.New("xAxis and yAxis are required")
	ErrUnknownType  = errors.New("unknown chart type")
	ErrUnknownAxis  = errors.New("unknown column")
	ErrNonNumericY  = errors.New("yAxis must be a numeric column")
	ErrEmptyDataset = errors.New("dataset has no rows")
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeBar, nil
	case TypeBar, TypeLine, TypePie, TypeScatter:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownType, s)
	}
}

type Selection struct {
	XAxis string `json:"xAxis"`
	YAxis string `json:"yAxis"`
	Type  Type   `json:"chartType"`
}

type Point struct {
	X any `json:"x"`
	Y any `json:"y"`
}

type Series struct {
	Label           string `json:"label"`
	Data            any    `json:"data"`
	BackgroundColor any    `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	BorderWidth     int    `json:"borderWidth,omitempty"`
	Fill            *bool  `json:"fill,omitempty"`
}

type Config struct {
	Type     Type     `json:"type"`
	Labels   []any    `json:"labels,omitempty"`
	Datasets []Series `json:"datasets"`
}

// Build validates sel against ds and returns the chart configuration.
func Build(ds *dataset.Dataset, sel Selection) (*Config, error) {
	if sel.XAxis == "" || sel.YAxis == "" {
		return nil, ErrMissingAxis
	}
	typ, err := ParseType(string(sel.Type))
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	for _, axis := range []string{sel.XAxis, sel.YAxis} {
		if !ds.HasColumn(axis) {
			return nil, fmt.Errorf("%w %q", ErrUnknownAxis, axis)
		}
	}
	if !ds.IsNumeric(sel.YAxis) {
		return nil, ErrNonNumericY
	}

	if typ == TypeScatter {
		points := make([]Point, 0, len(ds.Rows))
		for _, row := range ds.Rows {
			points = append(points, Point{X: row[sel.XAxis], Y: row[sel.YAxis]})
		}
		return &Config{
			Type: typ,
			Datasets: []Series{{
				Label:           sel.XAxis + " vs " + sel.YAxis,
				Data:            points,
				BackgroundColor: primaryColor,
				BorderColor:     borderColor,
			}},
		}, nil
	}

	labels := make([]any, 0, len(ds.Rows))
	values := make([]any, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		labels = append(labels, row[sel.XAxis])
		values = append(values, row[sel.YAxis])
	}

	var bg any = primaryColor
	if typ == TypePie {
		bg = piePalette
	}
	fill := typ != TypeLine

	return &Config{
		Type:   typ,
		Labels: labels,
		Datasets: []Series{{
			Label:           sel.YAxis,
			Data:            values,
			BackgroundColor: bg,
			BorderColor:     borderColor,
			BorderWidth:     2,
			Fill:            &fill,
		}},
	}, nil
}
