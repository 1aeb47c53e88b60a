package dataset

import (
	"context"

	"github.com/yoockh/sheetlens/internal/models"
)

// SampleLoader ignores the stored file and serves a fixed monthly sales table.
type SampleLoader struct{}

func (SampleLoader) Load(_ context.Context, _ *models.Upload) (*Dataset, error) {
	return Sample(), nil
}

func Sample() *Dataset {
	type month struct {
		name     string
		sales    float64
		expenses float64
		profit   float64
		region   string
	}
	months := []month{
		{"January", 12000, 8000, 4000, "North"},
		{"February", 15000, 9000, 6000, "North"},
		{"March", 18000, 10000, 8000, "South"},
		{"April", 14000, 8500, 5500, "East"},
		{"May", 16000, 9500, 6500, "West"},
		{"June", 20000, 11000, 9000, "North"},
		{"July", 22000, 12000, 10000, "South"},
		{"August", 19000, 10500, 8500, "East"},
		{"September", 17000, 9800, 7200, "West"},
		{"October", 21000, 11500, 9500, "North"},
	}

	ds := &Dataset{
		Columns: []string{"Month", "Sales", "Expenses", "Profit", "Region"},
		Rows:    make([]Row, 0, len(months)),
	}
	for _, m := range months {
		ds.Rows = append(ds.Rows, Row{
			"Month":    m.name,
			"Sales":    m.sales,
			"Expenses": m.expenses,
			"Profit":   m.profit,
			"Region":   m.region,
		})
	}
	return ds
}
