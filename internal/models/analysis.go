package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Analysis is the snapshot kept after an insight run completes.
type Analysis struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UploadID  string `gorm:"column:upload_id;type:uuid;not null;index" json:"upload_id"`
	UserID    string `gorm:"column:user_id;type:text;not null;index" json:"user_id"`
	XAxis     string `gorm:"column:x_axis;type:text" json:"x_axis,omitempty"`
	YAxis     string `gorm:"column:y_axis;type:text" json:"y_axis,omitempty"`
	ChartType string `gorm:"column:chart_type;type:text" json:"chart_type,omitempty"`

	Columns pq.StringArray `gorm:"column:columns;type:text[]" json:"columns"`

	// declarative chart config, null when the run had no axes selected
	Chart datatypes.JSON `gorm:"column:chart;type:jsonb" json:"chart,omitempty"`

	Insights  string    `gorm:"column:insights;type:text" json:"insights"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Analysis) TableName() string { return "analyses" }
