package models

import "time"

type UploadStatus string

// Status is a display label set at creation. Nothing transitions it.
const (
	StatusUploaded   UploadStatus = "uploaded"
	StatusProcessing UploadStatus = "processing"
	StatusProcessed  UploadStatus = "processed"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusProcessed:
		return true
	}
	return false
}

type Upload struct {
	ID               string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           string `gorm:"column:user_id;type:text;not null;index" json:"user_id"`
	Filename         string `gorm:"column:filename;type:text;not null" json:"filename"`
	OriginalFilename string `gorm:"column:original_filename;type:text;not null" json:"original_filename"`
	FileURL          string `gorm:"column:file_url;type:text;not null" json:"file_url"`

	FileSize *int64 `gorm:"column:file_size" json:"file_size"`

	UploadDate time.Time    `gorm:"column:upload_date;not null;index" json:"upload_date"`
	Status     UploadStatus `gorm:"column:status;type:text;not null;default:uploaded" json:"status"`
}

func (Upload) TableName() string { return "uploads" }
