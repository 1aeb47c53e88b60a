package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/utils"
	"gorm.io/gorm"
)

type UploadRepository interface {
	// Insert assigns id, upload_date and the default status, then writes the row.
	Insert(ctx context.Context, u *models.Upload) (string, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Upload, error)
	GetByID(ctx context.Context, id string) (*models.Upload, error)
}

type uploadRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUploadRepo(db *gorm.DB) UploadRepository {
	return &uploadRepo{db: db, now: time.Now}
}

func (r *uploadRepo) Insert(ctx context.Context, u *models.Upload) (string, error) {
	row := *u
	row.ID = uuid.NewString()
	row.UploadDate = r.now().UTC()
	if row.Status == "" {
		row.Status = models.StatusUploaded
	}

	// single INSERT; the row is either fully written or not at all
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}

	*u = row
	return row.ID, nil
}

func (r *uploadRepo) ListByOwner(ctx context.Context, userID string) ([]models.Upload, error) {
	rows := make([]models.Upload, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_date DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *uploadRepo) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	// the uuid column rejects malformed ids with a driver error
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrNotFound
	}

	var row models.Upload
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
