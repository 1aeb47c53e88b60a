package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/utils"
	"gorm.io/gorm"
)

type AnalysisRepository interface {
	Insert(ctx context.Context, a *models.Analysis) error
	ListByUpload(ctx context.Context, uploadID string, limit int) ([]models.Analysis, error)
	GetByID(ctx context.Context, id string) (*models.Analysis, error)
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Insert(ctx context.Context, a *models.Analysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *analysisRepo) ListByUpload(ctx context.Context, uploadID string, limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = 50
	}

	rows := make([]models.Analysis, 0)
	err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *analysisRepo) GetByID(ctx context.Context, id string) (*models.Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrNotFound
	}

	var a models.Analysis
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
