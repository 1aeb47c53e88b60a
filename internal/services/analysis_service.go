package services

import (
	"context"
	"errors"

	"github.com/yoockh/sheetlens/internal/chart"
	"github.com/yoockh/sheetlens/internal/dataset"
	"github.com/yoockh/sheetlens/internal/models"
	pgrepo "github.com/yoockh/sheetlens/internal/repositories/postgres"
	"github.com/yoockh/sheetlens/internal/storage"
	"github.com/yoockh/sheetlens/internal/utils"
)

type AnalysisService interface {
	Dataset(ctx context.Context, caller *models.Identity, uploadID string) (*models.Upload, *dataset.Dataset, error)
	Chart(ctx context.Context, caller *models.Identity, uploadID string, sel chart.Selection) (*chart.Config, error)
	List(ctx context.Context, caller *models.Identity, uploadID string, limit int) ([]models.Analysis, error)
}

type analysisService struct {
	uploads  UploadService
	loader   dataset.Loader
	analyses pgrepo.AnalysisRepository
}

func NewAnalysisService(uploads UploadService, loader dataset.Loader, analyses pgrepo.AnalysisRepository) AnalysisService {
	if loader == nil {
		loader = dataset.SampleLoader{}
	}
	return &analysisService{uploads: uploads, loader: loader, analyses: analyses}
}

func (s *analysisService) Dataset(ctx context.Context, caller *models.Identity, uploadID string) (*models.Upload, *dataset.Dataset, error) {
	const op = "AnalysisService.Dataset"

	u, err := s.uploads.Get(ctx, caller, uploadID)
	if err != nil {
		return nil, nil, err
	}

	ds, err := s.loader.Load(ctx, u)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, nil, utils.E(utils.CodeNotFound, op, "Uploaded file is no longer in storage", err)
	case errors.Is(err, dataset.ErrEmpty):
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "Spreadsheet has no data rows", err)
	case err != nil:
		return nil, nil, utils.E(utils.CodeUnavailable, op, "Failed to load spreadsheet data", err)
	}
	return u, ds, nil
}

func (s *analysisService) Chart(ctx context.Context, caller *models.Identity, uploadID string, sel chart.Selection) (*chart.Config, error) {
	const op = "AnalysisService.Chart"

	_, ds, err := s.Dataset(ctx, caller, uploadID)
	if err != nil {
		return nil, err
	}

	cfg, err := chart.Build(ds, sel)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	return cfg, nil
}

func (s *analysisService) List(ctx context.Context, caller *models.Identity, uploadID string, limit int) ([]models.Analysis, error) {
	const op = "AnalysisService.List"

	if _, err := s.uploads.Get(ctx, caller, uploadID); err != nil {
		return nil, err
	}

	rows, err := s.analyses.ListByUpload(ctx, uploadID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeStorage, op, "Failed to retrieve analyses", err)
	}
	return rows, nil
}
