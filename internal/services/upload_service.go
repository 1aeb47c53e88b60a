package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/cache"
	"github.com/yoockh/sheetlens/internal/models"
	pgrepo "github.com/yoockh/sheetlens/internal/repositories/postgres"
	"github.com/yoockh/sheetlens/internal/storage"
	"github.com/yoockh/sheetlens/internal/utils"
)

const MaxUploadBytes = 10 << 20

var spreadsheetExts = map[string]string{
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type CreateUploadInput struct {
	UserID           string
	Filename         string
	OriginalFilename string
	FileURL          string
	FileSize         *int64
	Status           string
}

type IngestInput struct {
	OriginalFilename string
	Size             int64
	Body             io.Reader
}

type UploadService interface {
	Create(ctx context.Context, caller *models.Identity, in CreateUploadInput) (string, error)
	ListForUser(ctx context.Context, caller *models.Identity, userID string) ([]models.Upload, error)
	Get(ctx context.Context, caller *models.Identity, uploadID string) (*models.Upload, error)
	// Ingest stores the file in blob storage and records it for the caller.
	Ingest(ctx context.Context, caller *models.Identity, in IngestInput) (*models.Upload, error)
}

type uploadService struct {
	repo     pgrepo.UploadRepository
	cache    cache.Cache
	cacheTTL time.Duration
	uploader storage.Uploader
	log      *logrus.Logger
	now      func() time.Time
}

// NewUploadService wires the record store. c and uploader may be nil: listing
// then always reads the store and Ingest answers Unavailable. A nil log falls
// back to the logrus standard logger.
func NewUploadService(repo pgrepo.UploadRepository, c cache.Cache, cacheTTL time.Duration, uploader storage.Uploader, log *logrus.Logger) UploadService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &uploadService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		uploader: uploader,
		log:      orStandard(log),
		now:      time.Now,
	}
}

func orStandard(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}

func (s *uploadService) Create(ctx context.Context, caller *models.Identity, in CreateUploadInput) (string, error) {
	const op = "UploadService.Create"

	if err := auth.Authenticated(caller); err != nil {
		return "", err
	}

	if blank(in.UserID) || blank(in.Filename) || blank(in.OriginalFilename) || blank(in.FileURL) {
		return "", utils.E(utils.CodeInvalidArgument, op, "Missing required fields", nil)
	}

	var size *int64
	if in.FileSize != nil {
		switch {
		case *in.FileSize < 0:
			return "", utils.E(utils.CodeInvalidArgument, op, "fileSize must not be negative", nil)
		case *in.FileSize > 0:
			v := *in.FileSize
			size = &v
		}
	}

	status := models.StatusUploaded
	if st := strings.TrimSpace(in.Status); st != "" {
		status = models.UploadStatus(st)
		if !status.Valid() {
			return "", utils.E(utils.CodeInvalidArgument, op, "status must be one of uploaded, processing, processed", nil)
		}
	}

	if err := auth.Authorize(caller, in.UserID); err != nil {
		return "", err
	}

	row := &models.Upload{
		UserID:           in.UserID,
		Filename:         in.Filename,
		OriginalFilename: in.OriginalFilename,
		FileURL:          in.FileURL,
		FileSize:         size,
		Status:           status,
	}
	id, err := s.repo.Insert(ctx, row)
	if err != nil {
		return "", utils.E(utils.CodeStorage, op, "Failed to save upload record", err)
	}

	s.invalidateList(ctx, in.UserID)
	return id, nil
}

// invalidateList moves the owner to a new list generation. If the bump fails
// the current generation's entry is dropped instead.
func (s *uploadService) invalidateList(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	log := s.log.WithField("user_id", userID)

	_, err := s.cache.Incr(ctx, cache.UploadListGenKey(userID))
	if err == nil {
		return
	}
	log.WithError(err).Error("upload list cache: generation bump failed")

	gen, err := s.cache.GetInt(ctx, cache.UploadListGenKey(userID))
	if err != nil {
		log.WithError(err).Error("upload list cache: generation read failed")
		return
	}
	if err := s.cache.Del(ctx, cache.UploadListKey(userID, gen)); err != nil {
		log.WithError(err).Error("upload list cache: stale entry left in place")
	}
}

func (s *uploadService) ListForUser(ctx context.Context, caller *models.Identity, userID string) ([]models.Upload, error) {
	const op = "UploadService.ListForUser"

	if err := auth.Authenticated(caller); err != nil {
		return nil, err
	}
	if blank(userID) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "User ID is required", nil)
	}
	if err := auth.Authorize(caller, userID); err != nil {
		return nil, err
	}

	// the generation is read before the store so a concurrent insert makes
	// this snapshot land under an outdated key
	key := ""
	if s.cache != nil {
		gen, err := s.cache.GetInt(ctx, cache.UploadListGenKey(userID))
		if err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("upload list cache: generation read failed")
		} else {
			key = cache.UploadListKey(userID, gen)
			var cached []models.Upload
			hit, err := s.cache.GetJSON(ctx, key, &cached)
			if err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warn("upload list cache: read failed")
			} else if hit {
				return cached, nil
			}
		}
	}

	rows, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeStorage, op, "Failed to retrieve uploads", err)
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, rows, s.cacheTTL); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("upload list cache: write failed")
		}
	}
	return rows, nil
}

func (s *uploadService) Get(ctx context.Context, caller *models.Identity, uploadID string) (*models.Upload, error) {
	const op = "UploadService.Get"

	if err := auth.Authenticated(caller); err != nil {
		return nil, err
	}
	if blank(uploadID) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Upload ID is required", nil)
	}

	u, err := s.repo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Upload not found", err)
		}
		return nil, utils.E(utils.CodeStorage, op, "Failed to retrieve upload", err)
	}

	if err := auth.Authorize(caller, u.UserID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *uploadService) Ingest(ctx context.Context, caller *models.Identity, in IngestInput) (*models.Upload, error) {
	const op = "UploadService.Ingest"

	if err := auth.Authenticated(caller); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "File storage is not configured", nil)
	}

	name := strings.TrimSpace(in.OriginalFilename)
	contentType, ok := spreadsheetExts[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Please select a valid Excel file (.xls or .xlsx)", nil)
	}
	if in.Size <= 0 || in.Size > MaxUploadBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "File size must be less than 10MB", nil)
	}

	objectName := storage.ObjectName(caller.ID, name, s.now())
	fileURL, err := s.uploader.Upload(ctx, objectName, contentType, io.LimitReader(in.Body, MaxUploadBytes))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "Failed to upload file", err)
	}

	size := in.Size
	id, err := s.Create(ctx, caller, CreateUploadInput{
		UserID:           caller.ID,
		Filename:         objectName,
		OriginalFilename: name,
		FileURL:          fileURL,
		FileSize:         &size,
	})
	if err != nil {
		// no record points at the object, so it goes too
		if derr := s.uploader.Delete(context.WithoutCancel(ctx), objectName); derr != nil {
			s.log.WithError(derr).WithField("object", objectName).Error("orphaned upload object not removed")
		}
		return nil, err
	}

	return s.Get(ctx, caller, id)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
