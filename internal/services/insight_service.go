package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/chart"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/providers/llm"
	mongorepo "github.com/yoockh/sheetlens/internal/repositories/mongo"
	pgrepo "github.com/yoockh/sheetlens/internal/repositories/postgres"
	"github.com/yoockh/sheetlens/internal/utils"
	"gorm.io/datatypes"
)

const previewRows = 5

type InsightEventType string

const (
	EventStarted  InsightEventType = "insight_started"
	EventChunk    InsightEventType = "insight_chunk"
	EventComplete InsightEventType = "insight_complete"
)

type InsightEvent struct {
	Type       InsightEventType `json:"type"`
	RunID      string           `json:"run_id"`
	Seq        int64            `json:"seq,omitempty"`
	Chunk      string           `json:"chunk,omitempty"`
	AnalysisID string           `json:"analysis_id,omitempty"`
	Insights   string           `json:"insights,omitempty"`
}

type InsightService interface {
	// Generate streams insights for an upload through emit and persists the
	// finished run as an Analysis. sel is optional.
	Generate(ctx context.Context, caller *models.Identity, uploadID string, sel *chart.Selection, emit func(InsightEvent) error) (*models.Analysis, error)
	Replay(ctx context.Context, caller *models.Identity, runID string) ([]models.InsightChunk, error)
}

type insightService struct {
	analysis  AnalysisService
	provider  llm.Provider
	analyses  pgrepo.AnalysisRepository
	buffers   mongorepo.InsightRepository
	bufferTTL time.Duration
	log       *logrus.Logger
	now       func() time.Time
}

// NewInsightService wires insight generation. provider and buffers may be nil;
// without a provider Generate answers Unavailable, without buffers runs are
// not replayable.
func NewInsightService(analysis AnalysisService, provider llm.Provider, analyses pgrepo.AnalysisRepository, buffers mongorepo.InsightRepository, bufferTTL time.Duration, log *logrus.Logger) InsightService {
	if bufferTTL <= 0 {
		bufferTTL = 24 * time.Hour
	}
	return &insightService{
		analysis:  analysis,
		provider:  provider,
		analyses:  analyses,
		buffers:   buffers,
		bufferTTL: bufferTTL,
		log:       orStandard(log),
		now:       time.Now,
	}
}

func insightPrompt(preview string, sel *chart.Selection) string {
	var b strings.Builder
	b.WriteString("Analyze this Excel data and provide insights. Here's a preview of the data:\n\n")
	b.WriteString(preview)
	b.WriteString("\n\n")
	if sel != nil && sel.XAxis != "" && sel.YAxis != "" {
		fmt.Fprintf(&b, "The user is charting %s by %s.\n\n", sel.YAxis, sel.XAxis)
	}
	b.WriteString("Please provide:\n" +
		"1. Key trends and patterns\n" +
		"2. Notable observations\n" +
		"3. Recommendations for further analysis\n" +
		"4. Potential business insights\n\n" +
		"Keep the analysis concise but comprehensive.")
	return b.String()
}

func (s *insightService) Generate(ctx context.Context, caller *models.Identity, uploadID string, sel *chart.Selection, emit func(InsightEvent) error) (*models.Analysis, error) {
	const op = "InsightService.Generate"

	if s.provider == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "AI insights are not configured", nil)
	}

	upload, ds, err := s.analysis.Dataset(ctx, caller, uploadID)
	if err != nil {
		return nil, err
	}

	var chartJSON datatypes.JSON
	if sel != nil && (sel.XAxis != "" || sel.YAxis != "") {
		cfg, err := chart.Build(ds, *sel)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
		}
		b, err := json.Marshal(cfg)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to encode chart", err)
		}
		chartJSON = datatypes.JSON(b)
		sel.Type = cfg.Type
	}

	runID := uuid.NewString()
	if err := emit(InsightEvent{Type: EventStarted, RunID: runID}); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "client went away", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, errs := s.provider.Stream(streamCtx, []llm.Message{
		{Role: llm.RoleUser, Content: insightPrompt(ds.Preview(previewRows), sel)},
	})

	var full strings.Builder
	seq := int64(0)
	buffering := s.buffers != nil
	for chunk := range chunks {
		seq++
		full.WriteString(chunk)

		if buffering {
			now := s.now().UTC()
			err := s.buffers.InsertChunk(ctx, &models.InsightChunk{
				RunID:     runID,
				UploadID:  upload.ID,
				UserID:    upload.UserID,
				Seq:       seq,
				Text:      chunk,
				Timestamp: now,
				ExpiresAt: now.Add(s.bufferTTL),
			})
			if err != nil {
				// later chunks are not written either; Replay detects the gap
				buffering = false
				s.log.WithError(err).WithFields(logrus.Fields{
					"run_id":    runID,
					"upload_id": upload.ID,
					"seq":       seq,
				}).Error("insight chunk not buffered, run will not be replayable")
			}
		}

		if err := emit(InsightEvent{Type: EventChunk, RunID: runID, Seq: seq, Chunk: chunk}); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "client went away", err)
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "Failed to generate AI insights", err)
	}

	a := &models.Analysis{
		ID:        runID,
		UploadID:  upload.ID,
		UserID:    upload.UserID,
		Columns:   pq.StringArray(ds.Columns),
		Chart:     chartJSON,
		Insights:  full.String(),
		CreatedAt: s.now().UTC(),
	}
	if sel != nil {
		a.XAxis, a.YAxis, a.ChartType = sel.XAxis, sel.YAxis, string(sel.Type)
	}

	if err := s.analyses.Insert(ctx, a); err != nil {
		return nil, utils.E(utils.CodeStorage, op, "Failed to save analysis", err)
	}
	return a, nil
}

func (s *insightService) Replay(ctx context.Context, caller *models.Identity, runID string) ([]models.InsightChunk, error) {
	const op = "InsightService.Replay"

	if err := auth.Authenticated(caller); err != nil {
		return nil, err
	}
	if s.buffers == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "Insight replay is not configured", nil)
	}
	if blank(runID) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "run_id is required", nil)
	}

	rows, err := s.buffers.ListByRun(ctx, runID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeStorage, op, "Failed to load insight run", err)
	}
	if len(rows) == 0 {
		return nil, utils.E(utils.CodeNotFound, op, "Insight run not found", nil)
	}
	if err := auth.Authorize(caller, rows[0].UserID); err != nil {
		return nil, err
	}

	// a finished run must replay to exactly the persisted insights
	if s.analyses != nil {
		if a, err := s.analyses.GetByID(ctx, runID); err == nil && joinChunks(rows) != a.Insights {
			return nil, utils.E(utils.CodeUnavailable, op, "Insight run was not fully buffered", nil)
		}
	}
	return rows, nil
}

func joinChunks(rows []models.InsightChunk) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.Text)
	}
	return b.String()
}
