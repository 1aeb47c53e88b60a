package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/sheetlens/internal/api/handlers"
	"github.com/yoockh/sheetlens/internal/api/middleware"
	"github.com/yoockh/sheetlens/internal/api/routes"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/services"
	"github.com/yoockh/sheetlens/internal/utils"
)

const secret = "handler-test-secret-that-is-long-enough"

type memUploads struct {
	mu      sync.Mutex
	rows    []models.Upload
	clock   time.Time
	err     error
	inserts int
}

func (r *memUploads) Insert(_ context.Context, u *models.Upload) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.err != nil {
		return "", r.err
	}
	r.clock = r.clock.Add(time.Second)
	row := *u
	row.ID = uuid.NewString()
	row.UploadDate = r.clock
	if row.Status == "" {
		row.Status = models.StatusUploaded
	}
	r.rows = append(r.rows, row)
	*u = row
	return row.ID, nil
}

func (r *memUploads) ListByOwner(_ context.Context, userID string) ([]models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Upload, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

func (r *memUploads) GetByID(_ context.Context, id string) (*models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			cp := row
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

type memAnalyses struct {
	mu   sync.Mutex
	rows []models.Analysis
}

func (r *memAnalyses) Insert(_ context.Context, a *models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *a)
	return nil
}

func (r *memAnalyses) ListByUpload(_ context.Context, uploadID string, limit int) ([]models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Analysis, 0)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UploadID == uploadID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *memAnalyses) GetByID(_ context.Context, id string) (*models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *memAnalyses) snapshot() []models.Analysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Analysis(nil), r.rows...)
}

type testServer struct {
	router   *gin.Engine
	repo     *memUploads
	analyses *memAnalyses
	ws       *handlers.WSHandler
	logs     *logtest.Hook
}

func newTestServer(t *testing.T, provider *scriptedProvider) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	ts := &testServer{repo: &memUploads{}, analyses: &memAnalyses{}, logs: hook}

	uploadSvc := services.NewUploadService(ts.repo, nil, 0, nil, nil)
	analysisSvc := services.NewAnalysisService(uploadSvc, nil, ts.analyses)

	var insightSvc services.InsightService
	if provider != nil {
		insightSvc = services.NewInsightService(analysisSvc, provider, ts.analyses, nil, 0, nil)
	} else {
		insightSvc = services.NewInsightService(analysisSvc, nil, ts.analyses, nil, 0, nil)
	}

	ts.ws = handlers.NewWSHandler(uploadSvc, insightSvc, log, nil)

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Verifier: auth.NewVerifier(auth.VerifierConfig{Secret: secret}),
		Uploads:  handlers.NewUploadHandler(uploadSvc),
		Analysis: handlers.NewAnalysisHandler(analysisSvc),
		WS:       ts.ws,
	})
	ts.router = r
	return ts
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["app_metadata"] = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func saveBody(userID string) map[string]any {
	return map[string]any{
		"userId":           userID,
		"filename":         "uploads/" + userID + "/1700000000000_sales.xlsx",
		"originalFilename": "sales.xlsx",
		"fileUrl":          "https://storage.googleapis.com/bucket/uploads/" + userID + "/1700000000000_sales.xlsx",
		"fileSize":         2048,
	}
}

var errDB = errors.New("pq: connection refused")
