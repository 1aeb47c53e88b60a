package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/providers/llm"
	"github.com/yoockh/sheetlens/internal/utils"
)

var errDB = errors.New("pq: connection refused")

type fakeUploadRepo struct {
	mu    sync.Mutex
	rows  []models.Upload
	clock time.Time
	err   error
	lists int
}

func (r *fakeUploadRepo) Insert(_ context.Context, u *models.Upload) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *fakeUploadRepo) ListByOwner(_ context.Context, userID string) ([]models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
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

func (r *fakeUploadRepo) GetByID(_ context.Context, id string) (*models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, row := range r.rows {
		if row.ID == id {
			cp := row
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
	err      error
	delErr   error
	incrErr  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, counters: map[string]int64{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return c.err
}

func (c *memCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	if c.err != nil {
		return 0, c.err
	}
	c.counters[key]++
	return c.counters[key], nil
}

func (c *memCache) GetInt(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.counters[key], nil
}

// gatedRepo holds the first ListByOwner after it has read the store until
// release is closed.
type gatedRepo struct {
	*fakeUploadRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{fakeUploadRepo: &fakeUploadRepo{}, read: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedRepo) ListByOwner(ctx context.Context, userID string) ([]models.Upload, error) {
	rows, err := r.fakeUploadRepo.ListByOwner(ctx, userID)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return rows, err
}

type fakeUploader struct {
	objects map[string][]byte
	err     error
	deleted []string
}

func (u *fakeUploader) Delete(_ context.Context, objectName string) error {
	u.deleted = append(u.deleted, objectName)
	delete(u.objects, objectName)
	return nil
}

func (u *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[objectName] = b
	return "https://storage.example/" + objectName, nil
}

type fakeProvider struct {
	chunks []string
	err    error
	got    []llm.Message
}

func (p *fakeProvider) Stream(ctx context.Context, messages []llm.Message) (<-chan string, <-chan error) {
	p.got = messages
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range p.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return out, errs
}

func (p *fakeProvider) Close() error { return nil }

type fakeAnalysisRepo struct {
	rows []models.Analysis
	err  error
}

func (r *fakeAnalysisRepo) Insert(_ context.Context, a *models.Analysis) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, *a)
	return nil
}

func (r *fakeAnalysisRepo) ListByUpload(_ context.Context, uploadID string, _ int) ([]models.Analysis, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Analysis, 0)
	for _, a := range r.rows {
		if a.UploadID == uploadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnalysisRepo) GetByID(_ context.Context, id string) (*models.Analysis, error) {
	for _, a := range r.rows {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

type fakeInsightRepo struct {
	chunks  []models.InsightChunk
	failSeq int64
}

func (r *fakeInsightRepo) InsertChunk(_ context.Context, c *models.InsightChunk) error {
	if r.failSeq != 0 && c.Seq == r.failSeq {
		return errors.New("mongo: connection reset")
	}
	r.chunks = append(r.chunks, *c)
	return nil
}

func (r *fakeInsightRepo) ListByRun(_ context.Context, runID string, _ int64) ([]models.InsightChunk, error) {
	out := make([]models.InsightChunk, 0)
	for _, c := range r.chunks {
		if c.RunID == runID {
			out = append(out, c)
		}
	}
	return out, nil
}

var (
	alice = &models.Identity{ID: "alice", Role: models.RoleUser}
	bob   = &models.Identity{ID: "bob", Role: models.RoleUser}
	admin = &models.Identity{ID: "root", Role: models.RoleAdmin}
)

func body(n int) io.Reader { return bytes.NewReader(bytes.Repeat([]byte{'x'}, n)) }
