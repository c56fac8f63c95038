package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/geometax/internal/interfaces/http/handlers"
	"github.com/turtacn/geometax/internal/testutil"
	"github.com/turtacn/geometax/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memRepo struct {
	mu   sync.Mutex
	byID map[string]*annotation.Annotation
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]*annotation.Annotation)}
}

func (r *memRepo) Save(_ context.Context, a *annotation.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.SampleID] = a
	return nil
}

func (r *memRepo) GetBySampleID(_ context.Context, sampleID string) (*annotation.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[sampleID]
	if !ok {
		return nil, errors.New(errors.ErrCodeAnnotationNotFound, "annotation not found").WithDetail(sampleID)
	}
	return a, nil
}

func (r *memRepo) List(_ context.Context, filter annotation.ListFilter) ([]*annotation.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*annotation.Annotation
	for _, a := range r.byID {
		if filter.Factor != "" && (a.Factor == nil || a.Factor.ExtractedFactor != filter.Factor) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, sampleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sampleID)
	return nil
}

type memJobs struct {
	mu        sync.Mutex
	byID      map[string]*annotation.Job
	updateErr error
}

func newMemJobs() *memJobs {
	return &memJobs{byID: make(map[string]*annotation.Job)}
}

func (r *memJobs) Create(_ context.Context, j *annotation.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *j
	r.byID[j.ID.String()] = &copied
	return nil
}

func (r *memJobs) GetByID(_ context.Context, id uuid.UUID) (*annotation.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id.String()]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job not found").WithDetail(id.String())
	}
	return j, nil
}

func (r *memJobs) Update(_ context.Context, j *annotation.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	copied := *j
	r.byID[j.ID.String()] = &copied
	return nil
}

func (r *memJobs) List(_ context.Context, _, _ int) ([]*annotation.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*annotation.Job
	for _, j := range r.byID {
		out = append(out, j)
	}
	return out, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []kafka.JobMessage
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, msg kafka.JobMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

type fakeSearcher struct {
	results []*annotation.Annotation
	err     error
}

func (s *fakeSearcher) Index(context.Context, *annotation.Annotation) error { return nil }

func (s *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]*annotation.Annotation, error) {
	return s.results, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func annotationRouter(repo annotation.Repository, searcher annotation.Searcher) *gin.Engine {
	h := handlers.NewAnnotationHandler(repo, searcher, nil)
	r := gin.New()
	r.GET("/annotations", h.List)
	r.GET("/annotations/:sample", h.Get)
	r.DELETE("/annotations/:sample", h.Delete)
	r.GET("/search", h.Search)
	return r
}

func TestAnnotationHandler_Get(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Save(context.Background(), &annotation.Annotation{
		ID:       uuid.New(),
		SampleID: "GSM1",
		Factor:   &annotation.Factor{ExtractedFactor: "CTCF"},
	}))
	r := annotationRouter(repo, nil)

	rec, env := doRequest(t, r, http.MethodGet, "/annotations/GSM1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var got annotation.Annotation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "CTCF", got.Factor.ExtractedFactor)
}

func TestAnnotationHandler_GetNotFound(t *testing.T) {
	t.Parallel()

	rec, env := doRequest(t, annotationRouter(newMemRepo(), nil), http.MethodGet, "/annotations/GSM404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(errors.ErrCodeAnnotationNotFound), env.Error.Code)
}

func TestAnnotationHandler_ListByFactor(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	_ = repo.Save(context.Background(), &annotation.Annotation{SampleID: "GSM1", Factor: &annotation.Factor{ExtractedFactor: "CTCF"}})
	_ = repo.Save(context.Background(), &annotation.Annotation{SampleID: "GSM2", Factor: &annotation.Factor{ExtractedFactor: "ESR1"}})

	rec, env := doRequest(t, annotationRouter(repo, nil), http.MethodGet, "/annotations?factor=CTCF", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []*annotation.Annotation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "GSM1", got[0].SampleID)
}

func TestAnnotationHandler_Delete(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	_ = repo.Save(context.Background(), &annotation.Annotation{SampleID: "GSM1"})

	rec, _ := doRequest(t, annotationRouter(repo, nil), http.MethodDelete, "/annotations/GSM1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAnnotationHandler_Search(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []*annotation.Annotation{{SampleID: "GSM1"}}}
	rec, env := doRequest(t, annotationRouter(newMemRepo(), searcher), http.MethodGet, "/search?q=CTCF", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []*annotation.Annotation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 1)
}

func TestAnnotationHandler_SearchRequiresQuery(t *testing.T) {
	t.Parallel()

	rec, _ := doRequest(t, annotationRouter(newMemRepo(), &fakeSearcher{}), http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnnotationHandler_SearchUnconfigured(t *testing.T) {
	t.Parallel()

	rec, env := doRequest(t, annotationRouter(newMemRepo(), nil), http.MethodGet, "/search?q=CTCF", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(errors.ErrCodeSearchUnavailable), env.Error.Code)
}

func jobRouter(jobs annotation.JobRepository, pub handlers.Publisher) *gin.Engine {
	h := handlers.NewJobHandler(jobs, pub, nil)
	r := gin.New()
	r.POST("/jobs", h.Submit)
	r.GET("/jobs", h.List)
	r.GET("/jobs/:id", h.Get)
	return r
}

func TestJobHandler_Submit(t *testing.T) {
	t.Parallel()

	jobs := newMemJobs()
	pub := &fakePublisher{}
	body := `{"mode":"both","samples":{"GSM2":["GSE1"],"GSM1":["GSE1"]}}`

	rec, env := doRequest(t, jobRouter(jobs, pub), http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job annotation.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, annotation.JobPending, job.Status)
	assert.Equal(t, []string{"GSM1", "GSM2"}, job.SampleIDs)

	require.Len(t, pub.published, 1)
	assert.Equal(t, job.ID, pub.published[0].JobID)
	assert.Equal(t, annotation.ModeBoth, pub.published[0].Mode)

	stored, err := jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, annotation.JobPending, stored.Status)
}

func TestJobHandler_SubmitInvalidMode(t *testing.T) {
	t.Parallel()

	rec, _ := doRequest(t, jobRouter(newMemJobs(), &fakePublisher{}), http.MethodPost, "/jobs",
		`{"mode":"everything","samples":{"GSM1":["GSE1"]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestJobHandler_SubmitEmptySamples(t *testing.T) {
	t.Parallel()

	rec, _ := doRequest(t, jobRouter(newMemJobs(), &fakePublisher{}), http.MethodPost, "/jobs",
		`{"mode":"both","samples":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestJobHandler_SubmitEnqueueFailure(t *testing.T) {
	t.Parallel()

	jobs := newMemJobs()
	pub := &fakePublisher{err: errors.New(errors.ErrCodeJobEnqueueFailed, "broker down")}

	rec, _ := doRequest(t, jobRouter(jobs, pub), http.MethodPost, "/jobs",
		`{"mode":"factor","samples":{"GSM1":["GSE1"]}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The job row exists and is terminal.
	list, err := jobs.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, annotation.JobFailed, list[0].Status)
}

func TestJobHandler_SubmitEnqueueAndUpdateFailure(t *testing.T) {
	t.Parallel()

	jobs := newMemJobs()
	jobs.updateErr = errors.New(errors.ErrCodeDatabaseError, "connection reset")
	pub := &fakePublisher{err: errors.New(errors.ErrCodeJobEnqueueFailed, "broker down")}
	log := testutil.NewMockLogger()

	h := handlers.NewJobHandler(jobs, pub, log)
	r := gin.New()
	r.POST("/jobs", h.Submit)

	rec, _ := doRequest(t, r, http.MethodPost, "/jobs",
		`{"mode":"factor","samples":{"GSM1":["GSE1"]}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, log.HasMessage("error", "failed to mark unenqueued job failed"))
}

func TestJobHandler_GetBadID(t *testing.T) {
	t.Parallel()

	rec, _ := doRequest(t, jobRouter(newMemJobs(), &fakePublisher{}), http.MethodGet, "/jobs/not-a-uuid", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Parallel()

	up := handlers.ComponentCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := handlers.ComponentCheck{Name: "kafka", Check: func(context.Context) error {
		return errors.New(errors.ErrCodeExternalService, "no brokers")
	}}

	h := handlers.NewHealthHandler(nil, up, down)
	r := gin.New()
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz", h.Liveness)

	rec, _ := doRequest(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kafka"`)

	rec, _ = doRequest(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// All checks healthy.
	h2 := handlers.NewHealthHandler(nil, up)
	r2 := gin.New()
	r2.GET("/readyz", h2.Readiness)
	rec, _ = doRequest(t, r2, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
