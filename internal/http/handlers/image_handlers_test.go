package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-variants/internal/config"
	"github.com/phambaophuc/image-variants/internal/models"
	"github.com/phambaophuc/image-variants/internal/services/storage"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	slug    string
	data    []byte
	outcome *models.PipelineOutcome
}

func (f *fakeRunner) Run(ctx context.Context, slug string, data []byte) *models.PipelineOutcome {
	f.slug, f.data = slug, data
	out := *f.outcome
	out.Slug = slug
	return &out
}

type fakeStorage struct{ status string }

func (f fakeStorage) HealthCheck(ctx context.Context) map[string]string {
	return map[string]string{"memory": f.status}
}

type fakeQueue struct {
	published []*models.ProcessingJob
	jobs      map[string]*models.ProcessingJob
	err       error
}

func (q *fakeQueue) PublishJob(ctx context.Context, job *models.ProcessingJob) error {
	if q.err != nil {
		return q.err
	}
	stored := *job
	q.published = append(q.published, &stored)
	return nil
}

func (q *fakeQueue) GetJob(ctx context.Context, id string) (*models.ProcessingJob, error) {
	if job, ok := q.jobs[id]; ok {
		return job, nil
	}
	return nil, storage.ErrJobNotFound
}

func (q *fakeQueue) HealthCheck() string { return "healthy" }

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func newHandler(t *testing.T, runner PipelineRunner, queue JobQueue) *ImageHandler {
	cfg := &config.Config{Storage: config.StorageConfig{MaxFileSize: 1024}}
	var q JobQueue
	var redis Pinger
	if queue != nil {
		q = queue
		redis = fakePinger{}
	}
	return NewImageHandler(runner, fakeStorage{status: "healthy"}, q, redis, zaptest.NewLogger(t), cfg)
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "source.jpg")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(image)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func serve(h gin.HandlerFunc, method, path, route string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, route, h)

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (models.APIResponse, map[string]interface{}) {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response %q: %v", rec.Body.String(), err)
	}
	data, _ := resp.Data.(map[string]interface{})
	return resp, data
}

func TestUploadVariants_StatusCodes(t *testing.T) {
	tests := []struct {
		status  models.RunStatus
		code    int
		success bool
	}{
		{models.StatusCompleted, http.StatusOK, true},
		{models.StatusCompletedWithFailures, http.StatusMultiStatus, true},
		{models.StatusAborted, http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			runner := &fakeRunner{outcome: &models.PipelineOutcome{
				Status:    tt.status,
				Artifacts: []models.ArtifactResult{{SizeClass: models.SizeNormal, Key: "images/chair-42.png"}},
			}}
			h := newHandler(t, runner, nil)

			body, ct := multipartBody(t, map[string]string{"product_slug": "chair-42"}, []byte("pixels"))
			rec := serve(h.UploadVariants, http.MethodPost, "/variants", "/variants", body, ct)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			resp, data := decode(t, rec)
			if resp.Success != tt.success {
				t.Errorf("expected success=%v", tt.success)
			}
			if data["status"] != string(tt.status) || data["slug"] != "chair-42" {
				t.Errorf("unexpected outcome %v", data)
			}
			if runner.slug != "chair-42" || string(runner.data) != "pixels" {
				t.Errorf("runner got %q / %q", runner.slug, runner.data)
			}
		})
	}
}

func TestUploadVariants_MissingFields(t *testing.T) {
	runner := &fakeRunner{outcome: &models.PipelineOutcome{}}
	h := newHandler(t, runner, nil)

	cases := map[string]struct {
		fields map[string]string
		image  []byte
	}{
		"no slug":    {fields: map[string]string{}, image: []byte("x")},
		"blank slug": {fields: map[string]string{"product_slug": "  "}, image: []byte("x")},
		"no image":   {fields: map[string]string{"product_slug": "chair-42"}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.fields, tc.image)
			rec := serve(h.UploadVariants, http.MethodPost, "/variants", "/variants", body, ct)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp, _ := decode(t, rec)
			if resp.Error != "Missing product_slug or image" {
				t.Errorf("unexpected error %q", resp.Error)
			}
		})
	}

	if runner.slug != "" {
		t.Error("pipeline should not run for bad requests")
	}
}

func TestUploadVariants_TooLarge(t *testing.T) {
	runner := &fakeRunner{outcome: &models.PipelineOutcome{}}
	h := newHandler(t, runner, nil)

	body, ct := multipartBody(t, map[string]string{"product_slug": "chair-42"}, bytes.Repeat([]byte("a"), 4096))
	rec := serve(h.UploadVariants, http.MethodPost, "/variants", "/variants", body, ct)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestCreateJob(t *testing.T) {
	queue := &fakeQueue{}
	h := newHandler(t, &fakeRunner{}, queue)

	body, ct := multipartBody(t, map[string]string{"product_slug": "chair-42"}, []byte("pixels"))
	rec := serve(h.CreateJob, http.MethodPost, "/jobs", "/jobs", body, ct)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	_, data := decode(t, rec)
	if data["id"] == "" || data["slug"] != "chair-42" {
		t.Errorf("unexpected job %v", data)
	}
	if _, leaked := data["image_data"]; leaked {
		t.Error("image bytes should not be echoed back")
	}

	if len(queue.published) != 1 || string(queue.published[0].ImageData) != "pixels" {
		t.Fatalf("job not published with image data: %+v", queue.published)
	}
}

func TestCreateJob_ImageURL(t *testing.T) {
	queue := &fakeQueue{}
	h := newHandler(t, &fakeRunner{}, queue)

	body, ct := multipartBody(t, map[string]string{"product_slug": "lamp", "image_url": "https://example.com/lamp.jpg"}, nil)
	rec := serve(h.CreateJob, http.MethodPost, "/jobs", "/jobs", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if queue.published[0].ImageURL != "https://example.com/lamp.jpg" {
		t.Errorf("unexpected url %q", queue.published[0].ImageURL)
	}
}

func TestCreateJob_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
		code   int
	}{
		{"no source", map[string]string{"product_slug": "lamp"}, nil, http.StatusBadRequest},
		{"bad url", map[string]string{"product_slug": "lamp", "image_url": "not a url"}, nil, http.StatusBadRequest},
		{"invalid slug", map[string]string{"product_slug": "../lamp"}, []byte("x"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeQueue{}
			h := newHandler(t, &fakeRunner{}, queue)

			body, ct := multipartBody(t, tt.fields, tt.image)
			rec := serve(h.CreateJob, http.MethodPost, "/jobs", "/jobs", body, ct)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if len(queue.published) != 0 {
				t.Error("rejected job was published")
			}
		})
	}
}

func TestCreateJob_QueueUnavailable(t *testing.T) {
	h := newHandler(t, &fakeRunner{}, nil)
	body, ct := multipartBody(t, map[string]string{"product_slug": "lamp"}, []byte("x"))
	if rec := serve(h.CreateJob, http.MethodPost, "/jobs", "/jobs", body, ct); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	h = newHandler(t, &fakeRunner{}, &fakeQueue{err: errors.New("channel closed")})
	body, ct = multipartBody(t, map[string]string{"product_slug": "lamp"}, []byte("x"))
	if rec := serve(h.CreateJob, http.MethodPost, "/jobs", "/jobs", body, ct); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on publish failure, got %d", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	queue := &fakeQueue{jobs: map[string]*models.ProcessingJob{
		"job-1": {ID: "job-1", Slug: "chair-42", Status: models.JobCompleted, Result: &models.PipelineOutcome{Status: models.StatusCompleted}},
	}}
	h := newHandler(t, &fakeRunner{}, queue)

	rec := serve(h.GetJob, http.MethodGet, "/jobs/job-1", "/jobs/:id", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_, data := decode(t, rec)
	if data["status"] != models.JobCompleted {
		t.Errorf("unexpected job %v", data)
	}

	rec = serve(h.GetJob, http.MethodGet, "/jobs/nope", "/jobs/:id", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newHandler(t, &fakeRunner{}, &fakeQueue{})
	rec := serve(h.HealthCheck, http.MethodGet, "/health", "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cfg := &config.Config{Storage: config.StorageConfig{MaxFileSize: 1024}}
	h = NewImageHandler(&fakeRunner{}, fakeStorage{status: "healthy"}, &fakeQueue{}, fakePinger{err: errors.New("refused")}, zaptest.NewLogger(t), cfg)
	rec = serve(h.HealthCheck, http.MethodGet, "/health", "/health", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	_, data := decode(t, rec)
	services, _ := data["services"].(map[string]interface{})
	if services["redis"] != "unhealthy: refused" || services["memory"] != "healthy" {
		t.Errorf("unexpected services %v", services)
	}
}
