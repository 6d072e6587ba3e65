package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-variants/internal/config"
	"github.com/phambaophuc/image-variants/internal/models"
	"github.com/phambaophuc/image-variants/internal/services/storage"
	"go.uber.org/zap"
)

const (
	slugParamKey     = "product_slug"
	imageParamKey    = "image"
	imageURLParamKey = "image_url"
)

type PipelineRunner interface {
	Run(ctx context.Context, slug string, data []byte) *models.PipelineOutcome
}

type StorageHealth interface {
	HealthCheck(ctx context.Context) map[string]string
}

// JobQueue accepts async jobs and reports their state.
type JobQueue interface {
	PublishJob(ctx context.Context, job *models.ProcessingJob) error
	GetJob(ctx context.Context, id string) (*models.ProcessingJob, error)
	HealthCheck() string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ImageHandler struct {
	pipeline PipelineRunner
	storage  StorageHealth
	queue    JobQueue
	redis    Pinger
	logger   *zap.Logger
	config   *config.Config
	validate *validator.Validate
}

// NewImageHandler wires the handlers. queue and redis may be nil when
// async jobs are not configured.
func NewImageHandler(
	runner PipelineRunner,
	storage StorageHealth,
	queue JobQueue,
	redis Pinger,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		pipeline: runner,
		storage:  storage,
		queue:    queue,
		redis:    redis,
		logger:   logger,
		config:   config,
		validate: validator.New(),
	}
}

// === MAIN API ENDPOINTS ===

// UploadVariants runs the pipeline synchronously and returns the outcome.
func (h *ImageHandler) UploadVariants(c *gin.Context) {
	slug, data, status, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, status, err.Error())
		return
	}

	outcome := h.pipeline.Run(c.Request.Context(), slug, data)

	c.Header("X-Run-ID", outcome.RunID)
	c.JSON(outcomeStatusCode(outcome), models.APIResponse{
		Success: outcome.Status != models.StatusAborted,
		Data:    outcome,
		Error:   outcome.Error,
	})
}

// CreateJob queues a run and returns immediately with the job id.
func (h *ImageHandler) CreateJob(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Async processing is not available")
		return
	}

	req, status, err := h.readJobRequest(c)
	if err != nil {
		h.respondError(c, status, err.Error())
		return
	}

	now := time.Now()
	job := &models.ProcessingJob{
		ID:        uuid.New().String(),
		Slug:      req.slug,
		ImageURL:  req.imageURL,
		ImageData: req.data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to queue job", zap.String("slug", job.Slug), zap.Error(err))
		h.respondError(c, http.StatusServiceUnavailable, "Failed to queue job")
		return
	}

	job.ImageData = nil
	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Async processing is not available")
		return
	}

	job, err := h.queue.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			h.respondError(c, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := h.storage.HealthCheck(ctx)

	services["redis"] = "not configured"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	}

	services["queue"] = "not configured"
	if h.queue != nil {
		services["queue"] = h.queue.HealthCheck()
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

// outcomeStatusCode maps a run status onto the response code.
func outcomeStatusCode(out *models.PipelineOutcome) int {
	switch out.Status {
	case models.StatusCompleted:
		return http.StatusOK
	case models.StatusCompletedWithFailures:
		return http.StatusMultiStatus
	default:
		return http.StatusUnprocessableEntity
	}
}
