package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-variants/internal/models"
	"github.com/phambaophuc/image-variants/pkg/utils"
	"go.uber.org/zap"
)

// processJob runs the pipeline for one job. The outcome is returned even
// when the job fails so per-artifact details survive.
func (q *QueueService) processJob(ctx context.Context, job *models.ProcessingJob) (*models.PipelineOutcome, error) {
	data := job.ImageData
	if len(data) == 0 {
		if job.ImageURL == "" {
			return nil, fmt.Errorf("job %s has neither image data nor image url", job.ID)
		}

		downloaded, contentType, err := utils.DownloadImage(ctx, job.ImageURL, q.maxDownloadSize)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		q.logger.Debug("Downloaded source image",
			zap.String("job_id", job.ID),
			zap.String("content_type", contentType),
			zap.Int("size", len(downloaded)))
		data = downloaded
	}

	outcome := q.pipeline.Run(ctx, job.Slug, data)
	if outcome.Status == models.StatusAborted {
		return outcome, fmt.Errorf("pipeline aborted: %w", outcome.Err)
	}

	return outcome, nil
}
