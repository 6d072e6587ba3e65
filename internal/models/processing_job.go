package models

import "time"

type ProcessingJob struct {
	ID        string           `json:"id"`
	Slug      string           `json:"slug"`
	ImageURL  string           `json:"image_url,omitempty"`
	ImageData []byte           `json:"image_data,omitempty"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Result    *PipelineOutcome `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	JobCompleted     = "completed"
	JobFailed        = "failed"
)
