package models

import "time"

type Stage string

const (
	StageValidate Stage = "validate"
	StageDecode   Stage = "decode"
	StageResize   Stage = "resize"
	StageEncode   Stage = "encode"
	StageUpload   Stage = "upload"
)

func (s Stage) sentinel() error {
	switch s {
	case StageValidate:
		return ErrInvalidSlug
	case StageDecode:
		return ErrDecode
	case StageResize:
		return ErrResize
	case StageEncode:
		return ErrEncode
	case StageUpload:
		return ErrUpload
	default:
		return nil
	}
}

type RunStatus string

const (
	StatusCompleted             RunStatus = "completed"
	StatusCompletedWithFailures RunStatus = "completed_with_failures"
	StatusAborted               RunStatus = "aborted"
)

type SourceInfo struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ArtifactResult is the outcome of one (size class, format) pair.
type ArtifactResult struct {
	SizeClass string     `json:"size_class"`
	Format    FormatSpec `json:"format"`
	Key       string     `json:"key"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`
	FileSize  int64      `json:"file_size,omitempty"`
	URL       string     `json:"url,omitempty"`
	Success   bool       `json:"success"`
	Stage     Stage      `json:"failed_stage,omitempty"`
	Error     string     `json:"error,omitempty"`

	Err error `json:"-"`
}

// PipelineOutcome aggregates one run. Artifacts holds exactly one entry per
// configured pair, ordered by size class then format.
type PipelineOutcome struct {
	RunID      string           `json:"run_id"`
	Slug       string           `json:"slug"`
	Status     RunStatus        `json:"status"`
	Source     *SourceInfo      `json:"source,omitempty"`
	Artifacts  []ArtifactResult `json:"artifacts"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`

	Err error `json:"-"`
}

func (o *PipelineOutcome) Succeeded() int {
	n := 0
	for _, a := range o.Artifacts {
		if a.Success {
			n++
		}
	}
	return n
}

func (o *PipelineOutcome) Failed() int {
	return len(o.Artifacts) - o.Succeeded()
}

// Find returns the artifact result for the given pair.
func (o *PipelineOutcome) Find(sizeClass string, format Format) (ArtifactResult, bool) {
	for _, a := range o.Artifacts {
		if a.SizeClass == sizeClass && a.Format.Format == format {
			return a, true
		}
	}
	return ArtifactResult{}, false
}
