package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-variants/internal/models"
	"github.com/phambaophuc/image-variants/internal/services/processor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultUploadConcurrency = 4
)

// Uploader persists one artifact. Put must be an idempotent overwrite of key
// and safe for concurrent use; it returns the artifact's public location
// when the store has one.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Options struct {
	SizeClasses []models.SizeClass
	Formats     []models.FormatSpec

	// UploadConcurrency caps simultaneous Put calls.
	UploadConcurrency int

	// MaxInFlight caps pair tasks holding an encoded buffer at once.
	// Defaults to the worker pool size.
	MaxInFlight int
}

// Pipeline decodes a source once, resizes it per size class and fans out
// one encode+upload task per (size class, format) pair. A failing pair never
// cancels another.
type Pipeline struct {
	processor   *processor.ImageProcessor
	uploader    Uploader
	pool        *WorkerPool
	logger      *zap.Logger
	sizeClasses []models.SizeClass
	formats     []models.FormatSpec
	uploadSem   *semaphore.Weighted
	maxInFlight int
}

func NewPipeline(
	proc *processor.ImageProcessor,
	uploader Uploader,
	pool *WorkerPool,
	logger *zap.Logger,
	opts Options,
) (*Pipeline, error) {
	if proc == nil || uploader == nil || pool == nil {
		return nil, errors.New("processor, uploader and worker pool are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := checkMatrix(proc, opts.SizeClasses, opts.Formats); err != nil {
		return nil, err
	}

	uploads := opts.UploadConcurrency
	if uploads <= 0 {
		uploads = DefaultUploadConcurrency
	}
	inFlight := opts.MaxInFlight
	if inFlight <= 0 {
		inFlight = pool.Size()
	}

	return &Pipeline{
		processor:   proc,
		uploader:    uploader,
		pool:        pool,
		logger:      logger,
		sizeClasses: append([]models.SizeClass(nil), opts.SizeClasses...),
		formats:     append([]models.FormatSpec(nil), opts.Formats...),
		uploadSem:   semaphore.NewWeighted(int64(uploads)),
		maxInFlight: inFlight,
	}, nil
}

// checkMatrix verifies that every pair maps to its own key and has an encoder.
func checkMatrix(proc *processor.ImageProcessor, classes []models.SizeClass, formats []models.FormatSpec) error {
	if len(classes) == 0 || len(formats) == 0 {
		return errors.New("at least one size class and one format are required")
	}

	keys := make(map[string]struct{}, len(classes)*len(formats))
	for _, sc := range classes {
		for _, fs := range formats {
			if !proc.Supports(fs.Format) {
				return fmt.Errorf("no encoder for format %q", fs.Format)
			}
			key := ArtifactKey("slug", sc, fs.Format)
			if _, dup := keys[key]; dup {
				return fmt.Errorf("size class %q with format %q collides on key %q", sc.Name, fs.Format, key)
			}
			keys[key] = struct{}{}
		}
	}
	return nil
}

// Pairs returns the number of artifacts a run produces.
func (p *Pipeline) Pairs() int {
	return len(p.sizeClasses) * len(p.formats)
}

// Run executes the pipeline for one slug. It always returns an outcome with
// exactly one artifact entry per configured pair.
func (p *Pipeline) Run(ctx context.Context, slug string, data []byte) *models.PipelineOutcome {
	out := &models.PipelineOutcome{
		RunID:     uuid.New().String(),
		Slug:      slug,
		StartedAt: time.Now(),
		Artifacts: p.newResults(slug),
	}
	defer p.finish(out)

	if err := ValidateSlug(slug); err != nil {
		p.abort(out, &models.StageError{Stage: models.StageValidate, Err: err})
		return out
	}

	var src *processor.SourceImage
	err := p.pool.Do(ctx, func() error {
		var err error
		src, err = p.processor.Decode(data)
		return err
	})
	if err != nil {
		if _, ok := models.StageOf(err); !ok {
			err = models.NewDecodeError(err)
		}
		p.abort(out, err)
		return out
	}
	out.Source = src.Info()

	var (
		classes sync.WaitGroup
		pairs   errgroup.Group
	)
	pairs.SetLimit(p.maxInFlight)

	for ci, sc := range p.sizeClasses {
		results := out.Artifacts[ci*len(p.formats) : (ci+1)*len(p.formats)]

		classes.Add(1)
		go func() {
			defer classes.Done()

			var variant *processor.ResizedVariant
			err := p.pool.Do(ctx, func() error {
				var err error
				variant, err = p.processor.Resize(src, sc)
				return err
			})
			if err != nil {
				for i := range results {
					p.fail(&results[i], models.StageResize, err)
				}
				return
			}

			for i, spec := range p.formats {
				res := &results[i]
				res.Width, res.Height = variant.Width, variant.Height
				pairs.Go(func() error {
					p.runPair(ctx, variant, spec, res)
					return nil
				})
			}
		}()
	}

	classes.Wait()
	_ = pairs.Wait()

	return out
}

// runPair encodes then uploads one artifact. res is owned by this task.
func (p *Pipeline) runPair(ctx context.Context, v *processor.ResizedVariant, spec models.FormatSpec, res *models.ArtifactResult) {
	var data []byte
	err := p.pool.Do(ctx, func() error {
		var err error
		data, err = p.processor.Encode(v, spec)
		return err
	})
	if err != nil {
		p.fail(res, models.StageEncode, err)
		return
	}
	res.FileSize = int64(len(data))

	if err := p.uploadSem.Acquire(ctx, 1); err != nil {
		p.fail(res, models.StageUpload, err)
		return
	}
	url, err := p.uploader.Put(ctx, res.Key, data, spec.Format.ContentType())
	p.uploadSem.Release(1)

	if err != nil {
		p.fail(res, models.StageUpload, err)
		return
	}

	res.URL = url
	res.Success = true
}

func (p *Pipeline) newResults(slug string) []models.ArtifactResult {
	results := make([]models.ArtifactResult, 0, p.Pairs())
	for _, sc := range p.sizeClasses {
		for _, fs := range p.formats {
			results = append(results, models.ArtifactResult{
				SizeClass: sc.Name,
				Format:    fs,
				Key:       ArtifactKey(slug, sc, fs.Format),
			})
		}
	}
	return results
}

func (p *Pipeline) fail(res *models.ArtifactResult, stage models.Stage, err error) {
	var se *models.StageError
	if !errors.As(err, &se) || se.Stage != stage {
		err = &models.StageError{Stage: stage, SizeClass: res.SizeClass, Format: res.Format.Format, Err: err}
	}
	res.Success = false
	res.Stage = stage
	res.Err = err
	res.Error = err.Error()
}

// abort fails every pair with err; nothing downstream of decode can run.
func (p *Pipeline) abort(out *models.PipelineOutcome, err error) {
	stage, _ := models.StageOf(err)
	for i := range out.Artifacts {
		out.Artifacts[i].Success = false
		out.Artifacts[i].Stage = stage
		out.Artifacts[i].Err = err
		out.Artifacts[i].Error = err.Error()
	}
	out.Status = models.StatusAborted
	out.Err = err
	out.Error = err.Error()
}

func (p *Pipeline) finish(out *models.PipelineOutcome) {
	out.FinishedAt = time.Now()

	if out.Status != models.StatusAborted {
		if out.Failed() == 0 {
			out.Status = models.StatusCompleted
		} else {
			out.Status = models.StatusCompletedWithFailures
		}
	}

	for _, a := range out.Artifacts {
		if !a.Success && out.Status != models.StatusAborted {
			p.logger.Warn("Artifact failed",
				zap.String("run_id", out.RunID),
				zap.String("key", a.Key),
				zap.String("stage", string(a.Stage)),
				zap.Error(a.Err))
		}
	}

	p.logger.Info("Pipeline run finished",
		zap.String("run_id", out.RunID),
		zap.String("slug", out.Slug),
		zap.String("status", string(out.Status)),
		zap.Int("succeeded", out.Succeeded()),
		zap.Int("failed", out.Failed()),
		zap.Duration("duration", out.FinishedAt.Sub(out.StartedAt)),
		zap.Error(out.Err))
}
