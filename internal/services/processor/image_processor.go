package processor

import (
	"image"

	"github.com/phambaophuc/image-variants/internal/models"
)

const (
	DefaultMaxFileSize = 20 << 20 // 20MB

	// MaxSourcePixels bounds the decoded buffer (about 256MB as NRGBA).
	MaxSourcePixels = 8192 * 8192
)

// SourceImage is the decoded input of a run. Image is never mutated after
// Decode returns and may be read concurrently.
type SourceImage struct {
	Image       *image.NRGBA
	Width       int
	Height      int
	Format      string
	ContentType string
	Size        int64
}

func (s *SourceImage) Info() *models.SourceInfo {
	return &models.SourceInfo{
		Width:       s.Width,
		Height:      s.Height,
		Format:      s.Format,
		ContentType: s.ContentType,
		Size:        s.Size,
	}
}

// ResizedVariant is read-only once produced; every encoder for its size
// class shares the same buffer.
type ResizedVariant struct {
	Image     *image.NRGBA
	SizeClass models.SizeClass
	Width     int
	Height    int
}

// ImageProcessor holds the decode, resize and encode stages. All methods are
// safe for concurrent use.
type ImageProcessor struct {
	maxFileSize int64
	encoders    map[models.Format]Encoder
}

type Option func(*ImageProcessor)

func WithMaxFileSize(n int64) Option {
	return func(p *ImageProcessor) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// WithEncoder replaces the encoder registered for enc.Format().
func WithEncoder(enc Encoder) Option {
	return func(p *ImageProcessor) {
		p.encoders[enc.Format()] = enc
	}
}

func NewImageProcessor(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{
		maxFileSize: DefaultMaxFileSize,
		encoders:    DefaultEncoders(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ImageProcessor) Supports(f models.Format) bool {
	_, ok := p.encoders[f]
	return ok
}
