package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/gen2brain/avif"
	"github.com/phambaophuc/image-variants/internal/models"
)

// AVIFSpeed is the AVIF effort setting: 0 is slowest and smallest, 10 is
// fastest. 6 keeps a 600px encode well under a second per core.
const AVIFSpeed = 6

// Encoder serialises a pixel buffer into one container format. Encode must
// not modify img.
type Encoder interface {
	Format() models.Format
	Encode(img image.Image, quality int) ([]byte, error)
}

func DefaultEncoders() map[models.Format]Encoder {
	return map[models.Format]Encoder{
		models.FormatPNG:  pngEncoder{},
		models.FormatWebP: webpEncoder{},
		models.FormatAVIF: avifEncoder{speed: AVIFSpeed},
	}
}

// Encode runs the encoder registered for spec.Format against the variant.
func (p *ImageProcessor) Encode(v *ResizedVariant, spec models.FormatSpec) ([]byte, error) {
	fail := func(err error) error {
		return &models.StageError{Stage: models.StageEncode, SizeClass: v.SizeClass.Name, Format: spec.Format, Err: err}
	}

	enc, ok := p.encoders[spec.Format]
	if !ok {
		return nil, fail(fmt.Errorf("no encoder for format %q", spec.Format))
	}

	data, err := enc.Encode(v.Image, spec.Quality)
	if err != nil {
		return nil, fail(err)
	}
	if len(data) == 0 {
		return nil, fail(fmt.Errorf("encoder produced no output"))
	}
	return data, nil
}

type pngEncoder struct{}

func (pngEncoder) Format() models.Format { return models.FormatPNG }

// Encode ignores quality; PNG is lossless.
func (pngEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}

type webpEncoder struct{}

func (webpEncoder) Format() models.Format { return models.FormatWebP }

func (webpEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  float32(clampQuality(quality)),
	}); err != nil {
		return nil, fmt.Errorf("webp: %w", err)
	}
	return buf.Bytes(), nil
}

type avifEncoder struct {
	speed int
}

func (avifEncoder) Format() models.Format { return models.FormatAVIF }

func (e avifEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	q := clampQuality(quality)

	var buf bytes.Buffer
	if err := avif.Encode(&buf, img, avif.Options{
		Quality:      q,
		QualityAlpha: q,
		Speed:        e.speed,
	}); err != nil {
		return nil, fmt.Errorf("avif: %w", err)
	}
	return buf.Bytes(), nil
}

func clampQuality(q int) int {
	return min(100, max(0, q))
}
