package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-variants/internal/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode turns raw bytes into the canonical NRGBA buffer. Any failure is a
// decode-stage error.
func (p *ImageProcessor) Decode(data []byte) (*SourceImage, error) {
	contentType, err := p.ValidateInput(data)
	if err != nil {
		return nil, models.NewDecodeError(err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewDecodeError(fmt.Errorf("unrecognized image (%s): %w", contentType, err))
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewDecodeError(fmt.Errorf("degenerate dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.Width*cfg.Height > MaxSourcePixels {
		return nil, models.NewDecodeError(fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxSourcePixels))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewDecodeError(fmt.Errorf("failed to decode %s image: %w", format, err))
	}

	buf := imaging.Clone(img)
	bounds := buf.Bounds()

	return &SourceImage{
		Image:       buf,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Format:      format,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
