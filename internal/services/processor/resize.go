package processor

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-variants/internal/models"
)

// MaxDimension is the largest edge every supported encoder accepts.
const MaxDimension = 65535

// TargetHeight is round(srcH * width / srcW), never below 1.
func TargetHeight(srcW, srcH, width int) int {
	h := int(math.Round(float64(srcH) * float64(width) / float64(srcW)))
	if h < 1 {
		h = 1
	}
	return h
}

// Resize produces the variant for one size class using Lanczos resampling.
// The source buffer is only read.
func (p *ImageProcessor) Resize(src *SourceImage, sc models.SizeClass) (*ResizedVariant, error) {
	if src == nil || src.Image == nil {
		return nil, models.NewResizeError(sc.Name, fmt.Errorf("no source image"))
	}
	if sc.Width <= 0 {
		return nil, models.NewResizeError(sc.Name, fmt.Errorf("target width must be positive, got %d", sc.Width))
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, models.NewResizeError(sc.Name, fmt.Errorf("degenerate source %dx%d", src.Width, src.Height))
	}

	height := TargetHeight(src.Width, src.Height, sc.Width)
	if sc.Width > MaxDimension || height > MaxDimension {
		return nil, models.NewResizeError(sc.Name, fmt.Errorf("target %dx%d exceeds %dpx", sc.Width, height, MaxDimension))
	}

	resized := imaging.Resize(src.Image, sc.Width, height, imaging.Lanczos)

	return &ResizedVariant{
		Image:     resized,
		SizeClass: sc,
		Width:     sc.Width,
		Height:    height,
	}, nil
}
