package models

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// SupportedFormats lists every format an encoder exists for.
var SupportedFormats = []Format{FormatPNG, FormatWebP, FormatAVIF}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Extension is the lowercase file extension used in storage keys.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Lossless reports whether the format ignores the quality parameter.
func (f Format) Lossless() bool {
	return f == FormatPNG
}

// FormatSpec is an output container format plus its encode quality (0-100).
type FormatSpec struct {
	Format  Format `json:"format" yaml:"format"`
	Quality int    `json:"quality,omitempty" yaml:"quality"`
}

func (s FormatSpec) String() string {
	if s.Format.Lossless() {
		return string(s.Format)
	}
	return fmt.Sprintf("%s@%d", s.Format, s.Quality)
}
