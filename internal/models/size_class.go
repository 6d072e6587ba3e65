package models

// SizeClass is a named target width. Prefix is the storage prefix its
// artifacts are written under, e.g. "images/thumbnails".
type SizeClass struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

const (
	SizeNormal    = "normal"
	SizeThumbnail = "thumbnail"
)

func DefaultSizeClasses() []SizeClass {
	return []SizeClass{
		{Name: SizeNormal, Width: 600, Prefix: "images"},
		{Name: SizeThumbnail, Width: 350, Prefix: "images/thumbnails"},
	}
}

func DefaultFormatSpecs() []FormatSpec {
	return []FormatSpec{
		{Format: FormatPNG},
		{Format: FormatWebP, Quality: 75},
		{Format: FormatAVIF, Quality: 75},
	}
}
