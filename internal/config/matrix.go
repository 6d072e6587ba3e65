package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phambaophuc/image-variants/internal/models"
	"gopkg.in/yaml.v3"
)

// Matrix is the deployment-level set of size classes and output formats.
type Matrix struct {
	SizeClasses []models.SizeClass  `yaml:"size_classes"`
	Formats     []models.FormatSpec `yaml:"formats"`
}

// LoadMatrix reads a YAML matrix file, e.g.
//
//	size_classes:
//	  - {name: normal, width: 600, prefix: images}
//	  - {name: thumbnail, width: 350, prefix: images/thumbnails}
//	formats:
//	  - {format: png}
//	  - {format: webp, quality: 75}
func LoadMatrix(file string) (*Matrix, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}

	var m Matrix
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse matrix file: %w", err)
	}

	for i := range m.Formats {
		f, err := models.ParseFormat(string(m.Formats[i].Format))
		if err != nil {
			return nil, fmt.Errorf("formats[%d]: %w", i, err)
		}
		m.Formats[i].Format = f
	}
	for i := range m.SizeClasses {
		m.SizeClasses[i].Prefix = strings.Trim(m.SizeClasses[i].Prefix, "/")
	}

	if err := ValidateMatrix(m.SizeClasses, m.Formats); err != nil {
		return nil, err
	}
	return &m, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return ValidateMatrix(c.Pipeline.SizeClasses, c.Pipeline.Formats)
}

// ValidateMatrix checks what the artifact namer relies on: every
// size class owns a distinct prefix and no format appears twice, so
// (size class, format) pairs never map to the same key.
func ValidateMatrix(classes []models.SizeClass, formats []models.FormatSpec) error {
	if len(classes) == 0 {
		return errors.New("at least one size class is required")
	}
	if len(formats) == 0 {
		return errors.New("at least one format is required")
	}

	names := make(map[string]struct{}, len(classes))
	prefixes := make(map[string]string, len(classes))
	for _, sc := range classes {
		if sc.Name == "" {
			return errors.New("size class name is required")
		}
		if sc.Width <= 0 {
			return fmt.Errorf("size class %q: width must be positive, got %d", sc.Name, sc.Width)
		}
		if _, dup := names[sc.Name]; dup {
			return fmt.Errorf("duplicate size class %q", sc.Name)
		}
		names[sc.Name] = struct{}{}

		prefix := path.Clean("/" + sc.Prefix)
		if other, dup := prefixes[prefix]; dup {
			return fmt.Errorf("size classes %q and %q share prefix %q", other, sc.Name, sc.Prefix)
		}
		prefixes[prefix] = sc.Name
	}

	seen := make(map[models.Format]struct{}, len(formats))
	for _, fs := range formats {
		if _, err := models.ParseFormat(string(fs.Format)); err != nil {
			return err
		}
		if fs.Quality < 0 || fs.Quality > 100 {
			return fmt.Errorf("format %s: quality must be within 0..100, got %d", fs.Format, fs.Quality)
		}
		if _, dup := seen[fs.Format]; dup {
			return fmt.Errorf("duplicate format %q", fs.Format)
		}
		seen[fs.Format] = struct{}{}
	}
	return nil
}
