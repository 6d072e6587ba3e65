package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/phambaophuc/image-variants/internal/models"
)

// ArtifactKey maps (slug, size class, format) to a storage key:
// "<prefix>/<slug>.<ext>". Distinct prefixes and extensions keep every pair
// of a slug on its own key.
func ArtifactKey(slug string, sc models.SizeClass, f models.Format) string {
	name := slug + "." + f.Extension()
	prefix := strings.Trim(sc.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// ValidateSlug rejects slugs that would escape or split the key prefix.
func ValidateSlug(slug string) error {
	switch {
	case strings.TrimSpace(slug) == "":
		return fmt.Errorf("%w: slug is empty", models.ErrInvalidSlug)
	case strings.ContainsAny(slug, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", models.ErrInvalidSlug, slug)
	case strings.Contains(slug, ".."):
		return fmt.Errorf("%w: %q contains '..'", models.ErrInvalidSlug, slug)
	}
	return nil
}
