package responsive

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/imgflow/pkg/transform"
)

// Format is an output codec family.
type Format = transform.Format

// Codec families recognised from file extensions.
const (
	FormatJPEG        = transform.FormatJPEG
	FormatPNG         = transform.FormatPNG
	FormatWebP        = transform.FormatWebP
	FormatUnsupported = transform.FormatUnsupported
)

// FormatFromPath maps a file extension to jpeg, png or webp, or
// FormatUnsupported. The comparison is case-insensitive.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".jpe":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWebP
	}
	return FormatUnsupported
}
