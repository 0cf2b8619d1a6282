// Package transform defines the image transform contract used by the
// responsive stage and its concrete backends.
//
// A [Transformer] answers two questions about encoded image bytes: what are
// the intrinsic dimensions ([Transformer.Metadata]) and what are the bytes
// after replaying an ordered list of [Operation] values
// ([Transformer.Render]). The operation list is a plain data description
// so that it can be logged, hashed for caching and replayed by any backend.
//
// # Backends
//
//   - [Imaging]: built on disintegration/imaging, x/image and go-webp; needs
//     cgo and the libwebp headers for webp encoding
//   - [Cached]: decorator that stores rendered output in a cache.Cache
//
// # Operation order
//
// Backends follow a resize-pipeline model: the last [Resize] in the list
// is the effective resize and runs where the first one appears. [Extract]
// operations before that point crop the source, the ones after it crop the
// resized image. Every other operation runs in list order. The final
// operation of a list must be an [Encode].
package transform

import (
	"context"
	"strings"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// Transformer is an image transform backend.
type Transformer interface {
	// Metadata decodes the image header.
	Metadata(ctx context.Context, data []byte) (Metadata, error)

	// Render replays ops against data and returns the encoded result.
	Render(ctx context.Context, data []byte, ops []Operation) ([]byte, error)
}

// Metadata describes a decoded image header.
type Metadata struct {
	Width  int
	Height int
	Format Format
}

// Format is an output codec family.
type Format string

// Known formats. The zero value means the format is unsupported or unset.
const (
	FormatUnsupported Format = ""
	FormatJPEG        Format = "jpeg"
	FormatPNG         Format = "png"
	FormatWebP        Format = "webp"
	FormatGIF         Format = "gif"
	FormatTIFF        Format = "tiff"
	FormatBMP         Format = "bmp"
)

// ParseFormat resolves a format name, accepting the jpg and jpe aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "jpeg", "jpg", "jpe":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "gif":
		return FormatGIF, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	}
	return FormatUnsupported, errs.New(errs.ErrCodeUnsupportedFormat, "unsupported format %q", name)
}
