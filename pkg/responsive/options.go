package responsive

import (
	"math"
	"strings"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/transform"
)

// ImageOptions is the raw, partially specified form of a configuration
// entry as it appears in a config file or is built in code. Nil fields are
// unset and fall back to the global options, then to DefaultEntry.
type ImageOptions struct {
	Name   string    `toml:"name" yaml:"name" json:"name"`
	Width  *SizeSpec `toml:"width" yaml:"width" json:"width"`
	Height *SizeSpec `toml:"height" yaml:"height" json:"height"`

	WithoutEnlargement *bool `toml:"withoutEnlargement" yaml:"withoutEnlargement" json:"withoutEnlargement"`
	SkipOnEnlargement  *bool `toml:"skipOnEnlargement" yaml:"skipOnEnlargement" json:"skipOnEnlargement"`

	Crop              *Crop   `toml:"crop" yaml:"crop" json:"crop"`
	Embed             *bool   `toml:"embed" yaml:"embed" json:"embed"`
	Min               *bool   `toml:"min" yaml:"min" json:"min"`
	Max               *bool   `toml:"max" yaml:"max" json:"max"`
	IgnoreAspectRatio *bool   `toml:"ignoreAspectRatio" yaml:"ignoreAspectRatio" json:"ignoreAspectRatio"`
	Kernel            *string `toml:"kernel" yaml:"kernel" json:"kernel"`

	ExtractBeforeResize *Region `toml:"extractBeforeResize" yaml:"extractBeforeResize" json:"extractBeforeResize"`
	ExtractAfterResize  *Region `toml:"extractAfterResize" yaml:"extractAfterResize" json:"extractAfterResize"`

	Format *string     `toml:"format" yaml:"format" json:"format"`
	Rename *RenameSpec `toml:"rename" yaml:"rename" json:"rename"`

	Background *string      `toml:"background" yaml:"background" json:"background"`
	Flatten    *bool        `toml:"flatten" yaml:"flatten" json:"flatten"`
	Negate     *bool        `toml:"negate" yaml:"negate" json:"negate"`
	Trim       *float64     `toml:"trim" yaml:"trim" json:"trim"`
	Rotate     *Amount      `toml:"rotate" yaml:"rotate" json:"rotate"`
	Flip       *bool        `toml:"flip" yaml:"flip" json:"flip"`
	Flop       *bool        `toml:"flop" yaml:"flop" json:"flop"`
	Blur       *Amount      `toml:"blur" yaml:"blur" json:"blur"`
	Sharpen    *SharpenSpec `toml:"sharpen" yaml:"sharpen" json:"sharpen"`
	Threshold  *int         `toml:"threshold" yaml:"threshold" json:"threshold"`
	Gamma      *Amount      `toml:"gamma" yaml:"gamma" json:"gamma"`
	Grayscale  *bool        `toml:"grayscale" yaml:"grayscale" json:"grayscale"`
	Normalize  *bool        `toml:"normalize" yaml:"normalize" json:"normalize"`

	Quality                  *int      `toml:"quality" yaml:"quality" json:"quality"`
	Progressive              *bool     `toml:"progressive" yaml:"progressive" json:"progressive"`
	WithMetadata             *bool     `toml:"withMetadata" yaml:"withMetadata" json:"withMetadata"`
	Tile                     *TileSpec `toml:"tile" yaml:"tile" json:"tile"`
	ChromaSubsampling        *string   `toml:"chromaSubsampling" yaml:"chromaSubsampling" json:"chromaSubsampling"`
	WithoutChromaSubsampling *bool     `toml:"withoutChromaSubsampling" yaml:"withoutChromaSubsampling" json:"withoutChromaSubsampling"`
	CompressionLevel         *int      `toml:"compressionLevel" yaml:"compressionLevel" json:"compressionLevel"`
}

// Entry is a fully resolved configuration entry. Every field holds either
// a configured value or its default.
type Entry struct {
	Name   string
	Width  SizeSpec
	Height SizeSpec

	WithoutEnlargement bool
	SkipOnEnlargement  bool

	Crop              Crop
	Embed             bool
	Min               bool
	Max               bool
	IgnoreAspectRatio bool
	Kernel            string

	ExtractBeforeResize *Region
	ExtractAfterResize  *Region

	Format string
	Rename *RenameSpec

	Background string
	Flatten    bool
	Negate     bool
	Trim       float64
	Rotate     Amount
	Flip       bool
	Flop       bool
	Blur       Amount
	Sharpen    SharpenSpec
	Threshold  int
	Gamma      Amount
	Grayscale  bool
	Normalize  bool

	Quality                  int
	Progressive              bool
	WithMetadata             bool
	Tile                     TileSpec
	ChromaSubsampling        string
	WithoutChromaSubsampling bool
	CompressionLevel         int
}

// DefaultEntry returns the class defaults every entry starts from.
func DefaultEntry() Entry {
	return Entry{
		WithoutEnlargement: true,
		Kernel:             transform.KernelLanczos3,
		Background:         "#fff",
		Sharpen:            SharpenSpec{On: true},
		Quality:            80,
		CompressionLevel:   6,
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply overlays the set fields of o onto e. Name is not touched.
func (o *ImageOptions) apply(e *Entry) {
	set(&e.Width, o.Width)
	set(&e.Height, o.Height)
	set(&e.WithoutEnlargement, o.WithoutEnlargement)
	set(&e.SkipOnEnlargement, o.SkipOnEnlargement)
	set(&e.Crop, o.Crop)
	set(&e.Embed, o.Embed)
	set(&e.Min, o.Min)
	set(&e.Max, o.Max)
	set(&e.IgnoreAspectRatio, o.IgnoreAspectRatio)
	set(&e.Kernel, o.Kernel)
	if o.ExtractBeforeResize != nil {
		r := *o.ExtractBeforeResize
		e.ExtractBeforeResize = &r
	}
	if o.ExtractAfterResize != nil {
		r := *o.ExtractAfterResize
		e.ExtractAfterResize = &r
	}
	set(&e.Format, o.Format)
	if o.Rename != nil {
		r := *o.Rename
		e.Rename = &r
	}
	set(&e.Background, o.Background)
	set(&e.Flatten, o.Flatten)
	set(&e.Negate, o.Negate)
	set(&e.Trim, o.Trim)
	set(&e.Rotate, o.Rotate)
	set(&e.Flip, o.Flip)
	set(&e.Flop, o.Flop)
	set(&e.Blur, o.Blur)
	set(&e.Sharpen, o.Sharpen)
	set(&e.Threshold, o.Threshold)
	set(&e.Gamma, o.Gamma)
	set(&e.Grayscale, o.Grayscale)
	set(&e.Normalize, o.Normalize)
	set(&e.Quality, o.Quality)
	set(&e.Progressive, o.Progressive)
	set(&e.WithMetadata, o.WithMetadata)
	set(&e.Tile, o.Tile)
	set(&e.ChromaSubsampling, o.ChromaSubsampling)
	set(&e.WithoutChromaSubsampling, o.WithoutChromaSubsampling)
	set(&e.CompressionLevel, o.CompressionLevel)
}

// Validate checks values that can be checked without a source image.
// Size specs are checked per file when they are resolved.
func (e *Entry) Validate() error {
	if err := errs.ValidatePattern(e.Name); err != nil {
		return err
	}
	if !transform.ValidKernel(e.Kernel) {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: unknown kernel %q", e.Name, e.Kernel)
	}
	if e.Crop != "" && !transform.ValidPosition(string(e.Crop)) {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: unknown crop position %q", e.Name, e.Crop)
	}
	if e.Format != "" {
		if _, err := transform.ParseFormat(e.Format); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %q", e.Name)
		}
	}
	if err := transform.ValidColor(e.Background); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %q", e.Name)
	}
	if e.Quality < 1 || e.Quality > 100 {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: quality must be between 1 and 100, got %d", e.Name, e.Quality)
	}
	if e.CompressionLevel < 0 || e.CompressionLevel > 9 {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: compressionLevel must be between 0 and 9, got %d", e.Name, e.CompressionLevel)
	}
	if e.Threshold < 0 || e.Threshold > 255 {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: threshold must be between 0 and 255, got %d", e.Name, e.Threshold)
	}
	if e.Trim < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "config %q: trim must not be negative", e.Name)
	}
	amounts := []struct {
		name  string
		value float64
	}{
		{"trim", e.Trim},
		{"rotate", e.Rotate.Value},
		{"blur", e.Blur.Value},
		{"gamma", e.Gamma.Value},
		{"sharpen.sigma", e.Sharpen.Sigma},
		{"sharpen.flat", e.Sharpen.Flat},
		{"sharpen.jagged", e.Sharpen.Jagged},
	}
	for _, a := range amounts {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return errs.New(errs.ErrCodeInvalidConfig, "config %q: %s must be a finite number, got %v", e.Name, a.name, a.value)
		}
	}
	for _, r := range []*Region{e.ExtractBeforeResize, e.ExtractAfterResize} {
		if r != nil && (r.Width <= 0 || r.Height <= 0 || r.Left < 0 || r.Top < 0) {
			return errs.New(errs.ErrCodeInvalidConfig, "config %q: invalid extract region %+v", e.Name, *r)
		}
	}
	return nil
}

// outputFormat returns the explicit codec and the extension name it was
// configured with.
func (e *Entry) outputFormat() (transform.Format, string, error) {
	f, err := transform.ParseFormat(e.Format)
	if err != nil {
		return "", "", err
	}
	return f, strings.ToLower(e.Format), nil
}
