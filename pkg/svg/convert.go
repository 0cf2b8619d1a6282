package svg

import (
	"context"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/stream"
	"github.com/matzehuels/imgflow/pkg/transform"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

const convertStageName = "svg2img"

var discard = log.New(io.Discard)

// ConvertOptions configures the svg2img stage.
type ConvertOptions struct {
	// Width and Height are the output size in pixels before scaling.
	// Zero means derived from the other side or the document.
	Width  float64
	Height float64

	Scale               float64 // multiplies both sides; 0 leaves them unchanged
	PreserveAspectRatio bool    // derive a missing side from the document's aspect ratio
	Format              string  // png, jpeg or jpg; also the output extension
	Quality             int     // jpeg quality, 0 for the encoder default

	Rasterizer Rasterizer
	Logger     *log.Logger
}

// DefaultConvertOptions returns a 100px wide PNG conversion.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Width:               100,
		Scale:               1,
		PreserveAspectRatio: true,
		Format:              "png",
	}
}

// Validate checks the output format and size bounds.
func (o *ConvertOptions) Validate() error {
	if _, err := o.format(); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 || o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "svg2img: width, height and scale must not be negative")
	}
	if o.Quality < 0 || o.Quality > 100 {
		return errs.New(errs.ErrCodeInvalidConfig, "svg2img: quality %d out of range 1-100", o.Quality)
	}
	return nil
}

// SetDefaults fills in the runtime collaborators.
func (o *ConvertOptions) SetDefaults() {
	if o.Format == "" {
		o.Format = "png"
	}
	if o.Rasterizer == nil {
		o.Rasterizer = NewCanvasRasterizer()
	}
	if o.Logger == nil {
		o.Logger = discard
	}
}

func (o *ConvertOptions) format() (transform.Format, error) {
	switch strings.ToLower(o.Format) {
	case "png":
		return transform.FormatPNG, nil
	case "jpeg", "jpg":
		return transform.FormatJPEG, nil
	}
	return transform.FormatUnsupported, errs.New(errs.ErrCodeUnsupportedFormat, "svg2img: unsupported format %q (png, jpeg, jpg)", o.Format)
}

// Size computes the pixel size of the output for a document of size d.
func (o *ConvertOptions) Size(d Dimensions) (int, int, error) {
	w, h := o.Width, o.Height

	if o.PreserveAspectRatio {
		if w == 0 && h > 0 && d.Known() {
			w = d.Width / d.Height * h
		}
		if h == 0 && w > 0 && d.Known() {
			h = d.Height / d.Width * w
		}
	}
	if w == 0 {
		w = d.Width
	}
	if h == 0 {
		h = d.Height
	}

	if o.Scale > 0 {
		w *= o.Scale
		h *= o.Scale
	}

	pw, ph := int(math.Round(w)), int(math.Round(h))
	if pw < 1 || ph < 1 {
		return 0, 0, errs.New(errs.ErrCodeInvalidInput, "cannot determine output size (%gx%g)", w, h)
	}
	return pw, ph, nil
}

// Converter is a stream stage that rasterizes SVG files.
type Converter struct {
	opts   ConvertOptions
	format transform.Format
}

var _ stream.Stage = (*Converter)(nil)

// NewConverter validates opts and returns the stage.
func NewConverter(opts ConvertOptions) (*Converter, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, _ := opts.format()
	return &Converter{opts: opts, format: format}, nil
}

// Name implements stream.Stage.
func (c *Converter) Name() string { return convertStageName }

// Transform replaces an SVG file with its raster rendition. The output path
// takes the configured format as its extension.
func (c *Converter) Transform(ctx context.Context, f *vfile.File) ([]*vfile.File, error) {
	if f.IsNull() {
		return []*vfile.File{f}, nil
	}
	rel := f.Relative()
	if f.IsStream() {
		return nil, errs.Wrap(errs.ErrCodeUnsupportedInput, stream.ErrStreamingUnsupported, "file %q", rel)
	}
	observability.Stage().OnFileStart(ctx, convertStageName, rel)

	out, err := c.convert(ctx, f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRasterize, err, "could not convert file %q", rel)
	}
	c.opts.Logger.Debug("rasterized", "file", rel, "variant", out.Relative())
	return []*vfile.File{out}, nil
}

func (c *Converter) convert(ctx context.Context, f *vfile.File) (*vfile.File, error) {
	dims, err := Dimension(f.Contents, ModeAuto)
	if err != nil {
		return nil, err
	}
	w, h, err := c.opts.Size(dims)
	if err != nil {
		return nil, err
	}

	data, err := c.opts.Rasterizer.Rasterize(ctx, f.Contents, Request{
		Width:   w,
		Height:  h,
		Format:  c.format,
		Quality: c.opts.Quality,
	})
	if err != nil {
		return nil, err
	}

	out := f.With(f.Path, data)
	out.SetExt(strings.ToLower(c.opts.Format))
	return out, nil
}

// Flush implements stream.Stage.
func (c *Converter) Flush(ctx context.Context) ([]*vfile.File, error) {
	observability.Stage().OnFlush(ctx, convertStageName, 0, nil)
	return nil, nil
}
