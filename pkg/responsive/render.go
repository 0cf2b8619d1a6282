package responsive

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/transform"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

// Renderer produces one variant of a source file for one entry.
type Renderer struct {
	Transformer        transform.Transformer
	ErrorOnEnlargement bool
	Silent             bool
	Logger             *log.Logger
}

// Render applies the enlargement policy and renders the variant. It
// returns a nil file when the entry skips enlarged variants.
func (r *Renderer) Render(ctx context.Context, file *vfile.File, e Entry) (*vfile.File, error) {
	start := time.Now()
	out, err := r.render(ctx, file, e)

	dst, size := "", 0
	if out != nil {
		dst, size = out.Relative(), len(out.Contents)
	}
	observability.Stage().OnVariant(ctx, stageName, file.Relative(), dst, size, time.Since(start), err)
	return out, err
}

func (r *Renderer) render(ctx context.Context, file *vfile.File, e Entry) (*vfile.File, error) {
	rel := file.Relative()

	md, err := r.Transformer.Metadata(ctx, file.Contents)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRender, err, "file %q", rel)
	}

	dst := file.Path
	if e.Rename != nil {
		renamed, err := e.Rename.Apply(rel)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", rel, err)
		}
		dst = filepath.Join(file.Base, filepath.FromSlash(renamed))
	}

	width, hasWidth, err := e.Width.Resolve(md.Width)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", rel, err)
	}
	height, hasHeight, err := e.Height.Resolve(md.Height)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", rel, err)
	}

	if e.WithoutEnlargement && ((hasWidth && width > md.Width) || (hasHeight && height > md.Height)) {
		enl := &errs.EnlargementError{File: rel, Width: md.Width, Height: md.Height}
		if hasWidth {
			enl.RequestedWidth = width
		}
		if hasHeight {
			enl.RequestedHeight = height
		}
		switch {
		case r.ErrorOnEnlargement:
			return nil, enl
		case e.SkipOnEnlargement:
			r.log().Info("skip for enlargement", "file", rel, "config", e.Name)
			return nil, nil
		default:
			r.log().Warn("image enlargement is detected", "file", rel, "config", e.Name,
				"width", md.Width, "height", md.Height, "requestedWidth", width, "requestedHeight", height)
		}
	}

	format, ext := FormatFromPath(dst), ""
	if e.Format != "" {
		format, ext, err = e.outputFormat()
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", rel, err)
		}
	} else if format == FormatUnsupported {
		return nil, errs.New(errs.ErrCodeUnsupportedFormat,
			"file %q: cannot determine output format for %q", rel, filepath.Base(dst))
	}

	ops := Operations(e, width, height, format)
	data, err := r.Transformer.Render(ctx, file.Contents, ops)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRender, err, "file %q", rel)
	}

	out := file.With(dst, data)
	if ext != "" && FormatFromPath(dst) != format {
		out.SetExt(ext)
	}
	r.log().Info("created variant", "file", rel, "variant", out.Relative(), "config", e.Name)
	return out, nil
}

func (r *Renderer) log() *log.Logger {
	if r.Silent || r.Logger == nil {
		return discard
	}
	return r.Logger
}

// Operations builds the operation list for an entry whose sizes resolved to
// width and height (zero when unset). Fit-mode resizes follow the base
// resize in crop, embed, max, min order; the last one wins.
func Operations(e Entry, width, height int, format Format) []transform.Operation {
	var ops []transform.Operation

	if r := e.ExtractBeforeResize; r != nil {
		ops = append(ops, transform.Extract(*r))
	}

	resize := transform.Resize{
		Width:              width,
		Height:             height,
		Background:         e.Background,
		Kernel:             e.Kernel,
		WithoutEnlargement: e.WithoutEnlargement,
	}
	base := resize
	if e.IgnoreAspectRatio {
		base.Fit = transform.FitFill
	}
	ops = append(ops, base)

	if r := e.ExtractAfterResize; r != nil {
		ops = append(ops, transform.Extract(*r))
	}

	fitted := func(fit transform.Fit, position string) transform.Resize {
		r := resize
		r.Fit, r.Position = fit, position
		return r
	}
	if e.Crop != "" {
		ops = append(ops, fitted(transform.FitCover, string(e.Crop)))
	}
	if e.Embed {
		ops = append(ops, fitted(transform.FitContain, ""))
	}
	if e.Max {
		ops = append(ops, fitted(transform.FitInside, ""))
	}
	if e.Min {
		ops = append(ops, fitted(transform.FitOutside, ""))
	}

	if e.Flatten {
		ops = append(ops, transform.Flatten{Background: e.Background})
	}
	if e.Negate {
		ops = append(ops, transform.Negate{})
	}
	if e.Trim > 0 {
		ops = append(ops, transform.Trim{Threshold: e.Trim})
	}
	if e.Rotate.On {
		ops = append(ops, transform.Rotate{
			Angle:      e.Rotate.Value,
			Auto:       !e.Rotate.HasValue,
			Background: e.Background,
		})
	}
	if e.Flip {
		ops = append(ops, transform.Flip{})
	}
	if e.Flop {
		ops = append(ops, transform.Flop{})
	}
	if e.Blur.On {
		ops = append(ops, transform.Blur{Sigma: e.Blur.Value})
	}
	if s := e.Sharpen; s.On {
		ops = append(ops, transform.Sharpen{Sigma: s.Sigma, Flat: s.Flat, Jagged: s.Jagged})
	}
	if e.Threshold > 0 {
		ops = append(ops, transform.Threshold{Level: e.Threshold})
	}
	if e.Gamma.On {
		ops = append(ops, transform.Gamma{Gamma: e.Gamma.Value})
	}
	if e.Grayscale {
		ops = append(ops, transform.Grayscale{})
	}
	if e.Normalize {
		ops = append(ops, transform.Normalize{})
	}
	if e.WithMetadata {
		ops = append(ops, transform.KeepMetadata{})
	}
	if t := e.Tile; t.On {
		ops = append(ops, transform.Tile{Size: t.Size, Overlap: t.Overlap})
	}

	chroma := e.ChromaSubsampling
	if e.WithoutChromaSubsampling {
		chroma = "4:4:4"
	}
	return append(ops, transform.Encode{
		Format:            format,
		Quality:           e.Quality,
		Progressive:       e.Progressive,
		CompressionLevel:  e.CompressionLevel,
		ChromaSubsampling: chroma,
	})
}
