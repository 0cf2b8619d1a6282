package svg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os/exec"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/matzehuels/imgflow/pkg/transform"
)

// Rasterizer renders SVG documents to raster images.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, req Request) ([]byte, error)
}

// Request describes one rasterization.
type Request struct {
	Width   int
	Height  int
	Format  transform.Format // png or jpeg
	Quality int              // jpeg quality, 0 for the encoder default
}

// CanvasRasterizer renders in process with tdewolff/canvas.
type CanvasRasterizer struct{}

// NewCanvasRasterizer returns the default pure Go rasterizer.
func NewCanvasRasterizer() *CanvasRasterizer {
	return &CanvasRasterizer{}
}

// Rasterize parses svg and draws it at exactly req.Width x req.Height.
func (CanvasRasterizer) Rasterize(ctx context.Context, svg []byte, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := canvas.ParseSVG(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if c.W <= 0 || c.H <= 0 {
		return nil, fmt.Errorf("svg has no drawable area")
	}

	img := image.Image(rasterizer.Draw(c, canvas.Resolution(float64(req.Width)/c.W), canvas.DefaultColorSpace))
	if b := img.Bounds(); b.Dx() != req.Width || b.Dy() != req.Height {
		img = imaging.Resize(img, req.Width, req.Height, imaging.Lanczos)
	}
	return encodeRaster(img, req)
}

// RsvgRasterizer shells out to rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RsvgRasterizer struct {
	Binary string // defaults to rsvg-convert
}

// Rasterize converts svg to png with rsvg-convert and re-encodes when
// another format is requested.
func (r RsvgRasterizer) Rasterize(ctx context.Context, svg []byte, req Request) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "rsvg-convert"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("rasterizing requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	args := []string{"-f", "png", "-w", strconv.Itoa(req.Width), "-h", strconv.Itoa(req.Height)}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	if req.Format == transform.FormatPNG {
		return out.Bytes(), nil
	}

	img, err := imaging.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode rsvg-convert output: %w", err)
	}
	return encodeRaster(img, req)
}

func encodeRaster(img image.Image, req Request) ([]byte, error) {
	var buf bytes.Buffer
	switch req.Format {
	case transform.FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	case transform.FormatJPEG:
		// JPEG has no alpha channel; composite onto white.
		b := img.Bounds()
		flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
		var opts []imaging.EncodeOption
		if req.Quality > 0 {
			opts = append(opts, imaging.JPEGQuality(req.Quality))
		}
		if err := imaging.Encode(&buf, flat, imaging.JPEG, opts...); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot rasterize to %q", req.Format)
	}
	return buf.Bytes(), nil
}

var (
	_ Rasterizer = CanvasRasterizer{}
	_ Rasterizer = RsvgRasterizer{}
)
