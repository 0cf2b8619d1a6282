package transform

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

const (
	defaultQuality = 80
	defaultGamma   = 2.2
	mildBlurSigma  = 0.8
	mildSharpSigma = 0.5
)

// Imaging is a Transformer built on disintegration/imaging.
// It decodes jpeg, png, gif, webp, tiff and bmp and encodes every Format.
// Webp encoding goes through go-webp, which binds libwebp with cgo.
//
// Limitations: Tile is rejected, KeepMetadata is ignored (the encoders
// write no metadata), entropy and attention positions fall back to centre,
// and jpeg progressive and chroma subsampling settings are ignored.
type Imaging struct{}

// NewImaging returns the imaging backend.
func NewImaging() *Imaging {
	return &Imaging{}
}

// Metadata decodes the image header only.
func (t *Imaging) Metadata(ctx context.Context, data []byte) (Metadata, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, errs.Wrap(errs.ErrCodeUnsupportedInput, err, "decode image header")
	}
	format, _ := ParseFormat(name)
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Render decodes data, replays ops and encodes the result.
func (t *Imaging) Render(ctx context.Context, data []byte, ops []Operation) ([]byte, error) {
	if len(ops) == 0 {
		return nil, errs.New(errs.ErrCodeRender, "empty operation list")
	}
	enc, ok := ops[len(ops)-1].(Encode)
	if !ok {
		return nil, errs.New(errs.ErrCodeRender, "operation list must end with encode, got %s", ops[len(ops)-1].Op())
	}

	p := plan(ops[:len(ops)-1])
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(p.autoOrient))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUnsupportedInput, err, "decode image")
	}

	for _, op := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if img, err = apply(img, op); err != nil {
			return nil, err
		}
	}
	return encode(img, enc)
}

// gammaAdjust is an internal step emitted around the effective resize.
type gammaAdjust struct{ gamma float64 }

func (gammaAdjust) Op() string { return "gamma" }

type renderPlan struct {
	steps      []Operation
	autoOrient bool
}

// plan resolves the effective resize and gamma handling into a flat list
// of steps.
func plan(ops []Operation) renderPlan {
	var (
		p         renderPlan
		effective *Resize
		gamma     float64
	)
	for _, op := range ops {
		switch o := op.(type) {
		case Resize:
			r := o
			effective = &r
		case Gamma:
			gamma = o.Gamma
			if gamma == 0 {
				gamma = defaultGamma
			}
		}
	}

	placed := false
	for _, op := range ops {
		switch o := op.(type) {
		case Resize:
			if placed {
				continue
			}
			placed = true
			if gamma > 0 {
				p.steps = append(p.steps, gammaAdjust{1 / gamma})
			}
			p.steps = append(p.steps, *effective)
			if gamma > 0 {
				p.steps = append(p.steps, gammaAdjust{gamma})
			}
		case Gamma:
		case Rotate:
			if o.Auto {
				p.autoOrient = true
				continue
			}
			p.steps = append(p.steps, o)
		default:
			p.steps = append(p.steps, op)
		}
	}
	return p
}

func apply(img image.Image, op Operation) (image.Image, error) {
	switch o := op.(type) {
	case Extract:
		return extract(img, o)
	case Resize:
		return resize(img, o)
	case gammaAdjust:
		return imaging.AdjustGamma(img, o.gamma), nil
	case Flatten:
		bg, err := parseColor(o.Background)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), bg), img, image.Pt(0, 0), 1.0), nil
	case Negate:
		return imaging.Invert(img), nil
	case Trim:
		return trim(img, o.Threshold), nil
	case Rotate:
		bg, err := parseColor(o.Background)
		if err != nil {
			return nil, err
		}
		// imaging rotates counter-clockwise.
		return imaging.Rotate(img, -o.Angle, bg), nil
	case Flip:
		return imaging.FlipV(img), nil
	case Flop:
		return imaging.FlipH(img), nil
	case Blur:
		sigma := o.Sigma
		if sigma <= 0 {
			sigma = mildBlurSigma
		}
		return imaging.Blur(img, sigma), nil
	case Sharpen:
		sigma := o.Sigma
		if sigma <= 0 {
			sigma = mildSharpSigma
		}
		return imaging.Sharpen(img, sigma), nil
	case Threshold:
		return threshold(img, o.Level), nil
	case Grayscale:
		return imaging.Grayscale(img), nil
	case Normalize:
		return normalize(img), nil
	case KeepMetadata:
		return img, nil
	case Tile:
		return nil, errs.New(errs.ErrCodeRender, "tiled output is not supported by the imaging backend")
	case Encode:
		return nil, errs.New(errs.ErrCodeRender, "encode must be the last operation")
	}
	return nil, errs.New(errs.ErrCodeRender, "unknown operation %q", op.Op())
}

func extract(img image.Image, e Extract) (image.Image, error) {
	b := img.Bounds()
	r := image.Rect(e.Left, e.Top, e.Left+e.Width, e.Top+e.Height).Add(b.Min)
	if e.Width <= 0 || e.Height <= 0 || e.Left < 0 || e.Top < 0 || !r.In(b) {
		return nil, errs.New(errs.ErrCodeRender, "extract area %dx%d+%d+%d is outside the %dx%d image",
			e.Width, e.Height, e.Left, e.Top, b.Dx(), b.Dy())
	}
	return imaging.Crop(img, r), nil
}

func resize(img image.Image, r Resize) (image.Image, error) {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if (r.Width <= 0 && r.Height <= 0) || sw == 0 || sh == 0 {
		return img, nil
	}
	filter := kernel(r.Kernel)
	w, h := r.Width, r.Height

	if w <= 0 || h <= 0 {
		if w <= 0 {
			w = scale(sw, float64(h)/float64(sh))
		} else {
			h = scale(sh, float64(w)/float64(sw))
		}
		if r.WithoutEnlargement && (w > sw || h > sh) {
			return img, nil
		}
		return imaging.Resize(img, w, h, filter), nil
	}

	if r.WithoutEnlargement && (w > sw || h > sh) {
		return img, nil
	}

	fx, fy := float64(w)/float64(sw), float64(h)/float64(sh)
	switch r.Fit {
	case FitFill:
		return imaging.Resize(img, w, h, filter), nil
	case FitInside:
		f := math.Min(fx, fy)
		return imaging.Resize(img, scale(sw, f), scale(sh, f), filter), nil
	case FitOutside:
		f := math.Max(fx, fy)
		return imaging.Resize(img, scale(sw, f), scale(sh, f), filter), nil
	case FitContain:
		bg, err := parseColor(r.Background)
		if err != nil {
			return nil, err
		}
		f := math.Min(fx, fy)
		inner := imaging.Resize(img, scale(sw, f), scale(sh, f), filter)
		return imaging.PasteCenter(imaging.New(w, h, bg), inner), nil
	default:
		return imaging.Fill(img, w, h, anchor(r.Position), filter), nil
	}
}

func scale(n int, f float64) int {
	return max(1, int(math.Round(float64(n)*f)))
}

func kernel(name string) imaging.ResampleFilter {
	switch name {
	case KernelNearest:
		return imaging.NearestNeighbor
	case KernelCubic:
		return imaging.CatmullRom
	case KernelMitchell:
		return imaging.MitchellNetravali
	default:
		return imaging.Lanczos
	}
}

var anchors = map[string]imaging.Anchor{
	"centre":       imaging.Center,
	"center":       imaging.Center,
	"north":        imaging.Top,
	"top":          imaging.Top,
	"northeast":    imaging.TopRight,
	"right top":    imaging.TopRight,
	"east":         imaging.Right,
	"right":        imaging.Right,
	"southeast":    imaging.BottomRight,
	"right bottom": imaging.BottomRight,
	"south":        imaging.Bottom,
	"bottom":       imaging.Bottom,
	"southwest":    imaging.BottomLeft,
	"left bottom":  imaging.BottomLeft,
	"west":         imaging.Left,
	"left":         imaging.Left,
	"northwest":    imaging.TopLeft,
	"left top":     imaging.TopLeft,
}

// anchor maps a crop position to an imaging anchor. Content-aware
// strategies fall back to centre.
func anchor(position string) imaging.Anchor {
	if a, ok := anchors[strings.ToLower(position)]; ok {
		return a
	}
	return imaging.Center
}

func trim(img image.Image, threshold float64) image.Image {
	src := imaging.Clone(img)
	b := src.Bounds()
	ref := src.NRGBAAt(0, 0)
	minX, minY, maxX, maxY := b.Dx(), b.Dy(), -1, -1
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if !differs(src.NRGBAAt(x, y), ref, threshold) {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < 0 {
		return src
	}
	return imaging.Crop(src, image.Rect(minX, minY, maxX+1, maxY+1))
}

func differs(a, b color.NRGBA, threshold float64) bool {
	d := func(x, y uint8) float64 { return math.Abs(float64(x) - float64(y)) }
	return d(a.R, b.R) > threshold || d(a.G, b.G) > threshold ||
		d(a.B, b.B) > threshold || d(a.A, b.A) > threshold
}

func threshold(img image.Image, level int) *image.NRGBA {
	return imaging.AdjustFunc(imaging.Grayscale(img), func(c color.NRGBA) color.NRGBA {
		var v uint8
		if int(c.R) >= level {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func normalize(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(src.Pix); i += 4 {
		if src.Pix[i+3] == 0 {
			continue
		}
		for _, v := range src.Pix[i : i+3] {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if hi <= lo {
		return src
	}
	span := float64(hi - lo)
	stretch := func(v uint8) uint8 {
		return uint8(math.Round(float64(max(v, lo)-lo) * 255 / span))
	}
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

func encode(img image.Image, e Encode) ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	switch e.Format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(e.CompressionLevel)))
	case FormatWebP:
		var opts *encoder.Options
		if opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality)); err == nil {
			err = webp.Encode(&buf, img, opts)
		}
	case FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case FormatTIFF:
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case FormatBMP:
		err = imaging.Encode(&buf, img, imaging.BMP)
	default:
		return nil, errs.New(errs.ErrCodeUnsupportedFormat, "unsupported output format %q", e.Format)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRender, err, "encode %s", e.Format)
	}
	return buf.Bytes(), nil
}

// pngLevel maps a zlib level (0-9) to the levels the png encoder offers.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

var _ Transformer = (*Imaging)(nil)
