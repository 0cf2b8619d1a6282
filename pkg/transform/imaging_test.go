package transform

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// testPNG returns a w×h opaque white PNG.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return encodePNG(t, img)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func dims(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return cfg.Width, cfg.Height, format
}

func TestImagingMetadata(t *testing.T) {
	ctx := context.Background()
	tr := NewImaging()

	md, err := tr.Metadata(ctx, testPNG(t, 40, 20))
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if md.Width != 40 || md.Height != 20 || md.Format != FormatPNG {
		t.Errorf("Metadata() = %+v, want 40x20 png", md)
	}

	_, err = tr.Metadata(ctx, []byte("not an image"))
	if !errs.Is(err, errs.ErrCodeUnsupportedInput) {
		t.Errorf("Metadata(garbage) error = %v, want code %s", err, errs.ErrCodeUnsupportedInput)
	}
}

func TestImagingResize(t *testing.T) {
	src := testPNG(t, 40, 20)
	enc := Encode{Format: FormatPNG, CompressionLevel: 6}

	tests := []struct {
		name          string
		ops           []Operation
		width, height int
	}{
		{"width only", []Operation{Resize{Width: 20}, enc}, 20, 10},
		{"height only", []Operation{Resize{Height: 10}, enc}, 20, 10},
		{"no size", []Operation{Resize{}, enc}, 40, 20},
		{"cover", []Operation{Resize{Width: 10, Height: 10, Fit: FitCover, Position: "north"}, enc}, 10, 10},
		{"contain", []Operation{Resize{Width: 30, Height: 30, Fit: FitContain, Background: "#fff"}, enc}, 30, 30},
		{"inside", []Operation{Resize{Width: 20, Height: 20, Fit: FitInside}, enc}, 20, 10},
		{"outside", []Operation{Resize{Width: 20, Height: 20, Fit: FitOutside}, enc}, 40, 20},
		{"fill", []Operation{Resize{Width: 15, Height: 15, Fit: FitFill}, enc}, 15, 15},
		{"without enlargement", []Operation{Resize{Width: 80, WithoutEnlargement: true}, enc}, 40, 20},
		{"enlargement allowed", []Operation{Resize{Width: 80}, enc}, 80, 40},
		{"last resize wins", []Operation{
			Resize{Width: 20},
			Resize{Width: 10, Height: 10, Fit: FitCover},
			Resize{Width: 30, Height: 30, Fit: FitContain},
			enc,
		}, 30, 30},
		{"extract before resize", []Operation{Extract{Width: 10, Height: 10}, Resize{Width: 5}, enc}, 5, 5},
		{"extract after resize", []Operation{Resize{Width: 20}, Extract{Left: 2, Top: 2, Width: 5, Height: 4}, enc}, 5, 4},
		{"rotate", []Operation{Rotate{Angle: 90}, enc}, 20, 40},
		{"auto rotate", []Operation{Rotate{Auto: true}, enc}, 40, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewImaging().Render(context.Background(), src, tt.ops)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			w, h, format := dims(t, out)
			if w != tt.width || h != tt.height {
				t.Errorf("Render() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
			if format != "png" {
				t.Errorf("format = %s, want png", format)
			}
		})
	}
}

func TestImagingEncodeJPEG(t *testing.T) {
	out, err := NewImaging().Render(context.Background(), testPNG(t, 8, 8),
		[]Operation{Sharpen{}, Encode{Format: FormatJPEG, Quality: 70}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, _, format := dims(t, out); format != "jpeg" {
		t.Errorf("format = %s, want jpeg", format)
	}
}

func TestImagingErrors(t *testing.T) {
	src := testPNG(t, 10, 10)
	tests := []struct {
		name string
		ops  []Operation
		code errs.Code
	}{
		{"empty", nil, errs.ErrCodeRender},
		{"no encode", []Operation{Negate{}}, errs.ErrCodeRender},
		{"tile", []Operation{Tile{Size: 256}, Encode{Format: FormatPNG}}, errs.ErrCodeRender},
		{"extract out of bounds", []Operation{Extract{Left: 5, Top: 5, Width: 10, Height: 10}, Encode{Format: FormatPNG}}, errs.ErrCodeRender},
		{"unsupported format", []Operation{Encode{Format: "avif"}}, errs.ErrCodeUnsupportedFormat},
		{"bad background", []Operation{Flatten{Background: "#zzz"}, Encode{Format: FormatPNG}}, errs.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImaging().Render(context.Background(), src, tt.ops)
			if !errs.Is(err, tt.code) {
				t.Errorf("Render() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestImagingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImaging().Render(ctx, testPNG(t, 10, 10), []Operation{Negate{}, Encode{Format: FormatPNG}})
	if err != context.Canceled {
		t.Errorf("Render() error = %v, want %v", err, context.Canceled)
	}
}

func TestTrim(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x >= 10 && x < 14 && y >= 5 && y < 9 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	out, err := NewImaging().Render(context.Background(), encodePNG(t, img),
		[]Operation{Trim{Threshold: 10}, Encode{Format: FormatPNG}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h, _ := dims(t, out); w != 4 || h != 4 {
		t.Errorf("trimmed size = %dx%d, want 4x4", w, h)
	}
}

func TestThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{100, 100, 100, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 200, 200, 255})

	out := threshold(img, 128)
	if got := out.NRGBAAt(0, 0); got.R != 0 {
		t.Errorf("dark pixel = %v, want black", got)
	}
	if got := out.NRGBAAt(1, 0); got.R != 255 {
		t.Errorf("light pixel = %v, want white", got)
	}
}

func TestNormalize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{50, 50, 50, 255})
	img.SetNRGBA(1, 0, color.NRGBA{150, 150, 150, 255})

	out := normalize(img)
	if got := out.NRGBAAt(0, 0); got.R != 0 {
		t.Errorf("darkest pixel = %v, want 0", got)
	}
	if got := out.NRGBAAt(1, 0); got.R != 255 {
		t.Errorf("lightest pixel = %v, want 255", got)
	}
}

func TestPlan(t *testing.T) {
	p := plan([]Operation{
		Extract{Width: 1, Height: 1},
		Resize{Width: 10},
		Extract{Width: 1, Height: 1},
		Resize{Width: 20, Fit: FitInside},
		Rotate{Auto: true},
		Gamma{},
		Grayscale{},
	})

	if !p.autoOrient {
		t.Error("autoOrient = false, want true")
	}
	want := []string{"extract", "gamma", "resize", "gamma", "extract", "grayscale"}
	if got := Describe(p.steps); len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("steps[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	}
	if r := p.steps[2].(Resize); r.Width != 20 || r.Fit != FitInside {
		t.Errorf("effective resize = %+v, want the last one", r)
	}
	if g := p.steps[1].(gammaAdjust); g.gamma != 1/defaultGamma {
		t.Errorf("pre gamma = %v, want %v", g.gamma, 1/defaultGamma)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#000000", color.NRGBA{0, 0, 0, 255}, false},
		{"#ff000080", color.NRGBA{255, 0, 0, 128}, false},
		{"white", color.NRGBA{255, 255, 255, 255}, false},
		{"transparent", color.NRGBA{}, false},
		{"", color.NRGBA{0, 0, 0, 255}, false},
		{"#ggg", color.NRGBA{}, true},
		{"red-ish", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"jpg", FormatJPEG},
		{"JPEG", FormatJPEG},
		{"jpe", FormatJPEG},
		{"png", FormatPNG},
		{"webp", FormatWebP},
		{"tif", FormatTIFF},
	}
	for _, tt := range tests {
		if got, err := ParseFormat(tt.in); err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("heic"); !errs.Is(err, errs.ErrCodeUnsupportedFormat) {
		t.Errorf("ParseFormat(heic) error = %v, want %s", err, errs.ErrCodeUnsupportedFormat)
	}
}
