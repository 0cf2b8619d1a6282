package responsive

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/transform"
)

func entry(name string, mod func(*Entry)) Entry {
	e := DefaultEntry()
	e.Name = name
	e.Sharpen = SharpenSpec{}
	if mod != nil {
		mod(&e)
	}
	return e
}

func TestOperationsOrder(t *testing.T) {
	e := entry("*.png", func(e *Entry) {
		e.ExtractBeforeResize = &Region{Width: 10, Height: 10}
		e.ExtractAfterResize = &Region{Left: 1, Width: 5, Height: 5}
		e.Crop = "north"
		e.Embed = true
		e.Max = true
		e.Min = true
		e.Flatten = true
		e.Negate = true
		e.Trim = 10
		e.Rotate = Value(90)
		e.Flip = true
		e.Flop = true
		e.Blur = On()
		e.Sharpen = SharpenSpec{On: true}
		e.Threshold = 128
		e.Gamma = On()
		e.Grayscale = true
		e.Normalize = true
		e.WithMetadata = true
		e.Tile = TileSpec{On: true}
	})

	want := []string{
		"extract", "resize", "extract",
		"resize", "resize", "resize", "resize",
		"flatten", "negate", "trim", "rotate", "flip", "flop", "blur", "sharpen",
		"threshold", "gamma", "grayscale", "normalize", "metadata", "tile", "encode",
	}
	ops := Operations(e, 100, 50, FormatPNG)
	if diff := cmp.Diff(want, transform.Describe(ops)); diff != "" {
		t.Errorf("Operations() mismatch (-want +got):\n%s", diff)
	}

	fits := []transform.Fit{"", transform.FitCover, transform.FitContain, transform.FitInside, transform.FitOutside}
	var got []transform.Fit
	for _, op := range ops {
		if r, ok := op.(transform.Resize); ok {
			got = append(got, r.Fit)
			if r.Width != 100 || r.Height != 50 {
				t.Errorf("Resize = %+v, want 100x50", r)
			}
		}
	}
	if !reflect.DeepEqual(got, fits) {
		t.Errorf("fits = %v, want %v", got, fits)
	}
	if pos := ops[3].(transform.Resize).Position; pos != "north" {
		t.Errorf("crop position = %q, want north", pos)
	}
}

func TestOperationsMinimal(t *testing.T) {
	ops := Operations(entry("a.jpg", nil), 0, 0, FormatJPEG)
	want := []transform.Operation{
		transform.Resize{Background: "#fff", Kernel: "lanczos3", WithoutEnlargement: true},
		transform.Encode{Format: FormatJPEG, Quality: 80, CompressionLevel: 6},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("Operations() mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationsOptions(t *testing.T) {
	t.Run("ignore aspect ratio", func(t *testing.T) {
		ops := Operations(entry("a", func(e *Entry) { e.IgnoreAspectRatio = true }), 10, 10, FormatPNG)
		if fit := ops[0].(transform.Resize).Fit; fit != transform.FitFill {
			t.Errorf("Fit = %q, want %q", fit, transform.FitFill)
		}
	})

	t.Run("auto rotate", func(t *testing.T) {
		ops := Operations(entry("a", func(e *Entry) { e.Rotate = On() }), 0, 0, FormatPNG)
		if r := ops[1].(transform.Rotate); !r.Auto {
			t.Errorf("Rotate = %+v, want Auto", r)
		}
	})

	t.Run("without chroma subsampling", func(t *testing.T) {
		ops := Operations(entry("a", func(e *Entry) {
			e.ChromaSubsampling = "4:2:0"
			e.WithoutChromaSubsampling = true
		}), 0, 0, FormatJPEG)
		if enc := ops[len(ops)-1].(transform.Encode); enc.ChromaSubsampling != "4:4:4" {
			t.Errorf("ChromaSubsampling = %q, want 4:4:4", enc.ChromaSubsampling)
		}
	})

	t.Run("chroma subsampling", func(t *testing.T) {
		ops := Operations(entry("a", func(e *Entry) { e.ChromaSubsampling = "4:2:0" }), 0, 0, FormatJPEG)
		if enc := ops[len(ops)-1].(transform.Encode); enc.ChromaSubsampling != "4:2:0" {
			t.Errorf("ChromaSubsampling = %q, want 4:2:0", enc.ChromaSubsampling)
		}
	})
}

func TestRendererEnlargement(t *testing.T) {
	ctx := context.Background()
	wide := func(skip bool) Entry {
		return entry("*.png", func(e *Entry) {
			e.Width = "200"
			e.SkipOnEnlargement = skip
		})
	}

	t.Run("error", func(t *testing.T) {
		fake := &fakeTransformer{width: 100, height: 100}
		r := &Renderer{Transformer: fake, ErrorOnEnlargement: true}
		_, err := r.Render(ctx, newFile("a.png"), wide(false))

		var enl *errs.EnlargementError
		if !errors.As(err, &enl) {
			t.Fatalf("Render() error = %v, want EnlargementError", err)
		}
		if enl.File != "a.png" || enl.Width != 100 || enl.RequestedWidth != 200 || enl.RequestedHeight != 0 {
			t.Errorf("EnlargementError = %+v", enl)
		}
		if fake.renders() != 0 {
			t.Errorf("renders = %d, want 0", fake.renders())
		}
	})

	t.Run("skip", func(t *testing.T) {
		fake := &fakeTransformer{width: 100, height: 100}
		r := &Renderer{Transformer: fake}
		out, err := r.Render(ctx, newFile("a.png"), wide(true))
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if out != nil {
			t.Errorf("Render() = %v, want nil", out)
		}
	})

	t.Run("warn and render", func(t *testing.T) {
		fake := &fakeTransformer{width: 100, height: 100}
		r := &Renderer{Transformer: fake}
		out, err := r.Render(ctx, newFile("a.png"), wide(false))
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if string(out.Contents) != "png 200x0" {
			t.Errorf("Contents = %q, want %q", out.Contents, "png 200x0")
		}
	})

	t.Run("enlargement allowed", func(t *testing.T) {
		fake := &fakeTransformer{width: 100, height: 100}
		r := &Renderer{Transformer: fake, ErrorOnEnlargement: true}
		e := wide(false)
		e.WithoutEnlargement = false
		if _, err := r.Render(ctx, newFile("a.png"), e); err != nil {
			t.Errorf("Render() error = %v, want nil", err)
		}
	})

	t.Run("height only", func(t *testing.T) {
		fake := &fakeTransformer{width: 100, height: 50}
		r := &Renderer{Transformer: fake, ErrorOnEnlargement: true}
		e := entry("*.png", func(e *Entry) { e.Width, e.Height = "50%", "80" })
		_, err := r.Render(ctx, newFile("a.png"), e)
		var enl *errs.EnlargementError
		if !errors.As(err, &enl) {
			t.Fatalf("Render() error = %v, want EnlargementError", err)
		}
		if enl.RequestedWidth != 50 || enl.RequestedHeight != 80 {
			t.Errorf("EnlargementError = %+v, want requested 50x80", enl)
		}
	})
}

func TestRendererOutputPath(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		src      string
		mod      func(*Entry)
		wantRel  string
		wantBody string
	}{
		{"same format", "img/a.png", nil, "img/a.png", "png 0x0"},
		{"jpg keeps extension", "a.jpg", nil, "a.jpg", "jpeg 0x0"},
		{"explicit format", "img/a.png", func(e *Entry) { e.Format = "webp" }, "img/a.webp", "webp 0x0"},
		{"explicit alias", "a.png", func(e *Entry) { e.Format = "JPG" }, "a.jpg", "jpeg 0x0"},
		{"explicit matching extension", "a.jpg", func(e *Entry) { e.Format = "jpeg" }, "a.jpg", "jpeg 0x0"},
		{"rename", "img/a.png", func(e *Entry) { e.Rename = &RenameSpec{Suffix: "@2x"} }, "img/a@2x.png", "png 0x0"},
		{"rename then format", "a.png", func(e *Entry) {
			e.Rename = RenameTo("thumbs/{basename}{extname}")
			e.Format = "webp"
		}, "thumbs/a.webp", "webp 0x0"},
		{"renamed extension picks format", "a.png", func(e *Entry) { e.Rename = RenameTo("a.jpeg") }, "a.jpeg", "jpeg 0x0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Renderer{Transformer: &fakeTransformer{width: 10, height: 10}}
			src := newFile(tt.src)
			out, err := r.Render(ctx, src, entry("*", tt.mod))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got := out.Relative(); got != tt.wantRel {
				t.Errorf("Relative() = %q, want %q", got, tt.wantRel)
			}
			if string(out.Contents) != tt.wantBody {
				t.Errorf("Contents = %q, want %q", out.Contents, tt.wantBody)
			}
			if out == src || string(src.Contents) != "source" || src.Relative() != tt.src {
				t.Error("source file was modified")
			}
		})
	}
}

func TestRendererErrors(t *testing.T) {
	ctx := context.Background()
	backend := errors.New("backend exploded")

	tests := []struct {
		name string
		fake *fakeTransformer
		src  string
		mod  func(*Entry)
		code errs.Code
	}{
		{"metadata failure", &fakeTransformer{metaErr: backend}, "a.png", nil, errs.ErrCodeRender},
		{"render failure", &fakeTransformer{renderErr: backend}, "a.png", nil, errs.ErrCodeRender},
		{"bad size", &fakeTransformer{}, "a.png", func(e *Entry) { e.Width = "wide" }, errs.ErrCodeInvalidSizeSpec},
		{"unsupported format", &fakeTransformer{}, "a.svg", nil, errs.ErrCodeUnsupportedFormat},
		{"rename escapes", &fakeTransformer{}, "a.png", func(e *Entry) { e.Rename = RenameTo("../a.png") }, errs.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Renderer{Transformer: tt.fake}
			_, err := r.Render(ctx, newFile(tt.src), entry("*", tt.mod))
			if err == nil {
				t.Fatal("Render() error = nil, want error")
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v (%v)", got, tt.code, err)
			}
		})
	}

	t.Run("render error carries path and cause", func(t *testing.T) {
		r := &Renderer{Transformer: &fakeTransformer{renderErr: backend}}
		_, err := r.Render(ctx, newFile("img/a.png"), entry("*", nil))
		if !errors.Is(err, backend) {
			t.Errorf("errors.Is(err, backend) = false, want true")
		}
		want := `RENDER: file "img/a.png": backend exploded`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}
