package svg

import (
	"testing"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

func TestDimension(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		mode Mode
		want Dimensions
	}{
		{"width and height", `<svg width="120" height="60"/>`, ModeAuto, Dimensions{120, 60}},
		{"units", `<svg width="120px" height="4.5em"/>`, ModeAuto, Dimensions{120, 4.5}},
		{"viewBox fallback", `<svg viewBox="0 0 40 30" width="10"/>`, ModeAuto, Dimensions{40, 30}},
		{"viewBox with offset", `<svg viewBox="10 10 40 30"/>`, ModeAuto, Dimensions{40, 30}},
		{"viewBox commas", `<svg viewBox="0,0,8,6"/>`, ModeViewBox, Dimensions{8, 6}},
		{"forced viewBox", `<svg width="1" height="2" viewBox="0 0 8 6"/>`, ModeViewBox, Dimensions{8, 6}},
		{"forced width and height", `<svg width="1" viewBox="0 0 8 6"/>`, ModeWidthAndHeight, Dimensions{1, 0}},
		{"percent is unknown", `<svg width="100%" height="50%"/>`, ModeAuto, Dimensions{}},
		{"nothing", `<svg/>`, ModeAuto, Dimensions{}},
		{"prolog", `<?xml version="1.0"?><!-- c --><svg xmlns="http://www.w3.org/2000/svg" width="3" height="4"></svg>`, ModeAuto, Dimensions{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dimension([]byte(tt.doc), tt.mode)
			if err != nil {
				t.Fatalf("Dimension() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Dimension() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDimensionErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		mode Mode
	}{
		{"not svg", `<html/>`, ModeAuto},
		{"empty", ``, ModeAuto},
		{"bad mode", `<svg/>`, Mode("diagonal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Dimension([]byte(tt.doc), tt.mode)
			if !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("Dimension() error = %v, want %v", err, errs.ErrCodeInvalidInput)
			}
		})
	}
}

func TestConvertSize(t *testing.T) {
	doc := Dimensions{Width: 200, Height: 100}

	tests := []struct {
		name   string
		opts   ConvertOptions
		dims   Dimensions
		wantW  int
		wantH  int
		hasErr bool
	}{
		{"defaults", DefaultConvertOptions(), doc, 100, 50, false},
		{"height only", ConvertOptions{Height: 30, Scale: 1, PreserveAspectRatio: true}, doc, 60, 30, false},
		{"scaled", ConvertOptions{Width: 100, Scale: 2, PreserveAspectRatio: true}, doc, 200, 100, false},
		{"both given", ConvertOptions{Width: 10, Height: 10, PreserveAspectRatio: true}, doc, 10, 10, false},
		{"no aspect keeps document height", ConvertOptions{Width: 10}, doc, 10, 100, false},
		{"document size", ConvertOptions{}, doc, 200, 100, false},
		{"unknown document", ConvertOptions{Width: 10, PreserveAspectRatio: true}, Dimensions{}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := tt.opts.Size(tt.dims)
			if (err != nil) != tt.hasErr {
				t.Fatalf("Size() error = %v, wantErr %v", err, tt.hasErr)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Size() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
