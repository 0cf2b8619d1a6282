package responsive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func patternsOf(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name+"="+string(e.Width))
	}
	return out
}

func TestLoadConfigTOMLMap(t *testing.T) {
	path := writeConfig(t, "responsive.toml", `
[defaults]
quality = 85

[images."b.png"]
width = "50%"
rename = { suffix = "-half" }

[[images."hero-*.jpg"]]
width = 1600

[[images."hero-*.jpg"]]
width = 800
crop = "north"

[images."a.png"]
width = 10
sharpen = false
`)

	cfg, defaults, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Shape != ShapeMapOfLists {
		t.Errorf("Shape = %v, want %v", cfg.Shape, ShapeMapOfLists)
	}
	if defaults.Quality == nil || *defaults.Quality != 85 {
		t.Errorf("defaults.Quality = %v, want 85", defaults.Quality)
	}

	entries, err := Normalize(cfg, defaults)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []string{"b.png=50%", "hero-*.jpg=1600", "hero-*.jpg=800", "a.png=10"}
	if diff := cmp.Diff(want, patternsOf(entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if entries[0].Rename == nil || entries[0].Rename.Suffix != "-half" {
		t.Errorf("entries[0].Rename = %+v, want suffix -half", entries[0].Rename)
	}
	if entries[2].Crop != "north" {
		t.Errorf("entries[2].Crop = %q, want north", entries[2].Crop)
	}
	if entries[3].Sharpen.On {
		t.Error("entries[3].Sharpen.On = true, want false")
	}
	if entries[3].Quality != 85 {
		t.Errorf("entries[3].Quality = %d, want 85", entries[3].Quality)
	}
}

func TestLoadConfigTOMLList(t *testing.T) {
	path := writeConfig(t, "responsive.toml", `
[[images]]
name = "logo.png"
width = 200

[[images]]
name = "logo.png"
width = 400
rename = "logo@2x.png"
`)

	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Shape != ShapeList {
		t.Errorf("Shape = %v, want %v", cfg.Shape, ShapeList)
	}
	entries, err := Normalize(cfg, ImageOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []string{"logo.png=200", "logo.png=400"}
	if diff := cmp.Diff(want, patternsOf(entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	t.Run("map", func(t *testing.T) {
		path := writeConfig(t, "responsive.yaml", `
defaults:
  withoutEnlargement: false
images:
  z.png:
    width: 10
  hero-*.jpg:
    - width: 1600
    - width: 800
      format: webp
`)
		cfg, defaults, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		entries, err := Normalize(cfg, defaults)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		want := []string{"z.png=10", "hero-*.jpg=1600", "hero-*.jpg=800"}
		if diff := cmp.Diff(want, patternsOf(entries)); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
		if entries[0].WithoutEnlargement {
			t.Error("WithoutEnlargement = true, want default override false")
		}
		if entries[2].Format != "webp" {
			t.Errorf("entries[2].Format = %q, want webp", entries[2].Format)
		}
	})

	t.Run("list", func(t *testing.T) {
		path := writeConfig(t, "responsive.yml", `
images:
  - name: "*.png"
    width: 50%
`)
		cfg, _, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Shape != ShapeList || cfg.Len() != 1 || *cfg.List[0].Width != "50%" {
			t.Errorf("LoadConfig() = %+v, want one list entry of 50%%", cfg)
		}
	})
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unknown extension", "responsive.ini", "images = 1"},
		{"no images", "responsive.toml", "[defaults]\nquality = 80\n"},
		{"bad toml", "responsive.toml", "[images\n"},
		{"bad option", "responsive.yaml", "images:\n  a.png:\n    crop: 42\n"},
		{"scalar images", "responsive.yaml", "images: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadConfig(writeConfig(t, tt.file, tt.data))
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("LoadConfig() code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidConfig)
			}
		})
	}

	if _, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig(missing) error = nil, want error")
	}
}
