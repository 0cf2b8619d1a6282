package transform

import "strings"

// Operation is one step of a render. Implementations are plain values so
// that operation lists can be compared and hashed.
type Operation interface {
	// Op returns the operation name used in logs and cache keys.
	Op() string
}

// Fit is a resize strategy.
type Fit string

// Fit modes.
const (
	FitCover   Fit = "cover"   // fill the box, cropping overflow at Position
	FitContain Fit = "contain" // fit inside the box, padding with Background
	FitFill    Fit = "fill"    // stretch to the box, ignoring aspect ratio
	FitInside  Fit = "inside"  // largest size not exceeding the box
	FitOutside Fit = "outside" // smallest size covering the box
)

// Kernel names accepted by Resize.
const (
	KernelNearest  = "nearest"
	KernelCubic    = "cubic"
	KernelMitchell = "mitchell"
	KernelLanczos2 = "lanczos2"
	KernelLanczos3 = "lanczos3"
)

// ValidKernel reports whether name is a known kernel.
func ValidKernel(name string) bool {
	switch name {
	case KernelNearest, KernelCubic, KernelMitchell, KernelLanczos2, KernelLanczos3:
		return true
	}
	return false
}

// ValidPosition reports whether p names a crop position or strategy.
func ValidPosition(p string) bool {
	p = strings.ToLower(p)
	if p == "entropy" || p == "attention" {
		return true
	}
	_, ok := anchors[p]
	return ok
}

// Extract crops a region.
type Extract struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resize scales the image. A zero Width or Height is derived from the
// other dimension keeping the aspect ratio; both zero is a no-op.
type Resize struct {
	Width              int    `json:"width,omitempty"`
	Height             int    `json:"height,omitempty"`
	Fit                Fit    `json:"fit,omitempty"`
	Position           string `json:"position,omitempty"`
	Background         string `json:"background,omitempty"`
	Kernel             string `json:"kernel,omitempty"`
	WithoutEnlargement bool   `json:"withoutEnlargement,omitempty"`
}

// Flatten composites transparent pixels onto Background.
type Flatten struct {
	Background string `json:"background,omitempty"`
}

// Negate inverts colour channels.
type Negate struct{}

// Trim removes borders of the top-left pixel colour. Threshold is the
// allowed per-channel difference on a 0-255 scale.
type Trim struct {
	Threshold float64 `json:"threshold"`
}

// Rotate rotates clockwise by Angle degrees, or by the EXIF orientation
// when Auto is set.
type Rotate struct {
	Angle      float64 `json:"angle,omitempty"`
	Auto       bool    `json:"auto,omitempty"`
	Background string  `json:"background,omitempty"`
}

// Flip mirrors vertically.
type Flip struct{}

// Flop mirrors horizontally.
type Flop struct{}

// Blur applies a gaussian blur. A zero Sigma is a mild blur.
type Blur struct {
	Sigma float64 `json:"sigma,omitempty"`
}

// Sharpen applies an unsharp mask. A zero Sigma is a mild sharpen.
type Sharpen struct {
	Sigma  float64 `json:"sigma,omitempty"`
	Flat   float64 `json:"flat,omitempty"`
	Jagged float64 `json:"jagged,omitempty"`
}

// Threshold maps pixels to black or white around Level (0-255).
type Threshold struct {
	Level int `json:"level"`
}

// Gamma applies gamma-aware resampling. A zero Gamma means 2.2.
type Gamma struct {
	Gamma float64 `json:"gamma,omitempty"`
}

// Grayscale drops colour.
type Grayscale struct{}

// Normalize stretches luminance to the full range.
type Normalize struct{}

// KeepMetadata asks the backend to copy source metadata to the output.
type KeepMetadata struct{}

// Tile requests deep-zoom tiled output.
type Tile struct {
	Size    int `json:"size,omitempty"`
	Overlap int `json:"overlap,omitempty"`
}

// Encode selects the output codec and its parameters.
type Encode struct {
	Format            Format `json:"format"`
	Quality           int    `json:"quality,omitempty"`
	Progressive       bool   `json:"progressive,omitempty"`
	CompressionLevel  int    `json:"compressionLevel,omitempty"`
	ChromaSubsampling string `json:"chromaSubsampling,omitempty"`
}

func (Extract) Op() string      { return "extract" }
func (Resize) Op() string       { return "resize" }
func (Flatten) Op() string      { return "flatten" }
func (Negate) Op() string       { return "negate" }
func (Trim) Op() string         { return "trim" }
func (Rotate) Op() string       { return "rotate" }
func (Flip) Op() string         { return "flip" }
func (Flop) Op() string         { return "flop" }
func (Blur) Op() string         { return "blur" }
func (Sharpen) Op() string      { return "sharpen" }
func (Threshold) Op() string    { return "threshold" }
func (Gamma) Op() string        { return "gamma" }
func (Grayscale) Op() string    { return "grayscale" }
func (Normalize) Op() string    { return "normalize" }
func (KeepMetadata) Op() string { return "metadata" }
func (Tile) Op() string         { return "tile" }
func (Encode) Op() string       { return "encode" }

// Describe returns the operation names of ops, for logging.
func Describe(ops []Operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Op()
	}
	return names
}

// keyed pairs an operation with its name so that field-less operations
// stay distinct when ops are serialised for cache keys.
type keyed struct {
	Op   string    `json:"op"`
	Args Operation `json:"args"`
}

func keyedOps(ops []Operation) []keyed {
	out := make([]keyed, len(ops))
	for i, op := range ops {
		out[i] = keyed{Op: op.Op(), Args: op}
	}
	return out
}
