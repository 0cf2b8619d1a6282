package imagemin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/imgflow/pkg/svg"
)

// Plugin optimizes encoded images of the extensions it handles.
type Plugin interface {
	Name() string
	Handles(ext string) bool
	Optimize(ctx context.Context, data []byte) ([]byte, error)
}

// Availability is implemented by plugins that depend on the environment,
// such as an external binary.
type Availability interface {
	Available() error
}

// Placeholders in ExecPlugin arguments. When present the input is written
// to a temporary file and the output read back from one; otherwise the
// binary reads stdin and writes stdout.
const (
	PlaceholderIn  = "{in}"
	PlaceholderOut = "{out}"
)

// ExecPlugin runs an external optimizer binary.
type ExecPlugin struct {
	PluginName string
	Binary     string
	Args       []string
	Extensions []string // lower case, with the leading dot
}

// Name implements Plugin.
func (p *ExecPlugin) Name() string { return p.PluginName }

// Handles implements Plugin.
func (p *ExecPlugin) Handles(ext string) bool {
	return slices.Contains(p.Extensions, strings.ToLower(ext))
}

// Available reports whether the binary is on PATH.
func (p *ExecPlugin) Available() error {
	if _, err := exec.LookPath(p.Binary); err != nil {
		return fmt.Errorf("%s: %s not found on PATH", p.PluginName, p.Binary)
	}
	return nil
}

// Optimize runs the binary on data.
func (p *ExecPlugin) Optimize(ctx context.Context, data []byte) ([]byte, error) {
	args := slices.Clone(p.Args)
	usesFiles := slices.ContainsFunc(args, func(a string) bool {
		return strings.Contains(a, PlaceholderIn) || strings.Contains(a, PlaceholderOut)
	})

	var in, out string
	if usesFiles {
		dir, err := os.MkdirTemp("", "imgflow-"+p.PluginName+"-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)

		in, out = filepath.Join(dir, "in"), filepath.Join(dir, "out")
		if err := os.WriteFile(in, data, 0600); err != nil {
			return nil, err
		}
		for i, a := range args {
			a = strings.ReplaceAll(a, PlaceholderIn, in)
			args[i] = strings.ReplaceAll(a, PlaceholderOut, out)
		}
	}

	cmd := exec.CommandContext(ctx, p.Binary, args...)
	if !usesFiles {
		cmd.Stdin = bytes.NewReader(data)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", p.Binary, err, strings.TrimSpace(stderr.String()))
	}
	if !usesFiles {
		return stdout.Bytes(), nil
	}
	return os.ReadFile(out)
}

// Gifsicle optimizes GIF images.
func Gifsicle() *ExecPlugin {
	return &ExecPlugin{PluginName: "gifsicle", Binary: "gifsicle", Args: []string{"-O3"}, Extensions: []string{".gif"}}
}

// Jpegtran losslessly optimizes JPEG images and strips metadata.
func Jpegtran() *ExecPlugin {
	return &ExecPlugin{PluginName: "jpegtran", Binary: "jpegtran", Args: []string{"-copy", "none", "-optimize"}, Extensions: []string{".jpg", ".jpeg"}}
}

// Optipng losslessly recompresses PNG images.
func Optipng() *ExecPlugin {
	return &ExecPlugin{
		PluginName: "optipng",
		Binary:     "optipng",
		Args:       []string{"-quiet", "-strip", "all", "-o2", "-out", PlaceholderOut, PlaceholderIn},
		Extensions: []string{".png"},
	}
}

// SVGPlugin optimizes SVG documents in process.
type SVGPlugin struct {
	Optimizer *svg.MinifyOptimizer
}

// Svgo returns the SVG plugin with the default optimizer config.
func Svgo() *SVGPlugin {
	return &SVGPlugin{Optimizer: svg.NewMinifyOptimizer(svg.MinifyConfig{})}
}

// Name implements Plugin.
func (p *SVGPlugin) Name() string { return "svgo" }

// Handles implements Plugin.
func (p *SVGPlugin) Handles(ext string) bool { return strings.EqualFold(ext, ".svg") }

// Optimize implements Plugin.
func (p *SVGPlugin) Optimize(ctx context.Context, data []byte) ([]byte, error) {
	return p.Optimizer.Optimize(ctx, data)
}

// DefaultPluginNames are the plugins of a default run, in order.
var DefaultPluginNames = []string{"gifsicle", "jpegtran", "optipng", "svgo"}

// PluginByName returns a built-in plugin.
func PluginByName(name string) (Plugin, bool) {
	switch name {
	case "gifsicle":
		return Gifsicle(), true
	case "jpegtran":
		return Jpegtran(), true
	case "optipng":
		return Optipng(), true
	case "svgo":
		return Svgo(), true
	}
	return nil, false
}

// Plugins resolves built-in plugin names. Unknown names are returned
// separately.
func Plugins(names ...string) (plugins []Plugin, unknown []string) {
	for _, name := range names {
		if p, ok := PluginByName(name); ok {
			plugins = append(plugins, p)
		} else {
			unknown = append(unknown, name)
		}
	}
	return plugins, unknown
}

var (
	_ Plugin       = (*ExecPlugin)(nil)
	_ Availability = (*ExecPlugin)(nil)
	_ Plugin       = (*SVGPlugin)(nil)
)
