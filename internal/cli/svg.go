package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imgflow/pkg/svg"
)

const (
	backendCanvas = "canvas" // in-process rasterizer
	backendRsvg   = "rsvg"   // rsvg-convert
)

// svg2imgOpts holds the command-line flags for the svg2img command.
type svg2imgOpts struct {
	io      ioOpts
	convert svg.ConvertOptions
	backend string
}

// svg2imgCommand creates the svg2img command.
func (c *CLI) svg2imgCommand() *cobra.Command {
	opts := svg2imgOpts{convert: svg.DefaultConvertOptions(), backend: backendCanvas}

	cmd := &cobra.Command{
		Use:   "svg2img [pattern...]",
		Short: "Rasterize SVG files to PNG or JPEG",
		Long: `Rasterize the SVG files under --base and write them under --dest with the
output format as extension.

A missing --width or --height is derived from the document's aspect ratio
unless --preserve-aspect-ratio=false; --scale multiplies both.`,
		Example: `  imgflow svg2img --width 256 "icons/*.svg"
  imgflow svg2img --height 64 --scale 2 --format jpg --quality 85 "**/*.svg"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := opts.convert
			o.Logger = loggerFromContext(ctx)
			if cmd.Flags().Changed("height") && !cmd.Flags().Changed("width") {
				o.Width = 0
			}

			switch opts.backend {
			case backendCanvas:
				o.Rasterizer = svg.NewCanvasRasterizer()
			case backendRsvg:
				o.Rasterizer = svg.RsvgRasterizer{}
			default:
				return fmt.Errorf("unknown backend %q (use %s or %s)", opts.backend, backendCanvas, backendRsvg)
			}

			conv, err := svg.NewConverter(o)
			if err != nil {
				return err
			}
			return c.runStages(ctx, opts.io, args, conv)
		},
	}

	opts.io.register(cmd)

	f := cmd.Flags()
	f.Float64Var(&opts.convert.Width, "width", opts.convert.Width, "output width in pixels")
	f.Float64Var(&opts.convert.Height, "height", 0, "output height in pixels")
	f.Float64Var(&opts.convert.Scale, "scale", opts.convert.Scale, "multiplier for width and height")
	f.BoolVar(&opts.convert.PreserveAspectRatio, "preserve-aspect-ratio", true, "derive a missing side from the aspect ratio")
	f.StringVarP(&opts.convert.Format, "format", "f", opts.convert.Format, "output format: png, jpeg or jpg")
	f.IntVarP(&opts.convert.Quality, "quality", "q", 0, "jpeg quality (1-100)")
	f.StringVar(&opts.backend, "backend", opts.backend, "rasterizer: canvas or rsvg")

	return cmd
}

// svgminOpts holds the command-line flags for the svgmin command.
type svgminOpts struct {
	io        ioOpts
	minify    svg.MinifyOptions
	precision int
	enable    []string
	disable   []string
}

// svgminCommand creates the svgmin command.
func (c *CLI) svgminCommand() *cobra.Command {
	var opts svgminOpts

	cmd := &cobra.Command{
		Use:   "svgmin [pattern...]",
		Short: "Optimize SVG files",
		Long: `Optimize the SVG files under --base and write them under --dest.

Settings are read from imgflow-svgmin.{yaml,yml,toml} in the current
directory or from --config-file, and merged with the flags.`,
		Example: `  imgflow svgmin "**/*.svg"
  imgflow svgmin --disable removeComments --precision 3 "icons/*.svg"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := opts.minify
			if cmd.Flags().Changed("precision") {
				p := opts.precision
				o.Precision = &p
			}
			o.Plugins = pluginFlags(opts.enable, opts.disable)

			m, err := svg.NewMinifier(o, loggerFromContext(ctx))
			if err != nil {
				return err
			}
			return c.runStages(ctx, opts.io, args, m)
		},
	}

	opts.io.register(cmd)

	f := cmd.Flags()
	f.StringVar(&opts.minify.ConfigFile, "config-file", "", "optimizer config file")
	f.IntVar(&opts.precision, "precision", 0, "significant digits kept in numbers")
	f.StringSliceVar(&opts.enable, "enable", nil, "plugins to enable")
	f.StringSliceVar(&opts.disable, "disable", nil, "plugins to disable")
	f.BoolVar(&opts.minify.NoOverride, "no-override", false, "ignore config files")
	f.BoolVar(&opts.minify.NoExtendDefaultPlugins, "no-extend-default-plugins", false, "use the given plugins as the complete list")

	return cmd
}

// pluginFlags turns --enable and --disable into a plugin set. It returns
// nil when neither is given.
func pluginFlags(enable, disable []string) svg.PluginSet {
	if len(enable) == 0 && len(disable) == 0 {
		return nil
	}
	set := make(svg.PluginSet, 0, len(enable)+len(disable))
	for _, name := range enable {
		set = append(set, svg.Plugin{Name: name, Active: true})
	}
	for _, name := range disable {
		set = append(set, svg.Plugin{Name: name})
	}
	return set
}
