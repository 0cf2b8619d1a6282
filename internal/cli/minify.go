package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imgflow/pkg/imagemin"
)

// minifyOpts holds the command-line flags for the minify command.
type minifyOpts struct {
	io         ioOpts
	cache      cacheOpts
	plugins    []string // built-in plugin names, in order
	extensions []string // file extensions to optimize
	perFile    bool     // log the result for every file
	title      string   // log prefix
}

// minifyCommand creates the minify command.
func (c *CLI) minifyCommand() *cobra.Command {
	defaults := imagemin.DefaultOptions()
	opts := minifyOpts{
		plugins:    slices.Clone(imagemin.DefaultPluginNames),
		extensions: defaults.ValidExtensions,
	}

	cmd := &cobra.Command{
		Use:   "minify [pattern...]",
		Short: "Losslessly shrink images",
		Long: `Losslessly shrink the images under --base and write them under --dest.

gifsicle, jpegtran and optipng must be installed to optimize GIF, JPEG and
PNG files; missing binaries are skipped. SVG files are optimized in process.`,
		Example: `  imgflow minify --base dist "**/*"
  imgflow minify --plugins optipng,svgo --per-file "**/*.{png,svg}"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMinify(cmd, opts, args)
		},
	}

	opts.io.register(cmd)
	opts.cache.register(cmd)

	f := cmd.Flags()
	f.StringSliceVar(&opts.plugins, "plugins", opts.plugins, "plugins to run, in order")
	f.StringSliceVar(&opts.extensions, "ext", opts.extensions, "file extensions to optimize")
	f.BoolVar(&opts.perFile, "per-file", false, "log the result for every file")
	f.StringVar(&opts.title, "title", "", "prefix for log lines")

	return cmd
}

func (c *CLI) runMinify(cmd *cobra.Command, opts minifyOpts, patterns []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	plugins, unknown := imagemin.Plugins(opts.plugins...)
	for _, name := range unknown {
		printWarning("Unknown plugin %q", name)
	}

	store, keyer, err := newCache(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer store.Close()

	m := imagemin.New(imagemin.Options{
		Plugins:         plugins,
		ValidExtensions: normalizeExtensions(opts.extensions),
		Verbose:         opts.perFile,
		Title:           opts.title,
		Cache:           store,
		Keyer:           keyer,
		Logger:          logger,
	})
	return c.runStages(ctx, opts.io, patterns, m)
}

// normalizeExtensions lower-cases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
