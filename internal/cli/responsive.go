package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgflow/pkg/imagemin"
	"github.com/matzehuels/imgflow/pkg/responsive"
	"github.com/matzehuels/imgflow/pkg/stream"
	"github.com/matzehuels/imgflow/pkg/transform"
)

// responsiveOpts holds the command-line flags for the responsive command.
type responsiveOpts struct {
	io     ioOpts
	cache  cacheOpts
	config string // TOML or YAML config table
	policy responsive.Options
	render int  // renders in flight per file
	minify bool // chain the imagemin stage after rendering
}

// responsiveCommand creates the responsive command.
func (c *CLI) responsiveCommand() *cobra.Command {
	opts := responsiveOpts{policy: responsive.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "responsive --config FILE [pattern...]",
		Short: "Generate image variants from a config table",
		Long: `Generate resized and reformatted variants of the images under --base.

Each file matching a pattern is checked against the config names; every
matching config entry produces one variant, written under --dest.`,
		Example: `  imgflow responsive --config images.toml --base src/img "**/*.{jpg,png}"
  imgflow responsive -c images.yaml --pass-through-unused --no-error-on-unused-image "**/*"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("no-error-on-unused-config") {
				opts.policy.ErrorOnUnusedConfig = false
			}
			if cmd.Flags().Changed("no-error-on-unused-image") {
				opts.policy.ErrorOnUnusedImage = false
			}
			if cmd.Flags().Changed("no-error-on-enlargement") {
				opts.policy.ErrorOnEnlargement = false
			}
			return c.runResponsive(cmd, opts, args)
		},
	}

	opts.io.register(cmd)
	opts.cache.register(cmd)

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "config file (.toml, .yaml, .yml)")
	f.BoolVar(&opts.policy.PassThroughUnused, "pass-through-unused", false, "copy files that match no config unchanged")
	f.BoolVar(&opts.policy.Silent, "silent", false, "log only the summary")
	f.BoolVar(&opts.policy.Stats, "stats", true, "log a summary at the end")
	f.IntVar(&opts.render, "render-concurrency", 0, "variants rendered in parallel per file (default: all)")
	f.BoolVar(&opts.minify, "minify", false, "optimize the generated variants with the default imagemin plugins")
	f.Bool("no-error-on-unused-config", false, "do not fail when a config entry matches no file")
	f.Bool("no-error-on-unused-image", false, "do not fail when a file matches no config entry")
	f.Bool("no-error-on-enlargement", false, "do not fail when a variant would upscale its source")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (c *CLI) runResponsive(cmd *cobra.Command, opts responsiveOpts, patterns []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, global, err := responsive.LoadConfig(opts.config)
	if err != nil {
		return err
	}

	store, keyer, err := newCache(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer store.Close()

	policy := opts.policy
	policy.Concurrency = opts.render
	policy.Logger = logger
	policy.Transformer = transform.NewCached(transform.NewImaging(), store, keyer, logger)

	engine, err := responsive.NewEngine(cfg, global, policy)
	if err != nil {
		return err
	}
	printInfo("Loaded %d config entries from %s", len(engine.Entries()), StyleHighlight.Render(opts.config))

	stages := []stream.Stage{engine}
	if opts.minify {
		mopts := imagemin.DefaultOptions()
		mopts.Cache, mopts.Keyer = store, keyer
		mopts.Logger = logger
		stages = append(stages, imagemin.New(mopts))
	}
	return c.runStages(ctx, opts.io, patterns, stages...)
}
