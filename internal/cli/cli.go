package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imgflow/pkg/buildinfo"
	"github.com/matzehuels/imgflow/pkg/cache"
	"github.com/matzehuels/imgflow/pkg/stream"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "imgflow"

	// defaultDest is the default output directory.
	defaultDest = "dist"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "imgflow builds responsive images and optimizes them",
		Long:         `imgflow generates resized and reformatted variants of source images from a config table, rasterizes and optimizes SVGs, and losslessly shrinks images for the web.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.Logger.Debug(buildinfo.String())
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.responsiveCommand())
	root.AddCommand(c.minifyCommand())
	root.AddCommand(c.svg2imgCommand())
	root.AddCommand(c.svgminCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// ioOpts are the source and destination flags shared by every stage command.
type ioOpts struct {
	base        string // directory the patterns are matched in
	dest        string // output directory
	concurrency int    // files in flight
}

func (o *ioOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.base, "base", "b", ".", "directory the patterns are matched in")
	cmd.Flags().StringVarP(&o.dest, "dest", "d", defaultDest, "output directory")
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "j", 0, "files processed in parallel (default: number of CPUs)")
}

// cacheOpts select the cache backend.
type cacheOpts struct {
	noCache  bool
	redisURL string
	scope    string
}

func (o *cacheOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&o.redisURL, "redis-url", "", "use a shared redis cache (redis://host:port/db)")
	cmd.Flags().StringVar(&o.scope, "cache-scope", "", "prefix for cache keys on a shared cache")
}

// =============================================================================
// Pipeline Runner
// =============================================================================

// runStages globs the input files, runs them through stages and writes the
// result under the destination directory.
func (c *CLI) runStages(ctx context.Context, o ioOpts, patterns []string, stages ...stream.Stage) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)

	files, err := stream.Glob(cwd, o.base, patterns...)
	if err != nil {
		return err
	}
	c.Logger.Debug("matched files", "count", len(files), "base", o.base)

	p := stream.Pipeline{Stages: stages, Concurrency: o.concurrency, Logger: c.Logger}
	out, err := p.Run(ctx, files)
	if err != nil {
		return err
	}

	dest := o.dest
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(cwd, dest)
	}
	written, err := stream.WriteAll(dest, out)
	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Processed %d files", len(files)))
	printSuccess("Wrote %d files", len(written))
	for _, path := range written {
		if rel, err := filepath.Rel(cwd, path); err == nil {
			path = rel
		}
		printFile(path)
	}
	return nil
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache returns the configured cache backend and its key scheme.
func newCache(ctx context.Context, o cacheOpts) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if o.scope != "" {
		keyer = cache.NewScopedKeyer(keyer, o.scope+":")
	}

	switch {
	case o.noCache:
		return cache.NewNullCache(), keyer, nil
	case o.redisURL != "":
		c, err := cache.NewRedisCache(ctx, o.redisURL)
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	}

	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), keyer, nil
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return c, keyer, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/imgflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
