package svg

import (
	"bytes"
	"context"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minsvg "github.com/tdewolff/minify/v2/svg"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/stream"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

const (
	minifyStageName = "svgmin"
	mimeSVG         = "image/svg+xml"
)

// Plugins understood by the optimizer. Other plugin names are accepted in
// configuration and ignored.
const (
	PluginRemoveComments       = "removeComments"
	PluginCleanupNumericValues = "cleanupNumericValues"
	PluginMinifyStyles         = "minifyStyles"
)

// MinifyOptimizer rewrites SVG documents with tdewolff/minify.
type MinifyOptimizer struct {
	m *minify.M
}

// NewMinifyOptimizer configures the minifier from cfg.
func NewMinifyOptimizer(cfg MinifyConfig) *MinifyOptimizer {
	m := minify.New()
	m.Add(mimeSVG, &minsvg.Minifier{
		KeepComments: !cfg.Enabled(PluginRemoveComments),
		Precision:    precision(cfg),
	})
	if cfg.Enabled(PluginMinifyStyles) {
		m.AddFunc("text/css", css.Minify)
	}
	return &MinifyOptimizer{m: m}
}

func precision(cfg MinifyConfig) int {
	if !cfg.Enabled(PluginCleanupNumericValues) {
		return 0
	}
	if v, ok := cfg.Param(PluginCleanupNumericValues, "floatPrecision"); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	if cfg.Precision != nil {
		return *cfg.Precision
	}
	return 0
}

// Optimize returns the minified document. data is left untouched.
func (o *MinifyOptimizer) Optimize(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The minifier rewrites its input in place when it has spare capacity.
	return o.m.Bytes(mimeSVG, bytes.Clone(data))
}

// Minifier is a stream stage that optimizes SVG files in place.
type Minifier struct {
	optsFn MinifyOptionsFunc
	logger *log.Logger

	// optimizer is resolved once when options do not vary per file.
	optimizer *MinifyOptimizer
}

var _ stream.Stage = (*Minifier)(nil)

// NewMinifier resolves opts once and returns the stage.
func NewMinifier(opts MinifyOptions, logger *log.Logger) (*Minifier, error) {
	cfg, err := ResolveMinifyConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Minifier{logger: orDiscard(logger), optimizer: NewMinifyOptimizer(cfg)}, nil
}

// NewMinifierFunc returns a stage that computes options for every file.
func NewMinifierFunc(fn MinifyOptionsFunc, logger *log.Logger) *Minifier {
	return &Minifier{optsFn: fn, logger: orDiscard(logger)}
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return discard
	}
	return l
}

// Name implements stream.Stage.
func (m *Minifier) Name() string { return minifyStageName }

// Transform replaces the file contents with the optimized document.
func (m *Minifier) Transform(ctx context.Context, f *vfile.File) ([]*vfile.File, error) {
	if f.IsNull() {
		return []*vfile.File{f}, nil
	}
	rel := f.Relative()
	if f.IsStream() {
		return nil, errs.Wrap(errs.ErrCodeUnsupportedInput, stream.ErrStreamingUnsupported, "file %q", rel)
	}
	observability.Stage().OnFileStart(ctx, minifyStageName, rel)

	opt, err := m.optimizerFor(f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeOptimize, err, "file %q", rel)
	}
	data, err := opt.Optimize(ctx, f.Contents)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeOptimize, err, "file %q", rel)
	}

	m.logger.Debug("minified", "file", rel, "before", len(f.Contents), "after", len(data))
	return []*vfile.File{f.With(f.Path, data)}, nil
}

func (m *Minifier) optimizerFor(f *vfile.File) (*MinifyOptimizer, error) {
	if m.optsFn == nil {
		return m.optimizer, nil
	}
	opts, err := m.optsFn(f)
	if err != nil {
		return nil, err
	}
	cfg, err := ResolveMinifyConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewMinifyOptimizer(cfg), nil
}

// Flush implements stream.Stage.
func (m *Minifier) Flush(ctx context.Context) ([]*vfile.File, error) {
	observability.Stage().OnFlush(ctx, minifyStageName, 0, nil)
	return nil, nil
}
