package responsive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize/english"
	"golang.org/x/sync/errgroup"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/stream"
	"github.com/matzehuels/imgflow/pkg/transform"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

const stageName = "responsive"

var discard = log.New(io.Discard)

// ErrEngineDone is returned when an engine is used after its run finished.
var ErrEngineDone = errors.New("responsive: engine already finished")

// Options is the run-level policy of an engine.
type Options struct {
	ErrorOnUnusedConfig bool // fail at flush when a config entry matched no file
	ErrorOnUnusedImage  bool // fail when a file matches no config entry
	ErrorOnEnlargement  bool // fail when a variant would upscale its source
	PassThroughUnused   bool // forward unmatched files unchanged
	Silent              bool // log only the summary
	Stats               bool // log the summary at flush

	// Concurrency limits the renders in flight for one file; 0 renders
	// every matched entry at once.
	Concurrency int

	Logger      *log.Logger
	Transformer transform.Transformer
}

// DefaultOptions returns the strict default policy.
func DefaultOptions() Options {
	return Options{
		ErrorOnUnusedConfig: true,
		ErrorOnUnusedImage:  true,
		ErrorOnEnlargement:  true,
		Stats:               true,
	}
}

// SetDefaults fills in the runtime collaborators.
func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = discard
	}
	if o.Transformer == nil {
		o.Transformer = transform.NewImaging()
	}
	if o.Concurrency < 0 {
		o.Concurrency = 0
	}
}

// Stats counts what happened to the files of a run.
type Stats struct {
	Total            int // files with contents
	Matched          int // files matching at least one entry
	Created          int // variants emitted
	Unmatched        int // files matching no entry
	UnmatchedBlocked int // unmatched files dropped
	UnmatchedPassed  int // unmatched files forwarded
}

// Summary returns the end-of-run line.
func (s Stats) Summary() string {
	return fmt.Sprintf("Created %s (matched %d of %s)",
		english.Plural(s.Created, "image", ""), s.Matched, english.Plural(s.Total, "image", ""))
}

// State is the lifecycle of an engine.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var _ stream.Stage = (*Engine)(nil)

// Engine is the responsive stage. It renders one variant per matching
// entry for every file it receives. An engine serves a single run.
type Engine struct {
	entries  []Entry
	matchers []*stream.Matcher
	renderer *Renderer
	opts     Options
	logger   *log.Logger

	mu      sync.Mutex
	state   State
	stats   Stats
	matched []bool
	err     error
}

// NewEngine normalizes cfg with global and returns an idle engine.
func NewEngine(cfg Config, global ImageOptions, opts Options) (*Engine, error) {
	entries, err := Normalize(cfg, global)
	if err != nil {
		return nil, err
	}
	return NewEngineFromEntries(entries, opts)
}

// NewEngineFromEntries returns an idle engine for already normalized entries.
func NewEngineFromEntries(entries []Entry, opts Options) (*Engine, error) {
	opts.SetDefaults()

	matchers := make([]*stream.Matcher, len(entries))
	for i, e := range entries {
		m, err := stream.CompileMatcher(e.Name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %q", e.Name)
		}
		matchers[i] = m
	}

	logger := opts.Logger.WithPrefix(stageName)
	return &Engine{
		entries:  entries,
		matchers: matchers,
		renderer: &Renderer{
			Transformer:        opts.Transformer,
			ErrorOnEnlargement: opts.ErrorOnEnlargement,
			Silent:             opts.Silent,
			Logger:             logger,
		},
		opts:    opts,
		logger:  logger,
		matched: make([]bool, len(entries)),
	}, nil
}

// Name implements stream.Stage.
func (e *Engine) Name() string { return stageName }

// Entries returns the normalized entries.
func (e *Engine) Entries() []Entry { return e.entries }

// Stats returns a snapshot of the run statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Matched reports, per entry, whether any file has matched it so far.
func (e *Engine) Matched() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.matched...)
}

// Transform renders the variants of f. Null files pass through. Files
// matching no entry follow the unmatched policy. The first error fails the
// engine; later calls return the same error.
func (e *Engine) Transform(ctx context.Context, f *vfile.File) ([]*vfile.File, error) {
	if err := e.admit(); err != nil {
		return nil, err
	}
	if f.IsNull() {
		return []*vfile.File{f}, nil
	}

	rel := f.Relative()
	if f.IsStream() {
		return nil, e.fail(errs.Wrap(errs.ErrCodeUnsupportedInput, stream.ErrStreamingUnsupported, "file %q", rel))
	}
	observability.Stage().OnFileStart(ctx, stageName, rel)

	var idx []int
	for i, m := range e.matchers {
		if m.Match(rel) {
			idx = append(idx, i)
		}
	}

	e.mu.Lock()
	e.stats.Total++
	if len(idx) == 0 {
		e.stats.Unmatched++
	} else {
		e.stats.Matched++
		for _, i := range idx {
			e.matched[i] = true
		}
	}
	e.mu.Unlock()

	if len(idx) == 0 {
		return e.unmatched(f, rel)
	}

	results := make([]*vfile.File, len(idx))
	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}
	for k, i := range idx {
		g.Go(func() error {
			out, err := e.renderer.Render(gctx, f, e.entries[i])
			results[k] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.fail(err)
	}

	out := make([]*vfile.File, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateFailed {
		return nil, e.err
	}
	e.stats.Created += len(out)
	return out, nil
}

func (e *Engine) unmatched(f *vfile.File, rel string) ([]*vfile.File, error) {
	switch {
	case e.opts.ErrorOnUnusedImage:
		return nil, e.fail(errs.New(errs.ErrCodeUnmatchedImage, "file %q: image does not match any config", rel))
	case e.opts.PassThroughUnused:
		e.mu.Lock()
		e.stats.UnmatchedPassed++
		e.mu.Unlock()
		e.log().Info("pass through without changes", "file", rel)
		return []*vfile.File{f}, nil
	default:
		e.mu.Lock()
		e.stats.UnmatchedBlocked++
		e.mu.Unlock()
		e.log().Info("skip for processing", "file", rel)
		return nil, nil
	}
}

// Flush ends the run: it logs the summary and applies the unused config
// policy. It emits no files.
func (e *Engine) Flush(ctx context.Context) ([]*vfile.File, error) {
	e.mu.Lock()
	switch e.state {
	case StateFailed:
		e.mu.Unlock()
		return nil, e.err
	case StateDone, StateFinalizing:
		e.mu.Unlock()
		return nil, ErrEngineDone
	}
	e.state = StateFinalizing
	stats := e.stats
	var unused []string
	seen := make(map[string]bool)
	for i, ok := range e.matched {
		if name := e.entries[i].Name; !ok && !seen[name] {
			seen[name] = true
			unused = append(unused, name)
		}
	}
	e.mu.Unlock()

	if e.opts.Stats && !(e.opts.Silent && stats.Created == 0) {
		e.logger.Info(stats.Summary())
	}

	var err error
	if len(unused) > 0 && (!e.opts.Silent || e.opts.ErrorOnUnusedConfig) {
		if e.opts.ErrorOnUnusedConfig {
			err = e.fail(&errs.UnusedConfigError{Names: unused})
		} else {
			e.logger.Warn("Available images do not match the following config", "config", unused)
		}
	}
	observability.Stage().OnFlush(ctx, stageName, stats.Created, err)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.state = StateDone
	e.mu.Unlock()
	return nil, nil
}

func (e *Engine) admit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateFailed:
		return e.err
	case StateFinalizing, StateDone:
		return ErrEngineDone
	case StateIdle:
		e.state = StateStreaming
	}
	return nil
}

// fail records the first fatal error and returns the engine's error.
func (e *Engine) fail(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateFailed {
		e.state = StateFailed
		e.err = err
	}
	return e.err
}

func (e *Engine) log() *log.Logger {
	if e.opts.Silent {
		return discard
	}
	return e.logger
}
