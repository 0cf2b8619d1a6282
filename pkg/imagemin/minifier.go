package imagemin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/imgflow/pkg/cache"
	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/stream"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

const stageName = "imagemin"

// ErrMinifierUsed is returned when a minifier is used after its flush.
var ErrMinifierUsed = errors.New("imagemin: minifier can be used only once")

// Options configures a Minifier.
type Options struct {
	Plugins         []Plugin
	ValidExtensions []string // lower case, with the leading dot
	Verbose         bool     // log every file
	Title           string   // prefix of log lines

	// Cache stores plugin output when set.
	Cache cache.Cache
	Keyer cache.Keyer

	Logger *log.Logger
}

// DefaultOptions returns the default plugins and extensions.
func DefaultOptions() Options {
	plugins, _ := Plugins(DefaultPluginNames...)
	return Options{
		Plugins:         plugins,
		ValidExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp"},
	}
}

// Stats accumulates the files that got smaller.
type Stats struct {
	Total      int64 // original bytes of the optimized files
	SavedBytes int64
	Files      int
}

// Summary returns "Minified images: N", followed by the savings if any.
func (s Stats) Summary() string {
	msg := fmt.Sprintf("Minified images: %d", s.Files)
	if s.Total > 0 {
		msg += fmt.Sprintf(" (saved %s - %s%%)", humanize.Bytes(uint64(s.SavedBytes)), percent(s.SavedBytes, s.Total))
	}
	return msg
}

// percent formats part/total with one decimal and drops a trailing ".0".
func percent(part, total int64) string {
	var p float64
	if total > 0 {
		p = float64(part) / float64(total) * 100
	}
	return strings.TrimSuffix(strconv.FormatFloat(p, 'f', 1, 64), ".0")
}

// Minifier is a stream stage that losslessly shrinks images with a chain
// of plugins. An instance serves a single run.
type Minifier struct {
	opts    Options
	plugins []Plugin
	logger  *log.Logger

	mu    sync.Mutex
	stats Stats
	done  bool
}

var _ stream.Stage = (*Minifier)(nil)

// New returns a minifier. Plugins whose binary is unavailable are logged
// and skipped.
func New(opts Options) *Minifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Title != "" {
		logger = logger.WithPrefix(opts.Title)
	}

	m := &Minifier{opts: opts, logger: logger}
	for _, p := range opts.Plugins {
		if a, ok := p.(Availability); ok {
			if err := a.Available(); err != nil {
				logger.Warn("couldn't load plugin", "plugin", p.Name(), "err", err)
				continue
			}
		}
		if opts.Cache != nil {
			p = NewCachedPlugin(p, opts.Cache, opts.Keyer, logger)
		}
		m.plugins = append(m.plugins, p)
	}
	return m
}

// Name implements stream.Stage.
func (m *Minifier) Name() string { return stageName }

// Stats returns the accumulated statistics.
func (m *Minifier) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Transform optimizes one file. Files with other extensions pass unchanged,
// and so do files no plugin could shrink.
func (m *Minifier) Transform(ctx context.Context, f *vfile.File) ([]*vfile.File, error) {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done {
		return nil, ErrMinifierUsed
	}

	if f.IsNull() {
		return []*vfile.File{f}, nil
	}
	rel := f.Relative()
	if f.IsStream() {
		return nil, errs.Wrap(errs.ErrCodeUnsupportedInput, stream.ErrStreamingUnsupported, "file %q", rel)
	}

	ext := strings.ToLower(f.Ext())
	if !slices.Contains(m.opts.ValidExtensions, ext) {
		if m.opts.Verbose {
			m.logger.Warn("Skipping unsupported image file extension", "file", rel)
		}
		return []*vfile.File{f}, nil
	}
	observability.Stage().OnFileStart(ctx, stageName, rel)

	data := f.Contents
	for _, p := range m.plugins {
		if !p.Handles(ext) {
			continue
		}
		out, err := p.Optimize(ctx, data)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeOptimize, err, "file %q", rel)
		}
		data = out
	}

	original := int64(len(f.Contents))
	saved := original - int64(len(data))
	msg := "already optimized"
	if saved > 0 {
		msg = fmt.Sprintf("saved %s - %s%%", humanize.Bytes(uint64(saved)), percent(saved, original))

		m.mu.Lock()
		m.stats.Total += original
		m.stats.SavedBytes += saved
		m.stats.Files++
		m.mu.Unlock()
	}
	if m.opts.Verbose {
		m.logger.Info("✔ "+rel, "result", msg)
	}

	if saved <= 0 {
		return []*vfile.File{f}, nil
	}
	return []*vfile.File{f.With(f.Path, data)}, nil
}

// Flush logs the summary. Later calls fail with ErrMinifierUsed.
func (m *Minifier) Flush(ctx context.Context) ([]*vfile.File, error) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil, ErrMinifierUsed
	}
	m.done = true
	stats := m.stats
	m.mu.Unlock()

	m.logger.Info(stats.Summary())
	observability.Stage().OnFlush(ctx, stageName, stats.Files, nil)
	return nil, nil
}
