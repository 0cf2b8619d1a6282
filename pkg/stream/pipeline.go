package stream

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/imgflow/pkg/observability"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

// Pipeline runs files through Stages.
//
// Up to Concurrency files are in flight at once (default GOMAXPROCS). The
// output keeps input order: all files produced from one input file are
// contiguous, followed by the files produced by flushes.
type Pipeline struct {
	Stages      []Stage
	Concurrency int
	Logger      *log.Logger
}

// Run processes files and flushes every stage. It returns the files that
// left the last stage.
func (p *Pipeline) Run(ctx context.Context, files []*vfile.File) ([]*vfile.File, error) {
	runID := uuid.NewString()
	logger := p.logger().With("run", runID[:8])

	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name()
	}

	observability.Pipeline().OnRunStart(ctx, runID, names)
	logger.Debug("pipeline started", "stages", names, "files", len(files))
	start := time.Now()

	out, err := p.run(ctx, files)

	observability.Pipeline().OnRunComplete(ctx, runID, len(out), time.Since(start), err)
	if err != nil {
		logger.Debug("pipeline failed", "error", err)
		return nil, err
	}
	logger.Debug("pipeline finished", "files", len(out), "duration", time.Since(start))
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, files []*vfile.File) ([]*vfile.File, error) {
	results := make([][]*vfile.File, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.through(gctx, 0, f)
			results[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*vfile.File
	for _, r := range results {
		out = append(out, r...)
	}

	for i, s := range p.Stages {
		flushed, err := s.Flush(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		for _, f := range flushed {
			rest, err := p.through(ctx, i+1, f)
			if err != nil {
				return nil, err
			}
			out = append(out, rest...)
		}
	}
	return out, nil
}

// through runs f through the stages starting at index from.
func (p *Pipeline) through(ctx context.Context, from int, f *vfile.File) ([]*vfile.File, error) {
	files := []*vfile.File{f}
	for _, s := range p.Stages[from:] {
		var next []*vfile.File
		for _, f := range files {
			out, err := s.Transform(ctx, f)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.Name(), err)
			}
			next = append(next, out...)
		}
		files = next
	}
	return files, nil
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}
