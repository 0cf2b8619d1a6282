// Package stream runs virtual files through a chain of stages.
//
// A [Stage] receives one file at a time and returns zero or more files for
// the next stage. When the input is exhausted every stage is flushed in
// order; files returned by a flush continue through the downstream stages.
// Returning an error is fatal: the [Pipeline] stops admitting files and
// reports the first error.
//
// # Usage
//
//	files, err := stream.Glob(cwd, "src/img", "**/*.{jpg,png}")
//	if err != nil {
//	    return err
//	}
//	p := stream.Pipeline{
//	    Stages:      []stream.Stage{engine, minifier},
//	    Concurrency: 4,
//	    Logger:      logger,
//	}
//	out, err := p.Run(ctx, files)
package stream

import (
	"context"
	"errors"

	"github.com/matzehuels/imgflow/pkg/vfile"
)

// Stage is one step of a pipeline.
//
// Transform may be called concurrently for different files. Flush is called
// once, after the last Transform.
type Stage interface {
	Name() string
	Transform(ctx context.Context, f *vfile.File) ([]*vfile.File, error)
	Flush(ctx context.Context) ([]*vfile.File, error)
}

// ErrStreamingUnsupported is wrapped by stages that only handle buffered
// file contents.
var ErrStreamingUnsupported = errors.New("streaming is not supported")
