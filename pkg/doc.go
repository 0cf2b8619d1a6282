// Package pkg provides the core libraries for imgflow image processing.
//
// # Overview
//
// imgflow turns a tree of source images into a tree of web-ready outputs. Files
// flow through a sequence of stages; each stage receives one in-memory file at
// a time and may emit zero or more files. The pkg directory is organized into
// three areas:
//
//  1. Stages - [responsive], [svg] and [imagemin]
//  2. Plumbing - [vfile], [stream] and [transform]
//  3. Infrastructure - [cache], [errors], [observability] and [buildinfo]
//
// # Architecture
//
// The typical data flow through imgflow:
//
//	Source files (glob)
//	         ↓
//	    [stream] package (read into [vfile.File] values)
//	         ↓
//	    stages ([responsive], [svg], [imagemin])
//	         ↓
//	    [stream] package (write under the destination)
//
// # Quick Start
//
// Generate a 320px wide variant of every matched image:
//
//	width := responsive.Pixels(320)
//	cfg := responsive.FromPatterns(
//	    responsive.Pattern("*.png", responsive.ImageOptions{Width: &width}),
//	)
//	engine, _ := responsive.NewEngine(cfg, responsive.ImageOptions{}, responsive.DefaultOptions())
//
//	files, _ := stream.Glob(cwd, "src", "**/*.png")
//	p := stream.Pipeline{Stages: []stream.Stage{engine}}
//	out, _ := p.Run(ctx, files)
//	stream.WriteAll("dist", out)
//
// # Main Packages
//
// [responsive] - Config-driven variant generation: matches file paths against
// glob patterns, resolves size specs and renames, and reports unmatched images
// and unused config entries.
//
// [transform] - Image decode, resize, flatten and encode on top of
// disintegration/imaging, with a cached wrapper.
//
// [svg] - SVG rasterization (tdewolff/canvas or rsvg-convert) and SVG
// minification (tdewolff/minify) with svgo-style plugin configuration.
//
// [imagemin] - Lossless optimization through external binaries and the
// in-process SVG optimizer.
//
// [cache] - File, Redis and null caches for rendered variants and optimizer
// output.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/responsive/  # Specific package
//	go test -run Example       # Examples only
//
// [responsive]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/responsive
// [svg]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/svg
// [imagemin]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/imagemin
// [vfile]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/vfile
// [vfile.File]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/vfile#File
// [stream]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/stream
// [transform]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/transform
// [cache]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/imgflow/pkg/buildinfo
package pkg
