// Package imagemin losslessly shrinks images in a stream pipeline.
//
// A [Minifier] runs every file whose extension is in
// [Options.ValidExtensions] through the [Plugin] values that handle it, in
// order. Output that is not smaller than the input is discarded, so a file
// never grows. Savings are accumulated in [Stats] and logged at flush:
//
//	Minified images: 12 (saved 1.4 MB - 37.5%)
//
// # Plugins
//
// The built-in plugins mirror the usual imagemin set:
//
//   - gifsicle, jpegtran, optipng: external binaries run by [ExecPlugin]
//   - svgo: in-process SVG optimization by [SVGPlugin]
//
// A plugin whose binary is not installed is logged and skipped. Setting
// [Options.Cache] stores plugin output keyed by plugin and content hash.
package imagemin
