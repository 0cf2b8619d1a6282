// Package responsive generates resized and reformatted variants of source
// images from a declarative configuration table.
//
// # Configuration
//
// A [Config] is supplied as a list of [ImageOptions] that carry their own
// name pattern, as a map from pattern to options, or as a map from pattern
// to a list of options (one variant each). [Normalize] flattens any of
// these into resolved [Entry] values, in input order, with the precedence
//
//	DefaultEntry < global options < entry options < pattern name
//
// [LoadConfig] reads the same shapes from TOML or YAML files.
//
// # Rendering
//
// The [Engine] is a stream stage. For every file it finds the entries whose
// pattern matches the file's relative path and renders one variant per
// entry through a [Renderer], concurrently. Sizes are absolute pixels or
// percentages of the source ([SizeSpec]). Output codecs come from the
// entry's format or the destination extension ([FormatFromPath]).
//
// # Policy
//
// [Options] decide what happens to files that match nothing, entries that
// match no file, and variants that would upscale their source. The
// defaults are strict: each of these fails the run.
package responsive
