// Package svg provides the SVG stages of a stream pipeline: rasterization
// (svg2img) and structural optimization (svgmin).
//
// # Rasterization
//
// [Converter] renders each SVG to PNG or JPEG. The output size comes from
// [ConvertOptions]: a missing side is derived from the document's aspect
// ratio ([Dimension]) and both sides are multiplied by Scale. Rendering is
// delegated to a [Rasterizer]: [CanvasRasterizer] renders in process,
// [RsvgRasterizer] shells out to rsvg-convert.
//
// # Optimization
//
// [Minifier] rewrites SVG files with a [MinifyOptimizer]. Its configuration
// is layered by [ResolveMinifyConfig]: an imgflow-svgmin.{yaml,yml,toml}
// file in the working directory (or an explicit file) is merged with the
// options given in code. Plugins are named after their svgo counterparts;
// removeComments, cleanupNumericValues and minifyStyles change the output,
// other names are accepted and ignored.
package svg
