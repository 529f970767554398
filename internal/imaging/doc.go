// Package imaging provides the raster primitives used by logo detection and redaction.
//
// This package owns the pixel-space representation of a rendered page (PageBitmap),
// the binary edge signature used for shape matching (EdgeMap), reference image
// loading and normalization, colour sampling around candidate regions, and the
// debug preview renderer.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with the origin at the top-left:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (Min.X, Min.Y) is inclusive and (Max.X, Max.Y) is exclusive
//
// Document-space coordinates (origin bottom-left, point units) live in the
// geometry package; nothing here knows about them.
//
// # Thread Safety
//
// PageBitmap and EdgeMap values are immutable once produced and may be shared
// read-only between goroutines. The ImageCache type is safe for concurrent use.
//
// # Colour Representation
//
// Sampled colours are returned as colorful.Color values with components in the
// 0..1 range, which is what both the footer colour signature and the compositor
// consume.
package imaging
