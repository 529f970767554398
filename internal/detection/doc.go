// Package detection finds a known logo on a rendered page.
//
// It holds the pieces shared by every detector:
//
//   - the template library: reference logos loaded from a directory,
//     border-trimmed, converted to grayscale and resized to several fixed
//     widths, each variant carrying its own edge map;
//   - the footer band locator, which finds a coloured horizontal bar near the
//     bottom of the page;
//   - search zones, pixel rectangles that restrict where matching happens;
//   - the template matcher and its plausibility gate.
//
// A job picks one [Detector] variant up front from its [Mode]: template
// matching ([TemplateDetector]) or an external vision classifier
// ([ProbeDetector], in ai-probe or ai-cut flavour).
//
// # Coordinate System
//
// All coordinates are raster pixels with the origin at the top-left corner.
// Zones and boxes include their top-left edge and exclude the bottom-right.
package detection
