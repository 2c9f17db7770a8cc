// Package layout fuses detection boxes and OCR text into an ordered page layout.
//
// A sketch of a webpage goes through two independent recognizers: a detector
// that labels UI regions (navbar, hero, button, ...) and an OCR engine that
// returns recognized words with polygon boxes. This package combines the two
// into a single Layout record and keeps a persisted history of layouts keyed
// by image filename.
//
// # Pipeline
//
//  1. Attach: every text fragment goes to the first element whose box contains
//     the fragment's centroid, or to the unassigned list.
//  2. Cluster: elements are grouped into horizontal sections by vertical
//     center and ordered left to right inside each section.
//  3. History: the layout is merged into the multi-image history document.
//
// # Coordinate System
//
// Boxes are (x1, y1, x2, y2) with the origin at the top-left corner. The
// detector and the OCR engine must agree on the space: either both
// normalized to 0-1 ("normalized_xyxy") or both in pixels. The section gap
// is expressed in the same units.
//
// # Tie-Breaking
//
// Overlapping element boxes resolve by detection order (first match wins) and
// a new element joins the earliest-created section within the gap (first fit).
// Both rules are fixed; downstream consumers rely on the resulting order.
//
// # Ordering
//
// Cluster returns elements sorted by (center y, center x). Inside a section
// that order can differ from left-to-right order: a button drawn slightly
// higher comes first in the slice even when it sits to the right. The
// SectionIndex and OrderInSection stamps carry the reading order and are kept
// independent of slice position.
package layout
