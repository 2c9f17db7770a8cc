// Package detection finds UI elements in webpage sketches.
//
// Two detectors implement layout.Detector:
//
//   - Sketch: a heuristic detector for hand-drawn mockups. It needs no model.
//   - File: reads boxes produced by an external detection model, stored as
//     JSON next to the image or at a fixed path.
//
// # Sketch Algorithm
//
//  1. Threshold: gray levels below the threshold are ink (bild/segment).
//  2. Dilate: strokes are thickened so gaps in hand-drawn lines close
//     (bild/effect).
//  3. Components: ink pixels are grouped into 8-connected components.
//  4. Filtering: components smaller than MinWidth x MinHeight are dropped.
//  5. Classification: a component whose bounding box is outlined by ink is a
//     drawn box and is labeled by position and shape (Navbar, Footer, Hero,
//     Button, Image, Container); anything else is handwriting ("Text").
//
// The border coverage used for classification is reported as Confidence.
//
// # Coordinate System
//
// Boxes are (x1, y1, x2, y2) with the origin at the top-left corner, x2 and
// y2 exclusive. By default they are normalized to 0-1 by the image size
// ("normalized_xyxy"); with Pixel set they stay in pixels ("pixel_xyxy").
// The OCR stage must be configured for the same format.
//
// # Ordering
//
// Sketch reports elements smallest first. Text fusion attaches a word to the
// first element containing it, so a button drawn inside a hero claims its own
// caption.
//
// # Limitations
//
// Shapes that touch merge into one component, and a box whose outline has a
// gap wider than the dilation radius is treated as handwriting.
package detection
