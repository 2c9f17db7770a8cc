package layout

import (
	"math"
	"sort"
)

// DefaultSectionGap is the vertical distance, in normalized units, within
// which an element joins an existing section (about 8% of image height).
const DefaultSectionGap = 0.08

// section is a clustering bucket. Only the stamps it leaves on elements
// survive clustering.
type section struct {
	cy      float64   // mean of every center that joined
	centers []float64 // full history, so the mean is recomputed, not chased
	members []int     // indices into the sorted slice, insertion order
}

func (s *section) add(idx int, cy float64) {
	s.members = append(s.members, idx)
	s.centers = append(s.centers, cy)
	var sum float64
	for _, c := range s.centers {
		sum += c
	}
	s.cy = sum / float64(len(s.centers))
}

// Cluster groups elements into horizontal sections and stamps SectionIndex
// and OrderInSection on each one.
//
// # Algorithm
//
//  1. Sort by (center y, center x). This is also the iteration order.
//  2. Walk the sorted elements once. Each element joins the first section,
//     in creation order, whose running mean center is within gap of the
//     element's center (inclusive). Otherwise it opens a new section.
//  3. Inside each section, order members by center x.
//  4. SectionIndex is the section's creation position; OrderInSection is the
//     member's position after step 3.
//
// The running mean is taken over all centers that ever joined the section,
// so a growing section recenters gradually while a distant element still
// opens its own band.
//
// The result is returned in step 1 order, not in reading order. Consumers
// that need reading order must use the stamped fields (see Sections).
//
// The input slice is not modified; the returned elements are copies.
func Cluster(elements []DetectedElement, gap float64) []DetectedElement {
	if len(elements) == 0 {
		return elements
	}

	sorted := make([]DetectedElement, len(elements))
	for i, el := range elements {
		sorted[i] = el.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].BBox.Center(), sorted[j].BBox.Center()
		if ci.Y() != cj.Y() {
			return ci.Y() < cj.Y()
		}
		return ci.X() < cj.X()
	})

	sections := make([]*section, 0)
	for i := range sorted {
		cy := sorted[i].BBox.Center().Y()
		placed := false
		for _, s := range sections {
			if math.Abs(s.cy-cy) <= gap {
				s.add(i, cy)
				placed = true
				break
			}
		}
		if !placed {
			s := &section{}
			s.add(i, cy)
			sections = append(sections, s)
		}
	}

	for sIdx, s := range sections {
		sort.SliceStable(s.members, func(a, b int) bool {
			return sorted[s.members[a]].BBox.Center().X() < sorted[s.members[b]].BBox.Center().X()
		})
		for order, idx := range s.members {
			si, oi := sIdx, order
			sorted[idx].SectionIndex = &si
			sorted[idx].OrderInSection = &oi
		}
	}

	return sorted
}

// Sections regroups clustered elements by their stamps: one slice per
// section, each ordered by OrderInSection. Elements without stamps are
// skipped.
func Sections(elements []DetectedElement) [][]DetectedElement {
	count := 0
	for _, el := range elements {
		if el.SectionIndex != nil && *el.SectionIndex+1 > count {
			count = *el.SectionIndex + 1
		}
	}
	out := make([][]DetectedElement, count)
	for _, el := range elements {
		if el.SectionIndex == nil || el.OrderInSection == nil {
			continue
		}
		out[*el.SectionIndex] = append(out[*el.SectionIndex], el)
	}
	for _, group := range out {
		sort.SliceStable(group, func(i, j int) bool {
			return *group[i].OrderInSection < *group[j].OrderInSection
		})
	}
	return out
}
