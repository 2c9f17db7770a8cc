package layout

// Attach assigns each text fragment to the element whose box contains the
// fragment's centroid.
//
// Elements are scanned in the order given and the first containing element
// wins; overlapping boxes therefore resolve by detection order. Fragments that
// fall inside no element are returned in OCR order as unassigned.
//
// The returned elements are copies with a fresh Texts list, so the caller's
// detection result is never modified. Every fragment ends up in exactly one
// place: some element's Texts or the unassigned list.
func Attach(elements []DetectedElement, fragments []TextFragment) ([]DetectedElement, []TextFragment) {
	annotated := make([]DetectedElement, len(elements))
	for i, el := range elements {
		annotated[i] = el.clone()
		annotated[i].Texts = []TextFragment{}
	}

	unassigned := []TextFragment{}
	for _, frag := range fragments {
		c := frag.BBox.Centroid()
		placed := false
		for i := range annotated {
			if annotated[i].BBox.Contains(c) {
				annotated[i].Texts = append(annotated[i].Texts, frag)
				placed = true
				break
			}
		}
		if !placed {
			unassigned = append(unassigned, frag)
		}
	}

	return annotated, unassigned
}
