package gridflow

// MergedRegion is a rectangular block of ≥ 2 cells rendered as one cell
// anchored at its top-left corner (spec §3.1).
type MergedRegion struct {
	Range RangeAddr
}

// Anchor returns the merged region's top-left cell, the cell Excel treats as
// holding the region's displayed value.
func (m MergedRegion) Anchor() CellAddr { return m.Range.Start }

// Merge adds a new merged region, failing with OverlapConflict (modeled as
// ErrInvalidArgument, spec §4.3) if it overlaps an existing region or spans
// fewer than two cells.
func (s *Worksheet) Merge(r RangeAddr) error {
	if r.Width()*r.Height() < 2 {
		return newError(ErrInvalidArgument, "merge range %s spans fewer than 2 cells", r.Format())
	}
	for _, existing := range s.merges {
		if existing.Range.Overlaps(r) {
			return newError(ErrInvalidArgument, "merge range %s overlaps existing merge %s", r.Format(), existing.Range.Format())
		}
	}
	s.merges = append(s.merges, MergedRegion{Range: r})
	return nil
}

// Unmerge removes the merged region exactly matching r, if any.
func (s *Worksheet) Unmerge(r RangeAddr) error {
	for i, existing := range s.merges {
		if existing.Range == r {
			s.merges = append(s.merges[:i], s.merges[i+1:]...)
			return nil
		}
	}
	return newError(ErrInvalidArgument, "no merged region matching %s", r.Format())
}

// MergedRegions returns the worksheet's merged regions in insertion order,
// the order the writer must preserve (spec §4.5).
func (s *Worksheet) MergedRegions() []MergedRegion { return s.merges }
