package gridflow

// RowMeta holds per-row metadata that overrides the worksheet default. A
// zero RowMeta means "unchanged from workbook default" (spec §4.3).
type RowMeta struct {
	Height     float64
	CustomH    bool
	Hidden     bool
	OutlineLvl int
}

// ColMeta holds per-column metadata that overrides the worksheet default.
type ColMeta struct {
	Width      float64
	CustomW    bool
	Hidden     bool
	OutlineLvl int
}

// SetRowHeight upserts height metadata for a 0-based row. height <= 0 clears
// the custom height, reverting to the worksheet default.
func (s *Worksheet) SetRowHeight(row int, height float64) error {
	if row < 0 || row > MaxRow {
		return newError(ErrOutOfBounds, "row %d out of range", row)
	}
	if height <= 0 {
		if m, ok := s.rowMeta[row]; ok {
			m.Height = 0
			m.CustomH = false
			if (*m) == (RowMeta{}) {
				delete(s.rowMeta, row)
			}
		}
		return nil
	}
	m := s.rowMetaFor(row)
	m.Height = height
	m.CustomH = true
	return nil
}

// SetColumnWidth upserts width metadata for a 0-based column.
func (s *Worksheet) SetColumnWidth(col int, width float64) error {
	if col < 0 || col > MaxCol {
		return newError(ErrOutOfBounds, "column %d out of range", col)
	}
	if width <= 0 {
		if m, ok := s.colMeta[col]; ok {
			m.Width = 0
			m.CustomW = false
			if (*m) == (ColMeta{}) {
				delete(s.colMeta, col)
			}
		}
		return nil
	}
	m := s.colMetaFor(col)
	m.Width = width
	m.CustomW = true
	return nil
}

// HideRow marks a 0-based row hidden or shown.
func (s *Worksheet) HideRow(row int, hidden bool) error {
	if row < 0 || row > MaxRow {
		return newError(ErrOutOfBounds, "row %d out of range", row)
	}
	s.rowMetaFor(row).Hidden = hidden
	return nil
}

// HideColumn marks a 0-based column hidden or shown.
func (s *Worksheet) HideColumn(col int, hidden bool) error {
	if col < 0 || col > MaxCol {
		return newError(ErrOutOfBounds, "column %d out of range", col)
	}
	s.colMetaFor(col).Hidden = hidden
	return nil
}

func (s *Worksheet) rowMetaFor(row int) *RowMeta {
	m, ok := s.rowMeta[row]
	if !ok {
		m = &RowMeta{}
		s.rowMeta[row] = m
	}
	return m
}

func (s *Worksheet) colMetaFor(col int) *ColMeta {
	m, ok := s.colMeta[col]
	if !ok {
		m = &ColMeta{}
		s.colMeta[col] = m
	}
	return m
}

// coalescedColRun is a contiguous inclusive column range sharing one ColMeta,
// the shape the writer emits a single <col min max> element for (spec §4.5).
type coalescedColRun struct {
	Min, Max int
	Meta     ColMeta
}

// coalesceColumns groups contiguous columns with identical metadata into
// runs, in ascending column order.
func (s *Worksheet) coalesceColumns() []coalescedColRun {
	if len(s.colMeta) == 0 {
		return nil
	}
	cols := sortedIntKeys(intKeysOfColMeta(s.colMeta))
	var runs []coalescedColRun
	for _, c := range cols {
		meta := *s.colMeta[c]
		if n := len(runs); n > 0 && runs[n-1].Max == c-1 && runs[n-1].Meta == meta {
			runs[n-1].Max = c
			continue
		}
		runs = append(runs, coalescedColRun{Min: c, Max: c, Meta: meta})
	}
	return runs
}

func intKeysOfColMeta(m map[int]*ColMeta) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
