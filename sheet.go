package gridflow

import "github.com/google/uuid"

// Worksheet owns a name, the sparse cell grid, merged regions, row/column
// metadata, conditional-formatting rules, data-validation rules, and cell
// comments (spec §3.1). A Worksheet is only ever constructed by its owning
// Workbook.
type Worksheet struct {
	name  string
	wb    *Workbook
	index int

	rows    map[int]*sheetRow
	rowMeta map[int]*RowMeta
	colMeta map[int]*ColMeta
	merges  []MergedRegion

	conditionalFormats []ConditionalFormatRule
	dataValidations    []DataValidationRule
	comments           map[CellAddr]*Comment
}

func newWorksheet(wb *Workbook, index int, name string) *Worksheet {
	return &Worksheet{
		name:     name,
		wb:       wb,
		index:    index,
		rows:     make(map[int]*sheetRow),
		rowMeta:  make(map[int]*RowMeta),
		colMeta:  make(map[int]*ColMeta),
		comments: make(map[CellAddr]*Comment),
	}
}

// Name returns the worksheet's name.
func (s *Worksheet) Name() string { return s.name }

// Comment is a cell-attached note (spec SPEC_FULL.md §3 supplemented
// feature), authored by a named user. ID is generated on first attach so
// comments can be referenced independently of their current cell address.
type Comment struct {
	ID     string
	Author string
	Text   string
}

// ConditionalFormatRule attaches a DXF-style Style to cells in Range whose
// values satisfy Operator/Operand1/Operand2 (spec §4.5). Priority controls
// the order rules are listed and evaluated in, lower numbers first.
type ConditionalFormatRule struct {
	Range    RangeAddr
	Type     string // "cellIs", "expression", ...
	Operator string // "greaterThan", "between", ...
	Operand1 string
	Operand2 string
	DXF      Style
	Priority int
}

// DataValidationRule restricts the values accepted in Range (spec
// SPEC_FULL.md §3 supplemented feature).
type DataValidationRule struct {
	Range        RangeAddr
	Type         string // "whole", "decimal", "list", "date", "textLength", "custom"
	Operator     string
	Formula1     string
	Formula2     string
	AllowBlank   bool
	ErrorTitle   string
	ErrorMessage string
}

func (s *Worksheet) rowFor(row int) *sheetRow {
	r, ok := s.rows[row]
	if !ok {
		r = newSheetRow()
		s.rows[row] = r
	}
	return r
}

// Get returns the value stored at addr, or EmptyValue if absent, without
// allocating (spec §4.3).
func (s *Worksheet) Get(addr CellAddr) CellValue {
	r, ok := s.rows[addr.Row]
	if !ok {
		return EmptyValue
	}
	c, ok := r.cells[addr.Col]
	if !ok {
		return EmptyValue
	}
	return c.Value
}

// GetStyleID returns the style id stored at addr, or 0 (the default style)
// if the cell is absent or was never explicitly styled.
func (s *Worksheet) GetStyleID(addr CellAddr) uint32 {
	r, ok := s.rows[addr.Row]
	if !ok {
		return 0
	}
	if c, ok := r.cells[addr.Col]; ok {
		return c.StyleID
	}
	return 0
}

// Set stores or clears the value at addr (spec §4.3). Storing EmptyValue
// removes the cell entirely so the sparse storage invariant holds. If the
// previous value was a formula its dependency edges are cleared first; a
// new formula's precedent edges are installed by SetFormula right after it
// calls Set. Every write, including a clear, marks addr's transitive
// dependents dirty (spec §4.4.5): a formula referencing addr must
// recalculate whether addr just changed value or was emptied out.
func (s *Worksheet) Set(addr CellAddr, value CellValue) error {
	if addr.Row < 0 || addr.Row > MaxRow || addr.Col < 0 || addr.Col > MaxCol {
		return newError(ErrOutOfBounds, "address %s out of range", addr.Format())
	}
	key := cellKey{Sheet: s.index, Row: addr.Row, Col: addr.Col}
	if prev := s.Get(addr); prev.Kind == KindFormula {
		s.wb.depgraph.clearPrecedents(key)
	}
	if value.Empty() {
		s.deleteCell(addr)
		s.wb.depgraph.markDependentsDirty(key)
		return nil
	}
	r := s.rowFor(addr.Row)
	styleID := uint32(0)
	if c, ok := r.cells[addr.Col]; ok {
		styleID = c.StyleID
	}
	r.cells[addr.Col] = &Cell{Value: value, StyleID: styleID}
	s.wb.depgraph.markDependentsDirty(key)
	return nil
}

// SetCell is an alias for Set matching the spec's set_cell naming (spec §6).
func (s *Worksheet) SetCell(addr CellAddr, value CellValue) error { return s.Set(addr, value) }

// GetCell is an alias for Get matching the spec's get_cell naming (spec §6).
func (s *Worksheet) GetCell(addr CellAddr) CellValue { return s.Get(addr) }

// GetCalculatedValue returns a formula cell's last-calculated value, or the
// cell's own value if it is not a formula (spec §6 "get_calculated_value").
func (s *Worksheet) GetCalculatedValue(addr CellAddr) CellValue {
	return cellValueView(s, addr)
}

// SetFormula installs a formula at addr from its surface text (without the
// leading '='). Parse failures are operation errors (spec §7); a formula
// that parses but fails at calculation time instead yields a cached cell
// error on the next Calculate.
func (s *Worksheet) SetFormula(addr CellAddr, text string) error {
	ast, err := parseFormula(text)
	if err != nil {
		return wrapError(ErrFormulaParse, err, "parsing formula at %s", addr.Format())
	}
	fc := &FormulaCell{Text: text, ast: ast, NeedsRecalc: true, Volatile: formulaIsVolatile(ast)}
	if err := s.Set(addr, CellValue{Kind: KindFormula, Formula: fc}); err != nil {
		return err
	}
	key := cellKey{Sheet: s.index, Row: addr.Row, Col: addr.Col}
	s.wb.depgraph.installPrecedents(key, ast, s)
	return nil
}

// SetCellStyle assigns a pooled style to addr, creating an Empty cell to
// hold it if the address was previously unstored.
func (s *Worksheet) SetCellStyle(addr CellAddr, style Style) error {
	if addr.Row < 0 || addr.Row > MaxRow || addr.Col < 0 || addr.Col > MaxCol {
		return newError(ErrOutOfBounds, "address %s out of range", addr.Format())
	}
	id := s.wb.Styles.GetOrInsert(style)
	r := s.rowFor(addr.Row)
	c, ok := r.cells[addr.Col]
	if !ok {
		c = &Cell{Value: EmptyValue}
		r.cells[addr.Col] = c
	}
	c.StyleID = id
	return nil
}

func (s *Worksheet) deleteCell(addr CellAddr) {
	r, ok := s.rows[addr.Row]
	if !ok {
		return
	}
	delete(r.cells, addr.Col)
	if len(r.cells) == 0 {
		delete(s.rows, addr.Row)
	}
}

// UsedRange returns the minimum bounding rectangle over all non-empty
// cells, and false if the sheet is empty (spec §4.3).
func (s *Worksheet) UsedRange() (RangeAddr, bool) {
	first := true
	var rng RangeAddr
	for row, r := range s.rows {
		for col, c := range r.cells {
			if c.Value.Empty() {
				continue
			}
			if first {
				rng = RangeAddr{Start: CellAddr{Row: row, Col: col}, End: CellAddr{Row: row, Col: col}}
				first = false
				continue
			}
			if row < rng.Start.Row {
				rng.Start.Row = row
			}
			if row > rng.End.Row {
				rng.End.Row = row
			}
			if col < rng.Start.Col {
				rng.Start.Col = col
			}
			if col > rng.End.Col {
				rng.End.Col = col
			}
		}
	}
	return rng, !first
}

// SetConditionalFormat inserts a conditional-formatting rule; rules are
// listed (and written back) in priority order, lower numbers first, with
// equal priorities kept in insertion order (spec §4.5).
func (s *Worksheet) SetConditionalFormat(rule ConditionalFormatRule) {
	i := len(s.conditionalFormats)
	for i > 0 && s.conditionalFormats[i-1].Priority > rule.Priority {
		i--
	}
	s.conditionalFormats = append(s.conditionalFormats, ConditionalFormatRule{})
	copy(s.conditionalFormats[i+1:], s.conditionalFormats[i:])
	s.conditionalFormats[i] = rule
}

// SetDataValidation appends a data-validation rule.
func (s *Worksheet) SetDataValidation(rule DataValidationRule) {
	s.dataValidations = append(s.dataValidations, rule)
}

// SetComment attaches or replaces a comment at addr, assigning it a fresh
// ID unless the caller already provided one (e.g. when rehydrating from a
// read workbook).
func (s *Worksheet) SetComment(addr CellAddr, c Comment) {
	cc := c
	if cc.ID == "" {
		cc.ID = uuid.NewString()
	}
	s.comments[addr] = &cc
}

// sortedRowKeys returns the sheet's non-empty row indices in ascending
// order, the iteration order the XLSX writer requires (spec §4.3).
func (s *Worksheet) sortedRowKeys() []int {
	keys := make([]int, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	return sortedIntKeys(keys)
}
