package gridflow

import (
	"bytes"
	"os"
	"strings"
	"time"
)

// Format selects which codec LoadBytes/SaveBytes use.
type Format int

const (
	FormatXLSX Format = iota
	FormatCSV
)

const maxSheetNameLen = 31

// Workbook owns an ordered sequence of worksheets, the shared-string pool,
// the style pool, and the named-range table (spec §3.1).
type Workbook struct {
	sheets   []*Worksheet
	Strings  *StringPool
	Styles   *StylePool
	names    map[string]SheetRef
	depgraph *depGraph
	nowFunc  func() time.Time
}

// New constructs a workbook with a single default sheet named "Sheet1"
// (spec §3.1 "the default sheet (index 0) exists immediately after
// construction").
func New() *Workbook {
	wb := &Workbook{
		Strings:  NewStringPool(),
		Styles:   NewStylePool(),
		names:    make(map[string]SheetRef),
		depgraph: newDepGraph(),
	}
	wb.addSheetLocked("Sheet1")
	return wb
}

// Open reads an XLSX workbook from path (spec §6 "open(path)"). The file is
// always decoded as XLSX; its extension is not inspected. CSV has no native multi-sheet
// workbook representation, so CSV files must go through LoadBytes with an
// explicit Format instead.
func Open(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(ErrIO, err, "opening %q", path)
	}
	return ReadXLSX(data)
}

// LoadBytes parses data as format into a new Workbook (spec §6
// "load_bytes(bytes, format)"). FormatCSV populates a single sheet named
// "Sheet1" using DefaultCSVReadOptions.
func LoadBytes(data []byte, format Format) (*Workbook, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(data)
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data), DefaultCSVReadOptions)
	default:
		return nil, newError(ErrInvalidArgument, "unknown workbook format %d", format)
	}
}

// Save writes wb as an XLSX package to path (spec §6 "save(path)").
func (wb *Workbook) Save(path string) error {
	data, err := EncodeXLSX(wb)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapError(ErrIO, err, "saving %q", path)
	}
	return nil
}

// SaveBytes serializes wb in format and returns the resulting bytes (spec §6
// "save_bytes(format) -> bytes"). FormatCSV serializes only the first sheet,
// since CSV has no multi-sheet representation.
func (wb *Workbook) SaveBytes(format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return EncodeXLSX(wb)
	case FormatCSV:
		sheet, err := wb.Worksheet(0)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := WriteCSV(sheet, &buf, DefaultCSVWriteOptions); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, newError(ErrInvalidArgument, "unknown workbook format %d", format)
	}
}

func (wb *Workbook) clock() time.Time {
	if wb.nowFunc != nil {
		return wb.nowFunc()
	}
	return time.Now().UTC()
}

// SheetCount returns the number of worksheets.
func (wb *Workbook) SheetCount() int { return len(wb.sheets) }

// SheetNames returns worksheet names in sheet order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

// AddSheet appends a new worksheet, generating a name ("SheetN") if name is
// empty, and returns its index. Fails with InvalidArgument if name
// duplicates an existing sheet case-insensitively or exceeds 31 characters
// (spec §3.1).
func (wb *Workbook) AddSheet(name string) (int, error) {
	if name == "" {
		name = wb.nextDefaultName()
	}
	if len(name) > maxSheetNameLen {
		return 0, newError(ErrInvalidArgument, "sheet name %q exceeds %d characters", name, maxSheetNameLen)
	}
	if _, ok := wb.sheetIndexByName(name); ok {
		return 0, newError(ErrInvalidArgument, "duplicate sheet name %q", name)
	}
	return wb.addSheetLocked(name), nil
}

func (wb *Workbook) addSheetLocked(name string) int {
	idx := len(wb.sheets)
	wb.sheets = append(wb.sheets, newWorksheet(wb, idx, name))
	return idx
}

func (wb *Workbook) nextDefaultName() string {
	for n := len(wb.sheets) + 1; ; n++ {
		name := "Sheet" + itoa(n)
		if _, ok := wb.sheetIndexByName(name); !ok {
			return name
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

// RemoveSheet deletes the worksheet at index, shifting later sheets down
// and renumbering their stored indices. The dependency graph is keyed by
// cellKey{Sheet: ...}, so every sheet whose index shifts would otherwise
// leave stale precedent/dependent/dirty entries pointing at the wrong sheet;
// RemoveSheet rebuilds the graph from the surviving formulas afterward
// (spec §3.1, §4.4.5) rather than trying to rekey it edge by edge.
func (wb *Workbook) RemoveSheet(index int) error {
	if index < 0 || index >= len(wb.sheets) {
		return newError(ErrOutOfBounds, "sheet index %d out of range", index)
	}
	if len(wb.sheets) == 1 {
		return newError(ErrInvalidArgument, "cannot remove the only worksheet")
	}
	wb.sheets = append(wb.sheets[:index], wb.sheets[index+1:]...)
	for i, s := range wb.sheets {
		s.index = i
	}
	wb.rebuildDepGraph()
	return nil
}

// rebuildDepGraph discards the current dependency graph and reinstalls
// precedent edges for every formula cell in the workbook using each sheet's
// current index, then marks every formula cell dirty so the next Calculate
// recomputes from scratch. Used after an operation (such as RemoveSheet)
// that changes sheet indices out from under the graph's cellKey entries.
func (wb *Workbook) rebuildDepGraph() {
	wb.depgraph = newDepGraph()
	for sIdx, s := range wb.sheets {
		for row, r := range s.rows {
			for col, c := range r.cells {
				if c.Value.Kind != KindFormula {
					continue
				}
				key := cellKey{Sheet: sIdx, Row: row, Col: col}
				wb.depgraph.installPrecedents(key, c.Value.Formula.ast, s)
				wb.depgraph.markDirty(key)
				c.Value.Formula.NeedsRecalc = true
			}
		}
	}
}

// Worksheet returns the worksheet at a 0-based index or matching name
// case-insensitively.
func (wb *Workbook) Worksheet(indexOrName interface{}) (*Worksheet, error) {
	switch v := indexOrName.(type) {
	case int:
		if v < 0 || v >= len(wb.sheets) {
			return nil, newError(ErrOutOfBounds, "sheet index %d out of range", v)
		}
		return wb.sheets[v], nil
	case string:
		if idx, ok := wb.sheetIndexByName(v); ok {
			return wb.sheets[idx], nil
		}
		return nil, newError(ErrInvalidReference, "unknown sheet %q", v)
	default:
		return nil, newError(ErrInvalidArgument, "worksheet selector must be an int or string")
	}
}

func (wb *Workbook) sheetIndexByName(name string) (int, bool) {
	for i, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return i, true
		}
	}
	return 0, false
}

// DefineName registers a workbook-scoped named range (spec §6).
func (wb *Workbook) DefineName(name, refersTo string) error {
	ref, err := ParseSheetRef(refersTo)
	if err != nil {
		return err
	}
	wb.names[strings.ToUpper(name)] = ref
	return nil
}

// GetNamedRange resolves a previously-defined name.
func (wb *Workbook) GetNamedRange(name string) (SheetRef, error) {
	ref, ok := wb.names[strings.ToUpper(name)]
	if !ok {
		return SheetRef{}, newError(ErrInvalidReference, "undefined name %q", name)
	}
	return ref, nil
}

// Clone deep-copies the entire workbook, including its style pool, string
// pool, and every worksheet's cells and metadata, so mutating the clone
// never affects the original (spec SPEC_FULL.md §3 supplemented feature).
// Formula ASTs are not shared across the clone: each formula cell's AST is
// reparsed from its text while the clone is built, matching the "no implicit
// sharing of compiled ASTs across cells" rule in spec §9.
func (wb *Workbook) Clone() *Workbook {
	out := &Workbook{
		Strings:  NewStringPool(),
		Styles:   wb.Styles.clone(),
		names:    make(map[string]SheetRef, len(wb.names)),
		depgraph: newDepGraph(),
	}
	for k, v := range wb.names {
		out.names[k] = v
	}
	out.sheets = make([]*Worksheet, len(wb.sheets))
	for i, s := range wb.sheets {
		out.sheets[i] = s.cloneInto(out, i)
	}
	return out
}

func (s *Worksheet) cloneInto(wb *Workbook, index int) *Worksheet {
	out := newWorksheet(wb, index, s.name)
	for row, r := range s.rows {
		nr := newSheetRow()
		for col, c := range r.cells {
			value := c.Value
			if value.Kind == KindString {
				value = StringValue(wb.Strings.Intern(value.Str.Value()))
			}
			if value.Kind == KindFormula {
				fc := *value.Formula
				fc.ast = nil
				fc.NeedsRecalc = true
				value.Formula = &fc
			}
			nr.cells[col] = &Cell{Value: value, StyleID: c.StyleID}
		}
		out.rows[row] = nr
	}
	for row, m := range s.rowMeta {
		mm := *m
		out.rowMeta[row] = &mm
	}
	for col, m := range s.colMeta {
		mm := *m
		out.colMeta[col] = &mm
	}
	out.merges = append([]MergedRegion(nil), s.merges...)
	out.conditionalFormats = append([]ConditionalFormatRule(nil), s.conditionalFormats...)
	out.dataValidations = append([]DataValidationRule(nil), s.dataValidations...)
	for addr, c := range s.comments {
		cc := *c
		out.comments[addr] = &cc
	}
	for row, r := range out.rows {
		for col, c := range r.cells {
			if c.Value.Kind == KindFormula {
				ast, err := parseFormula(c.Value.Formula.Text)
				if err == nil {
					c.Value.Formula.ast = ast
					wb.depgraph.installPrecedents(cellKey{Sheet: index, Row: row, Col: col}, ast, out)
				}
			}
		}
	}
	return out
}
