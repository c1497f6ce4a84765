package gridflow

import (
	"encoding/xml"
	"strconv"
)

// xlsxWorksheet maps xl/worksheets/sheetN.xml: the cell grid, row/column
// metadata, merged regions, conditional formatting, and data validation for
// one sheet (spec §4.3, §4.5).
type xlsxWorksheet struct {
	XMLName         xml.Name              `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main worksheet"`
	Cols            *xlsxCols             `xml:"cols"`
	SheetData       xlsxSheetData         `xml:"sheetData"`
	MergeCells      *xlsxMergeCells       `xml:"mergeCells"`
	ConditionalFmts []xlsxConditionalFmt  `xml:"conditionalFormatting"`
	DataValidations *xlsxDataValidations  `xml:"dataValidations"`
}

type xlsxCols struct {
	Col []xlsxCol `xml:"col"`
}

type xlsxCol struct {
	Min        int     `xml:"min,attr"`
	Max        int     `xml:"max,attr"`
	Width      float64 `xml:"width,attr,omitempty"`
	CustomW    bool    `xml:"customWidth,attr,omitempty"`
	Hidden     bool    `xml:"hidden,attr,omitempty"`
	OutlineLvl int     `xml:"outlineLevel,attr,omitempty"`
}

type xlsxSheetData struct {
	Row []xlsxRow `xml:"row"`
}

type xlsxRow struct {
	R          int        `xml:"r,attr"`
	Ht         float64    `xml:"ht,attr,omitempty"`
	CustomHt   bool       `xml:"customHeight,attr,omitempty"`
	Hidden     bool       `xml:"hidden,attr,omitempty"`
	OutlineLvl int        `xml:"outlineLevel,attr,omitempty"`
	C          []xlsxCell `xml:"c"`
}

// xlsxCell maps a <c> element. R is the A1 cell reference, T the value type
// code ("s" shared string, "str" formula-cached string, "b" boolean, "e"
// error, or empty for number), S the style id, F the formula body, V the
// value payload (spec §4.5).
type xlsxCell struct {
	R string  `xml:"r,attr"`
	S uint32  `xml:"s,attr,omitempty"`
	T string  `xml:"t,attr,omitempty"`
	F *string `xml:"f"`
	V string  `xml:"v"`
}

type xlsxMergeCells struct {
	Count int                `xml:"count,attr"`
	Cell  []xlsxMergeCellRef `xml:"mergeCell"`
}

type xlsxMergeCellRef struct {
	Ref string `xml:"ref,attr"`
}

type xlsxConditionalFmt struct {
	SQRef string        `xml:"sqref,attr"`
	Rule  []xlsxCFRule  `xml:"cfRule"`
}

type xlsxCFRule struct {
	Type     string   `xml:"type,attr"`
	DxfID    int      `xml:"dxfId,attr"`
	Priority int      `xml:"priority,attr"`
	Operator string   `xml:"operator,attr,omitempty"`
	Formula  []string `xml:"formula"`
}

type xlsxDataValidations struct {
	Count int                   `xml:"count,attr"`
	DV    []xlsxDataValidation  `xml:"dataValidation"`
}

type xlsxDataValidation struct {
	Type         string `xml:"type,attr,omitempty"`
	Operator     string `xml:"operator,attr,omitempty"`
	AllowBlank   bool   `xml:"allowBlank,attr,omitempty"`
	ShowErrorMsg bool   `xml:"showErrorMessage,attr,omitempty"`
	ErrorTitle   string `xml:"errorTitle,attr,omitempty"`
	Error        string `xml:"error,attr,omitempty"`
	SQRef        string `xml:"sqref,attr"`
	Formula1     string `xml:"formula1,omitempty"`
	Formula2     string `xml:"formula2,omitempty"`
}

var cellErrorToXML = map[CellErrorKind]string{
	ErrNull:        "#NULL!",
	ErrDiv0:        "#DIV/0!",
	ErrValue:       "#VALUE!",
	ErrRef:         "#REF!",
	ErrName:        "#NAME?",
	ErrNum:         "#NUM!",
	ErrNA:          "#N/A",
	ErrGettingData: "#GETTING_DATA",
	ErrSpill:       "#SPILL!",
	ErrCalc:        "#CALC!",
}

// encodeWorksheetXML renders one worksheet's cell grid, formulas, and
// metadata, resolving shared-string indices against pool (spec §4.5).
func encodeWorksheetXML(s *Worksheet, dxfIDs map[string]int) ([]byte, error) {
	xw := xlsxWorksheet{}
	if cols := s.coalesceColumns(); len(cols) > 0 {
		xc := &xlsxCols{}
		for _, run := range cols {
			xc.Col = append(xc.Col, xlsxCol{
				Min: run.Min + 1, Max: run.Max + 1,
				Width: run.Meta.Width, CustomW: run.Meta.CustomW,
				Hidden: run.Meta.Hidden, OutlineLvl: run.Meta.OutlineLvl,
			})
		}
		xw.Cols = xc
	}
	for _, rowIdx := range s.sortedRowKeys() {
		r := s.rows[rowIdx]
		xr := xlsxRow{R: rowIdx + 1}
		if m, ok := s.rowMeta[rowIdx]; ok {
			xr.Ht, xr.CustomHt, xr.Hidden, xr.OutlineLvl = m.Height, m.CustomH, m.Hidden, m.OutlineLvl
		}
		for _, col := range r.sortedCols() {
			c := r.cells[col]
			addr := CellAddr{Row: rowIdx, Col: col}
			xc, err := encodeCell(addr, c)
			if err != nil {
				return nil, err
			}
			xr.C = append(xr.C, xc)
		}
		xw.SheetData.Row = append(xw.SheetData.Row, xr)
	}
	if len(s.merges) > 0 {
		mc := &xlsxMergeCells{Count: len(s.merges)}
		for _, m := range s.merges {
			mc.Cell = append(mc.Cell, xlsxMergeCellRef{Ref: m.Range.Format()})
		}
		xw.MergeCells = mc
	}
	for _, rule := range s.conditionalFormats {
		dxfID := dxfIDs[styleKey(rule.DXF)]
		xw.ConditionalFmts = append(xw.ConditionalFmts, xlsxConditionalFmt{
			SQRef: rule.Range.Format(),
			Rule: []xlsxCFRule{{
				Type: rule.Type, DxfID: dxfID, Priority: rule.Priority,
				Operator: rule.Operator,
				Formula:  nonEmptyStrings(rule.Operand1, rule.Operand2),
			}},
		})
	}
	if len(s.dataValidations) > 0 {
		dv := &xlsxDataValidations{Count: len(s.dataValidations)}
		for _, rule := range s.dataValidations {
			dv.DV = append(dv.DV, xlsxDataValidation{
				Type: rule.Type, Operator: rule.Operator, AllowBlank: rule.AllowBlank,
				ShowErrorMsg: rule.ErrorMessage != "", ErrorTitle: rule.ErrorTitle, Error: rule.ErrorMessage,
				SQRef: rule.Range.Format(), Formula1: rule.Formula1, Formula2: rule.Formula2,
			})
		}
		xw.DataValidations = dv
	}
	out, err := xml.Marshal(xw)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding worksheet %q", s.name)
	}
	return append([]byte(xml.Header), out...), nil
}

func nonEmptyStrings(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func encodeCell(addr CellAddr, c *Cell) (xlsxCell, error) {
	xc := xlsxCell{R: addr.Format(), S: c.StyleID}
	v := c.Value
	if v.Kind == KindFormula {
		f := v.Formula.Text
		xc.F = &f
		v = v.Formula.Cached
	}
	switch v.Kind {
	case KindEmpty:
		// no <v>
	case KindNumber:
		xc.V = strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindBoolean:
		xc.T = "b"
		if v.Bool {
			xc.V = "1"
		} else {
			xc.V = "0"
		}
	case KindString:
		if c.Value.Kind == KindFormula {
			xc.T = "str"
			xc.V = escapeUnderscoreX(v.Str.Value())
		} else {
			xc.T = "s"
			xc.V = strconv.Itoa(v.Str.index)
		}
	case KindError:
		xc.T = "e"
		xc.V = cellErrorToXML[v.Err.Kind]
	}
	return xc, nil
}

// decodeWorksheetXML rebuilds a worksheet's cell grid from its XML part,
// resolving shared-string indices via pool and formulas by reparsing their
// stored text (spec §4.5). Formula cells are left NeedsRecalc so the next
// Calculate repopulates their cached value.
func decodeWorksheetXML(s *Worksheet, data []byte, pool *StringPool, dxfs []Style) error {
	var xw xlsxWorksheet
	if err := xml.Unmarshal(data, &xw); err != nil {
		return wrapError(ErrCorruptFile, err, "parsing worksheet %q", s.name)
	}
	if xw.Cols != nil {
		for _, col := range xw.Cols.Col {
			for ci := col.Min - 1; ci <= col.Max-1; ci++ {
				s.colMeta[ci] = &ColMeta{Width: col.Width, CustomW: col.CustomW, Hidden: col.Hidden, OutlineLvl: col.OutlineLvl}
			}
		}
	}
	for _, xr := range xw.SheetData.Row {
		rowIdx := xr.R - 1
		if xr.Ht != 0 || xr.CustomHt || xr.Hidden || xr.OutlineLvl != 0 {
			s.rowMeta[rowIdx] = &RowMeta{Height: xr.Ht, CustomH: xr.CustomHt, Hidden: xr.Hidden, OutlineLvl: xr.OutlineLvl}
		}
		for _, xc := range xr.C {
			addr, err := ParseAddress(xc.R)
			if err != nil {
				return wrapError(ErrCorruptFile, err, "bad cell reference %q in worksheet %q", xc.R, s.name)
			}
			val, err := decodeCellValue(xc, pool)
			if err != nil {
				return err
			}
			r := s.rowFor(addr.Row)
			r.cells[addr.Col] = &Cell{Value: val, StyleID: xc.S}
		}
	}
	if xw.MergeCells != nil {
		for _, mc := range xw.MergeCells.Cell {
			rng, err := ParseRange(mc.Ref)
			if err == nil {
				s.merges = append(s.merges, MergedRegion{Range: rng})
			}
		}
	}
	for _, cf := range xw.ConditionalFmts {
		rng, err := ParseRange(cf.SQRef)
		if err != nil || len(cf.Rule) == 0 {
			continue
		}
		rule := cf.Rule[0]
		var op1, op2 string
		if len(rule.Formula) > 0 {
			op1 = rule.Formula[0]
		}
		if len(rule.Formula) > 1 {
			op2 = rule.Formula[1]
		}
		cfr := ConditionalFormatRule{
			Range: rng, Type: rule.Type, Operator: rule.Operator,
			Operand1: op1, Operand2: op2, Priority: rule.Priority,
		}
		if rule.DxfID >= 0 && rule.DxfID < len(dxfs) {
			cfr.DXF = dxfs[rule.DxfID]
		}
		s.conditionalFormats = append(s.conditionalFormats, cfr)
	}
	if xw.DataValidations != nil {
		for _, dv := range xw.DataValidations.DV {
			rng, err := ParseRange(dv.SQRef)
			if err != nil {
				continue
			}
			s.dataValidations = append(s.dataValidations, DataValidationRule{
				Range: rng, Type: dv.Type, Operator: dv.Operator, Formula1: dv.Formula1, Formula2: dv.Formula2,
				AllowBlank: dv.AllowBlank, ErrorTitle: dv.ErrorTitle, ErrorMessage: dv.Error,
			})
		}
	}
	return nil
}

func decodeCellValue(xc xlsxCell, pool *StringPool) (CellValue, error) {
	if xc.F != nil {
		ast, err := parseFormula(*xc.F)
		fc := &FormulaCell{Text: *xc.F, NeedsRecalc: true}
		if err == nil {
			fc.ast = ast
			fc.Volatile = formulaIsVolatile(ast)
		}
		plain := xc
		plain.F = nil
		if cached, err := decodeCellValue(plain, pool); err == nil {
			fc.Cached = cached
		}
		return CellValue{Kind: KindFormula, Formula: fc}, nil
	}
	switch xc.T {
	case "s":
		idx, err := strconv.Atoi(xc.V)
		if err != nil {
			return CellValue{}, wrapError(ErrCorruptFile, err, "bad shared string index %q", xc.V)
		}
		ss, ok := pool.Lookup(idx)
		if !ok {
			return CellValue{}, newError(ErrCorruptFile, "shared string index %d out of range", idx)
		}
		return StringValue(ss), nil
	case "str":
		return StringValue(pool.Intern(decodeEscapes(xc.V))), nil
	case "b":
		return BoolValue(xc.V == "1"), nil
	case "e":
		if ce, ok := ParseCellError(xc.V); ok {
			return CellValue{Kind: KindError, Err: ce}, nil
		}
		return ErrorValue(ErrValue), nil
	default:
		if xc.V == "" {
			return EmptyValue, nil
		}
		n, err := strconv.ParseFloat(xc.V, 64)
		if err != nil {
			return CellValue{}, wrapError(ErrCorruptFile, err, "bad numeric cell value %q", xc.V)
		}
		return NumberValue(n), nil
	}
}
