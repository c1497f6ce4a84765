package gridflow

import (
	"math"
	"strconv"
	"strings"
)

// evalCtx carries the state an evaluation needs beyond the AST itself: which
// workbook/sheet/cell is being evaluated, for resolving unqualified
// references and for the legacy implicit-intersection rule (spec §4.4.4).
type evalCtx struct {
	wb      *Workbook
	sheet   int
	current CellAddr
}

// evalFormula evaluates ast in the context of the cell at addr on sheet
// sheetIndex, reducing the result to a scalar CellValue suitable for
// Formula.Cached.
func evalFormula(wb *Workbook, sheetIndex int, addr CellAddr, ast Node) CellValue {
	ctx := &evalCtx{wb: wb, sheet: sheetIndex, current: addr}
	fv := eval(ast, ctx)
	return formulaValueToCellValue(wb, fv)
}

func formulaValueToCellValue(wb *Workbook, fv FormulaValue) CellValue {
	switch fv.Kind {
	case FVEmpty:
		return EmptyValue
	case FVNumber:
		return NumberValue(fv.Num)
	case FVBoolean:
		return BoolValue(fv.Bool)
	case FVError:
		return CellValue{Kind: KindError, Err: fv.Err}
	case FVString:
		return StringValue(wb.Strings.Intern(fv.Str))
	case FVArray:
		if len(fv.Array) > 0 && len(fv.Array[0]) > 0 {
			return formulaValueToCellValue(wb, fv.Array[0][0])
		}
		return EmptyValue
	case FVRange:
		return reduceRangeToScalarCell(wb, fv.Range)
	default:
		return EmptyValue
	}
}

func reduceRangeToScalarCell(wb *Workbook, r *evalRange) CellValue {
	if r.addr.Width() == 1 && r.addr.Height() == 1 {
		return cellValueView(r.sheet, r.addr.Start)
	}
	return CellValue{Kind: KindError, Err: CellError{Kind: ErrValue}}
}

// cellValueView returns a cell's externally-observable value: for a formula
// cell that is its cached result, never the formula text itself.
func cellValueView(s *Worksheet, addr CellAddr) CellValue {
	v := s.Get(addr)
	if v.Kind == KindFormula {
		return v.Formula.Cached
	}
	return v
}

func cellValueToFormulaValue(cv CellValue) FormulaValue {
	switch cv.Kind {
	case KindEmpty:
		return fvEmpty
	case KindBoolean:
		return fvBool(cv.Bool)
	case KindNumber:
		return fvNumber(cv.Number)
	case KindString:
		return fvString(cv.Str.Value())
	case KindError:
		return fvError(cv.Err.Kind)
	default:
		return fvEmpty
	}
}

func (ctx *evalCtx) resolveSheet(name string) (*Worksheet, int, error) {
	if name == "" {
		return ctx.wb.sheets[ctx.sheet], ctx.sheet, nil
	}
	for i, s := range ctx.wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s, i, nil
		}
	}
	return nil, 0, newError(ErrInvalidReference, "unknown sheet %q", name)
}

// eval is the tree-walking evaluator (spec §4.4.4).
func eval(n Node, ctx *evalCtx) FormulaValue {
	switch t := n.(type) {
	case NumberNode:
		return fvNumber(t.Value)
	case StringNode:
		return fvString(t.Value)
	case BooleanNode:
		return fvBool(t.Value)
	case ErrorLiteralNode:
		return fvError(t.Kind)
	case CellRefNode:
		s, _, err := ctx.resolveSheet(t.Sheet)
		if err != nil {
			return fvError(ErrRef)
		}
		return cellValueToFormulaValue(cellValueView(s, t.Addr))
	case RangeRefNode:
		s, idx, err := ctx.resolveSheet(t.Sheet)
		if err != nil {
			return fvError(ErrRef)
		}
		return FormulaValue{Kind: FVRange, Range: &evalRange{sheet: s, sheetIndex: idx, addr: t.Range}}
	case NameRefNode:
		ref, ok := ctx.wb.names[strings.ToUpper(t.Name)]
		if !ok {
			return fvError(ErrName)
		}
		s, idx, err := ctx.resolveSheet(ref.Sheet)
		if err != nil {
			return fvError(ErrRef)
		}
		return FormulaValue{Kind: FVRange, Range: &evalRange{sheet: s, sheetIndex: idx, addr: ref.Range}}
	case UnaryOpNode:
		return evalUnary(t, ctx)
	case AtIntersectionNode:
		return evalIntersection(eval(t.Operand, ctx), ctx)
	case BinaryOpNode:
		return evalBinary(t, ctx)
	case FunctionNode:
		return callFunction(t.Name, t.Args, ctx)
	case ArrayNode:
		rows := make([][]FormulaValue, len(t.Rows))
		for i, row := range t.Rows {
			rows[i] = make([]FormulaValue, len(row))
			for j, elem := range row {
				rows[i][j] = eval(elem, ctx)
			}
		}
		return FormulaValue{Kind: FVArray, Array: rows}
	default:
		return fvError(ErrValue)
	}
}

func evalUnary(t UnaryOpNode, ctx *evalCtx) FormulaValue {
	v := eval(t.Operand, ctx)
	switch t.Op {
	case "+":
		n, ferr, ok := toNumber(v)
		if !ok {
			return ferr
		}
		return fvNumber(n)
	case "-":
		n, ferr, ok := toNumber(v)
		if !ok {
			return ferr
		}
		return fvNumber(-n)
	case "%":
		n, ferr, ok := toNumber(v)
		if !ok {
			return ferr
		}
		return fvNumber(n / 100)
	default:
		return fvError(ErrValue)
	}
}

// evalIntersection implements the implicit-intersection reducer: a
// multi-cell range collapses to the single cell sharing the current row or
// column, or #VALUE! if none does (spec §4.4.4, §9 Open Question 2).
func evalIntersection(v FormulaValue, ctx *evalCtx) FormulaValue {
	if v.Kind != FVRange {
		return v
	}
	r := v.Range
	if r.addr.Width() == 1 && r.addr.Height() == 1 {
		return cellValueToFormulaValue(cellValueView(r.sheet, r.addr.Start))
	}
	if r.sheetIndex == ctx.sheet {
		if r.addr.Width() == 1 && ctx.current.Row >= r.addr.Start.Row && ctx.current.Row <= r.addr.End.Row {
			return cellValueToFormulaValue(cellValueView(r.sheet, CellAddr{Row: ctx.current.Row, Col: r.addr.Start.Col}))
		}
		if r.addr.Height() == 1 && ctx.current.Col >= r.addr.Start.Col && ctx.current.Col <= r.addr.End.Col {
			return cellValueToFormulaValue(cellValueView(r.sheet, CellAddr{Row: r.addr.Start.Row, Col: ctx.current.Col}))
		}
	}
	return fvError(ErrValue)
}

func evalBinary(t BinaryOpNode, ctx *evalCtx) FormulaValue {
	if t.Op == ":" {
		return evalRangeJoin(t, ctx)
	}
	left := evalIntersection(eval(t.Left, ctx), ctx)
	if left.Kind == FVError {
		return left
	}
	right := evalIntersection(eval(t.Right, ctx), ctx)
	if right.Kind == FVError {
		return right
	}
	switch t.Op {
	case "&":
		return fvString(toDisplayString(left) + toDisplayString(right))
	case "=", "<>", "<", "<=", ">", ">=":
		return compareFormulaValues(t.Op, left, right)
	default:
		ln, lerr, ok := toNumber(left)
		if !ok {
			return lerr
		}
		rn, rerr, ok := toNumber(right)
		if !ok {
			return rerr
		}
		switch t.Op {
		case "+":
			return fvNumber(ln + rn)
		case "-":
			return fvNumber(ln - rn)
		case "*":
			return fvNumber(ln * rn)
		case "/":
			if rn == 0 {
				return fvError(ErrDiv0)
			}
			return fvNumber(ln / rn)
		case "^":
			return fvNumber(math.Pow(ln, rn))
		default:
			return fvError(ErrValue)
		}
	}
}

// evalRangeJoin combines two reference operands joined by ':' into the
// bounding RangeRef they describe (A1:B2). Operands that resolve to
// different sheets yield #REF!.
func evalRangeJoin(t BinaryOpNode, ctx *evalCtx) FormulaValue {
	lr, ok := referenceOperand(t.Left, ctx)
	if !ok {
		return fvError(ErrRef)
	}
	rr, ok := referenceOperand(t.Right, ctx)
	if !ok {
		return fvError(ErrRef)
	}
	if lr.sheetIndex != rr.sheetIndex {
		return fvError(ErrRef)
	}
	start := lr.addr.Start
	end := rr.addr.End
	if rr.addr.End.Row < start.Row {
		start.Row, end.Row = rr.addr.End.Row, lr.addr.Start.Row
	}
	if rr.addr.End.Col < start.Col {
		start.Col, end.Col = rr.addr.End.Col, lr.addr.Start.Col
	}
	return FormulaValue{Kind: FVRange, Range: &evalRange{sheet: lr.sheet, sheetIndex: lr.sheetIndex, addr: RangeAddr{Start: start, End: end}}}
}

func referenceOperand(n Node, ctx *evalCtx) (*evalRange, bool) {
	switch t := n.(type) {
	case CellRefNode:
		s, idx, err := ctx.resolveSheet(t.Sheet)
		if err != nil {
			return nil, false
		}
		return &evalRange{sheet: s, sheetIndex: idx, addr: RangeAddr{Start: t.Addr, End: t.Addr}}, true
	case RangeRefNode:
		s, idx, err := ctx.resolveSheet(t.Sheet)
		if err != nil {
			return nil, false
		}
		return &evalRange{sheet: s, sheetIndex: idx, addr: t.Range}, true
	default:
		v := eval(n, ctx)
		if v.Kind == FVRange {
			return v.Range, true
		}
		return nil, false
	}
}

// toNumber coerces a FormulaValue to a number per spec §4.4.4: Boolean ->
// 0/1, String -> exact numeric parse or #VALUE!, Empty -> 0, Error
// propagates, Array/Range are invalid in scalar arithmetic context here
// (callers reduce them first via evalIntersection).
func toNumber(v FormulaValue) (float64, FormulaValue, bool) {
	switch v.Kind {
	case FVNumber:
		return v.Num, FormulaValue{}, true
	case FVBoolean:
		if v.Bool {
			return 1, FormulaValue{}, true
		}
		return 0, FormulaValue{}, true
	case FVEmpty:
		return 0, FormulaValue{}, true
	case FVString:
		trimmed := v.Str
		if trimmed != strings.TrimSpace(trimmed) {
			return 0, fvError(ErrValue), false
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fvError(ErrValue), false
		}
		return n, FormulaValue{}, true
	case FVError:
		return 0, v, false
	default:
		return 0, fvError(ErrValue), false
	}
}

func toDisplayString(v FormulaValue) string {
	switch v.Kind {
	case FVString:
		return v.Str
	case FVNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case FVBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case FVError:
		return v.Err.String()
	default:
		return ""
	}
}

// typeRank orders FormulaValue kinds for cross-type comparison: Number <
// String < Boolean (spec §4.4.4).
func typeRank(v FormulaValue) int {
	switch v.Kind {
	case FVNumber:
		return 0
	case FVString:
		return 1
	case FVBoolean:
		return 2
	default:
		return 3
	}
}

func compareFormulaValues(op string, a, b FormulaValue) FormulaValue {
	var cmp int
	if typeRank(a) != typeRank(b) {
		if typeRank(a) < typeRank(b) {
			cmp = -1
		} else {
			cmp = 1
		}
	} else {
		switch a.Kind {
		case FVNumber:
			switch {
			case a.Num < b.Num:
				cmp = -1
			case a.Num > b.Num:
				cmp = 1
			}
		case FVString:
			as, bs := strings.ToLower(a.Str), strings.ToLower(b.Str)
			cmp = strings.Compare(as, bs)
		case FVBoolean:
			switch {
			case a.Bool == b.Bool:
				cmp = 0
			case !a.Bool:
				cmp = -1
			default:
				cmp = 1
			}
		case FVEmpty:
			cmp = 0
		}
	}
	var result bool
	switch op {
	case "=":
		result = cmp == 0
	case "<>":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return fvBool(result)
}
