package gridflow

// ValueKind tags the variant held by a CellValue.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindBoolean
	KindNumber
	KindString
	KindError
	KindFormula
)

// CellValue is the tagged-variant cell payload described in spec §3.1.
// Only the field matching Kind is meaningful. String values are
// SharedString references into the workbook's string pool; Formula values
// carry the source text plus a cached last value and a dirty flag.
type CellValue struct {
	Kind    ValueKind
	Bool    bool
	Number  float64
	Str     *SharedString
	Err     CellError
	Formula *FormulaCell
}

// FormulaCell holds a formula's source text, its compiled AST, and the
// cached result of the last calculation. Invariant (spec §3.1): Cached
// is either Empty (never evaluated) or a non-formula value.
type FormulaCell struct {
	Text        string // without the leading '='
	ast         Node   // parsed when the formula is stored; nil if the text failed to parse
	Cached      CellValue
	NeedsRecalc bool
	Volatile    bool
}

// Empty reports whether the value is the empty/absent cell value.
func (v CellValue) Empty() bool { return v.Kind == KindEmpty }

// EmptyValue is the canonical Empty CellValue.
var EmptyValue = CellValue{Kind: KindEmpty}

// BoolValue constructs a Boolean CellValue.
func BoolValue(b bool) CellValue { return CellValue{Kind: KindBoolean, Bool: b} }

// NumberValue constructs a Number CellValue.
func NumberValue(n float64) CellValue { return CellValue{Kind: KindNumber, Number: n} }

// ErrorValue constructs an Error CellValue.
func ErrorValue(kind CellErrorKind) CellValue { return CellValue{Kind: KindError, Err: CellError{Kind: kind}} }

// StringValue constructs a String CellValue from an interned shared string.
func StringValue(s *SharedString) CellValue { return CellValue{Kind: KindString, Str: s} }

// FormulaValue is the result of evaluating a formula AST (spec §4.4.4). It is
// distinct from CellValue: it additionally carries Array and Range variants
// that only exist transiently during evaluation, never as a stored cell
// value (a formula cell's Cached field always holds the scalar-reduced
// result).
type FormulaValue struct {
	Kind  FormulaValueKind
	Bool  bool
	Num   float64
	Str   string
	Err   CellError
	Array [][]FormulaValue
	Range *evalRange
}

// FormulaValueKind tags the FormulaValue variant.
type FormulaValueKind int

const (
	FVEmpty FormulaValueKind = iota
	FVNumber
	FVString
	FVBoolean
	FVError
	FVArray
	FVRange
)

func fvNumber(n float64) FormulaValue { return FormulaValue{Kind: FVNumber, Num: n} }
func fvString(s string) FormulaValue  { return FormulaValue{Kind: FVString, Str: s} }
func fvBool(b bool) FormulaValue      { return FormulaValue{Kind: FVBoolean, Bool: b} }
func fvError(k CellErrorKind) FormulaValue {
	return FormulaValue{Kind: FVError, Err: CellError{Kind: k}}
}

var fvEmpty = FormulaValue{Kind: FVEmpty}

// evalRange is the transient range-reference result used while evaluating a
// RangeRef AST node before it reduces to a scalar or array.
type evalRange struct {
	sheet      *Worksheet
	sheetIndex int
	addr       RangeAddr
}
