package gridflow

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// funcDef describes a registered function's arity and volatility (spec
// §4.4.4): "Functions declare {min_args, max_args?, volatile}."
type funcDef struct {
	minArgs  int
	maxArgs  int // -1 means unbounded
	volatile bool
	call     func(args []Node, ctx *evalCtx) FormulaValue
}

var functionRegistry map[string]funcDef

func init() {
	functionRegistry = map[string]funcDef{
		"SUM":           {0, -1, false, fnSum},
		"AVERAGE":       {1, -1, false, fnAverage},
		"MIN":           {0, -1, false, fnMin},
		"MAX":           {0, -1, false, fnMax},
		"COUNT":         {0, -1, false, fnCount},
		"IF":            {2, 3, false, fnIf},
		"AND":           {1, -1, false, fnAnd},
		"OR":            {1, -1, false, fnOr},
		"NOT":           {1, 1, false, fnNot},
		"LEN":           {1, 1, false, fnLen},
		"LEFT":          {1, 2, false, fnLeft},
		"RIGHT":         {1, 2, false, fnRight},
		"MID":           {3, 3, false, fnMid},
		"LOWER":         {1, 1, false, fnLower},
		"UPPER":         {1, 1, false, fnUpper},
		"TRIM":          {1, 1, false, fnTrim},
		"CONCAT":        {0, -1, false, fnConcatenate},
		"CONCATENATE":   {0, -1, false, fnConcatenate},
		"DATE":          {3, 3, false, fnDate},
		"YEAR":          {1, 1, false, fnYear},
		"MONTH":         {1, 1, false, fnMonth},
		"DAY":           {1, 1, false, fnDay},
		"NOW":           {0, 0, true, fnNow},
		"TODAY":         {0, 0, true, fnToday},
		"INDEX":         {2, 3, false, fnIndex},
		"MATCH":         {2, 3, false, fnMatch},
		"VLOOKUP":       {3, 4, false, fnVlookup},
		"ISBLANK":       {1, 1, false, fnIsBlank},
		"ISNUMBER":      {1, 1, false, fnIsNumber},
		"ISTEXT":        {1, 1, false, fnIsText},
		"ISERROR":       {1, 1, false, fnIsError},
		"ISNA":          {1, 1, false, fnIsNA},
		"NA":            {0, 0, false, fnNA},
		"RAND":          {0, 0, true, fnRand},
		"RANDBETWEEN":   {2, 2, true, fnRandBetween},
	}
}

// formulaIsVolatile scans a compiled AST for a call to a registered volatile
// function (spec §4.4.4, §9 "Volatile functions").
func formulaIsVolatile(n Node) bool {
	switch t := n.(type) {
	case FunctionNode:
		if def, ok := functionRegistry[t.Name]; ok && def.volatile {
			return true
		}
		for _, a := range t.Args {
			if formulaIsVolatile(a) {
				return true
			}
		}
	case BinaryOpNode:
		return formulaIsVolatile(t.Left) || formulaIsVolatile(t.Right)
	case UnaryOpNode:
		return formulaIsVolatile(t.Operand)
	case AtIntersectionNode:
		return formulaIsVolatile(t.Operand)
	case ArrayNode:
		for _, row := range t.Rows {
			for _, e := range row {
				if formulaIsVolatile(e) {
					return true
				}
			}
		}
	}
	return false
}

func callFunction(name string, args []Node, ctx *evalCtx) FormulaValue {
	def, ok := functionRegistry[name]
	if !ok {
		return fvError(ErrName)
	}
	if len(args) < def.minArgs || (def.maxArgs >= 0 && len(args) > def.maxArgs) {
		return fvError(ErrValue)
	}
	return def.call(args, ctx)
}

// numericIterate evaluates each argument, flattening ranges/arrays into
// scalars, and calls visit for every numeric cell encountered. Non-numeric,
// non-error cells are silently skipped (spec §4.4.4 "Aggregators ... iterate
// the range, ignoring Empty and non-numeric cells"). Any Error cell makes
// the whole aggregation short-circuit with that error.
func numericIterate(args []Node, ctx *evalCtx, visit func(float64)) *FormulaValue {
	var err *FormulaValue
	each := func(v FormulaValue) bool {
		switch v.Kind {
		case FVNumber:
			visit(v.Num)
		case FVError:
			e := v
			err = &e
			return false
		}
		return true
	}
	for _, a := range args {
		v := eval(a, ctx)
		if !forEachScalar(v, ctx, each) {
			break
		}
		if err != nil {
			break
		}
	}
	return err
}

// forEachScalar flattens a FormulaValue (scalar, array, or range) into its
// constituent scalars in row-major order, calling visit for each; stops
// early if visit returns false.
func forEachScalar(v FormulaValue, ctx *evalCtx, visit func(FormulaValue) bool) bool {
	switch v.Kind {
	case FVRange:
		for row := v.Range.addr.Start.Row; row <= v.Range.addr.End.Row; row++ {
			for col := v.Range.addr.Start.Col; col <= v.Range.addr.End.Col; col++ {
				cv := cellValueToFormulaValue(cellValueView(v.Range.sheet, CellAddr{Row: row, Col: col}))
				if !visit(cv) {
					return false
				}
			}
		}
		return true
	case FVArray:
		for _, row := range v.Array {
			for _, elem := range row {
				if !visit(elem) {
					return false
				}
			}
		}
		return true
	default:
		return visit(v)
	}
}

func fnSum(args []Node, ctx *evalCtx) FormulaValue {
	sum := 0.0
	if err := numericIterate(args, ctx, func(n float64) { sum += n }); err != nil {
		return *err
	}
	return fvNumber(sum)
}

func fnAverage(args []Node, ctx *evalCtx) FormulaValue {
	sum, count := 0.0, 0
	if err := numericIterate(args, ctx, func(n float64) { sum += n; count++ }); err != nil {
		return *err
	}
	if count == 0 {
		return fvError(ErrDiv0)
	}
	return fvNumber(sum / float64(count))
}

func fnMin(args []Node, ctx *evalCtx) FormulaValue {
	min, seen := math.Inf(1), false
	if err := numericIterate(args, ctx, func(n float64) {
		if !seen || n < min {
			min = n
		}
		seen = true
	}); err != nil {
		return *err
	}
	if !seen {
		return fvNumber(0)
	}
	return fvNumber(min)
}

func fnMax(args []Node, ctx *evalCtx) FormulaValue {
	max, seen := math.Inf(-1), false
	if err := numericIterate(args, ctx, func(n float64) {
		if !seen || n > max {
			max = n
		}
		seen = true
	}); err != nil {
		return *err
	}
	if !seen {
		return fvNumber(0)
	}
	return fvNumber(max)
}

func fnCount(args []Node, ctx *evalCtx) FormulaValue {
	count := 0
	numericIterate(args, ctx, func(float64) { count++ })
	return fvNumber(float64(count))
}

func fnIf(args []Node, ctx *evalCtx) FormulaValue {
	cond := evalIntersection(eval(args[0], ctx), ctx)
	b, ok := toBool(cond)
	if !ok {
		return cond
	}
	if b {
		return evalIntersection(eval(args[1], ctx), ctx)
	}
	if len(args) == 3 {
		return evalIntersection(eval(args[2], ctx), ctx)
	}
	return fvBool(false)
}

func toBool(v FormulaValue) (bool, bool) {
	switch v.Kind {
	case FVBoolean:
		return v.Bool, true
	case FVNumber:
		return v.Num != 0, true
	case FVString:
		up := strings.ToUpper(v.Str)
		if up == "TRUE" {
			return true, true
		}
		if up == "FALSE" {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func fnAnd(args []Node, ctx *evalCtx) FormulaValue {
	result := true
	var err *FormulaValue
	for _, a := range args {
		forEachScalar(evalIntersection(eval(a, ctx), ctx), ctx, func(v FormulaValue) bool {
			if v.Kind == FVError {
				e := v
				err = &e
				return false
			}
			b, ok := toBool(v)
			if ok && !b {
				result = false
			}
			return true
		})
		if err != nil {
			return *err
		}
	}
	return fvBool(result)
}

func fnOr(args []Node, ctx *evalCtx) FormulaValue {
	result := false
	var err *FormulaValue
	for _, a := range args {
		forEachScalar(evalIntersection(eval(a, ctx), ctx), ctx, func(v FormulaValue) bool {
			if v.Kind == FVError {
				e := v
				err = &e
				return false
			}
			b, ok := toBool(v)
			if ok && b {
				result = true
			}
			return true
		})
		if err != nil {
			return *err
		}
	}
	return fvBool(result)
}

func fnNot(args []Node, ctx *evalCtx) FormulaValue {
	v := evalIntersection(eval(args[0], ctx), ctx)
	b, ok := toBool(v)
	if !ok {
		return fvError(ErrValue)
	}
	return fvBool(!b)
}

func argString(args []Node, i int, ctx *evalCtx) (string, *FormulaValue) {
	v := evalIntersection(eval(args[i], ctx), ctx)
	if v.Kind == FVError {
		return "", &v
	}
	return toDisplayString(v), nil
}

func argNumber(args []Node, i int, ctx *evalCtx) (float64, *FormulaValue) {
	v := evalIntersection(eval(args[i], ctx), ctx)
	n, ferr, ok := toNumber(v)
	if !ok {
		return 0, &ferr
	}
	return n, nil
}

func fnLen(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvNumber(float64(len([]rune(s))))
}

func fnLeft(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	n := 1.0
	if len(args) == 2 {
		v, err := argNumber(args, 1, ctx)
		if err != nil {
			return *err
		}
		n = v
	}
	r := []rune(s)
	if int(n) > len(r) {
		n = float64(len(r))
	}
	if n < 0 {
		return fvError(ErrValue)
	}
	return fvString(string(r[:int(n)]))
}

func fnRight(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	n := 1.0
	if len(args) == 2 {
		v, err := argNumber(args, 1, ctx)
		if err != nil {
			return *err
		}
		n = v
	}
	r := []rune(s)
	if int(n) > len(r) {
		n = float64(len(r))
	}
	if n < 0 {
		return fvError(ErrValue)
	}
	return fvString(string(r[len(r)-int(n):]))
}

func fnMid(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	start, err := argNumber(args, 1, ctx)
	if err != nil {
		return *err
	}
	count, err := argNumber(args, 2, ctx)
	if err != nil {
		return *err
	}
	r := []rune(s)
	from := int(start) - 1
	if from < 0 || int(count) < 0 {
		return fvError(ErrValue)
	}
	if from >= len(r) {
		return fvString("")
	}
	to := from + int(count)
	if to > len(r) {
		to = len(r)
	}
	return fvString(string(r[from:to]))
}

func fnLower(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvString(strings.ToLower(s))
}

func fnUpper(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvString(strings.ToUpper(s))
}

func fnTrim(args []Node, ctx *evalCtx) FormulaValue {
	s, err := argString(args, 0, ctx)
	if err != nil {
		return *err
	}
	fields := strings.Fields(s)
	return fvString(strings.Join(fields, " "))
}

func fnConcatenate(args []Node, ctx *evalCtx) FormulaValue {
	var sb strings.Builder
	for i := range args {
		s, err := argString(args, i, ctx)
		if err != nil {
			return *err
		}
		sb.WriteString(s)
	}
	return fvString(sb.String())
}

// excelEpoch is day 0 of the 1900 date system: 1899-12-30 (the numfmt
// package performs the inverse conversion for display).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func fnDate(args []Node, ctx *evalCtx) FormulaValue {
	y, err := argNumber(args, 0, ctx)
	if err != nil {
		return *err
	}
	m, err := argNumber(args, 1, ctx)
	if err != nil {
		return *err
	}
	d, err := argNumber(args, 2, ctx)
	if err != nil {
		return *err
	}
	t := time.Date(int(y), time.Month(int(m)), int(d), 0, 0, 0, 0, time.UTC)
	serial := t.Sub(excelEpoch).Hours() / 24
	return fvNumber(math.Round(serial))
}

func serialToTime(serial float64) time.Time {
	return excelEpoch.Add(time.Duration(serial*24) * time.Hour)
}

func fnYear(args []Node, ctx *evalCtx) FormulaValue {
	n, err := argNumber(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvNumber(float64(serialToTime(n).Year()))
}

func fnMonth(args []Node, ctx *evalCtx) FormulaValue {
	n, err := argNumber(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvNumber(float64(serialToTime(n).Month()))
}

func fnDay(args []Node, ctx *evalCtx) FormulaValue {
	n, err := argNumber(args, 0, ctx)
	if err != nil {
		return *err
	}
	return fvNumber(float64(serialToTime(n).Day()))
}

func fnNow(args []Node, ctx *evalCtx) FormulaValue {
	now := ctx.wb.clock()
	serial := now.Sub(excelEpoch).Hours() / 24
	return fvNumber(serial)
}

func fnToday(args []Node, ctx *evalCtx) FormulaValue {
	now := ctx.wb.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	serial := today.Sub(excelEpoch).Hours() / 24
	return fvNumber(math.Round(serial))
}

func fnIndex(args []Node, ctx *evalCtx) FormulaValue {
	rangeVal := eval(args[0], ctx)
	if rangeVal.Kind != FVRange {
		return fvError(ErrValue)
	}
	rowN, err := argNumber(args, 1, ctx)
	if err != nil {
		return *err
	}
	colN := 1.0
	if len(args) == 3 {
		colN, err = argNumber(args, 2, ctx)
		if err != nil {
			return *err
		}
	}
	r := rangeVal.Range
	row := r.addr.Start.Row + int(rowN) - 1
	col := r.addr.Start.Col + int(colN) - 1
	if row < r.addr.Start.Row || row > r.addr.End.Row || col < r.addr.Start.Col || col > r.addr.End.Col {
		return fvError(ErrRef)
	}
	return cellValueToFormulaValue(cellValueView(r.sheet, CellAddr{Row: row, Col: col}))
}

func fnMatch(args []Node, ctx *evalCtx) FormulaValue {
	target := evalIntersection(eval(args[0], ctx), ctx)
	rangeVal := eval(args[1], ctx)
	if rangeVal.Kind != FVRange {
		return fvError(ErrValue)
	}
	matchType := 1.0
	if len(args) == 3 {
		n, err := argNumber(args, 2, ctx)
		if err != nil {
			return *err
		}
		matchType = n
	}
	r := rangeVal.Range
	idx := 0
	found := -1
	forEachScalar(rangeVal, ctx, func(v FormulaValue) bool {
		idx++
		cmp := compareFormulaValues("=", v, target)
		if matchType == 0 {
			if cmp.Bool {
				found = idx
				return false
			}
			return true
		}
		ord := compareFormulaValues("<=", v, target)
		if matchType > 0 && ord.Bool {
			found = idx
		}
		return true
	})
	_ = r
	if found < 0 {
		return fvError(ErrNA)
	}
	return fvNumber(float64(found))
}

func fnVlookup(args []Node, ctx *evalCtx) FormulaValue {
	target := evalIntersection(eval(args[0], ctx), ctx)
	rangeVal := eval(args[1], ctx)
	if rangeVal.Kind != FVRange {
		return fvError(ErrValue)
	}
	colIdx, err := argNumber(args, 2, ctx)
	if err != nil {
		return *err
	}
	r := rangeVal.Range
	for row := r.addr.Start.Row; row <= r.addr.End.Row; row++ {
		key := cellValueToFormulaValue(cellValueView(r.sheet, CellAddr{Row: row, Col: r.addr.Start.Col}))
		if compareFormulaValues("=", key, target).Bool {
			col := r.addr.Start.Col + int(colIdx) - 1
			if col > r.addr.End.Col {
				return fvError(ErrRef)
			}
			return cellValueToFormulaValue(cellValueView(r.sheet, CellAddr{Row: row, Col: col}))
		}
	}
	return fvError(ErrNA)
}

func fnIsBlank(args []Node, ctx *evalCtx) FormulaValue {
	v := eval(args[0], ctx)
	return fvBool(v.Kind == FVEmpty)
}

func fnIsNumber(args []Node, ctx *evalCtx) FormulaValue {
	v := evalIntersection(eval(args[0], ctx), ctx)
	return fvBool(v.Kind == FVNumber)
}

func fnIsText(args []Node, ctx *evalCtx) FormulaValue {
	v := evalIntersection(eval(args[0], ctx), ctx)
	return fvBool(v.Kind == FVString)
}

func fnIsError(args []Node, ctx *evalCtx) FormulaValue {
	v := evalIntersection(eval(args[0], ctx), ctx)
	return fvBool(v.Kind == FVError)
}

func fnIsNA(args []Node, ctx *evalCtx) FormulaValue {
	v := evalIntersection(eval(args[0], ctx), ctx)
	return fvBool(v.Kind == FVError && v.Err.Kind == ErrNA)
}

func fnNA(args []Node, ctx *evalCtx) FormulaValue {
	return fvError(ErrNA)
}

func fnRand(args []Node, ctx *evalCtx) FormulaValue {
	return fvNumber(rand.Float64())
}

func fnRandBetween(args []Node, ctx *evalCtx) FormulaValue {
	lo, err := argNumber(args, 0, ctx)
	if err != nil {
		return *err
	}
	hi, err := argNumber(args, 1, ctx)
	if err != nil {
		return *err
	}
	if hi < lo {
		return fvError(ErrNum)
	}
	return fvNumber(math.Floor(lo + rand.Float64()*(hi-lo+1)))
}
