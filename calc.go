package gridflow

import "sort"

// CalcOptions configures Calculate's handling of circular references (spec
// §4.4.5 steps 5-6).
type CalcOptions struct {
	Iterative     bool
	MaxIterations int
	MaxChange     float64
}

// DefaultCalcOptions matches Excel's own defaults for iterative calculation.
var DefaultCalcOptions = CalcOptions{Iterative: false, MaxIterations: 100, MaxChange: 0.001}

// CircularReferenceError is the operation error Calculate returns when a
// non-iterative pass finds a cycle (spec §9, Open Question 1): every
// participating cell is also assigned cell error #CALC!, so both error
// planes observe the failure.
type CircularReferenceError struct {
	Cycle []CellAddr
}

func (e *CircularReferenceError) Error() string {
	return newError(ErrCircularReference, "circular reference detected (%d cells)", len(e.Cycle)).Error()
}

// Calculate recalculates every dirty cell (plus every volatile formula)
// using default options (spec §6 "calculate()").
func (wb *Workbook) Calculate() error {
	return wb.CalculateWithOptions(DefaultCalcOptions)
}

// CalculateWithOptions runs the six-step driver described in spec §4.4.5.
func (wb *Workbook) CalculateWithOptions(opts CalcOptions) error {
	g := wb.depgraph

	// Step 1: collect dirty cells ∪ every volatile formula.
	dirty := make(map[cellKey]bool)
	for k := range g.dirty {
		dirty[k] = true
	}
	for sIdx, s := range wb.sheets {
		for row, r := range s.rows {
			for col, c := range r.cells {
				if c.Value.Kind == KindFormula && c.Value.Formula.Volatile {
					dirty[cellKey{Sheet: sIdx, Row: row, Col: col}] = true
				}
			}
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	// Step 2: topological order via Kahn's algorithm restricted to the
	// dirty set, ties broken by (sheet, row, col) ascending (spec §5).
	inDegree := make(map[cellKey]int)
	for c := range dirty {
		inDegree[c] = 0
	}
	for c := range dirty {
		for p := range g.precedents[c] {
			if dirty[p] {
				inDegree[c]++
			}
		}
	}

	ready := make([]cellKey, 0, len(dirty))
	for c, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, c)
		}
	}
	sortCellKeys(ready)

	var order []cellKey
	for len(ready) > 0 {
		sortCellKeys(ready)
		c := ready[0]
		ready = ready[1:]
		order = append(order, c)
		for dep := range g.dependents[c] {
			if !dirty[dep] {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	// Step 3: any cell with unresolved in-degree is part of a cycle.
	var cyclic []cellKey
	resolved := make(map[cellKey]bool, len(order))
	for _, c := range order {
		resolved[c] = true
	}
	for c := range dirty {
		if !resolved[c] {
			cyclic = append(cyclic, c)
		}
	}

	// Step 4: evaluate acyclic dirty cells in topological order.
	for _, key := range order {
		wb.recalcCell(key)
		delete(g.dirty, key)
	}

	if len(cyclic) == 0 {
		return nil
	}

	if !opts.Iterative {
		// Step 5: non-iterative cycle handling (spec §9, Open Question 1
		// resolution documented in DESIGN.md): assign #CALC! to every
		// participating cell and surface ErrCircularReference.
		sortCellKeys(cyclic)
		addrs := make([]CellAddr, len(cyclic))
		for i, k := range cyclic {
			addrs[i] = CellAddr{Row: k.Row, Col: k.Col}
			wb.sheets[k.Sheet].assignCalcError(addrs[i])
			delete(g.dirty, k)
		}
		return wrapError(ErrCircularReference, &CircularReferenceError{Cycle: addrs}, "calculate: circular reference")
	}

	// Step 6: iterative convergence over the cyclic sub-graph.
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}
	for iter := 0; iter < maxIter; iter++ {
		maxDelta := 0.0
		sortCellKeys(cyclic)
		for _, key := range cyclic {
			before := wb.cachedNumber(key)
			wb.recalcCell(key)
			after := wb.cachedNumber(key)
			delta := after - before
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
		}
		if maxDelta <= opts.MaxChange {
			break
		}
	}
	for _, k := range cyclic {
		delete(g.dirty, k)
	}
	return nil
}

func (wb *Workbook) cachedNumber(key cellKey) float64 {
	v := wb.sheets[key.Sheet].Get(CellAddr{Row: key.Row, Col: key.Col})
	if v.Kind == KindFormula && v.Formula.Cached.Kind == KindNumber {
		return v.Formula.Cached.Number
	}
	return 0
}

func (wb *Workbook) recalcCell(key cellKey) {
	s := wb.sheets[key.Sheet]
	addr := CellAddr{Row: key.Row, Col: key.Col}
	v := s.Get(addr)
	if v.Kind != KindFormula {
		return
	}
	result := evalFormula(wb, key.Sheet, addr, v.Formula.ast)
	v.Formula.Cached = result
	v.Formula.NeedsRecalc = false
}

// assignCalcError sets a cell's cached value to #CALC! without touching its
// formula AST, used for the cycle members of a non-iterative calculate.
func (s *Worksheet) assignCalcError(addr CellAddr) {
	v := s.Get(addr)
	if v.Kind != KindFormula {
		return
	}
	v.Formula.Cached = ErrorValue(ErrCalc)
	v.Formula.NeedsRecalc = true
}

func sortCellKeys(keys []cellKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Sheet != b.Sheet {
			return a.Sheet < b.Sheet
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
}
