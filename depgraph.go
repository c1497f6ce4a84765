package gridflow

import "strings"

// cellKey identifies a cell by (sheet, row, col) triple rather than by
// pointer, so the dependency graph holds no back-pointers into storage
// (spec §9 "Cyclic object graphs → indices").
type cellKey struct {
	Sheet, Row, Col int
}

// depGraph is the workbook-scoped bidirectional multimap of precedents and
// dependents (spec §3.1). dependents[p] is the set of cells whose formula
// reads p; precedents[c] is the set of cells c reads.
type depGraph struct {
	dependents map[cellKey]map[cellKey]bool
	precedents map[cellKey]map[cellKey]bool
	// rangeDependents maps a sheet to a list of (range, dependent) records,
	// so a write inside a previously-referenced range can find formulas
	// whose RangeRef covers the written cell without re-scanning every
	// formula (spec §4.4.5).
	rangeDependents map[int][]rangeDependent
	dirty           map[cellKey]bool
}

type rangeDependent struct {
	addr   RangeAddr
	dep    cellKey
}

func newDepGraph() *depGraph {
	return &depGraph{
		dependents:      make(map[cellKey]map[cellKey]bool),
		precedents:      make(map[cellKey]map[cellKey]bool),
		rangeDependents: make(map[int][]rangeDependent),
		dirty:           make(map[cellKey]bool),
	}
}

func (g *depGraph) addEdge(precedent, dependent cellKey) {
	if g.dependents[precedent] == nil {
		g.dependents[precedent] = make(map[cellKey]bool)
	}
	g.dependents[precedent][dependent] = true
	if g.precedents[dependent] == nil {
		g.precedents[dependent] = make(map[cellKey]bool)
	}
	g.precedents[dependent][precedent] = true
}

// clearPrecedents removes every edge where cell is the dependent, the first
// half of "replace that cell's precedent set atomically" (spec §3.1).
func (g *depGraph) clearPrecedents(cell cellKey) {
	for p := range g.precedents[cell] {
		delete(g.dependents[p], cell)
	}
	delete(g.precedents, cell)
	for sheet, deps := range g.rangeDependents {
		kept := deps[:0]
		for _, rd := range deps {
			if rd.dep != cell {
				kept = append(kept, rd)
			}
		}
		g.rangeDependents[sheet] = kept
	}
}

// installPrecedents scans ast for CellRef/RangeRef/NameRef nodes and adds
// precedent edges from cell to each referenced cell (spec §4.4.5). Range
// references add one edge per corner plus a range-membership record.
func (g *depGraph) installPrecedents(cell cellKey, ast Node, owner *Worksheet) {
	walkReferences(ast, owner.index, owner.wb, func(sheetIdx int, addr CellAddr) {
		g.addEdge(cellKey{Sheet: sheetIdx, Row: addr.Row, Col: addr.Col}, cell)
	}, func(sheetIdx int, r RangeAddr) {
		g.addEdge(cellKey{Sheet: sheetIdx, Row: r.Start.Row, Col: r.Start.Col}, cell)
		g.addEdge(cellKey{Sheet: sheetIdx, Row: r.End.Row, Col: r.End.Col}, cell)
		g.rangeDependents[sheetIdx] = append(g.rangeDependents[sheetIdx], rangeDependent{addr: r, dep: cell})
	})
}

// walkReferences visits every CellRef/RangeRef/NameRef node reachable in
// ast, resolving unqualified sheet references against defaultSheet.
func walkReferences(n Node, defaultSheet int, wb *Workbook, onCell func(int, CellAddr), onRange func(int, RangeAddr)) {
	switch t := n.(type) {
	case CellRefNode:
		idx := defaultSheet
		if t.Sheet != "" {
			if i, ok := wb.sheetIndexByName(t.Sheet); ok {
				idx = i
			}
		}
		onCell(idx, t.Addr)
	case RangeRefNode:
		idx := defaultSheet
		if t.Sheet != "" {
			if i, ok := wb.sheetIndexByName(t.Sheet); ok {
				idx = i
			}
		}
		onRange(idx, t.Range)
	case NameRefNode:
		if ref, ok := wb.names[strings.ToUpper(t.Name)]; ok {
			idx := defaultSheet
			if ref.Sheet != "" {
				if i, ok := wb.sheetIndexByName(ref.Sheet); ok {
					idx = i
				}
			}
			onRange(idx, ref.Range)
		}
	case BinaryOpNode:
		if l, ok := t.Left.(CellRefNode); ok && t.Op == ":" {
			if r, ok := t.Right.(CellRefNode); ok {
				li, ri := defaultSheet, defaultSheet
				if i, ok := wb.sheetIndexByName(l.Sheet); ok && l.Sheet != "" {
					li = i
				}
				if i, ok := wb.sheetIndexByName(r.Sheet); ok && r.Sheet != "" {
					ri = i
				}
				if li == ri {
					onRange(li, RangeAddr{Start: CellAddr{Row: min(l.Addr.Row, r.Addr.Row), Col: min(l.Addr.Col, r.Addr.Col)},
						End: CellAddr{Row: max(l.Addr.Row, r.Addr.Row), Col: max(l.Addr.Col, r.Addr.Col)}})
					return
				}
			}
		}
		walkReferences(t.Left, defaultSheet, wb, onCell, onRange)
		walkReferences(t.Right, defaultSheet, wb, onCell, onRange)
	case UnaryOpNode:
		walkReferences(t.Operand, defaultSheet, wb, onCell, onRange)
	case AtIntersectionNode:
		walkReferences(t.Operand, defaultSheet, wb, onCell, onRange)
	case FunctionNode:
		for _, arg := range t.Args {
			walkReferences(arg, defaultSheet, wb, onCell, onRange)
		}
	case ArrayNode:
		for _, row := range t.Rows {
			for _, elem := range row {
				walkReferences(elem, defaultSheet, wb, onCell, onRange)
			}
		}
	}
}

// markDirty flags cell itself dirty, used when a formula is (re)installed.
func (g *depGraph) markDirty(cell cellKey) {
	g.dirty[cell] = true
}

// markDependentsDirty flags every direct and transitive dependent of cell
// dirty, used when a plain value write changes what formulas read it (spec
// §4.4.5 "On cell write, dependents are marked dirty transitively").
func (g *depGraph) markDependentsDirty(cell cellKey) {
	g.dirty[cell] = true
	visited := map[cellKey]bool{cell: true}
	queue := []cellKey{cell}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for dep := range g.dependents[c] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			g.dirty[dep] = true
			queue = append(queue, dep)
		}
		for _, rd := range g.rangeDependentsFor(c) {
			if visited[rd] {
				continue
			}
			visited[rd] = true
			g.dirty[rd] = true
			queue = append(queue, rd)
		}
	}
}

// rangeDependentsFor returns dependents whose installed RangeRef covers
// cell, beyond the corner-edge dependents addEdge already recorded.
func (g *depGraph) rangeDependentsFor(cell cellKey) []cellKey {
	var out []cellKey
	for _, rd := range g.rangeDependents[cell.Sheet] {
		if rd.addr.Contains(CellAddr{Row: cell.Row, Col: cell.Col}) {
			out = append(out, rd.dep)
		}
	}
	return out
}
