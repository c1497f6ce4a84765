package gridflow

import "sort"

// Cell is the stored unit of C3's sparse grid: a value plus its style id.
type Cell struct {
	Value   CellValue
	StyleID uint32
}

// sheetRow is one row's sparse cell map, keyed by 0-based column.
type sheetRow struct {
	cells map[int]*Cell
}

func newSheetRow() *sheetRow {
	return &sheetRow{cells: make(map[int]*Cell)}
}

func (r *sheetRow) sortedCols() []int {
	return sortedIntKeys(keysOfCellMap(r.cells))
}

func keysOfCellMap(m map[int]*Cell) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func sortedIntKeys(keys []int) []int {
	sort.Ints(keys)
	return keys
}
