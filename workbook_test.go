package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveSheetRekeysDepGraphForCrossSheetFormulas(t *testing.T) {
	wb := New() // Sheet1 at index 0
	_, err := wb.AddSheet("Sheet2")
	require.NoError(t, err)
	_, err = wb.AddSheet("Sheet3")
	require.NoError(t, err)

	sheet2, err := wb.Worksheet(1)
	require.NoError(t, err)
	sheet3, err := wb.Worksheet(2)
	require.NoError(t, err)

	a1, _ := ParseAddress("A1")
	require.NoError(t, sheet3.Set(a1, NumberValue(7)))
	require.NoError(t, sheet2.SetFormula(a1, "Sheet3!A1*2"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 14.0, sheet2.GetCalculatedValue(a1).Number)

	// Removing Sheet1 shifts Sheet2 -> index 0 and Sheet3 -> index 1. The
	// dependency graph must be rekeyed, or the formula's precedent edge
	// still points at the old (now wrong) sheet index.
	require.NoError(t, wb.RemoveSheet(0))

	sheet2Again, err := wb.Worksheet("Sheet2")
	require.NoError(t, err)
	sheet3Again, err := wb.Worksheet("Sheet3")
	require.NoError(t, err)

	require.NoError(t, sheet3Again.Set(a1, NumberValue(9)))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 18.0, sheet2Again.GetCalculatedValue(a1).Number)
}
