package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSheetWithValues(t *testing.T, wb *Workbook, values map[string]float64) *Worksheet {
	t.Helper()
	sheet, err := wb.Worksheet(0)
	require.NoError(t, err)
	for ref, n := range values {
		addr, err := ParseAddress(ref)
		require.NoError(t, err)
		require.NoError(t, sheet.Set(addr, NumberValue(n)))
	}
	return sheet
}

func TestFormulaSumOverRange(t *testing.T) {
	wb := New()
	sheet := setupSheetWithValues(t, wb, map[string]float64{"A1": 1, "A2": 2, "A3": 3})
	sum, _ := ParseAddress("A4")
	require.NoError(t, sheet.SetFormula(sum, "SUM(A1:A3)"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 6.0, sheet.GetCalculatedValue(sum).Number)
}

func TestFormulaIfBranches(t *testing.T) {
	wb := New()
	sheet := setupSheetWithValues(t, wb, map[string]float64{"A1": 10})
	out, _ := ParseAddress("B1")
	require.NoError(t, sheet.SetFormula(out, `IF(A1>5,"big","small")`))
	require.NoError(t, wb.Calculate())
	v := sheet.GetCalculatedValue(out)
	require.Equal(t, KindString, v.Kind)
	assert.Equal(t, "big", v.Str.Value())
}

func TestFormulaDivideByZeroYieldsErrorValue(t *testing.T) {
	wb := New()
	sheet := setupSheetWithValues(t, wb, map[string]float64{"A1": 1, "A2": 0})
	out, _ := ParseAddress("A3")
	require.NoError(t, sheet.SetFormula(out, "A1/A2"))
	require.NoError(t, wb.Calculate())
	v := sheet.GetCalculatedValue(out)
	require.Equal(t, KindError, v.Kind)
	assert.Equal(t, ErrDiv0, v.Err.Kind)
}

func TestFormulaParseErrorReturnsFormulaParseCode(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	addr, _ := ParseAddress("A1")
	err := sheet.SetFormula(addr, "SUM(")
	require.Error(t, err)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ErrFormulaParse, gerr.Code)
}

func TestFormulaAverageAndMinMax(t *testing.T) {
	wb := New()
	sheet := setupSheetWithValues(t, wb, map[string]float64{"A1": 2, "A2": 4, "A3": 6})
	avg, _ := ParseAddress("B1")
	mn, _ := ParseAddress("B2")
	mx, _ := ParseAddress("B3")
	require.NoError(t, sheet.SetFormula(avg, "AVERAGE(A1:A3)"))
	require.NoError(t, sheet.SetFormula(mn, "MIN(A1:A3)"))
	require.NoError(t, sheet.SetFormula(mx, "MAX(A1:A3)"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 4.0, sheet.GetCalculatedValue(avg).Number)
	assert.Equal(t, 2.0, sheet.GetCalculatedValue(mn).Number)
	assert.Equal(t, 6.0, sheet.GetCalculatedValue(mx).Number)
}
