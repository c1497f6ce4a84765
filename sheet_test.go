package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	wb := New()
	sheet, err := wb.Worksheet(0)
	require.NoError(t, err)

	a1, _ := ParseAddress("A1")
	require.NoError(t, sheet.Set(a1, NumberValue(42)))
	assert.Equal(t, NumberValue(42), sheet.Get(a1))

	require.NoError(t, sheet.Set(a1, EmptyValue))
	assert.True(t, sheet.Get(a1).Empty())
}

func TestSetOutOfBounds(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	err := sheet.Set(CellAddr{Row: MaxRow + 1, Col: 0}, NumberValue(1))
	require.Error(t, err)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ErrOutOfBounds, gerr.Code)
}

func TestFormulaCalculateSimpleSum(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	a2, _ := ParseAddress("A2")
	a3, _ := ParseAddress("A3")
	require.NoError(t, sheet.Set(a1, NumberValue(1)))
	require.NoError(t, sheet.Set(a2, NumberValue(2)))
	require.NoError(t, sheet.SetFormula(a3, "A1+A2"))

	require.NoError(t, wb.Calculate())

	result := sheet.GetCalculatedValue(a3)
	require.Equal(t, KindNumber, result.Kind)
	assert.Equal(t, 3.0, result.Number)
}

func TestFormulaRecalculatesOnPrecedentChange(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	a2, _ := ParseAddress("A2")
	require.NoError(t, sheet.Set(a1, NumberValue(10)))
	require.NoError(t, sheet.SetFormula(a2, "A1*2"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 20.0, sheet.GetCalculatedValue(a2).Number)

	require.NoError(t, sheet.Set(a1, NumberValue(5)))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 10.0, sheet.GetCalculatedValue(a2).Number)
}

func TestClearingPrecedentMarksDependentDirty(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	b1, _ := ParseAddress("B1")
	require.NoError(t, sheet.Set(a1, NumberValue(10)))
	require.NoError(t, sheet.SetFormula(b1, "A1+1"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 11.0, sheet.GetCalculatedValue(b1).Number)

	require.NoError(t, sheet.Set(a1, EmptyValue))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 1.0, sheet.GetCalculatedValue(b1).Number)
}

func TestReplacingFormulaMarksTransitiveDependentsDirty(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	a2, _ := ParseAddress("A2")
	a3, _ := ParseAddress("A3")
	require.NoError(t, sheet.Set(a1, NumberValue(10)))
	require.NoError(t, sheet.SetFormula(a2, "A1*2"))
	require.NoError(t, sheet.SetFormula(a3, "A2+1"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 20.0, sheet.GetCalculatedValue(a2).Number)
	assert.Equal(t, 21.0, sheet.GetCalculatedValue(a3).Number)

	require.NoError(t, sheet.SetFormula(a2, "A1*3"))
	require.NoError(t, wb.Calculate())
	assert.Equal(t, 30.0, sheet.GetCalculatedValue(a2).Number)
	assert.Equal(t, 31.0, sheet.GetCalculatedValue(a3).Number)
}

func TestCircularReferenceNonIterative(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	a2, _ := ParseAddress("A2")
	require.NoError(t, sheet.SetFormula(a1, "A2+1"))
	require.NoError(t, sheet.SetFormula(a2, "A1+1"))

	err := wb.Calculate()
	require.Error(t, err)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ErrCircularReference, gerr.Code)

	assert.Equal(t, KindError, sheet.GetCalculatedValue(a1).Kind)
	assert.Equal(t, ErrCalc, sheet.GetCalculatedValue(a1).Err.Kind)
}

func TestMergeRejectsOverlap(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	r1, _ := ParseRange("A1:B2")
	r2, _ := ParseRange("B2:C3")

	require.NoError(t, sheet.Merge(r1))
	err := sheet.Merge(r2)
	assert.Error(t, err)
}

func TestUsedRangeTracksExtent(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	b3, _ := ParseAddress("B3")
	require.NoError(t, sheet.Set(b3, StringValue(wb.Strings.Intern("hi"))))

	rng, ok := sheet.UsedRange()
	require.True(t, ok)
	assert.Equal(t, b3, rng.Start)
	assert.Equal(t, b3, rng.End)
}
