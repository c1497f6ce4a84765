package gridflow

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXLSXRoundTripCellsAndStyles(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)

	a1, _ := ParseAddress("A1")
	b1, _ := ParseAddress("B1")
	c1, _ := ParseAddress("C1")
	require.NoError(t, sheet.Set(a1, NumberValue(3.5)))
	require.NoError(t, sheet.Set(b1, StringValue(wb.Strings.Intern("hello"))))
	require.NoError(t, sheet.Set(c1, BoolValue(true)))

	bold := DefaultStyle
	bold.Font.Bold = true
	require.NoError(t, sheet.SetCellStyle(a1, bold))

	r1, _ := ParseRange("A1:B1")
	require.NoError(t, sheet.Merge(r1))

	data, err := EncodeXLSX(wb)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := ReadXLSX(data)
	require.NoError(t, err)
	gotSheet, err := got.Worksheet(0)
	require.NoError(t, err)

	assert.Equal(t, NumberValue(3.5), gotSheet.Get(a1))
	assert.Equal(t, "hello", gotSheet.Get(b1).Str.Value())
	assert.Equal(t, BoolValue(true), gotSheet.Get(c1))

	styleID := gotSheet.GetStyleID(a1)
	restored, ok := got.Styles.Get(styleID)
	require.True(t, ok)
	assert.True(t, restored.Font.Bold)

	merges := gotSheet.MergedRegions()
	require.Len(t, merges, 1)
	assert.Equal(t, r1, merges[0].Range)
}

func TestXLSXRoundTripFormulaCached(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	a1, _ := ParseAddress("A1")
	a2, _ := ParseAddress("A2")
	require.NoError(t, sheet.Set(a1, NumberValue(4)))
	require.NoError(t, sheet.SetFormula(a2, "A1*2"))
	require.NoError(t, wb.Calculate())

	data, err := EncodeXLSX(wb)
	require.NoError(t, err)

	got, err := ReadXLSX(data)
	require.NoError(t, err)
	gotSheet, _ := got.Worksheet(0)

	v := gotSheet.Get(a2)
	require.Equal(t, KindFormula, v.Kind)
	assert.Equal(t, "A1*2", v.Formula.Text)

	require.NoError(t, got.Calculate())
	assert.Equal(t, 8.0, gotSheet.GetCalculatedValue(a2).Number)
}

func TestXLSXRoundTripConditionalFormat(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	rng, _ := ParseRange("A1:A10")
	dxf := DefaultStyle
	dxf.Font.Bold = true
	sheet.SetConditionalFormat(ConditionalFormatRule{
		Range:    rng,
		Type:     "cellIs",
		Operator: "greaterThan",
		Operand1: "5",
		DXF:      dxf,
		Priority: 1,
	})

	data, err := EncodeXLSX(wb)
	require.NoError(t, err)

	got, err := ReadXLSX(data)
	require.NoError(t, err)
	gotSheet, _ := got.Worksheet(0)
	require.Len(t, gotSheet.conditionalFormats, 1)
	assert.True(t, gotSheet.conditionalFormats[0].DXF.Font.Bold)
	assert.Equal(t, "greaterThan", gotSheet.conditionalFormats[0].Operator)
}

func TestDxfBorderForcesPseudoEdgeElements(t *testing.T) {
	dxf := DefaultStyle
	dxf.Border.Left = BorderEdge{Style: "thin"}

	encoded := encodeDxf(dxf)
	require.NotNil(t, encoded.Border)
	out, err := xml.Marshal(encoded.Border)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<vertical>")
	assert.Contains(t, string(out), "<horizontal>")
}
