package gridflow

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVAutoDetectsTypes(t *testing.T) {
	input := "1,true,hello\n2.5,false,world\n"
	wb, err := ReadCSV(strings.NewReader(input), DefaultCSVReadOptions)
	require.NoError(t, err)

	sheet, _ := wb.Worksheet(0)
	assert.Equal(t, NumberValue(1), sheet.Get(CellAddr{Row: 0, Col: 0}))
	assert.Equal(t, BoolValue(true), sheet.Get(CellAddr{Row: 0, Col: 1}))
	assert.Equal(t, KindString, sheet.Get(CellAddr{Row: 0, Col: 2}).Kind)
	assert.Equal(t, NumberValue(2.5), sheet.Get(CellAddr{Row: 1, Col: 0}))
}

func TestReadCSVAllStringsKeepsEverythingAsText(t *testing.T) {
	opts := DefaultCSVReadOptions
	opts.Detection = AllStrings
	wb, err := ReadCSV(strings.NewReader("1,true\n"), opts)
	require.NoError(t, err)

	sheet, _ := wb.Worksheet(0)
	v := sheet.Get(CellAddr{Row: 0, Col: 0})
	require.Equal(t, KindString, v.Kind)
	assert.Equal(t, "1", v.Str.Value())
}

func TestReadCSVQuotedNumericStaysString(t *testing.T) {
	input := "\"7\",42\n"
	wb, err := ReadCSV(strings.NewReader(input), DefaultCSVReadOptions)
	require.NoError(t, err)

	sheet, _ := wb.Worksheet(0)
	quoted := sheet.Get(CellAddr{Row: 0, Col: 0})
	require.Equal(t, KindString, quoted.Kind)
	assert.Equal(t, "7", quoted.Str.Value())

	bare := sheet.Get(CellAddr{Row: 0, Col: 1})
	assert.Equal(t, NumberValue(42), bare)
}

func TestReadCSVQuotedFieldWithEmbeddedDelimiterAndQuote(t *testing.T) {
	input := "\"a,b\",\"say \"\"hi\"\"\"\n"
	wb, err := ReadCSV(strings.NewReader(input), DefaultCSVReadOptions)
	require.NoError(t, err)

	sheet, _ := wb.Worksheet(0)
	assert.Equal(t, "a,b", sheet.Get(CellAddr{Row: 0, Col: 0}).Str.Value())
	assert.Equal(t, `say "hi"`, sheet.Get(CellAddr{Row: 0, Col: 1}).Str.Value())
}

func TestWriteCSVQuoteStyles(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	require.NoError(t, sheet.Set(CellAddr{Row: 0, Col: 0}, StringValue(wb.Strings.Intern("a,b"))))
	require.NoError(t, sheet.Set(CellAddr{Row: 0, Col: 1}, StringValue(wb.Strings.Intern("plain"))))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(sheet, &buf, DefaultCSVWriteOptions))
	assert.Equal(t, "\"a,b\",plain\n", buf.String())

	buf.Reset()
	always := DefaultCSVWriteOptions
	always.Quote = QuoteAlways
	require.NoError(t, WriteCSV(sheet, &buf, always))
	assert.Equal(t, "\"a,b\",\"plain\"\n", buf.String())

	buf.Reset()
	never := DefaultCSVWriteOptions
	never.Quote = QuoteNever
	require.NoError(t, WriteCSV(sheet, &buf, never))
	assert.Equal(t, "a,b,plain\n", buf.String())
}

func TestCSVRoundTripThroughWorkbookBytes(t *testing.T) {
	wb := New()
	sheet, _ := wb.Worksheet(0)
	require.NoError(t, sheet.Set(CellAddr{Row: 0, Col: 0}, NumberValue(7)))

	data, err := wb.SaveBytes(FormatCSV)
	require.NoError(t, err)

	wb2, err := LoadBytes(data, FormatCSV)
	require.NoError(t, err)
	sheet2, _ := wb2.Worksheet(0)
	assert.Equal(t, NumberValue(7), sheet2.Get(CellAddr{Row: 0, Col: 0}))
}
