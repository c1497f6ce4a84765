// Package gridflow reads, manipulates, evaluates, and writes OOXML (.xlsx)
// and CSV spreadsheet workbooks. This file holds the wire-format structs for
// the xl/styles.xml part (fonts, fills, borders, number formats, xfs, and
// dxfs) plus the DXF sub-codec used by conditional formatting, per spec §4.5.
package gridflow

import (
	"encoding/xml"
)

// xlsxStyleSheet is the root element of the Styles part.
type xlsxStyleSheet struct {
	XMLName      xml.Name          `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main styleSheet"`
	NumFmts      *xlsxNumFmts      `xml:"numFmts"`
	Fonts        *xlsxFonts        `xml:"fonts"`
	Fills        *xlsxFills        `xml:"fills"`
	Borders      *xlsxBorders      `xml:"borders"`
	CellStyleXfs *xlsxCellStyleXfs `xml:"cellStyleXfs"`
	CellXfs      *xlsxCellXfs      `xml:"cellXfs"`
	CellStyles   *xlsxCellStyles   `xml:"cellStyles"`
	Dxfs         *xlsxDxfs         `xml:"dxfs"`
	TableStyles  *xlsxTableStyles  `xml:"tableStyles"`
}

// xlsxAlignment maps the alignment sub-element of a cell format record.
type xlsxAlignment struct {
	Horizontal   string `xml:"horizontal,attr,omitempty"`
	Vertical     string `xml:"vertical,attr,omitempty"`
	Indent       int    `xml:"indent,attr,omitempty"`
	ReadingOrder uint64 `xml:"readingOrder,attr,omitempty"`
	ShrinkToFit  bool   `xml:"shrinkToFit,attr,omitempty"`
	TextRotation int    `xml:"textRotation,attr,omitempty"`
	WrapText     bool   `xml:"wrapText,attr,omitempty"`
}

// xlsxProtection maps the protection sub-element of a cell format record.
type xlsxProtection struct {
	Hidden *bool `xml:"hidden,attr"`
	Locked *bool `xml:"locked,attr"`
}

// xlsxLine expresses a single edge of a cell border.
type xlsxLine struct {
	Style string     `xml:"style,attr,omitempty"`
	Color *xlsxColor `xml:"color"`
}

// xlsxColor is the common mapping used by fgColor, bgColor, and font color.
type xlsxColor struct {
	Auto    bool    `xml:"auto,attr,omitempty"`
	RGB     string  `xml:"rgb,attr,omitempty"`
	Indexed int     `xml:"indexed,attr,omitempty"`
	Theme   *int    `xml:"theme,attr"`
	Tint    float64 `xml:"tint,attr,omitempty"`
}

// xlsxFonts directly maps the fonts element.
type xlsxFonts struct {
	Count int         `xml:"count,attr"`
	Font  []*xlsxFont `xml:"font"`
}

// xlsxFont directly maps a single font definition.
type xlsxFont struct {
	B      bool       `xml:"b"`
	I      bool       `xml:"i"`
	Strike bool       `xml:"strike"`
	U      string     `xml:"u,omitempty"`
	Sz     float64    `xml:"sz"`
	Color  *xlsxColor `xml:"color"`
	Name   string     `xml:"name"`
	Family int        `xml:"family,omitempty"`
}

// xlsxFills directly maps the fills element. This element defines the cell
// fills portion of the Styles part, consisting of a sequence of fill records. A
// cell fill consists of a background color, foreground color, and pattern to be
// applied across the cell.
type xlsxFills struct {
	Count int         `xml:"count,attr"`
	Fill  []*xlsxFill `xml:"fill"`
}

// xlsxFill directly maps the fill element. This element specifies fill
// formatting.
type xlsxFill struct {
	PatternFill  *xlsxPatternFill  `xml:"patternFill" json:"pattern_fill,omitempty"`
	GradientFill *xlsxGradientFill `xml:"gradientFill" json:"gradient_fill,omitempty"`
}

// xlsxPatternFill is used to specify cell fill information for pattern and
// solid color cell fills. For solid cell fills (no pattern), fgColor is used.
// For cell fills with patterns specified, then the cell fill color is
// specified by the bgColor element.
type xlsxPatternFill struct {
	PatternType string     `xml:"patternType,attr,omitempty" json:"pattern_type,omitempty"`
	FgColor     *xlsxColor `xml:"fgColor" json:"fg_color,omitempty"`
	BgColor     *xlsxColor `xml:"bgColor" json:"bg_color,omitempty"`
}

// xlsxGradientFill defines a gradient-style cell fill. Gradient cell fills can
// use one or two colors as the end points of color interpolation.
type xlsxGradientFill struct {
	Bottom float64                 `xml:"bottom,attr,omitempty"`
	Degree float64                 `xml:"degree,attr,omitempty"`
	Left   float64                 `xml:"left,attr,omitempty"`
	Right  float64                 `xml:"right,attr,omitempty"`
	Top    float64                 `xml:"top,attr,omitempty"`
	Type   string                  `xml:"type,attr,omitempty"`
	Stop   []*xlsxGradientFillStop `xml:"stop"`
}

// xlsxGradientFillStop directly maps the stop element.
type xlsxGradientFillStop struct {
	Position float64   `xml:"position,attr"`
	Color    xlsxColor `xml:"color,omitempty"`
}

// xlsxBorders directly maps the borders element. This element contains borders
// formatting information, specifying all border definitions for all cells in
// the workbook.
type xlsxBorders struct {
	Count  int           `xml:"count,attr"`
	Border []*xlsxBorder `xml:"border"`
}

// xlsxBorder expresses a single set of cell border formats. Vertical and
// Horizontal are not part of a normal cell xf's border (real cells have no
// interior edge) but appear on dxf records for conditional formatting, which
// can paint pseudo interior edges across a qualifying range (spec §4.5).
type xlsxBorder struct {
	DiagonalDown bool      `xml:"diagonalDown,attr,omitempty"`
	DiagonalUp   bool      `xml:"diagonalUp,attr,omitempty"`
	Left         xlsxLine  `xml:"left,omitempty"`
	Right        xlsxLine  `xml:"right,omitempty"`
	Top          xlsxLine  `xml:"top,omitempty"`
	Bottom       xlsxLine  `xml:"bottom,omitempty"`
	Diagonal     xlsxLine  `xml:"diagonal,omitempty"`
	Vertical     *xlsxLine `xml:"vertical,omitempty"`
	Horizontal   *xlsxLine `xml:"horizontal,omitempty"`
}

// xlsxCellStyles directly maps the cellStyles element. This element contains
// the named cell styles, consisting of a sequence of named style records. A
// named cell style is a collection of direct or themed formatting (e.g., cell
// border, cell fill, and font type/size/style) grouped together into a single
// named style, and can be applied to a cell.
type xlsxCellStyles struct {
	XMLName   xml.Name         `xml:"cellStyles"`
	Count     int              `xml:"count,attr"`
	CellStyle []*xlsxCellStyle `xml:"cellStyle"`
}

// xlsxCellStyle directly maps the cellStyle element. This element represents
// the name and related formatting records for a named cell style in this
// workbook.
type xlsxCellStyle struct {
	XMLName   xml.Name `xml:"cellStyle"`
	Name      string   `xml:"name,attr"`
	XfID      int      `xml:"xfId,attr"`
	BuiltInID *int     `xml:"builtinId,attr"`
	Hidden    *bool    `xml:"hidden,attr"`
}

// xlsxCellStyleXfs directly maps the cellStyleXfs element. This element
// contains the master formatting records (xf's) which define the formatting for
// all named cell styles in this workbook. Master formatting records reference
// individual elements of formatting (e.g., number format, font definitions,
// cell fills, etc.) by specifying a zero-based index into those collections.
// Master formatting records also specify whether to apply or ignore particular
// aspects of formatting.
type xlsxCellStyleXfs struct {
	Count int      `xml:"count,attr"`
	Xf    []xlsxXf `xml:"xf,omitempty"`
}

// xlsxXf directly maps the xf element. A single xf element describes all of the
// formatting for a cell.
type xlsxXf struct {
	NumFmtID          *int            `xml:"numFmtId,attr"`
	FontID            *int            `xml:"fontId,attr"`
	FillID            *int            `xml:"fillId,attr"`
	BorderID          *int            `xml:"borderId,attr"`
	XfID              *int            `xml:"xfId,attr"`
	ApplyNumberFormat *bool           `xml:"applyNumberFormat,attr"`
	ApplyFont         *bool           `xml:"applyFont,attr"`
	ApplyFill         *bool           `xml:"applyFill,attr"`
	ApplyBorder       *bool           `xml:"applyBorder,attr"`
	ApplyAlignment    *bool           `xml:"applyAlignment,attr"`
	ApplyProtection   *bool           `xml:"applyProtection,attr"`
	Alignment         *xlsxAlignment  `xml:"alignment"`
	Protection        *xlsxProtection `xml:"protection"`
}

// xlsxCellXfs directly maps the cellXfs element. This element contains the
// master formatting records (xf) which define the formatting applied to cells
// in this workbook. These records are the starting point for determining the
// formatting for a cell. Cells in the Sheet Part reference the xf records by
// zero-based index.
type xlsxCellXfs struct {
	Count int      `xml:"count,attr"`
	Xf    []xlsxXf `xml:"xf,omitempty"`
}

// xlsxDxfs directly maps the dxfs element. This element contains the master
// differential formatting records (dxf's) which define formatting for all non-
// cell formatting in this workbook. Whereas xf records fully specify a
// particular aspect of formatting (e.g., cell borders) by referencing those
// formatting definitions elsewhere in the Styles part, dxf records specify
// incremental (or differential) aspects of formatting directly inline within
// the dxf element. The dxf formatting is to be applied on top of or in addition
// to any formatting already present on the object using the dxf record.
type xlsxDxfs struct {
	Count int        `xml:"count,attr"`
	Dxfs  []*xlsxDxf `xml:"dxf"`
}

// xlsxDxf directly maps a single differential formatting record. Unlike a
// cell xf, a dxf embeds its formatting inline rather than referencing the
// font/fill/border pools by id, and per spec §4.5 a dxf's numFmt carries both
// the id and the literal format code together (a cell xf only carries the
// id). Only the sub-records actually set on the style are written.
type xlsxDxf struct {
	Font       *xlsxFont       `xml:"font"`
	NumFmt     *xlsxNumFmt     `xml:"numFmt"`
	Fill       *xlsxFill       `xml:"fill"`
	Alignment  *xlsxAlignment  `xml:"alignment"`
	Border     *xlsxDxfBorder  `xml:"border"`
	Protection *xlsxProtection `xml:"protection"`
}

// xlsxDxfBorder is xlsxBorder's counterpart for dxf records only: per spec
// §4.5 DXF deviation #2, vertical and horizontal pseudo-edges are emitted
// even when empty on a dxf (unlike a plain cell xf's pooled border, where
// they are always absent), so these two fields carry no `omitempty`.
type xlsxDxfBorder struct {
	DiagonalDown bool     `xml:"diagonalDown,attr,omitempty"`
	DiagonalUp   bool     `xml:"diagonalUp,attr,omitempty"`
	Left         xlsxLine `xml:"left,omitempty"`
	Right        xlsxLine `xml:"right,omitempty"`
	Top          xlsxLine `xml:"top,omitempty"`
	Bottom       xlsxLine `xml:"bottom,omitempty"`
	Diagonal     xlsxLine `xml:"diagonal,omitempty"`
	Vertical     xlsxLine `xml:"vertical"`
	Horizontal   xlsxLine `xml:"horizontal"`
}

// xlsxTableStyles directly maps the tableStyles element. This element
// represents a collection of Table style definitions for Table styles and
// PivotTable styles used in this workbook. It consists of a sequence of
// tableStyle records, each defining a single Table style.
type xlsxTableStyles struct {
	Count             int               `xml:"count,attr"`
	DefaultPivotStyle string            `xml:"defaultPivotStyle,attr"`
	DefaultTableStyle string            `xml:"defaultTableStyle,attr"`
	TableStyles       []*xlsxTableStyle `xml:"tableStyle"`
}

// xlsxTableStyle directly maps the tableStyle element. This element represents
// a single table style definition that indicates how a spreadsheet application
// should format and display a table.
type xlsxTableStyle struct {
	Name              string `xml:"name,attr,omitempty"`
	Pivot             int    `xml:"pivot,attr"`
	Count             int    `xml:"count,attr,omitempty"`
	Table             bool   `xml:"table,attr,omitempty"`
	TableStyleElement string `xml:",innerxml"`
}

// xlsxNumFmts directly maps the numFmts element. This element defines the
// number formats in this workbook, consisting of a sequence of numFmt records,
// where each numFmt record defines a particular number format, indicating how
// to format and render the numeric value of a cell.
type xlsxNumFmts struct {
	Count  int           `xml:"count,attr"`
	NumFmt []*xlsxNumFmt `xml:"numFmt"`
}

// xlsxNumFmt directly maps the numFmt element. This element specifies number
// format properties which indicate how to format and render the numeric value
// of a cell.
type xlsxNumFmt struct {
	NumFmtID   int    `xml:"numFmtId,attr"`
	FormatCode string `xml:"formatCode,attr,omitempty"`
}
