package gridflow

import "github.com/mohae/deepcopy"

// ColorKind tags the variant held by a Color.
type ColorKind int

const (
	ColorAuto ColorKind = iota
	ColorRGB
	ColorARGB
	ColorTheme
	ColorIndexed
)

// Color is the tagged-variant color model backing font, fill, and border
// colors (spec §3.1). Theme colors carry an optional Tint shade/tone.
type Color struct {
	Kind    ColorKind
	RGB     string // 6 hex digits, used by ColorRGB
	ARGB    string // 8 hex digits, used by ColorARGB
	Theme   int    // theme palette index, used by ColorTheme
	Indexed int    // legacy indexed-palette slot, used by ColorIndexed
	Tint    float64
}

// Font describes a single cell font (spec §3.1).
type Font struct {
	Name      string
	Size      float64
	Bold      bool
	Italic    bool
	Strike    bool
	Underline string // "", "single", "double"
	Color     Color
}

// FillKind tags the variant held by a Fill.
type FillKind int

const (
	FillNone FillKind = iota
	FillSolid
	FillPattern
	FillGradient
)

// GradientStop is one color stop in a gradient fill.
type GradientStop struct {
	Position float64
	Color    Color
}

// Fill describes a cell's background (spec §3.1). Solid fills only set
// Foreground; pattern fills set PatternType plus Foreground/Background;
// gradient fills ignore both and use GradientStops.
type Fill struct {
	Kind           FillKind
	PatternType    string // "solid", "gray125", etc., used by FillPattern
	Foreground     Color
	Background     Color
	GradientAngle  float64
	GradientStops  []GradientStop
}

// BorderEdge describes one edge of a cell border.
type BorderEdge struct {
	Style string // "thin", "medium", "dashed", ... ("" means no edge)
	Color Color
}

// Border describes the four edges plus the two diagonal lines of a cell
// border (spec §3.1). Vertical/Horizontal interior pseudo-edges only ever
// appear on a Style used as a conditional-format DXF, never on a plain cell.
type Border struct {
	Left, Right, Top, Bottom     BorderEdge
	Diagonal                     BorderEdge
	DiagonalUp, DiagonalDown     bool
	Vertical, Horizontal         *BorderEdge
}

// Alignment describes a cell's text alignment and wrapping (spec §3.1).
type Alignment struct {
	Horizontal   string // "left", "center", "right", "fill", "justify", ...
	Vertical     string // "top", "center", "bottom", "justify"
	WrapText     bool
	TextRotation int
	Indent       int
	ShrinkToFit  bool
	ReadingOrder uint64
}

// Protection describes a cell's lock/hide state under sheet protection.
type Protection struct {
	Locked bool
	Hidden bool
}

// Style is the full, structurally-comparable set of a cell's formatting
// (spec §3.1). Two Styles with equal field values are the same style for
// deduplication purposes (spec §4.3): structural equality, not identity.
type Style struct {
	Font          Font
	Fill          Fill
	Border        Border
	Alignment     Alignment
	Protection    Protection
	NumFmtID      int    // built-in id, or >=164 for a custom format
	CustomNumFmt  string // format code when NumFmtID >= 164, "" otherwise
}

// DefaultStyle is the style implicitly applied to a cell that has never had
// a style assigned (style id 0 in the style pool, spec §4.3).
var DefaultStyle = Style{}

// Clone returns a deep copy of s so that mutating the result never affects
// the original, matching Workbook.Clone's use of the same deep-copy library.
func (s Style) Clone() Style {
	return deepcopy.Copy(s).(Style)
}

// IsDXF reports whether this style carries any of the DXF-only pseudo-edges,
// which only ever appear on a conditional-format differential style.
func (b Border) IsDXF() bool {
	return b.Vertical != nil || b.Horizontal != nil
}
