package gridflow

import (
	"encoding/xml"
	"fmt"
)

// encodeStylesXML renders xl/styles.xml from the workbook's style pool. Each
// pool style becomes one cellXfs entry at the same index as its style id, so
// a cell's stored StyleID is always also a valid index into cellXfs (spec
// §4.3, §4.5). Fonts, fills, and borders are deduplicated into their own
// pools the way cell xfs reference them; dxfs carries the separately-built
// differential styles used by conditional formatting.
func encodeStylesXML(wb *Workbook, dxfs []Style) ([]byte, error) {
	fontIDs := newSubPool(func(f Font) xlsxFont { return encodeFont(f) })
	fillIDs := newSubPool(func(f Fill) *xlsxFill { return encodeFill(f) })
	borderIDs := newSubPool(func(b Border) *xlsxBorder { return encodeBorder(b) })
	var numFmts []*xlsxNumFmt
	seenNumFmt := map[int]bool{}

	ss := xlsxStyleSheet{}
	cellXfs := &xlsxCellXfs{}
	for _, st := range wb.Styles.All() {
		fontID := fontIDs.get(st.Font)
		fillID := fillIDs.get(st.Fill)
		borderID := borderIDs.get(st.Border)
		if st.NumFmtID >= 164 && !seenNumFmt[st.NumFmtID] {
			seenNumFmt[st.NumFmtID] = true
			numFmts = append(numFmts, &xlsxNumFmt{NumFmtID: st.NumFmtID, FormatCode: st.CustomNumFmt})
		}
		numFmtID := st.NumFmtID
		applyNumFmt := numFmtID != 0
		applyFont := fmt.Sprintf("%+v", st.Font) != fmt.Sprintf("%+v", DefaultStyle.Font)
		applyFill := fmt.Sprintf("%+v", st.Fill) != fmt.Sprintf("%+v", DefaultStyle.Fill)
		applyBorder := fmt.Sprintf("%+v", st.Border) != fmt.Sprintf("%+v", DefaultStyle.Border)
		applyAlignment := fmt.Sprintf("%+v", st.Alignment) != fmt.Sprintf("%+v", DefaultStyle.Alignment)
		applyProtection := fmt.Sprintf("%+v", st.Protection) != fmt.Sprintf("%+v", DefaultStyle.Protection)
		cellXfs.Xf = append(cellXfs.Xf, xlsxXf{
			NumFmtID: &numFmtID, FontID: &fontID, FillID: &fillID, BorderID: &borderID,
			ApplyNumberFormat: &applyNumFmt,
			ApplyFont:         &applyFont,
			ApplyFill:         &applyFill,
			ApplyBorder:       &applyBorder,
			ApplyAlignment:    &applyAlignment,
			ApplyProtection:   &applyProtection,
			Alignment:         encodeAlignment(st.Alignment),
			Protection:        encodeProtection(st.Protection),
		})
	}
	cellXfs.Count = len(cellXfs.Xf)
	ss.CellXfs = cellXfs

	if len(numFmts) > 0 {
		ss.NumFmts = &xlsxNumFmts{Count: len(numFmts), NumFmt: numFmts}
	}
	ss.Fonts = &xlsxFonts{Count: len(fontIDs.items), Font: fontPtrs(fontIDs.items)}
	ss.Fills = &xlsxFills{Count: len(fillIDs.items), Fill: fillIDs.items}
	ss.Borders = &xlsxBorders{Count: len(borderIDs.items), Border: borderIDs.items}

	if len(dxfs) > 0 {
		xd := &xlsxDxfs{Count: len(dxfs)}
		for _, st := range dxfs {
			xd.Dxfs = append(xd.Dxfs, encodeDxf(st))
		}
		ss.Dxfs = xd
	}

	out, err := xml.Marshal(ss)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding styles.xml")
	}
	return append([]byte(xml.Header), out...), nil
}

// subPool deduplicates sub-records (fonts, fills, borders) by structural key
// in first-seen order, mirroring StylePool's own dedup strategy.
type subPool[T any, X any] struct {
	encode func(T) X
	byKey  map[string]int
	items  []X
}

func newSubPool[T any, X any](encode func(T) X) *subPool[T, X] {
	return &subPool[T, X]{encode: encode, byKey: make(map[string]int)}
}

func (p *subPool[T, X]) get(v T) int {
	key := fmt.Sprintf("%+v", v)
	if id, ok := p.byKey[key]; ok {
		return id
	}
	id := len(p.items)
	p.byKey[key] = id
	p.items = append(p.items, p.encode(v))
	return id
}

func encodeFont(f Font) xlsxFont {
	xf := xlsxFont{B: f.Bold, I: f.Italic, Strike: f.Strike, U: f.Underline, Sz: f.Size, Name: f.Name}
	if c := encodeColor(f.Color); c != nil {
		xf.Color = c
	}
	return xf
}

func fontPtrs(fonts []xlsxFont) []*xlsxFont {
	out := make([]*xlsxFont, len(fonts))
	for i := range fonts {
		out[i] = &fonts[i]
	}
	return out
}

func encodeFill(f Fill) *xlsxFill {
	switch f.Kind {
	case FillSolid:
		return &xlsxFill{PatternFill: &xlsxPatternFill{PatternType: "solid", FgColor: encodeColor(f.Foreground), BgColor: encodeColor(f.Background)}}
	case FillPattern:
		return &xlsxFill{PatternFill: &xlsxPatternFill{PatternType: f.PatternType, FgColor: encodeColor(f.Foreground), BgColor: encodeColor(f.Background)}}
	case FillGradient:
		gf := &xlsxGradientFill{Degree: f.GradientAngle}
		for _, stop := range f.GradientStops {
			c := encodeColor(stop.Color)
			var cv xlsxColor
			if c != nil {
				cv = *c
			}
			gf.Stop = append(gf.Stop, &xlsxGradientFillStop{Position: stop.Position, Color: cv})
		}
		return &xlsxFill{GradientFill: gf}
	default:
		return &xlsxFill{PatternFill: &xlsxPatternFill{PatternType: "none"}}
	}
}

func encodeBorder(b Border) *xlsxBorder {
	xb := &xlsxBorder{
		DiagonalUp: b.DiagonalUp, DiagonalDown: b.DiagonalDown,
		Left: encodeLine(b.Left), Right: encodeLine(b.Right),
		Top: encodeLine(b.Top), Bottom: encodeLine(b.Bottom),
		Diagonal: encodeLine(b.Diagonal),
	}
	if b.Vertical != nil {
		l := encodeLine(*b.Vertical)
		xb.Vertical = &l
	}
	if b.Horizontal != nil {
		l := encodeLine(*b.Horizontal)
		xb.Horizontal = &l
	}
	return xb
}

func encodeDxfBorder(b Border) *xlsxDxfBorder {
	xb := &xlsxDxfBorder{
		DiagonalUp: b.DiagonalUp, DiagonalDown: b.DiagonalDown,
		Left: encodeLine(b.Left), Right: encodeLine(b.Right),
		Top: encodeLine(b.Top), Bottom: encodeLine(b.Bottom),
		Diagonal: encodeLine(b.Diagonal),
	}
	if b.Vertical != nil {
		xb.Vertical = encodeLine(*b.Vertical)
	}
	if b.Horizontal != nil {
		xb.Horizontal = encodeLine(*b.Horizontal)
	}
	return xb
}

func encodeLine(e BorderEdge) xlsxLine {
	return xlsxLine{Style: e.Style, Color: encodeColor(e.Color)}
}

func encodeColor(c Color) *xlsxColor {
	switch c.Kind {
	case ColorRGB:
		return &xlsxColor{RGB: c.RGB}
	case ColorARGB:
		return &xlsxColor{RGB: c.ARGB}
	case ColorTheme:
		theme := c.Theme
		return &xlsxColor{Theme: &theme, Tint: c.Tint}
	case ColorIndexed:
		return &xlsxColor{Indexed: c.Indexed}
	case ColorAuto:
		return &xlsxColor{Auto: true}
	default:
		return nil
	}
}

func encodeAlignment(a Alignment) *xlsxAlignment {
	if a == (Alignment{}) {
		return nil
	}
	return &xlsxAlignment{
		Horizontal: a.Horizontal, Vertical: a.Vertical, WrapText: a.WrapText,
		TextRotation: a.TextRotation, Indent: a.Indent, ShrinkToFit: a.ShrinkToFit, ReadingOrder: a.ReadingOrder,
	}
}

func encodeProtection(p Protection) *xlsxProtection {
	if !p.Locked && !p.Hidden {
		return nil
	}
	locked, hidden := p.Locked, p.Hidden
	return &xlsxProtection{Locked: &locked, Hidden: &hidden}
}

func encodeDxf(st Style) *xlsxDxf {
	d := &xlsxDxf{}
	if st.Font != (Font{}) {
		f := encodeFont(st.Font)
		d.Font = &f
	}
	if st.NumFmtID != 0 {
		d.NumFmt = &xlsxNumFmt{NumFmtID: st.NumFmtID, FormatCode: st.CustomNumFmt}
	}
	if st.Fill.Kind != FillNone {
		d.Fill = encodeFill(st.Fill)
	}
	if st.Alignment != (Alignment{}) {
		d.Alignment = encodeAlignment(st.Alignment)
	}
	if st.Border.IsDXF() || st.Border != (Border{}) {
		d.Border = encodeDxfBorder(st.Border)
	}
	d.Protection = encodeProtection(st.Protection)
	return d
}

// decodeStylesXML rebuilds a style pool from xl/styles.xml, preserving
// cellXfs order so pool ids line up with the file's own xf indices, plus the
// list of dxf differential styles in file order for conditional-format
// rehydration.
func decodeStylesXML(data []byte) (*StylePool, []Style, error) {
	var ss xlsxStyleSheet
	if err := xml.Unmarshal(data, &ss); err != nil {
		return nil, nil, wrapError(ErrCorruptFile, err, "parsing styles.xml")
	}
	var fonts []Font
	if ss.Fonts != nil {
		for _, f := range ss.Fonts.Font {
			fonts = append(fonts, decodeFont(f))
		}
	}
	var fills []Fill
	if ss.Fills != nil {
		for _, f := range ss.Fills.Fill {
			fills = append(fills, decodeFill(f))
		}
	}
	var borders []Border
	if ss.Borders != nil {
		for _, b := range ss.Borders.Border {
			borders = append(borders, decodeBorder(b))
		}
	}
	numFmtCodes := map[int]string{}
	if ss.NumFmts != nil {
		for _, nf := range ss.NumFmts.NumFmt {
			numFmtCodes[nf.NumFmtID] = nf.FormatCode
		}
	}

	pool := NewStylePool()
	if ss.CellXfs != nil {
		for i, xf := range ss.CellXfs.Xf {
			st := Style{}
			if xf.FontID != nil && *xf.FontID < len(fonts) {
				st.Font = fonts[*xf.FontID]
			}
			if xf.FillID != nil && *xf.FillID < len(fills) {
				st.Fill = fills[*xf.FillID]
			}
			if xf.BorderID != nil && *xf.BorderID < len(borders) {
				st.Border = borders[*xf.BorderID]
			}
			if xf.NumFmtID != nil {
				st.NumFmtID = *xf.NumFmtID
				st.CustomNumFmt = numFmtCodes[*xf.NumFmtID]
			}
			if xf.Alignment != nil {
				st.Alignment = decodeAlignment(*xf.Alignment)
			}
			if xf.Protection != nil {
				st.Protection = decodeProtection(*xf.Protection)
			}
			if i == 0 {
				continue // id 0 is already seeded as DefaultStyle
			}
			pool.insert(st)
		}
	}

	var dxfs []Style
	if ss.Dxfs != nil {
		for _, d := range ss.Dxfs.Dxfs {
			dxfs = append(dxfs, decodeDxf(d))
		}
	}
	return pool, dxfs, nil
}

func decodeFont(f *xlsxFont) Font {
	if f == nil {
		return Font{}
	}
	return Font{Name: f.Name, Size: f.Sz, Bold: f.B, Italic: f.I, Strike: f.Strike, Underline: f.U, Color: decodeColor(f.Color)}
}

func decodeFill(f *xlsxFill) Fill {
	if f == nil {
		return Fill{}
	}
	if f.GradientFill != nil {
		gf := Fill{Kind: FillGradient, GradientAngle: f.GradientFill.Degree}
		for _, stop := range f.GradientFill.Stop {
			gf.GradientStops = append(gf.GradientStops, GradientStop{Position: stop.Position, Color: decodeColor(&stop.Color)})
		}
		return gf
	}
	if f.PatternFill != nil {
		if f.PatternFill.PatternType == "" || f.PatternFill.PatternType == "none" {
			return Fill{Kind: FillNone}
		}
		kind := FillPattern
		if f.PatternFill.PatternType == "solid" {
			kind = FillSolid
		}
		return Fill{Kind: kind, PatternType: f.PatternFill.PatternType, Foreground: decodeColor(f.PatternFill.FgColor), Background: decodeColor(f.PatternFill.BgColor)}
	}
	return Fill{}
}

func decodeBorder(b *xlsxBorder) Border {
	if b == nil {
		return Border{}
	}
	out := Border{
		DiagonalUp: b.DiagonalUp, DiagonalDown: b.DiagonalDown,
		Left: decodeLine(b.Left), Right: decodeLine(b.Right),
		Top: decodeLine(b.Top), Bottom: decodeLine(b.Bottom),
		Diagonal: decodeLine(b.Diagonal),
	}
	if b.Vertical != nil {
		e := decodeLine(*b.Vertical)
		out.Vertical = &e
	}
	if b.Horizontal != nil {
		e := decodeLine(*b.Horizontal)
		out.Horizontal = &e
	}
	return out
}

func decodeDxfBorder(b *xlsxDxfBorder) Border {
	if b == nil {
		return Border{}
	}
	out := Border{
		DiagonalUp: b.DiagonalUp, DiagonalDown: b.DiagonalDown,
		Left: decodeLine(b.Left), Right: decodeLine(b.Right),
		Top: decodeLine(b.Top), Bottom: decodeLine(b.Bottom),
		Diagonal: decodeLine(b.Diagonal),
	}
	vert := decodeLine(b.Vertical)
	out.Vertical = &vert
	horiz := decodeLine(b.Horizontal)
	out.Horizontal = &horiz
	return out
}

func decodeLine(l xlsxLine) BorderEdge {
	return BorderEdge{Style: l.Style, Color: decodeColor(l.Color)}
}

func decodeColor(c *xlsxColor) Color {
	if c == nil {
		return Color{}
	}
	switch {
	case c.Theme != nil:
		return Color{Kind: ColorTheme, Theme: *c.Theme, Tint: c.Tint}
	case c.Auto:
		return Color{Kind: ColorAuto}
	case c.RGB != "":
		if len(c.RGB) == 8 {
			return Color{Kind: ColorARGB, ARGB: c.RGB}
		}
		return Color{Kind: ColorRGB, RGB: c.RGB}
	case c.Indexed != 0:
		return Color{Kind: ColorIndexed, Indexed: c.Indexed}
	default:
		return Color{}
	}
}

func decodeAlignment(a xlsxAlignment) Alignment {
	return Alignment{
		Horizontal: a.Horizontal, Vertical: a.Vertical, WrapText: a.WrapText,
		TextRotation: a.TextRotation, Indent: a.Indent, ShrinkToFit: a.ShrinkToFit, ReadingOrder: a.ReadingOrder,
	}
}

func decodeProtection(p xlsxProtection) Protection {
	out := Protection{Locked: true}
	if p.Locked != nil {
		out.Locked = *p.Locked
	}
	if p.Hidden != nil {
		out.Hidden = *p.Hidden
	}
	return out
}

func decodeDxf(d *xlsxDxf) Style {
	st := Style{}
	if d.Font != nil {
		st.Font = decodeFont(d.Font)
	}
	if d.NumFmt != nil {
		st.NumFmtID = d.NumFmt.NumFmtID
		st.CustomNumFmt = d.NumFmt.FormatCode
	}
	if d.Fill != nil {
		st.Fill = decodeFill(d.Fill)
	}
	if d.Alignment != nil {
		st.Alignment = decodeAlignment(*d.Alignment)
	}
	if d.Border != nil {
		st.Border = decodeDxfBorder(d.Border)
	}
	if d.Protection != nil {
		st.Protection = decodeProtection(*d.Protection)
	}
	return st
}

// collectDxfStyles gathers the distinct DXF styles referenced by every
// sheet's conditional-format rules, in first-seen order, and returns a
// lookup from style key to dxf id for use while encoding worksheet XML.
func collectDxfStyles(wb *Workbook) ([]Style, map[string]int) {
	ids := map[string]int{}
	var styles []Style
	for _, s := range wb.sheets {
		for _, rule := range s.conditionalFormats {
			key := styleKey(rule.DXF)
			if _, ok := ids[key]; ok {
				continue
			}
			ids[key] = len(styles)
			styles = append(styles, rule.DXF)
		}
	}
	return styles, ids
}
