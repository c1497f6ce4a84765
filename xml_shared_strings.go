package gridflow

import "encoding/xml"

// xlsxSST maps the xl/sharedStrings.xml sst element: the workbook-wide
// deduplicated string table cells reference by index (spec §4.5).
type xlsxSST struct {
	XMLName     xml.Name `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main sst"`
	Count       int      `xml:"count,attr"`
	UniqueCount int      `xml:"uniqueCount,attr"`
	SI          []xlsxSI `xml:"si"`
}

// xlsxSI is one string item. Only the plain-text form is written; rich-text
// runs are tolerated on read (so imported workbooks with character-level
// formatting inside a string still decode) and flattened to plain text,
// since no SPEC_FULL.md component models run-level text formatting.
type xlsxSI struct {
	T *xlsxT  `xml:"t"`
	R []xlsxR `xml:"r"`
}

// String extracts the plain-text value of a string item, concatenating rich
// text runs if present.
func (si xlsxSI) String() string {
	if len(si.R) > 0 {
		var sb []byte
		for _, r := range si.R {
			if r.T != nil {
				sb = append(sb, r.T.Val...)
			}
		}
		return string(sb)
	}
	if si.T != nil {
		return si.T.Val
	}
	return ""
}

// xlsxR is one rich-text run; only its text is retained.
type xlsxR struct {
	T *xlsxT `xml:"t"`
}

// xlsxT is the t element, preserving xml:space="preserve" for strings with
// leading/trailing whitespace.
type xlsxT struct {
	XMLName xml.Name `xml:"t"`
	Space   string   `xml:"xml:space,attr,omitempty"`
	Val     string   `xml:",chardata"`
}

// encodeSharedStrings builds the xl/sharedStrings.xml payload from the
// workbook's string pool, in first-seen order (spec §4.5 writer
// deduplication: "shared-string index ← first-seen order").
func encodeSharedStrings(pool *StringPool) ([]byte, error) {
	sst := xlsxSST{Count: pool.Len(), UniqueCount: pool.Len()}
	for _, s := range pool.Ordered() {
		val := unescapeUnderscoreX(s.Value())
		space := ""
		if needsPreserveSpace(val) {
			space = "preserve"
		}
		sst.SI = append(sst.SI, xlsxSI{T: &xlsxT{Val: escapeUnderscoreX(val), Space: space}})
	}
	out, err := xml.Marshal(sst)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding shared strings")
	}
	return append([]byte(xml.Header), out...), nil
}

func needsPreserveSpace(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t'
}

// decodeSharedStrings parses xl/sharedStrings.xml into a freshly-populated
// string pool, in file order (so writer-index parity with the source file
// is preserved until the next mutation).
func decodeSharedStrings(data []byte) (*StringPool, error) {
	var sst xlsxSST
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, wrapError(ErrCorruptFile, err, "parsing sharedStrings.xml")
	}
	pool := NewStringPool()
	for _, si := range sst.SI {
		pool.Intern(decodeEscapes(si.String()))
	}
	return pool, nil
}
