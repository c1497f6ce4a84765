// Package numfmt renders a cell's raw value to its Excel display string
// using a number-format code (spec §4.5 "number formats (built-in by id,
// custom by format code)"). Format-string tokenization is delegated to
// github.com/xuri/nfp; this package only implements the rendering logic on
// top of the resulting section/token stream.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"
)

// BuiltIn maps built-in numFmtId values (0-49) to their canonical format
// strings per ECMA-376 §18.8.30. IDs >= 164 are always custom (spec §4.5).
var BuiltIn = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "MM-DD-YY",
	15: "D-MMM-YY",
	16: "D-MMM",
	17: "MMM-YY",
	18: "H:MM AM/PM",
	19: "H:MM:SS AM/PM",
	20: "H:MM",
	21: "H:MM:SS",
	22: "M/D/YY H:MM",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	44: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	45: "MM:SS",
	46: "[H]:MM:SS",
	47: "MM:SS.0",
	48: "##0.0E+0",
	49: "@",
}

// IsCustomID reports whether a numFmtId denotes a custom (non-built-in)
// format, per spec §4.5: "Number-format ids >= 164 are treated as custom."
func IsCustomID(id int) bool { return id >= 164 }

// Resolve returns the effective format string for a cell: the custom code
// when non-empty, else the built-in string for id, else "General".
func Resolve(id int, code string) string {
	if code != "" {
		return code
	}
	if s, ok := BuiltIn[id]; ok {
		return s
	}
	return "General"
}

// FormatNumber renders a numeric value using the given effective format
// string. date1904 selects the 1904 date system for date/time formats.
func FormatNumber(val float64, numFmtID int, effective string, date1904 bool) string {
	if effective == "" || effective == "General" {
		return renderGeneral(val)
	}
	parser := nfp.NumberFormatParser()
	sections := parser.Parse(effective)
	if len(sections) == 0 {
		return renderGeneral(val)
	}
	sec := selectSection(sections, val)
	if isDateFormat(numFmtID, effective) {
		return renderDateTime(val, sec, date1904)
	}
	return renderNumber(val, sec, sections)
}

// FormatText renders a string value through a format's text section (the
// 4th section, or "@" if absent).
func FormatText(s string, effective string) string {
	if effective == "" || effective == "General" || effective == "@" {
		return s
	}
	parser := nfp.NumberFormatParser()
	sections := parser.Parse(effective)
	if len(sections) < 4 {
		return s
	}
	var sb strings.Builder
	for _, tok := range sections[3].Items {
		if tok.TType == nfp.TokenTypeLiteral && tok.TValue == "@" {
			sb.WriteString(s)
		} else if tok.TType == nfp.TokenTypeLiteral {
			sb.WriteString(tok.TValue)
		}
	}
	if sb.Len() == 0 {
		return s
	}
	return sb.String()
}

func selectSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

func renderGeneral(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

func isDateFormat(id int, fmtStr string) bool {
	switch {
	case id >= 14 && id <= 17:
		return true
	case id == 22:
		return true
	case id >= 45 && id <= 47:
		return true
	}
	if id != 0 && id < 164 {
		return false
	}
	inQuote, inBracket := false, false
	for _, ch := range fmtStr {
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' || ch == 'm' || ch == 'M' || ch == 'y' || ch == 'Y' || ch == 'h' || ch == 'H':
			return true
		}
	}
	return false
}

func renderDateTime(serial float64, sec nfp.Section, date1904 bool) string {
	t, err := convertSerial(serial, date1904)
	if err != nil {
		return renderGeneral(serial)
	}
	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			u := strings.ToUpper(tok.TValue)
			if u == "AM/PM" || u == "A/P" {
				hasAmPm = true
				break
			}
		}
	}
	var sb strings.Builder
	lastWasHour := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			u := strings.ToUpper(tok.TValue)
			sb.WriteString(renderDateToken(u, t, hasAmPm))
			lastWasHour = u == "H" || u == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			u := strings.ToUpper(tok.TValue)
			sb.WriteString(renderElapsed(u, serial))
			lastWasHour = u == "H" || u == "HH"
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		default:
			lastWasHour = false
		}
	}
	_ = lastWasHour
	if sb.Len() == 0 {
		return renderGeneral(serial)
	}
	return sb.String()
}

func renderDateToken(upper string, t time.Time, hasAmPm bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		h := t.Hour()
		if hasAmPm {
			h = h%12 + boolToInt(h%12 == 0)*12
		}
		return fmt.Sprintf("%02d", h)
	case "H":
		h := t.Hour()
		if hasAmPm {
			h = h%12 + boolToInt(h%12 == 0)*12
		}
		return strconv.Itoa(h)
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func renderElapsed(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*24*3600)%60)
	case "S":
		return strconv.Itoa(int(serial*24*3600) % 60)
	}
	return ""
}

func convertSerial(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: invalid serial %v", serial)
	}
	fracSec := int64(math.Round((serial - math.Trunc(serial)) * 86400))
	if fracSec < 0 {
		fracSec = 0
	} else if fracSec > 86399 {
		fracSec = 86399
	}
	if date1904 {
		base := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
		return base.Add(time.Duration(int(serial))*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	intPart := int(serial)
	var t time.Time
	switch {
	case intPart == 0:
		t = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(fracSec) * time.Second)
	case intPart >= 61:
		t = base.Add(time.Duration(intPart-1)*24*time.Hour + time.Duration(fracSec)*time.Second)
	default:
		t = base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second)
	}
	return t, nil
}

func renderNumber(val float64, sec nfp.Section, sections []nfp.Section) string {
	type meta struct {
		hasPercent      bool
		hasThousands    bool
		decZeros        int
		decHashes       int
		intZeros        int
		hasDecimal      bool
		hasExplicitSign bool
	}
	var m meta
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			m.hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			m.hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			m.hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				m.decZeros += len(tok.TValue)
			} else {
				m.intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				m.decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				m.hasExplicitSign = true
			}
		}
	}
	totalDec := m.decZeros + m.decHashes

	absVal := math.Abs(val)
	if m.hasPercent {
		absVal *= 100
	}

	var intStr, fracStr string
	if m.hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDec, 64)
		if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
			intStr, fracStr = formatted[:dot], formatted[dot+1:]
		} else {
			intStr, fracStr = formatted, strings.Repeat("0", totalDec)
		}
		if m.decHashes > 0 && len(fracStr) > m.decZeros {
			trim := len(fracStr)
			for trim > m.decZeros && trim > 0 && fracStr[trim-1] == '0' {
				trim--
			}
			fracStr = fracStr[:trim]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}

	for len(intStr) < m.intZeros {
		intStr = "0" + intStr
	}
	if m.hasThousands && len(intStr) > 3 {
		intStr = insertThousandsSep(intStr)
	}

	needsMinus := val < 0 && !m.hasExplicitSign && len(sections) < 2

	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return renderGeneral(val)
	}
	return sb.String()
}

func insertThousandsSep(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
