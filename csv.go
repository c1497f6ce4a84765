package gridflow

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// TypeDetection selects how CSVReader classifies each field (spec §4.6).
type TypeDetection int

const (
	// AllStrings stores every field as a String cell.
	AllStrings TypeDetection = iota
	// Auto promotes fields that parse cleanly as a number or boolean.
	Auto
)

// QuoteStyle selects when CSVWriter quotes a field (spec §4.6).
type QuoteStyle int

const (
	QuoteNecessary QuoteStyle = iota
	QuoteAlways
	QuoteNever
)

// CSVReadOptions configures CSVReader (spec §4.6).
type CSVReadOptions struct {
	Delimiter  rune
	Quote      rune
	HasHeader  bool
	Detection  TypeDetection
}

// DefaultCSVReadOptions matches RFC 4180 defaults with Auto type detection.
var DefaultCSVReadOptions = CSVReadOptions{Delimiter: ',', Quote: '"', Detection: Auto}

// CSVWriteOptions configures CSVWriter (spec §4.6).
type CSVWriteOptions struct {
	Delimiter     rune
	Quote         QuoteStyle
	LineTerminator string // "\n" or "\r\n"
}

// DefaultCSVWriteOptions writes RFC 4180-compatible output with Unix line
// endings and quoting only where the field requires it.
var DefaultCSVWriteOptions = CSVWriteOptions{Delimiter: ',', Quote: QuoteNecessary, LineTerminator: "\n"}

// ReadCSV parses r into a single-sheet Workbook using opts, storing a header
// row (if any) as ordinary string cells in row 0 — CSV carries no style or
// formula information, so the reader only ever produces Empty/Boolean/
// Number/String cells (spec §4.6). Records are parsed by a hand-rolled
// RFC 4180 reader rather than encoding/csv because Auto type detection (spec
// §8 scenario 10) must know whether a field was quoted in the source text:
// a quoted `"7"` stays a String even though it looks numeric, while a bare
// `42` promotes to Number, a distinction encoding/csv's Reader.Read doesn't
// preserve past the unquoted result string.
func ReadCSV(r io.Reader, opts CSVReadOptions) (*Workbook, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	quote := opts.Quote
	if quote == 0 {
		quote = '"'
	}

	wb := New()
	sheet, _ := wb.Worksheet(0)
	br := bufio.NewReader(r)

	row := 0
	for {
		fields, quoted, err := readCSVRecord(br, delim, quote)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapError(ErrCorruptFile, err, "reading CSV record at row %d", row)
		}
		for col, field := range fields {
			addr := CellAddr{Row: row, Col: col}
			var val CellValue
			if row == 0 && opts.HasHeader {
				val = StringValue(wb.Strings.Intern(field))
			} else {
				val = classifyCSVField(field, quoted[col], opts.Detection, wb.Strings)
			}
			if err := sheet.Set(addr, val); err != nil {
				return nil, err
			}
		}
		row++
	}
	return wb, nil
}

// readCSVRecord reads one RFC 4180 record from br, tracking per-field
// whether it was delimited by quote characters in the source text. It
// returns io.EOF only when no field at all was read (a clean end of input).
func readCSVRecord(br *bufio.Reader, delim, quote rune) ([]string, []bool, error) {
	var fields []string
	var quotedFlags []bool
	var field strings.Builder
	inQuotes := false
	fieldQuoted := false
	sawAny := false

	finish := func() ([]string, []bool, error) {
		fields = append(fields, field.String())
		quotedFlags = append(quotedFlags, fieldQuoted)
		return fields, quotedFlags, nil
	}

	for {
		r, _, err := br.ReadRune()
		if err != nil {
			if err == io.EOF {
				if !sawAny {
					return nil, nil, io.EOF
				}
				return finish()
			}
			return nil, nil, err
		}
		sawAny = true

		if inQuotes {
			if r == quote {
				next, _, nerr := br.ReadRune()
				if nerr == nil && next == quote {
					field.WriteRune(quote)
					continue
				}
				if nerr == nil {
					_ = br.UnreadRune()
				}
				inQuotes = false
				continue
			}
			field.WriteRune(r)
			continue
		}

		switch r {
		case quote:
			if field.Len() == 0 {
				inQuotes = true
				fieldQuoted = true
				continue
			}
			field.WriteRune(r)
		case delim:
			fields = append(fields, field.String())
			quotedFlags = append(quotedFlags, fieldQuoted)
			field.Reset()
			fieldQuoted = false
		case '\r':
			next, _, nerr := br.ReadRune()
			if nerr == nil && next != '\n' {
				_ = br.UnreadRune()
			}
			return finish()
		case '\n':
			return finish()
		default:
			field.WriteRune(r)
		}
	}
}

func classifyCSVField(field string, wasQuoted bool, detection TypeDetection, pool *StringPool) CellValue {
	if field == "" && !wasQuoted {
		return EmptyValue
	}
	if detection == AllStrings || wasQuoted {
		return StringValue(pool.Intern(field))
	}
	if !strings.ContainsAny(field, " \t") || (field[0] != ' ' && field[len(field)-1] != ' ' && field[0] != '\t' && field[len(field)-1] != '\t') {
		if n, err := strconv.ParseFloat(field, 64); err == nil {
			return NumberValue(n)
		}
	}
	switch strings.ToLower(field) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	return StringValue(pool.Intern(field))
}

// WriteCSV renders one worksheet as CSV to w, per opts (spec §4.6). Formula
// cells write their last-calculated value; Calculate should be called first
// if up-to-date values are required.
func WriteCSV(sheet *Worksheet, w io.Writer, opts CSVWriteOptions) error {
	term := opts.LineTerminator
	if term == "" {
		term = "\n"
	}
	rng, ok := sheet.UsedRange()
	if !ok {
		return nil
	}
	for row := rng.Start.Row; row <= rng.End.Row; row++ {
		var fields []string
		for col := rng.Start.Col; col <= rng.End.Col; col++ {
			v := cellValueView(sheet, CellAddr{Row: row, Col: col})
			fields = append(fields, formatCSVField(v))
		}
		line := joinCSVFields(fields, opts)
		if _, err := io.WriteString(w, line+term); err != nil {
			return wrapError(ErrIO, err, "writing CSV row %d", row)
		}
	}
	return nil
}

func formatCSVField(v CellValue) string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str.Value()
	case KindError:
		return v.Err.String()
	default:
		return ""
	}
}

func joinCSVFields(fields []string, opts CSVWriteOptions) string {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	quoteChar := byte('"')
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteRune(delim)
		}
		needsQuote := opts.Quote == QuoteAlways
		if opts.Quote != QuoteNever && !needsQuote {
			needsQuote = strings.ContainsRune(f, delim) || strings.ContainsAny(f, "\"\r\n")
		}
		if !needsQuote {
			sb.WriteString(f)
			continue
		}
		sb.WriteByte(quoteChar)
		sb.WriteString(strings.ReplaceAll(f, "\"", "\"\""))
		sb.WriteByte(quoteChar)
	}
	return sb.String()
}
