// Package xlslegacy recognizes legacy BIFF8 (.xls) compound-file documents
// well enough to report that they are unsupported, rather than mis-parsing
// them as OOXML (spec §3 Non-goals: the legacy codec is a stub).
package xlslegacy

import (
	"fmt"
	"io"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

// ErrUnsupported reports that r is a recognized BIFF8 compound file, which
// this library does not read or write.
type ErrUnsupported struct {
	WorkbookStreamFound bool
}

func (e *ErrUnsupported) Error() string {
	return "legacy .xls (BIFF8) files are not supported; convert to .xlsx first"
}

// Sniff inspects r's compound-file structure and returns ErrUnsupported if
// it finds a "Workbook" or "Book" stream characteristic of a legacy .xls
// document, and nil otherwise: nil if r does not look like an OLE2 compound
// file at all (so the caller can fall back to trying it as a ZIP/OOXML
// package), and nil as well for a compound file that fails to open.
func Sniff(r io.ReaderAt) error {
	doc, err := mscfb.New(asReaderAt(r))
	if err != nil {
		return nil
	}
	found := false
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || entry.Name == "Book" {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	return &ErrUnsupported{WorkbookStreamFound: true}
}

// SummaryProperties reads the OLE2 SummaryInformation stream from a legacy
// document, for diagnostic reporting even though the workbook body itself
// cannot be parsed. The gridflow CLI does not call it.
func SummaryProperties(r io.ReaderAt, size int64) (map[string]string, error) {
	doc, err := msoleps.New(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("xlslegacy: reading OLE properties: %w", err)
	}
	out := make(map[string]string)
	for name, prop := range doc.PropertySetStreams() {
		out[name] = fmt.Sprintf("%v", prop)
	}
	return out, nil
}

func asReaderAt(r io.ReaderAt) io.Reader {
	return io.NewSectionReader(r, 0, 1<<62)
}
