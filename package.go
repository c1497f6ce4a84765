package gridflow

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
)

// partName is the path of one ZIP entry inside an OOXML package, e.g.
// "xl/worksheets/sheet1.xml".
type partName = string

const (
	partContentTypes    partName = "[Content_Types].xml"
	partRootRels        partName = "_rels/.rels"
	partWorkbook        partName = "xl/workbook.xml"
	partWorkbookRels    partName = "xl/_rels/workbook.xml.rels"
	partStyles          partName = "xl/styles.xml"
	partSharedStrings   partName = "xl/sharedStrings.xml"
)

func partWorksheet(i int) partName { return "xl/worksheets/sheet" + itoa(i+1) + ".xml" }
func partWorksheetRels(i int) partName {
	return "xl/worksheets/_rels/sheet" + itoa(i+1) + ".xml.rels"
}
func partComments(i int) partName { return "xl/comments" + itoa(i+1) + ".xml" }

// xlsxTypes maps [Content_Types].xml, the manifest every OOXML reader
// consults before trusting any other part (spec §4.5).
type xlsxTypes struct {
	XMLName  xml.Name          `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults []xlsxDefaultType `xml:"Default"`
	Override []xlsxOverrideType `xml:"Override"`
}

type xlsxDefaultType struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xlsxOverrideType struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// xlsxRelationships maps a .rels part: the target each relationship id
// points at.
type xlsxRelationships struct {
	XMLName      xml.Name           `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationship []xlsxRelationship `xml:"Relationship"`
}

type xlsxRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	relTypeComments       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"

	ctWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctComments      = "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml"
)

// zipPackage collects named XML parts before they are committed to the ZIP
// container, so every writer stage just appends a part rather than touching
// the archive directly.
type zipPackage struct {
	parts map[partName][]byte
	order []partName
}

func newZipPackage() *zipPackage {
	return &zipPackage{parts: make(map[partName][]byte)}
}

func (p *zipPackage) add(name partName, data []byte) {
	if _, exists := p.parts[name]; !exists {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

// writeTo serializes every accumulated part into a ZIP archive, in the order
// parts were added (spec §4.5: stable part ordering helps byte-for-byte
// round-trip diffs).
func (p *zipPackage) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range p.order {
		f, err := zw.Create(name)
		if err != nil {
			return wrapError(ErrIO, err, "creating zip entry %q", name)
		}
		if _, err := f.Write(p.parts[name]); err != nil {
			return wrapError(ErrIO, err, "writing zip entry %q", name)
		}
	}
	if err := zw.Close(); err != nil {
		return wrapError(ErrIO, err, "closing xlsx package")
	}
	return nil
}

func marshalRels(rels xlsxRelationships) ([]byte, error) {
	out, err := xml.Marshal(rels)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding relationships")
	}
	return append([]byte(xml.Header), out...), nil
}

func marshalContentTypes(types xlsxTypes) ([]byte, error) {
	out, err := xml.Marshal(types)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding content types")
	}
	return append([]byte(xml.Header), out...), nil
}

func openZipPackage(data []byte) (map[partName][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, wrapError(ErrCorruptFile, err, "opening xlsx package")
	}
	parts := make(map[partName][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, wrapError(ErrCorruptFile, err, "reading zip entry %q", f.Name)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, wrapError(ErrCorruptFile, err, "reading zip entry %q", f.Name)
		}
		parts[f.Name] = content
	}
	return parts, nil
}
