package gridflow

import (
	"bytes"
	"io"
)

// WriteXLSX serializes wb as an OOXML .xlsx package to w, in the fixed ZIP
// entry order spec §6 requires: [Content_Types].xml, _rels/.rels,
// xl/workbook.xml, xl/_rels/workbook.xml.rels, xl/sharedStrings.xml,
// xl/styles.xml, one xl/worksheets/sheetN.xml plus its _rels and comments
// part per sheet.
func WriteXLSX(wb *Workbook, w io.Writer) error {
	dxfs, dxfIDs := collectDxfStyles(wb)

	wbXML, err := encodeWorkbookXML(wb)
	if err != nil {
		return err
	}
	sstXML, err := encodeSharedStrings(wb.Strings)
	if err != nil {
		return err
	}
	stylesXML, err := encodeStylesXML(wb, dxfs)
	if err != nil {
		return err
	}

	wbRels := xlsxRelationships{}
	for i := range wb.sheets {
		wbRels.Relationship = append(wbRels.Relationship, xlsxRelationship{
			ID: "rId" + itoa(i+1), Type: relTypeWorksheet, Target: "worksheets/sheet" + itoa(i+1) + ".xml",
		})
	}
	nextID := len(wb.sheets) + 1
	wbRels.Relationship = append(wbRels.Relationship,
		xlsxRelationship{ID: "rId" + itoa(nextID), Type: relTypeStyles, Target: "styles.xml"},
		xlsxRelationship{ID: "rId" + itoa(nextID+1), Type: relTypeSharedStrings, Target: "sharedStrings.xml"},
	)
	wbRelsXML, err := marshalRels(wbRels)
	if err != nil {
		return err
	}

	rootRels := xlsxRelationships{Relationship: []xlsxRelationship{
		{ID: "rId1", Type: relTypeOfficeDocument, Target: "xl/workbook.xml"},
	}}
	rootRelsXML, err := marshalRels(rootRels)
	if err != nil {
		return err
	}

	types := xlsxTypes{
		Defaults: []xlsxDefaultType{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Override: []xlsxOverrideType{
			{PartName: "/xl/workbook.xml", ContentType: ctWorkbook},
			{PartName: "/xl/styles.xml", ContentType: ctStyles},
			{PartName: "/xl/sharedStrings.xml", ContentType: ctSharedStrings},
		},
	}

	type sheetParts struct {
		sheetXML, relsXML, commentsXML []byte
		hasRels                        bool
	}
	perSheet := make([]sheetParts, len(wb.sheets))
	for i, sheet := range wb.sheets {
		sheetXML, err := encodeWorksheetXML(sheet, dxfIDs)
		if err != nil {
			return err
		}
		perSheet[i].sheetXML = sheetXML
		types.Override = append(types.Override, xlsxOverrideType{
			PartName: "/" + partWorksheet(i), ContentType: ctWorksheet,
		})

		if len(sheet.comments) > 0 {
			commentsXML, err := encodeCommentsXML(sheet)
			if err != nil {
				return err
			}
			perSheet[i].commentsXML = commentsXML
			types.Override = append(types.Override, xlsxOverrideType{
				PartName: "/" + partComments(i), ContentType: ctComments,
			})
			sheetRels := xlsxRelationships{Relationship: []xlsxRelationship{
				{ID: "rId1", Type: relTypeComments, Target: "../comments" + itoa(i+1) + ".xml"},
			}}
			relsXML, err := marshalRels(sheetRels)
			if err != nil {
				return err
			}
			perSheet[i].relsXML = relsXML
			perSheet[i].hasRels = true
		}
	}

	typesXML, err := marshalContentTypes(types)
	if err != nil {
		return err
	}

	pkg := newZipPackage()
	pkg.add(partContentTypes, typesXML)
	pkg.add(partRootRels, rootRelsXML)
	pkg.add(partWorkbook, wbXML)
	pkg.add(partWorkbookRels, wbRelsXML)
	pkg.add(partSharedStrings, sstXML)
	pkg.add(partStyles, stylesXML)
	for i, parts := range perSheet {
		pkg.add(partWorksheet(i), parts.sheetXML)
		if parts.hasRels {
			pkg.add(partWorksheetRels(i), parts.relsXML)
		}
		if parts.commentsXML != nil {
			pkg.add(partComments(i), parts.commentsXML)
		}
	}

	return pkg.writeTo(w)
}

// EncodeXLSX serializes wb as an in-memory OOXML .xlsx byte slice.
func EncodeXLSX(wb *Workbook) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(wb, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
