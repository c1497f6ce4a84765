package gridflow

import (
	"encoding/xml"
	"strings"
)

// ReadXLSX parses an OOXML .xlsx package into a Workbook (spec §4.5). Sheet
// order follows xl/workbook.xml's <sheets> list; each worksheet's formulas
// are left NeedsRecalc so the caller can call Calculate before reading
// values, matching the "a freshly-opened workbook has not yet calculated"
// invariant (spec §4.4.5).
func ReadXLSX(data []byte) (*Workbook, error) {
	parts, err := openZipPackage(data)
	if err != nil {
		return nil, err
	}

	wbXMLData, ok := parts[partWorkbook]
	if !ok {
		return nil, newError(ErrCorruptFile, "missing xl/workbook.xml")
	}
	xw, err := decodeWorkbookXML(wbXMLData)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{
		names:    make(map[string]SheetRef),
		depgraph: newDepGraph(),
	}

	if sstData, ok := parts[partSharedStrings]; ok {
		pool, err := decodeSharedStrings(sstData)
		if err != nil {
			return nil, err
		}
		wb.Strings = pool
	} else {
		wb.Strings = NewStringPool()
	}

	var dxfs []Style
	if stylesData, ok := parts[partStyles]; ok {
		pool, d, err := decodeStylesXML(stylesData)
		if err != nil {
			return nil, err
		}
		wb.Styles = pool
		dxfs = d
	} else {
		wb.Styles = NewStylePool()
	}

	if xw.DefinedNames != nil {
		for _, dn := range xw.DefinedNames.DefinedName {
			if ref, err := ParseSheetRef(dn.RefersTo); err == nil {
				wb.names[strings.ToUpper(dn.Name)] = ref
			}
		}
	}

	relTargets := sheetRelTargets(parts)

	for i, xs := range xw.Sheets.Sheet {
		sheet := newWorksheet(wb, i, xs.Name)
		wb.sheets = append(wb.sheets, sheet)

		target, ok := relTargets[xs.RID]
		if !ok {
			target = "worksheets/sheet" + itoa(i+1) + ".xml"
		}
		sheetData, ok := parts["xl/"+target]
		if !ok {
			continue
		}
		if err := decodeWorksheetXML(sheet, sheetData, wb.Strings, dxfs); err != nil {
			return nil, err
		}

		if commentsData, ok := parts[partComments(i)]; ok {
			if err := decodeCommentsXML(sheet, commentsData); err != nil {
				return nil, err
			}
		}

		for row, r := range sheet.rows {
			for col, c := range r.cells {
				if c.Value.Kind == KindFormula && c.Value.Formula.ast != nil {
					wb.depgraph.installPrecedents(cellKey{Sheet: i, Row: row, Col: col}, c.Value.Formula.ast, sheet)
					wb.depgraph.markDirty(cellKey{Sheet: i, Row: row, Col: col})
				}
			}
		}
	}

	if len(wb.sheets) == 0 {
		return nil, newError(ErrCorruptFile, "workbook has no worksheets")
	}
	return wb, nil
}

func sheetRelTargets(parts map[partName][]byte) map[string]string {
	targets := map[string]string{}
	data, ok := parts[partWorkbookRels]
	if !ok {
		return targets
	}
	var rels xlsxRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return targets
	}
	for _, r := range rels.Relationship {
		targets[r.ID] = r.Target
	}
	return targets
}
