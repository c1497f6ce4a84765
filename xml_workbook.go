package gridflow

import "encoding/xml"

// xlsxWorkbook maps xl/workbook.xml: the sheet list, defined names, and
// calculation properties (spec §4.5).
type xlsxWorkbook struct {
	XMLName       xml.Name          `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main workbook"`
	Sheets        xlsxSheets        `xml:"sheets"`
	DefinedNames  *xlsxDefinedNames `xml:"definedNames"`
	CalcPr        *xlsxCalcPr       `xml:"calcPr"`
}

type xlsxSheets struct {
	Sheet []xlsxSheet `xml:"sheet"`
}

type xlsxSheet struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	State   string `xml:"state,attr,omitempty"`
}

type xlsxDefinedNames struct {
	DefinedName []xlsxDefinedName `xml:"definedName"`
}

type xlsxDefinedName struct {
	Name       string `xml:"name,attr"`
	RefersTo   string `xml:",chardata"`
}

// xlsxCalcPr maps calculation engine settings: iterative mode, iteration
// bound, and convergence threshold (spec §4.4.5 steps 5-6).
type xlsxCalcPr struct {
	CalcID         string  `xml:"calcId,attr,omitempty"`
	Iterate        bool    `xml:"iterate,attr,omitempty"`
	IterateCount   int     `xml:"iterateCount,attr,omitempty"`
	IterateDelta   float64 `xml:"iterateDelta,attr,omitempty"`
}

func encodeWorkbookXML(wb *Workbook) ([]byte, error) {
	xw := xlsxWorkbook{
		CalcPr: &xlsxCalcPr{CalcID: "0"},
	}
	for i, s := range wb.sheets {
		xw.Sheets.Sheet = append(xw.Sheets.Sheet, xlsxSheet{
			Name:    s.name,
			SheetID: i + 1,
			RID:     "rId" + itoa(i+1),
		})
	}
	if len(wb.names) > 0 {
		dn := &xlsxDefinedNames{}
		for name, ref := range wb.names {
			dn.DefinedName = append(dn.DefinedName, xlsxDefinedName{Name: name, RefersTo: FormatSheetRef(ref)})
		}
		xw.DefinedNames = dn
	}
	out, err := xml.Marshal(xw)
	if err != nil {
		return nil, wrapError(ErrInternal, err, "encoding workbook.xml")
	}
	return append([]byte(xml.Header), out...), nil
}

func decodeWorkbookXML(data []byte) (*xlsxWorkbook, error) {
	var xw xlsxWorkbook
	if err := xml.Unmarshal(data, &xw); err != nil {
		return nil, wrapError(ErrCorruptFile, err, "parsing workbook.xml")
	}
	return &xw, nil
}
