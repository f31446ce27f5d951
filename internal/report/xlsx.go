package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX writes rows under the given header to a single-sheet
// workbook at path.
func WriteXLSX(path, sheetName string, fieldnames []string, rows []map[string]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", sheetName)
	}

	header := sheet.AddRow()
	for _, name := range fieldnames {
		header.AddCell().SetString(name)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, name := range fieldnames {
			r.AddCell().SetString(row[name])
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}
