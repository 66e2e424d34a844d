package databox

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	DataSheet   = "Data"
	HeaderSheet = "Header"
)

// saveWorkbook writes ckeys and rows to DataSheet and key/value pairs to
// HeaderSheet.
func (b *Box) saveWorkbook(path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if len(b.columns) > 0 {
		keys := make([]interface{}, len(b.ckeys))
		for i, k := range b.ckeys {
			keys[i] = k
		}
		if err := f.SetSheetRow(DataSheet, "A1", &keys); err != nil {
			return fmt.Errorf("workbook keys: %w", err)
		}
		row := make([]interface{}, len(b.columns))
		for r := 0; r < b.Rows(); r++ {
			for c := range b.columns {
				row[c] = b.columns[c][r]
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(DataSheet, cell, &row); err != nil {
				return fmt.Errorf("workbook row %d: %w", r+1, err)
			}
		}
	}

	if len(b.hkeys) > 0 {
		if _, err := f.NewSheet(HeaderSheet); err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
		for i, k := range b.hkeys {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			pair := []interface{}{k, b.header[k]}
			if err := f.SetSheetRow(HeaderSheet, cell, &pair); err != nil {
				return fmt.Errorf("workbook header %q: %w", k, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (b *Box) loadWorkbook(path string, headerOnly bool) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	b.ClearHeader()
	if idx, err := f.GetSheetIndex(HeaderSheet); err == nil && idx >= 0 {
		rows, err := f.GetRows(HeaderSheet)
		if err != nil {
			return fmt.Errorf("read %s header: %w", path, err)
		}
		for _, r := range rows {
			switch len(r) {
			case 0:
			case 1:
				b.SetHeader(r[0], "")
			default:
				b.SetHeader(r[0], r[1])
			}
		}
	}
	if headerOnly {
		return nil
	}

	rows, err := f.GetRows(DataSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read %s data: %w", path, err)
	}
	b.ClearColumns()
	if len(rows) == 0 {
		return nil
	}
	if err := b.setRecords(rows[0], rows[1:]); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
