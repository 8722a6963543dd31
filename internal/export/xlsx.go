package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX builds a spreadsheet with one worksheet row per line of the input
// text, each line stored as a single cell in column A. No column splitting or
// table detection is attempted.
func XLSX(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	for i, line := range splitLines(text) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell reference: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize XLSX: %w", err)
	}
	return buf.Bytes(), nil
}
