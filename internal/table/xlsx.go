package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of a workbook. Short rows are padded to the
// header width since excelize drops trailing empty cells.
func ReadXLSX(r io.Reader) (*Frame, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening Excel file: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}

	f := &Frame{Header: rows[0]}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		for len(row) < len(f.Header) {
			row = append(row, "")
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}
