package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// ResultSheet is the worksheet name of an XLSX result export.
const ResultSheet = "dysregulation"

// ResultFrame lays out a result as a table: a "sample" column followed by
// one "regulator,target" column per edge.
func ResultFrame(result *core.Result) *table.Frame {
	header := make([]string, 0, len(result.Edges)+1)
	header = append(header, "sample")
	for _, e := range result.Edges {
		header = append(header, e.Column())
	}

	f := &table.Frame{Header: header, Rows: make([][]string, len(result.Samples))}
	for i, s := range result.Samples {
		row := make([]string, 0, len(header))
		row = append(row, s)
		for _, v := range result.Values[i] {
			row = append(row, table.FormatFloat(v))
		}
		f.Rows[i] = row
	}
	return f
}

// WriteResultCSV dumps the full result as CSV.
func WriteResultCSV(w io.Writer, result *core.Result) error {
	return table.WriteCSV(w, ResultFrame(result))
}

// WriteResultXLSX dumps the full result as a workbook with a single sheet.
// Values are written as numbers.
func WriteResultXLSX(w io.Writer, result *core.Result) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName(wb.GetSheetName(0), ResultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := wb.NewStreamWriter(ResultSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]any, 0, len(result.Edges)+1)
	header = append(header, "sample")
	for _, e := range result.Edges {
		header = append(header, e.Column())
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range result.Samples {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, 0, len(header))
		row = append(row, s)
		for _, v := range result.Values[i] {
			row = append(row, v)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", s, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
