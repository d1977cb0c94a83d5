package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// WriteCSV writes f as comma separated text.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// FormatFloat renders a cell value in the shortest exact form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FromExpression is the inverse of Frame.ToExpression.
func FromExpression(m *core.ExpressionMatrix, idColumn string) *Frame {
	f := &Frame{
		Header: append([]string{idColumn}, m.Genes...),
		Rows:   make([][]string, len(m.Samples)),
	}
	for i, s := range m.Samples {
		row := make([]string, 0, len(m.Genes)+1)
		row = append(row, s)
		for _, v := range m.Values[i] {
			row = append(row, FormatFloat(v))
		}
		f.Rows[i] = row
	}
	return f
}

// FromMetadata is the inverse of Frame.ToMetadata.
func FromMetadata(md *core.Metadata, idColumn string) *Frame {
	f := &Frame{
		Header: append([]string{idColumn}, md.Columns...),
		Rows:   make([][]string, len(md.Samples)),
	}
	for i, s := range md.Samples {
		f.Rows[i] = append([]string{s}, md.Values[i]...)
	}
	return f
}

// FromNetwork is the inverse of Frame.ToNetwork.
func FromNetwork(n *core.Network) *Frame {
	f := &Frame{
		Header: []string{"regulator", "target"},
		Rows:   make([][]string, len(n.Edges)),
	}
	for i, e := range n.Edges {
		f.Rows[i] = []string{e.Regulator, e.Target}
	}
	return f
}
