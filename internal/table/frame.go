// Package table reads the row-oriented tabular files the explorer accepts:
// expression matrices, sample metadata, regulatory networks and GCT control
// datasets. Every reader produces a Frame; conversions to domain types live here too.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Frame is a header plus string cells. For matrices the first column holds row ids.
type Frame struct {
	Header []string
	Rows   [][]string
}

// IDs returns the first column.
func (f *Frame) IDs() []string {
	ids := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		if len(row) > 0 {
			ids[i] = row[0]
		}
	}
	return ids
}

// Columns returns the header without the id column.
func (f *Frame) Columns() []string {
	if len(f.Header) == 0 {
		return nil
	}
	return f.Header[1:]
}

func (f *Frame) checkWidth() error {
	for i, row := range f.Rows {
		if len(row) != len(f.Header) {
			return core.NewValidationError("", fmt.Sprintf("row %d has %d cells, header has %d", i+1, len(row), len(f.Header)))
		}
	}
	return nil
}

// ToExpression converts a samples x genes frame into an expression matrix.
// Duplicate gene columns are kept; duplicate sample rows are rejected.
func (f *Frame) ToExpression() (*core.ExpressionMatrix, error) {
	if len(f.Header) < 2 {
		return nil, core.NewValidationError("expression", "expected a sample id column and at least one gene column")
	}
	if err := f.checkWidth(); err != nil {
		return nil, err
	}

	m := &core.ExpressionMatrix{
		Samples: make([]string, 0, len(f.Rows)),
		Genes:   append([]core.GeneID(nil), f.Columns()...),
		Values:  make([][]float64, 0, len(f.Rows)),
	}
	seen := make(map[string]struct{}, len(f.Rows))
	for i, row := range f.Rows {
		sample := row[0]
		if _, dup := seen[sample]; dup {
			return nil, core.NewValidationError("expression", fmt.Sprintf("duplicate sample %q", sample))
		}
		seen[sample] = struct{}{}

		vals, err := parseFloats(row[1:])
		if err != nil {
			return nil, core.NewValidationError("expression", fmt.Sprintf("row %d (%s): %v", i+1, sample, err))
		}
		m.Samples = append(m.Samples, sample)
		m.Values = append(m.Values, vals)
	}
	return m, nil
}

// ToMetadata converts a samples x fields frame into metadata.
func (f *Frame) ToMetadata() (*core.Metadata, error) {
	if len(f.Header) < 2 {
		return nil, core.NewValidationError("meta", "expected a sample id column and at least one annotation column")
	}
	if err := f.checkWidth(); err != nil {
		return nil, err
	}

	md := &core.Metadata{
		Samples: f.IDs(),
		Columns: append([]string(nil), f.Columns()...),
		Values:  make([][]string, len(f.Rows)),
	}
	for i, row := range f.Rows {
		md.Values[i] = append([]string(nil), row[1:]...)
	}
	return md, nil
}

// ToNetwork converts a two-column (regulator, target) frame into a network.
// Any other column count is an input validation failure.
func (f *Frame) ToNetwork() (*core.Network, error) {
	if len(f.Header) != 2 {
		return nil, core.NewValidationError("network", "network file must have exactly two columns")
	}
	if err := f.checkWidth(); err != nil {
		return nil, err
	}

	n := &core.Network{Edges: make([]core.EdgeKey, 0, len(f.Rows))}
	for _, row := range f.Rows {
		n.Edges = append(n.Edges, core.EdgeKey{
			Regulator: strings.TrimSpace(row[0]),
			Target:    strings.TrimSpace(row[1]),
		})
	}
	return n, nil
}

func parseFloats(cells []string) ([]float64, error) {
	out := make([]float64, len(cells))
	for j, c := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %q is not a number", j+2, c)
		}
		out[j] = v
	}
	return out, nil
}
