package core

import (
	"fmt"
	"strings"
)

// GeneID is an opaque gene identifier. Symbol-style ("TP53") and
// versioned-accession-style ("ENSG00000141510.16") ids both occur.
type GeneID = string

// EdgeKey identifies a directed regulatory edge.
type EdgeKey struct {
	Regulator GeneID `json:"regulator"`
	Target    GeneID `json:"target"`
}

// ID returns the graph identity of the edge, "<source>:<target>".
func (k EdgeKey) ID() string {
	return k.Regulator + ":" + k.Target
}

// Column returns the serialized result column label, "<regulator>,<target>".
func (k EdgeKey) Column() string {
	return k.Regulator + "," + k.Target
}

// Touches reports whether either endpoint is in ids.
func (k EdgeKey) Touches(ids map[GeneID]struct{}) bool {
	if _, ok := ids[k.Regulator]; ok {
		return true
	}
	_, ok := ids[k.Target]
	return ok
}

// ParseEdgeKey parses either "<regulator>:<target>" or "<regulator>,<target>".
func ParseEdgeKey(s string) (EdgeKey, error) {
	sep := ":"
	if strings.Contains(s, ",") {
		sep = ","
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return EdgeKey{}, fmt.Errorf("invalid edge label %q", s)
	}
	return EdgeKey{
		Regulator: strings.TrimSpace(parts[0]),
		Target:    strings.TrimSpace(parts[1]),
	}, nil
}

// ExpressionMatrix holds expression values with samples as rows and genes as columns.
type ExpressionMatrix struct {
	Samples []string
	Genes   []GeneID
	Values  [][]float64 // [sample][gene]
}

// GeneIndex returns the column position of every gene. When a gene occurs
// more than once the first position wins.
func (m *ExpressionMatrix) GeneIndex() map[GeneID]int {
	idx := make(map[GeneID]int, len(m.Genes))
	for i, g := range m.Genes {
		if _, ok := idx[g]; !ok {
			idx[g] = i
		}
	}
	return idx
}

// SelectGenes returns a copy restricted to genes, in the given order.
// Genes absent from the matrix are skipped.
func (m *ExpressionMatrix) SelectGenes(genes []GeneID) *ExpressionMatrix {
	idx := m.GeneIndex()
	cols := make([]int, 0, len(genes))
	kept := make([]GeneID, 0, len(genes))
	for _, g := range genes {
		if i, ok := idx[g]; ok {
			cols = append(cols, i)
			kept = append(kept, g)
		}
	}

	out := &ExpressionMatrix{
		Samples: append([]string(nil), m.Samples...),
		Genes:   kept,
		Values:  make([][]float64, len(m.Values)),
	}
	for r, row := range m.Values {
		vals := make([]float64, len(cols))
		for j, c := range cols {
			vals[j] = row[c]
		}
		out.Values[r] = vals
	}
	return out
}

// UniqueGenes returns the matrix with repeated gene columns resolved to
// their first occurrence. A matrix without repeats is returned as is.
func (m *ExpressionMatrix) UniqueGenes() *ExpressionMatrix {
	idx := m.GeneIndex()
	if len(idx) == len(m.Genes) {
		return m
	}
	genes := make([]GeneID, 0, len(idx))
	for i, g := range m.Genes {
		if idx[g] == i {
			genes = append(genes, g)
		}
	}
	return m.SelectGenes(genes)
}

// Metadata holds per-sample annotations: one row per sample, one column per field.
type Metadata struct {
	Samples []string
	Columns []string
	Values  [][]string // [sample][column]
}

// Column returns the values of a named column.
func (m *Metadata) Column(name string) ([]string, bool) {
	for j, c := range m.Columns {
		if c == name {
			out := make([]string, len(m.Values))
			for i, row := range m.Values {
				out[i] = row[j]
			}
			return out, true
		}
	}
	return nil, false
}

// Network is the admissible regulatory edge set.
type Network struct {
	Edges []EdgeKey
}

// Result is a dysregulation matrix: rows are samples, columns are unique edges.
// A zero cell means the edge is not dysregulated for that sample.
type Result struct {
	Samples []string    `json:"samples"`
	Edges   []EdgeKey   `json:"edges"`
	Values  [][]float64 `json:"values"` // [sample][edge]
}

// Column returns the values of one edge across all samples.
func (r *Result) Column(j int) []float64 {
	out := make([]float64, len(r.Values))
	for i, row := range r.Values {
		out[i] = row[j]
	}
	return out
}

// SampleIndex returns the row of a sample, or -1.
func (r *Result) SampleIndex(sample string) int {
	for i, s := range r.Samples {
		if s == sample {
			return i
		}
	}
	return -1
}

// Validate checks shape and edge uniqueness.
func (r *Result) Validate() error {
	seen := make(map[EdgeKey]struct{}, len(r.Edges))
	for _, e := range r.Edges {
		if _, dup := seen[e]; dup {
			return fmt.Errorf("duplicate edge column %s", e.Column())
		}
		seen[e] = struct{}{}
	}
	if len(r.Values) != len(r.Samples) {
		return fmt.Errorf("result has %d rows for %d samples", len(r.Values), len(r.Samples))
	}
	for i, row := range r.Values {
		if len(row) != len(r.Edges) {
			return fmt.Errorf("row %s has %d values for %d edges", r.Samples[i], len(row), len(r.Edges))
		}
	}
	return nil
}
