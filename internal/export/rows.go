// Package export turns neighborhood graphs and dysregulation results into
// downloadable files: flat edge tables, full result dumps and rendered images.
package export

import (
	"io"
	"sort"
	"strconv"

	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Header is the column order of every edge export.
var Header = []string{"source", "target", "type", "fraction"}

// EdgeRow is one exported edge.
type EdgeRow struct {
	Source   core.GeneID         `json:"source"`
	Target   core.GeneID         `json:"target"`
	Type     core.DirectionClass `json:"type"`
	Fraction float64             `json:"fraction"`
}

// DisplayedEdge is an edge as a graph client reports it after its own
// filtering. Class may be the short form ("a", "r") or the full class name.
type DisplayedEdge struct {
	Source   core.GeneID `json:"source"`
	Target   core.GeneID `json:"target"`
	Class    string      `json:"class"`
	Fraction float64     `json:"fraction"`
}

// GraphRows lists the edges of graph: the sources bucket first, then the
// targets bucket, each sorted by edge id.
func GraphRows(graph *core.NeighborhoodGraph) []EdgeRow {
	if graph == nil {
		return nil
	}
	edges := append([]core.GraphEdge(nil), graph.Edges...)
	sort.SliceStable(edges, func(i, j int) bool {
		bi, bj := bucketOrder(edges[i].Bucket), bucketOrder(edges[j].Bucket)
		if bi != bj {
			return bi < bj
		}
		return edges[i].ID < edges[j].ID
	})

	rows := make([]EdgeRow, len(edges))
	for i, e := range edges {
		rows[i] = EdgeRow{
			Source:   e.Key.Regulator,
			Target:   e.Key.Target,
			Type:     e.Class,
			Fraction: e.Fraction,
		}
	}
	return rows
}

func bucketOrder(b core.Bucket) int {
	if b == core.BucketTargets {
		return 1
	}
	return 0
}

// DisplayedRows converts a client edge list, keeping its order.
func DisplayedRows(edges []DisplayedEdge) []EdgeRow {
	rows := make([]EdgeRow, len(edges))
	for i, e := range edges {
		rows[i] = EdgeRow{
			Source:   e.Source,
			Target:   e.Target,
			Type:     core.ClassFromShort(e.Class),
			Fraction: e.Fraction,
		}
	}
	return rows
}

// ToTable returns the header row followed by one row per edge. An empty
// edge list yields the header alone.
func ToTable(rows []EdgeRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range rows {
		out = append(out, []string{r.Source, r.Target, string(r.Type), formatFraction(r.Fraction)})
	}
	return out
}

func formatFraction(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes rows as CSV with the edge header.
func WriteCSV(w io.Writer, rows []EdgeRow) error {
	t := ToTable(rows)
	return table.WriteCSV(w, &table.Frame{Header: t[0], Rows: t[1:]})
}
