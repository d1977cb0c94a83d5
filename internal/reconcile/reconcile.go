// Package reconcile aligns the gene axis of an uploaded expression matrix
// with the gene axis of a reference control dataset.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Reconciliation is the outcome of matching two gene axes.
type Reconciliation struct {
	// ReferenceRows are the reference positions backing Genes. A repeated
	// reference id resolves to its first occurrence.
	ReferenceRows []int
	// Genes is the shared gene axis in query order.
	Genes []core.GeneID
	// Missing are query genes absent from the reference, sorted.
	Missing []core.GeneID
	Outcome core.Outcome
}

// Reconcile matches queryIDs against referenceIDs.
//
// Query genes the reference lacks are dropped and reported in Missing. When
// nothing is dropped the outcome is NoChange and the query axis is used as
// is. A reference sharing no gene with the query is unusable.
func Reconcile(referenceIDs, queryIDs []core.GeneID) (Reconciliation, error) {
	refPos := make(map[core.GeneID]int, len(referenceIDs))
	rows := make([]int, 0, len(referenceIDs))
	for i, id := range referenceIDs {
		if _, dup := refPos[id]; dup {
			continue
		}
		refPos[id] = i
		rows = append(rows, i)
	}

	var (
		genes   []core.GeneID
		missing []core.GeneID
	)
	seenQuery := make(map[core.GeneID]struct{}, len(queryIDs))
	for _, id := range queryIDs {
		if _, dup := seenQuery[id]; dup {
			continue
		}
		seenQuery[id] = struct{}{}
		if _, ok := refPos[id]; ok {
			genes = append(genes, id)
		} else {
			missing = append(missing, id)
		}
	}

	if len(genes) == 0 {
		return Reconciliation{}, core.ErrUnusableReference
	}
	sort.Strings(missing)

	// Only reference rows whose gene the query also has take part.
	kept := make([]int, 0, len(genes))
	for _, id := range genes {
		kept = append(kept, refPos[id])
	}

	rec := Reconciliation{
		ReferenceRows: kept,
		Genes:         genes,
		Missing:       missing,
		Outcome:       core.Updated,
	}
	if len(missing) == 0 {
		rec.Outcome = core.NoChange
	}
	if err := rec.checkAxes(referenceIDs); err != nil {
		return Reconciliation{}, err
	}
	return rec, nil
}

// checkAxes verifies both filtered axes hold exactly the same genes.
func (r Reconciliation) checkAxes(referenceIDs []core.GeneID) error {
	query := make(map[core.GeneID]struct{}, len(r.Genes))
	for _, g := range r.Genes {
		query[g] = struct{}{}
	}
	if len(r.ReferenceRows) != len(query) {
		return fmt.Errorf("%w: %d reference rows for %d genes", core.ErrReconciliation, len(r.ReferenceRows), len(query))
	}
	for _, row := range r.ReferenceRows {
		if _, ok := query[referenceIDs[row]]; !ok {
			return fmt.Errorf("%w: reference gene %s not in query", core.ErrReconciliation, referenceIDs[row])
		}
	}
	return nil
}

// Aligned holds both matrices on a shared gene axis.
type Aligned struct {
	Query     *core.ExpressionMatrix
	Reference *core.ExpressionMatrix // samples x genes, same gene order as Query
	Missing   []core.GeneID
	Outcome   core.Outcome
}

// Align reconciles query with ref and returns both matrices restricted to
// the shared genes. On NoChange the query matrix is returned as given.
func Align(query *core.ExpressionMatrix, ref *reference.Dataset) (*Aligned, error) {
	rec, err := Reconcile(ref.IDs, query.Genes)
	if err != nil {
		return nil, err
	}

	out := &Aligned{Missing: rec.Missing, Outcome: rec.Outcome}
	if rec.Outcome == core.NoChange && len(rec.Genes) == len(query.Genes) {
		out.Query = query
	} else {
		out.Query = query.SelectGenes(rec.Genes)
	}

	refm := &core.ExpressionMatrix{
		Samples: append([]string(nil), ref.Samples...),
		Genes:   append([]core.GeneID(nil), rec.Genes...),
		Values:  make([][]float64, len(ref.Samples)),
	}
	for s := range ref.Samples {
		row := make([]float64, len(rec.ReferenceRows))
		for j, r := range rec.ReferenceRows {
			row[j] = ref.Values[r][s]
		}
		refm.Values[s] = row
	}
	out.Reference = refm
	return out, nil
}
