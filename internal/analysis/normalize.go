package analysis

import (
	"fmt"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Normalize converts raw edge labels into edge keys and checks the shape of
// the result. Duplicate edges are an error.
func Normalize(raw *RawResult) (*core.Result, error) {
	if raw == nil {
		return nil, fmt.Errorf("model returned no result")
	}
	res := &core.Result{
		Samples: append([]string(nil), raw.Samples...),
		Edges:   make([]core.EdgeKey, 0, len(raw.Columns)),
		Values:  raw.Values,
	}
	for _, col := range raw.Columns {
		key, err := core.ParseEdgeKey(col)
		if err != nil {
			return nil, err
		}
		res.Edges = append(res.Edges, key)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
