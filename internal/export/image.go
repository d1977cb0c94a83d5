package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Edge colors by direction class.
const (
	activationColor = "#2b83ba"
	repressionColor = "#d7191c"
)

// RenderDOT writes graph in Graphviz dot syntax with layout attributes.
func RenderDOT(ctx context.Context, w io.Writer, graph *core.NeighborhoodGraph) error {
	return render(ctx, w, graph, graphviz.XDOT)
}

// RenderSVG writes graph as an SVG image.
func RenderSVG(ctx context.Context, w io.Writer, graph *core.NeighborhoodGraph) error {
	return render(ctx, w, graph, graphviz.SVG)
}

// RenderPNG writes graph as a PNG image.
func RenderPNG(ctx context.Context, w io.Writer, graph *core.NeighborhoodGraph) error {
	return render(ctx, w, graph, graphviz.PNG)
}

func render(ctx context.Context, w io.Writer, graph *core.NeighborhoodGraph, format graphviz.Format) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to start graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	g, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = g.Close() }()

	if err := build(g, graph); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func build(g *cgraph.Graph, graph *core.NeighborhoodGraph) error {
	ids := make([]core.GeneID, 0, len(graph.Nodes))
	for id := range graph.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make(map[core.GeneID]*cgraph.Node, len(ids))
	for _, id := range ids {
		n, err := g.CreateNodeByName(id)
		if err != nil {
			return fmt.Errorf("failed to create node %s: %w", id, err)
		}
		n.SetLabel(graph.Nodes[id].Label)
		if graph.Nodes[id].Role == core.RoleCenter {
			n.SetShape(cgraph.BoxShape)
		} else {
			n.SetShape(cgraph.EllipseShape)
		}
		nodes[id] = n
	}

	for _, e := range graph.Edges {
		from, okFrom := nodes[e.Key.Regulator]
		to, okTo := nodes[e.Key.Target]
		if !okFrom || !okTo {
			continue
		}
		edge, err := g.CreateEdgeByName(e.ID, from, to)
		if err != nil {
			return fmt.Errorf("failed to create edge %s: %w", e.ID, err)
		}
		// Pen widths are kept readable; the weight itself spans 2 to 12.
		edge.SetPenWidth(e.Weight / 2)
		if e.Class == core.Repression {
			edge.SetColor(repressionColor)
			edge.SetArrowHead(cgraph.TeeArrow)
		} else {
			edge.SetColor(activationColor)
			edge.SetArrowHead(cgraph.NormalArrow)
		}
	}
	return nil
}
