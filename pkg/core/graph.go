package core

// DirectionClass is the rendering class of an edge.
type DirectionClass string

// Direction classes.
const (
	Activation DirectionClass = "activation"
	Repression DirectionClass = "repression"
)

// ClassifyMean maps an edge's sample mean to its class. A mean of exactly
// zero is an activation.
func ClassifyMean(mean float64) DirectionClass {
	if mean < 0 {
		return Repression
	}
	return Activation
}

// ShortClass returns the single-letter class used by graph clients ("a" or "r").
func (c DirectionClass) ShortClass() string {
	if c == Repression {
		return "r"
	}
	return "a"
}

// ClassFromShort maps a client class back. Anything but "r" is an activation.
func ClassFromShort(s string) DirectionClass {
	if s == "r" || s == string(Repression) {
		return Repression
	}
	return Activation
}

// EdgeWeight is the fixed linear rescale of a fraction used for rendering.
func EdgeWeight(fraction float64) float64 {
	return fraction*10 + 2
}

// NodeRole says how a node entered the neighborhood.
type NodeRole string

// Node roles.
const (
	RoleCenter NodeRole = "center"
	RoleSource NodeRole = "source"
	RoleTarget NodeRole = "target"
)

// Node is one gene in a neighborhood graph.
type Node struct {
	ID    GeneID   `json:"id"`
	Label string   `json:"label"`
	Role  NodeRole `json:"role"`
}

// Bucket says whether an edge points into or out of the center set.
type Bucket string

// Edge buckets.
const (
	BucketSources Bucket = "sources"
	BucketTargets Bucket = "targets"
)

// GraphEdge is one regulatory edge with its statistics.
type GraphEdge struct {
	Key      EdgeKey        `json:"key"`
	ID       string         `json:"id"`
	Fraction float64        `json:"fraction"`
	Weight   float64        `json:"weight"`
	Class    DirectionClass `json:"class"`
	Bucket   Bucket         `json:"bucket"`
}

// NeighborhoodGraph is the deduplicated neighborhood of a set of center genes.
type NeighborhoodGraph struct {
	Center []GeneID        `json:"center"`
	Nodes  map[GeneID]Node `json:"nodes"`
	Edges  []GraphEdge     `json:"edges"`
	// PatientOverlay maps edge ids to the nonzero value of the selected sample.
	PatientOverlay map[string]float64 `json:"patient_overlay,omitempty"`
	// Compare maps edge ids to fractions from a comparison cohort.
	Compare map[string]float64 `json:"compare,omitempty"`

	TotalSources int `json:"total_sources"`
	TotalTargets int `json:"total_targets"`
}

// NewNeighborhoodGraph returns an empty graph for centers.
func NewNeighborhoodGraph(centers []GeneID) *NeighborhoodGraph {
	g := &NeighborhoodGraph{
		Center: append([]GeneID(nil), centers...),
		Nodes:  make(map[GeneID]Node, len(centers)),
	}
	for _, c := range centers {
		g.Nodes[c] = Node{ID: c, Label: c, Role: RoleCenter}
	}
	return g
}

// EdgeByID returns the edge with the given id.
func (g *NeighborhoodGraph) EdgeByID(id string) (GraphEdge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return GraphEdge{}, false
}

// CenterSet returns the centers as a set.
func (g *NeighborhoodGraph) CenterSet() map[GeneID]struct{} {
	set := make(map[GeneID]struct{}, len(g.Center))
	for _, c := range g.Center {
		set[c] = struct{}{}
	}
	return set
}

// Outcome distinguishes a recomputed value from an unchanged one.
type Outcome int

// Outcomes.
const (
	NoChange Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Updated {
		return "updated"
	}
	return "no_change"
}
