package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/heimdalr/dag"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
)

// ErrUnknownView is returned when a view has no vertex in the graph.
var ErrUnknownView = errors.New("unknown view")

// viewInputs declares which inputs each derived view reads.
var viewInputs = map[domain.ViewName][]domain.Input{
	domain.ViewFilteredRows:     {domain.InputDataset, domain.InputYear, domain.InputMonth},
	domain.ViewHistoricalSeries: {domain.InputDataset, domain.InputVehicleType},
	domain.ViewAnnualSummary:    {domain.InputDataset, domain.InputYear},
}

type nodeKind string

const (
	nodeInput nodeKind = "input"
	nodeView  nodeKind = "view"
)

// node is the vertex payload. Values must be unique per vertex.
type node struct {
	kind nodeKind
	name string
}

// Graph is the dependency graph from inputs to derived views.
type Graph struct {
	dag *dag.DAG
}

// NewGraph builds the graph for the three dashboard views.
func NewGraph() (*Graph, error) {
	g := &Graph{dag: dag.NewDAG()}

	inputs := []domain.Input{domain.InputDataset, domain.InputYear, domain.InputMonth, domain.InputVehicleType}
	for _, in := range inputs {
		if err := g.dag.AddVertexByID(inputID(in), node{kind: nodeInput, name: string(in)}); err != nil {
			return nil, fmt.Errorf("add input %s: %w", in, err)
		}
	}

	for _, view := range domain.ViewNames() {
		if err := g.dag.AddVertexByID(viewID(view), node{kind: nodeView, name: string(view)}); err != nil {
			return nil, fmt.Errorf("add view %s: %w", view, err)
		}
		for _, in := range viewInputs[view] {
			if err := g.dag.AddEdge(inputID(in), viewID(view)); err != nil {
				return nil, fmt.Errorf("invalid dependency %s → %s: %w", in, view, err)
			}
		}
	}

	return g, nil
}

// Affected returns the views that depend on any of the changed inputs, in
// display order.
func (g *Graph) Affected(changed []domain.Input) []domain.ViewName {
	hit := make(map[string]struct{})
	for _, in := range changed {
		descendants, err := g.dag.GetDescendants(inputID(in))
		if err != nil {
			continue
		}
		for id := range descendants {
			hit[id] = struct{}{}
		}
	}

	var views []domain.ViewName
	for _, view := range domain.ViewNames() {
		if _, ok := hit[viewID(view)]; ok {
			views = append(views, view)
		}
	}
	return views
}

// Inputs returns the inputs a view depends on, sorted by name.
func (g *Graph) Inputs(view domain.ViewName) ([]domain.Input, error) {
	parents, err := g.dag.GetParents(viewID(view))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	inputs := make([]domain.Input, 0, len(parents))
	for _, v := range parents {
		n, ok := v.(node)
		if !ok || n.kind != nodeInput {
			continue
		}
		inputs = append(inputs, domain.Input(n.name))
	}
	slices.Sort(inputs)
	return inputs, nil
}

func inputID(in domain.Input) string {
	return "input:" + string(in)
}

func viewID(v domain.ViewName) string {
	return "view:" + string(v)
}
