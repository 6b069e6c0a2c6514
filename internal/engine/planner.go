package engine

import (
	"fmt"
	"strings"

	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

// ExecutionPlan is the strictly sequential order in which steps run. Even
// independent steps are serialized: the external tools steps invoke (package
// managers, compilers) conflict over shared system state when run
// concurrently.
type ExecutionPlan struct {
	Order []string
}

// GeneratePlan flattens a DAG's topological levels into a sequential order.
func GeneratePlan(graph *Graph) (*ExecutionPlan, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	var order []string
	for _, level := range graph.Levels {
		order = append(order, level...)
	}

	return &ExecutionPlan{Order: order}, nil
}

// PlanForStep narrows a plan to the named step and its transitive
// dependencies, preserving the full plan's relative order. Already-completed
// dependencies are skipped later by the orchestrator, not here.
func PlanForStep(graph *Graph, stepID string) (*ExecutionPlan, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	target, ok := graph.Nodes[stepID]
	if !ok {
		return nil, gwerrors.NewValidationError("step", fmt.Sprintf("unknown step %q", stepID), nil)
	}

	wanted := make(map[string]struct{})
	var collect func(*Node)
	collect = func(n *Node) {
		if _, seen := wanted[n.ID]; seen {
			return
		}
		wanted[n.ID] = struct{}{}
		for _, dep := range n.DependsOn {
			collect(dep)
		}
	}
	collect(target)

	full, err := GeneratePlan(graph)
	if err != nil {
		return nil, err
	}

	var order []string
	for _, id := range full.Order {
		if _, ok := wanted[id]; ok {
			order = append(order, id)
		}
	}

	return &ExecutionPlan{Order: order}, nil
}

// String renders a human readable summary of the plan.
func (p *ExecutionPlan) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	for i, id := range p.Order {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, id)
	}
	return b.String()
}

// Contains reports whether the plan includes the given step.
func (p *ExecutionPlan) Contains(stepID string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.Order {
		if id == stepID {
			return true
		}
	}
	return false
}
