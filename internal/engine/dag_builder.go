package engine

import (
	"fmt"

	"github.com/groundworklabs/groundwork/internal/config"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

// BuildDAG constructs the provisioning graph from the enabled steps.
func BuildDAG(steps []config.Step) (*Graph, error) {
	graph := NewGraph()
	stepMap := make(map[string]*config.Step, len(steps))

	for i := range steps {
		step := &steps[i]
		if !step.Enabled {
			continue
		}
		if _, err := graph.AddNode(step); err != nil {
			return nil, err
		}
		stepMap[step.ID] = step
	}

	for _, step := range steps {
		if !step.Enabled {
			continue
		}
		for _, dependency := range step.DependsOn {
			if _, ok := stepMap[dependency]; !ok {
				return nil, gwerrors.NewValidationError("steps", fmt.Sprintf("step %q depends on unknown step %q", step.ID, dependency), nil)
			}
			if err := graph.AddEdge(dependency, step.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.TopologicalSort(); err != nil {
		return nil, err
	}

	return graph, nil
}
