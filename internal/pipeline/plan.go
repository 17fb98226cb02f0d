package pipeline

import (
	"fmt"

	"gradepipe/internal/steps"
	"gradepipe/internal/workflow"
)

// PlannedStep is one workflow step resolved against the step registry.
type PlannedStep struct {
	ID   string
	Uses string
	With map[string]string
	Impl steps.Step
}

// Plan is an executable rendering of a workflow definition. Building the
// plan front-loads every resolution failure: a workflow naming an unknown
// step kind never starts running.
type Plan struct {
	Workflow *workflow.Definition
	Steps    []PlannedStep
}

// NewPlan resolves every step of the definition. Steps without an
// explicit id default to their step kind; the resulting ids must be
// unique so outputs stay addressable.
func NewPlan(def *workflow.Definition) (*Plan, error) {
	if def == nil {
		return nil, fmt.Errorf("workflow definition is nil")
	}

	plan := &Plan{Workflow: def}
	seen := make(map[string]struct{}, len(def.Steps))
	for _, ws := range def.Steps {
		impl, err := steps.Resolve(ws.Uses)
		if err != nil {
			return nil, err
		}
		id := ws.ID
		if id == "" {
			id = ws.Uses
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("step id %q used more than once (add explicit ids)", id)
		}
		seen[id] = struct{}{}
		plan.Steps = append(plan.Steps, PlannedStep{
			ID:   id,
			Uses: ws.Uses,
			With: ws.With,
			Impl: impl,
		})
	}
	return plan, nil
}
