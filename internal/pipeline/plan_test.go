package pipeline

import (
	"context"
	"testing"

	"gradepipe/internal/steps"
	"gradepipe/internal/workflow"
)

type noopStep struct{ slug string }

func (s *noopStep) Slug() string              { return s.slug }
func (s *noopStep) Title() string             { return s.slug }
func (s *noopStep) Description() string       { return "test step" }
func (s *noopStep) Settings() []steps.Setting { return nil }
func (s *noopStep) Run(ctx context.Context, rc *steps.RunContext) (steps.Result, error) {
	return steps.SuccessResult("ok"), nil
}

func TestNewPlan(t *testing.T) {
	steps.Register(&noopStep{slug: "pl-test-checkout"})
	steps.Register(&noopStep{slug: "pl-test-grader"})

	def := &workflow.Definition{
		On: []string{"push"},
		Steps: []workflow.Step{
			{Uses: "pl-test-checkout"},
			{ID: "grader", Uses: "pl-test-grader", With: map[string]string{"timeout": "10"}},
		},
	}

	plan, err := NewPlan(def)
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("got %d planned steps", len(plan.Steps))
	}
	if plan.Steps[0].ID != "pl-test-checkout" {
		t.Fatalf("default id = %q, want slug", plan.Steps[0].ID)
	}
	if plan.Steps[1].ID != "grader" || plan.Steps[1].With["timeout"] != "10" {
		t.Fatalf("explicit id/settings lost: %#v", plan.Steps[1])
	}
}

func TestNewPlan_UnknownStepKind(t *testing.T) {
	def := &workflow.Definition{
		On:    []string{"push"},
		Steps: []workflow.Step{{Uses: "pl-test-unregistered"}},
	}
	if _, err := NewPlan(def); err == nil {
		t.Fatal("expected error for unknown step kind")
	}
}

func TestNewPlan_DuplicateDefaultedIDs(t *testing.T) {
	steps.Register(&noopStep{slug: "pl-test-dup"})
	def := &workflow.Definition{
		On:    []string{"push"},
		Steps: []workflow.Step{{Uses: "pl-test-dup"}, {Uses: "pl-test-dup"}},
	}
	if _, err := NewPlan(def); err == nil {
		t.Fatal("expected error for colliding step ids")
	}
}
