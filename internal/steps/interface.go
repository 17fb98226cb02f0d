package steps

import (
	"context"
	"io"

	"gradepipe/internal/event"
	"gradepipe/internal/grade"
)

// Step is one executable pipeline step kind.
//
// Implementations register themselves via Register in an init function
// and are resolved by slug when a workflow is planned.
type Step interface {
	Slug() string
	Title() string
	Description() string

	// Settings lists the with: keys the step recognizes.
	Settings() []Setting

	// Run executes the step. A non-nil error means the step could not
	// produce a Result at all; ordinary failures are reported through the
	// Result status instead.
	Run(ctx context.Context, rc *RunContext) (Result, error)
}

// Setting documents one with: key of a step.
type Setting struct {
	Name        string
	Description string
	Default     string
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// Result is a step's outcome within one pipeline run.
type Result struct {
	StepID  string `json:"step_id"`
	Uses    string `json:"uses"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// Outputs are the step's published output values, readable by later
	// steps as steps.<id>.outputs.<name>.
	Outputs map[string]string `json:"outputs,omitempty"`
	// Tests carries per-test grading detail when the step graded anything.
	Tests []grade.TestScore `json:"tests,omitempty"`
}

// EnvStore is the pipeline-run-scoped variable store. Variables are
// write-once: a step publishes a value and later steps read it.
type EnvStore interface {
	Set(name, value string) error
	Lookup(name string) (string, bool)
}

// OutputLookup reads outputs published by earlier steps in the same run.
type OutputLookup interface {
	Output(stepID, name string) (string, bool)
}

// CheckPublisher posts a completed grade as a repository check run. It is
// nil in the RunContext when the workflow does not grant checks: write.
type CheckPublisher interface {
	PublishCheckRun(ctx context.Context, owner, repo, headSHA string, check CheckRun) error
}

// CheckRun is the reporter-facing shape of a published check.
type CheckRun struct {
	Name    string
	Title   string
	Summary string
	// Passed controls the check conclusion.
	Passed bool
}

// RunContext is everything a step sees while executing.
type RunContext struct {
	// Workdir is where repository contents live (or should be placed).
	Workdir string
	Event   event.Event
	// With holds the step's settings from the workflow file.
	With map[string]string
	Env  EnvStore
	// Prior exposes outputs of already-finished steps.
	Prior OutputLookup
	// Checks is non-nil only when the workflow grants checks: write.
	Checks CheckPublisher
	// Concurrency bounds any parallel work inside the step.
	Concurrency int
	// Log receives human-facing progress lines (usually stderr).
	Log     io.Writer
	Verbose bool
}

// Setting lookup with a default, for with: keys.
func (rc *RunContext) Setting(name, fallback string) string {
	if v, ok := rc.With[name]; ok && v != "" {
		return v
	}
	return fallback
}

// SuccessResult, FailureResult and ErrorResult build uniformly shaped
// results; the runner stamps StepID and Uses afterwards.
func SuccessResult(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

func FailureResult(message string) Result {
	return Result{Status: StatusFailure, Message: message}
}

func ErrorResult(message string) Result {
	return Result{Status: StatusError, Message: message}
}
