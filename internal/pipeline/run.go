package pipeline

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"gradepipe/internal/event"
	"gradepipe/internal/output"
	"gradepipe/internal/steps"
)

// Exit code contract:
// 0 = full marks, or the trigger gate skipped the run
// 1 = grading completed with points lost
// 2 = partial failure (some tests errored rather than failed)
// 3 = fatal error (the pipeline did not run to completion)
func exitCodeForRun(fatal, partial bool, total, maxScore int) int {
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if maxScore > 0 && total < maxScore {
		return 1
	}
	return 0
}

// Outcome summarizes one pipeline run.
type Outcome struct {
	Skipped    bool
	SkipReason string
	Total      int
	MaxScore   int
	ExitCode   int
	Results    []steps.Result
}

// Runner executes a plan strictly sequentially: each step blocks the
// pipeline, the first step-level failure aborts the remainder.
type Runner struct {
	Out *output.Manager
	// Checks is handed to steps when the workflow grants checks: write.
	Checks      steps.CheckPublisher
	Workdir     string
	Concurrency int
	// Log receives progress lines (stderr in the CLI); nil discards them.
	Log     io.Writer
	Verbose bool
}

type priorOutputs map[string]map[string]string

func (p priorOutputs) Output(stepID, name string) (string, bool) {
	outs, ok := p[stepID]
	if !ok {
		return "", false
	}
	v, ok := outs[name]
	return v, ok
}

// Run gates the event and, if allowed, executes every planned step in
// order. All failures are reflected in the Outcome exit code; Run itself
// only errs on misuse (nil plan).
func (r *Runner) Run(ctx context.Context, plan *Plan, ev event.Event) (Outcome, error) {
	if plan == nil || plan.Workflow == nil {
		return Outcome{}, fmt.Errorf("pipeline plan is nil")
	}

	if d := plan.Workflow.Gate().Decide(ev); !d.Allowed {
		r.emit(output.Event{Type: "run.skipped", Reason: d.Reason})
		return Outcome{Skipped: true, SkipReason: d.Reason, ExitCode: 0}, nil
	}

	r.emit(output.Event{Type: "run.started", Steps: len(plan.Steps)})

	env := NewEnv()
	prior := make(priorOutputs, len(plan.Steps))
	checks := r.Checks
	if !plan.Workflow.Allows("checks", "write") {
		checks = nil
	}

	var (
		results []steps.Result
		fatal   bool
		partial bool
	)
	for _, ps := range plan.Steps {
		if ctx.Err() != nil {
			fatal = true
			break
		}
		r.emit(output.Event{Type: "step.started", Step: ps.ID})

		rc := &steps.RunContext{
			Workdir:     r.Workdir,
			Event:       ev,
			With:        ps.With,
			Env:         env,
			Prior:       prior,
			Checks:      checks,
			Concurrency: r.Concurrency,
			Log:         r.Log,
			Verbose:     r.Verbose,
		}
		res, err := ps.Impl.Run(ctx, rc)
		if err != nil {
			res = steps.ErrorResult(err.Error())
		}
		res.StepID = ps.ID
		res.Uses = ps.Uses

		results = append(results, res)
		prior[ps.ID] = res.Outputs
		r.emit(res)

		for _, t := range res.Tests {
			if t.Status == "error" {
				partial = true
			}
		}

		// A failing step halts the pipeline; downstream steps never run.
		if res.Status == steps.StatusError || res.Status == steps.StatusFailure {
			fatal = true
			break
		}
	}

	total, maxScore := scoreFromRun(env, prior)
	code := exitCodeForRun(fatal, partial, total, maxScore)
	r.emit(output.Event{Type: "run.finished", Total: total, MaxScore: maxScore, ExitCode: code})

	return Outcome{
		Total:    total,
		MaxScore: maxScore,
		ExitCode: code,
		Results:  results,
	}, nil
}

// scoreFromRun reads the aggregate published by the aggregation step and
// the budget published by the grading step. Either may be absent when the
// run aborted early.
func scoreFromRun(env *Env, prior priorOutputs) (total, maxScore int) {
	if v, ok := env.Lookup("TOTAL_SCORE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			total = n
		}
	} else {
		// The workflow may publish under a custom variable name; the
		// aggregation step always mirrors the value as a "total" output.
		for _, outs := range prior {
			if v, ok := outs["total"]; ok {
				if n, err := strconv.Atoi(v); err == nil {
					total = n
				}
			}
		}
	}
	for _, outs := range prior {
		if v, ok := outs["max-score"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > maxScore {
				maxScore = n
			}
		}
	}
	return total, maxScore
}

func (r *Runner) emit(v any) {
	if r.Out == nil {
		return
	}
	_ = r.Out.Write(v)
}
