package builtin

import (
	"context"
	"fmt"
	"strings"

	"gradepipe/internal/grade"
	"gradepipe/internal/steps"
)

// ReporterStep reads the published total from the pipeline environment
// and renders the grade report: a console line always, and a GitHub
// check run when the workflow grants checks: write and the event names a
// commit to attach it to.
type ReporterStep struct{}

func (s *ReporterStep) Slug() string { return "reporter" }

func (s *ReporterStep) Title() string { return "Report Grade" }

func (s *ReporterStep) Description() string {
	return "Consumes the published score variable and produces a visible grade report."
}

func (s *ReporterStep) Settings() []steps.Setting {
	return []steps.Setting{
		{Name: "results", Description: "Step id whose outputs carry the grading payload and budget", Default: "autograder"},
		{Name: "env-var", Description: "Environment variable holding the total score", Default: "TOTAL_SCORE"},
		{Name: "label", Description: "Display label for the total", Default: "Total Points"},
	}
}

func (s *ReporterStep) Run(ctx context.Context, rc *steps.RunContext) (steps.Result, error) {
	envVar := rc.Setting("env-var", "TOTAL_SCORE")
	total, ok := rc.Env.Lookup(envVar)
	if !ok {
		return steps.ErrorResult(fmt.Sprintf("environment variable %s was never published", envVar)), nil
	}

	label := rc.Setting("label", "Total Points")
	resultsID := rc.Setting("results", "autograder")
	maxScore, _ := rc.Prior.Output(resultsID, "max-score")

	headline := fmt.Sprintf("%s: %s", label, total)
	if maxScore != "" {
		headline = fmt.Sprintf("%s: %s/%s", label, total, maxScore)
	}
	if rc.Log != nil {
		fmt.Fprintln(rc.Log, headline)
	}

	if rc.Checks == nil {
		return steps.SuccessResult(headline), nil
	}

	owner, repo, ok := rc.Event.SplitRepo()
	if !ok || rc.Event.HeadSHA == "" {
		// Nothing to attach a check run to; console output already happened.
		return steps.SuccessResult(headline + " (no commit to report against)"), nil
	}

	summary := headline
	if payload, ok := rc.Prior.Output(resultsID, "payload"); ok {
		if report, err := grade.DecodeReport(payload); err == nil {
			summary = checkSummary(headline, report)
		}
	}

	check := steps.CheckRun{
		Name:    "autograding",
		Title:   headline,
		Summary: summary,
		Passed:  total == maxScore || maxScore == "",
	}
	if err := rc.Checks.PublishCheckRun(ctx, owner, repo, rc.Event.HeadSHA, check); err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	return steps.SuccessResult(headline + " (check run published)"), nil
}

func checkSummary(headline string, report grade.Report) string {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\n")
	for _, t := range report.Tests {
		fmt.Fprintf(&b, "- %s: %s (%.4g points)\n", t.Name, t.Status, t.Score)
	}
	return b.String()
}

func init() {
	steps.Register(&ReporterStep{})
}
