package builtin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gradepipe/internal/event"
	"gradepipe/internal/steps"
)

func reporterContext() *steps.RunContext {
	return &steps.RunContext{
		Event: event.Event{Kind: event.KindPush, Actor: "octocat", Repo: "acme/hw3", HeadSHA: "deadbeef"},
		Env:   mapEnv{"TOTAL_SCORE": "950"},
		Prior: mapOutputs{
			"autograder": {
				"max-score": "1000",
				"payload":   encode(`{"tests":[{"name":"session8","status":"pass","score":950}]}`),
			},
		},
	}
}

func TestReporterStep_ConsoleOnly(t *testing.T) {
	var log bytes.Buffer
	rc := reporterContext()
	rc.Log = &log

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusSuccess {
		t.Fatalf("status = %s: %s", res.Status, res.Message)
	}
	if !strings.Contains(log.String(), "Total Points: 950/1000") {
		t.Fatalf("console line missing: %q", log.String())
	}
}

func TestReporterStep_PublishesCheckRun(t *testing.T) {
	checks := &fakeChecks{}
	rc := reporterContext()
	rc.Checks = checks

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusSuccess {
		t.Fatalf("status = %s: %s", res.Status, res.Message)
	}
	if len(checks.published) != 1 {
		t.Fatalf("published %d check runs, want 1", len(checks.published))
	}

	got := checks.published[0]
	if got.owner != "acme" || got.repo != "hw3" || got.headSHA != "deadbeef" {
		t.Fatalf("published against %s/%s@%s", got.owner, got.repo, got.headSHA)
	}
	if got.check.Passed {
		t.Fatal("950/1000 must not conclude as passed")
	}
	if !strings.Contains(got.check.Summary, "session8: pass") {
		t.Fatalf("summary missing per-test detail: %q", got.check.Summary)
	}
}

func TestReporterStep_FullMarksPass(t *testing.T) {
	checks := &fakeChecks{}
	rc := reporterContext()
	rc.Checks = checks
	rc.Env = mapEnv{"TOTAL_SCORE": "1000"}

	if _, err := (&ReporterStep{}).Run(context.Background(), rc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !checks.published[0].check.Passed {
		t.Fatal("full marks must conclude as passed")
	}
}

func TestReporterStep_CustomLabelAndVariable(t *testing.T) {
	var log bytes.Buffer
	rc := reporterContext()
	rc.Log = &log
	rc.Env = mapEnv{"FINAL_GRADE": "7"}
	rc.With = map[string]string{"env-var": "FINAL_GRADE", "label": "Grade"}

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusSuccess {
		t.Fatalf("status = %s: %s", res.Status, res.Message)
	}
	if !strings.Contains(log.String(), "Grade: 7/1000") {
		t.Fatalf("custom label missing: %q", log.String())
	}
}

func TestReporterStep_MissingVariableIsFatal(t *testing.T) {
	rc := reporterContext()
	rc.Env = mapEnv{}

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusError {
		t.Fatalf("status = %s, want ERROR", res.Status)
	}
	if !strings.Contains(res.Message, "TOTAL_SCORE") {
		t.Fatalf("message %q should name the variable", res.Message)
	}
}

func TestReporterStep_NoCommitSkipsCheck(t *testing.T) {
	checks := &fakeChecks{}
	rc := reporterContext()
	rc.Checks = checks
	rc.Event.HeadSHA = ""

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusSuccess {
		t.Fatalf("status = %s: %s", res.Status, res.Message)
	}
	if len(checks.published) != 0 {
		t.Fatal("no check run may be published without a commit")
	}
}

func TestReporterStep_PublishFailure(t *testing.T) {
	rc := reporterContext()
	rc.Checks = &fakeChecks{err: errors.New("Resource not accessible")}

	res, err := (&ReporterStep{}).Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != steps.StatusError {
		t.Fatalf("status = %s, want ERROR", res.Status)
	}
}
