package builtin

import (
	"context"
	"fmt"
	"strconv"

	"gradepipe/internal/grade"
	"gradepipe/internal/steps"
)

// AggregateStep decodes the grading step's payload, sums the test
// scores, rounds up, and publishes the total as a pipeline-scoped
// environment variable for the reporting step.
type AggregateStep struct{}

func (s *AggregateStep) Slug() string { return "aggregate" }

func (s *AggregateStep) Title() string { return "Aggregate Score" }

func (s *AggregateStep) Description() string {
	return "Decodes the encoded grading report and publishes ceil(sum of test scores) as an environment variable."
}

func (s *AggregateStep) Settings() []steps.Setting {
	return []steps.Setting{
		{Name: "from", Description: "Step id whose payload output carries the grading report", Default: "autograder"},
		{Name: "env-var", Description: "Environment variable to publish the total under", Default: "TOTAL_SCORE"},
	}
}

func (s *AggregateStep) Run(ctx context.Context, rc *steps.RunContext) (steps.Result, error) {
	from := rc.Setting("from", "autograder")
	payload, ok := rc.Prior.Output(from, "payload")
	if !ok {
		return steps.ErrorResult(fmt.Sprintf("step %q published no payload output", from)), nil
	}

	// Any decode failure is fatal for the run; a malformed payload must
	// never pass downstream as a zero score.
	report, err := grade.DecodeReport(payload)
	if err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	total := grade.TotalScore(report)
	envVar := rc.Setting("env-var", "TOTAL_SCORE")
	if err := rc.Env.Set(envVar, strconv.Itoa(total)); err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	res := steps.SuccessResult(fmt.Sprintf("%s=%d", envVar, total))
	res.Outputs = map[string]string{"total": strconv.Itoa(total)}
	return res, nil
}

func init() {
	steps.Register(&AggregateStep{})
}
