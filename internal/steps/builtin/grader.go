package builtin

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"gradepipe/internal/autograding"
	"gradepipe/internal/grade"
	"gradepipe/internal/steps"
)

// GraderStep runs the graded-test suite and publishes the resulting
// scores as a base64-encoded JSON payload, the shape the aggregation
// step consumes.
type GraderStep struct{}

func (s *GraderStep) Slug() string { return "autograder" }

func (s *GraderStep) Title() string { return "Run Graded Tests" }

func (s *GraderStep) Description() string {
	return "Executes the configured test suite under a timeout and max-score budget and publishes an encoded grading report."
}

func (s *GraderStep) Settings() []steps.Setting {
	return []steps.Setting{
		{Name: "config", Description: "Path to the graded-test definition file, relative to the working directory", Default: autograding.DefaultConfigPath},
		{Name: "timeout", Description: "Default per-test timeout in minutes", Default: "10"},
		{Name: "max-score", Description: "Score budget; configured test points must not exceed it (0 = derive from config)", Default: "0"},
	}
}

func (s *GraderStep) Run(ctx context.Context, rc *steps.RunContext) (steps.Result, error) {
	timeoutMin, err := strconv.Atoi(rc.Setting("timeout", "10"))
	if err != nil || timeoutMin <= 0 {
		return steps.ErrorResult(fmt.Sprintf("invalid timeout %q: must be a positive number of minutes", rc.Setting("timeout", "10"))), nil
	}
	maxScore, err := strconv.Atoi(rc.Setting("max-score", "0"))
	if err != nil || maxScore < 0 {
		return steps.ErrorResult(fmt.Sprintf("invalid max-score %q", rc.Setting("max-score", "0"))), nil
	}

	cfgPath := rc.Setting("config", autograding.DefaultConfigPath)
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(rc.Workdir, cfgPath)
	}
	cfg, err := autograding.LoadConfig(cfgPath)
	if err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	configured := cfg.MaxPoints()
	if maxScore > 0 && configured > float64(maxScore) {
		return steps.ErrorResult(fmt.Sprintf("configured test points (%.4g) exceed the max-score budget (%d)", configured, maxScore)), nil
	}
	if maxScore == 0 {
		maxScore = int(math.Ceil(configured))
	}

	runner := &autograding.Runner{
		Workdir:        rc.Workdir,
		Concurrency:    rc.Concurrency,
		DefaultTimeout: time.Duration(timeoutMin) * time.Minute,
		Log:            rc.Log,
	}
	report, err := runner.Run(ctx, cfg)
	if err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	payload, err := grade.EncodeReport(report)
	if err != nil {
		return steps.ErrorResult(err.Error()), nil
	}

	passed := 0
	for _, t := range report.Tests {
		if t.Status == "pass" {
			passed++
		}
	}

	res := steps.SuccessResult(fmt.Sprintf("graded %d tests, %d passed", len(report.Tests), passed))
	res.Outputs = map[string]string{
		"payload":   payload,
		"max-score": strconv.Itoa(maxScore),
	}
	res.Tests = report.Tests
	return res, nil
}

func init() {
	steps.Register(&GraderStep{})
}
