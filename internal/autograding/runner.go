package autograding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gradepipe/internal/grade"
)

// Test outcome statuses recorded on grade.TestScore.
const (
	statusPass  = "pass"
	statusFail  = "fail"
	statusError = "error"
)

// Runner executes a graded-test suite in a working directory and awards
// points per test. Results keep config order regardless of completion
// order.
type Runner struct {
	Workdir string
	// Concurrency bounds how many tests run at once. <= 1 runs serially.
	Concurrency int
	// DefaultTimeout bounds tests that declare no timeout of their own.
	DefaultTimeout time.Duration
	// Log receives one progress line per test; nil discards them.
	Log io.Writer
}

// Run grades every configured test. Individual test failures and errors
// are recorded in the report, not returned; the error return is for the
// suite not running at all (canceled context before any test started).
func (r *Runner) Run(ctx context.Context, cfg Config) (grade.Report, error) {
	if err := cfg.Validate(); err != nil {
		return grade.Report{}, err
	}

	workers := int64(r.Concurrency)
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	results := make([]grade.TestScore, len(cfg.Tests))
	var wg sync.WaitGroup
	for i, tc := range cfg.Tests {
		if err := sem.Acquire(ctx, 1); err != nil {
			if i == 0 {
				return grade.Report{}, fmt.Errorf("grading canceled: %w", err)
			}
			// Tests that never started score 0 with an error status.
			for j := i; j < len(cfg.Tests); j++ {
				results[j] = grade.TestScore{Name: cfg.Tests[j].Name, Status: statusError, Output: "canceled before start"}
			}
			break
		}

		wg.Add(1)
		go func(i int, tc TestCase) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = r.runOne(ctx, tc)
			r.logf("%s: %s (%.4g/%.4g points)\n", tc.Name, results[i].Status, results[i].Score, tc.Points)
		}(i, tc)
	}
	wg.Wait()

	return grade.Report{Tests: results}, nil
}

func (r *Runner) runOne(ctx context.Context, tc TestCase) grade.TestScore {
	res := grade.TestScore{Name: tc.Name}

	timeout := r.DefaultTimeout
	if tc.Timeout > 0 {
		timeout = time.Duration(tc.Timeout) * time.Minute
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if tc.Setup != "" {
		if out, err := r.shell(ctx, tc.Setup, ""); err != nil {
			res.Status = statusError
			res.Output = fmt.Sprintf("setup failed: %v\n%s", err, truncate(out))
			return res
		}
	}

	out, err := r.shell(ctx, tc.Run, tc.Input)
	if err != nil {
		if ctx.Err() != nil {
			res.Status = statusError
			res.Output = fmt.Sprintf("timed out after %s", timeout)
			return res
		}
		res.Status = statusFail
		res.Output = fmt.Sprintf("command failed: %v\n%s", err, truncate(out))
		return res
	}

	if !outputMatches(tc, out) {
		res.Status = statusFail
		res.Output = truncate(out)
		return res
	}

	res.Status = statusPass
	res.Score = tc.Points
	res.Output = truncate(out)
	return res
}

func (r *Runner) shell(ctx context.Context, command, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = r.Workdir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

func outputMatches(tc TestCase, actual string) bool {
	expected := strings.TrimSpace(tc.Output)
	if expected == "" {
		// No expected output: a clean exit is the whole contract.
		return true
	}
	got := strings.TrimSpace(actual)
	switch tc.Comparison {
	case "exact":
		return got == expected
	case "regex":
		re, err := regexp.Compile(tc.Output)
		if err != nil {
			return false
		}
		return re.MatchString(got)
	default: // included
		return strings.Contains(got, expected)
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Log == nil {
		return
	}
	_, _ = fmt.Fprintf(r.Log, format, args...)
}

const maxCapturedOutput = 4096

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxCapturedOutput {
		return s
	}
	return s[:maxCapturedOutput] + "\n... (output truncated)"
}
