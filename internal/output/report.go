package output

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gradepipe/internal/grade"
	"gradepipe/internal/steps"
)

// ReportSink accumulates one run's results and writes a Markdown grade
// report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []steps.Result
	skippedWhy   string
	total        int
	maxScore     int
	exitCode     int
	haveExitCode bool
	now          func() time.Time
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
		now:  time.Now,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case steps.Result:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case "run.skipped":
			s.skippedWhy = t.Reason
		case "run.finished":
			s.total = t.Total
			s.maxScore = t.MaxScore
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Grading Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.now().UTC().Format(time.RFC3339))

	if s.skippedWhy != "" {
		fmt.Fprintf(&b, "Run skipped: %s\n", s.skippedWhy)
		return s.flush(b.String())
	}

	if s.haveExitCode {
		fmt.Fprintf(&b, "**Total: %d/%d** (exit code %d)\n\n", s.total, s.maxScore, s.exitCode)
	}

	b.WriteString("## Steps\n\n")
	b.WriteString("| Step | Status | Message |\n")
	b.WriteString("|---|---|---|\n")
	for _, r := range s.results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.StepID, r.Status, mdEscape(r.Message))
	}
	b.WriteString("\n")

	if tests := collectTests(s.results); len(tests) > 0 {
		b.WriteString("## Tests\n\n")
		b.WriteString("| Test | Status | Points |\n")
		b.WriteString("|---|---|---|\n")
		for _, t := range tests {
			fmt.Fprintf(&b, "| %s | %s | %.4g |\n", mdEscape(t.Name), t.Status, t.Score)
		}
		b.WriteString("\n")
	}

	return s.flush(b.String())
}

func (s *ReportSink) flush(content string) error {
	if _, err := s.file.WriteString(content); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func collectTests(results []steps.Result) []grade.TestScore {
	var tests []grade.TestScore
	for _, r := range results {
		tests = append(tests, r.Tests...)
	}
	return tests
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
