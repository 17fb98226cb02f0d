package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gradepipe/internal/grade"
	"gradepipe/internal/steps"
)

func TestConsoleSink_Text(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text", nil)

	if err := s.Write(steps.Result{StepID: "autograder", Status: steps.StatusSuccess, Message: "graded 2 tests"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(Event{Type: "run.finished", Total: 30, MaxScore: 30, ExitCode: 0}); err != nil {
		t.Fatalf("Write event failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "autograder") || !strings.Contains(out, "graded 2 tests") {
		t.Fatalf("text output missing result line: %q", out)
	}
	if !strings.Contains(out, "Total: 30/30") {
		t.Fatalf("text output missing total line: %q", out)
	}
}

func TestConsoleSink_TextSkipReason(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text", nil)
	if err := s.Write(Event{Type: "run.skipped", Reason: "actor excluded"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "actor excluded") {
		t.Fatalf("skip reason not printed: %q", buf.String())
	}
}

func TestConsoleSink_StatusFilter(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "text", []string{"FAILURE"})

	_ = s.Write(steps.Result{StepID: "a", Status: steps.StatusSuccess})
	_ = s.Write(steps.Result{StepID: "b", Status: steps.StatusFailure, Message: "lost points"})
	_ = s.Close()

	out := buf.String()
	if strings.Contains(out, "[a]") || strings.Contains(out, " a\n") {
		t.Fatalf("filtered status leaked: %q", out)
	}
	if !strings.Contains(out, "lost points") {
		t.Fatalf("allowed status missing: %q", out)
	}
}

func TestConsoleSink_NDJSONStreamsEvents(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "ndjson", nil)

	_ = s.Write(Event{Type: "run.started", Steps: 4})
	_ = s.Write(steps.Result{StepID: "aggregate", Status: steps.StatusSuccess, Outputs: map[string]string{"total": "5"}})
	_ = s.Write(Event{Type: "run.finished", Total: 5, MaxScore: 5})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var types []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var e map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		types = append(types, e["type"].(string))
	}
	want := []string{"run.started", "step.result", "run.finished"}
	if len(types) != len(want) {
		t.Fatalf("got %d events, want %d", len(types), len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestConsoleSink_JSONAggregatesOnClose(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, "json", nil)

	_ = s.Write(Event{Type: "run.started"})
	_ = s.Write(steps.Result{StepID: "autograder", Status: steps.StatusSuccess, Tests: []grade.TestScore{{Name: "t1", Score: 3}}})
	if buf.Len() != 0 {
		t.Fatalf("json mode must not write before Close, got %q", buf.String())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var results []steps.Result
	if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(results) != 1 || results[0].StepID != "autograder" {
		t.Fatalf("unexpected results: %#v", results)
	}
}
