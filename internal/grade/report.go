package grade

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// TestScore is one graded test outcome inside a grading report.
//
// Score is the only required field; graders may attach whatever extra
// context they have (name, status, captured output) and it survives a
// decode/encode round trip.
type TestScore struct {
	Name   string  `json:"name,omitempty"`
	Status string  `json:"status,omitempty"`
	Score  float64 `json:"score"`
	Output string  `json:"output,omitempty"`
}

// Report is the payload a grading step publishes: the full set of graded
// test outcomes for one pipeline run. It is transient; it exists only to
// carry scores from the grading step to the aggregation step.
type Report struct {
	Tests []TestScore `json:"tests"`
}

// ErrNoTests is returned by DecodeReport when the decoded JSON has no
// "tests" array at all. An empty array is fine (it sums to 0); an absent
// one means the grader produced something we don't understand, and
// guessing zero would hide a broken grading step.
var ErrNoTests = errors.New("grading payload has no \"tests\" array")

// DecodeReport decodes a base64-encoded JSON grading payload.
//
// Any malformed input is an error: invalid base64, invalid JSON, a
// missing "tests" array, or a non-numeric score. Callers treat these as
// fatal; a bad payload must never silently aggregate to 0.
func DecodeReport(encoded string) (Report, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Report{}, fmt.Errorf("grading payload is not valid base64: %w", err)
	}

	// Probe for the tests field first so "absent" and "empty" stay
	// distinguishable after unmarshaling.
	var probe struct {
		Tests json.RawMessage `json:"tests"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Report{}, fmt.Errorf("grading payload is not valid JSON: %w", err)
	}
	if len(probe.Tests) == 0 || string(probe.Tests) == "null" {
		return Report{}, ErrNoTests
	}

	var tests []TestScore
	if err := json.Unmarshal(probe.Tests, &tests); err != nil {
		return Report{}, fmt.Errorf("grading payload has malformed test entries: %w", err)
	}
	return Report{Tests: tests}, nil
}

// EncodeReport is the inverse of DecodeReport: the wire form a grading
// step publishes as its output.
func EncodeReport(r Report) (string, error) {
	if r.Tests == nil {
		r.Tests = []TestScore{}
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode grading report: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// TotalScore computes the aggregate grade for a report: the sum of every
// test's score, rounded up to the nearest integer. An empty report totals
// 0. Negative scores sum normally.
func TotalScore(r Report) int {
	var sum float64
	for _, t := range r.Tests {
		sum += t.Score
	}
	return int(math.Ceil(sum))
}
