package output

import "gradepipe/internal/steps"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - run.skipped
// - step.started
// - step.result
// - run.finished
//
// JSON mode remains an aggregate of steps.Result values.
type Event struct {
	Type string `json:"type"`
	Step string `json:"step,omitempty"`
	*steps.Result
	Steps    int    `json:"steps,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Total    int    `json:"total,omitempty"`
	MaxScore int    `json:"max_score,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromResult(r steps.Result) Event {
	return Event{Type: "step.result", Step: r.StepID, Result: &r}
}
