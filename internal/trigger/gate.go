package trigger

import (
	"fmt"
	"strings"

	"gradepipe/internal/event"
)

// Gate decides whether a trigger event starts a pipeline run.
//
// Two checks, both cheap and both total: the event kind must be one the
// pipeline subscribes to, and the triggering actor must not be excluded.
// The original use case is keeping an autograding pipeline from grading
// the classroom bot's own scaffold commits.
type Gate struct {
	// Kinds are the subscribed trigger event kinds.
	Kinds []event.Kind
	// ExcludeActors are actor logins whose events never run the pipeline.
	// Matching is case-insensitive, per GitHub login semantics.
	ExcludeActors []string
}

// Decision is the gate's verdict for one event.
type Decision struct {
	Allowed bool
	// Reason explains a rejection; empty when Allowed.
	Reason string
}

// Decide judges a single event. Rejection is not an error: a skipped run
// is a normal, successful outcome.
func (g Gate) Decide(ev event.Event) Decision {
	subscribed := false
	for _, k := range g.Kinds {
		if k == ev.Kind {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return Decision{Reason: fmt.Sprintf("event kind %q is not a configured trigger", ev.Kind)}
	}

	for _, excluded := range g.ExcludeActors {
		if strings.EqualFold(strings.TrimSpace(excluded), ev.Actor) {
			return Decision{Reason: fmt.Sprintf("actor %q is excluded from triggering runs", ev.Actor)}
		}
	}

	return Decision{Allowed: true}
}
