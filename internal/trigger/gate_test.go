package trigger

import (
	"testing"

	"gradepipe/internal/event"
)

func classroomGate() Gate {
	return Gate{
		Kinds:         []event.Kind{event.KindPush, event.KindRepositoryDispatch},
		ExcludeActors: []string{"github-classroom[bot]"},
	}
}

func TestDecide_AllowsSubscribedKinds(t *testing.T) {
	g := classroomGate()
	for _, kind := range []event.Kind{event.KindPush, event.KindRepositoryDispatch} {
		d := g.Decide(event.Event{Kind: kind, Actor: "octocat"})
		if !d.Allowed {
			t.Fatalf("%s by octocat should be allowed, got reason %q", kind, d.Reason)
		}
	}
}

func TestDecide_ExcludedActorSkipsBothKinds(t *testing.T) {
	g := classroomGate()
	for _, kind := range []event.Kind{event.KindPush, event.KindRepositoryDispatch} {
		d := g.Decide(event.Event{Kind: kind, Actor: "github-classroom[bot]"})
		if d.Allowed {
			t.Fatalf("%s by excluded actor must be skipped", kind)
		}
		if d.Reason == "" {
			t.Fatal("rejection must carry a reason")
		}
	}
}

func TestDecide_ActorMatchIsCaseInsensitive(t *testing.T) {
	g := classroomGate()
	d := g.Decide(event.Event{Kind: event.KindPush, Actor: "GitHub-Classroom[bot]"})
	if d.Allowed {
		t.Fatal("case variant of excluded actor must still be skipped")
	}
}

func TestDecide_UnsubscribedKind(t *testing.T) {
	g := Gate{Kinds: []event.Kind{event.KindPush}}
	d := g.Decide(event.Event{Kind: event.KindRepositoryDispatch, Actor: "octocat"})
	if d.Allowed {
		t.Fatal("unsubscribed event kind must be skipped")
	}
}
