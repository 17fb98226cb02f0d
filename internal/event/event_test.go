package event

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const pushPayload = `{
	"ref": "refs/heads/main",
	"after": "deadbeefcafe",
	"sender": {"login": "octocat"},
	"repository": {"full_name": "acme/hw3"}
}`

const dispatchPayload = `{
	"action": "regrade",
	"sender": {"login": "teacher-bot"},
	"repository": {"full_name": "acme/hw3"},
	"client_payload": {"sha": "deadbeefcafe"}
}`

func TestParse_Push(t *testing.T) {
	ev, err := Parse([]byte(pushPayload), KindPush)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := Event{
		Kind:    KindPush,
		Actor:   "octocat",
		Repo:    "acme/hw3",
		Ref:     "refs/heads/main",
		HeadSHA: "deadbeefcafe",
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RepositoryDispatch(t *testing.T) {
	ev, err := Parse([]byte(dispatchPayload), KindRepositoryDispatch)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := Event{
		Kind:         KindRepositoryDispatch,
		Actor:        "teacher-bot",
		Repo:         "acme/hw3",
		HeadSHA:      "deadbeefcafe",
		DispatchType: "regrade",
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(pushPayload), Kind("pull_request")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := Parse([]byte("{not json"), KindPush); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(pushPayload), 0o644); err != nil {
		t.Fatal(err)
	}

	ev, err := Load(path, KindPush)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ev.Actor != "octocat" {
		t.Fatalf("actor = %q, want octocat", ev.Actor)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), KindPush); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSplitRepo(t *testing.T) {
	owner, repo, ok := Event{Repo: "acme/hw3"}.SplitRepo()
	if !ok || owner != "acme" || repo != "hw3" {
		t.Fatalf("SplitRepo = %q, %q, %v", owner, repo, ok)
	}
	for _, bad := range []string{"", "acme", "/hw3", "acme/"} {
		if _, _, ok := (Event{Repo: bad}).SplitRepo(); ok {
			t.Fatalf("SplitRepo(%q) should not be ok", bad)
		}
	}
}
