package event

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Kind is a trigger event kind, named after the platform event that
// carries it.
type Kind string

const (
	KindPush               Kind = "push"
	KindRepositoryDispatch Kind = "repository_dispatch"
)

// Known reports whether k is an event kind this tool understands.
func Known(k Kind) bool {
	return k == KindPush || k == KindRepositoryDispatch
}

// Event is one qualifying trigger occurrence: the thing the gate judges
// and the pipeline runs against.
type Event struct {
	Kind  Kind
	Actor string
	// Repo is OWNER/REPO of the repository the event belongs to.
	Repo string
	Ref  string
	// HeadSHA is the commit the run grades (push "after", or whatever the
	// dispatcher supplied).
	HeadSHA string
	// DispatchType is the repository_dispatch action name, empty for push.
	DispatchType string
}

// payload mirrors the subset of the platform webhook JSON we care about.
type payload struct {
	Ref    string `json:"ref"`
	After  string `json:"after"`
	Action string `json:"action"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	ClientPayload struct {
		SHA string `json:"sha"`
	} `json:"client_payload"`
}

// Load reads a webhook payload file (the GITHUB_EVENT_PATH shape) and
// builds an Event of the given kind. The platform delivers the event name
// out of band, so the kind is a parameter rather than part of the JSON.
func Load(path string, kind Kind) (Event, error) {
	if !Known(kind) {
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Event{}, fmt.Errorf("read event payload: %w", err)
	}
	return Parse(raw, kind)
}

// Parse builds an Event of the given kind from raw webhook payload JSON.
func Parse(raw []byte, kind Kind) (Event, error) {
	if !Known(kind) {
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("event payload is not valid JSON: %w", err)
	}

	ev := Event{
		Kind:  kind,
		Actor: p.Sender.Login,
		Repo:  p.Repository.FullName,
		Ref:   p.Ref,
	}
	switch kind {
	case KindPush:
		ev.HeadSHA = p.After
	case KindRepositoryDispatch:
		ev.DispatchType = p.Action
		ev.HeadSHA = p.ClientPayload.SHA
	}
	return ev, nil
}

// SplitRepo splits the event's OWNER/REPO into its parts.
func (e Event) SplitRepo() (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(e.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
