package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gradepipe/internal/steps"
)

func checksTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), "token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client.Client.BaseURL = base
	return client
}

func TestPublishCheckRun(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := checksTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})

	check := steps.CheckRun{
		Name:    "autograding",
		Title:   "Grade: 950/1000",
		Summary: "Total Points: 950/1000",
		Passed:  false,
	}
	err := client.PublishCheckRun(context.Background(), "acme", "hw3", "deadbeef", check)
	if err != nil {
		t.Fatalf("PublishCheckRun failed: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/repos/acme/hw3/check-runs") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["name"] != "autograding" || gotBody["head_sha"] != "deadbeef" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
	if gotBody["status"] != "completed" || gotBody["conclusion"] != "failure" {
		t.Fatalf("unexpected status/conclusion: %#v", gotBody)
	}
}

func TestPublishCheckRun_PassedConclusion(t *testing.T) {
	var gotBody map[string]any
	client := checksTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 2}`))
	})

	err := client.PublishCheckRun(context.Background(), "acme", "hw3", "deadbeef", steps.CheckRun{Passed: true})
	if err != nil {
		t.Fatalf("PublishCheckRun failed: %v", err)
	}
	if gotBody["conclusion"] != "success" {
		t.Fatalf("conclusion = %v, want success", gotBody["conclusion"])
	}
	if gotBody["name"] != "autograding" {
		t.Fatalf("empty name should default to autograding, got %v", gotBody["name"])
	}
}

func TestPublishCheckRun_Validation(t *testing.T) {
	client := checksTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	if err := client.PublishCheckRun(context.Background(), "", "hw3", "sha", steps.CheckRun{}); err == nil {
		t.Fatal("expected error for missing owner")
	}
	if err := client.PublishCheckRun(context.Background(), "acme", "hw3", "", steps.CheckRun{}); err == nil {
		t.Fatal("expected error for missing head SHA")
	}
}

func TestPublishCheckRun_APIFailure(t *testing.T) {
	client := checksTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Resource not accessible"}`))
	})

	err := client.PublishCheckRun(context.Background(), "acme", "hw3", "deadbeef", steps.CheckRun{})
	if err == nil {
		t.Fatal("expected error on API failure")
	}
	if !strings.Contains(err.Error(), "acme/hw3") {
		t.Fatalf("error %q should name the repository", err)
	}
}
