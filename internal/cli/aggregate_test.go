package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const encodedFivePoints = "eyJ0ZXN0cyI6W3sic2NvcmUiOjIuNX0seyJzY29yZSI6Mi41fV19"

func runAggregate(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"aggregate"}, args...))
	defer func() {
		aggregateFile = ""
		aggregateGitHubEnv = ""
		aggregateEnvVar = "TOTAL_SCORE"
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAggregateFromArgument(t *testing.T) {
	out, err := runAggregate(t, "", encodedFivePoints)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("output = %q, want 5", out)
	}
}

func TestAggregateFromStdin(t *testing.T) {
	out, err := runAggregate(t, encodedFivePoints+"\n")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Fatalf("output = %q, want 5", out)
	}
}

func TestAggregateRejectsBadPayload(t *testing.T) {
	_, err := runAggregate(t, "", "not$base64")
	if err == nil {
		t.Fatal("aggregate succeeded on malformed payload, want error")
	}
	if !strings.Contains(err.Error(), "invalid grading payload") {
		t.Fatalf("error = %v", err)
	}
}

func TestAggregateWritesGitHubEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "github_env")
	_, err := runAggregate(t, "", encodedFivePoints, "--github-env", envFile)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	raw, err := os.ReadFile(envFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(raw)); got != "TOTAL_SCORE=5" {
		t.Fatalf("env file = %q, want TOTAL_SCORE=5", got)
	}
}
