package builtin

import (
	"context"
	"fmt"

	"gradepipe/internal/steps"
)

// Lightweight run-context doubles shared by the step tests.

type mapEnv map[string]string

func (e mapEnv) Set(name, value string) error {
	if _, exists := e[name]; exists {
		return fmt.Errorf("env variable %s already set", name)
	}
	e[name] = value
	return nil
}

func (e mapEnv) Lookup(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

type mapOutputs map[string]map[string]string

func (o mapOutputs) Output(stepID, name string) (string, bool) {
	outs, ok := o[stepID]
	if !ok {
		return "", false
	}
	v, ok := outs[name]
	return v, ok
}

type capturedCheck struct {
	owner, repo, headSHA string
	check                steps.CheckRun
}

type fakeChecks struct {
	published []capturedCheck
	err       error
}

func (f *fakeChecks) PublishCheckRun(ctx context.Context, owner, repo, headSHA string, check steps.CheckRun) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, capturedCheck{owner, repo, headSHA, check})
	return nil
}
